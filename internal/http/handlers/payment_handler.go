// README: Payment ledger handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/modules/payment"
	"medreview/internal/types"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: svc}
}

type createPaymentReq struct {
	Amount types.Money `json:"amount"`
	Method string      `json:"method"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.payments.Create(c.Request.Context(), payment.CreateCommand{
		OrderID: types.ID(c.Param("id")),
		Amount:  req.Amount,
		Method:  req.Method,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"payment_id": id, "status": payment.StatusPending})
}

type completePaymentReq struct {
	TransactionID *string      `json:"transaction_id,omitempty"`
	Fee           *types.Money `json:"fee,omitempty"`
}

func (h *PaymentHandler) Complete(c *gin.Context) {
	var req completePaymentReq
	_ = c.ShouldBindJSON(&req)

	err := h.payments.Complete(c.Request.Context(), payment.CompleteCommand{
		PaymentID:     types.ID(c.Param("id")),
		TransactionID: req.TransactionID,
		Fee:           req.Fee,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": payment.StatusCompleted})
}

type failPaymentReq struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) Fail(c *gin.Context) {
	var req failPaymentReq
	_ = c.ShouldBindJSON(&req)

	if err := h.payments.Fail(c.Request.Context(), types.ID(c.Param("id")), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": payment.StatusFailed})
}

type refundReq struct {
	// Amount in cents; zero refunds the full payment.
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req refundReq
	_ = c.ShouldBindJSON(&req)

	err := h.payments.Refund(c.Request.Context(), payment.RefundCommand{
		PaymentID: types.ID(c.Param("id")),
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": payment.StatusRefunded})
}

func (h *PaymentHandler) Retry(c *gin.Context) {
	if err := h.payments.Retry(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": payment.StatusPending})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.payments.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, paymentDTO(p))
}

func (h *PaymentHandler) ListByOrder(c *gin.Context) {
	out, err := h.payments.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]gin.H, 0, len(out))
	for _, p := range out {
		dtos = append(dtos, paymentDTO(p))
	}
	writeJSON(c, http.StatusOK, gin.H{"payments": dtos})
}

func paymentDTO(p *payment.Payment) gin.H {
	return gin.H{
		"id":             p.ID,
		"order_id":       p.OrderID,
		"amount":         p.Amount,
		"status":         p.Status,
		"method":         p.Method,
		"transaction_id": p.TransactionID,
		"fee":            p.Fee,
		"net_amount":     p.NetAmount,
		"refund_amount":  p.RefundAmount,
		"refund_reason":  p.RefundReason,
		"failure_reason": p.FailureReason,
		"processed_at":   p.ProcessedAt,
		"created_at":     p.CreatedAt,
	}
}
