// README: Order lifecycle handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/order"
	"medreview/internal/types"
)

type OrderHandler struct {
	orders *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{orders: svc}
}

type createOrderReq struct {
	ProductType string      `json:"product_type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	TotalAmount types.Money `json:"total_amount"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	// Admins may create on behalf of a customer.
	CustomerID string `json:"customer_id,omitempty"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	customerID := middleware.CallerUID(c)
	if req.CustomerID != "" && middleware.CallerRole(c) == types.RoleAdmin {
		customerID = types.ID(req.CustomerID)
	}
	id, err := h.orders.Create(c.Request.Context(), order.CreateCommand{
		CustomerID:  customerID,
		ProductType: order.ProductType(req.ProductType),
		Title:       req.Title,
		Description: req.Description,
		Priority:    order.Priority(req.Priority),
		TotalAmount: req.TotalAmount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"order_id": id, "status": order.StatusPendingReview})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	if !callerIsParty(c, o) {
		writeError(c, http.StatusForbidden, "not a party to this order")
		return
	}
	writeJSON(c, http.StatusOK, orderDTO(o))
}

// List returns the caller's orders: customers see orders they placed,
// reviewers see orders assigned to them.
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.CallerUID(c)

	var (
		out []*order.Order
		err error
	)
	if middleware.CallerRole(c) == types.RoleReviewer {
		out, err = h.orders.ListByReviewer(ctx, uid)
	} else {
		out, err = h.orders.ListByCustomer(ctx, uid)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orderDTOs(out)})
}

func (h *OrderHandler) ListOverdue(c *gin.Context) {
	out, err := h.orders.ListOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orderDTOs(out)})
}

type assignReq struct {
	ReviewerID string `json:"reviewer_id"`
}

func (h *OrderHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ReviewerID == "" {
		writeError(c, http.StatusBadRequest, "missing reviewer_id")
		return
	}
	err := h.orders.Assign(c.Request.Context(), order.AssignCommand{
		OrderID:    types.ID(c.Param("id")),
		ReviewerID: types.ID(req.ReviewerID),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusAssigned})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	err := h.orders.UpdateStatus(c.Request.Context(), order.UpdateStatusCommand{
		OrderID: types.ID(c.Param("id")),
		Status:  order.Status(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)

	o, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	uid := middleware.CallerUID(c)
	if uid != o.CustomerID && middleware.CallerRole(c) != types.RoleAdmin {
		writeError(c, http.StatusForbidden, "only the customer can cancel this order")
		return
	}
	err = h.orders.Cancel(c.Request.Context(), order.CancelCommand{
		OrderID: o.ID,
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusCancelled})
}

// callerIsParty reports whether the caller is the order's customer, its
// assigned reviewer, or an admin.
func callerIsParty(c *gin.Context, o *order.Order) bool {
	uid := middleware.CallerUID(c)
	if middleware.CallerRole(c) == types.RoleAdmin || uid == o.CustomerID {
		return true
	}
	return o.ReviewerID != nil && uid == *o.ReviewerID
}

func orderDTO(o *order.Order) gin.H {
	return gin.H{
		"id":            o.ID,
		"order_number":  o.OrderNumber,
		"customer_id":   o.CustomerID,
		"reviewer_id":   o.ReviewerID,
		"product_type":  o.ProductType,
		"title":         o.Title,
		"description":   o.Description,
		"status":        o.Status,
		"priority":      o.Priority,
		"total_amount":  o.TotalAmount,
		"paid_amount":   o.PaidAmount,
		"due_date":      o.DueDate,
		"created_at":    o.CreatedAt,
		"assigned_at":   o.AssignedAt,
		"completed_at":  o.CompletedAt,
		"cancelled_at":  o.CancelledAt,
		"cancel_reason": o.CancelReason,
	}
}

func orderDTOs(orders []*order.Order) []gin.H {
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderDTO(o))
	}
	return out
}
