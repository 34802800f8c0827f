// README: Consultation scheduling handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/consultation"
	"medreview/internal/types"
)

type ConsultationHandler struct {
	consultations *consultation.Service
}

func NewConsultationHandler(svc *consultation.Service) *ConsultationHandler {
	return &ConsultationHandler{consultations: svc}
}

type scheduleReq struct {
	OrderID     string    `json:"order_id"`
	ReviewerID  string    `json:"reviewer_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	// Admins may book on behalf of a customer.
	CustomerID string `json:"customer_id,omitempty"`
}

func (h *ConsultationHandler) Schedule(c *gin.Context) {
	var req scheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	customerID := middleware.CallerUID(c)
	if req.CustomerID != "" && middleware.CallerRole(c) == types.RoleAdmin {
		customerID = types.ID(req.CustomerID)
	}
	id, err := h.consultations.Schedule(c.Request.Context(), consultation.ScheduleCommand{
		OrderID:     types.ID(req.OrderID),
		CustomerID:  customerID,
		ReviewerID:  types.ID(req.ReviewerID),
		ScheduledAt: req.ScheduledAt,
		DurationMin: req.DurationMin,
		MeetingLink: req.MeetingLink,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"consultation_id": id, "status": consultation.StatusScheduled})
}

func (h *ConsultationHandler) Start(c *gin.Context) {
	if err := h.consultations.Start(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": consultation.StatusInProgress})
}

type completeConsultationReq struct {
	Notes         string `json:"notes"`
	ReviewerNotes string `json:"reviewer_notes"`
}

func (h *ConsultationHandler) Complete(c *gin.Context) {
	var req completeConsultationReq
	_ = c.ShouldBindJSON(&req)

	err := h.consultations.Complete(c.Request.Context(), consultation.CompleteCommand{
		ConsultationID: types.ID(c.Param("id")),
		Notes:          req.Notes,
		ReviewerNotes:  req.ReviewerNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": consultation.StatusCompleted})
}

func (h *ConsultationHandler) Cancel(c *gin.Context) {
	if err := h.consultations.Cancel(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": consultation.StatusCancelled})
}

type rescheduleReq struct {
	NewDate time.Time `json:"new_date"`
	Reason  string    `json:"reason"`
}

func (h *ConsultationHandler) Reschedule(c *gin.Context) {
	var req rescheduleReq
	if err := c.ShouldBindJSON(&req); err != nil || req.NewDate.IsZero() {
		writeError(c, http.StatusBadRequest, "missing new_date")
		return
	}
	err := h.consultations.Reschedule(c.Request.Context(), consultation.RescheduleCommand{
		ConsultationID: types.ID(c.Param("id")),
		NewDate:        req.NewDate,
		Reason:         req.Reason,
		By:             middleware.CallerUID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": consultation.StatusScheduled, "scheduled_at": req.NewDate})
}

type rateConsultationReq struct {
	Overall       int    `json:"overall"`
	Communication int    `json:"communication"`
	Comment       string `json:"comment"`
}

func (h *ConsultationHandler) Rate(c *gin.Context) {
	var req rateConsultationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.consultations.Rate(c.Request.Context(), consultation.RateCommand{
		ConsultationID: types.ID(c.Param("id")),
		Overall:        req.Overall,
		Communication:  req.Communication,
		Comment:        req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "rated"})
}

func (h *ConsultationHandler) Get(c *gin.Context) {
	con, err := h.consultations.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, consultationDTO(con))
}

func (h *ConsultationHandler) ListByOrder(c *gin.Context) {
	out, err := h.consultations.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]gin.H, 0, len(out))
	for _, con := range out {
		dtos = append(dtos, consultationDTO(con))
	}
	writeJSON(c, http.StatusOK, gin.H{"consultations": dtos})
}

// AvailableSlots lists a reviewer's free business-hour slots; ?days= bounds
// the horizon (default 7).
func (h *ConsultationHandler) AvailableSlots(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	slots, err := h.consultations.AvailableSlots(c.Request.Context(), types.ID(c.Param("id")), days)
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"slots": slots})
}

func consultationDTO(con *consultation.Consultation) gin.H {
	return gin.H{
		"id":                 con.ID,
		"order_id":           con.OrderID,
		"customer_id":        con.CustomerID,
		"reviewer_id":        con.ReviewerID,
		"scheduled_at":       con.ScheduledAt,
		"duration_min":       con.DurationMin,
		"status":             con.Status,
		"meeting_link":       con.MeetingLink,
		"notes":              con.Notes,
		"reviewer_notes":     con.ReviewerNotes,
		"rating":             con.Rating,
		"reschedule_history": con.RescheduleHistory,
		"created_at":         con.CreatedAt,
	}
}
