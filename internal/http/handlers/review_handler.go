// README: Review workflow handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/review"
	"medreview/internal/types"
)

type ReviewHandler struct {
	reviews *review.Service
}

func NewReviewHandler(svc *review.Service) *ReviewHandler {
	return &ReviewHandler{reviews: svc}
}

type createReviewReq struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Recommendations string `json:"recommendations"`
	Severity        string `json:"severity"`
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req createReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.reviews.Create(c.Request.Context(), review.CreateCommand{
		OrderID:         types.ID(c.Param("id")),
		ReviewerID:      middleware.CallerUID(c),
		Title:           req.Title,
		Content:         req.Content,
		Recommendations: req.Recommendations,
		Severity:        review.Severity(req.Severity),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"review_id": id})
}

func (h *ReviewHandler) Get(c *gin.Context) {
	r, err := h.reviews.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, reviewDTO(r))
}

func (h *ReviewHandler) ListByOrder(c *gin.Context) {
	out, err := h.reviews.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]gin.H, 0, len(out))
	for _, r := range out {
		dtos = append(dtos, reviewDTO(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"reviews": dtos})
}

type updateReviewReq struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Recommendations string `json:"recommendations"`
	Severity        string `json:"severity"`
	ReviewTimeMin   *int   `json:"review_time_min,omitempty"`
}

func (h *ReviewHandler) Update(c *gin.Context) {
	var req updateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.reviews.Update(c.Request.Context(), review.UpdateCommand{
		ReviewID:        types.ID(c.Param("id")),
		Title:           req.Title,
		Content:         req.Content,
		Recommendations: req.Recommendations,
		Severity:        review.Severity(req.Severity),
		ReviewTimeMin:   req.ReviewTimeMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "updated"})
}

type completeReviewReq struct {
	Recommendations string `json:"recommendations"`
	ReviewTimeMin   *int   `json:"review_time_min,omitempty"`
}

func (h *ReviewHandler) Complete(c *gin.Context) {
	var req completeReviewReq
	_ = c.ShouldBindJSON(&req)

	err := h.reviews.Complete(c.Request.Context(), review.CompleteCommand{
		ReviewID:        types.ID(c.Param("id")),
		Recommendations: req.Recommendations,
		ReviewTimeMin:   req.ReviewTimeMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_complete": true})
}

type tagReq struct {
	Tag string `json:"tag"`
}

func (h *ReviewHandler) AddTag(c *gin.Context) {
	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Tag == "" {
		writeError(c, http.StatusBadRequest, "missing tag")
		return
	}
	if err := h.reviews.AddTag(c.Request.Context(), types.ID(c.Param("id")), req.Tag); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "tagged"})
}

func (h *ReviewHandler) RemoveTag(c *gin.Context) {
	tag := c.Param("tag")
	if tag == "" {
		writeError(c, http.StatusBadRequest, "missing tag")
		return
	}
	if err := h.reviews.RemoveTag(c.Request.Context(), types.ID(c.Param("id")), tag); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "untagged"})
}

type rateReviewReq struct {
	Accuracy     int `json:"accuracy"`
	Clarity      int `json:"clarity"`
	Thoroughness int `json:"thoroughness"`
}

func (h *ReviewHandler) Rate(c *gin.Context) {
	var req rateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.reviews.Rate(c.Request.Context(), review.RateCommand{
		ReviewID:     types.ID(c.Param("id")),
		Accuracy:     req.Accuracy,
		Clarity:      req.Clarity,
		Thoroughness: req.Thoroughness,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "rated"})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.reviews.Delete(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "deleted"})
}

func reviewDTO(r *review.Review) gin.H {
	return gin.H{
		"id":              r.ID,
		"order_id":        r.OrderID,
		"reviewer_id":     r.ReviewerID,
		"title":           r.Title,
		"content":         r.Content,
		"recommendations": r.Recommendations,
		"severity":        r.Severity,
		"tags":            r.Tags,
		"ratings":         r.Ratings,
		"is_complete":     r.IsComplete,
		"review_time_min": r.ReviewTimeMin,
		"created_at":      r.CreatedAt,
		"updated_at":      r.UpdatedAt,
		"completed_at":    r.CompletedAt,
	}
}
