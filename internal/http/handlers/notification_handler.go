// README: Notification inbox handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/notification"
	"medreview/internal/types"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: svc}
}

// List returns the caller's notifications; ?unread=true filters to unread.
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	out, err := h.notifications.ListByUser(c.Request.Context(), middleware.CallerUID(c), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]gin.H, 0, len(out))
	for _, n := range out {
		dtos = append(dtos, notificationDTO(n))
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": dtos})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notifications.MarkRead(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_read": true})
}

type deliveredReq struct {
	Channel string `json:"channel"`
}

// MarkDelivered records a channel delivery; called by the delivery worker,
// hence admin-only at the router.
func (h *NotificationHandler) MarkDelivered(c *gin.Context) {
	var req deliveredReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ch := notification.Channel(req.Channel)
	if !ch.Valid() {
		writeError(c, http.StatusBadRequest, "unknown channel")
		return
	}
	if err := h.notifications.MarkDelivered(c.Request.Context(), types.ID(c.Param("id")), ch); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"channel": ch})
}

func notificationDTO(n *notification.Notification) gin.H {
	return gin.H{
		"id":            n.ID,
		"order_id":      n.OrderID,
		"kind":          n.Kind,
		"title":         n.Title,
		"message":       n.Message,
		"priority":      n.Priority,
		"is_read":       n.IsRead,
		"read_at":       n.ReadAt,
		"email_sent_at": n.EmailSentAt,
		"sms_sent_at":   n.SMSSentAt,
		"push_sent_at":  n.PushSentAt,
		"created_at":    n.CreatedAt,
		"expires_at":    n.ExpiresAt,
	}
}
