// README: Shared handler utilities (JSON helpers, domain error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/modules/consultation"
	"medreview/internal/modules/document"
	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/modules/payment"
	"medreview/internal/modules/review"
	"medreview/internal/modules/user"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// respondError maps module sentinel errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, consultation.ErrNotFound),
		errors.Is(err, document.ErrNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, review.ErrBadRequest),
		errors.Is(err, payment.ErrBadRequest),
		errors.Is(err, consultation.ErrBadRequest),
		errors.Is(err, document.ErrBadRequest),
		errors.Is(err, user.ErrBadRequest),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, consultation.ErrInvalidRating),
		errors.Is(err, consultation.ErrInvalidDuration):
		writeError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, document.ErrInvalidFile),
		errors.Is(err, consultation.ErrInvalidDate):
		writeError(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, order.ErrInvalidReviewer),
		errors.Is(err, consultation.ErrInvalidReviewer),
		errors.Is(err, review.ErrNotAssigned):
		writeError(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, document.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, payment.ErrInvalidState),
		errors.Is(err, consultation.ErrInvalidState),
		errors.Is(err, payment.ErrAlreadyCompleted),
		errors.Is(err, review.ErrAlreadyComplete),
		errors.Is(err, consultation.ErrSlotTaken),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, review.ErrConflict),
		errors.Is(err, payment.ErrConflict),
		errors.Is(err, consultation.ErrConflict),
		errors.Is(err, document.ErrConflict),
		errors.Is(err, payment.ErrDuplicateTransaction),
		errors.Is(err, order.ErrDuplicateNumber),
		errors.Is(err, user.ErrEmailTaken):
		writeError(c, http.StatusConflict, err.Error())

	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
