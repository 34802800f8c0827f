// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/handlers"
	"medreview/internal/http/middleware"
	"medreview/internal/modules/consultation"
	"medreview/internal/modules/document"
	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/modules/payment"
	"medreview/internal/modules/review"
	"medreview/internal/modules/user"
	"medreview/internal/types"
)

type RouterDeps struct {
	Users         *user.Service
	Orders        *order.Service
	Reviews       *review.Service
	Payments      *payment.Service
	Consultations *consultation.Service
	Documents     *document.Service
	Notifications *notification.Service
	JWTSecret     string
	Log           *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	authHandler := handlers.NewAuthHandler(deps.Users)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	reviewHandler := handlers.NewReviewHandler(deps.Reviews)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	consultationHandler := handlers.NewConsultationHandler(deps.Consultations)
	documentHandler := handlers.NewDocumentHandler(deps.Documents)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)

	api := r.Group("/api/v1")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.JWTSecret))

	admin := middleware.RequireRole(types.RoleAdmin)
	reviewer := middleware.RequireRole(types.RoleReviewer, types.RoleAdmin)

	authed.GET("/users/me", authHandler.Me)
	authed.PUT("/users/me/reviewer-profile", reviewer, authHandler.UpdateReviewerProfile)
	authed.POST("/users/:id/activate", admin, authHandler.Activate)
	authed.POST("/users/:id/deactivate", admin, authHandler.Deactivate)

	authed.POST("/orders", orderHandler.Create)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/overdue", admin, orderHandler.ListOverdue)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/assign", admin, orderHandler.Assign)
	authed.POST("/orders/:id/status", reviewer, orderHandler.UpdateStatus)
	authed.POST("/orders/:id/cancel", orderHandler.Cancel)

	authed.POST("/orders/:id/reviews", reviewer, reviewHandler.Create)
	authed.GET("/orders/:id/reviews", reviewHandler.ListByOrder)
	authed.GET("/reviews/:id", reviewHandler.Get)
	authed.PUT("/reviews/:id", reviewer, reviewHandler.Update)
	authed.POST("/reviews/:id/complete", reviewer, reviewHandler.Complete)
	authed.POST("/reviews/:id/tags", reviewer, reviewHandler.AddTag)
	authed.DELETE("/reviews/:id/tags/:tag", reviewer, reviewHandler.RemoveTag)
	authed.POST("/reviews/:id/rating", reviewHandler.Rate)
	authed.DELETE("/reviews/:id", reviewer, reviewHandler.Delete)

	authed.POST("/orders/:id/payments", paymentHandler.Create)
	authed.GET("/orders/:id/payments", paymentHandler.ListByOrder)
	authed.GET("/payments/:id", paymentHandler.Get)
	authed.POST("/payments/:id/complete", admin, paymentHandler.Complete)
	authed.POST("/payments/:id/fail", admin, paymentHandler.Fail)
	authed.POST("/payments/:id/refund", admin, paymentHandler.Refund)
	authed.POST("/payments/:id/retry", paymentHandler.Retry)

	authed.POST("/consultations", consultationHandler.Schedule)
	authed.GET("/consultations/:id", consultationHandler.Get)
	authed.POST("/consultations/:id/start", reviewer, consultationHandler.Start)
	authed.POST("/consultations/:id/complete", reviewer, consultationHandler.Complete)
	authed.POST("/consultations/:id/cancel", consultationHandler.Cancel)
	authed.POST("/consultations/:id/reschedule", consultationHandler.Reschedule)
	authed.POST("/consultations/:id/rating", consultationHandler.Rate)
	authed.GET("/orders/:id/consultations", consultationHandler.ListByOrder)
	authed.GET("/reviewers/:id/slots", consultationHandler.AvailableSlots)

	authed.POST("/orders/:id/documents", documentHandler.Upload)
	authed.GET("/orders/:id/documents", documentHandler.ListByOrder)
	authed.POST("/documents/:id/download", documentHandler.Download)
	authed.DELETE("/documents/:id", documentHandler.Delete)
	authed.POST("/documents/:id/restore", documentHandler.Restore)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications/:id/delivered", admin, notificationHandler.MarkDelivered)

	return r
}
