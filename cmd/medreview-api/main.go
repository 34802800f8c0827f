// README: Entry point; loads config, wires services, starts HTTP server and background tickers.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medreview/internal/config"
	httptransport "medreview/internal/http"
	"medreview/internal/infra"
	"medreview/internal/logger"
	"medreview/internal/modules/consultation"
	"medreview/internal/modules/document"
	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/modules/payment"
	"medreview/internal/modules/review"
	"medreview/internal/modules/user"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("db init failed", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	notificationStore := notification.NewStore(dbPool)
	notificationSvc := notification.NewService(notificationStore, log)

	userStore := user.NewStore(dbPool)
	userSvc := user.NewService(userStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, userSvc, notificationSvc)

	reviewStore := review.NewStore(dbPool)
	reviewSvc := review.NewService(reviewStore, orderSvc, notificationSvc)

	paymentStore := payment.NewStore(dbPool)
	paymentSvc := payment.NewService(paymentStore, orderSvc, notificationSvc)

	reminderStore := consultation.NewReminderStore(redisClient)
	consultationStore := consultation.NewStore(dbPool)
	consultationSvc := consultation.NewService(consultationStore, reminderStore, userSvc, notificationSvc, cfg.Reminders, log)

	documentStore := document.NewStore(dbPool)
	documentSvc := document.NewService(documentStore, orderSvc, userSvc, notificationSvc)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Users:         userSvc,
		Orders:        orderSvc,
		Reviews:       reviewSvc,
		Payments:      paymentSvc,
		Consultations: consultationSvc,
		Documents:     documentSvc,
		Notifications: notificationSvc,
		JWTSecret:     cfg.Auth.JWTSecret,
		Log:           log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go consultationSvc.RunReminderTicker(ctx)
	go notificationSvc.RunExpirySweep(ctx, cfg.Notification.SweepInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}
