// README: Notification service; store-backed emitter plus read/delivery flags and expiry sweep.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medreview/internal/types"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	store *Store
	log   *slog.Logger
}

func NewService(store *Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Emit writes one notification per recipient. Failures are logged and
// reported but never abort the caller's primary mutation.
func (s *Service) Emit(ctx context.Context, e Event) error {
	now := time.Now()
	priority := e.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	var firstErr error
	for _, userID := range e.Recipients {
		if userID == "" {
			continue
		}
		n := &Notification{
			ID:        types.NewID(),
			UserID:    userID,
			OrderID:   e.OrderID,
			Kind:      e.Kind,
			Title:     e.Title,
			Message:   e.Message,
			Priority:  priority,
			CreatedAt: now,
			ExpiresAt: now.Add(DefaultTTL),
		}
		if err := s.store.Create(ctx, n); err != nil {
			s.log.Error("notification emit failed",
				"kind", string(e.Kind), "user_id", string(userID), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Service) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	return s.store.ListByUser(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, id, userID types.ID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkDelivered(ctx context.Context, id types.ID, ch Channel) error {
	ok, err := s.store.MarkDelivered(ctx, id, ch)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// RunExpirySweep deletes expired notifications on a fixed interval.
func (s *Service) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.log.Error("notification expiry sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.log.Info("expired notifications deleted", "count", n)
			}
		}
	}
}
