// README: Review workflow; creation gated on assignment, one-way completion, tag set mutations.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/types"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrNotAssigned     = errors.New("reviewer is not assigned to this order")
	ErrAlreadyComplete = errors.New("review is already complete")
	ErrConflict        = errors.New("completed review cannot be deleted")
	ErrInvalidRating   = errors.New("rating scores must be between 1 and 5")
	ErrBadRequest      = errors.New("bad request")
)

// Orders exposes the order lookups the workflow needs.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

type Service struct {
	store   *Store
	orders  Orders
	emitter notification.Emitter
}

func NewService(store *Store, orders Orders, emitter notification.Emitter) *Service {
	return &Service{store: store, orders: orders, emitter: emitter}
}

type CreateCommand struct {
	OrderID         types.ID
	ReviewerID      types.ID
	Title           string
	Content         string
	Recommendations string
	Severity        Severity
}

type UpdateCommand struct {
	ReviewID        types.ID
	Title           string
	Content         string
	Recommendations string
	Severity        Severity
	ReviewTimeMin   *int
}

type CompleteCommand struct {
	ReviewID        types.ID
	Recommendations string
	ReviewTimeMin   *int
}

type RateCommand struct {
	ReviewID     types.ID
	Accuracy     int
	Clarity      int
	Thoroughness int
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.OrderID == "" || cmd.ReviewerID == "" || cmd.Content == "" {
		return "", ErrBadRequest
	}
	if cmd.Severity == "" {
		cmd.Severity = SeverityMedium
	}
	if !cmd.Severity.Valid() {
		return "", ErrBadRequest
	}

	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return "", err
	}
	if o.ReviewerID == nil || *o.ReviewerID != cmd.ReviewerID {
		return "", ErrNotAssigned
	}

	now := time.Now()
	r := &Review{
		ID:              types.NewID(),
		OrderID:         cmd.OrderID,
		ReviewerID:      cmd.ReviewerID,
		Title:           cmd.Title,
		Content:         cmd.Content,
		Recommendations: cmd.Recommendations,
		Severity:        cmd.Severity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}

	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       notification.KindReviewCreated,
		Title:      "Review Started",
		Message:    fmt.Sprintf("A clinician has started the review for order %s.", o.OrderNumber),
	})
	return r.ID, nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) error {
	r, err := s.store.Get(ctx, cmd.ReviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrAlreadyComplete
	}
	if cmd.Severity != "" && !cmd.Severity.Valid() {
		return ErrBadRequest
	}
	if cmd.ReviewTimeMin != nil && *cmd.ReviewTimeMin < 0 {
		return ErrBadRequest
	}

	if cmd.Title != "" {
		r.Title = cmd.Title
	}
	if cmd.Content != "" {
		r.Content = cmd.Content
	}
	if cmd.Recommendations != "" {
		r.Recommendations = cmd.Recommendations
	}
	if cmd.Severity != "" {
		r.Severity = cmd.Severity
	}
	if cmd.ReviewTimeMin != nil {
		r.ReviewTimeMin = cmd.ReviewTimeMin
	}
	ok, err := s.store.Update(ctx, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyComplete
	}
	return nil
}

// Complete flips the review one-way and, atomically with it, completes the
// parent order.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	r, err := s.store.Get(ctx, cmd.ReviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrAlreadyComplete
	}
	if cmd.Recommendations != "" || cmd.ReviewTimeMin != nil {
		update := UpdateCommand{
			ReviewID:        cmd.ReviewID,
			Recommendations: cmd.Recommendations,
			ReviewTimeMin:   cmd.ReviewTimeMin,
		}
		if err := s.Update(ctx, update); err != nil {
			return err
		}
	}

	ok, err := s.store.Complete(ctx, r.ID, r.OrderID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyComplete
	}

	o, err := s.orders.Get(ctx, r.OrderID)
	if err != nil {
		// The completion already committed; notification is best effort.
		return nil
	}
	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       notification.KindReviewCompleted,
		Title:      "Review Completed",
		Message:    fmt.Sprintf("The review for order %s is complete.", o.OrderNumber),
		Priority:   notification.PriorityHigh,
	})
	return nil
}

func (s *Service) AddTag(ctx context.Context, reviewID types.ID, tag string) error {
	r, err := s.store.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrAlreadyComplete
	}
	r.Tags = addTag(r.Tags, tag)
	ok, err := s.store.Update(ctx, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyComplete
	}
	return nil
}

func (s *Service) RemoveTag(ctx context.Context, reviewID types.ID, tag string) error {
	r, err := s.store.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrAlreadyComplete
	}
	r.Tags = removeTag(r.Tags, tag)
	ok, err := s.store.Update(ctx, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyComplete
	}
	return nil
}

func (s *Service) Rate(ctx context.Context, cmd RateCommand) error {
	if !validScore(cmd.Accuracy) || !validScore(cmd.Clarity) || !validScore(cmd.Thoroughness) {
		return ErrInvalidRating
	}
	r, err := s.store.Get(ctx, cmd.ReviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrAlreadyComplete
	}
	r.Ratings = &Ratings{
		Accuracy:     cmd.Accuracy,
		Clarity:      cmd.Clarity,
		Thoroughness: cmd.Thoroughness,
		Overall:      overall(cmd.Accuracy, cmd.Clarity, cmd.Thoroughness),
	}
	ok, err := s.store.Update(ctx, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyComplete
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, reviewID types.ID) error {
	r, err := s.store.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.IsComplete {
		return ErrConflict
	}
	ok, err := s.store.Delete(ctx, reviewID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Review, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]*Review, error) {
	return s.store.ListByOrder(ctx, orderID)
}
