// README: Order lifecycle controller; creation, assignment, transitions, overdue scan.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medreview/internal/modules/notification"
	"medreview/internal/types"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrInvalidState    = errors.New("invalid order state transition")
	ErrInvalidReviewer = errors.New("reviewer is not an active reviewer")
	ErrConflict        = errors.New("order state conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrDuplicateNumber = errors.New("order number already exists")
)

// Directory resolves user preconditions without importing the user module.
type Directory interface {
	Exists(ctx context.Context, id types.ID) (bool, error)
	ActiveReviewer(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store   *Store
	users   Directory
	emitter notification.Emitter
}

func NewService(store *Store, users Directory, emitter notification.Emitter) *Service {
	return &Service{store: store, users: users, emitter: emitter}
}

type CreateCommand struct {
	CustomerID  types.ID
	ProductType ProductType
	Title       string
	Description string
	Priority    Priority
	TotalAmount types.Money
	DueDate     *time.Time
}

type AssignCommand struct {
	OrderID    types.ID
	ReviewerID types.ID
}

type UpdateStatusCommand struct {
	OrderID types.ID
	Status  Status
}

type CancelCommand struct {
	OrderID types.ID
	Reason  string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.CustomerID == "" || cmd.Title == "" {
		return "", ErrBadRequest
	}
	if !cmd.ProductType.Valid() {
		return "", ErrBadRequest
	}
	if cmd.Priority == "" {
		cmd.Priority = PriorityMedium
	}
	if !cmd.Priority.Valid() {
		return "", ErrBadRequest
	}
	if cmd.TotalAmount.Amount < 0 {
		return "", ErrBadRequest
	}

	exists, err := s.users.Exists(ctx, cmd.CustomerID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrNotFound
	}

	now := time.Now()
	o := &Order{
		ID:            types.NewID(),
		OrderNumber:   NewOrderNumber(now),
		CustomerID:    cmd.CustomerID,
		ProductType:   cmd.ProductType,
		Title:         cmd.Title,
		Description:   cmd.Description,
		Status:        StatusPendingReview,
		StatusVersion: 0,
		Priority:      cmd.Priority,
		TotalAmount:   cmd.TotalAmount,
		PaidAmount:    types.Money{Amount: 0, Currency: cmd.TotalAmount.Currency},
		DueDate:       cmd.DueDate,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}

	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       notification.KindOrderCreated,
		Title:      "Order Created",
		Message:    fmt.Sprintf("Your order %s has been created and is awaiting review.", o.OrderNumber),
	})
	return o.ID, nil
}

// Assign sets the reviewer on a pending order.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.Status != StatusPendingReview {
		return ErrInvalidState
	}
	ok, err := s.users.ActiveReviewer(ctx, cmd.ReviewerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidReviewer
	}

	updated, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusAssigned, o.StatusVersion, &cmd.ReviewerID, nil)
	if err != nil {
		return err
	}
	if !updated {
		return ErrConflict
	}

	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID, cmd.ReviewerID},
		OrderID:    &o.ID,
		Kind:       notification.KindOrderAssigned,
		Title:      "Reviewer Assigned",
		Message:    fmt.Sprintf("Order %s has been assigned to a reviewer.", o.OrderNumber),
	})
	return nil
}

// UpdateStatus moves an order along the transition table. Setting the
// current status again is a no-op and emits nothing.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.Status == cmd.Status {
		return nil
	}
	if !CanTransition(o.Status, cmd.Status) {
		return ErrInvalidState
	}

	updated, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.Status, o.StatusVersion, nil, nil)
	if err != nil {
		return err
	}
	if !updated {
		return ErrConflict
	}

	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       notification.KindOrderStatusChanged,
		Title:      "Order Status Updated",
		Message:    fmt.Sprintf("Order %s is now %s.", o.OrderNumber, cmd.Status),
	})
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return ErrInvalidState
	}

	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	updated, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusCancelled, o.StatusVersion, nil, reason)
	if err != nil {
		return err
	}
	if !updated {
		return ErrConflict
	}

	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       notification.KindOrderCancelled,
		Title:      "Order Cancelled",
		Message:    fmt.Sprintf("Order %s has been cancelled.", o.OrderNumber),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListOverdue(ctx context.Context) ([]*Order, error) {
	return s.store.ListOverdue(ctx, time.Now())
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *Service) ListByReviewer(ctx context.Context, reviewerID types.ID) ([]*Order, error) {
	return s.store.ListByReviewer(ctx, reviewerID)
}
