// README: Payment ledger; pending → completed/failed → refunded, paid amount kept on the order.
package payment

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
	ErrNotFound             = errors.New("payment not found")
	ErrInvalidState         = errors.New("invalid payment state")
	ErrInvalidAmount        = errors.New("invalid payment amount")
	ErrAlreadyCompleted     = errors.New("payment already completed")
	ErrConflict             = errors.New("payment state conflict")
	ErrDuplicateTransaction = errors.New("transaction id already recorded")
	ErrBadRequest           = errors.New("bad request")
)

// Orders exposes the order lookups the ledger needs.
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
	OrderID types.ID
	Amount  types.Money
	Method  string
}

type CompleteCommand struct {
	PaymentID     types.ID
	TransactionID *string
	// Fee supplied by the gateway callback; StandardFee applies when nil.
	Fee *types.Money
}

type RefundCommand struct {
	PaymentID types.ID
	// Amount in cents; zero means refund the full payment.
	Amount int64
	Reason string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.OrderID == "" || cmd.Method == "" {
		return "", ErrBadRequest
	}
	if cmd.Amount.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	if _, err := s.orders.Get(ctx, cmd.OrderID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	p := &Payment{
		ID:        types.NewID(),
		OrderID:   cmd.OrderID,
		Amount:    cmd.Amount,
		Status:    StatusPending,
		Method:    cmd.Method,
		Fee:       types.Money{Currency: cmd.Amount.Currency},
		NetAmount: types.Money{Currency: cmd.Amount.Currency},
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Complete records the gateway result and increments the order's paid amount.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	p, err := s.store.Get(ctx, cmd.PaymentID)
	if err != nil {
		return err
	}
	if p.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidState
	}

	fee := StandardFee(p.Amount)
	if cmd.Fee != nil {
		fee = *cmd.Fee
	}
	if fee.Amount < 0 || fee.Amount > p.Amount.Amount {
		return ErrInvalidAmount
	}
	net := p.Amount.Amount - fee.Amount

	ok, err := s.store.Complete(ctx, p.ID, p.OrderID, cmd.TransactionID, fee.Amount, net, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	s.notifyCustomer(ctx, p.OrderID, notification.KindPaymentCompleted,
		"Payment Received",
		fmt.Sprintf("Your payment of %.2f %s has been received.", float64(p.Amount.Amount)/100, p.Amount.Currency),
		notification.PriorityNormal)
	return nil
}

func (s *Service) Fail(ctx context.Context, paymentID types.ID, reason string) error {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidState
	}

	var r *string
	if reason != "" {
		r = &reason
	}
	ok, err := s.store.Fail(ctx, p.ID, r)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	s.notifyCustomer(ctx, p.OrderID, notification.KindPaymentFailed,
		"Payment Failed",
		"Your payment could not be processed. Please try again.",
		notification.PriorityHigh)
	return nil
}

// Refund reverses a completed payment, decrementing the order's paid amount
// floored at zero.
func (s *Service) Refund(ctx context.Context, cmd RefundCommand) error {
	p, err := s.store.Get(ctx, cmd.PaymentID)
	if err != nil {
		return err
	}
	amount := cmd.Amount
	if amount == 0 {
		amount = p.Amount.Amount
	}
	if err := validateRefund(p, amount); err != nil {
		return err
	}

	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.Refund(ctx, p.ID, p.OrderID, amount, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	s.notifyCustomer(ctx, p.OrderID, notification.KindPaymentRefunded,
		"Payment Refunded",
		fmt.Sprintf("A refund of %.2f %s has been issued.", float64(amount)/100, p.Amount.Currency),
		notification.PriorityNormal)
	return nil
}

func (s *Service) Retry(ctx context.Context, paymentID types.ID) error {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status != StatusFailed {
		return ErrInvalidState
	}
	ok, err := s.store.Retry(ctx, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Payment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]*Payment, error) {
	return s.store.ListByOrder(ctx, orderID)
}

func (s *Service) notifyCustomer(ctx context.Context, orderID types.ID, kind notification.Kind, title, message string, priority notification.Priority) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return
	}
	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{o.CustomerID},
		OrderID:    &o.ID,
		Kind:       kind,
		Title:      title,
		Message:    message,
		Priority:   priority,
	})
}
