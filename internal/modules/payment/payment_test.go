// README: Payment ledger tests (fee math, refund rules, DB-backed paid amount).
package payment

import (
	"context"
	"errors"
	"testing"

	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/testutil"
	"medreview/internal/types"
)

type stubDirectory struct{}

func (stubDirectory) Exists(context.Context, types.ID) (bool, error)         { return true, nil }
func (stubDirectory) ActiveReviewer(context.Context, types.ID) (bool, error) { return true, nil }

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, notification.Event) error { return nil }

func TestStandardFee(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{10000, 320}, // 2.9% of 100.00 + 0.30
		{0, 30},
		{1, 30},   // 0.029 rounds away
		{999, 59}, // 28.971 + 30 = 58.971 → 59
		{2850, 113},
		{100000, 2930},
	}
	for _, tc := range cases {
		got := StandardFee(types.Money{Amount: tc.amount, Currency: "USD"})
		if got.Amount != tc.want {
			t.Errorf("StandardFee(%d) = %d, want %d", tc.amount, got.Amount, tc.want)
		}
		if got.Currency != "USD" {
			t.Errorf("StandardFee(%d) currency = %q", tc.amount, got.Currency)
		}
	}
}

func TestValidateRefund(t *testing.T) {
	completed := &Payment{Status: StatusCompleted, Amount: types.Money{Amount: 5000, Currency: "USD"}}
	pending := &Payment{Status: StatusPending, Amount: types.Money{Amount: 5000, Currency: "USD"}}

	if err := validateRefund(completed, 5000); err != nil {
		t.Errorf("full refund: %v", err)
	}
	if err := validateRefund(completed, 1); err != nil {
		t.Errorf("partial refund: %v", err)
	}
	if err := validateRefund(completed, 5001); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("over-refund: expected ErrInvalidAmount, got %v", err)
	}
	if err := validateRefund(completed, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero refund: expected ErrInvalidAmount, got %v", err)
	}
	if err := validateRefund(completed, -100); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative refund: expected ErrInvalidAmount, got %v", err)
	}
	if err := validateRefund(pending, 5000); !errors.Is(err, ErrInvalidState) {
		t.Errorf("refund of pending payment: expected ErrInvalidState, got %v", err)
	}
}

func newTestServices(t *testing.T) (*Service, *order.Service) {
	t.Helper()
	db := testutil.DB(t)
	orderSvc := order.NewService(order.NewStore(db), stubDirectory{}, nopEmitter{})
	paymentSvc := NewService(NewStore(db), orderSvc, nopEmitter{})
	return paymentSvc, orderSvc
}

func seedOrder(t *testing.T, orders *order.Service, customer types.ID) types.ID {
	t.Helper()
	id, err := orders.Create(context.Background(), order.CreateCommand{
		CustomerID:  customer,
		ProductType: order.ProductExpertAnalysis,
		Title:       "pathology slide analysis",
		TotalAmount: types.Money{Amount: 50000, Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return id
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{Amount: types.Money{Amount: 100}, Method: "card"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing order: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{OrderID: "o1", Amount: types.Money{Amount: 100}}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing method: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{OrderID: "o1", Amount: types.Money{Amount: 0}, Method: "card"}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
}

func TestCompleteIncrementsPaidAmount(t *testing.T) {
	paymentSvc, orderSvc := newTestServices(t)
	ctx := context.Background()

	orderID := seedOrder(t, orderSvc, "c_pay")
	paymentID, err := paymentSvc.Create(ctx, CreateCommand{
		OrderID: orderID,
		Amount:  types.Money{Amount: 50000, Currency: "USD"},
		Method:  "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	txn := "txn_123"
	if err := paymentSvc.Complete(ctx, CompleteCommand{PaymentID: paymentID, TransactionID: &txn}); err != nil {
		t.Fatalf("complete payment: %v", err)
	}

	p, err := paymentSvc.Get(ctx, paymentID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", p.Status)
	}
	wantFee := StandardFee(p.Amount).Amount
	if p.Fee.Amount != wantFee || p.NetAmount.Amount != p.Amount.Amount-wantFee {
		t.Fatalf("fee = %d net = %d, want fee %d", p.Fee.Amount, p.NetAmount.Amount, wantFee)
	}
	if p.ProcessedAt == nil {
		t.Fatal("processed_at not stamped")
	}

	o, _ := orderSvc.Get(ctx, orderID)
	if o.PaidAmount.Amount != 50000 {
		t.Fatalf("paid_amount = %d, want 50000", o.PaidAmount.Amount)
	}

	if err := paymentSvc.Complete(ctx, CompleteCommand{PaymentID: paymentID}); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second complete: expected ErrAlreadyCompleted, got %v", err)
	}
	o, _ = orderSvc.Get(ctx, orderID)
	if o.PaidAmount.Amount != 50000 {
		t.Fatalf("paid_amount changed on rejected completion: %d", o.PaidAmount.Amount)
	}
}

func TestRefundDecrementsPaidAmount(t *testing.T) {
	paymentSvc, orderSvc := newTestServices(t)
	ctx := context.Background()

	orderID := seedOrder(t, orderSvc, "c_refund")
	paymentID, err := paymentSvc.Create(ctx, CreateCommand{
		OrderID: orderID,
		Amount:  types.Money{Amount: 20000, Currency: "USD"},
		Method:  "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if err := paymentSvc.Complete(ctx, CompleteCommand{PaymentID: paymentID}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Partial refund.
	if err := paymentSvc.Refund(ctx, RefundCommand{PaymentID: paymentID, Amount: 5000, Reason: "late delivery"}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	p, _ := paymentSvc.Get(ctx, paymentID)
	if p.Status != StatusRefunded || p.RefundAmount == nil || *p.RefundAmount != 5000 {
		t.Fatalf("payment after refund: %+v", p)
	}
	o, _ := orderSvc.Get(ctx, orderID)
	if o.PaidAmount.Amount != 15000 {
		t.Fatalf("paid_amount = %d, want 15000", o.PaidAmount.Amount)
	}

	// A second refund of the same payment is rejected.
	if err := paymentSvc.Refund(ctx, RefundCommand{PaymentID: paymentID}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double refund: expected ErrInvalidState, got %v", err)
	}
}

func TestRefundFloorsAtZero(t *testing.T) {
	paymentSvc, orderSvc := newTestServices(t)
	ctx := context.Background()

	orderID := seedOrder(t, orderSvc, "c_floor")

	// Two payments against one order; refunding the larger one after the
	// paid amount was already reduced must not drive it negative.
	first, err := paymentSvc.Create(ctx, CreateCommand{
		OrderID: orderID,
		Amount:  types.Money{Amount: 10000, Currency: "USD"},
		Method:  "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if err := paymentSvc.Complete(ctx, CompleteCommand{PaymentID: first}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := paymentSvc.Refund(ctx, RefundCommand{PaymentID: first}); err != nil {
		t.Fatalf("refund: %v", err)
	}

	second, err := paymentSvc.Create(ctx, CreateCommand{
		OrderID: orderID,
		Amount:  types.Money{Amount: 3000, Currency: "USD"},
		Method:  "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if err := paymentSvc.Complete(ctx, CompleteCommand{PaymentID: second}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := paymentSvc.Refund(ctx, RefundCommand{PaymentID: second, Amount: 3000}); err != nil {
		t.Fatalf("refund: %v", err)
	}

	o, _ := orderSvc.Get(ctx, orderID)
	if o.PaidAmount.Amount != 0 {
		t.Fatalf("paid_amount = %d, want 0", o.PaidAmount.Amount)
	}
}

func TestFailAndRetry(t *testing.T) {
	paymentSvc, orderSvc := newTestServices(t)
	ctx := context.Background()

	orderID := seedOrder(t, orderSvc, "c_fail")
	paymentID, err := paymentSvc.Create(ctx, CreateCommand{
		OrderID: orderID,
		Amount:  types.Money{Amount: 8000, Currency: "USD"},
		Method:  "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := paymentSvc.Fail(ctx, paymentID, "card declined"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	p, _ := paymentSvc.Get(ctx, paymentID)
	if p.Status != StatusFailed || p.FailureReason == nil || *p.FailureReason != "card declined" {
		t.Fatalf("payment after fail: %+v", p)
	}

	if err := paymentSvc.Retry(ctx, paymentID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	p, _ = paymentSvc.Get(ctx, paymentID)
	if p.Status != StatusPending || p.FailureReason != nil {
		t.Fatalf("payment after retry: %+v", p)
	}

	// Retry only applies to failed payments.
	if err := paymentSvc.Retry(ctx, paymentID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("retry pending: expected ErrInvalidState, got %v", err)
	}

	o, _ := orderSvc.Get(ctx, orderID)
	if o.PaidAmount.Amount != 0 {
		t.Fatalf("failed payment must not touch paid_amount, got %d", o.PaidAmount.Amount)
	}
}
