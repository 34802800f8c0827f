// README: Order service tests (state machine + DB-backed lifecycle flows).
package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medreview/internal/modules/notification"
	"medreview/internal/testutil"
	"medreview/internal/types"
)

// stubDirectory satisfies Directory without a users table.
type stubDirectory struct {
	exists   bool
	reviewer bool
}

func (s *stubDirectory) Exists(context.Context, types.ID) (bool, error) {
	return s.exists, nil
}

func (s *stubDirectory) ActiveReviewer(context.Context, types.ID) (bool, error) {
	return s.reviewer, nil
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, notification.Event) error { return nil }

// TestCanTransition verifies the state machine transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPendingReview, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusUnderReview, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusUnderReview, StatusCompleted, true},
		// rework loop
		{StatusUnderReview, StatusInProgress, true},
		// cancel and refund from every non-terminal state
		{StatusPendingReview, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusUnderReview, StatusCancelled, true},
		{StatusPendingReview, StatusRefunded, true},
		{StatusAssigned, StatusRefunded, true},
		{StatusInProgress, StatusRefunded, true},
		{StatusUnderReview, StatusRefunded, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusPendingReview, false},
		{StatusRefunded, StatusPendingReview, false},
		{StatusCompleted, StatusRefunded, false},
		// invalid: skipping states
		{StatusPendingReview, StatusInProgress, false},
		{StatusPendingReview, StatusCompleted, false},
		{StatusAssigned, StatusCompleted, false},
		{StatusAssigned, StatusUnderReview, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPendingReview, StatusAssigned, StatusInProgress, StatusUnderReview} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	n := NewOrderNumber(now)
	if !strings.HasPrefix(n, "ORD-20260826-") {
		t.Fatalf("unexpected order number %q", n)
	}
	if len(n) != len("ORD-20260826-")+6 {
		t.Fatalf("unexpected order number length %q", n)
	}
	if n == NewOrderNumber(now) {
		t.Fatal("order numbers should not repeat")
	}
}

// TestCreateValidation exercises request validation that runs before any
// store or directory access.
func TestCreateValidation(t *testing.T) {
	svc := NewService(nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  CreateCommand
	}{
		{"missing customer", CreateCommand{Title: "t", ProductType: ProductSecondOpinion}},
		{"missing title", CreateCommand{CustomerID: "c1", ProductType: ProductSecondOpinion}},
		{"bad product type", CreateCommand{CustomerID: "c1", Title: "t", ProductType: "rush_delivery"}},
		{"bad priority", CreateCommand{CustomerID: "c1", Title: "t", ProductType: ProductSecondOpinion, Priority: "asap"}},
		{"negative amount", CreateCommand{CustomerID: "c1", Title: "t", ProductType: ProductSecondOpinion, TotalAmount: types.Money{Amount: -1}}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: expected ErrBadRequest, got %v", tc.name, err)
		}
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := NewStore(testutil.DB(t))
	return NewService(store, &stubDirectory{exists: true, reviewer: true}, nopEmitter{})
}

func mustCreateOrder(t *testing.T, svc *Service, customer types.ID) types.ID {
	t.Helper()
	id, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:  customer,
		ProductType: ProductSecondOpinion,
		Title:       "CT scan second opinion",
		TotalAmount: types.Money{Amount: 25000, Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return id
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	o, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != want {
		t.Fatalf("status = %s, want %s", o.Status, want)
	}
}

func TestOrderFlowHappyPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_happy")
	assertStatus(t, svc, orderID, StatusPendingReview)

	if err := svc.Assign(ctx, AssignCommand{OrderID: orderID, ReviewerID: "r1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	assertStatus(t, svc, orderID, StatusAssigned)

	o, err := svc.Get(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.ReviewerID == nil || *o.ReviewerID != "r1" {
		t.Fatalf("reviewer_id = %v, want r1", o.ReviewerID)
	}
	if o.AssignedAt == nil {
		t.Fatal("assigned_at not stamped")
	}

	for _, next := range []Status{StatusInProgress, StatusUnderReview, StatusCompleted} {
		if err := svc.UpdateStatus(ctx, UpdateStatusCommand{OrderID: orderID, Status: next}); err != nil {
			t.Fatalf("update to %s: %v", next, err)
		}
	}
	o, _ = svc.Get(ctx, orderID)
	if o.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
}

func TestAssignRequiresPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_assign_twice")
	if err := svc.Assign(ctx, AssignCommand{OrderID: orderID, ReviewerID: "r1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.Assign(ctx, AssignCommand{OrderID: orderID, ReviewerID: "r2"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second assign: expected ErrInvalidState, got %v", err)
	}
}

func TestAssignInactiveReviewer(t *testing.T) {
	store := NewStore(testutil.DB(t))
	svc := NewService(store, &stubDirectory{exists: true, reviewer: false}, nopEmitter{})
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_bad_reviewer")
	if err := svc.Assign(ctx, AssignCommand{OrderID: orderID, ReviewerID: "r1"}); !errors.Is(err, ErrInvalidReviewer) {
		t.Fatalf("expected ErrInvalidReviewer, got %v", err)
	}
}

func TestUpdateStatusSameStatusNoop(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_noop")
	if err := svc.UpdateStatus(ctx, UpdateStatusCommand{OrderID: orderID, Status: StatusPendingReview}); err != nil {
		t.Fatalf("same-status update: %v", err)
	}
	o, _ := svc.Get(ctx, orderID)
	if o.StatusVersion != 0 {
		t.Fatalf("status_version = %d, want 0 after no-op", o.StatusVersion)
	}
}

func TestCancelFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_cancel")
	if err := svc.Cancel(ctx, CancelCommand{OrderID: orderID, Reason: "changed my mind"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	o, _ := svc.Get(ctx, orderID)
	if o.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", o.Status)
	}
	if o.CancelledAt == nil || o.CancelReason == nil || *o.CancelReason != "changed my mind" {
		t.Fatal("cancel metadata not recorded")
	}

	if err := svc.Cancel(ctx, CancelCommand{OrderID: orderID}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel terminal order: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelKeepsReviewer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orderID := mustCreateOrder(t, svc, "c_cancel_assigned")
	if err := svc.Assign(ctx, AssignCommand{OrderID: orderID, ReviewerID: "r1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.Cancel(ctx, CancelCommand{OrderID: orderID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	o, _ := svc.Get(ctx, orderID)
	if o.ReviewerID == nil || *o.ReviewerID != "r1" {
		t.Fatal("reviewer should stay on the cancelled order for audit")
	}
}

func TestListOverdue(t *testing.T) {
	db := testutil.DB(t)
	store := NewStore(db)
	svc := NewService(store, &stubDirectory{exists: true, reviewer: true}, nopEmitter{})
	ctx := context.Background()

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	late, err := svc.Create(ctx, CreateCommand{
		CustomerID:  "c_overdue",
		ProductType: ProductDocumentReview,
		Title:       "late order",
		DueDate:     &past,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{
		CustomerID:  "c_overdue",
		ProductType: ProductDocumentReview,
		Title:       "on-time order",
		DueDate:     &future,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A cancelled order past its due date is not overdue.
	cancelled, err := svc.Create(ctx, CreateCommand{
		CustomerID:  "c_overdue",
		ProductType: ProductDocumentReview,
		Title:       "cancelled late order",
		DueDate:     &past,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, CancelCommand{OrderID: cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	out, err := svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(out) != 1 || out[0].ID != late {
		t.Fatalf("expected only the late order, got %d orders", len(out))
	}
}

func TestListByCustomerAndReviewer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := mustCreateOrder(t, svc, "c_list_a")
	mustCreateOrder(t, svc, "c_list_b")

	if err := svc.Assign(ctx, AssignCommand{OrderID: a, ReviewerID: "r_list"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	byCustomer, err := svc.ListByCustomer(ctx, "c_list_a")
	if err != nil {
		t.Fatalf("list by customer: %v", err)
	}
	if len(byCustomer) != 1 || byCustomer[0].ID != a {
		t.Fatalf("expected 1 order for c_list_a, got %d", len(byCustomer))
	}

	byReviewer, err := svc.ListByReviewer(ctx, "r_list")
	if err != nil {
		t.Fatalf("list by reviewer: %v", err)
	}
	if len(byReviewer) != 1 || byReviewer[0].ID != a {
		t.Fatalf("expected 1 order for r_list, got %d", len(byReviewer))
	}
}
