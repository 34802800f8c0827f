// README: User service tests (validation + DB-backed signup/login).
package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"medreview/internal/auth"
	"medreview/internal/testutil"
	"medreview/internal/types"
)

const testSecret = "user-test-secret"

func TestRegisterValidation(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  RegisterCommand
	}{
		{"missing name", RegisterCommand{Email: "a@b.c", Password: "longenough", Role: types.RoleCustomer}},
		{"missing email", RegisterCommand{Name: "A", Password: "longenough", Role: types.RoleCustomer}},
		{"short password", RegisterCommand{Name: "A", Email: "a@b.c", Password: "short", Role: types.RoleCustomer}},
		{"bad role", RegisterCommand{Name: "A", Email: "a@b.c", Password: "longenough", Role: "superuser"}},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: expected ErrBadRequest, got %v", tc.name, err)
		}
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewStore(testutil.DB(t)), testSecret, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterCommand{
		Name:     "Pat Doe",
		Email:    "pat@example.com",
		Password: "correct horse",
		Role:     types.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, u, err := svc.Login(ctx, "pat@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != id {
		t.Fatalf("login returned user %s, want %s", u.ID, id)
	}
	claims, err := auth.Parse(testSecret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != id || claims.Role != types.RoleCustomer {
		t.Fatalf("claims = %+v", claims)
	}

	// Email lookup is case-insensitive; password check is not forgiving.
	if _, _, err := svc.Login(ctx, "PAT@EXAMPLE.COM", "correct horse"); err != nil {
		t.Fatalf("case-insensitive login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "pat@example.com", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cmd := RegisterCommand{Name: "A", Email: "dup@example.com", Password: "longenough", Role: types.RoleCustomer}
	if _, err := svc.Register(ctx, cmd); err != nil {
		t.Fatalf("register: %v", err)
	}
	cmd.Email = "DUP@example.com"
	if _, err := svc.Register(ctx, cmd); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterCommand{
		Name: "B", Email: "b@example.com", Password: "longenough", Role: types.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.SetActive(ctx, id, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := svc.Login(ctx, "b@example.com", "longenough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestActiveReviewer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	spec := "radiology"
	reviewerID, err := svc.Register(ctx, RegisterCommand{
		Name:           "Dr R",
		Email:          "r@example.com",
		Password:       "longenough",
		Role:           types.RoleReviewer,
		Specialization: &spec,
	})
	if err != nil {
		t.Fatalf("register reviewer: %v", err)
	}
	customerID, err := svc.Register(ctx, RegisterCommand{
		Name: "C", Email: "c@example.com", Password: "longenough", Role: types.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register customer: %v", err)
	}

	if ok, _ := svc.ActiveReviewer(ctx, reviewerID); !ok {
		t.Error("active reviewer not recognized")
	}
	if ok, _ := svc.ActiveReviewer(ctx, customerID); ok {
		t.Error("customer treated as reviewer")
	}
	if ok, _ := svc.ActiveReviewer(ctx, "missing"); ok {
		t.Error("unknown id treated as reviewer")
	}

	if err := svc.SetActive(ctx, reviewerID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if ok, _ := svc.ActiveReviewer(ctx, reviewerID); ok {
		t.Error("deactivated reviewer still eligible")
	}
}

func TestUpdateReviewerProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reviewerID, err := svc.Register(ctx, RegisterCommand{
		Name: "Dr P", Email: "p@example.com", Password: "longenough", Role: types.RoleReviewer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	customerID, err := svc.Register(ctx, RegisterCommand{
		Name: "C2", Email: "c2@example.com", Password: "longenough", Role: types.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	spec := "oncology"
	rate := types.Money{Amount: 15000, Currency: "USD"}
	slots := WeeklySlots{"monday": {{Start: "09:00", End: "12:00"}}}
	if err := svc.UpdateReviewerProfile(ctx, ProfileCommand{
		UserID:         reviewerID,
		Specialization: &spec,
		HourlyRate:     &rate,
		AvailableSlots: slots,
	}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	u, err := svc.Get(ctx, reviewerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Specialization == nil || *u.Specialization != "oncology" {
		t.Fatalf("specialization = %v", u.Specialization)
	}
	if u.HourlyRate == nil || u.HourlyRate.Amount != 15000 {
		t.Fatalf("hourly rate = %v", u.HourlyRate)
	}
	if len(u.AvailableSlots["monday"]) != 1 {
		t.Fatalf("slots = %v", u.AvailableSlots)
	}

	// Customers have no reviewer profile.
	if err := svc.UpdateReviewerProfile(ctx, ProfileCommand{UserID: customerID, Specialization: &spec}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}
