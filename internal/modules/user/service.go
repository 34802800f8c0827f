// README: User service; signup, login, activation, reviewer profile.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medreview/internal/auth"
	"medreview/internal/types"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBadRequest         = errors.New("bad request")
)

type Service struct {
	store     *Store
	jwtSecret string
	tokenTTL  time.Duration
}

func NewService(store *Store, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     types.Role

	Specialization *string
	LicenseNumber  *string
	HourlyRate     *types.Money
	AvailableSlots WeeklySlots
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (types.ID, error) {
	if cmd.Name == "" || cmd.Email == "" || len(cmd.Password) < 8 {
		return "", ErrBadRequest
	}
	if !cmd.Role.Valid() {
		return "", ErrBadRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	u := &User{
		ID:           types.NewID(),
		Name:         cmd.Name,
		Email:        strings.TrimSpace(cmd.Email),
		PasswordHash: string(hash),
		Role:         cmd.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if cmd.Role == types.RoleReviewer {
		u.Specialization = cmd.Specialization
		u.LicenseNumber = cmd.LicenseNumber
		u.HourlyRate = cmd.HourlyRate
		u.AvailableSlots = cmd.AvailableSlots
	}
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

// Login verifies the password and returns a signed token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := auth.NewToken(s.jwtSecret, s.tokenTTL, u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id types.ID, active bool) error {
	ok, err := s.store.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

type ProfileCommand struct {
	UserID         types.ID
	Specialization *string
	LicenseNumber  *string
	HourlyRate     *types.Money
	AvailableSlots WeeklySlots
}

func (s *Service) UpdateReviewerProfile(ctx context.Context, cmd ProfileCommand) error {
	u, err := s.store.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if u.Role != types.RoleReviewer {
		return ErrBadRequest
	}
	u.Specialization = cmd.Specialization
	u.LicenseNumber = cmd.LicenseNumber
	u.HourlyRate = cmd.HourlyRate
	u.AvailableSlots = cmd.AvailableSlots
	return s.store.UpdateReviewerProfile(ctx, u)
}

// Exists reports whether the user id resolves at all.
func (s *Service) Exists(ctx context.Context, id types.ID) (bool, error) {
	return s.store.Exists(ctx, id)
}

// ActiveReviewer reports whether id resolves to an active user with the
// reviewer role; order assignment and consultation scheduling depend on it.
func (s *Service) ActiveReviewer(ctx context.Context, id types.ID) (bool, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive && u.Role == types.RoleReviewer, nil
}
