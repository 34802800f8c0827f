// README: User store backed by PostgreSQL.
package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"medreview/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, u *User) error {
	slots, err := json.Marshal(u.AvailableSlots)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (
			id, name, email, password_hash, role, is_active,
			specialization, license_number, hourly_rate_cents, hourly_rate_currency,
			available_slots, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(u.ID),
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.IsActive,
		u.Specialization,
		u.LicenseNumber,
		rateAmount(u.HourlyRate),
		rateCurrency(u.HourlyRate),
		slots,
		u.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, selectUser+` WHERE id = $1`, string(id))
	return scanUser(row)
}

// GetByEmail matches case-insensitively; the unique index is on LOWER(email).
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, selectUser+` WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (s *Store) SetActive(ctx context.Context, id types.ID, active bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateReviewerProfile(ctx context.Context, u *User) error {
	slots, err := json.Marshal(u.AvailableSlots)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET specialization = $1,
		    license_number = $2,
		    hourly_rate_cents = $3,
		    hourly_rate_currency = $4,
		    available_slots = $5
		WHERE id = $6 AND role = 'reviewer'`,
		u.Specialization,
		u.LicenseNumber,
		rateAmount(u.HourlyRate),
		rateCurrency(u.HourlyRate),
		slots,
		string(u.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, string(id))
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

const selectUser = `
	SELECT id, name, email, password_hash, role, is_active,
	       specialization, license_number, hourly_rate_cents, hourly_rate_currency,
	       available_slots, created_at
	FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var specialization, license, rateCurrency sql.NullString
	var rateCents sql.NullInt64
	var slots []byte

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&specialization, &license, &rateCents, &rateCurrency,
		&slots, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if specialization.Valid {
		u.Specialization = &specialization.String
	}
	if license.Valid {
		u.LicenseNumber = &license.String
	}
	if rateCents.Valid {
		u.HourlyRate = &types.Money{Amount: rateCents.Int64, Currency: rateCurrency.String}
	}
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &u.AvailableSlots); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func rateAmount(m *types.Money) *int64 {
	if m == nil {
		return nil
	}
	v := m.Amount
	return &v
}

func rateCurrency(m *types.Money) *string {
	if m == nil {
		return nil
	}
	v := m.Currency
	return &v
}
