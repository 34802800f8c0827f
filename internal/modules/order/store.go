// README: Order store backed by PostgreSQL with optimistic status updates.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, reviewer_id, product_type,
			title, description, status, status_version, priority,
			total_amount, paid_amount, currency, due_date, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)`,
		string(o.ID),
		o.OrderNumber,
		string(o.CustomerID),
		toStringPtr(o.ReviewerID),
		string(o.ProductType),
		o.Title,
		o.Description,
		string(o.Status),
		o.StatusVersion,
		string(o.Priority),
		o.TotalAmount.Amount,
		o.PaidAmount.Amount,
		o.TotalAmount.Currency,
		o.DueDate,
		o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateNumber
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, selectOrder+` WHERE id = $1`, string(id))
	return scanOrder(row)
}

// UpdateStatus performs a compare-and-swap on (status, status_version).
// Timestamp columns are stamped by the target status; the reviewer is only
// ever set once, on the transition into assigned.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reviewerID *types.ID, cancelReason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    reviewer_id = COALESCE($2, reviewer_id),
		    cancel_reason = COALESCE($3, cancel_reason),
		    assigned_at = CASE WHEN $1 = 'assigned' THEN NOW() ELSE assigned_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		toStringPtr(reviewerID),
		cancelReason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListOverdue returns orders past their due date that can still move.
func (s *Store) ListOverdue(ctx context.Context, now time.Time) ([]*Order, error) {
	rows, err := s.db.Query(ctx, selectOrder+`
		WHERE due_date IS NOT NULL
		  AND due_date < $1
		  AND status NOT IN ('completed', 'cancelled', 'refunded')
		ORDER BY due_date`, now)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	rows, err := s.db.Query(ctx, selectOrder+`
		WHERE customer_id = $1 ORDER BY created_at DESC`, string(customerID))
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (s *Store) ListByReviewer(ctx context.Context, reviewerID types.ID) ([]*Order, error) {
	rows, err := s.db.Query(ctx, selectOrder+`
		WHERE reviewer_id = $1 ORDER BY created_at DESC`, string(reviewerID))
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

const selectOrder = `
	SELECT id, order_number, customer_id, reviewer_id, product_type,
	       title, description, status, status_version, priority,
	       total_amount, paid_amount, currency, due_date, created_at,
	       assigned_at, completed_at, cancelled_at, cancel_reason
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var reviewerID, cancelReason sql.NullString
	var currency string
	var dueDate, assignedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &reviewerID, &o.ProductType,
		&o.Title, &o.Description, &o.Status, &o.StatusVersion, &o.Priority,
		&o.TotalAmount.Amount, &o.PaidAmount.Amount, &currency, &dueDate, &o.CreatedAt,
		&assignedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	o.TotalAmount.Currency = currency
	o.PaidAmount.Currency = currency
	if reviewerID.Valid {
		v := types.ID(reviewerID.String)
		o.ReviewerID = &v
	}
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	o.DueDate = toTimePtr(dueDate)
	o.AssignedAt = toTimePtr(assignedAt)
	o.CompletedAt = toTimePtr(completedAt)
	o.CancelledAt = toTimePtr(cancelledAt)
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	defer rows.Close()
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
