// README: Payment store backed by PostgreSQL; completion and refund adjust the parent order atomically.
package payment

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

func (s *Store) Create(ctx context.Context, p *Payment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (
			id, order_id, amount, currency, status, method,
			transaction_id, fee, net_amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(p.ID),
		string(p.OrderID),
		p.Amount.Amount,
		p.Amount.Currency,
		string(p.Status),
		p.Method,
		p.TransactionID,
		p.Fee.Amount,
		p.NetAmount.Amount,
		p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateTransaction
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Payment, error) {
	row := s.db.QueryRow(ctx, selectPayment+` WHERE id = $1`, string(id))
	return scanPayment(row)
}

func (s *Store) ListByOrder(ctx context.Context, orderID types.ID) ([]*Payment, error) {
	rows, err := s.db.Query(ctx, selectPayment+`
		WHERE order_id = $1 ORDER BY created_at`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Complete marks the payment completed and increments the parent order's
// paid amount in the same transaction. The status guard in the UPDATE keeps
// a second completion from double-counting.
func (s *Store) Complete(ctx context.Context, id, orderID types.ID, txnID *string, fee, net int64, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = 'completed',
		    transaction_id = COALESCE($1, transaction_id),
		    fee = $2,
		    net_amount = $3,
		    processed_at = $4,
		    failure_reason = NULL
		WHERE id = $5 AND status IN ('pending', 'processing')`,
		txnID, fee, net, now, string(id),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, ErrDuplicateTransaction
		}
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET paid_amount = paid_amount + (SELECT amount FROM payments WHERE id = $1)
		WHERE id = $2`,
		string(id), string(orderID),
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Fail(ctx context.Context, id types.ID, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE payments
		SET status = 'failed', failure_reason = $1
		WHERE id = $2 AND status IN ('pending', 'processing')`,
		reason, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Refund marks the payment refunded and decrements the parent order's paid
// amount, floored at zero, in the same transaction.
func (s *Store) Refund(ctx context.Context, id, orderID types.ID, amount int64, reason *string) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = 'refunded', refund_amount = $1, refund_reason = $2
		WHERE id = $3 AND status = 'completed'`,
		amount, reason, string(id),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET paid_amount = GREATEST(0, paid_amount - $1)
		WHERE id = $2`,
		amount, string(orderID),
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Retry(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE payments
		SET status = 'pending', failure_reason = NULL
		WHERE id = $1 AND status = 'failed'`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const selectPayment = `
	SELECT id, order_id, amount, currency, status, method,
	       transaction_id, fee, net_amount, refund_amount, refund_reason,
	       failure_reason, processed_at, created_at
	FROM payments`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var currency string
	var txnID, refundReason, failureReason sql.NullString
	var refundAmount sql.NullInt64
	var processedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.OrderID, &p.Amount.Amount, &currency, &p.Status, &p.Method,
		&txnID, &p.Fee.Amount, &p.NetAmount.Amount, &refundAmount, &refundReason,
		&failureReason, &processedAt, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Amount.Currency = currency
	p.Fee.Currency = currency
	p.NetAmount.Currency = currency
	if txnID.Valid {
		p.TransactionID = &txnID.String
	}
	if refundAmount.Valid {
		p.RefundAmount = &refundAmount.Int64
	}
	if refundReason.Valid {
		p.RefundReason = &refundReason.String
	}
	if failureReason.Valid {
		p.FailureReason = &failureReason.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		p.ProcessedAt = &t
	}
	return &p, nil
}
