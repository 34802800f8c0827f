// README: Review store backed by PostgreSQL; completion updates the parent order in one transaction.
package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medreview/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Review) error {
	ratings, err := marshalRatings(r.Ratings)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO reviews (
			id, order_id, reviewer_id, title, content, recommendations,
			severity, is_complete, review_time_min, tags, ratings,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(r.ID),
		string(r.OrderID),
		string(r.ReviewerID),
		r.Title,
		r.Content,
		r.Recommendations,
		string(r.Severity),
		r.IsComplete,
		r.ReviewTimeMin,
		r.Tags,
		ratings,
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Review, error) {
	row := s.db.QueryRow(ctx, selectReview+` WHERE id = $1`, string(id))
	return scanReview(row)
}

func (s *Store) ListByOrder(ctx context.Context, orderID types.ID) ([]*Review, error) {
	rows, err := s.db.Query(ctx, selectReview+`
		WHERE order_id = $1 ORDER BY created_at`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update persists mutable fields; only open reviews match.
func (s *Store) Update(ctx context.Context, r *Review) (bool, error) {
	ratings, err := marshalRatings(r.Ratings)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE reviews
		SET title = $1, content = $2, recommendations = $3, severity = $4,
		    review_time_min = $5, tags = $6, ratings = $7, updated_at = NOW()
		WHERE id = $8 AND is_complete = FALSE`,
		r.Title,
		r.Content,
		r.Recommendations,
		string(r.Severity),
		r.ReviewTimeMin,
		r.Tags,
		ratings,
		string(r.ID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete flips the review and marks the parent order completed inside a
// single transaction, so the cross-entity side effect cannot half-apply.
func (s *Store) Complete(ctx context.Context, id, orderID types.ID, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE reviews
		SET is_complete = TRUE, completed_at = $1, updated_at = $1
		WHERE id = $2 AND is_complete = FALSE`,
		now, string(id),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = 'completed',
		    status_version = status_version + 1,
		    completed_at = COALESCE(completed_at, $1)
		WHERE id = $2`,
		now, string(orderID),
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an open review; completed reviews never match.
func (s *Store) Delete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND is_complete = FALSE`, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const selectReview = `
	SELECT id, order_id, reviewer_id, title, content, recommendations,
	       severity, is_complete, review_time_min, tags, ratings,
	       created_at, updated_at, completed_at
	FROM reviews`

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	var reviewTime sql.NullInt64
	var ratings []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.OrderID, &r.ReviewerID, &r.Title, &r.Content, &r.Recommendations,
		&r.Severity, &r.IsComplete, &reviewTime, &r.Tags, &ratings,
		&r.CreatedAt, &r.UpdatedAt, &completedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reviewTime.Valid {
		v := int(reviewTime.Int64)
		r.ReviewTimeMin = &v
	}
	if len(ratings) > 0 {
		var parsed Ratings
		if err := json.Unmarshal(ratings, &parsed); err != nil {
			return nil, err
		}
		r.Ratings = &parsed
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func marshalRatings(r *Ratings) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}
