// README: Notification store backed by PostgreSQL.
package notification

import (
	"context"
	"database/sql"
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

func (s *Store) Create(ctx context.Context, n *Notification) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (
			id, user_id, order_id, kind, title, message, priority,
			is_read, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(n.ID),
		string(n.UserID),
		toStringPtr(n.OrderID),
		string(n.Kind),
		n.Title,
		n.Message,
		string(n.Priority),
		n.IsRead,
		n.CreatedAt,
		n.ExpiresAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Notification, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, order_id, kind, title, message, priority,
		       is_read, read_at, email_sent_at, sms_sent_at, push_sent_at,
		       created_at, expires_at
		FROM notifications
		WHERE id = $1`, string(id),
	)
	return scanNotification(row)
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	q := `
		SELECT id, user_id, order_id, kind, title, message, priority,
		       is_read, read_at, email_sent_at, sms_sent_at, push_sent_at,
		       created_at, expires_at
		FROM notifications
		WHERE user_id = $1 AND expires_at > NOW()`
	if unreadOnly {
		q += ` AND is_read = FALSE`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for the recipient's own notification.
// Returns false when no row matched (wrong id or wrong user).
func (s *Store) MarkRead(ctx context.Context, id, userID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2`,
		string(id), string(userID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkDelivered(ctx context.Context, id types.ID, ch Channel) (bool, error) {
	var column string
	switch ch {
	case ChannelEmail:
		column = "email_sent_at"
	case ChannelSMS:
		column = "sms_sent_at"
	case ChannelPush:
		column = "push_sent_at"
	default:
		return false, errors.New("unknown delivery channel")
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET `+column+` = COALESCE(`+column+`, NOW())
		WHERE id = $1`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var orderID sql.NullString
	var readAt, emailAt, smsAt, pushAt sql.NullTime

	err := row.Scan(
		&n.ID, &n.UserID, &orderID, &n.Kind, &n.Title, &n.Message, &n.Priority,
		&n.IsRead, &readAt, &emailAt, &smsAt, &pushAt,
		&n.CreatedAt, &n.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if orderID.Valid {
		v := types.ID(orderID.String)
		n.OrderID = &v
	}
	n.ReadAt = toTimePtr(readAt)
	n.EmailSentAt = toTimePtr(emailAt)
	n.SMSSentAt = toTimePtr(smsAt)
	n.PushSentAt = toTimePtr(pushAt)
	return &n, nil
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
