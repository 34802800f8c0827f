// README: Consultation store backed by PostgreSQL; guarded status updates plus reminder queries.
package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

func (s *Store) Create(ctx context.Context, c *Consultation) error {
	history, err := json.Marshal(c.RescheduleHistory)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO consultations (
			id, order_id, customer_id, reviewer_id, scheduled_at, duration_min,
			status, meeting_link, notes, customer_notes, reviewer_notes,
			reminder_24h_sent, reminder_1h_sent, reminder_15m_sent,
			reschedule_history, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		string(c.ID),
		string(c.OrderID),
		string(c.CustomerID),
		string(c.ReviewerID),
		c.ScheduledAt,
		c.DurationMin,
		string(c.Status),
		c.MeetingLink,
		c.Notes,
		c.CustomerNotes,
		c.ReviewerNotes,
		c.Reminder24hSent,
		c.Reminder1hSent,
		c.Reminder15mSent,
		history,
		c.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Consultation, error) {
	row := s.db.QueryRow(ctx, selectConsultation+` WHERE id = $1`, string(id))
	return scanConsultation(row)
}

// ListActiveByReviewer returns scheduled and in-progress consultations for
// the overlap check and slot enumeration.
func (s *Store) ListActiveByReviewer(ctx context.Context, reviewerID types.ID) ([]*Consultation, error) {
	rows, err := s.db.Query(ctx, selectConsultation+`
		WHERE reviewer_id = $1 AND status IN ('scheduled', 'in_progress')
		ORDER BY scheduled_at`, string(reviewerID))
	if err != nil {
		return nil, err
	}
	return scanConsultations(rows)
}

func (s *Store) ListByOrder(ctx context.Context, orderID types.ID) ([]*Consultation, error) {
	rows, err := s.db.Query(ctx, selectConsultation+`
		WHERE order_id = $1 ORDER BY scheduled_at`, string(orderID))
	if err != nil {
		return nil, err
	}
	return scanConsultations(rows)
}

// UpdateStatus is a compare-and-swap on the current status.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE consultations SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteWithNotes closes the consultation and records the final notes.
func (s *Store) CompleteWithNotes(ctx context.Context, id types.ID, notes, reviewerNotes string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE consultations
		SET status = 'completed',
		    notes = CASE WHEN $1 <> '' THEN $1 ELSE notes END,
		    reviewer_notes = CASE WHEN $2 <> '' THEN $2 ELSE reviewer_notes END
		WHERE id = $3 AND status = 'in_progress'`,
		notes, reviewerNotes, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reschedule moves a scheduled consultation, appends the history entry, and
// resets all reminder flags, using the previous date as the CAS guard.
func (s *Store) Reschedule(ctx context.Context, id types.ID, previous time.Time, newDate time.Time, entry Reschedule) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE consultations
		SET scheduled_at = $1,
		    reminder_24h_sent = FALSE,
		    reminder_1h_sent = FALSE,
		    reminder_15m_sent = FALSE,
		    reschedule_history = reschedule_history || $2::jsonb
		WHERE id = $3 AND status = 'scheduled' AND scheduled_at = $4`,
		newDate, payload, string(id), previous,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetRating(ctx context.Context, id types.ID, r Rating) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE consultations SET rating = $1 WHERE id = $2 AND status = 'completed'`,
		payload, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindForReminders returns scheduled consultations starting within ±slack of
// now+window whose flag for that window is still unset.
func (s *Store) FindForReminders(ctx context.Context, now time.Time, window ReminderWindow, slack time.Duration) ([]*Consultation, error) {
	target := now.Add(time.Duration(window) * time.Minute)
	rows, err := s.db.Query(ctx, selectConsultation+`
		WHERE status = 'scheduled'
		  AND scheduled_at BETWEEN $1 AND $2
		  AND `+reminderColumn(window)+` = FALSE
		ORDER BY scheduled_at`,
		target.Add(-slack), target.Add(slack),
	)
	if err != nil {
		return nil, err
	}
	return scanConsultations(rows)
}

func (s *Store) MarkReminderSent(ctx context.Context, id types.ID, window ReminderWindow) error {
	_, err := s.db.Exec(ctx, `
		UPDATE consultations SET `+reminderColumn(window)+` = TRUE WHERE id = $1`,
		string(id),
	)
	return err
}

func reminderColumn(window ReminderWindow) string {
	switch window {
	case Reminder24h:
		return "reminder_24h_sent"
	case Reminder1h:
		return "reminder_1h_sent"
	default:
		return "reminder_15m_sent"
	}
}

const selectConsultation = `
	SELECT id, order_id, customer_id, reviewer_id, scheduled_at, duration_min,
	       status, meeting_link, notes, customer_notes, reviewer_notes, rating,
	       reminder_24h_sent, reminder_1h_sent, reminder_15m_sent,
	       reschedule_history, created_at
	FROM consultations`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	var rating, history []byte

	err := row.Scan(
		&c.ID, &c.OrderID, &c.CustomerID, &c.ReviewerID, &c.ScheduledAt, &c.DurationMin,
		&c.Status, &c.MeetingLink, &c.Notes, &c.CustomerNotes, &c.ReviewerNotes, &rating,
		&c.Reminder24hSent, &c.Reminder1hSent, &c.Reminder15mSent,
		&history, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(rating) > 0 {
		var parsed Rating
		if err := json.Unmarshal(rating, &parsed); err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		c.Rating = &parsed
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &c.RescheduleHistory); err != nil {
			return nil, fmt.Errorf("decode reschedule history: %w", err)
		}
	}
	return &c, nil
}

func scanConsultations(rows pgx.Rows) ([]*Consultation, error) {
	defer rows.Close()
	var out []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
