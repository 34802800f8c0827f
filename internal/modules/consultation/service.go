// README: Consultation scheduler; booking with overlap checks, transitions, reminder dispatch.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medreview/internal/config"
	"medreview/internal/modules/notification"
	"medreview/internal/types"
)

var (
	ErrNotFound        = errors.New("consultation not found")
	ErrInvalidState    = errors.New("invalid consultation state")
	ErrInvalidDate     = errors.New("scheduled date must be in the future")
	ErrInvalidDuration = errors.New("duration must be between 15 and 180 minutes")
	ErrInvalidReviewer = errors.New("reviewer is not an active reviewer")
	ErrSlotTaken       = errors.New("reviewer already has a consultation in that slot")
	ErrConflict        = errors.New("consultation state conflict")
	ErrInvalidRating   = errors.New("rating scores must be between 1 and 5")
	ErrBadRequest      = errors.New("bad request")
)

// reminderSlack is the tolerance around each reminder window; the ticker fires
// once a minute, so a ±5 minute window never misses a consultation.
const reminderSlack = 5 * time.Minute

// Directory resolves reviewer preconditions.
type Directory interface {
	ActiveReviewer(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store     *Store
	reminders *ReminderStore
	users     Directory
	emitter   notification.Emitter
	cfg       config.RemindersConfig
	log       *slog.Logger
}

func NewService(store *Store, reminders *ReminderStore, users Directory, emitter notification.Emitter, cfg config.RemindersConfig, log *slog.Logger) *Service {
	return &Service{store: store, reminders: reminders, users: users, emitter: emitter, cfg: cfg, log: log}
}

type ScheduleCommand struct {
	OrderID     types.ID
	CustomerID  types.ID
	ReviewerID  types.ID
	ScheduledAt time.Time
	DurationMin int
	MeetingLink string
}

type RescheduleCommand struct {
	ConsultationID types.ID
	NewDate        time.Time
	Reason         string
	By             types.ID
}

type CompleteCommand struct {
	ConsultationID types.ID
	Notes          string
	ReviewerNotes  string
}

type RateCommand struct {
	ConsultationID types.ID
	Overall        int
	Communication  int
	Comment        string
}

func (s *Service) Schedule(ctx context.Context, cmd ScheduleCommand) (types.ID, error) {
	if cmd.OrderID == "" || cmd.CustomerID == "" || cmd.ReviewerID == "" {
		return "", ErrBadRequest
	}
	if !cmd.ScheduledAt.After(time.Now()) {
		return "", ErrInvalidDate
	}
	if cmd.DurationMin < MinDurationMin || cmd.DurationMin > MaxDurationMin {
		return "", ErrInvalidDuration
	}

	ok, err := s.users.ActiveReviewer(ctx, cmd.ReviewerID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidReviewer
	}

	if err := s.checkOverlap(ctx, cmd.ReviewerID, cmd.ScheduledAt, cmd.DurationMin, ""); err != nil {
		return "", err
	}

	link := cmd.MeetingLink
	if link == "" {
		link = newMeetingLink()
	}

	c := &Consultation{
		ID:          types.NewID(),
		OrderID:     cmd.OrderID,
		CustomerID:  cmd.CustomerID,
		ReviewerID:  cmd.ReviewerID,
		ScheduledAt: cmd.ScheduledAt,
		DurationMin: cmd.DurationMin,
		Status:      StatusScheduled,
		MeetingLink: link,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return "", err
	}

	s.notifyBoth(ctx, c, notification.KindConsultationScheduled,
		"Consultation Scheduled",
		fmt.Sprintf("A consultation is scheduled for %s.", c.ScheduledAt.Format(time.RFC1123)))
	return c.ID, nil
}

func (s *Service) Start(ctx context.Context, id types.ID) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != StatusScheduled {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, c.ID, StatusScheduled, StatusInProgress)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.notifyBoth(ctx, c, notification.KindConsultationStarted,
		"Consultation Started", "Your consultation has started.")
	return nil
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	c, err := s.store.Get(ctx, cmd.ConsultationID)
	if err != nil {
		return err
	}
	if c.Status != StatusInProgress {
		return ErrInvalidState
	}
	ok, err := s.store.CompleteWithNotes(ctx, c.ID, cmd.Notes, cmd.ReviewerNotes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.notifyBoth(ctx, c, notification.KindConsultationCompleted,
		"Consultation Completed", "Your consultation has been completed.")
	return nil
}

func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != StatusScheduled {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, c.ID, StatusScheduled, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.notifyBoth(ctx, c, notification.KindConsultationCancelled,
		"Consultation Cancelled", "Your consultation has been cancelled.")
	return nil
}

// Reschedule moves the appointment, logs history, and resets reminder flags.
func (s *Service) Reschedule(ctx context.Context, cmd RescheduleCommand) error {
	c, err := s.store.Get(ctx, cmd.ConsultationID)
	if err != nil {
		return err
	}
	if c.Status != StatusScheduled {
		return ErrInvalidState
	}
	if !cmd.NewDate.After(time.Now()) {
		return ErrInvalidDate
	}
	if err := s.checkOverlap(ctx, c.ReviewerID, cmd.NewDate, c.DurationMin, c.ID); err != nil {
		return err
	}

	entry := Reschedule{
		PreviousDate: c.ScheduledAt,
		Reason:       cmd.Reason,
		By:           cmd.By,
		At:           time.Now(),
	}
	ok, err := s.store.Reschedule(ctx, c.ID, c.ScheduledAt, cmd.NewDate, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.notifyBoth(ctx, c, notification.KindConsultationRescheduled,
		"Consultation Rescheduled",
		fmt.Sprintf("Your consultation has been moved to %s.", cmd.NewDate.Format(time.RFC1123)))
	return nil
}

func (s *Service) Rate(ctx context.Context, cmd RateCommand) error {
	if !validScore(cmd.Overall) || !validScore(cmd.Communication) {
		return ErrInvalidRating
	}
	c, err := s.store.Get(ctx, cmd.ConsultationID)
	if err != nil {
		return err
	}
	if c.Status != StatusCompleted {
		return ErrInvalidState
	}
	ok, err := s.store.SetRating(ctx, c.ID, Rating{
		Overall:       cmd.Overall,
		Communication: cmd.Communication,
		Comment:       cmd.Comment,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Consultation, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]*Consultation, error) {
	return s.store.ListByOrder(ctx, orderID)
}

// AvailableSlots enumerates free business-hour slots for a reviewer over the
// next `days` days (7 by default at the HTTP layer).
func (s *Service) AvailableSlots(ctx context.Context, reviewerID types.ID, days int) ([]time.Time, error) {
	if days <= 0 {
		days = 7
	}
	booked, err := s.store.ListActiveByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	busy := make([]Interval, 0, len(booked))
	for _, c := range booked {
		busy = append(busy, Interval{
			Start:    c.ScheduledAt,
			Duration: time.Duration(c.DurationMin) * time.Minute,
		})
	}
	return AvailableSlots(time.Now(), days, busy), nil
}

// FindForReminders returns scheduled consultations due for the given window.
func (s *Service) FindForReminders(ctx context.Context, window ReminderWindow) ([]*Consultation, error) {
	return s.store.FindForReminders(ctx, time.Now(), window, reminderSlack)
}

// RunReminderTicker periodically dispatches 24h/1h/15min reminders. Redis
// dedup keys keep overlapping ticks from double-sending before the row flag
// lands.
func (s *Service) RunReminderTicker(ctx context.Context) {
	tick := time.Duration(s.cfg.TickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, window := range ReminderWindows {
				s.dispatchReminders(ctx, window)
			}
		}
	}
}

func (s *Service) dispatchReminders(ctx context.Context, window ReminderWindow) {
	due, err := s.FindForReminders(ctx, window)
	if err != nil {
		s.log.Error("reminder scan failed", "window_min", int(window), "err", err)
		return
	}
	for _, c := range due {
		claimed, err := s.reminders.Acquire(ctx, c.ID, window)
		if err != nil {
			s.log.Error("reminder claim failed", "consultation_id", string(c.ID), "err", err)
			continue
		}
		if !claimed {
			continue
		}
		s.notifyBoth(ctx, c, notification.KindConsultationReminder,
			"Consultation Reminder",
			fmt.Sprintf("Your consultation starts at %s.", c.ScheduledAt.Format(time.RFC1123)))
		if err := s.store.MarkReminderSent(ctx, c.ID, window); err != nil {
			s.log.Error("reminder flag update failed", "consultation_id", string(c.ID), "err", err)
			// Let a later tick retry once the claim expires.
			_ = s.reminders.Release(ctx, c.ID, window)
		}
	}
}

// checkOverlap rejects a booking that intersects any active consultation of
// the reviewer, excluding `exclude` when rescheduling.
func (s *Service) checkOverlap(ctx context.Context, reviewerID types.ID, start time.Time, durationMin int, exclude types.ID) error {
	existing, err := s.store.ListActiveByReviewer(ctx, reviewerID)
	if err != nil {
		return err
	}
	d := time.Duration(durationMin) * time.Minute
	for _, c := range existing {
		if c.ID == exclude {
			continue
		}
		if overlaps(start, d, c.ScheduledAt, time.Duration(c.DurationMin)*time.Minute) {
			return ErrSlotTaken
		}
	}
	return nil
}

func (s *Service) notifyBoth(ctx context.Context, c *Consultation, kind notification.Kind, title, message string) {
	_ = s.emitter.Emit(ctx, notification.Event{
		Recipients: []types.ID{c.CustomerID, c.ReviewerID},
		OrderID:    &c.OrderID,
		Kind:       kind,
		Title:      title,
		Message:    message,
	})
}

func newMeetingLink() string {
	return "https://meet.medreview.app/" + uuid.NewString()
}
