// README: Consultation scheduler tests (validation + DB-backed booking flows).
package consultation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"medreview/internal/config"
	"medreview/internal/modules/notification"
	"medreview/internal/testutil"
	"medreview/internal/types"
)

type stubDirectory struct{ active bool }

func (s *stubDirectory) ActiveReviewer(context.Context, types.ID) (bool, error) {
	return s.active, nil
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, notification.Event) error { return nil }

func TestScheduleValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, config.RemindersConfig{}, nil)
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)

	if _, err := svc.Schedule(ctx, ScheduleCommand{
		CustomerID: "c1", ReviewerID: "r1", ScheduledAt: future, DurationMin: 30,
	}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing order: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.Schedule(ctx, ScheduleCommand{
		OrderID: "o1", CustomerID: "c1", ReviewerID: "r1",
		ScheduledAt: time.Now().Add(-time.Hour), DurationMin: 30,
	}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("past date: expected ErrInvalidDate, got %v", err)
	}
	for _, dur := range []int{0, 14, 181} {
		if _, err := svc.Schedule(ctx, ScheduleCommand{
			OrderID: "o1", CustomerID: "c1", ReviewerID: "r1",
			ScheduledAt: future, DurationMin: dur,
		}); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("duration %d: expected ErrInvalidDuration, got %v", dur, err)
		}
	}
}

func TestRateValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, config.RemindersConfig{}, nil)
	ctx := context.Background()

	for _, cmd := range []RateCommand{
		{ConsultationID: "c1", Overall: 0, Communication: 3},
		{ConsultationID: "c1", Overall: 3, Communication: 6},
	} {
		if err := svc.Rate(ctx, cmd); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("expected ErrInvalidRating, got %v", err)
		}
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := NewStore(testutil.DB(t))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, nil, &stubDirectory{active: true}, nopEmitter{}, config.RemindersConfig{TickSeconds: 60}, log)
}

func mustSchedule(t *testing.T, svc *Service, reviewer types.ID, at time.Time, durationMin int) types.ID {
	t.Helper()
	id, err := svc.Schedule(context.Background(), ScheduleCommand{
		OrderID:     "o1",
		CustomerID:  "c1",
		ReviewerID:  reviewer,
		ScheduledAt: at,
		DurationMin: durationMin,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return id
}

func TestScheduleLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	at := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	id := mustSchedule(t, svc, "r_life", at, 45)

	c, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", c.Status)
	}
	if c.MeetingLink == "" {
		t.Fatal("meeting link not generated")
	}

	if err := svc.Start(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Complete(ctx, CompleteCommand{ConsultationID: id, Notes: "summary", ReviewerNotes: "internal"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	c, _ = svc.Get(ctx, id)
	if c.Status != StatusCompleted || c.Notes != "summary" || c.ReviewerNotes != "internal" {
		t.Fatalf("consultation after complete: %+v", c)
	}

	if err := svc.Rate(ctx, RateCommand{ConsultationID: id, Overall: 5, Communication: 4, Comment: "great"}); err != nil {
		t.Fatalf("rate: %v", err)
	}
	c, _ = svc.Get(ctx, id)
	if c.Rating == nil || c.Rating.Overall != 5 || c.Rating.Communication != 4 {
		t.Fatalf("rating = %+v", c.Rating)
	}

	// Completed consultations cannot be started or cancelled.
	if err := svc.Start(ctx, id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start completed: expected ErrInvalidState, got %v", err)
	}
	if err := svc.Cancel(ctx, id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel completed: expected ErrInvalidState, got %v", err)
	}
}

func TestScheduleRejectsOverlap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	at := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	mustSchedule(t, svc, "r_busy", at, 60)

	// Starts inside the existing booking.
	if _, err := svc.Schedule(ctx, ScheduleCommand{
		OrderID: "o2", CustomerID: "c2", ReviewerID: "r_busy",
		ScheduledAt: at.Add(30 * time.Minute), DurationMin: 30,
	}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// A different reviewer is free at the same time.
	if _, err := svc.Schedule(ctx, ScheduleCommand{
		OrderID: "o2", CustomerID: "c2", ReviewerID: "r_free",
		ScheduledAt: at, DurationMin: 30,
	}); err != nil {
		t.Fatalf("other reviewer: %v", err)
	}

	// Back-to-back is allowed.
	if _, err := svc.Schedule(ctx, ScheduleCommand{
		OrderID: "o3", CustomerID: "c3", ReviewerID: "r_busy",
		ScheduledAt: at.Add(time.Hour), DurationMin: 30,
	}); err != nil {
		t.Fatalf("back-to-back: %v", err)
	}

	// Cancelled bookings free the slot.
	blocked := mustSchedule(t, svc, "r_cancel", at, 60)
	if err := svc.Cancel(ctx, blocked); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Schedule(ctx, ScheduleCommand{
		OrderID: "o4", CustomerID: "c4", ReviewerID: "r_cancel",
		ScheduledAt: at, DurationMin: 60,
	}); err != nil {
		t.Fatalf("rebook cancelled slot: %v", err)
	}
}

func TestRescheduleResetsReminders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	at := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	id := mustSchedule(t, svc, "r_move", at, 30)

	if err := svc.store.MarkReminderSent(ctx, id, Reminder24h); err != nil {
		t.Fatalf("mark reminder: %v", err)
	}
	c, _ := svc.Get(ctx, id)
	if !c.Reminder24hSent {
		t.Fatal("reminder flag not set")
	}

	newDate := at.Add(48 * time.Hour)
	if err := svc.Reschedule(ctx, RescheduleCommand{
		ConsultationID: id,
		NewDate:        newDate,
		Reason:         "conflict",
		By:             "c1",
	}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	c, _ = svc.Get(ctx, id)
	if !c.ScheduledAt.Equal(newDate) {
		t.Fatalf("scheduled_at = %s, want %s", c.ScheduledAt, newDate)
	}
	if c.Reminder24hSent || c.Reminder1hSent || c.Reminder15mSent {
		t.Fatal("reminder flags not reset")
	}
	if len(c.RescheduleHistory) != 1 {
		t.Fatalf("history entries = %d, want 1", len(c.RescheduleHistory))
	}
	entry := c.RescheduleHistory[0]
	if !entry.PreviousDate.Equal(at) || entry.Reason != "conflict" || entry.By != "c1" {
		t.Fatalf("history entry = %+v", entry)
	}
}

func TestFindForReminders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := mustSchedule(t, svc, "r_remind", time.Now().Add(time.Hour), 30)
	// Well outside every window.
	mustSchedule(t, svc, "r_remind", time.Now().Add(200*time.Hour), 30)

	due, err := svc.FindForReminders(ctx, Reminder1h)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("expected one consultation due, got %d", len(due))
	}

	if err := svc.store.MarkReminderSent(ctx, id, Reminder1h); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	due, err = svc.FindForReminders(ctx, Reminder1h)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no consultations after flag, got %d", len(due))
	}
}

func TestAvailableSlotsService(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	slots, err := svc.AvailableSlots(ctx, "r_slots", 0)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	for _, s := range slots {
		if wd := s.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend slot offered: %s", s)
		}
		if !s.After(time.Now()) {
			t.Errorf("past slot offered: %s", s)
		}
	}
}
