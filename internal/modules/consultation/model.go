// README: Consultation aggregate and state definitions.
package consultation

import (
	"time"

	"medreview/internal/types"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	// StatusRescheduled exists only in historical data imported from the
	// legacy system; a reschedule here keeps the row in scheduled.
	StatusRescheduled Status = "rescheduled"
)

const (
	MinDurationMin = 15
	MaxDurationMin = 180
)

// ReminderWindow is the lead time, in minutes, of a reminder before the
// consultation starts.
type ReminderWindow int

const (
	Reminder24h ReminderWindow = 24 * 60
	Reminder1h  ReminderWindow = 60
	Reminder15m ReminderWindow = 15
)

var ReminderWindows = []ReminderWindow{Reminder24h, Reminder1h, Reminder15m}

// Reschedule is one append-only history entry.
type Reschedule struct {
	PreviousDate time.Time `json:"previous_date"`
	Reason       string    `json:"reason"`
	By           types.ID  `json:"by"`
	At           time.Time `json:"at"`
}

// Rating is the customer's post-consultation feedback.
type Rating struct {
	Overall       int    `json:"overall"`
	Communication int    `json:"communication"`
	Comment       string `json:"comment"`
}

type Consultation struct {
	ID            types.ID
	OrderID       types.ID
	CustomerID    types.ID
	ReviewerID    types.ID
	ScheduledAt   time.Time
	DurationMin   int
	Status        Status
	MeetingLink   string
	Notes         string
	CustomerNotes string
	ReviewerNotes string
	Rating        *Rating

	Reminder24hSent bool
	Reminder1hSent  bool
	Reminder15mSent bool

	RescheduleHistory []Reschedule
	CreatedAt         time.Time
}

// ReminderSent reports the flag for a given window.
func (c *Consultation) ReminderSent(w ReminderWindow) bool {
	switch w {
	case Reminder24h:
		return c.Reminder24hSent
	case Reminder1h:
		return c.Reminder1hSent
	case Reminder15m:
		return c.Reminder15mSent
	}
	return false
}

func validScore(v int) bool { return v >= 1 && v <= 5 }
