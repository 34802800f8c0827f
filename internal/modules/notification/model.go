// README: Notification records and the event kinds that produce them.
package notification

import (
	"time"

	"medreview/internal/types"
)

type Kind string

const (
	KindOrderCreated            Kind = "order_created"
	KindOrderAssigned           Kind = "order_assigned"
	KindOrderStatusChanged      Kind = "order_status_changed"
	KindOrderCancelled          Kind = "order_cancelled"
	KindReviewCreated           Kind = "review_created"
	KindReviewCompleted         Kind = "review_completed"
	KindPaymentCompleted        Kind = "payment_completed"
	KindPaymentFailed           Kind = "payment_failed"
	KindPaymentRefunded         Kind = "payment_refunded"
	KindConsultationScheduled   Kind = "consultation_scheduled"
	KindConsultationStarted     Kind = "consultation_started"
	KindConsultationCompleted   Kind = "consultation_completed"
	KindConsultationCancelled   Kind = "consultation_cancelled"
	KindConsultationRescheduled Kind = "consultation_rescheduled"
	KindConsultationReminder    Kind = "consultation_reminder"
	KindDocumentUploaded        Kind = "document_uploaded"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultTTL is how long a notification stays visible before the expiry sweep
// removes it.
const DefaultTTL = 30 * 24 * time.Hour

type Notification struct {
	ID          types.ID
	UserID      types.ID
	OrderID     *types.ID
	Kind        Kind
	Title       string
	Message     string
	Priority    Priority
	IsRead      bool
	ReadAt      *time.Time
	EmailSentAt *time.Time
	SMSSentAt   *time.Time
	PushSentAt  *time.Time
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

func (ch Channel) Valid() bool {
	switch ch {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}
