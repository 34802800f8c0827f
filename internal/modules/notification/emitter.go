// README: Event emission interface consumed by all lifecycle controllers.
package notification

import (
	"context"

	"medreview/internal/types"
)

// Event is a domain state change fanned out to one notification per recipient.
type Event struct {
	Recipients []types.ID
	OrderID    *types.ID
	Kind       Kind
	Title      string
	Message    string
	Priority   Priority
}

// Emitter records notifications for an external dispatcher to deliver.
// Emission is fire-and-forget: callers ignore the returned error and the
// primary mutation is never rolled back on emission failure.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}
