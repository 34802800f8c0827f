// README: Payment aggregate and ledger state rules.
package payment

import (
	"time"

	"medreview/internal/types"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

type Payment struct {
	ID            types.ID
	OrderID       types.ID
	Amount        types.Money
	Status        Status
	Method        string
	TransactionID *string
	Fee           types.Money
	NetAmount     types.Money
	RefundAmount  *int64
	RefundReason  *string
	FailureReason *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}

// validateRefund checks the ledger rules for a refund request.
// amount is in cents of the payment currency.
func validateRefund(p *Payment, amount int64) error {
	if p.Status != StatusCompleted {
		return ErrInvalidState
	}
	if amount <= 0 || amount > p.Amount.Amount {
		return ErrInvalidAmount
	}
	return nil
}
