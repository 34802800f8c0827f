// README: Order aggregate, status machine, and order number generation.
package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"medreview/internal/types"
)

type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusAssigned      Status = "assigned"
	StatusInProgress    Status = "in_progress"
	StatusUnderReview   Status = "under_review"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusRefunded      Status = "refunded"
)

type ProductType string

const (
	ProductSecondOpinion  ProductType = "second_opinion"
	ProductConsultation   ProductType = "consultation"
	ProductDocumentReview ProductType = "document_review"
	ProductExpertAnalysis ProductType = "expert_analysis"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductSecondOpinion, ProductConsultation, ProductDocumentReview, ProductExpertAnalysis:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Order struct {
	ID            types.ID
	OrderNumber   string
	CustomerID    types.ID
	ReviewerID    *types.ID
	ProductType   ProductType
	Title         string
	Description   string
	Status        Status
	StatusVersion int
	Priority      Priority
	TotalAmount   types.Money
	PaidAmount    types.Money
	DueDate       *time.Time
	CreatedAt     time.Time
	AssignedAt    *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  *string
}

// AllowedTransitions encodes the hardened order state flow. Cancellation and
// refund are reachable from every non-terminal state; completed, cancelled,
// and refunded have no outgoing edges. UnderReview may fall back to
// InProgress when a review is reopened for rework.
var AllowedTransitions = map[Status][]Status{
	StatusPendingReview: {StatusAssigned, StatusCancelled, StatusRefunded},
	StatusAssigned:      {StatusInProgress, StatusCancelled, StatusRefunded},
	StatusInProgress:    {StatusUnderReview, StatusCompleted, StatusCancelled, StatusRefunded},
	StatusUnderReview:   {StatusInProgress, StatusCompleted, StatusCancelled, StatusRefunded},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	_, ok := AllowedTransitions[s]
	return !ok
}

// NewOrderNumber builds a human-readable unique order number,
// e.g. ORD-20260826-3fa2b1.
func NewOrderNumber(now time.Time) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), hex.EncodeToString(b[:]))
}
