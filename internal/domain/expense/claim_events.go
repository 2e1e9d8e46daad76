package expense

import (
	"github.com/gestionale/backend/internal/domain/shared"
)

// Aggregate type constant for Claim
const AggregateTypeClaim = "ExpenseClaim"

// Claim domain event types
const (
	EventTypeClaimSubmitted   = "ExpenseClaimSubmitted"
	EventTypeClaimApproved    = "ExpenseClaimApproved"
	EventTypeClaimRejected    = "ExpenseClaimRejected"
	EventTypeClaimResubmitted = "ExpenseClaimResubmitted"
)

// ClaimSubmittedEvent is published when a claim leaves draft
type ClaimSubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber string     `json:"claim_number"`
	State       ClaimState `json:"state"`
}

// NewClaimSubmittedEvent creates a new ClaimSubmittedEvent
func NewClaimSubmittedEvent(c *Claim) *ClaimSubmittedEvent {
	return &ClaimSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimSubmitted, AggregateTypeClaim, c.ID, c.TenantID),
		ClaimNumber:     c.ClaimNumber,
		State:           c.State,
	}
}

// ClaimApprovedEvent is published when a claim is approved
type ClaimApprovedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber string `json:"claim_number"`
}

// NewClaimApprovedEvent creates a new ClaimApprovedEvent
func NewClaimApprovedEvent(c *Claim) *ClaimApprovedEvent {
	return &ClaimApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimApproved, AggregateTypeClaim, c.ID, c.TenantID),
		ClaimNumber:     c.ClaimNumber,
	}
}

// ClaimRejectedEvent is published when a claim is rejected
type ClaimRejectedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber string `json:"claim_number"`
	Reason      string `json:"reason"`
}

// NewClaimRejectedEvent creates a new ClaimRejectedEvent
func NewClaimRejectedEvent(c *Claim) *ClaimRejectedEvent {
	return &ClaimRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimRejected, AggregateTypeClaim, c.ID, c.TenantID),
		ClaimNumber:     c.ClaimNumber,
		Reason:          c.RejectionReason,
	}
}

// ClaimResubmittedEvent is published when a rejected claim re-enters the workflow
type ClaimResubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber string     `json:"claim_number"`
	State       ClaimState `json:"state"`
}

// NewClaimResubmittedEvent creates a new ClaimResubmittedEvent
func NewClaimResubmittedEvent(c *Claim) *ClaimResubmittedEvent {
	return &ClaimResubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimResubmitted, AggregateTypeClaim, c.ID, c.TenantID),
		ClaimNumber:     c.ClaimNumber,
		State:           c.State,
	}
}
