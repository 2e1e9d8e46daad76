package expense

import (
	"context"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditAction is the kind of workflow transition an audit entry records.
type AuditAction string

const (
	AuditActionCreated     AuditAction = "created"
	AuditActionApproved    AuditAction = "approved"
	AuditActionRejected    AuditAction = "rejected"
	AuditActionResubmitted AuditAction = "resubmitted"
)

// IsValid checks if the value is a known AuditAction
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreated, AuditActionApproved, AuditActionRejected, AuditActionResubmitted:
		return true
	}
	return false
}

// AuditEntry is an immutable record of one workflow transition: who did
// what to which claim, and the state it landed in. Entries are written
// exactly once per successful transition, in the same transaction as the
// claim state change, and never updated or deleted afterwards.
type AuditEntry struct {
	ID             uuid.UUID
	ClaimID        uuid.UUID
	TenantID       uuid.UUID
	Action         AuditAction
	ActorID        uuid.UUID
	PreviousState  ClaimState
	ResultingState ClaimState
	Detail         string
	CreatedAt      time.Time
}

// NewAuditEntry builds an entry for a completed transition. Detail carries
// transition-specific text, e.g. the rejection reason.
func NewAuditEntry(claimID, tenantID uuid.UUID, action AuditAction, actorID uuid.UUID, previous, resulting ClaimState, detail string) (*AuditEntry, error) {
	if claimID == uuid.Nil || tenantID == uuid.Nil || actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Audit entry requires claim, tenant and actor IDs")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown audit action: "+string(action))
	}
	if !resulting.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown resulting state: "+string(resulting))
	}
	return &AuditEntry{
		ID:             uuid.New(),
		ClaimID:        claimID,
		TenantID:       tenantID,
		Action:         action,
		ActorID:        actorID,
		PreviousState:  previous,
		ResultingState: resulting,
		Detail:         detail,
		CreatedAt:      time.Now(),
	}, nil
}

// AuditRepository is append-only: there is no update or delete operation,
// by contract. ListForClaim re-materializes the full history on every call,
// newest first; there is no incremental read.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListForClaim(ctx context.Context, tenantID, claimID uuid.UUID) ([]*AuditEntry, error)
}
