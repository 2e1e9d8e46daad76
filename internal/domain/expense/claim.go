package expense

import (
	"strings"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimState represents the lifecycle state of an expense claim
type ClaimState string

const (
	ClaimStateDraft    ClaimState = "draft"
	ClaimStatePending  ClaimState = "pending_approval"
	ClaimStateApproved ClaimState = "approved"
	ClaimStateRejected ClaimState = "rejected"
)

// IsValid checks if the state is a valid ClaimState
func (s ClaimState) IsValid() bool {
	switch s {
	case ClaimStateDraft, ClaimStatePending, ClaimStateApproved, ClaimStateRejected:
		return true
	}
	return false
}

// String returns the string representation of ClaimState
func (s ClaimState) String() string {
	return string(s)
}

// IsTerminal reports whether the state admits no further transition.
// approved is strictly terminal: financial ledgers may have been keyed to an
// approved claim, so there is no way out of it. rejected allows resubmit.
func (s ClaimState) IsTerminal() bool {
	return s == ClaimStateApproved || s == ClaimStateRejected
}

// Attachment is a reference to a stored blob backing a claim. The blob
// itself lives in object storage; the claim only carries the reference.
type Attachment struct {
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
}

// Claim is an employee expense reimbursement request (nota spesa) tied to a
// project. It is the aggregate root of the approval workflow: all state
// transitions go through its methods, and the persistence layer enforces a
// version check so two racing transitions cannot both succeed.
type Claim struct {
	shared.TenantAggregateRoot
	ClaimNumber string
	ProjectID   uuid.UUID
	EmployeeID  uuid.UUID
	CategoryID  uuid.UUID
	ClaimDate   time.Time
	Amount      decimal.Decimal
	Description string
	Attachments []Attachment
	State       ClaimState

	// Denormalized category display data
	CategoryName   string
	CategoryColour string

	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectionReason string
}

// NewClaim creates a claim in draft state. Drafts are private to the
// submitter: they carry no audit entry until submitted.
func NewClaim(
	tenantID, projectID, employeeID, categoryID uuid.UUID,
	claimDate time.Time,
	amount decimal.Decimal,
	description string,
	attachments []Attachment,
	createdBy uuid.UUID,
) (*Claim, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Claim must reference a project")
	}
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Claim must reference an employee")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Claim must reference a category")
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	return &Claim{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		ProjectID:           projectID,
		EmployeeID:          employeeID,
		CategoryID:          categoryID,
		ClaimDate:           claimDate,
		Amount:              amount,
		Description:         strings.TrimSpace(description),
		Attachments:         append([]Attachment{}, attachments...),
		State:               ClaimStateDraft,
	}, nil
}

// Submit moves the claim out of draft. The caller has already run the
// category rules and consulted the approval-setting resolver; the claim
// lands in pending_approval when approval is required, otherwise directly in
// approved. The resolver is consulted exactly once here, at submission time:
// later changes to the setting never retroactively move in-flight claims.
func (c *Claim) Submit(requiresApproval bool) error {
	if c.State != ClaimStateDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Only draft claims can be submitted")
	}

	now := time.Now()
	if requiresApproval {
		c.State = ClaimStatePending
	} else {
		c.State = ClaimStateApproved
		c.ApprovedAt = &now
	}
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimSubmittedEvent(c))

	return nil
}

// Approve moves a pending claim to the terminal approved state.
func (c *Claim) Approve(approvedBy uuid.UUID) error {
	if c.State != ClaimStatePending {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot approve a claim in state "+c.State.String())
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Approver user ID cannot be empty")
	}

	now := time.Now()
	c.State = ClaimStateApproved
	c.ApprovedBy = &approvedBy
	c.ApprovedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimApprovedEvent(c))

	return nil
}

// Reject moves a pending claim to rejected. The reason is mandatory: the
// submitter needs to know what to fix before resubmitting.
func (c *Claim) Reject(rejectedBy uuid.UUID, reason string) error {
	if c.State != ClaimStatePending {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot reject a claim in state "+c.State.String())
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rejector user ID cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rejection reason is required")
	}

	now := time.Now()
	c.State = ClaimStateRejected
	c.RejectedBy = &rejectedBy
	c.RejectedAt = &now
	c.RejectionReason = reason
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimRejectedEvent(c))

	return nil
}

// Resubmit moves a rejected claim back into the workflow. The resolver is
// consulted again at this point, so a project that disabled approval in the
// meantime auto-approves the resubmission.
func (c *Claim) Resubmit(requiresApproval bool) error {
	if c.State != ClaimStateRejected {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Only rejected claims can be resubmitted")
	}

	now := time.Now()
	c.RejectedBy = nil
	c.RejectedAt = nil
	c.RejectionReason = ""
	if requiresApproval {
		c.State = ClaimStatePending
	} else {
		c.State = ClaimStateApproved
		c.ApprovedAt = &now
	}
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimResubmittedEvent(c))

	return nil
}

// Edit updates the claim's details. Only drafts are editable; submitted
// claims change state exclusively through the workflow. Edits produce no
// audit entry.
func (c *Claim) Edit(
	categoryID uuid.UUID,
	claimDate time.Time,
	amount decimal.Decimal,
	description string,
	attachments []Attachment,
) error {
	if c.State != ClaimStateDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Only draft claims can be edited")
	}
	if categoryID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Claim must reference a category")
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}

	c.CategoryID = categoryID
	c.ClaimDate = claimDate
	c.Amount = amount
	c.Description = strings.TrimSpace(description)
	c.Attachments = append([]Attachment{}, attachments...)
	c.UpdatedAt = time.Now()

	return nil
}

// AddAttachment appends an attachment reference. Allowed in draft and
// rejected states (a rejected claim typically gains the missing receipt
// before resubmission).
func (c *Claim) AddAttachment(att Attachment) error {
	if c.State != ClaimStateDraft && c.State != ClaimStateRejected {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot attach files to a claim in state "+c.State.String())
	}
	c.Attachments = append(c.Attachments, att)
	c.UpdatedAt = time.Now()
	return nil
}

// SetCategoryDisplay stores the denormalized category name and colour.
func (c *Claim) SetCategoryDisplay(name, colour string) {
	c.CategoryName = name
	c.CategoryColour = colour
}

// SetClaimNumber assigns the tenant-scoped claim number.
func (c *Claim) SetClaimNumber(number string) {
	c.ClaimNumber = number
}

// CanDelete reports whether the claim may be physically deleted. Claims in
// pending or approved state are never deleted: the audit trail and any
// downstream ledger entries must stay reachable.
func (c *Claim) CanDelete() bool {
	return c.State == ClaimStateDraft || c.State == ClaimStateRejected
}

// IsSubmitter reports whether the given employee submitted this claim.
func (c *Claim) IsSubmitter(employeeID uuid.UUID) bool {
	return c.EmployeeID == employeeID
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Amount must be positive")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > 500 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Description cannot exceed 500 characters")
	}
	return nil
}
