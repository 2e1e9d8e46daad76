package expense

import (
	"strings"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a tenant-scoped expense category carrying the claim-level
// constraints: whether an attachment is mandatory and an optional maximum
// amount. Validation runs before persistence; a claim that violates its
// category is never written and never enters the workflow.
type Category struct {
	shared.TenantAggregateRoot
	Name               string
	Description        string
	Colour             string
	Icon               string
	MaxAmount          *decimal.Decimal
	RequiresAttachment bool
	Active             bool
	SortOrder          int
}

// NewCategory creates an active expense category.
func NewCategory(tenantID uuid.UUID, name, colour string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Category name cannot be empty")
	}

	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Colour:              colour,
		Active:              true,
	}, nil
}

// SetMaxAmount sets the maximum allowed claim amount for the category.
func (cat *Category) SetMaxAmount(max decimal.Decimal) error {
	if max.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Maximum amount must be positive")
	}
	cat.MaxAmount = &max
	cat.UpdatedAt = time.Now()
	return nil
}

// ClearMaxAmount removes the maximum amount constraint.
func (cat *Category) ClearMaxAmount() {
	cat.MaxAmount = nil
	cat.UpdatedAt = time.Now()
}

// SetRequiresAttachment toggles the mandatory-attachment constraint.
func (cat *Category) SetRequiresAttachment(required bool) {
	cat.RequiresAttachment = required
	cat.UpdatedAt = time.Now()
}

// Deactivate hides the category from new claims.
func (cat *Category) Deactivate() {
	cat.Active = false
	cat.UpdatedAt = time.Now()
}

// ValidateClaim checks a claim draft against the category constraints:
//   - MISSING_ATTACHMENT when the category requires an attachment and the
//     draft carries none, regardless of amount;
//   - AMOUNT_EXCEEDED when a maximum is set and the amount is above it
//     (equal to the maximum passes).
func (cat *Category) ValidateClaim(amount decimal.Decimal, attachmentCount int) error {
	if cat.RequiresAttachment && attachmentCount == 0 {
		return shared.NewDomainError(shared.CodeMissingAttachment,
			"Category \""+cat.Name+"\" requires at least one attachment")
	}
	if cat.MaxAmount != nil && amount.GreaterThan(*cat.MaxAmount) {
		return shared.NewDomainError(shared.CodeAmountExceeded,
			"Amount exceeds the category maximum of "+cat.MaxAmount.StringFixed(2))
	}
	return nil
}
