package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestionale/backend/internal/domain/expense"
)

// ClaimModel is the persistence model for expense claims. Attachment
// references are stored as a JSON document on the claim row; the blobs live
// in object storage.
type ClaimModel struct {
	TenantModel
	// Claim numbers are unique per tenant, not globally. The composite
	// unique index lives in the SQL migrations because tenant_id sits on
	// the embedded base struct.
	ClaimNumber     string          `gorm:"type:varchar(20);not null;index"`
	ProjectID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClaimDate       time.Time       `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Attachments     string          `gorm:"type:jsonb;not null;default:'[]'"`
	State           string          `gorm:"type:varchar(20);not null;index"`
	CategoryName    string          `gorm:"type:varchar(100)"`
	CategoryColour  string          `gorm:"type:varchar(20)"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "expense_claims"
}

// ClaimModelFromDomain converts a domain Claim to its persistence model.
func ClaimModelFromDomain(claim *expense.Claim) (*ClaimModel, error) {
	attachments, err := json.Marshal(claim.Attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}

	m := &ClaimModel{
		ClaimNumber:     claim.ClaimNumber,
		ProjectID:       claim.ProjectID,
		EmployeeID:      claim.EmployeeID,
		CategoryID:      claim.CategoryID,
		ClaimDate:       claim.ClaimDate,
		Amount:          claim.Amount,
		Description:     claim.Description,
		Attachments:     string(attachments),
		State:           string(claim.State),
		CategoryName:    claim.CategoryName,
		CategoryColour:  claim.CategoryColour,
		ApprovedBy:      claim.ApprovedBy,
		ApprovedAt:      claim.ApprovedAt,
		RejectedBy:      claim.RejectedBy,
		RejectedAt:      claim.RejectedAt,
		RejectionReason: claim.RejectionReason,
	}
	m.fromAggregate(claim.TenantAggregateRoot)
	return m, nil
}

// ToDomain converts the persistence model to a domain Claim.
func (m *ClaimModel) ToDomain() (*expense.Claim, error) {
	var attachments []expense.Attachment
	if m.Attachments != "" {
		if err := json.Unmarshal([]byte(m.Attachments), &attachments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachments for claim %s: %w", m.ID, err)
		}
	}

	return &expense.Claim{
		TenantAggregateRoot: m.toAggregate(),
		ClaimNumber:         m.ClaimNumber,
		ProjectID:           m.ProjectID,
		EmployeeID:          m.EmployeeID,
		CategoryID:          m.CategoryID,
		ClaimDate:           m.ClaimDate,
		Amount:              m.Amount,
		Description:         m.Description,
		Attachments:         attachments,
		State:               expense.ClaimState(m.State),
		CategoryName:        m.CategoryName,
		CategoryColour:      m.CategoryColour,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		RejectedBy:          m.RejectedBy,
		RejectedAt:          m.RejectedAt,
		RejectionReason:     m.RejectionReason,
	}, nil
}

// UpdateColumns returns the column map for a versioned update. A map is used
// instead of the struct so cleared fields (rejection metadata after a
// resubmit) are written as NULL rather than skipped.
func (m *ClaimModel) UpdateColumns() map[string]any {
	return map[string]any{
		"claim_number":     m.ClaimNumber,
		"category_id":      m.CategoryID,
		"claim_date":       m.ClaimDate,
		"amount":           m.Amount,
		"description":      m.Description,
		"attachments":      m.Attachments,
		"state":            m.State,
		"category_name":    m.CategoryName,
		"category_colour":  m.CategoryColour,
		"approved_by":      m.ApprovedBy,
		"approved_at":      m.ApprovedAt,
		"rejected_by":      m.RejectedBy,
		"rejected_at":      m.RejectedAt,
		"rejection_reason": m.RejectionReason,
		"updated_at":       m.UpdatedAt,
		"version":          m.Version + 1,
	}
}

// CategoryModel is the persistence model for expense categories.
type CategoryModel struct {
	TenantModel
	Name               string           `gorm:"type:varchar(100);not null"`
	Description        string           `gorm:"type:text"`
	Colour             string           `gorm:"type:varchar(20)"`
	Icon               string           `gorm:"type:varchar(50)"`
	MaxAmount          *decimal.Decimal `gorm:"type:decimal(18,2)"`
	RequiresAttachment bool             `gorm:"not null;default:false"`
	Active             bool             `gorm:"not null;default:true"`
	SortOrder          int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "expense_categories"
}

// CategoryModelFromDomain converts a domain Category to its persistence model.
func CategoryModelFromDomain(category *expense.Category) *CategoryModel {
	m := &CategoryModel{
		Name:               category.Name,
		Description:        category.Description,
		Colour:             category.Colour,
		Icon:               category.Icon,
		MaxAmount:          category.MaxAmount,
		RequiresAttachment: category.RequiresAttachment,
		Active:             category.Active,
		SortOrder:          category.SortOrder,
	}
	m.fromAggregate(category.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *expense.Category {
	return &expense.Category{
		TenantAggregateRoot: m.toAggregate(),
		Name:                m.Name,
		Description:         m.Description,
		Colour:              m.Colour,
		Icon:                m.Icon,
		MaxAmount:           m.MaxAmount,
		RequiresAttachment:  m.RequiresAttachment,
		Active:              m.Active,
		SortOrder:           m.SortOrder,
	}
}

// AuditEntryModel is the persistence model for the append-only claim audit
// trail. There is no updated_at column: rows are never touched after insert.
type AuditEntryModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClaimID        uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Action         string    `gorm:"type:varchar(20);not null"`
	ActorID        uuid.UUID `gorm:"type:uuid;not null"`
	PreviousState  string    `gorm:"type:varchar(20);not null"`
	ResultingState string    `gorm:"type:varchar(20);not null"`
	Detail         string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "claim_audit_entries"
}

// AuditEntryModelFromDomain converts a domain AuditEntry to its persistence model.
func AuditEntryModelFromDomain(entry *expense.AuditEntry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:             entry.ID,
		ClaimID:        entry.ClaimID,
		TenantID:       entry.TenantID,
		Action:         string(entry.Action),
		ActorID:        entry.ActorID,
		PreviousState:  string(entry.PreviousState),
		ResultingState: string(entry.ResultingState),
		Detail:         entry.Detail,
		CreatedAt:      entry.CreatedAt,
	}
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditEntryModel) ToDomain() *expense.AuditEntry {
	return &expense.AuditEntry{
		ID:             m.ID,
		ClaimID:        m.ClaimID,
		TenantID:       m.TenantID,
		Action:         expense.AuditAction(m.Action),
		ActorID:        m.ActorID,
		PreviousState:  expense.ClaimState(m.PreviousState),
		ResultingState: expense.ClaimState(m.ResultingState),
		Detail:         m.Detail,
		CreatedAt:      m.CreatedAt,
	}
}

// ApprovalSettingModel is the persistence model for per-project approval
// toggles. One row per (tenant, project, claim type).
type ApprovalSettingModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_approval_setting_key,priority:1"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_approval_setting_key,priority:2"`
	ClaimType string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_approval_setting_key,priority:3"`
	Enabled   bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ApprovalSettingModel) TableName() string {
	return "project_approval_settings"
}

// ApprovalSettingModelFromDomain converts a domain ApprovalSetting to its persistence model.
func ApprovalSettingModelFromDomain(setting *expense.ApprovalSetting) *ApprovalSettingModel {
	return &ApprovalSettingModel{
		BaseModel: BaseModel{
			ID:        setting.ID,
			CreatedAt: setting.CreatedAt,
			UpdatedAt: setting.UpdatedAt,
		},
		TenantID:  setting.TenantID,
		ProjectID: setting.ProjectID,
		ClaimType: string(setting.ClaimType),
		Enabled:   setting.Enabled,
	}
}

// ToDomain converts the persistence model to a domain ApprovalSetting.
func (m *ApprovalSettingModel) ToDomain() *expense.ApprovalSetting {
	setting := &expense.ApprovalSetting{
		TenantID:  m.TenantID,
		ProjectID: m.ProjectID,
		ClaimType: expense.ClaimType(m.ClaimType),
		Enabled:   m.Enabled,
	}
	setting.ID = m.ID
	setting.CreatedAt = m.CreatedAt
	setting.UpdatedAt = m.UpdatedAt
	return setting
}

// ClaimCounterModel backs claim number generation: one row per tenant and
// month, incremented atomically inside the insert statement.
type ClaimCounterModel struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Period   string    `gorm:"type:varchar(6);primaryKey"`
	Counter  int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ClaimCounterModel) TableName() string {
	return "claim_counters"
}
