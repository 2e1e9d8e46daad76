package expense

import (
	"time"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/google/uuid"
)

// AttachmentDTO is the API representation of an attachment reference.
type AttachmentDTO struct {
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
}

// ClaimDTO is the API representation of an expense claim.
type ClaimDTO struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	ClaimNumber     string          `json:"claim_number"`
	ProjectID       string          `json:"project_id"`
	EmployeeID      string          `json:"employee_id"`
	CategoryID      string          `json:"category_id"`
	CategoryName    string          `json:"category_name,omitempty"`
	CategoryColour  string          `json:"category_colour,omitempty"`
	ClaimDate       time.Time       `json:"claim_date"`
	Amount          string          `json:"amount"`
	Description     string          `json:"description,omitempty"`
	Attachments     []AttachmentDTO `json:"attachments"`
	State           string          `json:"state"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toClaimDTO(claim *expense.Claim) *ClaimDTO {
	attachments := make([]AttachmentDTO, len(claim.Attachments))
	for i, att := range claim.Attachments {
		attachments[i] = AttachmentDTO{
			FileName:    att.FileName,
			StoragePath: att.StoragePath,
			FileSize:    att.FileSize,
			MimeType:    att.MimeType,
		}
	}

	return &ClaimDTO{
		ID:              claim.ID.String(),
		TenantID:        claim.TenantID.String(),
		ClaimNumber:     claim.ClaimNumber,
		ProjectID:       claim.ProjectID.String(),
		EmployeeID:      claim.EmployeeID.String(),
		CategoryID:      claim.CategoryID.String(),
		CategoryName:    claim.CategoryName,
		CategoryColour:  claim.CategoryColour,
		ClaimDate:       claim.ClaimDate,
		Amount:          claim.Amount.StringFixed(2),
		Description:     claim.Description,
		Attachments:     attachments,
		State:           claim.State.String(),
		ApprovedBy:      claim.ApprovedBy,
		ApprovedAt:      claim.ApprovedAt,
		RejectedBy:      claim.RejectedBy,
		RejectedAt:      claim.RejectedAt,
		RejectionReason: claim.RejectionReason,
		Version:         claim.Version,
		CreatedAt:       claim.CreatedAt,
		UpdatedAt:       claim.UpdatedAt,
	}
}

// ClaimListDTO wraps a page of claims with the total row count.
type ClaimListDTO struct {
	Claims   []ClaimDTO `json:"claims"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// AuditEntryDTO is the API representation of one workflow transition.
type AuditEntryDTO struct {
	ID             string    `json:"id"`
	ClaimID        string    `json:"claim_id"`
	Action         string    `json:"action"`
	ActorID        string    `json:"actor_id"`
	PreviousState  string    `json:"previous_state"`
	ResultingState string    `json:"resulting_state"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAuditEntryDTO(entry *expense.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:             entry.ID.String(),
		ClaimID:        entry.ClaimID.String(),
		Action:         string(entry.Action),
		ActorID:        entry.ActorID.String(),
		PreviousState:  entry.PreviousState.String(),
		ResultingState: entry.ResultingState.String(),
		Detail:         entry.Detail,
		CreatedAt:      entry.CreatedAt,
	}
}

// CategoryDTO is the API representation of an expense category.
type CategoryDTO struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Colour             string    `json:"colour,omitempty"`
	Icon               string    `json:"icon,omitempty"`
	MaxAmount          *string   `json:"max_amount,omitempty"`
	RequiresAttachment bool      `json:"requires_attachment"`
	Active             bool      `json:"active"`
	SortOrder          int       `json:"sort_order"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toCategoryDTO(cat *expense.Category) *CategoryDTO {
	dto := &CategoryDTO{
		ID:                 cat.ID.String(),
		TenantID:           cat.TenantID.String(),
		Name:               cat.Name,
		Description:        cat.Description,
		Colour:             cat.Colour,
		Icon:               cat.Icon,
		RequiresAttachment: cat.RequiresAttachment,
		Active:             cat.Active,
		SortOrder:          cat.SortOrder,
		CreatedAt:          cat.CreatedAt,
		UpdatedAt:          cat.UpdatedAt,
	}
	if cat.MaxAmount != nil {
		s := cat.MaxAmount.StringFixed(2)
		dto.MaxAmount = &s
	}
	return dto
}

// ApprovalSettingDTO is the API representation of a per-project toggle.
type ApprovalSettingDTO struct {
	ProjectID string `json:"project_id"`
	ClaimType string `json:"claim_type"`
	Enabled   bool   `json:"enabled"`
}

func toApprovalSettingDTO(setting *expense.ApprovalSetting) ApprovalSettingDTO {
	return ApprovalSettingDTO{
		ProjectID: setting.ProjectID.String(),
		ClaimType: string(setting.ClaimType),
		Enabled:   setting.Enabled,
	}
}
