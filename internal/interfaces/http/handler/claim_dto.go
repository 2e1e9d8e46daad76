package handler

import (
	"time"

	appexpense "github.com/gestionale/backend/internal/application/expense"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const claimDateLayout = "2006-01-02"

// AttachmentRequest references an already uploaded attachment blob
type AttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"omitempty,min=0"`
	MimeType    string `json:"mime_type"`
}

// SubmitClaimRequest carries a new expense claim submission
type SubmitClaimRequest struct {
	ProjectID   string              `json:"project_id" binding:"required,uuid"`
	CategoryID  string              `json:"category_id" binding:"required,uuid"`
	ClaimDate   string              `json:"claim_date" binding:"required"`
	Amount      string              `json:"amount" binding:"required,decimal"`
	Description string              `json:"description" binding:"omitempty,max=1000"`
	Attachments []AttachmentRequest `json:"attachments" binding:"omitempty,dive"`
}

// EditClaimRequest carries a draft claim edit
type EditClaimRequest struct {
	CategoryID  string              `json:"category_id" binding:"required,uuid"`
	ClaimDate   string              `json:"claim_date" binding:"required"`
	Amount      string              `json:"amount" binding:"required,decimal"`
	Description string              `json:"description" binding:"omitempty,max=1000"`
	Attachments []AttachmentRequest `json:"attachments" binding:"omitempty,dive"`
}

// RejectClaimRequest carries the mandatory rejection reason
type RejectClaimRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ListClaimsQuery holds the claim list filters
type ListClaimsQuery struct {
	dto.ListRequest
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	ProjectID  string `form:"project_id" binding:"omitempty,uuid"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	State      string `form:"state" binding:"omitempty"`
	FromDate   string `form:"from_date" binding:"omitempty"`
	ToDate     string `form:"to_date" binding:"omitempty"`
}

func attachmentDTOs(attachments []AttachmentRequest) []appexpense.AttachmentDTO {
	out := make([]appexpense.AttachmentDTO, len(attachments))
	for i, a := range attachments {
		out[i] = appexpense.AttachmentDTO{
			FileName:    a.FileName,
			StoragePath: a.StoragePath,
			FileSize:    a.FileSize,
			MimeType:    a.MimeType,
		}
	}
	return out
}

func parseClaimDate(value string) (time.Time, error) {
	return time.Parse(claimDateLayout, value)
}

func parseAmount(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}

func optionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}

func optionalDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(claimDateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

func optionalState(value string) (*expense.ClaimState, bool) {
	if value == "" {
		return nil, true
	}
	state := expense.ClaimState(value)
	if !state.IsValid() {
		return nil, false
	}
	return &state, true
}
