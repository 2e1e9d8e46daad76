package handler

import (
	appexpense "github.com/gestionale/backend/internal/application/expense"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gin-gonic/gin"
)

// ApprovalSettingRequest carries one per-project approval toggle
type ApprovalSettingRequest struct {
	ClaimType string `json:"claim_type" binding:"required"`
	Enabled   bool   `json:"enabled"`
}

// ApprovalSettingHandler handles the per-project approval toggles that
// feed the claim workflow's approval resolver.
type ApprovalSettingHandler struct {
	BaseHandler
	settingService *appexpense.ApprovalSettingService
}

// NewApprovalSettingHandler creates a new approval setting handler
func NewApprovalSettingHandler(settingService *appexpense.ApprovalSettingService) *ApprovalSettingHandler {
	return &ApprovalSettingHandler{settingService: settingService}
}

// RegisterRoutes registers the approval setting routes
func (h *ApprovalSettingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	projects.GET("/:id/approval-settings", h.List)
	projects.PUT("/:id/approval-settings", h.Update)
}

// List returns the project's toggles. Claim types with no stored row are
// reported as disabled.
func (h *ApprovalSettingHandler) List(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	projectID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	settings, err := h.settingService.ListForProject(c.Request.Context(), actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settings)
}

// Update writes one toggle, creating the row when none exists yet.
func (h *ApprovalSettingHandler) Update(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	projectID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ApprovalSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	setting, err := h.settingService.Update(c.Request.Context(), actor, appexpense.UpdateSettingInput{
		ProjectID: projectID,
		ClaimType: expense.ClaimType(req.ClaimType),
		Enabled:   req.Enabled,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, setting)
}
