package handler

import (
	"time"

	appexpense "github.com/gestionale/backend/internal/application/expense"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClaimHandler handles the expense claim workflow endpoints. Authorization
// lives in the claim service, which knows who submitted each claim; the
// handler only translates between HTTP and service inputs.
type ClaimHandler struct {
	BaseHandler
	claimService *appexpense.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *appexpense.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// RegisterRoutes registers the claim routes
func (h *ClaimHandler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	claims.POST("", h.Submit)
	claims.GET("", h.List)
	claims.GET("/:id", h.Get)
	claims.PUT("/:id", h.Edit)
	claims.DELETE("/:id", h.Delete)
	claims.POST("/:id/approve", h.Approve)
	claims.POST("/:id/reject", h.Reject)
	claims.POST("/:id/resubmit", h.Resubmit)
	claims.GET("/:id/audit", h.Audit)
	claims.POST("/:id/attachments", h.UploadAttachment)
	claims.GET("/:id/attachments/url", h.AttachmentURL)
}

// Submit creates a claim and routes it through the approval resolver.
func (h *ClaimHandler) Submit(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	claimDate, err := parseClaimDate(req.ClaimDate)
	if err != nil {
		h.BadRequest(c, "Invalid claim_date, expected YYYY-MM-DD")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	// Already validated by the uuid binding tag
	projectID, _ := uuid.Parse(req.ProjectID)
	categoryID, _ := uuid.Parse(req.CategoryID)

	claim, err := h.claimService.Submit(c.Request.Context(), actor, appexpense.SubmitClaimInput{
		ProjectID:   projectID,
		CategoryID:  categoryID,
		ClaimDate:   claimDate,
		Amount:      amount,
		Description: req.Description,
		Attachments: attachmentDTOs(req.Attachments),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, claim)
}

// List returns a page of claims visible to the actor.
func (h *ClaimHandler) List(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var query ListClaimsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	state, ok := optionalState(query.State)
	if !ok {
		h.BadRequest(c, "Invalid state filter")
		return
	}

	list, err := h.claimService.List(c.Request.Context(), actor, appexpense.ListClaimsInput{
		EmployeeID: optionalUUID(query.EmployeeID),
		ProjectID:  optionalUUID(query.ProjectID),
		CategoryID: optionalUUID(query.CategoryID),
		State:      state,
		FromDate:   optionalDate(query.FromDate),
		ToDate:     optionalDate(query.ToDate),
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Claims, list.Total, list.Page, list.PageSize)
}

// Get returns a single claim.
func (h *ClaimHandler) Get(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	claim, err := h.claimService.GetByID(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// Edit updates a draft claim in place.
func (h *ClaimHandler) Edit(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req EditClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	claimDate, err := parseClaimDate(req.ClaimDate)
	if err != nil {
		h.BadRequest(c, "Invalid claim_date, expected YYYY-MM-DD")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	categoryID, _ := uuid.Parse(req.CategoryID)

	claim, err := h.claimService.Edit(c.Request.Context(), actor, claimID, appexpense.EditClaimInput{
		CategoryID:  categoryID,
		ClaimDate:   claimDate,
		Amount:      amount,
		Description: req.Description,
		Attachments: attachmentDTOs(req.Attachments),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// Delete removes a claim. The audit trail of past transitions stays.
func (h *ClaimHandler) Delete(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.claimService.Delete(c.Request.Context(), actor, claimID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Approve moves a pending claim to approved.
func (h *ClaimHandler) Approve(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	claim, err := h.claimService.Approve(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// Reject moves a pending claim to rejected. The reason is mandatory.
func (h *ClaimHandler) Reject(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RejectClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "A rejection reason is required")
		return
	}

	claim, err := h.claimService.Reject(c.Request.Context(), actor, claimID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// Resubmit sends a rejected claim back through the approval resolver.
func (h *ClaimHandler) Resubmit(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	claim, err := h.claimService.Resubmit(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// Audit returns the claim's transition history, newest first.
func (h *ClaimHandler) Audit(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.claimService.ListAudit(c.Request.Context(), actor, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// UploadAttachment stores a new attachment blob and appends the reference
// to the claim.
func (h *ClaimHandler) UploadAttachment(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file upload")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable file upload")
		return
	}
	defer file.Close()

	claim, err := h.claimService.AddAttachment(c.Request.Context(), actor, claimID, appexpense.AttachmentUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, claim)
}

// AttachmentURL returns a short-lived download URL for one attachment.
func (h *ClaimHandler) AttachmentURL(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	claimID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	storagePath := c.Query("path")
	if storagePath == "" {
		h.BadRequest(c, "Missing path parameter")
		return
	}

	url, err := h.claimService.PresignAttachment(c.Request.Context(), actor, claimID, storagePath, 15*time.Minute)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"url": url})
}
