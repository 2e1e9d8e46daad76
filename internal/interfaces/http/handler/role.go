package handler

import (
	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RoleHandler handles custom role management endpoints. Unlike the claim
// endpoints, where the service runs its own permission guards, role
// management is guarded here at the route level: every route requires a
// settings grant.
type RoleHandler struct {
	BaseHandler
	roleService *appidentity.RoleService
	permissions middleware.PermissionChecker
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *appidentity.RoleService, permissions middleware.PermissionChecker) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		permissions: permissions,
	}
}

// RegisterRoutes registers the role routes
func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	view := middleware.RequirePermission(h.permissions, identity.SectionSettings, identity.ActionView)
	update := middleware.RequirePermission(h.permissions, identity.SectionSettings, identity.ActionUpdate)

	roles := rg.Group("/roles")
	roles.GET("", view, h.List)
	roles.GET("/:id", view, h.Get)
	roles.POST("", update, h.Create)
	roles.PUT("/:id", update, h.Update)
	roles.DELETE("/:id", update, h.Delete)
}

// List returns every custom role of the tenant.
func (h *RoleHandler) List(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	roles, err := h.roleService.List(c.Request.Context(), actor.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, roles)
}

// Get returns a single custom role.
func (h *RoleHandler) Get(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	roleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetByID(c.Request.Context(), actor.TenantID, roleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, role)
}

// Create creates a custom role, subject to the per-tenant cap.
func (h *RoleHandler) Create(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), appidentity.CreateRoleInput{
		TenantID:    actor.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Permissions: req.permissionGrants(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, role)
}

// Update replaces a custom role's name, metadata and permission matrix.
func (h *RoleHandler) Update(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	roleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), appidentity.UpdateRoleInput{
		TenantID:    actor.TenantID,
		ID:          roleID,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Permissions: req.permissionGrants(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, role)
}

// Delete removes a custom role that no user references anymore.
func (h *RoleHandler) Delete(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	roleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), actor.TenantID, roleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
