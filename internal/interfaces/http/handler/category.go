package handler

import (
	appexpense "github.com/gestionale/backend/internal/application/expense"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryRequest carries an expense category create or update
type CategoryRequest struct {
	Name               string  `json:"name" binding:"required,max=100"`
	Description        string  `json:"description" binding:"omitempty,max=500"`
	Colour             string  `json:"colour" binding:"omitempty,max=20"`
	Icon               string  `json:"icon" binding:"omitempty,max=50"`
	MaxAmount          *string `json:"max_amount" binding:"omitempty,decimal"`
	RequiresAttachment bool    `json:"requires_attachment"`
	SortOrder          int     `json:"sort_order" binding:"omitempty,min=0"`
}

// CategoryHandler handles expense category endpoints. The category service
// runs its own settings guard, so the routes carry no extra middleware.
type CategoryHandler struct {
	BaseHandler
	categoryService *appexpense.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *appexpense.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// RegisterRoutes registers the category routes
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	categories.POST("", h.Create)
	categories.GET("", h.List)
	categories.GET("/:id", h.Get)
	categories.PUT("/:id", h.Update)
	categories.DELETE("/:id", h.Deactivate)
}

func (h *CategoryHandler) bindInput(c *gin.Context) (appexpense.CategoryInput, bool) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return appexpense.CategoryInput{}, false
	}

	input := appexpense.CategoryInput{
		Name:               req.Name,
		Description:        req.Description,
		Colour:             req.Colour,
		Icon:               req.Icon,
		RequiresAttachment: req.RequiresAttachment,
		SortOrder:          req.SortOrder,
	}
	if req.MaxAmount != nil {
		amount, err := decimal.NewFromString(*req.MaxAmount)
		if err != nil {
			h.BadRequest(c, "Invalid max_amount")
			return appexpense.CategoryInput{}, false
		}
		input.MaxAmount = &amount
	}
	return input, true
}

// Create creates a new expense category.
func (h *CategoryHandler) Create(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, category)
}

// List returns the tenant's categories. Pass active_only=true to hide
// deactivated ones.
func (h *CategoryHandler) List(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}

	activeOnly := c.Query("active_only") == "true"

	categories, err := h.categoryService.List(c.Request.Context(), actor, activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, categories)
}

// Get returns a single category.
func (h *CategoryHandler) Get(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	categoryID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), actor, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, category)
}

// Update replaces a category's attributes and rules.
func (h *CategoryHandler) Update(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	categoryID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), actor, categoryID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, category)
}

// Deactivate retires a category. Existing claims keep referencing it;
// new submissions cannot.
func (h *CategoryHandler) Deactivate(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	categoryID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Deactivate(c.Request.Context(), actor, categoryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
