package expense

import (
	"context"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CategoryService manages expense categories and their claim constraints.
// Category management is a settings concern, so writes require
// settings:update.
type CategoryService struct {
	categoryRepo expense.CategoryRepository
	permissions  PermissionChecker
	logger       *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categoryRepo expense.CategoryRepository,
	permissions PermissionChecker,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		permissions:  permissions,
		logger:       logger,
	}
}

// CategoryInput contains input for creating or updating a category
type CategoryInput struct {
	Name               string
	Description        string
	Colour             string
	Icon               string
	MaxAmount          *decimal.Decimal
	RequiresAttachment bool
	SortOrder          int
}

// Create creates a new expense category.
func (s *CategoryService) Create(ctx context.Context, actor appidentity.Actor, input CategoryInput) (*CategoryDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionSettings, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to manage expense categories")
	}

	category, err := expense.NewCategory(actor.TenantID, input.Name, input.Colour)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create category")
	}

	s.logger.Info("Expense category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name))

	return toCategoryDTO(category), nil
}

// Update replaces a category's display data and constraints. Existing
// claims keep their denormalized name and colour; new validations use the
// updated constraints.
func (s *CategoryService) Update(ctx context.Context, actor appidentity.Actor, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionSettings, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to manage expense categories")
	}

	category, err := s.find(ctx, actor.TenantID, categoryID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		category.Name = input.Name
	}
	category.Description = input.Description
	category.Colour = input.Colour
	category.Icon = input.Icon
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		s.logger.Error("Failed to update category", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update category")
	}

	return toCategoryDTO(category), nil
}

// Deactivate hides a category from new claims without touching existing
// ones.
func (s *CategoryService) Deactivate(ctx context.Context, actor appidentity.Actor, categoryID uuid.UUID) error {
	if !s.permissions.Check(ctx, actor, identity.SectionSettings, identity.ActionUpdate) {
		return shared.NewDomainError(shared.CodeForbidden, "Not allowed to manage expense categories")
	}

	category, err := s.find(ctx, actor.TenantID, categoryID)
	if err != nil {
		return err
	}

	category.Deactivate()
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		s.logger.Error("Failed to deactivate category", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate category")
	}
	return nil
}

// GetByID retrieves a category.
func (s *CategoryService) GetByID(ctx context.Context, actor appidentity.Actor, categoryID uuid.UUID) (*CategoryDTO, error) {
	category, err := s.find(ctx, actor.TenantID, categoryID)
	if err != nil {
		return nil, err
	}
	return toCategoryDTO(category), nil
}

// List returns the tenant's categories. Every authenticated user may read
// them: claim submission forms need the list.
func (s *CategoryService) List(ctx context.Context, actor appidentity.Actor, activeOnly bool) ([]CategoryDTO, error) {
	categories, err := s.categoryRepo.FindAll(ctx, actor.TenantID, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list categories")
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, category := range categories {
		dtos[i] = *toCategoryDTO(category)
	}
	return dtos, nil
}

func (s *CategoryService) find(ctx context.Context, tenantID, categoryID uuid.UUID) (*expense.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, categoryID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Category not found")
		}
		s.logger.Error("Failed to load category", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load category")
	}
	return category, nil
}

func applyCategoryInput(category *expense.Category, input CategoryInput) error {
	category.Description = input.Description
	category.Icon = input.Icon
	category.SortOrder = input.SortOrder
	category.SetRequiresAttachment(input.RequiresAttachment)
	if input.MaxAmount != nil {
		if err := category.SetMaxAmount(*input.MaxAmount); err != nil {
			return err
		}
	} else {
		category.ClearMaxAmount()
	}
	return nil
}
