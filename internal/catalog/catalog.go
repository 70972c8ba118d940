// Package catalog manages the ingredients recipes are costed from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"platos/internal/apperr"
	applog "platos/internal/log"
	"platos/models"
)

type IngredientInput struct {
	Name         string
	Unit         models.Unit
	BaseQuantity decimal.Decimal
	BaseCost     decimal.Decimal
}

// IngredientPatch changes only the fields that are non-nil.
type IngredientPatch struct {
	Name         *string
	Unit         *models.Unit
	BaseQuantity *decimal.Decimal
	BaseCost     *decimal.Decimal
}

// AffectsCost reports whether applying the patch can change dish costs.
func (p IngredientPatch) AffectsCost() bool {
	return p.BaseQuantity != nil || p.BaseCost != nil
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, in IngredientInput) (*models.Ingredient, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	ingredient := models.Ingredient{
		Name:         strings.TrimSpace(in.Name),
		Unit:         in.Unit,
		BaseQuantity: in.BaseQuantity,
		BaseCost:     in.BaseCost,
	}
	if err := validate(ingredient); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	applog.Info(ctx, "ingredient created", "id", ingredient.ID, "name", ingredient.Name)
	return &ingredient, nil
}

func (s *Service) List(ctx context.Context) ([]models.Ingredient, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	return find(ctx, s.db, id)
}

// FindByName looks up an active ingredient ignoring case and surrounding space.
func (s *Service) FindByName(ctx context.Context, name string) (*models.Ingredient, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	trimmed := strings.TrimSpace(name)
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).Where("lower(name) = ?", strings.ToLower(trimmed)).Order("id asc").First(&ingredient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ingredient %q", trimmed)
		}
		return nil, fmt.Errorf("find ingredient %q: %w", trimmed, err)
	}
	return &ingredient, nil
}

func (s *Service) Update(ctx context.Context, id uint, patch IngredientPatch) (*models.Ingredient, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var updated *models.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredient, err := find(ctx, tx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			ingredient.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Unit != nil {
			ingredient.Unit = *patch.Unit
		}
		if patch.BaseQuantity != nil {
			ingredient.BaseQuantity = *patch.BaseQuantity
		}
		if patch.BaseCost != nil {
			ingredient.BaseCost = *patch.BaseCost
		}
		if err := validate(*ingredient); err != nil {
			return err
		}

		updates := map[string]any{
			"name":          ingredient.Name,
			"unit":          ingredient.Unit,
			"base_quantity": ingredient.BaseQuantity,
			"base_cost":     ingredient.BaseCost,
		}
		if err := tx.Model(ingredient).Updates(updates).Error; err != nil {
			return fmt.Errorf("update ingredient %d: %w", id, err)
		}
		updated = ingredient
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "ingredient updated", "id", id, "affectsCost", patch.AffectsCost())
	return updated, nil
}

// Remove soft-deletes the ingredient. Existing recipe lines keep pointing at
// it; new recipes can no longer reference it.
func (s *Service) Remove(ctx context.Context, id uint) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	result := s.db.WithContext(ctx).Delete(&models.Ingredient{}, id)
	if result.Error != nil {
		return fmt.Errorf("remove ingredient %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("ingredient %d", id)
	}
	applog.Info(ctx, "ingredient removed", "id", id)
	return nil
}

// Purge deletes the ingredient row for good. It refuses while any recipe line
// still references the ingredient.
func (s *Service) Purge(ctx context.Context, id uint) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.Unscoped().First(&ingredient, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ingredient %d", id)
			}
			return fmt.Errorf("load ingredient %d: %w", id, err)
		}

		var references int64
		if err := tx.Model(&models.DishIngredient{}).Where("ingredient_id = ?", id).Count(&references).Error; err != nil {
			return fmt.Errorf("count references to ingredient %d: %w", id, err)
		}
		if references > 0 {
			return apperr.Conflict("ingredient %d is used by %d recipe lines", id, references)
		}

		if err := tx.Unscoped().Delete(&ingredient).Error; err != nil {
			return fmt.Errorf("purge ingredient %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	applog.Info(ctx, "ingredient purged", "id", id)
	return nil
}

func find(ctx context.Context, db *gorm.DB, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ingredient %d", id)
		}
		return nil, fmt.Errorf("load ingredient %d: %w", id, err)
	}
	return &ingredient, nil
}

func validate(ingredient models.Ingredient) error {
	if ingredient.Name == "" {
		return apperr.InvalidArgument("name is required")
	}
	if !models.ValidUnit(ingredient.Unit) {
		return apperr.InvalidArgument("unit %q is not recognized", ingredient.Unit)
	}
	if !models.FitsQuantity(ingredient.BaseQuantity) {
		return apperr.InvalidArgument("base quantity %s needs at most %d decimal places", ingredient.BaseQuantity, models.QuantityScale)
	}
	if !ingredient.BaseQuantity.IsPositive() {
		return apperr.InvalidArgument("base quantity must be greater than zero")
	}
	if !models.FitsQuantity(ingredient.BaseCost) {
		return apperr.InvalidArgument("base cost %s needs at most %d decimal places", ingredient.BaseCost, models.QuantityScale)
	}
	if ingredient.BaseCost.IsNegative() {
		return apperr.InvalidArgument("base cost cannot be negative")
	}
	return nil
}
