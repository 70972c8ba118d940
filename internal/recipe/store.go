package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platos/internal/apperr"
	"platos/models"
)

// Store reads and writes the composition graph through a single gorm handle.
// Give it a transaction so that staged edge writes commit or roll back together.
type Store struct {
	db *gorm.DB
}

func NewStore(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) FindDish(ctx context.Context, dishID string) (*models.Dish, error) {
	var dish models.Dish
	if err := s.db.WithContext(ctx).First(&dish, "id = ?", dishID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dish %s", dishID)
		}
		return nil, fmt.Errorf("load dish %s: %w", dishID, err)
	}
	return &dish, nil
}

// FindIngredient resolves an active catalog entry; soft-deleted ingredients
// count as missing.
func (s *Store) FindIngredient(ctx context.Context, ingredientID uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ingredient %d", ingredientID)
		}
		return nil, fmt.Errorf("load ingredient %d: %w", ingredientID, err)
	}
	return &ingredient, nil
}

// LoadEdges returns the dish with both edge sets. Ingredient details are
// loaded unscoped so recipes keep costing after a catalog soft delete.
func (s *Store) LoadEdges(ctx context.Context, dishID string) (*models.Dish, error) {
	var dish models.Dish
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Ingredients.Ingredient", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("SubDishes", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("SubDishes.Child").
		First(&dish, "id = ?", dishID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dish %s", dishID)
		}
		return nil, fmt.Errorf("load recipe for dish %s: %w", dishID, err)
	}
	return &dish, nil
}

// SaveDish inserts the dish or overwrites its scalar fields. Cost and edges
// are left alone.
func (s *Store) SaveDish(ctx context.Context, dish *models.Dish, exists bool) error {
	if !exists {
		if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(dish).Error; err != nil {
			return fmt.Errorf("create dish: %w", err)
		}
		return nil
	}

	updates := map[string]any{
		"name":        dish.Name,
		"description": dish.Description,
		"sale_price":  dish.SalePrice,
		"stock":       dish.Stock,
	}
	if err := s.db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", dish.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update dish %s: %w", dish.ID, err)
	}
	return nil
}

func (s *Store) UpdateCost(ctx context.Context, dishID string, cost decimal.Decimal) error {
	if err := s.db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", dishID).Update("cost", cost).Error; err != nil {
		return fmt.Errorf("store cost for dish %s: %w", dishID, err)
	}
	return nil
}

func (s *Store) UpdateStock(ctx context.Context, dishID string, stock decimal.Decimal) error {
	if err := s.db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", dishID).Update("stock", stock).Error; err != nil {
		return fmt.Errorf("store stock for dish %s: %w", dishID, err)
	}
	return nil
}

// DeleteEdges removes every edge the dish originates.
func (s *Store) DeleteEdges(ctx context.Context, dishID string) error {
	if err := s.db.WithContext(ctx).Where("dish_id = ?", dishID).Delete(&models.DishIngredient{}).Error; err != nil {
		return fmt.Errorf("delete ingredient lines of dish %s: %w", dishID, err)
	}
	if err := s.db.WithContext(ctx).Where("parent_id = ?", dishID).Delete(&models.DishSubdish{}).Error; err != nil {
		return fmt.Errorf("delete sub-dish lines of dish %s: %w", dishID, err)
	}
	return nil
}

// ReplaceIngredientEdges makes lines the dish's complete ingredient set.
func (s *Store) ReplaceIngredientEdges(ctx context.Context, dishID string, lines []models.DishIngredient) error {
	if err := s.db.WithContext(ctx).Where("dish_id = ?", dishID).Delete(&models.DishIngredient{}).Error; err != nil {
		return fmt.Errorf("delete ingredient lines of dish %s: %w", dishID, err)
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].DishID = dishID
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&lines).Error; err != nil {
		return fmt.Errorf("create ingredient lines of dish %s: %w", dishID, err)
	}
	return nil
}

// ReplaceSubdishEdges makes lines the dish's complete sub-dish set.
func (s *Store) ReplaceSubdishEdges(ctx context.Context, dishID string, lines []models.DishSubdish) error {
	if err := s.db.WithContext(ctx).Where("parent_id = ?", dishID).Delete(&models.DishSubdish{}).Error; err != nil {
		return fmt.Errorf("delete sub-dish lines of dish %s: %w", dishID, err)
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ParentID = dishID
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&lines).Error; err != nil {
		return fmt.Errorf("create sub-dish lines of dish %s: %w", dishID, err)
	}
	return nil
}

// CountParents returns how many dishes use dishID as a sub-dish.
func (s *Store) CountParents(ctx context.Context, dishID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.DishSubdish{}).Where("child_id = ?", dishID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count parents of dish %s: %w", dishID, err)
	}
	return count, nil
}

// ParentsOf returns the distinct ids of dishes that use any of childIDs.
func (s *Store) ParentsOf(ctx context.Context, childIDs []string) ([]string, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}
	var parents []string
	if err := s.db.WithContext(ctx).Model(&models.DishSubdish{}).
		Distinct("parent_id").
		Where("child_id IN ?", childIDs).
		Order("parent_id asc").
		Pluck("parent_id", &parents).Error; err != nil {
		return nil, fmt.Errorf("load parents: %w", err)
	}
	return parents, nil
}

// DishesUsingIngredient returns the ids of dishes with a line for the ingredient.
func (s *Store) DishesUsingIngredient(ctx context.Context, ingredientID uint) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.DishIngredient{}).
		Distinct("dish_id").
		Where("ingredient_id = ?", ingredientID).
		Order("dish_id asc").
		Pluck("dish_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load dishes using ingredient %d: %w", ingredientID, err)
	}
	return ids, nil
}

func (s *Store) DeleteDish(ctx context.Context, dishID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Dish{}, "id = ?", dishID).Error; err != nil {
		return fmt.Errorf("delete dish %s: %w", dishID, err)
	}
	return nil
}
