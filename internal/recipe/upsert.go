// Package recipe owns the composition graph tables and the protocol that
// replaces a dish's recipe as a single unit of work.
package recipe

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"platos/internal/apperr"
	"platos/internal/costing"
	applog "platos/internal/log"
	"platos/models"
)

// DishFields are the scalar columns a caller may set on a dish.
type DishFields struct {
	Name        string
	Description string
	SalePrice   decimal.Decimal
	Stock       decimal.Decimal
}

type IngredientLine struct {
	IngredientID uint
	QuantityUsed decimal.Decimal
	// Unit defaults to the ingredient's base unit when empty.
	Unit models.Unit
}

type SubdishLine struct {
	ChildDishID  string
	QuantityUsed decimal.Decimal
}

// Request describes a full recipe. A nil DishID creates a dish with a
// generated id; a non-nil DishID creates or overwrites that dish unless
// RequireExisting is set, in which case a missing dish is NotFound.
type Request struct {
	DishID          *string
	RequireExisting bool
	Fields          DishFields
	Ingredients     []IngredientLine
	SubDishes       []SubdishLine
}

type Protocol struct {
	db *gorm.DB
}

func NewProtocol(db *gorm.DB) *Protocol {
	return &Protocol{db: db}
}

// Upsert materializes req inside one transaction and returns the saved dish
// with its edges and freshly evaluated cost. Nothing is persisted on failure.
func (p *Protocol) Upsert(ctx context.Context, req Request) (*models.Dish, error) {
	if p.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var saved *models.Dish
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dish, err := upsert(ctx, NewStore(tx), req)
		if err != nil {
			return err
		}
		saved = dish
		return nil
	})
	if err != nil {
		applog.Debug(ctx, "recipe upsert rolled back", "error", err)
		return nil, err
	}

	applog.Info(ctx, "recipe saved", "dish", saved.ID, "cost", saved.Cost.StringFixed(2),
		"ingredients", len(saved.Ingredients), "subDishes", len(saved.SubDishes))
	return saved, nil
}

func upsert(ctx context.Context, store *Store, req Request) (*models.Dish, error) {
	dishID := uuid.NewString()
	exists := false

	if req.DishID != nil {
		dishID = strings.TrimSpace(*req.DishID)
		if dishID == "" {
			return nil, apperr.InvalidArgument("id cannot be blank")
		}
		if len(dishID) > models.DishIDMaxLength {
			return nil, apperr.InvalidArgument("id cannot be longer than %d characters", models.DishIDMaxLength)
		}

		_, err := store.FindDish(ctx, dishID)
		switch {
		case err == nil:
			exists = true
		case errors.Is(err, apperr.ErrNotFound):
			if req.RequireExisting {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	if strings.TrimSpace(req.Fields.Name) == "" {
		return nil, apperr.InvalidArgument("name is required")
	}
	if !models.FitsMoney(req.Fields.SalePrice) {
		return nil, apperr.InvalidArgument("sale price %s needs at most %d decimal places", req.Fields.SalePrice, models.MoneyScale)
	}
	if !models.FitsQuantity(req.Fields.Stock) {
		return nil, apperr.InvalidArgument("stock %s needs at most %d decimal places", req.Fields.Stock, models.QuantityScale)
	}

	if exists {
		if err := store.DeleteEdges(ctx, dishID); err != nil {
			return nil, err
		}
	}

	ingredientLines, err := resolveIngredientLines(ctx, store, req.Ingredients)
	if err != nil {
		return nil, err
	}

	subdishLines, err := resolveSubdishLines(ctx, store, dishID, req.SubDishes)
	if err != nil {
		return nil, err
	}

	dish := &models.Dish{
		ID: dishID,
		Product: models.Product{
			Name:        strings.TrimSpace(req.Fields.Name),
			Description: strings.TrimSpace(req.Fields.Description),
			SalePrice:   req.Fields.SalePrice,
			Stock:       req.Fields.Stock,
		},
	}
	if err := store.SaveDish(ctx, dish, exists); err != nil {
		return nil, err
	}
	if err := store.ReplaceIngredientEdges(ctx, dishID, ingredientLines); err != nil {
		return nil, err
	}
	if err := store.ReplaceSubdishEdges(ctx, dishID, subdishLines); err != nil {
		return nil, err
	}

	cost, err := costing.New(store).Evaluate(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateCost(ctx, dishID, cost.Round(2)); err != nil {
		return nil, err
	}

	return store.LoadEdges(ctx, dishID)
}

func resolveIngredientLines(ctx context.Context, store *Store, lines []IngredientLine) ([]models.DishIngredient, error) {
	resolved := make([]models.DishIngredient, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if !models.FitsQuantity(line.QuantityUsed) {
			return nil, apperr.InvalidArgument("quantity used for ingredient %d needs at most %d decimal places", line.IngredientID, models.QuantityScale)
		}
		if !line.QuantityUsed.IsPositive() {
			return nil, apperr.InvalidArgument("quantity used for ingredient %d must be greater than zero", line.IngredientID)
		}
		if _, dup := seen[line.IngredientID]; dup {
			return nil, apperr.InvalidArgument("ingredient %d appears more than once", line.IngredientID)
		}
		seen[line.IngredientID] = struct{}{}

		ingredient, err := store.FindIngredient(ctx, line.IngredientID)
		if err != nil {
			return nil, err
		}

		unit := line.Unit
		if unit == "" {
			unit = ingredient.Unit
		}
		if !models.ValidUnit(unit) {
			return nil, apperr.InvalidArgument("unit %q is not recognized", unit)
		}

		resolved = append(resolved, models.DishIngredient{
			IngredientID: ingredient.ID,
			QuantityUsed: line.QuantityUsed,
			Unit:         unit,
		})
	}
	return resolved, nil
}

func resolveSubdishLines(ctx context.Context, store *Store, dishID string, lines []SubdishLine) ([]models.DishSubdish, error) {
	resolved := make([]models.DishSubdish, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		childID := strings.TrimSpace(line.ChildDishID)
		if childID == "" {
			return nil, apperr.InvalidArgument("sub-dish id cannot be blank")
		}
		if childID == dishID {
			return nil, apperr.InvalidArgument("dish cannot reference itself")
		}
		if !models.FitsQuantity(line.QuantityUsed) {
			return nil, apperr.InvalidArgument("quantity used for sub-dish %s needs at most %d decimal places", childID, models.QuantityScale)
		}
		if !line.QuantityUsed.IsPositive() {
			return nil, apperr.InvalidArgument("quantity used for sub-dish %s must be greater than zero", childID)
		}
		if _, dup := seen[childID]; dup {
			return nil, apperr.InvalidArgument("sub-dish %s appears more than once", childID)
		}
		seen[childID] = struct{}{}

		if _, err := store.FindDish(ctx, childID); err != nil {
			return nil, err
		}

		resolved = append(resolved, models.DishSubdish{
			ChildID:      childID,
			QuantityUsed: line.QuantityUsed,
		})
	}
	return resolved, nil
}
