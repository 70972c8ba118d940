// Package dishes is the entry point for everything that happens to a dish:
// recipe changes, cost refreshes, stock movements and removal.
package dishes

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"platos/internal/apperr"
	"platos/internal/costing"
	applog "platos/internal/log"
	"platos/internal/recipe"
	"platos/models"
)

// DishInput is a dish together with its complete recipe. The recipe lines
// replace whatever the dish used before.
type DishInput struct {
	ID          *string
	Name        string
	Description string
	SalePrice   decimal.Decimal
	Stock       decimal.Decimal
	Ingredients []recipe.IngredientLine
	SubDishes   []recipe.SubdishLine
}

type Service struct {
	db       *gorm.DB
	protocol *recipe.Protocol
}

func New(db *gorm.DB) *Service {
	return &Service{db: db, protocol: recipe.NewProtocol(db)}
}

func (s *Service) Create(ctx context.Context, in DishInput) (*models.Dish, error) {
	applog.Debug(ctx, "creating dish", "name", in.Name)
	return s.protocol.Upsert(ctx, in.request(in.ID, false))
}

// Update replaces the recipe of an existing dish. The id argument wins over
// in.ID.
func (s *Service) Update(ctx context.Context, id string, in DishInput) (*models.Dish, error) {
	applog.Debug(ctx, "updating dish", "dish", id)
	return s.protocol.Upsert(ctx, in.request(&id, true))
}

func (in DishInput) request(id *string, requireExisting bool) recipe.Request {
	return recipe.Request{
		DishID:          id,
		RequireExisting: requireExisting,
		Fields: recipe.DishFields{
			Name:        in.Name,
			Description: in.Description,
			SalePrice:   in.SalePrice,
			Stock:       in.Stock,
		},
		Ingredients: in.Ingredients,
		SubDishes:   in.SubDishes,
	}
}

func (s *Service) FindAll(ctx context.Context) ([]models.Dish, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	return dishes, nil
}

// FindOne returns the dish with both recipe edge sets attached.
func (s *Service) FindOne(ctx context.Context, id string) (*models.Dish, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	return recipe.NewStore(s.db).LoadEdges(ctx, id)
}

// Remove deletes a dish and the edges it originates. A dish that is still a
// sub-dish of another one cannot be removed.
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.transaction(ctx, func(store *recipe.Store) error {
		if _, err := store.FindDish(ctx, id); err != nil {
			return err
		}
		parents, err := store.CountParents(ctx, id)
		if err != nil {
			return err
		}
		if parents > 0 {
			return apperr.Conflict("dish %s is a sub-dish of %d other dishes", id, parents)
		}
		if err := store.DeleteEdges(ctx, id); err != nil {
			return err
		}
		return store.DeleteDish(ctx, id)
	})
	if err != nil {
		return err
	}
	applog.Info(ctx, "dish removed", "dish", id)
	return nil
}

// RecalculateCost re-evaluates the dish against current ingredient prices and
// stores the result rounded to cents.
func (s *Service) RecalculateCost(ctx context.Context, id string) (*models.Dish, error) {
	var dish *models.Dish
	err := s.transaction(ctx, func(store *recipe.Store) error {
		found, err := store.FindDish(ctx, id)
		if err != nil {
			return err
		}
		cost, err := costing.New(store).Evaluate(ctx, id)
		if err != nil {
			return err
		}
		found.Cost = cost.Round(2)
		if err := store.UpdateCost(ctx, id, found.Cost); err != nil {
			return err
		}
		dish = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	applog.Info(ctx, "dish cost recalculated", "dish", id, "cost", dish.Cost.StringFixed(2))
	return dish, nil
}

// AdjustStock adds delta, which may be negative, to the dish's stock. The
// result is not bounded below; back orders show up as negative stock.
func (s *Service) AdjustStock(ctx context.Context, id string, delta decimal.Decimal) (*models.Dish, error) {
	var dish *models.Dish
	err := s.transaction(ctx, func(store *recipe.Store) error {
		found, err := store.FindDish(ctx, id)
		if err != nil {
			return err
		}
		found.Stock = found.Stock.Add(delta)
		if !models.FitsQuantity(found.Stock) {
			return apperr.InvalidArgument("stock %s does not fit %d decimal places", found.Stock, models.QuantityScale)
		}
		if err := store.UpdateStock(ctx, id, found.Stock); err != nil {
			return err
		}
		dish = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dish.Stock.IsNegative() {
		applog.Warn(ctx, "dish stock below zero", "dish", id, "stock", dish.Stock.String())
	}
	applog.Info(ctx, "dish stock adjusted", "dish", id, "delta", delta.String(), "stock", dish.Stock.String())
	return dish, nil
}

// CostBreakdown evaluates the dish and returns every line's contribution.
// Nothing is persisted.
func (s *Service) CostBreakdown(ctx context.Context, id string) (*costing.Node, error) {
	var node *costing.Node
	err := s.transaction(ctx, func(store *recipe.Store) error {
		var err error
		node, err = costing.New(store).Breakdown(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// RecalculateAffected re-costs every dish that uses the ingredient, directly
// or through any depth of sub-dishes, and returns their ids sorted.
func (s *Service) RecalculateAffected(ctx context.Context, ingredientID uint) ([]string, error) {
	var affected []string
	err := s.transaction(ctx, func(store *recipe.Store) error {
		direct, err := store.DishesUsingIngredient(ctx, ingredientID)
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(direct))
		frontier := make([]string, 0, len(direct))
		for _, id := range direct {
			seen[id] = struct{}{}
			frontier = append(frontier, id)
		}
		for len(frontier) > 0 {
			parents, err := store.ParentsOf(ctx, frontier)
			if err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, id := range parents {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				frontier = append(frontier, id)
			}
		}

		ids := make([]string, 0, len(seen))
		for id := range seen {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		evaluator := costing.New(store)
		for _, id := range ids {
			cost, err := evaluator.Evaluate(ctx, id)
			if err != nil {
				return err
			}
			if err := store.UpdateCost(ctx, id, cost.Round(2)); err != nil {
				return err
			}
		}
		affected = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	applog.Info(ctx, "dish costs refreshed", "ingredient", ingredientID, "dishes", len(affected))
	return affected, nil
}

func (s *Service) transaction(ctx context.Context, fn func(store *recipe.Store) error) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(recipe.NewStore(tx))
	})
}
