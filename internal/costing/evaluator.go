// Package costing computes dish costs by walking the composition graph depth
// first. An Evaluator is one evaluation pass: it caches finished dishes and
// must not outlive the transaction its Loader reads from.
package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"platos/internal/apperr"
	applog "platos/internal/log"
	"platos/models"
)

// Loader returns a dish with its ingredient lines (ingredient attached) and
// its sub-dish lines. It fails with apperr.ErrNotFound for unknown dishes.
type Loader interface {
	LoadEdges(ctx context.Context, dishID string) (*models.Dish, error)
}

// Node is the evaluated cost of one dish and how it was reached.
type Node struct {
	DishID string          `json:"dish_id"`
	Name   string          `json:"name"`
	Cost   decimal.Decimal `json:"cost"`
	Lines  []Line          `json:"lines"`
}

// Line is the contribution of a single recipe edge. Exactly one of
// IngredientID and SubDish is set.
type Line struct {
	IngredientID uint            `json:"ingredient_id,omitempty"`
	Name         string          `json:"name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Unit         models.Unit     `json:"unit,omitempty"`
	Contribution decimal.Decimal `json:"contribution"`
	SubDish      *Node           `json:"sub_dish,omitempty"`
}

type Evaluator struct {
	loader Loader
	done   map[string]*Node
}

func New(loader Loader) *Evaluator {
	return &Evaluator{loader: loader, done: make(map[string]*Node)}
}

// Evaluate returns the full-precision cost of a dish.
func (e *Evaluator) Evaluate(ctx context.Context, dishID string) (decimal.Decimal, error) {
	return e.EvaluateVisiting(ctx, dishID, make(map[string]struct{}))
}

// EvaluateVisiting evaluates dishID with visiting holding the dishes already on
// the current path. visiting is left as it was found when the call returns.
func (e *Evaluator) EvaluateVisiting(ctx context.Context, dishID string, visiting map[string]struct{}) (decimal.Decimal, error) {
	node, err := e.walk(ctx, dishID, visiting, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return node.Cost, nil
}

// Breakdown evaluates a dish and returns every line's contribution.
func (e *Evaluator) Breakdown(ctx context.Context, dishID string) (*Node, error) {
	return e.walk(ctx, dishID, make(map[string]struct{}), nil)
}

func (e *Evaluator) walk(ctx context.Context, dishID string, visiting map[string]struct{}, path []string) (*Node, error) {
	path = append(path, dishID)
	if _, onPath := visiting[dishID]; onPath {
		applog.Debug(ctx, "composition cycle detected", "dish", dishID, "path", path)
		return nil, &apperr.CycleError{DishID: dishID, Path: append([]string(nil), path...)}
	}
	if node, ok := e.done[dishID]; ok {
		return node, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dish, err := e.loader.LoadEdges(ctx, dishID)
	if err != nil {
		return nil, err
	}

	visiting[dishID] = struct{}{}
	defer delete(visiting, dishID)

	node := &Node{DishID: dish.ID, Name: dish.Name, Cost: decimal.Zero}

	for _, line := range dish.Ingredients {
		contribution, err := ingredientContribution(dish.ID, line)
		if err != nil {
			return nil, err
		}
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		node.Lines = append(node.Lines, Line{
			IngredientID: line.IngredientID,
			Name:         name,
			QuantityUsed: line.QuantityUsed,
			Unit:         line.Unit,
			Contribution: contribution,
		})
		node.Cost = node.Cost.Add(contribution)
	}

	for _, line := range dish.SubDishes {
		child, err := e.walk(ctx, line.ChildID, visiting, path)
		if err != nil {
			return nil, err
		}
		contribution := child.Cost.Mul(line.QuantityUsed)
		node.Lines = append(node.Lines, Line{
			Name:         child.Name,
			QuantityUsed: line.QuantityUsed,
			Contribution: contribution,
			SubDish:      child,
		})
		node.Cost = node.Cost.Add(contribution)
	}

	e.done[dishID] = node
	return node, nil
}

// ingredientContribution is baseCost * (quantityUsed / baseQuantity). No unit
// conversion happens; the line's unit is taken to match the ingredient's.
func ingredientContribution(dishID string, line models.DishIngredient) (decimal.Decimal, error) {
	ingredient := line.Ingredient
	if ingredient == nil {
		return decimal.Zero, apperr.DataIntegrity("dish %s references ingredient %d with no catalog entry", dishID, line.IngredientID)
	}
	if !ingredient.BaseQuantity.IsPositive() {
		return decimal.Zero, apperr.DataIntegrity("ingredient %d (%s) has base quantity %s", ingredient.ID, ingredient.Name, ingredient.BaseQuantity)
	}
	usage := line.QuantityUsed.Div(ingredient.BaseQuantity)
	return ingredient.BaseCost.Mul(usage), nil
}

// Describe renders a breakdown as indented text, one line per edge.
func Describe(node *Node) string {
	if node == nil {
		return ""
	}
	out := fmt.Sprintf("%s = %s\n", node.Name, node.Cost.StringFixed(2))
	describeLines(&out, node, "  ")
	return out
}

func describeLines(out *string, node *Node, indent string) {
	for _, line := range node.Lines {
		*out += fmt.Sprintf("%s%s x %s = %s\n", indent, line.Name, line.QuantityUsed, line.Contribution.StringFixed(2))
		if line.SubDish != nil {
			describeLines(out, line.SubDish, indent+"  ")
		}
	}
}
