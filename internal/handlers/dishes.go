package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"platos/internal/costing"
	"platos/internal/dishes"
	applog "platos/internal/log"
	"platos/internal/recipe"
	"platos/models"
)

type dishResponse struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	SalePrice   decimal.Decimal          `json:"sale_price"`
	Stock       decimal.Decimal          `json:"stock"`
	Cost        decimal.Decimal          `json:"cost"`
	Ingredients []dishIngredientResponse `json:"ingredients,omitempty"`
	SubDishes   []subDishResponse        `json:"sub_dishes,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

type dishIngredientResponse struct {
	IngredientID uint            `json:"ingredient_id"`
	Name         string          `json:"name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Unit         models.Unit     `json:"unit"`
}

type subDishResponse struct {
	DishID       string          `json:"dish_id"`
	Name         string          `json:"name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
}

type dishRequest struct {
	ID          *string                 `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	SalePrice   decimal.Decimal         `json:"sale_price"`
	Stock       decimal.Decimal         `json:"stock"`
	Ingredients []dishIngredientRequest `json:"ingredients"`
	SubDishes   []subDishRequest        `json:"sub_dishes"`
}

type dishIngredientRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Unit         string          `json:"unit"`
}

type subDishRequest struct {
	DishID       string          `json:"dish_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
}

type stockRequest struct {
	Delta *decimal.Decimal `json:"delta"`
}

// DishResource serves /api/dishes and everything below it.
func DishResource(w http.ResponseWriter, r *http.Request) {
	if dishService == nil {
		applog.Debug(r.Context(), "dish request without service")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/dishes")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listDishes(w, r)
		case http.MethodPost:
			createDish(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	dishID := segments[0]
	if len(segments) > 2 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	r = r.WithContext(applog.WithFields(r.Context(), "dish", dishID))

	if len(segments) == 2 {
		switch segments[1] {
		case "recalculate":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			recalculateDish(w, r, dishID)
		case "stock":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			adjustDishStock(w, r, dishID)
		case "cost":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			showDishCost(w, r, dishID)
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showDish(w, r, dishID)
	case http.MethodPut:
		updateDish(w, r, dishID)
	case http.MethodDelete:
		deleteDish(w, r, dishID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listDishes(w http.ResponseWriter, r *http.Request) {
	all, err := dishService.FindAll(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "load dishes")
		return
	}
	responses := make([]dishResponse, 0, len(all))
	for _, dish := range all {
		responses = append(responses, projectDish(dish))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createDish(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeDishInput(w, r)
	if !ok {
		return
	}
	dish, err := dishService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err, "create dish")
		return
	}
	writeJSON(w, http.StatusCreated, projectDish(*dish))
}

func showDish(w http.ResponseWriter, r *http.Request, dishID string) {
	dish, err := dishService.FindOne(r.Context(), dishID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "load dish")
		return
	}
	writeJSON(w, http.StatusOK, projectDish(*dish))
}

func updateDish(w http.ResponseWriter, r *http.Request, dishID string) {
	input, ok := decodeDishInput(w, r)
	if !ok {
		return
	}
	dish, err := dishService.Update(r.Context(), dishID, input)
	if err != nil {
		writeServiceError(r.Context(), w, err, "update dish")
		return
	}
	writeJSON(w, http.StatusOK, projectDish(*dish))
}

func deleteDish(w http.ResponseWriter, r *http.Request, dishID string) {
	if err := dishService.Remove(r.Context(), dishID); err != nil {
		writeServiceError(r.Context(), w, err, "delete dish")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func recalculateDish(w http.ResponseWriter, r *http.Request, dishID string) {
	dish, err := dishService.RecalculateCost(r.Context(), dishID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "recalculate dish cost")
		return
	}
	writeJSON(w, http.StatusOK, projectDish(*dish))
}

func adjustDishStock(w http.ResponseWriter, r *http.Request, dishID string) {
	var payload stockRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Delta == nil {
		writeJSONError(w, http.StatusBadRequest, "delta is required")
		return
	}
	dish, err := dishService.AdjustStock(r.Context(), dishID, *payload.Delta)
	if err != nil {
		writeServiceError(r.Context(), w, err, "adjust dish stock")
		return
	}
	writeJSON(w, http.StatusOK, projectDish(*dish))
}

func showDishCost(w http.ResponseWriter, r *http.Request, dishID string) {
	node, err := dishService.CostBreakdown(r.Context(), dishID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "evaluate dish cost")
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(costing.Describe(node))); err != nil {
			applog.Error(r.Context(), "failed to write cost breakdown", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func decodeDishInput(w http.ResponseWriter, r *http.Request) (dishes.DishInput, bool) {
	var payload dishRequest
	if !decodeJSON(w, r, &payload) {
		return dishes.DishInput{}, false
	}

	input := dishes.DishInput{
		ID:          payload.ID,
		Name:        payload.Name,
		Description: payload.Description,
		SalePrice:   payload.SalePrice,
		Stock:       payload.Stock,
		Ingredients: make([]recipe.IngredientLine, 0, len(payload.Ingredients)),
		SubDishes:   make([]recipe.SubdishLine, 0, len(payload.SubDishes)),
	}
	for _, line := range payload.Ingredients {
		var unit models.Unit
		if strings.TrimSpace(line.Unit) != "" {
			parsed, ok := models.ParseUnit(line.Unit)
			if !ok {
				writeJSONError(w, http.StatusBadRequest, "unit must be one of UNIT, GRAMS, MILLILITERS")
				return dishes.DishInput{}, false
			}
			unit = parsed
		}
		input.Ingredients = append(input.Ingredients, recipe.IngredientLine{
			IngredientID: line.IngredientID,
			QuantityUsed: line.QuantityUsed,
			Unit:         unit,
		})
	}
	for _, line := range payload.SubDishes {
		input.SubDishes = append(input.SubDishes, recipe.SubdishLine{
			ChildDishID:  line.DishID,
			QuantityUsed: line.QuantityUsed,
		})
	}
	return input, true
}

func projectDish(dish models.Dish) dishResponse {
	response := dishResponse{
		ID:          dish.ID,
		Name:        dish.Name,
		Description: dish.Description,
		SalePrice:   dish.SalePrice,
		Stock:       dish.Stock,
		Cost:        dish.Cost,
		CreatedAt:   dish.CreatedAt,
		UpdatedAt:   dish.UpdatedAt,
	}
	for _, line := range dish.Ingredients {
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		response.Ingredients = append(response.Ingredients, dishIngredientResponse{
			IngredientID: line.IngredientID,
			Name:         name,
			QuantityUsed: line.QuantityUsed,
			Unit:         line.Unit,
		})
	}
	for _, line := range dish.SubDishes {
		name := ""
		if line.Child != nil {
			name = line.Child.Name
		}
		response.SubDishes = append(response.SubDishes, subDishResponse{
			DishID:       line.ChildID,
			Name:         name,
			QuantityUsed: line.QuantityUsed,
		})
	}
	return response
}
