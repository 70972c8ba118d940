package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"platos/internal/apperr"
	"platos/internal/catalog"
	applog "platos/internal/log"
	"platos/models"
)

type ingredientResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Unit         models.Unit     `json:"unit"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	BaseCost     decimal.Decimal `json:"base_cost"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ingredientCreateRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	BaseCost     decimal.Decimal `json:"base_cost"`
}

type ingredientPatchRequest struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	BaseQuantity *decimal.Decimal `json:"base_quantity"`
	BaseCost     *decimal.Decimal `json:"base_cost"`
}

type ingredientPatchResponse struct {
	Ingredient ingredientResponse `json:"ingredient"`
	// Dishes whose stored cost was refreshed because of the change.
	Recalculated []string `json:"recalculated_dishes"`
	// Set when the ingredient was saved but the refresh failed, in which
	// case every affected dish keeps its previous cost.
	RecalculationError string `json:"recalculation_error,omitempty"`
}

// IngredientResource serves /api/ingredients and everything below it.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if catalogService == nil || dishService == nil {
		applog.Debug(r.Context(), "ingredient request without services")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/ingredients")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil || len(segments) > 2 {
		applog.Debug(r.Context(), "invalid ingredient path", "path", path, "error", err)
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	ingredientID := uint(idValue)
	r = r.WithContext(applog.WithFields(r.Context(), "ingredient", ingredientID))

	if len(segments) == 2 {
		if segments[1] != "purge" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		purgeIngredient(w, r, ingredientID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID)
	case http.MethodPatch:
		patchIngredient(w, r, ingredientID)
	case http.MethodDelete:
		removeIngredient(w, r, ingredientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := catalogService.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "load ingredients")
		return
	}
	responses := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		responses = append(responses, projectIngredient(ingredient))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var payload ingredientCreateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	unit, ok := models.ParseUnit(payload.Unit)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "unit must be one of UNIT, GRAMS, MILLILITERS")
		return
	}

	ingredient, err := catalogService.Create(r.Context(), catalog.IngredientInput{
		Name:         payload.Name,
		Unit:         unit,
		BaseQuantity: payload.BaseQuantity,
		BaseCost:     payload.BaseCost,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err, "create ingredient")
		return
	}
	writeJSON(w, http.StatusCreated, projectIngredient(*ingredient))
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ingredient, err := catalogService.Get(r.Context(), ingredientID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(*ingredient))
}

func patchIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	var payload ingredientPatchRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	patch := catalog.IngredientPatch{
		Name:         payload.Name,
		BaseQuantity: payload.BaseQuantity,
		BaseCost:     payload.BaseCost,
	}
	if payload.Unit != nil {
		unit, ok := models.ParseUnit(*payload.Unit)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unit must be one of UNIT, GRAMS, MILLILITERS")
			return
		}
		patch.Unit = &unit
	}

	ingredient, err := catalogService.Update(ctx, ingredientID, patch)
	if err != nil {
		writeServiceError(ctx, w, err, "update ingredient")
		return
	}

	resp := ingredientPatchResponse{
		Ingredient:   projectIngredient(*ingredient),
		Recalculated: []string{},
	}
	if patch.AffectsCost() {
		recalculated, err := dishService.RecalculateAffected(ctx, ingredientID)
		if err != nil {
			applog.Error(ctx, "ingredient saved but dish costs not refreshed", "error", err)
			resp.RecalculationError = recalculationMessage(err)
		} else {
			resp.Recalculated = recalculated
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// recalculationMessage exposes domain failures verbatim and hides the rest.
func recalculationMessage(err error) string {
	if errors.Is(err, apperr.ErrCycleDetected) || errors.Is(err, apperr.ErrDataIntegrity) || errors.Is(err, apperr.ErrNotFound) {
		return err.Error()
	}
	return "unable to refresh dish costs"
}

func removeIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	if err := catalogService.Remove(r.Context(), ingredientID); err != nil {
		writeServiceError(r.Context(), w, err, "delete ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func purgeIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	if err := catalogService.Purge(r.Context(), ingredientID); err != nil {
		writeServiceError(r.Context(), w, err, "purge ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectIngredient(ingredient models.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:           ingredient.ID,
		Name:         ingredient.Name,
		Unit:         ingredient.Unit,
		BaseQuantity: ingredient.BaseQuantity,
		BaseCost:     ingredient.BaseCost,
		CreatedAt:    ingredient.CreatedAt,
		UpdatedAt:    ingredient.UpdatedAt,
	}
}
