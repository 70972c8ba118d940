package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"platos/models"
)

func createIngredientForTest(t *testing.T, name, unit, baseQuantity, baseCost string) ingredientResponse {
	t.Helper()
	w := serve(t, IngredientResource, http.MethodPost, "/api/ingredients", map[string]string{
		"name": name, "unit": unit, "base_quantity": baseQuantity, "base_cost": baseCost,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create ingredient %s: status %d body %s", name, w.Code, w.Body.String())
	}
	var created ingredientResponse
	decodeBody(t, w, &created)
	return created
}

func TestIngredientCreateAndList(t *testing.T) {
	configureForTest(t)

	flour := createIngredientForTest(t, "Flour", "grams", "1000", "50")
	if flour.ID == 0 || flour.Unit != "GRAMS" || !flour.BaseCost.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected ingredient: %+v", flour)
	}
	createIngredientForTest(t, "Eggs", "UNIT", "12", "30")

	w := serve(t, IngredientResource, http.MethodGet, "/api/ingredients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []ingredientResponse
	decodeBody(t, w, &list)
	if len(list) != 2 || list[0].Name != "Eggs" {
		t.Fatalf("unexpected list: %+v", list)
	}

	w = serve(t, IngredientResource, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", flour.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIngredientRequestErrors(t *testing.T) {
	configureForTest(t)
	flour := createIngredientForTest(t, "Flour", "GRAMS", "1000", "50")

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"unknown unit", http.MethodPost, "/api/ingredients", map[string]string{"name": "Salt", "unit": "CUPS", "base_quantity": "1", "base_cost": "1"}, http.StatusBadRequest},
		{"zero base quantity", http.MethodPost, "/api/ingredients", map[string]string{"name": "Salt", "unit": "GRAMS", "base_quantity": "0", "base_cost": "1"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/ingredients", "{", http.StatusBadRequest},
		{"missing ingredient", http.MethodGet, "/api/ingredients/999", nil, http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/api/ingredients/abc", nil, http.StatusNotFound},
		{"unknown action", http.MethodPost, fmt.Sprintf("/api/ingredients/%d/copy", flour.ID), nil, http.StatusNotFound},
		{"wrong collection method", http.MethodDelete, "/api/ingredients", nil, http.StatusMethodNotAllowed},
		{"wrong purge method", http.MethodGet, fmt.Sprintf("/api/ingredients/%d/purge", flour.ID), nil, http.StatusMethodNotAllowed},
		{"patch unknown unit", http.MethodPatch, fmt.Sprintf("/api/ingredients/%d", flour.ID), map[string]string{"unit": "cups"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, IngredientResource, tt.method, tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestIngredientPatchRefreshesDishCosts(t *testing.T) {
	configureForTest(t)
	flour := createIngredientForTest(t, "Flour", "GRAMS", "1000", "50")
	bread := createDishForTest(t, map[string]any{
		"name":        "Bread",
		"ingredients": []map[string]any{{"ingredient_id": flour.ID, "quantity_used": "500"}},
	})
	if !bread.Cost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected bread cost 25, got %s", bread.Cost)
	}

	target := fmt.Sprintf("/api/ingredients/%d", flour.ID)
	w := serve(t, IngredientResource, http.MethodPatch, target, map[string]string{"base_cost": "100"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var patched ingredientPatchResponse
	decodeBody(t, w, &patched)
	if len(patched.Recalculated) != 1 || patched.Recalculated[0] != bread.ID {
		t.Fatalf("expected bread to be recalculated, got %v", patched.Recalculated)
	}

	w = serve(t, DishResource, http.MethodGet, "/api/dishes/"+bread.ID, nil)
	var reloaded dishResponse
	decodeBody(t, w, &reloaded)
	if !reloaded.Cost.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected bread cost 50 after price change, got %s", reloaded.Cost)
	}

	w = serve(t, IngredientResource, http.MethodPatch, target, map[string]string{"name": "Bread Flour"})
	decodeBody(t, w, &patched)
	if patched.Ingredient.Name != "Bread Flour" || len(patched.Recalculated) != 0 {
		t.Fatalf("expected rename without recalculation, got %+v", patched)
	}
}

func TestIngredientPatchReportsFailedRefresh(t *testing.T) {
	db := configureForTest(t)
	flour := createIngredientForTest(t, "Flour", "GRAMS", "1000", "50")
	base := createDishForTest(t, map[string]any{
		"name":        "Base",
		"ingredients": []map[string]any{{"ingredient_id": flour.ID, "quantity_used": "100"}},
	})
	top := createDishForTest(t, map[string]any{
		"name":       "Top",
		"sub_dishes": []map[string]any{{"dish_id": base.ID, "quantity_used": "1"}},
	})

	// A back edge written around the upsert leaves a cycle for the refresh to trip on.
	edge := models.DishSubdish{ParentID: base.ID, ChildID: top.ID, QuantityUsed: decimal.NewFromInt(1)}
	if err := db.Omit("Child").Create(&edge).Error; err != nil {
		t.Fatalf("insert back edge: %v", err)
	}
	logs := captureLogs(t)

	target := fmt.Sprintf("/api/ingredients/%d", flour.ID)
	w := serve(t, IngredientResource, http.MethodPatch, target, map[string]string{"base_cost": "80"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for the saved patch, got %d (%s)", w.Code, w.Body.String())
	}
	var patched ingredientPatchResponse
	decodeBody(t, w, &patched)
	if !strings.Contains(patched.RecalculationError, "cycle detected") {
		t.Fatalf("expected cycle in recalculation error, got %q", patched.RecalculationError)
	}
	if len(patched.Recalculated) != 0 {
		t.Fatalf("expected nothing recalculated, got %v", patched.Recalculated)
	}
	if !patched.Ingredient.BaseCost.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected patched base cost 80, got %s", patched.Ingredient.BaseCost)
	}
	if !strings.Contains(logs.String(), "dish costs not refreshed") {
		t.Fatalf("expected refresh failure to be logged, got %q", logs.String())
	}

	w = serve(t, IngredientResource, http.MethodGet, target, nil)
	var reloaded ingredientResponse
	decodeBody(t, w, &reloaded)
	if !reloaded.BaseCost.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected stored base cost 80, got %s", reloaded.BaseCost)
	}

	w = serve(t, DishResource, http.MethodGet, "/api/dishes/"+base.ID, nil)
	var kept dishResponse
	decodeBody(t, w, &kept)
	if !kept.Cost.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected base to keep cost 5, got %s", kept.Cost)
	}
}

func TestIngredientDeleteAndPurge(t *testing.T) {
	configureForTest(t)
	flour := createIngredientForTest(t, "Flour", "GRAMS", "1000", "50")
	salt := createIngredientForTest(t, "Salt", "GRAMS", "1000", "2")
	createDishForTest(t, map[string]any{
		"name":        "Bread",
		"ingredients": []map[string]any{{"ingredient_id": flour.ID, "quantity_used": "500"}},
	})

	w := serve(t, IngredientResource, http.MethodPost, fmt.Sprintf("/api/ingredients/%d/purge", flour.ID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 purging a used ingredient, got %d", w.Code)
	}

	w = serve(t, IngredientResource, http.MethodDelete, fmt.Sprintf("/api/ingredients/%d", salt.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = serve(t, IngredientResource, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", salt.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected removed ingredient to be hidden, got %d", w.Code)
	}
	w = serve(t, IngredientResource, http.MethodPost, fmt.Sprintf("/api/ingredients/%d/purge", salt.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 purging an unused ingredient, got %d", w.Code)
	}
}
