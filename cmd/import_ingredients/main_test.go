package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"platos/internal/db/mock"
	"platos/models"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingredients.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportFileCreatesUpdatesAndRecosts(t *testing.T) {
	ctx := context.Background()
	db, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New returned error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	path := writeCSV(t, strings.Join([]string{
		"Name,Unit,Base Quantity,Base Cost",
		"flour,grams,1000,$100.00",
		"Ham,GRAMS,500,80",
		"Butter,grams,250,\"1,200.50\"",
		",,,",
	}, "\n"))

	summary, err := importFile(ctx, db, path)
	if err != nil {
		t.Fatalf("importFile returned error: %v", err)
	}
	if summary.Created != 1 || summary.Updated != 1 || summary.Unchanged != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// Flour feeds bread directly and the sandwich through bread.
	if summary.Recalculated != 2 {
		t.Fatalf("expected 2 dishes re-costed, got %d", summary.Recalculated)
	}

	var butter models.Ingredient
	if err := db.Where("name = ?", "Butter").First(&butter).Error; err != nil {
		t.Fatalf("load butter: %v", err)
	}
	if !butter.BaseCost.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("expected butter cost 1200.50, got %s", butter.BaseCost)
	}

	var flour models.Ingredient
	if err := db.Where("lower(name) = ?", "flour").First(&flour).Error; err != nil {
		t.Fatalf("load flour: %v", err)
	}
	if flour.Name != "flour" {
		t.Fatalf("expected name to follow the csv, got %q", flour.Name)
	}

	// bread = 100 * 500/1000 + 12 * 100/1000 = 51.20
	// sandwich = bread + 80 * 60/500 = 60.80
	checks := map[string]string{mock.BreadID: "51.2", mock.SandwichID: "60.8"}
	for id, want := range checks {
		var dish models.Dish
		if err := db.First(&dish, "id = ?", id).Error; err != nil {
			t.Fatalf("load dish %s: %v", id, err)
		}
		if !dish.Cost.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("dish %s: expected cost %s, got %s", id, want, dish.Cost)
		}
	}
}

func TestImportFileRejectsBadRows(t *testing.T) {
	ctx := context.Background()
	db, err := mock.Open(ctx, t.Name())
	if err != nil {
		t.Fatalf("mock.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tests := []struct {
		name    string
		content string
	}{
		{"unknown unit", "name,unit,base_quantity,base_cost\nSalt,cups,1,1"},
		{"missing cost", "name,unit,base_quantity,base_cost\nSalt,grams,1,N/A"},
		{"zero quantity", "name,unit,base_quantity,base_cost\nSalt,grams,0,1"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := importFile(ctx, db, writeCSV(t, tt.content)); err == nil {
				t.Fatal("expected import to fail")
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"50", "50", true},
		{"$1,250.50", "1250.5", true},
		{"500 g", "500", true},
		{"0.25", "0.25", true},
		{"N/A", "", false},
		{"free", "", false},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.input)
		if tt.ok != (err == nil) {
			t.Fatalf("parseAmount(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
		}
		if tt.ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("parseAmount(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Name":             "name",
		" Base Quantity ":  "base_quantity",
		"\ufeffbase_cost": "base_cost",
		"Base-Cost ($)":    "base_cost",
	}
	for input, want := range tests {
		if got := normalizeHeader(input); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", input, got, want)
		}
	}
}
