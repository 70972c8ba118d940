// Command import_ingredients loads ingredient prices from a CSV file and
// re-costs every dish touched by a price change.
//
// The CSV needs a header row with name, unit, base_quantity and base_cost.
// Rows are matched to existing ingredients by name, ignoring case.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"platos/internal/apperr"
	"platos/internal/catalog"
	"platos/internal/config"
	"platos/internal/db"
	"platos/internal/dishes"
	applog "platos/internal/log"
	"platos/models"
)

var (
	numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	headerPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

type importSummary struct {
	Created      int
	Updated      int
	Unchanged    int
	Recalculated int
}

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return errors.New("DATABASE_URL must be set")
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	summary, err := importFile(ctx, database, csvPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %s: %d created, %d updated, %d unchanged, %d dishes re-costed\n",
		filepath.Base(csvPath), summary.Created, summary.Updated, summary.Unchanged, summary.Recalculated)
	return nil
}

func importFile(ctx context.Context, database *gorm.DB, csvPath string) (importSummary, error) {
	var summary importSummary

	file, err := os.Open(csvPath)
	if err != nil {
		return summary, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, err := readCSV(file)
	if err != nil {
		return summary, fmt.Errorf("read csv: %w", err)
	}

	ingredients := catalog.New(database)
	dishService := dishes.New(database)

	for idx, record := range records {
		input, err := buildIngredient(record)
		if err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, record["name"], err)
		}

		existing, err := ingredients.FindByName(ctx, input.Name)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			if _, err := ingredients.Create(ctx, input); err != nil {
				return summary, fmt.Errorf("record %d (%s): %w", idx+1, input.Name, err)
			}
			summary.Created++
			continue
		case err != nil:
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, input.Name, err)
		}

		patch := diff(*existing, input)
		if patch == nil {
			summary.Unchanged++
			continue
		}
		if _, err := ingredients.Update(ctx, existing.ID, *patch); err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, input.Name, err)
		}
		summary.Updated++

		if patch.AffectsCost() {
			affected, err := dishService.RecalculateAffected(ctx, existing.ID)
			if err != nil {
				return summary, fmt.Errorf("re-cost dishes using %s: %w", input.Name, err)
			}
			summary.Recalculated += len(affected)
		}
	}

	applog.Info(ctx, "ingredient import finished", "file", filepath.Base(csvPath),
		"created", summary.Created, "updated", summary.Updated, "recalculated", summary.Recalculated)
	return summary, nil
}

// readCSV returns one map per data row keyed by the normalized header name.
func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = normalizeHeader(key)
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildIngredient(row map[string]string) (catalog.IngredientInput, error) {
	name := normalizeValue(row["name"])
	if name == "" {
		return catalog.IngredientInput{}, errors.New("name is required")
	}

	unit, ok := models.ParseUnit(row["unit"])
	if !ok {
		return catalog.IngredientInput{}, fmt.Errorf("unknown unit %q", row["unit"])
	}

	baseQuantity, err := parseAmount(row["base_quantity"])
	if err != nil {
		return catalog.IngredientInput{}, fmt.Errorf("base_quantity: %w", err)
	}
	baseCost, err := parseAmount(row["base_cost"])
	if err != nil {
		return catalog.IngredientInput{}, fmt.Errorf("base_cost: %w", err)
	}

	return catalog.IngredientInput{
		Name:         name,
		Unit:         unit,
		BaseQuantity: baseQuantity,
		BaseCost:     baseCost,
	}, nil
}

// diff returns the patch that turns existing into input, or nil when nothing
// changes.
func diff(existing models.Ingredient, input catalog.IngredientInput) *catalog.IngredientPatch {
	var patch catalog.IngredientPatch
	changed := false
	if existing.Name != input.Name {
		patch.Name = &input.Name
		changed = true
	}
	if existing.Unit != input.Unit {
		patch.Unit = &input.Unit
		changed = true
	}
	if !existing.BaseQuantity.Equal(input.BaseQuantity) {
		patch.BaseQuantity = &input.BaseQuantity
		changed = true
	}
	if !existing.BaseCost.Equal(input.BaseCost) {
		patch.BaseCost = &input.BaseCost
		changed = true
	}
	if !changed {
		return nil
	}
	return &patch
}

// parseAmount reads the first number in value, so "$1,250.50" and "500 g"
// both work.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(normalizeValue(value), ",", "")
	if value == "" {
		return decimal.Zero, errors.New("value is required")
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Zero, fmt.Errorf("no number in %q", value)
	}
	return decimal.NewFromString(match)
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	return strings.Trim(headerPattern.ReplaceAllString(value, "_"), "_")
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
