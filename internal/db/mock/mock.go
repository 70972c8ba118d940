package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"platos/internal/db"
	applog "platos/internal/log"
	"platos/models"
)

// Open returns an empty, migrated in-memory sqlite database. Databases opened
// with the same name share state; tests pass their own name to stay isolated.
func Open(ctx context.Context, name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(strings.TrimSpace(name))
	if name == "" {
		name = uuid.NewString()
	}
	applog.Debug(ctx, "opening in-memory database", "name", name)

	database, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:platos-%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with a small bakery menu.
func New(ctx context.Context) (*gorm.DB, error) {
	database, err := Open(ctx, uuid.NewString())
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

// Seeded dish ids, stable so the mock server is easy to poke at by hand.
const (
	BreadID    = "bread"
	SandwichID = "sandwich"
)

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flour := models.Ingredient{
			Name:         "Flour",
			Unit:         models.UnitGrams,
			BaseQuantity: decimal.NewFromInt(1000),
			BaseCost:     decimal.RequireFromString("50.00"),
		}
		ham := models.Ingredient{
			Name:         "Ham",
			Unit:         models.UnitGrams,
			BaseQuantity: decimal.NewFromInt(500),
			BaseCost:     decimal.RequireFromString("80.00"),
		}
		milk := models.Ingredient{
			Name:         "Milk",
			Unit:         models.UnitMilliliters,
			BaseQuantity: decimal.NewFromInt(1000),
			BaseCost:     decimal.RequireFromString("12.00"),
		}
		for _, ingredient := range []*models.Ingredient{&flour, &ham, &milk} {
			if err := tx.Create(ingredient).Error; err != nil {
				return err
			}
		}

		// Costs follow baseCost * quantityUsed / baseQuantity:
		// bread = 50 * 500/1000 + 12 * 100/1000 = 26.20
		// sandwich = 1 * bread + 80 * 60/500 = 35.80
		bread := models.Dish{
			ID: BreadID,
			Product: models.Product{
				Name:        "Bread",
				Description: "Country loaf baked every morning.",
				SalePrice:   decimal.RequireFromString("60.00"),
				Stock:       decimal.NewFromInt(12),
			},
			Cost: decimal.RequireFromString("26.20"),
		}
		sandwich := models.Dish{
			ID: SandwichID,
			Product: models.Product{
				Name:        "Ham Sandwich",
				Description: "Bread with sliced ham.",
				SalePrice:   decimal.RequireFromString("95.00"),
				Stock:       decimal.NewFromInt(6),
			},
			Cost: decimal.RequireFromString("35.80"),
		}
		for _, dish := range []*models.Dish{&bread, &sandwich} {
			if err := tx.Omit("Ingredients", "SubDishes").Create(dish).Error; err != nil {
				return err
			}
		}

		lines := []models.DishIngredient{
			{DishID: bread.ID, IngredientID: flour.ID, QuantityUsed: decimal.NewFromInt(500), Unit: models.UnitGrams},
			{DishID: bread.ID, IngredientID: milk.ID, QuantityUsed: decimal.NewFromInt(100), Unit: models.UnitMilliliters},
			{DishID: sandwich.ID, IngredientID: ham.ID, QuantityUsed: decimal.NewFromInt(60), Unit: models.UnitGrams},
		}
		if err := tx.Omit("Ingredient").Create(&lines).Error; err != nil {
			return err
		}

		sub := models.DishSubdish{ParentID: sandwich.ID, ChildID: bread.ID, QuantityUsed: decimal.NewFromInt(1)}
		return tx.Omit("Child").Create(&sub).Error
	})
}
