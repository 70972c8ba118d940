package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DishIngredient is a recipe line: QuantityUsed of an ingredient, in Unit,
// goes into one unit of the dish.
type DishIngredient struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	DishID       string          `gorm:"size:36;not null;uniqueIndex:idx_dish_ingredient" json:"dish_id"`
	IngredientID uint            `gorm:"not null;uniqueIndex:idx_dish_ingredient;index" json:"ingredient_id"`
	QuantityUsed decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"quantity_used"`
	// Stored as given; never converted to the ingredient's base unit.
	Unit Unit `gorm:"type:varchar(16);not null" json:"unit"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT" json:"ingredient,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
