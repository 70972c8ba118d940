package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DishIDMaxLength is the widest id the dishes.id column holds.
const DishIDMaxLength = 36

// Dish is a sellable product composed of ingredients and other dishes.
// Cost is written by the costing engine only.
type Dish struct {
	ID      string          `gorm:"primaryKey;size:36" json:"id"`
	Product `gorm:"embedded"`
	Cost    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`

	// Edges this dish originates. They go away with the dish.
	Ingredients []DishIngredient `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
	SubDishes   []DishSubdish    `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"sub_dishes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a generated id when the caller did not supply one.
func (d *Dish) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
