package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DishSubdish is a sub-recipe line: QuantityUsed units of the child dish go
// into one unit of the parent.
type DishSubdish struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ParentID     string          `gorm:"size:36;not null;uniqueIndex:idx_dish_subdish" json:"parent_id"`
	ChildID      string          `gorm:"size:36;not null;uniqueIndex:idx_dish_subdish;index" json:"child_id"`
	QuantityUsed decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"quantity_used"`

	Child *Dish `gorm:"foreignKey:ChildID;constraint:OnDelete:RESTRICT" json:"child,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
