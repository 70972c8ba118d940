package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Unit is the unit of measure an ingredient is costed in.
type Unit string

const (
	UnitEach        Unit = "UNIT"
	UnitGrams       Unit = "GRAMS"
	UnitMilliliters Unit = "MILLILITERS"
)

// ValidUnit reports whether value names one of the recognized units.
func ValidUnit(value Unit) bool {
	switch value {
	case UnitEach, UnitGrams, UnitMilliliters:
		return true
	default:
		return false
	}
}

// ParseUnit accepts a unit name in any case and returns its canonical form.
func ParseUnit(value string) (Unit, bool) {
	unit := Unit(strings.ToUpper(strings.TrimSpace(value)))
	if !ValidUnit(unit) {
		return "", false
	}
	return unit, true
}

// Ingredient is a leaf cost unit. BaseCost is the price of BaseQuantity
// expressed in Unit.
type Ingredient struct {
	gorm.Model
	Name         string          `gorm:"not null;index" json:"name"`
	Unit         Unit            `gorm:"type:varchar(16);not null" json:"unit"`
	BaseQuantity decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"base_quantity"`
	BaseCost     decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"base_cost"`
}
