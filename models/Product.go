package models

import "github.com/shopspring/decimal"

// Product holds the fields every sellable catalog item carries.
type Product struct {
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	SalePrice   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"sale_price"`
	Stock       decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"stock"`
}
