package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the revenue snapshot frozen when an invoice is fully settled.
// Rows are insert-only.
type Sale struct {
	ID             uint64          `json:"id" gorm:"primaryKey"`
	InvoiceID      uint64          `json:"invoice_id" gorm:"not null;uniqueIndex"`
	Invoice        *Invoice        `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:RESTRICT"`
	PaymentID      uint64          `json:"payment_id" gorm:"not null;index"`
	Payment        *Payment        `json:"payment,omitempty" gorm:"foreignKey:PaymentID;constraint:OnDelete:RESTRICT"`
	TotalCostPrice decimal.Decimal `json:"total_cost_price" gorm:"type:decimal(15,2);not null"`
	TotalSalePrice decimal.Decimal `json:"total_sale_price" gorm:"type:decimal(15,2);not null"`
	Profit         decimal.Decimal `json:"profit" gorm:"type:decimal(15,2);not null"`
	CreatedAt      time.Time       `json:"created_at"`
}
