package models

import "github.com/shopspring/decimal"

type InvoiceItem struct {
	ID          uint64          `json:"id" gorm:"primaryKey"`
	InvoiceID   uint64          `json:"invoice_id" gorm:"not null;index"`
	Description string          `json:"description" gorm:"type:varchar(500);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(15,2);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
}
