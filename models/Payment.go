package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethodType string

const (
	PaymentMethodCash        PaymentMethodType = "cash"
	PaymentMethodTransfer    PaymentMethodType = "transfer"
	PaymentMethodMobileMoney PaymentMethodType = "mobile_money"
	PaymentMethodCard        PaymentMethodType = "card"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethodType{
	PaymentMethodCash,
	PaymentMethodTransfer,
	PaymentMethodMobileMoney,
	PaymentMethodCard,
}

func (m PaymentMethodType) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

type Payment struct {
	ID            uint64            `json:"id" gorm:"primaryKey"`
	ReceiptNumber string            `json:"receipt_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	InvoiceID     uint64            `json:"invoice_id" gorm:"not null;index"`
	AmountPaid    decimal.Decimal   `json:"amount_paid" gorm:"type:decimal(15,2);not null"`
	PaymentMethod PaymentMethodType `json:"payment_method" gorm:"type:varchar(16);not null"`
	PaidAt        time.Time         `json:"paid_at" gorm:"not null;index"`
	CreatedBy     uint64            `json:"created_by" gorm:"not null;index"`
	Notes         string            `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at"`
}
