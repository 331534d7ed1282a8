package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatusType string

const (
	InvoiceStatusDraft     InvoiceStatusType = "draft"
	InvoiceStatusPending   InvoiceStatusType = "pending"
	InvoiceStatusDue       InvoiceStatusType = "due"
	InvoiceStatusCompleted InvoiceStatusType = "completed"
)

type Invoice struct {
	ID               uint64            `json:"id" gorm:"primaryKey"`
	InvoiceNumber    string            `json:"invoice_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerName     string            `json:"customer_name" gorm:"type:varchar(255);not null"`
	Organization     string            `json:"organization" gorm:"type:varchar(255)"`
	BillTo           string            `json:"bill_to" gorm:"type:text"`
	ShipTo           string            `json:"ship_to" gorm:"type:text"`
	PONumber         string            `json:"po_number" gorm:"column:po_number;type:varchar(64)"`
	RequestedBy      string            `json:"requested_by" gorm:"type:varchar(255)"`
	DeliveryMethod   string            `json:"delivery_method" gorm:"type:varchar(64)"`
	InvoiceDate      time.Time         `json:"invoice_date" gorm:"type:date;not null"`
	DueDate          time.Time         `json:"due_date" gorm:"type:date;not null;index"`
	Subtotal         decimal.Decimal   `json:"subtotal" gorm:"type:decimal(15,2);not null"`
	Tax              decimal.Decimal   `json:"tax" gorm:"type:decimal(15,2);not null"`
	Total            decimal.Decimal   `json:"total" gorm:"type:decimal(15,2);not null"`
	AmountPaid       decimal.Decimal   `json:"amount_paid" gorm:"type:decimal(15,2);not null"`
	BalanceRemaining decimal.Decimal   `json:"balance_remaining" gorm:"type:decimal(15,2);not null"`
	Status           InvoiceStatusType `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	PaidAt           *time.Time        `json:"paid_at"`
	CreatedByUserID  uint64            `json:"created_by_user_id" gorm:"not null;index"`
	PdfPath          string            `json:"pdf_path" gorm:"type:varchar(512)"`
	Items            []InvoiceItem     `json:"items,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments         []Payment         `json:"payments,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsOverdue reports whether an unsettled invoice is past its due date at now.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == InvoiceStatusCompleted {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := time.Date(inv.DueDate.Year(), inv.DueDate.Month(), inv.DueDate.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}
