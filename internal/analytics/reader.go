package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invoice-settlement/internal/auth"
	"invoice-settlement/models"
)

// Scope narrows every aggregate to the invoices an actor may see, optionally
// further to one admin when the actor is the owner.
type Scope struct {
	Actor   auth.Actor
	AdminID uint64
}

// CreatedBy returns the invoice creator the aggregate is restricted to.
func (s Scope) CreatedBy() (uint64, bool) {
	if !s.Actor.IsOwner() {
		return s.Actor.UserID, true
	}
	if s.AdminID > 0 {
		return s.AdminID, true
	}
	return 0, false
}

type MethodTotal struct {
	Method models.PaymentMethodType `json:"method"`
	Count  int64                    `json:"count"`
	Amount decimal.Decimal          `json:"amount"`
}

type DailyTotal struct {
	Day    string          `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

type AdminTotals struct {
	UserID           uint64          `json:"user_id"`
	InvoicesIssued   int64           `json:"invoices_issued"`
	InvoicedTotal    decimal.Decimal `json:"invoiced_total"`
	PaymentsRecorded int64           `json:"payments_recorded"`
	AmountCollected  decimal.Decimal `json:"amount_collected"`
	LastActivityAt   *time.Time      `json:"last_activity_at"`
}

// Reader holds the read-only aggregate queries. Ranges are [from, to).
type Reader interface {
	CashCollected(ctx context.Context, scope Scope, from, to time.Time) (decimal.Decimal, int64, error)
	EarnedRevenue(ctx context.Context, scope Scope, from, to time.Time) (revenue, profit decimal.Decimal, count int64, err error)
	InvoicesIssued(ctx context.Context, scope Scope, from, to time.Time) (int64, decimal.Decimal, error)
	Outstanding(ctx context.Context, scope Scope, today time.Time) (balance decimal.Decimal, open, overdue int64, err error)
	StatusCounts(ctx context.Context, scope Scope) (map[models.InvoiceStatusType]int64, error)
	MethodBreakdown(ctx context.Context, scope Scope, from, to time.Time) ([]MethodTotal, error)
	DailyCash(ctx context.Context, scope Scope, from, to time.Time) ([]DailyTotal, error)
	RecentPayments(ctx context.Context, scope Scope, limit int) ([]models.Payment, error)
	RecentInvoices(ctx context.Context, scope Scope, limit int) ([]models.Invoice, error)
	AdminTotals(ctx context.Context, from, to time.Time) ([]AdminTotals, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}
