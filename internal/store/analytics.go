package store

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invoice-settlement/internal/analytics"
	"invoice-settlement/models"
)

func (g *Gorm) paymentsIn(ctx context.Context, scope analytics.Scope, from, to time.Time) *gorm.DB {
	q := g.db.WithContext(ctx).Model(&models.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.paid_at >= ? AND payments.paid_at < ?", from, to)
	return scopedAggregate(scope, q, "invoices.created_by_user_id")
}

func (g *Gorm) CashCollected(ctx context.Context, scope analytics.Scope, from, to time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := g.paymentsIn(ctx, scope, from, to).
		Select("COALESCE(SUM(payments.amount_paid), 0) AS total, COUNT(payments.id) AS count").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}

func (g *Gorm) EarnedRevenue(ctx context.Context, scope analytics.Scope, from, to time.Time) (decimal.Decimal, decimal.Decimal, int64, error) {
	var row struct {
		Revenue decimal.Decimal
		Profit  decimal.Decimal
		Count   int64
	}
	q := g.db.WithContext(ctx).Model(&models.Sale{}).
		Joins("JOIN invoices ON invoices.id = sales.invoice_id").
		Where("sales.created_at >= ? AND sales.created_at < ?", from, to)
	err := scopedAggregate(scope, q, "invoices.created_by_user_id").
		Select("COALESCE(SUM(sales.total_sale_price), 0) AS revenue, COALESCE(SUM(sales.profit), 0) AS profit, COUNT(sales.id) AS count").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}
	return row.Revenue, row.Profit, row.Count, nil
}

func (g *Gorm) InvoicesIssued(ctx context.Context, scope analytics.Scope, from, to time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	q := g.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_date >= ? AND invoice_date < ?", from, to)
	err := scopedAggregate(scope, q, "created_by_user_id").
		Select("COUNT(id) AS count, COALESCE(SUM(total), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Total, nil
}

func (g *Gorm) Outstanding(ctx context.Context, scope analytics.Scope, today time.Time) (decimal.Decimal, int64, int64, error) {
	var row struct {
		Balance decimal.Decimal
		Open    int64
		Overdue int64
	}
	q := g.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status <> ?", models.InvoiceStatusCompleted)
	err := scopedAggregate(scope, q, "created_by_user_id").
		Select("COALESCE(SUM(balance_remaining), 0) AS balance, COUNT(id) AS open, "+
			"COALESCE(SUM(CASE WHEN due_date < ? THEN 1 ELSE 0 END), 0) AS overdue", today).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, 0, err
	}
	return row.Balance, row.Open, row.Overdue, nil
}

func (g *Gorm) StatusCounts(ctx context.Context, scope analytics.Scope) (map[models.InvoiceStatusType]int64, error) {
	var rows []struct {
		Status models.InvoiceStatusType
		Count  int64
	}
	q := scopedAggregate(scope, g.db.WithContext(ctx).Model(&models.Invoice{}), "created_by_user_id")
	if err := q.Select("status, COUNT(id) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[models.InvoiceStatusType]int64{
		models.InvoiceStatusPending:   0,
		models.InvoiceStatusDue:       0,
		models.InvoiceStatusCompleted: 0,
	}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (g *Gorm) MethodBreakdown(ctx context.Context, scope analytics.Scope, from, to time.Time) ([]analytics.MethodTotal, error) {
	rows := []analytics.MethodTotal{}
	err := g.paymentsIn(ctx, scope, from, to).
		Select("payments.payment_method AS method, COUNT(payments.id) AS count, COALESCE(SUM(payments.amount_paid), 0) AS amount").
		Group("payments.payment_method").
		Order("payments.payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *Gorm) DailyCash(ctx context.Context, scope analytics.Scope, from, to time.Time) ([]analytics.DailyTotal, error) {
	// Day is read as text: MySQL and Postgres hand back a time, SQLite a string.
	var rows []struct {
		Day    string
		Amount decimal.Decimal
	}
	err := g.paymentsIn(ctx, scope, from, to).
		Select("DATE(payments.paid_at) AS day, COALESCE(SUM(payments.amount_paid), 0) AS amount").
		Group("DATE(payments.paid_at)").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]analytics.DailyTotal, 0, len(rows))
	for _, r := range rows {
		day := r.Day
		if len(day) > len("2006-01-02") {
			day = day[:len("2006-01-02")]
		}
		out = append(out, analytics.DailyTotal{Day: day, Amount: r.Amount})
	}
	return out, nil
}

func (g *Gorm) RecentPayments(ctx context.Context, scope analytics.Scope, limit int) ([]models.Payment, error) {
	q := g.db.WithContext(ctx).Model(&models.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id")
	list := []models.Payment{}
	err := scopedAggregate(scope, q, "invoices.created_by_user_id").
		Select("payments.*").
		Order("payments.paid_at DESC, payments.id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (g *Gorm) RecentInvoices(ctx context.Context, scope analytics.Scope, limit int) ([]models.Invoice, error) {
	q := scopedAggregate(scope, g.db.WithContext(ctx).Model(&models.Invoice{}), "created_by_user_id")
	list := []models.Invoice{}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// AdminTotals groups issued invoices by creator and recorded payments by the
// user who recorded them.
func (g *Gorm) AdminTotals(ctx context.Context, from, to time.Time) ([]analytics.AdminTotals, error) {
	db := g.db.WithContext(ctx)

	var issued []struct {
		UserID uint64
		Count  int64
		Total  decimal.Decimal
		Last   *time.Time
	}
	err := db.Model(&models.Invoice{}).
		Select("created_by_user_id AS user_id, COUNT(id) AS count, COALESCE(SUM(total), 0) AS total, MAX(created_at) AS last").
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Group("created_by_user_id").
		Scan(&issued).Error
	if err != nil {
		return nil, err
	}

	var collected []struct {
		UserID uint64
		Count  int64
		Amount decimal.Decimal
		Last   *time.Time
	}
	err = db.Model(&models.Payment{}).
		Select("created_by AS user_id, COUNT(id) AS count, COALESCE(SUM(amount_paid), 0) AS amount, MAX(paid_at) AS last").
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Group("created_by").
		Scan(&collected).Error
	if err != nil {
		return nil, err
	}

	byUser := map[uint64]*analytics.AdminTotals{}
	get := func(id uint64) *analytics.AdminTotals {
		t, ok := byUser[id]
		if !ok {
			t = &analytics.AdminTotals{UserID: id, InvoicedTotal: decimal.Zero, AmountCollected: decimal.Zero}
			byUser[id] = t
		}
		return t
	}
	for _, r := range issued {
		t := get(r.UserID)
		t.InvoicesIssued = r.Count
		t.InvoicedTotal = r.Total
		t.LastActivityAt = Latest(t.LastActivityAt, r.Last)
	}
	for _, r := range collected {
		t := get(r.UserID)
		t.PaymentsRecorded = r.Count
		t.AmountCollected = r.Amount
		t.LastActivityAt = Latest(t.LastActivityAt, r.Last)
	}

	out := make([]analytics.AdminTotals, 0, len(byUser))
	for _, t := range byUser {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (g *Gorm) ListAdmins(ctx context.Context) ([]models.User, error) {
	return g.ListUsers(ctx, models.RoleAdmin)
}

func Latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	}
	return a
}
