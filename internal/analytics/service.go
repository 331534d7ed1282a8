// Package analytics computes the owner's read-only rollups over invoices,
// payments and sales. Nothing here is transactional and every call recomputes.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"invoice-settlement/models"
)

var ErrUnknownAdmin = errors.New("admin not found")

type Service struct {
	reader Reader
	now    func() time.Time
}

func NewService(reader Reader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{reader: reader, now: now}
}

// Metric compares a value in the window with the window before it.
type Metric struct {
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	ChangePct *float64        `json:"change_pct"`
}

func newMetric(current, previous decimal.Decimal) Metric {
	return Metric{Current: current, Previous: previous, ChangePct: PctChange(current, previous)}
}

type Overview struct {
	Window          Window          `json:"window"`
	CashCollected   Metric          `json:"cash_collected"`
	PaymentsCount   Metric          `json:"payments_count"`
	Revenue         Metric          `json:"revenue"`
	Profit          Metric          `json:"profit"`
	SalesCount      Metric          `json:"sales_count"`
	InvoicesIssued  Metric          `json:"invoices_issued"`
	InvoicedTotal   Metric          `json:"invoiced_total"`
	Outstanding     decimal.Decimal `json:"outstanding_balance"`
	OpenInvoices    int64           `json:"open_invoices"`
	OverdueInvoices int64           `json:"overdue_invoices"`
	PaymentMethods  []MethodTotal   `json:"payment_methods"`
	DailyCash       []DailyTotal    `json:"daily_cash"`
}

type periodTotals struct {
	cash, revenue, profit, invoiced decimal.Decimal
	payments, sales, invoices       int64
}

func (s *Service) totals(ctx context.Context, scope Scope, w Window) (periodTotals, error) {
	var t periodTotals
	var err error
	if t.cash, t.payments, err = s.reader.CashCollected(ctx, scope, w.From, w.To); err != nil {
		return t, err
	}
	if t.revenue, t.profit, t.sales, err = s.reader.EarnedRevenue(ctx, scope, w.From, w.To); err != nil {
		return t, err
	}
	if t.invoices, t.invoiced, err = s.reader.InvoicesIssued(ctx, scope, w.From, w.To); err != nil {
		return t, err
	}
	return t, nil
}

// Overview compares the window with the equally long window before it.
func (s *Service) Overview(ctx context.Context, scope Scope, w Window) (*Overview, error) {
	cur, err := s.totals(ctx, scope, w)
	if err != nil {
		return nil, err
	}
	prev, err := s.totals(ctx, scope, w.Previous())
	if err != nil {
		return nil, err
	}
	out := &Overview{
		Window:         w,
		CashCollected:  newMetric(cur.cash, prev.cash),
		PaymentsCount:  newMetric(decimal.NewFromInt(cur.payments), decimal.NewFromInt(prev.payments)),
		Revenue:        newMetric(cur.revenue, prev.revenue),
		Profit:         newMetric(cur.profit, prev.profit),
		SalesCount:     newMetric(decimal.NewFromInt(cur.sales), decimal.NewFromInt(prev.sales)),
		InvoicesIssued: newMetric(decimal.NewFromInt(cur.invoices), decimal.NewFromInt(prev.invoices)),
		InvoicedTotal:  newMetric(cur.invoiced, prev.invoiced),
	}
	if out.Outstanding, out.OpenInvoices, out.OverdueInvoices, err = s.reader.Outstanding(ctx, scope, s.today()); err != nil {
		return nil, err
	}
	if out.PaymentMethods, err = s.reader.MethodBreakdown(ctx, scope, w.From, w.To); err != nil {
		return nil, err
	}
	if out.DailyCash, err = s.reader.DailyCash(ctx, scope, w.From, w.To); err != nil {
		return nil, err
	}
	return out, nil
}

type Dashboard struct {
	StatusCounts    map[models.InvoiceStatusType]int64 `json:"status_counts"`
	Outstanding     decimal.Decimal                    `json:"outstanding_balance"`
	OverdueInvoices int64                              `json:"overdue_invoices"`
	CollectedToday  decimal.Decimal                    `json:"collected_today"`
	CollectedMonth  decimal.Decimal                    `json:"collected_month"`
	RevenueMonth    decimal.Decimal                    `json:"revenue_month"`
	RecentPayments  []models.Payment                   `json:"recent_payments"`
}

func (s *Service) Dashboard(ctx context.Context, scope Scope) (*Dashboard, error) {
	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	d := &Dashboard{}
	var err error
	if d.StatusCounts, err = s.reader.StatusCounts(ctx, scope); err != nil {
		return nil, err
	}
	if d.Outstanding, _, d.OverdueInvoices, err = s.reader.Outstanding(ctx, scope, today); err != nil {
		return nil, err
	}
	if d.CollectedToday, _, err = s.reader.CashCollected(ctx, scope, today, tomorrow); err != nil {
		return nil, err
	}
	if d.CollectedMonth, _, err = s.reader.CashCollected(ctx, scope, monthStart, tomorrow); err != nil {
		return nil, err
	}
	if d.RevenueMonth, _, _, err = s.reader.EarnedRevenue(ctx, scope, monthStart, tomorrow); err != nil {
		return nil, err
	}
	if d.RecentPayments, err = s.reader.RecentPayments(ctx, scope, 5); err != nil {
		return nil, err
	}
	return d, nil
}

type AdminActivity struct {
	Admin models.User `json:"admin"`
	AdminTotals
}

// AdminActivity lists every admin with their totals in the window, including
// admins with no activity.
func (s *Service) AdminActivity(ctx context.Context, w Window) ([]AdminActivity, error) {
	admins, err := s.reader.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.reader.AdminTotals(ctx, w.From, w.To)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint64]AdminTotals, len(totals))
	for _, t := range totals {
		byUser[t.UserID] = t
	}
	out := make([]AdminActivity, 0, len(admins))
	for _, a := range admins {
		t, ok := byUser[a.ID]
		if !ok {
			t = AdminTotals{UserID: a.ID, InvoicedTotal: decimal.Zero, AmountCollected: decimal.Zero}
		}
		out = append(out, AdminActivity{Admin: a, AdminTotals: t})
	}
	return out, nil
}

type AdminDetail struct {
	AdminActivity
	Overview       *Overview        `json:"overview"`
	RecentInvoices []models.Invoice `json:"recent_invoices"`
	RecentPayments []models.Payment `json:"recent_payments"`
}

func (s *Service) AdminDetail(ctx context.Context, scope Scope, adminID uint64, w Window) (*AdminDetail, error) {
	all, err := s.AdminActivity(ctx, w)
	if err != nil {
		return nil, err
	}
	var found *AdminActivity
	for i := range all {
		if all[i].Admin.ID == adminID {
			found = &all[i]
			break
		}
	}
	if found == nil {
		return nil, ErrUnknownAdmin
	}
	scope.AdminID = adminID
	d := &AdminDetail{AdminActivity: *found}
	if d.Overview, err = s.Overview(ctx, scope, w); err != nil {
		return nil, err
	}
	if d.RecentInvoices, err = s.reader.RecentInvoices(ctx, scope, 10); err != nil {
		return nil, err
	}
	if d.RecentPayments, err = s.reader.RecentPayments(ctx, scope, 10); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Now() time.Time { return s.now() }

func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
