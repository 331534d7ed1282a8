// Package storetest provides an in-memory store with the database constraints,
// for tests that do not need SQL.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/store"
	"invoice-settlement/models"
)

var (
	_ billing.Store    = (*Memory)(nil)
	_ analytics.Reader = (*Memory)(nil)
	_ accounts.Store   = (*Memory)(nil)
)

type memState struct {
	invoices map[uint64]models.Invoice
	items    map[uint64]models.InvoiceItem
	payments map[uint64]models.Payment
	sales    map[uint64]models.Sale
	users    map[uint64]models.User
	logins   []models.LoginHistory
	revoked  map[string]time.Time
	settings models.PdfSetting
	lastID   uint64
}

func newMemState() *memState {
	return &memState{
		invoices: map[uint64]models.Invoice{},
		items:    map[uint64]models.InvoiceItem{},
		payments: map[uint64]models.Payment{},
		sales:    map[uint64]models.Sale{},
		users:    map[uint64]models.User{},
		revoked:  map[string]time.Time{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		invoices: cloneMap(s.invoices),
		items:    cloneMap(s.items),
		payments: cloneMap(s.payments),
		sales:    cloneMap(s.sales),
		users:    cloneMap(s.users),
		logins:   append([]models.LoginHistory(nil), s.logins...),
		revoked:  cloneMap(s.revoked),
		settings: s.settings,
		lastID:   s.lastID,
	}
}

func (s *memState) nextID() uint64 {
	s.lastID++
	return s.lastID
}

// Memory is an in-process store with the same constraints as the database:
// unique invoice numbers, receipt numbers, sale invoice ids and emails, and
// sales restricting invoice deletes. A transaction holds the store lock
// until it ends, which stands in for row locks.
type Memory struct {
	mu  sync.Mutex
	st  *memState
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{st: newMemState(), Now: time.Now}
}

func (m *Memory) InTx(ctx context.Context, fn func(tx billing.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.st.clone()
	if err := fn(&memTx{m: m}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// invoice assembles a copy of the invoice with its items and payments.
func (s *memState) invoice(id uint64) (models.Invoice, bool) {
	inv, ok := s.invoices[id]
	if !ok {
		return inv, false
	}
	inv.Items = nil
	for _, it := range s.items {
		if it.InvoiceID == id {
			inv.Items = append(inv.Items, it)
		}
	}
	sort.Slice(inv.Items, func(i, j int) bool { return inv.Items[i].ID < inv.Items[j].ID })
	inv.Payments = nil
	for _, p := range s.payments {
		if p.InvoiceID == id {
			inv.Payments = append(inv.Payments, p)
		}
	}
	sortPayments(inv.Payments, false)
	return inv, true
}

func sortPayments(list []models.Payment, desc bool) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if desc {
			a, b = b, a
		}
		if !a.PaidAt.Equal(b.PaidAt) {
			return a.PaidAt.Before(b.PaidAt)
		}
		return a.ID < b.ID
	})
}

func (s *memState) creatorOf(invoiceID uint64) (uint64, error) {
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return 0, billing.ErrNotFound
	}
	return inv.CreatedByUserID, nil
}

func (s *memState) numberTaken(number string) bool {
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == number {
			return true
		}
	}
	return false
}

func (s *memState) receiptTaken(number string) bool {
	for _, p := range s.payments {
		if p.ReceiptNumber == number {
			return true
		}
	}
	return false
}

func visible(actor auth.Actor, createdBy uint64) bool {
	return actor.CanAccess(createdBy)
}

func page[T any](list []T, limit, offset int) []T {
	if limit <= 0 {
		return list
	}
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

func matches(inv models.Invoice, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(inv.InvoiceNumber), q) ||
		strings.Contains(strings.ToLower(inv.CustomerName), q) ||
		strings.Contains(strings.ToLower(inv.Organization), q)
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func (m *Memory) FindInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.st.invoice(id)
	if !ok {
		return nil, billing.ErrNotFound
	}
	if !visible(actor, inv.CreatedByUserID) {
		return nil, billing.ErrForbidden
	}
	return &inv, nil
}

func (m *Memory) ListInvoices(ctx context.Context, actor auth.Actor, f billing.InvoiceFilter) ([]models.Invoice, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Invoice{}
	for _, inv := range m.st.invoices {
		if !visible(actor, inv.CreatedByUserID) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if !matches(inv, f.Query) || !inRange(inv.InvoiceDate, f.From, f.To) {
			continue
		}
		list = append(list, inv)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].InvoiceDate.Equal(list[j].InvoiceDate) {
			return list[i].InvoiceDate.After(list[j].InvoiceDate)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, f.Limit, f.Offset), int64(len(list)), nil
}

func (m *Memory) SearchOpenInvoices(ctx context.Context, actor auth.Actor, query string, limit int) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Invoice{}
	for _, inv := range m.st.invoices {
		if visible(actor, inv.CreatedByUserID) && inv.Status != models.InvoiceStatusCompleted && matches(inv, query) {
			list = append(list, inv)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].DueDate.Equal(list[j].DueDate) {
			return list[i].DueDate.Before(list[j].DueDate)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, 0), nil
}

func (m *Memory) InvoiceNumberTaken(ctx context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.numberTaken(number), nil
}

func (m *Memory) FindPayment(ctx context.Context, actor auth.Actor, id uint64) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.payments[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	creator, err := m.st.creatorOf(p.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !visible(actor, creator) {
		return nil, billing.ErrForbidden
	}
	return &p, nil
}

func (m *Memory) ListPayments(ctx context.Context, actor auth.Actor, f billing.PaymentFilter) ([]models.Payment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Payment{}
	for _, p := range m.st.payments {
		creator, err := m.st.creatorOf(p.InvoiceID)
		if err != nil || !visible(actor, creator) {
			continue
		}
		if f.InvoiceID > 0 && p.InvoiceID != f.InvoiceID {
			continue
		}
		if f.Method != "" && p.PaymentMethod != f.Method {
			continue
		}
		if !inRange(p.PaidAt, f.From, f.To) {
			continue
		}
		list = append(list, p)
	}
	sortPayments(list, true)
	return page(list, f.Limit, f.Offset), int64(len(list)), nil
}

func (m *Memory) FindSale(ctx context.Context, actor auth.Actor, id uint64) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.sales[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	creator, err := m.st.creatorOf(s.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !visible(actor, creator) {
		return nil, billing.ErrForbidden
	}
	return &s, nil
}

func (m *Memory) ListSales(ctx context.Context, actor auth.Actor, f billing.SaleFilter) ([]models.Sale, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Sale{}
	for _, s := range m.st.sales {
		creator, err := m.st.creatorOf(s.InvoiceID)
		if err != nil || !visible(actor, creator) || !inRange(s.CreatedAt, f.From, f.To) {
			continue
		}
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, f.Limit, f.Offset), int64(len(list)), nil
}

func (m *Memory) PdfSettings(ctx context.Context) (*models.PdfSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.st.settings
	return &s, nil
}

func (m *Memory) SavePdfSettings(ctx context.Context, s *models.PdfSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.settings.ID == 0 {
		m.st.settings.ID = m.st.nextID()
	}
	s.ID = m.st.settings.ID
	s.UpdatedAt = m.Now()
	m.st.settings = *s
	return nil
}

type memTx struct {
	m *Memory
}

func (t *memTx) st() *memState { return t.m.st }

func (t *memTx) InvoiceNumberTaken(ctx context.Context, number string) (bool, error) {
	return t.st().numberTaken(number), nil
}

func (t *memTx) ReceiptNumberTaken(ctx context.Context, number string) (bool, error) {
	return t.st().receiptTaken(number), nil
}

func (t *memTx) PdfSettings(ctx context.Context) (*models.PdfSetting, error) {
	s := t.st().settings
	return &s, nil
}

func (t *memTx) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	st := t.st()
	if st.numberTaken(inv.InvoiceNumber) {
		return billing.ErrDuplicate
	}
	now := t.m.Now()
	inv.ID = st.nextID()
	inv.CreatedAt, inv.UpdatedAt = now, now
	for i := range inv.Items {
		inv.Items[i].ID = st.nextID()
		inv.Items[i].InvoiceID = inv.ID
		st.items[inv.Items[i].ID] = inv.Items[i]
	}
	row := *inv
	row.Items, row.Payments = nil, nil
	st.invoices[inv.ID] = row
	return nil
}

func (t *memTx) SetInvoicePdfPath(ctx context.Context, id uint64, path string) error {
	inv, ok := t.st().invoices[id]
	if !ok {
		return billing.ErrNotFound
	}
	inv.PdfPath = path
	inv.UpdatedAt = t.m.Now()
	t.st().invoices[id] = inv
	return nil
}

func (t *memTx) LockInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error) {
	inv, ok := t.st().invoices[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	if !visible(actor, inv.CreatedByUserID) {
		return nil, billing.ErrForbidden
	}
	return &inv, nil
}

func (t *memTx) ReloadInvoice(ctx context.Context, id uint64) (*models.Invoice, error) {
	inv, ok := t.st().invoice(id)
	if !ok {
		return nil, billing.ErrNotFound
	}
	return &inv, nil
}

func (t *memTx) UpdateSettlement(ctx context.Context, in *models.Invoice) error {
	inv, ok := t.st().invoices[in.ID]
	if !ok {
		return billing.ErrNotFound
	}
	inv.AmountPaid = in.AmountPaid
	inv.BalanceRemaining = in.BalanceRemaining
	inv.Status = in.Status
	inv.PaidAt = in.PaidAt
	inv.UpdatedAt = t.m.Now()
	t.st().invoices[in.ID] = inv
	return nil
}

func (t *memTx) DeleteInvoice(ctx context.Context, id uint64) error {
	st := t.st()
	if _, ok := st.invoices[id]; !ok {
		return billing.ErrNotFound
	}
	for _, s := range st.sales {
		if s.InvoiceID == id {
			return billing.ErrHasDependents
		}
	}
	for pid, p := range st.payments {
		if p.InvoiceID == id {
			delete(st.payments, pid)
		}
	}
	for iid, it := range st.items {
		if it.InvoiceID == id {
			delete(st.items, iid)
		}
	}
	delete(st.invoices, id)
	return nil
}

func (t *memTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	st := t.st()
	if st.receiptTaken(p.ReceiptNumber) {
		return billing.ErrDuplicate
	}
	if _, ok := st.invoices[p.InvoiceID]; !ok {
		return billing.ErrNotFound
	}
	p.ID = st.nextID()
	p.CreatedAt = t.m.Now()
	st.payments[p.ID] = *p
	return nil
}

func (t *memTx) SaleByInvoice(ctx context.Context, invoiceID uint64) (*models.Sale, error) {
	for _, s := range t.st().sales {
		if s.InvoiceID == invoiceID {
			return &s, nil
		}
	}
	return nil, billing.ErrNotFound
}

func (t *memTx) InsertSale(ctx context.Context, s *models.Sale) error {
	st := t.st()
	for _, existing := range st.sales {
		if existing.InvoiceID == s.InvoiceID {
			return billing.ErrDuplicate
		}
	}
	s.ID = st.nextID()
	s.CreatedAt = t.m.Now()
	row := *s
	row.Invoice, row.Payment = nil, nil
	st.sales[s.ID] = row
	return nil
}

func createdBy(scope analytics.Scope, creator uint64) bool {
	id, ok := scope.CreatedBy()
	return !ok || id == creator
}

func (m *Memory) scopedPayments(scope analytics.Scope, from, to time.Time) []models.Payment {
	var out []models.Payment
	for _, p := range m.st.payments {
		creator, err := m.st.creatorOf(p.InvoiceID)
		if err != nil || !createdBy(scope, creator) || !inRange(p.PaidAt, &from, &to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *Memory) CashCollected(ctx context.Context, scope analytics.Scope, from, to time.Time) (decimal.Decimal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	list := m.scopedPayments(scope, from, to)
	for _, p := range list {
		total = total.Add(p.AmountPaid)
	}
	return total, int64(len(list)), nil
}

func (m *Memory) EarnedRevenue(ctx context.Context, scope analytics.Scope, from, to time.Time) (decimal.Decimal, decimal.Decimal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revenue, profit := decimal.Zero, decimal.Zero
	var n int64
	for _, s := range m.st.sales {
		creator, err := m.st.creatorOf(s.InvoiceID)
		if err != nil || !createdBy(scope, creator) || !inRange(s.CreatedAt, &from, &to) {
			continue
		}
		revenue = revenue.Add(s.TotalSalePrice)
		profit = profit.Add(s.Profit)
		n++
	}
	return revenue, profit, n, nil
}

func (m *Memory) InvoicesIssued(ctx context.Context, scope analytics.Scope, from, to time.Time) (int64, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	var n int64
	for _, inv := range m.st.invoices {
		if !createdBy(scope, inv.CreatedByUserID) || !inRange(inv.InvoiceDate, &from, &to) {
			continue
		}
		total = total.Add(inv.Total)
		n++
	}
	return n, total, nil
}

func (m *Memory) Outstanding(ctx context.Context, scope analytics.Scope, today time.Time) (decimal.Decimal, int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := decimal.Zero
	var open, overdue int64
	for _, inv := range m.st.invoices {
		if inv.Status == models.InvoiceStatusCompleted || !createdBy(scope, inv.CreatedByUserID) {
			continue
		}
		balance = balance.Add(inv.BalanceRemaining)
		open++
		if inv.DueDate.Before(today) {
			overdue++
		}
	}
	return balance, open, overdue, nil
}

func (m *Memory) StatusCounts(ctx context.Context, scope analytics.Scope) (map[models.InvoiceStatusType]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.InvoiceStatusType]int64{
		models.InvoiceStatusPending:   0,
		models.InvoiceStatusDue:       0,
		models.InvoiceStatusCompleted: 0,
	}
	for _, inv := range m.st.invoices {
		if createdBy(scope, inv.CreatedByUserID) {
			out[inv.Status]++
		}
	}
	return out, nil
}

func (m *Memory) MethodBreakdown(ctx context.Context, scope analytics.Scope, from, to time.Time) ([]analytics.MethodTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byMethod := map[models.PaymentMethodType]*analytics.MethodTotal{}
	for _, p := range m.scopedPayments(scope, from, to) {
		t, ok := byMethod[p.PaymentMethod]
		if !ok {
			t = &analytics.MethodTotal{Method: p.PaymentMethod, Amount: decimal.Zero}
			byMethod[p.PaymentMethod] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(p.AmountPaid)
	}
	out := make([]analytics.MethodTotal, 0, len(byMethod))
	for _, t := range byMethod {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

func (m *Memory) DailyCash(ctx context.Context, scope analytics.Scope, from, to time.Time) ([]analytics.DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := map[string]decimal.Decimal{}
	for _, p := range m.scopedPayments(scope, from, to) {
		day := p.PaidAt.Format("2006-01-02")
		byDay[day] = byDay[day].Add(p.AmountPaid)
	}
	out := make([]analytics.DailyTotal, 0, len(byDay))
	for day, amount := range byDay {
		out = append(out, analytics.DailyTotal{Day: day, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *Memory) RecentPayments(ctx context.Context, scope analytics.Scope, limit int) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Payment{}
	for _, p := range m.st.payments {
		creator, err := m.st.creatorOf(p.InvoiceID)
		if err == nil && createdBy(scope, creator) {
			list = append(list, p)
		}
	}
	sortPayments(list, true)
	return page(list, limit, 0), nil
}

func (m *Memory) RecentInvoices(ctx context.Context, scope analytics.Scope, limit int) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Invoice{}
	for _, inv := range m.st.invoices {
		if createdBy(scope, inv.CreatedByUserID) {
			list = append(list, inv)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, limit, 0), nil
}

func (m *Memory) AdminTotals(ctx context.Context, from, to time.Time) ([]analytics.AdminTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := map[uint64]*analytics.AdminTotals{}
	get := func(id uint64) *analytics.AdminTotals {
		t, ok := byUser[id]
		if !ok {
			t = &analytics.AdminTotals{UserID: id, InvoicedTotal: decimal.Zero, AmountCollected: decimal.Zero}
			byUser[id] = t
		}
		return t
	}
	for _, inv := range m.st.invoices {
		if !inRange(inv.InvoiceDate, &from, &to) {
			continue
		}
		t := get(inv.CreatedByUserID)
		t.InvoicesIssued++
		t.InvoicedTotal = t.InvoicedTotal.Add(inv.Total)
		created := inv.CreatedAt
		t.LastActivityAt = store.Latest(t.LastActivityAt, &created)
	}
	for _, p := range m.st.payments {
		if !inRange(p.PaidAt, &from, &to) {
			continue
		}
		t := get(p.CreatedBy)
		t.PaymentsRecorded++
		t.AmountCollected = t.AmountCollected.Add(p.AmountPaid)
		paid := p.PaidAt
		t.LastActivityAt = store.Latest(t.LastActivityAt, &paid)
	}
	out := make([]analytics.AdminTotals, 0, len(byUser))
	for _, t := range byUser {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) ListAdmins(ctx context.Context) ([]models.User, error) {
	return m.ListUsers(ctx, models.RoleAdmin)
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.st.users {
		if u.Email == email && !u.DeletedAt.Valid {
			return &u, nil
		}
	}
	return nil, accounts.ErrUserNotFound
}

func (m *Memory) UserByID(ctx context.Context, id uint64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, accounts.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsers(ctx context.Context, role models.RoleType) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.User{}
	for _, u := range m.st.users {
		if u.Role == role && !u.DeletedAt.Valid {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// emailTaken includes soft deleted accounts, matching the unique index.
func (s *memState) emailTaken(email string, except uint64) bool {
	for _, u := range s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.emailTaken(u.Email, 0) {
		return accounts.ErrEmailTaken
	}
	now := m.Now()
	u.ID = m.st.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	m.st.users[u.ID] = *u
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.st.users[u.ID]
	if !ok || cur.DeletedAt.Valid {
		return accounts.ErrUserNotFound
	}
	if m.st.emailTaken(u.Email, u.ID) {
		return accounts.ErrEmailTaken
	}
	cur.Name, cur.Email, cur.PasswordHash, cur.IsActive = u.Name, u.Email, u.PasswordHash, u.IsActive
	cur.UpdatedAt = m.Now()
	m.st.users[u.ID] = cur
	*u = cur
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[id]
	if !ok || u.DeletedAt.Valid {
		return accounts.ErrUserNotFound
	}
	u.DeletedAt = gorm.DeletedAt{Time: m.Now(), Valid: true}
	m.st.users[id] = u
	return nil
}

func (m *Memory) RecordLogin(ctx context.Context, userID uint64, ip string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.logins = append(m.st.logins, models.LoginHistory{ID: m.st.nextID(), UserID: userID, IPAddress: ip, LoginTime: at})
	if u, ok := m.st.users[userID]; ok {
		u.LastLoginAt = &at
		m.st.users[userID] = u
	}
	return nil
}

// Logins returns the recorded login history, oldest first.
func (m *Memory) Logins() []models.LoginHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LoginHistory(nil), m.st.logins...)
}

func (m *Memory) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	for id, exp := range m.st.revoked {
		if exp.Before(now) {
			delete(m.st.revoked, id)
		}
	}
	m.st.revoked[tokenID] = expiresAt
	return nil
}

func (m *Memory) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.st.revoked[tokenID]
	return ok, nil
}
