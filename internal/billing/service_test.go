package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/store/storetest"
	"invoice-settlement/models"
)

var (
	owner = auth.Actor{UserID: 1, Role: models.RoleOwner, Name: "Owner"}
	alice = auth.Actor{UserID: 2, Role: models.RoleAdmin, Name: "Alice"}
	bob   = auth.Actor{UserID: 3, Role: models.RoleAdmin, Name: "Bob"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) RenderInvoice(inv *models.Invoice, _ *models.PdfSetting) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF invoice " + inv.InvoiceNumber), nil
}

func (r *fakeRenderer) RenderReceipt(p *models.Payment, _ *models.Invoice, _ *models.PdfSetting) ([]byte, error) {
	return []byte("%PDF receipt " + p.ReceiptNumber), nil
}

type fakeArtifacts struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func (a *fakeArtifacts) Save(_ context.Context, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return "", a.saveErr
	}
	a.files[name] = data
	return name, nil
}

func (a *fakeArtifacts) Remove(_ context.Context, ref string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, ref)
	return nil
}

func (a *fakeArtifacts) has(ref string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.files[ref]
	return ok
}

type env struct {
	svc       *billing.Service
	mem       *storetest.Memory
	renderer  *fakeRenderer
	artifacts *fakeArtifacts
	now       time.Time
}

func counter() func(int) int {
	var mu sync.Mutex
	n := 0
	return func(int) int {
		mu.Lock()
		defer mu.Unlock()
		n++
		return n % 9999
	}
}

func newEnv(t *testing.T, st billing.Store, mem *storetest.Memory, receiptDraws func(int) int) *env {
	t.Helper()
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mem.Now = clock

	invoices := billing.NewGenerator("INV", billing.DefaultMaxAttempts)
	invoices.IntN = counter()
	receipts := billing.NewGenerator("RCP", billing.DefaultMaxAttempts)
	receipts.IntN = receiptDraws
	if receipts.IntN == nil {
		receipts.IntN = counter()
	}

	e := &env{
		mem:       mem,
		renderer:  &fakeRenderer{},
		artifacts: &fakeArtifacts{files: map[string][]byte{}},
		now:       now,
	}
	e.svc = billing.NewService(st, e.renderer, e.artifacts,
		billing.WithGenerators(invoices, receipts),
		billing.WithClock(clock),
		billing.WithLogger(zerolog.Nop()),
	)
	return e
}

func memEnv(t *testing.T) *env {
	mem := storetest.NewMemory()
	return newEnv(t, mem, mem, nil)
}

func (e *env) invoiceInput(items ...billing.ItemInput) billing.InvoiceInput {
	if len(items) == 0 {
		items = []billing.ItemInput{
			{Description: "Widget", Quantity: 3, UnitPrice: dec("40.00")},
			{Description: "Setup", Quantity: 1, UnitPrice: dec("30.00")},
		}
	}
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return billing.InvoiceInput{
		CustomerName: "Acme Trading",
		Organization: "Acme Group",
		InvoiceDate:  day,
		DueDate:      day.AddDate(0, 0, 14),
		Tax:          decimal.Zero,
		Items:        items,
	}
}

// createInvoice makes an invoice with total 150.00.
func (e *env) createInvoice(t *testing.T, actor auth.Actor) *models.Invoice {
	t.Helper()
	inv, err := e.svc.CreateInvoice(context.Background(), actor, e.invoiceInput())
	require.NoError(t, err)
	return inv
}

func (e *env) pay(actor auth.Actor, invoiceID uint64, amount string) (*billing.Settlement, error) {
	return e.svc.RecordPayment(context.Background(), actor, billing.PaymentInput{
		InvoiceID: invoiceID,
		Amount:    dec(amount),
		Method:    models.PaymentMethodCash,
	})
}

func assertBalanceInvariant(t *testing.T, inv *models.Invoice) {
	t.Helper()
	want := decimal.Max(inv.Total.Sub(inv.AmountPaid).Round(2), decimal.Zero)
	assert.True(t, want.Equal(inv.BalanceRemaining), "balance %s, want %s", inv.BalanceRemaining, want)
	assert.False(t, inv.AmountPaid.IsNegative())
	assert.True(t, inv.AmountPaid.LessThanOrEqual(inv.Total))
	paid := decimal.Zero
	for _, p := range inv.Payments {
		paid = paid.Add(p.AmountPaid)
	}
	assert.True(t, paid.Equal(inv.AmountPaid), "payments sum %s, amount_paid %s", paid, inv.AmountPaid)
}

func TestCreateInvoice(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)

	assert.NotZero(t, inv.ID)
	assert.Equal(t, "INV-20260315-0002", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.True(t, dec("150.00").Equal(inv.Subtotal))
	assert.True(t, dec("150.00").Equal(inv.Total))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.Total.Equal(inv.BalanceRemaining))
	assert.Nil(t, inv.PaidAt)
	assert.Equal(t, alice.UserID, inv.CreatedByUserID)
	require.Len(t, inv.Items, 2)
	assert.True(t, dec("120.00").Equal(inv.Items[0].Amount))

	assert.Equal(t, "invoices/"+inv.InvoiceNumber+".pdf", inv.PdfPath)
	assert.True(t, e.artifacts.has(inv.PdfPath))
}

func TestCreateInvoiceRounding(t *testing.T) {
	e := memEnv(t)
	in := e.invoiceInput(billing.ItemInput{Description: "Metered", Quantity: 2, UnitPrice: dec("10.005")})
	in.Tax = dec("0.125")

	inv, err := e.svc.CreateInvoice(context.Background(), alice, in)
	require.NoError(t, err)
	assert.Equal(t, "10.01", inv.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "20.02", inv.Items[0].Amount.StringFixed(2))
	assert.Equal(t, "0.13", inv.Tax.StringFixed(2))
	assert.Equal(t, "20.15", inv.Total.StringFixed(2))
}

func TestCreateInvoiceValidation(t *testing.T) {
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		mutate func(*billing.InvoiceInput)
		field  string
	}{
		{"no items", func(in *billing.InvoiceInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *billing.InvoiceInput) { in.Items[0].Quantity = 0 }, "items.0.quantity"},
		{"negative price", func(in *billing.InvoiceInput) { in.Items[1].UnitPrice = dec("-1") }, "items.1.unit_price"},
		{"blank description", func(in *billing.InvoiceInput) { in.Items[0].Description = " " }, "items.0.description"},
		{"negative tax", func(in *billing.InvoiceInput) { in.Tax = dec("-0.01") }, "tax"},
		{"due before issue", func(in *billing.InvoiceInput) { in.DueDate = day.AddDate(0, 0, -1) }, "due_date"},
		{"missing customer", func(in *billing.InvoiceInput) { in.CustomerName = "" }, "customer_name"},
		{"long invoice number", func(in *billing.InvoiceInput) { in.InvoiceNumber = strings.Repeat("A", 33) }, "invoice_number"},
		{"path in invoice number", func(in *billing.InvoiceInput) { in.InvoiceNumber = "../etc/passwd" }, "invoice_number"},
		{"long customer", func(in *billing.InvoiceInput) { in.CustomerName = strings.Repeat("x", 256) }, "customer_name"},
		{"huge quantity", func(in *billing.InvoiceInput) { in.Items[0].Quantity = billing.MaxQuantity + 1 }, "items.0.quantity"},
		{"huge price", func(in *billing.InvoiceInput) { in.Items[0].UnitPrice = dec("10000000000000") }, "items.0.unit_price"},
		{"huge tax", func(in *billing.InvoiceInput) { in.Tax = dec("9999999999999.995") }, "tax"},
		{"total overflows", func(in *billing.InvoiceInput) {
			in.Items[0].Quantity = 2
			in.Items[0].UnitPrice = dec("5000000000000")
		}, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := memEnv(t)
			in := e.invoiceInput()
			tt.mutate(&in)

			_, err := e.svc.CreateInvoice(context.Background(), alice, in)
			var v billing.ValidationErrors
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Contains(t, v, tt.field)

			_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestCreateInvoiceRequestedNumber(t *testing.T) {
	e := memEnv(t)
	in := e.invoiceInput()
	in.InvoiceNumber = "INV-CUSTOM-1"

	first, err := e.svc.CreateInvoice(context.Background(), alice, in)
	require.NoError(t, err)
	assert.Equal(t, "INV-CUSTOM-1", first.InvoiceNumber)

	second, err := e.svc.CreateInvoice(context.Background(), alice, in)
	require.NoError(t, err)
	assert.NotEqual(t, "INV-CUSTOM-1", second.InvoiceNumber)
	assert.Regexp(t, `^INV-20260315-\d{4}$`, second.InvoiceNumber)
}

func TestCreateInvoiceIsAtomic(t *testing.T) {
	t.Run("render fails", func(t *testing.T) {
		e := memEnv(t)
		e.renderer.err = errors.New("template broken")
		_, err := e.svc.CreateInvoice(context.Background(), alice, e.invoiceInput())
		require.Error(t, err)

		_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("artifact save fails", func(t *testing.T) {
		e := memEnv(t)
		e.artifacts.saveErr = errors.New("disk full")
		_, err := e.svc.CreateInvoice(context.Background(), alice, e.invoiceInput())
		require.Error(t, err)

		_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("late failure removes the artifact", func(t *testing.T) {
		mem := storetest.NewMemory()
		e := newEnv(t, failingReload{mem}, mem, nil)
		_, err := e.svc.CreateInvoice(context.Background(), alice, e.invoiceInput())
		require.Error(t, err)

		_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, e.artifacts.files)
	})
}

type failingReload struct{ *storetest.Memory }

func (f failingReload) InTx(ctx context.Context, fn func(billing.Tx) error) error {
	return f.Memory.InTx(ctx, func(tx billing.Tx) error { return fn(reloadFails{tx}) })
}

type reloadFails struct{ billing.Tx }

func (reloadFails) ReloadInvoice(context.Context, uint64) (*models.Invoice, error) {
	return nil, errors.New("connection lost")
}

func TestIdentifierExhaustion(t *testing.T) {
	mem := storetest.NewMemory()
	e := newEnv(t, mem, mem, nil)
	gen := billing.NewGenerator("INV", billing.DefaultMaxAttempts)
	gen.IntN = func(int) int { return 0 }
	receipts := billing.NewGenerator("RCP", billing.DefaultMaxAttempts)
	e.svc = billing.NewService(mem, e.renderer, e.artifacts,
		billing.WithGenerators(gen, receipts),
		billing.WithClock(func() time.Time { return e.now }),
		billing.WithLogger(zerolog.Nop()),
	)

	_, err := e.svc.CreateInvoice(context.Background(), alice, e.invoiceInput())
	require.NoError(t, err)

	_, err = e.svc.CreateInvoice(context.Background(), alice, e.invoiceInput())
	assert.ErrorIs(t, err, billing.ErrIdentifierExhausted)

	_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestFullSettlement(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)

	first, err := e.pay(alice, inv.ID, "100.00")
	require.NoError(t, err)
	assert.Equal(t, "100.00", first.Invoice.AmountPaid.StringFixed(2))
	assert.Equal(t, "50.00", first.Invoice.BalanceRemaining.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusDue, first.Invoice.Status)
	assert.Nil(t, first.Invoice.PaidAt)
	assert.Nil(t, first.Sale)
	assertBalanceInvariant(t, first.Invoice)

	second, err := e.pay(alice, inv.ID, "50.00")
	require.NoError(t, err)
	assert.Equal(t, "150.00", second.Invoice.AmountPaid.StringFixed(2))
	assert.Equal(t, "0.00", second.Invoice.BalanceRemaining.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusCompleted, second.Invoice.Status)
	require.NotNil(t, second.Invoice.PaidAt)
	assert.True(t, e.now.Equal(*second.Invoice.PaidAt))
	assertBalanceInvariant(t, second.Invoice)

	require.NotNil(t, second.Sale)
	assert.Equal(t, "150.00", second.Sale.TotalSalePrice.StringFixed(2))
	assert.Equal(t, "0.00", second.Sale.TotalCostPrice.StringFixed(2))
	assert.Equal(t, "150.00", second.Sale.Profit.StringFixed(2))
	assert.Equal(t, second.Payment.ID, second.Sale.PaymentID)

	sales, total, err := e.svc.ListSales(context.Background(), owner, billing.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, inv.ID, sales[0].InvoiceID)
}

func TestOverpaymentIsCapped(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	_, err := e.pay(alice, inv.ID, "100.00")
	require.NoError(t, err)

	res, err := e.pay(alice, inv.ID, "999.00")
	require.NoError(t, err)
	assert.Equal(t, "50.00", res.Payment.AmountPaid.StringFixed(2))
	assert.Equal(t, "0.00", res.Invoice.BalanceRemaining.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusCompleted, res.Invoice.Status)
	require.NotNil(t, res.Sale)
	assertBalanceInvariant(t, res.Invoice)
}

func TestPaymentOnCompletedInvoiceIsRejected(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	done, err := e.pay(alice, inv.ID, "150.00")
	require.NoError(t, err)

	_, err = e.pay(alice, inv.ID, "10.00")
	assert.ErrorIs(t, err, billing.ErrAlreadyPaid)

	after, err := e.svc.GetInvoice(context.Background(), alice, inv.ID)
	require.NoError(t, err)
	assert.Len(t, after.Payments, 1)
	assert.Equal(t, done.Invoice.AmountPaid.String(), after.AmountPaid.String())
	assert.Equal(t, done.Invoice.UpdatedAt, after.UpdatedAt)

	_, total, err := e.svc.ListSales(context.Background(), owner, billing.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPaymentValidation(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	tests := []struct {
		name  string
		in    billing.PaymentInput
		field string
	}{
		{"zero amount", billing.PaymentInput{InvoiceID: inv.ID, Amount: decimal.Zero, Method: models.PaymentMethodCash}, "amount_paid"},
		{"negative amount", billing.PaymentInput{InvoiceID: inv.ID, Amount: dec("-5"), Method: models.PaymentMethodCash}, "amount_paid"},
		{"rounds to zero", billing.PaymentInput{InvoiceID: inv.ID, Amount: dec("0.004"), Method: models.PaymentMethodCash}, "amount_paid"},
		{"huge amount", billing.PaymentInput{InvoiceID: inv.ID, Amount: dec("10000000000000"), Method: models.PaymentMethodCash}, "amount_paid"},
		{"unknown method", billing.PaymentInput{InvoiceID: inv.ID, Amount: dec("5"), Method: "cheque"}, "payment_method"},
		{"missing invoice", billing.PaymentInput{Amount: dec("5"), Method: models.PaymentMethodCard}, "invoice_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.RecordPayment(context.Background(), alice, tt.in)
			var v billing.ValidationErrors
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Contains(t, v, tt.field)
		})
	}

	after, err := e.svc.GetInvoice(context.Background(), alice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, after.Status)
	assert.Empty(t, after.Payments)

	_, err = e.pay(alice, 9999, "5")
	assert.ErrorIs(t, err, billing.ErrNotFound)

	res, err := e.pay(alice, inv.ID, "0.005")
	require.NoError(t, err)
	assert.Equal(t, "0.01", res.Payment.AmountPaid.StringFixed(2))
}

func TestReceiptNumberCollisionRetries(t *testing.T) {
	draws := []int{5, 5, 7}
	i := 0
	mem := storetest.NewMemory()
	e := newEnv(t, mem, mem, func(int) int {
		v := draws[i%len(draws)]
		i++
		return v
	})
	inv := e.createInvoice(t, alice)

	first, err := e.pay(alice, inv.ID, "10.00")
	require.NoError(t, err)
	second, err := e.pay(alice, inv.ID, "10.00")
	require.NoError(t, err)

	assert.Equal(t, "RCP-20260315-0006", first.Payment.ReceiptNumber)
	assert.Equal(t, "RCP-20260315-0008", second.Payment.ReceiptNumber)
}

func TestConcurrentCompletionCreatesOneSale(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pay(alice, inv.ID, "150.00")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, billing.ErrAlreadyPaid)
	}
	assert.Equal(t, 1, succeeded)

	_, total, err := e.svc.ListSales(context.Background(), owner, billing.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	after, err := e.svc.GetInvoice(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assertBalanceInvariant(t, after)
}

// blindSales hides existing sales from the pre-check so the unique
// constraint is the only guard left.
type blindSales struct{ *storetest.Memory }

func (b blindSales) InTx(ctx context.Context, fn func(billing.Tx) error) error {
	return b.Memory.InTx(ctx, func(tx billing.Tx) error { return fn(noSaleLookup{tx}) })
}

type noSaleLookup struct{ billing.Tx }

func (noSaleLookup) SaleByInvoice(context.Context, uint64) (*models.Sale, error) {
	return nil, billing.ErrNotFound
}

func TestLosingCompletionRaceReportsAlreadySettled(t *testing.T) {
	mem := storetest.NewMemory()
	e := newEnv(t, blindSales{mem}, mem, nil)
	inv := e.createInvoice(t, alice)

	err := mem.InTx(context.Background(), func(tx billing.Tx) error {
		return tx.InsertSale(context.Background(), &models.Sale{
			InvoiceID:      inv.ID,
			TotalSalePrice: inv.Total,
			TotalCostPrice: decimal.Zero,
			Profit:         inv.Total,
		})
	})
	require.NoError(t, err)

	_, err = e.pay(alice, inv.ID, "150.00")
	assert.ErrorIs(t, err, billing.ErrAlreadySettled)

	after, err := e.svc.GetInvoice(context.Background(), alice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, after.Status)
	assert.Empty(t, after.Payments)
	assert.True(t, after.AmountPaid.IsZero())
}

func TestSalesAreImmutable(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	res, err := e.pay(alice, inv.ID, "150.00")
	require.NoError(t, err)

	err = e.svc.AmendSale(context.Background(), owner, res.Sale.ID)
	assert.ErrorIs(t, err, billing.ErrSaleImmutable)
	err = e.svc.DeleteSale(context.Background(), owner, res.Sale.ID)
	assert.ErrorIs(t, err, billing.ErrSaleImmutable)

	sale, err := e.svc.GetSale(context.Background(), owner, res.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Sale.TotalSalePrice.String(), sale.TotalSalePrice.String())
	assert.Equal(t, res.Sale.Profit.String(), sale.Profit.String())

	err = e.svc.DeleteSale(context.Background(), owner, 4242)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestDeleteInvoice(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	_, err := e.pay(alice, inv.ID, "20.00")
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteInvoice(context.Background(), alice, inv.ID))

	_, err = e.svc.GetInvoice(context.Background(), alice, inv.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	_, total, err := e.svc.ListPayments(context.Background(), owner, billing.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.False(t, e.artifacts.has(inv.PdfPath))
}

func TestDeleteInvoiceWithSaleIsBlocked(t *testing.T) {
	e := memEnv(t)
	inv := e.createInvoice(t, alice)
	res, err := e.pay(alice, inv.ID, "150.00")
	require.NoError(t, err)

	err = e.svc.DeleteInvoice(context.Background(), alice, inv.ID)
	assert.ErrorIs(t, err, billing.ErrHasDependents)

	after, err := e.svc.GetInvoice(context.Background(), alice, inv.ID)
	require.NoError(t, err)
	assert.Len(t, after.Items, 2)
	assert.Len(t, after.Payments, 1)
	_, err = e.svc.GetSale(context.Background(), alice, res.Sale.ID)
	assert.NoError(t, err)
	assert.True(t, e.artifacts.has(inv.PdfPath))
}

func TestAdminsOnlySeeTheirOwnInvoices(t *testing.T) {
	e := memEnv(t)
	mine := e.createInvoice(t, alice)
	theirs := e.createInvoice(t, bob)
	_, err := e.pay(bob, theirs.ID, "10.00")
	require.NoError(t, err)

	_, err = e.svc.GetInvoice(context.Background(), alice, theirs.ID)
	assert.ErrorIs(t, err, billing.ErrForbidden)
	_, err = e.pay(alice, theirs.ID, "10.00")
	assert.ErrorIs(t, err, billing.ErrForbidden)
	assert.ErrorIs(t, e.svc.DeleteInvoice(context.Background(), alice, theirs.ID), billing.ErrForbidden)

	list, total, err := e.svc.ListInvoices(context.Background(), alice, billing.InvoiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)

	_, total, err = e.svc.ListPayments(context.Background(), alice, billing.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestListInvoicesFilters(t *testing.T) {
	e := memEnv(t)
	a := e.createInvoice(t, alice)
	in := e.invoiceInput()
	in.CustomerName = "Blue River Cafe"
	in.Organization = ""
	b, err := e.svc.CreateInvoice(context.Background(), alice, in)
	require.NoError(t, err)
	_, err = e.pay(alice, b.ID, "150.00")
	require.NoError(t, err)

	list, total, err := e.svc.ListInvoices(context.Background(), alice, billing.InvoiceFilter{Status: models.InvoiceStatusCompleted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, list[0].ID)

	list, _, err = e.svc.ListInvoices(context.Background(), alice, billing.InvoiceFilter{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, total, err = e.svc.ListInvoices(context.Background(), alice, billing.InvoiceFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 1)

	open, err := e.svc.SearchPayableInvoices(context.Background(), alice, "", 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a.ID, open[0].ID)
}

func TestNextInvoiceNumberDoesNotReserve(t *testing.T) {
	e := memEnv(t)
	n, err := e.svc.NextInvoiceNumber(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^INV-20260315-\d{4}$`, n)

	_, total, err := e.svc.ListInvoices(context.Background(), owner, billing.InvoiceFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReceiptAndPDFs(t *testing.T) {
	e := memEnv(t)
	require.NoError(t, e.svc.SavePdfSettings(context.Background(), &models.PdfSetting{CompanyName: "Northwind"}))
	inv := e.createInvoice(t, alice)
	res, err := e.pay(alice, inv.ID, "60.00")
	require.NoError(t, err)

	r, err := e.svc.Receipt(context.Background(), alice, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Payment.ReceiptNumber, r.Payment.ReceiptNumber)
	assert.Equal(t, inv.InvoiceNumber, r.Invoice.InvoiceNumber)
	assert.Equal(t, "Northwind", r.Settings.CompanyName)

	_, doc, err := e.svc.ReceiptPDF(context.Background(), alice, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF receipt "+res.Payment.ReceiptNumber, string(doc))

	_, err = e.svc.Receipt(context.Background(), bob, res.Payment.ID)
	assert.ErrorIs(t, err, billing.ErrForbidden)

	got, doc, err := e.svc.InvoicePDF(context.Background(), alice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.PdfPath, got.PdfPath)
	assert.Equal(t, "%PDF invoice "+inv.InvoiceNumber, string(doc))
}
