package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/pdf"
	"invoice-settlement/internal/routes"
	"invoice-settlement/internal/storage"
	"invoice-settlement/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t      *testing.T
	engine *gin.Engine
	owner  string
	alice  string
	bob    string
	ids    map[string]uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }

	mem := storetest.NewMemory()
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	acc := accounts.NewService(mem, auth.TokenConfig{Secret: "routes-test", Issuer: "invoice-settlement", TTL: time.Hour})
	_, _, err = acc.EnsureOwner(ctx, accounts.AdminInput{Name: "Owner", Email: "owner@example.com", Password: "owner-password"})
	require.NoError(t, err)
	ids := map[string]uint64{}
	for _, name := range []string{"alice", "bob"} {
		u, err := acc.CreateAdmin(ctx, accounts.AdminInput{Name: name, Email: name + "@example.com", Password: name + "-password"})
		require.NoError(t, err)
		ids[name] = u.ID
	}

	h := &harness{
		t: t,
		engine: routes.Register(routes.Deps{
			Billing:   billing.NewService(mem, pdf.New(disk.Root), disk, billing.WithClock(clock), billing.WithLogger(zerolog.Nop())),
			Accounts:  acc,
			Analytics: analytics.NewService(mem, clock),
			Images:    disk,
			Now:       clock,
		}),
		ids: ids,
	}
	h.owner = h.login("owner@example.com", "owner-password")
	h.alice = h.login("alice@example.com", "alice-password")
	h.bob = h.login("bob@example.com", "bob-password")
	return h
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/login", "", gin.H{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Token
}

type invoiceJSON struct {
	ID               uint64          `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	PdfPath          string          `json:"pdf_path"`
	Overdue          bool            `json:"overdue"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (h *harness) createInvoice(token, price, due string) invoiceJSON {
	h.t.Helper()
	w := h.do(http.MethodPost, "/invoices", token, gin.H{
		"customer_name": "Kofi Mensah",
		"organization":  "Mensah Trading",
		"invoice_date":  "2026-03-10",
		"due_date":      due,
		"tax":           "0",
		"items": []gin.H{
			{"description": "Cement bags", "quantity": 2, "unit_price": price},
		},
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[invoiceJSON](h.t, w)
}

func (h *harness) pay(token string, invoiceID uint64, amount string) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, "/payments", token, gin.H{
		"invoice_id":     invoiceID,
		"amount_paid":    amount,
		"payment_method": "cash",
	})
}

func TestAuthentication(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/invoices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = h.do(http.MethodGet, "/invoices", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/login", "", gin.H{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/me", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = h.do(http.MethodPost, "/logout", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, "/me", h.alice, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnerRoutesRequireOwner(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/owner/dashboard", h.alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/owner/dashboard", h.owner, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCreateInvoice(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(h.alice, "75.00", "2026-03-20")

	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-20260315-"), inv.InvoiceNumber)
	assert.Equal(t, "pending", inv.Status)
	assert.Equal(t, "150.00", inv.Total.StringFixed(2))
	assert.Equal(t, "150.00", inv.BalanceRemaining.StringFixed(2))
	assert.Equal(t, "invoices/"+inv.InvoiceNumber+".pdf", inv.PdfPath)
	assert.False(t, inv.Overdue)

	w := h.do(http.MethodGet, "/invoices/"+strconv.FormatUint(inv.ID, 10)+"/pdf", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = h.do(http.MethodGet, "/invoices/next-number", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "INV-20260315-")
}

func TestCreateInvoiceValidation(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/invoices", h.alice, gin.H{
		"customer_name": "",
		"invoice_date":  "10/03/2026",
		"due_date":      "2026-03-20",
		"items":         []gin.H{},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode[struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}](t, w)
	assert.NotEmpty(t, body.Message)
	assert.Contains(t, body.Errors, "invoice_date")

	w = h.do(http.MethodPost, "/invoices", h.alice, gin.H{
		"customer_name": " ",
		"invoice_date":  "2026-03-10",
		"due_date":      "2026-03-01",
		"items":         []gin.H{{"description": "x", "quantity": 0, "unit_price": "1"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "customer_name")
	assert.Contains(t, w.Body.String(), "due_date")
	assert.Contains(t, w.Body.String(), "items.0.quantity")

	w = h.do(http.MethodPost, "/invoices", h.alice, gin.H{
		"invoice_number": strings.Repeat("9", 40),
		"customer_name":  "Kofi Mensah",
		"invoice_date":   "2026-03-10",
		"due_date":       "2026-03-20",
		"items":          []gin.H{{"description": "Steel", "quantity": 1, "unit_price": "99999999999999.00"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "invoice_number")
	assert.Contains(t, w.Body.String(), "items.0.unit_price")
}

func TestSettlementFlow(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(h.alice, "75.00", "2026-03-12")
	assert.True(t, inv.Overdue)

	w := h.pay(h.alice, inv.ID, "100.00")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[struct {
		Invoice   invoiceJSON     `json:"invoice"`
		Sale      json.RawMessage `json:"sale"`
		Completed bool            `json:"completed"`
	}](t, w)
	assert.Equal(t, "due", first.Invoice.Status)
	assert.Equal(t, "50.00", first.Invoice.BalanceRemaining.StringFixed(2))
	assert.False(t, first.Completed)
	assert.Equal(t, "null", string(first.Sale))

	w = h.pay(h.alice, inv.ID, "80.00")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[struct {
		Payment struct {
			ID            uint64          `json:"id"`
			ReceiptNumber string          `json:"receipt_number"`
			AmountPaid    decimal.Decimal `json:"amount_paid"`
		} `json:"payment"`
		Invoice invoiceJSON `json:"invoice"`
		Sale    struct {
			ID             uint64          `json:"id"`
			TotalSalePrice decimal.Decimal `json:"total_sale_price"`
			Profit         decimal.Decimal `json:"profit"`
		} `json:"sale"`
		Completed bool `json:"completed"`
	}](t, w)
	assert.True(t, second.Completed)
	assert.Equal(t, "completed", second.Invoice.Status)
	assert.False(t, second.Invoice.Overdue)
	assert.Equal(t, "50.00", second.Payment.AmountPaid.StringFixed(2))
	assert.True(t, strings.HasPrefix(second.Payment.ReceiptNumber, "RCP-20260315-"))
	assert.Equal(t, "150.00", second.Sale.TotalSalePrice.StringFixed(2))
	assert.Equal(t, "150.00", second.Sale.Profit.StringFixed(2))

	w = h.pay(h.alice, inv.ID, "1.00")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "already fully paid")

	saleURL := "/sales/" + strconv.FormatUint(second.Sale.ID, 10)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, saleURL, h.alice, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodPut, saleURL, h.alice, gin.H{}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodDelete, saleURL, h.alice, nil).Code)

	w = h.do(http.MethodDelete, "/invoices/"+strconv.FormatUint(inv.ID, 10), h.alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	paymentURL := "/payments/" + strconv.FormatUint(second.Payment.ID, 10)
	w = h.do(http.MethodGet, paymentURL+"/receipt", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), second.Payment.ReceiptNumber)

	w = h.do(http.MethodGet, paymentURL+"/receipt.pdf", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), second.Payment.ReceiptNumber+".pdf")

	w = h.do(http.MethodGet, "/payments?invoice_id="+strconv.FormatUint(inv.ID, 10), h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestPaymentValidation(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(h.alice, "10.00", "2026-03-20")

	w := h.do(http.MethodPost, "/payments", h.alice, gin.H{
		"invoice_id":     inv.ID,
		"amount_paid":    "0",
		"payment_method": "cheque",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "amount_paid")
	assert.Contains(t, w.Body.String(), "payment_method")

	w = h.pay(h.alice, inv.ID, "0.004")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "amount_paid")

	w = h.do(http.MethodGet, "/invoices/"+strconv.FormatUint(inv.ID, 10), h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		invoiceJSON
		Payments []json.RawMessage `json:"payments"`
	}](t, w)
	assert.Equal(t, "pending", got.Status)
	assert.Empty(t, got.Payments)

	w = h.pay(h.alice, 999999, "5.00")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordsAreScopedToTheirCreator(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(h.alice, "10.00", "2026-03-20")
	url := "/invoices/" + strconv.FormatUint(inv.ID, 10)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, url, h.bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.pay(h.bob, inv.ID, "5.00").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, url, h.owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/invoices/424242", h.alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/invoices/abc", h.alice, nil).Code)

	w := h.do(http.MethodGet, "/invoices", h.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func TestListInvoicesPagination(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.createInvoice(h.alice, "10.00", "2026-03-20")
	}

	w := h.do(http.MethodGet, "/invoices?limit=2&offset=0", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items      []invoiceJSON `json:"items"`
		Pagination struct {
			Total      int64 `json:"total"`
			Limit      int   `json:"limit"`
			Offset     int   `json:"offset"`
			HasNext    bool  `json:"hasNext"`
			NextOffset int   `json:"nextOffset"`
		} `json:"pagination"`
	}](t, w)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, 2, page.Pagination.NextOffset)

	w = h.do(http.MethodGet, "/invoices?from=2026-03-10&to=2026-03-10&status=pending", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)

	w = h.do(http.MethodGet, "/invoices?from=2026-03-11", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	w = h.do(http.MethodGet, "/invoices?from=yesterday", h.alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPdfSettingsUpload(t *testing.T) {
	h := newHarness(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("company_name", "Mensah Supplies"))
	fw, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pdf-settings", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.owner)
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/pdf-settings", h.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[struct {
		CompanyName string `json:"company_name"`
		LogoPath    string `json:"logo_path"`
	}](t, w)
	assert.Equal(t, "Mensah Supplies", settings.CompanyName)
	assert.True(t, strings.HasPrefix(settings.LogoPath, "branding/logo-"))
	assert.True(t, strings.HasSuffix(settings.LogoPath, ".png"))

	w = h.do(http.MethodPost, "/pdf-settings", h.owner, gin.H{"footer_note": "Thank you"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"company_name":"Mensah Supplies"`)
	assert.Contains(t, w.Body.String(), `"footer_note":"Thank you"`)
}

func TestOwnerAnalytics(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(h.alice, "50.00", "2026-03-20")
	require.Equal(t, http.StatusCreated, h.pay(h.alice, inv.ID, "100.00").Code)

	w := h.do(http.MethodGet, "/owner/analytics?range=7d", h.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	overview := decode[struct {
		CashCollected struct {
			Current decimal.Decimal `json:"current"`
		} `json:"cash_collected"`
	}](t, w)
	assert.Equal(t, "100.00", overview.CashCollected.Current.StringFixed(2))

	w = h.do(http.MethodGet, "/owner/analytics?range=fortnight", h.owner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(http.MethodGet, "/owner/admin-activity", h.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"alice"`)

	aliceURL := "/owner/admin-activity/" + strconv.FormatUint(h.ids["alice"], 10)
	w = h.do(http.MethodGet, aliceURL+"?range=30d", h.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), inv.InvoiceNumber)

	w = h.do(http.MethodGet, "/owner/admin-activity/999999", h.owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCredentials(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/owner/admin-credentials", h.owner, gin.H{
		"name": "Carol", "email": "carol@example.com", "password": "carol-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")
	carol := decode[struct {
		ID   uint64 `json:"id"`
		Role string `json:"role"`
	}](t, w)
	assert.Equal(t, "admin", carol.Role)

	w = h.do(http.MethodPost, "/owner/admin-credentials", h.owner, gin.H{
		"name": "Carol Again", "email": "CAROL@example.com", "password": "carol-password",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	carolURL := "/owner/admin-credentials/" + strconv.FormatUint(carol.ID, 10)
	token := h.login("carol@example.com", "carol-password")
	w = h.do(http.MethodPut, carolURL, h.owner, gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/me", token, nil).Code)

	w = h.do(http.MethodGet, "/owner/admin-credentials", h.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carol@example.com")

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, carolURL, h.owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, carolURL, h.owner, nil).Code)
}
