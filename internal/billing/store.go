package billing

import (
	"context"
	"time"

	"invoice-settlement/internal/auth"
	"invoice-settlement/models"
)

// Store is the persistence boundary of the settlement engine. Implementations
// must enforce unique invoice numbers, receipt numbers and sale invoice ids,
// and restrict deleting an invoice that a sale references.
type Store interface {
	Queries

	// InTx runs fn in one transaction. Any error rolls back every write made through tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Queries are the non-transactional reads. Every list is scoped to the actor.
type Queries interface {
	FindInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, actor auth.Actor, f InvoiceFilter) ([]models.Invoice, int64, error)
	SearchOpenInvoices(ctx context.Context, actor auth.Actor, query string, limit int) ([]models.Invoice, error)
	InvoiceNumberTaken(ctx context.Context, number string) (bool, error)
	FindPayment(ctx context.Context, actor auth.Actor, id uint64) (*models.Payment, error)
	ListPayments(ctx context.Context, actor auth.Actor, f PaymentFilter) ([]models.Payment, int64, error)
	FindSale(ctx context.Context, actor auth.Actor, id uint64) (*models.Sale, error)
	ListSales(ctx context.Context, actor auth.Actor, f SaleFilter) ([]models.Sale, int64, error)
	PdfSettings(ctx context.Context) (*models.PdfSetting, error)
	SavePdfSettings(ctx context.Context, s *models.PdfSetting) error
}

// Tx is the write surface available inside InTx.
type Tx interface {
	InvoiceNumberTaken(ctx context.Context, number string) (bool, error)
	ReceiptNumberTaken(ctx context.Context, number string) (bool, error)
	PdfSettings(ctx context.Context) (*models.PdfSetting, error)

	// InsertInvoice stores the invoice with its items. A taken invoice number
	// yields ErrDuplicate and leaves the transaction usable.
	InsertInvoice(ctx context.Context, inv *models.Invoice) error
	SetInvoicePdfPath(ctx context.Context, id uint64, path string) error

	// LockInvoice loads the invoice and holds its row lock until the
	// transaction ends.
	LockInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error)
	ReloadInvoice(ctx context.Context, id uint64) (*models.Invoice, error)
	UpdateSettlement(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, id uint64) error

	// InsertPayment yields ErrDuplicate for a taken receipt number and leaves
	// the transaction usable.
	InsertPayment(ctx context.Context, p *models.Payment) error

	SaleByInvoice(ctx context.Context, invoiceID uint64) (*models.Sale, error)
	// InsertSale yields ErrDuplicate when the invoice already has a sale.
	InsertSale(ctx context.Context, s *models.Sale) error
}

type InvoiceFilter struct {
	Status models.InvoiceStatusType
	Query  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type PaymentFilter struct {
	InvoiceID uint64
	Method    models.PaymentMethodType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Renderer turns settled data into printable documents.
type Renderer interface {
	RenderInvoice(inv *models.Invoice, settings *models.PdfSetting) ([]byte, error)
	RenderReceipt(p *models.Payment, inv *models.Invoice, settings *models.PdfSetting) ([]byte, error)
}

// Artifacts stores rendered documents and returns a reference to them.
type Artifacts interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, ref string) error
}
