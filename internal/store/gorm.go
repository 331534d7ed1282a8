package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/billing"
	"invoice-settlement/models"
)

var (
	_ billing.Store    = (*Gorm)(nil)
	_ analytics.Reader = (*Gorm)(nil)
	_ accounts.Store   = (*Gorm)(nil)
)

// Gorm is the database backed store. It serves the billing engine, the
// analytics rollups and account management.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) InTx(ctx context.Context, fn func(tx billing.Tx) error) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	return translate(err)
}

func preloadInvoice(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("paid_at, id")
	})
}

func (g *Gorm) FindInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := preloadInvoice(g.db.WithContext(ctx)).First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	if !actor.CanAccess(inv.CreatedByUserID) {
		return nil, billing.ErrForbidden
	}
	return &inv, nil
}

func (g *Gorm) ListInvoices(ctx context.Context, actor auth.Actor, f billing.InvoiceFilter) ([]models.Invoice, int64, error) {
	base := func() *gorm.DB {
		q := ScopedQuery(actor, g.db.WithContext(ctx).Model(&models.Invoice{}), "created_by_user_id")
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(invoice_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(organization) LIKE ?", like, like, like)
		}
		if f.From != nil {
			q = q.Where("invoice_date >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("invoice_date < ?", *f.To)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	list := []models.Invoice{}
	q := base().Order("invoice_date DESC, id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

func (g *Gorm) SearchOpenInvoices(ctx context.Context, actor auth.Actor, query string, limit int) ([]models.Invoice, error) {
	q := ScopedQuery(actor, g.db.WithContext(ctx).Model(&models.Invoice{}), "created_by_user_id").
		Where("status <> ?", models.InvoiceStatusCompleted)
	if s := strings.ToLower(strings.TrimSpace(query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(invoice_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(organization) LIKE ?", like, like, like)
	}
	list := []models.Invoice{}
	if err := q.Order("due_date, id").Limit(limit).Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (g *Gorm) InvoiceNumberTaken(ctx context.Context, number string) (bool, error) {
	return exists(g.db.WithContext(ctx).Model(&models.Invoice{}).Where("invoice_number = ?", number))
}

// invoiceCreator returns who created the invoice a payment or sale hangs off.
func invoiceCreator(db *gorm.DB, invoiceID uint64) (uint64, error) {
	var inv models.Invoice
	if err := db.Select("id", "created_by_user_id").First(&inv, invoiceID).Error; err != nil {
		return 0, translate(err)
	}
	return inv.CreatedByUserID, nil
}

func (g *Gorm) FindPayment(ctx context.Context, actor auth.Actor, id uint64) (*models.Payment, error) {
	db := g.db.WithContext(ctx)
	var p models.Payment
	if err := db.First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	creator, err := invoiceCreator(db, p.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(creator) {
		return nil, billing.ErrForbidden
	}
	return &p, nil
}

func (g *Gorm) ListPayments(ctx context.Context, actor auth.Actor, f billing.PaymentFilter) ([]models.Payment, int64, error) {
	base := func() *gorm.DB {
		q := g.db.WithContext(ctx).Model(&models.Payment{}).
			Joins("JOIN invoices ON invoices.id = payments.invoice_id")
		q = ScopedQuery(actor, q, "invoices.created_by_user_id")
		if f.InvoiceID > 0 {
			q = q.Where("payments.invoice_id = ?", f.InvoiceID)
		}
		if f.Method != "" {
			q = q.Where("payments.payment_method = ?", f.Method)
		}
		if f.From != nil {
			q = q.Where("payments.paid_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("payments.paid_at < ?", *f.To)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	list := []models.Payment{}
	q := base().Select("payments.*").Order("payments.paid_at DESC, payments.id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

func (g *Gorm) FindSale(ctx context.Context, actor auth.Actor, id uint64) (*models.Sale, error) {
	db := g.db.WithContext(ctx)
	var s models.Sale
	if err := db.First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	creator, err := invoiceCreator(db, s.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(creator) {
		return nil, billing.ErrForbidden
	}
	return &s, nil
}

func (g *Gorm) ListSales(ctx context.Context, actor auth.Actor, f billing.SaleFilter) ([]models.Sale, int64, error) {
	base := func() *gorm.DB {
		q := g.db.WithContext(ctx).Model(&models.Sale{}).
			Joins("JOIN invoices ON invoices.id = sales.invoice_id")
		q = ScopedQuery(actor, q, "invoices.created_by_user_id")
		if f.From != nil {
			q = q.Where("sales.created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("sales.created_at < ?", *f.To)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	list := []models.Sale{}
	q := base().Select("sales.*").Order("sales.created_at DESC, sales.id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

func (g *Gorm) PdfSettings(ctx context.Context) (*models.PdfSetting, error) {
	return pdfSettings(g.db.WithContext(ctx))
}

// SavePdfSettings keeps a single settings row, creating it on first save.
func (g *Gorm) SavePdfSettings(ctx context.Context, s *models.PdfSetting) error {
	db := g.db.WithContext(ctx)
	current, err := pdfSettings(db)
	if err != nil {
		return err
	}
	s.ID = current.ID
	return translate(db.Save(s).Error)
}

func pdfSettings(db *gorm.DB) (*models.PdfSetting, error) {
	var s models.PdfSetting
	err := db.Order("id").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PdfSetting{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) InvoiceNumberTaken(ctx context.Context, number string) (bool, error) {
	return exists(t.db.WithContext(ctx).Model(&models.Invoice{}).Where("invoice_number = ?", number))
}

func (t *gormTx) ReceiptNumberTaken(ctx context.Context, number string) (bool, error) {
	return exists(t.db.WithContext(ctx).Model(&models.Payment{}).Where("receipt_number = ?", number))
}

func (t *gormTx) PdfSettings(ctx context.Context) (*models.PdfSetting, error) {
	return pdfSettings(t.db.WithContext(ctx))
}

// InsertInvoice writes inside a savepoint so a unique violation only undoes
// this insert.
func (t *gormTx) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	err := t.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(inv).Error
	})
	return translate(err)
}

func (t *gormTx) SetInvoicePdfPath(ctx context.Context, id uint64, path string) error {
	err := t.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Update("pdf_path", path).Error
	return translate(err)
}

func (t *gormTx) LockInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error) {
	var inv models.Invoice
	err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error
	if err != nil {
		return nil, translate(err)
	}
	if !actor.CanAccess(inv.CreatedByUserID) {
		return nil, billing.ErrForbidden
	}
	return &inv, nil
}

func (t *gormTx) ReloadInvoice(ctx context.Context, id uint64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := preloadInvoice(t.db.WithContext(ctx)).First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (t *gormTx) UpdateSettlement(ctx context.Context, inv *models.Invoice) error {
	err := t.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
		"amount_paid":       inv.AmountPaid,
		"balance_remaining": inv.BalanceRemaining,
		"status":            inv.Status,
		"paid_at":           inv.PaidAt,
	}).Error
	return translate(err)
}

func (t *gormTx) DeleteInvoice(ctx context.Context, id uint64) error {
	db := t.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return translate(err)
	}
	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
		return translate(err)
	}
	res := db.Delete(&models.Invoice{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (t *gormTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	err := t.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(p).Error
	})
	return translate(err)
}

func (t *gormTx) SaleByInvoice(ctx context.Context, invoiceID uint64) (*models.Sale, error) {
	var s models.Sale
	if err := t.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (t *gormTx) InsertSale(ctx context.Context, s *models.Sale) error {
	err := t.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(s).Error
	})
	return translate(err)
}
