// Package pdf lays out invoices and payment receipts with fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"invoice-settlement/models"
)

const dateLayout = "02 Jan 2006"

// Renderer resolves branding images relative to AssetDir.
type Renderer struct {
	AssetDir string
}

func New(assetDir string) *Renderer {
	return &Renderer{AssetDir: assetDir}
}

type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (r *Renderer) newDoc(title string, settings *models.PdfSetting) *doc {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetTitle(title, true)
	f.SetCreator("invoice-settlement", true)
	f.SetMargins(15, 15, 15)
	f.SetAutoPageBreak(true, 20)
	d := &doc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
	if settings == nil {
		settings = &models.PdfSetting{}
	}
	if footer := strings.TrimSpace(settings.FooterNote); footer != "" {
		f.SetFooterFunc(func() {
			f.SetY(-15)
			f.SetFont("Helvetica", "I", 8)
			f.CellFormat(0, 10, d.tr(footer), "", 0, "C", false, 0, "")
		})
	}
	f.AddPage()
	d.header(r.asset(settings.LogoPath), settings)
	return d
}

func (r *Renderer) asset(ref string) string {
	if ref == "" {
		return ""
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.AssetDir, ref)
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (d *doc) header(logo string, s *models.PdfSetting) {
	if logo != "" {
		d.ImageOptions(logo, 15, 12, 30, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		d.SetX(50)
	}
	d.SetFont("Helvetica", "B", 14)
	name := s.CompanyName
	if name == "" {
		name = "Invoice"
	}
	d.CellFormat(0, 7, d.tr(name), "", 1, "R", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	for _, line := range []string{s.CompanyAddress, s.CompanyPhone, s.CompanyEmail} {
		if line = strings.TrimSpace(line); line != "" {
			d.CellFormat(0, 5, d.tr(line), "", 1, "R", false, 0, "")
		}
	}
	d.Ln(8)
}

func (d *doc) pair(label, value string) {
	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(40, 6, d.tr(label), "", 0, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	d.CellFormat(0, 6, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *doc) signature(path string) {
	if path == "" {
		return
	}
	d.Ln(10)
	d.ImageOptions(path, d.GetX(), d.GetY(), 40, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	d.SetFont("Helvetica", "", 8)
	d.CellFormat(40, 5, "Authorised signature", "T", 1, "C", false, 0, "")
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func (r *Renderer) RenderInvoice(inv *models.Invoice, settings *models.PdfSetting) ([]byte, error) {
	if settings == nil {
		settings = &models.PdfSetting{}
	}
	d := r.newDoc("Invoice "+inv.InvoiceNumber, settings)

	d.SetFont("Helvetica", "B", 18)
	d.CellFormat(0, 10, "INVOICE", "", 1, "L", false, 0, "")
	d.pair("Invoice number", inv.InvoiceNumber)
	d.pair("Invoice date", inv.InvoiceDate.Format(dateLayout))
	d.pair("Due date", inv.DueDate.Format(dateLayout))
	d.pair("Status", string(inv.Status))
	if inv.PONumber != "" {
		d.pair("PO number", inv.PONumber)
	}
	if inv.RequestedBy != "" {
		d.pair("Requested by", inv.RequestedBy)
	}
	if inv.DeliveryMethod != "" {
		d.pair("Delivery", inv.DeliveryMethod)
	}
	d.Ln(4)

	customer := inv.CustomerName
	if inv.Organization != "" {
		customer += "\n" + inv.Organization
	}
	y := d.GetY()
	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(90, 6, "Bill to", "", 2, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	d.MultiCell(90, 5, d.tr(strings.TrimSpace(customer+"\n"+inv.BillTo)), "", "L", false)
	billEnd := d.GetY()
	if inv.ShipTo != "" {
		d.SetXY(105, y)
		d.SetFont("Helvetica", "B", 9)
		d.CellFormat(90, 6, "Ship to", "", 2, "L", false, 0, "")
		d.SetFont("Helvetica", "", 9)
		d.MultiCell(90, 5, d.tr(inv.ShipTo), "", "L", false)
		if d.GetY() > billEnd {
			billEnd = d.GetY()
		}
	}
	d.SetXY(15, billEnd)
	d.Ln(6)

	widths := []float64{90, 20, 35, 35}
	d.SetFont("Helvetica", "B", 9)
	d.SetFillColor(235, 235, 235)
	for i, h := range []string{"Description", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		d.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 9)
	for _, item := range inv.Items {
		d.CellFormat(widths[0], 6, d.tr(item.Description), "1", 0, "L", false, 0, "")
		d.CellFormat(widths[1], 6, fmt.Sprint(item.Quantity), "1", 0, "R", false, 0, "")
		d.CellFormat(widths[2], 6, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		d.CellFormat(widths[3], 6, money(item.Amount), "1", 1, "R", false, 0, "")
	}

	d.Ln(2)
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", inv.Subtotal},
		{"Tax", inv.Tax},
		{"Total", inv.Total},
		{"Amount paid", inv.AmountPaid},
		{"Balance due", inv.BalanceRemaining},
	}
	for _, t := range totals {
		style := ""
		if t.label == "Total" || t.label == "Balance due" {
			style = "B"
		}
		d.SetFont("Helvetica", style, 9)
		d.CellFormat(widths[0]+widths[1], 6, "", "", 0, "L", false, 0, "")
		d.CellFormat(widths[2], 6, t.label, "", 0, "R", false, 0, "")
		d.CellFormat(widths[3], 6, money(t.value), "", 1, "R", false, 0, "")
	}

	d.signature(r.asset(settings.SignaturePath))
	return d.bytes()
}

func (r *Renderer) RenderReceipt(p *models.Payment, inv *models.Invoice, settings *models.PdfSetting) ([]byte, error) {
	if settings == nil {
		settings = &models.PdfSetting{}
	}
	d := r.newDoc("Receipt "+p.ReceiptNumber, settings)

	d.SetFont("Helvetica", "B", 18)
	d.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "L", false, 0, "")
	d.pair("Receipt number", p.ReceiptNumber)
	d.pair("Paid at", p.PaidAt.Format(dateLayout+" 15:04"))
	d.pair("Method", strings.ReplaceAll(string(p.PaymentMethod), "_", " "))
	d.Ln(2)
	d.pair("Invoice", inv.InvoiceNumber)
	d.pair("Customer", inv.CustomerName)
	d.pair("Invoice total", money(inv.Total))
	d.Ln(2)

	d.SetFont("Helvetica", "B", 12)
	d.CellFormat(40, 8, "Amount received", "", 0, "L", false, 0, "")
	d.CellFormat(0, 8, money(p.AmountPaid), "", 1, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	d.pair("Total paid to date", money(inv.AmountPaid))
	d.pair("Balance remaining", money(inv.BalanceRemaining))
	if p.Notes != "" {
		d.Ln(2)
		d.SetFont("Helvetica", "I", 9)
		d.MultiCell(0, 5, d.tr(p.Notes), "", "L", false)
	}

	d.signature(r.asset(settings.SignaturePath))
	return d.bytes()
}
