package billing

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"invoice-settlement/internal/auth"
	"invoice-settlement/models"
)

type InvoiceInput struct {
	InvoiceNumber  string
	CustomerName   string
	Organization   string
	BillTo         string
	ShipTo         string
	PONumber       string
	RequestedBy    string
	DeliveryMethod string
	InvoiceDate    time.Time
	DueDate        time.Time
	Tax            decimal.Decimal
	Items          []ItemInput
}

type ItemInput struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// MaxQuantity bounds a single line so its amount stays within column range.
const MaxQuantity = 1_000_000

// invoiceNumberPattern also keeps the number safe to use in artifact names.
var invoiceNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

func (in InvoiceInput) validate() error {
	v := ValidationErrors{}
	if n := strings.TrimSpace(in.InvoiceNumber); n != "" && !invoiceNumberPattern.MatchString(n) {
		v.Add("invoice_number", "invoice number must be at most 32 letters, digits, dashes or underscores")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		v.Add("customer_name", "customer name is required")
	}
	for _, f := range []struct {
		field string
		value string
		max   int
	}{
		{"customer_name", strings.TrimSpace(in.CustomerName), 255},
		{"organization", in.Organization, 255},
		{"po_number", in.PONumber, 64},
		{"requested_by", in.RequestedBy, 255},
		{"delivery_method", in.DeliveryMethod, 64},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			v.Add(f.field, f.field+" must be at most "+strconv.Itoa(f.max)+" characters")
		}
	}
	if in.InvoiceDate.IsZero() {
		v.Add("invoice_date", "invoice date is required")
	}
	if in.DueDate.IsZero() {
		v.Add("due_date", "due date is required")
	}
	if !in.InvoiceDate.IsZero() && !in.DueDate.IsZero() && in.DueDate.Before(in.InvoiceDate) {
		v.Add("due_date", "due date must be on or after the invoice date")
	}
	if in.Tax.IsNegative() {
		v.Add("tax", "tax must not be negative")
	} else if tooLarge(in.Tax) {
		v.Add("tax", "tax is too large")
	}
	if len(in.Items) == 0 {
		v.Add("items", "at least one item is required")
	}
	total := round2(in.Tax)
	for i, item := range in.Items {
		field := "items." + strconv.Itoa(i)
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			v.Add(field+".description", "description is required")
		} else if utf8.RuneCountInString(desc) > 500 {
			v.Add(field+".description", "description must be at most 500 characters")
		}
		if item.Quantity < 1 {
			v.Add(field+".quantity", "quantity must be at least 1")
		} else if item.Quantity > MaxQuantity {
			v.Add(field+".quantity", "quantity must be at most "+strconv.Itoa(MaxQuantity))
		}
		if item.UnitPrice.IsNegative() {
			v.Add(field+".unit_price", "unit price must not be negative")
		} else if tooLarge(item.UnitPrice) {
			v.Add(field+".unit_price", "unit price is too large")
		}
		total = total.Add(round2(round2(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	if _, bad := v["items"]; !bad && tooLarge(total) {
		v.Add("items", "invoice total is too large")
	}
	return v.Err()
}

// buildInvoice computes the line amounts and totals of a new pending invoice.
func buildInvoice(in InvoiceInput, actor auth.Actor) *models.Invoice {
	inv := &models.Invoice{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		Organization:    in.Organization,
		BillTo:          in.BillTo,
		ShipTo:          in.ShipTo,
		PONumber:        in.PONumber,
		RequestedBy:     in.RequestedBy,
		DeliveryMethod:  in.DeliveryMethod,
		InvoiceDate:     in.InvoiceDate,
		DueDate:         in.DueDate,
		Tax:             round2(in.Tax),
		Status:          models.InvoiceStatusPending,
		CreatedByUserID: actor.UserID,
	}
	subtotal := decimal.Zero
	for _, item := range in.Items {
		unit := round2(item.UnitPrice)
		amount := round2(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			Amount:      amount,
		})
		subtotal = subtotal.Add(amount)
	}
	inv.Subtotal = round2(subtotal)
	inv.Total = round2(inv.Subtotal.Add(inv.Tax))
	inv.AmountPaid = decimal.Zero
	inv.BalanceRemaining = inv.Total
	return inv
}

// CreateInvoice validates and stores a new invoice, renders its PDF and
// records the artifact reference. Nothing persists unless every step succeeds.
func (s *Service) CreateInvoice(ctx context.Context, actor auth.Actor, in InvoiceInput) (*models.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	inv := buildInvoice(in, actor)

	var saved string
	var created *models.Invoice
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := s.insertWithNumber(ctx, tx, inv, strings.TrimSpace(in.InvoiceNumber)); err != nil {
			return err
		}
		settings, err := tx.PdfSettings(ctx)
		if err != nil {
			return err
		}
		doc, err := s.renderer.RenderInvoice(inv, settings)
		if err != nil {
			return err
		}
		saved, err = s.artifacts.Save(ctx, invoiceArtifactName(inv), doc)
		if err != nil {
			return err
		}
		if err := tx.SetInvoicePdfPath(ctx, inv.ID, saved); err != nil {
			return err
		}
		created, err = tx.ReloadInvoice(ctx, inv.ID)
		return err
	})
	if err != nil {
		if saved != "" {
			if rmErr := s.artifacts.Remove(ctx, saved); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("artifact", saved).Msg("orphaned invoice pdf")
			}
		}
		return nil, wrap("create invoice", err)
	}

	s.log.Info().
		Uint64("invoice_id", created.ID).
		Str("invoice_number", created.InvoiceNumber).
		Str("total", created.Total.StringFixed(2)).
		Uint64("actor_id", actor.UserID).
		Msg("invoice created")
	return created, nil
}

// insertWithNumber honours a requested number when it is free and otherwise
// allocates one.
func (s *Service) insertWithNumber(ctx context.Context, tx Tx, inv *models.Invoice, requested string) error {
	if requested != "" {
		taken, err := tx.InvoiceNumberTaken(ctx, requested)
		if err != nil {
			return err
		}
		if !taken {
			inv.InvoiceNumber = requested
			err := tx.InsertInvoice(ctx, inv)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrDuplicate) {
				return err
			}
			resetInvoiceIDs(inv)
		}
	}
	_, err := s.invoiceNumbers.Allocate(ctx, tx.InvoiceNumberTaken, func(candidate string) error {
		inv.InvoiceNumber = candidate
		err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			resetInvoiceIDs(inv)
		}
		return err
	})
	return err
}

func resetInvoiceIDs(inv *models.Invoice) {
	inv.ID = 0
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = 0
	}
}

// DeleteInvoice removes an invoice with its items and payments. An invoice
// referenced by a sale is left untouched and ErrHasDependents is returned.
func (s *Service) DeleteInvoice(ctx context.Context, actor auth.Actor, id uint64) error {
	var pdfPath string
	err := s.store.InTx(ctx, func(tx Tx) error {
		inv, err := tx.LockInvoice(ctx, actor, id)
		if err != nil {
			return err
		}
		_, err = tx.SaleByInvoice(ctx, inv.ID)
		switch {
		case err == nil:
			return ErrHasDependents
		case !errors.Is(err, ErrNotFound):
			return err
		}
		if err := tx.DeleteInvoice(ctx, inv.ID); err != nil {
			return err
		}
		pdfPath = inv.PdfPath
		return nil
	})
	if err != nil {
		return wrap("delete invoice", err)
	}
	if pdfPath != "" {
		if err := s.artifacts.Remove(ctx, pdfPath); err != nil {
			s.log.Warn().Err(err).Str("artifact", pdfPath).Msg("could not remove invoice pdf")
		}
	}
	s.log.Info().Uint64("invoice_id", id).Uint64("actor_id", actor.UserID).Msg("invoice deleted")
	return nil
}

func (s *Service) GetInvoice(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, error) {
	inv, err := s.store.FindInvoice(ctx, actor, id)
	if err != nil {
		return nil, wrap("get invoice", err)
	}
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, actor auth.Actor, f InvoiceFilter) ([]models.Invoice, int64, error) {
	list, total, err := s.store.ListInvoices(ctx, actor, f)
	if err != nil {
		return nil, 0, wrap("list invoices", err)
	}
	return list, total, nil
}

// NextInvoiceNumber previews a number that is free right now. It is not reserved.
func (s *Service) NextInvoiceNumber(ctx context.Context) (string, error) {
	n, err := s.invoiceNumbers.Allocate(ctx, s.store.InvoiceNumberTaken, nil)
	if err != nil {
		return "", wrap("next invoice number", err)
	}
	return n, nil
}

// InvoicePDF renders the invoice again from its current data and refreshes
// the stored artifact.
func (s *Service) InvoicePDF(ctx context.Context, actor auth.Actor, id uint64) (*models.Invoice, []byte, error) {
	inv, err := s.store.FindInvoice(ctx, actor, id)
	if err != nil {
		return nil, nil, wrap("invoice pdf", err)
	}
	settings, err := s.store.PdfSettings(ctx)
	if err != nil {
		return nil, nil, wrap("invoice pdf", err)
	}
	doc, err := s.renderer.RenderInvoice(inv, settings)
	if err != nil {
		return nil, nil, wrap("invoice pdf", err)
	}
	ref, err := s.artifacts.Save(ctx, invoiceArtifactName(inv), doc)
	if err != nil {
		return nil, nil, wrap("invoice pdf", err)
	}
	if ref != inv.PdfPath {
		err := s.store.InTx(ctx, func(tx Tx) error {
			return tx.SetInvoicePdfPath(ctx, inv.ID, ref)
		})
		if err != nil {
			return nil, nil, wrap("invoice pdf", err)
		}
		inv.PdfPath = ref
	}
	return inv, doc, nil
}

func invoiceArtifactName(inv *models.Invoice) string {
	return "invoices/" + inv.InvoiceNumber + ".pdf"
}
