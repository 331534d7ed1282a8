package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"invoice-settlement/internal/auth"
	"invoice-settlement/models"
)

type PaymentInput struct {
	InvoiceID uint64
	Amount    decimal.Decimal
	Method    models.PaymentMethodType
	Notes     string
}

func (in PaymentInput) validate() error {
	v := ValidationErrors{}
	if in.InvoiceID == 0 {
		v.Add("invoice_id", "invoice is required")
	}
	switch amount := round2(in.Amount); {
	case !amount.IsPositive():
		v.Add("amount_paid", "amount must be at least 0.01")
	case tooLarge(amount):
		v.Add("amount_paid", "amount is too large")
	}
	if !in.Method.Valid() {
		v.Add("payment_method", "payment method must be one of cash, transfer, mobile_money, card")
	}
	return v.Err()
}

// Settlement is the outcome of one recorded payment. Sale is set only when
// this payment completed the invoice.
type Settlement struct {
	Payment *models.Payment `json:"payment"`
	Invoice *models.Invoice `json:"invoice"`
	Sale    *models.Sale    `json:"sale,omitempty"`
}

// RecordPayment applies a payment to an invoice under the invoice row lock.
// Amounts above the outstanding balance are capped to it. The payment that
// brings the balance to zero completes the invoice and records its sale.
func (s *Service) RecordPayment(ctx context.Context, actor auth.Actor, in PaymentInput) (*Settlement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	out := &Settlement{}
	err := s.store.InTx(ctx, func(tx Tx) error {
		inv, err := tx.LockInvoice(ctx, actor, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusCompleted {
			return ErrAlreadyPaid
		}

		balance := round2(inv.BalanceRemaining)
		applied := decimal.Min(round2(in.Amount), balance)
		now := s.now()

		payment := &models.Payment{
			InvoiceID:     inv.ID,
			AmountPaid:    applied,
			PaymentMethod: in.Method,
			PaidAt:        now,
			CreatedBy:     actor.UserID,
			Notes:         in.Notes,
		}
		_, err = s.receiptNumbers.Allocate(ctx, tx.ReceiptNumberTaken, func(candidate string) error {
			payment.ID = 0
			payment.ReceiptNumber = candidate
			return tx.InsertPayment(ctx, payment)
		})
		if err != nil {
			return err
		}

		inv.AmountPaid = round2(inv.AmountPaid.Add(applied))
		inv.BalanceRemaining = round2(balance.Sub(applied))
		if !inv.BalanceRemaining.IsPositive() {
			inv.BalanceRemaining = decimal.Zero
			inv.Status = models.InvoiceStatusCompleted
			inv.PaidAt = &now
		} else {
			inv.Status = models.InvoiceStatusDue
			inv.PaidAt = nil
		}
		if err := tx.UpdateSettlement(ctx, inv); err != nil {
			return err
		}

		if inv.Status == models.InvoiceStatusCompleted {
			sale, err := s.recordSale(ctx, tx, inv, payment)
			if err != nil {
				return err
			}
			out.Sale = sale
		}

		out.Payment = payment
		out.Invoice, err = tx.ReloadInvoice(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, wrap("record payment", err)
	}

	s.log.Info().
		Uint64("invoice_id", out.Invoice.ID).
		Str("receipt_number", out.Payment.ReceiptNumber).
		Str("requested", in.Amount.StringFixed(2)).
		Str("applied", out.Payment.AmountPaid.StringFixed(2)).
		Str("balance", out.Invoice.BalanceRemaining.StringFixed(2)).
		Str("status", string(out.Invoice.Status)).
		Uint64("actor_id", actor.UserID).
		Msg("payment applied")
	return out, nil
}

func (s *Service) GetPayment(ctx context.Context, actor auth.Actor, id uint64) (*models.Payment, error) {
	p, err := s.store.FindPayment(ctx, actor, id)
	if err != nil {
		return nil, wrap("get payment", err)
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, actor auth.Actor, f PaymentFilter) ([]models.Payment, int64, error) {
	list, total, err := s.store.ListPayments(ctx, actor, f)
	if err != nil {
		return nil, 0, wrap("list payments", err)
	}
	return list, total, nil
}

// SearchPayableInvoices finds the actor's invoices that still carry a balance.
func (s *Service) SearchPayableInvoices(ctx context.Context, actor auth.Actor, query string, limit int) ([]models.Invoice, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	list, err := s.store.SearchOpenInvoices(ctx, actor, query, limit)
	if err != nil {
		return nil, wrap("search invoices", err)
	}
	return list, nil
}

// Receipt bundles what a printed receipt shows.
type Receipt struct {
	Payment  *models.Payment    `json:"payment"`
	Invoice  *models.Invoice    `json:"invoice"`
	Settings *models.PdfSetting `json:"settings"`
}

func (s *Service) Receipt(ctx context.Context, actor auth.Actor, paymentID uint64) (*Receipt, error) {
	p, err := s.store.FindPayment(ctx, actor, paymentID)
	if err != nil {
		return nil, wrap("receipt", err)
	}
	inv, err := s.store.FindInvoice(ctx, actor, p.InvoiceID)
	if err != nil {
		return nil, wrap("receipt", err)
	}
	settings, err := s.store.PdfSettings(ctx)
	if err != nil {
		return nil, wrap("receipt", err)
	}
	return &Receipt{Payment: p, Invoice: inv, Settings: settings}, nil
}

// ReceiptPDF renders the receipt on demand; it is never stored.
func (s *Service) ReceiptPDF(ctx context.Context, actor auth.Actor, paymentID uint64) (*Receipt, []byte, error) {
	r, err := s.Receipt(ctx, actor, paymentID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.renderer.RenderReceipt(r.Payment, r.Invoice, r.Settings)
	if err != nil {
		return nil, nil, wrap("receipt pdf", err)
	}
	return r, doc, nil
}
