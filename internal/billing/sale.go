package billing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"invoice-settlement/internal/auth"
	"invoice-settlement/models"
)

// recordSale is the only code path that writes sale rows. The sale price is
// frozen from the invoice total; no cost model exists so cost is zero.
func (s *Service) recordSale(ctx context.Context, tx Tx, inv *models.Invoice, payment *models.Payment) (*models.Sale, error) {
	if _, err := tx.SaleByInvoice(ctx, inv.ID); err == nil {
		return nil, ErrAlreadySettled
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cost := decimal.Zero
	price := round2(inv.Total)
	sale := &models.Sale{
		InvoiceID:      inv.ID,
		PaymentID:      payment.ID,
		TotalCostPrice: cost,
		TotalSalePrice: price,
		Profit:         round2(price.Sub(cost)),
	}
	if err := tx.InsertSale(ctx, sale); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}

	s.log.Info().
		Uint64("invoice_id", inv.ID).
		Uint64("payment_id", payment.ID).
		Str("sale_price", price.StringFixed(2)).
		Msg("sale recorded")
	return sale, nil
}

func (s *Service) GetSale(ctx context.Context, actor auth.Actor, id uint64) (*models.Sale, error) {
	sale, err := s.store.FindSale(ctx, actor, id)
	if err != nil {
		return nil, wrap("get sale", err)
	}
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, actor auth.Actor, f SaleFilter) ([]models.Sale, int64, error) {
	list, total, err := s.store.ListSales(ctx, actor, f)
	if err != nil {
		return nil, 0, wrap("list sales", err)
	}
	return list, total, nil
}

// AmendSale always fails for an existing sale.
func (s *Service) AmendSale(ctx context.Context, actor auth.Actor, id uint64) error {
	if _, err := s.store.FindSale(ctx, actor, id); err != nil {
		return wrap("amend sale", err)
	}
	return wrap("amend sale", ErrSaleImmutable)
}

// DeleteSale always fails for an existing sale.
func (s *Service) DeleteSale(ctx context.Context, actor auth.Actor, id uint64) error {
	if _, err := s.store.FindSale(ctx, actor, id); err != nil {
		return wrap("delete sale", err)
	}
	return wrap("delete sale", ErrSaleImmutable)
}
