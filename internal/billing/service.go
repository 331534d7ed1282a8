// Package billing implements the invoice settlement engine: invoice creation,
// payment application, one-time sale snapshots and document rendering.
package billing

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoice-settlement/internal/logger"
)

type Service struct {
	store     Store
	renderer  Renderer
	artifacts Artifacts

	invoiceNumbers *Generator
	receiptNumbers *Generator

	now func() time.Time
	log zerolog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.invoiceNumbers.Now = now
		s.receiptNumbers.Now = now
	}
}

func WithGenerators(invoices, receipts *Generator) Option {
	return func(s *Service) {
		s.invoiceNumbers = invoices
		s.receiptNumbers = receipts
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, renderer Renderer, artifacts Artifacts, opts ...Option) *Service {
	s := &Service{
		store:          store,
		renderer:       renderer,
		artifacts:      artifacts,
		invoiceNumbers: NewGenerator("INV", DefaultMaxAttempts),
		receiptNumbers: NewGenerator("RCP", DefaultMaxAttempts),
		now:            time.Now,
		log:            logger.WithComponent("billing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxAmount is the smallest value a decimal(15,2) column cannot hold.
var maxAmount = decimal.New(1, 13)

// round2 rounds half away from zero to cents.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func tooLarge(d decimal.Decimal) bool {
	return round2(d).Abs().GreaterThanOrEqual(maxAmount)
}
