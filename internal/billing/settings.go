package billing

import (
	"context"

	"invoice-settlement/models"
)

func (s *Service) PdfSettings(ctx context.Context) (*models.PdfSetting, error) {
	settings, err := s.store.PdfSettings(ctx)
	if err != nil {
		return nil, wrap("pdf settings", err)
	}
	return settings, nil
}

func (s *Service) SavePdfSettings(ctx context.Context, settings *models.PdfSetting) error {
	return wrap("save pdf settings", s.store.SavePdfSettings(ctx, settings))
}
