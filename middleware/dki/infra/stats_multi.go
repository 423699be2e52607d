package infra

import (
	"context"
	"errors"

	"dki-gateway/middleware/dki/domain"
)

// MultiStatsStore repassa cada evento para todas as stores.
// Todas são chamadas mesmo se alguma falhar; os erros são agregados.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.RewriteEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
