package jobs

import (
	"context"
	"fmt"

	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/rs/zerolog/log"
)

// LowStockSource reports, per pharmacy, how many offers sit at or below
// their alert threshold.
type LowStockSource interface {
	LowStockSummaries(ctx context.Context) ([]*models.LowStockSummary, error)
}

// LowStockAlertService tells pharmacies when offers fall to their alert threshold.
type LowStockAlertService struct {
	offerRepo LowStockSource
	notifier  services.Notifier
}

func NewLowStockAlertService(offerRepo LowStockSource, notifier services.Notifier) *LowStockAlertService {
	return &LowStockAlertService{
		offerRepo: offerRepo,
		notifier:  notifier,
	}
}

// ScanAndNotify sends one SMS per pharmacy with low stock and returns how
// many pharmacies were notified. Pharmacies without a phone are skipped.
func (a *LowStockAlertService) ScanAndNotify(ctx context.Context) (int, error) {
	summaries, err := a.offerRepo.LowStockSummaries(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load low stock summaries: %w", err)
	}

	notified := 0
	for _, s := range summaries {
		if s.ItemCount == 0 || s.Phone == "" {
			continue
		}
		message := fmt.Sprintf("MedAssist: %s has %d item(s) at or below the low stock threshold. Review your inventory to avoid running out.",
			s.PharmacyName, s.ItemCount)
		if err := a.notifier.Send(ctx, s.Phone, message); err != nil {
			log.Error().Err(err).Str("pharmacy_id", s.PharmacyID.String()).Msg("Failed to send low stock alert")
			continue
		}
		notified++
	}

	log.Info().Int("pharmacies", len(summaries)).Int("notified", notified).Msg("Low stock scan completed")
	return notified, nil
}
