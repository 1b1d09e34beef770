package service

import (
	"context"
	"fmt"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/config"
)

// PricingService produces display-only quotes from the static rate table.
// A quote never gates booking validity; missing rates quote as zero.
type PricingService struct {
	catalog  *catalog.Snapshot
	currency string
	rates    map[string]map[string]float64 // zone -> customer type -> day rate
}

func NewPricingService(cat *catalog.Snapshot, cfg config.PricingConfig) *PricingService {
	rates := make(map[string]map[string]float64)
	for _, r := range cfg.Rates {
		if rates[r.ZoneID] == nil {
			rates[r.ZoneID] = make(map[string]float64)
		}
		rates[r.ZoneID][r.CustomerType] = r.DayRate
	}
	return &PricingService{catalog: cat, currency: cfg.Currency, rates: rates}
}

// Quote totals the per-day rate of every selected resource over the given
// days. Customer types without a dedicated rate fall back to the zone's
// default rate (empty customer type).
func (s *PricingService) Quote(_ context.Context, customerType string, resourceIDs []int64, days []time.Time, _ int64) (float64, string, error) {
	resources, err := s.catalog.Select(resourceIDs)
	if err != nil {
		return 0, "", fmt.Errorf("failed to price selection: %w", err)
	}

	var total float64
	for _, r := range resources {
		rate, ok := s.rates[r.ZoneID][customerType]
		if !ok {
			rate = s.rates[r.ZoneID][""]
		}
		for range days {
			total += rate
		}
	}
	return total, s.currency, nil
}
