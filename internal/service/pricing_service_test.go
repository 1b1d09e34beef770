package service

import (
	"context"
	"testing"
	"time"

	"shorebook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		Currency: "EUR",
		Rates: []config.PricingRate{
			{ZoneID: "front", CustomerType: "", DayRate: 20},
			{ZoneID: "front", CustomerType: "hotel_guest", DayRate: 12},
			{ZoneID: "back", CustomerType: "", DayRate: 8},
		},
	}
}

func TestQuote(t *testing.T) {
	svc := NewPricingService(testCatalog(), testPricing())
	days := []time.Time{day("2026-07-05"), day("2026-07-06")}

	t.Run("GuestRate", func(t *testing.T) {
		total, currency, err := svc.Quote(context.Background(), "hotel_guest", []int64{1, 2}, days, 2)
		require.NoError(t, err)
		assert.Equal(t, "EUR", currency)
		assert.Equal(t, 48.0, total) // 2 resources x 2 days x 12
	})

	t.Run("UnknownTypeFallsBackToDefault", func(t *testing.T) {
		total, _, err := svc.Quote(context.Background(), "day_visitor", []int64{1}, days, 1)
		require.NoError(t, err)
		assert.Equal(t, 40.0, total)
	})

	t.Run("MixedZones", func(t *testing.T) {
		total, _, err := svc.Quote(context.Background(), "", []int64{1, 5}, days[:1], 3)
		require.NoError(t, err)
		assert.Equal(t, 28.0, total)
	})

	t.Run("UnknownResource", func(t *testing.T) {
		_, _, err := svc.Quote(context.Background(), "", []int64{404}, days, 1)
		assert.Error(t, err)
	})
}
