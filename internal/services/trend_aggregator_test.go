package services

import (
	"errors"
	"testing"
	"time"

	"github.com/roomradar/rate-shopper/internal/models"
)

func seedPrices(t *testing.T, store *PriceStore, propertyID uint, start time.Time, prices []float64) {
	t.Helper()
	for i, p := range prices {
		if err := store.Record(propertyID, start.AddDate(0, 0, i), p, time.Now(), 1); err != nil {
			t.Fatalf("failed to seed price: %v", err)
		}
	}
}

func TestTrendsUnknownHotel(t *testing.T) {
	db := newTestDB(t)
	aggregator := NewTrendAggregator(db, NewPriceStore(db))

	_, err := aggregator.Trends(999, day(2025, 9, 1), day(2025, 9, 7), 0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown hotel, got %v", err)
	}
}

func TestTrendsInvertedRange(t *testing.T) {
	db := newTestDB(t)
	aggregator := NewTrendAggregator(db, NewPriceStore(db))

	_, err := aggregator.Trends(1, day(2025, 9, 7), day(2025, 9, 1), 0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for inverted range, got %v", err)
	}
}

func TestTrendsNoForecastWhenFutureDaysZero(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	property := seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	seedPrices(t, store, property.ID, day(2025, 9, 1), []float64{100, 110, 120})

	aggregator := NewTrendAggregator(db, store)
	resp, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 5), 0)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	if !resp.HasData {
		t.Error("HasData = false, want true")
	}
	if len(resp.ForecastDates) != 0 {
		t.Errorf("ForecastDates = %v, want none", resp.ForecastDates)
	}
	if len(resp.ChartData) != 3 {
		t.Errorf("ChartData has %d dates, want 3", len(resp.ChartData))
	}
	if len(resp.DateRange) != 5 {
		t.Errorf("DateRange has %d dates, want 5", len(resp.DateRange))
	}
}

func TestTrendsForecastFollowsLastObservedDate(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	property := seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	// Last observed date is Sep 3
	seedPrices(t, store, property.ID, day(2025, 9, 1), []float64{100, 110, 120})

	aggregator := NewTrendAggregator(db, store)
	resp, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 10), 3)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	want := []string{"2025-09-04", "2025-09-05", "2025-09-06"}
	if len(resp.ForecastDates) != len(want) {
		t.Fatalf("ForecastDates = %v, want %v", resp.ForecastDates, want)
	}
	for i, d := range want {
		if resp.ForecastDates[i] != d {
			t.Errorf("ForecastDates[%d] = %s, want %s", i, resp.ForecastDates[i], d)
		}
	}

	// Trailing mean of {100, 110, 120}
	for _, d := range want {
		got := resp.ChartData[d][property.ID]
		if got != 110 {
			t.Errorf("forecast for %s = %.2f, want 110.00", d, got)
		}
	}
}

func TestTrendsForecastNeverOverwritesObserved(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	main := seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	competitor := seedProperty(t, db, 1, models.PlatformExpedia, 7, false)

	// Main stops observing at Sep 2; competitor has real data through Sep 5
	seedPrices(t, store, main.ID, day(2025, 9, 1), []float64{100, 100})
	seedPrices(t, store, competitor.ID, day(2025, 9, 1), []float64{200, 200, 200, 200, 200})

	aggregator := NewTrendAggregator(db, store)
	resp, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 5), 3)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	// Sep 3 holds the main property's forecast and the competitor's
	// observation; the competitor's real price must survive
	if got := resp.ChartData["2025-09-03"][competitor.ID]; got != 200 {
		t.Errorf("competitor price on 2025-09-03 = %.2f, want observed 200.00", got)
	}
	if got := resp.ChartData["2025-09-03"][main.ID]; got != 100 {
		t.Errorf("main forecast on 2025-09-03 = %.2f, want 100.00", got)
	}
}

func TestTrendsPropertyWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	seedProperty(t, db, 1, models.PlatformBooking, 7, true)

	aggregator := NewTrendAggregator(db, store)
	resp, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 5), 7)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if resp.HasData {
		t.Error("HasData = true for a hotel with no observations")
	}
	if len(resp.ChartData) != 0 {
		t.Errorf("ChartData = %v, want empty", resp.ChartData)
	}
	if len(resp.ForecastDates) != 0 {
		t.Errorf("ForecastDates = %v, want none without history", resp.ForecastDates)
	}
}

func TestTrendsMainPropertiesSplit(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	seedProperty(t, db, 1, models.PlatformExpedia, 7, false)
	seedProperty(t, db, 1, models.PlatformDirect, 7, false)

	aggregator := NewTrendAggregator(db, store)
	resp, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 2), 0)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if len(resp.Properties) != 3 {
		t.Errorf("Properties = %d, want 3", len(resp.Properties))
	}
	if len(resp.MainProperties) != 1 {
		t.Errorf("MainProperties = %d, want 1", len(resp.MainProperties))
	}
}

func TestTrendsCacheServesRepeatQuery(t *testing.T) {
	db := newTestDB(t)
	store := NewPriceStore(db)
	property := seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	seedPrices(t, store, property.ID, day(2025, 9, 1), []float64{100})

	aggregator := NewTrendAggregator(db, store)
	first, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 3), 0)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	// New observation lands, but the cached response is still served
	seedPrices(t, store, property.ID, day(2025, 9, 2), []float64{999})

	second, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 3), 0)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if second != first {
		t.Error("expected cached response pointer on repeat query")
	}

	aggregator.InvalidateCache()
	third, err := aggregator.Trends(1, day(2025, 9, 1), day(2025, 9, 3), 0)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if _, ok := third.ChartData["2025-09-02"]; !ok {
		t.Error("expected fresh build after InvalidateCache to include new observation")
	}
}
