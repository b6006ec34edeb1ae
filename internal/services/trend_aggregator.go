package services

import (
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

const (
	// forecastWindow is how many recent observations feed the forecast mean
	forecastWindow = 7

	// trendCacheSize bounds the LRU of built responses
	trendCacheSize = 128

	// trendCacheTTL keeps cached responses short-lived: extraction may be
	// appending observations while dashboards poll
	trendCacheTTL = 5 * time.Minute
)

// TrendAggregator builds dashboard time series: latest-snapshot history for
// a hotel's main and competitor properties, extended with forecast points
// past the last observed date. Reads are lock-free range queries over
// committed rows and may run while extraction is still filling the range.
type TrendAggregator struct {
	db    *gorm.DB
	store *PriceStore
	cache *lru.Cache[string, trendCacheEntry]
}

type trendCacheEntry struct {
	resp    *models.TrendResponse
	builtAt time.Time
}

// NewTrendAggregator creates an aggregator with an LRU response cache
func NewTrendAggregator(db *gorm.DB, store *PriceStore) *TrendAggregator {
	cache, _ := lru.New[string, trendCacheEntry](trendCacheSize)
	return &TrendAggregator{db: db, store: store, cache: cache}
}

// Trends builds the chart payload for a hotel over [start, end], appending
// up to futureDays forecast points per property beyond that property's last
// observed date. A hotel with zero observations gets an explicit no-data
// response, not an error.
func (a *TrendAggregator) Trends(hotelID uint, start, end time.Time, futureDays int) (*models.TrendResponse, error) {
	start = models.NormalizeDate(start)
	end = models.NormalizeDate(end)

	if end.Before(start) {
		return nil, NewValidationError("date_range", "end_date precedes start_date")
	}
	if futureDays < 0 {
		return nil, NewValidationError("future_days", "must be >= 0")
	}

	key := fmt.Sprintf("%d|%s|%s|%d", hotelID, start.Format(models.DateLayout), end.Format(models.DateLayout), futureDays)
	if entry, ok := a.cache.Get(key); ok && time.Since(entry.builtAt) < trendCacheTTL {
		metrics.TrendQueriesTotal.WithLabelValues("hit").Inc()
		return entry.resp, nil
	}
	metrics.TrendQueriesTotal.WithLabelValues("miss").Inc()

	buildStart := time.Now()

	var properties []models.Property
	err := a.db.Where("hotel_id = ?", hotelID).Order("is_main_property DESC, id").Find(&properties).Error
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, NewValidationError("hotel_id", "unknown hotel")
	}

	resp := &models.TrendResponse{
		ChartData:  make(map[string]map[uint]float64),
		Properties: properties,
	}
	for _, p := range properties {
		if p.IsMainProperty {
			resp.MainProperties = append(resp.MainProperties, p)
		}
	}

	forecastSet := make(map[string]bool)
	for i := range properties {
		points, err := a.propertySeries(&properties[i], start, end, futureDays)
		if err != nil {
			return nil, err
		}
		for _, pt := range points {
			row, ok := resp.ChartData[pt.Date]
			if !ok {
				row = make(map[uint]float64)
				resp.ChartData[pt.Date] = row
			}
			// Forecasts never overwrite an observed value
			if _, exists := row[pt.PropertyID]; exists && pt.IsForecast {
				continue
			}
			row[pt.PropertyID] = pt.Price
			if pt.IsForecast {
				forecastSet[pt.Date] = true
			} else {
				resp.HasData = true
			}
		}
	}

	for _, d := range models.DatesBetween(start, end) {
		resp.DateRange = append(resp.DateRange, d.Format(models.DateLayout))
	}
	for d := range forecastSet {
		resp.ForecastDates = append(resp.ForecastDates, d)
	}
	sort.Strings(resp.ForecastDates)

	metrics.TrendBuildDuration.Observe(time.Since(buildStart).Seconds())
	a.cache.Add(key, trendCacheEntry{resp: resp, builtAt: time.Now()})
	return resp, nil
}

// propertySeries builds one property's points: observed latest-snapshot
// values in range, then up to futureDays forecast points beyond the
// property's last observed date. A property with no history contributes
// nothing; callers render the empty series.
func (a *TrendAggregator) propertySeries(property *models.Property, start, end time.Time, futureDays int) ([]models.TrendPoint, error) {
	observed, err := a.store.LatestByDate(property.ID, start, end)
	if err != nil {
		return nil, err
	}

	var points []models.TrendPoint
	for date, price := range observed {
		points = append(points, models.TrendPoint{
			Date:       date,
			PropertyID: property.ID,
			Price:      price,
		})
	}

	if futureDays == 0 {
		return points, nil
	}

	lastObserved, err := a.store.LastObservedDate(property.ID)
	if err != nil {
		return nil, err
	}
	if lastObserved.IsZero() {
		return points, nil // No history, nothing to extrapolate from
	}

	forecast, ok := a.forecastValue(property.ID)
	if !ok {
		return points, nil
	}

	for i := 1; i <= futureDays; i++ {
		d := lastObserved.AddDate(0, 0, i)
		points = append(points, models.TrendPoint{
			Date:       d.Format(models.DateLayout),
			PropertyID: property.ID,
			Price:      forecast,
			IsForecast: true,
		})
	}
	return points, nil
}

// forecastValue is a trailing-window mean over the property's most recent
// observations. Deliberately simple; the flag on the point is what matters
// to the dashboard.
func (a *TrendAggregator) forecastValue(propertyID uint) (float64, bool) {
	recent, err := a.store.RecentObservations(propertyID, forecastWindow)
	if err != nil || len(recent) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, p := range recent {
		sum += p
	}
	return sum / float64(len(recent)), true
}

// InvalidateCache drops all cached responses. The schedule service calls
// this after pruning.
func (a *TrendAggregator) InvalidateCache() {
	a.cache.Purge()
}
