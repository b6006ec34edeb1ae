package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

// PriceStore is the persistence and query layer for extracted prices.
// Writes are append-only: a new observation for a (property, date) pair
// never overwrites prior ones, so volatility analysis keeps its time series.
type PriceStore struct {
	db *gorm.DB
}

// NewPriceStore creates a price store on an explicit database handle
func NewPriceStore(db *gorm.DB) *PriceStore {
	return &PriceStore{db: db}
}

// Record appends one price observation
func (s *PriceStore) Record(propertyID uint, checkIn time.Time, price float64, scrapedAt time.Time, searchID uint) error {
	record := models.PriceRecord{
		PropertyID:  propertyID,
		CheckInDate: models.NormalizeDate(checkIn),
		Price:       price,
		ScrapedAt:   scrapedAt,
		SearchID:    searchID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("record price for property %d on %s: %w",
			propertyID, checkIn.Format(models.DateLayout), err)
	}
	metrics.PriceRecordsTotal.Inc()
	return nil
}

// Prices runs a range query over [start, end] for one property. History mode
// returns every observation per date ordered by scraped_at; latest mode
// returns only the newest observation per date.
func (s *PriceStore) Prices(propertyID uint, start, end time.Time, mode models.PriceQueryMode) ([]models.PriceRecord, error) {
	start = models.NormalizeDate(start)
	end = models.NormalizeDate(end)

	if mode == models.PriceQueryLatest {
		// Newest scraped_at wins per date, ties broken by insert order
		var records []models.PriceRecord
		err := s.db.Raw(`
			SELECT pr.* FROM price_records pr
			WHERE pr.property_id = ? AND pr.check_in_date >= ? AND pr.check_in_date <= ?
			AND pr.id = (
				SELECT pr2.id FROM price_records pr2
				WHERE pr2.property_id = pr.property_id AND pr2.check_in_date = pr.check_in_date
				ORDER BY pr2.scraped_at DESC, pr2.id DESC
				LIMIT 1
			)
			ORDER BY pr.check_in_date
		`, propertyID, start, end).Scan(&records).Error
		if err != nil {
			return nil, fmt.Errorf("latest prices for property %d: %w", propertyID, err)
		}
		return records, nil
	}

	var records []models.PriceRecord
	err := s.db.
		Where("property_id = ? AND check_in_date >= ? AND check_in_date <= ?", propertyID, start, end).
		Order("check_in_date, scraped_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("price history for property %d: %w", propertyID, err)
	}
	return records, nil
}

// LatestByDate returns the latest-snapshot price for each date in range,
// keyed by date string. Missing dates are simply absent; readers running
// alongside extraction must tolerate a partially populated range.
func (s *PriceStore) LatestByDate(propertyID uint, start, end time.Time) (map[string]float64, error) {
	records, err := s.Prices(propertyID, start, end, models.PriceQueryLatest)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(records))
	for _, r := range records {
		out[r.CheckInDate.Format(models.DateLayout)] = r.Price
	}
	return out, nil
}

// LastObservedDate returns the newest check-in date with any observation for
// the property, or a zero time when the property has no data at all.
func (s *PriceStore) LastObservedDate(propertyID uint) (time.Time, error) {
	var record models.PriceRecord
	err := s.db.
		Where("property_id = ?", propertyID).
		Order("check_in_date DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return models.NormalizeDate(record.CheckInDate), nil
}

// RecentObservations returns the latest-snapshot prices for the property's
// most recent n observed dates, oldest first. This is the forecast window.
func (s *PriceStore) RecentObservations(propertyID uint, n int) ([]float64, error) {
	var records []models.PriceRecord
	err := s.db.Raw(`
		SELECT pr.* FROM price_records pr
		WHERE pr.property_id = ?
		AND pr.id = (
			SELECT pr2.id FROM price_records pr2
			WHERE pr2.property_id = pr.property_id AND pr2.check_in_date = pr.check_in_date
			ORDER BY pr2.scraped_at DESC, pr2.id DESC
			LIMIT 1
		)
		ORDER BY pr.check_in_date DESC
		LIMIT ?
	`, propertyID, n).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("recent observations for property %d: %w", propertyID, err)
	}

	// Reverse into chronological order
	prices := make([]float64, len(records))
	for i, r := range records {
		prices[len(records)-1-i] = r.Price
	}
	return prices, nil
}

// PruneBefore removes observations scraped before the cutoff. Retention is a
// deployment decision; by default nothing is ever pruned.
func (s *PriceStore) PruneBefore(cutoff time.Time) (int64, error) {
	result := s.db.Where("scraped_at < ?", cutoff).Delete(&models.PriceRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune price records: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.PriceRecordsPrunedTotal.Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}
