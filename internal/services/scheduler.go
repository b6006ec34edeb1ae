package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

// SearchScheduler creates searches and partitions their date ranges into
// provider-safe bundles. Each call is a new unit of work: re-scheduling an
// overlapping range creates an independent search.
type SearchScheduler struct {
	db    *gorm.DB
	queue *BundleQueue
}

// NewSearchScheduler creates a scheduler on an explicit database handle
func NewSearchScheduler(db *gorm.DB, queue *BundleQueue) *SearchScheduler {
	return &SearchScheduler{db: db, queue: queue}
}

// Schedule validates the request, creates a PENDING search with its bundles
// in one transaction, and enqueues the bundles for the worker pool. The
// search (including its uuid) is returned synchronously; extraction is
// asynchronous.
//
// bundleSize overrides the property's max_bundle_size when > 0.
func (s *SearchScheduler) Schedule(propertyID uint, start, end time.Time, bundleSize int) (*models.Search, error) {
	start = models.NormalizeDate(start)
	end = models.NormalizeDate(end)

	if start.IsZero() || end.IsZero() {
		return nil, NewValidationError("date_range", "start_date and end_date are required")
	}
	if end.Before(start) {
		return nil, NewValidationError("date_range", "end_date precedes start_date")
	}
	if bundleSize < 0 {
		return nil, NewValidationError("max_bundle_size", "must be positive")
	}

	var property models.Property
	if err := s.db.First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("property_id", "unknown property")
		}
		return nil, err
	}
	if !property.Active {
		return nil, NewValidationError("property_id", "property is inactive")
	}

	if bundleSize == 0 {
		bundleSize = property.BundleSize()
	}

	search := models.Search{
		UUID:       uuid.New().String(),
		PropertyID: property.ID,
		StartDate:  start,
		EndDate:    end,
		TotalDates: models.DayCount(start, end),
		Status:     models.SearchPending,
	}

	var bundles []models.Bundle
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&search).Error; err != nil {
			return err
		}
		bundles = models.PartitionBundles(search.ID, start, end, bundleSize)
		return tx.Create(&bundles).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range bundles {
		s.queue.Enqueue(bundles[i].ID)
	}

	metrics.SearchesCreatedTotal.Inc()
	metrics.BundlesCreatedTotal.Add(float64(len(bundles)))
	log.Printf("scheduler: search %s created for property %d (%s..%s, %d dates, %d bundles)",
		search.UUID, property.ID, start.Format(models.DateLayout), end.Format(models.DateLayout),
		search.TotalDates, len(bundles))

	return &search, nil
}

// GetByUUID returns the search addressed by uuid
func (s *SearchScheduler) GetByUUID(id string) (*models.Search, error) {
	var search models.Search
	if err := s.db.Where("uuid = ?", id).First(&search).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSearchNotFound
		}
		return nil, err
	}
	return &search, nil
}

// ListByProperty returns the property's most recent searches, newest first
func (s *SearchScheduler) ListByProperty(propertyID uint, limit int) ([]models.Search, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var searches []models.Search
	err := s.db.
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&searches).Error
	return searches, err
}

// Cancel marks a non-terminal search CANCELLED. Cancellation is
// cooperative: unclaimed bundles stop being dequeued, a claimed bundle
// finishes its in-flight date fetch and then stops.
func (s *SearchScheduler) Cancel(id string) (*models.Search, error) {
	search, err := s.GetByUUID(id)
	if err != nil {
		return nil, err
	}
	if search.Status.Terminal() {
		return nil, NewValidationError("status", "search already terminal")
	}

	err = s.db.Model(&models.Search{}).
		Where("id = ? AND status IN ?", search.ID, []models.SearchStatus{models.SearchPending, models.SearchRunning}).
		Update("status", models.SearchCancelled).Error
	if err != nil {
		return nil, err
	}

	metrics.SearchesFinishedTotal.WithLabelValues(string(models.SearchCancelled)).Inc()
	log.Printf("scheduler: search %s cancelled", search.UUID)
	search.Status = models.SearchCancelled
	return search, nil
}
