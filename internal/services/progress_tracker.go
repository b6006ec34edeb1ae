package services

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

// ProgressTracker owns every Search and Bundle status transition. Workers
// running different bundles of the same search mutate shared progress
// counters, so all updates here are serialized: counters advance through
// atomic SQL increments and the terminal-state check runs under a lock to
// rule out lost updates and premature transitions.
type ProgressTracker struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewProgressTracker creates a tracker on an explicit database handle
func NewProgressTracker(db *gorm.DB) *ProgressTracker {
	return &ProgressTracker{db: db}
}

// ClaimBundle atomically claims a PENDING bundle for one worker. Returns
// nil when the bundle was already claimed or its search is cancelled, which
// is how cancellation stops new dequeues.
func (t *ProgressTracker) ClaimBundle(bundleID uint) (*models.Bundle, *models.Search, error) {
	var bundle models.Bundle
	if err := t.db.First(&bundle, bundleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var search models.Search
	if err := t.db.Preload("Property").First(&search, bundle.SearchID).Error; err != nil {
		return nil, nil, err
	}
	if search.Status == models.SearchCancelled {
		return nil, nil, nil
	}

	// Claim: exactly one worker flips PENDING -> RUNNING
	result := t.db.Model(&models.Bundle{}).
		Where("id = ? AND status = ?", bundleID, models.BundlePending).
		Update("status", models.BundleRunning)
	if result.Error != nil {
		return nil, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil, nil // Someone else got it
	}
	bundle.Status = models.BundleRunning

	// First bundle to start moves the search PENDING -> RUNNING
	t.db.Model(&models.Search{}).
		Where("id = ? AND status = ?", search.ID, models.SearchPending).
		Update("status", models.SearchRunning)

	return &bundle, &search, nil
}

// SearchCancelled reports whether the search has been cancelled. Workers
// check between date fetches; an in-flight fetch finishes, no new one
// starts.
func (t *ProgressTracker) SearchCancelled(searchID uint) bool {
	var status models.SearchStatus
	err := t.db.Model(&models.Search{}).
		Select("status").
		Where("id = ?", searchID).
		Scan(&status).Error
	if err != nil {
		return false
	}
	return status == models.SearchCancelled
}

// RecordDateOutcome advances the search's progress for one terminal date
// outcome. processed_dates only moves forward, never back; the increment is
// a SQL expression so concurrent bundles can't lose updates.
func (t *ProgressTracker) RecordDateOutcome(searchID uint, succeeded bool) error {
	// MIN caps the counters at total_dates: a bundle re-run after crash
	// recovery revisits dates it already counted, and progress must never
	// exceed the total.
	updates := map[string]interface{}{
		"processed_dates": gorm.Expr("MIN(processed_dates + 1, total_dates)"),
	}
	if succeeded {
		updates["succeeded_dates"] = gorm.Expr("MIN(succeeded_dates + 1, total_dates)")
	}
	return t.db.Model(&models.Search{}).Where("id = ?", searchID).Updates(updates).Error
}

// FinishBundle marks a bundle terminal (COMPLETED, or FAILED when every
// date in it failed) and, if it was the last outstanding bundle of a live
// search, derives and applies the search's terminal state.
func (t *ProgressTracker) FinishBundle(bundle *models.Bundle, allDatesFailed bool) error {
	status := models.BundleCompleted
	if allDatesFailed {
		status = models.BundleFailed
	}
	if err := t.db.Model(bundle).Update("status", status).Error; err != nil {
		return err
	}
	bundle.Status = status

	return t.finalizeSearchIfDone(bundle.SearchID)
}

// finalizeSearchIfDone transitions the search to COMPLETED/PARTIAL/FAILED
// once no bundle remains outstanding. Serialized so two workers finishing
// their last bundles simultaneously can't both (or neither) finalize.
func (t *ProgressTracker) finalizeSearchIfDone(searchID uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var outstanding int64
	err := t.db.Model(&models.Bundle{}).
		Where("search_id = ? AND status IN ?", searchID,
			[]models.BundleStatus{models.BundlePending, models.BundleRunning}).
		Count(&outstanding).Error
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return nil
	}

	var search models.Search
	if err := t.db.First(&search, searchID).Error; err != nil {
		return err
	}
	if search.Status.Terminal() {
		return nil // Cancelled, or already finalized
	}

	terminal := models.TerminalSearchStatus(search.SucceededDates, search.TotalDates)
	err = t.db.Model(&models.Search{}).
		Where("id = ? AND status = ?", searchID, models.SearchRunning).
		Update("status", terminal).Error
	if err != nil {
		return err
	}

	metrics.SearchesFinishedTotal.WithLabelValues(string(terminal)).Inc()
	log.Printf("progress: search %s finished %s (%d/%d dates succeeded)",
		search.UUID, terminal, search.SucceededDates, search.TotalDates)
	return nil
}

// AbandonBundle marks a bundle FAILED when its search was cancelled before
// all of its dates were processed. The search is already terminal, so no
// finalization runs; this only keeps the bundle ledger truthful instead of
// leaving the row RUNNING forever.
func (t *ProgressTracker) AbandonBundle(bundle *models.Bundle) error {
	if err := t.db.Model(bundle).Update("status", models.BundleFailed).Error; err != nil {
		return err
	}
	bundle.Status = models.BundleFailed
	return nil
}

// BumpRetry increments a bundle's retry counter
func (t *ProgressTracker) BumpRetry(bundleID uint) {
	t.db.Model(&models.Bundle{}).
		Where("id = ?", bundleID).
		Update("retry_count", gorm.Expr("retry_count + 1"))
}
