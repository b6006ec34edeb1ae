package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

// Constants for worker pool configuration
const (
	// defaultWorkerCount bounds how many bundles run in parallel
	defaultWorkerCount = 4

	// defaultMaxAttempts is tries per date: first attempt plus retries
	defaultMaxAttempts = 3

	// idlePoll is the fallback wakeup when the queue signal is missed
	idlePoll = 5 * time.Second
)

// WorkerConfig tunes the extraction pool
type WorkerConfig struct {
	WorkerCount int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ExtractionWorker is the bounded pool that drains the bundle queue. One
// worker owns one bundle at a time; bundles for different properties run in
// parallel, while date fetches against a single property are serialized to
// respect platform politeness.
type ExtractionWorker struct {
	db       *gorm.DB
	store    *PriceStore
	tracker  *ProgressTracker
	queue    *BundleQueue
	registry *ExtractorRegistry
	cfg      WorkerConfig

	mu                  sync.RWMutex
	datesExtractedToday int
	lastBundleTime      time.Time
	lastStatsDay        time.Time

	// One lock per property keeps at most one in-flight fetch per property
	propMu        sync.Mutex
	propertyLocks map[uint]*sync.Mutex
}

// ExtractionStatus is the worker-pool status surface
type ExtractionStatus struct {
	QueueDepth          int       `json:"queue_depth"`
	WorkerCount         int       `json:"worker_count"`
	DatesExtractedToday int       `json:"dates_extracted_today"`
	LastBundleTime      time.Time `json:"last_bundle_time"`
}

// NewExtractionWorker creates the worker pool
func NewExtractionWorker(db *gorm.DB, store *PriceStore, tracker *ProgressTracker, queue *BundleQueue, registry *ExtractorRegistry, cfg WorkerConfig) *ExtractionWorker {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	return &ExtractionWorker{
		db:            db,
		store:         store,
		tracker:       tracker,
		queue:         queue,
		registry:      registry,
		cfg:           cfg,
		propertyLocks: make(map[uint]*sync.Mutex),
	}
}

// Start runs the pool until ctx is cancelled. Bundles left over from a
// previous run are re-enqueued first so a restart doesn't strand them.
func (w *ExtractionWorker) Start(ctx context.Context) {
	w.recoverOrphanedBundles()

	log.Printf("extraction worker: started %d workers (max %d attempts per date)",
		w.cfg.WorkerCount, w.cfg.MaxAttempts)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()
	log.Println("extraction worker: all workers stopped")
}

// recoverOrphanedBundles resets RUNNING bundles from a crashed run back to
// PENDING and enqueues every pending bundle of a live search.
func (w *ExtractionWorker) recoverOrphanedBundles() {
	w.db.Model(&models.Bundle{}).
		Where("status = ?", models.BundleRunning).
		Update("status", models.BundlePending)

	var bundles []models.Bundle
	err := w.db.
		Joins("JOIN searches ON searches.id = bundles.search_id").
		Where("bundles.status = ? AND searches.status IN ?",
			models.BundlePending,
			[]models.SearchStatus{models.SearchPending, models.SearchRunning}).
		Order("bundles.search_id, bundles.sequence").
		Find(&bundles).Error
	if err != nil {
		log.Printf("extraction worker: failed to recover pending bundles: %v", err)
		return
	}
	for i := range bundles {
		w.queue.Enqueue(bundles[i].ID)
	}
	if len(bundles) > 0 {
		log.Printf("extraction worker: re-enqueued %d pending bundles", len(bundles))
	}
}

func (w *ExtractionWorker) workerLoop(ctx context.Context, id int) {
	for {
		bundleID, ok := w.queue.TryDequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-w.queue.Wait():
			case <-time.After(idlePoll):
			}
			continue
		}

		if err := w.processBundle(ctx, bundleID); err != nil {
			log.Printf("extraction worker %d: bundle %d failed: %v", id, bundleID, err)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// processBundle claims the bundle and drives every date in it to a terminal
// outcome, in chronological order.
func (w *ExtractionWorker) processBundle(ctx context.Context, bundleID uint) error {
	bundle, search, err := w.tracker.ClaimBundle(bundleID)
	if err != nil {
		return err
	}
	if bundle == nil {
		return nil // Already claimed, or search cancelled
	}

	property := &search.Property
	extractor := w.registry.For(property.Platform)

	start := time.Now()
	succeeded, failed := 0, 0

	for _, date := range bundle.Dates() {
		if ctx.Err() != nil {
			log.Printf("extraction worker: shutdown mid-bundle %d, %d dates left",
				bundle.ID, bundle.Length()-succeeded-failed)
			return ctx.Err()
		}
		// Cooperative cancellation: finish nothing new once cancelled
		if w.tracker.SearchCancelled(search.ID) {
			log.Printf("extraction worker: search %s cancelled, stopping bundle %d early",
				search.UUID, bundle.ID)
			return w.tracker.AbandonBundle(bundle)
		}

		ok := w.extractDate(ctx, extractor, property, search, bundle, date)
		if ok {
			succeeded++
		} else {
			failed++
		}

		if err := w.tracker.RecordDateOutcome(search.ID, ok); err != nil {
			log.Printf("extraction worker: failed to record progress for search %s: %v", search.UUID, err)
		}

		outcome := "success"
		if !ok {
			outcome = "failed"
		}
		metrics.DatesExtractedTotal.WithLabelValues(string(property.Platform), outcome).Inc()
	}

	w.mu.Lock()
	w.resetDailyStatsLocked()
	w.datesExtractedToday += succeeded
	w.lastBundleTime = time.Now()
	w.mu.Unlock()

	metrics.BundleDuration.Observe(time.Since(start).Seconds())

	return w.tracker.FinishBundle(bundle, succeeded == 0)
}

// extractDate drives one date to a terminal outcome: fetch, persist, retry
// transient failures with exponential backoff, give up after the attempt
// budget. A persistence failure gets the same bounded retries as a flaky
// platform. Returns true when a price was captured and stored.
func (w *ExtractionWorker) extractDate(ctx context.Context, extractor PlatformExtractor, property *models.Property, search *models.Search, bundle *models.Bundle, date time.Time) bool {
	if extractor == nil {
		log.Printf("extraction worker: no extractor registered for platform %s", property.Platform)
		return false
	}

	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.ExtractionRetriesTotal.Inc()
			w.tracker.BumpRetry(bundle.ID)
			if !w.backoff(ctx, attempt) {
				return false
			}
		}

		lastErr = w.fetchAndStore(ctx, extractor, property, search, date)
		if lastErr == nil {
			return true
		}
		if errors.Is(lastErr, context.Canceled) {
			return false
		}
		if !IsTransient(lastErr) {
			w.classify(property, lastErr, "permanent")
			log.Printf("extraction worker: permanent failure for property %d on %s: %v",
				property.ID, date.Format(models.DateLayout), lastErr)
			return false
		}
		w.classify(property, lastErr, "transient")
	}

	log.Printf("extraction worker: retries exhausted for property %d on %s: %v",
		property.ID, date.Format(models.DateLayout), lastErr)
	return false
}

// fetchAndStore performs one attempt, holding the property lock so only
// one fetch per property is in flight at a time.
func (w *ExtractionWorker) fetchAndStore(ctx context.Context, extractor PlatformExtractor, property *models.Property, search *models.Search, date time.Time) error {
	lock := w.propertyLock(property.ID)
	lock.Lock()
	defer lock.Unlock()

	price, err := extractor.Extract(ctx, property, date)
	if err != nil {
		return err
	}
	return w.store.Record(property.ID, date, price, time.Now(), search.ID)
}

// backoff sleeps base*2^(attempt-2) capped at MaxDelay; false on ctx cancel
func (w *ExtractionWorker) backoff(ctx context.Context, attempt int) bool {
	delay := w.cfg.BaseDelay << (attempt - 2)
	if delay > w.cfg.MaxDelay || delay <= 0 {
		delay = w.cfg.MaxDelay
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (w *ExtractionWorker) propertyLock(propertyID uint) *sync.Mutex {
	w.propMu.Lock()
	defer w.propMu.Unlock()
	lock, ok := w.propertyLocks[propertyID]
	if !ok {
		lock = &sync.Mutex{}
		w.propertyLocks[propertyID] = lock
	}
	return lock
}

func (w *ExtractionWorker) classify(property *models.Property, err error, class string) {
	metrics.PlatformErrorsTotal.WithLabelValues(string(property.Platform), class).Inc()
}

// resetDailyStatsLocked resets datesExtractedToday at midnight. Caller
// holds w.mu.
func (w *ExtractionWorker) resetDailyStatsLocked() {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if w.lastStatsDay.Before(today) {
		if !w.lastStatsDay.IsZero() {
			log.Printf("extraction worker: daily stats reset (previous day: %d dates)", w.datesExtractedToday)
		}
		w.datesExtractedToday = 0
		w.lastStatsDay = today
	}
}

// GetStatus returns the current pool status
func (w *ExtractionWorker) GetStatus() ExtractionStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return ExtractionStatus{
		QueueDepth:          w.queue.Len(),
		WorkerCount:         w.cfg.WorkerCount,
		DatesExtractedToday: w.datesExtractedToday,
		LastBundleTime:      w.lastBundleTime,
	}
}
