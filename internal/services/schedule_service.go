package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/models"
)

// ScheduleService keeps rate intelligence fresh without manual requests: once
// a day it schedules a search per active property covering the booking
// horizon, and applies the configured price-history retention.
type ScheduleService struct {
	db         *gorm.DB
	scheduler  *SearchScheduler
	store      *PriceStore
	aggregator *TrendAggregator

	mu            sync.Mutex
	scheduleHour  int // Hour of day (0-23) to run
	horizonDays   int
	retentionDays int // 0 disables pruning
	checkInterval time.Duration
	lastRunDay    time.Time
}

// NewScheduleService creates the daily scheduling service
func NewScheduleService(db *gorm.DB, scheduler *SearchScheduler, store *PriceStore, aggregator *TrendAggregator, scheduleHour, horizonDays, retentionDays int) *ScheduleService {
	if scheduleHour < 0 || scheduleHour > 23 {
		scheduleHour = 4
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &ScheduleService{
		db:            db,
		scheduler:     scheduler,
		store:         store,
		aggregator:    aggregator,
		scheduleHour:  scheduleHour,
		horizonDays:   horizonDays,
		retentionDays: retentionDays,
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background schedule loop
func (s *ScheduleService) Start(ctx context.Context) {
	log.Printf("schedule service: started (daily at %02d:00, horizon %d days)", s.scheduleHour, s.horizonDays)

	s.checkAndRun()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("schedule service stopping...")
			return
		case <-ticker.C:
			s.checkAndRun()
		}
	}
}

// checkAndRun fires at most once per day, at or after the configured hour
func (s *ScheduleService) checkAndRun() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !s.lastRunDay.Before(today) || now.Hour() < s.scheduleHour {
		return
	}

	s.RunOnce()
	s.lastRunDay = today
}

// RunOnce schedules today's searches and applies retention. Exposed so an
// operator can trigger it out of band.
func (s *ScheduleService) RunOnce() {
	s.scheduleDaily()
	s.pruneHistory()
}

// scheduleDaily creates one horizon-covering search per active property that
// hasn't had one today.
func (s *ScheduleService) scheduleDaily() {
	var properties []models.Property
	if err := s.db.Where("active = ?", true).Find(&properties).Error; err != nil {
		log.Printf("schedule service: failed to list properties: %v", err)
		return
	}

	now := time.Now()
	start := models.NormalizeDate(now)
	end := start.AddDate(0, 0, s.horizonDays-1)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	created := 0
	for i := range properties {
		p := &properties[i]

		var count int64
		err := s.db.Model(&models.Search{}).
			Where("property_id = ? AND created_at >= ?", p.ID, todayStart).
			Count(&count).Error
		if err != nil {
			log.Printf("schedule service: failed to check recent searches for property %d: %v", p.ID, err)
			continue
		}
		if count > 0 {
			continue // Already covered today, manually or by a previous run
		}

		if _, err := s.scheduler.Schedule(p.ID, start, end, 0); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				log.Printf("schedule service: skipping property %d: %v", p.ID, ve)
				continue
			}
			log.Printf("schedule service: failed to schedule property %d: %v", p.ID, err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Printf("schedule service: scheduled %d searches (%s..%s)",
			created, start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
}

// pruneHistory deletes observations older than the retention window.
// Retention 0 means history accumulates forever, which is what trend and
// volatility analysis wants by default.
func (s *ScheduleService) pruneHistory() {
	if s.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	pruned, err := s.store.PruneBefore(cutoff)
	if err != nil {
		log.Printf("schedule service: retention prune failed: %v", err)
		return
	}
	if pruned > 0 {
		s.aggregator.InvalidateCache()
		log.Printf("schedule service: pruned %d price records older than %d days", pruned, s.retentionDays)
	}
}
