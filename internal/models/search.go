package models

import (
	"time"
)

// DateLayout is the wire/database format for check-in dates
const DateLayout = "2006-01-02"

// SearchStatus tracks a search through its lifecycle
type SearchStatus string

const (
	SearchPending   SearchStatus = "PENDING"
	SearchRunning   SearchStatus = "RUNNING"
	SearchCompleted SearchStatus = "COMPLETED"
	SearchPartial   SearchStatus = "PARTIAL"
	SearchFailed    SearchStatus = "FAILED"
	SearchCancelled SearchStatus = "CANCELLED"
)

// Terminal reports whether the status is final. Terminal searches are never
// retried; a new search must be scheduled to re-cover their date range.
func (s SearchStatus) Terminal() bool {
	switch s {
	case SearchCompleted, SearchPartial, SearchFailed, SearchCancelled:
		return true
	}
	return false
}

// BundleStatus mirrors a subset of the search lifecycle
type BundleStatus string

const (
	BundlePending   BundleStatus = "PENDING"
	BundleRunning   BundleStatus = "RUNNING"
	BundleCompleted BundleStatus = "COMPLETED"
	BundleFailed    BundleStatus = "FAILED"
)

func (s BundleStatus) Terminal() bool {
	return s == BundleCompleted || s == BundleFailed
}

// Search is one scheduled extraction job covering a property and an
// inclusive date range.
type Search struct {
	ID             uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID           string       `json:"uuid" gorm:"uniqueIndex;not null"`
	PropertyID     uint         `json:"property_id" gorm:"not null;index"`
	Property       Property     `json:"-" gorm:"foreignKey:PropertyID"`
	StartDate      time.Time    `json:"start_date" gorm:"not null"`
	EndDate        time.Time    `json:"end_date" gorm:"not null"`
	TotalDates     int          `json:"total_dates" gorm:"not null"`
	ProcessedDates int          `json:"processed_dates" gorm:"not null;default:0"`
	SucceededDates int          `json:"succeeded_dates" gorm:"not null;default:0"`
	Status         SearchStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Bundle is a contiguous sub-range of a search's dates, sized to respect the
// property's safe batch limit. Bundles are the unit of work a worker claims.
type Bundle struct {
	ID         uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	SearchID   uint         `json:"search_id" gorm:"not null;index"`
	Sequence   int          `json:"sequence" gorm:"not null"`
	StartDate  time.Time    `json:"start_date" gorm:"not null"`
	EndDate    time.Time    `json:"end_date" gorm:"not null"`
	Status     BundleStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	RetryCount int          `json:"retry_count" gorm:"not null;default:0"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Length returns the inclusive day count of the bundle's range
func (b *Bundle) Length() int {
	return DayCount(b.StartDate, b.EndDate)
}

// Dates returns every date in the bundle's range in chronological order
func (b *Bundle) Dates() []time.Time {
	return DatesBetween(b.StartDate, b.EndDate)
}

// NormalizeDate truncates a timestamp to its UTC calendar date. All check-in
// dates are stored this way so range comparisons are exact.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayCount returns the inclusive number of days between start and end.
// Returns 0 when end precedes start.
func DayCount(start, end time.Time) int {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// DatesBetween returns every date from start to end inclusive
func DatesBetween(start, end time.Time) []time.Time {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// PartitionBundles splits [start, end] into contiguous bundles of at most
// maxSize days, in chronological order with sequence indexes 0..n-1.
// The bundles cover the range exactly: no gaps, no overlaps.
func PartitionBundles(searchID uint, start, end time.Time, maxSize int) []Bundle {
	if maxSize <= 0 {
		maxSize = DefaultMaxBundleSize
	}
	start = NormalizeDate(start)
	end = NormalizeDate(end)

	var bundles []Bundle
	seq := 0
	for cur := start; !cur.After(end); {
		bundleEnd := cur.AddDate(0, 0, maxSize-1)
		if bundleEnd.After(end) {
			bundleEnd = end
		}
		bundles = append(bundles, Bundle{
			SearchID:  searchID,
			Sequence:  seq,
			StartDate: cur,
			EndDate:   bundleEnd,
			Status:    BundlePending,
		})
		seq++
		cur = bundleEnd.AddDate(0, 0, 1)
	}
	return bundles
}

// TerminalSearchStatus derives the final status of a search from its date
// outcomes: COMPLETED if every date succeeded, FAILED if none did, PARTIAL
// for a mix.
func TerminalSearchStatus(succeeded, total int) SearchStatus {
	switch {
	case succeeded >= total:
		return SearchCompleted
	case succeeded == 0:
		return SearchFailed
	default:
		return SearchPartial
	}
}

// SearchStatusResponse is the API shape for status queries
type SearchStatusResponse struct {
	UUID           string       `json:"uuid"`
	Status         SearchStatus `json:"status"`
	TotalDates     int          `json:"total_dates"`
	ProcessedDates int          `json:"processed_dates"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	PropertyID     uint         `json:"property_id"`
}

// StatusResponse converts a search to its API status shape
func (s *Search) StatusResponse() SearchStatusResponse {
	return SearchStatusResponse{
		UUID:           s.UUID,
		Status:         s.Status,
		TotalDates:     s.TotalDates,
		ProcessedDates: s.ProcessedDates,
		StartDate:      s.StartDate.Format(DateLayout),
		EndDate:        s.EndDate.Format(DateLayout),
		PropertyID:     s.PropertyID,
	}
}
