package models

import (
	"time"
)

// PriceRecord is one observed nightly price for a property and check-in
// date. Records are append-only: successive scrapes of the same date add new
// rows rather than overwriting, so the (property, date) history forms the
// time series trend analysis needs.
type PriceRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PropertyID  uint      `json:"property_id" gorm:"not null;index:idx_property_checkin"`
	CheckInDate time.Time `json:"check_in_date" gorm:"not null;index:idx_property_checkin"`
	Price       float64   `json:"price" gorm:"not null"`
	ScrapedAt   time.Time `json:"scraped_at" gorm:"not null;index"`
	SearchID    uint      `json:"search_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceQueryMode selects between the full observation history for each date
// and only the latest snapshot per date.
type PriceQueryMode string

const (
	PriceQueryHistory PriceQueryMode = "history"
	PriceQueryLatest  PriceQueryMode = "latest"
)
