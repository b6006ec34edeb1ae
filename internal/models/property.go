package models

import (
	"time"
)

// Platform identifies which booking platform a property is scraped from.
type Platform string

const (
	PlatformBooking Platform = "BOOKING"
	PlatformExpedia Platform = "EXPEDIA"
	PlatformDirect  Platform = "DIRECT"
)

// AllPlatforms returns all supported platforms
func AllPlatforms() []Platform {
	return []Platform{
		PlatformBooking,
		PlatformExpedia,
		PlatformDirect,
	}
}

// Valid reports whether the platform is one we can extract from
func (p Platform) Valid() bool {
	switch p {
	case PlatformBooking, PlatformExpedia, PlatformDirect:
		return true
	}
	return false
}

// PropertyCategory classifies how a property relates to the hotel tracking it
type PropertyCategory string

const (
	CategoryMain             PropertyCategory = "MAIN"
	CategoryDirectCompetitor PropertyCategory = "DIRECT_COMPETITOR"
	CategoryCompetitor       PropertyCategory = "COMPETITOR"
)

// AllPropertyCategories returns all valid property categories
func AllPropertyCategories() []PropertyCategory {
	return []PropertyCategory{
		CategoryMain,
		CategoryDirectCompetitor,
		CategoryCompetitor,
	}
}

func (c PropertyCategory) Valid() bool {
	switch c {
	case CategoryMain, CategoryDirectCompetitor, CategoryCompetitor:
		return true
	}
	return false
}

// DefaultMaxBundleSize is used when a property doesn't specify its own
// batch limit. Bundles are what we send to a platform in one go, so this
// bounds how many dates a single extraction run touches.
const DefaultMaxBundleSize = 7

// Property is a hotel listing we extract prices for, either the hotel's own
// listing (main) or a tracked competitor.
type Property struct {
	ID             uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	HotelID        uint             `json:"hotel_id" gorm:"not null;index"`
	Name           string           `json:"name" gorm:"not null"`
	Platform       Platform         `json:"platform" gorm:"not null;default:'BOOKING'"`
	Category       PropertyCategory `json:"category" gorm:"not null;default:'COMPETITOR'"`
	SourceURL      string           `json:"source_url"`
	MaxBundleSize  int              `json:"max_bundle_size" gorm:"not null;default:7"`
	IsMainProperty bool             `json:"is_main_property" gorm:"not null;default:false;index"`
	Active         bool             `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// BundleSize returns the effective batch limit for this property
func (p *Property) BundleSize() int {
	if p.MaxBundleSize > 0 {
		return p.MaxBundleSize
	}
	return DefaultMaxBundleSize
}

type CreatePropertyRequest struct {
	HotelID        uint             `json:"hotel_id" binding:"required"`
	Name           string           `json:"name" binding:"required"`
	Platform       Platform         `json:"platform"`
	Category       PropertyCategory `json:"category"`
	SourceURL      string           `json:"source_url"`
	MaxBundleSize  int              `json:"max_bundle_size"`
	IsMainProperty bool             `json:"is_main_property"`
}

type UpdatePropertyRequest struct {
	Name           *string           `json:"name"`
	Platform       *Platform         `json:"platform"`
	Category       *PropertyCategory `json:"category"`
	SourceURL      *string           `json:"source_url"`
	MaxBundleSize  *int              `json:"max_bundle_size"`
	IsMainProperty *bool             `json:"is_main_property"`
	Active         *bool             `json:"active"`
}
