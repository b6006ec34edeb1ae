package services

import (
	"context"
	"time"

	"github.com/roomradar/rate-shopper/internal/models"
)

// PlatformExtractor fetches one observed nightly price for one property and
// check-in date from a specific booking platform. Implementations return an
// *ExtractError classified transient or permanent; the worker pool decides
// retry policy from that classification and stays platform-agnostic.
//
// How a platform is physically scraped (selectors, automation) is the
// extractor's own business; this contract only covers the observation.
type PlatformExtractor interface {
	// Platform identifies which platform this extractor serves
	Platform() models.Platform

	// Extract returns the nightly price for the property on date.
	// Blocking; honors ctx cancellation.
	Extract(ctx context.Context, property *models.Property, date time.Time) (float64, error)
}

// ExtractorRegistry resolves the extractor for a property's platform
type ExtractorRegistry struct {
	extractors map[models.Platform]PlatformExtractor
}

// NewExtractorRegistry builds a registry from the given extractors
func NewExtractorRegistry(extractors ...PlatformExtractor) *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: make(map[models.Platform]PlatformExtractor)}
	for _, e := range extractors {
		r.extractors[e.Platform()] = e
	}
	return r
}

// For returns the extractor for a platform, or nil if none is registered
func (r *ExtractorRegistry) For(platform models.Platform) PlatformExtractor {
	return r.extractors[platform]
}

// Platforms returns the platforms with a registered extractor
func (r *ExtractorRegistry) Platforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(r.extractors))
	for p := range r.extractors {
		platforms = append(platforms, p)
	}
	return platforms
}
