package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

// DirectExtractor reads rates from a hotel's own booking engine. These are
// friendly endpoints (the hotel wants its prices tracked), so pacing can be
// looser than for the OTAs, but we still cap it.
type DirectExtractor struct {
	client  *http.Client
	limiter *rate.Limiter
}

// directRateResponse is the payload a hotel booking engine exposes per date
type directRateResponse struct {
	Rates []struct {
		CheckIn string  `json:"check_in"`
		Price   float64 `json:"price"`
	} `json:"rates"`
}

// NewDirectExtractor creates the direct-booking-engine extractor
func NewDirectExtractor(ratePerSec float64) *DirectExtractor {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &DirectExtractor{
		client: &http.Client{
			Timeout: extractorDefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 2),
	}
}

// Platform identifies which platform this extractor serves
func (e *DirectExtractor) Platform() models.Platform {
	return models.PlatformDirect
}

// Extract fetches the nightly price from the hotel's own rates endpoint
func (e *DirectExtractor) Extract(ctx context.Context, property *models.Property, date time.Time) (float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	if property.SourceURL == "" {
		return 0, NewPermanentError("DIRECT", "property has no source url", nil)
	}

	day := models.NormalizeDate(date)

	u, err := url.Parse(property.SourceURL)
	if err != nil {
		return 0, NewPermanentError("DIRECT", "bad source url", err)
	}
	q := u.Query()
	q.Set("from", day.Format(models.DateLayout))
	q.Set("nights", "1")
	u.RawQuery = q.Encode()

	start := time.Now()
	metrics.PlatformRequestsTotal.WithLabelValues("DIRECT").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, NewPermanentError("DIRECT", "bad request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, NewTransientError("DIRECT", "request failed", err)
	}
	defer resp.Body.Close()

	metrics.PlatformFetchDuration.WithLabelValues("DIRECT").Observe(time.Since(start).Seconds())

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return 0, NewTransientError("DIRECT", resp.Status, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, NewPermanentError("DIRECT", resp.Status, nil)
	}

	var payload directRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, NewPermanentError("DIRECT", "parse failure", err)
	}

	want := day.Format(models.DateLayout)
	for _, r := range payload.Rates {
		if r.CheckIn == want && r.Price > 0 {
			return r.Price, nil
		}
	}
	return 0, NewPermanentError("DIRECT", "no rate published for date", nil)
}
