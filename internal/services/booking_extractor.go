package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/models"
)

const extractorDefaultTimeout = 15 * time.Second

// RateAPIExtractor pulls nightly prices from an OTA's availability endpoint
// (Booking.com and Expedia expose the same shape). One extractor instance
// serves one platform; requests are paced with a token bucket so we stay
// under the platform's block/throttle radar.
type RateAPIExtractor struct {
	platform models.Platform
	client   *http.Client
	baseURL  string
	apiKey   string
	limiter  *rate.Limiter
}

// rateAPIResponse is the availability payload both OTAs return
type rateAPIResponse struct {
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Error     string  `json:"error,omitempty"`
}

// NewBookingExtractor creates the Booking.com extractor
func NewBookingExtractor(baseURL string, ratePerSec float64) *RateAPIExtractor {
	return newRateAPIExtractor(models.PlatformBooking, baseURL, ratePerSec)
}

// NewExpediaExtractor creates the Expedia extractor
func NewExpediaExtractor(baseURL string, ratePerSec float64) *RateAPIExtractor {
	return newRateAPIExtractor(models.PlatformExpedia, baseURL, ratePerSec)
}

func newRateAPIExtractor(platform models.Platform, baseURL string, ratePerSec float64) *RateAPIExtractor {
	if ratePerSec <= 0 {
		ratePerSec = 0.5
	}
	return &RateAPIExtractor{
		platform: platform,
		client: &http.Client{
			Timeout: extractorDefaultTimeout,
		},
		baseURL: baseURL,
		apiKey:  os.Getenv("RATE_API_KEY"),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Platform identifies which platform this extractor serves
func (e *RateAPIExtractor) Platform() models.Platform {
	return e.platform
}

// Extract fetches the nightly price for one property and check-in date.
// Waits on the pacing limiter first, so callers get platform-polite
// behavior for free.
func (e *RateAPIExtractor) Extract(ctx context.Context, property *models.Property, date time.Time) (float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	checkIn := models.NormalizeDate(date)
	checkOut := checkIn.AddDate(0, 0, 1)

	endpoint, err := e.buildURL(property, checkIn, checkOut)
	if err != nil {
		return 0, NewPermanentError(string(e.platform), "bad source url", err)
	}

	start := time.Now()
	metrics.PlatformRequestsTotal.WithLabelValues(string(e.platform)).Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, NewPermanentError(string(e.platform), "bad request", err)
	}
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("X-API-Key", e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		// Timeouts and connection resets are the platform pushing back
		return 0, NewTransientError(string(e.platform), "request failed", err)
	}
	defer resp.Body.Close()

	metrics.PlatformFetchDuration.WithLabelValues(string(e.platform)).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, NewTransientError(string(e.platform), "rate limited", nil)
	case resp.StatusCode >= 500:
		return 0, NewTransientError(string(e.platform), fmt.Sprintf("server error %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return 0, NewPermanentError(string(e.platform), "property delisted", nil)
	case resp.StatusCode != http.StatusOK:
		return 0, NewPermanentError(string(e.platform), fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload rateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, NewPermanentError(string(e.platform), "parse failure", err)
	}

	if payload.Error != "" {
		return 0, NewPermanentError(string(e.platform), payload.Error, nil)
	}
	if !payload.Available || payload.Price <= 0 {
		return 0, NewPermanentError(string(e.platform), "no rate published for date", nil)
	}

	return payload.Price, nil
}

func (e *RateAPIExtractor) buildURL(property *models.Property, checkIn, checkOut time.Time) (string, error) {
	source := property.SourceURL
	if source == "" {
		return "", fmt.Errorf("property %d has no source url", property.ID)
	}

	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	// Relative source URLs are resolved against the platform base
	if !u.IsAbs() {
		base, err := url.Parse(e.baseURL)
		if err != nil {
			return "", err
		}
		u = base.ResolveReference(u)
	}

	q := u.Query()
	q.Set("checkin", checkIn.Format(models.DateLayout))
	q.Set("checkout", checkOut.Format(models.DateLayout))
	q.Set("group_adults", "2")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
