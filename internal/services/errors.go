// Package services contains the rate-shopper pipeline: search scheduling,
// the extraction worker pool, platform extractors, the price store, and
// trend aggregation.
package services

import (
	"errors"
	"fmt"
)

// ErrSearchNotFound is returned when a uuid doesn't match any search.
// Handlers translate this into an HTTP 404 response.
var ErrSearchNotFound = errors.New("search not found")

// ErrPropertyNotFound is returned when a property id is unknown.
var ErrPropertyNotFound = errors.New("property not found")

// ValidationError rejects a malformed request synchronously. It is never
// retried; handlers translate it into an HTTP 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ExtractError is a typed failure from a platform extractor. Transient
// failures (timeouts, throttling by the platform) are retried with backoff;
// permanent ones (delisted property, unparseable response) terminate the
// date immediately.
type ExtractError struct {
	Platform  string
	Reason    string
	Transient bool
	Err       error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s extraction failed (%s): %v", e.Platform, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s extraction failed: %s", e.Platform, e.Reason)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewTransientError marks a failure worth retrying
func NewTransientError(platform, reason string, err error) *ExtractError {
	return &ExtractError{Platform: platform, Reason: reason, Transient: true, Err: err}
}

// NewPermanentError marks a failure that retrying cannot fix
func NewPermanentError(platform, reason string, err error) *ExtractError {
	return &ExtractError{Platform: platform, Reason: reason, Transient: false, Err: err}
}

// IsTransient reports whether err should be retried. Unclassified errors
// (including persistence failures) are treated as transient so a flaky disk
// or connection gets the same bounded retry budget as a flaky platform.
func IsTransient(err error) bool {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Transient
	}
	return true
}
