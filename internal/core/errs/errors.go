// Package errs carries the pipeline error taxonomy. Each category is a
// sentinel so callers can route on errors.Is without inspecting messages:
//
//	ErrExtraction     malformed or unsupported source document; fatal, never retried
//	ErrTransient      network or provider-overload failure; retried per chunk
//	ErrPermanent      bad request / auth failure from the provider; chunk marked failed
//	ErrPersistence    document or chunk store unavailable; fatal to the run
//	ErrConfiguration  missing credentials or dimension mismatch; fatal, never downgraded
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrExtraction    = errors.New("extraction failed")
	ErrTransient     = errors.New("transient provider error")
	ErrPermanent     = errors.New("permanent provider error")
	ErrPersistence   = errors.New("persistence error")
	ErrConfiguration = errors.New("configuration error")
)

// Extraction wraps err as a fatal extraction failure.
func Extraction(err error) error {
	return fmt.Errorf("%w: %w", ErrExtraction, err)
}

// Transient wraps err as retryable.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Persistence wraps err as a store failure.
func Persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// Configurationf builds a configuration error from a format string.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err may be retried with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsFatal reports whether err must abort the ingestion run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrExtraction) ||
		errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrConfiguration)
}
