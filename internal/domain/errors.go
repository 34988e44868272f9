package domain

import "errors"

// Error kinds shared across the pipeline. Adapters wrap these with %w so
// callers can branch with errors.Is without knowing the transport detail.
var (
	// ErrProviderUnavailable marks a news/weather fetch that failed; the
	// pipeline degrades to an empty batch instead of aborting.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited marks an upstream 429; treated like unavailability.
	ErrRateLimited = errors.New("rate limited")

	// ErrParseFailure marks malformed model output after repair attempts.
	ErrParseFailure = errors.New("parse failure")

	// ErrTimeout marks a per-call budget overrun on an external service.
	ErrTimeout = errors.New("timeout")

	// ErrUnavailable marks an unreachable generation or embedding service.
	ErrUnavailable = errors.New("service unavailable")

	// ErrConfiguration marks missing thresholds/weights. Fatal at startup,
	// never raised mid-pipeline.
	ErrConfiguration = errors.New("configuration error")
)
