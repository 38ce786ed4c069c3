package scraper

import "errors"

// The only two failures that cross the Extract boundary. Everything else
// (selector misses, OCR errors, navigation timeouts) is treated as a
// declined stage and handled inside the pipeline.
var (
	// ErrBrowserLaunch means the browser session could not be created.
	// Not retried.
	ErrBrowserLaunch = errors.New("browser launch failed")

	// ErrExtractionExhausted means every DOM strategy and the visual
	// fallback failed to yield a positive price across all attempts.
	ErrExtractionExhausted = errors.New("extraction exhausted")
)
