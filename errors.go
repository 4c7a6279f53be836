package clipfetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL means the input text has no recognizable post URL.
	ErrInvalidURL = errors.New("no recognizable post URL")
	// ErrExtractionFailed means the extraction engine returned nothing usable.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrSessionExpired means a quality was chosen after the session context was lost.
	ErrSessionExpired = errors.New("session expired")
	// ErrDownloadFailed means the external download step failed after retries.
	ErrDownloadFailed = errors.New("download failed")
)

// ExtractionError wraps ErrExtractionFailed with whatever media type was
// detected before extraction gave up, so the transport can distinguish
// "no video" from a genuinely failed probe.
type ExtractionError struct {
	MediaType MediaType
	Reason    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (media type %q): %v", e.MediaType, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return ErrExtractionFailed
}
