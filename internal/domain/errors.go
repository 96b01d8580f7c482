package domain

import "errors"

// Error taxonomy for the service. Validation and constraint errors surface
// synchronously at the request boundary; extraction-time errors are only
// observable through the persisted attempt status.
var (
	// ErrInvalidURL indicates the URL does not match a YouTube URL shape.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrInvalidFormat indicates an unsupported container format.
	ErrInvalidFormat = errors.New("unsupported format")
	// ErrInvalidQuality indicates a quality label that cannot be parsed to a height.
	ErrInvalidQuality = errors.New("unsupported quality")
	// ErrRateLimitExceeded indicates the per-client daily ceiling was reached.
	ErrRateLimitExceeded = errors.New("download limit reached for today")
	// ErrVideoTooLarge indicates the probed size exceeds the configured ceiling.
	ErrVideoTooLarge = errors.New("video exceeds size limit")
	// ErrVideoTooLong indicates the probed duration exceeds the configured ceiling.
	ErrVideoTooLong = errors.New("video exceeds duration limit")
	// ErrExtractionFailed indicates both backends exhausted all retries.
	ErrExtractionFailed = errors.New("download failed using both backends")
	// ErrMetadataUnavailable indicates both backends failed a metadata fetch.
	ErrMetadataUnavailable = errors.New("metadata unavailable")
	// ErrNoMatchingStream indicates no stream satisfied the requested selection.
	ErrNoMatchingStream = errors.New("no matching stream")
)
