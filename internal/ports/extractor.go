// Package ports defines the narrow interfaces the service core depends on.
// Concrete adapters live under internal/extractor, internal/database,
// internal/queue and internal/ratelimit.
package ports

import (
	"context"

	"ytgrab/internal/domain"
	"ytgrab/internal/selector"
)

// MediaProbe is the metadata snapshot returned by a probe. Zero or absent
// values mean the backend could not determine the field.
type MediaProbe struct {
	Title         string
	DurationSec   int64
	SizeBytes     int64
	Views         int64
	Likes         *int64
	Channel       string
	ThumbnailURL  string
	PublishedDate string
}

// Extractor is an external capability that turns a video URL into
// downloadable streams or descriptive metadata. The service wires two
// implementations with different coverage: the primary honors fine-grained
// selectors, the secondary only coarse audio-only/best-progressive choices.
type Extractor interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Probe fetches metadata without downloading anything.
	Probe(ctx context.Context, url string) (*MediaProbe, error)

	// Download fetches the stream matching sel to dest.
	Download(ctx context.Context, url string, sel selector.Selector, dest string) error

	// DownloadBest fetches a best-effort stream for the format to dest:
	// best audio-only for mp3, otherwise the highest-resolution progressive
	// stream matching the container. Returns domain.ErrNoMatchingStream when
	// nothing qualifies.
	DownloadBest(ctx context.Context, url string, format domain.Format, dest string) error
}
