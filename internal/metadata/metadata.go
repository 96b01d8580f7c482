// Package metadata memoizes extractor metadata lookups per URL.
package metadata

import (
	"context"
	"fmt"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// Prober fetches a metadata snapshot for a URL. Satisfied by
// extractor.ProbeChain.
type Prober interface {
	Probe(ctx context.Context, url string) (*ports.MediaProbe, error)
}

// Store is the persistence surface the service needs. Satisfied by
// repository.MetadataRepository.
type Store interface {
	GetByURL(ctx context.Context, url string) (*domain.VideoMetadata, error)
	Put(ctx context.Context, metadata *domain.VideoMetadata) error
}

// Service is the memoizing metadata cache: persistent store first, then the
// backend chain, persisting before returning. Entries are immutable; a
// re-request for a known URL never touches a backend.
type Service struct {
	store   Store
	prober  Prober
	logger  observability.Logger
	metrics observability.Metrics
}

// NewService creates the metadata cache service.
func NewService(store Store, prober Prober, logger observability.Logger, metrics observability.Metrics) *Service {
	return &Service{store: store, prober: prober, logger: logger, metrics: metrics}
}

// GetOrFetch returns the cached metadata for url, querying the backends on
// a miss. Both backends failing surfaces domain.ErrMetadataUnavailable.
func (s *Service) GetOrFetch(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	cached, err := s.store.GetByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup: %w", err)
	}
	if cached != nil {
		s.metrics.IncrementCounter("metadata.cache", map[string]string{"outcome": "hit"})
		return cached, nil
	}
	s.metrics.IncrementCounter("metadata.cache", map[string]string{"outcome": "miss"})

	probe, err := s.prober.Probe(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, url, probe)
}

// Memoize stores a snapshot that was already probed elsewhere (the
// constraint gate), so the next metadata request skips the backends.
func (s *Service) Memoize(ctx context.Context, url string, probe *ports.MediaProbe) {
	if cached, err := s.store.GetByURL(ctx, url); err != nil || cached != nil {
		return
	}
	if _, err := s.persist(ctx, url, probe); err != nil {
		s.logger.Warn("metadata memoize failed", "url", url, "error", err)
	}
}

func (s *Service) persist(ctx context.Context, url string, probe *ports.MediaProbe) (*domain.VideoMetadata, error) {
	entry := &domain.VideoMetadata{
		URL:          url,
		Title:        probe.Title,
		Duration:     domain.FormatDuration(probe.DurationSec),
		Views:        probe.Views,
		Likes:        probe.Likes,
		Channel:      probe.Channel,
		ThumbnailURL: probe.ThumbnailURL,
	}
	if probe.PublishedDate != "" {
		published := probe.PublishedDate
		entry.PublishedDate = &published
	}

	if err := s.store.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("metadata persist: %w", err)
	}
	return entry, nil
}
