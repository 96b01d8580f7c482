package metadata

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

type memoryStore struct {
	entries map[string]*domain.VideoMetadata
	puts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]*domain.VideoMetadata)}
}

func (m *memoryStore) GetByURL(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	return m.entries[url], nil
}

func (m *memoryStore) Put(ctx context.Context, metadata *domain.VideoMetadata) error {
	m.puts++
	if _, exists := m.entries[metadata.URL]; !exists {
		m.entries[metadata.URL] = metadata
	}
	return nil
}

type countingProber struct {
	probe *ports.MediaProbe
	err   error
	calls int
}

func (p *countingProber) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	p.calls++
	return p.probe, p.err
}

func newTestService(store Store, prober Prober) *Service {
	provider := observability.NewProvider(&observability.Config{
		ServiceName: "test",
		LogOutput:   io.Discard,
	})
	return NewService(store, prober, provider.Logger("metadata"), provider.Metrics("metadata"))
}

func TestGetOrFetchMissThenHit(t *testing.T) {
	store := newMemoryStore()
	prober := &countingProber{probe: &ports.MediaProbe{
		Title:         "Some Video",
		DurationSec:   3723,
		Views:         1000,
		Channel:       "some channel",
		ThumbnailURL:  "https://img.example/1.jpg",
		PublishedDate: "2026-01-02",
	}}
	svc := newTestService(store, prober)
	ctx := context.Background()

	first, err := svc.GetOrFetch(ctx, "url")
	require.NoError(t, err)
	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, "Some Video", first.Title)
	assert.Equal(t, "1h 2m 3s", first.Duration)
	require.NotNil(t, first.PublishedDate)
	assert.Equal(t, "2026-01-02", *first.PublishedDate)

	second, err := svc.GetOrFetch(ctx, "url")
	require.NoError(t, err)
	assert.Equal(t, 1, prober.calls, "a cached URL never touches a backend")
	assert.Equal(t, first, second)
}

func TestGetOrFetchProbeFailure(t *testing.T) {
	probeErr := errors.New("all backends down")
	svc := newTestService(newMemoryStore(), &countingProber{err: probeErr})

	_, err := svc.GetOrFetch(context.Background(), "url")
	assert.ErrorIs(t, err, probeErr)
}

func TestMemoizeSeedsCache(t *testing.T) {
	store := newMemoryStore()
	prober := &countingProber{}
	svc := newTestService(store, prober)
	ctx := context.Background()

	svc.Memoize(ctx, "url", &ports.MediaProbe{Title: "probed earlier", DurationSec: 90})

	got, err := svc.GetOrFetch(ctx, "url")
	require.NoError(t, err)
	assert.Zero(t, prober.calls)
	assert.Equal(t, "probed earlier", got.Title)
	assert.Equal(t, "1m 30s", got.Duration)
}

func TestMemoizeDoesNotOverwrite(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &countingProber{})
	ctx := context.Background()

	svc.Memoize(ctx, "url", &ports.MediaProbe{Title: "first"})
	svc.Memoize(ctx, "url", &ports.MediaProbe{Title: "second"})

	got, err := svc.GetOrFetch(ctx, "url")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, 1, store.puts)
}
