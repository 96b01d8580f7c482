package extractor

import (
	"context"
	"fmt"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// ProbeChain queries backends for metadata in order, one shot each, and
// returns the first snapshot. Both the constraint gate and the metadata
// cache probe through it.
type ProbeChain struct {
	backends []ports.Extractor
	logger   observability.Logger
}

// NewProbeChain creates a chain over the given backends, primary first.
func NewProbeChain(logger observability.Logger, backends ...ports.Extractor) *ProbeChain {
	return &ProbeChain{backends: backends, logger: logger}
}

// Probe returns the first successful snapshot, or ErrMetadataUnavailable
// when every backend fails.
func (c *ProbeChain) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	var lastErr error
	for _, backend := range c.backends {
		probe, err := backend.Probe(ctx, url)
		if err == nil {
			return probe, nil
		}
		lastErr = err
		c.logger.Warn("metadata probe failed", "backend", backend.Name(), "url", url, "error", err)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrMetadataUnavailable, lastErr)
}
