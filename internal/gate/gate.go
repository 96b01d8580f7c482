// Package gate implements the pre-flight size and duration check performed
// before any download is committed.
package gate

import (
	"context"
	"fmt"
	"time"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// Prober fetches a metadata snapshot without downloading.
type Prober interface {
	Probe(ctx context.Context, url string) (*ports.MediaProbe, error)
}

// FailureRecorder records a rejected request in history. Satisfied by
// repository.HistoryRepository.
type FailureRecorder interface {
	CreateFailed(ctx context.Context, url, reason string) error
}

// Gate rejects requests whose probed size or duration exceeds the
// configured ceilings. Unknown (zero) values pass; the check never
// downloads anything.
type Gate struct {
	prober      Prober
	history     FailureRecorder
	maxSize     int64
	maxDuration time.Duration
	logger      observability.Logger
	metrics     observability.Metrics
}

// New creates a constraint gate.
func New(prober Prober, history FailureRecorder, maxSize int64, maxDuration time.Duration,
	logger observability.Logger, metrics observability.Metrics) *Gate {
	return &Gate{
		prober:      prober,
		history:     history,
		maxSize:     maxSize,
		maxDuration: maxDuration,
		logger:      logger,
		metrics:     metrics,
	}
}

// Check probes url and returns the snapshot, or ErrVideoTooLarge /
// ErrVideoTooLong after recording a Failed history entry. The rejection is
// recorded before the error surfaces so the history reflects it even when
// the caller drops the request on the floor.
func (g *Gate) Check(ctx context.Context, url string) (*ports.MediaProbe, error) {
	probe, err := g.prober.Probe(ctx, url)
	if err != nil {
		return nil, err
	}

	if g.maxSize > 0 && probe.SizeBytes > g.maxSize {
		g.reject(ctx, url, "exceeds size limit")
		return nil, fmt.Errorf("%w: %.2f GB", domain.ErrVideoTooLarge,
			float64(probe.SizeBytes)/(1024*1024*1024))
	}

	if g.maxDuration > 0 && time.Duration(probe.DurationSec)*time.Second > g.maxDuration {
		g.reject(ctx, url, "exceeds duration limit")
		return nil, fmt.Errorf("%w: %.2f hours", domain.ErrVideoTooLong,
			(time.Duration(probe.DurationSec) * time.Second).Hours())
	}

	return probe, nil
}

func (g *Gate) reject(ctx context.Context, url, reason string) {
	g.logger.Info("request rejected by constraint gate", "url", url, "reason", reason)
	g.metrics.IncrementCounter("gate.rejected", map[string]string{"reason": reason})
	if err := g.history.CreateFailed(ctx, url, reason); err != nil {
		g.logger.Error("failed to record gate rejection", "url", url, "error", err)
	}
}
