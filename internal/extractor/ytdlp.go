// Package extractor provides the two extraction backends behind
// ports.Extractor: a selector-capable primary and a coarse secondary.
package extractor

import (
	"context"
	"fmt"

	"github.com/ytget/ytdlp/v2"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
	"ytgrab/internal/selector"
)

// YTDLP is the primary backend. It honors fine-grained selector chains by
// trying each clause in order, which mirrors slash-separated selector
// fallbacks.
type YTDLP struct {
	logger observability.Logger
}

// NewYTDLP creates the primary extractor.
func NewYTDLP(logger observability.Logger) *YTDLP {
	return &YTDLP{logger: logger}
}

func (e *YTDLP) Name() string { return "ytdlp" }

// Probe resolves metadata without downloading. Fields the backend does not
// report stay zero, which the constraint gate treats as unknown.
func (e *YTDLP) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	dl := ytdlp.New().WithFormat("best", "")
	_, info, err := dl.ResolveURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ytdlp resolve: %w", err)
	}

	probe := &ports.MediaProbe{
		Title:       info.Title,
		DurationSec: int64(info.Duration),
		Channel:     info.Author,
	}
	// Largest single stream stands in for the final file size; individual
	// streams never exceed the merged output the backend would produce.
	for _, f := range info.Formats {
		if f.Size > probe.SizeBytes {
			probe.SizeBytes = f.Size
		}
	}
	return probe, nil
}

// Download tries each selector clause in order and keeps the first stream
// that resolves. Every clause failing returns the last error.
func (e *YTDLP) Download(ctx context.Context, url string, sel selector.Selector, dest string) error {
	var lastErr error
	for _, clause := range sel.Clauses {
		dl := ytdlp.New().
			WithFormat(clause.Expr, clause.Ext).
			WithOutputPath(dest)

		_, err := dl.Download(ctx, url)
		if err == nil {
			return nil
		}
		lastErr = err
		e.logger.Debug("selector clause failed",
			"url", url, "expr", clause.Expr, "ext", clause.Ext, "error", err)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = domain.ErrNoMatchingStream
	}
	return fmt.Errorf("ytdlp download: %w", lastErr)
}

// DownloadBest fetches a best-effort stream for the format.
func (e *YTDLP) DownloadBest(ctx context.Context, url string, format domain.Format, dest string) error {
	ext := ""
	switch format {
	case domain.FormatMP3:
		ext = "m4a"
	case domain.FormatMP4, domain.FormatWebM:
		ext = string(format)
	}

	dl := ytdlp.New().WithFormat("best", ext).WithOutputPath(dest)
	if _, err := dl.Download(ctx, url); err != nil {
		return fmt.Errorf("ytdlp download best: %w", err)
	}
	return nil
}
