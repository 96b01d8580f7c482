// Package orchestrator drives a download through the primary backend with
// bounded retries, falls back to the secondary backend, and writes exactly
// one terminal status to the history recorder.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
	"ytgrab/internal/selector"
)

// Job is a unit of background download work.
type Job struct {
	AttemptID int64                  `json:"attempt_id"`
	Request   domain.DownloadRequest `json:"request"`
	// OutputPath is where the media file is written.
	OutputPath string `json:"output_path"`
	// OutputLocation is the public location recorded on completion.
	OutputLocation string `json:"output_location"`
}

// History is the terminal-write surface of the history recorder.
type History interface {
	Complete(ctx context.Context, id int64, location string) error
	Fail(ctx context.Context, id int64, reason string) error
}

type state int

const (
	statePending state = iota
	statePrimaryAttempt
	stateFallbackAttempt
	stateCompleted
	stateFailed
)

func (s state) String() string {
	switch s {
	case statePending:
		return "Pending"
	case statePrimaryAttempt:
		return "PrimaryAttempt"
	case stateFallbackAttempt:
		return "FallbackAttempt"
	case stateCompleted:
		return "Completed"
	case stateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Orchestrator runs download jobs to a terminal status. Within a run the
// steps are strictly sequential; concurrency happens only across jobs.
type Orchestrator struct {
	primary   ports.Extractor
	secondary ports.Extractor
	history   History
	attempts  int
	backoff   time.Duration
	logger    observability.Logger
	metrics   observability.Metrics

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator with the given retry bound and backoff.
func New(primary, secondary ports.Extractor, history History, attempts int, backoff time.Duration,
	logger observability.Logger, metrics observability.Metrics) *Orchestrator {
	if attempts < 1 {
		attempts = 1
	}
	return &Orchestrator{
		primary:   primary,
		secondary: secondary,
		history:   history,
		attempts:  attempts,
		backoff:   backoff,
		logger:    logger,
		metrics:   metrics,
		sleep:     sleepCtx,
	}
}

// Run executes job until Completed or Failed and records the outcome. It
// returns an error for the asynchronous caller's log; the authoritative
// outcome is the persisted status.
func (o *Orchestrator) Run(ctx context.Context, job Job) error {
	logger := o.logger.WithFields(observability.Fields{
		"attempt_id": job.AttemptID,
		"url":        job.Request.URL,
	})
	current := statePending

	started := time.Now()
	defer func() {
		o.metrics.RecordHistogram("download.duration_seconds",
			time.Since(started).Seconds(),
			map[string]string{"outcome": current.String()})
	}()

	targetHeight := 0
	if job.Request.Format != domain.FormatMP3 {
		height, err := domain.ParseQuality(job.Request.Quality)
		if err != nil {
			// Malformed quality short-circuits: neither backend is invoked.
			current = o.transition(logger, current, stateFailed)
			o.recordFailure(ctx, logger, job, err.Error())
			return err
		}
		targetHeight = height
	}
	sel := selector.Build(job.Request.Format, targetHeight)

	current = o.transition(logger, current, statePrimaryAttempt)
	primaryErr := o.attemptLoop(ctx, logger, o.primary, job, func(attemptCtx context.Context) error {
		return o.primary.Download(attemptCtx, job.Request.URL, sel, job.OutputPath)
	})
	if primaryErr == nil {
		current = o.transition(logger, current, stateCompleted)
		return o.recordSuccess(ctx, logger, job, o.primary.Name())
	}

	current = o.transition(logger, current, stateFallbackAttempt)
	fallbackErr := o.attemptLoop(ctx, logger, o.secondary, job, func(attemptCtx context.Context) error {
		return o.secondary.DownloadBest(attemptCtx, job.Request.URL, job.Request.Format, job.OutputPath)
	})
	if fallbackErr == nil {
		current = o.transition(logger, current, stateCompleted)
		return o.recordSuccess(ctx, logger, job, o.secondary.Name())
	}

	current = o.transition(logger, current, stateFailed)
	reason := fmt.Sprintf("primary: %v; fallback: %v", primaryErr, fallbackErr)
	o.recordFailure(ctx, logger, job, reason)
	return fmt.Errorf("%w: %s", domain.ErrExtractionFailed, reason)
}

// attemptLoop invokes attempt up to the retry bound with a fixed backoff
// between tries, removing any partial output after each failure. Panics
// from a backend count as ordinary attempt failures.
func (o *Orchestrator) attemptLoop(ctx context.Context, logger observability.Logger,
	backend ports.Extractor, job Job, attempt func(ctx context.Context) error) error {
	var lastErr error
	for i := 1; i <= o.attempts; i++ {
		err := o.guardedAttempt(ctx, attempt)
		if err == nil {
			o.metrics.IncrementCounter("download.attempts",
				map[string]string{"backend": backend.Name(), "outcome": "success"})
			return nil
		}
		lastErr = err
		o.metrics.IncrementCounter("download.attempts",
			map[string]string{"backend": backend.Name(), "outcome": "failure"})
		logger.Warn("download attempt failed",
			"backend", backend.Name(), "attempt", i, "of", o.attempts, "error", err)
		removeIfExists(job.OutputPath)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if i < o.attempts {
			if err := o.sleep(ctx, o.backoff); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// guardedAttempt converts a backend panic into an error so a misbehaving
// extractor can never take the worker down.
func (o *Orchestrator) guardedAttempt(ctx context.Context, attempt func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("extractor panic: %v", p)
		}
	}()
	return attempt(ctx)
}

func (o *Orchestrator) recordSuccess(ctx context.Context, logger observability.Logger, job Job, backend string) error {
	// The terminal status must land even when shutdown canceled the run;
	// otherwise the attempt stays in Started forever.
	ctx = context.WithoutCancel(ctx)
	if err := o.history.Complete(ctx, job.AttemptID, job.OutputLocation); err != nil {
		logger.Error("failed to record completion", "error", err)
		return err
	}
	logger.Info("download completed", "backend", backend, "output", job.OutputPath)
	return nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, logger observability.Logger, job Job, reason string) {
	ctx = context.WithoutCancel(ctx)
	removeIfExists(job.OutputPath)
	if err := o.history.Fail(ctx, job.AttemptID, reason); err != nil {
		logger.Error("failed to record failure", "error", err)
		return
	}
	logger.Info("download failed", "reason", reason)
}

func (o *Orchestrator) transition(logger observability.Logger, from, to state) state {
	logger.Debug("state transition", "from", from.String(), "to", to.String())
	return to
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
