// Package worker runs the background download pool: a bounded set of
// goroutines consuming jobs from the queue and driving the orchestrator.
package worker

import (
	"context"
	"encoding/json"
	"sync"

	"ytgrab/internal/observability"
	"ytgrab/internal/orchestrator"
	"ytgrab/internal/ports"
)

// Pool consumes download jobs from a queue target with a fixed number of
// workers. Jobs run independently and may complete out of order; the only
// shared state with the enqueuing side is the history recorder.
type Pool struct {
	queue   ports.Queue
	orch    *orchestrator.Orchestrator
	target  string
	workers int
	logger  observability.Logger
	metrics observability.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool of the given size over queue's target.
func NewPool(queue ports.Queue, orch *orchestrator.Orchestrator, target string, workers int,
	logger observability.Logger, metrics observability.Metrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:   queue,
		orch:    orch,
		target:  target,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

// Start launches the workers. It returns immediately.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.logger.Info("download pool starting", "workers", p.workers, "target", p.target)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			if err := p.queue.Consume(ctx, p.target, p.handle); err != nil && ctx.Err() == nil {
				p.logger.Error("worker exited", "worker", id, "error", err)
			}
		}(i)
	}
}

// Stop cancels the workers and waits for in-flight jobs to reach a
// terminal status.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("download pool stopped")
}

func (p *Pool) handle(ctx context.Context, body []byte) error {
	var job orchestrator.Job
	if err := json.Unmarshal(body, &job); err != nil {
		p.logger.Error("discarding malformed job", "error", err)
		p.metrics.IncrementCounter("worker.jobs", map[string]string{"outcome": "malformed"})
		return err
	}

	p.metrics.RecordGauge("worker.active", 1, nil)
	defer p.metrics.RecordGauge("worker.active", 0, nil)

	// The orchestrator always reaches a terminal status; its error is
	// informational here since callers observe the persisted history.
	if err := p.orch.Run(ctx, job); err != nil {
		p.logger.Warn("job finished with failure", "attempt_id", job.AttemptID, "error", err)
		p.metrics.IncrementCounter("worker.jobs", map[string]string{"outcome": "failed"})
		return nil
	}
	p.metrics.IncrementCounter("worker.jobs", map[string]string{"outcome": "completed"})
	return nil
}
