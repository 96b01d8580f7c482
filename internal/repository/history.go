// Package repository implements the history recorder and metadata cache
// persistence on top of the ports.Database surface.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

const historyTable = "download_history"

// HistoryRepository is the append-only recorder of download attempts.
// Terminal writes are guarded in SQL so a late retry callback can never
// overwrite an earlier terminal status, in-process or across processes.
type HistoryRepository struct {
	db      ports.Database
	qb      squirrel.StatementBuilderType
	logger  observability.Logger
	metrics observability.Metrics
	now     func() time.Time
}

// NewHistoryRepository creates a history repository over db.
func NewHistoryRepository(db ports.Database, logger observability.Logger, metrics observability.Metrics) *HistoryRepository {
	return &HistoryRepository{
		db:      db,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(db.Placeholder()),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Create inserts a Started attempt for url and returns its id.
func (r *HistoryRepository) Create(ctx context.Context, url string) (int64, error) {
	return r.insert(ctx, url, domain.StatusStarted, "", "")
}

// CreateFailed inserts an attempt directly in Failed state. The constraint
// gate uses it when a pre-flight check rejects a request before any
// orchestration starts.
func (r *HistoryRepository) CreateFailed(ctx context.Context, url, reason string) error {
	_, err := r.insert(ctx, url, domain.StatusFailed, "", reason)
	return err
}

func (r *HistoryRepository) insert(ctx context.Context, url string, status domain.AttemptStatus, location, reason string) (int64, error) {
	columns := []string{"url", "status", "created_at", "output_location", "error_message"}
	values := []interface{}{url, status, r.now().UTC(), location, reason}

	// lib/pq has no LastInsertId, so postgres goes through RETURNING.
	if r.db.Placeholder() == squirrel.Dollar {
		query, args, err := r.qb.Insert(historyTable).
			Columns(columns...).
			Values(values...).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := r.db.Get(ctx, &id, query, args...); err != nil {
			return 0, fmt.Errorf("insert attempt: %w", err)
		}
		return id, nil
	}

	query, args, err := r.qb.Insert(historyTable).
		Columns(columns...).
		Values(values...).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	result, err := r.db.Execute(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read attempt id: %w", err)
	}
	return id, nil
}

// Complete marks the attempt Completed and records its output location.
// A no-op when the attempt is already terminal.
func (r *HistoryRepository) Complete(ctx context.Context, id int64, location string) error {
	return r.terminal(ctx, id, domain.StatusCompleted, location, "")
}

// Fail marks the attempt Failed with a reason. A no-op when the attempt is
// already terminal.
func (r *HistoryRepository) Fail(ctx context.Context, id int64, reason string) error {
	return r.terminal(ctx, id, domain.StatusFailed, "", reason)
}

func (r *HistoryRepository) terminal(ctx context.Context, id int64, status domain.AttemptStatus, location, reason string) error {
	query, args, err := r.qb.Update(historyTable).
		Set("status", status).
		Set("output_location", location).
		Set("error_message", reason).
		Where(squirrel.Eq{"id": id, "status": domain.StatusStarted}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.Execute(ctx, query, args...)
	if err != nil {
		r.metrics.IncrementCounter("history.errors", map[string]string{"operation": "terminal"})
		return fmt.Errorf("update attempt %d: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		// Already terminal; the first writer wins.
		r.logger.Debug("terminal write skipped", "id", id, "status", status)
		return nil
	}
	r.metrics.IncrementCounter("history.terminal", map[string]string{"status": string(status)})
	return nil
}

// Get returns a single attempt by id.
func (r *HistoryRepository) Get(ctx context.Context, id int64) (*domain.DownloadAttempt, error) {
	query, args, err := r.qb.Select("*").
		From(historyTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var attempt domain.DownloadAttempt
	if err := r.db.Get(ctx, &attempt, query, args...); err != nil {
		return nil, fmt.Errorf("get attempt %d: %w", id, err)
	}
	return &attempt, nil
}

// List returns all attempts, most recent first.
func (r *HistoryRepository) List(ctx context.Context) ([]domain.DownloadAttempt, error) {
	query, args, err := r.qb.Select("*").
		From(historyTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var attempts []domain.DownloadAttempt
	if err := r.db.Select(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
