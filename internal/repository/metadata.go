package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"ytgrab/internal/domain"
	"ytgrab/internal/ports"
)

const metadataTable = "video_metadata"

// MetadataRepository persists the URL-keyed metadata cache. Entries are
// written once and never updated; the unique constraint on url plus the
// conflict-ignoring insert keep concurrent fetchers from duplicating rows.
type MetadataRepository struct {
	db  ports.Database
	qb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewMetadataRepository creates a metadata repository over db.
func NewMetadataRepository(db ports.Database) *MetadataRepository {
	return &MetadataRepository{
		db:  db,
		qb:  squirrel.StatementBuilder.PlaceholderFormat(db.Placeholder()),
		now: time.Now,
	}
}

// GetByURL returns the cached entry for url, or nil when none exists.
func (r *MetadataRepository) GetByURL(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	query, args, err := r.qb.Select("*").
		From(metadataTable).
		Where(squirrel.Eq{"url": url}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var metadata domain.VideoMetadata
	err = r.db.Get(ctx, &metadata, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	return &metadata, nil
}

// Put stores metadata for its URL. An existing entry is left untouched.
func (r *MetadataRepository) Put(ctx context.Context, metadata *domain.VideoMetadata) error {
	query, args, err := r.qb.Insert(metadataTable).
		Columns("url", "title", "duration", "views", "likes", "channel",
			"thumbnail_url", "published_date", "fetched_at").
		Values(metadata.URL, metadata.Title, metadata.Duration, metadata.Views,
			metadata.Likes, metadata.Channel, metadata.ThumbnailURL,
			metadata.PublishedDate, r.now().UTC()).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}
	return nil
}
