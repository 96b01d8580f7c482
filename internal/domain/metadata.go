package domain

import (
	"fmt"
	"time"
)

// VideoMetadata is the cached descriptive metadata for a video URL.
// At most one entry exists per URL; once stored it is never refreshed.
type VideoMetadata struct {
	ID            int64     `db:"id" json:"-"`
	URL           string    `db:"url" json:"url"`
	Title         string    `db:"title" json:"title"`
	Duration      string    `db:"duration" json:"duration"`
	Views         int64     `db:"views" json:"views"`
	Likes         *int64    `db:"likes" json:"likes"`
	Channel       string    `db:"channel" json:"channel"`
	ThumbnailURL  string    `db:"thumbnail_url" json:"thumbnail_url"`
	PublishedDate *string   `db:"published_date" json:"published_date"`
	FetchedAt     time.Time `db:"fetched_at" json:"-"`
}

// FormatDuration renders a duration in seconds as "1h 2m 3s", dropping the
// hour component when zero.
func FormatDuration(seconds int64) string {
	minutes, sec := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, sec)
	}
	return fmt.Sprintf("%dm %ds", minutes, sec)
}
