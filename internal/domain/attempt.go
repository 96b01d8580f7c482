package domain

import "time"

// AttemptStatus is the lifecycle state of a download attempt.
type AttemptStatus string

const (
	StatusStarted   AttemptStatus = "Started"
	StatusCompleted AttemptStatus = "Completed"
	StatusFailed    AttemptStatus = "Failed"
)

// IsTerminal reports whether no further status transition may occur.
func (s AttemptStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DownloadAttempt is the persisted history record for a single accepted
// request. It is created in Started state and receives exactly one terminal
// mutation to Completed or Failed.
type DownloadAttempt struct {
	ID             int64         `db:"id" json:"id"`
	URL            string        `db:"url" json:"url"`
	Status         AttemptStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	OutputLocation string        `db:"output_location" json:"output_location"`
	ErrorMessage   string        `db:"error_message" json:"error_message,omitempty"`
}
