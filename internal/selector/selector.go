// Package selector translates a container format and resolution ceiling into
// an ordered preference chain for the primary extraction backend.
package selector

import (
	"fmt"

	"ytgrab/internal/domain"
)

// Clause is a single selection preference: an expression in the backend's
// selector syntax plus an optional container extension constraint.
type Clause struct {
	Expr string
	Ext  string
}

// Selector is an ordered preference chain. The backend adapter tries each
// clause in turn and keeps the first one that yields a stream, which
// reproduces the fallback semantics of a slash-separated yt-dlp selector.
type Selector struct {
	Clauses   []Clause
	AudioOnly bool
}

// Build maps (format, targetHeight) to a Selector. It is total: an
// unrecognized format falls back to the best available stream. The height
// ceiling must already be parsed from the quality label; see
// domain.ParseQuality.
func Build(format domain.Format, targetHeight int) Selector {
	heightCap := fmt.Sprintf("height<=%d", targetHeight)

	switch format {
	case domain.FormatMP4:
		// Prefer capped mp4 video with compatible audio, then any mp4, then anything.
		return Selector{Clauses: []Clause{
			{Expr: heightCap, Ext: "mp4"},
			{Expr: "best", Ext: "mp4"},
			{Expr: "best"},
		}}
	case domain.FormatWebM:
		return Selector{Clauses: []Clause{
			{Expr: heightCap, Ext: "webm"},
			{Expr: "best", Ext: "webm"},
			{Expr: "best"},
		}}
	case domain.FormatMKV:
		// mkv holds any codec pairing, so no container constraint; the cap is
		// the only hard preference.
		return Selector{Clauses: []Clause{
			{Expr: heightCap},
			{Expr: "best"},
		}}
	case domain.FormatMP3:
		return Selector{
			AudioOnly: true,
			Clauses: []Clause{
				{Expr: "best", Ext: "m4a"},
				{Expr: "best"},
			},
		}
	default:
		return Selector{Clauses: []Clause{{Expr: "best"}}}
	}
}
