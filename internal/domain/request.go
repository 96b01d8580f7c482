package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is a target container format for a download.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatMKV  Format = "mkv"
	FormatMP3  Format = "mp3"
)

// AllowedFormats lists the formats accepted at the request boundary.
var AllowedFormats = []Format{FormatMP4, FormatWebM, FormatMKV, FormatMP3}

// Quality is a target resolution label. It is ignored for audio-only formats.
type Quality string

// AllowedQualities lists the quality labels accepted at the request boundary.
var AllowedQualities = []Quality{"360p", "480p", "720p", "1080p", "4k"}

// DownloadRequest is the immutable value object accepted by the service.
type DownloadRequest struct {
	URL     string  `json:"url"`
	Format  Format  `json:"format"`
	Quality Quality `json:"quality"`
}

// IsAllowedFormat reports whether f is one of the supported container formats.
func IsAllowedFormat(f Format) bool {
	for _, allowed := range AllowedFormats {
		if f == allowed {
			return true
		}
	}
	return false
}

// IsAllowedQuality reports whether q is one of the supported quality labels.
func IsAllowedQuality(q Quality) bool {
	for _, allowed := range AllowedQualities {
		if Quality(strings.ToLower(string(q))) == allowed {
			return true
		}
	}
	return false
}

// ParseQuality translates a quality label into a numeric height ceiling:
// "720p" becomes 720, "4k" becomes 4000. Labels that do not parse to a
// height return ErrInvalidQuality.
func ParseQuality(q Quality) (int, error) {
	normalized := strings.ToLower(strings.TrimSpace(string(q)))
	normalized = strings.ReplaceAll(normalized, "k", "000")
	normalized = strings.TrimSuffix(normalized, "p")

	height, err := strconv.Atoi(normalized)
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, q)
	}
	return height, nil
}
