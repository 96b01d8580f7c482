package domain

import (
	"regexp"
	"strings"
)

// youtubeURLPattern accepts canonical watch URLs, shortened youtu.be links
// and embed URLs, each carrying an 11-character video id.
var youtubeURLPattern = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/` +
		`(watch\?v=|(?:v|e(?:mbed)?)/|.*[?&]v=|.*[?&]embed/|.*/)([a-zA-Z0-9_-]{11})`,
)

// IsValidYouTubeURL reports whether url looks like a single YouTube video
// URL. Strings containing more than one scheme or more than one "www."
// occurrence are rejected outright to catch concatenated or smuggled URLs.
func IsValidYouTubeURL(url string) bool {
	if strings.Count(url, "http://") > 1 || strings.Count(url, "https://") > 1 {
		return false
	}
	if strings.Count(url, "www.") > 1 {
		return false
	}
	return youtubeURLPattern.MatchString(strings.TrimSpace(url))
}
