package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
	"ytgrab/internal/selector"
)

// YouTube is the secondary backend. It cannot apply fine-grained selectors;
// it only picks the best progressive stream for a container or the best
// audio-only stream.
type YouTube struct {
	client youtube.Client
	logger observability.Logger
}

// NewYouTube creates the secondary extractor.
func NewYouTube(logger observability.Logger) *YouTube {
	return &YouTube{logger: logger}
}

func (e *YouTube) Name() string { return "youtube" }

func (e *YouTube) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("youtube probe: %w", err)
	}

	probe := &ports.MediaProbe{
		Title:       video.Title,
		DurationSec: int64(video.Duration.Seconds()),
		Views:       int64(video.Views),
		Channel:     video.Author,
	}
	if len(video.Thumbnails) > 0 {
		probe.ThumbnailURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	if !video.PublishDate.IsZero() {
		probe.PublishedDate = video.PublishDate.Format("2006-01-02")
	}
	if best := bestProgressive(video, ""); best != nil {
		probe.SizeBytes = best.ContentLength
	}
	return probe, nil
}

// Download approximates the selector with the coarse choices this backend
// supports: audio-only selectors map to the best audio stream, everything
// else to the best progressive stream matching the first clause's container.
func (e *YouTube) Download(ctx context.Context, url string, sel selector.Selector, dest string) error {
	if sel.AudioOnly {
		return e.DownloadBest(ctx, url, domain.FormatMP3, dest)
	}
	ext := ""
	if len(sel.Clauses) > 0 {
		ext = sel.Clauses[0].Ext
	}
	return e.downloadCoarse(ctx, url, false, ext, dest)
}

func (e *YouTube) DownloadBest(ctx context.Context, url string, format domain.Format, dest string) error {
	if format == domain.FormatMP3 {
		return e.downloadCoarse(ctx, url, true, "", dest)
	}
	return e.downloadCoarse(ctx, url, false, string(format), dest)
}

func (e *YouTube) downloadCoarse(ctx context.Context, url string, audioOnly bool, ext, dest string) error {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return fmt.Errorf("youtube fetch: %w", err)
	}

	var format *youtube.Format
	if audioOnly {
		format = bestAudio(video)
	} else {
		format = bestProgressive(video, ext)
	}
	if format == nil {
		return fmt.Errorf("youtube: %w", domain.ErrNoMatchingStream)
	}

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("youtube stream: %w", err)
	}
	defer stream.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, stream); err != nil {
		os.Remove(dest)
		return fmt.Errorf("youtube copy: %w", err)
	}
	return nil
}

// bestProgressive returns the highest-resolution stream that carries both
// audio and video, optionally restricted to a container subtype. Nil when no
// stream qualifies.
func bestProgressive(video *youtube.Video, ext string) *youtube.Format {
	candidates := video.Formats.WithAudioChannels()
	if ext != "" {
		candidates = candidates.Type(ext)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := labelHeight(candidates[i].QualityLabel), labelHeight(candidates[j].QualityLabel)
		if hi != hj {
			return hi > hj
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return &candidates[0]
}

// bestAudio returns the highest-bitrate audio-only stream, or nil.
func bestAudio(video *youtube.Video) *youtube.Format {
	candidates := video.Formats.Type("audio")
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return &candidates[0]
}

// labelHeight parses the leading digits of a quality label like "720p60".
func labelHeight(label string) int {
	digits := label
	for i, r := range label {
		if r < '0' || r > '9' {
			digits = label[:i]
			break
		}
	}
	height, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil {
		return 0
	}
	return height
}
