package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
	"ytgrab/internal/selector"
)

type fakeExtractor struct {
	name string
	// failuresBeforeSuccess < 0 means every attempt fails.
	failuresBeforeSuccess int
	panics                bool

	downloadCalls int
	bestCalls     int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	panic("not used")
}

func (f *fakeExtractor) Download(ctx context.Context, url string, sel selector.Selector, dest string) error {
	f.downloadCalls++
	return f.attempt(f.downloadCalls, dest)
}

func (f *fakeExtractor) DownloadBest(ctx context.Context, url string, format domain.Format, dest string) error {
	f.bestCalls++
	return f.attempt(f.bestCalls, dest)
}

func (f *fakeExtractor) attempt(call int, dest string) error {
	if f.panics {
		panic("backend blew up")
	}
	if f.failuresBeforeSuccess < 0 || call <= f.failuresBeforeSuccess {
		// Leave a partial file behind, as a real interrupted download would.
		os.WriteFile(dest, []byte("partial"), 0o644)
		return errors.New("stream error")
	}
	return os.WriteFile(dest, []byte("media"), 0o644)
}

type fakeHistory struct {
	completed []string
	failed    []string
}

func (h *fakeHistory) Complete(ctx context.Context, id int64, location string) error {
	h.completed = append(h.completed, location)
	return nil
}

func (h *fakeHistory) Fail(ctx context.Context, id int64, reason string) error {
	h.failed = append(h.failed, reason)
	return nil
}

func newTestOrchestrator(t *testing.T, primary, secondary *fakeExtractor, history History) *Orchestrator {
	t.Helper()
	provider := observability.NewProvider(&observability.Config{
		ServiceName: "test",
		LogOutput:   io.Discard,
	})
	o := New(primary, secondary, history, 3, time.Second,
		provider.Logger("orchestrator"), provider.Metrics("orchestrator"))
	o.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return o
}

func testJob(t *testing.T, format domain.Format, quality domain.Quality) Job {
	t.Helper()
	return Job{
		AttemptID: 1,
		Request: domain.DownloadRequest{
			URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			Format:  format,
			Quality: quality,
		},
		OutputPath:     filepath.Join(t.TempDir(), "download_1.mp4"),
		OutputLocation: "/files/download_1.mp4",
	}
}

func TestRunPrimarySucceedsFirstTry(t *testing.T) {
	primary := &fakeExtractor{name: "primary"}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	require.NoError(t, o.Run(context.Background(), job))

	assert.Equal(t, 1, primary.downloadCalls)
	assert.Zero(t, secondary.bestCalls)
	assert.Equal(t, []string{job.OutputLocation}, history.completed)
	assert.Empty(t, history.failed)
	assert.FileExists(t, job.OutputPath)
}

func TestRunFallsBackAfterPrimaryExhausted(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: -1}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	require.NoError(t, o.Run(context.Background(), job))

	assert.Equal(t, 3, primary.downloadCalls)
	assert.Equal(t, 1, secondary.bestCalls)
	assert.Equal(t, []string{job.OutputLocation}, history.completed)
	assert.Empty(t, history.failed)
	assert.FileExists(t, job.OutputPath)
}

func TestRunBothBackendsExhausted(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: -1}
	secondary := &fakeExtractor{name: "secondary", failuresBeforeSuccess: -1}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	err := o.Run(context.Background(), job)

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Equal(t, 3, primary.downloadCalls)
	assert.Equal(t, 3, secondary.bestCalls)
	assert.Empty(t, history.completed)
	require.Len(t, history.failed, 1)
	assert.Contains(t, history.failed[0], "primary:")
	assert.Contains(t, history.failed[0], "fallback:")
	assert.NoFileExists(t, job.OutputPath)
}

func TestRunRetriesPrimaryBeforeSucceeding(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: 2}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	require.NoError(t, o.Run(context.Background(), job))

	assert.Equal(t, 3, primary.downloadCalls)
	assert.Zero(t, secondary.bestCalls)
	assert.Equal(t, []string{job.OutputLocation}, history.completed)
}

func TestRunMalformedQualityShortCircuits(t *testing.T) {
	primary := &fakeExtractor{name: "primary"}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "bogus")

	err := o.Run(context.Background(), job)

	assert.ErrorIs(t, err, domain.ErrInvalidQuality)
	assert.Zero(t, primary.downloadCalls)
	assert.Zero(t, secondary.bestCalls)
	assert.Empty(t, history.completed)
	assert.Len(t, history.failed, 1)
}

func TestRunAudioIgnoresQuality(t *testing.T) {
	primary := &fakeExtractor{name: "primary"}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP3, "bogus")

	require.NoError(t, o.Run(context.Background(), job))
	assert.Equal(t, 1, primary.downloadCalls)
}

func TestRunPanickingBackendCountsAsFailure(t *testing.T) {
	primary := &fakeExtractor{name: "primary", panics: true}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	require.NoError(t, o.Run(context.Background(), job))

	assert.Equal(t, 3, primary.downloadCalls)
	assert.Equal(t, 1, secondary.bestCalls)
	assert.Equal(t, []string{job.OutputLocation}, history.completed)
}

func TestRunBacksOffBetweenAttempts(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: -1}
	secondary := &fakeExtractor{name: "secondary"}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)

	var sleeps int
	o.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		assert.Equal(t, time.Second, d)
		return nil
	}

	require.NoError(t, o.Run(context.Background(), testJob(t, domain.FormatMP4, "720p")))
	// Two pauses between the three primary attempts; the fallback succeeds
	// on its first try.
	assert.Equal(t, 2, sleeps)
}

// ctxCheckingHistory rejects writes on a dead context, the way a real
// database driver does.
type ctxCheckingHistory struct {
	fakeHistory
}

func (h *ctxCheckingHistory) Complete(ctx context.Context, id int64, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.fakeHistory.Complete(ctx, id, location)
}

func (h *ctxCheckingHistory) Fail(ctx context.Context, id int64, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.fakeHistory.Fail(ctx, id, reason)
}

// A shutdown that cancels a running job must not strand the attempt in
// Started: the terminal write has to land on a live context.
func TestRunShutdownStillRecordsFailure(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: -1}
	secondary := &fakeExtractor{name: "secondary", failuresBeforeSuccess: -1}
	history := &ctxCheckingHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	o.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, testJob(t, domain.FormatMP4, "720p"))

	require.Error(t, err)
	assert.Empty(t, history.completed)
	require.Len(t, history.failed, 1)
}

func TestRunShutdownStillRecordsCompletion(t *testing.T) {
	primary := &fakeExtractor{name: "primary"}
	secondary := &fakeExtractor{name: "secondary"}
	history := &ctxCheckingHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	job := testJob(t, domain.FormatMP4, "720p")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The backend finished before the cancellation was observed; the
	// completion must still be recorded.
	require.NoError(t, o.Run(ctx, job))
	assert.Equal(t, []string{job.OutputLocation}, history.completed)
}

func TestRunContextCancelAborts(t *testing.T) {
	primary := &fakeExtractor{name: "primary", failuresBeforeSuccess: -1}
	secondary := &fakeExtractor{name: "secondary", failuresBeforeSuccess: -1}
	history := &fakeHistory{}
	o := newTestOrchestrator(t, primary, secondary, history)
	o.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	err := o.Run(context.Background(), testJob(t, domain.FormatMP4, "720p"))

	require.Error(t, err)
	// One try per backend; the cancelled backoff stops each loop.
	assert.Equal(t, 1, primary.downloadCalls)
	assert.Equal(t, 1, secondary.bestCalls)
}
