package gate

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

type stubProber struct {
	probe *ports.MediaProbe
	err   error
}

func (s *stubProber) Probe(ctx context.Context, url string) (*ports.MediaProbe, error) {
	return s.probe, s.err
}

type recordingHistory struct {
	reasons []string
}

func (r *recordingHistory) CreateFailed(ctx context.Context, url, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

func newTestGate(t *testing.T, prober Prober, history FailureRecorder) *Gate {
	t.Helper()
	provider := observability.NewProvider(&observability.Config{
		ServiceName: "test",
		LogOutput:   io.Discard,
	})
	return New(prober, history, 3<<30, 5*time.Hour,
		provider.Logger("gate"), provider.Metrics("gate"))
}

func TestCheckPasses(t *testing.T) {
	prober := &stubProber{probe: &ports.MediaProbe{
		Title:       "ok",
		SizeBytes:   500 << 20,
		DurationSec: 600,
	}}
	history := &recordingHistory{}
	g := newTestGate(t, prober, history)

	probe, err := g.Check(context.Background(), "url")

	require.NoError(t, err)
	assert.Equal(t, prober.probe, probe)
	assert.Empty(t, history.reasons)
}

func TestCheckRejectsOversized(t *testing.T) {
	prober := &stubProber{probe: &ports.MediaProbe{SizeBytes: 4 << 30}}
	history := &recordingHistory{}
	g := newTestGate(t, prober, history)

	_, err := g.Check(context.Background(), "url")

	assert.ErrorIs(t, err, domain.ErrVideoTooLarge)
	assert.Equal(t, []string{"exceeds size limit"}, history.reasons)
}

func TestCheckRejectsOverlong(t *testing.T) {
	prober := &stubProber{probe: &ports.MediaProbe{DurationSec: 6 * 3600}}
	history := &recordingHistory{}
	g := newTestGate(t, prober, history)

	_, err := g.Check(context.Background(), "url")

	assert.ErrorIs(t, err, domain.ErrVideoTooLong)
	assert.Equal(t, []string{"exceeds duration limit"}, history.reasons)
}

// A backend that cannot report size or duration returns zeros; the gate
// treats unknown as acceptable rather than rejecting blind.
func TestCheckUnknownValuesPass(t *testing.T) {
	prober := &stubProber{probe: &ports.MediaProbe{Title: "no numbers"}}
	history := &recordingHistory{}
	g := newTestGate(t, prober, history)

	_, err := g.Check(context.Background(), "url")

	require.NoError(t, err)
	assert.Empty(t, history.reasons)
}

func TestCheckProbeErrorPropagates(t *testing.T) {
	probeErr := errors.New("probe blew up")
	history := &recordingHistory{}
	g := newTestGate(t, &stubProber{err: probeErr}, history)

	_, err := g.Check(context.Background(), "url")

	assert.ErrorIs(t, err, probeErr)
	assert.Empty(t, history.reasons, "probe failures are not gate rejections")
}
