package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab/internal/domain"
)

func TestBuildMP4(t *testing.T) {
	sel := Build(domain.FormatMP4, 720)

	require.Len(t, sel.Clauses, 3)
	assert.False(t, sel.AudioOnly)
	assert.Equal(t, Clause{Expr: "height<=720", Ext: "mp4"}, sel.Clauses[0])
	assert.Equal(t, Clause{Expr: "best", Ext: "mp4"}, sel.Clauses[1])
	assert.Equal(t, Clause{Expr: "best"}, sel.Clauses[2])
}

func TestBuildWebM(t *testing.T) {
	sel := Build(domain.FormatWebM, 1080)

	require.Len(t, sel.Clauses, 3)
	assert.Equal(t, Clause{Expr: "height<=1080", Ext: "webm"}, sel.Clauses[0])
	assert.Equal(t, Clause{Expr: "best", Ext: "webm"}, sel.Clauses[1])
	assert.Equal(t, Clause{Expr: "best"}, sel.Clauses[2])
}

func TestBuildMKV(t *testing.T) {
	sel := Build(domain.FormatMKV, 480)

	require.Len(t, sel.Clauses, 2)
	assert.Equal(t, Clause{Expr: "height<=480"}, sel.Clauses[0])
	assert.Equal(t, Clause{Expr: "best"}, sel.Clauses[1])
}

func TestBuildMP3(t *testing.T) {
	sel := Build(domain.FormatMP3, 0)

	assert.True(t, sel.AudioOnly)
	require.Len(t, sel.Clauses, 2)
	assert.Equal(t, Clause{Expr: "best", Ext: "m4a"}, sel.Clauses[0])
	assert.Equal(t, Clause{Expr: "best"}, sel.Clauses[1])
}

// Build must be total: an unrecognized format still yields a usable chain.
func TestBuildUnknownFormat(t *testing.T) {
	sel := Build(domain.Format("flv"), 720)

	require.Len(t, sel.Clauses, 1)
	assert.Equal(t, Clause{Expr: "best"}, sel.Clauses[0])
}

func TestBuildDeterministic(t *testing.T) {
	for _, format := range domain.AllowedFormats {
		first := Build(format, 720)
		second := Build(format, 720)
		assert.Equal(t, first, second)
	}
}
