package vecdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSourceForSplit = `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

func TestSplit_UnregisteredLanguageFallsBackToLineWindow(t *testing.T) {
	s := NewSplitter(nil, DefaultSplitterConfig())
	defer s.Close()

	results, err := s.Split(context.Background(), "data.zzz", []byte("line one\nline two\nline three\n"), "zzz-unknown-lang")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].StartLine)
}

func TestSplit_GoSourceProducesPerSymbolWindows(t *testing.T) {
	s := NewSplitter(nil, DefaultSplitterConfig())
	defer s.Close()

	results, err := s.Split(context.Background(), "sample.go", []byte(goSourceForSplit), "go")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Equal(t, "sample.go", r.FilePath)
		assert.NotEmpty(t, r.WindowTextHash)
		assert.LessOrEqual(t, r.StartLine, r.EndLine)
	}
}

func TestSplit_EmptyContentReturnsNoWindows(t *testing.T) {
	s := NewSplitter(nil, DefaultSplitterConfig())
	defer s.Close()

	results, err := s.Split(context.Background(), "empty.go", []byte(""), "go")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSplitLinesKeepEnds(t *testing.T) {
	lines := splitLinesKeepEnds([]byte("a\nb\nc"))
	assert.Equal(t, []string{"a\n", "b\n", "c"}, lines)
}

func TestNewSplitResult_HashIsStableForIdenticalText(t *testing.T) {
	a := newSplitResult("f.go", "same text", 1, 2)
	b := newSplitResult("f.go", "same text", 5, 6)
	assert.Equal(t, a.WindowTextHash, b.WindowTextHash)
}
