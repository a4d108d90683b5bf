package astindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchByCursor_FindsEnclosingSymbol(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	result, err := idx.SearchByCursor(context.Background(), "sample.go", []byte(goSource), 3, 1, 5)
	require.NoError(t, err)
	require.Len(t, result.CursorSymbols, 1)
	assert.Equal(t, "Add", result.CursorSymbols[0].Name)
}

func TestSearchByCursor_OutsideAnyRangeReturnsEmpty(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	result, err := idx.SearchByCursor(context.Background(), "sample.go", []byte(goSource), 0, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, result.CursorSymbols)
	assert.Empty(t, result.SearchResults)
}

func TestIdentifiersIn_ExtractsTokensFromRange(t *testing.T) {
	code := []byte("line0\nline1 foo bar\nline2\n")
	offsets := cursorRowOffsets(code)
	r := Range{StartRow: 1, EndRow: 1}

	got := identifiersIn(code, r, offsets)
	assert.Contains(t, got, "foo")
	assert.Contains(t, got, "bar")
	assert.NotContains(t, got, "line0")
}
