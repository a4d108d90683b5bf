package astindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

func TestIndexFile_ExtractsSymbolsAndSearchByName(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	symbols, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)
	require.NotEmpty(t, symbols)

	results := idx.SearchByName("Add", RequestAny, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "Add", results[0].Symbol.Name)
	assert.Equal(t, 1.0, results[0].SimToQuery)
}

func TestIndexFile_UnregisteredLanguageIsSkippedNotError(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	symbols, err := idx.IndexFile(context.Background(), "weird.zzz", []byte("whatever"), "zzz-unknown-lang")
	require.NoError(t, err)
	assert.Nil(t, symbols)
}

func TestIndexFile_ReplacesPreviousFileSymbolsAtomically(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	updated := `package sample

func OnlyOne() {}
`
	_, err = idx.IndexFile(context.Background(), "sample.go", []byte(updated), "go")
	require.NoError(t, err)

	assert.Empty(t, idx.SearchByName("Add", RequestAny, 5))
	assert.NotEmpty(t, idx.SearchByName("OnlyOne", RequestAny, 5))
}

func TestRemoveFile_UnresolvesCrossReferences(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	idx.RemoveFile("sample.go")
	assert.Empty(t, idx.GetSymbolsByFilePath("sample.go"))
	assert.Empty(t, idx.SearchByName("Add", RequestAny, 5))
}

func TestSearchByName_CaseInsensitiveSubstringFallback(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	results := idx.SearchByName("add", RequestAny, 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "Add", results[0].Symbol.Name)
}

func TestSearchBySymbolPath_ExactMatchScoresHighest(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	results := idx.SearchBySymbolPath("Add", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "Add", results[0].Symbol.Name)
}

func TestReset_ClearsEntireArena(t *testing.T) {
	idx := NewIndex(nil)
	defer idx.Close()

	_, err := idx.IndexFile(context.Background(), "sample.go", []byte(goSource), "go")
	require.NoError(t, err)

	idx.Reset()
	assert.Empty(t, idx.GetIndexedSymbolPaths())
	assert.Empty(t, idx.SearchByName("Add", RequestAny, 5))
}

func TestRange_Contains(t *testing.T) {
	r := Range{StartRow: 2, StartCol: 0, EndRow: 5, EndCol: 10}
	assert.True(t, r.Contains(3, 0))
	assert.True(t, r.Contains(2, 0))
	assert.False(t, r.Contains(1, 0))
	assert.False(t, r.Contains(5, 11))
}
