package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(paths ...string) *State {
	s := NewState()
	for _, p := range paths {
		s.workspaceFiles[p] = struct{}{}
	}
	s.dirty = true
	return s
}

func TestCorrect_ExactSuffixMatch(t *testing.T) {
	s := newTestState("/repo/internal/workspace/registry.go", "/repo/internal/scanner/scanner.go")

	got := s.Correct("workspace/registry.go", false, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "/repo/internal/workspace/registry.go", got[0])
}

func TestCorrect_NoMatchWithoutFuzzy(t *testing.T) {
	s := newTestState("/repo/internal/workspace/registry.go")
	assert.Empty(t, s.Correct("regsitry.go", false, 5))
}

func TestCorrect_FuzzyFallback(t *testing.T) {
	s := newTestState("/repo/internal/workspace/registry.go")
	got := s.Correct("regsitry.go", true, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "/repo/internal/workspace/registry.go", got[0])
}

func TestRebuildCaches_OnlyRunsWhenDirty(t *testing.T) {
	s := newTestState("/repo/main.go")
	s.RebuildCaches()
	assert.False(t, s.dirty)

	// a second call with nothing marked dirty is a no-op; cached value
	// stays populated rather than being cleared.
	s.RebuildCaches()
	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.NotEmpty(t, s.correction)
}

func TestMarkDirty_TriggersRebuildOnNextCorrect(t *testing.T) {
	s := newTestState("/repo/main.go")
	s.RebuildCaches()

	s.mu.Lock()
	s.workspaceFiles["/repo/extra.go"] = struct{}{}
	s.mu.Unlock()
	s.MarkDirty()

	got := s.Correct("extra.go", false, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "/repo/extra.go", got[0])
}
