package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_ResolvesRelativeToAbsolute(t *testing.T) {
	got := Canonicalize(".")
	assert.True(t, filepath.IsAbs(got))
}

func TestSuffixKeys(t *testing.T) {
	keys := suffixKeys("/repo/internal/workspace/registry.go")
	assert.Contains(t, keys, "registry.go")
	assert.Contains(t, keys, "workspace/registry.go")
	assert.Contains(t, keys, "internal/workspace/registry.go")
	assert.Contains(t, keys, "/repo/internal/workspace/registry.go")
}

func TestSuffixKeys_BackslashNormalized(t *testing.T) {
	keys := suffixKeys(`C:\repo\internal\registry.go`)
	assert.Contains(t, keys, "registry.go")
	assert.Contains(t, keys, "internal/registry.go")
}

func TestBaseFileName(t *testing.T) {
	assert.Equal(t, "registry.go", baseFileName("/repo/internal/workspace/registry.go"))
	assert.Equal(t, "registry.go", baseFileName(`C:\repo\registry.go`))
	assert.Equal(t, "registry.go", baseFileName("registry.go"))
}

func TestLowerDrivePrefix(t *testing.T) {
	assert.Equal(t, `c:\repo`, lowerDrivePrefix(`C:\repo`))
	assert.Equal(t, `\\server\share\file`, lowerDrivePrefix(`\\server\share\file`))
}
