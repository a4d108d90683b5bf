package workspace

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Canonicalize resolves p to an absolute, normalized path: symlinks are
// resolved where possible (falling back to the lexical absolute path if
// that fails), "." and ".." components are collapsed, and on Windows the
// drive-letter prefix is lowercased. UNC paths (\\server\share\...) are left
// with their original casing beyond the drive-letter step since the source
// this engine was modeled on leaves that behavior implementation-defined;
// pinned here as: UNC prefixes pass through unchanged (see DESIGN.md).
func Canonicalize(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	abs = filepath.Clean(abs)

	if runtime.GOOS == "windows" {
		abs = lowerDrivePrefix(abs)
	}

	return abs
}

// lowerDrivePrefix lowercases a leading "C:" drive letter, leaving UNC
// prefixes ("\\server\share") untouched.
func lowerDrivePrefix(p string) string {
	if strings.HasPrefix(p, `\\`) {
		return p
	}
	if len(p) >= 2 && p[1] == ':' {
		return strings.ToLower(p[:2]) + p[2:]
	}
	return p
}

// suffixKeys returns every slash-normalized tail suffix of p, starting from
// the bare filename up to the full path, for use as cache_correction keys.
func suffixKeys(p string) []string {
	normalized := strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(normalized, "/")

	keys := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		suffix := strings.Join(parts[i:], "/")
		if suffix == "" {
			continue
		}
		keys = append(keys, suffix)
	}
	return keys
}

func baseFileName(p string) string {
	normalized := strings.ReplaceAll(p, "\\", "/")
	idx := strings.LastIndex(normalized, "/")
	if idx < 0 {
		return normalized
	}
	return normalized[idx+1:]
}
