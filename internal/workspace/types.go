// Package workspace implements the Workspace Context Engine's file-tracking
// layer: the File Enumerator, the Document Registry, and the Filename
// Correction Cache. It is the single source of truth other index packages
// (astindex, vecdb, memstore, scheduler) consume for "what files exist and
// what's in them".
package workspace

import (
	"sync"
	"time"

	amanerrors "github.com/Aman-CERP/amanmcp/internal/errors"
)

// Document is a tracked file: either read lazily from disk or shadowed by
// an in-memory override (an editor buffer).
type Document struct {
	Path string
	Text *string // nil means "read from disk when needed"
	Lang string
}

// HasOverride reports whether the document carries live in-memory text.
func (d *Document) HasOverride() bool {
	return d != nil && d.Text != nil
}

// State is the registry's singleton bookkeeping record, guarded by mu.
// It mirrors DocumentsState from the design: an ordered root list, the set
// of on-disk files, the memory override map, and the two filename caches.
type State struct {
	mu sync.RWMutex

	workspaceFolders []string
	workspaceFiles   map[string]struct{}
	memoryDocs       map[string]*Document

	dirtyMu sync.Mutex
	dirty   bool

	correction map[string]string // suffix (slash-normalized) -> canonical path
	fuzzy      []string          // bare filenames, for linear fuzzy search

	totalResetMu       sync.Mutex
	totalResetDeadline time.Time
	totalResetTimer    *time.Timer
}

// NewState constructs an empty registry state.
func NewState() *State {
	return &State{
		workspaceFiles: make(map[string]struct{}),
		memoryDocs:     make(map[string]*Document),
		correction:     make(map[string]string),
	}
}

// ErrNotFound is returned by GetFileText when neither the memory map nor
// disk has the requested path.
var ErrNotFound = amanerrors.New(amanerrors.ErrCodeFileNotFound, "file not found", nil)
