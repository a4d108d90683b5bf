package workspace

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	amanerrors "github.com/Aman-CERP/amanmcp/internal/errors"
	"github.com/Aman-CERP/amanmcp/internal/watcher"
)

// totalResetDebounce is the window within which repeated delete-of-known-file
// events coalesce into a single full re-enumeration, per spec: "further
// events push the deadline out; first event past the deadline triggers a
// full re-enumerate + re-index".
const totalResetDebounce = 10 * time.Second

// EnqueueFunc is how the Registry hands paths to the Indexing Scheduler. It
// is supplied by the caller wiring the engine together (internal/scheduler)
// so this package stays independent of the scheduler's state machine.
type EnqueueFunc func(paths []string, toAST, toVector bool, force bool)

// ResetFunc requests the AST index perform a full reset (used before a
// total re-enumeration after files went missing).
type ResetFunc func()

// Registry is the Document Registry: the single source of truth for what
// files exist and what's in them. It owns a filesystem watcher and the
// dirty flag that invalidates the Filename Correction Cache.
type Registry struct {
	state *State
	enum  *Enumerator
	log   *slog.Logger

	enqueue EnqueueFunc
	resetAST ResetFunc

	watcherMu sync.Mutex
	watchers  map[string]*watcher.HybridWatcher

	cancel context.CancelFunc
}

// NewRegistry constructs a Registry backed by enum for enumeration.
func NewRegistry(enum *Enumerator, enqueue EnqueueFunc, resetAST ResetFunc, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		state:    NewState(),
		enum:     enum,
		log:      log,
		enqueue:  enqueue,
		resetAST: resetAST,
		watchers: make(map[string]*watcher.HybridWatcher),
	}
}

// State exposes the underlying registry state for read-only callers
// (Filename Correction Cache, diagnostics).
func (r *Registry) State() *State { return r.state }

// AddFolder canonicalizes path, appends it to workspace_folders, starts a
// watcher on it, enumerates it, and enqueues the result to both indexes.
func (r *Registry) AddFolder(ctx context.Context, path string) error {
	canonical := Canonicalize(path)

	r.state.mu.Lock()
	r.state.workspaceFolders = append(r.state.workspaceFolders, canonical)
	r.state.mu.Unlock()

	if err := r.startWatcher(ctx, canonical); err != nil {
		r.log.Warn("watcher start failed, continuing without live updates", slog.String("path", canonical), slog.Any("error", err))
	}

	accepted, rejections, err := r.enum.Enumerate(ctx, canonical)
	if err != nil {
		return amanerrors.Wrap(amanerrors.ErrCodeFileNotFound, err)
	}
	for reason, count := range rejections.Reasons {
		r.log.Debug("enumeration rejection", slog.String("reason", reason), slog.Int("count", count))
	}

	r.state.mu.Lock()
	for _, p := range accepted {
		r.state.workspaceFiles[p] = struct{}{}
	}
	r.state.mu.Unlock()
	r.state.MarkDirty()

	if r.enqueue != nil {
		r.enqueue(accepted, true, true, false)
	}
	return nil
}

// RemoveFolder removes path from the root list and its watcher, then
// re-enumerates the remaining roots and enqueues.
func (r *Registry) RemoveFolder(ctx context.Context, path string) error {
	canonical := Canonicalize(path)

	r.state.mu.Lock()
	filtered := r.state.workspaceFolders[:0]
	for _, f := range r.state.workspaceFolders {
		if f != canonical {
			filtered = append(filtered, f)
		}
	}
	r.state.workspaceFolders = filtered
	remaining := append([]string(nil), filtered...)
	r.state.mu.Unlock()

	r.stopWatcher(canonical)
	r.state.MarkDirty()

	for _, root := range remaining {
		accepted, _, err := r.enum.Enumerate(ctx, root)
		if err != nil {
			continue
		}
		r.state.mu.Lock()
		for _, p := range accepted {
			r.state.workspaceFiles[p] = struct{}{}
		}
		r.state.mu.Unlock()
		if r.enqueue != nil {
			r.enqueue(accepted, true, true, false)
		}
	}
	return nil
}

// OnDidOpen overwrites or creates a memory document and marks the caches
// dirty (a memory-only path may need a new suffix-cache entry).
func (r *Registry) OnDidOpen(path, text, lang string) {
	canonical := Canonicalize(path)
	r.state.mu.Lock()
	r.state.memoryDocs[canonical] = &Document{Path: canonical, Text: &text, Lang: lang}
	r.state.mu.Unlock()
	r.state.MarkDirty()
}

// OnDidChange records new buffer text and pushes the document (with
// text=nil, forcing the worker to re-read current content) to the
// Scheduler.
func (r *Registry) OnDidChange(path, text string) {
	canonical := Canonicalize(path)
	r.state.mu.Lock()
	if doc, ok := r.state.memoryDocs[canonical]; ok {
		doc.Text = &text
	} else {
		r.state.memoryDocs[canonical] = &Document{Path: canonical, Text: &text}
	}
	r.state.mu.Unlock()
	r.state.MarkDirty()

	if r.enqueue != nil {
		r.enqueue([]string{canonical}, true, true, false)
	}
}

// OnDidDelete drops path from the memory map, tells the indexes to drop
// derived records for that path (via removeFns, supplied by callers that
// own the AST/Vector indexes), and marks the caches dirty.
func (r *Registry) OnDidDelete(path string, removeFromAST, removeFromVector func(path string)) {
	canonical := Canonicalize(path)
	r.state.mu.Lock()
	delete(r.state.memoryDocs, canonical)
	delete(r.state.workspaceFiles, canonical)
	r.state.mu.Unlock()
	r.state.MarkDirty()

	if removeFromAST != nil {
		removeFromAST(canonical)
	}
	if removeFromVector != nil {
		removeFromVector(canonical)
	}
}

// GetFileText returns the current text of path: a memory override wins,
// else the file is read from disk.
func (r *Registry) GetFileText(path string) (string, error) {
	canonical := Canonicalize(path)

	r.state.mu.RLock()
	doc, hasOverride := r.state.memoryDocs[canonical]
	r.state.mu.RUnlock()

	if hasOverride && doc.Text != nil {
		return *doc.Text, nil
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", amanerrors.Wrap(amanerrors.ErrCodeFilePermission, err)
	}
	return string(data), nil
}

// EnqueueAllFromWorkspaceFolders enumerates every root, replaces
// workspace_files, unconditionally enqueues to the vector index, and
// enqueues to AST only when vecdbOnly is false. If any previously-known
// file is now missing, the AST index is asked to perform a full reset
// before the new enqueue.
func (r *Registry) EnqueueAllFromWorkspaceFolders(ctx context.Context, force, vecdbOnly bool) error {
	r.state.mu.RLock()
	roots := append([]string(nil), r.state.workspaceFolders...)
	oldFiles := make(map[string]struct{}, len(r.state.workspaceFiles))
	for p := range r.state.workspaceFiles {
		oldFiles[p] = struct{}{}
	}
	r.state.mu.RUnlock()

	var all []string
	newFiles := make(map[string]struct{})
	for _, root := range roots {
		accepted, _, err := r.enum.Enumerate(ctx, root)
		if err != nil {
			return err
		}
		all = append(all, accepted...)
		for _, p := range accepted {
			newFiles[p] = struct{}{}
		}
	}

	var removedOld bool
	for p := range oldFiles {
		if _, ok := newFiles[p]; !ok {
			removedOld = true
			break
		}
	}

	r.state.mu.Lock()
	r.state.workspaceFiles = newFiles
	r.state.mu.Unlock()
	r.state.MarkDirty()

	if removedOld && r.resetAST != nil {
		r.resetAST()
	}

	if r.enqueue != nil {
		r.enqueue(all, !vecdbOnly, true, force)
	}
	return nil
}

// startWatcher installs a HybridWatcher on root and begins forwarding its
// batched events into watcher-semantics handling.
func (r *Registry) startWatcher(ctx context.Context, root string) error {
	opts := watcher.DefaultOptions()

	hw, err := watcher.NewHybridWatcher(opts)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	if err := hw.Start(watchCtx, root); err != nil {
		cancel()
		return err
	}

	r.watcherMu.Lock()
	r.watchers[root] = hw
	r.watcherMu.Unlock()

	go r.consumeWatcherEvents(watchCtx, hw)
	r.cancel = cancel
	return nil
}

func (r *Registry) stopWatcher(root string) {
	r.watcherMu.Lock()
	hw, ok := r.watchers[root]
	delete(r.watchers, root)
	r.watcherMu.Unlock()

	if ok {
		_ = hw.Stop()
	}
}

// consumeWatcherEvents implements the watcher semantics: create/modify
// enqueue that path; a delete of a previously-known workspace file
// schedules a debounced total reset.
func (r *Registry) consumeWatcherEvents(ctx context.Context, hw *watcher.HybridWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-hw.Events():
			if !ok {
				return
			}
			r.handleEventBatch(ctx, batch)
		case err, ok := <-hw.Errors():
			if !ok {
				continue
			}
			r.log.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (r *Registry) handleEventBatch(ctx context.Context, events []watcher.FileEvent) {
	var toEnqueue []string
	var sawRemovalOfKnown bool

	for _, ev := range events {
		canonical := Canonicalize(ev.Path)
		switch ev.Operation {
		case watcher.OpCreate, watcher.OpModify, watcher.OpRename:
			toEnqueue = append(toEnqueue, canonical)
		case watcher.OpDelete:
			r.state.mu.RLock()
			_, known := r.state.workspaceFiles[canonical]
			r.state.mu.RUnlock()
			if known {
				sawRemovalOfKnown = true
			}
		case watcher.OpGitignoreChange, watcher.OpConfigChange:
			// reconciliation for these is driven by the scheduler, not here
		}
	}

	if len(toEnqueue) > 0 && r.enqueue != nil {
		r.enqueue(toEnqueue, true, true, false)
	}

	if sawRemovalOfKnown {
		r.scheduleTotalReset(ctx)
	}
}

// scheduleTotalReset implements the 10-second debounce: further events push
// the deadline out; the first event past the deadline triggers a full
// re-enumerate + re-index, using a monotonic deadline rather than a
// wall-clock sleep (per the design's watcher-debounce guidance).
func (r *Registry) scheduleTotalReset(ctx context.Context) {
	r.state.totalResetMu.Lock()
	defer r.state.totalResetMu.Unlock()

	r.state.totalResetDeadline = time.Now().Add(totalResetDebounce)

	if r.state.totalResetTimer != nil {
		r.state.totalResetTimer.Stop()
	}

	r.state.totalResetTimer = time.AfterFunc(totalResetDebounce, func() {
		r.state.totalResetMu.Lock()
		due := time.Now().After(r.state.totalResetDeadline) || time.Now().Equal(r.state.totalResetDeadline)
		r.state.totalResetMu.Unlock()
		if !due {
			return
		}
		if err := r.EnqueueAllFromWorkspaceFolders(ctx, true, false); err != nil {
			r.log.Error("total reset failed", slog.Any("error", err))
		}
	})
}

// Close stops every active watcher.
func (r *Registry) Close() error {
	r.watcherMu.Lock()
	defer r.watcherMu.Unlock()
	for root, hw := range r.watchers {
		_ = hw.Stop()
		delete(r.watchers, root)
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

// normalizeSlashes is used by watcher-path comparisons to match the cache's
// suffix keys regardless of platform separator.
func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
