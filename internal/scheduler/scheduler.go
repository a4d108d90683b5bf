package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/amanmcp/internal/astindex"
	"github.com/Aman-CERP/amanmcp/internal/scanner"
	"github.com/Aman-CERP/amanmcp/internal/vecdb"
)

// TextGetter is the subset of workspace.Registry the scheduler needs: fetch
// current text for a path (memory override wins, else disk).
type TextGetter interface {
	GetFileText(path string) (string, error)
}

// Scheduler is the Indexing Scheduler.
type Scheduler struct {
	registry TextGetter
	ast      *astindex.Index
	splitter *vecdb.Splitter
	vectorizer *vecdb.Vectorizer
	vectors  *vecdb.Index

	cooldown time.Duration
	log      *slog.Logger

	mu             sync.Mutex
	state          State
	queueAdditions bool
	pendingAST     map[string]struct{}
	pendingVector  map[string]struct{}
	forced         map[string]struct{}
	fileHashes     map[string]string // last indexed content hash, for the force-bypass early-exit
	filesDone      int
	filesTotal     int

	generation int // bumped by Abort; in-flight work checks this to stay cancel-safe

	notify *notifier
	wake   chan struct{}
}

// New constructs a Scheduler. cooldown defaults to DefaultCooldown if zero.
func New(registry TextGetter, ast *astindex.Index, splitter *vecdb.Splitter, vectorizer *vecdb.Vectorizer, vectors *vecdb.Index, cooldown time.Duration, log *slog.Logger) *Scheduler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		registry:      registry,
		ast:           ast,
		splitter:      splitter,
		vectorizer:    vectorizer,
		vectors:       vectors,
		cooldown:      cooldown,
		log:           log,
		state:         StateStarting,
		pendingAST:    make(map[string]struct{}),
		pendingVector: make(map[string]struct{}),
		forced:        make(map[string]struct{}),
		fileHashes:    make(map[string]string),
		notify:        newNotifier(),
		wake:          make(chan struct{}, 1),
	}
}

// SetTextGetter wires the registry after construction, for callers that
// need the scheduler's Enqueue/Reset funcs to build the registry itself
// (a construction cycle: the registry needs EnqueueFunc before it exists,
// the scheduler needs the registry as its TextGetter).
func (s *Scheduler) SetTextGetter(registry TextGetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry
}

// Run starts the worker loop; it blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.drain(ctx)
		}
	}
}

// Enqueue adds paths to the AST and/or Vector pending sets, deduplicated by
// path. force bypasses the content-hash early-exit. Matches
// workspace.EnqueueFunc's signature so Registry can call it directly.
func (s *Scheduler) Enqueue(paths []string, toAST, toVector bool, force bool) {
	if len(paths) == 0 {
		return
	}

	s.mu.Lock()
	for _, p := range paths {
		if toAST {
			s.pendingAST[p] = struct{}{}
		}
		if toVector {
			s.pendingVector[p] = struct{}{}
		}
		if force {
			s.forced[p] = struct{}{}
		}
		s.filesTotal++
	}
	wasDone := s.state == StateDone
	s.queueAdditions = true
	if wasDone {
		s.setStateLocked(StateParsing)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the published vstatus.
func (s *Scheduler) Status() VStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VStatus{
		State:          s.state,
		QueueAdditions: s.queueAdditions,
		QueueDepth:     len(s.pendingAST) + len(s.pendingVector),
		FilesDone:      s.filesDone,
		FilesTotal:     s.filesTotal,
		DBSize:         s.vectors.Size(),
	}
}

// IsDoneAndQuiescent implements memstore.VectorizedWaiter.
func (s *Scheduler) IsDoneAndQuiescent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateDone && !s.queueAdditions
}

// Notify implements memstore.VectorizedWaiter.
func (s *Scheduler) Notify() <-chan struct{} {
	return s.notify.wait()
}

func (s *Scheduler) setStateLocked(next State) {
	s.state = next
	// the mutex is already held by the caller; broadcast after releasing
	// would be cleaner, but every caller here unlocks immediately after,
	// so queue a deferred broadcast via goroutine-free immediate call is
	// unsafe only if a waiter re-enters this lock — waiters only read via
	// Status()/IsDoneAndQuiescent which are independent locks-then-read,
	// not reentrant, so broadcasting here is safe.
	s.notify.broadcast()
}

// drain pops pending paths one at a time until both queues are empty, then
// enters cooldown and, absent new arrivals, transitions to done.
func (s *Scheduler) drain(ctx context.Context) {
	myGen := s.bumpGenerationIfStarting()

	for {
		path, hasAST, hasVector, ok := s.popOne()
		if !ok {
			break
		}
		if s.staleGeneration(myGen) {
			return
		}
		s.processFile(ctx, path, hasAST, hasVector)

		s.mu.Lock()
		s.filesDone++
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.queueAdditions = false
	s.setStateLocked(StateCooldown)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cooldown):
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingAST) == 0 && len(s.pendingVector) == 0 && !s.queueAdditions {
		s.setStateLocked(StateDone)
	}
}

func (s *Scheduler) bumpGenerationIfStarting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Scheduler) staleGeneration(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

func (s *Scheduler) popOne() (path string, toAST, toVector, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p := range s.pendingAST {
		path = p
		toAST = true
		ok = true
		delete(s.pendingAST, p)
		if _, pending := s.pendingVector[p]; pending {
			toVector = true
			delete(s.pendingVector, p)
		}
		return
	}
	for p := range s.pendingVector {
		path = p
		toVector = true
		ok = true
		delete(s.pendingVector, p)
		return
	}
	return "", false, false, false
}

// processFile fetches text via the registry, then parses (AST) and/or
// splits+embeds (Vector). A force flag bypasses the content-hash
// early-exit. Errors are logged and do not abort the worker loop (they
// only affect this one file).
func (s *Scheduler) processFile(ctx context.Context, path string, toAST, toVector bool) {
	text, err := s.registry.GetFileText(path)
	if err != nil {
		s.log.Warn("scheduler: could not read file", slog.String("path", path), slog.Any("error", err))
		return
	}

	s.mu.Lock()
	_, force := s.forced[path]
	delete(s.forced, path)
	s.mu.Unlock()

	language := scanner.DetectLanguage(path)
	content := []byte(text)
	hash := sha256Hex(content)

	s.mu.Lock()
	lastHash, seen := s.fileHashes[path]
	s.mu.Unlock()
	if !force && seen && lastHash == hash {
		return
	}

	if toAST {
		if _, err := s.ast.IndexFile(ctx, path, content, language); err != nil {
			s.log.Warn("scheduler: AST index failed", slog.String("path", path), slog.Any("error", err))
		}
	}

	if toVector {
		splits, err := s.splitter.Split(ctx, path, content, language)
		if err != nil {
			s.log.Warn("scheduler: split failed", slog.String("path", path), slog.Any("error", err))
		} else {
			records := s.vectorizer.VectorizeSplits(ctx, splits)
			if err := s.vectors.Upsert(ctx, records); err != nil {
				s.log.Warn("scheduler: vector upsert failed", slog.String("path", path), slog.Any("error", err))
			}
		}
	}

	s.mu.Lock()
	s.fileHashes[path] = hash
	s.mu.Unlock()
}

// RemoveFile drops path from both indexes immediately (used by the
// Document Registry's on_did_delete).
func (s *Scheduler) RemoveFile(ctx context.Context, path string) {
	s.ast.RemoveFile(path)
	if err := s.vectors.DeleteByFile(ctx, path); err != nil {
		s.log.Warn("scheduler: vector delete failed", slog.String("path", path), slog.Any("error", err))
	}
	s.mu.Lock()
	delete(s.fileHashes, path)
	s.mu.Unlock()
}

// TotalReset aborts in-flight work (bumping the generation counter so any
// suspended processFile call discards its result once it notices), clears
// the AST index, and drops the pending queues. The caller (Document
// Registry) re-enumerates and calls Enqueue immediately after.
func (s *Scheduler) TotalReset() {
	s.mu.Lock()
	s.generation++
	s.pendingAST = make(map[string]struct{})
	s.pendingVector = make(map[string]struct{})
	s.filesDone = 0
	s.filesTotal = 0
	s.setStateLocked(StateStarting)
	s.mu.Unlock()

	s.ast.Reset()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
