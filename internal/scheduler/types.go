// Package scheduler implements the Indexing Scheduler: the pipeline that
// feeds the AST Symbol Index, Embedding Index, and Memory Store from the
// Document Registry. Generalized from internal/index.Coordinator's
// event-driven HandleEvents loop into the full
// starting->parsing->cooldown->done state machine the spec requires.
package scheduler

import (
	"sync"
	"time"
)

// State is one of the four scheduler states.
type State string

const (
	StateStarting State = "starting"
	StateParsing  State = "parsing"
	StateCooldown State = "cooldown"
	StateDone     State = "done"
)

// VStatus is the status record published via the notifier on every
// transition, mirroring spec §3's VecdbStatus.
type VStatus struct {
	State          State
	QueueAdditions bool
	QueueDepth     int
	FilesDone      int
	FilesTotal     int
	DBSize         int
	DBCacheSize    int
}

// notifier is a broadcaster built on a channel that is closed and replaced
// on every state transition: waiters block on the current channel and
// re-check their condition on wakeup (the "standard condvar pattern" the
// design calls for), grounded on internal/watcher/debouncer.go's
// channel-replacement idiom.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}

// DefaultCooldown is the spec's default cooldown_secs.
const DefaultCooldown = 20 * time.Second

// Caps mirrors the subset of embedding configuration the reload
// supervisor watches for changes (spec §4.7 "Reload").
type Caps struct {
	EmbeddingModel string
	Endpoint       string
	BatchSize      int
	WindowSize     int
	Dimensions     int
}

func (c Caps) equal(o Caps) bool {
	return c.EmbeddingModel == o.EmbeddingModel &&
		c.Endpoint == o.Endpoint &&
		c.BatchSize == o.BatchSize &&
		c.WindowSize == o.WindowSize &&
		c.Dimensions == o.Dimensions
}
