package workspace

import (
	"context"
	"sync"

	"github.com/Aman-CERP/amanmcp/internal/config"
	"github.com/Aman-CERP/amanmcp/internal/scanner"
)

// Enumerator is the File Enumerator: it walks a workspace root via the
// teacher's gitignore-aware scanner and emits the accepted canonical path
// set plus an aggregated rejection histogram, keyed by the scanner's own
// per-reason skip counters.
type Enumerator struct {
	scanner *scanner.Scanner
	opts    EnumeratorOptions
}

// EnumeratorOptions configures a single enumeration pass.
type EnumeratorOptions struct {
	IncludePatterns  []string
	ExcludePatterns  []string
	RespectGitignore bool
	Workers          int
	MaxFileSize      int64
	Submodules       *config.SubmoduleConfig
}

// NewEnumerator builds an Enumerator over the given scanner instance.
func NewEnumerator(s *scanner.Scanner, opts EnumeratorOptions) *Enumerator {
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = scanner.DefaultMaxFileSize
	}
	return &Enumerator{scanner: s, opts: opts}
}

// Rejections is the aggregated rejection histogram for one enumeration.
type Rejections struct {
	mu      sync.Mutex
	Reasons map[string]int
}

func newRejections() *Rejections {
	return &Rejections{Reasons: make(map[string]int)}
}

func (r *Rejections) record(reason string) {
	r.mu.Lock()
	r.Reasons[reason]++
	r.mu.Unlock()
}

// Enumerate walks root and returns accepted canonical paths plus the
// rejection histogram. Deterministic for a given root snapshot: the
// underlying scanner's ordering is not depended on, so the result set is
// what the spec's contract actually requires.
func (e *Enumerator) Enumerate(ctx context.Context, root string) ([]string, *Rejections, error) {
	rejections := newRejections()

	results, err := e.scanner.Scan(ctx, &scanner.ScanOptions{
		RootDir:          root,
		IncludePatterns:  e.opts.IncludePatterns,
		ExcludePatterns:  e.opts.ExcludePatterns,
		RespectGitignore: e.opts.RespectGitignore,
		Workers:          e.opts.Workers,
		MaxFileSize:      e.opts.MaxFileSize,
		Submodules:       e.opts.Submodules,
	})
	if err != nil {
		return nil, rejections, err
	}

	var accepted []string
	for res := range results {
		if res.Error != nil {
			rejections.record(res.Error.Error())
			continue
		}
		if res.File == nil {
			continue
		}
		accepted = append(accepted, Canonicalize(res.File.AbsPath))
	}

	return accepted, rejections, nil
}
