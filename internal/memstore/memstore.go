// Package memstore implements the Memory Store: a small typed key/value
// store of user- or tool-authored notes with its own vectorized retrieval,
// sharing the Embedding Index's vectorizer and vector-store plumbing
// (internal/vecdb) under a separate HNSW namespace.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/amanmcp/internal/store"
	"github.com/Aman-CERP/amanmcp/internal/vecdb"
)

// ScoringWeight controls how much mstat_times_used discounts raw distance
// in Search. Spec §9 flags the source's commented-out formula
// (`distance - times_used*0.01`) as an open question and directs us to
// treat it as a configuration parameter defaulting to 0 (current observed
// behavior: raw distance, unweighted). See DESIGN.md.
const DefaultScoringWeight = 0.0

// Record is a query-time view of a stored memory, mirroring spec §3's
// MemoryRecord.
type Record struct {
	Memid         string
	MType         string
	MGoal         string
	MProject      string
	MPayload      string
	StatTimesUsed int
	StatCorrect   int
	StatRelevant  int
	Distance      float32
}

// Store is the Memory Store.
type Store struct {
	metadata   store.MetadataStore
	vectors    *vecdb.Index
	vectorizer *vecdb.Vectorizer

	scoringWeight float64

	mu sync.Mutex
}

// New constructs a Memory Store. vectors and vectorizer are expected to be
// a distinct instance from the Embedding Index's (a second HNSW namespace,
// per SPEC_FULL.md §4.6), even though they share the same underlying
// embedder configuration.
func New(metadata store.MetadataStore, vectors *vecdb.Index, vectorizer *vecdb.Vectorizer) *Store {
	return &Store{
		metadata:      metadata,
		vectors:       vectors,
		vectorizer:    vectorizer,
		scoringWeight: DefaultScoringWeight,
	}
}

// WithScoringWeight overrides the default scoring weight.
func (s *Store) WithScoringWeight(w float64) *Store {
	s.scoringWeight = w
	return s
}

// Add creates a memory: persists its metadata, vectorizes its payload, and
// writes the embedding into the shared vector store keyed by memid.
func (s *Store) Add(ctx context.Context, mType, goal, project, payload string) (string, error) {
	memid := uuid.NewString()
	now := timeNow()

	mem := &store.Memory{
		Memid:     memid,
		MType:     mType,
		MGoal:     goal,
		MProject:  project,
		MPayload:  payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.metadata.SaveMemory(ctx, mem); err != nil {
		return "", err
	}

	vec, err := s.vectorizer.VectorizeQuery(ctx, payload)
	if err != nil {
		return memid, err
	}

	return memid, s.vectors.Upsert(ctx, []vecdb.Record{{
		FilePath:       memid, // memories have no file_path; memid doubles as the key namespace
		WindowTextHash: "memory",
		Embedding:      vec,
	}})
}

// Erase deletes a memory's metadata and embedding.
func (s *Store) Erase(ctx context.Context, memid string) error {
	if err := s.vectors.DeleteByFile(ctx, memid); err != nil {
		return err
	}
	return s.metadata.DeleteMemory(ctx, memid)
}

// UpdateUsed increments usage counters after the memory was surfaced and
// judged.
func (s *Store) UpdateUsed(ctx context.Context, memid string, correct, relevant int) error {
	return s.metadata.UpdateMemoryStats(ctx, memid, correct, relevant)
}

// SelectAll returns every memory for a project.
func (s *Store) SelectAll(ctx context.Context, project string) ([]*store.Memory, error) {
	return s.metadata.ListMemories(ctx, project)
}

// Search ranks memories by raw distance (scoringWeight defaults to 0, per
// the open-question resolution in DESIGN.md); when non-zero it discounts
// distance by stat_times_used*scoringWeight. Unlike the Embedding Index's
// code-window search, this applies no hard-reject distance filter: a
// memory is either the closest match available or it isn't, but it never
// gets silently dropped for sitting far from the query.
func (s *Store) Search(ctx context.Context, query string, topN int) ([]Record, error) {
	vec, err := s.vectorizer.VectorizeQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.vectors.SearchByDistance(ctx, vec, topN, "")
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(hits))
	for _, h := range hits {
		mem, err := s.metadata.GetMemory(ctx, h.FilePath)
		if err != nil || mem == nil {
			continue
		}
		out = append(out, Record{
			Memid:         mem.Memid,
			MType:         mem.MType,
			MGoal:         mem.MGoal,
			MProject:      mem.MProject,
			MPayload:      mem.MPayload,
			StatTimesUsed: mem.StatTimesUsed,
			StatCorrect:   mem.StatCorrect,
			StatRelevant:  mem.StatRelevant,
			Distance:      h.Distance,
		})
	}

	if s.scoringWeight != 0 {
		sortByWeightedScore(out, s.scoringWeight)
	}
	return out, nil
}

func sortByWeightedScore(records []Record, weight float64) {
	score := func(r Record) float64 {
		return float64(r.Distance) - float64(r.StatTimesUsed)*weight
	}
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && score(records[j]) < score(records[j-1]); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}

// VectorizedWaiter is the subset of the Indexing Scheduler's status
// contract BlockUntilVectorized needs: a way to read vstatus and a
// notifier channel that's closed (and replaced) on every state
// transition, so waiters re-check the condition on wakeup rather than
// trusting the wakeup itself (standard condvar pattern, per spec §9).
type VectorizedWaiter interface {
	IsDoneAndQuiescent() bool
	Notify() <-chan struct{}
}

// BlockUntilVectorized waits until the scheduler reports
// state=="done" && !queue_additions.
func BlockUntilVectorized(ctx context.Context, w VectorizedWaiter) error {
	for {
		if w.IsDoneAndQuiescent() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.Notify():
		}
	}
}

func timeNow() time.Time {
	return time.Now()
}
