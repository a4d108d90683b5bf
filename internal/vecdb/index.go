package vecdb

import (
	"context"
	"strings"
	"sync"

	"github.com/Aman-CERP/amanmcp/internal/store"
)

// Index is the Embedding Index: the authoritative vector table keyed by
// (file_path, window_text_hash), backed by internal/store's HNSW
// VectorStore, plus the metadata needed to reconstruct SplitResult ranges
// on query.
type Index struct {
	vectorStore store.VectorStore

	mu          sync.RWMutex
	byKey       map[string]Record   // key() -> record metadata (no embedding retained here)
	keysByFile  map[string]map[string]struct{}
}

// NewIndex wraps an already-constructed store.VectorStore (normally an
// *store.HNSWStore sized for the active embedder's dimensionality).
func NewIndex(vs store.VectorStore) *Index {
	return &Index{
		vectorStore: vs,
		byKey:       make(map[string]Record),
		keysByFile:  make(map[string]map[string]struct{}),
	}
}

// Upsert writes records to the vector table. Identical (file_path,
// window_text_hash) pairs replace the prior embedding, preserving the
// uniqueness invariant from spec §3.
func (idx *Index) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	vecs := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.key()
		vecs[i] = r.Embedding
	}

	if err := idx.vectorStore.Add(ctx, ids, vecs); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, r := range records {
		k := r.key()
		meta := r
		meta.Embedding = nil
		idx.byKey[k] = meta

		if idx.keysByFile[r.FilePath] == nil {
			idx.keysByFile[r.FilePath] = make(map[string]struct{})
		}
		idx.keysByFile[r.FilePath][k] = struct{}{}
	}
	return nil
}

// DeleteByFile removes every record belonging to filePath.
func (idx *Index) DeleteByFile(ctx context.Context, filePath string) error {
	idx.mu.Lock()
	keys, ok := idx.keysByFile[filePath]
	if !ok {
		idx.mu.Unlock()
		return nil
	}
	ids := make([]string, 0, len(keys))
	for k := range keys {
		ids = append(ids, k)
		delete(idx.byKey, k)
	}
	delete(idx.keysByFile, filePath)
	idx.mu.Unlock()

	return idx.vectorStore.Delete(ctx, ids)
}

// Size returns the number of vectors currently stored.
func (idx *Index) Size() int { return idx.vectorStore.Count() }

// Search vectorizes nothing itself (callers pass an already-embedded query
// vector via Vectorizer.VectorizeQuery); it performs nearest-neighbor
// search, applies the usefulness formula anchored at the batch's best
// distance, drops any record with |distance| >= 0.25, and returns
// survivors sorted ascending by distance.
func (idx *Index) Search(ctx context.Context, queryVec []float32, topN int, scopePrefix string) ([]Record, error) {
	// Over-fetch to absorb post-filter rejects and the scope-prefix filter.
	fetchN := topN * 4
	if fetchN < topN+8 {
		fetchN = topN + 8
	}

	results, err := idx.vectorStore.Search(ctx, queryVec, fetchN)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	var d0 float32
	first := true
	for _, r := range results {
		abs := r.Distance
		if abs < 0 {
			abs = -abs
		}
		if first || abs < d0 {
			d0 = abs
			first = false
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Record
	for _, r := range results {
		abs := r.Distance
		if abs < 0 {
			abs = -abs
		}
		if abs >= hardRejectDistance {
			continue
		}

		meta, ok := idx.byKey[r.ID]
		if !ok {
			continue
		}
		if scopePrefix != "" && !strings.HasPrefix(meta.FilePath, scopePrefix) {
			continue
		}

		usefulness := usefulnessCeiling - 75*clamp01(float64(abs-d0)/float64(d0+0.01))
		if usefulness > usefulnessCeiling {
			usefulness = usefulnessCeiling
		}
		if usefulness < usefulnessFloor {
			usefulness = usefulnessFloor
		}

		rec := meta
		rec.Distance = r.Distance
		rec.Usefulness = usefulness
		out = append(out, rec)

		if len(out) >= topN {
			break
		}
	}

	sortRecordsByDistance(out)
	return out, nil
}

// SearchByDistance performs nearest-neighbor search and returns the topN
// closest records sorted ascending by raw distance, with no hard-reject
// and no usefulness scoring. Unlike Search (tuned for code-window
// retrieval), every result within scopePrefix survives regardless of how
// far it sits from the query.
func (idx *Index) SearchByDistance(ctx context.Context, queryVec []float32, topN int, scopePrefix string) ([]Record, error) {
	fetchN := topN * 4
	if fetchN < topN+8 {
		fetchN = topN + 8
	}

	results, err := idx.vectorStore.Search(ctx, queryVec, fetchN)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Record
	for _, r := range results {
		meta, ok := idx.byKey[r.ID]
		if !ok {
			continue
		}
		if scopePrefix != "" && !strings.HasPrefix(meta.FilePath, scopePrefix) {
			continue
		}

		rec := meta
		rec.Distance = r.Distance
		out = append(out, rec)

		if len(out) >= topN {
			break
		}
	}

	sortRecordsByDistance(out)
	return out, nil
}

func sortRecordsByDistance(records []Record) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && absf(records[j].Distance) < absf(records[j-1].Distance); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Save/Load persist the vector store itself; byKey/keysByFile metadata is
// rebuilt by the caller from internal/store.MetadataStore's chunk records
// (the authoritative source for FilePath/StartLine/EndLine) on reload.
func (idx *Index) Save(path string) error { return idx.vectorStore.Save(path) }
func (idx *Index) Load(path string) error { return idx.vectorStore.Load(path) }
func (idx *Index) Close() error           { return idx.vectorStore.Close() }
