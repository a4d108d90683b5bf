package astindex

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Aman-CERP/amanmcp/internal/chunk"
)

func newGuid() string {
	return uuid.NewString()
}

// Index is the AST Symbol Index's arena: a guid->symbol map plus secondary
// indexes by name, by file, and by dotted symbol path. All secondary
// indexes are rebuilt atomically whenever a file's symbol set is replaced
// (IndexFile, RemoveFile); they are never partially updated.
type Index struct {
	mu sync.Mutex

	parser    *chunk.Parser
	extractor *chunk.SymbolExtractor
	registry  *chunk.LanguageRegistry

	byGuid       map[string]*Symbol
	byName       map[string]map[string]struct{} // name -> set of guid
	byFile       map[string]map[string]struct{} // file path -> set of guid
	bySymbolPath map[string]map[string]struct{} // dotted path -> set of guid
}

// NewIndex constructs an empty AST Symbol Index sharing the given
// tree-sitter language registry with the Embedding Index's splitter (so
// both consume the exact same grammars).
func NewIndex(registry *chunk.LanguageRegistry) *Index {
	if registry == nil {
		registry = chunk.DefaultRegistry()
	}
	return &Index{
		parser:       chunk.NewParserWithRegistry(registry),
		extractor:    chunk.NewSymbolExtractorWithRegistry(registry),
		registry:     registry,
		byGuid:       make(map[string]*Symbol),
		byName:       make(map[string]map[string]struct{}),
		byFile:       make(map[string]map[string]struct{}),
		bySymbolPath: make(map[string]map[string]struct{}),
	}
}

// IndexFile parses source and atomically replaces filePath's symbol set.
// Returns the freshly parsed symbols (nil, nil if the language has no
// registered parser — the file is skipped by AST, not an error).
func (idx *Index) IndexFile(ctx context.Context, filePath string, source []byte, language string) ([]*Symbol, error) {
	symbols, err := idx.parseFile(ctx, filePath, source, language)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFileLocked(filePath)

	fileSet := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		idx.byGuid[s.Guid] = s
		fileSet[s.Guid] = struct{}{}

		if idx.byName[s.Name] == nil {
			idx.byName[s.Name] = make(map[string]struct{})
		}
		idx.byName[s.Name][s.Guid] = struct{}{}

		path := s.SymbolPath()
		if idx.bySymbolPath[path] == nil {
			idx.bySymbolPath[path] = make(map[string]struct{})
		}
		idx.bySymbolPath[path][s.Guid] = struct{}{}
	}
	if len(fileSet) > 0 {
		idx.byFile[filePath] = fileSet
	}

	return symbols, nil
}

// RemoveFile strips every symbol whose file matches filePath, atomically.
// Any other symbol's ParentGuid/ChildrenGuids/ResolvedDeclGuid/CallerGuid
// referencing a removed guid is reset to unresolved (empty), never left
// dangling.
func (idx *Index) RemoveFile(filePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(filePath)
}

func (idx *Index) removeFileLocked(filePath string) {
	guids, ok := idx.byFile[filePath]
	if !ok {
		return
	}

	removed := make(map[string]struct{}, len(guids))
	for g := range guids {
		removed[g] = struct{}{}
		sym := idx.byGuid[g]
		if sym == nil {
			continue
		}
		delete(idx.byGuid, g)
		if set := idx.byName[sym.Name]; set != nil {
			delete(set, g)
			if len(set) == 0 {
				delete(idx.byName, sym.Name)
			}
		}
		path := sym.SymbolPath()
		if set := idx.bySymbolPath[path]; set != nil {
			delete(set, g)
			if len(set) == 0 {
				delete(idx.bySymbolPath, path)
			}
		}
	}
	delete(idx.byFile, filePath)

	for _, sym := range idx.byGuid {
		if _, gone := removed[sym.ParentGuid]; gone {
			sym.ParentGuid = ""
		}
		if _, gone := removed[sym.CallerGuid]; gone {
			sym.CallerGuid = ""
		}
		if _, gone := removed[sym.ResolvedDeclGuid]; gone {
			sym.ResolvedDeclGuid = ""
		}
		if len(sym.ChildrenGuids) > 0 {
			kept := sym.ChildrenGuids[:0]
			for _, c := range sym.ChildrenGuids {
				if _, gone := removed[c]; !gone {
					kept = append(kept, c)
				}
			}
			sym.ChildrenGuids = kept
		}
	}
}

// SearchByName: case-sensitive exact match first, else case-insensitive
// substring, filtered by requestKind, each result carrying its computed
// similarity to the query.
func (idx *Index) SearchByName(name string, kind RequestKind, topN int) []NamedResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	matchesKind := func(k Kind) bool {
		switch kind {
		case RequestDeclaration:
			return k.isDeclaration()
		case RequestUsage:
			return k.isUsage()
		default:
			return true
		}
	}

	var exact []NamedResult
	if guids, ok := idx.byName[name]; ok {
		for g := range guids {
			sym := idx.byGuid[g]
			if sym != nil && matchesKind(sym.Kind) {
				exact = append(exact, NamedResult{Symbol: sym, SimToQuery: 1.0})
			}
		}
	}
	if len(exact) > 0 {
		return truncate(exact, topN)
	}

	lowerQuery := strings.ToLower(name)
	var substrMatches []NamedResult
	for symName, guids := range idx.byName {
		if !strings.Contains(strings.ToLower(symName), lowerQuery) {
			continue
		}
		for g := range guids {
			sym := idx.byGuid[g]
			if sym == nil || !matchesKind(sym.Kind) {
				continue
			}
			sim := float64(len(lowerQuery)) / float64(len(symName))
			if sim > 1 {
				sim = 1
			}
			substrMatches = append(substrMatches, NamedResult{Symbol: sym, SimToQuery: sim})
		}
	}
	return truncate(substrMatches, topN)
}

// SearchBySymbolPath: longest-suffix match on dotted path wins, with a
// bonus for an exact match.
func (idx *Index) SearchBySymbolPath(path string, topN int) []NamedResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	type scored struct {
		sym   *Symbol
		score int
	}
	var best []scored

	for candidatePath, guids := range idx.bySymbolPath {
		score := suffixScore(path, candidatePath)
		if score == 0 {
			continue
		}
		for g := range guids {
			if sym := idx.byGuid[g]; sym != nil {
				best = append(best, scored{sym: sym, score: score})
			}
		}
	}

	sortScoredDesc(best)

	out := make([]NamedResult, 0, topN)
	for _, b := range best {
		if len(out) >= topN {
			break
		}
		out = append(out, NamedResult{Symbol: b.sym, SimToQuery: float64(b.score) / float64(len(path)+1)})
	}
	return out
}

// suffixScore returns the length of the longest dotted-segment suffix
// match between path and candidate, plus a bonus if they're identical.
func suffixScore(path, candidate string) int {
	if path == candidate {
		return len(candidate) + 1000
	}
	if strings.HasSuffix(candidate, "."+path) || strings.HasSuffix(path, "."+candidate) {
		shorter := path
		if len(candidate) < len(shorter) {
			shorter = candidate
		}
		return len(shorter)
	}
	return 0
}

func sortScoredDesc(s []struct {
	sym   *Symbol
	score int
}) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func truncate(results []NamedResult, topN int) []NamedResult {
	if topN <= 0 || topN >= len(results) {
		return results
	}
	return results[:topN]
}

// GetSymbolsByFilePath returns every symbol whose FilePath equals path.
func (idx *Index) GetSymbolsByFilePath(path string) []*Symbol {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	guids, ok := idx.byFile[path]
	if !ok {
		return nil
	}
	out := make([]*Symbol, 0, len(guids))
	for g := range guids {
		if sym := idx.byGuid[g]; sym != nil {
			out = append(out, sym)
		}
	}
	return out
}

// GetIndexedSymbolPaths returns every distinct dotted symbol path known to
// the index.
func (idx *Index) GetIndexedSymbolPaths() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]string, 0, len(idx.bySymbolPath))
	for p := range idx.bySymbolPath {
		out = append(out, p)
	}
	return out
}

// Reset clears the entire arena, used by the Indexing Scheduler's total
// reset when the Document Registry detects files went missing.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byGuid = make(map[string]*Symbol)
	idx.byName = make(map[string]map[string]struct{})
	idx.byFile = make(map[string]map[string]struct{})
	idx.bySymbolPath = make(map[string]map[string]struct{})
}

// Close releases the underlying tree-sitter parser.
func (idx *Index) Close() {
	idx.parser.Close()
}
