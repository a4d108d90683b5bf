package astindex

import (
	"context"
	"regexp"
	"sort"
)

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// SearchByCursor parses code in isolation (the editor's live buffer, not
// the on-disk file) and returns the symbol(s) enclosing cursor with the
// smallest range, plus related symbols: declarations (from the persistent
// index, not the isolated parse) of identifiers that appear in the
// enclosing range's text, sorted by confidence.
func (idx *Index) SearchByCursor(ctx context.Context, file string, code []byte, cursorRow, cursorCol uint32, topN int) (*CursorResult, error) {
	symbols, err := idx.parseFile(ctx, file, code, idx.languageForFile(file))
	if err != nil {
		return nil, err
	}

	var enclosing []*Symbol
	var smallest int64 = -1
	for _, s := range symbols {
		if !s.FullRange.Contains(cursorRow, cursorCol) {
			continue
		}
		size := s.FullRange.size()
		if smallest == -1 || size < smallest {
			smallest = size
			enclosing = []*Symbol{s}
		} else if size == smallest {
			enclosing = append(enclosing, s)
		}
	}

	result := &CursorResult{CursorSymbols: enclosing}
	if len(enclosing) == 0 {
		return result, nil
	}

	names := identifiersIn(code, enclosing[0].FullRange, cursorRowOffsets(code))
	seen := make(map[string]struct{})
	var related []NamedResult
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		related = append(related, idx.SearchByName(name, RequestDeclaration, topN)...)
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].SimToQuery > related[j].SimToQuery
	})
	if topN > 0 && len(related) > topN {
		related = related[:topN]
	}
	result.SearchResults = related
	return result, nil
}

// languageForFile guesses a language from the buffer's path extension,
// reusing the scanner's detection table so search_by_cursor agrees with
// the rest of the engine about what "go" or "python" means.
func (idx *Index) languageForFile(file string) string {
	for _, ext := range idx.registry.SupportedExtensions() {
		if len(file) >= len(ext) && file[len(file)-len(ext):] == ext {
			if cfg, ok := idx.registry.GetByExtension(ext); ok {
				return cfg.Name
			}
		}
	}
	return ""
}

// cursorRowOffsets returns the byte offset each line starts at, for
// converting a Row-based Range back into a byte slice of the source.
func cursorRowOffsets(code []byte) []int {
	offsets := []int{0}
	for i, b := range code {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// identifiersIn extracts identifier-like tokens from the lines spanned by
// r, for "related symbol" lookups.
func identifiersIn(code []byte, r Range, lineOffsets []int) []string {
	start := 0
	if int(r.StartRow) < len(lineOffsets) {
		start = lineOffsets[r.StartRow]
	}
	end := len(code)
	if int(r.EndRow)+1 < len(lineOffsets) {
		end = lineOffsets[r.EndRow+1]
	}
	if start > len(code) {
		start = len(code)
	}
	if end > len(code) {
		end = len(code)
	}
	if start >= end {
		return nil
	}

	matches := identifierPattern.FindAllString(string(code[start:end]), -1)
	return matches
}
