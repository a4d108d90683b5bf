package vecdb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/Aman-CERP/amanmcp/internal/chunk"
)

// Splitter produces SplitResults from file content: AST-aware when a
// tree-sitter grammar is registered for the file's language, falling back
// to a fixed-window line splitter otherwise. Grounded on
// internal/chunk/parser.go + internal/chunk/extractor.go, generalized from
// chunk emission to the spec's window/overlap semantics.
type Splitter struct {
	parser    *chunk.Parser
	extractor *chunk.SymbolExtractor
	registry  *chunk.LanguageRegistry
	cfg       SplitterConfig
}

// NewSplitter builds a Splitter sharing registry with the AST Symbol Index
// so both consume identical grammars.
func NewSplitter(registry *chunk.LanguageRegistry, cfg SplitterConfig) *Splitter {
	if registry == nil {
		registry = chunk.DefaultRegistry()
	}
	if cfg.SoftWindowTokens <= 0 {
		cfg = DefaultSplitterConfig()
	}
	return &Splitter{
		parser:    chunk.NewParserWithRegistry(registry),
		extractor: chunk.NewSymbolExtractorWithRegistry(registry),
		registry:  registry,
		cfg:       cfg,
	}
}

// Split splits file content into SplitResults.
func (s *Splitter) Split(ctx context.Context, filePath string, content []byte, language string) ([]SplitResult, error) {
	lines := splitLinesKeepEnds(content)

	if _, ok := s.registry.GetByName(language); !ok {
		return s.lineWindowSplit(filePath, lines, 1, len(lines)), nil
	}

	tree, err := s.parser.Parse(ctx, content, language)
	if err != nil || tree == nil {
		return s.lineWindowSplit(filePath, lines, 1, len(lines)), nil
	}

	symbols := s.extractor.Extract(tree, content)
	topLevel := topLevelSymbols(symbols)
	if len(topLevel) == 0 {
		return s.lineWindowSplit(filePath, lines, 1, len(lines)), nil
	}

	var results []SplitResult
	cursor := 1 // next uncovered 1-indexed line

	for _, sym := range topLevel {
		if sym.StartLine > cursor {
			results = append(results, s.lineWindowSplit(filePath, lines[cursor-1:sym.StartLine-1], cursor, sym.StartLine-cursor)...)
		}

		symLines := lines[clampIdx(sym.StartLine-1, len(lines)):clampIdx(sym.EndLine, len(lines))]
		symText := strings.Join(symLines, "")
		if estimateTokens(symText) > s.cfg.SoftWindowTokens {
			results = append(results, s.lineWindowSplit(filePath, symLines, sym.StartLine, len(symLines))...)
		} else {
			results = append(results, newSplitResult(filePath, symText, sym.StartLine, sym.EndLine))
		}

		if sym.EndLine+1 > cursor {
			cursor = sym.EndLine + 1
		}
	}

	if cursor <= len(lines) {
		results = append(results, s.lineWindowSplit(filePath, lines[cursor-1:], cursor, len(lines)-cursor+1)...)
	}

	return results, nil
}

// lineWindowSplit slides a soft_window-line window (with overlap) over
// lines, starting at startLine (1-indexed), covering exactly count lines
// with no gaps.
func (s *Splitter) lineWindowSplit(filePath string, lines []string, startLine, count int) []SplitResult {
	if count <= 0 || len(lines) == 0 {
		return nil
	}

	window := s.cfg.SoftWindowTokens / 4 // rough tokens-per-line heuristic (TokensPerChar-inverse)
	if window < 1 {
		window = 1
	}
	overlap := s.cfg.OverlapLines
	if overlap >= window {
		overlap = window - 1
	}
	step := window - overlap
	if step < 1 {
		step = 1
	}

	var results []SplitResult
	for offset := 0; offset < count; offset += step {
		end := offset + window
		if end > count {
			end = count
		}
		windowLines := lines[offset:end]
		text := strings.Join(windowLines, "")
		results = append(results, newSplitResult(filePath, text, startLine+offset, startLine+end-1))
		if end == count {
			break
		}
	}
	return results
}

func newSplitResult(filePath, text string, startLine, endLine int) SplitResult {
	sum := md5.Sum([]byte(text))
	return SplitResult{
		FilePath:       filePath,
		WindowText:     text,
		WindowTextHash: hex.EncodeToString(sum[:]),
		StartLine:      startLine,
		EndLine:        endLine,
	}
}

func estimateTokens(text string) int {
	return len(text) / chunk.TokensPerChar
}

// topLevelSymbols filters out any symbol whose line range nests inside
// another symbol's range, leaving only the outermost declarations to walk.
func topLevelSymbols(symbols []*chunk.Symbol) []*chunk.Symbol {
	var top []*chunk.Symbol
	for _, s := range symbols {
		nested := false
		for _, other := range symbols {
			if other == s {
				continue
			}
			if other.StartLine <= s.StartLine && other.EndLine >= s.EndLine && (other.StartLine != s.StartLine || other.EndLine != s.EndLine) {
				nested = true
				break
			}
		}
		if !nested {
			top = append(top, s)
		}
	}
	sortSymbolsByStart(top)
	return top
}

func sortSymbolsByStart(symbols []*chunk.Symbol) {
	for i := 1; i < len(symbols); i++ {
		for j := i; j > 0 && symbols[j].StartLine < symbols[j-1].StartLine; j-- {
			symbols[j], symbols[j-1] = symbols[j-1], symbols[j]
		}
	}
}

func splitLinesKeepEnds(content []byte) []string {
	text := string(content)
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func clampIdx(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// Close releases the underlying tree-sitter parser.
func (s *Splitter) Close() {
	s.parser.Close()
}
