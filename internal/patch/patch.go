package patch

// Parser runs the full pipeline from raw LLM output to normalized
// DiffChunks: fence scanning, classification, location, single-block
// auto-diff, normalization, and chunk emission.
type Parser struct {
	registry Registry
}

// NewParser constructs a Parser reading target file content through
// registry (the Document Registry's GetFileText, so in-flight unsaved
// edits are seen the same way the rest of the engine sees them).
func NewParser(registry Registry) *Parser {
	return &Parser{registry: registry}
}

// ParseMessage extracts every ```diff fenced block from content and
// returns the DiffChunks they describe, in the order their blocks were
// normalized. Fails if a hunk's '-' lines cannot be located in the named
// file, or a rename's destination already exists.
func (p *Parser) ParseMessage(content string) ([]DiffChunk, error) {
	edits := getEditHunks(content)

	blocks, err := editsToDiffBlocks(p.registry, edits)
	if err != nil {
		return nil, err
	}

	locateDiffBlocks(blocks)
	blocks = splitDiffBlocks(blocks)

	for _, b := range blocks {
		if err := normalizeDiffBlock(b); err != nil {
			return nil, err
		}
	}

	filtered := blocks[:0]
	for _, b := range blocks {
		if b.Action != ActionEdit {
			filtered = append(filtered, b)
			continue
		}
		for _, l := range b.Lines {
			if l.Type == LinePlus || l.Type == LineMinus {
				filtered = append(filtered, b)
				break
			}
		}
	}

	return dedupeChunks(diffBlocksToChunks(filtered)), nil
}
