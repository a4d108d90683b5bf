package patch

import (
	"strconv"
	"strings"
)

// diffBlocksToChunks emits one DiffChunk per block, dropping edit blocks
// whose add and remove text are identical (a no-op rewrite). Add/remove
// blocks are exempt: their Lines may legitimately be empty.
func diffBlocksToChunks(blocks []*DiffBlock) []DiffChunk {
	var chunks []DiffChunk

	for _, block := range blocks {
		var useful []DiffLine
		for _, l := range block.Lines {
			if l.Type != LineSpace {
				useful = append(useful, l)
			}
		}

		filename, filenameRename := blockFileNames(block)

		var linesRemove, linesAdd strings.Builder
		for _, l := range useful {
			switch l.Type {
			case LineMinus:
				linesRemove.WriteString(l.Text)
				linesRemove.WriteByte('\n')
			case LinePlus:
				linesAdd.WriteString(l.Text)
				linesAdd.WriteByte('\n')
			}
		}
		// Add/remove blocks legitimately carry empty (or equal) text — a
		// removed or newly created file with no hunk body is still a real
		// change. Only drop the no-op case for in-place edits, where equal
		// add/remove text means the rewrite changed nothing.
		if block.Action != ActionAdd && block.Action != ActionRemove && linesRemove.String() == linesAdd.String() {
			continue
		}

		line1, line2 := 1, 1
		for i, l := range useful {
			v1 := l.FileIdx + 1
			v2 := v1
			if l.Type == LineMinus {
				v2 = l.FileIdx + 2
			}
			if i == 0 || v1 < line1 {
				line1 = v1
			}
			if i == 0 || v2 > line2 {
				line2 = v2
			}
		}

		chunks = append(chunks, DiffChunk{
			FileName:       filename,
			FileNameRename: filenameRename,
			FileAction:     block.Action,
			Line1:          line1,
			Line2:          line2,
			LinesRemove:    linesRemove.String(),
			LinesAdd:       linesAdd.String(),
		})
	}

	return chunks
}

func blockFileNames(block *DiffBlock) (name, rename string) {
	switch block.Action {
	case ActionAdd:
		return block.FileAfter, ""
	case ActionRemove:
		return block.FileBefore, ""
	case ActionRename:
		return block.FileBefore, block.FileAfter
	default: // edit: before == after
		return block.FileBefore, ""
	}
}

// dedupeChunks drops exact duplicate chunks, preserving first-seen order
// (mirrors the source's final `.unique()` pass).
func dedupeChunks(chunks []DiffChunk) []DiffChunk {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]DiffChunk, 0, len(chunks))
	for _, c := range chunks {
		key := c.FileName + "\x00" + c.FileNameRename + "\x00" + c.FileAction + "\x00" +
			strconv.Itoa(c.Line1) + "\x00" + strconv.Itoa(c.Line2) + "\x00" + c.LinesRemove + "\x00" + c.LinesAdd
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
