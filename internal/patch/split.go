package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// splitDiffBlocks handles the "single-block auto-diff" case: when a hunk
// collapsed to exactly one edit block made entirely of Space lines (the
// model rewrote a region verbatim instead of marking +/- lines), line-diff
// the original region against the rewritten one and synthesize +/- lines
// before normalization runs.
func splitDiffBlocks(blocks []*DiffBlock) []*DiffBlock {
	var groups [][]*DiffBlock
	for _, b := range blocks {
		if n := len(groups); n > 0 && groups[n-1][0].HunkIdx == b.HunkIdx {
			groups[n-1] = append(groups[n-1], b)
		} else {
			groups = append(groups, []*DiffBlock{b})
		}
	}

	var out []*DiffBlock
	for _, group := range groups {
		first := group[0]
		if len(group) == 1 && first.Action == ActionEdit && allSpace(first.Lines) {
			out = append(out, autoDiffBlock(first)...)
		} else {
			out = append(out, group...)
		}
	}
	return out
}

func allSpace(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type != LineSpace {
			return false
		}
	}
	return true
}

func autoDiffBlock(block *DiffBlock) []*DiffBlock {
	original := strings.Join(block.FileLines, "\n")
	after := make([]string, len(block.Lines))
	for i, l := range block.Lines {
		after[i] = l.Text
	}
	textAfter := strings.Join(after, "\n")

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(original, textAfter)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []*DiffBlock
	var current []DiffLine
	lineNum := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		out = append(out, &DiffBlock{
			FileBefore: block.FileBefore, FileAfter: block.FileAfter,
			Action: block.Action, FileLines: block.FileLines, HunkIdx: block.HunkIdx,
			Lines: append([]DiffLine{}, current...),
		})
		current = nil
	}

	for _, d := range diffs {
		for _, text := range splitDiffText(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				current = append(current, DiffLine{Text: text, Type: LineMinus, FileIdx: lineNum, Located: true})
				lineNum++
			case diffmatchpatch.DiffInsert:
				current = append(current, DiffLine{Text: text, Type: LinePlus, FileIdx: lineNum, Located: true})
			case diffmatchpatch.DiffEqual:
				lineNum++
				flush()
			}
		}
	}
	flush()

	return out
}

// splitDiffText splits a line-mode diff's merged Text back into individual
// lines; DiffLinesToChars/DiffCharsToLines preserves a trailing newline per
// encoded line, so a trailing empty element is dropped.
func splitDiffText(text string) []string {
	parts := strings.Split(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
