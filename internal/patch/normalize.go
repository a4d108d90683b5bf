package patch

import (
	"fmt"
	"strings"

	amanerrors "github.com/Aman-CERP/amanmcp/internal/errors"
)

// normalizeDiffBlock applies the five normalization steps to a located
// block: (1) apply each line's correct_spaces_offset, (2) pin an unlocated
// leading + to file index 0, (3) strip unlocated leading Space lines,
// (4) recover missing '-' markers by relabeling a Space line that matches
// the text of the nearest following '+' line, (5) forward-fill unlocated
// file indexes. Fails if any +/- line is still unlocated afterward.
func normalizeDiffBlock(block *DiffBlock) error {
	if len(block.Lines) == 0 {
		return nil
	}

	// Step 1
	for i := range block.Lines {
		l := &block.Lines[i]
		if !l.Located {
			continue
		}
		if l.Offset > 0 {
			l.Text = strings.Repeat(" ", l.Offset) + l.Text
		} else if l.Offset < 0 {
			n := -l.Offset
			if n > len(l.Text) {
				n = len(l.Text)
			}
			l.Text = l.Text[n:]
		}
	}

	// Step 2
	if first := &block.Lines[0]; first.Type == LinePlus && !first.Located {
		first.FileIdx = 0
		first.Located = true
	}

	// Step 3
	skip := 0
	for skip < len(block.Lines) && block.Lines[skip].Type == LineSpace && !block.Lines[skip].Located {
		skip++
	}
	block.Lines = block.Lines[skip:]

	// Step 4
	snapshot := append([]DiffLine{}, block.Lines...)
	for i := range block.Lines {
		l := &block.Lines[i]
		if l.Type != LineSpace || !l.Located || i >= len(snapshot)-1 {
			continue
		}
		for _, c := range snapshot[i+1:] {
			if c.Type == LinePlus {
				if l.Text == c.Text {
					l.Type = LineMinus
				}
				break
			}
		}
	}

	// Step 5
	lastIdx := 0
	haveLast := false
	for i := range block.Lines {
		l := &block.Lines[i]
		if l.Located {
			lastIdx = l.FileIdx + 1
			haveLast = true
		} else if haveLast {
			l.FileIdx = lastIdx
			l.Located = true
		}
	}

	var notFound []string
	for _, l := range block.Lines {
		if l.Type != LineSpace && !l.Located {
			notFound = append(notFound, l.Type.String()+l.Text)
		}
	}
	if len(notFound) > 0 {
		return amanerrors.New(amanerrors.ErrCodePatchHunkNotFound,
			fmt.Sprintf("blocks of code signed with '-' weren't found in a file\n%s", strings.Join(notFound, "\n")), nil)
	}

	return nil
}
