package patch

import (
	"fmt"
	"strings"

	amanerrors "github.com/Aman-CERP/amanmcp/internal/errors"
)

// Registry is the subset of the Document Registry the patch parser needs:
// read the current (possibly in-memory-overridden) text of a workspace
// file, used both to fetch the "before" content and to check whether a
// rename's destination already exists.
type Registry interface {
	GetFileText(path string) (string, error)
}

func (e *edit) String() string { return fmt.Sprintf("%v", *e) }

// editsToDiffBlocks classifies each hunk's edit into an add/remove/rename/
// edit DiffBlock, reading the "before" file's content through registry
// once per distinct path.
func editsToDiffBlocks(registry Registry, edits []edit) ([]*DiffBlock, error) {
	var blocks []*DiffBlock
	fileLinesCache := make(map[string][]string)

	for idx, e := range edits {
		if e.beforePath == nil {
			return nil, amanerrors.New(amanerrors.ErrCodeInvalidInput,
				fmt.Sprintf("cannot get a correct 'before' file name from the diff chunk:\n%s", e.String()), nil)
		}
		if e.afterPath == nil {
			return nil, amanerrors.New(amanerrors.ErrCodeInvalidInput,
				fmt.Sprintf("cannot get a correct 'after' file name from the diff chunk:\n%s", e.String()), nil)
		}
		before, after := *e.beforePath, *e.afterPath

		if before == "/dev/null" {
			blocks = append(blocks, makeAddBlock(idx, before, after, e.hunk))
			continue
		}
		if after == "/dev/null" {
			blocks = append(blocks, makeRemoveBlock(idx, before, after))
			continue
		}

		action := ActionEdit
		if before != after {
			action = ActionRename
			if _, err := registry.GetFileText(after); err == nil {
				return nil, amanerrors.New(amanerrors.ErrCodeRenameExists,
					fmt.Sprintf("cannot rename %s, destination file %s already exists", before, after), nil)
			}
		}

		fileLines, cached := fileLinesCache[before]
		if !cached {
			text, err := registry.GetFileText(before)
			if err != nil {
				return nil, err
			}
			fileLines = splitLines(strings.ReplaceAll(text, "\r\n", "\n"))
			fileLinesCache[before] = fileLines
		}

		blocks = append(blocks, hunkToDiffBlocks(idx, before, after, action, e.hunk, fileLines)...)
	}

	return blocks, nil
}

func makeAddBlock(idx int, before, after string, hunk []string) *DiffBlock {
	lines := make([]DiffLine, len(hunk))
	for i, x := range hunk {
		text := x
		if strings.HasPrefix(x, "+") {
			text = x[1:]
		}
		lines[i] = DiffLine{Text: text, Type: LinePlus, FileIdx: 0, Located: true}
	}
	return &DiffBlock{FileBefore: before, FileAfter: after, Action: ActionAdd, Lines: lines, HunkIdx: idx}
}

func makeRemoveBlock(idx int, before, after string) *DiffBlock {
	return &DiffBlock{FileBefore: before, FileAfter: after, Action: ActionRemove, HunkIdx: idx}
}

// hunkToDiffBlocks splits one hunk's raw lines into contiguous diff blocks,
// each block running from just after the previous +/- run to the next one
// (Space-only lines accumulate until a +/- run closes them out).
func hunkToDiffBlocks(idx int, before, after, action string, hunk []string, fileLines []string) []*DiffBlock {
	hasAnyNoLeadingSpace := false
	for _, l := range hunk {
		if !strings.HasPrefix(l, " ") {
			hasAnyNoLeadingSpace = true
			break
		}
	}

	var blocks []*DiffBlock
	var current []DiffLine
	blockHasMinusPlus := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, &DiffBlock{
			FileBefore: before, FileAfter: after, Action: action,
			FileLines: fileLines, HunkIdx: idx,
			Lines: append([]DiffLine{}, current...),
		})
		current = nil
	}

	for _, line := range hunk {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "+") {
			isPlus := strings.HasPrefix(line, "+")
			lt := LineMinus
			if isPlus {
				lt = LinePlus
			}
			current = append(current, DiffLine{Text: line[1:], Type: lt, FileIdx: -1})
			blockHasMinusPlus = true
			continue
		}

		if blockHasMinusPlus {
			flush()
			blockHasMinusPlus = false
		}
		text := line
		if !hasAnyNoLeadingSpace && strings.HasPrefix(line, " ") {
			text = line[1:]
		}
		current = append(current, DiffLine{Text: text, Type: LineSpace, FileIdx: -1})
	}
	flush()

	return blocks
}
