package patch

import "strings"

// locateDiffBlocks runs the location algorithm over every block, grouped
// by hunk index (blocks from the same hunk share a monotonically
// advancing search cursor into the target file).
func locateDiffBlocks(blocks []*DiffBlock) {
	groups := make(map[int][]*DiffBlock)
	var order []int
	for _, b := range blocks {
		if _, ok := groups[b.HunkIdx]; !ok {
			order = append(order, b.HunkIdx)
		}
		groups[b.HunkIdx] = append(groups[b.HunkIdx], b)
	}

	for _, hunkIdx := range order {
		fileLineStart := 0
		for _, block := range groups[hunkIdx] {
			diffLineStart := 0
			for diffLineStart <= len(block.Lines) {
				found := false

				for spanSize := len(block.Lines) - diffLineStart; spanSize >= 1; spanSize-- {
					span := block.Lines[diffLineStart : diffLineStart+spanSize]
					if containsPlus(span) || spanSize >= len(block.FileLines) {
						continue
					}
					diffSpan := trimmedTexts(span)

					for fileIdx := fileLineStart; fileIdx <= len(block.FileLines)-spanSize; fileIdx++ {
						fileSpan := trimmedTextsSlice(block.FileLines[fileIdx : fileIdx+spanSize])
						if fileIdx > fileLineStart && (len(fileSpan) == 0 || allEmpty(diffSpan)) {
							continue
						}
						if !equalStrings(fileSpan, diffSpan) {
							continue
						}

						for i := 0; i < spanSize; i++ {
							line := &block.Lines[diffLineStart+i]
							fileIndent := leadingSpaces(block.FileLines[fileIdx+i])
							diffIndent := leadingSpaces(line.Text)
							line.FileIdx = fileIdx + i
							line.Offset = fileIndent - diffIndent
							line.Located = true
						}
						diffLineStart += spanSize
						fileLineStart = fileIdx + spanSize
						found = true
						break
					}
					if found {
						break
					}
				}

				if !found {
					diffLineStart++
				}
			}
		}
	}
}

func containsPlus(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type == LinePlus {
			return true
		}
	}
	return false
}

func trimmedTexts(lines []DiffLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimLeft(l.Text, " \t")
	}
	return out
}

func trimmedTextsSlice(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimLeft(l, " \t")
	}
	return out
}

func allEmpty(s []string) bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}
