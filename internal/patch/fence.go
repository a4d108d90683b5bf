package patch

import "strings"

// splitLines reproduces Rust's str::lines(): split on '\n', strip a
// trailing '\r' from each line (so CRLF input behaves like LF), and never
// yield a trailing empty element for content ending in a newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	parts := strings.Split(content, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// processFencedBlock consumes one ```diff ... ``` fenced block starting at
// lines[start] (the line after the opening fence) and splits it into one
// edit per hunk. Returns the line index just past the closing fence.
func processFencedBlock(lines []string, start int) (int, []edit) {
	lineNum := start
	for lineNum < len(lines) && !strings.HasPrefix(lines[lineNum], "```") {
		lineNum++
	}

	block := append(append([]string{}, lines[start:lineNum]...), "@@ @@")

	var beforePath, afterPath *string
	if len(block) >= 2 && strings.HasPrefix(block[0], "--- ") && strings.HasPrefix(block[1], "+++ ") {
		bp := strings.TrimSpace(block[0][4:])
		ap := strings.TrimSpace(block[1][4:])
		beforePath, afterPath = &bp, &ap
		block = block[2:]
	}

	addRemoveRename := (beforePath != nil && strings.HasPrefix(*beforePath, "/dev/null")) ||
		(afterPath != nil && strings.HasPrefix(*afterPath, "/dev/null")) ||
		(beforePath != nil && afterPath != nil && *beforePath != *afterPath)

	var edits []edit
	var hunk []string

	// boundaryRun counts consecutive "@" lines seen with no - or + content
	// in between. A bodyless add/remove/rename hunk is exactly two such
	// markers back to back (the file's own "@@ ... @@" line immediately
	// followed by the synthetic trailing sentinel); normal hunk parsing
	// never drives it past 1.
	boundaryRun := 0

	for _, line := range block {
		hunk = append(hunk, line)
		if len(line) < 2 {
			continue
		}

		if strings.HasPrefix(line, "+++ ") && len(hunk) >= 3 && strings.HasPrefix(hunk[len(hunk)-2], "--- ") {
			bpNew := strings.TrimSpace(hunk[len(hunk)-2][4:])
			if hunk[len(hunk)-3] == "\n" {
				hunk = hunk[:len(hunk)-3]
			} else {
				hunk = hunk[:len(hunk)-2]
			}
			edits = append(edits, edit{beforePath: beforePath, afterPath: afterPath, hunk: append([]string{}, hunk...)})

			beforePath = &bpNew
			ap := strings.TrimSpace(line[4:])
			afterPath = &ap
			hunk = nil
			boundaryRun = 0
			continue
		}

		op := line[0]
		if op == '-' || op == '+' || (addRemoveRename && op != '@') {
			boundaryRun = 0
			continue
		}
		if op != '@' {
			continue
		}
		if len(hunk) <= 1 {
			boundaryRun++
			if addRemoveRename && boundaryRun >= 2 {
				edits = append(edits, edit{beforePath: beforePath, afterPath: afterPath, hunk: nil})
				boundaryRun = 0
			}
			hunk = nil
			continue
		}
		boundaryRun = 0
		hunk = hunk[:len(hunk)-1]
		edits = append(edits, edit{beforePath: beforePath, afterPath: afterPath, hunk: append([]string{}, hunk...)})
		hunk = nil
	}

	return lineNum + 1, edits
}

// getEditHunks scans content for every ```diff fenced block and returns
// the hunks found across all of them, in order.
func getEditHunks(content string) []edit {
	lines := splitLines(content)
	lineNum := 0
	var edits []edit

	for lineNum < len(lines) {
		found := false
		for lineNum < len(lines) {
			if strings.HasPrefix(lines[lineNum], "```diff") {
				next, these := processFencedBlock(lines, lineNum+1)
				lineNum = next
				edits = append(edits, these...)
				found = true
				break
			}
			lineNum++
		}
		if !found {
			break
		}
	}
	return edits
}
