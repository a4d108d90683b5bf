package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	files map[string]string
}

func (f *fakeRegistry) GetFileText(path string) (string, error) {
	text, ok := f.files[path]
	if !ok {
		return "", assert.AnError
	}
	return text, nil
}

const frogPy = `import numpy as np

DT = 0.01

class Frog:
    def __init__(self, x, y, vx, vy):
        self.x = x
        self.y = y
        self.vx = vx
        self.vy = vy
`

func TestParseMessage_EmptyHunk(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{"tests/frog.py": frogPy}}
	p := NewParser(reg)

	input := "Initial text\n```diff\n--- tests/frog.py\n+++ tests/frog.py\n@@ ... @@\n```\nAnother text"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseMessage_NoFence(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	chunks, err := p.ParseMessage("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseMessage_UnterminatedFenceNoHunk(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	chunks, err := p.ParseMessage("Initial text\n```")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseMessage_UnterminatedFenceWithInvalidLine(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	_, err := p.ParseMessage("Initial text\n```diff\nAnother text")
	assert.Error(t, err)
}

func TestParseMessage_MissingBeforeName(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	input := "Initial text\n```diff\n+++\n```\nAnother text"
	_, err := p.ParseMessage(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot get a correct 'before' file name")
}

func TestParseMessage_SimpleReplace(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{"tests/frog.py": frogPy}}
	p := NewParser(reg)

	input := "Initial text\n```diff\n--- tests/frog.py\n+++ tests/frog.py\n@@ ... @@\n-class Frog:\n+class AnotherFrog:\n```\nAnother text"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, "tests/frog.py", c.FileName)
	assert.Equal(t, ActionEdit, c.FileAction)
	assert.Equal(t, 5, c.Line1)
	assert.Equal(t, 6, c.Line2)
	assert.Equal(t, "class Frog:\n", c.LinesRemove)
	assert.Equal(t, "class AnotherFrog:\n", c.LinesAdd)
}

func TestParseMessage_DeleteOnlyLine(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{"tests/frog.py": frogPy}}
	p := NewParser(reg)

	input := "Initial text\n```diff\n--- tests/frog.py\n+++ tests/frog.py\n@@ ... @@\n DT = 0.01\n\n\n-class Frog:\n```\nAnother text"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, 5, c.Line1)
	assert.Equal(t, 6, c.Line2)
	assert.Equal(t, "class Frog:\n", c.LinesRemove)
	assert.Empty(t, c.LinesAdd)
}

func TestParseMessage_PureInsert(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{"tests/frog.py": frogPy}}
	p := NewParser(reg)

	input := "Initial text\n```diff\n--- tests/frog.py\n+++ tests/frog.py\n@@ ... @@\n DT = 0.01\n\n class Frog:\n+    # Frog class description\n```\nAnother text"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, 6, c.Line1)
	assert.Equal(t, 6, c.Line2)
	assert.Empty(t, c.LinesRemove)
	assert.Equal(t, "    # Frog class description\n", c.LinesAdd)
}

func TestParseMessage_AddFile(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	input := "```diff\n--- /dev/null\n+++ new_file.py\n@@ ... @@\n+import os\n+print(os.getcwd())\n```"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, ActionAdd, c.FileAction)
	assert.Equal(t, "new_file.py", c.FileName)
	assert.Equal(t, 1, c.Line1)
	assert.Equal(t, 1, c.Line2)
	assert.Equal(t, "import os\nprint(os.getcwd())\n", c.LinesAdd)
}

func TestParseMessage_RemoveFile(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{"old_file.py": "x = 1\n"}}
	p := NewParser(reg)

	input := "```diff\n--- old_file.py\n+++ /dev/null\n@@ ... @@\n```"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, ActionRemove, c.FileAction)
	assert.Equal(t, "old_file.py", c.FileName)
	assert.Equal(t, 1, c.Line1)
	assert.Equal(t, 1, c.Line2)
}

func TestParseMessage_AddEmptyFile(t *testing.T) {
	reg := &fakeRegistry{}
	p := NewParser(reg)

	input := "```diff\n--- /dev/null\n+++ new_empty.py\n@@ ... @@\n```"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, ActionAdd, c.FileAction)
	assert.Equal(t, "new_empty.py", c.FileName)
	assert.Equal(t, 1, c.Line1)
	assert.Equal(t, 1, c.Line2)
	assert.Empty(t, c.LinesAdd)
}

func TestParseMessage_RenameFailsWhenDestinationExists(t *testing.T) {
	reg := &fakeRegistry{files: map[string]string{
		"old.py": "x = 1\n",
		"new.py": "y = 2\n",
	}}
	p := NewParser(reg)

	input := "```diff\n--- old.py\n+++ new.py\n@@ ... @@\n-x = 1\n+x = 2\n```"
	_, err := p.ParseMessage(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestParseMessage_AmbiguousCommentReplace(t *testing.T) {
	holidayPy := `import frog


if __name__ == __main__:
    frog1 = frog.Frog()
    frog2 = frog.Frog()

    # First jump
    frog1.jump()
    frog2.jump()

    # Second jump
    frog1.jump()
    frog2.jump()

    # Third jump
    frog1.jump()
    frog2.jump()

    # Forth jump
    frog1.jump()
    frog2.jump()
`
	reg := &fakeRegistry{files: map[string]string{"holiday.py": holidayPy}}
	p := NewParser(reg)

	input := "```diff\n--- holiday.py\n+++ holiday.py\n@@ ... @@\n     frog2.jump()\n\n-    # Third jump\n+    # New Comment\n```"
	chunks, err := p.ParseMessage(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, 16, c.Line1)
	assert.Equal(t, 17, c.Line2)
	assert.Equal(t, "    # Third jump\n", c.LinesRemove)
	assert.Equal(t, "    # New Comment\n", c.LinesAdd)
}

func TestDedupeChunks(t *testing.T) {
	chunks := []DiffChunk{
		{FileName: "a.py", FileAction: ActionEdit, Line1: 1, Line2: 2, LinesRemove: "x\n", LinesAdd: "y\n"},
		{FileName: "a.py", FileAction: ActionEdit, Line1: 1, Line2: 2, LinesRemove: "x\n", LinesAdd: "y\n"},
		{FileName: "b.py", FileAction: ActionEdit, Line1: 1, Line2: 2, LinesRemove: "x\n", LinesAdd: "y\n"},
	}
	out := dedupeChunks(chunks)
	assert.Len(t, out, 2)
}
