package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexLock_TryLockThenUnlock(t *testing.T) {
	dir := t.TempDir()
	lock := NewIndexLock(dir)

	acquired, err := lock.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)

	require.NoError(t, lock.Unlock())
}

func TestIndexLock_SecondLockFailsWhileFirstHeld(t *testing.T) {
	dir := t.TempDir()
	first := NewIndexLock(dir)
	second := NewIndexLock(dir)

	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer first.Unlock()

	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestIndexLock_UnlockWithoutLockIsNoop(t *testing.T) {
	lock := NewIndexLock(t.TempDir())
	assert.NoError(t, lock.Unlock())
}

func TestIndexLock_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/data"
	lock := NewIndexLock(dir)

	acquired, err := lock.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, lock.Unlock())
}
