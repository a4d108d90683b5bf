package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/Aman-CERP/amanmcp/internal/astindex"
	"github.com/Aman-CERP/amanmcp/internal/embed"
	"github.com/Aman-CERP/amanmcp/internal/store"
	"github.com/Aman-CERP/amanmcp/internal/vecdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTextGetter serves in-memory file text, the way workspace.Registry
// does for the scheduler's worker loop.
type fakeTextGetter struct {
	files map[string]string
}

func (f *fakeTextGetter) GetFileText(path string) (string, error) {
	text, ok := f.files[path]
	if !ok {
		return "", assert.AnError
	}
	return text, nil
}

func newTestScheduler(t *testing.T, cooldown time.Duration, files map[string]string) (*Scheduler, *astindex.Index) {
	t.Helper()

	ast := astindex.NewIndex(nil)
	t.Cleanup(ast.Close)

	splitter := vecdb.NewSplitter(nil, vecdb.DefaultSplitterConfig())
	t.Cleanup(splitter.Close)

	embedder := embed.NewStaticEmbedder768()
	vectorizer := vecdb.NewVectorizer(embedder, vecdb.DefaultBatchConfig(), nil)

	vs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(embedder.Dimensions()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })
	vectors := vecdb.NewIndex(vs)

	sched := New(nil, ast, splitter, vectorizer, vectors, cooldown, nil)
	sched.SetTextGetter(&fakeTextGetter{files: files})
	return sched, ast
}

func TestScheduler_EnqueueIndexesFileThenReachesDone(t *testing.T) {
	sched, ast := newTestScheduler(t, 10*time.Millisecond, map[string]string{
		"sample.go": "package sample\n\nfunc Add(a, b int) int { return a + b }\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Enqueue([]string{"sample.go"}, true, true, false)

	require.Eventually(t, func() bool {
		return sched.Status().State == StateDone
	}, 2*time.Second, 5*time.Millisecond)

	assert.NotEmpty(t, ast.GetSymbolsByFilePath("sample.go"))
	assert.Equal(t, 1, sched.Status().FilesDone)
}

func TestScheduler_EnqueueEmptyPathsIsNoop(t *testing.T) {
	sched, _ := newTestScheduler(t, DefaultCooldown, nil)
	sched.Enqueue(nil, true, true, false)
	assert.Equal(t, 0, sched.Status().FilesTotal)
}

func TestScheduler_ForceBypassesContentHashEarlyExit(t *testing.T) {
	sched, ast := newTestScheduler(t, 5*time.Millisecond, map[string]string{
		"sample.go": "package sample\n\nfunc Add(a, b int) int { return a + b }\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Enqueue([]string{"sample.go"}, true, false, false)
	require.Eventually(t, func() bool { return sched.Status().State == StateDone }, 2*time.Second, 5*time.Millisecond)

	firstDone := sched.Status().FilesDone

	sched.Enqueue([]string{"sample.go"}, true, false, true)
	require.Eventually(t, func() bool {
		return sched.Status().FilesDone > firstDone
	}, 2*time.Second, 5*time.Millisecond)

	assert.NotEmpty(t, ast.GetSymbolsByFilePath("sample.go"))
}

func TestScheduler_RemoveFileDropsFromASTAndVectorIndexes(t *testing.T) {
	sched, ast := newTestScheduler(t, 5*time.Millisecond, map[string]string{
		"sample.go": "package sample\n\nfunc Add(a, b int) int { return a + b }\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Enqueue([]string{"sample.go"}, true, true, false)
	require.Eventually(t, func() bool { return sched.Status().State == StateDone }, 2*time.Second, 5*time.Millisecond)
	require.NotEmpty(t, ast.GetSymbolsByFilePath("sample.go"))

	sched.RemoveFile(context.Background(), "sample.go")
	assert.Empty(t, ast.GetSymbolsByFilePath("sample.go"))
}

func TestScheduler_TotalResetClearsASTAndPendingQueues(t *testing.T) {
	sched, ast := newTestScheduler(t, 5*time.Millisecond, map[string]string{
		"sample.go": "package sample\n\nfunc Add(a, b int) int { return a + b }\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Enqueue([]string{"sample.go"}, true, true, false)
	require.Eventually(t, func() bool { return sched.Status().State == StateDone }, 2*time.Second, 5*time.Millisecond)

	sched.TotalReset()
	assert.Empty(t, ast.GetSymbolsByFilePath("sample.go"))
	assert.Equal(t, StateStarting, sched.Status().State)
	assert.Equal(t, 0, sched.Status().QueueDepth)
}

func TestScheduler_IsDoneAndQuiescent(t *testing.T) {
	sched, _ := newTestScheduler(t, 5*time.Millisecond, map[string]string{
		"sample.go": "package sample\n\nfunc Add(a, b int) int { return a + b }\n",
	})
	assert.False(t, sched.IsDoneAndQuiescent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Enqueue([]string{"sample.go"}, true, true, false)
	require.Eventually(t, sched.IsDoneAndQuiescent, 2*time.Second, 5*time.Millisecond)
}
