package vecdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder is an in-package embed.Embedder test double.
type fakeEmbedder struct {
	dims       int
	failBatch  bool
	batchCalls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dims), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.failBatch {
		return nil, assertErr{}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int             { return f.dims }
func (f *fakeEmbedder) ModelName() string           { return "fake-model" }
func (f *fakeEmbedder) Available(ctx context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                { return nil }
func (f *fakeEmbedder) SetBatchIndex(int)           {}
func (f *fakeEmbedder) SetFinalBatch(bool)          {}

type assertErr struct{}

func (assertErr) Error() string { return "embed batch failed" }

func TestVectorizeSplits_BatchesAndProducesRecords(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	v := NewVectorizer(emb, BatchConfig{Size: 2}, nil)

	splits := []SplitResult{
		{FilePath: "a.go", WindowText: "one", WindowTextHash: "h1"},
		{FilePath: "a.go", WindowText: "two", WindowTextHash: "h2"},
		{FilePath: "a.go", WindowText: "three", WindowTextHash: "h3"},
	}

	records := v.VectorizeSplits(context.Background(), splits)
	require.Len(t, records, 3)
	assert.Equal(t, 2, emb.batchCalls)
	for _, r := range records {
		assert.Len(t, r.Embedding, 4)
	}
}

func TestVectorizeSplits_DropsFailedBatchWithoutPoisoningRun(t *testing.T) {
	emb := &fakeEmbedder{dims: 4, failBatch: true}
	v := NewVectorizer(emb, DefaultBatchConfig(), nil)

	splits := []SplitResult{{FilePath: "a.go", WindowText: "one", WindowTextHash: "h1"}}
	records := v.VectorizeSplits(context.Background(), splits)
	assert.Empty(t, records)
}

func TestNewVectorizer_ClampsBatchSizeToMax(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	v := NewVectorizer(emb, BatchConfig{Size: 10_000}, nil)
	assert.LessOrEqual(t, v.cfg.Size, maxBatchSize)
}

func TestVectorizeQuery_DelegatesToEmbed(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	v := NewVectorizer(emb, DefaultBatchConfig(), nil)

	vec, err := v.VectorizeQuery(context.Background(), "query text")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}
