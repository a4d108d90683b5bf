package vecdb

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/amanmcp/internal/embed"
)

// Vectorizer batches SplitResults through an embed.Embedder. Batches are
// capped at cfg.Size (never above 256); a batch failure is logged and
// dropped rather than poisoning the whole run, per spec §4.5.
type Vectorizer struct {
	embedder embed.Embedder
	cfg      BatchConfig
	log      *slog.Logger
}

// NewVectorizer wraps embedder (expected to already be wrapped in
// embed.NewCachedEmbedder by the caller, giving the content-addressed
// cache keyed by text+model hash the spec's window_text_hash cache
// describes).
func NewVectorizer(embedder embed.Embedder, cfg BatchConfig, log *slog.Logger) *Vectorizer {
	if cfg.Size <= 0 {
		cfg = DefaultBatchConfig()
	}
	if cfg.Size > maxBatchSize {
		cfg.Size = maxBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Vectorizer{embedder: embedder, cfg: cfg, log: log}
}

// VectorizeSplits embeds every split's WindowText in batches, returning a
// Record per successfully embedded split. Splits whose batch failed are
// omitted (and logged), not retried indefinitely.
func (v *Vectorizer) VectorizeSplits(ctx context.Context, splits []SplitResult) []Record {
	var out []Record

	for start := 0; start < len(splits); start += v.cfg.Size {
		end := start + v.cfg.Size
		if end > len(splits) {
			end = len(splits)
		}
		batch := splits[start:end]

		v.embedder.SetBatchIndex(start / v.cfg.Size)
		v.embedder.SetFinalBatch(end == len(splits))

		texts := make([]string, len(batch))
		for i, sp := range batch {
			texts[i] = sp.WindowText
		}

		vecs, err := v.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			v.log.Error("embedding batch dropped", slog.Int("batch_start", start), slog.Int("batch_size", len(batch)), slog.Any("error", err))
			continue
		}

		for i, sp := range batch {
			out = append(out, Record{
				FilePath:       sp.FilePath,
				WindowTextHash: sp.WindowTextHash,
				StartLine:      sp.StartLine,
				EndLine:        sp.EndLine,
				Embedding:      vecs[i],
			})
		}
	}

	return out
}

// VectorizeQuery embeds a single query string for nearest-neighbor search.
func (v *Vectorizer) VectorizeQuery(ctx context.Context, query string) ([]float32, error) {
	return v.embedder.Embed(ctx, query)
}

// Dimensions returns the wrapped embedder's vector dimensionality.
func (v *Vectorizer) Dimensions() int { return v.embedder.Dimensions() }

// ModelName returns the wrapped embedder's model identifier.
func (v *Vectorizer) ModelName() string { return v.embedder.ModelName() }
