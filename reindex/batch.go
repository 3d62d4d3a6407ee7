package reindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 64

// forEachBatch hands the chunks of one repository (all repositories when
// repo is empty) to fn in slices of at most size.
func forEachBatch(ctx context.Context, store storage.ChunkStore, repo string, size int, fn func([]*core.Chunk) error) error {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks, err := store.GetChunks(ctx, repo)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}
	for start := 0; start < len(chunks); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(chunks))
		if err := fn(chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// BatchProcessor re-embeds one slice of chunks and writes them back.
type BatchProcessor struct {
	store    storage.ChunkStore
	embedder ai.Embedder
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewBatchProcessor creates a processor that retries embedding per policy.
func NewBatchProcessor(store storage.ChunkStore, embedder ai.Embedder, policy RetryPolicy, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{store: store, embedder: embedder, retry: policy, logger: logger}
}

// Process replaces the vectors of chunks. On error nothing in the batch
// has been written.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err := bp.retry.Do(ctx, bp.logger, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: embedding %d chunks: %w", core.ErrGenerationFailure, len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: expected %d vectors, got %d", core.ErrGenerationFailure, len(chunks), len(vectors))
	}

	updated := make([]*core.Chunk, len(chunks))
	for i, c := range chunks {
		cp := *c
		cp.Vector = NormalizeVector(vectors[i])
		updated[i] = &cp
	}
	if err := bp.store.PutChunks(ctx, updated...); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexWriteFailure, err)
	}
	return nil
}
