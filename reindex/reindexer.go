// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Result summarizes a finished reindex.
type Result struct {
	Chunks  int
	Batches int
	Elapsed time.Duration
}

// Reindexer re-embeds every stored chunk with the current embedder.
type Reindexer struct {
	store     storage.ChunkStore
	embedder  ai.Embedder
	batchSize int
	every     int
	retry     RetryPolicy
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Reindexer.
type Option func(*Reindexer) error

// WithBatchSize sets how many chunks go into one embedding request.
// Default is DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(r *Reindexer) error {
		if n <= 0 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		r.batchSize = n
		return nil
	}
}

// WithReportInterval sets how many chunks pass between progress lines.
func WithReportInterval(n int) Option {
	return func(r *Reindexer) error {
		r.every = n
		return nil
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Reindexer) error {
		if p.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		r.retry = p
		return nil
	}
}

// WithProgress sets where progress lines are written. Default discards them.
func WithProgress(w io.Writer) Option {
	return func(r *Reindexer) error {
		r.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReindexer creates a reindexer over store.
func NewReindexer(store storage.ChunkStore, embedder ai.Embedder, opts ...Option) (*Reindexer, error) {
	if store == nil {
		return nil, ErrChunkStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Reindexer{
		store:     store,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		every:     DefaultBatchSize,
		retry:     DefaultRetryPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run re-embeds the chunks of repo, or of every repository when repo is
// empty. Batches already written stay written if a later batch fails.
func (r *Reindexer) Run(ctx context.Context, repo string) (Result, error) {
	total, err := r.store.CountChunks(ctx, repo)
	if err != nil {
		return Result{}, fmt.Errorf("counting chunks: %w", err)
	}
	if total == 0 {
		r.logger.Info("nothing to reindex", "repo", repo)
		return Result{}, nil
	}

	r.logger.Info("reindex started", "repo", repo, "chunks", total, "batch_size", r.batchSize)
	progress := NewProgress(r.progress, total, r.every)
	processor := NewBatchProcessor(r.store, r.embedder, r.retry, r.logger)

	var res Result
	err = forEachBatch(ctx, r.store, repo, r.batchSize, func(batch []*core.Chunk) error {
		if err := processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("batch %d: %w", res.Batches+1, err)
		}
		res.Batches++
		res.Chunks += len(batch)
		progress.Add(len(batch))
		return nil
	})
	res.Elapsed = progress.Elapsed()
	if err != nil {
		r.logger.Error("reindex failed", "repo", repo, "chunks", res.Chunks, "err", err)
		return res, err
	}

	progress.Done()
	r.logger.Info("reindex complete", "repo", repo, "chunks", res.Chunks, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}
