package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const (
	// DefaultTopK is the number of hits returned when a query leaves TopK unset.
	DefaultTopK = 4

	// candidateFactor widens each half of a hybrid search so fusion has
	// enough overlap to work with.
	candidateFactor = 3
)

// Query is one hybrid search request.
type Query struct {
	Text       string
	Repository string
	TopK       int
}

// Hit is one ranked search result.
type Hit struct {
	Chunk *core.Chunk
	Score float64
}

// Client is the document index used by ingestion and retrieval.
type Client struct {
	chunks   storage.ChunkStore
	lexical  storage.LexicalIndex
	embedder ai.Embedder
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMonitor sets the monitor Search reports to.
// Default is a no-op monitor.
func WithMonitor(monitor SearchMonitor) Option {
	return func(c *Client) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		c.monitor = monitor
		return nil
	}
}

// NewClient creates a new index client.
func NewClient(chunks storage.ChunkStore, lexical storage.LexicalIndex, embedder ai.Embedder, opts ...Option) (*Client, error) {
	if chunks == nil {
		return nil, ErrChunkStoreRequired
	}
	if lexical == nil {
		return nil, ErrLexicalIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Client{
		chunks:   chunks,
		lexical:  lexical,
		embedder: embedder,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Upsert embeds chunks and writes them to both halves of the index.
// Chunks with an existing ID are replaced.
func (c *Client) Upsert(ctx context.Context, chunks ...core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding %d chunks: %w", core.ErrIndexWriteFailure, len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", core.ErrIndexWriteFailure, len(vectors), len(chunks))
	}

	records := make([]*core.Chunk, len(chunks))
	for i := range chunks {
		chunk := chunks[i]
		chunk.Vector = vectors[i]
		records[i] = &chunk
	}

	if err := c.chunks.PutChunks(ctx, records...); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexWriteFailure, err)
	}
	if err := c.lexical.IndexChunks(ctx, records...); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexWriteFailure, err)
	}

	c.logger.Debug("indexed chunks", "repo", records[0].RepoFullName, "path", records[0].SourcePath, "count", len(records))
	return nil
}

// DeleteByRepository removes every chunk of a repository from both halves
// of the index and returns the number of chunks removed. Deleting a
// repository with no chunks returns zero.
func (c *Client) DeleteByRepository(ctx context.Context, repoFullName string) (int, error) {
	if repoFullName == "" {
		return 0, ErrRepositoryRequired
	}

	deleted, err := c.chunks.DeleteRepository(ctx, repoFullName)
	if err != nil {
		return deleted, fmt.Errorf("%w: %w", core.ErrIndexWriteFailure, err)
	}

	lexicalDeleted, err := c.lexical.DeleteRepository(ctx, repoFullName)
	if err != nil {
		return deleted, fmt.Errorf("%w: %w", core.ErrIndexWriteFailure, err)
	}
	if lexicalDeleted != deleted {
		c.logger.Warn("index halves disagreed on chunk count", "repo", repoFullName, "vector", deleted, "lexical", lexicalDeleted)
	}

	c.logger.Info("deleted repository chunks", "repo", repoFullName, "count", deleted)
	return deleted, nil
}

// CountByRepository returns the number of chunks stored for a repository.
func (c *Client) CountByRepository(ctx context.Context, repoFullName string) (int, error) {
	return c.chunks.CountChunks(ctx, repoFullName)
}

// Search runs a hybrid query. Returns up to TopK hits, best first.
// The client's monitor receives callbacks at each stage.
func (c *Client) Search(ctx context.Context, q Query) ([]Hit, error) {
	return c.SearchWithMonitor(ctx, q, c.monitor)
}

// SearchWithMonitor runs a hybrid query reporting to monitor instead of the
// client's own.
func (c *Client) SearchWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]Hit, error) {
	if q.Repository == "" {
		return nil, ErrRepositoryRequired
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(q)
	candidates := q.TopK * candidateFactor

	var vectorResults, lexicalResults []*core.ScoredChunk
	var vectorErr, lexicalErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		vectorResults, vectorErr = c.vectorSearch(ctx, q, candidates)
	}()

	go func() {
		defer wg.Done()
		lexicalResults, lexicalErr = c.lexical.Search(ctx, q.Repository, q.Text, candidates)
	}()

	wg.Wait()
	monitor.AfterVectorSearch(vectorResults, vectorErr)
	monitor.AfterLexicalSearch(lexicalResults, lexicalErr)

	if vectorErr != nil && lexicalErr != nil {
		c.logger.Error("hybrid search failed", "repo", q.Repository, "vectorErr", vectorErr, "lexicalErr", lexicalErr)
		return nil, fmt.Errorf("%w: vector=%w, lexical=%w", core.ErrIndexSearchFailure, vectorErr, lexicalErr)
	}
	if vectorErr != nil {
		c.logger.Warn("vector search failed, using lexical results only", "repo", q.Repository, "err", vectorErr)
	}
	if lexicalErr != nil {
		c.logger.Warn("lexical search failed, using vector results only", "repo", q.Repository, "err", lexicalErr)
	}

	hits := fuse(q.Text, rrfK, vectorResults, lexicalResults)
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}

	monitor.Finish(hits)
	return hits, nil
}

func (c *Client) vectorSearch(ctx context.Context, q Query, limit int) ([]*core.ScoredChunk, error) {
	vector, err := c.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	return c.chunks.FindSimilar(ctx, q.Repository, vector, limit)
}
