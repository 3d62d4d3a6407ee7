package index

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
	"github.com/poiesic/docquery/storage/lexical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLexical struct {
	err error
}

var _ storage.LexicalIndex = (*failingLexical)(nil)

func (f *failingLexical) IndexChunks(context.Context, ...*core.Chunk) error { return f.err }
func (f *failingLexical) Search(context.Context, string, string, int) ([]*core.ScoredChunk, error) {
	return nil, f.err
}
func (f *failingLexical) DeleteRepository(context.Context, string) (int, error) { return 0, f.err }
func (f *failingLexical) Close() error                                          { return nil }

type recordingMonitor struct {
	noopMonitor
	started  bool
	vector   int
	lexical  int
	finished []Hit
}

func (m *recordingMonitor) Start(Query) { m.started = true }
func (m *recordingMonitor) AfterVectorSearch(r []*core.ScoredChunk, _ error) {
	m.vector = len(r)
}
func (m *recordingMonitor) AfterLexicalSearch(r []*core.ScoredChunk, _ error) {
	m.lexical = len(r)
}
func (m *recordingMonitor) Finish(h []Hit) { m.finished = h }

func chunk(repo, path string, ordinal int, text string) core.Chunk {
	return core.Chunk{
		ID:           core.ChunkID(repo, path, ordinal),
		Text:         text,
		SourcePath:   path,
		RepoFullName: repo,
		Ordinal:      ordinal,
	}
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *badger.Stores, *mock.MockEmbedder) {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	lex, err := lexical.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { lex.Close() })

	embedder := mock.NewMockEmbedder()
	client, err := NewClient(stores.Chunks, lex, embedder, opts...)
	require.NoError(t, err)
	return client, stores, embedder
}

func seed(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx,
		chunk("org/repo", "Makefile", 0, "test: go test ./... runs the tests"),
		chunk("org/repo", "README.md", 0, "How to run tests: use make test"),
		chunk("org/repo", "main.go", 0, "package main starts the server"),
		chunk("org/repo", "docs/deploy.md", 0, "deploy with helm"),
		chunk("org/repo", "docs/ci.md", 0, "ci pipeline runs tests on push"),
		chunk("org/other", "README.md", 0, "run tests in other with make test"),
	))
}

func TestNewClient(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	lex, err := lexical.NewMemOnly()
	require.NoError(t, err)
	defer lex.Close()
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		c, err := NewClient(stores.Chunks, lex, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		c, err := NewClient(stores.Chunks, lex, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, c.logger)
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := NewClient(nil, lex, embedder)
		assert.Equal(t, ErrChunkStoreRequired, err)
		_, err = NewClient(stores.Chunks, nil, embedder)
		assert.Equal(t, ErrLexicalIndexRequired, err)
		_, err = NewClient(stores.Chunks, lex, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("stores vectors", func(t *testing.T) {
		c, stores, _ := newTestClient(t)
		seed(t, c)

		n, err := c.CountByRepository(ctx, "org/repo")
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		stored, err := stores.Chunks.GetChunks(ctx, "org/other")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.NotEmpty(t, stored[0].Vector)
	})

	t.Run("embedding failure is an index write failure", func(t *testing.T) {
		c, _, embedder := newTestClient(t)
		boom := errors.New("embedding service down")
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, boom
		}

		err := c.Upsert(ctx, chunk("org/repo", "a.go", 0, "x"))
		assert.ErrorIs(t, err, core.ErrIndexWriteFailure)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		c, _, embedder := newTestClient(t)
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		err := c.Upsert(ctx, chunk("org/repo", "a.go", 0, "x"))
		assert.ErrorIs(t, err, core.ErrIndexWriteFailure)
	})

	t.Run("empty upsert is a no-op", func(t *testing.T) {
		c, _, embedder := newTestClient(t)
		require.NoError(t, c.Upsert(ctx))
		assert.Zero(t, embedder.CallCount())
	})
}

func TestDeleteByRepository(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestClient(t)
	seed(t, c)

	deleted, err := c.DeleteByRepository(ctx, "org/repo")
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)

	hits, err := c.Search(ctx, Query{Text: "run tests", Repository: "org/repo"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	n, err := c.CountByRepository(ctx, "org/other")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err = c.DeleteByRepository(ctx, "org/repo")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	_, err = c.DeleteByRepository(ctx, "")
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestClient(t)
	seed(t, c)

	t.Run("defaults to four hits scoped to the repository", func(t *testing.T) {
		hits, err := c.Search(ctx, Query{Text: "run tests", Repository: "org/repo"})
		require.NoError(t, err)
		assert.Len(t, hits, DefaultTopK)
		for _, h := range hits {
			assert.Equal(t, "org/repo", h.Chunk.RepoFullName)
		}
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
	})

	t.Run("verbatim match ranks first", func(t *testing.T) {
		hits, err := c.Search(ctx, Query{Text: "make test", Repository: "org/repo", TopK: 2})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "README.md", hits[0].Chunk.SourcePath)
	})

	t.Run("repository required", func(t *testing.T) {
		_, err := c.Search(ctx, Query{Text: "tests"})
		assert.ErrorIs(t, err, ErrRepositoryRequired)
	})

	t.Run("monitor sees each stage", func(t *testing.T) {
		m := &recordingMonitor{}
		hits, err := c.SearchWithMonitor(ctx, Query{Text: "tests", Repository: "org/repo", TopK: 3}, m)
		require.NoError(t, err)
		assert.True(t, m.started)
		assert.Positive(t, m.vector)
		assert.Equal(t, hits, m.finished)
	})
}

func TestSearchDegradation(t *testing.T) {
	ctx := context.Background()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	embedder := mock.NewMockEmbedder()
	boom := errors.New("lexical down")

	good := chunk("org/repo", "a.go", 0, "alpha")
	good.Vector = mock.GenerateDeterministicVector("alpha", 64)
	require.NoError(t, stores.Chunks.PutChunks(ctx, &good))

	c, err := NewClient(stores.Chunks, &failingLexical{err: boom}, embedder)
	require.NoError(t, err)

	t.Run("lexical failure falls back to vector results", func(t *testing.T) {
		hits, err := c.Search(ctx, Query{Text: "alpha", Repository: "org/repo"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "a.go", hits[0].Chunk.SourcePath)
	})

	t.Run("both halves failing is a search failure", func(t *testing.T) {
		embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errors.New("embedder down")
		}
		_, err := c.Search(ctx, Query{Text: "alpha", Repository: "org/repo"})
		assert.ErrorIs(t, err, core.ErrIndexSearchFailure)
	})
}
