package index

import (
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id core.ID, text string) *core.ScoredChunk {
	return &core.ScoredChunk{Chunk: &core.Chunk{ID: id, Text: text}}
}

func TestFuse(t *testing.T) {
	t.Run("shared hits outrank single-list hits", func(t *testing.T) {
		vector := []*core.ScoredChunk{scored(1, "a"), scored(2, "b")}
		lexical := []*core.ScoredChunk{scored(3, "c"), scored(2, "b")}

		hits := fuse("zzz", rrfK, vector, lexical)
		require.Len(t, hits, 3)
		assert.Equal(t, core.ID(2), hits[0].Chunk.ID)
	})

	t.Run("ties break by id", func(t *testing.T) {
		hits := fuse("zzz", rrfK, []*core.ScoredChunk{scored(9, "x")}, []*core.ScoredChunk{scored(4, "y")})
		require.Len(t, hits, 2)
		assert.Equal(t, core.ID(4), hits[0].Chunk.ID)
		assert.Equal(t, core.ID(9), hits[1].Chunk.ID)
	})

	t.Run("verbatim boost", func(t *testing.T) {
		hits := fuse("graceful shutdown", rrfK,
			[]*core.ScoredChunk{scored(1, "startup code"), scored(2, "graceful shutdown of the server")},
		)
		assert.Equal(t, core.ID(2), hits[0].Chunk.ID)
	})

	t.Run("keeps the copy with a vector", func(t *testing.T) {
		withVector := &core.ScoredChunk{Chunk: &core.Chunk{ID: 1, Vector: []float32{1}}}
		hits := fuse("q", rrfK, []*core.ScoredChunk{scored(1, "")}, []*core.ScoredChunk{withVector})
		require.Len(t, hits, 1)
		assert.NotEmpty(t, hits[0].Chunk.Vector)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, fuse("q", rrfK))
	})
}

func TestContainsAllQueryWords(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		query string
		want  bool
	}{
		{"all present", "call http.ListenAndServe() to start", "ListenAndServe http", true},
		{"stop words ignored", "run make test", "how do I run the test", true},
		{"missing word", "run make test", "run integration test", false},
		{"only stop words", "anything", "the and of", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, containsAllQueryWords(tc.text, tc.query))
		})
	}
}
