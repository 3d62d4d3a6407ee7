package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUS(t *testing.T) {
	chunk := Chunk{
		ID:           ChunkID("acme/widgets", "main.go", 3),
		Text:         "package main",
		SourcePath:   "main.go",
		RepoFullName: "acme/widgets",
		Ordinal:      3,
		Language:     "Go",
		Vector:       []float32{1.5, 2.5, 3.5},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	assert.Equal(t, len(buf), n)

	decoded, read, err := ChunkMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, chunk, decoded)

	skipped, err := ChunkMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)
}

func TestCatalogMUSSkip(t *testing.T) {
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC)

	record := RepositoryRecord{ID: 7, FullName: "acme/widgets", Files: []string{"a.go"}, InsertedAt: stamp, UpdatedAt: stamp}
	buf := make([]byte, RepositoryRecordMUS.Size(record))
	n := RepositoryRecordMUS.Marshal(record, buf)
	skipped, err := RepositoryRecordMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)

	user := User{Email: "dev@acme.io", IngestedRepositories: []string{}, InsertedAt: stamp, UpdatedAt: stamp}
	buf = make([]byte, UserMUS.Size(user))
	n = UserMUS.Marshal(user, buf)
	skipped, err = UserMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)

	decoded, _, err := UserMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}
