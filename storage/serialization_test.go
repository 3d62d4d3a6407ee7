package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/docquery/core"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSerialization(t *testing.T) {
	chunk := &core.Chunk{
		ID:           core.ChunkID("acme/widgets", "main.go", 2),
		Text:         "func main() {}",
		SourcePath:   "main.go",
		RepoFullName: "acme/widgets",
		Ordinal:      2,
		Language:     "Go",
		Vector:       []float32{0.25, -0.5, 1},
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)

	t.Run("without vector", func(t *testing.T) {
		bare := *chunk
		bare.Vector = nil
		decoded, err := UnmarshalChunk(MarshalChunk(&bare))
		require.NoError(t, err)
		assert.Equal(t, &bare, decoded)
	})

	t.Run("vectors are stored as four bytes per dimension", func(t *testing.T) {
		wide := *chunk
		wide.Vector = make([]float32, 1536)
		for i := range wide.Vector {
			wide.Vector[i] = float32(i) / 1536
		}
		data := MarshalChunk(&wide)
		assert.Less(t, len(data), 1536*4+128)

		asJSON, err := json.Marshal(&wide)
		require.NoError(t, err)
		assert.Less(t, len(data), len(asJSON)/2)
	})

	t.Run("truncated", func(t *testing.T) {
		data := MarshalChunk(chunk)
		_, err := UnmarshalChunk(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestIDSerialization(t *testing.T) {
	id := core.RepositoryRecordID("acme/widgets")
	decoded, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = UnmarshalID(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestCatalogSerialization(t *testing.T) {
	stamp := time.Date(2025, 3, 14, 15, 9, 26, 535000, time.UTC)

	t.Run("repository record", func(t *testing.T) {
		record := &core.RepositoryRecord{
			ID:            core.RepositoryRecordID("acme/widgets"),
			Name:          "widgets",
			FullName:      "acme/widgets",
			Branch:        "main",
			RepositoryURL: "https://github.com/acme/widgets",
			Files:         []string{"a.go", "b.go"},
			InsertedAt:    stamp,
			UpdatedAt:     stamp.Add(time.Hour),
		}
		decoded, err := UnmarshalRepositoryRecord(MarshalRepositoryRecord(record))
		require.NoError(t, err)
		assert.Equal(t, record, decoded)
	})

	t.Run("user", func(t *testing.T) {
		user := &core.User{
			Email:                "dev@acme.io",
			Name:                 "Dev",
			IngestedRepositories: []string{"acme/widgets"},
			InsertedAt:           stamp,
			UpdatedAt:            stamp,
		}
		decoded, err := UnmarshalUser(MarshalUser(user))
		require.NoError(t, err)
		assert.Equal(t, user, decoded)
	})
}

func TestRunSerialization(t *testing.T) {
	run := core.NewIngestionRun("run-1", core.RepositoryRef{
		FullName:  "acme/widgets",
		Branch:    "main",
		FilesPath: []string{"a.go"},
		UserEmail: mo.Some("dev@acme.io"),
	})
	require.NoError(t, run.Transition(core.StatusRunning))
	run.Fail("Error during ingestion: boom")
	run.StartedAt = run.StartedAt.Truncate(time.Microsecond)

	data, err := MarshalRun(run)
	require.NoError(t, err)

	decoded, err := UnmarshalRun(data)
	require.NoError(t, err)
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, core.StatusRunning, decoded.Status)
	assert.Equal(t, "Error during ingestion: boom", decoded.Error.OrEmpty())
	assert.Equal(t, "dev@acme.io", decoded.Repo.UserEmail.OrEmpty())
	assert.True(t, run.StartedAt.Equal(decoded.StartedAt))
}

func TestUnmarshalRunRejectsUnknownStatus(t *testing.T) {
	_, err := UnmarshalRun([]byte(`{"id":"run-1","status":"EXPLODED"}`))
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRun([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestErrNotFoundKind(t *testing.T) {
	assert.ErrorIs(t, ErrNotFound, core.ErrNotFoundFailure)
}
