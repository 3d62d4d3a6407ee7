package core

import (
	"encoding/json"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("same content same id", func(t *testing.T) {
		assert.Equal(t, IDFromContent("hello"), IDFromContent("hello"))
	})

	t.Run("different content different id", func(t *testing.T) {
		assert.NotEqual(t, IDFromContent("hello"), IDFromContent("world"))
	})

	t.Run("string round trip", func(t *testing.T) {
		id := IDFromContent("round trip")
		parsed, err := ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("parse rejects garbage", func(t *testing.T) {
		_, err := ParseID("not-a-number")
		assert.Error(t, err)
	})
}

func TestChunkID(t *testing.T) {
	a := ChunkID("acme/widgets", "README.md", 0)
	assert.Equal(t, a, ChunkID("acme/widgets", "README.md", 0))
	assert.NotEqual(t, a, ChunkID("acme/widgets", "README.md", 1))
	assert.NotEqual(t, a, ChunkID("acme/gadgets", "README.md", 0))
	assert.NotEqual(t, a, ChunkID("acme/widgets", "main.go", 0))
}

func TestNewIngestionRun(t *testing.T) {
	ref := RepositoryRef{
		Name:      "widgets",
		FullName:  "acme/widgets",
		Branch:    "main",
		FilesPath: []string{"a.go", "b.go", "c.go"},
	}
	run := NewIngestionRun("run-1", ref)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, StatusPending, run.Status)
	assert.Equal(t, 3, run.TotalFiles)
	assert.Equal(t, 0, run.FilesIngested)
	assert.True(t, run.Error.IsAbsent())
}

func TestIngestionRunSnapshot(t *testing.T) {
	run := NewIngestionRun("run-1", RepositoryRef{FullName: "acme/widgets", FilesPath: []string{"a.go"}})
	snap := run.Snapshot()

	run.Repo.FilesPath[0] = "changed.go"
	run.FilesIngested = 1

	assert.Equal(t, "a.go", snap.Repo.FilesPath[0])
	assert.Equal(t, 0, snap.FilesIngested)
}

func TestQARequestLastMessage(t *testing.T) {
	req := &QARequest{}
	_, ok := req.LastMessage()
	assert.False(t, ok)

	req.Messages = append(req.Messages,
		Message{Role: RoleUser, Content: "hi"},
		Message{Role: RoleAssistant, Content: "hello"},
	)
	msg, ok := req.LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "hello", msg.Content)
}

func TestIngestionRunJSON(t *testing.T) {
	run := NewIngestionRun("run-1", RepositoryRef{
		FullName:  "acme/widgets",
		Branch:    "main",
		UserEmail: mo.Some("dev@acme.io"),
	})
	run.Fail("boom")

	data, err := json.Marshal(run)
	require.NoError(t, err)

	var decoded IngestionRun
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "boom", decoded.Error.MustGet())
	assert.Equal(t, "dev@acme.io", decoded.Repo.UserEmail.MustGet())
}
