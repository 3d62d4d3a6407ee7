package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points Load at a file that does not exist.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")

	s, err := Load(LoadOptions{EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, SourceGitHub, s.Source.Kind)
	assert.Equal(t, 500, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, 4, s.Retrieval.TopK)
	assert.Equal(t, 3, s.Retrieval.Expansions)
	assert.Equal(t, "embeddinggemma", s.AI.EmbeddingModel)
	assert.InDelta(t, 0.2, s.AI.ChatTemperature, 1e-9)
	assert.True(t, filepath.IsAbs(s.DataDir) || s.DataDir == ".docquery")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DOCQUERY_AI_CHAT_MODEL", "gpt-4o")
	t.Setenv("DOCQUERY_RETRIEVAL_TOP_K", "8")
	t.Setenv("DOCQUERY_SOURCE_KIND", "GIT")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	s, err := Load(LoadOptions{EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", s.AI.ChatModel)
	assert.Equal(t, 8, s.Retrieval.TopK)
	assert.Equal(t, SourceGit, s.Source.Kind)
	assert.Equal(t, "ghp_fallback", s.GitHub.Token)
}

func TestLoad_PrefixedTokenWins(t *testing.T) {
	t.Setenv("DOCQUERY_GITHUB_TOKEN", "ghp_primary")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	s, err := Load(LoadOptions{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "ghp_primary", s.GitHub.Token)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCQUERY_CHUNKING_SIZE=800\nDOCQUERY_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DOCQUERY_CHUNKING_SIZE")
		os.Unsetenv("DOCQUERY_LOG_LEVEL")
	})

	s, err := Load(LoadOptions{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, 800, s.Chunking.Size)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoad_OverridesWin(t *testing.T) {
	t.Setenv("DOCQUERY_AI_CHAT_MODEL", "from-env")
	dir := t.TempDir()

	s, err := Load(LoadOptions{
		EnvFile: noEnvFile(t),
		Overrides: map[string]any{
			"ai.chat_model": "from-flag",
			"data_dir":      dir,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", s.AI.ChatModel)
	assert.Equal(t, dir, s.DataDir)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown source", map[string]any{"source.kind": "svn"}},
		{"overlap too large", map[string]any{"chunking.overlap": 500}},
		{"zero chunk size", map[string]any{"chunking.size": 0}},
		{"zero top k", map[string]any{"retrieval.top_k": 0}},
		{"negative expansions", map[string]any{"retrieval.expansions": -1}},
		{"temperature out of range", map[string]any{"ai.chat_temperature": 3.5}},
		{"missing chat model", map[string]any{"ai.chat_model": ""}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(LoadOptions{EnvFile: noEnvFile(t), Overrides: tc.overrides})
			assert.Error(t, err)
		})
	}
}

func TestAIConfig(t *testing.T) {
	s := &Settings{AI: AISettings{
		EmbeddingHost:  "http://gpu:11434",
		ChatHost:       "http://gpu:11434",
		EmbeddingModel: "nomic-embed-text",
		ChatModel:      "llama3",
	}}
	cfg := s.AIConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://gpu:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "llama3", cfg.UtilityModel, "utility model falls back to the chat model")
}

func TestExpandHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandHomeDir("~"))
	assert.Equal(t, filepath.Join(home, "data"), expandHomeDir("~/data"))
	assert.Equal(t, "/srv/docquery", expandHomeDir("/srv/docquery"))
}
