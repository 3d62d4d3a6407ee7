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

// Package config loads docquery settings.
//
// Priority, highest first: explicit overrides (CLI flags that were set),
// DOCQUERY_* environment variables, an optional .env file, defaults.
// The .env file is loaded into the process environment before viper reads
// it, so the same variable names work in both places.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/docquery/ai"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "DOCQUERY"

// Source kinds.
const (
	SourceGitHub = "github"
	SourceGit    = "git"
)

// GitHubSettings configures access to GitHub.
type GitHubSettings struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// SourceSettings selects where file contents come from.
type SourceSettings struct {
	Kind       string `mapstructure:"kind"`
	CloneDepth int    `mapstructure:"clone_depth"`
}

// AISettings configures the embedding and completion services.
type AISettings struct {
	EmbeddingHost   string  `mapstructure:"embedding_host"`
	ChatHost        string  `mapstructure:"chat_host"`
	APIKey          string  `mapstructure:"api_key"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	ChatModel       string  `mapstructure:"chat_model"`
	UtilityModel    string  `mapstructure:"utility_model"`
	ChatTemperature float64 `mapstructure:"chat_temperature"`
}

// ChunkingSettings sizes chunks in characters.
type ChunkingSettings struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// RetrievalSettings tunes the query path.
type RetrievalSettings struct {
	TopK       int `mapstructure:"top_k"`
	Expansions int `mapstructure:"expansions"`
	Workers    int `mapstructure:"workers"`
}

// IngestionSettings tunes the background runner. Zero workers picks a
// default from the CPU count.
type IngestionSettings struct {
	Workers int `mapstructure:"workers"`
}

// Settings is the full docquery configuration.
type Settings struct {
	DataDir   string            `mapstructure:"data_dir"`
	LogLevel  string            `mapstructure:"log_level"`
	GitHub    GitHubSettings    `mapstructure:"github"`
	Source    SourceSettings    `mapstructure:"source"`
	AI        AISettings        `mapstructure:"ai"`
	Chunking  ChunkingSettings  `mapstructure:"chunking"`
	Retrieval RetrievalSettings `mapstructure:"retrieval"`
	Ingestion IngestionSettings `mapstructure:"ingestion"`
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// EnvFile is the dotenv file to load. Empty means ".env" in the working
	// directory. A missing file is not an error.
	EnvFile string

	// Overrides maps dotted keys such as "ai.chat_model" to values that win
	// over everything else.
	Overrides map[string]any
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")

	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")

	v.SetDefault("source.kind", SourceGitHub)
	v.SetDefault("source.clone_depth", 1)

	v.SetDefault("ai.embedding_host", aiDefaults.EmbeddingHost)
	v.SetDefault("ai.chat_host", aiDefaults.ChatHost)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.embedding_model", aiDefaults.EmbeddingModel)
	v.SetDefault("ai.chat_model", aiDefaults.ChatModel)
	v.SetDefault("ai.utility_model", aiDefaults.UtilityModel)
	v.SetDefault("ai.chat_temperature", aiDefaults.ChatTemperature)

	v.SetDefault("chunking.size", 500)
	v.SetDefault("chunking.overlap", 200)

	v.SetDefault("retrieval.top_k", 4)
	v.SetDefault("retrieval.expansions", 3)
	v.SetDefault("retrieval.workers", 4)

	v.SetDefault("ingestion.workers", 0)
}

// Load reads settings from every layer and validates them.
func Load(opts LoadOptions) (*Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The conventional names work too.
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "OPENAI_API_KEY")

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	s.DataDir = expandHomeDir(s.DataDir)
	s.Source.Kind = strings.ToLower(strings.TrimSpace(s.Source.Kind))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	if s.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	switch s.Source.Kind {
	case SourceGitHub, SourceGit:
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceGitHub, SourceGit, s.Source.Kind)
	}
	if s.Chunking.Size <= 0 {
		return errors.New("chunking.size must be positive")
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return errors.New("chunking.overlap must be between 0 and chunking.size")
	}
	if s.Retrieval.TopK <= 0 {
		return errors.New("retrieval.top_k must be positive")
	}
	if s.Retrieval.Expansions < 0 {
		return errors.New("retrieval.expansions cannot be negative")
	}
	if s.Retrieval.Workers <= 0 {
		return errors.New("retrieval.workers must be positive")
	}
	if s.Ingestion.Workers < 0 {
		return errors.New("ingestion.workers cannot be negative")
	}
	return s.AIConfig().Validate()
}

// AIConfig converts the ai section into an ai.Config.
func (s *Settings) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(s.AI.EmbeddingHost),
		ai.WithChatHost(s.AI.ChatHost),
		ai.WithAPIKey(s.AI.APIKey),
		ai.WithEmbeddingModel(s.AI.EmbeddingModel),
		ai.WithChatModel(s.AI.ChatModel),
		ai.WithUtilityModel(s.AI.UtilityModel),
		ai.WithChatTemperature(s.AI.ChatTemperature),
	)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docquery"
	}
	return filepath.Join(home, ".docquery")
}

func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
