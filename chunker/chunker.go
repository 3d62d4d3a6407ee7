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

// Package chunker splits source files into overlapping segments for indexing.
//
// Splitting is recursive: text is broken at paragraph boundaries first, then
// line breaks, then spaces, and only falls back to a hard character cut when
// no boundary fits inside the target length. Consecutive chunks share up to
// the configured overlap so that sentences cut at a boundary stay searchable.
package chunker

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/poiesic/docquery/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of characters shared by neighbours.
	DefaultChunkOverlap = 200
)

var (
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrInvalidOverlap indicates an overlap that is negative or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than chunk size")
)

// Chunker turns document text into core.Chunk values.
type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		c.size = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = overlap
		return nil
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker. Without options it uses 500 character chunks with
// a 200 character overlap.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
		logger:  slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidOverlap, c.size, c.overlap)
	}
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
	)
	return c, nil
}

// ChunkSize returns the configured target length.
func (c *Chunker) ChunkSize() int { return c.size }

// ChunkOverlap returns the configured overlap.
func (c *Chunker) ChunkOverlap() int { return c.overlap }

// Split breaks text into ordered chunks tagged with sourcePath and
// repoFullName. Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text, sourcePath, repoFullName string) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", sourcePath, err)
	}

	language := enry.GetLanguage(filepath.Base(sourcePath), []byte(text))

	chunks := make([]core.Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ordinal := len(chunks)
		chunks = append(chunks, core.Chunk{
			ID:           core.ChunkID(repoFullName, sourcePath, ordinal),
			Text:         part,
			SourcePath:   sourcePath,
			RepoFullName: repoFullName,
			Ordinal:      ordinal,
			Language:     language,
		})
	}

	c.logger.Debug("split document", "path", sourcePath, "repo", repoFullName, "chunks", len(chunks), "language", language)
	return chunks, nil
}
