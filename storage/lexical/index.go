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

// Package lexical implements storage.LexicalIndex on a bleve full-text index.
//
// Chunk text is analyzed with the standard analyzer. The repository, path and
// language fields use the keyword analyzer so the repository filter is an
// exact term match.
package lexical

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Field names of an indexed chunk document.
const (
	FieldText     = "text"
	FieldRepo     = "repo"
	FieldPath     = "path"
	FieldOrdinal  = "ordinal"
	FieldLanguage = "language"
)

const (
	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100

	// deletePageSize bounds how many hits a delete sweep reads at once.
	deletePageSize = 1000
)

// Index is a bleve-backed storage.LexicalIndex.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
}

var _ storage.LexicalIndex = (*Index)(nil)

// CreateIndexMapping creates the bleve index mapping for chunk documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(FieldText, textField)

	for _, name := range []string{FieldRepo, FieldPath, FieldLanguage} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	ordinalField := bleve.NewNumericFieldMapping()
	ordinalField.Index = false
	ordinalField.Store = true
	docMapping.AddFieldMappingsAt(FieldOrdinal, ordinalField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Open opens the index at path, creating it when it does not exist.
func Open(path string) (*Index, error) {
	logger := slog.Default().With("component", "lexical-index")

	index, err := bleve.Open(path)
	if err == nil {
		return &Index{index: index, logger: logger}, nil
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	index, err = bleve.New(path, CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	logger.Info("created lexical index", "path", path)
	return &Index{index: index, logger: logger}, nil
}

// NewMemOnly creates an index that lives only in memory.
func NewMemOnly() (*Index, error) {
	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{
		index:  index,
		logger: slog.Default().With("component", "lexical-index"),
	}, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

func document(chunk *core.Chunk) map[string]any {
	return map[string]any{
		FieldText:     chunk.Text,
		FieldRepo:     chunk.RepoFullName,
		FieldPath:     chunk.SourcePath,
		FieldOrdinal:  float64(chunk.Ordinal),
		FieldLanguage: chunk.Language,
	}
}

// IndexChunks adds chunks in batches of MaxBatchSize.
func (i *Index) IndexChunks(ctx context.Context, chunks ...*core.Chunk) error {
	batch := i.index.NewBatch()
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(chunk.ID.String(), document(chunk)); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := i.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = i.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}
	return nil
}

// Search returns the chunks of one repository that match query, best first.
func (i *Index) Search(ctx context.Context, repoFullName, query string, limit int) ([]*core.ScoredChunk, error) {
	if repoFullName == "" {
		return nil, storage.ErrInvalidQuery
	}
	if limit <= 0 {
		return []*core.ScoredChunk{}, nil
	}

	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField(FieldText)
	repoQuery := bleve.NewTermQuery(repoFullName)
	repoQuery.SetField(FieldRepo)

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(textQuery, repoQuery), limit, 0, false)
	req.Fields = []string{FieldText, FieldRepo, FieldPath, FieldOrdinal, FieldLanguage}

	results, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	scored := make([]*core.ScoredChunk, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := core.ParseID(hit.ID)
		if err != nil {
			i.logger.Warn("skipping hit with malformed id", "id", hit.ID)
			continue
		}
		chunk := &core.Chunk{ID: id}
		if val, ok := hit.Fields[FieldText].(string); ok {
			chunk.Text = val
		}
		if val, ok := hit.Fields[FieldRepo].(string); ok {
			chunk.RepoFullName = val
		}
		if val, ok := hit.Fields[FieldPath].(string); ok {
			chunk.SourcePath = val
		}
		if val, ok := hit.Fields[FieldLanguage].(string); ok {
			chunk.Language = val
		}
		if val, ok := hit.Fields[FieldOrdinal].(float64); ok {
			chunk.Ordinal = int(val)
		}
		scored = append(scored, &core.ScoredChunk{Chunk: chunk, Score: float32(hit.Score)})
	}
	return scored, nil
}

// DeleteRepository removes every document of a repository.
func (i *Index) DeleteRepository(ctx context.Context, repoFullName string) (int, error) {
	if repoFullName == "" {
		return 0, storage.ErrInvalidQuery
	}

	repoQuery := bleve.NewTermQuery(repoFullName)
	repoQuery.SetField(FieldRepo)

	deleted := 0
	for {
		req := bleve.NewSearchRequestOptions(repoQuery, deletePageSize, 0, false)
		results, err := i.index.SearchInContext(ctx, req)
		if err != nil {
			return deleted, fmt.Errorf("search failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return deleted, nil
		}

		batch := i.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := i.index.Batch(batch); err != nil {
			return deleted, fmt.Errorf("failed to execute batch: %w", err)
		}
		deleted += len(results.Hits)
	}
}

// Count returns the number of documents in the index.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
