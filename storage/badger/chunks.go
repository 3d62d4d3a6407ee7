package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// ChunkStore implements storage.ChunkStore for BadgerDB.
type ChunkStore struct {
	backend *Backend
}

var _ storage.ChunkStore = (*ChunkStore)(nil)

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(backend *Backend) *ChunkStore {
	return &ChunkStore{backend: backend}
}

// PutChunks stores chunks through a write batch, so a single large file
// never exceeds badger's transaction limits. A failed call may leave part of
// the chunks written; callers that need all-or-nothing roll back by
// repository.
func (s *ChunkStore) PutChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WriteBatch(ctx, func(wb *badger.WriteBatch) error {
		for _, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeChunkKey(chunk.RepoFullName, chunk.ID), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunks returns the chunks of one repository, or of all repositories
// when repoFullName is empty.
func (s *ChunkStore) GetChunks(ctx context.Context, repoFullName string) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := s.backend.ScanPrefix(ctx, makeChunkRepoPrefix(repoFullName), func(_, val []byte) error {
		chunk, err := storage.UnmarshalChunk(val)
		if err != nil {
			return err
		}
		chunks = append(chunks, chunk)
		return nil
	})
	return chunks, err
}

// CountChunks returns the number of chunks of a repository.
func (s *ChunkStore) CountChunks(ctx context.Context, repoFullName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.backend.CountPrefix(makeChunkRepoPrefix(repoFullName))
}

// FindSimilar scans the repository's chunks and returns the best matches by
// cosine similarity. Chunks without a vector are skipped.
func (s *ChunkStore) FindSimilar(ctx context.Context, repoFullName string, vector []float32, limit int) ([]*core.ScoredChunk, error) {
	if repoFullName == "" {
		return nil, storage.ErrInvalidQuery
	}
	if limit <= 0 || len(vector) == 0 {
		return []*core.ScoredChunk{}, nil
	}

	var results []*core.ScoredChunk
	err := s.backend.ScanPrefix(ctx, makeChunkRepoPrefix(repoFullName), func(_, val []byte) error {
		chunk, err := storage.UnmarshalChunk(val)
		if err != nil {
			return err
		}
		if len(chunk.Vector) == 0 {
			return nil
		}
		results = append(results, &core.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(vector, chunk.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Highest score first; ties resolve by ID so results are stable
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.ID < b.Chunk.ID {
			return -1
		}
		if a.Chunk.ID > b.Chunk.ID {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteRepository removes every chunk of a repository.
func (s *ChunkStore) DeleteRepository(ctx context.Context, repoFullName string) (int, error) {
	if repoFullName == "" {
		return 0, storage.ErrInvalidQuery
	}
	return s.backend.DeletePrefix(ctx, makeChunkRepoPrefix(repoFullName))
}
