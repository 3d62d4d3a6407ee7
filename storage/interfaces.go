package storage

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// ChunkStore persists embedded chunks and answers vector similarity queries.
// Every operation is scoped by repository full name so that repositories
// never see each other's chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkStore interface {
	// PutChunks stores chunks, replacing any chunk with the same ID.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunks returns every chunk of a repository in key order.
	// An empty repoFullName returns the chunks of all repositories.
	GetChunks(ctx context.Context, repoFullName string) ([]*core.Chunk, error)

	// CountChunks returns the number of chunks stored for a repository.
	CountChunks(ctx context.Context, repoFullName string) (int, error)

	// FindSimilar returns up to limit chunks of one repository ordered by
	// cosine similarity to vector, highest first.
	FindSimilar(ctx context.Context, repoFullName string, vector []float32, limit int) ([]*core.ScoredChunk, error)

	// DeleteRepository removes every chunk of a repository and returns how
	// many were removed. Deleting an empty repository returns zero.
	DeleteRepository(ctx context.Context, repoFullName string) (int, error)
}

// LexicalIndex is the keyword half of hybrid search.
// Implementations must be thread-safe and support concurrent access.
type LexicalIndex interface {
	// IndexChunks adds chunks to the index, replacing any with the same ID.
	IndexChunks(ctx context.Context, chunks ...*core.Chunk) error

	// Search returns up to limit chunks of one repository ranked by keyword
	// relevance to query, highest first.
	Search(ctx context.Context, repoFullName, query string, limit int) ([]*core.ScoredChunk, error)

	// DeleteRepository removes every chunk of a repository and returns how
	// many were removed.
	DeleteRepository(ctx context.Context, repoFullName string) (int, error)

	// Close releases the index.
	Close() error
}

// Catalog records which repositories have been ingested and for whom.
type Catalog interface {
	// CreateUser stores a new user. Returns ErrDuplicateKey if the email exists.
	CreateUser(ctx context.Context, user *core.User) error

	// GetUser returns a user by email.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, email string) (*core.User, error)

	// AddRepositoryToUser appends fullName to the user's ingested set.
	// Adding a name that is already present is a no-op.
	// Returns ErrNotFound if the user doesn't exist.
	AddRepositoryToUser(ctx context.Context, email, fullName string) error

	// CreateRepository upserts a standalone repository record keyed by
	// core.RepositoryRecordID(record.FullName).
	CreateRepository(ctx context.Context, record *core.RepositoryRecord) error

	// GetRepository returns a repository record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRepository(ctx context.Context, id core.ID) (*core.RepositoryRecord, error)

	// FindRepositoryByName returns a repository record by full name.
	// Returns ErrNotFound if the record doesn't exist.
	FindRepositoryByName(ctx context.Context, fullName string) (*core.RepositoryRecord, error)

	// ListRepositories returns every repository record ordered by full name.
	ListRepositories(ctx context.Context) ([]*core.RepositoryRecord, error)

	// DeleteRepository removes a repository record by ID and returns the
	// number of rows removed (0 or 1).
	DeleteRepository(ctx context.Context, id core.ID) (int, error)
}

// RunStore persists ingestion run snapshots keyed by run ID.
type RunStore interface {
	// SaveRun stores the run, replacing any earlier snapshot.
	SaveRun(ctx context.Context, run *core.IngestionRun) error

	// GetRun returns a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*core.IngestionRun, error)

	// ListRuns returns every stored run, most recently started first.
	ListRuns(ctx context.Context) ([]*core.IngestionRun, error)
}
