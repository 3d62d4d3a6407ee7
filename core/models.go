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

package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/samber/mo"
)

// ID is a content-derived identifier for stored entities.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses the decimal form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// RepositoryRef identifies one ingestion unit. It must not be modified once
// a run has started.
type RepositoryRef struct {
	Name          string            `json:"name"`
	FullName      string            `json:"full_name"`
	Branch        string            `json:"branch"`
	RepositoryURL string            `json:"repository_url,omitempty"`
	FilesPath     []string          `json:"files_path"`
	UserEmail     mo.Option[string] `json:"user_email"`
}

// Chunk is a segment of one source file, the unit stored in the index.
type Chunk struct {
	ID           ID        `json:"id"`
	Text         string    `json:"text"`
	SourcePath   string    `json:"source_path"`
	RepoFullName string    `json:"repo_full_name"`
	Ordinal      int       `json:"ordinal"`
	Language     string    `json:"language,omitempty"`
	Vector       []float32 `json:"vector,omitempty"`
}

// ChunkID derives the storage identity of the n-th chunk of a file.
func ChunkID(repoFullName, sourcePath string, ordinal int) ID {
	return IDFromContent(repoFullName + "\x00" + sourcePath + "\x00" + strconv.Itoa(ordinal))
}

// ScoredChunk pairs a chunk with a relevance score from one search.
// Scores are only comparable within the search that produced them.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// IngestionRun is the mutable state of one ingestion.
type IngestionRun struct {
	ID            string            `json:"id"`
	Repo          RepositoryRef     `json:"repo"`
	TotalFiles    int               `json:"total_files"`
	FilesIngested int               `json:"files_ingested"`
	Status        Status            `json:"status"`
	Error         mo.Option[string] `json:"error"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at,omitempty"`

	// CatalogError is set when the run completed but its catalog entry
	// could not be written. Status stays COMPLETED.
	CatalogError mo.Option[string] `json:"catalog_error"`
}

// NewIngestionRun creates a PENDING run for ref.
func NewIngestionRun(id string, ref RepositoryRef) *IngestionRun {
	return &IngestionRun{
		ID:           id,
		Repo:         ref,
		TotalFiles:   len(ref.FilesPath),
		Status:       StatusPending,
		Error:        mo.None[string](),
		CatalogError: mo.None[string](),
	}
}

// Snapshot returns a copy that is safe to hand to another goroutine.
func (r *IngestionRun) Snapshot() IngestionRun {
	snap := *r
	snap.Repo.FilesPath = append([]string(nil), r.Repo.FilesPath...)
	return snap
}

// RetrievedDocument is a document surfaced for one question.
type RetrievedDocument struct {
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// QARequest carries one question through the QA pipeline. Context and Error
// are optional; the pipeline fills in defaults for anything left absent.
type QARequest struct {
	Question       string            `json:"question"`
	RepositoryName string            `json:"repository_name"`
	Branch         string            `json:"branch"`
	Context        mo.Option[string] `json:"context"`
	Error          mo.Option[string] `json:"error"`
	Messages       []Message         `json:"messages"`
}

// LastMessage returns the most recent message, if any.
func (q *QARequest) LastMessage() (Message, bool) {
	if len(q.Messages) == 0 {
		return Message{}, false
	}
	return q.Messages[len(q.Messages)-1], true
}

// RepositoryRecord is the catalog entry of an ingested repository.
type RepositoryRecord struct {
	ID            ID        `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Branch        string    `json:"branch,omitempty"`
	RepositoryURL string    `json:"repository_url,omitempty"`
	Files         []string  `json:"files"`
	InsertedAt    time.Time `json:"inserted_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RepositoryRecordID returns the catalog ID for a repository full name.
func RepositoryRecordID(fullName string) ID {
	return IDFromContent("repository:" + fullName)
}

// User is a catalog account that owns a set of ingested repositories.
type User struct {
	Email                string    `json:"email"`
	Name                 string    `json:"name,omitempty"`
	IngestedRepositories []string  `json:"ingested_repositories"`
	InsertedAt           time.Time `json:"inserted_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DeletionResult reports what a repository deletion removed.
type DeletionResult struct {
	Repository          string `json:"repository"`
	DeletedDocuments    int    `json:"deleted_documents"`
	DeletedRepositories int    `json:"deleted_repositories"`
}
