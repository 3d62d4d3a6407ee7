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

// Package source resolves repository files to raw text.
//
// A Source is the authoritative copy of a repository's contents. Ingestion
// reads from it to build the index, and question answering re-reads from it
// so that answers are grounded in current file content rather than in
// whatever was indexed.
//
// Implementations:
//
//   - source/github: GitHub contents API
//   - source/git: shallow in-memory clones of any git remote
//   - Static: in-memory map, for tests and fixtures
package source

import (
	"context"
	"fmt"

	"github.com/poiesic/docquery/core"
)

// Failure kinds. Both wrap core.ErrFetchFailure.
var (
	// ErrNotFound indicates the repository, branch or path does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", core.ErrFetchFailure)

	// ErrAccessDenied indicates missing or invalid credentials.
	ErrAccessDenied = fmt.Errorf("%w: access denied", core.ErrFetchFailure)
)

// Source fetches the text of one file at a branch.
// Implementations must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context, repoFullName, branch, path string) (string, error)
}

// Lister is implemented by sources that can enumerate a repository tree.
type Lister interface {
	// ListFiles returns every indexable file path at branch in tree order.
	ListFiles(ctx context.Context, repoFullName, branch string) ([]string, error)
}
