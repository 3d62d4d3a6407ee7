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

import "errors"

// Failure kinds shared by every component. Collaborators wrap these so
// callers can classify errors with errors.Is.
var (
	// ErrFetchFailure indicates the file source was unreachable or the path invalid.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrIndexWriteFailure indicates a chunk could not be written to the index.
	ErrIndexWriteFailure = errors.New("index write failure")

	// ErrIndexSearchFailure indicates the index could not be searched.
	ErrIndexSearchFailure = errors.New("index search failure")

	// ErrGenerationFailure indicates the embedding or completion service failed.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrNotFoundFailure indicates a catalog lookup miss.
	ErrNotFoundFailure = errors.New("not found")

	// ErrPartialStateFailure indicates a catalog write failed after the
	// ingestion itself succeeded.
	ErrPartialStateFailure = errors.New("partial state failure")
)

// Domain validation errors
var (
	// ErrInvalidRepositoryRef indicates a RepositoryRef failed validation.
	ErrInvalidRepositoryRef = errors.New("invalid repository reference")

	// ErrInvalidQARequest indicates a QARequest failed validation.
	ErrInvalidQARequest = errors.New("invalid question request")

	// ErrEmptyFullName indicates the repository full name is empty.
	ErrEmptyFullName = errors.New("repository full name cannot be empty")

	// ErrMalformedFullName indicates a full name that is not "owner/repo".
	ErrMalformedFullName = errors.New("repository full name must be owner/repo")

	// ErrEmptyBranch indicates the branch is empty.
	ErrEmptyBranch = errors.New("branch cannot be empty")

	// ErrEmptyPath indicates a blank entry in the file list.
	ErrEmptyPath = errors.New("file path cannot be empty")

	// ErrEmptyQuestion indicates the question is blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidTransition indicates a status change that would leave a
	// terminal state or skip backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
)
