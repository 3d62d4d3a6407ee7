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
	"fmt"
	"strings"
)

// ValidateRepositoryRef validates a RepositoryRef according to domain rules.
//
// Validation rules:
//   - FullName must be non-empty and of the form owner/repo
//   - Branch must not be empty
//   - No entry of FilesPath may be blank
//
// NOT validated:
//   - Name (display only, defaults to the repo half of FullName)
//   - An empty FilesPath (the run simply completes with nothing ingested)
func ValidateRepositoryRef(ref *RepositoryRef) error {
	if ref == nil {
		return fmt.Errorf("%w: reference is nil", ErrInvalidRepositoryRef)
	}

	if ref.FullName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRepositoryRef, ErrEmptyFullName)
	}

	if _, _, ok := SplitFullName(ref.FullName); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRepositoryRef, ErrMalformedFullName, ref.FullName)
	}

	if ref.Branch == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRepositoryRef, ErrEmptyBranch)
	}

	for i, p := range ref.FilesPath {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %w: index %d", ErrInvalidRepositoryRef, ErrEmptyPath, i)
		}
	}

	return nil
}

// ValidateQARequest validates the caller-supplied fields of a QARequest.
func ValidateQARequest(req *QARequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidQARequest)
	}
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQARequest, ErrEmptyQuestion)
	}
	if req.RepositoryName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQARequest, ErrEmptyFullName)
	}
	return nil
}

// SplitFullName splits "owner/repo" into its halves.
func SplitFullName(fullName string) (owner, repo string, ok bool) {
	owner, repo, found := strings.Cut(fullName, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}
