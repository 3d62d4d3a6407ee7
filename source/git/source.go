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

// Package git implements source.Source over shallow in-memory clones.
//
// Each repository@branch is cloned once on first use and kept for the
// lifetime of the Source, so an ingestion run and the question answering
// that follows it read the same snapshot. Call Forget to drop a snapshot and
// pick up new commits.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/source"
)

// DefaultBaseURL is where repositories are cloned from by default.
const DefaultBaseURL = "https://github.com"

// Source reads files from in-memory clones.
type Source struct {
	resolve func(repoFullName string) string
	auth    transport.AuthMethod
	depth   int
	logger  *slog.Logger

	mu    sync.Mutex
	trees map[string]*snapshot
}

// snapshot is one cloned branch. The once guards the clone so concurrent
// callers share a single network round trip.
type snapshot struct {
	once sync.Once
	tree *object.Tree
	err  error
}

// Option configures a Source.
type Option func(*Source) error

// WithBaseURL clones from baseURL/<owner>/<repo>.git.
func WithBaseURL(baseURL string) Option {
	return func(s *Source) error {
		baseURL = strings.TrimSuffix(baseURL, "/")
		s.resolve = func(fullName string) string {
			return baseURL + "/" + fullName + ".git"
		}
		return nil
	}
}

// WithURLResolver maps a repository full name to a clone URL or local path.
func WithURLResolver(resolve func(repoFullName string) string) Option {
	return func(s *Source) error {
		if resolve == nil {
			return errors.New("url resolver cannot be nil")
		}
		s.resolve = resolve
		return nil
	}
}

// WithToken authenticates HTTPS clones with a token.
func WithToken(token string) Option {
	return func(s *Source) error {
		if token != "" {
			s.auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
		}
		return nil
	}
}

// WithDepth sets the clone depth. Zero clones full history, which local
// path remotes require.
func WithDepth(depth int) Option {
	return func(s *Source) error {
		if depth < 0 {
			return errors.New("depth cannot be negative")
		}
		s.depth = depth
		return nil
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a git source.
func New(opts ...Option) (*Source, error) {
	s := &Source{
		depth:  1,
		logger: slog.Default().With("component", "git-source"),
		trees:  make(map[string]*snapshot),
	}
	if err := WithBaseURL(DefaultBaseURL)(s); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Fetch implements source.Source.
func (s *Source) Fetch(ctx context.Context, repoFullName, branch, path string) (string, error) {
	tree, err := s.tree(ctx, repoFullName, branch)
	if err != nil {
		return "", err
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s@%s:%s", source.ErrNotFound, repoFullName, branch, path)
		}
		return "", fmt.Errorf("%w: %s: %w", source.ErrNotFound, path, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return contents, nil
}

// ListFiles implements source.Lister. Paths matched by the repository's
// root .gitignore, vendored code and binary files are left out.
func (s *Source) ListFiles(ctx context.Context, repoFullName, branch string) ([]string, error) {
	tree, err := s.tree(ctx, repoFullName, branch)
	if err != nil {
		return nil, err
	}

	var ignoreLines []string
	if f, err := tree.File(".gitignore"); err == nil {
		if contents, err := f.Contents(); err == nil {
			ignoreLines = source.IgnoreLines(contents)
		}
	}
	filter := source.NewFilter(ignoreLines...)

	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filter.KeepPath(f.Name) {
			return nil
		}
		contents, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		if filter.Keep(f.Name, []byte(contents)) {
			paths = append(paths, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("listed files", "repo", repoFullName, "branch", branch, "count", len(paths))
	return paths, nil
}

// Forget drops the cached clone of repoFullName@branch.
func (s *Source) Forget(repoFullName, branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trees, repoFullName+"@"+branch)
}

func (s *Source) tree(ctx context.Context, repoFullName, branch string) (*object.Tree, error) {
	key := repoFullName + "@" + branch

	s.mu.Lock()
	snap, ok := s.trees[key]
	if !ok {
		snap = &snapshot{}
		s.trees[key] = snap
	}
	s.mu.Unlock()

	snap.once.Do(func() {
		snap.tree, snap.err = s.clone(ctx, repoFullName, branch)
	})

	if snap.err != nil {
		// Failed clones are not cached so a later call can retry.
		s.mu.Lock()
		if s.trees[key] == snap {
			delete(s.trees, key)
		}
		s.mu.Unlock()
		return nil, snap.err
	}
	return snap.tree, nil
}

func (s *Source) clone(ctx context.Context, repoFullName, branch string) (*object.Tree, error) {
	url := s.resolve(repoFullName)
	s.logger.Info("cloning repository", "repo", repoFullName, "branch", branch)

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:           url,
		Auth:          s.auth,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         s.depth,
		Tags:          git.NoTags,
	})
	if err != nil {
		return nil, wrapCloneError(err, repoFullName, branch)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve head: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

func wrapCloneError(err error, repoFullName, branch string) error {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, git.NoMatchingRefSpecError{}),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return fmt.Errorf("%w: %s@%s: %w", source.ErrNotFound, repoFullName, branch, err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %s: %w", source.ErrAccessDenied, repoFullName, err)
	}
	return fmt.Errorf("%w: clone %s@%s: %w", core.ErrFetchFailure, repoFullName, branch, err)
}
