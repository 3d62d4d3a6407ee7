package source

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Static is an in-memory Source keyed by repository, branch and path.
type Static struct {
	mu    sync.RWMutex
	files map[string]string
	fails map[string]error
}

// NewStatic creates an empty Static source.
func NewStatic() *Static {
	return &Static{
		files: make(map[string]string),
		fails: make(map[string]error),
	}
}

func staticKey(repoFullName, branch, path string) string {
	return repoFullName + "@" + branch + ":" + path
}

// Put stores text for a file.
func (s *Static) Put(repoFullName, branch, path, text string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[staticKey(repoFullName, branch, path)] = text
	return s
}

// FailOn makes every Fetch of the file return err.
func (s *Static) FailOn(repoFullName, branch, path string, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[staticKey(repoFullName, branch, path)] = err
	return s
}

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context, repoFullName, branch, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := staticKey(repoFullName, branch, path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.fails[key]; ok {
		return "", err
	}
	text, ok := s.files[key]
	if !ok {
		return "", fmt.Errorf("%w: %s@%s:%s", ErrNotFound, repoFullName, branch, path)
	}
	return text, nil
}

// ListFiles implements Lister.
func (s *Static) ListFiles(ctx context.Context, repoFullName, branch string) ([]string, error) {
	prefix := repoFullName + "@" + branch + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for key := range s.files {
		if path, ok := strings.CutPrefix(key, prefix); ok {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, repoFullName, branch)
	}
	slices.Sort(paths)
	return paths, nil
}
