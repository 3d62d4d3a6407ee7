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

// Package github implements source.Source over the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/source"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Source fetches files through the GitHub contents API.
type Source struct {
	gh      *gh.Client
	limiter *RateLimiter
	filter  *source.Filter
	logger  *slog.Logger

	token      string
	baseURL    string
	httpClient *http.Client
	rateLimit  rate.Limit
}

// Option configures a Source.
type Option func(*Source) error

// WithToken authenticates requests with a personal access or OAuth token.
func WithToken(token string) Option {
	return func(s *Source) error {
		s.token = token
		return nil
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(baseURL string) Option {
	return func(s *Source) error {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
		s.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client. A token set with
// WithToken is ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) error {
		s.httpClient = c
		return nil
	}
}

// WithRateLimit overrides the proactive request rate.
func WithRateLimit(r rate.Limit) Option {
	return func(s *Source) error {
		s.rateLimit = r
		return nil
	}
}

// WithFilter sets the filter applied by ListFiles.
func WithFilter(f *source.Filter) Option {
	return func(s *Source) error {
		s.filter = f
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

// New creates a GitHub source.
func New(opts ...Option) (*Source, error) {
	s := &Source{
		rateLimit: ProactiveRate,
		logger:    slog.Default().With("component", "github-source"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	hc := s.httpClient
	if hc == nil {
		if s.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token})
			hc = oauth2.NewClient(context.Background(), ts)
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = DefaultTimeout
	}

	s.gh = gh.NewClient(hc)
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		s.gh.BaseURL = u
	}
	if s.filter == nil {
		s.filter = source.NewFilter()
	}
	s.limiter = NewRateLimiter(s.rateLimit)
	return s, nil
}

// Fetch implements source.Source.
func (s *Source) Fetch(ctx context.Context, repoFullName, branch, path string) (string, error) {
	owner, repo, ok := core.SplitFullName(repoFullName)
	if !ok {
		return "", fmt.Errorf("%w: malformed repository %q", source.ErrNotFound, repoFullName)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: branch}
	content, _, resp, err := s.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	s.updateRateLimit(resp)
	if err != nil {
		return "", s.wrapError(err, "get contents "+path)
	}

	if content == nil {
		return "", fmt.Errorf("%w: %s is a directory, not a file", source.ErrNotFound, path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", core.ErrFetchFailure, path, err)
	}

	s.logger.Debug("fetched file", "repo", repoFullName, "branch", branch, "path", path, "bytes", len(decoded))
	return decoded, nil
}

// ListFiles implements source.Lister using the recursive git tree of branch.
func (s *Source) ListFiles(ctx context.Context, repoFullName, branch string) ([]string, error) {
	owner, repo, ok := core.SplitFullName(repoFullName)
	if !ok {
		return nil, fmt.Errorf("%w: malformed repository %q", source.ErrNotFound, repoFullName)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := s.gh.Git.GetTree(ctx, owner, repo, branch, true)
	s.updateRateLimit(resp)
	if err != nil {
		return nil, s.wrapError(err, "get tree")
	}
	if tree.GetTruncated() {
		s.logger.Warn("repository tree truncated by the API", "repo", repoFullName, "branch", branch)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if s.filter.KeepPath(entry.GetPath()) {
			paths = append(paths, entry.GetPath())
		}
	}
	return paths, nil
}

func (s *Source) updateRateLimit(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	s.limiter.UpdateFromResponse(resp.Response)
}

// wrapError maps go-github errors onto the source failure kinds.
func (s *Source) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%w: %s: rate limited until %s", core.ErrFetchFailure, operation, rateLimitErr.Rate.Reset.Time)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", source.ErrNotFound, operation, ghErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %s", source.ErrAccessDenied, operation, ghErr.Message)
		}
	}

	return fmt.Errorf("%w: %s: %w", core.ErrFetchFailure, operation, err)
}
