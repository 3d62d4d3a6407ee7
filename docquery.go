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

// Package docquery answers questions about code repositories.
//
// An Engine wires the storage layer, the AI provider and a file source
// into the ingestion pipeline, the background runner and the question
// answering pipeline:
//
//	settings, _ := config.Load(config.LoadOptions{})
//	engine, err := docquery.Open(settings)
//	if err != nil { ... }
//	defer engine.Close()
//
//	run := engine.Ingest(ctx, core.RepositoryRef{FullName: "acme/widgets", Branch: "main", FilesPath: paths})
//	req := &core.QARequest{Question: "How do I run the tests?", RepositoryName: "acme/widgets", Branch: "main"}
//	err = engine.Ask(ctx, req)
package docquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/chunker"
	"github.com/poiesic/docquery/config"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/qa"
	"github.com/poiesic/docquery/reindex"
	"github.com/poiesic/docquery/retrieval"
	"github.com/poiesic/docquery/source"
	"github.com/poiesic/docquery/source/git"
	"github.com/poiesic/docquery/source/github"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
	"github.com/poiesic/docquery/storage/lexical"
)

// ErrSettingsRequired is returned by Open when settings are nil.
var ErrSettingsRequired = errors.New("settings are required")

// Engine owns every docquery component for one data directory.
type Engine struct {
	settings *config.Settings
	stores   *badger.Stores
	lexical  *lexical.Index
	provider ai.AIProvider
	source   source.Source
	index    *index.Client
	pipeline *ingestion.Pipeline
	runner   *ingestion.Runner
	expander *retrieval.QueryExpander
	qa       *qa.Pipeline
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	source   source.Source
	observer ingestion.ProgressObserver
	monitor  index.SearchMonitor
	inMemory bool
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from settings.
func WithProvider(p ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithSource replaces the file source selected by settings.
func WithSource(s source.Source) Option {
	return func(o *engineOptions) {
		o.source = s
	}
}

// WithObserver receives progress snapshots of every ingestion run.
func WithObserver(observer ingestion.ProgressObserver) Option {
	return func(o *engineOptions) {
		o.observer = observer
	}
}

// WithSearchMonitor receives the stages of every index search.
// Default logs each stage at debug level.
func WithSearchMonitor(monitor index.SearchMonitor) Option {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithInMemory keeps all data in memory. Nothing is written to DataDir.
func WithInMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open builds an Engine from settings.
func Open(settings *config.Settings, opts ...Option) (*Engine, error) {
	if settings == nil {
		return nil, ErrSettingsRequired
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{settings: settings, logger: options.logger}
	if err := e.open(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(options *engineOptions) error {
	var err error
	s := e.settings

	// Storage
	backend, err := badger.OpenBackend(filepath.Join(s.DataDir, "badger"), options.inMemory)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	e.stores = badger.NewStores(backend)

	if options.inMemory {
		e.lexical, err = lexical.NewMemOnly()
	} else {
		e.lexical, err = lexical.Open(filepath.Join(s.DataDir, "lexical.bleve"))
	}
	if err != nil {
		return fmt.Errorf("opening lexical index: %w", err)
	}

	// AI services
	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = openai.NewProvider(s.AIConfig()); err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
	}

	// File source
	e.source = options.source
	if e.source == nil {
		if e.source, err = newSource(s, e.logger); err != nil {
			return fmt.Errorf("creating file source: %w", err)
		}
	}

	// Ingestion
	monitor := options.monitor
	if monitor == nil {
		monitor = index.NewLoggingMonitor(e.logger)
	}
	e.index, err = index.NewClient(e.stores.Chunks, e.lexical, e.provider.Embedder(),
		index.WithLogger(e.logger),
		index.WithMonitor(monitor),
	)
	if err != nil {
		return err
	}
	splitter, err := chunker.New(
		chunker.WithChunkSize(s.Chunking.Size),
		chunker.WithChunkOverlap(s.Chunking.Overlap),
		chunker.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	pipelineOpts := []ingestion.Option{ingestion.WithSplitter(splitter), ingestion.WithLogger(e.logger)}
	if options.observer != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithObserver(options.observer))
	}
	e.pipeline, err = ingestion.NewPipeline(e.source, e.index, e.stores.Catalog, pipelineOpts...)
	if err != nil {
		return err
	}
	runnerOpts := []ingestion.RunnerOption{ingestion.WithRunnerLogger(e.logger)}
	if s.Ingestion.Workers > 0 {
		runnerOpts = append(runnerOpts, ingestion.WithWorkers(s.Ingestion.Workers))
	}
	e.runner, err = ingestion.NewRunner(e.pipeline, e.stores.Runs, runnerOpts...)
	if err != nil {
		return err
	}

	// Question answering
	hybrid, err := retrieval.NewHybridRetriever(e.index,
		retrieval.WithTopK(s.Retrieval.TopK),
		retrieval.WithHybridLogger(e.logger),
	)
	if err != nil {
		return err
	}
	e.expander, err = retrieval.NewQueryExpander(hybrid, e.provider.Utility(), e.source,
		retrieval.WithExpansions(s.Retrieval.Expansions),
		retrieval.WithWorkers(s.Retrieval.Workers),
		retrieval.WithExpanderLogger(e.logger),
	)
	if err != nil {
		return err
	}
	compressor, err := qa.NewCompressor(e.provider.Utility(), e.logger)
	if err != nil {
		return err
	}
	generator, err := qa.NewGenerator(e.provider.Chat(), e.logger)
	if err != nil {
		return err
	}
	e.qa, err = qa.NewPipeline(e.expander, compressor, generator, qa.WithLogger(e.logger))
	return err
}

func newSource(s *config.Settings, logger *slog.Logger) (source.Source, error) {
	switch s.Source.Kind {
	case config.SourceGit:
		opts := []git.Option{git.WithDepth(s.Source.CloneDepth), git.WithLogger(logger)}
		if s.GitHub.Token != "" {
			opts = append(opts, git.WithToken(s.GitHub.Token))
		}
		if s.GitHub.BaseURL != "" {
			opts = append(opts, git.WithBaseURL(s.GitHub.BaseURL))
		}
		return git.New(opts...)
	default:
		opts := []github.Option{github.WithLogger(logger)}
		if s.GitHub.Token != "" {
			opts = append(opts, github.WithToken(s.GitHub.Token))
		}
		if s.GitHub.BaseURL != "" {
			opts = append(opts, github.WithBaseURL(s.GitHub.BaseURL))
		}
		return github.New(opts...)
	}
}

// Close releases every component. It is safe to call on a partially
// opened Engine.
func (e *Engine) Close() error {
	if e.runner != nil {
		e.runner.Close()
	}
	if e.expander != nil {
		e.expander.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	var errs []error
	if e.lexical != nil {
		if err := e.lexical.Close(); err != nil {
			e.logger.Error("error closing lexical index", "err", err)
			errs = append(errs, err)
		}
	}
	if e.stores != nil {
		if err := e.stores.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ingest runs one ingestion synchronously and returns the terminal run.
func (e *Engine) Ingest(ctx context.Context, ref core.RepositoryRef) *core.IngestionRun {
	run := e.pipeline.Run(ctx, ref)
	if err := e.stores.Runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("failed to save run", "runID", run.ID, "err", err)
	}
	return run
}

// Submit queues an ingestion on the background runner.
func (e *Engine) Submit(ref core.RepositoryRef) (string, error) {
	return e.runner.Submit(ref)
}

// Cancel cancels a background ingestion.
func (e *Engine) Cancel(runID string) error {
	return e.runner.Cancel(runID)
}

// Wait blocks until a background ingestion reaches a terminal status.
func (e *Engine) Wait(ctx context.Context, runID string) (*core.IngestionRun, error) {
	return e.runner.Wait(ctx, runID)
}

// Run returns the latest snapshot of an ingestion run.
func (e *Engine) Run(ctx context.Context, runID string) (*core.IngestionRun, error) {
	return e.runner.Get(ctx, runID)
}

// Runs lists every recorded ingestion run, most recent first.
func (e *Engine) Runs(ctx context.Context) ([]*core.IngestionRun, error) {
	return e.stores.Runs.ListRuns(ctx)
}

// DiscoverFiles fills in ref.FilesPath from the source when it is empty
// and the source can list files. The returned ref is a copy.
func (e *Engine) DiscoverFiles(ctx context.Context, ref core.RepositoryRef) (core.RepositoryRef, error) {
	if len(ref.FilesPath) > 0 {
		return ref, nil
	}
	lister, ok := e.source.(source.Lister)
	if !ok {
		return ref, nil
	}
	paths, err := lister.ListFiles(ctx, ref.FullName, ref.Branch)
	if err != nil {
		return ref, fmt.Errorf("listing files of %s@%s: %w", ref.FullName, ref.Branch, err)
	}
	ref.FilesPath = paths
	return ref, nil
}

// Ask answers req in place. Only an invalid request returns an error;
// service failures are reported through req.Error.
func (e *Engine) Ask(ctx context.Context, req *core.QARequest) error {
	if err := core.ValidateQARequest(req); err != nil {
		return err
	}
	return e.qa.Run(ctx, req)
}

// DeleteRepository removes a catalogued repository and all of its
// indexed documents. An unknown id returns an error wrapping
// core.ErrNotFoundFailure.
func (e *Engine) DeleteRepository(ctx context.Context, id core.ID) (*core.DeletionResult, error) {
	record, err := e.stores.Catalog.GetRepository(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", id, err)
	}
	return e.deleteRepository(ctx, record.FullName, id)
}

// DeleteRepositoryByName removes the indexed documents of fullName and
// its standalone catalog row, if any. It fails with core.ErrNotFoundFailure
// only when there was nothing to delete.
func (e *Engine) DeleteRepositoryByName(ctx context.Context, fullName string) (*core.DeletionResult, error) {
	res, err := e.deleteRepository(ctx, fullName, core.RepositoryRecordID(fullName))
	if err != nil {
		return nil, err
	}
	if res.DeletedDocuments == 0 && res.DeletedRepositories == 0 {
		return nil, fmt.Errorf("repository %s: %w", fullName, core.ErrNotFoundFailure)
	}
	return res, nil
}

func (e *Engine) deleteRepository(ctx context.Context, fullName string, id core.ID) (*core.DeletionResult, error) {
	docs, err := e.index.DeleteByRepository(ctx, fullName)
	if err != nil {
		return nil, fmt.Errorf("deleting documents of %s: %w", fullName, err)
	}
	rows, err := e.stores.Catalog.DeleteRepository(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting catalog entry of %s: %w", fullName, err)
	}
	e.logger.Info("deleted repository", "repo", fullName, "documents", docs, "rows", rows)
	return &core.DeletionResult{
		Repository:          fullName,
		DeletedDocuments:    docs,
		DeletedRepositories: rows,
	}, nil
}

// Repositories lists the standalone catalog entries.
func (e *Engine) Repositories(ctx context.Context) ([]*core.RepositoryRecord, error) {
	return e.stores.Catalog.ListRepositories(ctx)
}

// ChunkCount returns the number of indexed chunks of a repository.
func (e *Engine) ChunkCount(ctx context.Context, fullName string) (int, error) {
	return e.index.CountByRepository(ctx, fullName)
}

// CreateUser registers a catalog user.
func (e *Engine) CreateUser(ctx context.Context, user *core.User) error {
	return e.stores.Catalog.CreateUser(ctx, user)
}

// User returns a catalog user by email.
func (e *Engine) User(ctx context.Context, email string) (*core.User, error) {
	return e.stores.Catalog.GetUser(ctx, email)
}

// Reindex re-embeds the chunks of fullName, or of every repository when
// fullName is empty, writing progress to w.
func (e *Engine) Reindex(ctx context.Context, fullName string, w io.Writer, opts ...reindex.Option) (reindex.Result, error) {
	opts = append([]reindex.Option{reindex.WithProgress(w), reindex.WithLogger(e.logger)}, opts...)
	r, err := reindex.NewReindexer(e.stores.Chunks, e.provider.Embedder(), opts...)
	if err != nil {
		return reindex.Result{}, err
	}
	return r.Run(ctx, fullName)
}

// Health reports whether the store is open and readable.
func (e *Engine) Health(ctx context.Context) error {
	if e.stores.Backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if _, err := e.stores.Chunks.CountChunks(ctx, ""); err != nil {
		return fmt.Errorf("reading chunk store: %w", err)
	}
	if _, err := e.lexical.Count(); err != nil {
		return fmt.Errorf("reading lexical index: %w", err)
	}
	return nil
}
