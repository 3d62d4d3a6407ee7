package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docquery/chunker"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/source"
	"github.com/poiesic/docquery/storage"
	"github.com/samber/mo"
)

// Indexer is the part of the index client the pipeline writes through.
type Indexer interface {
	Upsert(ctx context.Context, chunks ...core.Chunk) error
	DeleteByRepository(ctx context.Context, repoFullName string) (int, error)
}

// Splitter turns one file into chunks.
type Splitter interface {
	Split(text, sourcePath, repoFullName string) ([]core.Chunk, error)
}

// observerDrainTimeout bounds how long a finished run waits for its progress
// observer to catch up.
const observerDrainTimeout = time.Second

// Pipeline ingests one repository per run.
type Pipeline struct {
	source   source.Source
	indexer  Indexer
	catalog  storage.Catalog
	splitter Splitter
	observer ProgressObserver
	buffer   int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithSplitter replaces the default 500/200 chunker.
func WithSplitter(splitter Splitter) Option {
	return func(p *Pipeline) error {
		if splitter != nil {
			p.splitter = splitter
		}
		return nil
	}
}

// WithObserver sets the progress observer. Snapshots are delivered
// asynchronously and dropped if the observer falls behind. A finished run
// waits up to observerDrainTimeout for queued snapshots to be delivered.
func WithObserver(observer ProgressObserver) Option {
	return func(p *Pipeline) error {
		p.observer = observer
		return nil
	}
}

// WithObserverBuffer sets how many snapshots may queue for the observer.
// Default is DefaultObserverBuffer.
func WithObserverBuffer(size int) Option {
	return func(p *Pipeline) error {
		p.buffer = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(src source.Source, indexer Indexer, catalog storage.Catalog, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	p := &Pipeline{
		source:  src,
		indexer: indexer,
		catalog: catalog,
		buffer:  DefaultObserverBuffer,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.splitter == nil {
		c, err := chunker.New(chunker.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.splitter = c
	}

	return p, nil
}

// phase is the pipeline's position in its state machine.
type phase int

const (
	phaseStart phase = iota
	phaseIngest
	phaseVerify
	phaseDone
)

// execution is the working state of one run.
type execution struct {
	run          *core.IngestionRun
	phase        phase
	cancelled    bool
	skipRollback bool
	observers    []ProgressObserver
}

// Run ingests ref under a fresh run ID and returns the finished run.
func (p *Pipeline) Run(ctx context.Context, ref core.RepositoryRef) *core.IngestionRun {
	return p.Execute(ctx, core.NewIngestionRun(uuid.NewString(), ref))
}

// Execute drives run to a terminal status. Extra observers are called
// synchronously with each snapshot, after the configured observer is queued.
// A cancelled context turns the run CANCELLED without rollback.
func (p *Pipeline) Execute(ctx context.Context, run *core.IngestionRun, observers ...ProgressObserver) *core.IngestionRun {
	e := &execution{run: run, phase: phaseStart}

	if p.observer != nil {
		async := NewAsyncObserver(p.observer, p.buffer, p.logger)
		defer p.drain(async, run.ID)
		e.observers = append(e.observers, async)
	}
	e.observers = append(e.observers, observers...)

	for e.phase != phaseDone {
		e.phase = p.step(ctx, e)
	}
	return run
}

// drain closes the observer queue and gives queued snapshots, including the
// terminal one, up to observerDrainTimeout to be delivered.
func (p *Pipeline) drain(async *AsyncObserver, runID string) {
	async.Close()
	select {
	case <-async.Done():
	case <-time.After(observerDrainTimeout):
		p.logger.Warn("progress observer did not drain", "runID", runID)
	}
}

func (p *Pipeline) step(ctx context.Context, e *execution) phase {
	switch e.phase {
	case phaseStart:
		return p.start(ctx, e)
	case phaseIngest:
		return p.ingest(ctx, e)
	case phaseVerify:
		return p.verify(ctx, e)
	}
	return phaseDone
}

func (p *Pipeline) start(ctx context.Context, e *execution) phase {
	run := e.run
	if ctx.Err() != nil {
		p.transition(run, core.StatusCancelled)
		p.emit(e)
		return phaseDone
	}

	p.transition(run, core.StatusRunning)
	p.logger.Info("ingestion started", "runID", run.ID, "repo", run.Repo.FullName, "branch", run.Repo.Branch, "files", run.TotalFiles)

	if err := core.ValidateRepositoryRef(&run.Repo); err != nil {
		run.Fail(fmt.Sprintf("Error during ingestion: %v", err))
		e.skipRollback = true
		return phaseVerify
	}

	p.emit(e)
	return phaseIngest
}

func (p *Pipeline) ingest(ctx context.Context, e *execution) phase {
	run := e.run
	for i, path := range run.Repo.FilesPath {
		if ctx.Err() != nil {
			e.cancelled = true
			break
		}

		run.FilesIngested = i + 1
		p.emit(e)

		if err := p.ingestFile(ctx, run.Repo, path); err != nil {
			if ctx.Err() != nil {
				e.cancelled = true
				break
			}
			p.logger.Error("ingestion failed", "runID", run.ID, "repo", run.Repo.FullName, "path", path, "err", err)
			run.Fail(fmt.Sprintf("Error during ingestion: %v", err))
			break
		}
	}
	return phaseVerify
}

func (p *Pipeline) ingestFile(ctx context.Context, ref core.RepositoryRef, path string) error {
	text, err := p.source.Fetch(ctx, ref.FullName, ref.Branch, path)
	if err != nil {
		return err
	}

	chunks, err := p.splitter.Split(text, path, ref.FullName)
	if err != nil {
		return fmt.Errorf("splitting %s: %w", path, err)
	}
	if len(chunks) == 0 {
		p.logger.Debug("file produced no chunks", "repo", ref.FullName, "path", path)
		return nil
	}

	return p.indexer.Upsert(ctx, chunks...)
}

func (p *Pipeline) verify(ctx context.Context, e *execution) phase {
	run := e.run
	switch {
	case e.cancelled:
		p.transition(run, core.StatusCancelled)
		p.logger.Info("ingestion cancelled", "runID", run.ID, "repo", run.Repo.FullName, "filesIngested", run.FilesIngested)

	case run.Error.IsPresent():
		p.transition(run, core.StatusFailed)
		if !e.skipRollback {
			p.rollback(context.WithoutCancel(ctx), run)
		}
		p.logger.Warn("ingestion failed", "runID", run.ID, "repo", run.Repo.FullName, "err", run.Error.OrEmpty())

	default:
		p.transition(run, core.StatusCompleted)
		p.record(context.WithoutCancel(ctx), run)
		p.logger.Info("ingestion completed", "runID", run.ID, "repo", run.Repo.FullName, "filesIngested", run.FilesIngested)
	}

	p.emit(e)
	return phaseDone
}

// rollback removes every chunk of the repository and its standalone
// catalog record. Failures are appended to the run error.
func (p *Pipeline) rollback(ctx context.Context, run *core.IngestionRun) {
	fullName := run.Repo.FullName

	deleted, err := p.indexer.DeleteByRepository(ctx, fullName)
	if err != nil {
		p.logger.Error("rollback failed", "runID", run.ID, "repo", fullName, "err", err)
		run.Fail(fmt.Sprintf("%s; rollback failed: %v", run.Error.OrEmpty(), err))
		return
	}

	rows, err := p.catalog.DeleteRepository(ctx, core.RepositoryRecordID(fullName))
	if err != nil {
		p.logger.Error("rollback of catalog record failed", "runID", run.ID, "repo", fullName, "err", err)
		run.Fail(fmt.Sprintf("%s; rollback failed: %v", run.Error.OrEmpty(), err))
		return
	}

	p.logger.Info("rolled back repository", "runID", run.ID, "repo", fullName, "deletedDocuments", deleted, "deletedRepositories", rows)
}

// record writes the catalog entry of a completed run. A failure is kept on
// the run as CatalogError and does not change its status.
func (p *Pipeline) record(ctx context.Context, run *core.IngestionRun) {
	ref := run.Repo

	var err error
	if email, ok := ref.UserEmail.Get(); ok && email != "" {
		err = p.catalog.AddRepositoryToUser(ctx, email, ref.FullName)
	} else {
		err = p.catalog.CreateRepository(ctx, &core.RepositoryRecord{
			Name:          ref.Name,
			FullName:      ref.FullName,
			Branch:        ref.Branch,
			RepositoryURL: ref.RepositoryURL,
			Files:         append([]string(nil), ref.FilesPath...),
		})
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrPartialStateFailure, err)
		p.logger.Error("catalog write failed after ingestion", "runID", run.ID, "repo", ref.FullName, "err", err)
		run.CatalogError = mo.Some(err.Error())
	}
}

func (p *Pipeline) transition(run *core.IngestionRun, next core.Status) {
	if err := run.Transition(next); err != nil {
		p.logger.Error("illegal status transition", "runID", run.ID, "err", err)
	}
}

func (p *Pipeline) emit(e *execution) {
	snap := e.run.Snapshot()
	for _, observer := range e.observers {
		observer.Progress(snap)
	}
}
