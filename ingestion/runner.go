package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Runner executes ingestion runs in the background.
// Runs for different repositories proceed concurrently.
type Runner struct {
	pipeline *Pipeline
	runs     storage.RunStore
	pool     *ants.Pool
	logger   *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu       sync.Mutex
	active   map[string]*activeRun
	closed   bool
	inflight sync.WaitGroup
}

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	latest core.IngestionRun
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithWorkers sets how many runs may execute at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) RunnerOption {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithRunnerLogger sets a custom logger.
// Default is slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a runner that executes pipeline runs and persists them
// to runs.
func NewRunner(pipeline *Pipeline, runs storage.RunStore, opts ...RunnerOption) (*Runner, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if runs == nil {
		return nil, ErrRunStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	r := &Runner{
		pipeline: pipeline,
		runs:     runs,
		pool:     pool,
		logger:   slog.Default(),
		baseCtx:  ctx,
		stop:     stop,
		active:   make(map[string]*activeRun),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

// Submit starts an ingestion of ref and returns its run ID. The PENDING run
// is persisted first. Submit blocks while every worker is busy.
func (r *Runner) Submit(ref core.RepositoryRef) (string, error) {
	run := core.NewIngestionRun(uuid.NewString(), ref)
	ctx, cancel := context.WithCancel(r.baseCtx)
	active := &activeRun{cancel: cancel, done: make(chan struct{}), latest: run.Snapshot()}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return "", ErrRunnerClosed
	}
	r.active[run.ID] = active
	r.inflight.Add(1)
	r.mu.Unlock()

	r.save(run.Snapshot())

	err := r.pool.Submit(func() {
		defer r.inflight.Done()
		defer close(active.done)
		defer cancel()

		// Intermediate snapshots are persisted off the ingestion path; the
		// terminal one is written after they drain so it is never overwritten.
		persist := NewAsyncObserver(ObserverFunc(r.save), DefaultObserverBuffer, r.logger)
		r.pipeline.Execute(ctx, run, ObserverFunc(func(snap core.IngestionRun) {
			r.mu.Lock()
			active.latest = snap
			r.mu.Unlock()
			if !snap.Status.IsTerminal() {
				persist.Progress(snap)
			}
		}))
		persist.Close()
		<-persist.Done()
		r.save(run.Snapshot())

		r.mu.Lock()
		delete(r.active, run.ID)
		r.mu.Unlock()
	})
	if err != nil {
		r.inflight.Done()
		r.mu.Lock()
		delete(r.active, run.ID)
		r.mu.Unlock()
		cancel()
		close(active.done)

		if terr := run.Transition(core.StatusCancelled); terr == nil {
			r.save(run.Snapshot())
		}
		return "", err
	}

	r.logger.Info("ingestion submitted", "runID", run.ID, "repo", ref.FullName)
	return run.ID, nil
}

// Cancel asks a running run to stop. The run finishes as CANCELLED
// and keeps whatever it already indexed.
func (r *Runner) Cancel(id string) error {
	r.mu.Lock()
	active, ok := r.active[id]
	r.mu.Unlock()
	if !ok {
		return ErrRunNotActive
	}
	active.cancel()
	r.logger.Info("ingestion cancel requested", "runID", id)
	return nil
}

// Get returns the latest snapshot of a run.
func (r *Runner) Get(ctx context.Context, id string) (*core.IngestionRun, error) {
	r.mu.Lock()
	active, ok := r.active[id]
	var snap core.IngestionRun
	if ok {
		snap = active.latest
	}
	r.mu.Unlock()
	if ok {
		return &snap, nil
	}
	return r.runs.GetRun(ctx, id)
}

// Wait blocks until the run reaches a terminal status or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (*core.IngestionRun, error) {
	r.mu.Lock()
	active, ok := r.active[id]
	r.mu.Unlock()

	if ok {
		select {
		case <-active.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	run, err := r.runs.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if !run.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunNotFinished, id, run.Status)
	}
	return run, nil
}

// Close cancels every active run, waits for each to persist its terminal
// status and releases the worker pool.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stop()
	r.inflight.Wait()
	r.pool.Release()
}

func (r *Runner) save(snap core.IngestionRun) {
	if err := r.runs.SaveRun(context.Background(), &snap); err != nil {
		r.logger.Error("failed to persist run", "runID", snap.ID, "status", snap.Status, "err", err)
	}
}
