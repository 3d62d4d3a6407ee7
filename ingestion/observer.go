package ingestion

import (
	"log/slog"

	"github.com/poiesic/docquery/core"
)

// DefaultObserverBuffer is the number of snapshots an AsyncObserver queues
// before it starts dropping.
const DefaultObserverBuffer = 64

// ProgressObserver receives run snapshots. Progress is called after the run
// starts, after each file counter advance and once at the terminal status.
type ProgressObserver interface {
	Progress(run core.IngestionRun)
}

// ObserverFunc adapts a function to ProgressObserver.
type ObserverFunc func(run core.IngestionRun)

// Progress calls f(run).
func (f ObserverFunc) Progress(run core.IngestionRun) {
	f(run)
}

// AsyncObserver delivers snapshots to another observer on its own goroutine.
// Progress never blocks: when the queue is full the snapshot is dropped.
type AsyncObserver struct {
	target ProgressObserver
	queue  chan core.IngestionRun
	done   chan struct{}
	logger *slog.Logger
}

var _ ProgressObserver = (*AsyncObserver)(nil)

// NewAsyncObserver starts delivering to target. Close must be called to stop
// the delivery goroutine.
func NewAsyncObserver(target ProgressObserver, buffer int, logger *slog.Logger) *AsyncObserver {
	if buffer < 1 {
		buffer = DefaultObserverBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &AsyncObserver{
		target: target,
		queue:  make(chan core.IngestionRun, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go a.deliver()
	return a
}

func (a *AsyncObserver) deliver() {
	defer close(a.done)
	for run := range a.queue {
		a.notify(run)
	}
}

func (a *AsyncObserver) notify(run core.IngestionRun) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("progress observer panicked", "runID", run.ID, "panic", r)
		}
	}()
	a.target.Progress(run)
}

// Progress queues a snapshot for delivery.
func (a *AsyncObserver) Progress(run core.IngestionRun) {
	select {
	case a.queue <- run:
	default:
		a.logger.Debug("dropping progress snapshot", "runID", run.ID, "filesIngested", run.FilesIngested)
	}
}

// Close stops accepting snapshots. Queued snapshots are still delivered;
// Done is closed once they have been.
func (a *AsyncObserver) Close() {
	close(a.queue)
}

// Done is closed after the last queued snapshot has been delivered.
func (a *AsyncObserver) Done() <-chan struct{} {
	return a.done
}
