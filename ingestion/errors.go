package ingestion

import "errors"

var (
	// ErrSourceRequired is returned when a file source is not provided.
	ErrSourceRequired = errors.New("file source required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrCatalogRequired is returned when a catalog is not provided.
	ErrCatalogRequired = errors.New("catalog required")

	// ErrPipelineRequired is returned when a runner is built without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrRunStoreRequired is returned when a run store is not provided.
	ErrRunStoreRequired = errors.New("run store required")

	// ErrRunNotActive is returned when cancelling a run that is not executing.
	ErrRunNotActive = errors.New("run is not active")

	// ErrRunNotFinished is returned when a run that is no longer executing
	// never reached a terminal status.
	ErrRunNotFinished = errors.New("run has not finished")

	// ErrRunnerClosed is returned when submitting to a closed runner.
	ErrRunnerClosed = errors.New("runner is closed")
)
