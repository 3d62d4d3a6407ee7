package retrieval

import "errors"

var (
	// ErrSearcherRequired is returned when an index searcher is not provided.
	ErrSearcherRequired = errors.New("index searcher required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrSourceRequired is returned when a file source is not provided.
	ErrSourceRequired = errors.New("file source required")
)
