package qa

import "errors"

var (
	// ErrRetrieverRequired is returned when a document retriever is not provided.
	ErrRetrieverRequired = errors.New("document retriever required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrCompressorRequired is returned when a compressor is not provided.
	ErrCompressorRequired = errors.New("compressor required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrNilRequest is returned when Run is given a nil request.
	ErrNilRequest = errors.New("question request is nil")
)
