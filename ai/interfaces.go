package ai

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer turns a conversation into a single model reply.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends messages to the model and returns the text of the first
	// choice. System messages carry instructions, user messages carry the
	// question. Returns an error wrapping core.ErrGenerationFailure when the
	// service fails or returns no choices.
	Complete(ctx context.Context, messages []core.Message, opts ...CompleteOption) (string, error)
}

// CompleteOptions holds per-call generation settings.
type CompleteOptions struct {
	// Temperature controls generation randomness. Zero is deterministic.
	// Nil leaves the completer's configured default in place.
	Temperature *float64

	// MaxTokens caps the reply length. Zero means no explicit cap.
	MaxTokens int
}

// CompleteOption is a functional option for a single Complete call.
type CompleteOption func(*CompleteOptions)

// WithTemperature overrides the sampling temperature for one call.
func WithTemperature(temperature float64) CompleteOption {
	return func(o *CompleteOptions) {
		o.Temperature = &temperature
	}
}

// WithMaxTokens caps the reply length for one call.
func WithMaxTokens(n int) CompleteOption {
	return func(o *CompleteOptions) {
		o.MaxTokens = n
	}
}

// ApplyCompleteOptions folds opts into a CompleteOptions value.
func ApplyCompleteOptions(opts ...CompleteOption) CompleteOptions {
	var o CompleteOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the embedder and both completers,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Chat returns the completer backed by the answer model.
	Chat() Completer

	// Utility returns the completer backed by the intermediate model used for
	// query rephrasing and context compression.
	Utility() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
