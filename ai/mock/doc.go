// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	chat := mock.NewMockCompleter("")
//	chat.CompleteFunc = func(ctx context.Context, msgs []core.Message, o ai.CompleteOptions) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
//	// Check calls
//	last, _ := chat.LastCall()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Returns its canned Reply
//   - MockProvider: Aggregates a mock embedder and two mock completers
package mock
