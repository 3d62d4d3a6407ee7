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

package mock

import "github.com/poiesic/docquery/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates a mock embedder and two mock completers.
type MockProvider struct {
	embedder *MockEmbedder
	chat     *MockCompleter
	utility  *MockCompleter
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockChat()/GetMockUtility() to access concrete types.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		chat:     NewMockCompleter("mock answer"),
		utility:  NewMockCompleter(""),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, chat, utility *MockCompleter) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		chat:     chat,
		utility:  utility,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Chat returns the mock answer completer.
func (p *MockProvider) Chat() ai.Completer {
	return p.chat
}

// Utility returns the mock intermediate completer.
func (p *MockProvider) Utility() ai.Completer {
	return p.utility
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockChat returns the underlying answer completer for test assertions.
func (p *MockProvider) GetMockChat() *MockCompleter {
	return p.chat
}

// GetMockUtility returns the underlying intermediate completer for test assertions.
func (p *MockProvider) GetMockUtility() *MockCompleter {
	return p.utility
}
