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

// Package ai provides abstractions for the AI services used by docquery.
//
// This package defines interfaces for text embeddings and chat completions.
// The ingestion and question-answering pipelines depend on these
// abstractions rather than on a concrete provider.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Turns a conversation into a single model reply
//   - AIProvider: Aggregates the embedder and two completers
//
// A provider exposes two completers. Chat is backed by the answer model.
// Utility is backed by a smaller intermediate model that rephrases queries
// and compresses retrieved context at temperature 0.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Mock constructors return CONCRETE types so tests can inject
// behavior and assert on call counts.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "func main() {}")
//	reply, err := provider.Chat().Complete(ctx, []core.Message{
//	    {Role: core.RoleSystem, Content: "Answer from the context."},
//	    {Role: core.RoleUser, Content: "How do I run tests?"},
//	})
package ai
