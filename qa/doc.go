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

// Package qa answers questions about an ingested repository.
//
// A Pipeline runs two stages in order. The retrieve stage gathers documents
// through query expansion and formats them into one labeled context block.
// The chat stage compresses that context with the utility model and asks
// the chat model for the answer.
//
// Failures never escape the pipeline. A retrieval failure leaves a
// placeholder context and an error message, and the chat stage still runs.
// A chat failure appends a fixed apology, so every run ends with exactly
// one reply appended to the conversation.
package qa
