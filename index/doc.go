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

// Package index is the client for the document index that backs retrieval.
//
// A Client writes embedded chunks to a vector store and a lexical index and
// answers hybrid queries over both. Every operation is scoped by repository
// full name, so two repositories never see each other's chunks.
//
// Search runs the vector and keyword searches concurrently and merges them
// with Reciprocal Rank Fusion. If one half fails the other half's results are
// returned alone; only when both fail does Search return an error.
package index
