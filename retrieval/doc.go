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

// Package retrieval finds the documents a question should be answered from.
//
// HybridRetriever runs one hybrid index search scoped to a repository.
// QueryExpander asks a language model for rephrasings of the question, runs
// the retriever once per phrasing, merges the results by source path in
// expansion order and re-reads each surviving file from the file source.
package retrieval
