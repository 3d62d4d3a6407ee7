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

// Package storage provides the storage abstraction layer for docquery.
//
// This package defines the persistence interfaces that decouple the
// pipelines from a concrete backend:
//
//   - ChunkStore: embedded chunks and vector similarity search
//   - LexicalIndex: keyword search over the same chunks
//   - Catalog: ingested repositories and the users that own them
//   - RunStore: ingestion run snapshots keyed by run ID
//
// The badger sub-package implements ChunkStore, Catalog and RunStore on a
// single BadgerDB instance. The lexical sub-package implements LexicalIndex
// with bleve.
//
// # Repository Scoping
//
// Chunk operations take the repository full name ("owner/repo") as an exact
// filter. Two repositories never share a key range, so concurrent ingestions
// of different repositories never touch each other's data.
//
// # Errors
//
// Lookups that miss return ErrNotFound, which wraps core.ErrNotFoundFailure.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	chunks := badger.NewChunkStore(backend)
//	catalog := badger.NewCatalog(backend)
//
// Use in tests with in-memory storage:
//
//	stores, err := badger.NewMemoryStores()
package storage
