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

// Package ingestion turns a repository reference into indexed chunks.
//
// A Pipeline run is an explicit state machine. It starts in PENDING and
// moves to RUNNING. Each file is then fetched, split and indexed in order.
// The first failure stops the loop, and the verify step then either
// completes the run and records it in the catalog or fails it and rolls
// back every chunk of the repository.
//
// Runs never return collaborator errors. The caller always gets the run back
// with its terminal status and, on failure, a descriptive error message.
//
// A Runner executes many runs in the background on a worker pool. It
// persists every progress snapshot and supports cancellation by run ID.
package ingestion
