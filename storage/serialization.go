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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/poiesic/docquery/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return marshalMUS(core.IDMUS, id)
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	return marshalMUS(core.ChunkMUS, *chunk)
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	return unmarshalMUS(core.ChunkMUS, data)
}

// MarshalRepositoryRecord serializes a RepositoryRecord to bytes.
func MarshalRepositoryRecord(record *core.RepositoryRecord) []byte {
	return marshalMUS(core.RepositoryRecordMUS, *record)
}

// UnmarshalRepositoryRecord deserializes a RepositoryRecord from bytes.
func UnmarshalRepositoryRecord(data []byte) (*core.RepositoryRecord, error) {
	return unmarshalMUS(core.RepositoryRecordMUS, data)
}

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	return marshalMUS(core.UserMUS, *user)
}

// UnmarshalUser deserializes a User from bytes.
func UnmarshalUser(data []byte) (*core.User, error) {
	return unmarshalMUS(core.UserMUS, data)
}

// MarshalRun serializes an IngestionRun to bytes. Runs carry mo.Option
// fields and are stored as JSON.
func MarshalRun(run *core.IngestionRun) ([]byte, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRun deserializes an IngestionRun from bytes. A record whose
// status is not one of the known values is rejected.
func UnmarshalRun(data []byte) (*core.IngestionRun, error) {
	var run core.IngestionRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if !run.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown run status %q", ErrSerializationFailed, run.Status)
	}
	return &run, nil
}

func marshalMUS[T any](ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, ser.Size(v))
	ser.Marshal(v, buf)
	return buf
}

func unmarshalMUS[T any](ser mus.Serializer[T], data []byte) (*T, error) {
	v, _, err := ser.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &v, nil
}
