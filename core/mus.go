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

package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS is the MUS serializer for ID.
var IDMUS = idMUS{}

// ChunkMUS is the MUS serializer for Chunk. Vectors are written as raw
// little-endian float32s.
var ChunkMUS = chunkMUS{}

// RepositoryRecordMUS is the MUS serializer for RepositoryRecord.
var RepositoryRecordMUS = repositoryRecordMUS{}

// UserMUS is the MUS serializer for User.
var UserMUS = userMUS{}

// Timestamps keep microsecond precision in UTC.
var (
	vectorMUS  = ord.NewSliceSer[float32](raw.Float32)
	stringsMUS = ord.NewSliceSer[string](ord.String)
	timeMUS    = raw.TimeUnixMicroUTC
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.SourcePath, bs[n:])
	n += ord.String.Marshal(v.RepoFullName, bs[n:])
	n += varint.Int.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Language, bs[n:])
	return n + vectorMUS.Marshal(v.Vector, bs[n:])
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.ID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SourcePath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RepoFullName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Language, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// Chunks stored before embedding decode to a nil vector, not an empty one
	if len(v.Vector) == 0 {
		v.Vector = nil
	}
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.SourcePath)
	size += ord.String.Size(v.RepoFullName)
	size += varint.Int.Size(v.Ordinal)
	size += ord.String.Size(v.Language)
	return size + vectorMUS.Size(v.Vector)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	for range 3 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	return
}

type repositoryRecordMUS struct{}

func (s repositoryRecordMUS) Marshal(v RepositoryRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.FullName, bs[n:])
	n += ord.String.Marshal(v.Branch, bs[n:])
	n += ord.String.Marshal(v.RepositoryURL, bs[n:])
	n += stringsMUS.Marshal(v.Files, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s repositoryRecordMUS) Unmarshal(bs []byte) (v RepositoryRecord, n int, err error) {
	var n1 int
	if v.ID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	for _, field := range []*string{&v.Name, &v.FullName, &v.Branch, &v.RepositoryURL} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Files, n1, err = stringsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, v.UpdatedAt, n1, err = unmarshalTimestamps(bs[n:])
	n += n1
	return
}

func (s repositoryRecordMUS) Size(v RepositoryRecord) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.FullName)
	size += ord.String.Size(v.Branch)
	size += ord.String.Size(v.RepositoryURL)
	size += stringsMUS.Size(v.Files)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s repositoryRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	for range 4 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = stringsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = skipTimestamps(bs[n:])
	n += n1
	return
}

type userMUS struct{}

func (s userMUS) Marshal(v User, bs []byte) (n int) {
	n = ord.String.Marshal(v.Email, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += stringsMUS.Marshal(v.IngestedRepositories, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s userMUS) Unmarshal(bs []byte) (v User, n int, err error) {
	var n1 int
	if v.Email, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IngestedRepositories, n1, err = stringsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, v.UpdatedAt, n1, err = unmarshalTimestamps(bs[n:])
	n += n1
	return
}

func (s userMUS) Size(v User) (size int) {
	size = ord.String.Size(v.Email)
	size += ord.String.Size(v.Name)
	size += stringsMUS.Size(v.IngestedRepositories)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s userMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = stringsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = skipTimestamps(bs[n:])
	n += n1
	return
}

// unmarshalTimestamps reads the inserted/updated pair that closes every
// catalog record.
func unmarshalTimestamps(bs []byte) (inserted, updated time.Time, n int, err error) {
	var n1 int
	if inserted, n, err = timeMUS.Unmarshal(bs); err != nil {
		return
	}
	updated, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func skipTimestamps(bs []byte) (n int, err error) {
	var n1 int
	if n, err = timeMUS.Skip(bs); err != nil {
		return
	}
	n1, err = timeMUS.Skip(bs[n:])
	n += n1
	return
}
