package badger

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

// Key prefixes for different data types
const (
	chunkPrefix     = "chunk:"
	repoPrefix      = "repo:"
	repoNamePrefix  = "reponame:"
	userPrefix      = "user:"
	runPrefix       = "run:"
	repoKeySentinel = "\x00"
)

// makeChunkRepoPrefix returns the key prefix of every chunk in a repository.
// Format: chunk:<repo>\x00
// An empty name yields the prefix of all chunks.
func makeChunkRepoPrefix(repoFullName string) []byte {
	if repoFullName == "" {
		return []byte(chunkPrefix)
	}
	return []byte(chunkPrefix + repoFullName + repoKeySentinel)
}

// makeChunkKey generates a key for a chunk.
// Format: chunk:<repo>\x00<id as 8 big endian bytes>
func makeChunkKey(repoFullName string, id core.ID) []byte {
	prefix := makeChunkRepoPrefix(repoFullName)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRepoKey generates a key for a catalog repository record by ID.
func makeRepoKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", repoPrefix, id))
}

// makeRepoNameKey generates the name index key of a repository record.
func makeRepoNameKey(fullName string) []byte {
	return []byte(repoNamePrefix + fullName)
}

// makeUserKey generates a key for a user. Emails compare case-insensitively.
func makeUserKey(email string) []byte {
	return []byte(userPrefix + strings.ToLower(strings.TrimSpace(email)))
}

// makeRunKey generates a key for an ingestion run.
func makeRunKey(id string) []byte {
	return []byte(runPrefix + id)
}
