// Package reindex re-embeds stored chunks after the embedding model changes.
//
// Chunks are read back from the vector store in batches, embedded again
// with retry and exponential backoff, normalized to unit length and written
// back under their existing IDs. Chunk text and the keyword index are left
// untouched, so a reindex never changes what a search can match, only how
// the vector half ranks it.
package reindex
