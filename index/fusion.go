package index

import (
	"slices"

	"github.com/poiesic/docquery/core"
)

// rrfK keeps a single top rank from dominating the fused score.
const rrfK = 60

// fuse merges ranked lists with Reciprocal Rank Fusion. A chunk that
// contains every significant query word gets one extra top-rank credit.
// Equal scores order by chunk ID so the output never depends on map order.
func fuse(query string, k int, lists ...[]*core.ScoredChunk) []Hit {
	scores := make(map[core.ID]float64)
	chunks := make(map[core.ID]*core.Chunk)

	for _, list := range lists {
		for rank, sc := range list {
			id := sc.Chunk.ID
			scores[id] += 1.0 / float64(k+rank+1)
			// Prefer the copy that carries a vector
			if existing, ok := chunks[id]; !ok || len(existing.Vector) == 0 {
				chunks[id] = sc.Chunk
			}
		}
	}

	hits := make([]Hit, 0, len(chunks))
	for id, chunk := range chunks {
		score := scores[id]
		if containsAllQueryWords(chunk.Text, query) {
			score += 1.0 / float64(k+1)
		}
		hits = append(hits, Hit{Chunk: chunk, Score: score})
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.ID < b.Chunk.ID {
			return -1
		}
		if a.Chunk.ID > b.Chunk.ID {
			return 1
		}
		return 0
	})
	return hits
}
