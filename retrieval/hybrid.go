package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
)

// DefaultTopK is the number of documents a single retrieval returns.
const DefaultTopK = 4

// Searcher runs hybrid index queries.
type Searcher interface {
	Search(ctx context.Context, q index.Query) ([]index.Hit, error)
}

// Retriever returns ranked documents for one query in one repository.
type Retriever interface {
	Retrieve(ctx context.Context, repository, query string) ([]core.RetrievedDocument, error)
}

// HybridRetriever combines lexical and vector search over the index,
// filtered to exactly one repository.
type HybridRetriever struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

var _ Retriever = (*HybridRetriever)(nil)

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever) error

// WithTopK sets how many documents each retrieval returns.
// Default is DefaultTopK.
func WithTopK(k int) HybridOption {
	return func(r *HybridRetriever) error {
		if k > 0 {
			r.topK = k
		}
		return nil
	}
}

// WithHybridLogger sets a custom logger.
// Default is slog.Default().
func WithHybridLogger(logger *slog.Logger) HybridOption {
	return func(r *HybridRetriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewHybridRetriever creates a retriever over searcher.
func NewHybridRetriever(searcher Searcher, opts ...HybridOption) (*HybridRetriever, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	r := &HybridRetriever{
		searcher: searcher,
		topK:     DefaultTopK,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Retrieve returns the top-K documents for query in repository.
func (r *HybridRetriever) Retrieve(ctx context.Context, repository, query string) ([]core.RetrievedDocument, error) {
	hits, err := r.searcher.Search(ctx, index.Query{
		Text:       query,
		Repository: repository,
		TopK:       r.topK,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]core.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, core.RetrievedDocument{
			Text:       hit.Chunk.Text,
			SourcePath: hit.Chunk.SourcePath,
		})
	}
	r.logger.Debug("retrieved documents", "repo", repository, "query", query, "count", len(docs))
	return docs, nil
}
