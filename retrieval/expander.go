package retrieval

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/source"
)

const (
	// DefaultExpansions is the number of rephrasings requested per question.
	DefaultExpansions = 3

	// DefaultWorkers bounds how many sub-queries run at once.
	DefaultWorkers = 4
)

// QueryExpander widens retrieval recall by searching for several phrasings
// of the same question.
type QueryExpander struct {
	retriever  Retriever
	completer  ai.Completer
	source     source.Source
	pool       *ants.Pool
	expansions int
	logger     *slog.Logger
}

// ExpanderOption configures a QueryExpander.
type ExpanderOption func(*QueryExpander) error

// WithExpansions sets how many rephrasings to request.
// Default is DefaultExpansions. Zero searches the original question only.
func WithExpansions(n int) ExpanderOption {
	return func(e *QueryExpander) error {
		if n >= 0 {
			e.expansions = n
		}
		return nil
	}
}

// WithWorkers sets how many sub-queries may run at once.
// Default is DefaultWorkers.
func WithWorkers(size int) ExpanderOption {
	return func(e *QueryExpander) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithExpanderLogger sets a custom logger.
// Default is slog.Default().
func WithExpanderLogger(logger *slog.Logger) ExpanderOption {
	return func(e *QueryExpander) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewQueryExpander creates a query expander. The completer should be the
// deterministic utility model; it is always called at temperature 0.
func NewQueryExpander(retriever Retriever, completer ai.Completer, src source.Source, opts ...ExpanderOption) (*QueryExpander, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if src == nil {
		return nil, ErrSourceRequired
	}

	pool, err := ants.NewPool(DefaultWorkers)
	if err != nil {
		return nil, err
	}

	e := &QueryExpander{
		retriever:  retriever,
		completer:  completer,
		source:     src,
		pool:       pool,
		expansions: DefaultExpansions,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}

	return e, nil
}

// Retrieve runs the retriever for the question and each rephrasing, merges
// the results by source path in expansion order and returns each path's
// current content from the file source on branch.
//
// Sub-query failures are logged and skipped. Any other failure yields an
// empty result. An error is returned only when ctx is done.
func (e *QueryExpander) Retrieve(ctx context.Context, repository, branch, query string) ([]core.RetrievedDocument, error) {
	queries := e.Expand(ctx, query)

	results := e.fanOut(ctx, repository, queries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := uniquePaths(results)
	if len(paths) == 0 {
		return []core.RetrievedDocument{}, nil
	}

	docs := make([]core.RetrievedDocument, 0, len(paths))
	for _, path := range paths {
		text, err := e.source.Fetch(ctx, repository, branch, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Error("error re-fetching retrieved file", "repo", repository, "branch", branch, "path", path, "err", err)
			return []core.RetrievedDocument{}, nil
		}
		docs = append(docs, core.RetrievedDocument{Text: text, SourcePath: path})
	}

	e.logger.Debug("expanded retrieval", "repo", repository, "queries", len(queries), "documents", len(docs))
	return docs, nil
}

// Expand returns the original question followed by up to the configured
// number of rephrasings. A model failure leaves just the original.
func (e *QueryExpander) Expand(ctx context.Context, query string) []string {
	queries := []string{query}
	if e.expansions == 0 {
		return queries
	}

	reply, err := e.completer.Complete(ctx, []core.Message{
		{Role: core.RoleUser, Content: buildMultiQueryPrompt(query, e.expansions)},
	}, ai.WithTemperature(0))
	if err != nil {
		e.logger.Warn("query expansion failed, using original query only", "err", err)
		return queries
	}

	return append(queries, parseRephrasings(reply, query, e.expansions)...)
}

// fanOut runs one retrieval per query. Results are indexed by query
// position so the merge order never depends on completion order.
func (e *QueryExpander) fanOut(ctx context.Context, repository string, queries []string) [][]core.RetrievedDocument {
	results := make([][]core.RetrievedDocument, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			docs, err := e.retriever.Retrieve(ctx, repository, q)
			if err != nil {
				e.logger.Warn("sub-query retrieval failed", "repo", repository, "query", q, "err", err)
				return
			}
			results[i] = docs
		}
		if err := e.pool.Submit(task); err != nil {
			e.logger.Warn("running sub-query inline", "err", err)
			task()
		}
	}
	wg.Wait()

	return results
}

// uniquePaths flattens results and keeps the first occurrence of each path.
func uniquePaths(results [][]core.RetrievedDocument) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, docs := range results {
		for _, doc := range docs {
			if doc.SourcePath == "" || seen[doc.SourcePath] {
				continue
			}
			seen[doc.SourcePath] = true
			paths = append(paths, doc.SourcePath)
		}
	}
	return paths
}

// Release releases the worker pool.
// The expander should not be used after calling Release.
func (e *QueryExpander) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}
