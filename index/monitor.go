package index

import (
	"log/slog"

	"github.com/poiesic/docquery/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(q Query)
	AfterVectorSearch(results []*core.ScoredChunk, err error)
	AfterLexicalSearch(results []*core.ScoredChunk, err error)
	Finish(hits []Hit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                                     {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ScoredChunk, _ error)  {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.ScoredChunk, _ error) {}
func (n *noopMonitor) Finish(_ []Hit)                                    {}

// LoggingMonitor reports each search stage to a logger at debug level.
type LoggingMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LoggingMonitor)(nil)

// NewLoggingMonitor creates a monitor that logs to logger, or to
// slog.Default() when logger is nil.
func NewLoggingMonitor(logger *slog.Logger) *LoggingMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMonitor{logger: logger.With("component", "search")}
}

func (m *LoggingMonitor) Start(q Query) {
	m.logger.Debug("search started", "repo", q.Repository, "query", q.Text, "topK", q.TopK)
}

func (m *LoggingMonitor) AfterVectorSearch(results []*core.ScoredChunk, err error) {
	m.stage("vector", results, err)
}

func (m *LoggingMonitor) AfterLexicalSearch(results []*core.ScoredChunk, err error) {
	m.stage("lexical", results, err)
}

func (m *LoggingMonitor) Finish(hits []Hit) {
	for i, hit := range hits {
		m.logger.Debug("search hit", "rank", i+1, "path", hit.Chunk.SourcePath, "ordinal", hit.Chunk.Ordinal, "score", hit.Score)
	}
}

func (m *LoggingMonitor) stage(name string, results []*core.ScoredChunk, err error) {
	if err != nil {
		m.logger.Debug("search stage failed", "stage", name, "err", err)
		return
	}
	m.logger.Debug("search stage finished", "stage", name, "candidates", len(results))
}
