package index

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchUsesConfiguredMonitor(t *testing.T) {
	m := &recordingMonitor{}
	c, _, _ := newTestClient(t, WithMonitor(m))
	seed(t, c)

	hits, err := c.Search(context.Background(), Query{Text: "tests", Repository: "org/repo", TopK: 2})
	require.NoError(t, err)
	assert.True(t, m.started)
	assert.Positive(t, m.lexical)
	assert.Equal(t, hits, m.finished)
}

func TestWithMonitorNilFallsBackToNoop(t *testing.T) {
	c, _, _ := newTestClient(t, WithMonitor(nil))
	seed(t, c)

	_, err := c.Search(context.Background(), Query{Text: "tests", Repository: "org/repo"})
	assert.NoError(t, err)
}

func TestLoggingMonitor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, _, _ := newTestClient(t, WithMonitor(NewLoggingMonitor(logger)))
	seed(t, c)

	hits, err := c.Search(context.Background(), Query{Text: "tests", Repository: "org/repo", TopK: 2})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	out := buf.String()
	assert.Contains(t, out, "search started")
	assert.Contains(t, out, "stage=vector")
	assert.Contains(t, out, "stage=lexical")
	assert.Contains(t, out, "rank=1")
	assert.Contains(t, out, "component=search")
}

func TestLoggingMonitorQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	m := NewLoggingMonitor(logger)

	m.Start(Query{Text: "tests", Repository: "org/repo"})
	m.AfterVectorSearch(nil, nil)
	m.Finish(nil)
	assert.Empty(t, buf.String())
}
