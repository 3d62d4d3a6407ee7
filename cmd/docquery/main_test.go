package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// lockedBuffer guards stderr, which ingestion progress reaches from a
// background goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	t       *testing.T
	dataDir string
	envFile string
	source  *source.Static
	chat    *mock.MockCompleter
	stdout  bytes.Buffer
	stderr  lockedBuffer
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	h := &harness{
		t:       t,
		dataDir: filepath.Join(dir, "data"),
		envFile: filepath.Join(dir, "missing.env"),
		source:  source.NewStatic(),
		chat:    mock.NewMockCompleter("Use `make test`."),
	}
	h.source.
		Put("acme/widgets", "main", "Makefile", "test:\n\tgo test ./...\n").
		Put("acme/widgets", "main", "README.md", "Run make test before sending a patch.\n")
	return h
}

func (h *harness) app() *cli.App {
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), h.chat, mock.NewMockCompleter(""))
	app := newApp(docquery.WithProvider(provider), docquery.WithSource(h.source))
	app.Writer = &h.stdout
	app.ErrWriter = &h.stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

// run executes one command line and returns what it printed to stdout.
func (h *harness) run(args ...string) (string, error) {
	h.stdout.Reset()
	h.stderr.Reset()
	full := append([]string{"docquery", "--data-dir", h.dataDir, "--env-file", h.envFile}, args...)
	err := h.app().Run(full)
	return h.stdout.String(), err
}

func TestSetupLogger(t *testing.T) {
	h := newHarness(t)

	for _, level := range []string{"debug", "info", "WARN", "error"} {
		_, err := h.run("--log-level", level, "health")
		assert.NoError(t, err, level)
	}

	_, err := h.run("--log-level", "verbose", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestIngestAskDelete(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("ingest", "--file", "Makefile", "--file", "README.md", "acme/widgets")
	require.NoError(t, err, h.stderr.String())
	assert.Contains(t, out, "COMPLETED: 2/2 files")
	assert.Contains(t, h.stderr.String(), "acme/widgets: 2/2 files COMPLETED\n")

	out, err = h.run("ask", "acme/widgets", "how", "do", "I", "run", "tests?")
	require.NoError(t, err)
	assert.Equal(t, "Use `make test`.\n", out)
	assert.NotContains(t, h.stderr.String(), "search stage finished")

	out, err = h.run("ask", "--show-context", "acme/widgets", "how", "do", "I", "run", "tests?")
	require.NoError(t, err)
	assert.Contains(t, out, "Document 1")
	assert.True(t, strings.HasSuffix(out, "---\nUse `make test`.\n"))
	assert.Contains(t, h.stderr.String(), "search stage finished")
	assert.Contains(t, h.stderr.String(), "stage=lexical")

	last, ok := h.chat.LastCall()
	require.True(t, ok)
	assert.Equal(t, "how do I run tests?", last.Messages[1].Content)

	out, err = h.run("repos")
	require.NoError(t, err)
	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "CHUNKS")

	out, err = h.run("runs")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "2/2")

	out, err = h.run("delete", "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "deleted acme/widgets: 2 documents, 1 catalog entries\n", out)

	_, err = h.run("delete", "acme/widgets")
	assert.Error(t, err)

	out, err = h.run("repos")
	require.NoError(t, err)
	assert.Equal(t, "no repositories\n", out)
}

func TestIngestDiscoversFiles(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("ingest", "acme/widgets")
	require.NoError(t, err)
	assert.Contains(t, out, "2/2 files")
}

func TestIngestFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("ingest", "--file", "missing.go", "acme/widgets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error during ingestion")

	out, err := h.run("runs")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestIngestForUser(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("user", "add", "--name", "Dev", "dev@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "added user dev@acme.io\n", out)

	_, err = h.run("user", "add", "dev@acme.io")
	assert.Error(t, err, "duplicate users are rejected")

	_, err = h.run("ingest", "--file", "Makefile", "--user", "dev@acme.io", "acme/widgets")
	require.NoError(t, err)

	out, err = h.run("user", "show", "dev@acme.io")
	require.NoError(t, err)
	assert.Contains(t, out, "  acme/widgets\n")
}

func TestDeleteByID(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("ingest", "--file", "README.md", "acme/widgets")
	require.NoError(t, err)

	out, err := h.run("repos")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	out, err = h.run("delete", "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, "1 documents, 1 catalog entries")

	_, err = h.run("delete", "--id", "not-a-number")
	assert.Error(t, err)
}

func TestReindex(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("ingest", "--file", "Makefile", "--file", "README.md", "acme/widgets")
	require.NoError(t, err)

	out, err := h.run("reindex", "--batch-size", "1", "acme/widgets")
	require.NoError(t, err)
	assert.Contains(t, out, "reindexed 2 chunks in 2 batches")

	_, err = h.run("reindex", "--batch-size", "0")
	assert.Error(t, err)
}

func TestArgumentValidation(t *testing.T) {
	h := newHarness(t)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"ingest without repo", []string{"ingest"}, "OWNER/REPO is required"},
		{"ingest malformed repo", []string{"ingest", "widgets"}, "owner/repo"},
		{"ask without question", []string{"ask", "acme/widgets"}, "question is required"},
		{"user add without email", []string{"user", "add"}, "email is required"},
		{"unknown source", []string{"--source", "svn", "health"}, "source.kind"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.run(tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	app := newApp()

	find := func(cmd string) *cli.Command {
		for _, c := range app.Commands {
			if c.Name == cmd {
				return c
			}
		}
		return nil
	}

	ingest := find("ingest")
	require.NotNil(t, ingest)
	for _, flag := range ingest.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "branch" {
			assert.Equal(t, "main", f.Value)
		}
	}

	reindexCmd := find("reindex")
	require.NotNil(t, reindexCmd)
	for _, flag := range reindexCmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
			assert.Equal(t, 64, f.Value)
		}
	}

	for _, name := range []string{"ask", "delete", "repos", "runs", "user", "health"} {
		assert.NotNil(t, find(name), name)
	}
}
