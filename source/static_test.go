package source

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetch(t *testing.T) {
	ctx := context.Background()
	s := NewStatic().
		Put("acme/widgets", "main", "README.md", "# Widgets").
		Put("acme/widgets", "dev", "README.md", "# Widgets (dev)")

	t.Run("found", func(t *testing.T) {
		text, err := s.Fetch(ctx, "acme/widgets", "main", "README.md")
		require.NoError(t, err)
		assert.Equal(t, "# Widgets", text)
	})

	t.Run("branch scoped", func(t *testing.T) {
		text, err := s.Fetch(ctx, "acme/widgets", "dev", "README.md")
		require.NoError(t, err)
		assert.Equal(t, "# Widgets (dev)", text)
	})

	t.Run("missing is not found", func(t *testing.T) {
		_, err := s.Fetch(ctx, "acme/widgets", "main", "nope.go")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, core.ErrFetchFailure)
	})

	t.Run("injected failure", func(t *testing.T) {
		boom := errors.New("boom")
		s.FailOn("acme/widgets", "main", "README.md", boom)
		_, err := s.Fetch(ctx, "acme/widgets", "main", "README.md")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Fetch(cctx, "acme/widgets", "dev", "README.md")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStaticListFiles(t *testing.T) {
	ctx := context.Background()
	s := NewStatic().
		Put("acme/widgets", "main", "b.go", "package b").
		Put("acme/widgets", "main", "a.go", "package a").
		Put("acme/gadgets", "main", "c.go", "package c")

	paths, err := s.ListFiles(ctx, "acme/widgets", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, paths)

	_, err = s.ListFiles(ctx, "acme/none", "main")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrNotFound, core.ErrFetchFailure)
	assert.ErrorIs(t, ErrAccessDenied, core.ErrFetchFailure)
	assert.NotErrorIs(t, ErrNotFound, ErrAccessDenied)
}
