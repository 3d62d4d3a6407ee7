package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUsers(t *testing.T) {
	ctx := context.Background()
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	catalog := stores.Catalog

	require.NoError(t, catalog.CreateUser(ctx, &core.User{Email: "Dev@Acme.io", Name: "Dev"}))
	assert.ErrorIs(t, catalog.CreateUser(ctx, &core.User{Email: "dev@acme.io"}), storage.ErrDuplicateKey)

	require.NoError(t, catalog.AddRepositoryToUser(ctx, "dev@acme.io", "acme/widgets"))
	require.NoError(t, catalog.AddRepositoryToUser(ctx, "dev@acme.io", "acme/widgets"))

	user, err := catalog.GetUser(ctx, "DEV@acme.io")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/widgets"}, user.IngestedRepositories)
	assert.Equal(t, "Dev", user.Name)

	err = catalog.AddRepositoryToUser(ctx, "nobody@acme.io", "acme/widgets")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrNotFoundFailure)
}

func TestCatalogRepositories(t *testing.T) {
	ctx := context.Background()
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()
	catalog := stores.Catalog

	record := &core.RepositoryRecord{Name: "widgets", FullName: "acme/widgets", Files: []string{"a.go"}}
	require.NoError(t, catalog.CreateRepository(ctx, record))
	assert.Equal(t, core.RepositoryRecordID("acme/widgets"), record.ID)
	inserted := record.InsertedAt

	t.Run("upsert keeps insert time", func(t *testing.T) {
		again := &core.RepositoryRecord{Name: "widgets", FullName: "acme/widgets", Files: []string{"a.go", "b.go"}}
		require.NoError(t, catalog.CreateRepository(ctx, again))

		got, err := catalog.GetRepository(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "b.go"}, got.Files)
		assert.True(t, got.InsertedAt.Equal(inserted))
	})

	t.Run("find by name", func(t *testing.T) {
		got, err := catalog.FindRepositoryByName(ctx, "acme/widgets")
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)

		_, err = catalog.FindRepositoryByName(ctx, "acme/missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list sorted by name", func(t *testing.T) {
		require.NoError(t, catalog.CreateRepository(ctx, &core.RepositoryRecord{FullName: "acme/anvils"}))
		list, err := catalog.ListRepositories(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "acme/anvils", list[0].FullName)
		assert.Equal(t, "acme/widgets", list[1].FullName)
	})

	t.Run("delete reports rows", func(t *testing.T) {
		n, err := catalog.DeleteRepository(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = catalog.DeleteRepository(ctx, record.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = catalog.FindRepositoryByName(ctx, "acme/widgets")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
