package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sql, err := OpenSQLStore(filepath.Join(t.TempDir(), "data", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sql.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    sql,
	}
}

func webEntry() model.CatalogEntry {
	return model.CatalogEntry{
		Name:        "web",
		Description: "frontend",
		Definition: model.ServiceDefinition{
			Image:    "registry/web:v1",
			Replicas: 2,
			Ports:    []string{"80:8080"},
			Env:      map[string]string{"MODE": "prod"},
		},
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := store.Create(ctx, webEntry())
			require.NoError(t, err)
			assert.Equal(t, model.StatusRegistered, created.Status)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := store.Get(ctx, "web")
			require.NoError(t, err)
			assert.Equal(t, "frontend", got.Description)
			assert.Equal(t, webEntry().Definition, got.Definition)
			assert.Equal(t, model.StatusRegistered, got.Status)
			assert.Empty(t, got.ClusterID)

			_, err = store.Create(ctx, webEntry())
			assert.ErrorIs(t, err, model.ErrConflict)

			_, err = store.Get(ctx, "missing")
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestStoreListOrdered(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, n := range []string{"zeta", "alpha", "mid"} {
				e := webEntry()
				e.Name = n
				_, err := store.Create(ctx, e)
				require.NoError(t, err)
			}

			entries, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, "alpha", entries[0].Name)
			assert.Equal(t, "mid", entries[1].Name)
			assert.Equal(t, "zeta", entries[2].Name)
		})
	}
}

func TestStoreUpdateDefinition(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, webEntry())
			require.NoError(t, err)

			desc := "new description"
			updated, err := store.UpdateDefinition(ctx, "web", nil, &desc)
			require.NoError(t, err)
			assert.Equal(t, desc, updated.Description)
			assert.Equal(t, webEntry().Definition, updated.Definition)

			def := model.ServiceDefinition{Image: "registry/web:v2", Replicas: 1}
			updated, err = store.UpdateDefinition(ctx, "web", &def, nil)
			require.NoError(t, err)
			assert.Equal(t, def, updated.Definition)
			assert.Equal(t, desc, updated.Description)

			got, err := store.Get(ctx, "web")
			require.NoError(t, err)
			assert.Equal(t, def, got.Definition)

			_, err = store.UpdateDefinition(ctx, "missing", &def, nil)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestStoreSetStatus(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, webEntry())
			require.NoError(t, err)

			require.NoError(t, store.SetStatus(ctx, "web", model.StatusRunning, "abc123"))
			got, err := store.Get(ctx, "web")
			require.NoError(t, err)
			assert.Equal(t, model.StatusRunning, got.Status)
			assert.Equal(t, "abc123", got.ClusterID)
			assert.Equal(t, webEntry().Definition, got.Definition)

			require.NoError(t, store.SetStatus(ctx, "web", model.StatusStopped, ""))
			got, err = store.Get(ctx, "web")
			require.NoError(t, err)
			assert.Equal(t, model.StatusStopped, got.Status)
			assert.Empty(t, got.ClusterID)

			err = store.SetStatus(ctx, "missing", model.StatusFailed, "")
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, webEntry())
			require.NoError(t, err)

			require.NoError(t, store.Delete(ctx, "web"))
			_, err = store.Get(ctx, "web")
			assert.ErrorIs(t, err, model.ErrNotFound)

			assert.ErrorIs(t, store.Delete(ctx, "web"), model.ErrNotFound)
		})
	}
}

func TestSQLStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	store, err := OpenSQLStore(path)
	require.NoError(t, err)
	_, err = store.Create(ctx, webEntry())
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "web", model.StatusRunning, "svc1"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)
	assert.Equal(t, "svc1", got.ClusterID)
}

func TestStoreReturnsDetachedEntries(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := webEntry()
			_, err := store.Create(ctx, in)
			require.NoError(t, err)
			in.Definition.Env["MODE"] = "changed"

			got, err := store.Get(ctx, "web")
			require.NoError(t, err)
			got.Definition.Env["MODE"] = "dev"
			got.Definition.Ports[0] = "1:1"

			entries, err := store.List(ctx)
			require.NoError(t, err)
			entries[0].Definition.Env["EXTRA"] = "1"

			got, err = store.Get(ctx, "web")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"MODE": "prod"}, got.Definition.Env)
			assert.Equal(t, []string{"80:8080"}, got.Definition.Ports)
		})
	}
}
