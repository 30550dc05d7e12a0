package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	return &config.Config{
		Database:    config.DatabaseConfig{Path: filepath.Join(dir, "catalog.db")},
		Definitions: config.DefinitionsConfig{Dir: filepath.Join(dir, "definitions")},
		Projects:    config.ProjectsConfig{Dir: filepath.Join(dir, "projects")},
		Registry:    config.RegistryConfig{URL: "http://registry.local:5000"},
	}
}

func TestOpenCatalog(t *testing.T) {
	cfg := testConfig(t)

	store, err := OpenCatalog(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.FileExists(t, cfg.Database.Path)

	cfg.Database.Memory = true
	store, err = OpenCatalog(cfg)
	require.NoError(t, err)
	assert.IsType(t, memoryCatalog{}, store)
	assert.NoError(t, store.Close())
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Memory = true

	require.NoError(t, os.MkdirAll(cfg.Definitions.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Definitions.Dir, "web.yml"), []byte("image: nginx:alpine\n"), 0o644))

	store, err := OpenCatalog(cfg)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, SeedCatalog(ctx, cfg, store))
	require.NoError(t, SeedCatalog(ctx, cfg, store))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "web", entries[0].Name)
	assert.Equal(t, model.StatusRegistered, entries[0].Status)
}

func TestSeedCatalogWithoutDefinitions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Memory = true

	store, err := OpenCatalog(cfg)
	require.NoError(t, err)

	assert.NoError(t, SeedCatalog(context.Background(), cfg, store))
}

func TestNewQueueDisabled(t *testing.T) {
	q, err := NewQueue(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestNewPipelineProjectsDir(t *testing.T) {
	cfg := testConfig(t)

	p := NewPipeline(cfg, nil)
	assert.Equal(t, cfg.Projects.Dir, p.ProjectsDir())
}
