package store_test

import (
	"context"
	"testing"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersisterFromConfig_File(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendFile, DataDir: t.TempDir()}}

	p, closeFn, err := store.PersisterFromConfig(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, p.Save(ctx, sampleState()))
	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "대파(봄)", loaded.Items[0].Name)
}

func TestPersisterFromConfig_MirrorsToObjects(t *testing.T) {
	ctx := context.Background()
	objects := objectstore.NewMemory("https://bucket.example")
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendFile, DataDir: t.TempDir()},
		S3:      config.S3Config{Enabled: true, Bucket: "bucket", Prefix: "home"},
	}

	p, closeFn, err := store.PersisterFromConfig(ctx, cfg, objects, logger.Nop())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, p.Save(ctx, sampleState()))

	key := store.NewObjectDocumentStore(objects, "home").Key(store.ResourceItems)
	_, err = objects.Get(ctx, key)
	assert.NoError(t, err)
}
