package store

import (
	"context"
	"fmt"

	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/database"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
)

// PersisterFromConfig picks the snapshot backend and mirrors it to object storage when configured.
// The returned close func releases the database handle, if any.
func PersisterFromConfig(ctx context.Context, cfg *config.Config, objects objectstore.Store, log *logger.Logger) (Persister, func(), error) {
	var (
		primary DocumentStore
		closeFn = func() {}
	)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		migrator, err := database.NewMigrator(cfg.Database.MigrationURL())
		if err != nil {
			return nil, nil, err
		}
		err = migrator.Up()
		_ = migrator.Close()
		if err != nil {
			return nil, nil, err
		}

		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if !db.Healthy(ctx) {
			_ = db.Close()
			return nil, nil, fmt.Errorf("database is not reachable")
		}
		primary = NewPostgresStore(db)
		closeFn = func() { _ = db.Close() }
	default:
		files, err := NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		primary = files
	}

	if objects != nil {
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("mirroring inventory snapshots to S3")
		return NewMirroredPersister(primary, objects, cfg.S3.Prefix, log), closeFn, nil
	}
	return NewDocumentPersister(primary), closeFn, nil
}
