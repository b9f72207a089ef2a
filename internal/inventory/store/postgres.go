package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/smartinventory/smartinventory-backend/pkg/database"
)

// PostgresStore keeps one JSONB document per resource in inventory_snapshots.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a document store on db.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresPersister is a Persister over a PostgresStore.
func NewPostgresPersister(db *database.DB) *DocumentPersister {
	return NewDocumentPersister(NewPostgresStore(db))
}

type snapshotRow struct {
	Resource string `db:"resource"`
	Document []byte `db:"document"`
}

const selectSnapshots = `SELECT resource, document FROM inventory_snapshots`

const upsertSnapshot = `
	INSERT INTO inventory_snapshots (resource, document, saved_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (resource) DO UPDATE
	SET document = EXCLUDED.document, saved_at = EXCLUDED.saved_at`

func (p *PostgresStore) ReadDocuments(ctx context.Context) (Documents, error) {
	var rows []snapshotRow
	if err := p.db.SelectContext(ctx, &rows, selectSnapshots); err != nil {
		return nil, mapPQ(fmt.Errorf("select snapshots: %w", err))
	}

	docs := make(Documents, len(rows))
	for _, row := range rows {
		docs[row.Resource] = row.Document
	}
	return docs, nil
}

// WriteDocuments upserts all documents in one transaction.
func (p *PostgresStore) WriteDocuments(ctx context.Context, docs Documents) error {
	return p.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, r := range Resources {
			b, ok := docs[r]
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertSnapshot, r, b); err != nil {
				return mapPQ(fmt.Errorf("upsert %s: %w", r, err))
			}
		}
		return nil
	})
}

func mapPQ(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}
