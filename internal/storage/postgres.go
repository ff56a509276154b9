package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"merchantdir/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS merchants (
	position     INTEGER     NOT NULL,
	slug         TEXT        NOT NULL PRIMARY KEY,
	document     JSONB       NOT NULL
);
CREATE TABLE IF NOT EXISTS directory_metadata (
	id           SMALLINT    NOT NULL PRIMARY KEY CHECK (id = 1),
	document     JSONB       NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);`

// PostgresStore keeps a published snapshot in PostgreSQL so several server
// instances can share one dataset.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the schema if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Publish replaces the snapshot in one transaction. Merchants are bulk
// loaded with COPY.
func (ps *PostgresStore) Publish(ctx context.Context, ds *models.Dataset) error {
	rows := make([][]any, 0, len(ds.Merchants))
	for i, m := range ds.Merchants {
		doc, err := marshalMerchant(m)
		if err != nil {
			return err
		}
		rows = append(rows, []any{int32(i), m.Slug, doc})
	}
	metaDoc, err := marshalMetadata(ds.Metadata)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE merchants`); err != nil {
			return fmt.Errorf("failed to clear merchants: %w", err)
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"merchants"},
			[]string{"position", "slug", "document"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to copy merchants: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO directory_metadata (id, document, generated_at) VALUES (1, $1, $2)
			 ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, generated_at = EXCLUDED.generated_at`,
			metaDoc, ds.Metadata.GeneratedAt,
		); err != nil {
			return fmt.Errorf("failed to store metadata: %w", err)
		}
		return nil
	})
}

func (ps *PostgresStore) Load(ctx context.Context) (*models.Dataset, error) {
	var metaDoc []byte
	err := ps.pool.QueryRow(ctx, `SELECT document FROM directory_metadata WHERE id = 1`).Scan(&metaDoc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	meta, err := unmarshalMetadata(metaDoc)
	if err != nil {
		return nil, err
	}

	rows, err := ps.pool.Query(ctx, `SELECT document FROM merchants ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to read merchants: %w", err)
	}

	merchants := make([]*models.Merchant, 0, len(docs))
	for _, doc := range docs {
		m, err := unmarshalMerchant(doc)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}

	return &models.Dataset{Merchants: merchants, Metadata: meta}, nil
}

// Close closes the connection pool.
func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}
