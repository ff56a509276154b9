package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"merchantdir/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS merchants (
	position INTEGER NOT NULL,
	slug     TEXT    NOT NULL PRIMARY KEY,
	document TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS directory_metadata (
	id           INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
	document     TEXT    NOT NULL,
	generated_at TEXT    NOT NULL
);`

// SQLiteStore keeps a published snapshot in a single SQLite file. It is both
// a Source for the server and a Publisher for the generator.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and creates the schema if needed.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serialises them anyway.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Publish replaces every stored merchant and the metadata row in one
// transaction.
func (ss *SQLiteStore) Publish(ctx context.Context, ds *models.Dataset) (err error) {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM merchants`); err != nil {
		return fmt.Errorf("failed to clear merchants: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO merchants (position, slug, document) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range ds.Merchants {
		doc, merr := marshalMerchant(m)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx, i, m.Slug, doc); err != nil {
			return fmt.Errorf("failed to insert merchant %s: %w", m.Slug, err)
		}
	}

	metaDoc, err := marshalMetadata(ds.Metadata)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO directory_metadata (id, document, generated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, generated_at = excluded.generated_at`,
		metaDoc, ds.Metadata.GeneratedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (ss *SQLiteStore) Load(ctx context.Context) (*models.Dataset, error) {
	var metaDoc []byte
	err := ss.db.QueryRowContext(ctx, `SELECT document FROM directory_metadata WHERE id = 1`).Scan(&metaDoc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	meta, err := unmarshalMetadata(metaDoc)
	if err != nil {
		return nil, err
	}

	rows, err := ss.db.QueryContext(ctx, `SELECT document FROM merchants ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer rows.Close()

	var merchants []*models.Merchant
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		m, err := unmarshalMerchant(doc)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merchants: %w", err)
	}

	return &models.Dataset{Merchants: merchants, Metadata: meta}, nil
}

// Close closes the storage connection
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
