package storage

import (
	"context"
	"fmt"

	"merchantdir/internal/models"
)

// NewSource instantiates a snapshot source based on the provided
// configuration.
// Supported sources:
//   - json: the generator's output directory (default)
//   - sqlite: a SQLite file written by the generator's -publish flag
//   - postgres: a PostgreSQL database written by the generator's -publish flag
func NewSource(ctx context.Context, config models.DataConfig) (Source, error) {
	var (
		src Source
		err error
	)
	switch config.Source {
	case models.DataSourceJSON:
		src, err = NewJSONSource(config.MerchantsDir, config.MetadataFile)
	case models.DataSourceSQLite:
		src, err = NewSQLiteStore(config.DSN)
	case models.DataSourcePostgres:
		src, err = NewPostgresStore(ctx, config.DSN)
	default:
		return nil, fmt.Errorf("unsupported data source: %s", config.Source)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// NewPublisher instantiates a database publisher. JSON output is written by
// the generator directly and has no publisher.
func NewPublisher(ctx context.Context, kind, dsn string) (Publisher, error) {
	var (
		pub Publisher
		err error
	)
	switch kind {
	case models.DataSourceSQLite:
		pub, err = NewSQLiteStore(dsn)
	case models.DataSourcePostgres:
		pub, err = NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported publish target: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// SupportedSources returns every source type NewSource accepts.
func SupportedSources() []string {
	return []string{models.DataSourceJSON, models.DataSourceSQLite, models.DataSourcePostgres}
}
