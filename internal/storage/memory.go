package storage

import (
	"context"
	"fmt"

	"merchantdir/internal/models"
)

// RecordStore is the in-memory dataset served by the API. It is built once
// from a snapshot and never modified, so reads need no locking.
type RecordStore struct {
	merchants []*models.Merchant
	bySlug    map[string]*models.Merchant
	metadata  models.DirectoryMetadata
}

// NewRecordStore indexes ds. When two records share a slug the first one
// wins lookups; the generator rejects such batches, so this only matters for
// hand-edited snapshots.
func NewRecordStore(ds *models.Dataset) *RecordStore {
	s := &RecordStore{
		merchants: make([]*models.Merchant, 0, len(ds.Merchants)),
		bySlug:    make(map[string]*models.Merchant, len(ds.Merchants)),
		metadata:  ds.Metadata,
	}
	for _, m := range ds.Merchants {
		if m == nil {
			continue
		}
		s.merchants = append(s.merchants, m)
		if _, exists := s.bySlug[m.Slug]; !exists {
			s.bySlug[m.Slug] = m
		}
	}
	return s
}

// Load reads a snapshot from src and indexes it.
func Load(ctx context.Context, src Source) (*RecordStore, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return NewRecordStore(ds), nil
}

func (s *RecordStore) All() []*models.Merchant {
	return s.merchants
}

func (s *RecordStore) Get(slug string) (*models.Merchant, error) {
	m, ok := s.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *RecordStore) Metadata() models.DirectoryMetadata {
	return s.metadata
}

func (s *RecordStore) Len() int {
	return len(s.merchants)
}
