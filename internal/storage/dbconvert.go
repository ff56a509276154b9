package storage

import (
	"encoding/json"
	"fmt"

	"merchantdir/internal/models"
)

// Database backends store each merchant and the metadata block as JSON
// documents in the published wire format.

// marshalMerchant converts a merchant to its JSON document.
func marshalMerchant(m *models.Merchant) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal merchant %s: %w", m.Slug, err)
	}
	return string(b), nil
}

// unmarshalMerchant parses a stored merchant document.
func unmarshalMerchant(data []byte) (*models.Merchant, error) {
	var m models.Merchant
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal merchant: %w", err)
	}
	return &m, nil
}

// marshalMetadata converts the metadata block to its JSON document.
func marshalMetadata(meta models.DirectoryMetadata) (string, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

// unmarshalMetadata parses a stored metadata document.
func unmarshalMetadata(data []byte) (models.DirectoryMetadata, error) {
	var meta models.DirectoryMetadata
	if len(data) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}
