package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"merchantdir/internal/models"
)

// JSONSource reads the generator's native output: one file per merchant in
// MerchantsDir and the aggregate in MetadataFile. Merchants are returned in
// filename order, which is also the order the generator validated them in.
type JSONSource struct {
	merchantsDir string
	metadataFile string
}

// NewJSONSource creates a JSON file-based source. Both paths are required.
func NewJSONSource(merchantsDir, metadataFile string) (*JSONSource, error) {
	if merchantsDir == "" {
		return nil, fmt.Errorf("merchants directory is required for JSON source")
	}
	if metadataFile == "" {
		return nil, fmt.Errorf("metadata file is required for JSON source")
	}
	return &JSONSource{merchantsDir: merchantsDir, metadataFile: metadataFile}, nil
}

func (j *JSONSource) Load(ctx context.Context) (*models.Dataset, error) {
	entries, err := os.ReadDir(j.merchantsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read merchants directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	merchants := make([]*models.Merchant, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(j.merchantsDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		m, err := unmarshalMerchant(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		merchants = append(merchants, m)
	}

	metaData, err := os.ReadFile(j.metadataFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s is missing, run the generator first", ErrNoSnapshot, j.metadataFile)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta models.DirectoryMetadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return &models.Dataset{Merchants: merchants, Metadata: meta}, nil
}

// Close is a no-op; files are not held open between loads.
func (j *JSONSource) Close() error {
	return nil
}
