package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"merchantdir/internal/models"
)

// LoadRecords reads every *.json file in dir, ordered by filename.
func LoadRecords(dir string) ([]RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read merchants directory: %w", err)
	}

	var records []RawRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		records = append(records, RawRecord{Filename: e.Name(), Data: data})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Filename < records[j].Filename
	})
	return records, nil
}

// LoadCategories reads the allowed-category vocabulary file.
func LoadCategories(path string) ([]models.CategoryEntry, error) {
	var entries []models.CategoryEntry
	if err := readJSON(path, &entries); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return entries, nil
}

// LoadCapabilities reads the capability display-name lookup file.
func LoadCapabilities(path string) ([]models.CapabilityEntry, error) {
	var entries []models.CapabilityEntry
	if err := readJSON(path, &entries); err != nil {
		return nil, fmt.Errorf("failed to load capabilities: %w", err)
	}
	return entries, nil
}

// LoadRules reads both vocabulary files.
func LoadRules(categoriesPath, capabilitiesPath string) (Rules, error) {
	categories, err := LoadCategories(categoriesPath)
	if err != nil {
		return Rules{}, err
	}
	capabilities, err := LoadCapabilities(capabilitiesPath)
	if err != nil {
		return Rules{}, err
	}
	return NewRules(categories, capabilities), nil
}

// WriteMetadata writes meta as indented JSON. The file is replaced
// atomically so a reader never sees a partial artifact.
func WriteMetadata(path string, meta models.DirectoryMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close metadata: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set metadata permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace metadata: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
