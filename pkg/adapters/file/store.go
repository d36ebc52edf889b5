// Package file provides a filesystem FlowStore: one JSON document per
// saved flow in a configured directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Store implements ports.FlowStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".canopy/flows".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".canopy", "flows")
	}
	return &Store{BasePath: basePath}
}

// Save persists the flow to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, then renames it
// over the destination.
func (s *Store) Save(ctx context.Context, flow domain.Flow) error {
	if flow.ID == "" {
		return fmt.Errorf("flow ID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	destPath := s.path(flow.ID)

	// Temp file in the same directory so the rename stays on one
	// filesystem (required for atomicity).
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+flow.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves a flow from disk.
func (s *Store) Load(ctx context.Context, id string) (domain.Flow, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Flow{}, domain.ErrFlowNotFound
		}
		return domain.Flow{}, fmt.Errorf("failed to read flow file: %w", err)
	}

	var flow domain.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return domain.Flow{}, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}
	return flow, nil
}

// Delete removes the flow file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the IDs of all saved flows.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list flow directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}
