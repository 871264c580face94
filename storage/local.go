// Package storage persists screenshot artifacts produced by check runs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Local stores run artifacts under a base directory on the local
// filesystem, one subdirectory per run.
type Local struct {
	baseDir string
}

// NewLocal creates the base directory if needed and returns the store.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Save writes one artifact under the run's directory and returns its
// storage path.
func (l *Local) Save(runID, name string, data []byte) (string, error) {
	dir := l.BasePath(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create run dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	return path, nil
}

// BasePath returns the directory holding a run's artifacts.
func (l *Local) BasePath(runID string) string {
	return filepath.Join(l.baseDir, runID)
}
