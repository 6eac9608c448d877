package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"datalab/internal/config"
)

// Manager provides file management operations rooted at a dataset project directory
type Manager struct {
	paths  config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger.With("component", "files")}
}

// Paths returns the directory layout the manager resolves against
func (m *Manager) Paths() config.Paths {
	return m.paths
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	m.logger.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// CreateDirectory creates a directory with all parent directories. It returns
// the top-most directory that did not exist before the call, or "" when the
// directory was already present.
func (m *Manager) CreateDirectory(path string) (string, error) {
	fullPath := m.resolvePath(path)

	top := firstMissing(fullPath)
	if top == "" {
		return "", nil
	}

	m.logger.Debug("Creating directory",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", fullPath, err)
	}
	return top, nil
}

// CreateFile creates or truncates path, fills it through write and syncs it to disk
func (m *Manager) CreateFile(path string, write func(io.Writer) error) error {
	return m.createFile(m.resolvePath(path), write, nil)
}

// createFile calls created right after the file exists on disk, before any
// content is written
func (m *Manager) createFile(fullPath string, write func(io.Writer) error, created func(string)) error {
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	if created != nil {
		created(fullPath)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync file %s: %w", fullPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", fullPath, err)
	}

	m.logger.Debug("Wrote file", slog.String("full_path", fullPath))
	return nil
}

// DeleteFile deletes a file. Deleting a missing file is not an error.
func (m *Manager) DeleteFile(path string) error {
	fullPath := m.resolvePath(path)

	m.logger.Info("Deleting file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolvePath resolves a path relative to the project directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.paths.ProjectDir, path)
}

// firstMissing walks up from path and returns the highest ancestor that does
// not exist yet
func firstMissing(path string) string {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err == nil {
		return ""
	}

	top := path
	for {
		parent := filepath.Dir(top)
		if parent == top {
			return top
		}
		if _, err := os.Stat(parent); err == nil {
			return top
		}
		top = parent
	}
}
