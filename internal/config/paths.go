package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ProcessedFolder is the per-project folder holding split and preprocessed outputs
const ProcessedFolder = "processed"

// Paths contains the resolved paths for one dataset project.
// Layout:
//
//	<data_dir>/
//	  └── <project>/
//	      ├── <archive>          (downloaded dataset archive)
//	      ├── <table>.csv        (extracted raw table)
//	      └── processed/         (train.csv, test.csv, metadata.json, preprocessed_data.csv)
type Paths struct {
	DataDir      string
	ProjectDir   string
	ProcessedDir string
}

// GetPaths returns the paths of a project below dataDir
func GetPaths(dataDir, project string) Paths {
	projectDir := filepath.Join(dataDir, project)
	return Paths{
		DataDir:      dataDir,
		ProjectDir:   projectDir,
		ProcessedDir: filepath.Join(projectDir, ProcessedFolder),
	}
}

// ProjectFile returns the path of a file directly inside the project directory
func (p Paths) ProjectFile(name string) string {
	return filepath.Join(p.ProjectDir, name)
}

// ProcessedFile returns the path of a file inside the processed directory
func (p Paths) ProcessedFile(name string) string {
	return filepath.Join(p.ProcessedDir, name)
}

// EnsureProjectDir creates the project directory if it doesn't exist. The
// processed directory is left to the save that fills it, so a failed save
// does not leave an empty one behind.
func (p Paths) EnsureProjectDir() error {
	if err := os.MkdirAll(p.ProjectDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.ProjectDir, err)
	}
	slog.Debug("Ensured directory exists", slog.String("directory", p.ProjectDir))
	return nil
}

// FileExists reports whether path can be stat'ed. A path below a regular
// file counts as missing.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
