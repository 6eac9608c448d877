package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "datalab/internal/errors"
)

// TableExtensions are the file extensions accepted for delimited tables
var TableExtensions = []string{".csv"}

// FileValidator checks dataset files and output locations before they are used
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and can be opened
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Debug("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if !info.Mode().IsRegular() {
		v.logger.Error("Path is not a regular file",
			slog.String("path", path),
			slog.String("mode", info.Mode().String()))
		return apperrors.NewInvalidArgumentError(fmt.Sprintf("%s is not a regular file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateTableFile checks that path is a readable delimited table file
func (v *FileValidator) ValidateTableFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range TableExtensions {
		if ext == allowed {
			return nil
		}
	}
	v.logger.Error("File is not a table file",
		slog.String("file", path),
		slog.String("extension", ext))
	return apperrors.NewInvalidArgumentError(fmt.Sprintf("file %s is not a CSV file (extension: %q)", path, ext))
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a scratch file
	scratch, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	scratch.Close()
	os.Remove(scratch.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
