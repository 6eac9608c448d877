package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	apperrors "datalab/internal/errors"
	"datalab/internal/infrastructure"
)

// Format identifies an archive container
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTar   Format = "tar"
)

// DetectFormat infers the archive format from the file name
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	}
	return "", apperrors.NewArchiveError("unsupported archive format", nil).WithContext("file", name)
}

// Extractor unpacks dataset archives
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: infrastructure.WithComponent(logger, "extractor")}
}

// Extract unpacks every member of archivePath into dest and returns the paths
// of the regular files written. Members whose names would resolve outside
// dest, links and device nodes are rejected before anything outside dest is
// touched.
func (e *Extractor) Extract(ctx context.Context, archivePath, dest string) ([]string, error) {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create extraction directory", err).
			WithContext("dir", dest)
	}

	e.logger.InfoContext(ctx, "Extracting archive",
		slog.String("archive", archivePath),
		slog.String("format", string(format)),
		slog.String("dest", dest))

	var files []string
	switch format {
	case FormatZip:
		files, err = e.extractZip(ctx, archivePath, dest)
	default:
		files, err = e.extractTar(ctx, archivePath, dest, format == FormatTarGz)
	}
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Extracted archive",
		slog.String("archive", archivePath),
		slog.Int("files", len(files)))
	return files, nil
}

// extractZip extracts a zip file to destination directory
func (e *Extractor) extractZip(ctx context.Context, src, dest string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, apperrors.NewArchiveError("failed to open zip archive", err).WithContext("file", src)
	}
	defer r.Close()

	var files []string
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		path, err := safeJoin(dest, f.Name)
		if err != nil {
			return files, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(path, 0755); err != nil {
				return files, apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
			}
			continue
		case !mode.IsRegular():
			return files, apperrors.NewArchiveError("unsupported archive member type", nil).
				WithContext("member", f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			return files, apperrors.NewArchiveError("failed to open archive member", err).WithContext("member", f.Name)
		}
		err = writeMember(path, rc)
		rc.Close()
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// extractTar extracts a plain or gzip-compressed tar file
func (e *Extractor) extractTar(ctx context.Context, src, dest string, gzipped bool) ([]string, error) {
	file, err := os.Open(src)
	if err != nil {
		return nil, apperrors.NewArchiveError("failed to open tar archive", err).WithContext("file", src)
	}
	defer file.Close()

	var stream io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, apperrors.NewArchiveError("failed to open gzip stream", err).WithContext("file", src)
		}
		defer gz.Close()
		stream = gz
	}

	tr := tar.NewReader(stream)
	var files []string
	for {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, apperrors.NewArchiveError("corrupt tar archive", err).WithContext("file", src)
		}

		switch hdr.Typeflag {
		case tar.TypeXGlobalHeader:
			continue
		case tar.TypeDir:
			path, err := safeJoin(dest, hdr.Name)
			if err != nil {
				return files, err
			}
			if err := os.MkdirAll(path, 0755); err != nil {
				return files, apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
			}
		case tar.TypeReg, tar.TypeRegA:
			path, err := safeJoin(dest, hdr.Name)
			if err != nil {
				return files, err
			}
			if err := writeMember(path, tr); err != nil {
				return files, err
			}
			files = append(files, path)
		default:
			return files, apperrors.NewArchiveError(
				fmt.Sprintf("unsupported archive member type %q", hdr.Typeflag), nil).
				WithContext("member", hdr.Name)
		}
	}
	return files, nil
}

// writeMember copies one archive member to path, creating parent directories
func writeMember(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to create file", err).WithContext("path", path)
	}

	_, err = io.Copy(out, r)
	if cerr := out.Close(); err == nil && cerr != nil {
		return apperrors.NewStorageError("failed to close file", cerr).WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewArchiveError("failed to read archive member", err).WithContext("path", path)
	}
	return nil
}

// safeJoin resolves an archive member name below dest, rejecting absolute
// names and names that climb out of dest
func safeJoin(dest, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if name == "" || filepath.IsAbs(clean) || strings.HasPrefix(name, "/") || filepath.VolumeName(clean) != "" {
		return "", apperrors.NewArchiveError("archive member has an absolute path", nil).WithContext("member", name)
	}

	path := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewArchiveError("archive member escapes destination", nil).WithContext("member", name)
	}
	return path, nil
}
