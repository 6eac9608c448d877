package dataset

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-gota/gota/dataframe"
	"go.opentelemetry.io/otel/attribute"

	"datalab/internal/config"
	apperrors "datalab/internal/errors"
	"datalab/internal/files"
	"datalab/internal/infrastructure"
	"datalab/internal/validation"
)

// ArchiveFetcher downloads an archive into dir and returns its path
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url, dir, archiveName string) (string, error)
}

// ArchiveExtractor unpacks an archive into dest and returns the files written
type ArchiveExtractor interface {
	Extract(ctx context.Context, archivePath, dest string) ([]string, error)
}

// Loader reads a source's table, fetching and extracting the archive first
// when the table is not on disk yet
type Loader struct {
	source    Source
	fetcher   ArchiveFetcher
	extractor ArchiveExtractor
	logger    *slog.Logger
}

// NewLoader creates a loader for src
func NewLoader(src Source, fetcher ArchiveFetcher, extractor ArchiveExtractor, logger *slog.Logger) *Loader {
	return &Loader{
		source:    src,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    infrastructure.WithComponent(logger, "loader").With("dataset", src.Name),
	}
}

// Source returns the dataset the loader reads
func (l *Loader) Source() Source {
	return l.source
}

// Ensure makes sure the table file exists below dataDir and returns its path.
// An existing file is trusted and no network request is made.
func (l *Loader) Ensure(ctx context.Context, dataDir string) (string, error) {
	if err := l.source.Validate(); err != nil {
		return "", err
	}

	paths := config.GetPaths(dataDir, l.source.Name)
	tablePath := paths.ProjectFile(l.source.TableName)
	if config.FileExists(tablePath) {
		l.logger.DebugContext(ctx, "Table already present, skipping download", slog.String("path", tablePath))
		return tablePath, nil
	}

	ctx, span := infrastructure.Tracer(infrastructure.TracerName).Start(ctx, "dataset.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("dataset", l.source.Name))

	if err := paths.EnsureProjectDir(); err != nil {
		span.RecordError(err)
		return "", apperrors.NewStorageError("failed to prepare dataset directory", err).
			WithContext("dataset", l.source.Name)
	}

	archivePath, err := l.fetcher.Fetch(ctx, l.source.URL, paths.ProjectDir, l.source.ArchiveName)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	extracted, err := l.extractor.Extract(ctx, archivePath, paths.ProjectDir)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("files", len(extracted)))

	if l.source.RemoveArchive {
		if err := files.NewManager(paths, l.logger).DeleteFile(archivePath); err != nil {
			l.logger.WarnContext(ctx, "Failed to remove archive", slog.String("path", archivePath), slog.String("error", err.Error()))
		}
	}

	if err := validation.NewFileValidator(l.logger).ValidateTableFile(tablePath); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return "", appErr.WithContext("archive", archivePath)
		}
		return "", err
	}
	return tablePath, nil
}

// Load returns the parsed table of the source below dataDir
func (l *Loader) Load(ctx context.Context, dataDir string) (dataframe.DataFrame, error) {
	tablePath, err := l.Ensure(ctx, dataDir)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df, err := ReadTableFile(tablePath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	l.logger.InfoContext(ctx, "Loaded table",
		slog.String("path", tablePath),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))
	return df, nil
}
