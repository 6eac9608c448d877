package dataset

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"go.opentelemetry.io/otel/attribute"

	"datalab/internal/config"
	apperrors "datalab/internal/errors"
	"datalab/internal/exporter"
	"datalab/internal/files"
	"datalab/internal/infrastructure"
)

// Artifact file names inside a processed directory
const (
	TrainFile        = "train.csv"
	TestFile         = "test.csv"
	MetadataFile     = "metadata.json"
	PreprocessedFile = "preprocessed_data.csv"
)

// Store persists split tables and their experiment configuration
type Store struct {
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewStore creates a new store
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		writer: exporter.NewCSVWriter(logger),
		logger: infrastructure.WithComponent(logger, "store"),
	}
}

func (s *Store) manager(basepath string) *files.Manager {
	return files.NewManager(config.Paths{ProjectDir: basepath, ProcessedDir: basepath}, s.logger)
}

func (s *Store) tableWriter(df dataframe.DataFrame) func(io.Writer) error {
	return func(w io.Writer) error {
		return s.writer.WriteTable(w, df, exporter.WriteOptions{})
	}
}

// Save writes train.csv, test.csv and metadata.json under basepath, creating
// directories as needed. Either all three artifacts are written or, on
// failure, everything Save wrote (including directories it created) is
// removed before the error is returned.
func (s *Store) Save(ctx context.Context, cfg ExperimentConfig, train, test dataframe.DataFrame, basepath string) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	_, span := infrastructure.Tracer(infrastructure.TracerName).Start(ctx, "dataset.save")
	defer span.End()

	metadata, err := EncodeMetadata(cfg)
	if err != nil {
		return apperrors.NewStorageError("failed to encode metadata", err)
	}

	tx := s.manager(basepath).Begin()
	defer func() {
		if err != nil {
			span.RecordError(err)
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "Failed to clean up partial split",
					slog.String("basepath", basepath),
					slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err := tx.CreateDirectory(""); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("path", basepath)
	}

	artifacts := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TrainFile, s.tableWriter(train)},
		{TestFile, s.tableWriter(test)},
		{MetadataFile, func(w io.Writer) error {
			_, werr := w.Write(metadata)
			return werr
		}},
	}
	for _, a := range artifacts {
		if err := tx.CreateFile(a.name, a.write); err != nil {
			return apperrors.NewStorageError("failed to write "+a.name, err).WithContext("path", basepath)
		}
	}
	tx.Commit()

	span.SetAttributes(
		attribute.Int("train_rows", train.Nrow()),
		attribute.Int("test_rows", test.Nrow()))
	s.logger.InfoContext(ctx, "Saved split",
		slog.String("basepath", basepath),
		slog.Int("train_rows", train.Nrow()),
		slog.Int("test_rows", test.Nrow()),
		slog.Float64("test_size", cfg.TestSize),
		slog.Int64("random_state", cfg.RandomState))
	return nil
}

// Load reads back what Save wrote. A missing artifact is a not-found error;
// undecodable metadata or tables are parse errors.
func (s *Store) Load(ctx context.Context, basepath string) (train, test dataframe.DataFrame, cfg ExperimentConfig, err error) {
	m := s.manager(basepath)

	var missing []string
	for _, name := range []string{TrainFile, TestFile, MetadataFile} {
		if !m.FileExists(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return train, test, cfg, apperrors.NewNotFoundError(strings.Join(missing, ", "), nil).
			WithContext("path", basepath)
	}

	paths := m.Paths()
	data, err := os.ReadFile(paths.ProcessedFile(MetadataFile))
	if err != nil {
		return train, test, cfg, apperrors.NewStorageError("failed to read metadata", err)
	}
	if cfg, err = decodeMetadataBytes(data); err != nil {
		return train, test, cfg, err
	}
	if train, err = ReadTableFile(paths.ProcessedFile(TrainFile)); err != nil {
		return train, test, cfg, err
	}
	if test, err = ReadTableFile(paths.ProcessedFile(TestFile)); err != nil {
		return train, test, cfg, err
	}

	s.logger.InfoContext(ctx, "Loaded split",
		slog.String("basepath", basepath),
		slog.Int("train_rows", train.Nrow()),
		slog.Int("test_rows", test.Nrow()))
	return train, test, cfg, nil
}

// SaveTable writes a single table to basepath/name, creating basepath
func (s *Store) SaveTable(ctx context.Context, df dataframe.DataFrame, basepath, name string) (err error) {
	tx := s.manager(basepath).Begin()
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := tx.CreateDirectory(""); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("path", basepath)
	}
	if err := tx.CreateFile(name, s.tableWriter(df)); err != nil {
		return apperrors.NewStorageError("failed to write "+name, err).WithContext("path", basepath)
	}
	tx.Commit()

	s.logger.InfoContext(ctx, "Saved table",
		slog.String("basepath", basepath),
		slog.String("file", name),
		slog.Int("rows", df.Nrow()))
	return nil
}

// SplitAndSave splits df and stores the result in the source's processed directory
func (s *Store) SplitAndSave(ctx context.Context, dataDir string, src Source, df dataframe.DataFrame, cfg ExperimentConfig) (train, test dataframe.DataFrame, err error) {
	if err := cfg.Validate(); err != nil {
		return train, test, err
	}
	if train, test, err = Split(df, cfg.TestSize, cfg.RandomState); err != nil {
		return train, test, err
	}
	if err = s.Save(ctx, cfg, train, test, ProcessedDir(dataDir, src)); err != nil {
		return train, test, err
	}
	return train, test, nil
}

// LoadSplit reads the split stored for src
func (s *Store) LoadSplit(ctx context.Context, dataDir string, src Source) (train, test dataframe.DataFrame, cfg ExperimentConfig, err error) {
	return s.Load(ctx, ProcessedDir(dataDir, src))
}

// SavePreprocessed stores a cleaned table as processed/preprocessed_data.csv
func (s *Store) SavePreprocessed(ctx context.Context, dataDir string, src Source, df dataframe.DataFrame) error {
	return s.SaveTable(ctx, df, ProcessedDir(dataDir, src), PreprocessedFile)
}

// LoadPreprocessed reads processed/preprocessed_data.csv for src
func (s *Store) LoadPreprocessed(ctx context.Context, dataDir string, src Source) (dataframe.DataFrame, error) {
	path := config.GetPaths(dataDir, src.Name).ProcessedFile(PreprocessedFile)
	df, err := ReadTableFile(path)
	if err != nil {
		return df, err
	}
	s.logger.DebugContext(ctx, "Loaded preprocessed table", slog.String("path", path), slog.Int("rows", df.Nrow()))
	return df, nil
}

// ProcessedDir is <dataDir>/<source>/processed
func ProcessedDir(dataDir string, src Source) string {
	return config.GetPaths(dataDir, src.Name).ProcessedDir
}
