package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gota/gota/dataframe"

	"datalab/internal/dataset"
	apperrors "datalab/internal/errors"
	"datalab/internal/infrastructure"
	"datalab/internal/preprocess"
)

// TableLoader produces the raw table of a dataset
type TableLoader interface {
	Load(ctx context.Context, dataDir string) (dataframe.DataFrame, error)
}

// StageOptions carries what the pipeline steps share
type StageOptions struct {
	DataDir    string
	Source     dataset.Source
	Experiment dataset.ExperimentConfig
	Store      *dataset.Store
	Metrics    *infrastructure.Metrics
	Logger     *slog.Logger
}

func (o *StageOptions) stageLogger(id string) *slog.Logger {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", id), slog.String("dataset", o.Source.Name))
}

// NewPipeline registers the load, preprocess, split and verify steps in order
func NewPipeline(loader TableLoader, opts *StageOptions) (*Manager, error) {
	if loader == nil {
		return nil, fmt.Errorf("pipeline requires a table loader")
	}
	if opts == nil || opts.Store == nil {
		return nil, fmt.Errorf("pipeline requires a store")
	}

	registry := NewRegistry()
	for _, step := range []Step{
		NewLoadStage(loader, opts),
		NewPreprocessStage(opts),
		NewSplitStage(opts),
		NewVerifyStage(opts),
	} {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return NewManager(registry, opts.Logger, opts.Metrics), nil
}

// tableFromContext fetches a table an earlier step stored
func tableFromContext(state *OperationState, key string) (dataframe.DataFrame, error) {
	val, ok := state.GetContext(key)
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("%s not available", key)
	}
	df, ok := val.(dataframe.DataFrame)
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("%s has unexpected type %T", key, val)
	}
	return df, nil
}

// LoadStage reads the raw table, downloading it first when needed
type LoadStage struct {
	BaseStage
	loader  TableLoader
	options *StageOptions
	logger  *slog.Logger
}

// NewLoadStage creates the load step
func NewLoadStage(loader TableLoader, opts *StageOptions) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad),
		loader:    loader,
		options:   opts,
		logger:    opts.stageLogger(StageIDLoad),
	}
}

// Execute loads the table into the operation state
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	df, err := s.loader.Load(ctx, s.options.DataDir)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyRawTable, df)
	state.GetStage(s.ID()).SetMetadata("rows", df.Nrow())
	s.options.Metrics.SetRows(StageIDLoad, df.Nrow())

	s.logger.InfoContext(ctx, "Loaded raw table",
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))
	return nil
}

// PreprocessStage applies the dataset's cleaning rules and stores the result
type PreprocessStage struct {
	BaseStage
	options *StageOptions
	logger  *slog.Logger
}

// NewPreprocessStage creates the preprocess step
func NewPreprocessStage(opts *StageOptions) *PreprocessStage {
	return &PreprocessStage{
		BaseStage: NewBaseStage(StageIDPreprocess, StageNamePreprocess),
		options:   opts,
		logger:    opts.stageLogger(StageIDPreprocess),
	}
}

// Validate requires the raw table
func (s *PreprocessStage) Validate(state *OperationState) error {
	_, err := tableFromContext(state, ContextKeyRawTable)
	return err
}

// Execute cleans the raw table. Datasets without rules pass through unchanged
// and the step is reported as skipped.
func (s *PreprocessStage) Execute(ctx context.Context, state *OperationState) error {
	raw, err := tableFromContext(state, ContextKeyRawTable)
	if err != nil {
		return err
	}
	stepState := state.GetStage(s.ID())

	rules, ok := preprocess.RulesFor(s.options.Source.Name)
	if !ok {
		state.SetContext(ContextKeyCleanTable, raw)
		stepState.Skip(fmt.Sprintf("no cleaning rules for %s", s.options.Source.Name))
		s.logger.InfoContext(ctx, "No cleaning rules, using raw table")
		return nil
	}

	clean, report, err := preprocess.CleanWithReport(raw, rules)
	if err != nil {
		return err
	}
	if err := s.options.Store.SavePreprocessed(ctx, s.options.DataDir, s.options.Source, clean); err != nil {
		return err
	}

	state.SetContext(ContextKeyCleanTable, clean)
	state.SetContext(ContextKeyCleanReport, report)
	stepState.SetMetadata("report", report)
	s.options.Metrics.SetRows(StageIDPreprocess, clean.Nrow())

	s.logger.InfoContext(ctx, "Preprocessed table",
		slog.Int("input_rows", report.Input),
		slog.Int("deduplicated_rows", report.Deduplicated),
		slog.Int("valid_rows", report.Valid),
		slog.Int("output_rows", report.Output))
	return nil
}

// SplitStage shuffles the cleaned table into train and test partitions and
// persists them with their metadata
type SplitStage struct {
	BaseStage
	options *StageOptions
	logger  *slog.Logger
}

// NewSplitStage creates the split step
func NewSplitStage(opts *StageOptions) *SplitStage {
	return &SplitStage{
		BaseStage: NewBaseStage(StageIDSplit, StageNameSplit),
		options:   opts,
		logger:    opts.stageLogger(StageIDSplit),
	}
}

// Validate requires the cleaned table and a valid experiment config
func (s *SplitStage) Validate(state *OperationState) error {
	if _, err := tableFromContext(state, ContextKeyCleanTable); err != nil {
		return err
	}
	return s.options.Experiment.Validate()
}

// Execute splits and saves
func (s *SplitStage) Execute(ctx context.Context, state *OperationState) error {
	df, err := tableFromContext(state, ContextKeyCleanTable)
	if err != nil {
		return err
	}

	train, test, err := s.options.Store.SplitAndSave(ctx, s.options.DataDir, s.options.Source, df, s.options.Experiment)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyTrainTable, train)
	state.SetContext(ContextKeyTestTable, test)
	state.SetContext(ContextKeyProcessedPath, dataset.ProcessedDir(s.options.DataDir, s.options.Source))

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("train_rows", train.Nrow())
	stepState.SetMetadata("test_rows", test.Nrow())
	s.options.Metrics.SetRows("split_train", train.Nrow())
	s.options.Metrics.SetRows("split_test", test.Nrow())

	s.logger.InfoContext(ctx, "Split table",
		slog.Float64("test_size", s.options.Experiment.TestSize),
		slog.Int64("random_state", s.options.Experiment.RandomState),
		slog.Int("train_rows", train.Nrow()),
		slog.Int("test_rows", test.Nrow()))
	return nil
}

// VerifyStage reloads the persisted split and checks it against what was written
type VerifyStage struct {
	BaseStage
	options *StageOptions
	logger  *slog.Logger
}

// NewVerifyStage creates the verify step
func NewVerifyStage(opts *StageOptions) *VerifyStage {
	return &VerifyStage{
		BaseStage: NewBaseStage(StageIDVerify, StageNameVerify),
		options:   opts,
		logger:    opts.stageLogger(StageIDVerify),
	}
}

// Validate requires the split tables
func (s *VerifyStage) Validate(state *OperationState) error {
	if _, err := tableFromContext(state, ContextKeyTrainTable); err != nil {
		return err
	}
	_, err := tableFromContext(state, ContextKeyTestTable)
	return err
}

// Execute compares shapes, column names and the recorded experiment config
func (s *VerifyStage) Execute(ctx context.Context, state *OperationState) error {
	train, err := tableFromContext(state, ContextKeyTrainTable)
	if err != nil {
		return err
	}
	test, err := tableFromContext(state, ContextKeyTestTable)
	if err != nil {
		return err
	}

	gotTrain, gotTest, cfg, err := s.options.Store.LoadSplit(ctx, s.options.DataDir, s.options.Source)
	if err != nil {
		return err
	}

	if cfg != s.options.Experiment {
		return apperrors.NewStorageError("reloaded metadata does not match the experiment", nil).
			WithContext("saved", cfg).
			WithContext("expected", s.options.Experiment)
	}
	if err := sameShape("train", train, gotTrain); err != nil {
		return err
	}
	if err := sameShape("test", test, gotTest); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Verified persisted split",
		slog.Int("train_rows", gotTrain.Nrow()),
		slog.Int("test_rows", gotTest.Nrow()))
	return nil
}

func sameShape(name string, want, got dataframe.DataFrame) error {
	if want.Nrow() != got.Nrow() || want.Ncol() != got.Ncol() {
		return apperrors.NewStorageError(fmt.Sprintf("reloaded %s table has shape %dx%d, wrote %dx%d",
			name, got.Nrow(), got.Ncol(), want.Nrow(), want.Ncol()), nil)
	}
	wantNames, gotNames := want.Names(), got.Names()
	for i := range wantNames {
		if wantNames[i] != gotNames[i] {
			return apperrors.NewStorageError(fmt.Sprintf("reloaded %s table has column %q at %d, wrote %q",
				name, gotNames[i], i, wantNames[i]), nil)
		}
	}
	return nil
}
