package operations

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalab/internal/dataset"
	apperrors "datalab/internal/errors"
	"datalab/internal/infrastructure"
	"datalab/internal/preprocess"
	logtest "datalab/internal/shared/testutil"
)

// tableLoader hands out a fixed table
type tableLoader struct {
	df    dataframe.DataFrame
	err   error
	calls int
}

func (l *tableLoader) Load(ctx context.Context, dataDir string) (dataframe.DataFrame, error) {
	l.calls++
	return l.df, l.err
}

func housingTable(t *testing.T, n int) dataframe.DataFrame {
	t.Helper()
	rows := make([]logtest.HousingRow, n)
	for i := range rows {
		rows[i] = logtest.ValidHousingRow(i)
	}
	df, err := dataset.ReadTable(strings.NewReader(logtest.HousingCSV(rows...)))
	require.NoError(t, err)
	return df
}

func newStageOptions(t *testing.T, src dataset.Source) *StageOptions {
	t.Helper()
	logger, _ := logtest.NewTestLogger(t)
	return &StageOptions{
		DataDir:    t.TempDir(),
		Source:     src,
		Experiment: dataset.ExperimentConfig{TestSize: 0.2, RandomState: 42},
		Store:      dataset.NewStore(logger),
		Metrics:    infrastructure.NewMetrics(),
		Logger:     logger,
	}
}

func TestPipeline_Housing(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	loader := &tableLoader{df: housingTable(t, 10)}

	m, err := NewPipeline(loader, opts)
	require.NoError(t, err)

	state, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{StageIDLoad, StageIDPreprocess, StageIDSplit, StageIDVerify}, state.Order)
	for _, id := range state.Order {
		assert.Equal(t, StepStatusCompleted, state.GetStage(id).GetStatus(), id)
	}

	val, ok := state.GetContext(ContextKeyCleanReport)
	require.True(t, ok)
	assert.Equal(t, preprocess.Report{Input: 10, Deduplicated: 10, Valid: 10, Output: 10}, val)

	train, err := tableFromContext(state, ContextKeyTrainTable)
	require.NoError(t, err)
	test, err := tableFromContext(state, ContextKeyTestTable)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Nrow())
	assert.Equal(t, 2, test.Nrow())

	processed := dataset.ProcessedDir(opts.DataDir, opts.Source)
	for _, name := range []string{dataset.TrainFile, dataset.TestFile, dataset.MetadataFile, dataset.PreprocessedFile} {
		assert.FileExists(t, filepath.Join(processed, name))
	}
	path, _ := state.GetContext(ContextKeyProcessedPath)
	assert.Equal(t, processed, path)
}

func TestPipeline_NoRulesSkipsPreprocess(t *testing.T) {
	opts := newStageOptions(t, dataset.CarPrice())
	raw := housingTable(t, 5)
	m, err := NewPipeline(&tableLoader{df: raw}, opts)
	require.NoError(t, err)

	state, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDPreprocess).GetStatus())
	assert.Contains(t, state.GetStage(StageIDPreprocess).GetMessage(), "car_price")
	assert.Equal(t, StepStatusCompleted, state.GetStage(StageIDVerify).GetStatus())

	test, err := tableFromContext(state, ContextKeyTestTable)
	require.NoError(t, err)
	assert.Equal(t, 1, test.Nrow())
	assert.Equal(t, raw.Names(), test.Names())
	assert.NoFileExists(t, filepath.Join(dataset.ProcessedDir(opts.DataDir, opts.Source), dataset.PreprocessedFile))
}

func TestPipeline_LoadFailureSkipsRest(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	loadErr := apperrors.NewNetworkError("download failed with status: 404", nil)
	m, err := NewPipeline(&tableLoader{err: loadErr}, opts)
	require.NoError(t, err)

	state, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, StageIDLoad, FailedStep(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	for _, id := range []string{StageIDPreprocess, StageIDSplit, StageIDVerify} {
		assert.Equal(t, StepStatusSkipped, state.GetStage(id).GetStatus(), id)
	}
	assert.NoDirExists(t, dataset.ProcessedDir(opts.DataDir, opts.Source))
}

func TestPipeline_SchemaErrorFromPreprocess(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	raw := housingTable(t, 3).Drop([]string{"total_rooms"})
	require.NoError(t, raw.Err)

	m, err := NewPipeline(&tableLoader{df: raw}, opts)
	require.NoError(t, err)

	_, err = m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, StageIDPreprocess, FailedStep(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestPipeline_InvalidExperiment(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	opts.Experiment.TestSize = 1.5
	m, err := NewPipeline(&tableLoader{df: housingTable(t, 4)}, opts)
	require.NoError(t, err)

	_, err = m.Execute(context.Background(), OperationRequest{})
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrorTypeValidation, opErr.Type)
	assert.Equal(t, StageIDSplit, opErr.Step)
}

func TestPipeline_LoadOnly(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	loader := &tableLoader{df: housingTable(t, 3)}
	m, err := NewPipeline(loader, opts)
	require.NoError(t, err)

	state, err := m.Execute(context.Background(), OperationRequest{Steps: []string{StageIDLoad}})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.Nil(t, state.GetStage(StageIDSplit))
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, &StageOptions{})
	assert.Error(t, err)

	_, err = NewPipeline(&tableLoader{}, &StageOptions{})
	assert.Error(t, err)
}

func TestVerifyStage_DetectsMismatch(t *testing.T) {
	opts := newStageOptions(t, dataset.Housing())
	ctx := context.Background()
	df := housingTable(t, 10)

	_, _, err := opts.Store.SplitAndSave(ctx, opts.DataDir, opts.Source, df, opts.Experiment)
	require.NoError(t, err)

	state := NewOperationState("verify")
	stage := NewVerifyStage(opts)
	state.SetStage(stage.ID(), NewStepState(stage.ID(), stage.Name()))
	state.SetContext(ContextKeyTrainTable, df)
	state.SetContext(ContextKeyTestTable, df)

	err = stage.Execute(ctx, state)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Contains(t, err.Error(), "reloaded train table")
}

func TestTableFromContext(t *testing.T) {
	state := NewOperationState("ctx")
	_, err := tableFromContext(state, ContextKeyRawTable)
	assert.Error(t, err)

	state.SetContext(ContextKeyRawTable, "not a table")
	_, err = tableFromContext(state, ContextKeyRawTable)
	assert.ErrorContains(t, err, "unexpected type string")
}
