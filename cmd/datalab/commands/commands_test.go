package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalab/internal/dataset"
	"datalab/internal/shared/testutil"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// runCLI executes datalab against a temporary data directory
func runCLI(t *testing.T, dataDir string, args ...string) result {
	t.Helper()
	cfgFile := testutil.WriteFile(t, t.TempDir(), "datalab.yaml", "logging:\n  level: error\n")

	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", cfgFile, "--data-dir", dataDir}, args...)
	code := execute(context.Background(), full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// seedHousing places a raw housing table where the loader expects it, so no
// download is attempted
func seedHousing(t *testing.T, n int) string {
	t.Helper()
	dataDir := t.TempDir()
	rows := make([]testutil.HousingRow, n)
	for i := range rows {
		rows[i] = testutil.ValidHousingRow(i)
	}
	dir := filepath.Join(dataDir, "housing")
	require.NoError(t, os.MkdirAll(dir, 0755))
	testutil.WriteFile(t, dir, "housing.csv", testutil.HousingCSV(rows...))
	return dataDir
}

func TestFetch_ExistingTable(t *testing.T) {
	dataDir := seedHousing(t, 3)

	res := runCLI(t, dataDir, "fetch")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, filepath.Join(dataDir, "housing", "housing.csv"), strings.TrimSpace(res.stdout))
}

func TestRun_FullPipeline(t *testing.T) {
	dataDir := seedHousing(t, 10)
	metricsFile := filepath.Join(t.TempDir(), "datalab.prom")

	res := runCLI(t, dataDir, "run", "--metrics-file", metricsFile)
	require.Equal(t, 0, res.code, res.stderr)

	for _, name := range []string{"Dataset Loading", "Preprocessing", "Train/Test Split", "Split Verification"} {
		assert.Contains(t, res.stdout, name)
	}
	assert.Contains(t, res.stdout, "completed")

	processed := filepath.Join(dataDir, "housing", "processed")
	for _, name := range []string{dataset.TrainFile, dataset.TestFile, dataset.MetadataFile, dataset.PreprocessedFile} {
		assert.FileExists(t, filepath.Join(processed, name))
	}

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `datalab_rows{step="split_train"} 8`)
	assert.Contains(t, string(metrics), `datalab_rows{step="split_test"} 2`)

	show := runCLI(t, dataDir, "show", "--head", "2")
	require.Equal(t, 0, show.code, show.stderr)
	assert.Contains(t, show.stdout, "test_size=0.2 random_state=42")
	assert.Contains(t, show.stdout, "log_households")
}

func TestRun_FailureExitsNonZero(t *testing.T) {
	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, "housing")
	require.NoError(t, os.MkdirAll(dir, 0755))
	testutil.WriteFile(t, dir, "housing.csv", "longitude,latitude\n-122.2,37.8\n")

	res := runCLI(t, dataDir, "run")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "preprocess")
	assert.Contains(t, res.stdout, "skipped")
}

func TestPreprocessThenSplit(t *testing.T) {
	dataDir := seedHousing(t, 10)

	pre := runCLI(t, dataDir, "preprocess")
	require.Equal(t, 0, pre.code, pre.stderr)
	assert.Contains(t, pre.stdout, "after cut point")

	split := runCLI(t, dataDir, "split", "--test-size", "0.3", "--seed", "7")
	require.Equal(t, 0, split.code, split.stderr)
	assert.Contains(t, split.stdout, "train: 7 rows, test: 3 rows (test_size=0.3, random_state=7)")

	meta, err := os.ReadFile(filepath.Join(dataDir, "housing", "processed", dataset.MetadataFile))
	require.NoError(t, err)
	cfg, err := dataset.DecodeMetadata(bytes.NewReader(meta))
	require.NoError(t, err)
	assert.Equal(t, dataset.ExperimentConfig{TestSize: 0.3, RandomState: 7}, cfg)
}

func TestSplit_InvalidTestSize(t *testing.T) {
	dataDir := seedHousing(t, 4)

	res := runCLI(t, dataDir, "split", "--test-size", "1.5")
	assert.Equal(t, 1, res.code)
	assert.NoDirExists(t, filepath.Join(dataDir, "housing", "processed"))
}

func TestPreprocess_NoRules(t *testing.T) {
	res := runCLI(t, t.TempDir(), "--dataset", "car_price", "preprocess")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no cleaning rules")
}

func TestUnknownDataset(t *testing.T) {
	res := runCLI(t, t.TempDir(), "--dataset", "iris", "fetch")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "iris")
}

func TestInfo_JSON(t *testing.T) {
	dataDir := seedHousing(t, 5)

	res := runCLI(t, dataDir, "info", "--print", "json")
	require.Equal(t, 0, res.code, res.stderr)

	var decoded map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &decoded))
	assert.Equal(t, 5.0, decoded["numerical"]["count"]["median_income"])
	assert.Equal(t, "NEAR BAY", decoded["categorical"]["top"]["ocean_proximity"])
}

func TestInfo_DefaultsToText(t *testing.T) {
	dataDir := seedHousing(t, 3)

	res := runCLI(t, dataDir, "info")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "Descriptive statistics:"), res.stdout)
	assert.Contains(t, res.stdout, "median_income")
}

func TestInfo_OutputFile(t *testing.T) {
	dataDir := seedHousing(t, 5)
	out := filepath.Join(t.TempDir(), "reports", "stats.md")

	res := runCLI(t, dataDir, "info", "-p", "markdown", "-o", out)
	require.Equal(t, 0, res.code, res.stderr)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Descriptive statistics"))
	assert.Contains(t, string(content), "households")
}

func TestInfo_BadArguments(t *testing.T) {
	dataDir := seedHousing(t, 2)

	assert.Equal(t, 1, runCLI(t, dataDir, "info", "--print", "xml").code)
	assert.Equal(t, 1, runCLI(t, dataDir, "info", "--table", "validation").code)
	assert.Equal(t, 1, runCLI(t, dataDir, "info", "--table", "train").code)
}
