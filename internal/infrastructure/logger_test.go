package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalab/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_InjectsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "stage started", "stage", "fetch")
	logger.Info("no context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "run-123", lines[0]["run_id"])
	assert.Equal(t, "fetch", lines[0]["stage"])
	assert.NotContains(t, lines[1], "run_id")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in).String())
		})
	}
}

func TestCreateLogger_FileOutput(t *testing.T) {
	defer ResetLoggerForTesting()

	path := filepath.Join(t.TempDir(), "logs", "datalab.log")
	var console bytes.Buffer

	logger, err := createLogger(config.LoggingConfig{Level: "info", Output: "both", FilePath: path}, &console)
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, console.String(), `"msg":"hello"`)
}

func TestRunIDHelpers(t *testing.T) {
	assert.Empty(t, GetRunID(context.Background()))
	//nolint:staticcheck // nil context is tolerated
	assert.Empty(t, GetRunID(nil))

	ctx := EnsureRunID(context.Background())
	id := GetRunID(ctx)
	assert.Len(t, id, 36)

	// Existing IDs are kept
	assert.Equal(t, id, GetRunID(EnsureRunID(ctx)))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	WithComponent(NewLogger(&buf, "info"), "extractor").Info("done")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "extractor", lines[0]["component"])
}
