package testutil

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("keeps attributes from With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "fetcher").Info("downloading")

		assert.True(t, handler.ContainsAttr("component", "fetcher"))
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("a", 1).Info("one")
		logger.WithGroup("g").Info("two", slog.String("k", "v"))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("g.k", "v"))

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}

func TestHousingCSV(t *testing.T) {
	csv := HousingCSV(ValidHousingRow(0), ValidHousingRow(1))

	lines := strings.Split(strings.TrimSuffix(csv, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "longitude,latitude,housing_median_age,total_rooms,total_bedrooms,population,households,median_income,median_house_value,ocean_proximity", lines[0])
	assert.Contains(t, lines[1], `"NEAR BAY"`)
}
