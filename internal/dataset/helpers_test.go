package dataset

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertTablesEqual compares names, types and every cell, treating NaN as
// equal to NaN
func assertTablesEqual(t *testing.T, want, got dataframe.DataFrame) {
	t.Helper()
	require.NoError(t, got.Err)
	require.Equal(t, want.Names(), got.Names())
	require.Equal(t, want.Types(), got.Types())
	require.Equal(t, want.Nrow(), got.Nrow())

	for j, name := range want.Names() {
		if want.Types()[j] == series.Float {
			wv, gv := want.Col(name).Float(), got.Col(name).Float()
			for i := range wv {
				if math.IsNaN(wv[i]) {
					assert.True(t, math.IsNaN(gv[i]), "column %s row %d", name, i)
					continue
				}
				assert.Equal(t, wv[i], gv[i], "column %s row %d", name, i)
			}
			continue
		}
		assert.Equal(t, want.Col(name).Records(), got.Col(name).Records(), "column %s", name)
	}
}

// indexedTable builds an n-row table with a unique integer id column
func indexedTable(n int) dataframe.DataFrame {
	ids := make([]int, n)
	vals := make([]float64, n)
	for i := range ids {
		ids[i] = i
		vals[i] = float64(i) * 1.5
	}
	return dataframe.New(
		series.New(ids, series.Int, "id"),
		series.New(vals, series.Float, "value"),
	)
}

func ids(t *testing.T, df dataframe.DataFrame) []int {
	t.Helper()
	out, err := df.Col("id").Int()
	require.NoError(t, err)
	return out
}
