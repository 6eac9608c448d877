package dataset

import (
	"math"
	"sort"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "datalab/internal/errors"
)

func TestSplit_Sizes(t *testing.T) {
	train, test, err := Split(indexedTable(100), 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, 20, test.Nrow())
	assert.Equal(t, 80, train.Nrow())
}

func TestSplit_Reproducible(t *testing.T) {
	df := indexedTable(100)

	train1, test1, err := Split(df, 0.2, 42)
	require.NoError(t, err)
	train2, test2, err := Split(df, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, ids(t, train1), ids(t, train2))
	assert.Equal(t, ids(t, test1), ids(t, test2))

	_, test3, err := Split(df, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, ids(t, test1), ids(t, test3))
}

func TestSplit_Partition(t *testing.T) {
	for _, n := range []int{1, 2, 7, 33, 100} {
		for _, size := range []float64{0.1, 0.25, 0.5, 0.9} {
			train, test, err := Split(indexedTable(n), size, int64(n))
			require.NoError(t, err)

			all := append(ids(t, train), ids(t, test)...)
			sort.Ints(all)

			want := make([]int, n)
			for i := range want {
				want[i] = i
			}
			assert.Equal(t, want, all, "n=%d size=%v", n, size)
			assert.Equal(t, TestCount(n, size), test.Nrow())
		}
	}
}

func TestSplit_KeepsColumns(t *testing.T) {
	df := indexedTable(10)
	train, test, err := Split(df, 0.3, 1)
	require.NoError(t, err)

	assert.Equal(t, df.Names(), train.Names())
	assert.Equal(t, df.Types(), test.Types())
}

func TestSplit_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		df       dataframe.DataFrame
		testSize float64
	}{
		{"zero fraction", indexedTable(10), 0},
		{"one fraction", indexedTable(10), 1},
		{"negative fraction", indexedTable(10), -0.2},
		{"above one", indexedTable(10), 1.5},
		{"NaN fraction", indexedTable(10), math.NaN()},
		{"empty table", EmptyLike(indexedTable(3)), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.df, tt.testSize, 42)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidArgument))
		})
	}
}

func TestTestCount(t *testing.T) {
	tests := []struct {
		n    int
		size float64
		want int
	}{
		{100, 0.2, 20},
		{10, 0.25, 3},
		{3, 0.1, 0},
		{1, 0.5, 1},
		{20433, 0.2, 4087},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TestCount(tt.n, tt.size), "n=%d size=%v", tt.n, tt.size)
	}
}
