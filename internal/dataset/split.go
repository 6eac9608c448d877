package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gota/gota/dataframe"

	apperrors "datalab/internal/errors"
)

// TestCount is the number of rows assigned to the test partition of an
// n-row table
func TestCount(n int, testSize float64) int {
	return int(math.Round(float64(n) * testSize))
}

// Split partitions df into train and test tables. Row indices are shuffled
// with a generator seeded by seed; the first TestCount rows of the
// permutation form the test table and the rest the train table, each in
// permuted order. The same table, fraction and seed always give the same
// partition.
func Split(df dataframe.DataFrame, testSize float64, seed int64) (train, test dataframe.DataFrame, err error) {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return train, test, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("test size must be in (0, 1), got %v", testSize))
	}
	if df.Err != nil {
		return train, test, apperrors.NewInvalidArgumentError(fmt.Sprintf("invalid table: %v", df.Err))
	}
	n := df.Nrow()
	if n == 0 {
		return train, test, apperrors.NewInvalidArgumentError("cannot split an empty table")
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := TestCount(n, testSize)

	return Take(df, perm[nTest:]), Take(df, perm[:nTest]), nil
}
