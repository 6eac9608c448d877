package preprocess

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalab/internal/dataset"
	apperrors "datalab/internal/errors"
	"datalab/internal/shared/testutil"
)

var cleanedColumns = []string{
	"longitude", "latitude", "housing_median_age", "ocean_proximity",
	"log_households", "log_median_income", "log_rooms_per_household",
	"log_population_per_household", "log_bedrooms_per_room", "log_median_house_value",
}

func housingTable(t *testing.T, rows ...testutil.HousingRow) dataframe.DataFrame {
	t.Helper()
	df, err := dataset.ReadTable(strings.NewReader(testutil.HousingCSV(rows...)))
	require.NoError(t, err)
	return df
}

func validRows(n int) []testutil.HousingRow {
	rows := make([]testutil.HousingRow, n)
	for i := range rows {
		rows[i] = testutil.ValidHousingRow(i)
	}
	return rows
}

func TestClean_Deduplicates(t *testing.T) {
	rows := validRows(9)
	rows = append(rows, rows[3])
	require.Len(t, rows, 10)

	out, report, err := CleanWithReport(housingTable(t, rows...), HousingRules())
	require.NoError(t, err)

	assert.Equal(t, Report{Input: 10, Deduplicated: 9, Valid: 9, Output: 9}, report)
	assert.Equal(t, 9, out.Nrow())
}

func TestClean_ValidityPredicates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testutil.HousingRow)
		kept   bool
	}{
		{"valid", func(*testutil.HousingRow) {}, true},
		{"median income above bound", func(r *testutil.HousingRow) { r.Income = 20 }, false},
		{"median income at bound", func(r *testutil.HousingRow) { r.Income = 15 }, false},
		{"median income just below bound", func(r *testutil.HousingRow) { r.Income = 14.9999 }, true},
		{"age at bound", func(r *testutil.HousingRow) { r.Age = 52 }, false},
		{"age below bound", func(r *testutil.HousingRow) { r.Age = 51 }, true},
		{"house value capped", func(r *testutil.HousingRow) { r.Value = 500001 }, false},
		{"house value below cap", func(r *testutil.HousingRow) { r.Value = 500000 }, true},
		{"island", func(r *testutil.HousingRow) { r.Proximity = "ISLAND" }, false},
		{"inland", func(r *testutil.HousingRow) { r.Proximity = "INLAND" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := testutil.ValidHousingRow(50)
			tt.mutate(&candidate)

			out, report, err := CleanWithReport(housingTable(t, testutil.ValidHousingRow(1), candidate), HousingRules())
			require.NoError(t, err)

			want := 1
			if tt.kept {
				want = 2
			}
			assert.Equal(t, want, report.Valid)
			assert.Equal(t, want, out.Nrow())
		})
	}
}

func TestClean_DerivedColumns(t *testing.T) {
	row := testutil.HousingRow{
		Longitude: -122.23, Latitude: 37.88, Age: 41,
		Rooms: 880, Bedrooms: 129, Population: 322, Households: 126,
		Income: 8.3252, Value: 452600, Proximity: "NEAR BAY",
	}

	out, err := Clean(housingTable(t, row), HousingRules())
	require.NoError(t, err)
	require.Equal(t, 1, out.Nrow())
	assert.Equal(t, cleanedColumns, out.Names())

	for _, name := range cleanedColumns {
		if name == "ocean_proximity" {
			continue
		}
		assert.Equal(t, series.Float, out.Col(name).Type(), name)
	}

	want := map[string]float64{
		"log_households":               math.Log10(126),
		"log_median_income":            math.Log10(8.3252),
		"log_rooms_per_household":      math.Log10(880.0 / 126.0),
		"log_population_per_household": math.Log10(322.0 / 126.0),
		"log_bedrooms_per_room":        math.Log10(129.0 / 880.0),
		"log_median_house_value":       math.Log10(452600),
	}
	for name, v := range want {
		assert.InDelta(t, v, out.Col(name).Float()[0], 1e-12, name)
	}
	assert.Equal(t, []string{"NEAR BAY"}, out.Col("ocean_proximity").Records())
}

func TestClean_CutPoint(t *testing.T) {
	tests := []struct {
		name       string
		households float64
		kept       bool
	}{
		{"above cut point", 101, true},
		{"just below cut point", 99, false},
		{"below cut point", 10, false},
		{"zero households", 0, false},
		{"negative households", -5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := testutil.ValidHousingRow(7)
			candidate.Households = tt.households

			out, report, err := CleanWithReport(housingTable(t, testutil.ValidHousingRow(1), candidate), HousingRules())
			require.NoError(t, err)

			assert.Equal(t, 2, report.Valid)
			want := 1
			if tt.kept {
				want = 2
			}
			assert.Equal(t, want, out.Nrow())
		})
	}
}

func TestFilter_CutPointIsExclusive(t *testing.T) {
	df := dataframe.New(series.New([]float64{2.0, 2.5, math.Inf(-1), math.NaN()}, series.Float, "log_households"))

	out, err := filter(df, dataframe.F{Colname: "log_households", Comparator: series.Greater, Comparando: 2.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, out.Col("log_households").Float())
}

func TestClean_UndefinedLogsOutsideCutPointAreKept(t *testing.T) {
	csv := testutil.HousingCSV(testutil.ValidHousingRow(1), testutil.ValidHousingRow(2))
	lines := strings.Split(strings.TrimSuffix(csv, "\n"), "\n")
	// Blank total_bedrooms in the second row
	cells := strings.Split(lines[2], ",")
	cells[4] = ""
	lines[2] = strings.Join(cells, ",")

	df, err := dataset.ReadTable(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)

	out, err := Clean(df, HousingRules())
	require.NoError(t, err)
	require.Equal(t, 2, out.Nrow())

	bedrooms := out.Col("log_bedrooms_per_room").Float()
	assert.False(t, math.IsNaN(bedrooms[0]))
	assert.True(t, math.IsNaN(bedrooms[1]))
}

func TestClean_EmptyTable(t *testing.T) {
	out, report, err := CleanWithReport(housingTable(t), HousingRules())
	require.NoError(t, err)

	assert.Equal(t, 0, out.Nrow())
	assert.Equal(t, cleanedColumns, out.Names())
	assert.Equal(t, Report{}, report)
}

func TestClean_Deterministic(t *testing.T) {
	rows := validRows(20)
	rows = append(rows, rows[0], rows[5])

	first, err := Clean(housingTable(t, rows...), HousingRules())
	require.NoError(t, err)
	second, err := Clean(housingTable(t, rows...), HousingRules())
	require.NoError(t, err)

	for _, name := range first.Names() {
		assert.Equal(t, first.Col(name).Records(), second.Col(name).Records(), name)
	}
}

func TestClean_SecondPassFails(t *testing.T) {
	once, err := Clean(housingTable(t, validRows(5)...), HousingRules())
	require.NoError(t, err)

	_, err = Clean(once, HousingRules())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "total_rooms")
}

func TestClean_MissingColumn(t *testing.T) {
	df := housingTable(t, validRows(3)...).Drop([]string{"ocean_proximity"})
	require.NoError(t, df.Err)

	_, err := Clean(df, HousingRules())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "ocean_proximity")
}

func TestClean_BrokenTable(t *testing.T) {
	_, err := Clean(dataframe.DataFrame{Err: assert.AnError}, HousingRules())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidArgument))
}
