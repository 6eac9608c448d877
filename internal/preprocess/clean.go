package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"datalab/internal/dataset"
	apperrors "datalab/internal/errors"
)

// Report counts rows after each cleaning step
type Report struct {
	Input        int `json:"input"`
	Deduplicated int `json:"deduplicated"`
	Valid        int `json:"valid"`
	Output       int `json:"output"`
}

// Clean applies rules to df and returns the cleaned table. It has no side
// effects and is deterministic. An empty table yields an empty table. A table
// lacking any column the rules read, such as an already cleaned table, is a
// schema error.
func Clean(df dataframe.DataFrame, rules Rules) (dataframe.DataFrame, error) {
	out, _, err := CleanWithReport(df, rules)
	return out, err
}

// CleanWithReport is Clean that also reports row counts per step
func CleanWithReport(df dataframe.DataFrame, rules Rules) (dataframe.DataFrame, Report, error) {
	var report Report
	if df.Err != nil {
		return df, report, apperrors.NewInvalidArgumentError(fmt.Sprintf("invalid table: %v", df.Err))
	}
	if err := checkColumns(df, rules.RequiredColumns()); err != nil {
		return df, report, err
	}
	report.Input = df.Nrow()

	df, err := toFloat(df, rules.numericColumns())
	if err != nil {
		return df, report, err
	}

	df = dropDuplicates(df)
	report.Deduplicated = df.Nrow()

	for _, b := range rules.Bounds {
		if df, err = filter(df, dataframe.F{Colname: b.Column, Comparator: series.Less, Comparando: b.Max}); err != nil {
			return df, report, err
		}
	}
	if rules.CategoryColumn != "" {
		if df, err = filter(df, dataframe.F{Colname: rules.CategoryColumn, Comparator: series.Neq, Comparando: rules.ExcludedCategory}); err != nil {
			return df, report, err
		}
	}
	report.Valid = df.Nrow()

	for _, r := range rules.Ratios {
		num := df.Col(r.Numerator).Float()
		den := df.Col(r.Denominator).Float()
		vals := make([]float64, len(num))
		for i := range num {
			vals[i] = num[i] / den[i]
		}
		df = df.Mutate(series.New(vals, series.Float, r.Name))
	}
	if df, err = drop(df, rules.RatioDrops); err != nil {
		return df, report, err
	}

	for _, c := range rules.LogColumns {
		vals := df.Col(c).Float()
		logs := make([]float64, len(vals))
		for i, v := range vals {
			logs[i] = math.Log10(v)
		}
		df = df.Mutate(series.New(logs, series.Float, rules.LogPrefix+c))
	}
	if df, err = drop(df, rules.LogColumns); err != nil {
		return df, report, err
	}

	// Only the cut-point column guards against undefined logs
	if rules.CutPointColumn != "" {
		if df, err = filter(df, dataframe.F{Colname: rules.CutPointColumn, Comparator: series.Greater, Comparando: rules.CutPoint}); err != nil {
			return df, report, err
		}
	}
	report.Output = df.Nrow()

	return df, report, nil
}

func checkColumns(df dataframe.DataFrame, required []string) error {
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}

	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewSchemaError("missing required columns: " + strings.Join(missing, ", "))
	}
	return nil
}

// toFloat converts the named columns to float columns. Cells that do not
// parse become NaN.
func toFloat(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	types := make(map[string]series.Type, df.Ncol())
	for i, name := range df.Names() {
		types[name] = df.Types()[i]
	}

	for _, c := range cols {
		if types[c] == series.Float {
			continue
		}
		df = df.Mutate(series.New(df.Col(c).Float(), series.Float, c))
	}
	if df.Err != nil {
		return df, apperrors.NewSchemaError(fmt.Sprintf("failed to convert numeric columns: %v", df.Err))
	}
	return df, nil
}

// dropDuplicates keeps the first occurrence of every distinct row
func dropDuplicates(df dataframe.DataFrame) dataframe.DataFrame {
	n := df.Nrow()
	if n == 0 {
		return df
	}

	names := df.Names()
	types := df.Types()
	cells := make([][]string, len(names))
	for j, name := range names {
		col := df.Col(name)
		if types[j] == series.Float {
			vals := col.Float()
			cells[j] = make([]string, n)
			for i, v := range vals {
				cells[j][i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			continue
		}
		cells[j] = col.Records()
	}

	seen := make(map[string]bool, n)
	keep := make([]int, 0, n)
	row := make([]string, len(names))
	for i := 0; i < n; i++ {
		for j := range names {
			row[j] = cells[j][i]
		}
		key := strings.Join(row, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}

	if len(keep) == n {
		return df
	}
	return dataset.Take(df, keep)
}

// filter keeps the rows matching f
func filter(df dataframe.DataFrame, f dataframe.F) (dataframe.DataFrame, error) {
	if df.Nrow() == 0 {
		return df, nil
	}
	out := df.Filter(f)
	if out.Err != nil {
		return df, apperrors.NewSchemaError(fmt.Sprintf("filter on %s failed: %v", f.Colname, out.Err))
	}
	return out, nil
}

func drop(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	if len(cols) == 0 {
		return df, nil
	}
	out := df.Drop(cols)
	if out.Err != nil {
		return df, apperrors.NewSchemaError(fmt.Sprintf("failed to drop columns: %v", out.Err))
	}
	return out, nil
}
