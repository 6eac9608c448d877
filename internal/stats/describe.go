package stats

import (
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary describes one numeric column. NaN cells are excluded.
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	P50    float64
	P75    float64
	Max    float64
}

// CategoricalSummary describes one string column
type CategoricalSummary struct {
	Column string
	Count  int
	Unique int
	Top    string
	Freq   int
}

// Summary holds descriptive statistics of a whole table
type Summary struct {
	Rows        int
	Numerical   []NumericSummary
	Categorical []CategoricalSummary
}

// Describe computes per-column statistics. Int and Float columns are
// numeric, String columns categorical; Bool columns are skipped.
func Describe(df dataframe.DataFrame) Summary {
	summary := Summary{Rows: df.Nrow()}
	types := df.Types()
	for i, name := range df.Names() {
		col := df.Col(name)
		switch types[i] {
		case series.Int, series.Float:
			summary.Numerical = append(summary.Numerical, describeNumeric(name, col.Float()))
		case series.String:
			summary.Categorical = append(summary.Categorical, describeCategorical(name, col))
		}
	}
	return summary
}

func describeNumeric(name string, values []float64) NumericSummary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	s := NumericSummary{Column: name, Count: len(clean)}
	nan := math.NaN()
	if len(clean) == 0 {
		s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(clean)
	s.Mean = stat.Mean(clean, nil)
	s.Std = nan
	if len(clean) > 1 {
		s.Std = stat.StdDev(clean, nil)
	}
	s.Min = floats.Min(clean)
	s.Max = floats.Max(clean)
	s.P25 = percentile(clean, 0.25)
	s.P50 = percentile(clean, 0.50)
	s.P75 = percentile(clean, 0.75)
	return s
}

// percentile interpolates linearly between the two closest ranks of sorted.
// This is the pandas describe definition; stat.Quantile has no equivalent.
func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func describeCategorical(name string, col series.Series) CategoricalSummary {
	s := CategoricalSummary{Column: name}
	counts := make(map[string]int)
	var order []string

	for i := 0; i < col.Len(); i++ {
		elem := col.Elem(i)
		if elem.IsNA() {
			continue
		}
		v := elem.String()
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
		s.Count++
	}

	s.Unique = len(order)
	for _, v := range order {
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	return s
}
