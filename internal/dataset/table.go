package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	apperrors "datalab/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTableFile reads a CSV file with a header row into a table
func ReadTableFile(path string) (dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dataframe.DataFrame{}, apperrors.NewNotFoundError(path, err)
		}
		return dataframe.DataFrame{}, apperrors.NewStorageError("failed to read table", err).WithContext("path", path)
	}

	df, err := ReadTable(bytes.NewReader(data))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return df, appErr.WithContext("path", path)
		}
		return df, err
	}
	return df, nil
}

// ReadTable parses comma-separated content with a header row.
//
// Column types are inferred the way a data scientist would expect: a column
// whose cells all parse as integers is Int, one whose non-empty cells parse as
// floats is Float (empty cells become NaN), anything else is String. A table
// with a header but no rows is valid and has String columns.
func ReadTable(r io.Reader) (dataframe.DataFrame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError("malformed CSV", err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, apperrors.NewParsingError("CSV has no header row", nil)
	}

	header := records[0]
	header[0] = string(bytes.TrimPrefix([]byte(header[0]), utf8BOM))
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return dataframe.DataFrame{}, apperrors.NewParsingError(fmt.Sprintf("duplicate column %q", name), nil)
		}
		seen[name] = true
	}

	rows := records[1:]
	columns := make([]series.Series, len(header))
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[j]
		}
		columns[j] = buildColumn(name, cells)
	}

	df := dataframe.New(columns...)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError("failed to build table", df.Err)
	}
	return df, nil
}

// buildColumn infers the type of one column and converts its cells
func buildColumn(name string, cells []string) series.Series {
	if len(cells) == 0 {
		return series.New([]string{}, series.String, name)
	}

	if ints, ok := parseInts(cells); ok {
		return series.New(ints, series.Int, name)
	}
	if floats, ok := parseFloats(cells); ok {
		return series.New(floats, series.Float, name)
	}
	return series.New(cells, series.String, name)
}

func parseInts(cells []string) ([]int, bool) {
	out := make([]int, len(cells))
	for i, c := range cells {
		v, err := strconv.Atoi(c)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// EmptyLike returns a table with the columns and types of df and no rows
func EmptyLike(df dataframe.DataFrame) dataframe.DataFrame {
	names := df.Names()
	types := df.Types()
	columns := make([]series.Series, len(names))
	for i, name := range names {
		columns[i] = emptyColumn(name, types[i])
	}
	return dataframe.New(columns...)
}

func emptyColumn(name string, t series.Type) series.Series {
	switch t {
	case series.Float:
		return series.New([]float64{}, t, name)
	case series.Int:
		return series.New([]int{}, t, name)
	case series.Bool:
		return series.New([]bool{}, t, name)
	default:
		return series.New([]string{}, series.String, name)
	}
}

// Take returns the rows of df at idx, in idx order
func Take(df dataframe.DataFrame, idx []int) dataframe.DataFrame {
	if len(idx) == 0 {
		return EmptyLike(df)
	}
	return df.Subset(idx)
}
