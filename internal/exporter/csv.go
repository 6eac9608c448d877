package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CSVWriter serializes tables to CSV so that reading them back yields the same
// columns, column types and values
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With("component", "csv_writer")}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for spreadsheet tools; readers must strip it
}

// WriteTable writes the header row followed by every row of df
func (w *CSVWriter) WriteTable(out io.Writer, df dataframe.DataFrame, options WriteOptions) error {
	records, err := EncodeTable(df)
	if err != nil {
		return err
	}

	w.logger.Debug("Writing CSV table",
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))

	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// EncodeTable renders df as CSV records, header first. Float cells keep full
// precision and always carry a decimal point or exponent so the column is
// read back as floating point. Missing values become empty cells.
func EncodeTable(df dataframe.DataFrame) ([][]string, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("cannot encode table: %w", df.Err)
	}

	names := df.Names()
	types := df.Types()
	nrow := df.Nrow()

	columns := make([][]string, len(names))
	for j, name := range names {
		col := df.Col(name)
		cells := make([]string, nrow)
		switch types[j] {
		case series.Float:
			for i, v := range col.Float() {
				cells[i] = FormatFloat(v)
			}
		case series.Int:
			for i := 0; i < nrow; i++ {
				elem := col.Elem(i)
				if elem.IsNA() {
					continue
				}
				v, err := elem.Int()
				if err != nil {
					return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
				}
				cells[i] = strconv.Itoa(v)
			}
		default:
			for i := 0; i < nrow; i++ {
				elem := col.Elem(i)
				if elem.IsNA() {
					continue
				}
				cells[i] = elem.String()
			}
		}
		columns[j] = cells
	}

	records := make([][]string, 0, nrow+1)
	records = append(records, append([]string(nil), names...))
	for i := 0; i < nrow; i++ {
		row := make([]string, len(names))
		for j := range names {
			row[j] = columns[j][i]
		}
		records = append(records, row)
	}
	return records, nil
}

// FormatFloat formats v with the shortest representation that parses back to
// the same value. NaN is written as an empty cell.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
