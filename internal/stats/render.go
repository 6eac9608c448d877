package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	apperrors "datalab/internal/errors"
)

// Format selects how a Summary is rendered
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// Formats lists the supported output formats
var Formats = []Format{FormatMarkdown, FormatJSON, FormatText}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", apperrors.NewInvalidArgumentError(
		fmt.Sprintf("unknown print format %q (use markdown, json or text)", name))
}

var numericHeader = table.Row{"", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
var categoricalHeader = table.Row{"", "count", "unique", "top", "freq"}

// Render writes s to w in the given format
func Render(w io.Writer, s Summary, format Format) error {
	var content string
	switch format {
	case FormatMarkdown:
		num, cat := tables(s)
		content = fmt.Sprintf("# Descriptive statistics\n\n## Numerical columns\n\n%s\n\n## Categorical columns\n\n%s\n",
			num.RenderMarkdown(), cat.RenderMarkdown())
	case FormatText:
		num, cat := tables(s)
		content = fmt.Sprintf("Descriptive statistics:\n\nNumerical columns:\n\n%s\n\nCategorical columns:\n\n%s\n",
			num.Render(), cat.Render())
	case FormatJSON:
		data, err := json.MarshalIndent(jsonSummary(s), "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode statistics: %w", err)
		}
		content = string(data) + "\n"
	default:
		_, err := ParseFormat(string(format))
		return err
	}

	_, err := io.WriteString(w, content)
	return err
}

func tables(s Summary) (table.Writer, table.Writer) {
	num := table.NewWriter()
	num.SetStyle(table.StyleLight)
	num.AppendHeader(numericHeader)
	for _, n := range s.Numerical {
		num.AppendRow(table.Row{
			n.Column, n.Count, formatStat(n.Mean), formatStat(n.Std), formatStat(n.Min),
			formatStat(n.P25), formatStat(n.P50), formatStat(n.P75), formatStat(n.Max),
		})
	}

	cat := table.NewWriter()
	cat.SetStyle(table.StyleLight)
	cat.AppendHeader(categoricalHeader)
	for _, c := range s.Categorical {
		cat.AppendRow(table.Row{c.Column, c.Count, c.Unique, c.Top, c.Freq})
	}
	return num, cat
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// statistic maps column name to value; keys are encoded in sorted order
type statistic map[string]any

type numericJSON struct {
	Count statistic `json:"count"`
	Mean  statistic `json:"mean"`
	Std   statistic `json:"std"`
	Min   statistic `json:"min"`
	P25   statistic `json:"25%"`
	P50   statistic `json:"50%"`
	P75   statistic `json:"75%"`
	Max   statistic `json:"max"`
}

type categoricalJSON struct {
	Count  statistic `json:"count"`
	Unique statistic `json:"unique"`
	Top    statistic `json:"top"`
	Freq   statistic `json:"freq"`
}

type summaryJSON struct {
	Numerical   numericJSON     `json:"numerical"`
	Categorical categoricalJSON `json:"categorical"`
}

// jsonValue turns NaN into null, which JSON can carry
func jsonValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func jsonSummary(s Summary) summaryJSON {
	out := summaryJSON{
		Numerical: numericJSON{
			Count: statistic{}, Mean: statistic{}, Std: statistic{}, Min: statistic{},
			P25: statistic{}, P50: statistic{}, P75: statistic{}, Max: statistic{},
		},
		Categorical: categoricalJSON{
			Count: statistic{}, Unique: statistic{}, Top: statistic{}, Freq: statistic{},
		},
	}

	for _, n := range s.Numerical {
		out.Numerical.Count[n.Column] = n.Count
		out.Numerical.Mean[n.Column] = jsonValue(n.Mean)
		out.Numerical.Std[n.Column] = jsonValue(n.Std)
		out.Numerical.Min[n.Column] = jsonValue(n.Min)
		out.Numerical.P25[n.Column] = jsonValue(n.P25)
		out.Numerical.P50[n.Column] = jsonValue(n.P50)
		out.Numerical.P75[n.Column] = jsonValue(n.P75)
		out.Numerical.Max[n.Column] = jsonValue(n.Max)
	}
	for _, c := range s.Categorical {
		out.Categorical.Count[c.Column] = c.Count
		out.Categorical.Unique[c.Column] = c.Unique
		out.Categorical.Top[c.Column] = c.Top
		out.Categorical.Freq[c.Column] = c.Freq
	}
	return out
}
