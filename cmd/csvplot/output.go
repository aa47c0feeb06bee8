package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/csvplot/dataset"
	"github.com/spektr-org/csvplot/engine"
)

// ============================================================================
// OUTPUT TARGET
// ============================================================================

// openOutput returns stdout for "" and a created file otherwise.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// ============================================================================
// CSV OUTPUT — Chart data ready for Sheets/Excel
// ============================================================================

// writeSpecCSV writes the columns a chart spec reads, in spec order. For line
// charts that is the long form [x, variable, value].
func writeSpecCSV(w io.Writer, spec *engine.ChartSpec) error {
	names := spec.Columns()
	if spec.LongForm() {
		names = []string{spec.X, spec.Series, spec.Y}
	}
	cols := make([]*dataset.Column, len(names))
	for i, n := range names {
		c, ok := spec.Data.Column(n)
		if !ok {
			return fmt.Errorf("%w: %q", engine.ErrUnknownColumn, n)
		}
		cols[i] = c
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := 0; i < spec.Data.Len(); i++ {
		for j, c := range cols {
			row[j] = c.Raw(i)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFigureCSV writes the plotted values. Series figures become a label
// column plus one column per series; histograms and box plots get one row
// per bin or box.
func writeFigureCSV(w io.Writer, fig *engine.Figure) error {
	cw := csv.NewWriter(w)
	xLabel := firstNonEmpty(fig.XLabel, "Label")
	yLabel := firstNonEmpty(fig.YLabel, "Value")

	switch {
	case len(fig.Bins) > 0:
		_ = cw.Write([]string{xLabel, yLabel})
		for _, b := range fig.Bins {
			_ = cw.Write([]string{b.Label, strconv.Itoa(b.Count)})
		}

	case len(fig.Boxes) > 0:
		_ = cw.Write([]string{xLabel, "n", "min", "q1", "median", "q3", "max", "outliers"})
		for _, b := range fig.Boxes {
			outliers := make([]string, len(b.Outliers))
			for i, o := range b.Outliers {
				outliers[i] = fmtNum(o)
			}
			_ = cw.Write([]string{
				b.Label, strconv.Itoa(b.N),
				fmtNum(b.Min), fmtNum(b.Q1), fmtNum(b.Median), fmtNum(b.Q3), fmtNum(b.Max),
				strings.Join(outliers, " "),
			})
		}

	case len(fig.Series) == 1:
		// Single series → two columns
		_ = cw.Write([]string{xLabel, yLabel})
		for _, p := range fig.Series[0].Points {
			_ = cw.Write([]string{p.Label, fmtNum(p.Y)})
		}

	default:
		// Multi-series → label + one column per series, joined on the x
		// label (the k-th repeat of a label joins the k-th repeat elsewhere).
		headers := []string{xLabel}
		for _, s := range fig.Series {
			headers = append(headers, s.Name)
		}
		_ = cw.Write(headers)

		index := make(map[string]int)
		var rows [][]string
		for si, s := range fig.Series {
			seen := make(map[string]int)
			for _, p := range s.Points {
				key := p.Label + "\x00" + strconv.Itoa(seen[p.Label])
				seen[p.Label]++
				ri, ok := index[key]
				if !ok {
					ri = len(rows)
					index[key] = ri
					row := make([]string, len(fig.Series)+1)
					row[0] = p.Label
					rows = append(rows, row)
				}
				rows[ri][si+1] = fmtNum(p.Y)
			}
		}
		for _, row := range rows {
			_ = cw.Write(row)
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeTableCSV writes a table with its column labels as the header.
func writeTableCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(tableHeaders(table))
	for _, row := range table.Rows {
		_ = cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeTableText(w io.Writer, table *engine.TableData) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(tableHeaders(table), "\t")+"\t")
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

func writeProfilesText(w io.Writer, ds *dataset.Dataset, profiles []dataset.ColumnProfile) error {
	fmt.Fprintf(w, "%s: %d rows × %d columns\n\n", ds.Name, ds.Len(), ds.NumColumns())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tVALUES\tMISSING\tUNIQUE\tCARDINALITY\tSAMPLES")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			p.Name, p.Kind, p.NonMissing, p.Missing, p.Unique, p.CardinalityHint,
			strings.Join(p.SampleValues, ", "))
	}
	return tw.Flush()
}

func tableHeaders(table *engine.TableData) []string {
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = firstNonEmpty(c.Label, c.Key)
	}
	return headers
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → shortest exact form
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
