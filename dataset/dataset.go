package dataset

import (
	"math"
	"time"
)

// ============================================================================
// DATASET — Immutable, column-oriented table parsed from an upload
// ============================================================================
// Columns keep their header order. Every column holds the raw cell text plus
// the typed value for its inferred Kind. Nothing in this package mutates a
// Dataset after Parse* returns it; reshapes (Melt) build a new one.
// ============================================================================

// Kind is the inferred value type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindTemporal
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// MarshalText lets Kind render as its name in JSON/YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is a single named column.
type Column struct {
	Name string
	Kind Kind

	raw     []string
	missing []bool
	nums    []float64   // KindNumeric only; NaN where missing
	times   []time.Time // KindTemporal only
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.raw) }

// Raw returns the trimmed cell text at row i ("" when out of range).
func (c *Column) Raw(i int) string {
	if i < 0 || i >= len(c.raw) {
		return ""
	}
	return c.raw[i]
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	if i < 0 || i >= len(c.missing) {
		return true
	}
	return c.missing[i]
}

// Float returns the numeric value at row i. ok is false for missing cells and
// for values that do not parse as numbers.
func (c *Column) Float(i int) (float64, bool) {
	if c.IsMissing(i) {
		return math.NaN(), false
	}
	if c.Kind == KindNumeric {
		return c.nums[i], true
	}
	f, ok := parseNumber(c.raw[i])
	if !ok {
		return math.NaN(), false
	}
	return f, true
}

// Time returns the temporal value at row i for temporal columns.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Kind != KindTemporal || c.IsMissing(i) {
		return time.Time{}, false
	}
	return c.times[i], true
}

// Floats returns all non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.raw))
	for i := range c.raw {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// Dataset is an ordered collection of equal-length named columns.
type Dataset struct {
	Name    string
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a Dataset from a header and string rows. Rows shorter than the
// header are padded with missing cells; longer rows are truncated (parsers
// reject them before calling New).
func New(name string, header []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Name:  name,
		index: make(map[string]int, len(header)),
		rows:  len(rows),
	}
	for ci, h := range header {
		cells := make([]string, len(rows))
		for ri, row := range rows {
			if ci < len(row) {
				cells[ri] = row[ci]
			}
		}
		ds.index[h] = len(ds.columns)
		ds.columns = append(ds.columns, newColumn(h, cells))
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// ColumnNames returns the column names in header order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in header order.
func (d *Dataset) Columns() []*Column { return d.columns }

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Has reports whether the dataset contains a column named name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns the raw cell text of row i in column order.
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.columns))
	for ci, c := range d.columns {
		row[ci] = c.Raw(i)
	}
	return row
}
