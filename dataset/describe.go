package dataset

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// DESCRIBE — Descriptive statistics for the whole dataset
// ============================================================================
// With at least one numeric column the summary covers numeric columns only:
//   count, mean, std, min, 25%, 50%, 75%, max
// Otherwise every column is summarised categorically:
//   count, unique, top, freq
// ============================================================================

var (
	numericStatLabels     = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	categoricalStatLabels = []string{"count", "unique", "top", "freq"}
)

// NumericStats holds the numeric summary of one column. Fields other than
// Count are NaN when they are undefined (no values, or a single value for Std).
type NumericStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// CategoricalStats holds the summary of a non-numeric column.
type CategoricalStats struct {
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// ColumnSummary is one column of a Summary; exactly one of the pointers is set.
type ColumnSummary struct {
	Name        string            `json:"name"`
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
}

// Summary is the result of Describe.
type Summary struct {
	Columns []ColumnSummary `json:"columns"`
	Numeric bool            `json:"numeric"`
}

// Describe computes descriptive statistics over the full dataset.
func Describe(ds *Dataset) *Summary {
	s := &Summary{}
	for _, c := range ds.Columns() {
		if c.Kind == KindNumeric {
			s.Numeric = true
			break
		}
	}

	for _, c := range ds.Columns() {
		if s.Numeric {
			if c.Kind != KindNumeric {
				continue
			}
			st := DescribeValues(c.Floats())
			s.Columns = append(s.Columns, ColumnSummary{Name: c.Name, Numeric: &st})
			continue
		}
		st := describeCategorical(c)
		s.Columns = append(s.Columns, ColumnSummary{Name: c.Name, Categorical: &st})
	}
	return s
}

// DescribeValues summarises a slice of numbers. values is not modified.
func DescribeValues(values []float64) NumericStats {
	nan := math.NaN()
	st := NumericStats{
		Count: len(values),
		Mean:  nan, Std: nan, Min: nan, P25: nan, Median: nan, P75: nan, Max: nan,
	}
	if len(values) == 0 {
		return st
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	st.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		st.Std = stat.StdDev(sorted, nil)
	}
	st.Min = floats.Min(sorted)
	st.Max = floats.Max(sorted)
	st.P25 = Quantile(sorted, 0.25)
	st.Median = Quantile(sorted, 0.50)
	st.P75 = Quantile(sorted, 0.75)
	return st
}

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation between the closest ranks at position (n-1)*p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := float64(n-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func describeCategorical(c *Column) CategoricalStats {
	counts := make(map[string]int)
	var order []string
	st := CategoricalStats{}
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		v := c.Raw(i)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
		st.Count++
	}
	st.Unique = len(order)
	for _, v := range order {
		if counts[v] > st.Freq {
			st.Top = v
			st.Freq = counts[v]
		}
	}
	return st
}

// Labels returns the statistic names, one per table row.
func (s *Summary) Labels() []string {
	if s.Numeric {
		return numericStatLabels
	}
	return categoricalStatLabels
}

// ColumnNames returns the summarised column names.
func (s *Summary) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows renders the summary as text rows: the statistic label followed by one
// formatted value per column.
func (s *Summary) Rows() [][]string {
	labels := s.Labels()
	rows := make([][]string, len(labels))
	for r, label := range labels {
		row := make([]string, 0, len(s.Columns)+1)
		row = append(row, label)
		for _, c := range s.Columns {
			row = append(row, c.value(r))
		}
		rows[r] = row
	}
	return rows
}

func (c ColumnSummary) value(row int) string {
	if n := c.Numeric; n != nil {
		switch row {
		case 0:
			return strconv.Itoa(n.Count)
		case 1:
			return FormatFloat(n.Mean)
		case 2:
			return FormatFloat(n.Std)
		case 3:
			return FormatFloat(n.Min)
		case 4:
			return FormatFloat(n.P25)
		case 5:
			return FormatFloat(n.Median)
		case 6:
			return FormatFloat(n.P75)
		case 7:
			return FormatFloat(n.Max)
		}
		return ""
	}
	if k := c.Categorical; k != nil {
		switch row {
		case 0:
			return strconv.Itoa(k.Count)
		case 1:
			return strconv.Itoa(k.Unique)
		case 2:
			return k.Top
		case 3:
			return strconv.Itoa(k.Freq)
		}
	}
	return ""
}

// FormatFloat renders a statistic with at most six decimals; NaN as "NaN".
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		r = 0 // normalise -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
