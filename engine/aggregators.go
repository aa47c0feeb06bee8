package engine

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// AGGREGATORS — Grouping, binning and box statistics over dataset columns
// ============================================================================
// Grouping keeps first-seen order so charts follow the file's row order.
// ============================================================================

// ============================================================================
// GROUPING
// ============================================================================

// group is the set of row indices sharing one label.
type group struct {
	Label string
	Rows  []int
}

// groupBySingle groups the non-missing rows of col by raw text.
func groupBySingle(col *dataset.Column) []group {
	index := make(map[string]int)
	var groups []group

	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		key := col.Raw(i)
		gi, exists := index[key]
		if !exists {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, group{Label: key})
		}
		groups[gi].Rows = append(groups[gi].Rows, i)
	}
	return groups
}

// sumColumn sums the numeric values of col over rows, skipping missing cells.
// ok is false when none of the rows had a value.
func sumColumn(col *dataset.Column, rows []int) (total float64, ok bool) {
	for _, i := range rows {
		v, has := col.Float(i)
		if !has {
			continue
		}
		total += v
		ok = true
	}
	return total, ok
}

// valuesAt collects the numeric values of col over rows.
func valuesAt(col *dataset.Column, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, i := range rows {
		if v, ok := col.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// HISTOGRAM
// ============================================================================

// sturges returns ceil(log2(n)) + 1, the automatic bin count.
func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// numericBins splits values into equal-width bins between min and max.
// The last bin is closed on the right.
func numericBins(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = sturges(len(values))
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	labels := make([]float64, len(dividers))
	copy(labels, dividers)
	// stat.Histogram needs every value strictly below the last divider.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{
			Label: binLabel(labels[i], labels[i+1]),
			Lo:    labels[i],
			Hi:    labels[i+1],
			Count: int(counts[i]),
		}
	}
	return out
}

func binLabel(lo, hi float64) string {
	return dataset.FormatFloat(roundSig(lo)) + "–" + dataset.FormatFloat(roundSig(hi))
}

// categoryBins counts each distinct value of col in first-seen order.
func categoryBins(col *dataset.Column) []Bin {
	groups := groupBySingle(col)
	out := make([]Bin, 0, len(groups))
	for i, g := range groups {
		out = append(out, Bin{
			Label: g.Label,
			Lo:    float64(i),
			Hi:    float64(i + 1),
			Count: len(g.Rows),
		})
	}
	return out
}

// ============================================================================
// BOX STATISTICS
// ============================================================================

// boxStats computes quartiles with Tukey whiskers. values must be non-empty.
func boxStats(label string, values []float64) BoxStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	b := BoxStats{
		Label:  label,
		N:      len(sorted),
		Q1:     dataset.Quantile(sorted, 0.25),
		Median: dataset.Quantile(sorted, 0.50),
		Q3:     dataset.Quantile(sorted, 0.75),
		Values: sorted,
	}

	iqr := b.Q3 - b.Q1
	lowFence := b.Q1 - 1.5*iqr
	highFence := b.Q3 + 1.5*iqr

	b.Min, b.Max = math.Inf(1), math.Inf(-1)
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.Min = math.Min(b.Min, v)
		b.Max = math.Max(b.Max, v)
	}
	return b
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// roundSig trims binning noise such as 0.30000000000000004 to 6 significant
// digits.
func roundSig(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 6, 64), 64)
	if err != nil {
		return v
	}
	return r
}
