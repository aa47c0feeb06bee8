package engine

import (
	"fmt"
	"strings"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// ENGINE TYPES — Plot requests, resolved chart specs, renderer-neutral figures
// ============================================================================
// Flow: PlotRequest (form state) → Resolve → ChartSpec → BuildFigure → Figure
//
// Nothing here knows about a charting library. Renderers consume Figure.
// ============================================================================

// ============================================================================
// PLOT KIND
// ============================================================================

// PlotKind is one of the five supported chart kinds.
type PlotKind string

const (
	KindScatter   PlotKind = "Scatter"
	KindLine      PlotKind = "Line"
	KindBar       PlotKind = "Bar"
	KindHistogram PlotKind = "Histogram"
	KindBox       PlotKind = "Box"
)

// Kinds lists the plot kinds in selector order.
var Kinds = []PlotKind{KindScatter, KindLine, KindBar, KindHistogram, KindBox}

// kindAliases maps lowercase selector labels to kinds.
var kindAliases = map[string]PlotKind{
	"scatter":      KindScatter,
	"scatter plot": KindScatter,
	"line":         KindLine,
	"line plot":    KindLine,
	"bar":          KindBar,
	"bar chart":    KindBar,
	"histogram":    KindHistogram,
	"hist":         KindHistogram,
	"box":          KindBox,
	"box plot":     KindBox,
	"boxplot":      KindBox,
}

// ParseKind accepts a kind name case-insensitively ("line", "Line Plot").
func ParseKind(s string) (PlotKind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is one of Kinds.
func (k PlotKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// NeedsY reports whether the kind takes Y columns at all.
func (k PlotKind) NeedsY() bool { return k != KindHistogram }

// MultiY reports whether the kind accepts more than one Y column.
func (k PlotKind) MultiY() bool { return k == KindLine }

// ============================================================================
// PLOT REQUEST — Raw form state
// ============================================================================

// PlotRequest is the user's current selection. Empty Title/XLabel/YLabel mean
// "use the default".
type PlotRequest struct {
	Kind   PlotKind `json:"kind" yaml:"kind"`
	X      string   `json:"x" yaml:"x"`
	Y      []string `json:"y,omitempty" yaml:"y,omitempty"`
	Title  string   `json:"title,omitempty" yaml:"title,omitempty"`
	XLabel string   `json:"xLabel,omitempty" yaml:"xLabel,omitempty"`
	YLabel string   `json:"yLabel,omitempty" yaml:"yLabel,omitempty"`
}

// ============================================================================
// CHART SPEC — Validated request bound to a dataset
// ============================================================================

// Long-form column names produced for Line charts.
const (
	SeriesColumn = "variable"
	ValueColumn  = "value"
)

// ChartSpec is a PlotRequest validated against a dataset. Every column it
// names exists in Data.
type ChartSpec struct {
	Kind PlotKind `json:"kind"`

	// Data is what the chart reads. For Line it is the long-form reshape of
	// Source with columns [X, variable, value]; otherwise it is Source.
	Data   *dataset.Dataset `json:"-"`
	Source *dataset.Dataset `json:"-"`

	X        string   `json:"x"`
	Y        string   `json:"y,omitempty"`        // column in Data holding Y values
	YColumns []string `json:"yColumns,omitempty"` // selected Source columns, series order
	Series   string   `json:"series,omitempty"`   // column in Data keying the series

	Title  string `json:"title"`
	XLabel string `json:"xLabel"`
	YLabel string `json:"yLabel"`
}

// Columns returns the Source columns the chart references: X followed by the
// selected Y columns.
func (s *ChartSpec) Columns() []string {
	cols := make([]string, 0, 1+len(s.YColumns))
	cols = append(cols, s.X)
	return append(cols, s.YColumns...)
}

// LongForm reports whether Data is a reshaped copy of Source.
func (s *ChartSpec) LongForm() bool { return s.Series != "" }

// ============================================================================
// FIGURE — Renderer-neutral chart data
// ============================================================================

// AxisType describes how the X axis is scaled.
type AxisType string

const (
	AxisValue    AxisType = "value"
	AxisTime     AxisType = "time"
	AxisCategory AxisType = "category"
)

// Figure is everything a renderer needs. Scatter, Line and Bar use Series;
// Histogram uses Bins; Box uses Boxes.
type Figure struct {
	Kind       PlotKind   `json:"kind"`
	Title      string     `json:"title"`
	XLabel     string     `json:"xLabel"`
	YLabel     string     `json:"yLabel"`
	XAxis      AxisType   `json:"xAxis"`
	Categories []string   `json:"categories,omitempty"` // AxisCategory labels, first-seen order
	Series     []Series   `json:"series,omitempty"`
	Bins       []Bin      `json:"bins,omitempty"`
	Boxes      []BoxStats `json:"boxes,omitempty"`
	Colors     []string   `json:"colors,omitempty"`
	ShowLegend bool       `json:"showLegend"`
}

// Series is one named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

// Point is one plotted value. X is the numeric position: the value itself on
// a value axis, Unix seconds on a time axis, the category index otherwise.
// Label is the original cell text of X.
type Point struct {
	X     float64 `json:"x"`
	Label string  `json:"label"`
	Y     float64 `json:"y"`
}

// Bin is one histogram bar. Lo/Hi are only meaningful on a value axis.
type Bin struct {
	Label string  `json:"label"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// BoxStats is one box of a box plot. Min and Max are the whisker ends
// (furthest points within 1.5·IQR); Outliers lie beyond them.
type BoxStats struct {
	Label    string    `json:"label"`
	N        int       `json:"n"`
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers,omitempty"`
	Values   []float64 `json:"-"` // sorted group values
}

// Len returns the number of plotted points, bins or boxes.
func (f *Figure) Len() int {
	n := len(f.Bins) + len(f.Boxes)
	for _, s := range f.Series {
		n += len(s.Points)
	}
	return n
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "date", "bool"
	Align string `json:"align"` // "left", "right"
}

// Summary is a footer line under a table.
type Summary struct {
	Label     string `json:"label"`
	Truncated bool   `json:"truncated"`
}
