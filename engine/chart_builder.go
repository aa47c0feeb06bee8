package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// CHART BUILDER — Produces a Figure from a ChartSpec
// ============================================================================
// This is where column types meet the plot kind. An incompatible selection
// (text fed to a numeric axis, nothing plottable) is a PlotFailure at
// StageBuild naming the offending column.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// DefaultColors returns a copy of the built-in series palette.
func DefaultColors() []string {
	return append([]string(nil), defaultColors...)
}

// BuildFigure produces the renderer-neutral figure for spec. Panics from the
// statistics code come back as a *PlotFailure at StageBuild.
func BuildFigure(spec *ChartSpec, opts ...Option) (fig *Figure, err error) {
	defer func() {
		if p := recover(); p != nil {
			fig = nil
			err = NewPlotFailure(StageBuild, spec.Kind, "", fmt.Errorf("%w: %v", ErrBuildPanic, p))
		}
	}()
	cfg := applyOptions(opts)

	fig = &Figure{
		Kind:   spec.Kind,
		Title:  spec.Title,
		XLabel: spec.XLabel,
		YLabel: spec.YLabel,
	}

	switch spec.Kind {
	case KindScatter:
		err = buildScatter(fig, spec)
	case KindLine:
		err = buildLine(fig, spec)
	case KindBar:
		err = buildBar(fig, spec)
	case KindHistogram:
		err = buildHistogram(fig, spec, cfg.HistogramBins)
	case KindBox:
		err = buildBox(fig, spec)
	default:
		err = NewPlotFailure(StageBuild, spec.Kind, "", fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind))
	}
	if err != nil {
		return nil, err
	}

	if fig.Len() == 0 {
		return nil, NewPlotFailure(StageBuild, spec.Kind, "", ErrNoData)
	}

	fig.Colors = assignColors(cfg.Colors, len(fig.Series))
	for i := range fig.Series {
		fig.Series[i].Color = fig.Colors[i]
	}
	fig.ShowLegend = len(fig.Series) > 1

	cfg.Logger.Debug("figure built",
		zap.String("kind", string(fig.Kind)),
		zap.String("xAxis", string(fig.XAxis)),
		zap.Int("series", len(fig.Series)),
		zap.Int("points", fig.Len()))
	return fig, nil
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildScatter(fig *Figure, spec *ChartSpec) error {
	xCol, yCol, err := columns(spec)
	if err != nil {
		return err
	}
	if err := requireNumeric(spec, spec.Y); err != nil {
		return err
	}

	ax := newXAxis(xCol)
	series := Series{Name: spec.Y}
	for i := 0; i < spec.Data.Len(); i++ {
		if p, ok := ax.point(xCol, yCol, i); ok {
			series.Points = append(series.Points, p)
		}
	}
	fig.XAxis = ax.kind
	fig.Categories = ax.categories
	fig.Series = []Series{series}
	return nil
}

// buildLine reads the long-form data: one series per selected Y column, in
// selection order, each in original row order.
func buildLine(fig *Figure, spec *ChartSpec) error {
	for _, y := range spec.YColumns {
		if err := requireNumeric(spec, y); err != nil {
			return err
		}
	}

	xCol, yCol, err := columns(spec)
	if err != nil {
		return err
	}
	seriesCol, ok := spec.Data.Column(spec.Series)
	if !ok {
		return NewPlotFailure(StageBuild, spec.Kind, spec.Series, ErrUnknownColumn)
	}

	index := make(map[string]int, len(spec.YColumns))
	series := make([]Series, len(spec.YColumns))
	for i, y := range spec.YColumns {
		index[y] = i
		series[i] = Series{Name: y}
	}

	ax := newXAxis(xCol)
	for i := 0; i < spec.Data.Len(); i++ {
		si, known := index[seriesCol.Raw(i)]
		if !known {
			continue
		}
		if p, ok := ax.point(xCol, yCol, i); ok {
			series[si].Points = append(series[si].Points, p)
		}
	}
	fig.XAxis = ax.kind
	fig.Categories = ax.categories
	fig.Series = series
	return nil
}

// buildBar sums Y per distinct X label, in first-seen order.
func buildBar(fig *Figure, spec *ChartSpec) error {
	xCol, yCol, err := columns(spec)
	if err != nil {
		return err
	}
	if err := requireNumeric(spec, spec.Y); err != nil {
		return err
	}

	series := Series{Name: spec.Y}
	for _, g := range groupBySingle(xCol) {
		total, ok := sumColumn(yCol, g.Rows)
		if !ok {
			continue
		}
		fig.Categories = append(fig.Categories, g.Label)
		series.Points = append(series.Points, Point{
			X:     float64(len(fig.Categories) - 1),
			Label: g.Label,
			Y:     total,
		})
	}
	fig.XAxis = AxisCategory
	fig.Series = []Series{series}
	return nil
}

func buildHistogram(fig *Figure, spec *ChartSpec, bins int) error {
	xCol, ok := spec.Data.Column(spec.X)
	if !ok {
		return NewPlotFailure(StageBuild, spec.Kind, spec.X, ErrUnknownColumn)
	}

	if xCol.Kind == dataset.KindNumeric {
		fig.XAxis = AxisValue
		fig.Bins = numericBins(xCol.Floats(), bins)
		return nil
	}

	fig.XAxis = AxisCategory
	fig.Bins = categoryBins(xCol)
	for _, b := range fig.Bins {
		fig.Categories = append(fig.Categories, b.Label)
	}
	return nil
}

// buildBox draws one box per distinct X value.
func buildBox(fig *Figure, spec *ChartSpec) error {
	xCol, yCol, err := columns(spec)
	if err != nil {
		return err
	}
	if err := requireNumeric(spec, spec.Y); err != nil {
		return err
	}

	for _, g := range groupBySingle(xCol) {
		values := valuesAt(yCol, g.Rows)
		if len(values) == 0 {
			continue
		}
		fig.Boxes = append(fig.Boxes, boxStats(g.Label, values))
		fig.Categories = append(fig.Categories, g.Label)
	}
	fig.XAxis = AxisCategory
	return nil
}

// ============================================================================
// X AXIS
// ============================================================================

// xAxis maps X cells to numeric positions for one figure.
type xAxis struct {
	kind       AxisType
	categories []string
	index      map[string]int
}

func newXAxis(col *dataset.Column) *xAxis {
	switch col.Kind {
	case dataset.KindNumeric:
		return &xAxis{kind: AxisValue}
	case dataset.KindTemporal:
		return &xAxis{kind: AxisTime}
	default:
		return &xAxis{kind: AxisCategory, index: make(map[string]int)}
	}
}

// point builds the point for row i; ok is false when X or Y is missing.
func (a *xAxis) point(xCol, yCol *dataset.Column, i int) (Point, bool) {
	if xCol.IsMissing(i) {
		return Point{}, false
	}
	y, ok := yCol.Float(i)
	if !ok {
		return Point{}, false
	}

	p := Point{Label: xCol.Raw(i), Y: y}
	switch a.kind {
	case AxisValue:
		x, ok := xCol.Float(i)
		if !ok {
			return Point{}, false
		}
		p.X = x
	case AxisTime:
		t, ok := xCol.Time(i)
		if !ok {
			return Point{}, false
		}
		p.X = float64(t.Unix())
	default:
		ci, seen := a.index[p.Label]
		if !seen {
			ci = len(a.categories)
			a.index[p.Label] = ci
			a.categories = append(a.categories, p.Label)
		}
		p.X = float64(ci)
	}
	return p, true
}

// ============================================================================
// HELPERS
// ============================================================================

func columns(spec *ChartSpec) (x, y *dataset.Column, err error) {
	x, ok := spec.Data.Column(spec.X)
	if !ok {
		return nil, nil, NewPlotFailure(StageBuild, spec.Kind, spec.X, ErrUnknownColumn)
	}
	y, ok = spec.Data.Column(spec.Y)
	if !ok {
		return nil, nil, NewPlotFailure(StageBuild, spec.Kind, spec.Y, ErrUnknownColumn)
	}
	return x, y, nil
}

// requireNumeric checks a Source column, so Line failures name the selected
// column rather than the long-form value column.
func requireNumeric(spec *ChartSpec, name string) error {
	col, ok := spec.Source.Column(name)
	if !ok {
		return NewPlotFailure(StageBuild, spec.Kind, name, ErrUnknownColumn)
	}
	if col.Kind != dataset.KindNumeric {
		return NewPlotFailure(StageBuild, spec.Kind, name,
			fmt.Errorf("%w: %q holds %s values", ErrNotNumeric, name, col.Kind))
	}
	return nil
}

func assignColors(palette []string, count int) []string {
	if len(palette) == 0 {
		palette = defaultColors
	}
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
