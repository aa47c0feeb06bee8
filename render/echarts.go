package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spektr-org/csvplot/engine"
)

// EChartsName is the registry name of the interactive HTML backend.
const EChartsName = "echarts"

// ECharts renders a standalone interactive HTML page.
type ECharts struct {
	width  string
	height string
}

// NewECharts creates the HTML backend. The chart fills the page width.
func NewECharts(size Size) *ECharts {
	size = size.orDefault()
	return &ECharts{width: "100%", height: fmt.Sprintf("%dpx", size.Height)}
}

func (e *ECharts) Name() string        { return EChartsName }
func (e *ECharts) ContentType() string { return "text/html; charset=utf-8" }

func (e *ECharts) Render(fig *engine.Figure, w io.Writer) error {
	switch fig.Kind {
	case engine.KindScatter:
		return e.scatter(fig).Render(w)
	case engine.KindLine:
		return e.line(fig).Render(w)
	case engine.KindBar:
		return e.bar(fig).Render(w)
	case engine.KindHistogram:
		return e.histogram(fig).Render(w)
	case engine.KindBox:
		return e.box(fig).Render(w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, fig.Kind)
	}
}

// ============================================================================
// CHART BUILDERS
// ============================================================================

func (e *ECharts) scatter(fig *engine.Figure) *charts.Scatter {
	c := charts.NewScatter()
	c.SetGlobalOptions(e.globalOpts(fig, "item", fig.XAxis)...)
	if fig.XAxis == engine.AxisCategory {
		c.SetXAxis(fig.Categories)
	}

	for _, s := range fig.Series {
		data := make([]opts.ScatterData, 0, len(s.Points))
		for _, p := range s.Points {
			data = append(data, opts.ScatterData{Value: []interface{}{xValue(fig, p), p.Y}})
		}
		c.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return c
}

func (e *ECharts) line(fig *engine.Figure) *charts.Line {
	c := charts.NewLine()
	c.SetGlobalOptions(e.globalOpts(fig, "axis", fig.XAxis)...)
	if fig.XAxis == engine.AxisCategory {
		c.SetXAxis(fig.Categories)
	}

	for _, s := range fig.Series {
		data := make([]opts.LineData, 0, len(s.Points))
		for _, p := range s.Points {
			data = append(data, opts.LineData{Value: []interface{}{xValue(fig, p), p.Y}})
		}
		c.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}
	return c
}

func (e *ECharts) bar(fig *engine.Figure) *charts.Bar {
	c := charts.NewBar()
	c.SetGlobalOptions(e.globalOpts(fig, "axis", engine.AxisCategory)...)
	c.SetXAxis(fig.Categories)

	for _, s := range fig.Series {
		data := make([]opts.BarData, 0, len(s.Points))
		for _, p := range s.Points {
			data = append(data, opts.BarData{Name: p.Label, Value: p.Y})
		}
		c.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return c
}

// histogram draws bins as touching bars; bin ranges become the axis labels.
func (e *ECharts) histogram(fig *engine.Figure) *charts.Bar {
	c := charts.NewBar()
	c.SetGlobalOptions(e.globalOpts(fig, "axis", engine.AxisCategory)...)

	labels := make([]string, len(fig.Bins))
	data := make([]opts.BarData, len(fig.Bins))
	for i, b := range fig.Bins {
		labels[i] = b.Label
		data[i] = opts.BarData{Name: b.Label, Value: b.Count}
	}
	c.SetXAxis(labels)
	c.AddSeries(fig.YLabel, data,
		charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "1%"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: figureColor(fig, 0)}),
	)
	return c
}

// box draws one box per category plus a scatter overlay for outliers.
func (e *ECharts) box(fig *engine.Figure) *charts.BoxPlot {
	c := charts.NewBoxPlot()
	c.SetGlobalOptions(e.globalOpts(fig, "item", engine.AxisCategory)...)
	c.SetXAxis(fig.Categories)

	data := make([]opts.BoxPlotData, len(fig.Boxes))
	var outliers []opts.ScatterData
	for i, b := range fig.Boxes {
		data[i] = opts.BoxPlotData{
			Name:  b.Label,
			Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max},
		}
		for _, v := range b.Outliers {
			outliers = append(outliers, opts.ScatterData{Value: []interface{}{b.Label, v}})
		}
	}
	c.AddSeries(fig.YLabel, data, charts.WithItemStyleOpts(opts.ItemStyle{
		Color:       "#FFFFFF",
		BorderColor: figureColor(fig, 0),
	}))

	if len(outliers) > 0 {
		sc := charts.NewScatter()
		sc.SetXAxis(fig.Categories)
		sc.AddSeries("outliers", outliers, charts.WithItemStyleOpts(opts.ItemStyle{Color: figureColor(fig, 3)}))
		c.Overlap(sc)
	}
	return c
}

// ============================================================================
// OPTIONS
// ============================================================================

func (e *ECharts) globalOpts(fig *engine.Figure, trigger string, axis engine.AxisType) []charts.GlobalOpts {
	xAxis := opts.XAxis{Name: fig.XLabel, Type: string(axis)}
	if axis == engine.AxisValue {
		xAxis.Scale = opts.Bool(true)
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fig.Title,
			Width:     e.width,
			Height:    e.height,
		}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: trigger}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(fig.ShowLegend), Top: "bottom"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel, Type: "value", Scale: opts.Bool(true)}),
	}
}

// xValue is the echarts x coordinate: milliseconds on a time axis, the label
// on a category axis, the number otherwise.
func xValue(fig *engine.Figure, p engine.Point) interface{} {
	switch fig.XAxis {
	case engine.AxisTime:
		return int64(p.X) * 1000
	case engine.AxisCategory:
		return p.Label
	default:
		return p.X
	}
}
