package render

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/spektr-org/csvplot/engine"
)

// GoChartName is the registry name of the lightweight PNG backend.
const GoChartName = "gochart"

// GoChart renders PNG images with go-chart. It has no box plot support.
type GoChart struct {
	width  int
	height int
}

// NewGoChart creates the go-chart backend.
func NewGoChart(size Size) *GoChart {
	size = size.orDefault()
	return &GoChart{width: size.Width, height: size.Height}
}

func (g *GoChart) Name() string        { return GoChartName }
func (g *GoChart) ContentType() string { return "image/png" }

func (g *GoChart) Render(fig *engine.Figure, w io.Writer) error {
	switch fig.Kind {
	case engine.KindScatter, engine.KindLine:
		ch := g.xy(fig)
		return ch.Render(chart.PNG, w)
	case engine.KindBar:
		var bars []chart.Value
		for i, s := range fig.Series {
			for _, p := range s.Points {
				bars = append(bars, g.barValue(p.Label, p.Y, figureColor(fig, i)))
			}
		}
		return g.barChart(fig, bars).Render(chart.PNG, w)
	case engine.KindHistogram:
		bars := make([]chart.Value, len(fig.Bins))
		for i, b := range fig.Bins {
			bars[i] = g.barValue(b.Label, float64(b.Count), figureColor(fig, 0))
		}
		return g.barChart(fig, bars).Render(chart.PNG, w)
	default:
		return fmt.Errorf("%w: %s with %s", ErrUnsupported, fig.Kind, GoChartName)
	}
}

func (g *GoChart) xy(fig *engine.Figure) *chart.Chart {
	series := make([]chart.Series, 0, len(fig.Series))
	for _, s := range fig.Series {
		if len(s.Points) == 0 {
			continue
		}
		st := g.seriesStyle(fig.Kind, s.Color)

		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		// go-chart rejects a zero-width x range; pad single points.
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}

		if fig.XAxis == engine.AxisTime {
			times := make([]time.Time, len(xs))
			for i, x := range xs {
				times[i] = time.Unix(int64(x), 0).UTC()
			}
			series = append(series, chart.TimeSeries{Name: s.Name, XValues: times, YValues: ys, Style: st})
			continue
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: st})
	}

	ch := &chart.Chart{
		Title:      fig.Title,
		Width:      g.width,
		Height:     g.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: fig.XLabel},
		YAxis:      chart.YAxis{Name: fig.YLabel},
		Series:     series,
	}
	if fig.XAxis == engine.AxisCategory {
		ticks := make([]chart.Tick, len(fig.Categories))
		for i, c := range fig.Categories {
			ticks[i] = chart.Tick{Value: float64(i), Label: c}
		}
		ch.XAxis.Ticks = ticks
	}
	if fig.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}
	return ch
}

func (g *GoChart) seriesStyle(kind engine.PlotKind, hex string) chart.Style {
	col := parseColor(hex)
	if kind == engine.KindScatter {
		return chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    col,
		}
	}
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotWidth:    3,
		DotColor:    col,
	}
}

func (g *GoChart) barValue(label string, v float64, hex string) chart.Value {
	col := parseColor(hex)
	return chart.Value{
		Label: label,
		Value: v,
		Style: chart.Style{FillColor: col, StrokeColor: col},
	}
}

func (g *GoChart) barChart(fig *engine.Figure, bars []chart.Value) *chart.BarChart {
	return &chart.BarChart{
		Title:  fig.Title,
		Width:  g.width,
		Height: g.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Bars: bars,
	}
}
