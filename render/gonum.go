package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/csvplot/engine"
)

// Registry names of the static image backends.
const (
	SVGName = "svg"
	PNGName = "png"
)

// GonumPlot renders static images with gonum/plot.
type GonumPlot struct {
	format string
	width  vg.Length
	height vg.Length
}

// NewSVG creates the SVG backend.
func NewSVG(size Size) *GonumPlot { return newGonum(SVGName, size) }

// NewPNG creates the PNG backend.
func NewPNG(size Size) *GonumPlot { return newGonum(PNGName, size) }

func newGonum(format string, size Size) *GonumPlot {
	size = size.orDefault()
	// 96 px per inch.
	return &GonumPlot{
		format: format,
		width:  vg.Length(size.Width) * vg.Inch / 96,
		height: vg.Length(size.Height) * vg.Inch / 96,
	}
}

func (g *GonumPlot) Name() string { return g.format }

func (g *GonumPlot) ContentType() string {
	if g.format == SVGName {
		return "image/svg+xml"
	}
	return "image/png"
}

func (g *GonumPlot) Render(fig *engine.Figure, w io.Writer) error {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel
	p.Add(plotter.NewGrid())

	var err error
	switch fig.Kind {
	case engine.KindScatter, engine.KindLine:
		err = g.xy(p, fig)
	case engine.KindBar:
		err = g.bar(p, fig)
	case engine.KindHistogram:
		err = g.histogram(p, fig)
	case engine.KindBox:
		err = g.box(p, fig)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupported, fig.Kind)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(g.width, g.height, g.format)
	if err != nil {
		return fmt.Errorf("failed to create plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// ============================================================================
// PLOTTERS
// ============================================================================

func (g *GonumPlot) xy(p *plot.Plot, fig *engine.Figure) error {
	for _, s := range fig.Series {
		if len(s.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		color := parseColor(s.Color)

		if fig.Kind == engine.KindScatter {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return err
			}
			sc.GlyphStyle.Color = color
			sc.GlyphStyle.Radius = vg.Points(3)
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(sc)
			if fig.ShowLegend {
				p.Legend.Add(s.Name, sc)
			}
			continue
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		line.Color = color
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = color
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
		if fig.ShowLegend {
			p.Legend.Add(s.Name, line, points)
		}
	}

	switch fig.XAxis {
	case engine.AxisTime:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	case engine.AxisCategory:
		p.NominalX(fig.Categories...)
	}
	return nil
}

func (g *GonumPlot) bar(p *plot.Plot, fig *engine.Figure) error {
	for i, s := range fig.Series {
		values := make(plotter.Values, len(s.Points))
		for j, pt := range s.Points {
			values[j] = pt.Y
		}
		bars, err := plotter.NewBarChart(values, g.barWidth(len(values)))
		if err != nil {
			return err
		}
		bars.Color = parseColor(figureColor(fig, i))
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalX(fig.Categories...)
	return nil
}

func (g *GonumPlot) histogram(p *plot.Plot, fig *engine.Figure) error {
	color := parseColor(figureColor(fig, 0))

	if fig.XAxis != engine.AxisValue {
		values := make(plotter.Values, len(fig.Bins))
		for i, b := range fig.Bins {
			values[i] = float64(b.Count)
		}
		bars, err := plotter.NewBarChart(values, g.barWidth(len(values)))
		if err != nil {
			return err
		}
		bars.Color = color
		p.Add(bars)
		p.NominalX(fig.Categories...)
		return nil
	}

	bins := make([]plotter.HistogramBin, len(fig.Bins))
	for i, b := range fig.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     fig.Bins[0].Hi - fig.Bins[0].Lo,
		FillColor: color,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)
	return nil
}

// box hands the raw group values to gonum, which computes its own quartiles.
func (g *GonumPlot) box(p *plot.Plot, fig *engine.Figure) error {
	color := parseColor(figureColor(fig, 0))
	for i, b := range fig.Boxes {
		values := b.Values
		if len(values) == 0 {
			values = []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}
		}
		box, err := plotter.NewBoxPlot(g.barWidth(len(fig.Boxes)), float64(i), plotter.Values(values))
		if err != nil {
			return err
		}
		box.FillColor = color
		p.Add(box)
	}
	p.NominalX(fig.Categories...)
	return nil
}

// barWidth spreads n bars across roughly half the plot width.
func (g *GonumPlot) barWidth(n int) vg.Length {
	if n < 1 {
		n = 1
	}
	w := g.width / vg.Length(2*n)
	if widest := vg.Points(40); w > widest {
		w = widest
	}
	if narrowest := vg.Points(2); w < narrowest {
		w = narrowest
	}
	return w
}
