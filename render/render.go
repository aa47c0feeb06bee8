// Package render draws engine figures with third-party charting libraries.
//
// Each backend implements Renderer. A Registry maps the names used in
// configuration, CLI flags and query strings to backends.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/csvplot/engine"
)

var (
	// ErrUnsupported indicates a backend cannot draw the figure's kind.
	ErrUnsupported = errors.New("plot kind not supported by renderer")
	// ErrUnknownRenderer indicates a registry lookup for an unknown name.
	ErrUnknownRenderer = errors.New("unknown renderer")
)

// Renderer writes a figure in one output format.
type Renderer interface {
	Name() string
	ContentType() string
	Render(fig *engine.Figure, w io.Writer) error
}

// Size is the output size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a dimension is zero.
var DefaultSize = Size{Width: 900, Height: 500}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultSize.Width
	}
	if s.Height <= 0 {
		s.Height = DefaultSize.Height
	}
	return s
}

// Render draws fig with r. Library errors and panics come back as a
// *engine.PlotFailure at engine.StageRender.
func Render(r Renderer, fig *engine.Figure, w io.Writer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = engine.NewPlotFailure(engine.StageRender, fig.Kind, "", fmt.Errorf("%s: %v", r.Name(), p))
		}
	}()
	return engine.Wrap(engine.StageRender, fig.Kind, r.Render(fig, w))
}

// ============================================================================
// REGISTRY
// ============================================================================

// Registry maps renderer names to renderers.
type Registry struct {
	renderers map[string]Renderer
	def       string
}

// NewRegistry registers rs; def names the renderer used for "".
func NewRegistry(def string, rs ...Renderer) *Registry {
	r := &Registry{renderers: make(map[string]Renderer, len(rs)), def: def}
	for _, rr := range rs {
		r.Register(rr)
	}
	return r
}

// DefaultRegistry holds every backend with echarts as the default.
func DefaultRegistry(size Size) *Registry {
	return NewRegistry(EChartsName,
		NewECharts(size),
		NewSVG(size),
		NewPNG(size),
		NewGoChart(size),
	)
}

// Register adds or replaces a renderer under its Name.
func (r *Registry) Register(rr Renderer) {
	r.renderers[rr.Name()] = rr
}

// Get returns the renderer for name; "" selects the default.
func (r *Registry) Get(name string) (Renderer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.def
	}
	rr, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownRenderer, name, strings.Join(r.Names(), ", "))
	}
	return rr, nil
}

// SetDefault changes the renderer used for "". name must be registered.
func (r *Registry) SetDefault(name string) error {
	rr, err := r.Get(name)
	if err != nil {
		return err
	}
	r.def = rr.Name()
	return nil
}

// Default returns the default renderer name.
func (r *Registry) Default() string { return r.def }

// Names lists registered renderers alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.renderers))
	for n := range r.renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// COLORS
// ============================================================================

// parseColor turns "#RRGGBB" into a drawing.Color, which also satisfies
// image/color.Color for gonum.
func parseColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// figureColor returns the i-th figure color, falling back to the palette.
func figureColor(fig *engine.Figure, i int) string {
	if i < len(fig.Colors) && fig.Colors[i] != "" {
		return fig.Colors[i]
	}
	palette := engine.DefaultColors()
	return palette[i%len(palette)]
}
