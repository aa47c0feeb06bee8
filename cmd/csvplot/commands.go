package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/csvplot/dataset"
	"github.com/spektr-org/csvplot/engine"
	"github.com/spektr-org/csvplot/render"
	"github.com/spektr-org/csvplot/server"
	"github.com/spektr-org/csvplot/session"
)

// ============================================================================
// SERVE
// ============================================================================

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}

			registry, err := newRegistry(cfg.Chart.Renderer, cfg.Chart.Width, cfg.Chart.Height)
			if err != nil {
				return err
			}

			store := session.NewStore(
				session.WithMaxEntries(cfg.Session.MaxEntries),
				session.WithTTL(cfg.GetSessionTTL()),
				session.WithLogger(logger.Named("session")),
			)

			srv := server.New(store, registry,
				server.WithTableRows(cfg.Chart.TableRows),
				server.WithHistogramBins(cfg.Chart.HistogramBins),
				server.WithColors(cfg.Chart.Colors),
				server.WithMaxUploadBytes(cfg.MaxUploadBytes()),
				server.WithTimeouts(cfg.GetReadTimeout(), cfg.GetWriteTimeout(), cfg.GetShutdownTimeout()),
				server.WithSweepInterval(cfg.GetSweepInterval()),
				server.WithLogger(logger.Named("http")),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("csvplot starting",
				zap.String("version", version),
				zap.String("addr", cfg.Server.Addr),
				zap.String("renderer", registry.Default()))
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// ============================================================================
// RENDER
// ============================================================================

func renderCmd() *cobra.Command {
	var (
		pf       plotFlags
		renderer string
		outFile  string
		width    int
		height   int
	)

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a chart to a file or stdout",
		Example: `  csvplot render weather.csv --kind line --x date --y temp --y humidity --out weather.html
  csvplot render sales.csv --kind bar --x region --y revenue --renderer png --out sales.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			_, fig, err := pf.figure(ds)
			if err != nil {
				return err
			}

			if width <= 0 {
				width = cfg.Chart.Width
			}
			if height <= 0 {
				height = cfg.Chart.Height
			}
			if renderer == "" {
				renderer = cfg.Chart.Renderer
			}
			registry, err := newRegistry(renderer, width, height)
			if err != nil {
				return err
			}
			rr, err := registry.Get("")
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := render.Render(rr, fig, &buf); err != nil {
				return err
			}

			w, closeOut, err := openOutput(outFile)
			if err != nil {
				return err
			}
			defer closeOut()
			if _, err := buf.WriteTo(w); err != nil {
				return err
			}
			if outFile != "" {
				logger.Info("chart written",
					zap.String("file", outFile),
					zap.String("renderer", rr.Name()),
					zap.String("kind", string(fig.Kind)))
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&renderer, "renderer", "r", "", "Renderer: echarts, svg, png, gochart (default from config)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	cmd.Flags().IntVar(&width, "width", 0, "Chart width in pixels (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "Chart height in pixels (default from config)")
	return cmd
}

// ============================================================================
// RESOLVE
// ============================================================================

type resolveOutput struct {
	File    string             `json:"file"`
	Request engine.PlotRequest `json:"request"`
	Spec    *engine.ChartSpec  `json:"spec"`
	Columns []string           `json:"columns"`
	Rows    int                `json:"rows"`
	Figure  *engine.Figure     `json:"figure"`
}

func resolveCmd() *cobra.Command {
	var (
		pf      plotFlags
		format  string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Resolve a plot request and print the chart spec",
		Long: `Resolve validates a plot request against the file and prints the result.

Formats:
  json      Chart spec and figure as JSON (default)
  pretty    Pretty-printed JSON
  csv       The data the chart reads (long form for line charts)
  series    The figure as a label column plus one column per series`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			spec, fig, err := pf.figure(ds)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(outFile)
			if err != nil {
				return err
			}
			defer closeOut()

			switch format {
			case "csv":
				return writeSpecCSV(w, spec)
			case "series":
				return writeFigureCSV(w, fig)
			case "json", "pretty":
				return writeJSON(w, resolveOutput{
					File:    ds.Name,
					Request: pf.last,
					Spec:    spec,
					Columns: spec.Columns(),
					Rows:    spec.Data.Len(),
					Figure:  fig,
				}, format)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, pretty, csv, series")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	return cmd
}

// ============================================================================
// DESCRIBE / INSPECT / EXPORT
// ============================================================================

func describeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Print summary statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			table := engine.SummaryTable(dataset.Describe(ds))

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return writeTableText(out, table)
			case "csv":
				return writeTableCSV(out, table)
			case "json", "pretty":
				return writeJSON(out, table, format)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, csv, json, pretty")
	return cmd
}

func inspectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print detected column kinds and sample values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			profiles := dataset.Profile(ds)

			out := cmd.OutOrStdout()
			if format == "text" {
				return writeProfilesText(out, ds, profiles)
			}
			return writeJSON(out, profiles, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, pretty")
	return cmd
}

func exportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the data and summary statistics to an .xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			if outFile == "" {
				base := filepath.Base(args[0])
				outFile = base[:len(base)-len(filepath.Ext(base))] + ".xlsx"
			}

			var buf bytes.Buffer
			if err := dataset.WriteXLSX(&buf, ds, dataset.Describe(ds)); err != nil {
				return err
			}
			if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			logger.Info("workbook written", zap.String("file", outFile), zap.Int("rows", ds.Len()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output path (default: FILE with .xlsx extension)")
	return cmd
}

// ============================================================================
// SHARED PLOT FLAGS
// ============================================================================

type plotFlags struct {
	requestFile string
	kind        string
	x           string
	y           []string
	title       string
	xLabel      string
	yLabel      string
	bins        int

	last engine.PlotRequest
}

func (p *plotFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.requestFile, "request", "", "YAML or JSON plot request file; flags override its fields")
	f.StringVarP(&p.kind, "kind", "k", "", "Plot kind: scatter, line, bar, histogram, box (default scatter)")
	f.StringVarP(&p.x, "x", "x", "", "X column (default: first column)")
	f.StringSliceVarP(&p.y, "y", "y", nil, "Y column; repeat for line charts (default: second column)")
	f.StringVar(&p.title, "title", "", "Chart title (default: \"{kind} of {file}\")")
	f.StringVar(&p.xLabel, "xlabel", "", "X-axis label (default: X column)")
	f.StringVar(&p.yLabel, "ylabel", "", "Y-axis label")
	f.IntVar(&p.bins, "bins", 0, "Histogram bins (default from config, 0 = automatic)")
}

// request builds the plot request, filling the widget defaults when no
// columns were chosen.
func (p *plotFlags) request(ds *dataset.Dataset) (engine.PlotRequest, error) {
	var req engine.PlotRequest
	if p.requestFile != "" {
		data, err := os.ReadFile(p.requestFile)
		if err != nil {
			return req, fmt.Errorf("failed to read request: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse request: %w", err)
		}
	}

	if p.kind != "" {
		req.Kind = engine.PlotKind(p.kind)
	}
	if req.Kind == "" {
		req.Kind = engine.KindScatter
	}
	if k, err := engine.ParseKind(string(req.Kind)); err == nil {
		req.Kind = k
	}

	if p.x != "" {
		req.X = p.x
	}
	if len(p.y) > 0 {
		req.Y = p.y
	}
	if req.X == "" && len(req.Y) == 0 {
		req.X, req.Y = engine.DefaultSelection(ds, req.Kind)
	}

	if p.title != "" {
		req.Title = p.title
	}
	if p.xLabel != "" {
		req.XLabel = p.xLabel
	}
	if p.yLabel != "" {
		req.YLabel = p.yLabel
	}
	return req, nil
}

// figure resolves and builds the chart for ds.
func (p *plotFlags) figure(ds *dataset.Dataset) (*engine.ChartSpec, *engine.Figure, error) {
	req, err := p.request(ds)
	if err != nil {
		return nil, nil, err
	}
	p.last = req

	bins := p.bins
	if bins == 0 {
		bins = cfg.Chart.HistogramBins
	}
	opts := []engine.Option{
		engine.WithFileName(ds.Name),
		engine.WithHistogramBins(bins),
		engine.WithLogger(logger),
	}
	if len(cfg.Chart.Colors) > 0 {
		opts = append(opts, engine.WithColors(cfg.Chart.Colors))
	}

	spec, err := engine.Resolve(ds, req, opts...)
	if err != nil {
		return nil, nil, withHint(err)
	}
	fig, err := engine.BuildFigure(spec, opts...)
	if err != nil {
		return nil, nil, withHint(err)
	}
	return spec, fig, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func readDataset(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	ds, err := dataset.Parse(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset parsed",
		zap.String("file", ds.Name),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", ds.NumColumns()))
	return ds, nil
}

func newRegistry(def string, width, height int) (*render.Registry, error) {
	registry := render.DefaultRegistry(render.Size{Width: width, Height: height})
	if def != "" {
		if err := registry.SetDefault(def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// withHint appends the compatibility hint to plot failures.
func withHint(err error) error {
	if pf, ok := engine.AsPlotFailure(err); ok {
		return fmt.Errorf("%w\n%s", err, pf.Hint())
	}
	return err
}
