package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Resolve() and BuildFigure()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	FileName      string   // used in the default title; falls back to Dataset.Name
	HistogramBins int      // 0 → Sturges' rule
	Colors        []string // series palette
	Logger        *zap.Logger
}

// WithFileName sets the file name shown in the default title.
func WithFileName(name string) Option {
	return func(c *config) {
		c.FileName = name
	}
}

// WithHistogramBins fixes the number of bins for numeric histograms.
// n <= 0 restores the automatic choice.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = 0
		}
		c.HistogramBins = n
	}
}

// WithColors replaces the series palette. An empty palette is ignored.
func WithColors(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Colors = colors
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Colors: defaultColors,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
