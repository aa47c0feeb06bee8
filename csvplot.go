// Package csvplot is a browser-based CSV visualizer.
// Upload a file, pick a plot, get a chart.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/csvplot/dataset"
//	    "github.com/spektr-org/csvplot/engine"
//	)
//
//	ds, err := dataset.ParseCSV("weather.csv", data)
//	spec, err := engine.Resolve(ds, engine.PlotRequest{
//	    Kind: engine.KindLine,
//	    X:    "date",
//	    Y:    []string{"temp", "humidity"},
//	})
//	fig, err := engine.BuildFigure(spec)
//
// The resolver validates a plot request against a dataset and produces a
// library-agnostic chart spec; BuildFigure turns that into renderer-neutral
// series, bins or boxes. The render package draws figures with go-echarts,
// gonum/plot or go-chart, and the server package wraps the whole pipeline in
// a small web UI (cmd/csvplot serve).
//
// Nothing here is persisted: uploads live in an in-memory session store.
package csvplot
