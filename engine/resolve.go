package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// RESOLVER — PlotRequest + Dataset → ChartSpec
// ============================================================================
// Rules by kind:
//
//   Scatter, Bar, Box   X: 1 column   Y: exactly 1        YLabel: Y
//   Line                X: 1 column   Y: 1 or more        YLabel: Y[0]
//   Histogram           X: 1 column   Y: dropped          YLabel: "Frequency"
//
// Resolve only checks names and counts. Whether the column types suit the
// kind is decided in BuildFigure, when the chart is actually constructed.
// Resolve never mutates ds.
// ============================================================================

const frequencyLabel = "Frequency"

// Resolve validates req against ds and returns the chart description.
// Every error is a *PlotFailure at StageResolve.
func Resolve(ds *dataset.Dataset, req PlotRequest, opts ...Option) (*ChartSpec, error) {
	cfg := applyOptions(opts)

	spec, err := resolve(ds, req, cfg)
	if err != nil {
		cfg.Logger.Debug("plot request rejected",
			zap.String("kind", string(req.Kind)),
			zap.String("x", req.X),
			zap.Strings("y", req.Y),
			zap.Error(err))
		return nil, err
	}

	cfg.Logger.Debug("plot request resolved",
		zap.String("kind", string(spec.Kind)),
		zap.String("x", spec.X),
		zap.Strings("y", spec.YColumns),
		zap.Int("rows", spec.Data.Len()))
	return spec, nil
}

func resolve(ds *dataset.Dataset, req PlotRequest, cfg *config) (*ChartSpec, error) {
	kind := req.Kind
	fail := func(column string, err error) (*ChartSpec, error) {
		return nil, NewPlotFailure(StageResolve, kind, column, err)
	}

	if !kind.Valid() {
		parsed, err := ParseKind(string(kind))
		if err != nil {
			return fail("", err)
		}
		kind = parsed
	}

	if kind.NeedsY() && ds.NumColumns() < 2 {
		return fail("", fmt.Errorf("%w (have %d)", ErrTooFewColumns, ds.NumColumns()))
	}
	if req.X == "" {
		return fail("", ErrMissingX)
	}
	if !ds.Has(req.X) {
		return fail(req.X, fmt.Errorf("%w: %q", ErrUnknownColumn, req.X))
	}

	// Histogram silently ignores any Y selection.
	var ys []string
	if kind.NeedsY() {
		ys = req.Y
	}

	switch {
	case !kind.NeedsY():
	case kind.MultiY() && len(ys) == 0:
		return fail("", fmt.Errorf("%w: %s needs at least one", ErrYCount, kind))
	case !kind.MultiY() && len(ys) != 1:
		return fail("", fmt.Errorf("%w: %s needs exactly one, got %d", ErrYCount, kind, len(ys)))
	}

	seen := make(map[string]bool, len(ys))
	for _, y := range ys {
		if !ds.Has(y) {
			return fail(y, fmt.Errorf("%w: %q", ErrUnknownColumn, y))
		}
		if seen[y] {
			return fail(y, fmt.Errorf("%w: %q", ErrDuplicateY, y))
		}
		seen[y] = true
	}

	spec := &ChartSpec{
		Kind:     kind,
		Data:     ds,
		Source:   ds,
		X:        req.X,
		YColumns: append([]string(nil), ys...),
	}

	switch kind {
	case KindLine:
		long, err := dataset.Melt(ds, req.X, ys, SeriesColumn, ValueColumn)
		if err != nil {
			return fail(req.X, err)
		}
		spec.Data = long
		spec.Y = ValueColumn
		spec.Series = SeriesColumn
	case KindHistogram:
	default:
		spec.Y = ys[0]
	}

	applyLabels(spec, ds, req, cfg)
	return spec, nil
}

// applyLabels fills Title/XLabel/YLabel from the request or the defaults.
func applyLabels(spec *ChartSpec, ds *dataset.Dataset, req PlotRequest, cfg *config) {
	fileName := cfg.FileName
	if fileName == "" {
		fileName = ds.Name
	}

	spec.Title = firstNonEmpty(req.Title, DefaultTitle(spec.Kind, fileName))
	spec.XLabel = firstNonEmpty(req.XLabel, spec.X)

	yDefault := frequencyLabel
	if len(spec.YColumns) > 0 {
		yDefault = spec.YColumns[0]
	}
	if spec.Kind == KindHistogram {
		// Histogram's y axis is always the count.
		spec.YLabel = frequencyLabel
		return
	}
	spec.YLabel = firstNonEmpty(req.YLabel, yDefault)
}

// DefaultTitle returns "{kind} of {fileName}".
func DefaultTitle(kind PlotKind, fileName string) string {
	return fmt.Sprintf("%s of %s", kind, fileName)
}

// DefaultSelection returns the initial form selection for kind: the first
// column as X and the second as Y. Histogram gets no Y; a single-column
// dataset gets an empty Y.
func DefaultSelection(ds *dataset.Dataset, kind PlotKind) (x string, y []string) {
	names := ds.ColumnNames()
	if len(names) > 0 {
		x = names[0]
	}
	if kind.NeedsY() && len(names) > 1 {
		y = []string{names[1]}
	}
	return x, y
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
