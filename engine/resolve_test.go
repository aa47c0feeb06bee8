package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// FIXTURES
// ============================================================================

var weatherCSV = []byte(`date,temp,humidity,station
2026-01-01,10.5,80,north
2026-01-02,11,82,north
2026-01-03,9.25,NA,south
2026-01-04,12,79,south
`)

// Sample Finance CSV
var financeCSV = []byte(`Month,Location,Category,Field,Currency,Amount
Jan-2026,Singapore,Income,Salary,SGD,8500.00
Jan-2026,Singapore,Expense,Rent,SGD,2200.00
Jan-2026,Singapore,Expense,Groceries,SGD,450.00
Jan-2026,Singapore,Expense,Transport,SGD,120.00
Jan-2026,India,Income,Rental Income,INR,25000.00
Jan-2026,India,Expense,Property Tax,INR,5000.00
Feb-2026,Singapore,Income,Salary,SGD,8500.00
Feb-2026,Singapore,Expense,Rent,SGD,2200.00
Feb-2026,Singapore,Expense,Internet,SGD,49.90
Feb-2026,India,Transfer,ToIndia,INR,50000.00
`)

func mustParse(t *testing.T, name string, data []byte) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ParseCSV(name, data)
	require.NoError(t, err)
	return ds
}

func requirePlotFailure(t *testing.T, err error, stage Stage, target error) *PlotFailure {
	t.Helper()
	require.Error(t, err)
	pf, ok := AsPlotFailure(err)
	require.True(t, ok, "expected *PlotFailure, got %T: %v", err, err)
	assert.Equal(t, stage, pf.Stage)
	if target != nil {
		assert.ErrorIs(t, err, target)
	}
	assert.Equal(t, CompatibilityHint, pf.Hint())
	return pf
}

// ============================================================================
// RESOLVE TESTS
// ============================================================================

func TestResolveSingleYKinds(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	for _, kind := range []PlotKind{KindScatter, KindBar, KindBox} {
		t.Run(string(kind), func(t *testing.T) {
			spec, err := Resolve(ds, PlotRequest{Kind: kind, X: "station", Y: []string{"temp"}})
			require.NoError(t, err)

			assert.Equal(t, []string{"station", "temp"}, spec.Columns())
			assert.Equal(t, "temp", spec.Y)
			assert.Same(t, ds, spec.Data)
			assert.False(t, spec.LongForm())
			assert.Equal(t, string(kind)+" of weather.csv", spec.Title)
			assert.Equal(t, "station", spec.XLabel)
			assert.Equal(t, "temp", spec.YLabel)
		})
	}
}

func TestResolveHistogramDropsY(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	spec, err := Resolve(ds, PlotRequest{Kind: KindHistogram, X: "temp", Y: []string{"humidity", "nope"}, YLabel: "Count"})
	require.NoError(t, err)

	assert.Empty(t, spec.Y)
	assert.Empty(t, spec.YColumns)
	assert.Equal(t, []string{"temp"}, spec.Columns())
	assert.Equal(t, "Frequency", spec.YLabel)
	assert.Equal(t, "Histogram of weather.csv", spec.Title)
}

func TestResolveHistogramSingleColumn(t *testing.T) {
	ds := mustParse(t, "one.csv", []byte("v\n1\n2\n"))

	_, err := Resolve(ds, PlotRequest{Kind: KindHistogram, X: "v"})
	assert.NoError(t, err)

	_, err = Resolve(ds, PlotRequest{Kind: KindScatter, X: "v", Y: []string{"v"}})
	requirePlotFailure(t, err, StageResolve, ErrTooFewColumns)
}

func TestResolveLineLongForm(t *testing.T) {
	ds := mustParse(t, "multi.csv", []byte("x,c1,c2,c3\n1,10,20,30\n2,11,21,31\n3,12,22,32\n4,13,23,33\n"))
	selection := []string{"c3", "c1", "c2"}

	spec, err := Resolve(ds, PlotRequest{Kind: KindLine, X: "x", Y: selection})
	require.NoError(t, err)

	require.True(t, spec.LongForm())
	assert.Equal(t, []string{"x", SeriesColumn, ValueColumn}, spec.Data.ColumnNames())
	assert.Equal(t, 3*ds.Len(), spec.Data.Len())
	assert.Equal(t, ValueColumn, spec.Y)
	assert.Equal(t, "c3", spec.YLabel, "defaults to the first selected column")

	variable, _ := spec.Data.Column(SeriesColumn)
	x, _ := spec.Data.Column("x")
	for s, name := range selection {
		for i := 0; i < ds.Len(); i++ {
			row := s*ds.Len() + i
			assert.Equal(t, name, variable.Raw(row))
			assert.Equal(t, ds.Row(i)[0], x.Raw(row), "row order preserved within series")
		}
	}

	fig, err := BuildFigure(spec)
	require.NoError(t, err)
	names := make([]string, len(fig.Series))
	for i, s := range fig.Series {
		names[i] = s.Name
	}
	assert.Equal(t, selection, names)
	assert.True(t, fig.ShowLegend)
}

func TestResolveWeatherLineExample(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	spec, err := Resolve(ds, PlotRequest{Kind: KindLine, X: "date", Y: []string{"temp", "humidity"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "variable", "value"}, spec.Data.ColumnNames())
	assert.Equal(t, 2*ds.Len(), spec.Data.Len())

	variable, _ := spec.Data.Column("variable")
	for i := 0; i < spec.Data.Len(); i++ {
		assert.Contains(t, []string{"temp", "humidity"}, variable.Raw(i))
	}
	assert.Equal(t, []string{"date", "temp", "humidity", "station"}, ds.ColumnNames(), "input dataset untouched")
	assert.Equal(t, 4, ds.Len())
}

func TestResolveTitleOverrideOnlyChangesTitle(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)
	req := PlotRequest{Kind: KindLine, X: "date", Y: []string{"temp", "humidity"}}

	base, err := Resolve(ds, req)
	require.NoError(t, err)
	assert.Equal(t, "Line of weather.csv", base.Title)

	req.Title = "Readings"
	custom, err := Resolve(ds, req)
	require.NoError(t, err)
	assert.Equal(t, "Readings", custom.Title)

	if diff := cmp.Diff(base.Data.ColumnNames(), custom.Data.ColumnNames()); diff != "" {
		t.Errorf("data columns changed (-base +custom):\n%s", diff)
	}
	for i := 0; i < base.Data.Len(); i++ {
		assert.Equal(t, base.Data.Row(i), custom.Data.Row(i))
	}
	assert.Equal(t, base.Columns(), custom.Columns())
	assert.Equal(t, base.XLabel, custom.XLabel)
	assert.Equal(t, base.YLabel, custom.YLabel)
}

func TestResolveLabelOverrides(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	spec, err := Resolve(ds, PlotRequest{Kind: KindScatter, X: "temp", Y: []string{"humidity"}, XLabel: "Temperature", YLabel: "RH %"},
		WithFileName("upload.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Scatter of upload.csv", spec.Title)
	assert.Equal(t, "Temperature", spec.XLabel)
	assert.Equal(t, "RH %", spec.YLabel)
}

func TestResolveFailures(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	tests := []struct {
		name   string
		req    PlotRequest
		want   error
		column string
	}{
		{"unknown kind", PlotRequest{Kind: "Pie", X: "date", Y: []string{"temp"}}, ErrUnknownKind, ""},
		{"no x", PlotRequest{Kind: KindScatter, Y: []string{"temp"}}, ErrMissingX, ""},
		{"unknown x", PlotRequest{Kind: KindScatter, X: "pressure", Y: []string{"temp"}}, ErrUnknownColumn, "pressure"},
		{"unknown y", PlotRequest{Kind: KindBar, X: "date", Y: []string{"pressure"}}, ErrUnknownColumn, "pressure"},
		{"unknown line y", PlotRequest{Kind: KindLine, X: "date", Y: []string{"temp", "pressure"}}, ErrUnknownColumn, "pressure"},
		{"missing y", PlotRequest{Kind: KindBox, X: "station"}, ErrYCount, ""},
		{"too many y", PlotRequest{Kind: KindScatter, X: "date", Y: []string{"temp", "humidity"}}, ErrYCount, ""},
		{"empty line", PlotRequest{Kind: KindLine, X: "date"}, ErrYCount, ""},
		{"duplicate y", PlotRequest{Kind: KindLine, X: "date", Y: []string{"temp", "temp"}}, ErrDuplicateY, "temp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Resolve(ds, tt.req, WithLogger(zaptest.NewLogger(t)))
			assert.Nil(t, spec)
			pf := requirePlotFailure(t, err, StageResolve, tt.want)
			assert.Equal(t, tt.column, pf.Column)
		})
	}
}

func TestResolveLongFormCollision(t *testing.T) {
	ds := mustParse(t, "clash.csv", []byte("variable,y\n1,2\n"))

	_, err := Resolve(ds, PlotRequest{Kind: KindLine, X: "variable", Y: []string{"y"}})
	requirePlotFailure(t, err, StageResolve, ErrNameCollision)

	_, err = Resolve(ds, PlotRequest{Kind: KindScatter, X: "variable", Y: []string{"y"}})
	assert.NoError(t, err, "only Line reshapes")
}

func TestResolveAcceptsKindAliases(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	spec, err := Resolve(ds, PlotRequest{Kind: "box plot", X: "station", Y: []string{"temp"}})
	require.NoError(t, err)
	assert.Equal(t, KindBox, spec.Kind)
	assert.Equal(t, "Box of weather.csv", spec.Title)
}

func TestParseKind(t *testing.T) {
	tests := map[string]PlotKind{
		"Scatter":      KindScatter,
		"Scatter Plot": KindScatter,
		"line":         KindLine,
		" Bar Chart ":  KindBar,
		"HISTOGRAM":    KindHistogram,
		"boxplot":      KindBox,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("pie")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestKindNamesMatchDefaultTitle(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.Equal(t, string(k)+" of f.csv", DefaultTitle(k, "f.csv"))
	}
}

func TestDefaultSelection(t *testing.T) {
	ds := mustParse(t, "weather.csv", weatherCSV)

	x, y := DefaultSelection(ds, KindScatter)
	assert.Equal(t, "date", x)
	assert.Equal(t, []string{"temp"}, y)

	x, y = DefaultSelection(ds, KindLine)
	assert.Equal(t, "date", x)
	assert.Equal(t, []string{"temp"}, y)

	x, y = DefaultSelection(ds, KindHistogram)
	assert.Equal(t, "date", x)
	assert.Nil(t, y)

	one := mustParse(t, "one.csv", []byte("v\n1\n"))
	x, y = DefaultSelection(one, KindBar)
	assert.Equal(t, "v", x)
	assert.Nil(t, y)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(StageRender, KindBar, nil))

	base := errors.New("boom")
	err := Wrap(StageRender, KindBar, base)
	pf := requirePlotFailure(t, err, StageRender, base)
	assert.Equal(t, KindBar, pf.Kind)

	again := Wrap(StageBuild, KindLine, err)
	assert.Same(t, pf, again.(*PlotFailure), "existing failures pass through")
}
