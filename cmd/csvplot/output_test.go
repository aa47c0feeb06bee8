package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/csvplot/config"
	"github.com/spektr-org/csvplot/dataset"
	"github.com/spektr-org/csvplot/engine"
)

var weatherCSV = []byte(`date,temp,humidity,station
2026-01-01,10.5,80,north
2026-01-02,11,82,north
2026-01-03,9.25,NA,south
`)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return records
}

func resolved(t *testing.T, req engine.PlotRequest) (*engine.ChartSpec, *engine.Figure) {
	t.Helper()
	ds, err := dataset.ParseCSV("weather.csv", weatherCSV)
	require.NoError(t, err)
	spec, err := engine.Resolve(ds, req)
	require.NoError(t, err)
	fig, err := engine.BuildFigure(spec)
	require.NoError(t, err)
	return spec, fig
}

func TestWriteSpecCSVLongForm(t *testing.T) {
	spec, _ := resolved(t, engine.PlotRequest{Kind: engine.KindLine, X: "date", Y: []string{"temp", "humidity"}})

	var buf bytes.Buffer
	require.NoError(t, writeSpecCSV(&buf, spec))

	want := [][]string{
		{"date", "variable", "value"},
		{"2026-01-01", "temp", "10.5"},
		{"2026-01-02", "temp", "11"},
		{"2026-01-03", "temp", "9.25"},
		{"2026-01-01", "humidity", "80"},
		{"2026-01-02", "humidity", "82"},
		{"2026-01-03", "humidity", "NA"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFigureCSVJoinsSeries(t *testing.T) {
	_, fig := resolved(t, engine.PlotRequest{Kind: engine.KindLine, X: "date", Y: []string{"temp", "humidity"}})

	var buf bytes.Buffer
	require.NoError(t, writeFigureCSV(&buf, fig))

	want := [][]string{
		{"date", "temp", "humidity"},
		{"2026-01-01", "10.5", "80"},
		{"2026-01-02", "11", "82"},
		{"2026-01-03", "9.25", ""},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFigureCSVSingleSeriesAndBins(t *testing.T) {
	_, fig := resolved(t, engine.PlotRequest{Kind: engine.KindBar, X: "station", Y: []string{"temp"}})
	var buf bytes.Buffer
	require.NoError(t, writeFigureCSV(&buf, fig))
	assert.Equal(t, [][]string{
		{"station", "temp"},
		{"north", "21.5"},
		{"south", "9.25"},
	}, readCSV(t, buf.Bytes()))

	_, fig = resolved(t, engine.PlotRequest{Kind: engine.KindHistogram, X: "station"})
	buf.Reset()
	require.NoError(t, writeFigureCSV(&buf, fig))
	assert.Equal(t, [][]string{
		{"station", "Frequency"},
		{"north", "2"},
		{"south", "1"},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteTableText(t *testing.T) {
	ds, err := dataset.ParseCSV("weather.csv", weatherCSV)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTableText(&buf, engine.SummaryTable(dataset.Describe(ds))))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9) // header + count, mean, std, min, 25%, 50%, 75%, max
	assert.Contains(t, lines[0], "temp")
	assert.Contains(t, lines[0], "humidity")
	assert.Contains(t, lines[1], "count")
}

func TestFmtNum(t *testing.T) {
	assert.Equal(t, "42", fmtNum(42))
	assert.Equal(t, "-3", fmtNum(-3))
	assert.Equal(t, "0.125", fmtNum(0.125))
}

func TestPlotFlagsRequest(t *testing.T) {
	cfg = config.DefaultConfig()
	ds, err := dataset.ParseCSV("weather.csv", weatherCSV)
	require.NoError(t, err)

	// No columns: widget defaults.
	pf := plotFlags{kind: "line plot"}
	req, err := pf.request(ds)
	require.NoError(t, err)
	assert.Equal(t, engine.KindLine, req.Kind)
	assert.Equal(t, "date", req.X)
	assert.Equal(t, []string{"temp"}, req.Y)

	// Request file with a flag override.
	path := filepath.Join(t.TempDir(), "req.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: Bar\nx: station\ny: [temp]\ntitle: From file\n"), 0o644))
	pf = plotFlags{requestFile: path, title: "From flag"}
	req, err = pf.request(ds)
	require.NoError(t, err)
	assert.Equal(t, engine.PlotRequest{Kind: engine.KindBar, X: "station", Y: []string{"temp"}, Title: "From flag"}, req)

	// Plot failures carry the hint.
	pf = plotFlags{kind: "bar", x: "station", y: []string{"station"}}
	_, _, err = pf.figure(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), engine.CompatibilityHint)
}
