package dataset

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// PARSE TESTS
// ============================================================================

var weatherCSV = []byte(`date,temp,humidity,station
2026-01-01,10.5,80,north
2026-01-02,11,82,north
2026-01-03,9.25,NA,south
2026-01-04,12,79,south
`)

func TestParseCSVWeather(t *testing.T) {
	ds, err := ParseCSV("weather.csv", weatherCSV)
	require.NoError(t, err)

	assert.Equal(t, "weather.csv", ds.Name)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"date", "temp", "humidity", "station"}, ds.ColumnNames())

	kinds := map[string]Kind{}
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, map[string]Kind{
		"date":     KindTemporal,
		"temp":     KindNumeric,
		"humidity": KindNumeric,
		"station":  KindText,
	}, kinds)

	humidity, ok := ds.Column("humidity")
	require.True(t, ok)
	assert.True(t, humidity.IsMissing(2))
	_, ok = humidity.Float(2)
	assert.False(t, ok)
	v, ok := humidity.Float(3)
	require.True(t, ok)
	assert.Equal(t, 79.0, v)

	date, _ := ds.Column("date")
	ts, ok := date.Time(1)
	require.True(t, ok)
	assert.Equal(t, 2, ts.Day())

	assert.Equal(t, []string{"2026-01-03", "9.25", "NA", "south"}, ds.Row(2))
}

func TestParseCSVShortRowsArePadded(t *testing.T) {
	ds, err := ParseCSV("short.csv", []byte("a,b,c\n1,2\n3,4,5\n"))
	require.NoError(t, err)

	c, _ := ds.Column("c")
	assert.True(t, c.IsMissing(0))
	assert.Equal(t, KindNumeric, c.Kind)
	assert.Equal(t, []float64{5}, c.Floats())
}

func TestParseCSVHeaderNormalization(t *testing.T) {
	ds, err := ParseCSV("dup.csv", []byte("a, a ,,a.1,a\n1,2,3,4,5\n"))
	require.NoError(t, err)

	want := []string{"a", "a.1", "Unnamed: 2", "a.1.1", "a.2"}
	if diff := cmp.Diff(want, ds.ColumnNames()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSVBOMAndHeaderOnly(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x,y\n")...)
	ds, err := ParseCSV("empty.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())
	assert.Equal(t, 0, ds.Len())
}

func TestParseCSVFailures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: []byte(""), want: ErrEmpty},
		{name: "whitespace", data: []byte("  \n\n"), want: ErrEmpty},
		{name: "binary", data: []byte{0x89, 'P', 'N', 'G', 0xff, 0xfe, 0x00}, want: ErrEncoding},
		{name: "too many fields", data: []byte("a,b\n1,2,3\n"), want: ErrRowWidth},
		{name: "bare quote", data: []byte("a,b\n1,x\"y\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseCSV("bad.csv", tt.data)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, IsParseFailure(err))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "bad.csv", pe.File)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestParseCSVRowWidthReportsLine(t *testing.T) {
	_, err := ParseCSV("wide.csv", []byte("a,b\n1,2\n3,4,5\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
}

// ============================================================================
// INFERENCE TESTS
// ============================================================================

func TestKindInference(t *testing.T) {
	tests := []struct {
		name   string
		values string
		want   Kind
	}{
		{"integers", "1\n2\n3\n", KindNumeric},
		{"floats with missing", "1.5\n\nNaN\n2\n", KindNumeric},
		{"currency", "\"$1,200\"\n-€3\n£4.50\n", KindNumeric},
		{"binary digits stay numeric", "1\n0\n1\n", KindNumeric},
		{"iso dates", "2026-01-01\n2026-02-01\n", KindTemporal},
		{"month labels", "Jan-2026\nFeb-2026\n", KindTemporal},
		{"year-month", "2026-01\n2026-02\n", KindTemporal},
		{"mixed date layouts", "2026-01-01\nJan-2026\n", KindText},
		{"booleans", "true\nFalse\nyes\n", KindBool},
		{"text", "red\ngreen\n", KindText},
		{"mostly numbers", "1\n2\nthree\n", KindText},
		{"all missing", "NA\n\nnull\n", KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseCSV("k.csv", []byte("col\n"+tt.values))
			require.NoError(t, err)
			c, _ := ds.Column("col")
			assert.Equal(t, tt.want, c.Kind, "kind of %q", tt.values)
		})
	}
}

func TestParseNumberVariants(t *testing.T) {
	tests := map[string]float64{
		"42":        42,
		" 3.5 ":     3.5,
		"1,234.5":   1234.5,
		"$10":       10,
		"-$2,000":   -2000,
		"1e3":       1000,
	}
	for in, want := range tests {
		got, ok := parseNumber(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, in := range []string{"abc", "", "inf", "NaN", "$inf", "-$NaN", "£Infinity", "€-inf"} {
		_, ok := parseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestNonFiniteCurrencyCellsKeepColumnText(t *testing.T) {
	ds, err := ParseCSV("x.csv", []byte("x,y\n$inf,1\n1,2\n3,4\n"))
	require.NoError(t, err)
	c, _ := ds.Column("x")
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, []float64{1, 3}, c.Floats())
}

func TestTextColumnFloatFallsBack(t *testing.T) {
	ds, err := ParseCSV("mixed.csv", []byte("v\n1\ntwo\n3\n"))
	require.NoError(t, err)
	c, _ := ds.Column("v")
	require.Equal(t, KindText, c.Kind)

	f, ok := c.Float(0)
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)
	_, ok = c.Float(1)
	assert.False(t, ok)
}
