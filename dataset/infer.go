package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// TYPE INFERENCE — Per-column kind detection
// ============================================================================
// A column takes a kind only when EVERY non-missing value matches it:
//   1. numeric  (thousands separators / leading currency symbol tolerated)
//   2. temporal (one of dateLayouts, the same layout for the whole column)
//   3. bool     (true/false/yes/no)
//   4. text     (everything else, including all-missing columns)
// Numeric is tested first so "1"/"0" and bare years stay numbers.
// ============================================================================

var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
}

// IsMissingToken reports whether s is treated as a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01",
}

func newColumn(name string, cells []string) *Column {
	col := &Column{
		Name:    name,
		raw:     make([]string, len(cells)),
		missing: make([]bool, len(cells)),
	}

	present := 0
	for i, v := range cells {
		v = strings.TrimSpace(v)
		col.raw[i] = v
		if missingTokens[v] {
			col.missing[i] = true
			continue
		}
		present++
	}
	if present == 0 {
		col.Kind = KindText
		return col
	}

	if nums, ok := col.allNumeric(); ok {
		col.Kind = KindNumeric
		col.nums = nums
		return col
	}
	if times, ok := col.allTemporal(); ok {
		col.Kind = KindTemporal
		col.times = times
		return col
	}
	if col.allBool() {
		col.Kind = KindBool
		return col
	}
	col.Kind = KindText
	return col
}

func (c *Column) allNumeric() ([]float64, bool) {
	nums := make([]float64, len(c.raw))
	for i, v := range c.raw {
		if c.missing[i] {
			nums[i] = math.NaN()
			continue
		}
		f, ok := parseNumber(v)
		if !ok {
			return nil, false
		}
		nums[i] = f
	}
	return nums, true
}

func (c *Column) allTemporal() ([]time.Time, bool) {
	layout := ""
	for i, v := range c.raw {
		if !c.missing[i] {
			layout = detectLayout(v)
			break
		}
	}
	if layout == "" {
		return nil, false
	}

	times := make([]time.Time, len(c.raw))
	for i, v := range c.raw {
		if c.missing[i] {
			continue
		}
		t, err := time.Parse(layout, v)
		if err != nil {
			return nil, false
		}
		times[i] = t
	}
	return times, true
}

func (c *Column) allBool() bool {
	for i, v := range c.raw {
		if c.missing[i] {
			continue
		}
		switch strings.ToLower(v) {
		case "true", "false", "yes", "no":
		default:
			return false
		}
	}
	return true
}

// parseNumber parses a cell as float64, accepting "1,234.56", "$12", "-€3".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, !math.IsInf(f, 0) && !math.IsNaN(f)
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.TrimPrefix(s, sym)
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, !math.IsInf(f, 0) && !math.IsNaN(f)
}

func detectLayout(s string) string {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return layout
		}
	}
	return ""
}
