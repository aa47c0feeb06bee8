package dataset

import "sort"

// ============================================================================
// PROFILE — Column overview shown next to the uploaded data
// ============================================================================

// ColumnProfile summarises one column.
type ColumnProfile struct {
	Name            string   `json:"name"`
	Kind            Kind     `json:"kind"`
	NonMissing      int      `json:"nonMissing"`
	Missing         int      `json:"missing"`
	Unique          int      `json:"unique"`
	SampleValues    []string `json:"sampleValues"`
	CardinalityHint string   `json:"cardinalityHint"` // "low", "medium", "high"
}

const maxSamples = 10

// Profile inspects every column of ds.
func Profile(ds *Dataset) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, ds.NumColumns())
	for _, c := range ds.Columns() {
		profiles = append(profiles, profileColumn(c))
	}
	return profiles
}

func profileColumn(c *Column) ColumnProfile {
	p := ColumnProfile{Name: c.Name, Kind: c.Kind}

	uniqueSet := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			p.Missing++
			continue
		}
		p.NonMissing++
		uniqueSet[c.Raw(i)] = true
	}
	p.Unique = len(uniqueSet)
	p.SampleValues = collectSamples(uniqueSet, maxSamples)

	switch {
	case p.Unique <= 10:
		p.CardinalityHint = "low"
	case p.Unique <= 100:
		p.CardinalityHint = "medium"
	default:
		p.CardinalityHint = "high"
	}
	return p
}

// collectSamples picks up to max values, sorted for deterministic output.
func collectSamples(uniqueSet map[string]bool, max int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > max {
		samples = samples[:max]
	}
	return samples
}
