package dataset

import (
	"errors"
	"fmt"
)

// ============================================================================
// MELT — Wide → long reshape
// ============================================================================
// Melt(ds, "date", ["temp", "humidity"], "variable", "value") turns
//
//   date  temp humidity          date  variable  value
//   d1    10   80          →     d1    temp      10
//   d2    11   82                d2    temp      11
//                                d1    humidity  80
//                                d2    humidity  82
//
// Rows are series-major: every row of valueVars[0] in original order, then
// valueVars[1], and so on. The source dataset is left untouched.
// ============================================================================

var (
	// ErrUnknownColumn indicates a referenced column does not exist.
	ErrUnknownColumn = errors.New("column not found")
	// ErrNameCollision indicates a long-form output column would be ambiguous.
	ErrNameCollision = errors.New("column name collides with long-form column")
)

// Melt reshapes ds into long form keyed by idVar.
func Melt(ds *Dataset, idVar string, valueVars []string, varName, valueName string) (*Dataset, error) {
	id, ok := ds.Column(idVar)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, idVar)
	}
	if idVar == varName || idVar == valueName || varName == valueName {
		return nil, fmt.Errorf("%w: %q", ErrNameCollision, idVar)
	}

	values := make([]*Column, len(valueVars))
	for i, name := range valueVars {
		c, ok := ds.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		values[i] = c
	}

	n := ds.Len()
	rows := make([][]string, 0, n*len(values))
	for _, c := range values {
		for i := 0; i < n; i++ {
			rows = append(rows, []string{id.Raw(i), c.Name, c.Raw(i)})
		}
	}

	return New(ds.Name, []string{idVar, varName, valueName}, rows), nil
}
