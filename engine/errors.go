package engine

import (
	"errors"
	"fmt"

	"github.com/spektr-org/csvplot/dataset"
)

// Resolution and figure-building failures. All of them reach callers wrapped
// in a *PlotFailure.
var (
	ErrUnknownKind   = errors.New("unknown plot kind")
	ErrTooFewColumns = errors.New("dataset needs at least 2 columns for this plot")
	ErrMissingX      = errors.New("no x column selected")
	ErrUnknownColumn = dataset.ErrUnknownColumn
	ErrYCount        = errors.New("wrong number of y columns")
	ErrDuplicateY    = errors.New("y column selected more than once")
	ErrNameCollision = dataset.ErrNameCollision
	ErrNotNumeric    = errors.New("column is not numeric")
	ErrNoData        = errors.New("nothing to plot")
	ErrBuildPanic    = errors.New("figure construction failed")
)

// CompatibilityHint is shown next to every PlotFailure.
const CompatibilityHint = "Please ensure you have selected columns with compatible data types for the chosen plot."

// Stage names where a plot failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageBuild   Stage = "build"
	StageRender  Stage = "render"
)

// PlotFailure reports that a chart could not be produced. The session stays
// usable; the user can change the selection and retry.
type PlotFailure struct {
	Stage  Stage
	Kind   PlotKind
	Column string // offending column, when known
	Err    error
}

func (e *PlotFailure) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s plot failed (%s, column %q): %v", e.Kind, e.Stage, e.Column, e.Err)
	}
	return fmt.Sprintf("%s plot failed (%s): %v", e.Kind, e.Stage, e.Err)
}

func (e *PlotFailure) Unwrap() error {
	return e.Err
}

// Hint returns the advice shown under the error banner.
func (e *PlotFailure) Hint() string {
	return CompatibilityHint
}

// NewPlotFailure creates a new PlotFailure.
func NewPlotFailure(stage Stage, kind PlotKind, column string, err error) *PlotFailure {
	return &PlotFailure{Stage: stage, Kind: kind, Column: column, Err: err}
}

// AsPlotFailure extracts a *PlotFailure from err's chain.
func AsPlotFailure(err error) (*PlotFailure, bool) {
	var pf *PlotFailure
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}

// Wrap turns any error into a PlotFailure at stage. Existing PlotFailures are
// returned unchanged; nil stays nil.
func Wrap(stage Stage, kind PlotKind, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsPlotFailure(err); ok {
		return err
	}
	return NewPlotFailure(stage, kind, "", err)
}
