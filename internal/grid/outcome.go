package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is reported when a coordinate does not map to a grid cell.
	ErrOutOfBounds = errors.New("coordinate outside grid")
	// ErrInvalidCellSize is returned by New for non-positive cell sizes.
	ErrInvalidCellSize = errors.New("cell size must be positive")
	// ErrInvalidDimensions is returned by New when the grid would have no cells.
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	// ErrDegenerateFOV is reported when the field of view has no angular width.
	ErrDegenerateFOV = errors.New("field of view is degenerate")
	// ErrInvalidRange is reported for non-positive or non-finite ranges.
	ErrInvalidRange = errors.New("range must be positive")
)

// Status tags the result of a mutating map operation.
type Status int

const (
	// Applied means at least one cell changed.
	Applied Status = iota + 1
	// Skipped means the input was valid but nothing qualified.
	Skipped
	// Failed means the input was rejected and no state changed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports what a mutating operation did.
type Outcome struct {
	Status Status
	// Cells is the number of cells touched.
	Cells int
	Err   error
}

// OK reports whether the operation was not rejected.
func (o Outcome) OK() bool { return o.Status != Failed }

func applied(cells int) Outcome {
	if cells == 0 {
		return Outcome{Status: Skipped}
	}
	return Outcome{Status: Applied, Cells: cells}
}

func failed(err error) Outcome {
	return Outcome{Status: Failed, Err: err}
}
