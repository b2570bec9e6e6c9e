package core

import (
	"errors"
	"fmt"
)

// OutputTop is the first row of the output region. Row 1 holds the header separator.
const OutputTop = 2

// minHeight leaves room for the header, one output row, the footer separator and the prompt.
const minHeight = OutputTop + 2

// ErrTerminalTooSmall reports a terminal that cannot hold the console layout.
var ErrTerminalTooSmall = errors.New("terminal too small")

// Geometry is the console layout derived from the terminal size.
// Rows and columns are 1-based.
type Geometry struct {
	Width        int
	OutputTop    int
	OutputBottom int
	PromptRow    int
}

// NewGeometry computes the layout for a width x height terminal.
func NewGeometry(width, height int) (Geometry, error) {
	if width < 1 || height < minHeight {
		return Geometry{}, fmt.Errorf("%w: %dx%d (need at least 1x%d)", ErrTerminalTooSmall, width, height, minHeight)
	}
	return Geometry{
		Width:        width,
		OutputTop:    OutputTop,
		OutputBottom: height - 2,
		PromptRow:    height,
	}, nil
}

// VisibleRows is the number of rows in the output region.
func (g Geometry) VisibleRows() int {
	rows := g.OutputBottom - g.OutputTop + 1
	if rows < 0 {
		return 0
	}
	return rows
}

// SeparatorRow is the row between the output region and the prompt.
func (g Geometry) SeparatorRow() int {
	return g.OutputBottom + 1
}
