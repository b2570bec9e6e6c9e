// Package ansisink draws console primitives as ANSI escape sequences.
package ansisink

import (
	"bufio"
	"io"

	"github.com/charmbracelet/x/ansi"

	"pkt.systems/scrollcon/core"
)

// Sink implements core.RenderSink over a buffered writer. The first write
// error is kept; later calls are dropped and Flush returns it.
type Sink struct {
	w   *bufio.Writer
	err error
}

var _ core.RenderSink = (*Sink)(nil)

// New returns a Sink writing to out.
func New(out io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(out)}
}

func (s *Sink) write(seq string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(seq)
}

// Goto moves the cursor to a 1-based column and row.
func (s *Sink) Goto(col, row int) {
	s.write(ansi.CursorPosition(col, row))
}

// ClearLine erases the cursor row.
func (s *Sink) ClearLine() {
	s.write(ansi.EraseEntireLine)
}

// ClearAll erases the screen and homes the cursor.
func (s *Sink) ClearAll() {
	s.write(ansi.EraseEntireScreen + ansi.CursorHomePosition)
}

// ScrollUp scrolls the scroll region up n rows.
func (s *Sink) ScrollUp(n int) {
	if n < 1 {
		return
	}
	s.write(ansi.ScrollUp(n))
}

// SetScrollRegion limits scrolling to rows top through bottom.
func (s *Sink) SetScrollRegion(top, bottom int) {
	s.write(ansi.SetTopBottomMargins(top, bottom))
}

// ResetScrollRegion restores scrolling to the whole screen.
func (s *Sink) ResetScrollRegion() {
	s.write(ansi.SetTopBottomMargins(0, 0))
}

// DisableOriginMode makes cursor addressing absolute to the screen.
func (s *Sink) DisableOriginMode() {
	s.write(ansi.ResetModeOrigin)
}

// SetForeground selects the text color. A nil color selects the default.
func (s *Sink) SetForeground(c ansi.Color) {
	s.write(ansi.Style{}.ForegroundColor(c).String())
}

// ResetForeground selects the default text color.
func (s *Sink) ResetForeground() {
	s.write(ansi.Style{}.ForegroundColor(nil).String())
}

// Write prints text at the cursor.
func (s *Sink) Write(text string) {
	s.write(text)
}

// EnterAltScreen switches to the alternate screen and clears it.
func (s *Sink) EnterAltScreen() {
	s.write(ansi.SetModeAltScreenSaveCursor + ansi.CursorHomePosition + ansi.EraseEntireScreen)
}

// ExitAltScreen restores the main screen and shows the cursor.
func (s *Sink) ExitAltScreen() {
	s.write(ansi.ResetModeAltScreenSaveCursor + ansi.ShowCursor)
}

// Flush writes buffered output and reports the first error seen.
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	s.err = s.w.Flush()
	return s.err
}

// Err returns the first error seen.
func (s *Sink) Err() error {
	return s.err
}
