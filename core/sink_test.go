package core

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// recordingSink records every primitive and emulates enough of a terminal
// to check what the output region shows.
type recordingSink struct {
	calls   []string
	writes  int
	flushes int
	err     error

	rows     []string
	col, row int
	top, bot int
}

func newRecordingSink(height int) *recordingSink {
	s := &recordingSink{}
	s.resize(height)
	return s
}

func (s *recordingSink) resize(height int) {
	s.rows = make([]string, height+1)
	s.top, s.bot = 1, height
	s.col, s.row = 1, 1
}

func (s *recordingSink) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordingSink) reset() {
	s.calls = nil
	s.writes = 0
}

func (s *recordingSink) Goto(col, row int) {
	s.record("goto %d,%d", col, row)
	s.col, s.row = col, row
}

func (s *recordingSink) ClearLine() {
	s.record("clearline")
	if s.row > 0 && s.row < len(s.rows) {
		s.rows[s.row] = ""
	}
}

func (s *recordingSink) ClearAll() {
	s.record("clearall")
	for i := range s.rows {
		s.rows[i] = ""
	}
}

func (s *recordingSink) ScrollUp(n int) {
	s.record("scrollup %d", n)
	for ; n > 0; n-- {
		copy(s.rows[s.top:s.bot], s.rows[s.top+1:s.bot+1])
		s.rows[s.bot] = ""
	}
}

func (s *recordingSink) SetScrollRegion(top, bottom int) {
	s.record("region %d,%d", top, bottom)
	if bottom >= len(s.rows) {
		s.resize(bottom + 2)
	}
	s.top, s.bot = top, bottom
}

func (s *recordingSink) ResetScrollRegion() {
	s.record("resetregion")
	s.top, s.bot = 1, len(s.rows)-1
}

func (s *recordingSink) DisableOriginMode() {
	s.record("originoff")
}

func (s *recordingSink) SetForeground(c ansi.Color) {
	s.record("fg %v", c)
}

func (s *recordingSink) ResetForeground() {
	s.record("fgreset")
}

func (s *recordingSink) Write(text string) {
	s.record("write %q", text)
	s.writes++
	if s.row <= 0 || s.row >= len(s.rows) {
		return
	}
	line := s.rows[s.row]
	if pad := s.col - 1 - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	s.rows[s.row] = line[:s.col-1] + text
	s.col += len(text)
}

func (s *recordingSink) Flush() error {
	s.record("flush")
	s.flushes++
	return s.err
}

// region returns the rows between top and bottom inclusive.
func (s *recordingSink) region(top, bottom int) []string {
	out := make([]string, 0, bottom-top+1)
	for row := top; row <= bottom; row++ {
		out = append(out, s.rows[row])
	}
	return out
}
