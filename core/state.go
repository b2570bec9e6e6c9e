package core

import "strconv"

// ScrollState is either Live or Scrollback at a window start index.
// The zero value is Live.
type ScrollState struct {
	scrollback  bool
	windowStart int
}

// Live returns the state that follows the tail of the history.
func Live() ScrollState {
	return ScrollState{}
}

// Scrollback returns the paused state showing history from windowStart.
func Scrollback(windowStart int) ScrollState {
	if windowStart < 0 {
		windowStart = 0
	}
	return ScrollState{scrollback: true, windowStart: windowStart}
}

// IsLive reports whether s follows the tail.
func (s ScrollState) IsLive() bool {
	return !s.scrollback
}

// WindowStart returns the first history index shown while in scrollback.
func (s ScrollState) WindowStart() (int, bool) {
	if !s.scrollback {
		return 0, false
	}
	return s.windowStart, true
}

func (s ScrollState) String() string {
	if !s.scrollback {
		return "live"
	}
	return "scrollback(" + strconv.Itoa(s.windowStart) + ")"
}

// Redraw names a strategy for repainting the output region.
type Redraw int

const (
	// RedrawWindow paints every output row by direct addressing from history.
	RedrawWindow Redraw = iota
	// RedrawReplay replays the whole history through the scroll-up primitive.
	RedrawReplay
)

func (r Redraw) String() string {
	switch r {
	case RedrawWindow:
		return "window"
	case RedrawReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// SelectRedraw picks the repaint strategy for moving into target.
// Scrollback always paints a window. Live paints the tail window once the
// history fills the region and replays it otherwise.
func SelectRedraw(historyLen, visibleRows int, target ScrollState) Redraw {
	if !target.IsLive() {
		return RedrawWindow
	}
	if historyLen >= visibleRows {
		return RedrawWindow
	}
	return RedrawReplay
}

// tailStart is the window start that shows the newest lines.
func tailStart(historyLen, visibleRows int) int {
	if historyLen <= visibleRows {
		return 0
	}
	return historyLen - visibleRows
}
