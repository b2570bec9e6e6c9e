package core

import "github.com/charmbracelet/x/ansi"

// RenderSink receives the terminal primitives the screen is drawn with.
// Implementations may buffer; nothing is guaranteed visible before Flush.
// A failed write is reported by Flush and leaves the display undefined.
type RenderSink interface {
	Goto(col, row int)
	ClearLine()
	ClearAll()
	ScrollUp(n int)
	SetScrollRegion(top, bottom int)
	ResetScrollRegion()
	DisableOriginMode()
	SetForeground(c ansi.Color)
	ResetForeground()
	Write(text string)
	Flush() error
}
