package core

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	sentMarker  = "> "
	infoMarker  = "[**] "
	errorMarker = "[!!] "
)

// WrapFunc folds text into lines of at most width columns.
type WrapFunc func(text string, width int) []string

// DefaultWrap wraps on word boundaries, breaking long words, and keeps ANSI
// sequences intact.
func DefaultWrap(text string, width int) []string {
	return strings.Split(ansi.Wrap(text, width, ""), "\n")
}

// Formatter turns console events into display lines.
type Formatter struct {
	theme Theme
	wrap  WrapFunc
}

// NewFormatter returns a formatter for theme. A nil wrap uses DefaultWrap.
func NewFormatter(theme Theme, wrap WrapFunc) *Formatter {
	if wrap == nil {
		wrap = DefaultWrap
	}
	return &Formatter{theme: theme, wrap: wrap}
}

// Plain formats output text without decoration.
func (f *Formatter) Plain(text string, width int) []string {
	return f.lines(text, width, nil)
}

// Sent formats a line the local user sent.
func (f *Formatter) Sent(text string, width int) []string {
	return f.lines(sentMarker+text, width, f.theme.Sent)
}

// Info formats an informational line.
func (f *Formatter) Info(text string, width int) []string {
	return f.lines(infoMarker+text, width, nil)
}

// Error formats an error line.
func (f *Formatter) Error(text string, width int) []string {
	return f.lines(errorMarker+text, width, f.theme.Error)
}

func (f *Formatter) lines(text string, width int, color ansi.Color) []string {
	var out []string
	if strings.TrimSpace(text) == "" {
		out = []string{text}
	} else {
		out = f.wrap(text, width)
	}
	if color == nil {
		return out
	}
	start := fgSequence(color)
	for i, line := range out {
		out[i] = start + line + fgResetSequence
	}
	return out
}
