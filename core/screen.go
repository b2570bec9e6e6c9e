package core

import (
	"strings"
	"unicode"

	"pkt.systems/scrollcon/schema"
)

// DefaultScrollStep is the number of rows moved per scroll command.
const DefaultScrollStep = schema.DefaultScrollStep

// Screen renders a bounded transcript into the output region of a terminal
// and switches between following the live tail and showing a paused window
// of history. Screen is not safe for concurrent use; callers serialize all
// calls, typically from one event loop.
type Screen struct {
	sink     RenderSink
	history  *History
	geometry Geometry
	state    ScrollState
	step     int
	theme    Theme
	format   *Formatter
}

// Option configures a Screen.
type Option func(*screenOptions)

type screenOptions struct {
	capacity int
	step     int
	theme    Theme
	wrap     WrapFunc
}

// WithHistoryCapacity sets the number of lines kept for scrollback.
func WithHistoryCapacity(capacity int) Option {
	return func(o *screenOptions) { o.capacity = capacity }
}

// WithScrollStep sets the rows moved per scroll command.
func WithScrollStep(step int) Option {
	return func(o *screenOptions) { o.step = step }
}

// WithTheme sets the console colors.
func WithTheme(theme Theme) Option {
	return func(o *screenOptions) { o.theme = theme }
}

// WithWrap replaces the wrap algorithm used by the Print helpers.
func WithWrap(wrap WrapFunc) Option {
	return func(o *screenOptions) { o.wrap = wrap }
}

// WithConfig applies history capacity, scroll step and theme from cfg.
// Zero values keep the defaults.
func WithConfig(cfg schema.ScreenConfig) Option {
	return func(o *screenOptions) {
		if cfg.HistoryCapacity > 0 {
			WithHistoryCapacity(cfg.HistoryCapacity)(o)
		}
		if cfg.ScrollStep > 0 {
			WithScrollStep(cfg.ScrollStep)(o)
		}
		if cfg.Theme != "" {
			WithTheme(ThemeForName(cfg.Theme))(o)
		}
	}
}

// NewScreen returns a Screen drawing into sink for a width x height terminal.
// Nothing is drawn until Setup is called.
func NewScreen(sink RenderSink, width, height int, opts ...Option) (*Screen, error) {
	options := screenOptions{
		capacity: DefaultHistoryCapacity,
		step:     DefaultScrollStep,
		theme:    ThemeForName(schema.DefaultTheme),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.step <= 0 {
		options.step = DefaultScrollStep
	}
	geometry, err := NewGeometry(width, height)
	if err != nil {
		return nil, err
	}
	return &Screen{
		sink:     sink,
		history:  NewHistory(options.capacity),
		geometry: geometry,
		state:    Live(),
		step:     options.step,
		theme:    options.theme,
		format:   NewFormatter(options.theme, options.wrap),
	}, nil
}

// State returns the current scroll state.
func (s *Screen) State() ScrollState {
	return s.state
}

// Geometry returns the layout computed by the last Setup.
func (s *Screen) Geometry() Geometry {
	return s.geometry
}

// HistoryLen returns the number of lines held for scrollback.
func (s *Screen) HistoryLen() int {
	return s.history.Len()
}

// VisibleLines returns the history lines the output region shows.
func (s *Screen) VisibleLines() []string {
	rows := s.geometry.VisibleRows()
	if start, ok := s.state.WindowStart(); ok {
		return s.history.Window(start, rows)
	}
	return s.history.Window(tailStart(s.history.Len(), rows), rows)
}

// Setup clears the terminal, recomputes the layout for width x height,
// installs the scroll region, paints both separators and redraws the tail.
// Hosts call it at startup and after every terminal resize.
func (s *Screen) Setup(width, height int) error {
	geometry, err := NewGeometry(width, height)
	if err != nil {
		return err
	}
	s.Reset()
	s.geometry = geometry
	s.sink.SetScrollRegion(geometry.OutputTop, geometry.OutputBottom)
	s.sink.DisableOriginMode()
	s.drawSeparator(1, "=")
	s.drawSeparator(geometry.SeparatorRow(), "_")
	s.ResetToLive()
	return s.sink.Flush()
}

// Reset clears the terminal and releases the scroll region.
func (s *Screen) Reset() {
	s.sink.ClearAll()
	s.sink.ResetScrollRegion()
}

// Flush pushes buffered output to the terminal.
func (s *Screen) Flush() error {
	return s.sink.Flush()
}

func (s *Screen) drawSeparator(row int, fill string) {
	s.sink.Goto(1, row)
	s.sink.ClearLine()
	if s.theme.Separator != nil {
		s.sink.SetForeground(s.theme.Separator)
	}
	s.sink.Write(strings.Repeat(fill, s.geometry.Width))
	if s.theme.Separator != nil {
		s.sink.ResetForeground()
	}
}

// Append adds line to the history, one entry per embedded line. While live
// each entry scrolls into the bottom of the output region; in scrollback the
// display is left untouched and the window stays anchored to the same lines.
// A window at start 0 cannot follow an eviction, so the painted rows go stale
// until the next scroll or ResetToLive while VisibleLines already reports
// the shifted lines.
func (s *Screen) Append(line string) {
	line = strings.ReplaceAll(line, "\r\n", "\n")
	for _, fragment := range strings.Split(line, "\n") {
		evicted := s.history.Append(fragment)
		if s.state.IsLive() {
			s.scrollIn(fragment)
			continue
		}
		if start, _ := s.state.WindowStart(); evicted && start > 0 {
			s.state = Scrollback(start - 1)
		}
	}
}

// AppendLines appends each display line in order.
func (s *Screen) AppendLines(lines []string) {
	for _, line := range lines {
		s.Append(line)
	}
}

func (s *Screen) scrollIn(line string) {
	s.sink.Goto(1, s.geometry.OutputBottom)
	s.sink.ScrollUp(1)
	s.sink.Write(line)
	s.sink.Goto(1, s.geometry.PromptRow)
}

// ScrollUp moves the window step rows towards older history, entering
// scrollback from live. It does nothing while the history fits the region.
func (s *Screen) ScrollUp() {
	rows := s.geometry.VisibleRows()
	total := s.history.Len()
	if total <= rows {
		return
	}
	start, ok := s.state.WindowStart()
	if !ok {
		start = total - rows
	}
	start -= min(start, s.step)
	s.state = Scrollback(start)
	s.drawWindow(start)
}

// ScrollDown moves the window step rows towards the tail and returns to live
// once the tail is reached. It does nothing while live.
func (s *Screen) ScrollDown() {
	start, ok := s.state.WindowStart()
	if !ok {
		return
	}
	maxStart := s.history.Len() - s.geometry.VisibleRows()
	candidate := start + s.step
	if candidate >= maxStart {
		s.ResetToLive()
		return
	}
	s.state = Scrollback(candidate)
	s.drawWindow(candidate)
}

// ResetToLive returns to live and redraws the newest lines.
func (s *Screen) ResetToLive() {
	s.state = Live()
	rows := s.geometry.VisibleRows()
	total := s.history.Len()
	switch SelectRedraw(total, rows, s.state) {
	case RedrawWindow:
		s.drawWindow(tailStart(total, rows))
	case RedrawReplay:
		s.replay()
	}
}

// drawWindow paints every output row from history[start:] by direct addressing.
func (s *Screen) drawWindow(start int) {
	for i := 0; i < s.geometry.VisibleRows(); i++ {
		s.sink.Goto(1, s.geometry.OutputTop+i)
		s.sink.ClearLine()
		if line, ok := s.history.Line(start + i); ok {
			s.sink.Write(line)
		}
	}
	s.sink.Goto(1, s.geometry.PromptRow)
}

// replay blanks the output region and scrolls every history line in from
// the bottom, leaving them in history order.
func (s *Screen) replay() {
	for row := s.geometry.OutputTop; row <= s.geometry.OutputBottom; row++ {
		s.sink.Goto(1, row)
		s.sink.ClearLine()
	}
	for i := 0; i < s.history.Len(); i++ {
		line, _ := s.history.Line(i)
		s.scrollIn(line)
	}
}

// Prompt records a prompt line in the transcript without wrapping it.
func (s *Screen) Prompt(text string) {
	s.Append(strings.TrimRightFunc(text, unicode.IsSpace))
}

// PromptInput shows the line being typed on the prompt row. The text is not
// recorded. Input longer than the row is paged so the cursor stays on screen
// and the newest characters remain visible.
func (s *Screen) PromptInput(text string) {
	width := s.geometry.Width
	runes := []rune(text)
	for len(runes) >= width {
		runes = runes[width:]
	}
	s.sink.Goto(1, s.geometry.PromptRow)
	s.sink.ClearLine()
	s.sink.Write(string(runes))
}

// PrintOutput appends plain output wrapped to the terminal width.
func (s *Screen) PrintOutput(text string) {
	s.AppendLines(s.format.Plain(text, s.geometry.Width))
}

// PrintSent appends a line the user sent.
func (s *Screen) PrintSent(text string) {
	s.AppendLines(s.format.Sent(text, s.geometry.Width))
}

// PrintInfo appends an informational line.
func (s *Screen) PrintInfo(text string) {
	s.AppendLines(s.format.Info(text, s.geometry.Width))
}

// PrintError appends an error line.
func (s *Screen) PrintError(text string) {
	s.AppendLines(s.format.Error(text, s.geometry.Width))
}
