package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/core"
	"pkt.systems/scrollcon/internal/ansisink"
	"pkt.systems/scrollcon/internal/lineedit"
	"pkt.systems/scrollcon/schema"
)

const consoleInputHistory = 200

// childEvent is one line of child output or the child's exit. Output and exit
// share a channel so the exit is shown after the last line.
type childEvent struct {
	text   string
	stderr bool
	exited bool
	err    error
}

type termSize struct {
	width  int
	height int
}

// localConsole puts one child process behind a scrollback console on the
// local terminal. Typed lines go to the child's stdin.
type localConsole struct {
	sink   *ansisink.Sink
	screen *core.Screen
	stdin  io.WriteCloser
	prompt string
	log    pslog.Logger

	width  int
	height int
	exited bool

	editor  lineedit.Editor
	history *lineedit.History
}

func newLocalConsole(out io.Writer, stdin io.WriteCloser, size termSize, prompt string, screen schema.ScreenConfig, logger pslog.Logger) (*localConsole, error) {
	sink := ansisink.New(out)
	scr, err := core.NewScreen(sink, size.width, size.height, core.WithConfig(screen))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &localConsole{
		sink:    sink,
		screen:  scr,
		stdin:   stdin,
		prompt:  prompt,
		log:     logger,
		width:   size.width,
		height:  size.height,
		history: lineedit.NewHistory(consoleInputHistory),
	}, nil
}

// run serves keys, resizes and child events until the user quits, keys end
// or the terminal write fails.
func (c *localConsole) run(ctx context.Context, keys <-chan lineedit.Key, sizes <-chan termSize, events <-chan childEvent) error {
	if err := c.start(); err != nil {
		return err
	}
	defer c.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if c.handleKey(k) {
				return nil
			}
		case size := <-sizes:
			c.resize(size)
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			c.handleEvent(ev)
		}
		if err := c.flush(); err != nil {
			return err
		}
	}
}

func (c *localConsole) start() error {
	c.sink.EnterAltScreen()
	if err := c.screen.Setup(c.width, c.height); err != nil {
		return err
	}
	c.log.Info("console start", "cols", c.width, "rows", c.height)
	return c.flush()
}

func (c *localConsole) stop() {
	c.screen.Reset()
	c.sink.ExitAltScreen()
	if err := c.sink.Flush(); err != nil {
		c.log.Debug("console stop flush failed", "err", err)
	}
}

func (c *localConsole) flush() error {
	c.screen.PromptInput(c.prompt + c.editor.String())
	if err := c.screen.Flush(); err != nil {
		c.log.Error("console write failed", "err", err)
		return err
	}
	return nil
}

func (c *localConsole) resize(size termSize) {
	if err := c.screen.Setup(size.width, size.height); err != nil {
		if errors.Is(err, core.ErrTerminalTooSmall) {
			c.log.Warn("console resize ignored", "cols", size.width, "rows", size.height, "err", err)
			return
		}
		c.log.Error("console resize failed", "err", err)
		return
	}
	c.width, c.height = size.width, size.height
	c.log.Debug("console resize", "cols", size.width, "rows", size.height)
}

func (c *localConsole) handleKey(k lineedit.Key) bool {
	switch k.Kind {
	case lineedit.KeyRune:
		c.editor.InsertRune(k.Rune)
	case lineedit.KeyBackspace:
		c.editor.Backspace()
	case lineedit.KeyCtrlW:
		c.editor.DeleteWordBackward()
	case lineedit.KeyCtrlU, lineedit.KeyCtrlC:
		c.editor.Clear()
	case lineedit.KeyCtrlD:
		if c.editor.Len() > 0 {
			return false
		}
		if c.exited || c.stdin == nil {
			c.log.Info("console exit", "reason", "ctrl-d")
			return true
		}
		c.closeStdin()
	case lineedit.KeyCtrlL:
		c.resize(termSize{width: c.width, height: c.height})
	case lineedit.KeyEnter:
		c.submit()
	case lineedit.KeyUp:
		if entry, ok := c.history.Up(); ok {
			c.editor.SetString(entry)
		}
	case lineedit.KeyDown:
		if entry, ok := c.history.Down(); ok {
			c.editor.SetString(entry)
		}
	case lineedit.KeyPageUp:
		c.screen.ScrollUp()
	case lineedit.KeyPageDown:
		c.screen.ScrollDown()
	}
	return false
}

func (c *localConsole) submit() {
	line := c.editor.String()
	c.editor.Clear()
	c.history.Add(strings.TrimSpace(line))
	if !c.screen.State().IsLive() {
		c.screen.ResetToLive()
	}
	if c.stdin == nil {
		c.screen.PrintError("process input is closed")
		return
	}
	if strings.TrimSpace(line) != "" {
		c.screen.Prompt(c.prompt + line)
	}
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		c.log.Warn("process input write failed", "err", err)
		c.screen.PrintError(fmt.Sprintf("write to process: %v", err))
		c.stdin = nil
	}
}

func (c *localConsole) closeStdin() {
	if err := c.stdin.Close(); err != nil {
		c.log.Debug("process input close failed", "err", err)
	}
	c.stdin = nil
	c.screen.PrintInfo("sent end of input")
}

func (c *localConsole) handleEvent(ev childEvent) {
	switch {
	case ev.exited:
		c.exited = true
		c.stdin = nil
		status := exitStatus(ev.err)
		c.log.Info("process exited", "status", status, "err", ev.err)
		c.screen.PrintInfo(fmt.Sprintf("process exited (status %d)", status))
	case ev.stderr:
		c.screen.PrintError(ev.text)
	default:
		c.screen.PrintOutput(ev.text)
	}
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
