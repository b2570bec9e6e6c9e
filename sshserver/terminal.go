package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gliderssh "github.com/gliderlabs/ssh"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/core"
	"pkt.systems/scrollcon/internal/ansisink"
	"pkt.systems/scrollcon/internal/lineedit"
	"pkt.systems/scrollcon/internal/relay"
	"pkt.systems/scrollcon/schema"
)

const inputHistoryLimit = 100

var helpLines = []string{
	"PageUp/PageDown scroll, Enter sends, Up/Down recall input",
	"/who lists connected users",
	"/clear repaints the console",
	"/quit ends the session",
}

// consoleSession drives one SSH console. All screen calls happen on the
// goroutine running Run.
type consoleSession struct {
	sink      *ansisink.Sink
	screen    *core.Screen
	relay     *relay.Relay
	userID    schema.UserID
	sessionID schema.SessionID
	prompt    string
	log       pslog.Logger

	width  int
	height int

	editor  lineedit.Editor
	history *lineedit.History
}

type sessionOptions struct {
	userID    schema.UserID
	sessionID schema.SessionID
	prompt    string
	screen    schema.ScreenConfig
	relay     *relay.Relay
	log       pslog.Logger
}

func newConsoleSession(out io.Writer, width, height int, opts sessionOptions) (*consoleSession, error) {
	sink := ansisink.New(out)
	screen, err := core.NewScreen(sink, width, height, core.WithConfig(opts.screen))
	if err != nil {
		return nil, err
	}
	log := opts.log
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &consoleSession{
		sink:      sink,
		screen:    screen,
		relay:     opts.relay,
		userID:    opts.userID,
		sessionID: opts.sessionID,
		prompt:    opts.prompt,
		log:       log,
		width:     width,
		height:    height,
		history:   lineedit.NewHistory(inputHistoryLimit),
	}, nil
}

// Run paints the console and serves keys, resizes and relay events until the
// user quits, the context ends or the session output fails.
func (c *consoleSession) Run(ctx context.Context, in io.Reader, winCh <-chan gliderssh.Window, events <-chan relay.Event, replay []string) error {
	if err := c.start(replay); err != nil {
		return err
	}
	defer c.stop()

	keys := make(chan lineedit.Key, 16)
	go lineedit.ReadKeys(in, keys)

	for {
		select {
		case <-ctx.Done():
			c.drainEvents(events)
			return c.flush()
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if c.handleKey(k) {
				return nil
			}
		case win, ok := <-winCh:
			if !ok {
				winCh = nil
				break
			}
			c.resize(win.Width, win.Height)
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

func (c *consoleSession) start(replay []string) error {
	c.sink.EnterAltScreen()
	if err := c.screen.Setup(c.width, c.height); err != nil {
		return err
	}
	for _, line := range replay {
		c.screen.PrintOutput(line)
	}
	c.screen.PrintInfo(fmt.Sprintf("connected as %s; /help for commands", c.userID))
	c.log.Info("console start", "replay", len(replay))
	return c.flush()
}

func (c *consoleSession) stop() {
	c.screen.Reset()
	c.sink.ExitAltScreen()
	if err := c.sink.Flush(); err != nil {
		c.log.Debug("console stop flush failed", "err", err)
	}
}

func (c *consoleSession) flush() error {
	c.drawPrompt()
	if err := c.screen.Flush(); err != nil {
		c.log.Error("console write failed", "err", err)
		return err
	}
	return nil
}

func (c *consoleSession) drawPrompt() {
	c.screen.PromptInput(c.prompt + c.editor.String())
}

func (c *consoleSession) resize(width, height int) {
	if err := c.screen.Setup(width, height); err != nil {
		if errors.Is(err, core.ErrTerminalTooSmall) {
			c.log.Warn("console resize ignored", "cols", width, "rows", height, "err", err)
			return
		}
		c.log.Error("console resize failed", "err", err)
		return
	}
	c.width, c.height = width, height
	c.log.Debug("console resize", "cols", width, "rows", height)
}

func (c *consoleSession) handleKey(k lineedit.Key) bool {
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
		if c.editor.Len() == 0 {
			c.log.Info("console exit", "reason", "ctrl-d")
			return true
		}
	case lineedit.KeyCtrlL:
		c.resize(c.width, c.height)
	case lineedit.KeyEnter:
		return c.submit()
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
		c.log.Trace("console scroll up", "state", c.screen.State().String())
	case lineedit.KeyPageDown:
		c.screen.ScrollDown()
		c.log.Trace("console scroll down", "state", c.screen.State().String())
	}
	return false
}

func (c *consoleSession) submit() bool {
	raw := c.editor.String()
	c.editor.Clear()
	line := strings.TrimSpace(raw)
	c.history.Add(line)
	if line == "" {
		return false
	}
	if !c.screen.State().IsLive() {
		c.screen.ResetToLive()
	}
	if strings.HasPrefix(line, "/") {
		quit, err := c.command(line)
		if err != nil {
			c.log.Debug("console command failed", "input", line, "err", err)
			c.screen.PrintError(err.Error())
		}
		return quit
	}
	c.screen.PrintSent(line)
	c.relay.Say(c.userID, c.sessionID, line)
	return false
}

func (c *consoleSession) command(line string) (bool, error) {
	name := strings.Fields(line)[0]
	switch name {
	case "/quit", "/exit", "/q":
		c.log.Info("console exit", "reason", "command")
		return true, nil
	case "/who":
		users := c.relay.Who()
		names := make([]string, 0, len(users))
		for _, user := range users {
			names = append(names, string(user))
		}
		c.screen.PrintInfo("online: " + strings.Join(names, ", "))
	case "/clear":
		c.resize(c.width, c.height)
	case "/help":
		for _, help := range helpLines {
			c.screen.PrintInfo(help)
		}
	default:
		return false, fmt.Errorf("%w: %s", schema.ErrUnknownCommand, name)
	}
	return false, nil
}

// drainEvents shows events already queued for the session, such as the
// shutdown notice sent just before the server cancels.
func (c *consoleSession) drainEvents(events <-chan relay.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		default:
			return
		}
	}
}

func (c *consoleSession) handleEvent(ev relay.Event) {
	switch ev.Type {
	case relay.EventLine:
		c.screen.PrintOutput(relay.FormatLine(ev.From, ev.Text))
	case relay.EventJoin:
		c.screen.PrintInfo(fmt.Sprintf("%s joined", ev.From))
	case relay.EventLeave:
		c.screen.PrintInfo(fmt.Sprintf("%s left", ev.From))
	case relay.EventNotice:
		c.screen.PrintError(ev.Text)
	}
}
