// Package relay fans console lines out between connected sessions.
package relay

import (
	"context"
	"sort"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/core"
	"pkt.systems/scrollcon/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventLine carries a line another session sent.
	EventLine EventType = "line"
	// EventJoin announces a new session.
	EventJoin EventType = "join"
	// EventLeave announces a closed session.
	EventLeave EventType = "leave"
	// EventNotice carries a server message.
	EventNotice EventType = "notice"
)

// Event is delivered to every session except the one that caused it.
type Event struct {
	Type    EventType
	From    schema.UserID
	Session schema.SessionID
	Text    string
}

type subscriber struct {
	user schema.UserID
	ch   chan Event
}

// Relay fans events out to subscribed sessions and keeps a bounded replay of
// recent lines for sessions that join later.
type Relay struct {
	mu     sync.Mutex
	subs   map[schema.SessionID]subscriber
	recent *core.History
	log    pslog.Logger
	depth  int
}

// New constructs a Relay that replays up to history lines to new sessions.
// A history of zero disables replay.
func New(logger pslog.Logger, history int) *Relay {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	r := &Relay{
		subs:  make(map[schema.SessionID]subscriber),
		log:   logger,
		depth: 256,
	}
	if history > 0 {
		r.recent = core.NewHistory(history)
	}
	return r
}

// FormatLine renders a relayed line the way receivers display it.
func FormatLine(from schema.UserID, text string) string {
	return string(from) + ": " + text
}

// Join subscribes a session. It returns the event channel, the recent lines
// to replay and a cancel func that unsubscribes and announces the leave.
func (r *Relay) Join(user schema.UserID, session schema.SessionID) (<-chan Event, []string, func()) {
	if r == nil {
		return nil, nil, func() {}
	}
	ch := make(chan Event, r.depth)
	r.mu.Lock()
	r.subs[session] = subscriber{user: user, ch: ch}
	var replay []string
	if r.recent != nil {
		replay = r.recent.Window(0, r.recent.Len())
	}
	count := len(r.subs)
	r.broadcastLocked(session, Event{Type: EventJoin, From: user, Session: session})
	r.mu.Unlock()
	r.log.With("user", user, "session", session).Debug("relay join", "subs", count, "replay", len(replay))

	var once sync.Once
	return ch, replay, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, session)
			close(ch)
			r.broadcastLocked(session, Event{Type: EventLeave, From: user, Session: session})
			r.mu.Unlock()
			r.log.With("user", user, "session", session).Debug("relay leave")
		})
	}
}

// Say records a line from session and delivers it to every other session.
func (r *Relay) Say(user schema.UserID, session schema.SessionID, text string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.recent != nil {
		r.recent.Append(FormatLine(user, text))
	}
	r.broadcastLocked(session, Event{Type: EventLine, From: user, Session: session, Text: text})
	r.mu.Unlock()
}

// Notice delivers a server message to every session.
func (r *Relay) Notice(text string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.broadcastLocked("", Event{Type: EventNotice, Text: text})
	r.mu.Unlock()
}

// Who returns the users with at least one session, sorted.
func (r *Relay) Who() []schema.UserID {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	seen := make(map[schema.UserID]struct{}, len(r.subs))
	for _, sub := range r.subs {
		seen[sub.user] = struct{}{}
	}
	r.mu.Unlock()
	users := make([]schema.UserID, 0, len(seen))
	for user := range seen {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Sessions returns the number of subscribed sessions.
func (r *Relay) Sessions() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (r *Relay) broadcastLocked(from schema.SessionID, event Event) {
	dropped := 0
	for session, sub := range r.subs {
		if session == from {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		r.log.With("session", from).Warn("relay dropped", "type", string(event.Type), "count", dropped)
	}
}
