// Package lineedit decodes terminal key input and holds the line being typed.
package lineedit

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

// Kind identifies a decoded key.
type Kind int

// Decoded keys. Tab is reported as a space rune.
const (
	KeyRune Kind = iota
	KeyEnter
	KeyBackspace
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyCtrlC
	KeyCtrlD
	KeyCtrlL
	KeyCtrlU
	KeyCtrlW
)

// Key is one decoded key press. Rune is set for KeyRune.
type Key struct {
	Kind Kind
	Rune rune
}

// ReadKeys decodes r into out until r fails, then closes out. CRLF counts
// as one enter; unknown escape sequences are dropped.
func ReadKeys(r io.Reader, out chan<- Key) {
	defer close(out)
	br := bufio.NewReader(r)
	lastWasCR := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if lastWasCR {
			lastWasCR = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case 0x1b:
			readEscape(br, out)
		case '\r':
			out <- Key{Kind: KeyEnter}
			lastWasCR = true
		case '\n':
			out <- Key{Kind: KeyEnter}
		case 0x7f, 0x08:
			out <- Key{Kind: KeyBackspace}
		case 0x03:
			out <- Key{Kind: KeyCtrlC}
		case 0x04:
			out <- Key{Kind: KeyCtrlD}
		case 0x0c:
			out <- Key{Kind: KeyCtrlL}
		case 0x15:
			out <- Key{Kind: KeyCtrlU}
		case 0x17:
			out <- Key{Kind: KeyCtrlW}
		case '\t':
			out <- Key{Kind: KeyRune, Rune: ' '}
		default:
			if b < 0x20 {
				continue
			}
			if b < utf8.RuneSelf {
				out <- Key{Kind: KeyRune, Rune: rune(b)}
				continue
			}
			_ = br.UnreadByte()
			rn, _, err := br.ReadRune()
			if err != nil {
				return
			}
			out <- Key{Kind: KeyRune, Rune: rn}
		}
	}
}

func readEscape(br *bufio.Reader, out chan<- Key) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	if b != '[' {
		return
	}
	seq := []byte{}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		seq = append(seq, b)
		if b == '~' || unicode.IsLetter(rune(b)) {
			break
		}
		if len(seq) > 8 {
			return
		}
	}
	switch string(seq) {
	case "A":
		out <- Key{Kind: KeyUp}
	case "B":
		out <- Key{Kind: KeyDown}
	case "5~":
		out <- Key{Kind: KeyPageUp}
	case "6~":
		out <- Key{Kind: KeyPageDown}
	}
}

// Editor holds the line being typed. Input is always appended at the end
// since the prompt row shows the newest characters.
type Editor struct {
	buf []rune
}

// String returns the typed text.
func (e *Editor) String() string {
	return string(e.buf)
}

// Len returns the number of runes typed.
func (e *Editor) Len() int {
	return len(e.buf)
}

// Clear empties the line.
func (e *Editor) Clear() {
	e.buf = nil
}

// SetString replaces the line with value.
func (e *Editor) SetString(value string) {
	e.buf = []rune(value)
}

// InsertRune appends r.
func (e *Editor) InsertRune(r rune) {
	e.buf = append(e.buf, r)
}

// Backspace removes the last rune.
func (e *Editor) Backspace() {
	if len(e.buf) == 0 {
		return
	}
	e.buf = e.buf[:len(e.buf)-1]
}

// DeleteWordBackward removes trailing blanks and the word before them.
func (e *Editor) DeleteWordBackward() {
	end := len(e.buf)
	for end > 0 && isSpace(e.buf[end-1]) {
		end--
	}
	for end > 0 && !isSpace(e.buf[end-1]) {
		end--
	}
	e.buf = e.buf[:end]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// History recalls previously submitted lines with up and down.
type History struct {
	entries []string
	index   int
	limit   int
}

// NewHistory keeps at most limit entries; limit <= 0 is unbounded.
func NewHistory(limit int) *History {
	return &History{index: -1, limit: limit}
}

// Add records entry and resets recall. Blank entries and repeats of the
// newest entry are not stored.
func (h *History) Add(entry string) {
	h.index = -1
	if entry == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Up moves towards older entries, stopping at the oldest.
func (h *History) Up() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.index == -1:
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	}
	return h.entries[h.index], true
}

// Down moves towards newer entries. Leaving the newest entry yields an
// empty draft.
func (h *History) Down() (string, bool) {
	if h.index == -1 {
		return "", false
	}
	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index], true
	}
	h.index = -1
	return "", true
}
