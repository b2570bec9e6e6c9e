package core

import "pkt.systems/scrollcon/schema"

// DefaultHistoryCapacity is used when a history is created without a capacity.
const DefaultHistoryCapacity = schema.DefaultHistoryCapacity

// History is a bounded, append-only log of display lines.
// Once the log holds capacity lines, every append evicts the oldest one.
type History struct {
	lines    []string
	capacity int
}

// NewHistory returns a history holding at most capacity lines.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Append adds line to the end of the log. When the log is full the oldest
// line is evicted and Append reports true.
func (h *History) Append(line string) bool {
	h.lines = append(h.lines, line)
	if len(h.lines) <= h.capacity {
		return false
	}
	trim := len(h.lines) - h.capacity
	h.lines[0] = ""
	h.lines = h.lines[trim:]
	return true
}

// Len returns the number of lines currently held.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.lines)
}

// Cap returns the maximum number of lines held.
func (h *History) Cap() int {
	if h == nil {
		return 0
	}
	return h.capacity
}

// Window returns a copy of up to count lines starting at start.
func (h *History) Window(start, count int) []string {
	if h == nil || count <= 0 || start < 0 || start >= len(h.lines) {
		return nil
	}
	end := start + count
	if end > len(h.lines) {
		end = len(h.lines)
	}
	out := make([]string, end-start)
	copy(out, h.lines[start:end])
	return out
}

// Line returns the line at index i and whether it exists.
func (h *History) Line(i int) (string, bool) {
	if h == nil || i < 0 || i >= len(h.lines) {
		return "", false
	}
	return h.lines[i], true
}
