package core

import "testing"

func TestHistoryKeepsNewestLines(t *testing.T) {
	h := NewHistory(3)
	for _, line := range []string{"one", "two", "three"} {
		if h.Append(line) {
			t.Fatalf("unexpected eviction appending %q", line)
		}
	}
	if !h.Append("four") {
		t.Fatalf("expected eviction once full")
	}
	if h.Len() != 3 || h.Cap() != 3 {
		t.Fatalf("expected len 3 cap 3, got len %d cap %d", h.Len(), h.Cap())
	}
	got := h.Window(0, 3)
	if got[0] != "two" || got[2] != "four" {
		t.Fatalf("unexpected lines: %+v", got)
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	if h.Cap() != DefaultHistoryCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultHistoryCapacity, h.Cap())
	}
	for i := 0; i < DefaultHistoryCapacity+10; i++ {
		h.Append("x")
	}
	if h.Len() != DefaultHistoryCapacity {
		t.Fatalf("expected len %d, got %d", DefaultHistoryCapacity, h.Len())
	}
}

func TestHistoryWindowClamps(t *testing.T) {
	h := NewHistory(10)
	h.Append("one")
	h.Append("two")
	h.Append("three")

	if got := h.Window(1, 10); len(got) != 2 || got[0] != "two" {
		t.Fatalf("unexpected window: %+v", got)
	}
	if got := h.Window(3, 1); got != nil {
		t.Fatalf("expected nil window past the end, got %+v", got)
	}
	if got := h.Window(-1, 2); got != nil {
		t.Fatalf("expected nil window for negative start, got %+v", got)
	}
}

func TestHistoryWindowIsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Append("one")
	got := h.Window(0, 1)
	got[0] = "changed"
	if line, _ := h.Line(0); line != "one" {
		t.Fatalf("expected history to be unchanged, got %q", line)
	}
}

func TestHistoryLine(t *testing.T) {
	h := NewHistory(10)
	h.Append("")
	if line, ok := h.Line(0); !ok || line != "" {
		t.Fatalf("expected empty line to be kept, got %q ok=%v", line, ok)
	}
	if _, ok := h.Line(1); ok {
		t.Fatalf("expected missing line")
	}
	var nilHistory *History
	if nilHistory.Len() != 0 {
		t.Fatalf("expected nil history to be empty")
	}
}
