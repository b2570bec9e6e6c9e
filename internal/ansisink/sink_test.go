package ansisink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

type failWriter struct {
	calls int
}

func (w *failWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("broken pipe")
}

func TestSinkBuffersUntilFlush(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.Goto(1, 22)
	s.ScrollUp(1)
	s.Write("hello")
	if out.Len() != 0 {
		t.Fatalf("expected nothing written before flush, got %q", out.String())
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "\x1b[22;1H\x1b[Shello"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestSinkRegionSequences(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.ClearAll()
	s.ResetScrollRegion()
	s.SetScrollRegion(2, 22)
	s.DisableOriginMode()
	s.ClearLine()
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "\x1b[2J\x1b[H" + "\x1b[;r" + "\x1b[2;22r" + "\x1b[?6l" + "\x1b[2K"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestSinkForeground(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.SetForeground(ansi.Green)
	s.Write("==")
	s.ResetForeground()
	s.SetForeground(nil)
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "\x1b[32m==\x1b[39m\x1b[39m"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestSinkScrollUpIgnoresZero(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.ScrollUp(0)
	s.ScrollUp(3)
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if out.String() != "\x1b[3S" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSinkErrorIsSticky(t *testing.T) {
	w := &failWriter{}
	s := New(w)
	s.Write("first")
	if err := s.Flush(); err == nil {
		t.Fatalf("expected flush error")
	}
	s.Write("second")
	if err := s.Flush(); err == nil {
		t.Fatalf("expected sticky flush error")
	}
	if s.Err() == nil {
		t.Fatalf("expected Err to report the failure")
	}
	if w.calls != 1 {
		t.Fatalf("expected one write attempt, got %d", w.calls)
	}
}

func TestSinkAltScreen(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.EnterAltScreen()
	s.ExitAltScreen()
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "\x1b[?1049h\x1b[H\x1b[2J\x1b[?1049l\x1b[?25h"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}
