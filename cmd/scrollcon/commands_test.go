package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "config_version: 1\n" +
		"screen:\n  theme: mono\n" +
		"ssh:\n  totp_file: " + filepath.Join(dir, "totp.yaml") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	out, err := runRoot(t, "config", "init", "-c", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("expected path in output, got %q", out)
	}
	if _, err := runRoot(t, "config", "init", "-c", path); err == nil {
		t.Fatalf("expected init to refuse an existing config")
	}
	if _, err := runRoot(t, "config", "init", "-c", path, "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	out, err = runRoot(t, "config", "show", "-c", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "history_capacity: 1024") || !strings.Contains(out, "theme: classic") {
		t.Fatalf("unexpected config output %q", out)
	}
}

func TestTOTPEnrollAndStatus(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	out, err := runRoot(t, "totp", "status", "alice", "-c", cfgPath)
	if err != nil {
		t.Fatalf("totp status: %v", err)
	}
	if out != "alice: not enrolled\n" {
		t.Fatalf("unexpected status %q", out)
	}
	out, err = runRoot(t, "totp", "enroll", "alice", "-c", cfgPath, "--no-qr")
	if err != nil {
		t.Fatalf("totp enroll: %v", err)
	}
	if !strings.Contains(out, "totp_secret: ") || !strings.Contains(out, "otpauth://totp/") {
		t.Fatalf("unexpected enrollment output %q", out)
	}
	if strings.Contains(out, "totp_qr:") {
		t.Fatalf("expected qr code to be suppressed")
	}
	out, err = runRoot(t, "totp", "status", "alice", "-c", cfgPath)
	if err != nil || out != "alice: enrolled\n" {
		t.Fatalf("unexpected status %q (%v)", out, err)
	}
}

func TestTOTPEnrollRejectsBadUser(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	if _, err := runRoot(t, "totp", "enroll", "Bad User", "-c", cfgPath); err == nil {
		t.Fatalf("expected invalid user error")
	}
}

func TestPrintEnrollmentWithQR(t *testing.T) {
	var buf bytes.Buffer
	printEnrollment(&buf, "alice", "SECRET", "otpauth://totp/scrollcon:alice?secret=SECRET", true)
	out := buf.String()
	if !strings.Contains(out, "user: alice\n") || !strings.Contains(out, "totp_qr:\n") {
		t.Fatalf("unexpected output %q", out)
	}
	if len(strings.Split(out, "\n")) < 10 {
		t.Fatalf("expected qr code rows, got %q", out)
	}
}

func TestExecRequiresCommand(t *testing.T) {
	if _, err := runRoot(t, "exec"); err == nil {
		t.Fatalf("expected missing command error")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "pkt.systems/scrollcon ") && !strings.Contains(out, " v") {
		t.Fatalf("unexpected version output %q", out)
	}
}
