package schema

import "testing"

func TestValidateUserID(t *testing.T) {
	cases := []struct {
		name  string
		user  UserID
		valid bool
	}{
		{"simple", "alice", true},
		{"with-dots", "alice.dev", true},
		{"with-underscore", "alice_dev", true},
		{"with-dash", "alice-dev", true},
		{"with-digits", "alice123", true},
		{"empty", "", false},
		{"uppercase", "Alice", false},
		{"space", "alice dev", false},
		{"leading-space", " alice", false},
		{"trailing-space", "alice ", false},
		{"unicode", "Ã¥lice", false},
		{"symbol", "alice@", false},
	}

	for _, tc := range cases {
		err := ValidateUserID(tc.user)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("case %q expected error, got nil", tc.name)
		}
	}
}

func TestNormalizeThemeName(t *testing.T) {
	if got, ok := NormalizeThemeName(" Classic "); !ok || got != "classic" {
		t.Fatalf("expected classic, got %q ok=%v", got, ok)
	}
	if got, ok := NormalizeThemeName("no_color"); !ok || got != "mono" {
		t.Fatalf("expected mono, got %q ok=%v", got, ok)
	}
	if _, ok := NormalizeThemeName("outrun"); ok {
		t.Fatalf("expected unknown theme to be rejected")
	}
}

func TestNormalizeScreenConfigDefaults(t *testing.T) {
	cfg, err := NormalizeScreenConfig(ScreenConfig{})
	if err != nil {
		t.Fatalf("NormalizeScreenConfig: %v", err)
	}
	if cfg.HistoryCapacity != DefaultHistoryCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultHistoryCapacity, cfg.HistoryCapacity)
	}
	if cfg.ScrollStep != DefaultScrollStep {
		t.Fatalf("expected scroll step %d, got %d", DefaultScrollStep, cfg.ScrollStep)
	}
	if cfg.Theme != DefaultTheme {
		t.Fatalf("expected default theme, got %q", cfg.Theme)
	}
}

func TestNormalizeScreenConfigRejectsNegative(t *testing.T) {
	if _, err := NormalizeScreenConfig(ScreenConfig{HistoryCapacity: -1}); err == nil {
		t.Fatalf("expected negative capacity to fail")
	}
	if _, err := NormalizeScreenConfig(ScreenConfig{ScrollStep: -5}); err == nil {
		t.Fatalf("expected negative scroll step to fail")
	}
	if _, err := NormalizeScreenConfig(ScreenConfig{Theme: "neon"}); err == nil {
		t.Fatalf("expected unknown theme to fail")
	}
}
