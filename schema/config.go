package schema

import "fmt"

const (
	// DefaultHistoryCapacity is the number of display lines a console keeps.
	DefaultHistoryCapacity = 1024
	// DefaultScrollStep is the number of rows moved per scroll command.
	DefaultScrollStep = 5
	// DefaultRelayHistory is the number of relay lines replayed to new sessions.
	DefaultRelayHistory = 200
)

// ScreenConfig defines per-console limits.
type ScreenConfig struct {
	HistoryCapacity int
	ScrollStep      int
	Theme           ThemeName
}

// NormalizeScreenConfig applies defaults and validates the config.
func NormalizeScreenConfig(cfg ScreenConfig) (ScreenConfig, error) {
	if cfg.HistoryCapacity < 0 {
		return ScreenConfig{}, fmt.Errorf("history capacity must not be negative (got %d)", cfg.HistoryCapacity)
	}
	if cfg.ScrollStep < 0 {
		return ScreenConfig{}, fmt.Errorf("scroll step must not be negative (got %d)", cfg.ScrollStep)
	}
	if cfg.HistoryCapacity == 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	if cfg.ScrollStep == 0 {
		cfg.ScrollStep = DefaultScrollStep
	}
	theme, ok := NormalizeThemeName(string(cfg.Theme))
	if !ok {
		return ScreenConfig{}, fmt.Errorf("unknown theme %q", cfg.Theme)
	}
	cfg.Theme = theme
	return cfg, nil
}
