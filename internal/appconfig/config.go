package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/scrollcon/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	Screen        ScreenConfig `mapstructure:"screen" yaml:"screen"`
	SSH           SSHConfig    `mapstructure:"ssh" yaml:"ssh"`
	Relay         RelayConfig  `mapstructure:"relay" yaml:"relay"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ScreenConfig controls the console layout shared by every host.
type ScreenConfig struct {
	HistoryCapacity int    `mapstructure:"history_capacity" yaml:"history_capacity"`
	ScrollStep      int    `mapstructure:"scroll_step" yaml:"scroll_step"`
	Theme           string `mapstructure:"theme" yaml:"theme"`
}

// SSHConfig configures the SSH server.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path" yaml:"authorized_keys_path"`
	IdlePrompt         string `mapstructure:"idle_prompt" yaml:"idle_prompt"`
	RequireTOTP        bool   `mapstructure:"require_totp" yaml:"require_totp"`
	TOTPFile           string `mapstructure:"totp_file" yaml:"totp_file"`
}

// RelayConfig controls the shared session relay.
type RelayConfig struct {
	History int `mapstructure:"history" yaml:"history"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	base := filepath.Join(home, ".scrollcon")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Screen: ScreenConfig{
			HistoryCapacity: schema.DefaultHistoryCapacity,
			ScrollStep:      schema.DefaultScrollStep,
			Theme:           string(schema.DefaultTheme),
		},
		SSH: SSHConfig{
			Addr:               ":2222",
			HostKeyPath:        filepath.Join(base, "ssh_host_key"),
			AuthorizedKeysPath: filepath.Join(base, "authorized_keys"),
			IdlePrompt:         "> ",
			RequireTOTP:        false,
			TOTPFile:           filepath.Join(base, "totp.yaml"),
		},
		Relay: RelayConfig{
			History: schema.DefaultRelayHistory,
		},
	}, nil
}

// ScreenSettings returns the validated screen settings.
func (c Config) ScreenSettings() (schema.ScreenConfig, error) {
	return schema.NormalizeScreenConfig(schema.ScreenConfig{
		HistoryCapacity: c.Screen.HistoryCapacity,
		ScrollStep:      c.Screen.ScrollStep,
		Theme:           schema.ThemeName(c.Screen.Theme),
	})
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scrollcon", "config.yaml"), nil
}
