package sshserver

import "pkt.systems/scrollcon/schema"

// Config defines SSH server settings.
type Config struct {
	Addr        string
	HostKeyPath string
	IdlePrompt  string
	RequireTOTP bool
	Screen      schema.ScreenConfig
}
