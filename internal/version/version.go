// Package version reports the scrollcon build version.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/scrollcon"
	unknownVersion = "v0.0.0-unknown"
)

// buildVersion is set with -ldflags "-X pkt.systems/scrollcon/internal/version.buildVersion=v1.2.3".
var buildVersion = ""

// Current returns the injected version, the module version or a pseudo
// version derived from VCS settings, in that order.
func Current() string {
	info, _ := debug.ReadBuildInfo()
	return resolve(buildVersion, info)
}

// Module returns the main module path.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

func resolve(injected string, info *debug.BuildInfo) string {
	if v := strings.TrimSpace(injected); v != "" {
		return v
	}
	if info == nil {
		return unknownVersion
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	if v := pseudoVersion(info); v != "" {
		return v
	}
	return unknownVersion
}

// pseudoVersion builds v0.0.0-<utc time>-<revision>, marked +dirty for
// modified trees.
func pseudoVersion(info *debug.BuildInfo) string {
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision, stamp := settings["vcs.revision"], settings["vcs.time"]
	if revision == "" || stamp == "" {
		return ""
	}
	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "v0.0.0-" + at.UTC().Format("20060102150405") + "-" + revision
	if settings["vcs.modified"] == "true" {
		v += "+dirty"
	}
	return v
}
