package core

import (
	"github.com/charmbracelet/x/ansi"

	"pkt.systems/scrollcon/schema"
)

// Theme holds the foreground colors used by the console. A nil color leaves
// the terminal default in place.
type Theme struct {
	Name      schema.ThemeName
	Separator ansi.Color
	Sent      ansi.Color
	Error     ansi.Color
}

var themes = map[schema.ThemeName]Theme{
	"classic": {
		Name:      "classic",
		Separator: ansi.Green,
		Sent:      ansi.BrightYellow,
		Error:     ansi.Red,
	},
	"mono": {
		Name: "mono",
	},
}

// ThemeForName returns the named theme, falling back to the default theme.
func ThemeForName(name schema.ThemeName) Theme {
	if name == "" {
		name = schema.DefaultTheme
	}
	if theme, ok := themes[name]; ok {
		return theme
	}
	return themes[schema.DefaultTheme]
}

func fgSequence(c ansi.Color) string {
	if c == nil {
		return ""
	}
	return ansi.Style{}.ForegroundColor(c).String()
}

var fgResetSequence = ansi.Style{}.ForegroundColor(nil).String()
