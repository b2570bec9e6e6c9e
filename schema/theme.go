package schema

import "strings"

// DefaultTheme is the default console theme name.
const DefaultTheme ThemeName = "classic"

var themeNames = []ThemeName{
	"classic",
	"mono",
}

// AvailableThemes returns the supported theme names.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "", "classic", "default":
		return "classic", true
	case "mono", "monochrome", "no-color":
		return "mono", true
	default:
		return "", false
	}
}
