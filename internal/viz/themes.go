package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the watch view. Cold and Hot are the ends of
// the particle colour-intensity gradient.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Cold    lipgloss.Color
	Hot     lipgloss.Color
	Good    lipgloss.Color
	Warn    lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Muted:   lipgloss.Color("#666688"),
		Cold:    lipgloss.Color("#3344ff"),
		Hot:     lipgloss.Color("#ff00ff"),
		Good:    lipgloss.Color("#00ff88"),
		Warn:    lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Cold:    lipgloss.Color("#004400"),
		Hot:     lipgloss.Color("#aaffaa"),
		Good:    lipgloss.Color("#88ff88"),
		Warn:    lipgloss.Color("#ffff00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#00a8cc"),
		Muted:   lipgloss.Color("#4488aa"),
		Cold:    lipgloss.Color("#0077be"),
		Hot:     lipgloss.Color("#ffd700"),
		Good:    lipgloss.Color("#00ff88"),
		Warn:    lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Primary: lipgloss.Color("#feca57"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Cold:    lipgloss.Color("#5f27cd"),
		Hot:     lipgloss.Color("#ff6b6b"),
		Good:    lipgloss.Color("#5fd068"),
		Warn:    lipgloss.Color("#ffc048"),
		Bad:     lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetro, ThemeOcean, ThemeSunset}
)

// GetTheme returns the named theme, or cyberpunk if there is none.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Intensity blends Cold towards Hot by v in [0, 1].
func (t Theme) Intensity(v float64) lipgloss.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	cr, cg, cb := parseHex(string(t.Cold))
	hr, hg, hb := parseHex(string(t.Hot))
	mix := func(a, b int) int { return a + int(v*float64(b-a)) }
	return lipgloss.Color(hexColor(mix(cr, hr), mix(cg, hg), mix(cb, hb)))
}
