package viz

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name     string
	Primary  lipgloss.Color
	Accent   lipgloss.Color
	Muted    lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
	Setpoint asciigraph.AnsiColor
	// Series colors are assigned to models in display order.
	Series []asciigraph.AnsiColor
}

var (
	ThemeClassic = Theme{
		Name:     "classic",
		Primary:  lipgloss.Color("86"),
		Accent:   lipgloss.Color("205"),
		Muted:    lipgloss.Color("240"),
		Success:  lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffaa00"),
		Error:    lipgloss.Color("#ff4444"),
		Setpoint: asciigraph.Gray,
		Series: []asciigraph.AnsiColor{
			asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta,
			asciigraph.Green, asciigraph.Red, asciigraph.Blue,
		},
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Primary:  lipgloss.Color("#00ff00"), // Green phosphor
		Accent:   lipgloss.Color("#88ff88"),
		Muted:    lipgloss.Color("#005500"),
		Success:  lipgloss.Color("#88ff88"),
		Warning:  lipgloss.Color("#ffff00"),
		Error:    lipgloss.Color("#ff0000"),
		Setpoint: asciigraph.DarkGreen,
		Series: []asciigraph.AnsiColor{
			asciigraph.Lime, asciigraph.YellowGreen, asciigraph.LightGreen,
			asciigraph.Olive,
		},
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Primary:  lipgloss.Color("#0077be"), // Ocean blue
		Accent:   lipgloss.Color("#ffd700"),
		Muted:    lipgloss.Color("#4488aa"),
		Success:  lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffcc00"),
		Error:    lipgloss.Color("#ff4444"),
		Setpoint: asciigraph.White,
		Series: []asciigraph.AnsiColor{
			asciigraph.DeepSkyBlue, asciigraph.Gold, asciigraph.Aqua,
			asciigraph.Coral, asciigraph.SteelBlue,
		},
	}

	// Default theme
	CurrentTheme = ThemeClassic

	// All available themes
	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}

// SeriesColor is the plot color of the i-th model.
func (t Theme) SeriesColor(i int) asciigraph.AnsiColor {
	return t.Series[i%len(t.Series)]
}

// SeriesStyle renders text in the same color as the i-th model's series.
func (t Theme) SeriesStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(int(t.SeriesColor(i)))))
}
