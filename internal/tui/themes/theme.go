// Package themes defines the visual styles for the TUI.
package themes

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors a theme is built from.
type Palette struct {
	Primary    lipgloss.Color
	OnPrimary  lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Safe       lipgloss.Color
	Danger     lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusPending lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSafe    lipgloss.Style
	StatusDanger  lipgloss.Style
	Palette
}

// New builds a theme from a palette.
func New(p Palette) Theme {
	status := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	tab := lipgloss.NewStyle().Padding(0, 2)

	return Theme{
		Palette:     p,
		Title:       lipgloss.NewStyle().Bold(true).Foreground(p.Foreground).MarginBottom(1),
		Subtitle:    lipgloss.NewStyle().Foreground(p.Subtle),
		Normal:      lipgloss.NewStyle().Foreground(p.Foreground),
		Bold:        lipgloss.NewStyle().Bold(true).Foreground(p.Foreground),
		TabActive:   tab.Background(p.Primary).Foreground(p.OnPrimary).Bold(true),
		TabInactive: tab.Foreground(p.Subtle),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),
		StatusPending: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		StatusSafe:    status(p.Safe),
		StatusDanger:  status(p.Danger),
		StatusWarning: status(p.Warning),
		StatusError:   status(p.Error),
	}
}

// Default matches the colors of the command line output.
var Default = New(Palette{
	Primary:    lipgloss.Color("#5B8DEF"),
	OnPrimary:  lipgloss.Color("#FAFAFA"),
	Foreground: lipgloss.Color("#FAFAFA"),
	Subtle:     lipgloss.Color("#A3A3A3"),
	Muted:      lipgloss.Color("#666666"),
	Border:     lipgloss.Color("#404040"),
	Safe:       lipgloss.Color("#4ECDC4"),
	Danger:     lipgloss.Color("#FF6B6B"),
	Warning:    lipgloss.Color("#FFE66D"),
	Error:      lipgloss.Color("#FF8C42"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = New(Palette{
	Primary:    lipgloss.Color("#cba6f7"),
	OnPrimary:  lipgloss.Color("#1e1e2e"),
	Foreground: lipgloss.Color("#cdd6f4"),
	Subtle:     lipgloss.Color("#a6adc8"),
	Muted:      lipgloss.Color("#6c7086"),
	Border:     lipgloss.Color("#45475a"),
	Safe:       lipgloss.Color("#a6e3a1"),
	Danger:     lipgloss.Color("#f38ba8"),
	Warning:    lipgloss.Color("#f9e2af"),
	Error:      lipgloss.Color("#fab387"),
})

// ByName returns a theme by name, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
