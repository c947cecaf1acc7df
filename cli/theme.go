package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Kanagawa palette, dark and light variants.
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#4E7C5A", Dark: "#98BB6C"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#C84053", Dark: "#FF5D62"}
	colorOrange = lipgloss.AdaptiveColor{Light: "#CC6B4E", Dark: "#FFA066"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#4D699B", Dark: "#7E9CD8"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#597B75", Dark: "#7FB4CA"}
	colorViolet = lipgloss.AdaptiveColor{Light: "#674D7A", Dark: "#957FB8"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6C7086", Dark: "#727169"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#B5BDC5", Dark: "#363646"}
)

// Theme holds the styles of the command line output.
type Theme struct {
	Title       lipgloss.Style
	Section     lipgloss.Style
	Command     lipgloss.Style
	Subcommand  lipgloss.Style
	Flag        lipgloss.Style
	Muted       lipgloss.Style
	Italic      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	TableHeader lipgloss.Style
	Border      lipgloss.Style
}

// NewTheme builds the theme for renderer r.
func NewTheme(r *lipgloss.Renderer) *Theme {
	return &Theme{
		Title:       r.NewStyle().Bold(true).Foreground(colorOrange),
		Section:     r.NewStyle().Italic(true).Foreground(colorOrange),
		Command:     r.NewStyle().Bold(true).Foreground(colorBlue),
		Subcommand:  r.NewStyle().Foreground(colorCyan),
		Flag:        r.NewStyle().Foreground(colorViolet),
		Muted:       r.NewStyle().Foreground(colorMuted),
		Italic:      r.NewStyle().Italic(true),
		Error:       r.NewStyle().Bold(true).Foreground(colorRed),
		Success:     r.NewStyle().Bold(true).Foreground(colorGreen),
		TableHeader: r.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1),
		Border:      r.NewStyle().Foreground(colorBorder),
	}
}

// DefaultTheme renders to stdout.
var DefaultTheme = NewTheme(lipgloss.DefaultRenderer())
