package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// PrettyLogger writes user-facing console output, as opposed to the
// structured component logs.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles contains lipgloss styles for different message types
type PrettyStyles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Player  lipgloss.Style
	Item    lipgloss.Style
	Muted   lipgloss.Style
}

// NewPrettyStyles builds the default styles bound to a renderer.
func NewPrettyStyles(r *lipgloss.Renderer) PrettyStyles {
	return PrettyStyles{
		Success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Key:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   r.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Player:  r.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Item:    r.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// NewPrettyLoggerFor creates a pretty logger for w. plain disables colours.
func NewPrettyLoggerFor(w io.Writer, plain bool) *PrettyLogger {
	var opts []termenv.OutputOption
	if plain {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	r := lipgloss.NewRenderer(w, opts...)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return &PrettyLogger{
		writer: w,
		styles: NewPrettyStyles(r),
	}
}

// Styles returns the styles used by this logger.
func (p *PrettyLogger) Styles() PrettyStyles {
	return p.styles
}

// Success prints a message with a checkmark.
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Success.Render("✓"),
		p.styles.Success.Render(message))
}

// InfoPretty prints an informational message.
func (p *PrettyLogger) InfoPretty(message string) {
	fmt.Fprintf(p.writer, "%s\n", p.styles.Info.Render(message))
}

// WarnPretty prints a warning.
func (p *PrettyLogger) WarnPretty(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Warning.Render("⚠"),
		p.styles.Warning.Render(message))
}

// ErrorPretty prints an error.
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s",
		p.styles.Error.Render("✗"),
		p.styles.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", p.styles.Error.Render(err.Error()))
	}
	fmt.Fprintln(p.writer)
}

// Field prints a key-value pair.
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(key),
		p.styles.Value.Render(fmt.Sprint(value)))
}

// Line prints pre-rendered text as is.
func (p *PrettyLogger) Line(text string) {
	fmt.Fprintln(p.writer, text)
}
