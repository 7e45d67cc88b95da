// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	// Primary is the accent used for titles and the selected row.
	Primary lipgloss.Color

	// Secondary marks capture times and selected text.
	Secondary lipgloss.Color

	// Background is the terminal background the palette is tuned for.
	Background lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for frame IDs, help and empty states.
	Muted lipgloss.Color

	// Success indicates a saved setting.
	Success lipgloss.Color

	// Warning marks the timeline cursor and pending deletes.
	Warning lipgloss.Color

	// Error indicates store and decode failures.
	Error lipgloss.Color

	// Frame is the border colour of input prompts.
	Frame lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color

	// Segments cycles across recording segments on the timeline strip.
	Segments []lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#E0A458"), // Amber
		Secondary:  lipgloss.Color("#7FB7BE"), // Teal
		Background: lipgloss.Color("#1B1D23"),
		Foreground: lipgloss.Color("#D8DEE9"),
		Muted:      lipgloss.Color("#6B7280"),
		Success:    lipgloss.Color("#8FBC8F"),
		Warning:    lipgloss.Color("#F2C14E"),
		Error:      lipgloss.Color("#E06C75"),
		Frame:      lipgloss.Color("#3B4048"),
		Bar:        lipgloss.Color("#15171C"),
		Segments: []lipgloss.Color{
			lipgloss.Color("#7AA2F7"),
			lipgloss.Color("#F7768E"),
			lipgloss.Color("#9ECE6A"),
			lipgloss.Color("#BB9AF7"),
			lipgloss.Color("#FF9E64"),
		},
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style

	// Selected is the highlighted row in lists.
	Selected lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	// InputField frames the jump and settings prompts.
	InputField lipgloss.Style

	StatusBar lipgloss.Style
	Help      lipgloss.Style

	// Cursor marks the current frame on the timeline strip.
	Cursor lipgloss.Style

	// Highlight marks selected OCR text.
	Highlight lipgloss.Style

	// Timestamp renders frame capture times.
	Timestamp lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),

		Selected: fg(theme.Background).
			Background(theme.Primary).
			Bold(true),

		Error:   fg(theme.Error),
		Success: fg(theme.Success),
		Warning: fg(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),

		StatusBar: fg(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),

		Help:      fg(theme.Muted).Italic(true),
		Cursor:    fg(theme.Warning).Bold(true),
		Highlight: fg(theme.Background).Background(theme.Secondary),
		Timestamp: fg(theme.Secondary),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Segment returns the strip style for the n-th segment in the window.
func (s *Styles) Segment(n int) lipgloss.Style {
	if len(s.theme.Segments) == 0 {
		return s.Muted
	}
	if n < 0 {
		n = -n
	}
	return lipgloss.NewStyle().Foreground(s.theme.Segments[n%len(s.theme.Segments)])
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
