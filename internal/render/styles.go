package render

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color modes accepted by DetectProfile.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DetectProfile picks the color profile for w. In auto mode color is used
// only when w is a terminal and the environment allows it.
func DetectProfile(w io.Writer, mode string) termenv.Profile {
	switch strings.ToLower(mode) {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		if p := termenv.EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.TrueColor
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Bold        lipgloss.Style
	InlineCode  lipgloss.Style
	CodeHeader  lipgloss.Style
	Muted       lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Highlighted lipgloss.Style
}

// NewStyles creates styles for w using the given theme and color profile
func NewStyles(w io.Writer, theme *Theme, profile termenv.Profile) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)

	return &Styles{
		renderer: r,
		theme:    theme,

		Bold: r.NewStyle().
			Bold(true).
			Foreground(theme.Bold),

		InlineCode: r.NewStyle().
			Foreground(theme.Code).
			Background(theme.CodeBg),

		CodeHeader: r.NewStyle().
			Bold(true).
			Foreground(theme.CodeHeader),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Success: r.NewStyle().
			Foreground(theme.Success),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Warning: r.NewStyle().
			Foreground(theme.Warning),

		Highlighted: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),
	}
}

// Theme returns the theme used by these styles
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Profile returns the color profile of the underlying renderer
func (s *Styles) Profile() termenv.Profile {
	return s.renderer.ColorProfile()
}
