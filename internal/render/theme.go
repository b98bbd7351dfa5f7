package render

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette used for rendered output
type Theme struct {
	Text       lipgloss.Color // prose
	Bold       lipgloss.Color // **bold** spans
	Code       lipgloss.Color // `inline code` foreground
	CodeBg     lipgloss.Color // `inline code` background
	CodeHeader lipgloss.Color // language label above code blocks
	Muted      lipgloss.Color // dimmed/secondary text
	Success    lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return &Theme{
		Text:       lipgloss.Color("#ebdbb2"), // gruvbox foreground
		Bold:       lipgloss.Color("#fabd2f"), // gruvbox yellow
		Code:       lipgloss.Color("#fe8019"), // gruvbox orange
		CodeBg:     lipgloss.Color("#3c3836"), // gruvbox dark gray
		CodeHeader: lipgloss.Color("#83a598"), // gruvbox aqua
		Muted:      lipgloss.Color("#928374"), // gruvbox gray
		Success:    lipgloss.Color("#b8bb26"), // gruvbox green
		Error:      lipgloss.Color("#fb4934"), // gruvbox red
		Warning:    lipgloss.Color("#fabd2f"), // gruvbox yellow
	}
}

// ThemeConfig mirrors config.ThemeConfig for applying overrides
type ThemeConfig struct {
	Text       string
	Bold       string
	Code       string
	CodeBg     string
	CodeHeader string
	Muted      string
}

// ThemeFromConfig creates a theme with config overrides applied
func ThemeFromConfig(cfg ThemeConfig) *Theme {
	theme := DefaultTheme()

	if cfg.Text != "" {
		theme.Text = lipgloss.Color(cfg.Text)
	}
	if cfg.Bold != "" {
		theme.Bold = lipgloss.Color(cfg.Bold)
	}
	if cfg.Code != "" {
		theme.Code = lipgloss.Color(cfg.Code)
	}
	if cfg.CodeBg != "" {
		theme.CodeBg = lipgloss.Color(cfg.CodeBg)
	}
	if cfg.CodeHeader != "" {
		theme.CodeHeader = lipgloss.Color(cfg.CodeHeader)
	}
	if cfg.Muted != "" {
		theme.Muted = lipgloss.Color(cfg.Muted)
	}

	return theme
}
