package render

import "github.com/muesli/termenv"

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the color theme.
func WithTheme(theme *Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithProfile sets the color profile. The default is termenv.Ascii, which
// writes plain text.
func WithProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.profile = profile
	}
}

// WithHighlightStyle sets the chroma style for code blocks.
func WithHighlightStyle(name string) Option {
	return func(r *Renderer) {
		r.highlightStyle = name
	}
}

// WithWidth sets the terminal width used to size code block headers.
// Zero leaves headers unpadded.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		r.width = width
	}
}

// WithCodeIndent sets the indentation of code block lines.
func WithCodeIndent(n uint) Option {
	return func(r *Renderer) {
		r.codeIndent = n
	}
}
