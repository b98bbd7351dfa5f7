// Package render writes classified markdown elements to a terminal as they
// arrive. Prose is styled inline; code blocks get a language header and are
// syntax highlighted one complete line at a time.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/samsaffron/fencestream/internal/highlight"
	"github.com/samsaffron/fencestream/internal/mdstream"
)

const (
	defaultCodeIndent = 2
	tabWidth          = 4
	headerRule        = "───"
)

// Renderer is an append-only terminal renderer for parser output. It is not
// safe for concurrent use.
type Renderer struct {
	w      io.Writer
	styles *Styles
	hl     *highlight.Highlighter

	theme          *Theme
	profile        termenv.Profile
	highlightStyle string
	width          int
	codeIndent     uint

	bol      bool
	block    int
	language string
	partial  strings.Builder

	err error
}

// New creates a renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		w:          w,
		profile:    termenv.Ascii,
		codeIndent: defaultCodeIndent,
		bol:        true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = NewStyles(w, r.theme, r.profile)
	r.hl = highlight.New(r.highlightStyle, r.profile)
	return r
}

// Styles returns the styles the renderer draws with.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Render writes each element. The first write error is returned and sticks:
// later calls return it without writing.
func (r *Renderer) Render(elems []mdstream.Element) error {
	for _, e := range elems {
		if r.err != nil {
			return r.err
		}
		switch e.Kind {
		case mdstream.KindText:
			r.endBlock()
			r.writeRun(e.Run)
		case mdstream.KindCodeBlock:
			if e.Block != r.block {
				r.endBlock()
				r.beginBlock(e.Block, e.Language)
			}
			r.writeCode(e.Content)
		}
	}
	return r.err
}

// Close finishes an open code block and terminates the last line.
func (r *Renderer) Close() error {
	r.endBlock()
	if !r.bol {
		r.write("\n")
	}
	return r.err
}

func (r *Renderer) writeRun(run mdstream.Run) {
	for _, seg := range run {
		var style *lipgloss.Style
		switch seg.Style {
		case mdstream.StyleBold:
			style = &r.styles.Bold
		case mdstream.StyleInlineCode:
			style = &r.styles.InlineCode
		}
		// Styles are applied per line so lipgloss never pads a multi-line
		// segment to a common width.
		for i, part := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				r.write("\n")
			}
			if part == "" {
				continue
			}
			if style == nil {
				r.write(part)
			} else {
				r.write(style.Render(part))
			}
		}
	}
}

func (r *Renderer) beginBlock(block int, language string) {
	if !r.bol {
		r.write("\n")
	}
	r.block = block
	r.language = language

	label := language
	if label == "" {
		label = "code"
	}
	header := headerRule + " " + label
	if r.width > 0 {
		limit := r.width - int(r.codeIndent)
		if limit < 1 {
			limit = 1
		}
		header = truncate.StringWithTail(header, uint(limit), "…")
		if pad := limit - ansi.StringWidth(header) - 1; pad > 0 {
			header += " " + strings.Repeat("─", pad)
		}
	}
	r.write(indent.String(r.styles.CodeHeader.Render(header), r.codeIndent) + "\n")
}

// writeCode highlights every complete line and keeps the partial tail until
// its newline arrives or the block ends.
func (r *Renderer) writeCode(content string) {
	r.partial.WriteString(content)
	buf := r.partial.String()
	i := strings.LastIndexByte(buf, '\n')
	if i < 0 {
		return
	}
	r.partial.Reset()
	r.partial.WriteString(buf[i+1:])
	for _, line := range strings.Split(buf[:i], "\n") {
		r.writeCodeLine(line)
	}
}

func (r *Renderer) writeCodeLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		r.write("\n")
		return
	}
	styled := r.hl.Highlight(expandTabs(line), r.language)
	r.write(indent.String(styled, r.codeIndent) + "\n")
}

func (r *Renderer) endBlock() {
	if r.block == 0 {
		return
	}
	if rest := r.partial.String(); rest != "" {
		r.writeCodeLine(rest)
	}
	r.partial.Reset()
	r.block = 0
	r.language = ""
}

func (r *Renderer) write(s string) {
	if r.err != nil || s == "" {
		return
	}
	if _, err := io.WriteString(r.w, s); err != nil {
		r.err = err
		return
	}
	r.bol = strings.HasSuffix(s, "\n")
}

// expandTabs replaces tabs with spaces up to the next tab stop, measuring
// wide runes by their display width.
func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return sb.String()
}
