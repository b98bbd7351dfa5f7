// Package highlight renders code block content with chroma syntax
// highlighting as ANSI escape sequences for the active color profile.
package highlight

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// DefaultStyle is used when no style is configured or the name is unknown.
const DefaultStyle = "monokai"

// Highlighter highlights code for a fixed chroma style and color profile.
// Lexers are looked up once per language and cached.
type Highlighter struct {
	style   *chroma.Style
	profile termenv.Profile

	mu     sync.Mutex
	lexers map[string]chroma.Lexer
}

// New creates a highlighter. An unknown style name falls back to
// DefaultStyle. With termenv.Ascii every method returns its input unchanged.
func New(styleName string, profile termenv.Profile) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style:   style,
		profile: profile,
		lexers:  make(map[string]chroma.Lexer),
	}
}

// StyleNames lists the available chroma style names.
func StyleNames() []string {
	return styles.Names()
}

// Lexer returns the lexer for a language name, or nil when chroma does not
// know it. The language is tried as a lexer alias first and then as a file
// extension.
func (h *Highlighter) Lexer(language string) chroma.Lexer {
	if language == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if lexer, ok := h.lexers[language]; ok {
		return lexer
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Match("file." + language)
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	h.lexers[language] = lexer
	return lexer
}

// Highlight styles content, which may span several lines. Newlines are
// preserved and never wrapped in escape sequences.
func (h *Highlighter) Highlight(content, language string) string {
	return h.format(content, language, nil)
}

// HighlightWithBg is Highlight with a fixed background color behind every
// token.
func (h *Highlighter) HighlightWithBg(content, language string, bg chroma.Colour) string {
	return h.format(content, language, &bg)
}

func (h *Highlighter) format(content, language string, bg *chroma.Colour) string {
	if h == nil || h.profile == termenv.Ascii || content == "" {
		return content
	}
	lexer := h.Lexer(language)
	if lexer == nil {
		return content
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var buf strings.Builder
	formatter := &ansiFormatter{style: h.style, profile: h.profile, bg: bg}
	if err := formatter.Format(&buf, iterator); err != nil {
		return content
	}
	out := buf.String()
	// Some lexers add a trailing newline the input did not have.
	if !strings.HasSuffix(content, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// ansiFormatter is a chroma formatter emitting SGR sequences for a termenv
// profile. Each line of a token is styled separately so output can be split
// on newlines.
type ansiFormatter struct {
	style   *chroma.Style
	profile termenv.Profile
	bg      *chroma.Colour
}

func (f *ansiFormatter) Format(w io.Writer, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		seq := f.sequence(f.style.Get(token.Type))

		lines := strings.Split(token.Value, "\n")
		for i, line := range lines {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if line == "" {
				continue
			}
			var err error
			if seq == "" {
				_, err = io.WriteString(w, line)
			} else {
				_, err = fmt.Fprintf(w, "%s%sm%s%sm", termenv.CSI, seq, line, termenv.CSI+termenv.ResetSeq)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *ansiFormatter) sequence(entry chroma.StyleEntry) string {
	var codes []string
	if f.bg != nil && f.bg.IsSet() {
		if c := f.profile.Color(f.bg.String()); c != nil {
			codes = append(codes, c.Sequence(true))
		}
	}
	if entry.Colour.IsSet() {
		if c := f.profile.Color(entry.Colour.String()); c != nil {
			codes = append(codes, c.Sequence(false))
		}
	}
	if entry.Bold == chroma.Yes {
		codes = append(codes, termenv.BoldSeq)
	}
	if entry.Italic == chroma.Yes {
		codes = append(codes, termenv.ItalicSeq)
	}
	if entry.Underline == chroma.Yes {
		codes = append(codes, termenv.UnderlineSeq)
	}
	return strings.Join(codes, ";")
}
