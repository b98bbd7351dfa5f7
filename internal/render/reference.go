package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

type referenceKey struct {
	width   int
	profile termenv.Profile
}

// referenceCache holds glamour renderers keyed by width and profile.
// Creating a renderer is expensive.
var referenceCache sync.Map // map[referenceKey]*glamour.TermRenderer

func referenceRenderer(width int, profile termenv.Profile) (*glamour.TermRenderer, error) {
	key := referenceKey{width: width, profile: profile}
	if cached, ok := referenceCache.Load(key); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	style := "dark"
	if profile == termenv.Ascii {
		style = "notty"
	}
	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(style),
		glamour.WithColorProfile(profile),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}

	referenceCache.Store(key, tr)
	return tr, nil
}

// Reference renders a complete markdown document with glamour. It is the
// non-incremental baseline the streaming renderer is compared against.
func Reference(content string, width int, profile termenv.Profile) (string, error) {
	if content == "" {
		return "", nil
	}
	tr, err := referenceRenderer(width, profile)
	if err != nil {
		return "", err
	}
	out, err := tr.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out) + "\n", nil
}
