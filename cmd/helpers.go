package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/debuglog"
	"github.com/samsaffron/fencestream/internal/mdstream"
	"github.com/samsaffron/fencestream/internal/render"
)

const defaultWidth = 80

// input is one markdown document read from a file or stdin.
type input struct {
	Name string
	Text string
}

// readInputs reads the named files, expanding glob patterns. No arguments
// or "-" reads stdin.
func readInputs(args []string, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	var out []input
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			out = append(out, input{Name: "stdin", Text: string(data)})
			continue
		}
		paths, err := expandPattern(arg)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			out = append(out, input{Name: path, Text: string(data)})
		}
	}
	return out, nil
}

// expandPattern returns arg itself when it has no glob metacharacters,
// otherwise every matching file.
func expandPattern(arg string) ([]string, error) {
	if !strings.ContainsAny(arg, "*?[{") {
		return []string{arg}, nil
	}
	matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %q", arg)
	}
	return matches, nil
}

// terminalWidth returns the width of w if it is a terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

func newParser(c *config.Config) *mdstream.Parser {
	return mdstream.NewParser(mdstream.WithCodeFlushThreshold(c.Render.CodeFlushThreshold))
}

func newRenderer(c *config.Config, w io.Writer) *render.Renderer {
	tc := c.Render.Theme
	return render.New(w,
		render.WithProfile(render.DetectProfile(w, c.Render.Color)),
		render.WithTheme(render.ThemeFromConfig(render.ThemeConfig{
			Text:       tc.Text,
			Bold:       tc.Bold,
			Code:       tc.Code,
			CodeBg:     tc.CodeBg,
			CodeHeader: tc.CodeHeader,
			Muted:      tc.Muted,
		})),
		render.WithHighlightStyle(c.Render.HighlightStyle),
		render.WithWidth(terminalWidth(w)),
	)
}

// openTrace starts a trace session when tracing is enabled, nil otherwise.
// A nil *debuglog.Logger is safe to use.
func openTrace(c *config.Config, cmd *cobra.Command, args []string, provider, model string) *debuglog.Logger {
	if !c.Log.Trace {
		return nil
	}
	dir, err := c.TraceDir()
	if err != nil {
		logger.Warn("trace disabled", "err", err)
		return nil
	}
	id := time.Now().Format("20060102-150405") + "-" + capture.ShortID(capture.NewID())
	retention := time.Duration(c.Log.RetentionDays) * 24 * time.Hour
	trace, err := debuglog.New(dir, id, retention)
	if err != nil {
		logger.Warn("trace disabled", "err", err)
		return nil
	}
	cwd, _ := os.Getwd()
	trace.LogSessionStart(cmd.Name(), args, cwd, provider, model)
	logger.Debug("tracing", "path", trace.Path())
	return trace
}

func openStore(c *config.Config) (*capture.Store, error) {
	path, err := c.CapturePath()
	if err != nil {
		return nil, err
	}
	return capture.Open(path, capture.WithLogger(logger))
}

func displayName(path string) string {
	if path == "stdin" {
		return path
	}
	return filepath.Base(path)
}
