package cmd

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/samsaffron/fencestream/internal/config"
)

// newLogger builds the process logger and installs it as the default so
// packages falling back to log.Default() share it.
func newLogger(w io.Writer, lc config.LogConfig, debug bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix:          "fencestream",
		ReportTimestamp: debug,
	})

	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		level = log.WarnLevel
	}
	if debug {
		level = log.DebugLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(lc.Format, "json") {
		l.SetFormatter(log.JSONFormatter)
	}
	log.SetDefault(l)
	return l
}
