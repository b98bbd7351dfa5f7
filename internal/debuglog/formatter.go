package debuglog

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/samsaffron/fencestream/internal/render"
)

// FormatOptions controls how session output is formatted
type FormatOptions struct {
	Color         string // auto, always or never
	Days          int    // Retention window shown in the list header
	ElementsOnly  bool   // Only show parser output, not fragments
	ShowTimestamp bool   // Show timestamp for each entry
}

func stylesFor(w io.Writer, opts FormatOptions) *render.Styles {
	return render.NewStyles(w, nil, render.DetectProfile(w, opts.Color))
}

// FormatSessionList formats a list of sessions as a table
func FormatSessionList(w io.Writer, sessions []SessionSummary, opts FormatOptions) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No trace sessions found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Enable tracing with `log.trace: true` in the config or --trace.")
		return
	}

	styles := stylesFor(w, opts)
	if opts.Days > 0 {
		fmt.Fprintf(w, "%s\n\n", styles.Muted.Render(fmt.Sprintf("Trace sessions (last %d days)", opts.Days)))
	}

	var totFrags, totElems int
	for i, s := range sessions {
		source := s.Command
		if s.Provider != "" {
			source = fmt.Sprintf("%s %s", s.Command, s.Provider)
		}
		if len(source) > 40 {
			source = source[:37] + "..."
		}

		totFrags += s.Fragments
		totElems += s.Elements

		errMark := " "
		if s.HasErrors {
			errMark = styles.Error.Render("!")
		}

		fmt.Fprintf(w, "%s%2d. %s  %-40s  %s frags → %s elems, %s blocks  %s\n",
			errMark,
			i+1,
			styles.Muted.Render(humanize.Time(s.StartTime)),
			source,
			compactNum(s.Fragments),
			compactNum(s.Elements),
			strconv.Itoa(s.Blocks),
			styles.Muted.Render(humanize.Bytes(uint64(s.FileSize))),
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", styles.Muted.Render(
		fmt.Sprintf("Total: %d sessions  %s fragments  %s elements", len(sessions), compactNum(totFrags), compactNum(totElems)),
	))
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Muted.Render("Use `fencestream trace show 1` to view a session"))
}

// compactNum formats a number in a compact way (1.2K, 1.5M, etc.)
func compactNum(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 10000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	if n < 1000000 {
		return fmt.Sprintf("%dK", n/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatSession formats a full session for display
func FormatSession(w io.Writer, session *Session, opts FormatOptions) {
	styles := stylesFor(w, opts)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", styles.Highlighted.Render("Session:"), session.ID)

	if session.Command != "" {
		cmdLine := session.Command
		if len(session.Args) > 0 {
			cmdLine += " " + strings.Join(session.Args, " ")
		}
		if len(cmdLine) > 120 {
			cmdLine = cmdLine[:117] + "..."
		}
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("Command:"), cmdLine)
	}
	if session.Cwd != "" {
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("Cwd:"), session.Cwd)
	}
	if session.Provider != "" {
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("Provider:"), session.Provider)
	}
	fmt.Fprintf(w, "%s %s\n",
		styles.Muted.Render("Started:"),
		session.StartTime.Local().Format("2006-01-02 15:04:05"),
	)
	if !session.EndTime.IsZero() && session.EndTime.After(session.StartTime) {
		duration := session.EndTime.Sub(session.StartTime).Round(time.Millisecond)
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("Duration:"), duration)
	}
	fmt.Fprintf(w, "%s %d fragments (%s), %d elements, %d code blocks\n",
		styles.Muted.Render("Stream:"),
		session.Fragments, humanize.Bytes(uint64(session.Bytes)),
		session.Elements, session.Blocks,
	)
	if session.Input > 0 || session.Output > 0 {
		fmt.Fprintf(w, "%s input=%s output=%s\n",
			styles.Muted.Render("Tokens:"),
			humanize.Comma(int64(session.Input)),
			humanize.Comma(int64(session.Output)),
		)
	}
	if session.HasErrors {
		fmt.Fprintf(w, "%s\n", styles.Error.Render("Has errors"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Muted.Render(strings.Repeat("─", 78)))
	fmt.Fprintln(w)

	for _, entry := range session.Entries {
		switch e := entry.(type) {
		case FragmentEntry:
			if opts.ElementsOnly {
				continue
			}
			label := fmt.Sprintf("← #%d", e.Seq)
			if e.IsFinal {
				label += " final"
			}
			writeLine(w, opts, e.Timestamp, styles.Muted.Render(label), strconv.Quote(e.Text))
		case ElementEntry:
			label := "→ " + e.Kind
			if e.Kind == "code_block" {
				lang := e.Language
				if lang == "" {
					lang = "-"
				}
				label = fmt.Sprintf("→ code[%d %s]", e.Block, lang)
				writeLine(w, opts, e.Timestamp, styles.CodeHeader.Render(label), strconv.Quote(e.Text))
				continue
			}
			writeLine(w, opts, e.Timestamp, styles.Success.Render(label), strconv.Quote(e.Text))
		case EventEntry:
			switch e.Type {
			case TypeError:
				writeLine(w, opts, e.Timestamp, styles.Error.Render("✗ error"), e.Message)
			case TypeFlush:
				writeLine(w, opts, e.Timestamp, styles.Warning.Render("■ flush"), "")
			case TypeUsage:
				writeLine(w, opts, e.Timestamp, styles.Muted.Render("Σ usage"),
					fmt.Sprintf("in=%d out=%d", e.Input, e.Output))
			}
		}
	}
}

func writeLine(w io.Writer, opts FormatOptions, ts time.Time, label, body string) {
	if opts.ShowTimestamp {
		fmt.Fprintf(w, "%s ", ts.Local().Format("15:04:05.000"))
	}
	if body == "" {
		fmt.Fprintln(w, label)
		return
	}
	fmt.Fprintf(w, "%s %s\n", label, body)
}
