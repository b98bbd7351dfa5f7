package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/fencestream/internal/chunker"
	"github.com/samsaffron/fencestream/internal/mdstream"
)

var (
	inspectChunks   chunkFlags
	inspectFormat   string
	inspectCoalesce bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|-]",
	Short: "Show the elements the parser returns for each fragment",
	Long: `Feed a document to the parser fragment by fragment and print what each
call returned. The last call is the end-of-stream flush.

Examples:
  fencestream inspect notes.md
  fencestream inspect --chunk runes --format json notes.md
  fencestream inspect --coalesce --format yaml notes.md   # final element list only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	AddChunkFlags(inspectCmd, &inspectChunks)
	AddFormatFlag(inspectCmd, &inspectFormat, "text")
	inspectCmd.Flags().BoolVar(&inspectCoalesce, "coalesce", false, "Print the coalesced element list instead of per-call output")
	rootCmd.AddCommand(inspectCmd)
}

// inspectCall is one ProcessChunk (or final Flush) call and its result.
type inspectCall struct {
	Call     int                `json:"call" yaml:"call"`
	Fragment string             `json:"fragment" yaml:"fragment"`
	Final    bool               `json:"final,omitempty" yaml:"final,omitempty"`
	State    string             `json:"state" yaml:"state"`
	Elements []mdstream.Element `json:"elements" yaml:"elements"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	split, err := inspectChunks.splitter(cfg.Replay)
	if err != nil {
		return err
	}
	calls := inspectDocument(newParser(cfg), inputs[0].Text, split)

	out := cmd.OutOrStdout()
	if inspectCoalesce {
		var all []mdstream.Element
		for _, c := range calls {
			all = append(all, c.Elements...)
		}
		return writeElements(out, inspectFormat, mdstream.Coalesce(all))
	}
	return writeCalls(out, inspectFormat, calls)
}

// inspectDocument records the parser's response to every fragment of text.
func inspectDocument(p *mdstream.Parser, text string, split chunker.Splitter) []inspectCall {
	var calls []inspectCall
	for i, frag := range split(text) {
		elems := p.ProcessChunk(frag, false)
		calls = append(calls, inspectCall{
			Call:     i + 1,
			Fragment: frag,
			State:    p.State().String(),
			Elements: elems,
		})
	}
	elems := p.Flush()
	return append(calls, inspectCall{
		Call:     len(calls) + 1,
		Final:    true,
		State:    p.State().String(),
		Elements: elems,
	})
}

func writeCalls(w io.Writer, format string, calls []inspectCall) error {
	switch format {
	case "json":
		return writeJSON(w, calls)
	case "yaml":
		return writeYAML(w, calls)
	case "text", "":
		for _, c := range calls {
			if c.Final {
				fmt.Fprintf(w, "#%d flush → %s\n", c.Call, c.State)
			} else {
				fmt.Fprintf(w, "#%d %s → %s\n", c.Call, strconv.Quote(c.Fragment), c.State)
			}
			for _, e := range c.Elements {
				fmt.Fprintf(w, "    %s\n", describeElement(e))
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
}

func writeElements(w io.Writer, format string, elems []mdstream.Element) error {
	switch format {
	case "json":
		return writeJSON(w, elems)
	case "yaml":
		return writeYAML(w, elems)
	case "text", "":
		for _, e := range elems {
			fmt.Fprintln(w, describeElement(e))
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
}

// describeElement renders an element on one line for humans.
func describeElement(e mdstream.Element) string {
	if e.Kind == mdstream.KindCodeBlock {
		lang := e.Language
		if lang == "" {
			lang = "-"
		}
		return fmt.Sprintf("code[%d %s] %s", e.Block, lang, strconv.Quote(e.Content))
	}
	s := "text"
	for _, seg := range e.Run {
		if seg.Style == mdstream.StylePlain {
			s += " " + strconv.Quote(seg.Text)
		} else {
			s += fmt.Sprintf(" %s(%s)", seg.Style, strconv.Quote(seg.Text))
		}
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
