package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/mdstream"
	"github.com/samsaffron/fencestream/internal/render"
)

var languagesResolve bool

var languagesCmd = &cobra.Command{
	Use:   "languages [query]",
	Short: "List the code block languages the parser recognizes",
	Long: `List recognized fence languages, or fuzzy-search them.

With --resolve the arguments are treated as fence info strings and the
language the parser would assign is printed for each.

Examples:
  fencestream languages
  fencestream languages pyth
  fencestream languages --resolve py golang "ts title=x"`,
	RunE: runLanguages,
}

func init() {
	languagesCmd.Flags().BoolVar(&languagesResolve, "resolve", false, "Show how each argument is normalized")
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if languagesResolve {
		for _, raw := range args {
			lang := mdstream.ValidateLanguage(raw)
			if lang == "" {
				lang = "(none)"
			}
			fmt.Fprintf(out, "%-20s → %s\n", raw, lang)
		}
		return nil
	}

	langs := mdstream.Languages()
	if len(args) == 0 {
		for _, l := range langs {
			fmt.Fprintln(out, l)
		}
		return nil
	}

	styles := render.NewStyles(out, nil, render.DetectProfile(out, cfg.Render.Color))
	matches := searchLanguages(strings.Join(args, " "), langs)
	if len(matches) == 0 {
		return fmt.Errorf("no language matches %q", strings.Join(args, " "))
	}
	for _, m := range matches {
		writeMatch(out, m, styles)
	}
	return nil
}

// searchLanguages fuzzy-matches query against langs, best match first.
func searchLanguages(query string, langs []string) fuzzy.Matches {
	return fuzzy.Find(strings.ToLower(query), langs)
}

// writeMatch prints a match with its matched characters highlighted.
func writeMatch(w io.Writer, m fuzzy.Match, styles *render.Styles) {
	matched := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		matched[i] = true
	}
	var sb strings.Builder
	for i, r := range m.Str {
		if matched[i] {
			sb.WriteString(styles.Highlighted.Render(string(r)))
		} else {
			sb.WriteRune(r)
		}
	}
	fmt.Fprintln(w, sb.String())
}
