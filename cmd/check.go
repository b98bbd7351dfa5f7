package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	diff "github.com/shogoki/gotextdiff"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/samsaffron/fencestream/internal/chunker"
	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/mdstream"
	"github.com/samsaffron/fencestream/internal/render"
)

var errCheckFailed = errors.New("check failed")

var (
	checkTrials   int
	checkMaxChunk int
	checkSeed     int64
	checkOracle   bool
)

var checkCmd = &cobra.Command{
	Use:   "check [files...|-]",
	Short: "Verify that output does not depend on how the input is split",
	Long: `Parse each document in one piece, then again under many random and
deterministic fragment splits, and compare the coalesced element lists.
Any difference is printed as a unified diff and the command exits 1.

With --oracle the fenced code blocks are also compared against goldmark.

Examples:
  fencestream check README.md
  fencestream check --trials 1000 'docs/**/*.md'
  fencestream check --oracle notes.md`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&checkTrials, "trials", 100, "Random splits per document")
	checkCmd.Flags().IntVar(&checkMaxChunk, "max-chunk", 16, "Maximum random fragment size in bytes")
	checkCmd.Flags().Int64Var(&checkSeed, "seed", 1, "Seed of the first random trial")
	checkCmd.Flags().BoolVar(&checkOracle, "oracle", false, "Also compare fenced code blocks with goldmark")
	rootCmd.AddCommand(checkCmd)
}

// checkResult describes the first violation found in one document.
type checkResult struct {
	Name     string
	Trials   int
	Strategy string
	Diff     string
}

func (r checkResult) ok() bool { return r.Diff == "" }

func runCheck(cmd *cobra.Command, args []string) error {
	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	styles := render.NewStyles(out, nil, render.DetectProfile(out, cfg.Render.Color))

	failed := 0
	for _, in := range inputs {
		res := checkDocument(cfg, in, checkTrials, checkMaxChunk, checkSeed)
		if res.ok() && checkOracle {
			if oracle := checkAgainstGoldmark(cfg, in); !oracle.ok() {
				res = oracle
			}
		}
		if res.ok() {
			fmt.Fprintf(out, "%s %s (%d splits)\n", styles.Success.Render("ok  "), in.Name, res.Trials)
			continue
		}
		failed++
		fmt.Fprintf(out, "%s %s: %s\n", styles.Error.Render("FAIL"), in.Name, res.Strategy)
		io.WriteString(out, res.Diff)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", errCheckFailed, failed, len(inputs))
	}
	return nil
}

// checkDocument compares the single-call parse of a document with the
// parse under every deterministic splitter and trials random ones.
func checkDocument(c *config.Config, in input, trials, maxChunk int, seed int64) checkResult {
	want := dumpElements(parseWith(c, in.Text, chunker.None))
	res := checkResult{Name: in.Name}

	try := func(strategy string, split chunker.Splitter) bool {
		res.Trials++
		got := dumpElements(parseWith(c, in.Text, split))
		if got == want {
			return true
		}
		res.Strategy = strategy
		res.Diff = string(diff.Diff("single call", []byte(want), strategy, []byte(got)))
		return false
	}

	for _, name := range []string{"bytes", "runes", "lines"} {
		split, _ := chunker.New(name, 0, 0)
		if !try(name, split) {
			return res
		}
	}
	for i := 0; i < trials; i++ {
		s := seed + int64(i)
		if !try(fmt.Sprintf("random seed=%d max=%d", s, maxChunk), chunker.Random(s, maxChunk)) {
			return res
		}
	}
	return res
}

func parseWith(c *config.Config, text string, split chunker.Splitter) []mdstream.Element {
	p := newParser(c)
	var out []mdstream.Element
	for _, frag := range split(text) {
		out = append(out, p.ProcessChunk(frag, false)...)
	}
	out = append(out, p.Flush()...)
	return mdstream.Coalesce(out)
}

func dumpElements(elems []mdstream.Element) string {
	var sb strings.Builder
	for _, e := range elems {
		sb.WriteString(describeElement(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// fencedBlock is a code block reduced to what both parsers agree on.
type fencedBlock struct {
	Language string
	Content  string
}

func checkAgainstGoldmark(c *config.Config, in input) checkResult {
	res := checkResult{Name: in.Name, Trials: 1, Strategy: "goldmark fenced blocks"}
	want := dumpBlocks(goldmarkBlocks(in.Text))
	var parsed []fencedBlock
	for _, e := range parseWith(c, in.Text, chunker.None) {
		if e.Kind == mdstream.KindCodeBlock {
			parsed = append(parsed, fencedBlock{Language: e.Language, Content: e.Content})
		}
	}
	if got := dumpBlocks(parsed); got != want {
		res.Diff = string(diff.Diff("goldmark", []byte(want), "fencestream", []byte(got)))
	}
	return res
}

// goldmarkBlocks returns the fenced code blocks goldmark finds in src with
// languages normalized the same way the parser does.
func goldmarkBlocks(src string) []fencedBlock {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(source))

	var blocks []fencedBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}
		content := trimLeadingBlankLines(sb.String())
		if content == "" {
			return ast.WalkSkipChildren, nil
		}
		blocks = append(blocks, fencedBlock{
			Language: mdstream.ValidateLanguage(string(fc.Language(source))),
			Content:  content,
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

func dumpBlocks(blocks []fencedBlock) string {
	var sb strings.Builder
	for i, b := range blocks {
		fmt.Fprintf(&sb, "block %d [%s]\n%s", i+1, b.Language, b.Content)
		if !strings.HasSuffix(b.Content, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func trimLeadingBlankLines(s string) string {
	for {
		line, rest, found := strings.Cut(s, "\n")
		if !found || strings.TrimSpace(line) != "" {
			return s
		}
		s = rest
	}
}
