package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/debuglog"
	"github.com/samsaffron/fencestream/internal/llm"
	"github.com/samsaffron/fencestream/internal/render"
	"github.com/samsaffron/fencestream/internal/signal"
	"github.com/samsaffron/fencestream/internal/stream"
)

var (
	renderChunks    chunkFlags
	renderReference bool
)

var renderCmd = &cobra.Command{
	Use:   "render [files...|-]",
	Short: "Stream markdown files through the incremental renderer",
	Long: `Split each input into fragments and feed them to the parser one at a
time, rendering elements as soon as they are classified. Patterns such as
docs/**/*.md are expanded. With no arguments, or "-", stdin is read.

Examples:
  fencestream render README.md
  fencestream render --chunk fixed --chunk-size 3 notes.md
  fencestream render --rate 30 answer.md        # 30 fragments per second
  cat answer.md | fencestream render -
  fencestream render --reference README.md      # whole-document render`,
	RunE: runRender,
}

func init() {
	AddChunkFlags(renderCmd, &renderChunks)
	renderCmd.Flags().BoolVar(&renderReference, "reference", false, "Render the whole document at once with glamour")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	if renderReference {
		profile := render.DetectProfile(out, cfg.Render.Color)
		for _, in := range inputs {
			rendered, err := render.Reference(in.Text, terminalWidth(out), profile)
			if err != nil {
				return fmt.Errorf("render %s: %w", in.Name, err)
			}
			fmt.Fprint(out, rendered)
		}
		return nil
	}

	split, err := renderChunks.splitter(cfg.Replay)
	if err != nil {
		return err
	}
	rate := renderChunks.resolve(cfg.Replay).Rate

	trace := openTrace(cfg, cmd, args, "", "")
	defer trace.Close()

	for _, in := range inputs {
		provider := llm.NewReplayFromText(displayName(in.Name), in.Text, split, rate)
		logger.Debug("rendering", "input", in.Name, "fragments", len(provider.Fragments()))
		stats, err := streamTo(ctx, out, provider, llm.Request{}, trace)
		if err != nil {
			return fmt.Errorf("render %s: %w", in.Name, err)
		}
		if showStats {
			fmt.Fprintln(cmd.ErrOrStderr(), stats.Render())
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil
}

// streamTo runs one provider stream through the parser into a renderer on w.
func streamTo(ctx context.Context, w io.Writer, provider llm.Provider, req llm.Request, trace *debuglog.Logger, opts ...stream.Option) (stream.Stats, error) {
	s, err := provider.Stream(ctx, req)
	if err != nil {
		return stream.Stats{}, err
	}
	r := newRenderer(cfg, w)
	opts = append([]stream.Option{stream.WithTrace(trace), stream.WithLogger(logger)}, opts...)
	p := stream.New(newParser(cfg), r, opts...)
	runErr := p.Run(ctx, s)
	if err := r.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return p.Stats(), runErr
}
