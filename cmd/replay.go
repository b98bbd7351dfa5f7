package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/debuglog"
	"github.com/samsaffron/fencestream/internal/llm"
	"github.com/samsaffron/fencestream/internal/signal"
)

var (
	replayChunks  chunkFlags
	replayRechunk bool
	replayTrace   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-id>",
	Short: "Replay a recorded stream through the renderer",
	Long: `Replay a capture with the exact fragment splits it was recorded with.
A unique ID prefix is enough. With --from-trace the argument names a trace
session (number or ID) instead.

Examples:
  fencestream replay 3f2a9c1b
  fencestream replay --rate 20 3f2a               # paced like a live stream
  fencestream replay --rechunk --chunk runes 3f2a # same text, new splits
  fencestream replay --from-trace 1`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	AddChunkFlags(replayCmd, &replayChunks)
	replayCmd.Flags().BoolVar(&replayRechunk, "rechunk", false, "Re-split the recorded text with --chunk instead of the original fragments")
	replayCmd.Flags().BoolVar(&replayTrace, "from-trace", false, "Replay the fragments of a trace session")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	name, fragments, err := loadFragments(ctx, args[0], replayTrace)
	if err != nil {
		return err
	}
	chunks := replayChunks.resolve(cfg.Replay)
	if replayRechunk {
		split, err := replayChunks.splitter(cfg.Replay)
		if err != nil {
			return err
		}
		fragments = split(strings.Join(fragments, ""))
	}

	provider := llm.NewReplayProvider(name, fragments, chunks.Rate)
	trace := openTrace(cfg, cmd, args, "replay", name)
	defer trace.Close()

	stats, err := streamTo(ctx, cmd.OutOrStdout(), provider, llm.Request{}, trace)
	if showStats {
		fmt.Fprintln(cmd.ErrOrStderr(), stats.Render())
	}
	return err
}

// loadFragments fetches a recorded fragment sequence from the capture store
// or a trace session.
func loadFragments(ctx context.Context, ident string, fromTrace bool) (string, []string, error) {
	if fromTrace {
		dir, err := cfg.TraceDir()
		if err != nil {
			return "", nil, err
		}
		summary, err := debuglog.ResolveSession(dir, ident)
		if err != nil {
			return "", nil, err
		}
		if summary == nil {
			return "", nil, fmt.Errorf("trace session not found: %s", ident)
		}
		session, err := debuglog.ParseSession(summary.FilePath)
		if err != nil {
			return "", nil, fmt.Errorf("parse trace: %w", err)
		}
		return summary.ID, session.FragmentTexts(), nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return "", nil, err
	}
	defer store.Close()
	c, err := store.Get(ctx, ident)
	if err != nil {
		if errors.Is(err, capture.ErrNotFound) {
			return "", nil, fmt.Errorf("%w (see `fencestream captures list`)", err)
		}
		return "", nil, err
	}
	fragments, err := store.Fragments(ctx, c.ID)
	if err != nil {
		return "", nil, err
	}
	logger.Debug("loaded capture", "id", c.ID, "fragments", len(fragments))
	return capture.ShortID(c.ID), fragments, nil
}
