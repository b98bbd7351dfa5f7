package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/llm"
	"github.com/samsaffron/fencestream/internal/signal"
	"github.com/samsaffron/fencestream/internal/stream"
)

var (
	askProvider  string
	askSystem    string
	askMaxTokens int
	askRecord    bool
	askRaw       bool
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask a model and render its streamed answer",
	Long: `Send a prompt to the configured provider and render the answer as it
streams in.

Examples:
  fencestream ask "show a go http server"
  fencestream ask -p openai:gpt-4o "explain this regex: ^a+$"
  fencestream ask --record "write a python script"   # save fragments for replay
  fencestream ask --raw "hello"                       # print fragments unrendered`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	AddProviderFlag(askCmd, &askProvider)
	askCmd.Flags().StringVarP(&askSystem, "system-message", "m", "", "System message for the model")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "Maximum tokens to generate (0 = provider default)")
	askCmd.Flags().BoolVar(&askRecord, "record", false, "Save the fragment sequence to the capture store")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print fragments as received, without rendering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	if err := applyProviderOverride(cfg, askProvider); err != nil {
		return err
	}
	provider, err := llm.NewProvider(cfg, "", logger)
	if err != nil {
		return err
	}
	providerName, model := config.SplitProviderModel(cfg.DefaultProvider)
	logger.Debug("asking", "provider", provider.Name())

	trace := openTrace(cfg, cmd, args, providerName, model)
	defer trace.Close()

	var opts []stream.Option
	var rec *capture.Recorder
	if askRecord || cfg.Capture.Enabled {
		rec = capture.NewRecorder(providerName, model, prompt)
		opts = append(opts, stream.WithRecorder(rec))
	}
	opts = append(opts, stream.WithRetryNotice(func(ev llm.Event) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Retrying (%d/%d) in %.1fs...\n", ev.RetryAttempt, ev.RetryMaxAttempts, ev.RetryWaitSecs)
	}))

	req := llm.Request{Model: model, System: askSystem, Prompt: prompt, MaxTokens: askMaxTokens}
	out := cmd.OutOrStdout()
	var stats stream.Stats
	if askRaw {
		stats, err = streamRaw(ctx, out, provider, req, append(opts, stream.WithTrace(trace))...)
	} else {
		stats, err = streamTo(ctx, out, provider, req, trace, opts...)
	}

	if rec != nil && rec.Capture.Fragments > 0 {
		if saveErr := saveRecording(rec); saveErr != nil {
			logger.Warn("capture not saved", "err", saveErr)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved capture %s\n", capture.ShortID(rec.ID))
		}
	}
	if showStats {
		fmt.Fprintln(cmd.ErrOrStderr(), stats.Render())
	}
	return err
}

// streamRaw copies text fragments straight to w. The stream still goes
// through a pipeline without a sink so recording and stats work.
func streamRaw(ctx context.Context, w io.Writer, provider llm.Provider, req llm.Request, opts ...stream.Option) (stream.Stats, error) {
	s, err := provider.Stream(ctx, req)
	if err != nil {
		return stream.Stats{}, err
	}
	p := stream.New(newParser(cfg), nil, append(opts, stream.WithLogger(logger))...)
	runErr := p.Run(ctx, &teeStream{Stream: s, w: w})
	if runErr == nil {
		fmt.Fprintln(w)
	}
	return p.Stats(), runErr
}

// teeStream writes every text delta to w as it passes through.
type teeStream struct {
	llm.Stream
	w io.Writer
}

func (t *teeStream) Recv() (llm.Event, error) {
	ev, err := t.Stream.Recv()
	if err == nil && ev.Type == llm.EventTextDelta {
		if _, werr := io.WriteString(t.w, ev.Text); werr != nil {
			return llm.Event{}, werr
		}
	}
	return ev, err
}

func saveRecording(rec *capture.Recorder) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRecording(context.Background(), rec)
}
