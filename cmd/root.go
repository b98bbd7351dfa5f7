package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/render"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "fencestream",
	Short: "Render streamed markdown as it arrives",
	Long: `fencestream classifies markdown text as it streams in, fragment by
fragment, separating prose from fenced code blocks without waiting for the
whole document.

Examples:
  fencestream render README.md                  # stream a file through the renderer
  fencestream render --chunk runes notes.md     # one rune per fragment
  fencestream ask "write a bash loop"           # stream a model's answer
  fencestream check docs/**/*.md                # verify chunk invariance
  fencestream inspect --format yaml notes.md    # dump parser output`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: setup,
}

var (
	configFile string
	debugFlag  bool
	colorMode  string
	noColor    bool
	traceFlag  bool
	showStats  bool
)

// Loaded once per process in setup.
var (
	cfg    *config.Config
	logger *log.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/fencestream/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Show debug logs")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "Color output: auto, always or never (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Write a JSONL trace of fragments and elements")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Show stream statistics when done")
	if err := rootCmd.RegisterFlagCompletionFunc("color", cobra.FixedCompletions(
		[]string{render.ColorAuto, render.ColorAlways, render.ColorNever}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register color completion: " + err.Error())
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded
	switch {
	case noColor:
		cfg.Render.Color = render.ColorNever
	case colorMode != "":
		cfg.Render.Color = colorMode
	}
	if traceFlag {
		cfg.Log.Trace = true
	}
	logger = newLogger(cmd.ErrOrStderr(), cfg.Log, debugFlag)
	logger.Debug("config loaded", "file", configFile, "provider", cfg.DefaultProvider)
	return nil
}
