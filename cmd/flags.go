package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/chunker"
	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/llm"
)

// chunkFlags holds the fragment splitting flags shared by render, inspect
// and replay. Zero values defer to the replay section of the config.
type chunkFlags struct {
	Strategy string
	Size     int
	Seed     int64
	Rate     float64
}

// AddChunkFlags adds --chunk, --chunk-size, --seed and --rate.
func AddChunkFlags(cmd *cobra.Command, dest *chunkFlags) {
	cmd.Flags().StringVar(&dest.Strategy, "chunk", "", "Fragment splitting: "+strings.Join(chunker.Names(), ", "))
	cmd.Flags().IntVar(&dest.Size, "chunk-size", 0, "Fragment size for fixed, max size for random")
	cmd.Flags().Int64Var(&dest.Seed, "seed", 0, "Seed for random splitting")
	cmd.Flags().Float64Var(&dest.Rate, "rate", -1, "Fragments per second (0 = unthrottled)")
	if err := cmd.RegisterFlagCompletionFunc("chunk", cobra.FixedCompletions(chunker.Names(), cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register chunk completion: " + err.Error())
	}
}

// resolve fills unset fields from the config.
func (f chunkFlags) resolve(rc config.ReplayConfig) chunkFlags {
	if f.Strategy == "" {
		f.Strategy = rc.Chunking
	}
	if f.Size <= 0 {
		f.Size = rc.ChunkSize
	}
	if f.Seed == 0 {
		f.Seed = rc.Seed
	}
	if f.Rate < 0 {
		f.Rate = rc.Rate
	}
	return f
}

// splitter builds the configured splitter.
func (f chunkFlags) splitter(rc config.ReplayConfig) (chunker.Splitter, error) {
	r := f.resolve(rc)
	return chunker.New(r.Strategy, r.Size, r.Seed)
}

// AddProviderFlag adds the --provider/-p flag with completion
func AddProviderFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-4o)")
	if err := cmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
}

// AddFormatFlag adds the --format/-f flag.
func AddFormatFlag(cmd *cobra.Command, dest *string, def string) {
	cmd.Flags().StringVarP(dest, "format", "f", def, "Output format: text, json or yaml")
	if err := cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register format completion: " + err.Error())
	}
}

// applyProviderOverride applies a --provider value to the config.
func applyProviderOverride(c *config.Config, override string) error {
	if override == "" {
		return nil
	}
	provider, model, err := llm.ParseProviderModel(override)
	if err != nil {
		return err
	}
	c.ApplyOverrides(provider, model)
	return nil
}
