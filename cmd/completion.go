package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/config"
	"github.com/samsaffron/fencestream/internal/debuglog"
	"github.com/samsaffron/fencestream/internal/llm"
)

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script on stdout.

Examples:
  fencestream config completion bash > ~/.bash_completion.d/fencestream
  fencestream config completion zsh > "${fpath[1]}/_fencestream"
  fencestream config completion fish | source`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

func init() {
	configCmd.AddCommand(configCompletionCmd)
	replayCmd.ValidArgsFunction = CaptureArgCompletion
	capturesShowCmd.ValidArgsFunction = CaptureArgCompletion
	capturesDeleteCmd.ValidArgsFunction = CaptureArgCompletion
	traceShowCmd.ValidArgsFunction = TraceArgCompletion
}

func configCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}

// ProviderFlagCompletion handles --provider flag completion
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Try to load config for configured models; nil is OK if it fails
	c, _ := config.Load(configFile)
	completions := providerCompletions(toComplete, c)

	// If completing provider name (no colon), don't add space so user can type ":"
	if !strings.Contains(toComplete, ":") {
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// providerCompletions offers provider names, and "provider:model" for the
// configured model of each provider.
func providerCompletions(toComplete string, c *config.Config) []string {
	var out []string
	for _, name := range llm.ProviderNames() {
		candidates := []string{name}
		if c != nil {
			if pc, ok := c.Provider(name); ok && pc.Model != "" {
				candidates = append(candidates, name+":"+pc.Model)
			}
		}
		for _, cand := range candidates {
			if strings.HasPrefix(cand, toComplete) {
				out = append(out, cand)
			}
		}
	}
	return out
}

// CaptureArgCompletion completes short capture IDs, annotated with the prompt.
func CaptureArgCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, err := config.Load(configFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	path, err := c.CapturePath()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	store, err := capture.Open(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer store.Close()

	list, err := store.List(context.Background(), 50)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, cp := range list {
		id := capture.ShortID(cp.ID)
		if strings.HasPrefix(id, toComplete) {
			completions = append(completions, id+"\t"+strings.ReplaceAll(cp.Prompt, "\n", " "))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// TraceArgCompletion completes trace session IDs.
func TraceArgCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, err := config.Load(configFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	dir, err := c.TraceDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sessions, err := debuglog.ListSessions(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, toComplete) {
			completions = append(completions, s.ID+"\t"+s.Command)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
