package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/fencestream/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show fencestream configuration",
	Long: `View your fencestream configuration. API keys are masked.

Examples:
  fencestream config                  # show current config
  fencestream config path             # print the config file path`,
	RunE: configShow, // Default to show
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path, err := configFilePath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if configFile != "" || config.Exists() {
		fmt.Fprintf(out, "# %s\n", path)
	} else {
		fmt.Fprintf(out, "# %s (not found, showing defaults)\n", path)
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := configFilePath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configFilePath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.GetConfigPath()
}
