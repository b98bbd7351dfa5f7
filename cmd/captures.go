package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/render"
)

var (
	capturesLimit     int
	capturesFragments bool
	capturesFormat    string
)

var capturesCmd = &cobra.Command{
	Use:     "captures",
	Aliases: []string{"capture"},
	Short:   "Manage recorded streams",
	Long: `List, show, or delete streams recorded with 'ask --record'.

Examples:
  fencestream captures list
  fencestream captures show 3f2a
  fencestream captures show --fragments 3f2a
  fencestream captures delete 3f2a`,
	RunE: runCapturesList, // Default to list
}

var capturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent captures",
	Args:  cobra.NoArgs,
	RunE:  runCapturesList,
}

var capturesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a capture",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapturesShow,
}

var capturesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a capture",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapturesDelete,
}

func init() {
	capturesListCmd.Flags().IntVarP(&capturesLimit, "limit", "n", 20, "Number of captures to list")
	capturesShowCmd.Flags().BoolVar(&capturesFragments, "fragments", false, "Print each fragment on its own line")
	AddFormatFlag(capturesShowCmd, &capturesFormat, "text")
	rootCmd.AddCommand(capturesCmd)
	capturesCmd.AddCommand(capturesListCmd)
	capturesCmd.AddCommand(capturesShowCmd)
	capturesCmd.AddCommand(capturesDeleteCmd)
}

func runCapturesList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), capturesLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No captures yet. Record one with `fencestream ask --record <prompt>`.")
		return nil
	}

	styles := render.NewStyles(out, nil, render.DetectProfile(out, cfg.Render.Color))
	for _, c := range list {
		source := c.Provider
		if c.Model != "" {
			source += ":" + c.Model
		}
		prompt := strings.ReplaceAll(c.Prompt, "\n", " ")
		fmt.Fprintf(out, "%s  %-14s  %-32s  %5d frags  %8s  %s\n",
			styles.Bold.Render(capture.ShortID(c.ID)),
			styles.Muted.Render(humanize.Time(c.CreatedAt)),
			truncate.StringWithTail(source, 32, "…"),
			c.Fragments,
			humanize.Bytes(uint64(c.Bytes)),
			truncate.StringWithTail(prompt, 48, "…"),
		)
	}
	return nil
}

func runCapturesShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fragments, err := store.Fragments(cmd.Context(), c.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch capturesFormat {
	case "json", "yaml":
		v := struct {
			capture.Capture `yaml:",inline"`
			Fragments       []string `json:"fragment_texts" yaml:"fragment_texts"`
		}{*c, fragments}
		if capturesFormat == "json" {
			return writeJSON(out, v)
		}
		return writeYAML(out, v)
	}

	styles := render.NewStyles(out, nil, render.DetectProfile(out, cfg.Render.Color))
	fmt.Fprintf(out, "%s %s\n", styles.Muted.Render("ID:      "), c.ID)
	fmt.Fprintf(out, "%s %s %s\n", styles.Muted.Render("Provider:"), c.Provider, c.Model)
	fmt.Fprintf(out, "%s %s (%s)\n", styles.Muted.Render("Created: "), c.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(c.CreatedAt))
	fmt.Fprintf(out, "%s %d fragments, %s\n", styles.Muted.Render("Size:    "), c.Fragments, humanize.Bytes(uint64(c.Bytes)))
	if c.Prompt != "" {
		fmt.Fprintf(out, "%s %s\n", styles.Muted.Render("Prompt:  "), c.Prompt)
	}
	fmt.Fprintln(out)

	if capturesFragments {
		for i, f := range fragments {
			fmt.Fprintf(out, "%s %s\n", styles.Muted.Render(fmt.Sprintf("%4d", i+1)), strconv.Quote(f))
		}
		return nil
	}
	fmt.Fprintln(out, strings.Join(fragments, ""))
	return nil
}

func runCapturesDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := store.Delete(cmd.Context(), c.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted capture %s\n", capture.ShortID(c.ID))
	return nil
}
