package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/config"
	"github.com/SmitUplenchwar2687/macrokit/internal/generate"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample recordings and config",
		Long: `Generates sample data for testing and experimentation.

Use "generate recording" to store a synthetic recording.
Use "generate config" to create an example config file.`,
	}

	cmd.AddCommand(newGenerateRecordingCmd(a), newGenerateConfigCmd())
	return cmd
}

func newGenerateRecordingCmd(a *app) *cobra.Command {
	var (
		name  string
		opts  = generate.DefaultOptions()
		store storageOptions
	)

	cmd := &cobra.Command{
		Use:   "recording",
		Short: "Store a synthetic recording",
		Long: `Creates a recording without capturing real input.

Patterns:
  typing    Presses and releases the characters of --text
  pointer   Moves around a circle, clicking and scrolling
  mixed     Interleaves typing and pointer activity`,
		Example: `  macrokit generate recording --name demo
  macrokit generate recording --name typing --pattern typing --text "hi there"
  macrokit generate recording --count 200 --duration 1m --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := generate.Log(opts)
			if err != nil {
				return err
			}

			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			clean, err := storage.CleanName(name)
			if err != nil {
				return err
			}
			if err := st.Save(cmd.Context(), clean, log); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d events to %s\n", len(log), clean)
			fmt.Fprintf(out, "  Pattern:  %s\n", opts.Pattern)
			fmt.Fprintf(out, "  Span:     %s\n", log.Span().Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "generated.json", "recording name")
	cmd.Flags().IntVar(&opts.Count, "count", opts.Count, "number of events to generate")
	cmd.Flags().DurationVar(&opts.Duration, "duration", opts.Duration, "time span of the recording")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", opts.Pattern, "pattern ("+strings.Join(generate.Patterns(), ", ")+")")
	cmd.Flags().StringVar(&opts.Text, "text", opts.Text, "text typed by the typing pattern")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	store.addFlags(cmd)
	return cmd
}

func newGenerateConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Generate an example config file",
		Example: `  macrokit generate config --output macrokit.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", DefaultConfigFile, "output file path (.json, .yaml or .yml)")
	return cmd
}
