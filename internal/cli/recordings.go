package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

func newListCmd(a *app) *cobra.Command {
	var (
		outputJSON bool
		store      storageOptions
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved recordings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				if infos == nil {
					infos = []storage.Info{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No recordings.")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(out, "  %-32s %8d B  %s\n",
					info.Name, info.Size, dimColor.Sprint(info.Modified.Local().Format(time.DateTime)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	store.addFlags(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var store storageOptions

	cmd := &cobra.Command{
		Use:     "delete <name>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved recordings",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, name := range args {
				if err := st.Delete(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okColor.Sprint("Deleted"), name)
			}
			return nil
		},
	}

	store.addFlags(cmd)
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		showEvents bool
		outputJSON bool
		store      storageOptions
	)

	cmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Show what a recording contains",
		Example: `  macrokit inspect
  macrokit inspect login --events
  macrokit inspect login --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := storage.DefaultName
			if len(args) == 1 {
				name = args[0]
			}

			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			log, err := st.Load(cmd.Context(), name)
			if err != nil {
				return err
			}
			stats := log.Stats()

			out := cmd.OutOrStdout()
			if outputJSON {
				payload := map[string]interface{}{"name": name, "stats": stats}
				if showEvents {
					payload["events"] = log
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}

			fmt.Fprintln(out, headColor.Sprint(name))
			fmt.Fprintf(out, "  Events:       %d\n", stats.Events)
			fmt.Fprintf(out, "  Span:         %s\n", stats.Span.Round(time.Millisecond))
			fmt.Fprintf(out, "  Longest gap:  %s\n", stats.Longest.Round(time.Millisecond))
			fmt.Fprintln(out, "  Per action:")
			printPerAction(out, stats.PerAction)

			if showEvents {
				fmt.Fprintln(out)
				var offset time.Duration
				for i, e := range log {
					offset += e.Duration
					printEvent(out, i, offset, e)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEvents, "events", false, "print every event")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	store.addFlags(cmd)
	return cmd
}
