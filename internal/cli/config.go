package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
		Long: `Manages the config file. Without --config the file is ` + DefaultConfigFile + `
in the current directory.`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationCreatesConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				path = a.path()
			}
			if err := config.WriteExample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&output, "output", "", "output file path (.json, .yaml or .yml)")

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	showCmd.Flags().StringVar(&format, "format", config.FormatJSON, "output format (json, yaml)")

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save the config file",
		Long: `Changes one setting and writes the config file.

Keys:
  ` + strings.Join(config.Keys(), "\n  ") + `

Option keys may drop the "options." prefix. Booleans accept 0 and 1.`,
		Example: `  macrokit config set stop_playing_key esc
  macrokit config set minimize_when_record 1
  macrokit config set storage.backend redis`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationCreatesConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.fileCfg
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			path := a.path()
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			a.fileCfg = cfg
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, setCmd)
	return cmd
}

// path is the config file commands write to.
func (a *app) path() string {
	if a.configPath != "" {
		return a.configPath
	}
	return DefaultConfigFile
}
