package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/config"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/logging"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "macrokit.json"

// annotationCreatesConfig marks commands that may run before the config
// file exists.
const annotationCreatesConfig = "macrokit/creates-config"

// openBackend opens the platform input backend. Tests replace it.
var openBackend = input.Open

// app carries what the persistent flags resolve to.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	// fileCfg is the config as read, before flags override it.
	fileCfg config.Config
	cfg     config.Config
	logger  *slog.Logger
}

// NewRootCmd creates the root macrokit command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "macrokit",
		Short: "Record and replay keyboard and pointer input",
		Long: `macrokit records global keyboard and pointer input with its timing and
replays it later, once or in a loop.

Recordings are JSON arrays of events kept in a directory, in memory, or in
Redis. A local control server with a dashboard drives the same sessions
from a browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (JSON or YAML); defaults to "+DefaultConfigFile+" when present")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(
		newRecordCmd(a),
		newReplayCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newInspectCmd(a),
		newGenerateCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)

	return root
}

// load reads the config file and builds the logger. Flags win over the file.
func (a *app) load(cmd *cobra.Command) error {
	a.cfg = config.Default()

	path := a.configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", DefaultConfigFile, err)
		}
	}
	if path != "" {
		cfg, err := config.LoadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && cmd.Annotations[annotationCreatesConfig] != "":
		case err != nil:
			return err
		default:
			a.cfg = cfg
		}
		a.configPath = path
	}
	a.fileCfg = a.cfg

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		a.cfg.Log.Format = a.logFormat
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}
