package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/clock"
	"github.com/SmitUplenchwar2687/macrokit/internal/config"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/server"
	"github.com/SmitUplenchwar2687/macrokit/internal/session"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		allowRemote bool
		dryRun      bool
		store       storageOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local control server and dashboard",
		Long: `Starts an HTTP server that drives captures and replays.

Endpoints:
  GET    /                          Server info
  GET    /health                    Health check
  GET    /api/state                 Current session state
  POST   /api/capture/start         Start capturing ({"name": "..."})
  POST   /api/capture/stop          Stop capturing and save
  POST   /api/replay/start          Start a replay ({"name": "...", "loop": true})
  POST   /api/replay/stop           Stop the replay
  POST   /api/replay/stop-loop      Finish the current pass, then stop
  GET    /api/recordings            List recordings
  GET    /api/recordings/{name}     Fetch a recording
  DELETE /api/recordings/{name}     Delete a recording
  GET    /dashboard/                Live dashboard
  WS     /ws                        Live state, events and results

Only loopback clients are served unless --allow-remote is set.`,
		Example: `  macrokit serve
  macrokit serve --addr 127.0.0.1:9090
  macrokit serve --storage redis --redis-host localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}

			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			backend, err := openBackend(a.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			var injector input.Injector = backend
			if dryRun {
				injector = &input.Trace{}
			}

			hub := server.NewHub(a.logger)
			ui := server.NewUI(hub)
			machine := state.NewMachine()
			machine.OnChange(ui.State)

			clk := clock.NewRealClock()
			ctl := session.New(session.Options{
				Store:    st,
				State:    machine,
				Clock:    clk,
				Keyboard: backend,
				Pointer:  backend,
				Injector: injector,
				Settings: a.cfg.Options,
				Hooks:    ui.Hooks(),
				Logger:   a.logger,
				OnEvent:  ui.Event,
				OnResult: ui.Result,
			})
			defer ctl.Close()

			srv := server.New(addr, ctl, clk, server.Options{
				Hub:         hub,
				UI:          ui,
				Logger:      a.logger,
				AllowRemote: allowRemote,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if fs, ok := st.(*storage.FileStore); ok {
				if err := fs.Watch(ctx, ui.Refresh); err != nil {
					a.logger.Warn("recordings will not refresh on external changes", "error", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dashboard: %s\n", headColor.Sprintf("http://%s/dashboard/", displayAddr(addr)))
			fmt.Fprintf(out, "API:       http://%s/api/state\n", displayAddr(addr))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.Default().Server.Addr, "address to listen on")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "serve clients that are not on loopback")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "trace replays instead of injecting input")
	store.addFlags(cmd)
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080" for printing.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
