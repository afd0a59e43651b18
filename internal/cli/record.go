package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/recorder"
	"github.com/SmitUplenchwar2687/macrokit/internal/session"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		name     string
		stopKey  string
		duration time.Duration
		store    storageOptions
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record keyboard and pointer input until the stop key",
		Long: `Captures global keyboard and pointer input until the stop-recording key
is pressed, then saves it. Ctrl-C and --duration end the capture the same way.

Pointer moves closer than 50ms to the previous move are dropped. A capture
with one event or none is not saved.`,
		Example: `  macrokit record
  macrokit record --name login --stop-key esc
  macrokit record --duration 30s --storage redis --redis-host localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			settings := a.cfg.Options
			if stopKey != "" {
				settings.StopRecordingKey = stopKey
			}

			out := cmd.OutOrStdout()
			ctl := session.New(session.Options{
				Store:    st,
				Keyboard: backend,
				Pointer:  backend,
				Injector: backend,
				Settings: settings,
				Logger:   a.logger,
				Hooks: session.Hooks{
					Notice: func(text string) { fmt.Fprintln(out, warnColor.Sprint(text)) },
				},
			})
			defer ctl.Close()

			done := make(chan session.Outcome, 1)
			if err := ctl.StartCaptureAs(name, func(o session.Outcome) { done <- o }); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			var timeout <-chan time.Time
			if duration > 0 {
				timeout = time.After(duration)
			}

			var outcome session.Outcome
			select {
			case outcome = <-done:
			case <-ctx.Done():
				ctl.RequestStopCapture()
				outcome = <-done
			case <-timeout:
				ctl.RequestStopCapture()
				outcome = <-done
			}
			return reportCapture(out, outcome)
		},
	}

	cmd.Flags().StringVar(&name, "name", storage.DefaultName, "recording name")
	cmd.Flags().StringVar(&stopKey, "stop-key", "", "key that ends the capture (default from config)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop automatically after this long (0 = wait for the stop key)")
	store.addFlags(cmd)

	return cmd
}

func reportCapture(w io.Writer, o session.Outcome) error {
	switch {
	case errors.Is(o.Err, recorder.ErrEmptyCapture):
		fmt.Fprintln(w, warnColor.Sprint("Nothing was recorded; no file saved."))
		return nil
	case o.Err != nil:
		return o.Err
	case !o.Saved:
		fmt.Fprintf(w, "Discarded %d events.\n", o.Events)
		return nil
	}
	fmt.Fprintf(w, "%s %d events to %s\n", okColor.Sprint("Saved"), o.Events, o.Name)
	return nil
}
