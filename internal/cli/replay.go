package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/replay"
	"github.com/SmitUplenchwar2687/macrokit/internal/session"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

type jsonResult struct {
	replay.Result
	Error string `json:"error,omitempty"`
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		loop       bool
		dryRun     bool
		only       string
		skip       string
		stopKey    string
		outputJSON bool
		store      storageOptions
	)

	cmd := &cobra.Command{
		Use:   "replay [name]",
		Short: "Replay a recording with its recorded timing",
		Long: `Replays a saved recording, waiting each event's recorded delay before
dispatching it. With --loop the recording repeats until the stop-playing key
or Ctrl-C.

--dry-run prints the calls that would be injected instead of moving the
pointer or typing. --only and --skip take comma-separated actions
(pressed_key, moved, scroll, ...) or the groups "keys" and "pointer".
Skipped events still take their delay.`,
		Example: `  macrokit replay
  macrokit replay login --loop
  macrokit replay login --dry-run --only keys
  macrokit replay login --skip moved --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := storage.DefaultName
			if len(args) == 1 {
				name = args[0]
			}

			filter, err := parseFilter(only, skip)
			if err != nil {
				return err
			}

			st, err := store.open(cmd, &a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			settings := a.cfg.Options
			if stopKey != "" {
				settings.StopPlayingKey = stopKey
			}

			opts := session.Options{
				Store:    st,
				Settings: settings,
				Logger:   a.logger,
				Filter:   filter,
			}
			if !outputJSON {
				opts.Hooks.Notice = func(text string) { fmt.Fprintln(out, warnColor.Sprint(text)) }
			}

			var (
				mu      sync.Mutex
				results []jsonResult
			)
			opts.OnResult = func(r replay.Result) {
				if outputJSON {
					jr := jsonResult{Result: r}
					if r.Err != nil {
						jr.Error = r.Err.Error()
					}
					mu.Lock()
					results = append(results, jr)
					mu.Unlock()
					return
				}
				if dryRun || r.Err != nil {
					printResult(out, r)
				}
			}

			if dryRun {
				opts.Injector = &input.Trace{}
			} else {
				backend, err := openBackend(a.logger)
				if err != nil {
					return err
				}
				defer backend.Close()
				opts.Keyboard = backend
				opts.Injector = backend
			}

			ctl := session.New(opts)
			defer ctl.Close()

			if !outputJSON {
				mode := "Replaying"
				if dryRun {
					mode = "Dry run of"
				}
				fmt.Fprintf(out, "%s %s...\n\n", mode, name)
			}

			done := make(chan session.Outcome, 1)
			if err := ctl.StartReplay(name, loop, func(o session.Outcome) { done <- o }); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var outcome session.Outcome
			select {
			case outcome = <-done:
			case <-ctx.Done():
				ctl.RequestStopReplay()
				outcome = <-done
			}

			if outputJSON {
				mu.Lock()
				defer mu.Unlock()
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"name":    outcome.Name,
					"results": results,
					"summary": outcome.Summary,
				})
			}
			printSummary(out, outcome.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "repeat until stopped")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print injected calls instead of sending them")
	cmd.Flags().StringVar(&only, "only", "", "dispatch only these actions (comma-separated)")
	cmd.Flags().StringVar(&skip, "skip", "", "do not dispatch these actions (comma-separated)")
	cmd.Flags().StringVar(&stopKey, "stop-key", "", "key that ends playback (default from config)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	store.addFlags(cmd)

	return cmd
}

func parseFilter(only, skip string) (*replay.Filter, error) {
	if strings.TrimSpace(only) == "" && strings.TrimSpace(skip) == "" {
		return nil, nil
	}
	o, err := replay.ParseActions(only)
	if err != nil {
		return nil, fmt.Errorf("--only: %w", err)
	}
	s, err := replay.ParseActions(skip)
	if err != nil {
		return nil, fmt.Errorf("--skip: %w", err)
	}
	return &replay.Filter{Only: o, Skip: s}, nil
}

func printSummary(w io.Writer, s *replay.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headColor.Sprint("--- Replay Summary ---"))
	fmt.Fprintf(w, "  Events:         %d\n", s.Events)
	fmt.Fprintf(w, "  Passes:         %d\n", s.Passes)
	fmt.Fprintf(w, "  Dispatched:     %d\n", s.Dispatched)
	fmt.Fprintf(w, "  Filtered:       %d\n", s.Filtered)
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:         %s\n", errColor.Sprint(s.Failed))
	} else {
		fmt.Fprintf(w, "  Failed:         %d\n", s.Failed)
	}
	fmt.Fprintf(w, "  Recorded time:  %s\n", s.RecordedDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Wall time:      %s\n", s.WallDuration.Round(time.Millisecond))
	switch {
	case s.StoppedByKey:
		fmt.Fprintln(w, "  Stopped by key")
	case s.Stopped:
		fmt.Fprintln(w, "  Stopped")
	}

	if len(s.PerAction) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Per action:")
		printPerAction(w, s.PerAction)
	}
}
