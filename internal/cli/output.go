package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/replay"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
	dimColor  = color.New(color.Faint)
)

var actionColors = map[event.Action]*color.Color{
	event.ActionKeyPressed:      color.New(color.FgGreen),
	event.ActionKeyReleased:     color.New(color.FgHiGreen),
	event.ActionMoved:           color.New(color.FgBlue),
	event.ActionPointerPressed:  color.New(color.FgMagenta),
	event.ActionPointerReleased: color.New(color.FgHiMagenta),
	event.ActionScroll:          color.New(color.FgYellow),
}

func actionColor(a event.Action) *color.Color {
	if c, ok := actionColors[a]; ok {
		return c
	}
	return color.New(color.Reset)
}

// printEvent writes one event line: index, offset from the start, delay
// and the event itself.
func printEvent(w io.Writer, i int, offset time.Duration, e event.Event) {
	fmt.Fprintf(w, "  %s %s %s %s\n",
		dimColor.Sprintf("%4d", i),
		dimColor.Sprintf("%10s", offset.Round(time.Millisecond)),
		fmt.Sprintf("+%-8s", e.Duration.Round(time.Millisecond)),
		actionColor(e.Action).Sprint(e.String()),
	)
}

func printResult(w io.Writer, r replay.Result) {
	status := okColor.Sprint("SENT")
	switch {
	case r.Filtered:
		status = warnColor.Sprint("SKIP")
	case r.Err != nil:
		status = errColor.Sprint("FAIL")
	}
	fmt.Fprintf(w, "  [%s] pass %d #%d %s\n", status, r.Pass, r.Index, actionColor(r.Event.Action).Sprint(r.Event.String()))
	if r.Err != nil {
		fmt.Fprintf(w, "         %s\n", errColor.Sprint(r.Err))
	}
}

func printPerAction(w io.Writer, counts map[event.Action]int) {
	actions := make([]string, 0, len(counts))
	for a := range counts {
		actions = append(actions, string(a))
	}
	sort.Strings(actions)
	for _, a := range actions {
		act := event.Action(a)
		fmt.Fprintf(w, "    %-16s %d\n", actionColor(act).Sprint(a), counts[act])
	}
}
