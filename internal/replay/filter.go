package replay

import (
	"fmt"
	"strings"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// Filter selects which events are dispatched. Events that do not match
// still take their recorded delay, so the timing of the rest is unchanged.
type Filter struct {
	Only []event.Action // dispatch only these actions (empty = all)
	Skip []event.Action // never dispatch these actions
}

// Match returns true if the event should be dispatched.
func (f *Filter) Match(e event.Event) bool {
	if f == nil {
		return true
	}
	if len(f.Only) > 0 && !contains(f.Only, e.Action) {
		return false
	}
	return !contains(f.Skip, e.Action)
}

// ParseActions turns a comma-separated list such as "moved,scroll" into
// actions. The shorthands "keys" and "pointer" expand to their groups.
func ParseActions(s string) ([]event.Action, error) {
	var out []event.Action
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "keys":
			out = append(out, event.ActionKeyPressed, event.ActionKeyReleased)
		case "pointer":
			out = append(out, event.ActionMoved, event.ActionPointerPressed, event.ActionPointerReleased, event.ActionScroll)
		default:
			a := event.Action(part)
			if !a.Valid() {
				return nil, fmt.Errorf("unknown action %q", part)
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func contains(as []event.Action, a event.Action) bool {
	for _, v := range as {
		if v == a {
			return true
		}
	}
	return false
}
