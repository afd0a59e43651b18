// Package event defines the recorded input action schema and its JSON form.
package event

import (
	"fmt"
	"time"
)

// Action discriminates the event variants. The values are the persisted
// "action" strings.
type Action string

const (
	ActionKeyPressed      Action = "pressed_key"
	ActionKeyReleased     Action = "released_key"
	ActionMoved           Action = "moved"
	ActionPointerPressed  Action = "pressed_mouse"
	ActionPointerReleased Action = "released_mouse"
	ActionScroll          Action = "scroll"
)

// Actions lists every variant in a stable order.
var Actions = []Action{
	ActionKeyPressed,
	ActionKeyReleased,
	ActionMoved,
	ActionPointerPressed,
	ActionPointerReleased,
	ActionScroll,
}

// Valid reports whether a is a known variant.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// IsKey reports whether a is a keyboard variant.
func (a Action) IsKey() bool {
	return a == ActionKeyPressed || a == ActionKeyReleased
}

// Event is one recorded input action.
//
// Which payload fields apply depends on Action:
//
//	pressed_key, released_key        Key
//	moved                            X, Y
//	pressed_mouse, released_mouse    Button, X, Y
//	scroll                           X, Y, DX, DY
type Event struct {
	Action    Action
	Timestamp time.Time     // absolute capture time; zero after a load without "time"
	Duration  time.Duration // delay since the previous event, used as the replay wait

	Key    Key
	Button Button
	X, Y   int
	DX, DY int
}

// KeyPressed returns a key-down event.
func KeyPressed(k Key) Event { return Event{Action: ActionKeyPressed, Key: k} }

// KeyReleased returns a key-up event.
func KeyReleased(k Key) Event { return Event{Action: ActionKeyReleased, Key: k} }

// Moved returns an absolute pointer move.
func Moved(x, y int) Event { return Event{Action: ActionMoved, X: x, Y: y} }

// PointerPressed returns a button-down event at (x, y).
func PointerPressed(b Button, x, y int) Event {
	return Event{Action: ActionPointerPressed, Button: b, X: x, Y: y}
}

// PointerReleased returns a button-up event at (x, y).
func PointerReleased(b Button, x, y int) Event {
	return Event{Action: ActionPointerReleased, Button: b, X: x, Y: y}
}

// Scrolled returns a scroll tick of (dx, dy) at (x, y).
func Scrolled(x, y, dx, dy int) Event {
	return Event{Action: ActionScroll, X: x, Y: y, DX: dx, DY: dy}
}

// At returns a copy of e stamped with t.
func (e Event) At(t time.Time) Event {
	e.Timestamp = t
	return e
}

// After returns a copy of e with the given replay delay.
func (e Event) After(d time.Duration) Event {
	e.Duration = d
	return e
}

// Validate checks that the fields required by the variant are set.
func (e Event) Validate() error {
	if e.Duration < 0 {
		return fmt.Errorf("%s: negative duration %s", e.Action, e.Duration)
	}
	switch e.Action {
	case ActionKeyPressed, ActionKeyReleased:
		if err := e.Key.Validate(); err != nil {
			return fmt.Errorf("%s: %w", e.Action, err)
		}
	case ActionPointerPressed, ActionPointerReleased:
		if e.Button == "" {
			return fmt.Errorf("%s: button is required", e.Action)
		}
	case ActionMoved, ActionScroll:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}

// String renders e for logs and dry-run output.
func (e Event) String() string {
	switch e.Action {
	case ActionKeyPressed, ActionKeyReleased:
		return fmt.Sprintf("%s %s", e.Action, e.Key)
	case ActionMoved:
		return fmt.Sprintf("%s (%d,%d)", e.Action, e.X, e.Y)
	case ActionPointerPressed, ActionPointerReleased:
		return fmt.Sprintf("%s %s (%d,%d)", e.Action, e.Button, e.X, e.Y)
	case ActionScroll:
		return fmt.Sprintf("%s (%d,%d) at (%d,%d)", e.Action, e.DX, e.DY, e.X, e.Y)
	default:
		return string(e.Action)
	}
}
