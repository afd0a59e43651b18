package replay

import (
	"fmt"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
)

type dispatchFunc func(inj input.Injector, e event.Event) error

var dispatch = map[event.Action]dispatchFunc{
	event.ActionKeyPressed: func(inj input.Injector, e event.Event) error {
		return inj.KeyDown(e.Key)
	},
	event.ActionKeyReleased: func(inj input.Injector, e event.Event) error {
		return inj.KeyUp(e.Key)
	},
	event.ActionMoved: func(inj input.Injector, e event.Event) error {
		return inj.MoveTo(e.X, e.Y)
	},
	event.ActionPointerPressed: func(inj input.Injector, e event.Event) error {
		return inj.ButtonDown(e.Button, e.X, e.Y)
	},
	event.ActionPointerReleased: func(inj input.Injector, e event.Event) error {
		return inj.ButtonUp(e.Button, e.X, e.Y)
	},
	event.ActionScroll: func(inj input.Injector, e event.Event) error {
		return inj.Scroll(e.X, e.Y, e.DX, e.DY)
	},
}

// Apply synthesises a single event.
func Apply(inj input.Injector, e event.Event) error {
	fn, ok := dispatch[e.Action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", event.ErrInvalidRecord, e.Action)
	}
	return fn(inj, e)
}
