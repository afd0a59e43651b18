// Package input connects the capture and replay engines to the operating
// system: global keyboard and pointer listeners, key identifier
// resolution, and synthetic input injection.
package input

import (
	"context"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// RawKey is what a platform hook could learn about a key. Any subset of the
// fields may be set; a Resolver turns it into an event.Key.
type RawKey struct {
	Char    string // text the key produces with the current modifiers, if any
	Name    string // symbolic name, e.g. "shift_r"
	Code    int    // platform virtual-key code
	HasCode bool
}

// KeyEvent is a raw key transition.
type KeyEvent struct {
	Down bool
	Key  RawKey
}

// PointerKind discriminates PointerEvent.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerButton
	PointerScroll
)

// PointerEvent is a raw pointer sample in absolute screen coordinates.
type PointerEvent struct {
	Kind    PointerKind
	X, Y    int
	Button  event.Button // PointerButton only
	Pressed bool         // PointerButton only
	DX, DY  int          // PointerScroll only
}

// Keyboard is a global keyboard listener. ListenKeys returns once the hook
// is installed; the channel is closed after ctx is done. A hook that cannot
// be installed yields a *ListenerStartupError.
type Keyboard interface {
	ListenKeys(ctx context.Context) (<-chan KeyEvent, error)
}

// Pointer is a global pointer listener with the same contract as Keyboard.
type Pointer interface {
	ListenPointer(ctx context.Context) (<-chan PointerEvent, error)
}

// Injector synthesises input.
type Injector interface {
	KeyDown(k event.Key) error
	KeyUp(k event.Key) error
	MoveTo(x, y int) error
	ButtonDown(b event.Button, x, y int) error
	ButtonUp(b event.Button, x, y int) error
	Scroll(x, y, dx, dy int) error
}

// Backend bundles the listeners and the injector of one platform.
type Backend interface {
	Keyboard
	Pointer
	Injector
	Close() error
}
