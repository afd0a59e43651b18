package input

import (
	"fmt"
	"io"
	"sync"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// Call is one injector invocation seen by Trace.
type Call struct {
	Op     string // "key_down", "key_up", "move", "button_down", "button_up", "scroll"
	Key    event.Key
	Button event.Button
	X, Y   int
	DX, DY int
}

func (c Call) String() string {
	switch c.Op {
	case "key_down", "key_up":
		return fmt.Sprintf("%s %s", c.Op, c.Key)
	case "move":
		return fmt.Sprintf("move (%d,%d)", c.X, c.Y)
	case "button_down", "button_up":
		return fmt.Sprintf("%s %s (%d,%d)", c.Op, c.Button, c.X, c.Y)
	case "scroll":
		return fmt.Sprintf("scroll (%d,%d) by (%d,%d)", c.X, c.Y, c.DX, c.DY)
	}
	return c.Op
}

// Trace is an Injector that records calls instead of touching the OS. With
// a non-nil Out each call is also printed, which is how dry runs work. Fail
// lets tests make selected calls return an error.
type Trace struct {
	Out  io.Writer
	Fail func(Call) error

	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of everything injected so far.
func (t *Trace) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// Reset forgets recorded calls.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
}

func (t *Trace) do(c Call) error {
	if t.Fail != nil {
		if err := t.Fail(c); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.calls = append(t.calls, c)
	t.mu.Unlock()
	if t.Out != nil {
		fmt.Fprintln(t.Out, c)
	}
	return nil
}

func (t *Trace) KeyDown(k event.Key) error { return t.do(Call{Op: "key_down", Key: k}) }

func (t *Trace) KeyUp(k event.Key) error { return t.do(Call{Op: "key_up", Key: k}) }

func (t *Trace) MoveTo(x, y int) error { return t.do(Call{Op: "move", X: x, Y: y}) }

func (t *Trace) ButtonDown(b event.Button, x, y int) error {
	return t.do(Call{Op: "button_down", Button: b, X: x, Y: y})
}

func (t *Trace) ButtonUp(b event.Button, x, y int) error {
	return t.do(Call{Op: "button_up", Button: b, X: x, Y: y})
}

func (t *Trace) Scroll(x, y, dx, dy int) error {
	return t.do(Call{Op: "scroll", X: x, Y: y, DX: dx, DY: dy})
}
