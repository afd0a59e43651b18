package replay

import (
	"errors"
	"testing"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
)

func TestApply(t *testing.T) {
	tests := []struct {
		ev   event.Event
		want input.Call
	}{
		{event.KeyPressed(event.CodeKey(91)), input.Call{Op: "key_down", Key: event.CodeKey(91)}},
		{event.KeyReleased(event.NamedKey("esc")), input.Call{Op: "key_up", Key: event.NamedKey("esc")}},
		{event.Moved(-5, 7), input.Call{Op: "move", X: -5, Y: 7}},
		{event.PointerPressed(event.ButtonMiddle, 1, 2), input.Call{Op: "button_down", Button: event.ButtonMiddle, X: 1, Y: 2}},
		{event.PointerReleased(event.ButtonX2, 1, 2), input.Call{Op: "button_up", Button: event.ButtonX2, X: 1, Y: 2}},
		{event.Scrolled(8, 9, 2, -3), input.Call{Op: "scroll", X: 8, Y: 9, DX: 2, DY: -3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ev.Action), func(t *testing.T) {
			tr := &input.Trace{}
			if err := Apply(tr, tt.ev); err != nil {
				t.Fatal(err)
			}
			calls := tr.Calls()
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("calls = %v, want [%v]", calls, tt.want)
			}
		})
	}
}

func TestApply_UnknownAction(t *testing.T) {
	err := Apply(&input.Trace{}, event.Event{Action: "teleport"})
	if !errors.Is(err, event.ErrInvalidRecord) {
		t.Errorf("err = %v, want ErrInvalidRecord", err)
	}
}

func TestFilter(t *testing.T) {
	keys, err := ParseActions("keys")
	if err != nil {
		t.Fatal(err)
	}
	f := &Filter{Only: keys}
	if !f.Match(event.KeyPressed(event.CharKey("a"))) || f.Match(event.Moved(1, 1)) {
		t.Error("Only=keys should pass key events and nothing else")
	}

	f = &Filter{Skip: []event.Action{event.ActionMoved}}
	if f.Match(event.Moved(1, 1)) || !f.Match(event.Scrolled(0, 0, 0, 1)) {
		t.Error("Skip=moved should drop moves only")
	}

	var nilFilter *Filter
	if !nilFilter.Match(event.Moved(0, 0)) {
		t.Error("nil filter should match everything")
	}

	if _, err := ParseActions("moved, bogus"); err == nil {
		t.Error("unknown action should fail to parse")
	}
	pointer, _ := ParseActions("pointer,pressed_key")
	if len(pointer) != 5 {
		t.Errorf("pointer,pressed_key expanded to %d actions, want 5", len(pointer))
	}
}
