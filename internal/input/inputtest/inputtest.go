// Package inputtest provides scripted keyboard and pointer sources for
// tests of the capture and replay engines.
package inputtest

import (
	"context"
	"sync"

	"github.com/SmitUplenchwar2687/macrokit/internal/input"
)

// Keyboard is an input.Keyboard fed by the test. Each ListenKeys call opens
// a fresh subscription; Press and Release deliver to every open one.
type Keyboard struct {
	// StartErr, when set, is returned from ListenKeys wrapped in a
	// ListenerStartupError.
	StartErr error
	// HoldClose, when set, keeps a cancelled subscription open until it is
	// closed, like a hook thread that is slow to unhook.
	HoldClose chan struct{}

	hub hub[input.KeyEvent]
}

func (k *Keyboard) ListenKeys(ctx context.Context) (<-chan input.KeyEvent, error) {
	if k.StartErr != nil {
		return nil, &input.ListenerStartupError{Listener: "keyboard", Err: k.StartErr}
	}
	return k.hub.subscribe(ctx, k.HoldClose), nil
}

// Press delivers a key-down for a character or a name (two or more runes).
func (k *Keyboard) Press(key string) { k.hub.publish(input.KeyEvent{Down: true, Key: Raw(key)}) }

// Release delivers a key-up.
func (k *Keyboard) Release(key string) { k.hub.publish(input.KeyEvent{Key: Raw(key)}) }

// Send delivers an arbitrary event.
func (k *Keyboard) Send(ev input.KeyEvent) { k.hub.publish(ev) }

// Listeners reports how many subscriptions are open.
func (k *Keyboard) Listeners() int { return k.hub.count() }

// Raw builds the RawKey a hook would report for key.
func Raw(key string) input.RawKey {
	if len([]rune(key)) == 1 {
		return input.RawKey{Char: key}
	}
	return input.RawKey{Name: key}
}

// Pointer is an input.Pointer fed by the test.
type Pointer struct {
	StartErr error
	// HoldClose works as on Keyboard.
	HoldClose chan struct{}

	hub hub[input.PointerEvent]
}

func (p *Pointer) ListenPointer(ctx context.Context) (<-chan input.PointerEvent, error) {
	if p.StartErr != nil {
		return nil, &input.ListenerStartupError{Listener: "pointer", Err: p.StartErr}
	}
	return p.hub.subscribe(ctx, p.HoldClose), nil
}

// Send delivers a pointer event.
func (p *Pointer) Send(ev input.PointerEvent) { p.hub.publish(ev) }

// Listeners reports how many subscriptions are open.
func (p *Pointer) Listeners() int { return p.hub.count() }

type hub[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func (h *hub[T]) subscribe(ctx context.Context, hold <-chan struct{}) <-chan T {
	ch := make(chan T, 64)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan T]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		if hold != nil {
			<-hold
		}
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// publish never blocks; a subscription whose buffer is full drops v, like a
// real hook does.
func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (h *hub[T]) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
