// Package recorder captures global keyboard and pointer input into an
// event.Log.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/macrokit/internal/clock"
	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
)

// ErrEmptyCapture is returned by Capture.Result when the log holds at most
// one event. Such a capture is usually just the click that started it and
// is not worth saving.
var ErrEmptyCapture = errors.New("capture recorded no events")

// MoveInterval is the minimum spacing between two consecutive move events.
const MoveInterval = 50 * time.Millisecond

// Options configures a Recorder. Keyboard, Pointer and State are required.
type Options struct {
	Clock    clock.Clock
	Keyboard input.Keyboard
	Pointer  input.Pointer
	Resolver input.Resolver
	State    *state.Machine
	Logger   *slog.Logger

	// StopKey ends the capture when pressed. The key itself is not recorded.
	StopKey string

	// OnEvent, when set, sees every appended event. It runs on a listener
	// goroutine and must not block.
	OnEvent func(event.Event)
}

// Recorder starts captures. One Recorder can run many captures in
// sequence; the state machine keeps them from overlapping with each other
// or with a replay.
type Recorder struct {
	opts Options
}

// New returns a Recorder. Missing Clock, Resolver and Logger get defaults.
func New(opts Options) *Recorder {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Resolver == nil {
		opts.Resolver = input.DefaultResolver()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Recorder{opts: opts}
}

// Start begins a capture. It fails with state.ErrAlreadyActive while any
// session runs and with an input.ListenerStartupError when a listener
// cannot be installed; in both cases nothing is left running.
func (r *Recorder) Start(ctx context.Context) (*Capture, error) {
	id, err := r.opts.State.BeginCapture()
	if err != nil {
		return nil, err
	}
	logger := r.opts.Logger.With("session", id)

	ctx, cancel := context.WithCancel(ctx)
	keys, err := r.opts.Keyboard.ListenKeys(ctx)
	if err != nil {
		cancel()
		r.opts.State.End(id)
		return nil, err
	}
	pointer, err := r.opts.Pointer.ListenPointer(ctx)
	if err != nil {
		cancel()
		for range keys {
		}
		r.opts.State.End(id)
		return nil, err
	}

	c := &Capture{
		id:     id,
		opts:   r.opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.recording.Store(true)

	c.wg.Add(2)
	go c.listenKeys(keys)
	go c.listenPointer(pointer)
	go c.finish()

	logger.Info("capture started", "stop_key", r.opts.StopKey)
	return c, nil
}

// Capture is one running or finished capture session.
type Capture struct {
	id     uuid.UUID
	opts   Options
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	recording atomic.Bool
	byKey     atomic.Bool

	mu  sync.Mutex
	log event.Log

	wg   sync.WaitGroup
	done chan struct{}
}

// Session returns the id the state machine assigned to this capture.
func (c *Capture) Session() uuid.UUID { return c.id }

// Done is closed once both listeners have exited and the state is Idle.
func (c *Capture) Done() <-chan struct{} { return c.done }

// Stop ends the capture and returns the frozen log. Safe to call more than
// once and after the stop key ended the capture.
func (c *Capture) Stop() event.Log {
	c.recording.Store(false)
	c.cancel()
	<-c.done
	return c.Log()
}

// Wait blocks until the capture ends by the stop key, by Stop, or by the
// parent context, and returns the log.
func (c *Capture) Wait() event.Log {
	<-c.done
	return c.Log()
}

// StoppedByKey reports whether the stop key ended the capture.
func (c *Capture) StoppedByKey() bool { return c.byKey.Load() }

// Log returns a copy of the events recorded so far.
func (c *Capture) Log() event.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Clone()
}

// Result returns the finished log, or ErrEmptyCapture alongside it when the
// log has at most one event. It must be called after Done.
func (c *Capture) Result() (event.Log, error) {
	l := c.Log()
	if len(l) <= 1 {
		return l, ErrEmptyCapture
	}
	return l, nil
}

func (c *Capture) finish() {
	c.wg.Wait()
	c.recording.Store(false)
	if err := c.opts.State.End(c.id); err != nil {
		c.logger.Warn("capture ended outside its session", "error", err)
	}
	c.logger.Info("capture finished", "events", len(c.Log()), "by_key", c.byKey.Load())
	close(c.done)
}

// The listeners drain their channel until the backend closes it, so Done
// is not reported while a hook is still installed.
func (c *Capture) listenKeys(keys <-chan input.KeyEvent) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			for range keys {
			}
			return
		case ev, ok := <-keys:
			if !ok {
				c.cancel()
				return
			}
			c.handleKey(ev)
		}
	}
}

func (c *Capture) handleKey(ev input.KeyEvent) {
	k, err := input.ResolveKey(c.opts.Resolver, ev.Key)
	if err != nil {
		c.logger.Warn("skipping key", "error", err)
		return
	}
	if ev.Down && k.Matches(c.opts.StopKey) {
		if c.recording.CompareAndSwap(true, false) {
			c.byKey.Store(true)
			c.logger.Debug("stop key pressed", "key", k.String())
		}
		c.cancel()
		return
	}
	if ev.Down {
		c.append(event.KeyPressed(k))
	} else {
		c.append(event.KeyReleased(k))
	}
}

func (c *Capture) listenPointer(events <-chan input.PointerEvent) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			for range events {
			}
			return
		case ev, ok := <-events:
			if !ok {
				c.cancel()
				return
			}
			c.handlePointer(ev)
		}
	}
}

func (c *Capture) handlePointer(ev input.PointerEvent) {
	switch ev.Kind {
	case input.PointerMove:
		c.append(event.Moved(ev.X, ev.Y))
	case input.PointerButton:
		if ev.Pressed {
			c.append(event.PointerPressed(ev.Button, ev.X, ev.Y))
		} else {
			c.append(event.PointerReleased(ev.Button, ev.X, ev.Y))
		}
	case input.PointerScroll:
		c.append(event.Scrolled(ev.X, ev.Y, ev.DX, ev.DY))
	}
}

// append stamps e with the clock and its delay from the previous event.
// A move closer than MoveInterval to a preceding move is dropped.
func (c *Capture) append(e event.Event) {
	c.mu.Lock()
	if !c.recording.Load() {
		c.mu.Unlock()
		return
	}
	now := c.opts.Clock.Now()
	var d time.Duration
	if n := len(c.log); n > 0 {
		prev := c.log[n-1]
		d = max(now.Sub(prev.Timestamp), 0)
		if e.Action == event.ActionMoved && prev.Action == event.ActionMoved && d < MoveInterval {
			c.mu.Unlock()
			return
		}
	}
	e.Timestamp = now
	e.Duration = d
	c.log = append(c.log, e)
	c.mu.Unlock()

	if c.opts.OnEvent != nil {
		c.opts.OnEvent(e)
	}
}
