// Package replay drives synthetic input from a recorded event.Log with
// the recorded delays between events.
package replay

import (
	"context"
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

// Options configures a Replayer. Injector and State are required.
type Options struct {
	Clock    clock.Clock
	Injector input.Injector
	State    *state.Machine
	Logger   *slog.Logger

	// Keyboard and StopKey enable the stop-key listener. With either unset
	// playback can only be stopped through Playback.Stop or the context.
	Keyboard input.Keyboard
	Resolver input.Resolver
	StopKey  string

	Filter *Filter

	// OnResult, when set, is called after every event with its outcome.
	OnResult func(Result)
}

// Replayer starts playbacks.
type Replayer struct {
	opts Options
}

// Result is the outcome of one event in one pass.
type Result struct {
	Pass     int         `json:"pass"`
	Index    int         `json:"index"`
	Event    event.Event `json:"event"`
	Filtered bool        `json:"filtered,omitempty"`
	Err      error       `json:"-"`
	Time     time.Time   `json:"time"`
}

// Summary aggregates a playback.
type Summary struct {
	Events           int                  `json:"events"`
	Passes           int                  `json:"passes"`
	Dispatched       int                  `json:"dispatched"`
	Failed           int                  `json:"failed"`
	Filtered         int                  `json:"filtered"`
	Stopped          bool                 `json:"stopped"`
	StoppedByKey     bool                 `json:"stopped_by_key"`
	PerAction        map[event.Action]int `json:"per_action"`
	RecordedDuration time.Duration        `json:"recorded_duration"`
	WallDuration     time.Duration        `json:"wall_duration"`
}

// New creates a replayer. Missing Clock, Resolver and Logger get defaults.
func New(opts Options) *Replayer {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Resolver == nil {
		opts.Resolver = input.DefaultResolver()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Replayer{opts: opts}
}

// Start begins playing log in the background. With loop set the log
// repeats until Stop or StopLooping. Start fails with ErrEmptyLog,
// state.ErrAlreadyActive, or an input.ListenerStartupError from the
// stop-key listener.
func (r *Replayer) Start(ctx context.Context, log event.Log, loop bool) (*Playback, error) {
	return r.start(ctx, log, loop, r.opts.OnResult)
}

// Run plays log and blocks until playback ends. cb, if non-nil, receives
// every result. The error is ctx.Err() when the context ended playback.
func (r *Replayer) Run(ctx context.Context, log event.Log, loop bool, cb func(Result)) (*Summary, error) {
	p, err := r.start(ctx, log, loop, cb)
	if err != nil {
		return nil, err
	}
	summary := p.Wait()
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Replayer) start(ctx context.Context, log event.Log, loop bool, cb func(Result)) (*Playback, error) {
	if len(log) == 0 {
		return nil, ErrEmptyLog
	}
	id, err := r.opts.State.BeginReplay(loop)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Playback{
		id:     id,
		opts:   r.opts,
		onRes:  cb,
		logger: r.opts.Logger.With("session", id),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		summary: Summary{
			Events:           len(log),
			PerAction:        make(map[event.Action]int),
			RecordedDuration: log.Span(),
		},
	}
	p.playing.Store(true)
	p.looping.Store(loop)

	if r.opts.Keyboard != nil && r.opts.StopKey != "" {
		keys, err := r.opts.Keyboard.ListenKeys(ctx)
		if err != nil {
			cancel()
			r.opts.State.End(id)
			return nil, err
		}
		p.listener.Add(1)
		go p.listenStopKey(keys)
	}

	go p.run(log.Clone())

	p.logger.Info("replay started", "events", len(log), "loop", loop, "stop_key", r.opts.StopKey)
	return p, nil
}

// Playback is one running or finished replay session.
type Playback struct {
	id     uuid.UUID
	opts   Options
	onRes  func(Result)
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	playing  atomic.Bool
	looping  atomic.Bool
	byKey    atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once

	listener sync.WaitGroup
	done     chan struct{}
	summary  Summary
}

// Session returns the id the state machine assigned to this replay.
func (p *Playback) Session() uuid.UUID { return p.id }

// Done is closed once playback has ended, the stop-key listener has exited
// and the state is Idle.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Stop ends playback as soon as possible. An event whose delay is still
// running when Stop is called is not dispatched. Stop does not wait.
func (p *Playback) Stop() {
	p.looping.Store(false)
	p.playing.Store(false)
	p.stopOnce.Do(func() { close(p.stop) })
}

// StopLooping lets the current pass finish and then ends playback.
func (p *Playback) StopLooping() {
	if p.looping.CompareAndSwap(true, false) {
		if err := p.opts.State.SetLooping(p.id, false); err != nil {
			p.logger.Debug("loop flag not updated", "error", err)
		}
	}
}

// Looping reports whether playback will start another pass.
func (p *Playback) Looping() bool { return p.looping.Load() }

// Wait blocks until playback ends and returns its summary.
func (p *Playback) Wait() *Summary {
	<-p.done
	s := p.summary
	return &s
}

func (p *Playback) run(log event.Log) {
	start := p.opts.Clock.Now()
	defer func() {
		p.summary.WallDuration = p.opts.Clock.Since(start)
		p.finish()
	}()

	for pass := 1; ; pass++ {
		p.summary.Passes = pass
		for i, e := range log {
			if !p.playing.Load() || !p.wait(e.Duration) {
				p.summary.Stopped = true
				return
			}
			p.apply(pass, i, e)
		}
		if !p.looping.Load() {
			return
		}
	}
}

// wait sleeps for the recorded delay and reports whether playback should
// continue.
func (p *Playback) wait(d time.Duration) bool {
	select {
	case <-p.opts.Clock.After(d):
	case <-p.stop:
		return false
	case <-p.ctx.Done():
		return false
	}
	return p.playing.Load() && p.ctx.Err() == nil
}

func (p *Playback) apply(pass, i int, e event.Event) {
	res := Result{Pass: pass, Index: i, Event: e, Time: p.opts.Clock.Now()}

	switch {
	case !p.opts.Filter.Match(e):
		res.Filtered = true
		p.summary.Filtered++
	default:
		if err := Apply(p.opts.Injector, e); err != nil {
			res.Err = &DispatchError{Pass: pass, Index: i, Event: e, Err: err}
			p.summary.Failed++
			p.logger.Warn("skipping event", "error", res.Err)
		} else {
			p.summary.Dispatched++
			p.summary.PerAction[e.Action]++
		}
	}

	if p.onRes != nil {
		p.onRes(res)
	}
}

// listenStopKey keeps reading until the backend closes keys, which happens
// once finish cancels the context.
func (p *Playback) listenStopKey(keys <-chan input.KeyEvent) {
	defer p.listener.Done()
	defer func() {
		for range keys {
		}
	}()
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev, ok := <-keys:
			if !ok {
				return
			}
			if !ev.Down {
				continue
			}
			k, err := input.ResolveKey(p.opts.Resolver, ev.Key)
			if err != nil {
				continue
			}
			if k.Matches(p.opts.StopKey) {
				p.byKey.Store(true)
				p.logger.Info("stop key pressed", "key", k.String())
				p.Stop()
				return
			}
		}
	}
}

func (p *Playback) finish() {
	p.playing.Store(false)
	p.cancel()
	p.listener.Wait()
	p.summary.StoppedByKey = p.byKey.Load()
	if err := p.opts.State.End(p.id); err != nil {
		p.logger.Warn("ending replay session", "error", err)
	}
	p.logger.Info("replay finished",
		"passes", p.summary.Passes,
		"dispatched", p.summary.Dispatched,
		"failed", p.summary.Failed,
		"stopped", p.summary.Stopped,
	)
	close(p.done)
}
