// Package session drives captures and replays on behalf of a user
// interface. The interface supplies Hooks; the Controller decides when
// they run.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/macrokit/internal/clock"
	"github.com/SmitUplenchwar2687/macrokit/internal/config"
	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/recorder"
	"github.com/SmitUplenchwar2687/macrokit/internal/replay"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

// Hooks are the user interface callbacks. Any of them may be nil.
// They run on the controller's goroutines, never while it holds a lock.
type Hooks struct {
	// Refresh reloads the list of recordings.
	Refresh func()
	// ReenableControls runs at the end of every session.
	ReenableControls func()
	// Minimize and Restore hide and show the window around sessions when
	// the minimize options ask for it.
	Minimize func()
	Restore  func()
	// Notice shows a short message, such as which key stops the session.
	Notice func(text string)
	// PromptSave asks where to save a finished capture, offering the name
	// the capture was started with. Returning false discards it. With no
	// PromptSave the capture is saved under that name.
	PromptSave func(defaultName string) (string, bool)
	// Notify reports errors that happen after a Start call returned.
	Notify func(err error)
}

// Outcome describes how a session ended.
type Outcome struct {
	Session      uuid.UUID       `json:"session"`
	Mode         state.Mode      `json:"mode"`
	Name         string          `json:"name,omitempty"`
	Events       int             `json:"events"`
	Saved        bool            `json:"saved,omitempty"`
	StoppedByKey bool            `json:"stopped_by_key,omitempty"`
	Summary      *replay.Summary `json:"summary,omitempty"`
	Err          error           `json:"-"`
}

// Options configures a Controller. Store and State are required, plus the
// input sources and injector for the sessions that will be started.
type Options struct {
	Store    storage.Store
	State    *state.Machine
	Clock    clock.Clock
	Keyboard input.Keyboard
	Pointer  input.Pointer
	Injector input.Injector
	Resolver input.Resolver
	Settings config.Options
	Hooks    Hooks
	Logger   *slog.Logger

	// OnEvent sees every captured event.
	OnEvent func(event.Event)
	// OnResult sees every replayed event.
	OnResult func(replay.Result)
	// Filter restricts which actions a replay dispatches.
	Filter *replay.Filter
}

// Controller runs at most one capture or replay at a time.
type Controller struct {
	opts   Options
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	settings config.Options
	capture  *recorder.Capture
	playback *replay.Playback

	wg sync.WaitGroup
}

// New creates a controller. Call Close to stop any running session.
func New(opts Options) *Controller {
	if opts.State == nil {
		opts.State = state.NewMachine()
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Settings == (config.Options{}) {
		opts.Settings = config.Default().Options
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		opts:     opts,
		logger:   opts.Logger.With("component", "session"),
		ctx:      ctx,
		cancel:   cancel,
		settings: opts.Settings,
	}
}

// Settings returns the options the next session will use.
func (c *Controller) Settings() config.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetSettings replaces the options. A running session keeps the ones it
// started with.
func (c *Controller) SetSettings(o config.Options) {
	c.mu.Lock()
	c.settings = o
	c.mu.Unlock()
}

// State reports the current session state.
func (c *Controller) State() state.Snapshot {
	return c.opts.State.Snapshot()
}

// Store returns the recording store.
func (c *Controller) Store() storage.Store { return c.opts.Store }

// StartCapture begins recording. onStop, if non-nil, runs once the capture
// has ended and been saved or discarded.
func (c *Controller) StartCapture(onStop func(Outcome)) error {
	return c.StartCaptureAs("", onStop)
}

// StartCaptureAs is StartCapture with the name offered to Hooks.PromptSave
// instead of storage.DefaultName. The name belongs to this capture only; a
// start that fails leaves the running session untouched.
func (c *Controller) StartCaptureAs(name string, onStop func(Outcome)) error {
	if name == "" {
		name = storage.DefaultName
	}
	settings := c.Settings()
	rec := recorder.New(recorder.Options{
		Clock:    c.opts.Clock,
		Keyboard: c.opts.Keyboard,
		Pointer:  c.opts.Pointer,
		Resolver: c.opts.Resolver,
		State:    c.opts.State,
		Logger:   c.opts.Logger,
		StopKey:  settings.StopRecordingKey,
		OnEvent:  c.opts.OnEvent,
	})

	c.mu.Lock()
	capture, err := rec.Start(c.ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.capture = capture
	c.wg.Add(1)
	c.mu.Unlock()

	if settings.MinimizeWhenRecord {
		call(c.opts.Hooks.Minimize)
	}
	c.notice(settings.Message(config.MsgStopRecording, settings.StopRecordingKey))

	go c.finishCapture(capture, name, settings, onStop)
	return nil
}

// RequestStopCapture ends the running capture. It returns once the
// listeners have exited; saving happens afterwards in the background.
func (c *Controller) RequestStopCapture() error {
	c.mu.Lock()
	capture := c.capture
	c.mu.Unlock()
	if capture == nil {
		return fmt.Errorf("no capture running: %w", state.ErrNotActive)
	}
	capture.Stop()
	return nil
}

// StartReplay loads the named recording and plays it. Load failures are
// returned here rather than through Hooks.Notify.
func (c *Controller) StartReplay(name string, loop bool, onStop func(Outcome)) error {
	log, err := c.opts.Store.Load(c.ctx, name)
	if err != nil {
		return err
	}
	clean, _ := storage.CleanName(name)

	settings := c.Settings()
	rep := replay.New(replay.Options{
		Clock:    c.opts.Clock,
		Injector: c.opts.Injector,
		State:    c.opts.State,
		Logger:   c.opts.Logger,
		Keyboard: c.opts.Keyboard,
		Resolver: c.opts.Resolver,
		StopKey:  settings.StopPlayingKey,
		Filter:   c.opts.Filter,
		OnResult: c.opts.OnResult,
	})

	c.mu.Lock()
	pb, err := rep.Start(c.ctx, log, loop)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.playback = pb
	c.wg.Add(1)
	c.mu.Unlock()

	if settings.MinimizeWhenPlay {
		call(c.opts.Hooks.Minimize)
	}
	c.notice(settings.Message(config.MsgStopPlaying, settings.StopPlayingKey))

	go c.finishReplay(pb, clean, settings, onStop)
	return nil
}

// RequestStopReplay ends the running replay without waiting for it.
func (c *Controller) RequestStopReplay() error {
	pb, err := c.currentPlayback()
	if err != nil {
		return err
	}
	pb.Stop()
	return nil
}

// RequestStopLooping lets the current pass finish and then ends the replay.
func (c *Controller) RequestStopLooping() error {
	pb, err := c.currentPlayback()
	if err != nil {
		return err
	}
	pb.StopLooping()
	return nil
}

// Wait blocks until every started session has finished, including its
// hooks and onStop callback.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops any running session and waits for it to finish.
func (c *Controller) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Controller) currentPlayback() (*replay.Playback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback == nil {
		return nil, fmt.Errorf("no replay running: %w", state.ErrNotActive)
	}
	return c.playback, nil
}

func (c *Controller) finishCapture(capture *recorder.Capture, name string, settings config.Options, onStop func(Outcome)) {
	defer c.wg.Done()
	capture.Wait()

	c.mu.Lock()
	if c.capture == capture {
		c.capture = nil
	}
	c.mu.Unlock()

	out := Outcome{
		Session:      capture.Session(),
		Mode:         state.Capturing,
		StoppedByKey: capture.StoppedByKey(),
	}
	log, err := capture.Result()
	out.Events = len(log)
	switch {
	case errors.Is(err, recorder.ErrEmptyCapture):
		out.Err = err
		c.notice(settings.Message(config.MsgEmptyCapture, ""))
	case err != nil:
		out.Err = err
		c.notify(err)
	default:
		out.Name, out.Saved, out.Err = c.save(name, log)
	}

	c.end(settings.MinimizeWhenRecord, out, onStop)
}

func (c *Controller) save(name string, log event.Log) (string, bool, error) {
	if c.opts.Hooks.PromptSave != nil {
		chosen, ok := c.opts.Hooks.PromptSave(name)
		if !ok {
			c.logger.Info("capture discarded", "events", len(log))
			return "", false, nil
		}
		name = chosen
	}

	clean, err := storage.CleanName(name)
	if err == nil {
		err = c.opts.Store.Save(c.ctx, clean, log)
	}
	if err != nil {
		err = fmt.Errorf("saving capture: %w", err)
		c.notify(err)
		return name, false, err
	}
	call(c.opts.Hooks.Refresh)
	return clean, true, nil
}

func (c *Controller) finishReplay(pb *replay.Playback, name string, settings config.Options, onStop func(Outcome)) {
	defer c.wg.Done()
	summary := pb.Wait()

	c.mu.Lock()
	if c.playback == pb {
		c.playback = nil
	}
	c.mu.Unlock()

	out := Outcome{
		Session:      pb.Session(),
		Mode:         state.Replaying,
		Name:         name,
		Events:       summary.Events,
		StoppedByKey: summary.StoppedByKey,
		Summary:      summary,
	}
	c.end(settings.MinimizeWhenPlay, out, onStop)
}

func (c *Controller) end(minimized bool, out Outcome, onStop func(Outcome)) {
	call(c.opts.Hooks.ReenableControls)
	if minimized {
		call(c.opts.Hooks.Restore)
	}
	c.logger.Info("session ended", "mode", out.Mode, "session", out.Session, "events", out.Events, "saved", out.Saved)
	if onStop != nil {
		onStop(out)
	}
}

func (c *Controller) notice(text string) {
	if c.opts.Hooks.Notice != nil && text != "" {
		c.opts.Hooks.Notice(text)
	}
}

func (c *Controller) notify(err error) {
	c.logger.Error("session error", "error", err)
	if c.opts.Hooks.Notify != nil {
		c.opts.Hooks.Notify(err)
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
