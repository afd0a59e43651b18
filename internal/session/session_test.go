package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/config"
	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/input/inputtest"
	"github.com/SmitUplenchwar2687/macrokit/internal/recorder"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// hookLog records hook invocations in order.
type hookLog struct {
	mu    sync.Mutex
	calls []string
}

func (h *hookLog) add(format string, args ...any) {
	h.mu.Lock()
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
	h.mu.Unlock()
}

func (h *hookLog) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *hookLog) hooks(saveAs string, save bool) Hooks {
	return Hooks{
		Refresh:          func() { h.add("refresh") },
		ReenableControls: func() { h.add("reenable") },
		Minimize:         func() { h.add("minimize") },
		Restore:          func() { h.add("restore") },
		Notice:           func(text string) { h.add("notice:%s", text) },
		PromptSave: func(def string) (string, bool) {
			h.add("prompt:%s", def)
			return saveAs, save
		},
		Notify: func(err error) { h.add("notify:%v", err) },
	}
}

type rig struct {
	keyboard *inputtest.Keyboard
	pointer  *inputtest.Pointer
	trace    *input.Trace
	store    *storage.MemoryStore
	machine  *state.Machine
	hooks    *hookLog
	events   chan event.Event
	ctl      *Controller
}

func newRig(t *testing.T, settings config.Options, saveAs string, save bool) *rig {
	t.Helper()
	r := &rig{
		keyboard: &inputtest.Keyboard{},
		pointer:  &inputtest.Pointer{},
		trace:    &input.Trace{},
		store:    storage.NewMemoryStore(),
		machine:  state.NewMachine(),
		hooks:    &hookLog{},
		events:   make(chan event.Event, 64),
	}
	r.ctl = New(Options{
		Store:    r.store,
		State:    r.machine,
		Keyboard: r.keyboard,
		Pointer:  r.pointer,
		Injector: r.trace,
		Settings: settings,
		Hooks:    r.hooks.hooks(saveAs, save),
		OnEvent:  func(e event.Event) { r.events <- e },
	})
	t.Cleanup(func() { r.ctl.Close() })
	return r
}

func (r *rig) waitEvents(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.events:
		case <-time.After(2 * time.Second):
			t.Fatalf("saw %d captured events, want %d", i, n)
		}
	}
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(3 * time.Second):
		t.Fatal("session did not end")
		return Outcome{}
	}
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func settings(minimize bool) config.Options {
	o := config.Default().Options
	o.MinimizeWhenRecord = minimize
	o.MinimizeWhenPlay = minimize
	return o
}

func TestCapture_SavedOnStopKey(t *testing.T) {
	r := newRig(t, settings(true), "demo", true)

	done := make(chan Outcome, 1)
	if err := r.ctl.StartCapture(func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	if got := r.ctl.State().Mode; got != state.Capturing {
		t.Fatalf("state = %s, want capturing", got)
	}

	r.keyboard.Press("a")
	r.keyboard.Release("a")
	r.waitEvents(t, 2)
	r.keyboard.Press("f8")

	out := waitOutcome(t, done)
	if !out.Saved || out.Name != "demo.json" || out.Events != 2 || !out.StoppedByKey || out.Err != nil {
		t.Errorf("outcome = %+v", out)
	}
	if out.Mode != state.Capturing {
		t.Errorf("outcome mode = %s, want capturing", out.Mode)
	}

	log, err := r.store.Load(context.Background(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Action != event.ActionKeyPressed {
		t.Errorf("saved log = %v", log)
	}

	want := []string{
		"minimize",
		"notice:Stop recording by pressing f8 Key",
		"prompt:record.json",
		"refresh",
		"reenable",
		"restore",
	}
	if got := r.hooks.list(); !equalCalls(got, want) {
		t.Errorf("hooks = %q, want %q", got, want)
	}
	if r.ctl.State().Active() {
		t.Error("state should be idle after the capture")
	}
}

func TestCapture_EmptyIsNotSaved(t *testing.T) {
	r := newRig(t, settings(false), "demo", true)

	done := make(chan Outcome, 1)
	if err := r.ctl.StartCapture(func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.RequestStopCapture(); err != nil {
		t.Fatal(err)
	}

	out := waitOutcome(t, done)
	if !errors.Is(out.Err, recorder.ErrEmptyCapture) || out.Saved {
		t.Errorf("outcome = %+v, want ErrEmptyCapture", out)
	}
	want := []string{
		"notice:Stop recording by pressing f8 Key",
		"notice:Nothing was recorded",
		"reenable",
	}
	if got := r.hooks.list(); !equalCalls(got, want) {
		t.Errorf("hooks = %q, want %q", got, want)
	}
	if infos, _ := r.store.List(context.Background()); len(infos) != 0 {
		t.Errorf("store holds %v, want nothing", infos)
	}
}

func TestCapture_DeclinedPrompt(t *testing.T) {
	r := newRig(t, settings(false), "", false)

	done := make(chan Outcome, 1)
	if err := r.ctl.StartCapture(func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	r.keyboard.Press("a")
	r.keyboard.Release("a")
	r.waitEvents(t, 2)
	if err := r.ctl.RequestStopCapture(); err != nil {
		t.Fatal(err)
	}

	out := waitOutcome(t, done)
	if out.Saved || out.Err != nil || out.Events != 2 {
		t.Errorf("outcome = %+v", out)
	}
	for _, c := range r.hooks.list() {
		if c == "refresh" {
			t.Error("declined save should not refresh")
		}
	}
}

func TestCapture_BadNameNotifies(t *testing.T) {
	r := newRig(t, settings(false), "../escape", true)

	done := make(chan Outcome, 1)
	if err := r.ctl.StartCapture(func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	r.keyboard.Press("a")
	r.keyboard.Release("a")
	r.waitEvents(t, 2)
	r.ctl.RequestStopCapture()

	out := waitOutcome(t, done)
	if !errors.Is(out.Err, storage.ErrInvalidName) {
		t.Errorf("outcome err = %v, want ErrInvalidName", out.Err)
	}
	notified := false
	for _, c := range r.hooks.list() {
		if len(c) > 7 && c[:7] == "notify:" {
			notified = true
		}
	}
	if !notified {
		t.Error("save failure should reach Notify")
	}
}

func TestCapture_SpanishNotice(t *testing.T) {
	o := settings(false)
	o.Language = 1
	o.StopRecordingKey = "esc"
	r := newRig(t, o, "", false)

	if err := r.ctl.StartCapture(nil); err != nil {
		t.Fatal(err)
	}
	r.ctl.RequestStopCapture()
	r.ctl.Wait()

	got := r.hooks.list()
	if len(got) == 0 || got[0] != "notice:Presiona esc para detener la captura de eventos" {
		t.Errorf("hooks = %q", got)
	}
}

func saveSample(t *testing.T, s storage.Store, name string) event.Log {
	t.Helper()
	log := event.Log{
		event.KeyPressed(event.CharKey("a")).At(epoch),
		event.KeyReleased(event.CharKey("a")).At(epoch.Add(5 * time.Millisecond)).After(5 * time.Millisecond),
		event.Moved(10, 20).At(epoch.Add(10 * time.Millisecond)).After(5 * time.Millisecond),
	}
	if err := s.Save(context.Background(), name, log); err != nil {
		t.Fatal(err)
	}
	return log
}

func TestReplay_PlaysStoredRecording(t *testing.T) {
	r := newRig(t, settings(true), "", false)
	log := saveSample(t, r.store, "demo")

	done := make(chan Outcome, 1)
	if err := r.ctl.StartReplay("demo", false, func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}

	out := waitOutcome(t, done)
	if out.Mode != state.Replaying || out.Name != "demo.json" {
		t.Errorf("outcome = %+v", out)
	}
	if out.Summary == nil || out.Summary.Dispatched != len(log) || out.Summary.Passes != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if got := len(r.trace.Calls()); got != len(log) {
		t.Errorf("injector saw %d calls, want %d", got, len(log))
	}
	want := []string{
		"minimize",
		"notice:Stop playing by pressing f8 Key",
		"reenable",
		"restore",
	}
	if got := r.hooks.list(); !equalCalls(got, want) {
		t.Errorf("hooks = %q, want %q", got, want)
	}
}

func TestReplay_LoadErrorIsSynchronous(t *testing.T) {
	r := newRig(t, settings(true), "", false)

	err := r.ctl.StartReplay("missing", false, nil)
	if !errors.Is(err, storage.ErrLoad) || !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrLoad wrapping ErrNotFound", err)
	}
	if got := r.hooks.list(); len(got) != 0 {
		t.Errorf("no hooks should run, got %q", got)
	}
	if r.ctl.State().Active() {
		t.Error("state should stay idle")
	}
}

func TestReplay_StopLooping(t *testing.T) {
	r := newRig(t, settings(false), "", false)
	saveSample(t, r.store, "loop")

	done := make(chan Outcome, 1)
	if err := r.ctl.StartReplay("loop", true, func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	if snap := r.ctl.State(); snap.Mode != state.Replaying || !snap.Looping {
		t.Fatalf("state = %+v, want looping replay", snap)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(r.trace.Calls()) < 4 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := r.ctl.RequestStopLooping(); err != nil {
		t.Fatal(err)
	}

	out := waitOutcome(t, done)
	if out.Summary.Passes < 2 || out.Summary.Stopped {
		t.Errorf("summary = %+v, want at least two complete passes", out.Summary)
	}
	if out.Summary.Dispatched != out.Summary.Passes*3 {
		t.Errorf("dispatched %d over %d passes, want whole passes", out.Summary.Dispatched, out.Summary.Passes)
	}
}

func TestReplay_RequestStop(t *testing.T) {
	r := newRig(t, settings(false), "", false)
	saveSample(t, r.store, "loop")

	done := make(chan Outcome, 1)
	if err := r.ctl.StartReplay("loop", true, func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.RequestStopReplay(); err != nil {
		t.Fatal(err)
	}
	out := waitOutcome(t, done)
	if out.Summary == nil || out.Summary.Passes > 2 {
		t.Errorf("summary = %+v, want playback to end promptly", out.Summary)
	}
	if r.ctl.State().Active() {
		t.Error("state should be idle after stop")
	}
}

func TestController_OneSessionAtATime(t *testing.T) {
	r := newRig(t, settings(false), "", false)
	saveSample(t, r.store, "demo")

	if err := r.ctl.StartCapture(nil); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.StartReplay("demo", false, nil); !errors.Is(err, state.ErrAlreadyActive) {
		t.Errorf("replay during capture: err = %v, want ErrAlreadyActive", err)
	}
	if err := r.ctl.StartCapture(nil); !errors.Is(err, state.ErrAlreadyActive) {
		t.Errorf("second capture: err = %v, want ErrAlreadyActive", err)
	}
	if err := r.ctl.RequestStopReplay(); !errors.Is(err, state.ErrNotActive) {
		t.Errorf("stop replay during capture: err = %v, want ErrNotActive", err)
	}
	r.ctl.RequestStopCapture()
	r.ctl.Wait()

	if err := r.ctl.RequestStopCapture(); !errors.Is(err, state.ErrNotActive) {
		t.Errorf("stop with nothing running: err = %v, want ErrNotActive", err)
	}
}

func TestCapture_NamedStartOwnsItsName(t *testing.T) {
	r := newRig(t, settings(false), "", false)
	r.ctl.opts.Hooks.PromptSave = nil

	done := make(chan Outcome, 1)
	if err := r.ctl.StartCaptureAs("first", func(o Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	if err := r.ctl.StartCaptureAs("second", nil); !errors.Is(err, state.ErrAlreadyActive) {
		t.Fatalf("second start: err = %v, want ErrAlreadyActive", err)
	}

	r.keyboard.Press("a")
	r.keyboard.Release("a")
	r.waitEvents(t, 2)
	r.ctl.RequestStopCapture()

	out := waitOutcome(t, done)
	if !out.Saved || out.Name != "first.json" {
		t.Errorf("outcome = %+v, want saved as first.json", out)
	}
	if _, err := r.store.Load(context.Background(), "second"); err == nil {
		t.Error("rejected start should not have been saved")
	}
}

func TestController_Settings(t *testing.T) {
	r := newRig(t, config.Options{}, "", false)
	if got := r.ctl.Settings(); got != config.Default().Options {
		t.Errorf("zero settings should default, got %+v", got)
	}
	o := settings(false)
	o.StopRecordingKey = "esc"
	r.ctl.SetSettings(o)
	if err := r.ctl.StartCapture(nil); err != nil {
		t.Fatal(err)
	}
	r.keyboard.Press("esc")
	r.ctl.Wait()
	if r.ctl.State().Active() {
		t.Error("the updated stop key should end the capture")
	}
}
