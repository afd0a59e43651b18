package replay

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/clock"
	"github.com/SmitUplenchwar2687/macrokit/internal/event"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/input/inputtest"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// scenario is press 'a', release after 100ms, move to (10,20) 50ms later.
func scenario() event.Log {
	return event.Log{
		event.KeyPressed(event.CharKey("a")).At(epoch),
		event.KeyReleased(event.CharKey("a")).At(epoch.Add(100 * time.Millisecond)).After(100 * time.Millisecond),
		event.Moved(10, 20).At(epoch.Add(150 * time.Millisecond)).After(50 * time.Millisecond),
	}
}

func spaced(n int, gap time.Duration) event.Log {
	l := make(event.Log, n)
	for i := range l {
		l[i] = event.Moved(i, i).At(epoch.Add(time.Duration(i) * gap))
		if i > 0 {
			l[i] = l[i].After(gap)
		}
	}
	return l
}

func waitCalls(t *testing.T, tr *input.Trace, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(tr.Calls()) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got %d injected calls, want %d", len(tr.Calls()), n)
}

func waitWaiters(t *testing.T, vc *clock.VirtualClock, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if vc.Waiters() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("playback never reached its wait (waiters = %d)", vc.Waiters())
}

func waitDone(t *testing.T, p *Playback) *Summary {
	t.Helper()
	select {
	case <-p.Done():
		return p.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
		return nil
	}
}

// drive advances vc by step whenever playback is waiting, until p is done.
func drive(vc *clock.VirtualClock, p *Playback, step time.Duration) {
	for {
		select {
		case <-p.Done():
			return
		default:
		}
		if vc.Waiters() > 0 {
			vc.Advance(step)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func TestReplay_ConcreteScenario(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	tr := &input.Trace{}
	r := New(Options{Clock: vc, Injector: tr, State: state.NewMachine()})

	p, err := r.Start(context.Background(), scenario(), false)
	if err != nil {
		t.Fatal(err)
	}

	waitCalls(t, tr, 1)
	waitWaiters(t, vc, 1)
	vc.Advance(99 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if n := len(tr.Calls()); n != 1 {
		t.Fatalf("release dispatched before its delay: %d calls", n)
	}
	vc.Advance(time.Millisecond)
	waitCalls(t, tr, 2)
	waitWaiters(t, vc, 1)
	vc.Advance(50 * time.Millisecond)

	summary := waitDone(t, p)
	want := []input.Call{
		{Op: "key_down", Key: event.CharKey("a")},
		{Op: "key_up", Key: event.CharKey("a")},
		{Op: "move", X: 10, Y: 20},
	}
	if got := tr.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if summary.Dispatched != 3 || summary.Passes != 1 || summary.Stopped {
		t.Errorf("summary = %+v", summary)
	}
	if summary.WallDuration != 150*time.Millisecond {
		t.Errorf("WallDuration = %v, want 150ms", summary.WallDuration)
	}
	if summary.RecordedDuration != 150*time.Millisecond {
		t.Errorf("RecordedDuration = %v, want 150ms", summary.RecordedDuration)
	}
}

func TestReplay_RealClockTiming(t *testing.T) {
	tr := &input.Trace{}
	r := New(Options{Injector: tr, State: state.NewMachine()})

	start := time.Now()
	summary, err := r.Run(context.Background(), scenario(), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond || elapsed > time.Second {
		t.Errorf("replay took %v, want about 150ms", elapsed)
	}
	if summary.Dispatched != 3 {
		t.Errorf("Dispatched = %d, want 3", summary.Dispatched)
	}
}

func TestReplay_StopLoopingFinishesCurrentPass(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	tr := &input.Trace{}
	machine := state.NewMachine()

	var p *Playback
	r := New(Options{
		Clock:    vc,
		Injector: tr,
		State:    machine,
		OnResult: func(res Result) {
			if res.Pass == 2 && res.Index == 0 {
				p.StopLooping()
			}
		},
	})

	log := spaced(3, 10*time.Millisecond)
	log[0] = log[0].After(10 * time.Millisecond)

	var err error
	p, err = r.Start(context.Background(), log, true)
	if err != nil {
		t.Fatal(err)
	}
	if !machine.Snapshot().Looping {
		t.Error("state should report looping")
	}
	go drive(vc, p, 10*time.Millisecond)

	summary := waitDone(t, p)
	if summary.Passes != 2 {
		t.Errorf("Passes = %d, want 2", summary.Passes)
	}
	if summary.Dispatched != 6 {
		t.Errorf("Dispatched = %d, want 6 (second pass must complete)", summary.Dispatched)
	}
	if summary.Stopped {
		t.Error("StopLooping is not a stop")
	}
	if machine.Snapshot().Active() {
		t.Error("state should be idle after playback")
	}
}

func TestReplay_StopDuringWaitDropsPendingEvent(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	tr := &input.Trace{}
	machine := state.NewMachine()
	r := New(Options{Clock: vc, Injector: tr, State: machine})

	p, err := r.Start(context.Background(), scenario(), true)
	if err != nil {
		t.Fatal(err)
	}
	waitCalls(t, tr, 1)
	waitWaiters(t, vc, 1)

	p.Stop()
	summary := waitDone(t, p)

	// Fire the abandoned wait; nothing else may be injected.
	vc.Advance(time.Second)
	time.Sleep(5 * time.Millisecond)

	if n := len(tr.Calls()); n != 1 {
		t.Errorf("got %d calls, want only the first press", n)
	}
	if !summary.Stopped || summary.Passes != 1 {
		t.Errorf("summary = %+v, want stopped in pass 1", summary)
	}
	if machine.Snapshot().Active() {
		t.Error("state should be idle after Stop")
	}
	p.Stop() // second Stop is harmless
}

func TestReplay_StopKey(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	tr := &input.Trace{}
	kb := &inputtest.Keyboard{}
	r := New(Options{Clock: vc, Injector: tr, State: state.NewMachine(), Keyboard: kb, StopKey: "f8"})

	p, err := r.Start(context.Background(), spaced(2, time.Second), true)
	if err != nil {
		t.Fatal(err)
	}
	waitCalls(t, tr, 1)

	kb.Press("a")
	kb.Release("f8")
	kb.Press("f8")

	summary := waitDone(t, p)
	if !summary.StoppedByKey || !summary.Stopped {
		t.Errorf("summary = %+v, want stopped by key", summary)
	}
	if n := len(tr.Calls()); n != 1 {
		t.Errorf("got %d calls after stop key, want 1", n)
	}
}

func TestReplay_StopKeyListenerEndsWithPlayback(t *testing.T) {
	tr := &input.Trace{}
	kb := &inputtest.Keyboard{}
	r := New(Options{Injector: tr, State: state.NewMachine(), Keyboard: kb, StopKey: "f8"})

	if _, err := r.Run(context.Background(), spaced(3, 0), false, nil); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for kb.Listeners() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if kb.Listeners() != 0 {
		t.Error("stop-key listener outlived the playback")
	}
}

func TestReplay_ListenerStartupFailure(t *testing.T) {
	machine := state.NewMachine()
	kb := &inputtest.Keyboard{StartErr: errors.New("hook denied")}
	r := New(Options{Injector: &input.Trace{}, State: machine, Keyboard: kb, StopKey: "f8"})

	_, err := r.Start(context.Background(), scenario(), false)
	if !errors.Is(err, input.ErrListenerStartup) {
		t.Fatalf("err = %v, want ErrListenerStartup", err)
	}
	if machine.Snapshot().Active() {
		t.Error("failed start must leave the state idle")
	}
}

func TestReplay_Idempotent(t *testing.T) {
	log := event.Log{
		event.KeyPressed(event.NamedKey("shift")),
		event.KeyPressed(event.CharKey("A")),
		event.KeyReleased(event.CharKey("A")),
		event.KeyReleased(event.NamedKey("shift")),
		event.PointerPressed(event.ButtonLeft, 3, 4),
		event.PointerReleased(event.ButtonLeft, 3, 4),
		event.Scrolled(3, 4, 0, -1),
	}
	r := New(Options{Injector: &input.Trace{}, State: state.NewMachine()})

	var runs [2][]input.Call
	for i := range runs {
		tr := &input.Trace{}
		r.opts.Injector = tr
		if _, err := r.Run(context.Background(), log, false, nil); err != nil {
			t.Fatal(err)
		}
		runs[i] = tr.Calls()
	}
	if !reflect.DeepEqual(runs[0], runs[1]) {
		t.Errorf("two replays differ:\n%v\n%v", runs[0], runs[1])
	}
	if len(runs[0]) != len(log) {
		t.Errorf("dispatched %d calls, want %d", len(runs[0]), len(log))
	}
}

func TestReplay_DispatchErrorIsSkipped(t *testing.T) {
	bad := errors.New("no such key")
	tr := &input.Trace{Fail: func(c input.Call) error {
		if c.Op == "key_down" && c.Key == event.NamedKey("hyper") {
			return bad
		}
		return nil
	}}
	r := New(Options{Injector: tr, State: state.NewMachine()})

	log := event.Log{
		event.KeyPressed(event.NamedKey("hyper")),
		event.KeyPressed(event.CharKey("z")),
	}
	var mu sync.Mutex
	var results []Result
	summary, err := r.Run(context.Background(), log, false, func(res Result) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Failed != 1 || summary.Dispatched != 1 {
		t.Errorf("summary = %+v, want 1 failed 1 dispatched", summary)
	}
	var de *DispatchError
	if !errors.As(results[0].Err, &de) || de.Index != 0 || !errors.Is(de, bad) {
		t.Errorf("results[0].Err = %v, want DispatchError wrapping the cause", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("results[1].Err = %v", results[1].Err)
	}
}

func TestReplay_RejectsWhileActive(t *testing.T) {
	machine := state.NewMachine()
	if _, err := machine.BeginCapture(); err != nil {
		t.Fatal(err)
	}
	r := New(Options{Injector: &input.Trace{}, State: machine})

	if _, err := r.Start(context.Background(), scenario(), false); !errors.Is(err, state.ErrAlreadyActive) {
		t.Errorf("err = %v, want ErrAlreadyActive", err)
	}
}

func TestReplay_EmptyLog(t *testing.T) {
	r := New(Options{Injector: &input.Trace{}, State: state.NewMachine()})
	if _, err := r.Start(context.Background(), nil, false); !errors.Is(err, ErrEmptyLog) {
		t.Errorf("err = %v, want ErrEmptyLog", err)
	}
}

func TestReplay_ContextCancellation(t *testing.T) {
	r := New(Options{Injector: &input.Trace{}, State: state.NewMachine()})

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	summary, err := r.Run(ctx, spaced(1000, 0), false, func(res Result) {
		count++
		if count >= 5 {
			cancel()
		}
	})

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if summary.Dispatched < 5 || summary.Dispatched == 1000 {
		t.Errorf("Dispatched = %d, want between 5 and 999", summary.Dispatched)
	}
}

func TestReplay_FilterKeepsTiming(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	tr := &input.Trace{}
	r := New(Options{
		Clock:    vc,
		Injector: tr,
		State:    state.NewMachine(),
		Filter:   &Filter{Skip: []event.Action{event.ActionKeyReleased}},
	})

	p, err := r.Start(context.Background(), scenario(), false)
	if err != nil {
		t.Fatal(err)
	}
	go drive(vc, p, 50*time.Millisecond)
	summary := waitDone(t, p)

	if summary.Filtered != 1 || summary.Dispatched != 2 {
		t.Errorf("summary = %+v, want 1 filtered 2 dispatched", summary)
	}
	if summary.WallDuration != 150*time.Millisecond {
		t.Errorf("WallDuration = %v, filtered events must still wait", summary.WallDuration)
	}
}

func TestReplay_DoneWaitsForStopKeyListenerToClose(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	held := make(chan struct{})
	kb := &inputtest.Keyboard{HoldClose: held}
	machine := state.NewMachine()
	r := New(Options{Clock: vc, Injector: &input.Trace{}, State: machine, Keyboard: kb, StopKey: "f8"})

	p, err := r.Start(context.Background(), spaced(2, time.Second), false)
	if err != nil {
		t.Fatal(err)
	}
	kb.Press("f8")
	select {
	case <-p.Done():
		t.Fatal("playback finished while the keyboard hook was still open")
	case <-time.After(50 * time.Millisecond):
	}
	if !machine.Snapshot().Active() {
		t.Error("state went idle while the keyboard hook was still open")
	}

	close(held)
	summary := waitDone(t, p)
	if !summary.StoppedByKey {
		t.Errorf("summary = %+v, want stopped by key", summary)
	}
	if kb.Listeners() != 0 {
		t.Error("stop-key subscription open after Done")
	}
}
