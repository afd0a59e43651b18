//go:build windows

package input

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E

	wheelDelta = 120
	xButton2   = 0x0002

	hookBuffer = 1024
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetKeyState         = user32.NewProc("GetKeyState")
	procToUnicode           = user32.NewProc("ToUnicode")
)

type point struct {
	x, y int32
}

type kbdllHookStruct struct {
	vkCode    uint32
	scanCode  uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

type msllHookStruct struct {
	pt        point
	mouseData uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

// sink is where a hook callback delivers events. Callbacks never block the
// hook chain; a full buffer drops the event.
type sink[T any] struct {
	ch      chan T
	dropped atomic.Int64
}

func (s *sink[T]) offer(v T) {
	select {
	case s.ch <- v:
	default:
		s.dropped.Add(1)
	}
}

// syscall.NewCallback slots are never released, so each hook procedure is
// created once for the life of the process.
var (
	keySink      atomic.Pointer[sink[KeyEvent]]
	pointerSink  atomic.Pointer[sink[PointerEvent]]
	keyboardProc = syscall.NewCallback(keyboardHook)
	mouseProc    = syscall.NewCallback(mouseHook)
)

var errHookBusy = errors.New("hook already installed by this process")

// ListenKeys installs a low-level keyboard hook.
func (b *windowsBackend) ListenKeys(ctx context.Context) (<-chan KeyEvent, error) {
	s := &sink[KeyEvent]{ch: make(chan KeyEvent, hookBuffer)}
	if !keySink.CompareAndSwap(nil, s) {
		return nil, &ListenerStartupError{Listener: "keyboard", Err: errHookBusy}
	}
	done := func() {
		keySink.Store(nil)
		if n := s.dropped.Load(); n > 0 {
			b.logger.Warn("keyboard events dropped", "count", n)
		}
		close(s.ch)
	}
	if err := runHook(ctx, whKeyboardLL, keyboardProc, done); err != nil {
		return nil, &ListenerStartupError{Listener: "keyboard", Err: err}
	}
	return s.ch, nil
}

// ListenPointer installs a low-level mouse hook.
func (b *windowsBackend) ListenPointer(ctx context.Context) (<-chan PointerEvent, error) {
	s := &sink[PointerEvent]{ch: make(chan PointerEvent, hookBuffer)}
	if !pointerSink.CompareAndSwap(nil, s) {
		return nil, &ListenerStartupError{Listener: "pointer", Err: errHookBusy}
	}
	done := func() {
		pointerSink.Store(nil)
		if n := s.dropped.Load(); n > 0 {
			b.logger.Warn("pointer events dropped", "count", n)
		}
		close(s.ch)
	}
	if err := runHook(ctx, whMouseLL, mouseProc, done); err != nil {
		return nil, &ListenerStartupError{Listener: "pointer", Err: err}
	}
	return s.ch, nil
}

// runHook installs the hook on a dedicated OS thread and pumps its message
// queue until ctx is done. done runs on that thread after the hook is
// removed, or after a failed install.
func runHook(ctx context.Context, id int, proc uintptr, done func()) error {
	ready := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer done()

		var module windows.Handle
		if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
			ready <- fmt.Errorf("GetModuleHandleEx: %w", err)
			return
		}
		hook, _, callErr := procSetWindowsHookExW.Call(uintptr(id), proc, uintptr(module), 0)
		if hook == 0 {
			ready <- fmt.Errorf("SetWindowsHookExW: %v", callErr)
			return
		}
		defer procUnhookWindowsHookEx.Call(hook)

		tid := windows.GetCurrentThreadId()
		ready <- nil

		pumped := make(chan struct{})
		defer close(pumped)
		go func() {
			select {
			case <-ctx.Done():
				procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
			case <-pumped:
			}
		}()

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
		}
	}()

	return <-ready
}

func keyboardHook(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if s := keySink.Load(); s != nil {
			info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			switch wParam {
			case wmKeyDown, wmSysKeyDown:
				s.offer(KeyEvent{Down: true, Key: rawKey(info)})
			case wmKeyUp, wmSysKeyUp:
				s.offer(KeyEvent{Down: false, Key: rawKey(info)})
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func mouseHook(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if s := pointerSink.Load(); s != nil {
			info := (*msllHookStruct)(unsafe.Pointer(lParam))
			if ev, ok := pointerEvent(wParam, info); ok {
				s.offer(ev)
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func pointerEvent(wParam uintptr, info *msllHookStruct) (PointerEvent, bool) {
	ev := PointerEvent{X: int(info.pt.x), Y: int(info.pt.y)}
	high := int16(info.mouseData >> 16)

	button := func(b event.Button, pressed bool) (PointerEvent, bool) {
		ev.Kind = PointerButton
		ev.Button = b
		ev.Pressed = pressed
		return ev, true
	}

	switch wParam {
	case wmMouseMove:
		ev.Kind = PointerMove
		return ev, true
	case wmLButtonDown:
		return button(event.ButtonLeft, true)
	case wmLButtonUp:
		return button(event.ButtonLeft, false)
	case wmRButtonDown:
		return button(event.ButtonRight, true)
	case wmRButtonUp:
		return button(event.ButtonRight, false)
	case wmMButtonDown:
		return button(event.ButtonMiddle, true)
	case wmMButtonUp:
		return button(event.ButtonMiddle, false)
	case wmXButtonDown, wmXButtonUp:
		b := event.ButtonX1
		if uint16(high) == xButton2 {
			b = event.ButtonX2
		}
		return button(b, wParam == wmXButtonDown)
	case wmMouseWheel:
		ev.Kind = PointerScroll
		ev.DY = notches(high)
		return ev, true
	case wmMouseHWheel:
		ev.Kind = PointerScroll
		ev.DX = notches(high)
		return ev, true
	}
	return ev, false
}

// notches converts a wheel delta into whole steps. Fine-grained wheels
// report less than one notch per message; those still count as one step.
func notches(delta int16) int {
	n := int(delta) / wheelDelta
	if n == 0 && delta > 0 {
		return 1
	}
	if n == 0 && delta < 0 {
		return -1
	}
	return n
}

func rawKey(info *kbdllHookStruct) RawKey {
	vk := info.vkCode
	return RawKey{
		Char:    keyText(vk, info.scanCode),
		Name:    vkNames[vk],
		Code:    int(vk),
		HasCode: true,
	}
}

// keyText asks the active layout what the key types with the current
// modifier state. Control characters and dead keys yield "".
func keyText(vk, scan uint32) string {
	var state [256]byte
	for _, mod := range []uint32{vkShift, vkControl, vkMenu} {
		if r, _, _ := procGetKeyState.Call(uintptr(mod)); int16(r) < 0 {
			state[mod] = 0x80
		}
	}
	if r, _, _ := procGetKeyState.Call(vkCapital); r&1 != 0 {
		state[vkCapital] = 0x01
	}

	var buf [4]uint16
	// Flag 4 keeps ToUnicode from changing the keyboard state that the
	// foreground application will see for this key.
	n, _, _ := procToUnicode.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		4,
	)
	if int32(n) != 1 || buf[0] < 0x20 || buf[0] == 0x7f {
		return ""
	}
	return string(utf16.Decode(buf[:1]))
}
