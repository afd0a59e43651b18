//go:build windows

package input

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfXDown      = 0x0080
	mouseeventfXUp        = 0x0100
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfUnicode     = 0x0004

	xButton1 = 0x0001
)

var (
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

// The INPUT union is laid out by hand: the payload structs carry a uintptr,
// so Go aligns them after the type tag exactly as the C compiler does.
type mouseInput struct {
	typ uint32
	mi  struct {
		dx, dy    int32
		mouseData uint32
		flags     uint32
		time      uint32
		extraInfo uintptr
	}
}

type keybdInput struct {
	typ uint32
	ki  struct {
		vk        uint16
		scan      uint16
		flags     uint32
		time      uint32
		extraInfo uintptr
		_         [8]byte
	}
}

func sendInput(ptr unsafe.Pointer, size uintptr) error {
	n, _, err := procSendInput.Call(1, uintptr(ptr), size)
	if n != 1 {
		return fmt.Errorf("SendInput: %v", err)
	}
	return nil
}

func sendKey(vk, scan uint16, flags uint32) error {
	var in keybdInput
	in.typ = inputKeyboard
	in.ki.vk = vk
	in.ki.scan = scan
	in.ki.flags = flags
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func sendMouse(flags, data uint32) error {
	var in mouseInput
	in.typ = inputMouse
	in.mi.flags = flags
	in.mi.mouseData = data
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func (b *windowsBackend) KeyDown(k event.Key) error { return b.key(k, 0) }

func (b *windowsBackend) KeyUp(k event.Key) error { return b.key(k, keyeventfKeyUp) }

func (b *windowsBackend) key(k event.Key, up uint32) error {
	switch k.Kind {
	case event.KeyChar:
		for _, unit := range utf16.Encode([]rune(k.Char)) {
			if err := sendKey(0, unit, keyeventfUnicode|up); err != nil {
				return err
			}
		}
		return nil
	case event.KeyName:
		vk, ok := vkByName[k.Name]
		if !ok {
			return fmt.Errorf("%w: no virtual-key code for %q", ErrUnresolvableKey, k.Name)
		}
		return sendVK(vk, up)
	case event.KeyCode:
		if k.Code > 0xFE {
			return fmt.Errorf("%w: virtual-key code %d out of range", ErrUnresolvableKey, k.Code)
		}
		return sendVK(uint16(k.Code), up)
	}
	return fmt.Errorf("%w: empty key", ErrUnresolvableKey)
}

func sendVK(vk uint16, flags uint32) error {
	if extendedKeys[vk] {
		flags |= keyeventfExtendedKey
	}
	return sendKey(vk, 0, flags)
}

func (b *windowsBackend) MoveTo(x, y int) error {
	if r, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y))); r == 0 {
		return fmt.Errorf("SetCursorPos(%d, %d): %v", x, y, err)
	}
	return nil
}

// ButtonDown moves to the recorded position before pressing so a click
// lands where it was captured even if the pointer drifted.
func (b *windowsBackend) ButtonDown(btn event.Button, x, y int) error {
	return b.button(btn, x, y, true)
}

func (b *windowsBackend) ButtonUp(btn event.Button, x, y int) error {
	return b.button(btn, x, y, false)
}

func (b *windowsBackend) button(btn event.Button, x, y int, down bool) error {
	var flags, data uint32
	switch btn {
	case event.ButtonLeft:
		flags = pick(down, mouseeventfLeftDown, mouseeventfLeftUp)
	case event.ButtonRight:
		flags = pick(down, mouseeventfRightDown, mouseeventfRightUp)
	case event.ButtonMiddle:
		flags = pick(down, mouseeventfMiddleDown, mouseeventfMiddleUp)
	case event.ButtonX1:
		flags, data = pick(down, mouseeventfXDown, mouseeventfXUp), xButton1
	case event.ButtonX2:
		flags, data = pick(down, mouseeventfXDown, mouseeventfXUp), xButton2
	default:
		return fmt.Errorf("%w: %q", ErrUnknownButton, btn)
	}
	if err := b.MoveTo(x, y); err != nil {
		return err
	}
	return sendMouse(flags, data)
}

func (b *windowsBackend) Scroll(x, y, dx, dy int) error {
	if err := b.MoveTo(x, y); err != nil {
		return err
	}
	if dy != 0 {
		if err := sendMouse(mouseeventfWheel, uint32(int32(dy*wheelDelta))); err != nil {
			return err
		}
	}
	if dx != 0 {
		if err := sendMouse(mouseeventfHWheel, uint32(int32(dx*wheelDelta))); err != nil {
			return err
		}
	}
	return nil
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}
