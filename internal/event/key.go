package event

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// KeyKind says which form of a key identifier is populated.
type KeyKind uint8

const (
	KeyNone KeyKind = iota
	KeyChar         // printable character, e.g. "a"
	KeyName         // symbolic name, e.g. "shift"
	KeyCode         // raw platform virtual-key code
)

// Key identifies a keyboard key. Exactly one of Char, Name or Code is
// meaningful, selected by Kind.
type Key struct {
	Kind KeyKind
	Char string
	Name string
	Code int
}

// CharKey returns a character key.
func CharKey(c string) Key { return Key{Kind: KeyChar, Char: c} }

// NamedKey returns a symbolic key such as "enter" or "shift_r".
func NamedKey(name string) Key { return Key{Kind: KeyName, Name: name} }

// CodeKey returns a key known only by its virtual-key code.
func CodeKey(vk int) Key { return Key{Kind: KeyCode, Code: vk} }

// keyFromString decodes the "key" field of a persisted record. Single
// characters are characters, anything longer is a symbolic name.
func keyFromString(s string) Key {
	if utf8.RuneCountInString(s) == 1 {
		return CharKey(s)
	}
	return NamedKey(s)
}

// IsZero reports whether no form is populated.
func (k Key) IsZero() bool { return k.Kind == KeyNone }

// Validate checks that the populated form is usable.
func (k Key) Validate() error {
	switch k.Kind {
	case KeyChar:
		if utf8.RuneCountInString(k.Char) != 1 {
			return fmt.Errorf("character key must be exactly one character, got %q", k.Char)
		}
	case KeyName:
		if utf8.RuneCountInString(k.Name) < 2 {
			return fmt.Errorf("key name must be at least two characters, got %q", k.Name)
		}
	case KeyCode:
		if k.Code < 0 {
			return fmt.Errorf("virtual-key code must not be negative, got %d", k.Code)
		}
	default:
		return fmt.Errorf("key identifier is empty")
	}
	return nil
}

// String returns the character, the name, or "vk:<code>".
func (k Key) String() string {
	switch k.Kind {
	case KeyChar:
		return k.Char
	case KeyName:
		return k.Name
	case KeyCode:
		return "vk:" + strconv.Itoa(k.Code)
	default:
		return ""
	}
}

// Matches reports whether the key is the configured trigger. Triggers are
// compared against the character or the symbolic name; codes never match.
func (k Key) Matches(trigger string) bool {
	if trigger == "" {
		return false
	}
	switch k.Kind {
	case KeyChar:
		return k.Char == trigger
	case KeyName:
		return k.Name == trigger
	}
	return false
}

// Button names a pointer button: "left", "right", "middle", "x1", "x2".
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
	ButtonX1     Button = "x1"
	ButtonX2     Button = "x2"
)
