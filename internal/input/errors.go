package input

import (
	"errors"
	"fmt"
)

// ErrListenerStartup is matched by ListenerStartupError.
var ErrListenerStartup = errors.New("input listener could not start")

// ErrUnsupportedPlatform means no global hook backend exists for this OS.
var ErrUnsupportedPlatform = errors.New("global input hooks are not supported on this platform")

// ErrUnresolvableKey is returned when a key cannot be identified or injected.
var ErrUnresolvableKey = errors.New("unresolvable key")

// ErrUnknownButton is returned when an injector has no mapping for a button.
var ErrUnknownButton = errors.New("unknown pointer button")

// ListenerStartupError reports that a listener could not be installed,
// usually because the OS denied the global input hook.
type ListenerStartupError struct {
	Listener string // "keyboard" or "pointer"
	Err      error
}

func (e *ListenerStartupError) Error() string {
	return fmt.Sprintf("starting %s listener: %v", e.Listener, e.Err)
}

func (e *ListenerStartupError) Unwrap() error { return e.Err }

func (e *ListenerStartupError) Is(target error) bool {
	return target == ErrListenerStartup
}
