//go:build !windows

package input

import (
	"context"
	"log/slog"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// unsupportedBackend fails every listener start and every injection, so
// callers see the same startup error path a denied hook produces.
type unsupportedBackend struct{}

// Open returns a backend whose listeners fail with ErrUnsupportedPlatform.
// Commands that only read or write recordings keep working.
func Open(logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("no global input hooks on this platform")
	return unsupportedBackend{}, nil
}

func (unsupportedBackend) ListenKeys(context.Context) (<-chan KeyEvent, error) {
	return nil, &ListenerStartupError{Listener: "keyboard", Err: ErrUnsupportedPlatform}
}

func (unsupportedBackend) ListenPointer(context.Context) (<-chan PointerEvent, error) {
	return nil, &ListenerStartupError{Listener: "pointer", Err: ErrUnsupportedPlatform}
}

func (unsupportedBackend) KeyDown(event.Key) error                 { return ErrUnsupportedPlatform }
func (unsupportedBackend) KeyUp(event.Key) error                   { return ErrUnsupportedPlatform }
func (unsupportedBackend) MoveTo(int, int) error                   { return ErrUnsupportedPlatform }
func (unsupportedBackend) ButtonDown(event.Button, int, int) error { return ErrUnsupportedPlatform }
func (unsupportedBackend) ButtonUp(event.Button, int, int) error   { return ErrUnsupportedPlatform }
func (unsupportedBackend) Scroll(int, int, int, int) error         { return ErrUnsupportedPlatform }
func (unsupportedBackend) Close() error                            { return nil }
