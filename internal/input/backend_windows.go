//go:build windows

package input

import "log/slog"

type windowsBackend struct {
	logger *slog.Logger
}

// Open returns the Win32 backend: low-level hooks for listening and
// SendInput for injection.
func Open(logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &windowsBackend{logger: logger.With("component", "input")}, nil
}

func (b *windowsBackend) Close() error { return nil }
