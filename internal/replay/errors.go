package replay

import (
	"errors"
	"fmt"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// ErrEmptyLog is returned when asked to replay a log with no events.
var ErrEmptyLog = errors.New("nothing to replay: log is empty")

// DispatchError reports that one event could not be synthesised. Playback
// logs it and moves on to the next event.
type DispatchError struct {
	Pass  int
	Index int
	Event event.Event
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("pass %d event %d (%s): %v", e.Pass, e.Index, e.Event, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
