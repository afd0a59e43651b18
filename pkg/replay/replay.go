package replay

import (
	internalreplay "github.com/SmitUplenchwar2687/macrokit/internal/replay"
	"github.com/SmitUplenchwar2687/macrokit/pkg/event"
)

// Options configures a Replayer.
type Options = internalreplay.Options

// Replayer starts playbacks.
type Replayer = internalreplay.Replayer

// Playback is one running replay.
type Playback = internalreplay.Playback

// Filter selects which events are dispatched.
type Filter = internalreplay.Filter

// Result is the outcome of one event in one pass.
type Result = internalreplay.Result

// Summary aggregates a playback.
type Summary = internalreplay.Summary

// ErrEmptyLog is returned when there is nothing to replay.
var ErrEmptyLog = internalreplay.ErrEmptyLog

// New creates a replayer.
func New(opts Options) *Replayer {
	return internalreplay.New(opts)
}

// ParseActions parses a comma-separated action list for Filter.
func ParseActions(s string) ([]event.Action, error) {
	return internalreplay.ParseActions(s)
}
