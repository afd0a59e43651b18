// Package event exposes the recording format: events and the logs they
// form.
package event

import (
	"io"

	internalevent "github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// Action names what an event does.
type Action = internalevent.Action

// Event is one captured input action.
type Event = internalevent.Event

// Log is an ordered recording.
type Log = internalevent.Log

// Key identifies a keyboard key.
type Key = internalevent.Key

// Button identifies a pointer button.
type Button = internalevent.Button

// Stats summarises a log.
type Stats = internalevent.Stats

// Event actions.
const (
	ActionKeyPressed      = internalevent.ActionKeyPressed
	ActionKeyReleased     = internalevent.ActionKeyReleased
	ActionMoved           = internalevent.ActionMoved
	ActionPointerPressed  = internalevent.ActionPointerPressed
	ActionPointerReleased = internalevent.ActionPointerReleased
	ActionScroll          = internalevent.ActionScroll
)

// ErrInvalidRecord is wrapped by every decoding failure.
var ErrInvalidRecord = internalevent.ErrInvalidRecord

// Marshal encodes a log as a JSON array.
func Marshal(l Log) ([]byte, error) { return internalevent.Marshal(l) }

// Unmarshal decodes and validates a JSON array of events.
func Unmarshal(data []byte) (Log, error) { return internalevent.Unmarshal(data) }

// Encode writes a log to w.
func Encode(w io.Writer, l Log) error { return internalevent.Encode(w, l) }

// Decode reads a log from r.
func Decode(r io.Reader) (Log, error) { return internalevent.Decode(r) }
