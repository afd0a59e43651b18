package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// ErrInvalidRecord is returned for records that do not match the schema.
var ErrInvalidRecord = errors.New("invalid event record")

// record is the flat persisted form. Pointer fields are omitted when the
// variant does not use them, so absent fields never appear as null.
type record struct {
	Action     Action   `json:"action"`
	Key        *string  `json:"key,omitempty"`
	VK         *int     `json:"vk,omitempty"`
	Vertical   *int     `json:"vertical_direction,omitempty"`
	Horizontal *int     `json:"horizontal_direction,omitempty"`
	Button     *string  `json:"button,omitempty"`
	X          *int     `json:"x,omitempty"`
	Y          *int     `json:"y,omitempty"`
	Time       *float64 `json:"time,omitempty"`
	Duration   float64  `json:"duration"`
}

// MarshalJSON encodes e as a flat record.
func (e Event) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	rec := record{
		Action:   e.Action,
		Duration: e.Duration.Seconds(),
	}
	if !e.Timestamp.IsZero() {
		ts := float64(e.Timestamp.UnixMicro()) / 1e6
		rec.Time = &ts
	}

	x, y := e.X, e.Y
	switch e.Action {
	case ActionKeyPressed, ActionKeyReleased:
		switch e.Key.Kind {
		case KeyChar:
			rec.Key = &e.Key.Char
		case KeyName:
			rec.Key = &e.Key.Name
		case KeyCode:
			vk := e.Key.Code
			rec.VK = &vk
		}
	case ActionMoved:
		rec.X, rec.Y = &x, &y
	case ActionPointerPressed, ActionPointerReleased:
		b := string(e.Button)
		rec.Button = &b
		rec.X, rec.Y = &x, &y
	case ActionScroll:
		dx, dy := e.DX, e.DY
		rec.Vertical, rec.Horizontal = &dy, &dx
		rec.X, rec.Y = &x, &y
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a flat record and validates it against the variant.
func (e *Event) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !rec.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRecord, rec.Action)
	}
	if rec.Duration < 0 || math.IsNaN(rec.Duration) || math.IsInf(rec.Duration, 0) {
		return fmt.Errorf("%w: %s: bad duration %v", ErrInvalidRecord, rec.Action, rec.Duration)
	}

	out := Event{
		Action:   rec.Action,
		Duration: time.Duration(math.Round(rec.Duration * float64(time.Second))),
	}
	if rec.Time != nil {
		out.Timestamp = time.UnixMicro(int64(math.Round(*rec.Time * 1e6)))
	}

	needXY := func() error {
		if rec.X == nil || rec.Y == nil {
			return fmt.Errorf("%w: %s: x and y are required", ErrInvalidRecord, rec.Action)
		}
		out.X, out.Y = *rec.X, *rec.Y
		return nil
	}

	switch rec.Action {
	case ActionKeyPressed, ActionKeyReleased:
		switch {
		case rec.Key != nil && rec.VK != nil:
			return fmt.Errorf("%w: %s: both key and vk present", ErrInvalidRecord, rec.Action)
		case rec.Key != nil:
			out.Key = keyFromString(*rec.Key)
		case rec.VK != nil:
			out.Key = CodeKey(*rec.VK)
		default:
			return fmt.Errorf("%w: %s: key or vk is required", ErrInvalidRecord, rec.Action)
		}
	case ActionMoved:
		if err := needXY(); err != nil {
			return err
		}
	case ActionPointerPressed, ActionPointerReleased:
		if rec.Button == nil {
			return fmt.Errorf("%w: %s: button is required", ErrInvalidRecord, rec.Action)
		}
		out.Button = Button(*rec.Button)
		if err := needXY(); err != nil {
			return err
		}
	case ActionScroll:
		if rec.Vertical == nil || rec.Horizontal == nil {
			return fmt.Errorf("%w: scroll: vertical_direction and horizontal_direction are required", ErrInvalidRecord)
		}
		out.DY, out.DX = *rec.Vertical, *rec.Horizontal
		if err := needXY(); err != nil {
			return err
		}
	}

	if err := out.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	*e = out
	return nil
}

// Marshal serializes a log as an indented JSON array.
func Marshal(l Log) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a JSON array of records.
func Unmarshal(data []byte) (Log, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes l to w as a JSON array.
func Encode(w io.Writer, l Log) error {
	if l == nil {
		l = Log{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// Decode reads a JSON array of records from r. Anything after the array
// other than whitespace is rejected, and the log must pass Validate.
func Decode(r io.Reader) (Log, error) {
	var l Log
	dec := json.NewDecoder(r)
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidRecord)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the array", ErrInvalidRecord)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return l, nil
}
