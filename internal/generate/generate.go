// Package generate builds synthetic event logs for demos and tests.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

const (
	// PatternTyping presses and releases the characters of Options.Text.
	PatternTyping = "typing"
	// PatternPointer moves the pointer around a circle, clicking and
	// scrolling along the way.
	PatternPointer = "pointer"
	// PatternMixed interleaves typing and pointer activity at random.
	PatternMixed = "mixed"
)

// minMoveGap keeps generated moves at least as far apart as a capture
// would.
const minMoveGap = 50 * time.Millisecond

// DefaultText is typed when Options.Text is empty.
const DefaultText = "hello world"

// Options controls how a synthetic log is generated.
type Options struct {
	// Count is the number of events to produce.
	Count    int
	Duration time.Duration
	Pattern  string
	Text     string
	Start    time.Time
	Seed     int64
	// Width and Height bound pointer coordinates.
	Width  int
	Height int
}

// DefaultOptions returns defaults aligned with the CLI.
func DefaultOptions() Options {
	return Options{
		Count:    40,
		Duration: 10 * time.Second,
		Pattern:  PatternMixed,
		Text:     DefaultText,
		Width:    1920,
		Height:   1080,
	}
}

// Log creates a synthetic log. The result always validates: the first
// duration is zero and durations match the timestamp gaps.
func Log(opts Options) (event.Log, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", opts.Duration)
	}

	def := DefaultOptions()
	if opts.Pattern == "" {
		opts.Pattern = def.Pattern
	}
	if opts.Text == "" {
		opts.Text = def.Text
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().Truncate(time.Second)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	b := &builder{
		rng:  rand.New(rand.NewSource(opts.Seed)),
		opts: opts,
		at:   opts.Start,
		step: opts.Duration / time.Duration(opts.Count),
		log:  make(event.Log, 0, opts.Count),
	}

	switch opts.Pattern {
	case PatternPointer:
		b.pointer()
	case PatternMixed:
		b.mixed()
	default: // typing and unknown patterns.
		b.typing()
	}
	return b.log, nil
}

// Patterns lists the names Log understands.
func Patterns() []string {
	return []string{PatternTyping, PatternPointer, PatternMixed}
}

type builder struct {
	rng  *rand.Rand
	opts Options
	at   time.Time
	step time.Duration
	log  event.Log

	char  int
	angle float64
	moves int
}

func (b *builder) full() bool { return len(b.log) >= b.opts.Count }

func (b *builder) add(e event.Event, gap time.Duration) {
	if b.full() {
		return
	}
	if len(b.log) == 0 {
		gap = 0
	}
	b.at = b.at.Add(gap)
	b.log = append(b.log, e.At(b.at).After(gap))
}

func (b *builder) typing() {
	for !b.full() {
		b.typeNext()
	}
}

func (b *builder) typeNext() {
	runes := []rune(b.opts.Text)
	k := keyFor(runes[b.char%len(runes)])
	b.char++

	hold := b.step / 2
	if hold <= 0 {
		hold = time.Millisecond
	}
	hold += time.Duration(b.rng.Int63n(int64(hold)/2 + 1))
	b.add(event.KeyPressed(k), b.step)
	b.add(event.KeyReleased(k), hold)
}

func (b *builder) pointer() {
	for !b.full() {
		b.pointerNext()
	}
}

func (b *builder) pointerNext() {
	x, y := b.position()
	gap := max(b.step, minMoveGap)
	b.add(event.Moved(x, y), gap)
	b.moves++

	switch {
	case b.moves%10 == 0:
		btn := event.ButtonLeft
		if b.rng.Intn(4) == 0 {
			btn = event.ButtonRight
		}
		b.add(event.PointerPressed(btn, x, y), b.step)
		b.add(event.PointerReleased(btn, x, y), b.step/2)
	case b.moves%15 == 0:
		dy := -1
		if b.rng.Intn(2) == 0 {
			dy = 1
		}
		b.add(event.Scrolled(x, y, 0, dy), b.step)
	}
}

func (b *builder) mixed() {
	for !b.full() {
		if b.rng.Intn(2) == 0 {
			b.typeNext()
		} else {
			b.pointerNext()
		}
	}
}

// position walks a circle centred on the screen.
func (b *builder) position() (int, int) {
	b.angle += math.Pi / 12
	r := float64(min(b.opts.Width, b.opts.Height)) / 3
	x := float64(b.opts.Width)/2 + r*math.Cos(b.angle)
	y := float64(b.opts.Height)/2 + r*math.Sin(b.angle)
	return int(math.Round(x)), int(math.Round(y))
}

func keyFor(r rune) event.Key {
	switch r {
	case ' ':
		return event.NamedKey("space")
	case '\n':
		return event.NamedKey("enter")
	case '\t':
		return event.NamedKey("tab")
	default:
		return event.CharKey(string(r))
	}
}
