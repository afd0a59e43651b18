package generate

import (
	internalgenerate "github.com/SmitUplenchwar2687/macrokit/internal/generate"
	"github.com/SmitUplenchwar2687/macrokit/pkg/event"
)

const (
	PatternTyping  = internalgenerate.PatternTyping
	PatternPointer = internalgenerate.PatternPointer
	PatternMixed   = internalgenerate.PatternMixed
)

// Options controls how a synthetic log is generated.
type Options = internalgenerate.Options

// DefaultOptions returns defaults aligned with the CLI.
func DefaultOptions() Options {
	return internalgenerate.DefaultOptions()
}

// Log creates a synthetic recording.
func Log(opts Options) (event.Log, error) {
	return internalgenerate.Log(opts)
}
