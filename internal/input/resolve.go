package input

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// Resolver maps a raw key to an identifier. ok is false when this resolver
// has nothing to say about the key.
type Resolver interface {
	Resolve(raw RawKey) (k event.Key, ok bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(raw RawKey) (event.Key, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(raw RawKey) (event.Key, bool) { return f(raw) }

// Chain tries resolvers in order and returns the first answer.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(raw RawKey) (event.Key, bool) {
	for _, r := range c {
		if k, ok := r.Resolve(raw); ok {
			return k, true
		}
	}
	return event.Key{}, false
}

// ByChar accepts a single printable character.
var ByChar = ResolverFunc(func(raw RawKey) (event.Key, bool) {
	if utf8.RuneCountInString(raw.Char) != 1 {
		return event.Key{}, false
	}
	r, _ := utf8.DecodeRuneInString(raw.Char)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return event.Key{}, false
	}
	return event.CharKey(raw.Char), true
})

// ByName accepts a symbolic name of two or more characters.
var ByName = ResolverFunc(func(raw RawKey) (event.Key, bool) {
	if utf8.RuneCountInString(raw.Name) < 2 {
		return event.Key{}, false
	}
	return event.NamedKey(raw.Name), true
})

// ByCode accepts any key that carries a virtual-key code.
var ByCode = ResolverFunc(func(raw RawKey) (event.Key, bool) {
	if !raw.HasCode || raw.Code < 0 {
		return event.Key{}, false
	}
	return event.CodeKey(raw.Code), true
})

// DefaultResolver prefers the character, then the name, then the code.
func DefaultResolver() Chain {
	return Chain{ByChar, ByName, ByCode}
}

// ResolveKey runs r and reports ErrUnresolvableKey when nothing matched.
func ResolveKey(r Resolver, raw RawKey) (event.Key, error) {
	if r == nil {
		r = DefaultResolver()
	}
	k, ok := r.Resolve(raw)
	if !ok {
		return event.Key{}, fmt.Errorf("%w: %+v", ErrUnresolvableKey, raw)
	}
	return k, nil
}
