package loader

import (
	"fmt"

	"github.com/platinummonkey/modloader/pkg/image"
)

// Skip reasons reported by Discover
const (
	SkipNoConstructor = "no parameterless constructor"
	SkipUnresolved    = "constructor symbol unresolved"
	SkipBadSignature  = "constructor has an unsupported signature"
)

// Factory builds one instance of an implementation type
type Factory[T any] struct {
	TypeName string
	New      func() (T, error)
}

// Skipped reports an implementation type that cannot be constructed
type Skipped struct {
	TypeName string
	Reason   string
	Err      error
}

func (s Skipped) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %s: %v", s.TypeName, s.Reason, s.Err)
	}
	return fmt.Sprintf("%s: %s", s.TypeName, s.Reason)
}

// Discover returns a factory for every concrete type of img whose base type
// chain reaches contract, in table order. Types without a usable
// constructor are reported in the skipped list and do not stop discovery;
// a symbol that fails to resolve only costs its own type.
//
// Accepted constructor symbols are func() T, func() (T, error) and pointers
// to either, which is what plugin lookups of function variables return.
func Discover[T any](img *image.Image, syms Symbols, contract string) ([]Factory[T], []Skipped) {
	var (
		factories []Factory[T]
		skipped   []Skipped
	)

	for i, t := range img.Types {
		if !t.IsConcrete() || !img.InheritsFrom(i, contract) {
			continue
		}
		name := t.FullName()

		if t.Constructor == "" {
			skipped = append(skipped, Skipped{TypeName: name, Reason: SkipNoConstructor})
			continue
		}

		sym, err := syms.Lookup(t.Constructor)
		if err != nil {
			skipped = append(skipped, Skipped{TypeName: name, Reason: SkipUnresolved, Err: err})
			continue
		}

		ctor, ok := constructor[T](sym)
		if !ok {
			skipped = append(skipped, Skipped{
				TypeName: name,
				Reason:   SkipBadSignature,
				Err:      fmt.Errorf("%s is %T", t.Constructor, sym),
			})
			continue
		}

		factories = append(factories, Factory[T]{TypeName: name, New: ctor})
	}

	return factories, skipped
}

func constructor[T any](sym any) (func() (T, error), bool) {
	switch f := sym.(type) {
	case func() T:
		return func() (T, error) { return f(), nil }, true
	case func() (T, error):
		return f, true
	case *func() T:
		if f == nil || *f == nil {
			return nil, false
		}
		fn := *f
		return func() (T, error) { return fn(), nil }, true
	case *func() (T, error):
		if f == nil || *f == nil {
			return nil, false
		}
		return *f, true
	default:
		return nil, false
	}
}
