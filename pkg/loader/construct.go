package loader

import (
	"fmt"

	"github.com/platinummonkey/modloader/pkg/observability"
)

// Instance is a constructed extension together with its type name
type Instance[T any] struct {
	TypeName string
	Value    T
}

// ConstructionError reports an implementation whose constructor failed or
// panicked. It aborts the whole resolution.
type ConstructionError struct {
	TypeName string
	Err      error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s: %v", e.TypeName, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Construct invokes the factories in order. The first error or panic stops
// construction and is returned as a *ConstructionError; no instances are
// returned in that case.
func Construct[T any](factories []Factory[T]) ([]Instance[T], error) {
	instances := make([]Instance[T], 0, len(factories))
	for _, f := range factories {
		v, err := build(f)
		if err != nil {
			return nil, &ConstructionError{TypeName: f.TypeName, Err: err}
		}
		instances = append(instances, Instance[T]{TypeName: f.TypeName, Value: v})
	}
	return instances, nil
}

func build[T any](f Factory[T]) (v T, err error) {
	defer func() {
		if rerr := observability.MustRecover(recover()); rerr != nil {
			err = rerr
		}
	}()
	return f.New()
}

// Order sorts instances by the position of their type name in order.
// Listed types come first in list order; the rest keep their relative
// order after them.
func Order[T any](instances []Instance[T], order []string) []Instance[T] {
	if len(order) == 0 {
		return instances
	}

	listed := make(map[string]bool, len(order))
	out := make([]Instance[T], 0, len(instances))
	for _, name := range order {
		if listed[name] {
			continue
		}
		listed[name] = true
		for _, inst := range instances {
			if inst.TypeName == name {
				out = append(out, inst)
			}
		}
	}
	for _, inst := range instances {
		if !listed[inst.TypeName] {
			out = append(out, inst)
		}
	}
	return out
}

// Values strips the type names
func Values[T any](instances []Instance[T]) []T {
	out := make([]T, len(instances))
	for i, inst := range instances {
		out[i] = inst.Value
	}
	return out
}
