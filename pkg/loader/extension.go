package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ExtensionPoint resolves its extensions on first use and forwards host
// lifecycle calls to them in order. The host may reach the extension point
// through more than one lifecycle hook; resolution still runs once.
type ExtensionPoint[T any] struct {
	resolver *Resolver[T]

	once      sync.Once
	instances []T
	report    *Report
	err       error
}

// NewExtensionPoint wraps a resolver
func NewExtensionPoint[T any](r *Resolver[T]) *ExtensionPoint[T] {
	return &ExtensionPoint[T]{resolver: r}
}

// Load resolves the extensions on the first call and returns the same
// result on every later call
func (e *ExtensionPoint[T]) Load(ctx context.Context) ([]T, error) {
	e.once.Do(func() {
		e.instances, e.report, e.err = e.resolver.Resolve(ctx)
	})
	return e.instances, e.err
}

// Report returns the resolution report, or nil before Load
func (e *ExtensionPoint[T]) Report() *Report {
	return e.report
}

// Dispatch calls hook on every extension in order, loading them first if
// needed. A failing hook does not stop the others; all errors are joined.
func (e *ExtensionPoint[T]) Dispatch(ctx context.Context, hook func(T) error) error {
	instances, err := e.Load(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for i, inst := range instances {
		if err := hook(inst); err != nil {
			name := fmt.Sprintf("#%d", i)
			if e.report != nil && i < len(e.report.Instances) {
				name = e.report.Instances[i]
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
