package loader

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/modloader/pkg/image"
)

var (
	// ErrLoadFailed is returned when an image cannot be read or linked
	ErrLoadFailed = errors.New("failed to load implementation image")
	// ErrNoImplementations is returned when an image declares no
	// constructible implementation of the contract
	ErrNoImplementations = errors.New("no constructible implementations")
)

// Load reads the image at path, links it and constructs every
// implementation of contract in discovery order. Linking is a real load:
// package initialization of the image's code runs. Types that cannot be
// constructed are returned in the skipped list; a constructor failure is
// returned as a *ConstructionError.
func Load[T any](path string, linker Linker, contract string) ([]Instance[T], []Skipped, error) {
	factories, skipped, err := LinkFile[T](path, linker, contract)
	if err != nil {
		return nil, skipped, err
	}

	instances, err := Construct(factories)
	if err != nil {
		return nil, skipped, err
	}
	return instances, skipped, nil
}

// LinkFile is the registration phase of Load: it reads and links the image
// and returns the factories of its implementations without invoking them
func LinkFile[T any](path string, linker Linker, contract string) ([]Factory[T], []Skipped, error) {
	img, err := image.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}

	syms, err := linker.Link(img, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}

	factories, skipped := Discover[T](img, syms, contract)
	if len(factories) == 0 {
		return nil, skipped, fmt.Errorf("%w: %s declares none of %s", ErrNoImplementations, path, contract)
	}
	return factories, skipped, nil
}
