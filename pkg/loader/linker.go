package loader

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/modloader/pkg/image"
)

var (
	// ErrSymbolNotFound is returned when a constructor symbol cannot be
	// resolved
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoCode is returned when an image without a code payload is handed
	// to a linker that needs one
	ErrNoCode = errors.New("image has no code payload")
	// ErrPluginUnsupported is returned by PluginLinker on platforms without
	// plugin support
	ErrPluginUnsupported = errors.New("plugins are not supported on this platform")
)

// Symbols resolves exported symbols of a linked image
type Symbols interface {
	Lookup(name string) (any, error)
}

// Linker brings an image's code into the process. Linking may run package
// initialization of the image's code.
type Linker interface {
	Link(img *image.Image, path string) (Symbols, error)
}

// StaticLinker resolves symbols of implementations compiled into the
// process. The image only supplies metadata.
type StaticLinker struct {
	Registry *Registry
}

// NewStaticLinker creates a linker over reg, or the default registry when
// reg is nil
func NewStaticLinker(reg *Registry) *StaticLinker {
	if reg == nil {
		reg = DefaultRegistry
	}
	return &StaticLinker{Registry: reg}
}

// Link returns the symbols registered under the image name
func (l *StaticLinker) Link(img *image.Image, path string) (Symbols, error) {
	if !l.Registry.Has(img.Name) {
		return nil, fmt.Errorf("module %s (%s) is not linked into the process", img.Name, path)
	}
	return registrySymbols{reg: l.Registry, module: img.Name}, nil
}

type registrySymbols struct {
	reg    *Registry
	module string
}

func (s registrySymbols) Lookup(name string) (any, error) {
	return s.reg.Lookup(s.module, name)
}

// PluginLinker writes an image's code payload, a Go plugin, into a cache
// directory keyed by build ID and opens it with the plugin package
type PluginLinker struct {
	CacheDir string
	log      *logrus.Logger
}

// NewPluginLinker creates a plugin linker caching payloads in cacheDir
func NewPluginLinker(cacheDir string, log *logrus.Logger) *PluginLinker {
	if log == nil {
		log = logrus.New()
	}
	return &PluginLinker{CacheDir: cacheDir, log: log}
}

// Link materializes and opens the image's plugin payload
func (l *PluginLinker) Link(img *image.Image, path string) (Symbols, error) {
	if len(img.Code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, path)
	}
	return l.open(img)
}
