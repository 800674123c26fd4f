package loader

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps module names to the constructor symbols of statically linked
// implementations. Implementations register from init():
//
//	func init() {
//		loader.MustRegister("ModuleLoader.MyMod", "NewCore", NewCore)
//	}
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]any)}
}

// DefaultRegistry is the process-wide registry used by the package-level
// functions
var DefaultRegistry = NewRegistry()

// Register adds a symbol to a module
func (r *Registry) Register(module, symbol string, value any) error {
	if module == "" || symbol == "" {
		return fmt.Errorf("cannot register symbol %q of module %q: empty name", symbol, module)
	}
	if value == nil {
		return fmt.Errorf("cannot register nil symbol %s.%s", module, symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	syms, exists := r.modules[module]
	if !exists {
		syms = make(map[string]any)
		r.modules[module] = syms
	}
	if _, exists := syms[symbol]; exists {
		return fmt.Errorf("symbol already registered: %s.%s", module, symbol)
	}

	syms[symbol] = value
	return nil
}

// Unregister removes a module and all its symbols
func (r *Registry) Unregister(module string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[module]; !exists {
		return fmt.Errorf("module not registered: %s", module)
	}

	delete(r.modules, module)
	return nil
}

// Lookup retrieves a symbol of a module
func (r *Registry) Lookup(module, symbol string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.modules[module][symbol]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrSymbolNotFound, module, symbol)
	}

	return value, nil
}

// Has checks if a module has registered symbols
func (r *Registry) Has(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.modules[module]
	return exists
}

// Modules returns the registered module names, sorted
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.modules))
	for name := range r.modules {
		result = append(result, name)
	}
	sort.Strings(result)

	return result
}

// Clear removes all modules from the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules = make(map[string]map[string]any)
}

// Register adds a symbol to the default registry
func Register(module, symbol string, value any) error {
	return DefaultRegistry.Register(module, symbol, value)
}

// MustRegister is like Register but panics on error
func MustRegister(module, symbol string, value any) {
	if err := Register(module, symbol, value); err != nil {
		panic(err)
	}
}
