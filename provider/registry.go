package provider

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Factory builds a Backend from cfg. Backend packages register one each.
type Factory func(cfg Config) (Backend, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register makes a backend available to New under name. It is meant to be
// called from init and panics if name is taken:
//
//	func init() {
//	    provider.Register("local", fromProviderConfig)
//	}
func Register(name string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()

	if _, taken := registry.factories[name]; taken {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	registry.factories[name] = factory
}

// New builds the backend registered as name. Unregistered names yield
// ErrUnknownProvider; usually the backend package was not imported.
func New(name string, cfg Config) (Backend, error) {
	registry.RLock()
	factory := registry.factories[name]
	registry.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownProvider, name, Available())
	}
	return factory(cfg)
}

// Available lists the registered names in sorted order.
func Available() []string {
	registry.RLock()
	defer registry.RUnlock()
	return slices.Sorted(maps.Keys(registry.factories))
}

// IsRegistered reports whether name has a factory.
func IsRegistered(name string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.factories[name]
	return ok
}

// ClearRegistry drops every factory. Tests use it to install fakes.
func ClearRegistry() {
	registry.Lock()
	defer registry.Unlock()
	clear(registry.factories)
}
