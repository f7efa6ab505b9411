package displaylist

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownBackend is returned by NewBackend for a name no package
// registered.
var ErrUnknownBackend = errors.New("displaylist: unknown backend")

// BackendFactory creates a backend instance.
type BackendFactory func() Backend

// engines maps backend names to factories. Backend packages fill it from
// init; the binary picks one by its configured name.
var engines = struct {
	sync.RWMutex
	byName map[string]BackendFactory
}{byName: make(map[string]BackendFactory)}

// Register makes a backend available to NewBackend under name.
//
// Register panics if name is empty, factory is nil, or name is taken.
func Register(name string, factory BackendFactory) {
	switch {
	case name == "":
		panic("displaylist: Register with empty name")
	case factory == nil:
		panic("displaylist: Register " + name + " with nil factory")
	}

	engines.Lock()
	defer engines.Unlock()
	if _, taken := engines.byName[name]; taken {
		panic("displaylist: backend " + name + " registered twice")
	}
	engines.byName[name] = factory
}

// Unregister removes a backend. Unknown names are ignored.
func Unregister(name string) {
	engines.Lock()
	delete(engines.byName, name)
	engines.Unlock()
}

// NewBackend creates the backend registered under name. For an unknown
// name the error wraps ErrUnknownBackend and lists the registered ones.
func NewBackend(name string) (Backend, error) {
	engines.RLock()
	factory, ok := engines.byName[name]
	engines.RUnlock()

	if !ok {
		known := Backends()
		if len(known) == 0 {
			return nil, fmt.Errorf("%w %q: none registered", ErrUnknownBackend, name)
		}
		return nil, fmt.Errorf("%w %q: have %s", ErrUnknownBackend, name, strings.Join(known, ", "))
	}
	return factory(), nil
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	engines.RLock()
	defer engines.RUnlock()
	return slices.Sorted(maps.Keys(engines.byName))
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	engines.RLock()
	defer engines.RUnlock()
	_, ok := engines.byName[name]
	return ok
}
