package cl

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Driver registry. Driver packages register themselves from init() when they
// are usable on the running system; Default picks the registered driver with
// the highest priority, so a loaded opencl driver wins over the software
// fallback.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]registeredDriver)
)

type registeredDriver struct {
	driver   Driver
	priority int
}

// Register adds a driver under its Name. A driver registered under an
// already-registered name replaces the previous one.
func Register(d Driver, priority int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[d.Name()] = registeredDriver{driver: d, priority: priority}
}

// Unregister removes a driver from the registry. Useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns the registered driver names, highest priority first.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := drivers[names[i]], drivers[names[j]]
		if di.priority != dj.priority {
			return di.priority > dj.priority
		}
		return names[i] < names[j]
	})
	return names
}

// Get returns the driver registered under name.
func Get(name string) (Driver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	entry, ok := drivers[name]
	if !ok {
		return nil, errors.Errorf("no compute driver registered under %q", name)
	}
	return entry.driver, nil
}

// Default returns the registered driver with the highest priority.
func Default() (Driver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var best Driver
	bestPriority := 0
	for _, entry := range drivers {
		if best == nil || entry.priority > bestPriority {
			best = entry.driver
			bestPriority = entry.priority
		}
	}
	if best == nil {
		return nil, errors.New("no compute driver available; import a driver package such as cl/cpu")
	}
	return best, nil
}

// MustDefault returns the default driver or panics.
func MustDefault() Driver {
	d, err := Default()
	if err != nil {
		panic(err)
	}
	return d
}
