package container

import (
	"slices"
	"sync"

	"github.com/danpasecinic/spindle/internal/definition"
)

type ServiceEntry struct {
	Key          string
	Definition   *definition.Definition
	Instance     any
	Instantiated bool
	Dependencies []string
}

type Registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceEntry
}

func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]*ServiceEntry),
	}
}

func (r *Registry) Register(key string, def *definition.Definition, dependencies []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.services[key] = &ServiceEntry{
		Key:          key,
		Definition:   def,
		Dependencies: dependencies,
	}
}

// RegisterValue stores an already built instance. A value for a key with a
// definition keeps the definition.
func (r *Registry) RegisterValue(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.services[key]; exists {
		entry.Instance = value
		entry.Instantiated = true
		return
	}
	r.services[key] = &ServiceEntry{
		Key:          key,
		Instance:     value,
		Instantiated: true,
	}
}

func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.services[key]
	return exists
}

func (r *Registry) Get(key string) (*ServiceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.services[key]
	return entry, exists
}

func (r *Registry) GetInstance(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.services[key]
	if !exists || !entry.Instantiated {
		return nil, false
	}
	return entry.Instance, true
}

func (r *Registry) SetInstance(key string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.services[key]; exists {
		entry.Instance = instance
		entry.Instantiated = true
	}
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.services))
	for key := range r.services {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.services)
}

func (r *Registry) Instantiated() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for key, entry := range r.services {
		if entry.Instantiated {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) Dependencies(key string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.services[key]
	if !exists {
		return nil
	}
	return slices.Clone(entry.Dependencies)
}
