// Package spindletest provides fake containers and resolver helpers for
// tests.
package spindletest

import (
	"maps"
	"sync"

	"github.com/danpasecinic/spindle"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

// MapContainer is a map-backed container that counts Get calls.
type MapContainer struct {
	mu         sync.Mutex
	name       string
	services   map[string]any
	errs       map[string]error
	parameters map[string]any
	removed    map[string]bool
	gets       map[string]int
}

func NewMapContainer(name string) *MapContainer {
	return &MapContainer{
		name:       name,
		services:   make(map[string]any),
		errs:       make(map[string]error),
		parameters: make(map[string]any),
		removed:    make(map[string]bool),
		gets:       make(map[string]int),
	}
}

func (c *MapContainer) With(id string, service any) *MapContainer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[id] = service
	return c
}

func (c *MapContainer) WithError(id string, err error) *MapContainer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[id] = err
	return c
}

func (c *MapContainer) WithParameter(name string, value any) *MapContainer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parameters[name] = value
	return c
}

func (c *MapContainer) WithRemoved(ids ...string) *MapContainer {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.removed[id] = true
	}
	return c
}

func (c *MapContainer) Name() string {
	return c.name
}

func (c *MapContainer) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.services[id]
	_, failing := c.errs[id]
	return ok || failing
}

func (c *MapContainer) Get(id string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets[id]++
	if err, ok := c.errs[id]; ok {
		return nil, err
	}
	return c.services[id], nil
}

func (c *MapContainer) HasParameter(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.parameters[name]
	return ok
}

func (c *MapContainer) GetParameter(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parameters[name], nil
}

func (c *MapContainer) RemovedIDs() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.removed)
}

func (c *MapContainer) ParameterBag() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.parameters)
}

// Gets returns how often id was fetched.
func (c *MapContainer) Gets(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets[id]
}

// Plain hides every optional capability of the container.
func (c *MapContainer) Plain() spindle.Container {
	return plain{c: c}
}

type plain struct {
	c *MapContainer
}

func (p plain) Has(id string) bool         { return p.c.Has(id) }
func (p plain) Get(id string) (any, error) { return p.c.Get(id) }

// NewResolver returns a resolver that is reset when the test ends.
func NewResolver(tb TB, opts ...spindle.Option) *spindle.Resolver {
	tb.Helper()

	r := spindle.New(opts...)
	tb.Cleanup(r.Reset)
	return r
}

func RequireGet(tb TB, r *spindle.Resolver, id string) any {
	tb.Helper()

	v, err := r.Get(id)
	if err != nil {
		tb.Fatalf("failed to resolve %s: %v", id, err)
	}
	return v
}

func RequireNotFound(tb TB, r *spindle.Resolver, id string) *spindle.Error {
	tb.Helper()

	_, err := r.Get(id)
	if !spindle.IsNotFound(err) {
		tb.Fatalf("expected %s to be not found, got %v", id, err)
	}
	e, _ := err.(*spindle.Error)
	return e
}

func RequireSet(tb TB, r *spindle.Resolver, id string, service any) {
	tb.Helper()

	if err := r.Set(id, service); err != nil {
		tb.Fatalf("failed to set %s: %v", id, err)
	}
}
