// Package container materializes services from a compiled definition graph.
package container

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrCircularResolution  = errors.New("circular resolution")
	ErrNotInstantiable     = errors.New("service cannot be instantiated")
	ErrSyntheticNotDefined = errors.New("synthetic service not set")
)

// Invoker is implemented by services that factory definitions call into.
type Invoker interface {
	Invoke(method string, args ...any) (any, error)
}

type Config struct {
	Name    string
	Graph   *definition.Graph
	Classes *manifest.Registry
	Logger  *zap.Logger
}

type Container struct {
	name     string
	graph    *definition.Graph
	classes  *manifest.Registry
	registry *Registry
	logger   *zap.Logger

	resolving   map[string]bool
	resolvingMu sync.Mutex
}

// New compiles the graph when that has not happened yet and registers every
// definition.
func New(cfg *Config) (*Container, error) {
	if cfg.Graph == nil {
		return nil, fmt.Errorf("container %s: no definition graph", cfg.Name)
	}
	if err := cfg.Graph.Compile(); err != nil {
		return nil, fmt.Errorf("container %s: %w", cfg.Name, err)
	}

	classes := cfg.Classes
	if classes == nil {
		classes = manifest.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		name:      cfg.Name,
		graph:     cfg.Graph,
		classes:   classes,
		registry:  NewRegistry(),
		logger:    logger,
		resolving: make(map[string]bool),
	}

	for _, id := range cfg.Graph.CompiledOrder() {
		def, _ := cfg.Graph.Definition(id)
		c.registry.Register(id, def, cfg.Graph.Dependencies(id))
	}
	return c, nil
}

func (c *Container) Name() string {
	return c.name
}

// Set injects the instance of a synthetic service, or replaces any service
// that has not been built yet.
func (c *Container) Set(id string, instance any) {
	c.registry.RegisterValue(normalize(id), instance)
}

// Has reports public services only.
func (c *Container) Has(id string) bool {
	entry, ok := c.registry.Get(normalize(id))
	if !ok {
		return false
	}
	if entry.Definition == nil {
		return true
	}
	return entry.Definition.Public && !entry.Definition.Abstract
}

func (c *Container) Get(id string) (any, error) {
	id = normalize(id)
	if !c.Has(id) {
		return nil, fmt.Errorf("%w: %s in container %s", ErrServiceNotFound, id, c.name)
	}
	return c.resolve(id)
}

// IDs lists the public service ids.
func (c *Container) IDs() []string {
	var ids []string
	for _, id := range c.registry.Keys() {
		if c.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemovedIDs lists the services that are only reachable as dependencies.
func (c *Container) RemovedIDs() map[string]bool {
	removed := make(map[string]bool)
	for _, id := range c.registry.Keys() {
		if !c.Has(id) {
			removed[id] = true
		}
	}
	return removed
}

func (c *Container) Initialized(id string) bool {
	_, ok := c.registry.GetInstance(normalize(id))
	return ok
}

func (c *Container) Instantiated() []string {
	return c.registry.Instantiated()
}

func (c *Container) HasParameter(name string) bool {
	_, ok := c.graph.Parameter(name)
	return ok
}

func (c *Container) GetParameter(name string) (any, error) {
	v, ok := c.graph.Parameter(name)
	if !ok {
		return nil, fmt.Errorf("parameter %s not defined in container %s", name, c.name)
	}
	return v, nil
}

func (c *Container) ParameterBag() map[string]any {
	return c.graph.Parameters()
}

func (c *Container) Dependencies(id string) []string {
	return c.registry.Dependencies(normalize(id))
}

func (c *Container) Definitions() map[string]*definition.Definition {
	defs := make(map[string]*definition.Definition, c.graph.Size())
	for _, id := range c.graph.ServiceIDs() {
		def, _ := c.graph.Definition(id)
		defs[id] = def
	}
	return defs
}

func (c *Container) Size() int {
	return c.registry.Size()
}
