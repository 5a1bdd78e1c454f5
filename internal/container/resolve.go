package container

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/lazy"
	"github.com/danpasecinic/spindle/manifest"
)

// deferredService is handed to consumers of a lazy definition. The service
// is built on the first call to Value.
type deferredService struct {
	id   string
	cell *lazy.Cell[any]
}

func (d *deferredService) Value() (any, error) {
	return d.cell.Get()
}

func (d *deferredService) String() string {
	return "lazy(" + d.id + ")"
}

func (c *Container) resolve(key string) (any, error) {
	c.resolvingMu.Lock()
	if c.resolving[key] {
		c.resolvingMu.Unlock()
		return nil, fmt.Errorf("%w detected for: %s", ErrCircularResolution, key)
	}
	c.resolving[key] = true
	c.resolvingMu.Unlock()

	defer func() {
		c.resolvingMu.Lock()
		delete(c.resolving, key)
		c.resolvingMu.Unlock()
	}()

	entry, exists := c.registry.Get(key)
	if !exists {
		return nil, fmt.Errorf("%w: %s in container %s", ErrServiceNotFound, key, c.name)
	}
	if entry.Instantiated {
		return entry.Instance, nil
	}

	instance, err := c.build(key, entry.Definition)
	if err != nil {
		return nil, err
	}

	c.registry.SetInstance(key, instance)
	c.logger.Debug("service built", zap.String("service", key), zap.String("container", c.name))
	return instance, nil
}

func (c *Container) build(key string, def *definition.Definition) (any, error) {
	switch {
	case def.Synthetic:
		return nil, fmt.Errorf("%w: %s", ErrSyntheticNotDefined, key)
	case def.Abstract:
		return nil, fmt.Errorf("%w: %s is abstract", ErrNotInstantiable, key)
	case def.Factory != nil:
		return c.callFactory(key, def)
	}

	class, ok := c.classes.Lookup(def.Class)
	if !ok || class.Factory == nil {
		return nil, fmt.Errorf("%w: %s has no constructor for class %s", ErrNotInstantiable, key, def.Class)
	}

	args, err := c.arguments(def, class)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve arguments for %s: %w", key, err)
	}

	instance, err := class.Factory(manifest.NewArgs(args))
	if err != nil {
		return nil, fmt.Errorf("constructor failed for %s: %w", key, err)
	}
	return instance, nil
}

func (c *Container) callFactory(key string, def *definition.Definition) (any, error) {
	service, err := c.resolve(def.Factory.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve factory %s for %s: %w", def.Factory.Service, key, err)
	}

	invoker, ok := service.(Invoker)
	if !ok {
		return nil, fmt.Errorf("%w: factory %s of %s is %T", ErrNotInstantiable, def.Factory.Service, key, service)
	}

	args := make([]any, 0, len(def.Factory.Arguments))
	for _, arg := range def.Factory.Arguments {
		v, err := c.argument(def, arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve factory arguments for %s: %w", key, err)
		}
		args = append(args, v)
	}

	instance, err := invoker.Invoke(def.Factory.Method, args...)
	if err != nil {
		return nil, fmt.Errorf("factory %s::%s failed for %s: %w", def.Factory.Service, def.Factory.Method, key, err)
	}
	return instance, nil
}

// arguments evaluates the bound arguments of def and, for autowired
// definitions, every named constructor parameter whose type the graph
// defines.
func (c *Container) arguments(def *definition.Definition, class *manifest.Class) (map[string]any, error) {
	args := make(map[string]any, len(def.Arguments))
	for _, name := range def.ArgumentNames() {
		v, err := c.argument(def, def.Arguments[name])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		args[name] = v
	}

	if !def.Autowired || class.Constructor == nil {
		return args, nil
	}

	for _, param := range class.Constructor.Params {
		if param.Kind != manifest.ParamNamed {
			continue
		}
		if _, bound := args[param.Name]; bound {
			continue
		}

		dep := normalize(param.Type)
		if !c.registry.Has(dep) {
			continue
		}

		v, err := c.reference(dep)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", param.Name, err)
		}
		args[param.Name] = v
	}
	return args, nil
}

func (c *Container) argument(def *definition.Definition, arg definition.Argument) (any, error) {
	switch {
	case arg.IsRef():
		return c.reference(arg.Ref)
	case arg.IsTagged():
		return c.tagged(arg.Tagged, def.Class)
	}
	return c.parameter(arg.Value)
}

// reference resolves a dependency. Dependencies on lazy definitions are
// handed over unbuilt.
func (c *Container) reference(id string) (any, error) {
	entry, ok := c.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s in container %s", ErrServiceNotFound, id, c.name)
	}

	if entry.Definition != nil && entry.Definition.Lazy && !entry.Instantiated {
		return &deferredService{
			id: id,
			cell: lazy.New(func() (any, error) {
				return c.resolve(id)
			}),
		}, nil
	}
	return c.resolve(id)
}

func (c *Container) tagged(tag, consumer string) ([]any, error) {
	ids := c.graph.Tagged(tag, consumer)
	services := make([]any, 0, len(ids))
	for _, id := range ids {
		v, err := c.reference(id)
		if err != nil {
			return nil, fmt.Errorf("tagged %s: %w", tag, err)
		}
		services = append(services, v)
	}
	return services, nil
}

// parameter replaces a "%name%" literal with the parameter of that name.
func (c *Container) parameter(v any) (any, error) {
	s, ok := v.(string)
	if !ok || len(s) < 3 || !strings.HasPrefix(s, "%") || !strings.HasSuffix(s, "%") || strings.Count(s, "%") != 2 {
		return v, nil
	}

	name := s[1 : len(s)-1]
	value, ok := c.graph.Parameter(name)
	if !ok {
		return nil, fmt.Errorf("parameter %s not defined in container %s", name, c.name)
	}
	return value, nil
}

func normalize(id string) string {
	return strings.TrimLeft(id, `\`)
}
