package manifest

import "fmt"

// Deferred is a value produced on first use, such as a proxy or a lazily
// injected service.
type Deferred interface {
	Value() (any, error)
}

// Args are the constructor arguments handed to a FactoryFunc, keyed by
// parameter name.
type Args struct {
	values map[string]any
}

func NewArgs(values map[string]any) Args {
	if values == nil {
		values = make(map[string]any)
	}
	return Args{values: values}
}

func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a Args) Len() int {
	return len(a.values)
}

func (a Args) Raw(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Get returns the argument, forcing it when it is Deferred.
func (a Args) Get(name string) (any, error) {
	v, ok := a.values[name]
	if !ok {
		return nil, fmt.Errorf("argument %q not bound", name)
	}
	return Force(v)
}

func (a Args) Deferred(name string) (Deferred, bool) {
	d, ok := a.values[name].(Deferred)
	return d, ok
}

func Force(v any) (any, error) {
	if d, ok := v.(Deferred); ok {
		return d.Value()
	}
	return v, nil
}

func Arg[T any](a Args, name string) (T, error) {
	var zero T

	v, err := a.Get(name)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("argument %q is %T, not %T", name, v, zero)
	}
	return typed, nil
}
