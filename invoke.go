package spindle

import (
	"fmt"

	"github.com/danpasecinic/spindle/internal/reflect"
	"github.com/danpasecinic/spindle/manifest"
)

// Get resolves id and asserts the result to T, forcing proxies and other
// deferred values along the way.
func Get[T any](r *Resolver, id string) (T, error) {
	var zero T

	v, err := r.Get(id)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, errServiceNotFound(id, r.LastChecks())
	}
	return Deref[T](v)
}

func MustGet[T any](r *Resolver, id string) T {
	v, err := Get[T](r, id)
	if err != nil {
		panic(err)
	}
	return v
}

func Find[T any](r *Resolver, id string) (T, bool) {
	var zero T
	if !r.Has(id) {
		return zero, false
	}

	v, err := Get[T](r, id)
	if err != nil {
		return zero, false
	}
	return v, true
}

// Deref returns v as T. A deferred v that is not itself a T is forced
// first.
func Deref[T any](v any) (T, error) {
	var zero T

	if typed, ok := v.(T); ok {
		return typed, nil
	}

	if d, ok := v.(manifest.Deferred); ok {
		inner, err := d.Value()
		if err != nil {
			return zero, err
		}
		return Deref[T](inner)
	}

	return zero, fmt.Errorf("service is %s, not %s", reflect.TypeNameOf(v), reflect.TypeName[T]())
}
