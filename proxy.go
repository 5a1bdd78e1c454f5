package spindle

import (
	"fmt"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/lazy"
	"github.com/danpasecinic/spindle/manifest"
)

// Proxy stands in for a service that lives in another compilation unit. The
// first call to Value resolves it through the resolver; later calls return
// the same instance. A failed resolution is not cached, so the next Value
// call resolves again.
type Proxy struct {
	typeName string
	cell     *lazy.Cell[any]
}

func (p *Proxy) TypeName() string {
	return p.typeName
}

func (p *Proxy) Value() (any, error) {
	return p.cell.Get()
}

func (p *Proxy) Initialized() bool {
	return p.cell.Initialized()
}

func (p *Proxy) String() string {
	return fmt.Sprintf("proxy(%s)", p.typeName)
}

type ProxyFactory struct {
	resolver *Resolver
	classes  *manifest.Registry
}

func NewProxyFactory(r *Resolver, classes *manifest.Registry) *ProxyFactory {
	if classes == nil {
		classes = manifest.NewRegistry()
	}
	return &ProxyFactory{resolver: r, classes: classes}
}

func (f *ProxyFactory) CreateProxy(typeName string) *Proxy {
	return &Proxy{
		typeName: typeName,
		cell: lazy.New(func() (any, error) {
			return f.resolver.Get(typeName)
		}),
	}
}

// CreatePluginProviderProxy returns the collection produced by the getter
// of a dependency provider. The provider is taken from the resolver when it
// holds one and is otherwise built without arguments.
func (f *ProxyFactory) CreatePluginProviderProxy(providerClass, getter string) (any, error) {
	class, ok := f.classes.Lookup(providerClass)
	if !ok {
		return nil, errProviderFailed(providerClass, fmt.Errorf("no manifest registered"))
	}

	method, ok := class.Method(getter)
	if !ok {
		return nil, errProviderFailed(providerClass, fmt.Errorf("no method %q", getter))
	}

	var provider any
	if f.resolver.Has(providerClass) {
		v, err := f.resolver.Get(providerClass)
		if err != nil {
			return nil, errProviderFailed(providerClass, err)
		}
		provider = v
	} else {
		if class.Factory == nil {
			return nil, errProviderFailed(providerClass, fmt.Errorf("class cannot be constructed"))
		}
		v, err := class.Factory(manifest.NewArgs(nil))
		if err != nil {
			return nil, errProviderFailed(providerClass, err)
		}
		provider = v
	}

	stack, err := method(provider)
	if err != nil {
		return nil, errProviderFailed(providerClass, err)
	}
	return stack, nil
}

// Invoke dispatches a factory call made by a compiled container.
func (f *ProxyFactory) Invoke(method string, args ...any) (any, error) {
	switch method {
	case definition.MethodCreateProxy:
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", method, len(args))
		}
		typeName, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a type name, got %T", method, args[0])
		}
		return f.CreateProxy(typeName), nil

	case definition.MethodCreatePluginProviderProxy:
		if len(args) != 2 {
			return nil, fmt.Errorf("%s expects 2 arguments, got %d", method, len(args))
		}
		provider, ok1 := args[0].(string)
		getter, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s expects provider and method names", method)
		}
		return f.CreatePluginProviderProxy(provider, getter)
	}

	return nil, fmt.Errorf("proxy factory has no method %q", method)
}
