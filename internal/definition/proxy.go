package definition

import "strings"

const (
	ProxyFactoryID = "spindle.proxy_factory"

	MethodCreateProxy               = "CreateProxy"
	MethodCreatePluginProviderProxy = "CreatePluginProviderProxy"
)

// NewProxy defines typeName as a proxy resolved through the federated
// resolver on first use.
func NewProxy(typeName string) *Definition {
	typeName = strings.TrimLeft(typeName, `\`)
	return New(typeName).SetFactory(ProxyFactoryID, MethodCreateProxy, Value(typeName))
}

// NewProviderStack defines the collection returned by a dependency
// provider's getter.
func NewProviderStack(provider, method string) *Definition {
	return New("").SetFactory(ProxyFactoryID, MethodCreatePluginProviderProxy, Value(provider), Value(method))
}

func NewProxyFactory() *Definition {
	def := New("")
	def.Synthetic = true
	return def
}

func IsProxy(def *Definition) bool {
	return def.Factory != nil && def.Factory.Service == ProxyFactoryID && def.Factory.Method == MethodCreateProxy
}
