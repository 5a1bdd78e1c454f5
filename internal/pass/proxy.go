package pass

import (
	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/ident"
	"github.com/danpasecinic/spindle/manifest"
)

// ProxyPass defines a proxy for every named constructor dependency of an
// autowired service that lives in another compilation unit.
type ProxyPass struct {
	env *Env
}

func NewProxyPass(env *Env) *ProxyPass {
	return &ProxyPass{env: env}
}

func (p *ProxyPass) Name() string {
	return "proxy"
}

func (p *ProxyPass) Process(g *definition.Graph) error {
	for _, id := range g.ServiceIDs() {
		def, ok := g.Definition(id)
		if !ok || !def.Autowired || def.Abstract {
			continue
		}

		class, ok := p.env.loadClass(id, def, p.Name())
		if !ok || class.Constructor == nil {
			continue
		}

		for _, param := range class.Constructor.Params {
			if param.Kind != manifest.ParamNamed || param.Type == "" {
				continue
			}
			if _, bound := def.Argument(param.Name); bound {
				continue
			}

			dep := ident.Normalize(param.Type)
			if g.Has(dep) || !p.requiresProxy(dep) {
				continue
			}

			if err := g.SetDefinition(dep, definition.NewProxy(dep)); err != nil {
				return err
			}
			p.env.Logger.Debug("proxy defined", zap.String("service", id), zap.String("dependency", dep))
		}
	}
	return nil
}

// requiresProxy is true for types that cannot be loaded here, and for
// loadable user-defined types of a core or ORM namespace.
func (p *ProxyPass) requiresProxy(typeName string) bool {
	class, ok := p.env.Classes.Lookup(typeName)
	if !ok {
		return true
	}

	if !ident.InAnyNamespace(typeName, p.env.Config.CoreNamespaces) && !p.env.isORM(typeName) {
		return false
	}
	return class.UserDefined()
}
