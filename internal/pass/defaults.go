package pass

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/ident"
	"github.com/danpasecinic/spindle/internal/modules"
	"github.com/danpasecinic/spindle/manifest"
)

// DefaultsPass binds the Facade, Client and Service interface of every
// known module so the proxy pass does not have to proxy them.
type DefaultsPass struct {
	env *Env
}

func NewDefaultsPass(env *Env) *DefaultsPass {
	return &DefaultsPass{env: env}
}

func (p *DefaultsPass) Name() string {
	return "defaults"
}

func (p *DefaultsPass) Process(g *definition.Graph) error {
	for _, m := range p.env.Modules.All() {
		for _, iface := range DefaultInterfaces(m) {
			if err := p.register(g, iface); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultInterfaces returns the conventional interface ids of a module.
func DefaultInterfaces(m modules.Module) []string {
	return []string{
		fmt.Sprintf(`%s\Zed\%s\Business\%sFacadeInterface`, m.Organization, m.Name, m.Name),
		fmt.Sprintf(`%s\Client\%s\%sClientInterface`, m.Organization, m.Name, m.Name),
		fmt.Sprintf(`%s\Service\%s\%sServiceInterface`, m.Organization, m.Name, m.Name),
	}
}

func (p *DefaultsPass) register(g *definition.Graph, iface string) error {
	if !p.env.Classes.IsInterface(iface) || g.Has(iface) {
		return nil
	}

	resolved, ok := p.resolveClass(iface)
	if !ok {
		proxy := definition.NewProxy(iface)
		proxy.Public = true
		p.env.Logger.Debug("default bound to proxy", zap.String("interface", iface))
		return g.SetDefinition(iface, proxy)
	}

	def := definition.New(resolved)
	def.Public = true
	def.Autowired = true
	p.markDependenciesLazy(g, resolved)

	id := iface
	if p.env.Classes.IsInterface(resolved + "Interface") {
		id = resolved + "Interface"
	}

	p.env.Logger.Debug("default bound", zap.String("interface", id), zap.String("class", resolved))
	return g.SetDefinition(id, def)
}

// resolveClass probes every project namespace, then the core name, for the
// implementation of a core interface.
func (p *DefaultsPass) resolveClass(iface string) (string, bool) {
	org := ident.Namespace(iface)
	if !p.env.Config.IsCoreNamespace(org) {
		return "", false
	}

	className := strings.TrimSuffix(iface, "Interface")
	candidates := make([]string, 0, len(p.env.Config.ProjectNamespaces)+1)
	for _, ns := range p.env.Config.ProjectNamespaces {
		candidates = append(candidates, ident.WithNamespace(className, ns))
	}
	candidates = append(candidates, className)

	for _, candidate := range candidates {
		if p.env.Classes.IsClass(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (p *DefaultsPass) markDependenciesLazy(g *definition.Graph, class string) {
	c, ok := p.env.Classes.Lookup(class)
	if !ok || c.Constructor == nil {
		return
	}

	for _, param := range c.Constructor.Params {
		if param.Kind != manifest.ParamNamed {
			continue
		}

		dep, ok := g.Definition(param.Type)
		if !ok || dep.Factory != nil {
			continue
		}
		dep.Lazy = true
	}
}
