package pass

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/ident"
	"github.com/danpasecinic/spindle/manifest"
)

var paramTag = regexp.MustCompile(`@param\s+([\\\w]+)\s+\$(\w+)`)

// BridgePass binds the untyped constructor parameters of Bridge and Adapter
// classes to the types their documentation names.
type BridgePass struct {
	env *Env
}

func NewBridgePass(env *Env) *BridgePass {
	return &BridgePass{env: env}
}

func (p *BridgePass) Name() string {
	return "bridge"
}

func (p *BridgePass) Process(g *definition.Graph) error {
	for _, id := range g.ServiceIDs() {
		def, ok := g.Definition(id)
		if !ok || def.Abstract || !ident.IsBridge(def.Class) {
			continue
		}

		class, ok := p.env.loadClass(id, def, p.Name())
		if !ok || class.Constructor == nil {
			continue
		}

		hints := ParamHints(class.Constructor)
		for _, param := range class.Constructor.Params {
			if param.Kind != manifest.ParamUntyped {
				continue
			}

			dep, ok := hints[param.Name]
			if !ok {
				continue
			}

			if !g.Has(dep) {
				if err := g.SetDefinition(dep, definition.NewProxy(dep)); err != nil {
					return err
				}
			}
			def.SetArgument(param.Name, definition.Ref(dep))
			p.env.Logger.Debug(
				"bridge argument bound",
				zap.String("service", id),
				zap.String("argument", param.Name),
				zap.String("dependency", dep),
			)
		}
	}
	return nil
}

// ParamHints collects the documented type of each constructor parameter from
// "@param Type $name" lines, with explicit Param hints taking precedence.
func ParamHints(c *manifest.Constructor) map[string]string {
	hints := make(map[string]string)
	for _, m := range paramTag.FindAllStringSubmatch(c.Doc, -1) {
		hints[m[2]] = strings.TrimLeft(m[1], `\`)
	}
	for _, param := range c.Params {
		if param.Hint != "" {
			hints[param.Name] = strings.TrimLeft(param.Hint, `\`)
		}
	}
	return hints
}
