// Package pass holds the graph-rewrite passes that run over a definition
// graph before it is compiled.
package pass

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/ident"
	"github.com/danpasecinic/spindle/internal/modules"
	"github.com/danpasecinic/spindle/manifest"
)

type Pass interface {
	Name() string
	Process(g *definition.Graph) error
}

// Env is what every pass reads from. Classes stands in for class loading: a
// type name is loadable when Classes holds a manifest for it.
type Env struct {
	Config  *config.Config
	Classes *manifest.Registry
	Modules *modules.Registry
	Logger  *zap.Logger
}

func (e *Env) withDefaults() *Env {
	out := *e
	if out.Config == nil {
		out.Config = config.Default()
	}
	if out.Classes == nil {
		out.Classes = manifest.NewRegistry()
	}
	if out.Modules == nil {
		out.Modules = modules.NewRegistry()
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}

func (e *Env) isORM(id string) bool {
	return ident.InNamespace(id, e.Config.ORMNamespace)
}

// loadClass returns the manifest for a definition's class. A definition
// without a loadable class is skipped by every pass.
func (e *Env) loadClass(id string, def *definition.Definition, pass string) (*manifest.Class, bool) {
	if def.Class == "" {
		return nil, false
	}

	class, ok := e.Classes.Lookup(def.Class)
	if !ok {
		e.Logger.Debug(
			"skipping definition",
			zap.String("pass", pass),
			zap.String("service", id),
			zap.String("reason", "class not loadable"),
		)
		return nil, false
	}
	return class, true
}

// Pipeline runs the passes in their fixed order: proxy, defaults, bridge,
// stack resolver.
type Pipeline struct {
	passes []Pass
	logger *zap.Logger
}

func NewPipeline(env Env) *Pipeline {
	e := env.withDefaults()
	return &Pipeline{
		passes: []Pass{
			NewProxyPass(e),
			NewDefaultsPass(e),
			NewBridgePass(e),
			NewStackResolverPass(e),
		},
		logger: e.Logger,
	}
}

func (p *Pipeline) Passes() []Pass {
	return p.passes
}

func (p *Pipeline) Run(g *definition.Graph) error {
	for _, pass := range p.passes {
		before := g.Size()
		if err := pass.Process(g); err != nil {
			return fmt.Errorf("%s pass: %w", pass.Name(), err)
		}
		p.logger.Debug(
			"pass finished",
			zap.String("pass", pass.Name()),
			zap.Int("added", g.Size()-before),
		)
	}
	return nil
}
