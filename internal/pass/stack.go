package pass

import (
	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

// StackResolverPass turns Stack descriptors into tags and bound
// constructor arguments.
type StackResolverPass struct {
	env *Env
}

func NewStackResolverPass(env *Env) *StackResolverPass {
	return &StackResolverPass{env: env}
}

func (p *StackResolverPass) Name() string {
	return "stack"
}

func (p *StackResolverPass) Process(g *definition.Graph) error {
	for _, id := range g.ServiceIDs() {
		if p.env.isORM(id) {
			continue
		}

		def, ok := g.Definition(id)
		if !ok || def.Abstract {
			continue
		}

		class, ok := p.env.loadClass(id, def, p.Name())
		if !ok {
			continue
		}

		for _, stack := range class.Stacks {
			def.AddTag(contribution(stack))
		}

		if class.Constructor == nil {
			continue
		}

		for _, stack := range class.Constructor.Stacks {
			if stack.UsesProvider() {
				if err := p.bindProvider(g, def, stack); err != nil {
					return err
				}
				continue
			}

			def.SetArgument(stack.ProvideToArgument(), definition.Tagged(stack.Service()))
			p.env.Logger.Debug(
				"stack bound",
				zap.String("service", id),
				zap.String("argument", stack.ProvideToArgument()),
				zap.String("tag", stack.Service()),
			)
		}
	}
	return nil
}

func contribution(stack *manifest.Stack) definition.Tag {
	tag := definition.Tag{Name: stack.Service(), Consumer: stack.ProvideToClass()}
	if position, ok := stack.StackPosition(); ok {
		tag.Position = &position
	}
	return tag
}

// bindProvider defines "<class>.<argument>" as the result of the provider's
// getter and binds the argument to it.
func (p *StackResolverPass) bindProvider(g *definition.Graph, def *definition.Definition, stack *manifest.Stack) error {
	stackID := def.Class + "." + stack.ProvideToArgument()

	err := g.SetDefinition(
		stackID,
		definition.NewProviderStack(stack.DependencyProvider(), stack.DependencyProviderMethod()),
	)
	if err != nil {
		return err
	}

	def.SetArgument(stack.ProvideToArgument(), definition.Ref(stackID))
	p.env.Logger.Debug(
		"provider stack bound",
		zap.String("service", stackID),
		zap.String("provider", stack.DependencyProvider()),
		zap.String("method", stack.DependencyProviderMethod()),
	)
	return nil
}
