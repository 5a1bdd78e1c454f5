package build

import (
	"context"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/internal/container"
	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

// Loader turns stored artifacts into containers that resolve through a
// resolver.
type Loader struct {
	resolver *spindle.Resolver
	store    Store
	classes  *manifest.Registry
	cacheDir string
	logger   *zap.Logger
}

func NewLoader(r *spindle.Resolver, b *Builder) *Loader {
	return &Loader{
		resolver: r,
		store:    b.store,
		classes:  b.classes,
		cacheDir: b.config.CacheDir,
		logger:   b.logger,
	}
}

// Container loads the artifact a request names.
func (l *Loader) Container(ctx context.Context, req Request) (*container.Container, error) {
	a, err := l.store.Load(ctx, req.ArtifactPath(l.cacheDir))
	if err != nil {
		return nil, err
	}
	return l.FromArtifact(a)
}

func (l *Loader) FromArtifact(a *Artifact) (*container.Container, error) {
	g, err := a.Graph()
	if err != nil {
		return nil, err
	}

	c, err := container.New(&container.Config{Name: a.FQCN(), Graph: g, Classes: l.classes, Logger: l.logger})
	if err != nil {
		return nil, err
	}
	c.Set(definition.ProxyFactoryID, spindle.NewProxyFactory(l.resolver, l.classes))
	return c, nil
}

// Register makes the module container of a request available to the
// resolver. The artifact is read on first use.
func (l *Loader) Register(ctx context.Context, req Request) string {
	name := req.ContainerNamespace() + `\` + req.ContainerClass()
	l.resolver.RegisterModuleContainer(
		name, func() (spindle.Container, error) {
			c, err := l.Container(ctx, req)
			if err != nil {
				return nil, err
			}
			l.logger.Debug("module container loaded", zap.String("container", name))
			return c, nil
		},
	)
	return name
}

// Attach loads the artifact of a request and attaches it under role.
func (l *Loader) Attach(ctx context.Context, role string, req Request) (*container.Container, error) {
	c, err := l.Container(ctx, req)
	if err != nil {
		return nil, err
	}
	l.resolver.AttachContainer(role, c)
	return c, nil
}
