// Package build compiles services files into container artifacts and loads
// them back as module containers.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/modules"
	"github.com/danpasecinic/spindle/internal/pass"
	"github.com/danpasecinic/spindle/manifest"
)

const (
	// ProjectNamespace builds nothing: project services live in the
	// project container.
	ProjectNamespace  = "project"
	DefaultConfigFile = "services.yaml"
)

type Request struct {
	Namespace  string
	ModuleName string
	Cwd        string
	ConfigFile string
	// Cache false rebuilds even when the artifact is fresh.
	Cache bool
}

func (r Request) normalized() Request {
	if r.Namespace == "" {
		r.Namespace = ProjectNamespace
	}
	r.Namespace = strings.Trim(r.Namespace, `\`)
	if r.ConfigFile == "" {
		r.ConfigFile = DefaultConfigFile
	}
	if r.Cwd == "" {
		r.Cwd = "."
	}
	return r
}

// ContainerNamespace is "<Ns>\Service\Container" or
// "<Ns>\<Module>\Service\Container".
func (r Request) ContainerNamespace() string {
	r = r.normalized()
	if r.ModuleName != "" {
		return fmt.Sprintf(`%s\%s\Service\Container`, r.Namespace, r.ModuleName)
	}
	return fmt.Sprintf(`%s\Service\Container`, r.Namespace)
}

func (r Request) ContainerClass() string {
	r = r.normalized()
	if r.ModuleName != "" {
		return r.ModuleName + "ServiceContainer"
	}
	return r.Namespace + "ServiceContainer"
}

func (r Request) ArtifactPath(cacheDir string) string {
	r = r.normalized()
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(r.Cwd, cacheDir)
	}
	return filepath.Join(cacheDir, "DependencyInjection", r.ContainerClass()+".yaml")
}

// ConfigPath resolves a relative config file against "<cwd>/config".
func (r Request) ConfigPath() string {
	r = r.normalized()
	if filepath.IsAbs(r.ConfigFile) {
		return r.ConfigFile
	}
	return filepath.Join(r.Cwd, "config", r.ConfigFile)
}

type Response struct {
	Successful bool
	// Skipped is set when a fresh artifact was kept.
	Skipped  bool
	Path     string
	Artifact *Artifact
}

type Builder struct {
	config  *config.Config
	classes *manifest.Registry
	modules *modules.Registry
	store   Store
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Builder)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithStore(store Store) Option {
	return func(b *Builder) {
		b.store = store
	}
}

func WithClasses(classes *manifest.Registry) Option {
	return func(b *Builder) {
		b.classes = classes
	}
}

// WithModules replaces the module registry derived from the configuration.
func WithModules(m *modules.Registry) Option {
	return func(b *Builder) {
		b.modules = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func New(cfg *config.Config, opts ...Option) *Builder {
	if cfg == nil {
		cfg = config.Default()
	}
	b := &Builder{
		config:  cfg,
		classes: manifest.NewRegistry(),
		modules: modules.FromConfig(cfg),
		store:   NewFileStore(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Store() Store {
	return b.store
}

func (b *Builder) Config() *config.Config {
	return b.config
}

func (b *Builder) Classes() *manifest.Registry {
	return b.classes
}

// Build compiles the container a request names and saves its artifact.
func (b *Builder) Build(ctx context.Context, req Request) (*Response, error) {
	req = req.normalized()
	if req.Namespace == ProjectNamespace {
		b.logger.Debug("project namespace has no container to build")
		return &Response{Successful: true, Skipped: true}, nil
	}

	path := req.ArtifactPath(b.config.CacheDir)
	logger := b.logger.With(zap.String("container", req.ContainerClass()), zap.String("path", path))

	if req.Cache {
		if a, fresh := b.fresh(ctx, path, logger); fresh {
			logger.Debug("artifact is fresh")
			return &Response{Successful: true, Skipped: true, Path: path, Artifact: a}, nil
		}
	}

	g, err := b.Graph(req)
	if err != nil {
		return nil, err
	}

	a, err := NewArtifact(req, g, b.config.Environment, b.now())
	if err != nil {
		return nil, err
	}
	if err := b.store.Save(ctx, path, a); err != nil {
		return nil, err
	}

	logger.Info("container built", zap.String("build_id", a.BuildID), zap.Int("services", len(a.Services)))
	return &Response{Successful: true, Path: path, Artifact: a}, nil
}

// Graph loads the services file of a request, runs the rewrite passes and
// compiles the result.
func (b *Builder) Graph(req Request) (*definition.Graph, error) {
	req = req.normalized()

	services, err := LoadServices(req.ConfigPath())
	if err != nil {
		return nil, err
	}

	g := definition.NewGraph()
	if err := g.SetDefinition(definition.ProxyFactoryID, definition.NewProxyFactory()); err != nil {
		return nil, err
	}
	if err := services.Apply(g); err != nil {
		return nil, err
	}

	pipeline := pass.NewPipeline(
		pass.Env{Config: b.config, Classes: b.classes, Modules: b.modules, Logger: b.logger},
	)
	if err := pipeline.Run(g); err != nil {
		return nil, err
	}

	if err := g.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", req.ContainerClass(), err)
	}
	return g, nil
}

// fresh reports whether the stored artifact can be kept. Outside
// development an existing compatible artifact is fresh; in development its
// resources must also be unchanged.
func (b *Builder) fresh(ctx context.Context, path string, logger *zap.Logger) (*Artifact, bool) {
	a, err := b.store.Load(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrArtifactNotFound) {
			logger.Warn("failed to load artifact", zap.Error(err))
		}
		return nil, false
	}

	if err := a.Compatible(); err != nil {
		logger.Info("rebuilding incompatible artifact", zap.Error(err))
		return nil, false
	}

	if !b.config.IsDevelopment() {
		return a, true
	}

	fingerprint, err := Fingerprint(a.Resources)
	if err != nil {
		logger.Warn("failed to fingerprint resources", zap.Error(err))
		return nil, false
	}
	return a, fingerprint == a.Fingerprint
}
