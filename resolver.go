package spindle

import (
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/internal/ident"
	"github.com/danpasecinic/spindle/internal/lazy"
	"github.com/danpasecinic/spindle/internal/reflect"
)

// Resolver federates service resolution over the attached project and
// application containers and the lazily loaded module containers.
//
// The resolver assumes a single-threaded caller. Its maps are guarded so
// concurrent use does not corrupt state, but the lock is never held while a
// container builds a service, which keeps nested resolution from proxies
// reentrant.
type Resolver struct {
	mu         sync.Mutex
	config     *config.Config
	codeBucket string
	logger     *zap.Logger
	onResolve  []ResolveHook

	containers map[string]Container
	modules    map[string]*lazy.Cell[Container]
	factories  map[string]ContainerFactory
	services   map[string]any
	resolved   map[string]any
	order      []string
	parameters map[string]any
	lastChecks []Check
}

func New(opts ...Option) *Resolver {
	cfg := &resolverConfig{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}

	bucket := cfg.config.CodeBucket
	if cfg.codeBucket != nil {
		bucket = *cfg.codeBucket
	}

	r := &Resolver{
		config:     cfg.config,
		codeBucket: bucket,
		logger:     cfg.logger,
		onResolve:  cfg.onResolve,
	}
	r.Reset()
	return r
}

// Reset drops every attached container, module container, cached service,
// override and parameter.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.containers = make(map[string]Container)
	r.modules = make(map[string]*lazy.Cell[Container])
	r.factories = make(map[string]ContainerFactory)
	r.services = make(map[string]any)
	r.resolved = make(map[string]any)
	r.order = nil
	r.parameters = make(map[string]any)
	r.lastChecks = nil
}

func (r *Resolver) Config() *config.Config {
	return r.config
}

func (r *Resolver) AttachContainer(role string, c Container) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.containers[role] = c
}

// RegisterModuleContainer registers the factory for a module container under
// its derived name. The container is built on first use.
func (r *Resolver) RegisterModuleContainer(name string, factory ContainerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	r.modules[name] = lazy.New(factory)
}

func (r *Resolver) Containers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	roles := slices.Collect(maps.Keys(r.containers))
	slices.Sort(roles)
	return roles
}

func (r *Resolver) ModuleContainers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := slices.Collect(maps.Keys(r.factories))
	slices.Sort(names)
	return names
}

// AttachedContainer returns the container attached under role.
func (r *Resolver) AttachedContainer(role string) (Container, bool) {
	return r.container(role)
}

// ModuleContainer returns a module container that has already been loaded.
func (r *Resolver) ModuleContainer(name string) (Container, bool) {
	r.mu.Lock()
	cell, ok := r.modules[name]
	r.mu.Unlock()

	if !ok || !cell.Initialized() {
		return nil, false
	}
	c, err := cell.Get()
	return c, err == nil
}

func (r *Resolver) container(role string) (Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.containers[role]
	return c, ok
}

// Get resolves id. Flat identifiers that no container holds yield nil
// without error; class-like identifiers that no container holds fail with a
// not-found error listing every container that was checked.
func (r *Resolver) Get(id string) (any, error) {
	start := time.Now()
	id = ident.Normalize(id)

	t := &trail{}
	value, source, err := r.resolve(id, t)

	r.mu.Lock()
	r.lastChecks = t.checks()
	r.mu.Unlock()

	for _, hook := range r.onResolve {
		hook(id, source, time.Since(start), err)
	}
	return value, err
}

func (r *Resolver) resolve(id string, t *trail) (any, string, error) {
	if id == SelfID {
		return r, SelfID, nil
	}

	r.mu.Lock()
	if v, ok := r.resolved[id]; ok {
		r.mu.Unlock()
		return v, "cache", nil
	}
	if v, ok := r.services[id]; ok {
		r.remember(id, v)
		r.mu.Unlock()
		return v, "override", nil
	}
	attached := len(r.containers)
	r.mu.Unlock()

	if attached == 0 {
		r.logger.Debug("no containers attached", zap.String("service", id))
		return nil, "", nil
	}

	if !ident.IsHierarchical(id) {
		return r.resolveFlat(id, t)
	}

	parts, ok := ident.Split(id)
	if !ok {
		return nil, "", errServiceNotFound(id, t.checks())
	}

	if r.config.IsCoreNamespace(parts.Namespace) || r.config.IsProjectNamespace(parts.Namespace) {
		v, source, found, err := r.findInProjectContainer(id, t)
		if err != nil || found {
			return v, source, err
		}
	}

	v, source, found, err := r.findInModuleContainer(id, parts, t)
	if err != nil || found {
		return v, source, err
	}

	r.logger.Debug("service not found", zap.String("service", id), zap.Int("checked", len(t.entries)))
	return nil, "", errServiceNotFound(id, t.checks())
}

func (r *Resolver) resolveFlat(id string, t *trail) (any, string, error) {
	for _, role := range []string{RoleProject, RoleApplication} {
		c, ok := r.container(role)
		if !ok {
			continue
		}

		name := ContainerName(role, c)
		if c.Has(id) {
			return r.fetch(id, id, name, c)
		}
		t.record(id, name)
	}

	return nil, "", nil
}

// findInProjectContainer tries, for every project namespace in order, the
// code-bucket variant, the namespace-rewritten id and the original id.
func (r *Resolver) findInProjectContainer(id string, t *trail) (any, string, bool, error) {
	c, ok := r.container(RoleProject)
	if !ok {
		return nil, "", false, nil
	}
	name := ContainerName(RoleProject, c)

	for _, ns := range r.config.ProjectNamespaces {
		projectID := ident.WithNamespace(id, ns)
		candidates := []string{projectID, id}
		if r.codeBucket != "" {
			candidates = append([]string{ident.WithCodeBucket(projectID, r.codeBucket)}, candidates...)
		}

		for _, candidate := range candidates {
			if c.Has(candidate) {
				v, source, err := r.fetch(id, candidate, name, c)
				return v, source, err == nil, err
			}
			t.record(candidate, name)
		}
	}

	return nil, "", false, nil
}

func (r *Resolver) findInModuleContainer(id string, parts ident.Parts, t *trail) (any, string, bool, error) {
	name := ident.ModuleContainerName(parts)

	r.mu.Lock()
	cell, ok := r.modules[name]
	r.mu.Unlock()

	if !ok {
		return nil, "", false, nil
	}

	c, err := cell.Get()
	if err != nil {
		return nil, "", false, errResolutionFailed(id, name, err)
	}

	candidates := append([]string{id}, ident.Fallbacks(id)...)
	for _, candidate := range candidates {
		if c.Has(candidate) {
			v, source, err := r.fetch(id, candidate, name, c)
			return v, source, err == nil, err
		}
		t.record(candidate, name)
	}

	return nil, "", false, nil
}

// fetch builds candidate from c and caches it under the requested id.
func (r *Resolver) fetch(id, candidate, name string, c Container) (any, string, error) {
	v, err := c.Get(candidate)
	if err != nil {
		return nil, name, errResolutionFailed(candidate, name, err)
	}

	if !reflect.IsNil(v) {
		r.mu.Lock()
		r.remember(id, v)
		r.mu.Unlock()
	}

	r.logger.Debug(
		"service resolved",
		zap.String("service", id),
		zap.String("candidate", candidate),
		zap.String("container", name),
	)
	return v, name, nil
}

// Has reports whether id resolves to a non-nil service. A resolved nil
// service reports false.
func (r *Resolver) Has(id string) bool {
	if r.Initialized(id) {
		return true
	}

	v, err := r.Get(id)
	if err != nil {
		if !IsNotFound(err) {
			r.logger.Warn("service lookup failed", zap.String("service", id), zap.Error(err))
		}
		return false
	}
	return !reflect.IsNil(v)
}

// Set installs an explicit service for id, or removes it when service is
// nil. The cached resolution of id is dropped either way.
func (r *Resolver) Set(id string, service any) error {
	id = ident.Normalize(id)
	if id == SelfID {
		return errInvalidMutation(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.resolved, id)
	r.order = slices.DeleteFunc(r.order, func(o string) bool { return o == id })
	if reflect.IsNil(service) {
		delete(r.services, id)
		return nil
	}
	r.services[id] = service
	return nil
}

// remember caches a resolution. The caller holds r.mu.
func (r *Resolver) remember(id string, v any) {
	r.resolved[id] = v
	r.order = append(r.order, id)
}

func (r *Resolver) Initialized(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.resolved[ident.Normalize(id)]
	return ok
}

// FindService returns the service for id or nil when it cannot be resolved.
func (r *Resolver) FindService(id string) any {
	if !r.Has(id) {
		return nil
	}
	v, _ := r.Get(id)
	return v
}

// GetServiceOr resolves id and falls back to build when the resolver does
// not hold it.
func (r *Resolver) GetServiceOr(id string, build func() (any, error)) (any, error) {
	if r.Has(id) {
		return r.Get(id)
	}
	if build == nil {
		return nil, nil
	}
	return build()
}

// LastChecks returns the identifiers checked by the most recent Get.
func (r *Resolver) LastChecks() []Check {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lastChecks)
}

// RemovedIDs returns the ids the project container dropped at compile time.
func (r *Resolver) RemovedIDs() map[string]bool {
	removed := make(map[string]bool)
	if c, ok := r.container(RoleProject); ok {
		if reporter, ok := c.(RemovedIDsReporter); ok {
			maps.Copy(removed, reporter.RemovedIDs())
		}
	}
	return removed
}

func (r *Resolver) ParameterBag() map[string]any {
	if c, ok := r.container(RoleProject); ok {
		if provider, ok := c.(ParameterBagProvider); ok {
			return provider.ParameterBag()
		}
	}
	return make(map[string]any)
}

type trail struct {
	entries []Check
	index   map[string]int
}

// record keeps one entry per id; a later check of the same id replaces the
// container in place.
func (t *trail) record(id, container string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[id]; ok {
		t.entries[i].Container = container
		return
	}
	t.index[id] = len(t.entries)
	t.entries = append(t.entries, Check{ID: id, Container: container})
}

func (t *trail) checks() []Check {
	return slices.Clone(t.entries)
}
