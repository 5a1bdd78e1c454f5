package container

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

const (
	repositoryClass = `Core\Zed\Customer\Persistence\CustomerRepository`
	repositoryIface = `Core\Zed\Customer\Persistence\CustomerRepositoryInterface`
	facadeClass     = `Core\Zed\Customer\Business\CustomerFacade`
	facadeIface     = `Core\Zed\Customer\Business\CustomerFacadeInterface`
)

type repository struct {
	dsn string
}

type facade struct {
	repository any
	locale     any
	plugins    []any
}

type plugin struct {
	name string
}

func classes(t *testing.T) *manifest.Registry {
	t.Helper()

	r := manifest.NewRegistry()
	require.NoError(
		t, r.Register(
			&manifest.Class{
				Name: repositoryClass,
				Constructor: &manifest.Constructor{
					Params: []manifest.Param{manifest.Builtin("dsn", "string")},
				},
				Factory: func(args manifest.Args) (any, error) {
					dsn, err := manifest.Arg[string](args, "dsn")
					if err != nil {
						return nil, err
					}
					return &repository{dsn: dsn}, nil
				},
			},
			&manifest.Class{
				Name: facadeClass,
				Constructor: &manifest.Constructor{
					Params: []manifest.Param{
						manifest.Named("repository", repositoryIface),
						manifest.Builtin("locale", "string"),
						manifest.Collection("plugins"),
					},
				},
				Factory: func(args manifest.Args) (any, error) {
					f := &facade{}
					f.repository, _ = args.Raw("repository")
					f.locale, _ = args.Raw("locale")
					if v, ok := args.Raw("plugins"); ok {
						f.plugins = v.([]any)
					}
					return f, nil
				},
			},
		),
	)

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(
			t, r.Register(
				&manifest.Class{
					Name: `Core\Zed\Customer\Plugin\` + name,
					Factory: func(manifest.Args) (any, error) {
						return &plugin{name: name}, nil
					},
				},
			),
		)
	}
	return r
}

func position(p int) *int {
	return &p
}

func customerGraph(t *testing.T) *definition.Graph {
	t.Helper()

	g := definition.NewGraph()
	require.NoError(t, g.SetParameter("customer.dsn", "mysql://customer"))
	require.NoError(t, g.SetParameter("locale", "de_DE"))

	repo := definition.New(repositoryClass).SetArgument("$dsn", definition.Value("%customer.dsn%"))
	require.NoError(t, g.SetDefinition(repositoryIface, repo))

	f := definition.New(facadeClass)
	f.Public = true
	f.Autowired = true
	f.SetArgument("locale", definition.Value("%locale%"))
	f.SetArgument("plugins", definition.Tagged("customer.plugins"))
	require.NoError(t, g.SetDefinition(facadeIface, f))

	for _, p := range []struct {
		name string
		pos  *int
	}{{"third", nil}, {"second", position(20)}, {"first", position(10)}} {
		def := definition.New(`Core\Zed\Customer\Plugin\` + p.name)
		def.AddTag(definition.Tag{Name: "customer.plugins", Position: p.pos})
		require.NoError(t, g.SetDefinition("plugin."+p.name, def))
	}
	return g
}

func newContainer(t *testing.T, g *definition.Graph) *Container {
	t.Helper()

	c, err := New(&Config{Name: "customer", Graph: g, Classes: classes(t)})
	require.NoError(t, err)
	return c
}

func TestContainer_BuildsAutowiredService(t *testing.T) {
	t.Parallel()

	c := newContainer(t, customerGraph(t))

	v, err := c.Get(facadeIface)
	require.NoError(t, err)

	f := v.(*facade)
	assert.Equal(t, "de_DE", f.locale)
	assert.Equal(t, &repository{dsn: "mysql://customer"}, f.repository)

	names := make([]string, 0, len(f.plugins))
	for _, p := range f.plugins {
		names = append(names, p.(*plugin).name)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)

	again, err := c.Get(`\` + facadeIface)
	require.NoError(t, err)
	assert.Same(t, v, again)
	assert.True(t, c.Initialized(facadeIface))
}

func TestContainer_PrivateServicesAreRemoved(t *testing.T) {
	t.Parallel()

	c := newContainer(t, customerGraph(t))

	assert.True(t, c.Has(facadeIface))
	assert.False(t, c.Has(repositoryIface))
	assert.Equal(t, []string{facadeIface}, c.IDs())
	assert.Equal(
		t,
		map[string]bool{repositoryIface: true, "plugin.first": true, "plugin.second": true, "plugin.third": true},
		c.RemovedIDs(),
	)

	_, err := c.Get(repositoryIface)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestContainer_LazyDependencyIsDeferred(t *testing.T) {
	t.Parallel()

	g := customerGraph(t)
	repo, _ := g.Definition(repositoryIface)
	repo.Lazy = true

	c := newContainer(t, g)

	v, err := c.Get(facadeIface)
	require.NoError(t, err)

	deferred, ok := v.(*facade).repository.(manifest.Deferred)
	require.True(t, ok)
	assert.False(t, c.Initialized(repositoryIface))

	built, err := deferred.Value()
	require.NoError(t, err)
	assert.Equal(t, "mysql://customer", built.(*repository).dsn)
	assert.True(t, c.Initialized(repositoryIface))
}

type recordingInvoker struct {
	calls []string
}

func (r *recordingInvoker) Invoke(method string, args ...any) (any, error) {
	r.calls = append(r.calls, fmt.Sprint(method, args))
	if method == "fail" {
		return nil, errors.New("factory broke")
	}
	return "made by " + method, nil
}

func TestContainer_FactoryDefinitions(t *testing.T) {
	t.Parallel()

	g := definition.NewGraph()
	require.NoError(t, g.SetDefinition(definition.ProxyFactoryID, definition.NewProxyFactory()))

	proxy := definition.NewProxy(facadeIface)
	proxy.Public = true
	require.NoError(t, g.SetDefinition(facadeIface, proxy))

	broken := definition.New("").SetFactory(definition.ProxyFactoryID, "fail")
	broken.Public = true
	require.NoError(t, g.SetDefinition("broken", broken))

	c := newContainer(t, g)

	_, err := c.Get(facadeIface)
	assert.ErrorIs(t, err, ErrSyntheticNotDefined)

	invoker := &recordingInvoker{}
	c.Set(definition.ProxyFactoryID, invoker)

	v, err := c.Get(facadeIface)
	require.NoError(t, err)
	assert.Equal(t, "made by "+definition.MethodCreateProxy, v)
	assert.Equal(t, []string{definition.MethodCreateProxy + "[" + facadeIface + "]"}, invoker.calls)

	_, err = c.Get("broken")
	assert.ErrorContains(t, err, "factory broke")
}

func TestContainer_FactoryMustInvoke(t *testing.T) {
	t.Parallel()

	g := definition.NewGraph()
	require.NoError(t, g.SetDefinition("factory", definition.NewProxyFactory()))
	def := definition.New("").SetFactory("factory", "create")
	def.Public = true
	require.NoError(t, g.SetDefinition("made", def))

	c := newContainer(t, g)
	c.Set("factory", "not an invoker")

	_, err := c.Get("made")
	assert.ErrorIs(t, err, ErrNotInstantiable)
}

func TestContainer_CircularResolutionThroughLazy(t *testing.T) {
	t.Parallel()

	r := manifest.NewRegistry()
	require.NoError(
		t, r.Register(
			&manifest.Class{
				Name: "Eager",
				Factory: func(args manifest.Args) (any, error) {
					return args.Get("other")
				},
			},
		),
	)

	g := definition.NewGraph()
	a := definition.New("Eager").SetArgument("other", definition.Ref("b"))
	a.Public = true
	b := definition.New("Eager").SetArgument("other", definition.Ref("a"))
	b.Lazy = true
	require.NoError(t, g.SetDefinition("a", a))
	require.NoError(t, g.SetDefinition("b", b))

	c, err := New(&Config{Name: "cycle", Graph: g, Classes: r})
	require.NoError(t, err)

	_, err = c.Get("a")
	assert.ErrorIs(t, err, ErrCircularResolution)
}

func TestContainer_RejectsInvalidGraphs(t *testing.T) {
	t.Parallel()

	g := definition.NewGraph()
	require.NoError(t, g.SetDefinition("a", definition.New("A").SetArgument("b", definition.Ref("b"))))
	require.NoError(t, g.SetDefinition("b", definition.New("B").SetArgument("a", definition.Ref("a"))))

	_, err := New(&Config{Name: "broken", Graph: g})
	assert.ErrorContains(t, err, "circular reference")

	_, err = New(&Config{Name: "empty"})
	assert.Error(t, err)
}

func TestContainer_MissingConstructor(t *testing.T) {
	t.Parallel()

	g := definition.NewGraph()
	def := definition.New(`Core\Zed\Unknown\Thing`)
	def.Public = true
	require.NoError(t, g.SetDefinition("thing", def))

	c := newContainer(t, g)
	_, err := c.Get("thing")
	assert.ErrorIs(t, err, ErrNotInstantiable)
}

func TestContainer_Parameters(t *testing.T) {
	t.Parallel()

	c := newContainer(t, customerGraph(t))

	assert.True(t, c.HasParameter("locale"))
	v, err := c.GetParameter("locale")
	require.NoError(t, err)
	assert.Equal(t, "de_DE", v)

	_, err = c.GetParameter("currency")
	assert.Error(t, err)

	assert.Equal(t, map[string]any{"customer.dsn": "mysql://customer", "locale": "de_DE"}, c.ParameterBag())
}

func TestContainer_UndefinedParameterPlaceholder(t *testing.T) {
	t.Parallel()

	g := customerGraph(t)
	f, _ := g.Definition(facadeIface)
	f.SetArgument("locale", definition.Value("%missing%"))

	c := newContainer(t, g)
	_, err := c.Get(facadeIface)
	assert.ErrorContains(t, err, "parameter missing")
}
