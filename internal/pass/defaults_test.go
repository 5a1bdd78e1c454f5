package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/modules"
	"github.com/danpasecinic/spindle/manifest"
)

const (
	customerFacadeInterface = `Core\Zed\Customer\Business\CustomerFacadeInterface`
	customerClientInterface = `Core\Client\Customer\CustomerClientInterface`
	customerServiceIface    = `Core\Service\Customer\CustomerServiceInterface`
	projectCustomerFacade   = `Acme\Zed\Customer\Business\CustomerFacade`
	customerRepository      = `Core\Zed\Customer\Persistence\CustomerRepositoryInterface`
	customerMapper          = `Core\Zed\Customer\Business\CustomerMapper`
)

func TestDefaultInterfaces(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		[]string{customerFacadeInterface, customerClientInterface, customerServiceIface},
		DefaultInterfaces(modules.Module{Name: "Customer", Organization: "Core"}),
	)
}

func TestDefaultsPass(t *testing.T) {
	t.Parallel()

	env := testEnv(
		t,
		&manifest.Class{Name: customerFacadeInterface, Kind: manifest.KindInterface},
		&manifest.Class{Name: customerClientInterface, Kind: manifest.KindInterface},
		&manifest.Class{
			Name: projectCustomerFacade,
			Constructor: &manifest.Constructor{
				Params: []manifest.Param{
					manifest.Named("repository", customerRepository),
					manifest.Named("mapper", customerMapper),
					manifest.Builtin("debug", "bool"),
				},
			},
		},
		&manifest.Class{Name: `Core\Zed\Customer\Business\CustomerFacade`},
	)
	env.Modules.Add("Customer", "Core")

	g := definition.NewGraph()
	repository := definition.New(`Core\Zed\Customer\Persistence\CustomerRepository`)
	setDefinition(t, g, customerRepository, repository)
	mapper := definition.New(customerMapper).SetFactory("mapper.factory", "create")
	setDefinition(t, g, customerMapper, mapper)

	require.NoError(t, NewDefaultsPass(env).Process(g))

	facade, ok := g.Definition(customerFacadeInterface)
	require.True(t, ok)
	assert.Equal(t, projectCustomerFacade, facade.Class)
	assert.True(t, facade.Public)
	assert.False(t, definition.IsProxy(facade))

	assert.True(t, repository.Lazy)
	assert.False(t, mapper.Lazy)

	client, ok := g.Definition(customerClientInterface)
	require.True(t, ok)
	assert.True(t, definition.IsProxy(client))
	assert.True(t, client.Public)

	assert.False(t, g.Has(customerServiceIface))
}

func TestDefaultsPass_FallsBackToCoreClass(t *testing.T) {
	t.Parallel()

	const coreFacade = `Core\Zed\Customer\Business\CustomerFacade`
	env := testEnv(
		t,
		&manifest.Class{Name: customerFacadeInterface, Kind: manifest.KindInterface},
		&manifest.Class{Name: coreFacade},
	)
	env.Modules.Add("Customer", "Core")

	g := definition.NewGraph()
	require.NoError(t, NewDefaultsPass(env).Process(g))

	def, ok := g.Definition(customerFacadeInterface)
	require.True(t, ok)
	assert.Equal(t, coreFacade, def.Class)
}

func TestDefaultsPass_PrefersProjectInterface(t *testing.T) {
	t.Parallel()

	env := testEnv(
		t,
		&manifest.Class{Name: customerFacadeInterface, Kind: manifest.KindInterface},
		&manifest.Class{Name: projectCustomerFacade + "Interface", Kind: manifest.KindInterface},
		&manifest.Class{Name: projectCustomerFacade},
	)
	env.Modules.Add("Customer", "Core")

	g := definition.NewGraph()
	require.NoError(t, NewDefaultsPass(env).Process(g))

	assert.False(t, g.Has(customerFacadeInterface))
	def, ok := g.Definition(projectCustomerFacade + "Interface")
	require.True(t, ok)
	assert.Equal(t, projectCustomerFacade, def.Class)
}

func TestDefaultsPass_KeepsExistingDefinition(t *testing.T) {
	t.Parallel()

	env := testEnv(
		t,
		&manifest.Class{Name: customerFacadeInterface, Kind: manifest.KindInterface},
		&manifest.Class{Name: projectCustomerFacade},
	)
	env.Modules.Add("Customer", "Core")

	g := definition.NewGraph()
	existing := definition.New(`Acme\Zed\Customer\Business\CustomFacade`)
	setDefinition(t, g, customerFacadeInterface, existing)

	require.NoError(t, NewDefaultsPass(env).Process(g))

	def, _ := g.Definition(customerFacadeInterface)
	assert.Same(t, existing, def)
}

func TestDefaultsPass_NonCoreOrganizationIsProxied(t *testing.T) {
	t.Parallel()

	const iface = `Acme\Zed\Loyalty\Business\LoyaltyFacadeInterface`
	env := testEnv(
		t,
		&manifest.Class{Name: iface, Kind: manifest.KindInterface},
		&manifest.Class{Name: `Acme\Zed\Loyalty\Business\LoyaltyFacade`},
	)
	env.Modules.Add("Loyalty", "Acme")

	g := definition.NewGraph()
	require.NoError(t, NewDefaultsPass(env).Process(g))

	def, ok := g.Definition(iface)
	require.True(t, ok)
	assert.True(t, definition.IsProxy(def))
}
