package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

const (
	checkoutFacade   = `Core\Zed\Checkout\Business\CheckoutFacade`
	preConditionTag  = "checkout.pre_conditions"
	stockPlugin      = `Core\Zed\Availability\Communication\Plugin\StockPreConditionPlugin`
	paymentPlugin    = `Core\Zed\Payment\Communication\Plugin\PaymentPreConditionPlugin`
	voucherPlugin    = `Core\Zed\Discount\Communication\Plugin\VoucherPreConditionPlugin`
	checkoutProvider = `Core\Zed\Checkout\CheckoutDependencyProvider`
)

func plugin(name string, opts ...manifest.StackOption) *manifest.Class {
	return &manifest.Class{
		Name:   name,
		Stacks: []*manifest.Stack{manifest.MustStack(append([]manifest.StackOption{manifest.WithService(preConditionTag)}, opts...)...)},
	}
}

func TestStackResolverPass_OrdersByPosition(t *testing.T) {
	t.Parallel()

	env := testEnv(
		t,
		&manifest.Class{
			Name: checkoutFacade,
			Constructor: &manifest.Constructor{
				Params: []manifest.Param{manifest.Collection("preConditions")},
				Stacks: []*manifest.Stack{
					manifest.MustStack(
						manifest.WithService(preConditionTag),
						manifest.WithProvideToArgument("$preConditions"),
					),
				},
			},
		},
		plugin(stockPlugin, manifest.WithStackPosition(20)),
		plugin(paymentPlugin, manifest.WithStackPosition(10)),
		plugin(voucherPlugin),
	)

	g := definition.NewGraph()
	setDefinition(t, g, voucherPlugin, definition.New(voucherPlugin))
	setDefinition(t, g, stockPlugin, definition.New(stockPlugin))
	setDefinition(t, g, paymentPlugin, definition.New(paymentPlugin))
	consumer := definition.New(checkoutFacade)
	setDefinition(t, g, checkoutFacade, consumer)

	require.NoError(t, NewStackResolverPass(env).Process(g))

	arg, ok := consumer.Argument("preConditions")
	require.True(t, ok)
	assert.Equal(t, definition.Tagged(preConditionTag), arg)

	assert.Equal(t, []string{paymentPlugin, stockPlugin, voucherPlugin}, g.Tagged(preConditionTag, checkoutFacade))
	assert.Equal(t, []string{paymentPlugin, stockPlugin, voucherPlugin}, g.Dependencies(checkoutFacade))
}

func TestStackResolverPass_ProvideToClassScopesContribution(t *testing.T) {
	t.Parallel()

	const other = `Core\Zed\Quote\Business\QuoteFacade`
	env := testEnv(
		t,
		plugin(stockPlugin, manifest.WithProvideToClass(`\`+other)),
		plugin(paymentPlugin),
	)

	g := definition.NewGraph()
	setDefinition(t, g, stockPlugin, definition.New(stockPlugin))
	setDefinition(t, g, paymentPlugin, definition.New(paymentPlugin))

	require.NoError(t, NewStackResolverPass(env).Process(g))

	assert.Equal(t, []string{paymentPlugin}, g.Tagged(preConditionTag, checkoutFacade))
	assert.ElementsMatch(t, []string{stockPlugin, paymentPlugin}, g.Tagged(preConditionTag, other))
}

func TestStackResolverPass_DependencyProvider(t *testing.T) {
	t.Parallel()

	env := testEnv(
		t,
		&manifest.Class{
			Name: checkoutFacade,
			Constructor: &manifest.Constructor{
				Params: []manifest.Param{manifest.Collection("postHooks")},
				Stacks: []*manifest.Stack{
					manifest.MustStack(
						manifest.WithDependencyProvider(checkoutProvider, "getCheckoutPostHooks"),
						manifest.WithProvideToArgument("postHooks"),
					),
				},
			},
		},
	)

	g := definition.NewGraph()
	consumer := definition.New(checkoutFacade)
	setDefinition(t, g, "checkout.facade", consumer)

	require.NoError(t, NewStackResolverPass(env).Process(g))

	const stackID = checkoutFacade + ".postHooks"
	arg, ok := consumer.Argument("$postHooks")
	require.True(t, ok)
	assert.Equal(t, stackID, arg.Ref)

	def, ok := g.Definition(stackID)
	require.True(t, ok)
	require.NotNil(t, def.Factory)
	assert.Equal(t, definition.ProxyFactoryID, def.Factory.Service)
	assert.Equal(t, definition.MethodCreatePluginProviderProxy, def.Factory.Method)
	assert.Equal(
		t,
		[]definition.Argument{definition.Value(checkoutProvider), definition.Value("getCheckoutPostHooks")},
		def.Factory.Arguments,
	)
}

func TestStackResolverPass_SkipsORMAndAbstract(t *testing.T) {
	t.Parallel()

	const query = `Orm\Zed\Sales\Persistence\SpySalesOrderQuery`
	env := testEnv(t, plugin(query), plugin(stockPlugin))

	g := definition.NewGraph()
	orm := definition.New(query)
	setDefinition(t, g, query, orm)
	abstract := definition.New(stockPlugin)
	abstract.Abstract = true
	setDefinition(t, g, stockPlugin, abstract)

	require.NoError(t, NewStackResolverPass(env).Process(g))

	assert.Empty(t, orm.Tags)
	assert.Empty(t, abstract.Tags)
}
