package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/manifest"
)

const orderFacade = `Acme\Zed\Order\Business\OrderFacade`

func TestProxyPass(t *testing.T) {
	t.Parallel()

	const (
		remote   = `Core\Zed\Customer\Business\CustomerFacadeInterface`
		local    = `Acme\Shared\Log\Logger`
		coreMail = `Core\Zed\Mail\Business\MailFacadeInterface`
		builtin  = `Core\Shared\Clock`
		orm      = `Orm\Zed\Sales\Persistence\SpySalesOrderQuery`
		defined  = `Core\Zed\Store\Business\StoreFacadeInterface`
		bound    = `Core\Zed\Tax\Business\TaxFacadeInterface`
	)

	env := testEnv(
		t,
		&manifest.Class{
			Name: orderFacade,
			Constructor: &manifest.Constructor{
				Params: []manifest.Param{
					manifest.Named("customerFacade", remote),
					manifest.Named("logger", local),
					manifest.Named("mailFacade", coreMail),
					manifest.Named("clock", builtin),
					manifest.Named("query", orm),
					manifest.Named("storeFacade", defined),
					manifest.Named("taxFacade", bound),
					manifest.Builtin("name", "string"),
					manifest.Collection("plugins"),
				},
			},
		},
		&manifest.Class{Name: local},
		&manifest.Class{Name: coreMail, Kind: manifest.KindInterface},
		&manifest.Class{Name: builtin, Builtin: true},
		&manifest.Class{Name: orm},
	)

	g := definition.NewGraph()
	storeDef := definition.New(`Core\Zed\Store\Business\StoreFacade`)
	setDefinition(t, g, defined, storeDef)

	consumer := autowired(orderFacade)
	consumer.SetArgument("taxFacade", definition.Ref("tax.facade"))
	setDefinition(t, g, orderFacade, consumer)

	require.NoError(t, NewProxyPass(env).Process(g))

	for _, id := range []string{remote, coreMail, orm} {
		def, ok := g.Definition(id)
		require.True(t, ok, id)
		assert.True(t, definition.IsProxy(def), id)
		assert.Equal(t, id, def.Class)
		assert.Equal(t, []definition.Argument{definition.Value(id)}, def.Factory.Arguments)
	}

	for _, id := range []string{local, builtin, bound, "string", "array"} {
		assert.False(t, g.Has(id), id)
	}

	def, _ := g.Definition(defined)
	assert.Same(t, storeDef, def)
}

func TestProxyPass_SkipsIneligibleDefinitions(t *testing.T) {
	t.Parallel()

	const remote = `Core\Zed\Customer\Business\CustomerFacadeInterface`
	ctor := &manifest.Constructor{Params: []manifest.Param{manifest.Named("customerFacade", remote)}}

	env := testEnv(
		t,
		&manifest.Class{Name: orderFacade, Constructor: ctor},
		&manifest.Class{Name: `Acme\Zed\Order\Business\OrderReader`},
	)

	tests := []struct {
		name string
		def  *definition.Definition
	}{
		{name: "not autowired", def: definition.New(orderFacade)},
		{
			name: "abstract", def: func() *definition.Definition {
				d := autowired(orderFacade)
				d.Abstract = true
				return d
			}(),
		},
		{name: "class not loadable", def: autowired(`Acme\Zed\Order\Business\Missing`)},
		{name: "no constructor", def: autowired(`Acme\Zed\Order\Business\OrderReader`)},
		{name: "no class", def: autowired("")},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()

				g := definition.NewGraph()
				setDefinition(t, g, "consumer", tt.def)

				require.NoError(t, NewProxyPass(env).Process(g))
				assert.False(t, g.Has(remote))
			},
		)
	}
}

func TestProxyPass_SnapshotOfIDs(t *testing.T) {
	t.Parallel()

	const remote = `Core\Zed\Customer\Business\CustomerFacadeInterface`
	env := testEnv(
		t,
		&manifest.Class{
			Name:        orderFacade,
			Constructor: &manifest.Constructor{Params: []manifest.Param{manifest.Named("customerFacade", remote)}},
		},
	)

	g := definition.NewGraph()
	setDefinition(t, g, orderFacade, autowired(orderFacade))
	setDefinition(t, g, "second", autowired(orderFacade))

	require.NoError(t, NewProxyPass(env).Process(g))
	assert.Equal(t, []string{orderFacade, "second", remote}, g.ServiceIDs())
}
