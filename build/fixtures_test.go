package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/manifest"
)

const (
	customerFacade      = `Core\Zed\Customer\Business\CustomerFacade`
	customerFacadeIface = `Core\Zed\Customer\Business\CustomerFacadeInterface`
	mailFacadeIface     = `Core\Zed\Mail\Business\MailFacadeInterface`
	firstPlugin         = `Core\Zed\Customer\Communication\Plugin\FirstPlugin`
	secondPlugin        = `Core\Zed\Customer\Communication\Plugin\SecondPlugin`
	pluginTag           = "customer.plugins"
)

var fixedTime = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

const customerServices = `
parameters:
  customer.locale: de_DE
services:
  _defaults:
    autowire: true
    public: true
  Core\Zed\Customer\Business\CustomerFacade:
    arguments:
      $locale: '%customer.locale%'
  customer.plugin.second:
    class: Core\Zed\Customer\Communication\Plugin\SecondPlugin
    public: false
  customer.plugin.first:
    class: Core\Zed\Customer\Communication\Plugin\FirstPlugin
    public: false
`

type CustomerFacade struct {
	Locale  string
	Mail    any
	Plugins []any
}

type Plugin struct {
	Name string
}

func customerClasses(t *testing.T) *manifest.Registry {
	t.Helper()

	r := manifest.NewRegistry()
	require.NoError(
		t, r.Register(
			&manifest.Class{Name: customerFacadeIface, Kind: manifest.KindInterface},
			&manifest.Class{
				Name: customerFacade,
				Constructor: &manifest.Constructor{
					Params: []manifest.Param{
						manifest.Named("mailFacade", mailFacadeIface),
						manifest.Builtin("locale", "string"),
						manifest.Collection("plugins"),
					},
					Stacks: []*manifest.Stack{
						manifest.MustStack(manifest.WithService(pluginTag), manifest.WithProvideToArgument("plugins")),
					},
				},
				Factory: func(args manifest.Args) (any, error) {
					f := &CustomerFacade{}
					f.Locale, _ = manifest.Arg[string](args, "locale")
					f.Mail, _ = args.Raw("mailFacade")
					f.Plugins, _ = manifest.Arg[[]any](args, "plugins")
					return f, nil
				},
			},
			&manifest.Class{
				Name:   firstPlugin,
				Stacks: []*manifest.Stack{manifest.MustStack(manifest.WithService(pluginTag), manifest.WithStackPosition(1))},
				Factory: func(manifest.Args) (any, error) {
					return &Plugin{Name: "first"}, nil
				},
			},
			&manifest.Class{
				Name:   secondPlugin,
				Stacks: []*manifest.Stack{manifest.MustStack(manifest.WithService(pluginTag), manifest.WithStackPosition(2))},
				Factory: func(manifest.Args) (any, error) {
					return &Plugin{Name: "second"}, nil
				},
			},
		),
	)
	return r
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CoreNamespaces = []string{"Core"}
	cfg.ProjectNamespaces = []string{"Acme"}
	cfg.Modules = []config.Module{{Name: "Customer", Organization: "Core"}}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// workspace returns a directory holding config/services.yaml.
func workspace(t *testing.T, services string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", DefaultConfigFile), services)
	return dir
}

func customerRequest(dir string) Request {
	return Request{Namespace: "Core", ModuleName: "Customer", Cwd: dir, Cache: true}
}
