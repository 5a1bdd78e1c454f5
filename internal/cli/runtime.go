package cli

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/build"
	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/internal/container"
	"github.com/danpasecinic/spindle/internal/definition"
)

// storeFlags select where artifacts are kept.
type storeFlags struct {
	redisAddr string
	redisTTL  string
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

func (c *CLI) zapLogger() *zap.Logger {
	return newZapLogger(c.stderr, c.verbose)
}

func (c *CLI) newBuilder(cfg *config.Config, stores storeFlags) (*build.Builder, error) {
	opts := []build.Option{build.WithClasses(c.classes), build.WithLogger(c.zapLogger())}

	if stores.redisAddr != "" {
		var redisOpts []build.RedisOption
		if stores.redisTTL != "" {
			ttl, err := parseDuration(stores.redisTTL)
			if err != nil {
				return nil, err
			}
			redisOpts = append(redisOpts, build.WithTTL(ttl))
		}
		client := redis.NewClient(&redis.Options{Addr: stores.redisAddr})
		opts = append(opts, build.WithStore(build.NewRedisStore(client, redisOpts...)))
	}

	return build.New(cfg, opts...), nil
}

// newRuntime wires a resolver with an empty project container and every
// configured module container registered for lazy loading.
func (c *CLI) newRuntime(ctx context.Context, cfg *config.Config, b *build.Builder, cwd string, opts ...spindle.Option) (*spindle.Resolver, error) {
	opts = append([]spindle.Option{spindle.WithConfig(cfg), spindle.WithLogger(c.zapLogger())}, opts...)
	r := spindle.New(opts...)

	project, err := container.New(&container.Config{Name: build.ProjectNamespace, Graph: definition.NewGraph()})
	if err != nil {
		return nil, err
	}
	r.AttachContainer(spindle.RoleProject, project)

	loader := build.NewLoader(r, b)
	for _, m := range cfg.Modules {
		name := loader.Register(ctx, build.Request{Namespace: m.Organization, ModuleName: m.Name, Cwd: cwd})
		loggerFromContext(ctx).Debug("module container registered", "container", name)
	}
	return r, nil
}
