package spindle

import (
	"go.uber.org/zap"

	"github.com/danpasecinic/spindle/config"
)

type Option func(*resolverConfig)

type resolverConfig struct {
	logger     *zap.Logger
	config     *config.Config
	codeBucket *string
	onResolve  []ResolveHook
}

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *resolverConfig) {
		cfg.logger = logger
	}
}

func WithConfig(c *config.Config) Option {
	return func(cfg *resolverConfig) {
		cfg.config = c
	}
}

// WithCodeBucket overrides the code bucket taken from the configuration.
func WithCodeBucket(bucket string) Option {
	return func(cfg *resolverConfig) {
		cfg.codeBucket = &bucket
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *resolverConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}
