// Package config holds the namespace and build settings shared by the
// resolver, the rewrite passes and the build driver.
//
// Values are layered, lowest priority first: built-in defaults, a YAML or
// TOML file, a .env file, then SPINDLE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultORMNamespace = "Orm"
	DefaultCacheDir     = "cache"
)

type Config struct {
	CoreNamespaces    []string `yaml:"core_namespaces" toml:"core_namespaces" validate:"required,min=1,dive,required"`
	ProjectNamespaces []string `yaml:"project_namespaces" toml:"project_namespaces" validate:"dive,required"`
	CodeBucket        string   `yaml:"code_bucket" toml:"code_bucket" validate:"omitempty,alphanum"`
	Environment       string   `yaml:"environment" toml:"environment" validate:"required"`
	ORMNamespace      string   `yaml:"orm_namespace" toml:"orm_namespace" validate:"required"`
	CacheDir          string   `yaml:"cache_dir" toml:"cache_dir" validate:"required"`
	Modules           []Module `yaml:"modules" toml:"modules" validate:"dive"`
}

type Module struct {
	Name         string `yaml:"name" toml:"name" validate:"required"`
	Organization string `yaml:"organization" toml:"organization" validate:"required"`
}

func Default() *Config {
	return &Config{
		CoreNamespaces: []string{"Spryker"},
		Environment:    EnvProduction,
		ORMNamespace:   DefaultORMNamespace,
		CacheDir:       DefaultCacheDir,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment || strings.HasSuffix(c.Environment, ".dev")
}

func (c *Config) IsCoreNamespace(ns string) bool {
	return contains(c.CoreNamespaces, ns)
}

func (c *Config) IsProjectNamespace(ns string) bool {
	return contains(c.ProjectNamespaces, ns)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

type loadOptions struct {
	envFiles []string
	lookup   func(string) (string, bool)
}

type LoadOption func(*loadOptions)

// WithEnvFiles overrides the .env files merged into the process environment.
// Missing files are ignored.
func WithEnvFiles(files ...string) LoadOption {
	return func(o *loadOptions) {
		o.envFiles = files
	}
}

func WithLookup(lookup func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		o.lookup = lookup
	}
}

// Load builds a Config from path (optional, .yaml/.yml/.toml) and the
// environment, then validates it.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{
		envFiles: []string{".env"},
		lookup:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if len(o.envFiles) > 0 {
		_ = godotenv.Load(o.envFiles...)
	}

	applyEnv(cfg, o.lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("SPINDLE_CORE_NAMESPACES"); ok && v != "" {
		cfg.CoreNamespaces = splitList(v)
	}
	if v, ok := lookup("SPINDLE_PROJECT_NAMESPACES"); ok && v != "" {
		cfg.ProjectNamespaces = splitList(v)
	}
	if v, ok := lookup("SPINDLE_CODE_BUCKET"); ok {
		cfg.CodeBucket = v
	}
	if v, ok := lookup("APPLICATION_ENV"); ok && v != "" {
		cfg.Environment = v
	}
	if v, ok := lookup("SPINDLE_ENV"); ok && v != "" {
		cfg.Environment = v
	}
	if v, ok := lookup("SPINDLE_ORM_NAMESPACE"); ok && v != "" {
		cfg.ORMNamespace = v
	}
	if v, ok := lookup("SPINDLE_CACHE_DIR"); ok && v != "" {
		cfg.CacheDir = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
