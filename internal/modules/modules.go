// Package modules lists the modules the defaults pass registers interface
// bindings for.
package modules

import (
	"slices"
	"strings"

	"github.com/danpasecinic/spindle/config"
)

type Module struct {
	Name         string
	Organization string
}

// Registry keeps modules in registration order. Registering a module name a
// second time replaces its organization.
type Registry struct {
	modules []Module
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// FromConfig seeds a registry from the configured module list.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()
	for _, m := range cfg.Modules {
		r.Add(m.Name, m.Organization)
	}
	return r
}

func (r *Registry) Add(name, organization string) *Registry {
	name = strings.TrimSpace(name)
	organization = strings.Trim(strings.TrimSpace(organization), `\`)
	if name == "" || organization == "" {
		return r
	}

	if i, ok := r.index[name]; ok {
		r.modules[i].Organization = organization
		return r
	}
	r.index[name] = len(r.modules)
	r.modules = append(r.modules, Module{Name: name, Organization: organization})
	return r
}

func (r *Registry) Lookup(name string) (Module, bool) {
	i, ok := r.index[name]
	if !ok {
		return Module{}, false
	}
	return r.modules[i], true
}

func (r *Registry) All() []Module {
	return slices.Clone(r.modules)
}

func (r *Registry) Len() int {
	return len(r.modules)
}
