package manifest

import "fmt"

// Module groups the class manifests an application module contributes.
// Included modules are registered before the classes of the including one.
type Module struct {
	name       string
	classes    []*Class
	submodules []*Module
}

func NewModule(name string) *Module {
	return &Module{name: name}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Register(classes ...*Class) *Module {
	m.classes = append(m.classes, classes...)
	return m
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

// Apply registers the module and its submodules into r.
func (m *Module) Apply(r *Registry) error {
	for _, sub := range m.submodules {
		if err := sub.Apply(r); err != nil {
			return err
		}
	}
	if err := r.Register(m.classes...); err != nil {
		return fmt.Errorf("module %s: %w", m.name, err)
	}
	return nil
}

// RegistryOf builds a registry holding every class of modules.
func RegistryOf(modules ...*Module) (*Registry, error) {
	r := NewRegistry()
	for _, m := range modules {
		if err := m.Apply(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
