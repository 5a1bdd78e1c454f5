package manifest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps class and interface names to their manifests. It stands in
// for class loading: a name is loadable when it is registered.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
	}
}

func (r *Registry) Register(classes ...*Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, class := range classes {
		if err := validateClass(class); err != nil {
			return err
		}

		name := normalize(class.Name)
		if _, exists := r.classes[name]; exists {
			return fmt.Errorf("class already registered: %s", name)
		}
		class.Name = name
		r.classes[name] = class
	}
	return nil
}

func (r *Registry) MustRegister(classes ...*Class) *Registry {
	if err := r.Register(classes...); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, ok := r.classes[normalize(name)]
	return class, ok
}

func (r *Registry) Loadable(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

func (r *Registry) IsClass(name string) bool {
	class, ok := r.Lookup(name)
	return ok && class.Kind == KindClass
}

func (r *Registry) IsInterface(name string) bool {
	class, ok := r.Lookup(name)
	return ok && class.Kind == KindInterface
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Merge returns a registry holding the classes of r and others. Names
// already present in r win.
func (r *Registry) Merge(others ...*Registry) *Registry {
	merged := NewRegistry()

	for _, src := range append([]*Registry{r}, others...) {
		src.mu.RLock()
		for name, class := range src.classes {
			if _, exists := merged.classes[name]; !exists {
				merged.classes[name] = class
			}
		}
		src.mu.RUnlock()
	}
	return merged
}

func validateClass(class *Class) error {
	if class == nil || class.Name == "" {
		return fmt.Errorf("class manifest without name")
	}
	if class.Constructor == nil {
		return nil
	}

	for _, stack := range class.Constructor.Stacks {
		if stack.ProvideToArgument() == "" {
			return configError(
				class.Name,
				fmt.Sprintf("constructor stack of %s does not name the argument it provides to", class.Name),
			)
		}
	}
	return nil
}

func normalize(name string) string {
	return strings.TrimLeft(name, `\`)
}
