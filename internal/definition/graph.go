// Package definition holds the per-compilation-unit service definition graph
// that the rewrite passes mutate and the container engine materializes.
package definition

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/danpasecinic/spindle/internal/graph"
)

var ErrFrozen = errors.New("definition graph is compiled")

type Graph struct {
	definitions map[string]*Definition
	order       []string
	parameters  map[string]any
	resources   []string
	compiled    []string
	frozen      bool
}

func NewGraph() *Graph {
	return &Graph{
		definitions: make(map[string]*Definition),
		parameters:  make(map[string]any),
	}
}

func (g *Graph) HasDefinition(id string) bool {
	_, ok := g.definitions[normalize(id)]
	return ok
}

// Has reports whether id is known to the graph as a definition.
func (g *Graph) Has(id string) bool {
	return g.HasDefinition(id)
}

func (g *Graph) Definition(id string) (*Definition, bool) {
	def, ok := g.definitions[normalize(id)]
	return def, ok
}

func (g *Graph) SetDefinition(id string, def *Definition) error {
	if g.frozen {
		return fmt.Errorf("%w: cannot set %s", ErrFrozen, id)
	}

	id = normalize(id)
	if _, exists := g.definitions[id]; !exists {
		g.order = append(g.order, id)
	}
	g.definitions[id] = def
	return nil
}

func (g *Graph) RemoveDefinition(id string) error {
	if g.frozen {
		return fmt.Errorf("%w: cannot remove %s", ErrFrozen, id)
	}

	id = normalize(id)
	if _, exists := g.definitions[id]; !exists {
		return nil
	}
	delete(g.definitions, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return nil
}

// ServiceIDs returns a snapshot of the definition ids in insertion order.
func (g *Graph) ServiceIDs() []string {
	return slices.Clone(g.order)
}

func (g *Graph) Size() int {
	return len(g.definitions)
}

func (g *Graph) SetParameter(name string, value any) error {
	if g.frozen {
		return fmt.Errorf("%w: cannot set parameter %s", ErrFrozen, name)
	}
	g.parameters[name] = value
	return nil
}

func (g *Graph) Parameter(name string) (any, bool) {
	v, ok := g.parameters[name]
	return v, ok
}

func (g *Graph) Parameters() map[string]any {
	return maps.Clone(g.parameters)
}

func (g *Graph) AddResource(path string) {
	if !slices.Contains(g.resources, path) {
		g.resources = append(g.resources, path)
	}
}

func (g *Graph) Resources() []string {
	return slices.Clone(g.resources)
}

func (g *Graph) Frozen() bool {
	return g.frozen
}

// Tagged returns the ids of the non-abstract definitions tagged name that
// contribute to consumer. Contributions with a position come first in
// ascending position; the rest keep insertion order.
func (g *Graph) Tagged(name, consumer string) []string {
	type member struct {
		id       string
		position int
		ranked   bool
		seq      int
	}

	var members []member
	for seq, id := range g.order {
		def := g.definitions[id]
		if def.Abstract {
			continue
		}
		for _, tag := range def.Tags {
			if tag.Name != name || (tag.Consumer != "" && tag.Consumer != consumer) {
				continue
			}
			m := member{id: id, seq: seq}
			if tag.Position != nil {
				m.position, m.ranked = *tag.Position, true
			}
			members = append(members, m)
			break
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.ranked != b.ranked {
			return a.ranked
		}
		if a.ranked && a.position != b.position {
			return a.position < b.position
		}
		return a.seq < b.seq
	})

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.id
	}
	return ids
}

// Dependencies lists the eager dependencies of id: references to lazy
// definitions are deferred at runtime and do not count.
func (g *Graph) Dependencies(id string) []string {
	def, ok := g.Definition(id)
	if !ok {
		return nil
	}

	var deps []string
	for _, ref := range def.References() {
		if target, ok := g.definitions[ref]; ok && target.Lazy {
			continue
		}
		deps = append(deps, ref)
	}
	for _, name := range def.ArgumentNames() {
		if arg := def.Arguments[name]; arg.IsTagged() {
			deps = append(deps, g.Tagged(arg.Tagged, def.Class)...)
		}
	}
	return deps
}

// Compile checks that every reference resolves and that eager dependencies
// are acyclic, then freezes the graph.
func (g *Graph) Compile() error {
	if g.frozen {
		return nil
	}

	deps := graph.New()
	for _, id := range g.order {
		deps.AddNode(id, g.Dependencies(id))
	}

	var errs error
	for _, id := range g.order {
		for _, ref := range g.definitions[id].References() {
			if !g.HasDefinition(ref) {
				errs = multierr.Append(errs, fmt.Errorf("service %s references undefined service %s", id, ref))
			}
		}
	}

	for _, cycle := range deps.Cycles() {
		path := deps.CyclePath(cycle[0])
		errs = multierr.Append(
			errs,
			fmt.Errorf("circular reference: %s: %w", strings.Join(path, " -> "), graph.ErrCycleDetected),
		)
	}

	if errs != nil {
		return errs
	}

	order, err := deps.TopologicalSort()
	if err != nil {
		return err
	}

	g.compiled = order
	g.frozen = true
	return nil
}

// CompiledOrder returns the ids in dependency order once compiled.
func (g *Graph) CompiledOrder() []string {
	return slices.Clone(g.compiled)
}

func normalize(id string) string {
	return strings.TrimLeft(id, `\`)
}
