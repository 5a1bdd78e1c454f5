// Package graph holds the service dependency graph built while compiling a
// definition graph. It is single-writer and not safe for concurrent use.
package graph

import (
	"errors"
	"slices"
	"sort"
)

var ErrCycleDetected = errors.New("cycle detected in graph")

type Graph struct {
	edges map[string][]string
}

func New() *Graph {
	return &Graph{
		edges: make(map[string][]string),
	}
}

func (g *Graph) AddNode(id string, dependencies []string) {
	deps := make([]string, 0, len(dependencies))
	for _, dep := range dependencies {
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	g.edges[id] = deps
}

func (g *Graph) HasNode(id string) bool {
	_, exists := g.edges[id]
	return exists
}

func (g *Graph) Dependencies(id string) []string {
	return slices.Clone(g.edges[id])
}

func (g *Graph) Dependents(id string) []string {
	var dependents []string
	for _, node := range g.Nodes() {
		if slices.Contains(g.edges[node], id) {
			dependents = append(dependents, node)
		}
	}
	return dependents
}

// Nodes returns the node ids in sorted order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.edges))
	for id := range g.edges {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

func (g *Graph) Size() int {
	return len(g.edges)
}

// Missing lists dependencies that are not nodes, each with the nodes that
// point at it.
func (g *Graph) Missing() map[string][]string {
	missing := make(map[string][]string)
	for _, id := range g.Nodes() {
		for _, dep := range g.edges[id] {
			if !g.HasNode(dep) {
				missing[dep] = append(missing[dep], id)
			}
		}
	}
	return missing
}

// TopologicalSort orders nodes so that every node comes after its
// dependencies. Ties are broken by id.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.edges))
	dependents := make(map[string][]string, len(g.edges))

	for _, id := range g.Nodes() {
		inDegree[id] += 0
		for _, dep := range g.edges[id] {
			if g.HasNode(dep) {
				dependents[dep] = append(dependents[dep], id)
				inDegree[id]++
			}
		}
	}

	var queue []string
	for _, id := range g.Nodes() {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.edges))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(g.edges) {
		return nil, ErrCycleDetected
	}
	return sorted, nil
}
