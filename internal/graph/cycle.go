package graph

import "slices"

type tarjan struct {
	graph   *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// Cycles returns every strongly connected component that forms a cycle,
// including self references.
func (g *Graph) Cycles() [][]string {
	t := &tarjan{
		graph:   g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}

	for _, id := range g.Nodes() {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}

	var cycles [][]string
	for _, scc := range t.sccs {
		if len(scc) > 1 || slices.Contains(g.edges[scc[0]], scc[0]) {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func (t *tarjan) strongConnect(id string) {
	t.indices[id] = t.index
	t.lowlink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, dep := range t.graph.edges[id] {
		if !t.graph.HasNode(dep) {
			continue
		}

		if _, visited := t.indices[dep]; !visited {
			t.strongConnect(dep)
			t.lowlink[id] = min(t.lowlink[id], t.lowlink[dep])
		} else if t.onStack[dep] {
			t.lowlink[id] = min(t.lowlink[id], t.indices[dep])
		}
	}

	if t.lowlink[id] != t.indices[id] {
		return
	}

	var scc []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == id {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}

// CyclePath returns a path from start back to a node already on the path,
// or nil when start does not reach a cycle.
func (g *Graph) CyclePath(start string) []string {
	visited := make(map[string]bool)
	inPath := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inPath[id] {
			i := slices.Index(path, id)
			return append(slices.Clone(path[i:]), id)
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		inPath[id] = true
		path = append(path, id)

		for _, dep := range g.edges[id] {
			if !g.HasNode(dep) {
				continue
			}
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}
