package container

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/danpasecinic/spindle/internal/definition"
)

// GraphInfo describes every service a container knows.
type GraphInfo struct {
	Container string        `json:"container"`
	Services  []ServiceInfo `json:"services"`
}

type ServiceInfo struct {
	ID           string   `json:"id"`
	Class        string   `json:"class,omitempty"`
	Public       bool     `json:"public"`
	Proxy        bool     `json:"proxy"`
	Tags         []string `json:"tags,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	Instantiated bool     `json:"instantiated"`
}

func (c *Container) Graph() GraphInfo {
	keys := c.registry.Keys()

	dependents := make(map[string][]string)
	for _, key := range keys {
		for _, dep := range c.registry.Dependencies(key) {
			dependents[dep] = append(dependents[dep], key)
		}
	}

	services := make([]ServiceInfo, 0, len(keys))
	for _, key := range keys {
		entry, _ := c.registry.Get(key)
		_, instantiated := c.registry.GetInstance(key)

		info := ServiceInfo{
			ID:           key,
			Public:       c.Has(key),
			Dependencies: c.registry.Dependencies(key),
			Dependents:   dependents[key],
			Instantiated: instantiated,
		}
		if def := entry.Definition; def != nil {
			info.Class = def.Class
			info.Proxy = definition.IsProxy(def)
			for _, tag := range def.Tags {
				info.Tags = append(info.Tags, tag.Name)
			}
		}
		slices.Sort(info.Dependents)
		services = append(services, info)
	}

	return GraphInfo{Container: c.name, Services: services}
}

func (c *Container) FprintGraph(w io.Writer) {
	info := c.Graph()

	if len(info.Services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty container)")
		return
	}

	for _, svc := range info.Services {
		status := "○"
		if svc.Instantiated {
			status = "●"
		}

		if len(svc.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, svc.ID)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, svc.ID, strings.Join(svc.Dependencies, ", "))
		}
	}
}

func (c *Container) SprintGraph() string {
	var sb strings.Builder
	c.FprintGraph(&sb)
	return sb.String()
}

func (c *Container) FprintGraphDOT(w io.Writer) {
	info := c.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Services {
		style := ""
		switch {
		case svc.Instantiated:
			style = ", style=filled, fillcolor=lightblue"
		case svc.Proxy:
			style = ", style=dashed"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.ID, shortLabel(svc.ID), style)
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Services {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.ID, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (c *Container) SprintGraphDOT() string {
	var sb strings.Builder
	c.FprintGraphDOT(&sb)
	return sb.String()
}

// shortLabel keeps the last segment of a class-like identifier.
func shortLabel(id string) string {
	if idx := strings.LastIndex(id, `\`); idx != -1 {
		return id[idx+1:]
	}
	return id
}
