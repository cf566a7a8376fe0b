/*
Copyright The Flotilla Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package graph orders a set of resolved manifests by their declared
// dependencies. A graph with a cycle has no usable rollout order, so
// construction fails rather than guessing one.
package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Node is one service in the dependency graph
type Node struct {
	Name    string
	Version string
	Team    string

	// DependsOn lists the in-graph services this one declares a dependency
	// on, sorted
	DependsOn []string
}

// Edge is one declared dependency between two in-graph services
type Edge struct {
	From   string
	To     string
	Intent string
}

// Graph is a directed dependency graph over a set of resolved manifests.
// A built graph is always acyclic.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	warnings []string
}

// CycleError names a dependency cycle along its path
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Build constructs the dependency graph for a manifest set: one node per
// manifest, one edge per declared dependency on another manifest in the
// set. Dependencies pointing outside the set become warnings, not edges.
func Build(manifests []*manifest.Manifest) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Node, len(manifests))}

	for _, m := range manifests {
		if _, exists := g.nodes[m.Name]; exists {
			return nil, fmt.Errorf("service %s appears twice in the graph", m.Name)
		}
		team := ""
		if m.Metadata != nil {
			team = m.Metadata.Team
		}
		g.nodes[m.Name] = &Node{
			Name:    m.Name,
			Version: m.Version,
			Team:    team,
		}
	}

	for _, m := range manifests {
		node := g.nodes[m.Name]
		for _, dependency := range m.Dependencies {
			if _, found := g.nodes[dependency.Name]; !found {
				g.warnings = append(g.warnings, fmt.Sprintf(
					"%s depends on %s, which is not part of the graph",
					m.Name, dependency.Name))
				continue
			}
			node.DependsOn = append(node.DependsOn, dependency.Name)
			g.edges = append(g.edges, Edge{
				From:   m.Name,
				To:     dependency.Name,
				Intent: dependency.Intent,
			})
		}
		sort.Strings(node.DependsOn)
	}
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	sort.Strings(g.warnings)

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}
	return g, nil
}

// Names lists every service in the graph, sorted
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Node returns the named node, if part of the graph
func (g *Graph) Node(name string) (Node, bool) {
	node, found := g.nodes[name]
	if !found {
		return Node{}, false
	}
	return *node, true
}

// Edges lists every dependency edge, sorted by endpoint names
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Warnings lists the dependencies that point outside the graph
func (g *Graph) Warnings() []string {
	return g.warnings
}

// DeployOrder returns the services ordered so that every one comes after
// everything it depends on. Ties break lexicographically, so the order is
// stable across runs.
func (g *Graph) DeployOrder() []string {
	remaining := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		remaining[node.Name] = len(node.DependsOn)
		for _, dependency := range node.DependsOn {
			dependents[dependency] = append(dependents[dependency], node.Name)
		}
	}

	var ready []string
	for name, count := range remaining {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dependent := range dependents[name] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
	}
	return order
}

// Dependents returns the services directly depending on the given one,
// sorted. This is the blast radius of a change to it.
func (g *Graph) Dependents(service string) []string {
	var dependents []string
	for _, node := range g.nodes {
		for _, dependency := range node.DependsOn {
			if dependency == service {
				dependents = append(dependents, node.Name)
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}

// DOT writes the graph in graphviz dot format, edges labelled with their
// declared intent
func (g *Graph) DOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph dependencies {"); err != nil {
		return err
	}
	for _, name := range g.Names() {
		node := g.nodes[name]
		label := node.Name
		if node.Version != "" {
			label = node.Name + "@" + node.Version
		}
		if _, err := fmt.Fprintf(w, "  \"%s\" [label=\"%s\"];\n", node.Name, label); err != nil {
			return err
		}
	}
	for _, edge := range g.edges {
		line := fmt.Sprintf("  \"%s\" -> \"%s\";", edge.From, edge.To)
		if edge.Intent != "" {
			line = fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];", edge.From, edge.To, edge.Intent)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// findCycle depth-first searches for a back edge, returning the cycle path
// with its first node repeated at the end, or nil
func (g *Graph) findCycle() []string {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = gray
		stack = append(stack, name)
		for _, dependency := range g.nodes[name].DependsOn {
			switch color[dependency] {
			case gray:
				start := 0
				for i, entry := range stack {
					if entry == dependency {
						start = i
						break
					}
				}
				cycle := append([]string{}, stack[start:]...)
				return append(cycle, dependency)
			case white:
				if cycle := visit(dependency); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range g.Names() {
		if color[name] == white {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
