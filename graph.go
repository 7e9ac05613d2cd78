package meshsim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NodeKind distinguishes module nodes from virtual source nodes.
type NodeKind int

const (
	KindSource NodeKind = iota
	KindModule
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Node is one vertex in the dependency graph. Nodes live in an arena indexed
// by ID; edges and adjacency lists refer to them by index, so the graph is
// shareable as read-only data once built.
type Node struct {
	ID       int
	Name     string
	Kind     NodeKind
	Provides []string
	Requires []string

	// ChunkIndex is assigned by Schedule and immutable thereafter.
	// Sources are always placed in chunk 0. -1 until scheduled.
	ChunkIndex int
}

// Edge records that From produces Variable and To consumes it.
type Edge struct {
	From     int
	To       int
	Variable string
}

// Graph is the resolved dependency graph: an arena of nodes plus edges
// expressed as index pairs. After Build it has exactly one producer per
// required variable; acyclicity is enforced by Schedule, not assumed here.
type Graph struct {
	Nodes []Node
	Edges []Edge

	out [][]int // node id -> indexes into Edges leaving that node
}

// Build resolves the registry into a dependency graph. Overrides pin a
// variable to a named producer, removing all other candidate edges for that
// variable; each variable's override is applied independently of any other.
//
// Every resolution problem is collected before returning, so a single run
// reports the full set of missing and ambiguous providers.
func Build(reg *Registry, overrides map[string]string) (*Graph, error) {
	g := &Graph{}
	for _, s := range reg.Sources() {
		g.Nodes = append(g.Nodes, Node{
			ID:         len(g.Nodes),
			Name:       s.Name,
			Kind:       KindSource,
			Provides:   s.Provides,
			ChunkIndex: -1,
		})
	}
	for _, m := range reg.Modules() {
		g.Nodes = append(g.Nodes, Node{
			ID:         len(g.Nodes),
			Name:       m.Name,
			Kind:       KindModule,
			Provides:   m.Provides,
			Requires:   m.Requires,
			ChunkIndex: -1,
		})
	}

	var problems []error

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.Name] {
			problems = append(problems, fmt.Errorf("duplicate node name %q", n.Name))
		}
		seen[n.Name] = true
	}

	// Variable name -> ids of every node providing it.
	providers := make(map[string][]int)
	for _, n := range g.Nodes {
		for _, v := range n.Provides {
			providers[v] = append(providers[v], n.ID)
		}
	}

	for _, n := range g.Nodes {
		if n.Kind != KindModule {
			continue
		}
		for _, v := range n.Requires {
			candidates := providers[v]
			if pin, ok := overrides[v]; ok {
				var pinned []int
				for _, id := range candidates {
					if g.Nodes[id].Name == pin {
						pinned = append(pinned, id)
					}
				}
				candidates = pinned
			}
			switch len(candidates) {
			case 0:
				problems = append(problems, &MissingProviderError{Variable: v, Consumer: n.Name})
			case 1:
				g.Edges = append(g.Edges, Edge{From: candidates[0], To: n.ID, Variable: v})
			default:
				names := make([]string, len(candidates))
				for i, id := range candidates {
					names[i] = g.Nodes[id].Name
				}
				sort.Strings(names)
				problems = append(problems, &AmbiguousProviderError{
					Variable:  v,
					Consumer:  n.Name,
					Producers: names,
				})
			}
		}
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	g.out = make([][]int, len(g.Nodes))
	for i, e := range g.Edges {
		g.out[e.From] = append(g.out[e.From], i)
	}
	return g, nil
}

// NodeByName returns the node with the given name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// ModuleCount returns the number of module nodes in the graph.
func (g *Graph) ModuleCount() int {
	count := 0
	for _, n := range g.Nodes {
		if n.Kind == KindModule {
			count++
		}
	}
	return count
}

// Names maps node ids to node names, preserving order.
func (g *Graph) Names(ids []int) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = g.Nodes[id].Name
	}
	return names
}

// DOT renders the graph in graphviz format with edges labelled by the
// variable they carry. Source nodes are drawn as boxes.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	for _, n := range g.Nodes {
		if n.Kind == KindSource {
			fmt.Fprintf(&b, "  %q [shape=box];\n", n.Name)
		} else {
			fmt.Fprintf(&b, "  %q;\n", n.Name)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n",
			g.Nodes[e.From].Name, g.Nodes[e.To].Name, e.Variable)
	}
	b.WriteString("}\n")
	return b.String()
}
