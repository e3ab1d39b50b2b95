package graph

import (
	"fmt"
	"sort"
)

// SceneGraph is the result of one script evaluation: parts, placements and
// plates, plus the settings the script asked for. Consumers treat it as
// read-only; a new evaluation builds a new graph.
type SceneGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	// Settings holds print parameter overrides keyed by config key
	// ("layer-height", "infill-density", ...).
	Settings map[string]float64 `json:"settings,omitempty"`
	Version  uint64             `json:"version"`
}

// New returns an empty graph.
func New() *SceneGraph {
	return &SceneGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Settings:  make(map[string]float64),
	}
}

// AddNode stores n, replacing any node with the same ID, and indexes its
// name.
func (g *SceneGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot marks id as a plate.
func (g *SceneGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Set records a settings override. Later calls win.
func (g *SceneGraph) Set(key string, v float64) {
	g.Settings[key] = v
}

// Lookup returns the node named name, or nil.
func (g *SceneGraph) Lookup(name string) *Node {
	if id, ok := g.NameIndex[name]; ok {
		return g.Nodes[id]
	}
	return nil
}

// MustLookup is Lookup for names known to exist.
func (g *SceneGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with ID id, or nil.
func (g *SceneGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Parts returns all geometry-producing nodes (primitives and imports),
// ordered by name then ID.
func (g *SceneGraph) Parts() []*Node {
	var parts []*Node
	for _, n := range g.Nodes {
		if n.Kind.IsPart() {
			parts = append(parts, n)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].Name != parts[j].Name {
			return parts[i].Name < parts[j].Name
		}
		return parts[i].ID.String() < parts[j].ID.String()
	})
	return parts
}

// Children resolves n's child IDs, skipping dangling ones.
func (g *SceneGraph) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		if c, ok := g.Nodes[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *SceneGraph) NodeCount() int {
	return len(g.Nodes)
}
