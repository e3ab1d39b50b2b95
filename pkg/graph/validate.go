package graph

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationSeverity indicates whether a validation finding blocks slicing
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks slicing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural and geometric checks on the scene graph and
// returns every finding, node by node in ID order. An empty slice means the
// graph is valid. The graph is never mutated.
func Validate(g *SceneGraph) []ValidationError {
	c := &checker{g: g, ids: sortedIDs(g)}
	c.cycles()
	c.names()
	c.roots()
	for _, id := range c.ids {
		n := g.Nodes[id]
		c.children(n)
		c.data(n)
	}
	return c.found
}

// ValidateAll runs Validate and separates errors from warnings.
func ValidateAll(g *SceneGraph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{NodeID: e.NodeID, Message: e.Message})
			continue
		}
		result.Errors = append(result.Errors, e)
	}
	return result
}

func sortedIDs(g *SceneGraph) []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// checker accumulates findings for one Validate call.
type checker struct {
	g     *SceneGraph
	ids   []NodeID
	found []ValidationError
}

func (c *checker) errorf(id NodeID, format string, args ...any) {
	c.found = append(c.found, ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

func (c *checker) warnf(id NodeID, format string, args ...any) {
	c.found = append(c.found, ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// cycles reports the first cycle found by a depth-first walk, naming every
// node on it. Nodes on the current path are "open"; fully explored nodes are
// "done".
func (c *checker) cycles() {
	const (
		open = iota + 1
		done
	)
	state := make(map[NodeID]int, len(c.ids))
	var path []NodeID

	var walk func(id NodeID) bool
	walk = func(id NodeID) bool {
		switch state[id] {
		case done:
			return false
		case open:
			start := len(path) - 1
			for path[start] != id {
				start--
			}
			names := make([]string, 0, len(path)-start+1)
			for _, p := range path[start:] {
				names = append(names, p.Short())
			}
			names = append(names, id.Short())
			c.errorf(id, "cycle detected: %s", strings.Join(names, " -> "))
			return true
		}
		n, ok := c.g.Nodes[id]
		if !ok {
			return false // dangling; reported by children
		}
		state[id] = open
		path = append(path, id)
		for _, child := range n.Children {
			if walk(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return false
	}

	for _, id := range c.ids {
		if walk(id) {
			return
		}
	}
}

// names checks that NameIndex points at existing nodes and that no two
// nodes share a name.
func (c *checker) names() {
	indexNames := make([]string, 0, len(c.g.NameIndex))
	for name := range c.g.NameIndex {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)
	for _, name := range indexNames {
		if id := c.g.NameIndex[name]; c.g.Nodes[id] == nil {
			c.errorf(ZeroID, "name index entry %q references non-existent node %s", name, id.Short())
		}
	}

	count := make(map[string]int)
	var dups []string
	for _, id := range c.ids {
		name := c.g.Nodes[id].Name
		if name == "" {
			continue
		}
		count[name]++
		if count[name] == 2 {
			dups = append(dups, name)
		}
	}
	for _, name := range dups {
		c.errorf(ZeroID, "duplicate name %q assigned to %d nodes", name, count[name])
	}
}

// roots checks root references and warns about nodes no plate reaches.
// Orphans are defined but never placed, so they are not printed.
func (c *checker) roots() {
	reached := make(map[NodeID]bool, len(c.ids))
	var stack []NodeID
	for _, rid := range c.g.Roots {
		if c.g.Nodes[rid] == nil {
			c.errorf(ZeroID, "root reference %s does not exist", rid.Short())
			continue
		}
		stack = append(stack, rid)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		if n := c.g.Nodes[id]; n != nil {
			stack = append(stack, n.Children...)
		}
	}

	for _, id := range c.ids {
		if !reached[id] {
			n := c.g.Nodes[id]
			name := n.Name
			if name == "" {
				name = id.Short()
			}
			c.warnf(id, "node %q is not reachable from any plate (orphan)", name)
		}
	}
}

// children checks child references and that parts are leaves. Transforms
// without children are legal but place nothing.
func (c *checker) children(n *Node) {
	for _, child := range n.Children {
		if c.g.Nodes[child] == nil {
			c.errorf(n.ID, "child reference %s does not exist", child.Short())
		}
	}
	switch {
	case n.Kind.IsPart() && len(n.Children) > 0:
		c.errorf(n.ID, "%s node has %d children, want none", n.Kind, len(n.Children))
	case n.Kind == NodeTransform && len(n.Children) == 0:
		c.warnf(n.ID, "transform has no children")
	}
}

// data checks primitive sizes and import settings.
func (c *checker) data(n *Node) {
	positive := func(what string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			c.errorf(n.ID, "%s is %.4f, must be positive", what, v)
		}
	}

	switch d := n.Data.(type) {
	case BoxData:
		positive("box dimension X", d.Size.X)
		positive("box dimension Y", d.Size.Y)
		positive("box dimension Z", d.Size.Z)
	case CylinderData:
		positive("cylinder radius", d.Radius)
		positive("cylinder height", d.Height)
	case ImportData:
		if d.Path == "" {
			c.errorf(n.ID, "import has an empty path")
		}
		if d.Scale < 0 || math.IsNaN(d.Scale) || math.IsInf(d.Scale, 0) {
			c.errorf(n.ID, "import scale is %.4f, must be positive", d.Scale)
		}
	}

	if n.Kind == NodePrimitive {
		if _, ok := PrimitiveKindOf(n.Data); !ok {
			c.errorf(n.ID, "primitive node has unsupported data %T", n.Data)
		}
	}
}
