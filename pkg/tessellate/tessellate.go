// Package tessellate walks a scene graph and produces meshes using a
// geometry kernel for primitives and STL files for imports. One mesh is
// produced per placed part.
package tessellate

import (
	"fmt"
	"path/filepath"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/graph"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/stlio"
	"github.com/go-gl/mathgl/mgl64"
)

// Option configures Tessellate.
type Option func(*options)

type options struct {
	baseDir string
}

// WithBaseDir resolves relative import paths against dir.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// transformStack accumulates placement matrices during graph traversal.
// The top of the stack is the product of every transform on the path from
// the root.
type transformStack struct {
	mats []mgl64.Mat4
}

func newTransformStack() *transformStack {
	return &transformStack{mats: []mgl64.Mat4{mgl64.Ident4()}}
}

func (ts *transformStack) top() mgl64.Mat4 {
	return ts.mats[len(ts.mats)-1]
}

func (ts *transformStack) push(local mgl64.Mat4) {
	ts.mats = append(ts.mats, ts.top().Mul4(local))
}

func (ts *transformStack) pop() {
	if len(ts.mats) > 1 {
		ts.mats = ts.mats[:len(ts.mats)-1]
	}
}

// localMatrix builds rotate-then-translate for a transform node. Rotation
// order is x, then y, then z.
func localMatrix(td graph.TransformData) mgl64.Mat4 {
	m := mgl64.Ident4()
	if td.Translation != nil {
		t := *td.Translation
		m = mgl64.Translate3D(t.X, t.Y, t.Z)
	}
	if td.Rotation != nil {
		r := *td.Rotation
		m = m.Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(r.Z))).
			Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(r.Y))).
			Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(r.X)))
	}
	return m
}

// walker carries the state of one Tessellate call.
type walker struct {
	g     *graph.SceneGraph
	k     kernel.Kernel
	opts  options
	ts    *transformStack
	parts map[graph.NodeID]*mesh.Mesh // untransformed part meshes
}

// Tessellate walks the scene graph and produces one mesh per placed part,
// in the order parts are reached from the roots. A part placed twice yields
// two meshes. The graph is never mutated.
func Tessellate(g *graph.SceneGraph, k kernel.Kernel, opts ...Option) ([]*mesh.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	w := &walker{
		g:     g,
		k:     k,
		ts:    newTransformStack(),
		parts: make(map[graph.NodeID]*mesh.Mesh),
	}
	for _, o := range opts {
		o(&w.opts)
	}

	var meshes []*mesh.Mesh
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := w.walkNode(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// walkNode recursively traverses a node and its children, collecting meshes.
func (w *walker) walkNode(n *graph.Node) ([]*mesh.Mesh, error) {
	switch n.Kind {
	case graph.NodePrimitive, graph.NodeImport:
		m, err := w.part(n)
		if err != nil {
			return nil, err
		}
		top := w.ts.top()
		if top != mgl64.Ident4() {
			m = m.Transform(top)
		} else {
			m = m.Copy()
		}
		return []*mesh.Mesh{m}, nil

	case graph.NodeTransform:
		td, ok := n.Data.(graph.TransformData)
		if !ok {
			return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		w.ts.push(localMatrix(td))
		defer w.ts.pop()
		return w.walkChildren(n)

	case graph.NodeGroup:
		return w.walkChildren(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (w *walker) walkChildren(n *graph.Node) ([]*mesh.Mesh, error) {
	var meshes []*mesh.Mesh
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// part returns the untransformed mesh for a primitive or import node,
// building it on first use.
func (w *walker) part(n *graph.Node) (*mesh.Mesh, error) {
	if m, ok := w.parts[n.ID]; ok {
		return m, nil
	}

	var m *mesh.Mesh
	var err error
	switch data := n.Data.(type) {
	case graph.BoxData:
		m, err = w.primitive(w.k.Box(geom.P(data.Size.X, data.Size.Y, data.Size.Z)))
	case graph.CylinderData:
		m, err = w.primitive(w.k.Cylinder(data.Radius, data.Height))
	case graph.ImportData:
		m, err = w.importMesh(data)
	default:
		return nil, fmt.Errorf("part node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: part %s: %w", partName(n), err)
	}

	m.Name = partName(n)
	w.parts[n.ID] = m
	logging.Logger().Debug("tessellate: part", "name", m.Name, "kind", n.Kind, "facets", m.FacetCount())
	return m, nil
}

func (w *walker) primitive(s kernel.Solid, err error) (*mesh.Mesh, error) {
	if err != nil {
		return nil, err
	}
	return w.k.ToMesh(s)
}

func (w *walker) importMesh(d graph.ImportData) (*mesh.Mesh, error) {
	path := d.Path
	if !filepath.IsAbs(path) && w.opts.baseDir != "" {
		path = filepath.Join(w.opts.baseDir, path)
	}
	m, err := stlio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if d.Scale > 0 && d.Scale != 1 {
		m = m.Transform(mgl64.Scale3D(d.Scale, d.Scale, d.Scale))
	}
	return m, nil
}

// partName prefers the node's Name and falls back to its short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
