package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builder owns the graph of one evaluation. Anonymous node paths come from
// a per-evaluation counter, so equal sources produce equal graphs.
type builder struct {
	g    *graph.SceneGraph
	anon int
}

// registerBuiltins installs the job script forms into env. Source must go
// through preprocessSource first so keywords arrive as tagged strings.
func registerBuiltins(env *zygo.Zlisp, g *graph.SceneGraph) {
	b := &builder{g: g}
	for name, fn := range map[string]func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error){
		"box":      b.box,
		"cylinder": b.cylinder,
		"stl":      b.stl,
		"defpart":  b.defpart,
		"part":     b.part,
		"vec3":     b.vec3,
		"place":    b.place,
		"plate":    b.plate,
		"settings": b.settings,
	} {
		env.AddFunction(name, fn)
	}
}

// nextPath returns a fresh node path under prefix.
func (b *builder) nextPath(prefix, name string) string {
	b.anon++
	if name == "" {
		return fmt.Sprintf("%s/_anon_%d", prefix, b.anon)
	}
	return fmt.Sprintf("%s/%s#%d", prefix, name, b.anon)
}

func (b *builder) add(n *graph.Node) *nodeValue {
	b.g.AddNode(n)
	return &nodeValue{id: n.ID, name: n.Name}
}

// addPart turns a shape into a part node; an empty name makes it anonymous.
func (b *builder) addPart(name string, s *shapeValue, form string) *nodeValue {
	path := "defpart/" + name
	if name == "" {
		path = b.nextPath("shape", "")
	}
	return b.add(&graph.Node{
		ID:     graph.NewNodeID(path),
		Kind:   s.kind(),
		Name:   name,
		Source: graph.SourceRef{Form: form},
		Data:   s.data,
	})
}

// child resolves something that can be placed: a node, or an inline shape.
func (b *builder) child(s zygo.Sexp, form string) (*nodeValue, error) {
	switch v := s.(type) {
	case *nodeValue:
		return v, nil
	case *shapeValue:
		return b.addPart("", v, form), nil
	}
	return nil, fmt.Errorf("expected part, shape, or placement, got %s", show(s))
}

// (box 20 10 5) or (box :x 20 :y 10 :z 5)
func (b *builder) box(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	a := splitArgs(in)
	if err := a.check("box", "x", "y", "z"); err != nil {
		return zygo.SexpNull, err
	}
	var size [3]float64
	for i, key := range []string{"x", "y", "z"} {
		v, err := a.require("box", key, i)
		if err != nil {
			return zygo.SexpNull, err
		}
		size[i] = v
	}
	return &shapeValue{data: graph.BoxData{Size: graph.Vec3{X: size[0], Y: size[1], Z: size[2]}}}, nil
}

// (cylinder :radius 4 :height 8) or (cylinder 4 8)
func (b *builder) cylinder(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	a := splitArgs(in)
	if err := a.check("cylinder", "radius", "height"); err != nil {
		return zygo.SexpNull, err
	}
	r, err := a.require("cylinder", "radius", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	h, err := a.require("cylinder", "height", 1)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &shapeValue{data: graph.CylinderData{Radius: r, Height: h}}, nil
}

// (stl "bracket.stl" :scale 2)
func (b *builder) stl(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	a := splitArgs(in)
	if err := a.check("stl", "scale"); err != nil {
		return zygo.SexpNull, err
	}
	if len(a.pos) == 0 {
		return zygo.SexpNull, fmt.Errorf("stl requires a file path")
	}
	path, err := asString(a.pos[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("stl: path: %w", err)
	}
	scale, _, err := a.number("scale", -1)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("stl: scale: %w", err)
	}
	return &shapeValue{data: graph.ImportData{Path: path, Scale: scale}}, nil
}

// (defpart "name" (box ...))
func (b *builder) defpart(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	if len(in) < 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
	}
	name, err := asString(in[0])
	switch {
	case err != nil:
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	case name == "":
		return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
	case b.g.Lookup(name) != nil:
		return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", name)
	}
	s, ok := in[1].(*shapeValue)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("defpart: expected box, cylinder, or stl expression, got %s", show(in[1]))
	}
	return b.addPart(name, s, "defpart"), nil
}

// (part "name")
func (b *builder) part(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	if len(in) != 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}
	name, err := asString(in[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}
	n := b.g.Lookup(name)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", name)
	}
	return &nodeValue{id: n.ID, name: name}, nil
}

// (vec3 1 2 3)
func (b *builder) vec3(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	if len(in) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(in))
	}
	var c [3]float64
	for i := range in {
		v, err := asNumber(in[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
		}
		c[i] = v
	}
	return &vecValue{X: c[0], Y: c[1], Z: c[2]}, nil
}

// (place (part "peg") :at (vec3 0 0 19) :rotate (vec3 0 0 90))
func (b *builder) place(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	a := splitArgs(in)
	if err := a.check("place", "at", "rotate"); err != nil {
		return zygo.SexpNull, err
	}
	if len(a.pos) == 0 {
		return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
	}
	c, err := b.child(a.pos[0], "place")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
	}

	var td graph.TransformData
	for _, opt := range []struct {
		key string
		dst **graph.Vec3
	}{{"at", &td.Translation}, {"rotate", &td.Rotation}} {
		s, ok := a.kw[opt.key]
		if !ok {
			continue
		}
		v, err := asVec(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %s: %w", opt.key, err)
		}
		*opt.dst = &v
	}

	return b.add(&graph.Node{
		ID:       graph.NewNodeID(b.nextPath("place", c.name)),
		Kind:     graph.NodeTransform,
		Source:   graph.SourceRef{Form: "place"},
		Children: []graph.NodeID{c.id},
		Data:     td,
	}), nil
}

// (plate "name" (place ...) (part "peg") (box 5 5 5) ...)
func (b *builder) plate(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	if len(in) == 0 {
		return zygo.SexpNull, fmt.Errorf("plate requires a name argument")
	}
	name, err := asString(in[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("plate: name: %w", err)
	}
	if b.g.Lookup(name) != nil {
		return zygo.SexpNull, fmt.Errorf("plate: %q is already defined", name)
	}

	children := make([]graph.NodeID, 0, len(in)-1)
	for i, s := range in[1:] {
		c, err := b.child(s, "plate")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plate: child %d: %w", i+1, err)
		}
		children = append(children, c.id)
	}

	v := b.add(&graph.Node{
		ID:       graph.NewNodeID("plate/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Source:   graph.SourceRef{Form: "plate"},
		Children: children,
		Data:     graph.GroupData{},
	})
	b.g.AddRoot(v.id)
	return v, nil
}

// (settings :layer-height 0.2 :infill-density 0.3)
func (b *builder) settings(_ *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
	a := splitArgs(in)
	if len(a.pos) > 0 {
		return zygo.SexpNull, fmt.Errorf("settings takes only keyword arguments, got %s", a.pos[0].SexpString(nil))
	}
	keys := config.Keys()
	for _, k := range a.order {
		if i := sort.SearchStrings(keys, k); i == len(keys) || keys[i] != k {
			return zygo.SexpNull, fmt.Errorf("settings: unknown key :%s (want one of %s)", k, strings.Join(keys, ", "))
		}
		v, err := asNumber(a.kw[k])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("settings: %s: %w", k, err)
		}
		b.g.Set(k, v)
	}
	return zygo.SexpNull, nil
}
