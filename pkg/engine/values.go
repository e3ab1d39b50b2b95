package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/strata/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// shapeValue is what box, cylinder and stl evaluate to: a part payload that
// has no node yet. defpart names it; place and plate add it anonymously.
type shapeValue struct {
	data graph.NodeData
}

func (s *shapeValue) SexpString(*zygo.PrintState) string {
	switch d := s.data.(type) {
	case graph.BoxData:
		return fmt.Sprintf("(box %g %g %g)", d.Size.X, d.Size.Y, d.Size.Z)
	case graph.CylinderData:
		return fmt.Sprintf("(cylinder :radius %g :height %g)", d.Radius, d.Height)
	case graph.ImportData:
		return fmt.Sprintf("(stl %q)", d.Path)
	}
	return fmt.Sprintf("(shape %T)", s.data)
}

func (s *shapeValue) Type() *zygo.RegisteredType { return nil }

func (s *shapeValue) kind() graph.NodeKind {
	if _, ok := s.data.(graph.ImportData); ok {
		return graph.NodeImport
	}
	return graph.NodePrimitive
}

// nodeValue refers to a node already in the graph. name is empty for
// anonymous nodes.
type nodeValue struct {
	id   graph.NodeID
	name string
}

func (n *nodeValue) SexpString(*zygo.PrintState) string {
	if n.name == "" {
		return "(node " + n.id.Short() + ")"
	}
	return fmt.Sprintf("(node %q)", n.name)
}

func (n *nodeValue) Type() *zygo.RegisteredType { return nil }

type vecValue graph.Vec3

func (v *vecValue) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.X, v.Y, v.Z)
}

func (v *vecValue) Type() *zygo.RegisteredType { return nil }

// show renders a value for an error message.
func show(s zygo.Sexp) string {
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func asNumber(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", show(s))
}

func asString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", show(s))
}

func asVec(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*vecValue); ok {
		return graph.Vec3(*v), nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %s", show(s))
}

// keyword reports whether s is a keyword rewritten by preprocessSource and
// returns its bare name.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// args is a call's argument list split into positional and keyword values.
// A trailing keyword with no value maps to SexpNull.
type args struct {
	pos   []zygo.Sexp
	kw    map[string]zygo.Sexp
	order []string
}

func splitArgs(in []zygo.Sexp) args {
	a := args{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(in); i++ {
		name, ok := keyword(in[i])
		if !ok {
			a.pos = append(a.pos, in[i])
			continue
		}
		if _, seen := a.kw[name]; !seen {
			a.order = append(a.order, name)
		}
		a.kw[name] = zygo.SexpNull
		if i+1 < len(in) {
			i++
			a.kw[name] = in[i]
		}
	}
	return a
}

// check returns an error naming the first keyword, in source order, that is
// not in allowed.
func (a args) check(form string, allowed ...string) error {
	for _, k := range a.order {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("%s: unknown keyword :%s", form, k)
		}
	}
	return nil
}

// number reads keyword key, or positional argument pos when the keyword is
// absent and pos >= 0. found is false when neither is given.
func (a args) number(key string, pos int) (v float64, found bool, err error) {
	s, ok := a.kw[key]
	if !ok && pos >= 0 && pos < len(a.pos) {
		s, ok = a.pos[pos], true
	}
	if !ok {
		return 0, false, nil
	}
	v, err = asNumber(s)
	return v, true, err
}

// require is number for arguments that must be present.
func (a args) require(form, key string, pos int) (float64, error) {
	v, found, err := a.number(key, pos)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %s: %w", form, key, err)
	case !found:
		return 0, fmt.Errorf("%s: missing %s", form, key)
	}
	return v, nil
}
