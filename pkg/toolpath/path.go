// Package toolpath turns slices into the point sequences an extruder
// follows: wall loops around each hull and a rectilinear infill grid inside
// them.
package toolpath

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/slicer"
)

// Path is an ordered run of points extruded in one go.
type Path struct {
	Points []geom.Point3 `json:"points"`
}

// Length returns the summed distance between consecutive points.
func (p Path) Length() float64 {
	var d float64
	for i := 1; i < len(p.Points); i++ {
		d += geom.Distance(p.Points[i-1], p.Points[i])
	}
	return d
}

// Layer groups the paths printed at one z datum.
type Layer struct {
	Z      float64 `json:"z"`
	Walls  []Path  `json:"walls"`
	Infill []Path  `json:"infill"`
}

// Paths returns the walls followed by the infill.
func (l Layer) Paths() []Path {
	out := make([]Path, 0, len(l.Walls)+len(l.Infill))
	out = append(out, l.Walls...)
	return append(out, l.Infill...)
}

// Length returns the extruded length of every path in the layer.
func (l Layer) Length() float64 {
	var d float64
	for _, p := range l.Paths() {
		d += p.Length()
	}
	return d
}

// Walls returns one path per hull, following the hull's point order. Closed
// hulls end back at their first point.
func Walls(s slicer.Slice) []Path {
	out := make([]Path, 0, len(s.Hulls))
	for _, h := range s.Hulls {
		if len(h.Points) < 2 {
			continue
		}
		out = append(out, Path{Points: h.Ring()})
	}
	return out
}

// Move is one output record: travel to Point, extruding on the way if
// Extrude is set.
type Move struct {
	Point   geom.Point3
	Extrude bool
}

// Moves flattens paths into moves. The extruder travels to the first point
// of each path and extrudes along the rest.
func Moves(paths []Path) []Move {
	var out []Move
	for _, p := range paths {
		for i, pt := range p.Points {
			out = append(out, Move{Point: pt, Extrude: i > 0})
		}
	}
	return out
}

// WriteMoves writes one tab-separated line per move:
//
//	X<x>	Y<y>	Z<z>	E<0|1>
func WriteMoves(w io.Writer, moves []Move) error {
	bw := bufio.NewWriter(w)
	for _, m := range moves {
		e := 0
		if m.Extrude {
			e = 1
		}
		if _, err := fmt.Fprintf(bw, "X%s\tY%s\tZ%s\tE%d\n",
			formatCoord(m.Point.X), formatCoord(m.Point.Y), formatCoord(m.Point.Z), e); err != nil {
			return fmt.Errorf("toolpath: write moves: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("toolpath: write moves: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	r := geom.Round(v, 6)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
