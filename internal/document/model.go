package document

import (
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/raster"
)

type Kind string

const (
	KindLine    Kind = "line"
	KindCircle  Kind = "circle"
	KindEllipse Kind = "ellipse"
)

// ParseKind maps a persisted kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindLine, KindCircle, KindEllipse:
		return k, true
	}
	return "", false
}

// Geometry is the closed set of primitive shapes. Each variant carries its
// own defining parameters in the logical frame.
type Geometry interface {
	Kind() Kind
	Params() []float64
	isGeometry()
}

type Line struct {
	X1, Y1, X2, Y2 float64
}

type Circle struct {
	CX, CY, R float64
}

type Ellipse struct {
	CX, CY, RX, RY float64
}

func (Line) Kind() Kind    { return KindLine }
func (Circle) Kind() Kind  { return KindCircle }
func (Ellipse) Kind() Kind { return KindEllipse }

func (g Line) Params() []float64    { return []float64{g.X1, g.Y1, g.X2, g.Y2} }
func (g Circle) Params() []float64  { return []float64{g.CX, g.CY, g.R} }
func (g Ellipse) Params() []float64 { return []float64{g.CX, g.CY, g.RX, g.RY} }

func (Line) isGeometry()    {}
func (Circle) isGeometry()  {}
func (Ellipse) isGeometry() {}

// P1 and P2 return the endpoints of the line.
func (g Line) P1() geom.Point { return geom.Pt(g.X1, g.Y1) }
func (g Line) P2() geom.Point { return geom.Pt(g.X2, g.Y2) }

// NewLine builds a line between two points.
func NewLine(a, b geom.Point) Line {
	return Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

func (g Circle) Center() geom.Point  { return geom.Pt(g.CX, g.CY) }
func (g Ellipse) Center() geom.Point { return geom.Pt(g.CX, g.CY) }

// GeometryFromParams rebuilds a geometry from its kind and flat parameter
// list. The arity must match the kind exactly.
func GeometryFromParams(kind Kind, params []float64) (Geometry, error) {
	want := map[Kind]int{KindLine: 4, KindCircle: 3, KindEllipse: 4}[kind]
	if want == 0 {
		return nil, invalidGeometry("unknown kind %q", kind)
	}
	if len(params) != want {
		return nil, invalidGeometry("%s needs %d parameters, got %d", kind, want, len(params))
	}
	p := params
	switch kind {
	case KindLine:
		return Line{X1: p[0], Y1: p[1], X2: p[2], Y2: p[3]}, nil
	case KindCircle:
		return Circle{CX: p[0], CY: p[1], R: p[2]}, nil
	default:
		return Ellipse{CX: p[0], CY: p[1], RX: p[2], RY: p[3]}, nil
	}
}

// Shape is one scene object. Base geometry is never rewritten by a
// transform; only Bake folds the transform list into it.
type Shape struct {
	ID         int
	Geometry   Geometry
	Style      Style
	Algorithm  raster.Algorithm
	Transforms []Transform
}

// Clone returns a copy that shares no mutable state with s.
func (s Shape) Clone() Shape {
	out := s
	if s.Transforms != nil {
		out.Transforms = make([]Transform, len(s.Transforms))
		copy(out.Transforms, s.Transforms)
	}
	return out
}

// Kind returns the kind of the base geometry.
func (s Shape) Kind() Kind {
	if s.Geometry == nil {
		return ""
	}
	return s.Geometry.Kind()
}
