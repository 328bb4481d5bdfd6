// Package transform folds a shape's pending transform list into concrete
// geometry.
package transform

import (
	"math"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
)

// Center returns the geometric centre of g: the midpoint of a line or the
// centre of a conic.
func Center(g document.Geometry) geom.Point {
	switch g := g.(type) {
	case document.Line:
		return geom.Pt((g.X1+g.X2)/2, (g.Y1+g.Y2)/2)
	case document.Circle:
		return g.Center()
	case document.Ellipse:
		return g.Center()
	}
	return geom.Point{}
}

// Matrix returns the affine map of t when it is applied to g. Rotate, Scale
// and Reflect act about the centre of g; Translate and ReflectLine are
// absolute.
func Matrix(t document.Transform, g document.Geometry) Matrix2D {
	switch t := t.(type) {
	case document.Translate:
		return Translate(t.DX, t.DY)
	case document.Rotate:
		return About(Center(g), RotateDegrees(t.Degrees))
	case document.Scale:
		return About(Center(g), Scale(t.SX, t.SY))
	case document.Reflect:
		switch t.Axis {
		case document.AxisY:
			return About(Center(g), Scale(-1, 1))
		case document.AxisOrigin:
			return About(Center(g), Scale(-1, -1))
		default:
			return About(Center(g), Scale(1, -1))
		}
	case document.ReflectLine:
		return ReflectAcross(t.P1, t.P2)
	}
	return Identity()
}

// Apply returns the geometry produced by applying one transform to g.
func Apply(g document.Geometry, t document.Transform) document.Geometry {
	m := Matrix(t, g)
	switch g := g.(type) {
	case document.Line:
		return document.NewLine(m.Apply(g.P1()), m.Apply(g.P2()))

	case document.Circle:
		c := m.Apply(g.Center())
		r := g.R
		if s, ok := t.(document.Scale); ok {
			r *= (math.Abs(s.SX) + math.Abs(s.SY)) / 2
		}
		return document.Circle{CX: c.X, CY: c.Y, R: r}

	case document.Ellipse:
		c := m.Apply(g.Center())
		u := m.ApplyVector(geom.Pt(g.RX, 0))
		v := m.ApplyVector(geom.Pt(0, g.RY))
		rx, ry := math.Hypot(u.X, u.Y), math.Hypot(v.X, v.Y)
		// The model stays axis-aligned: a quarter turn swaps the radii.
		if math.Abs(u.Y) > math.Abs(u.X) {
			rx, ry = ry, rx
		}
		return document.Ellipse{CX: c.X, CY: c.Y, RX: rx, RY: ry}
	}
	return g
}

// Effective folds the shape's transforms left to right over its base
// geometry. The shape is not modified.
func Effective(s document.Shape) document.Geometry {
	g := s.Geometry
	for _, t := range s.Transforms {
		g = Apply(g, t)
	}
	return g
}

// Bake replaces the base geometry with the effective geometry and clears
// the transform list. Baking an already baked shape changes nothing.
func Bake(s document.Shape) document.Shape {
	out := s.Clone()
	out.Geometry = Effective(s)
	out.Transforms = []document.Transform{}
	return out
}

// Bounds returns the axis-aligned bounding box of g.
func Bounds(g document.Geometry) geom.Rect {
	switch g := g.(type) {
	case document.Line:
		return geom.RectFromPoints(g.P1(), g.P2())
	case document.Circle:
		r := math.Abs(g.R)
		return geom.Rect{X: g.CX - r, Y: g.CY - r, Width: 2 * r, Height: 2 * r}
	case document.Ellipse:
		rx, ry := math.Abs(g.RX), math.Abs(g.RY)
		return geom.Rect{X: g.CX - rx, Y: g.CY - ry, Width: 2 * rx, Height: 2 * ry}
	}
	return geom.Rect{}
}
