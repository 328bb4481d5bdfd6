// Package hittest selects shapes by approximate distance from a click to
// their effective outline.
package hittest

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/transform"
)

// Tolerance controls the selectable halo around each outline.
type Tolerance struct {
	// Min is the halo width in logical pixels used for strokes thinner
	// than it.
	Min     float64
	Epsilon float64
}

// DefaultTolerance matches the ±10 px click radius of the drawing tools.
func DefaultTolerance() Tolerance {
	return Tolerance{Min: 20, Epsilon: 1e-6}
}

// Halo returns the largest distance that still counts as a hit for a
// stroke of the given thickness.
func (t Tolerance) Halo(thickness int) float64 {
	return math.Max(float64(thickness), t.Min)/2 + t.Epsilon
}

// Distance measures from p to the outline of g.
func Distance(p geom.Point, g document.Geometry) float64 {
	switch g := g.(type) {
	case document.Line:
		return segmentDistance(vec(p), vec(g.P1()), vec(g.P2()))
	case document.Circle:
		if g.R <= 0 {
			return p.Distance(g.Center())
		}
		return math.Abs(p.Distance(g.Center()) - g.R)
	case document.Ellipse:
		return ellipseDistance(p, g)
	}
	return math.Inf(1)
}

// Test reports whether p selects s and how far p is from the effective
// outline.
func Test(p geom.Point, s document.Shape, tol Tolerance) (bool, float64) {
	d := Distance(p, transform.Effective(s))
	return d <= tol.Halo(s.Style.Thickness), d
}

// Pick returns the matching shape closest to p. Equal distances go to the
// most recently created shape. ok is false when nothing matches.
func Pick(p geom.Point, shapes []document.Shape, tol Tolerance) (id int, distance float64, ok bool) {
	for _, s := range shapes {
		matched, d := Test(p, s, tol)
		if !matched {
			continue
		}
		if !ok || d < distance || (d == distance && s.ID > id) {
			id, distance, ok = s.ID, d, true
		}
	}
	return id, distance, ok
}

func vec(p geom.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(p, a), ab)/l2))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}

// ellipseIterations is enough for sub-pixel accuracy at canvas scale.
const ellipseIterations = 3

// ellipseDistance finds the closest point on an axis-aligned ellipse by
// iterating on the parametric angle in the first quadrant, using the local
// radius of curvature to step toward the query point.
func ellipseDistance(p geom.Point, g document.Ellipse) float64 {
	a, b := math.Abs(g.RX), math.Abs(g.RY)
	c := vec(g.Center())
	switch {
	case a == 0 && b == 0:
		return p.Distance(g.Center())
	case a == 0:
		return segmentDistance(vec(p), r2.Add(c, r2.Vec{Y: -b}), r2.Add(c, r2.Vec{Y: b}))
	case b == 0:
		return segmentDistance(vec(p), r2.Add(c, r2.Vec{X: -a}), r2.Add(c, r2.Vec{X: a}))
	}

	px, py := math.Abs(p.X-g.CX), math.Abs(p.Y-g.CY)
	tx, ty := math.Sqrt2/2, math.Sqrt2/2
	for i := 0; i < ellipseIterations; i++ {
		x, y := a*tx, b*ty
		ex := (a*a - b*b) * tx * tx * tx / a
		ey := (b*b - a*a) * ty * ty * ty / b

		r := math.Hypot(x-ex, y-ey)
		q := math.Hypot(px-ex, py-ey)
		if q == 0 {
			break
		}

		tx = math.Max(0, math.Min(1, ((px-ex)*r/q+ex)/a))
		ty = math.Max(0, math.Min(1, ((py-ey)*r/q+ey)/b))
		t := math.Hypot(tx, ty)
		if t == 0 {
			break
		}
		tx /= t
		ty /= t
	}
	return math.Hypot(px-a*tx, py-b*ty)
}
