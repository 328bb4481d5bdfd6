package raster

import (
	"math"

	"github.com/inamate/pixeldraft/internal/geom"
)

// Stipple decides whether the point group at a given step is drawn.
type Stipple interface {
	Visible(step int) bool
}

// Stippled filters pts by pattern, where the step of a point is its index
// divided by group. A nil pattern keeps every point.
func Stippled(pts []geom.Pixel, group int, pattern Stipple) []geom.Pixel {
	if pattern == nil {
		return pts
	}
	if group < 1 {
		group = 1
	}
	out := make([]geom.Pixel, 0, len(pts))
	for i, p := range pts {
		if pattern.Visible(i / group) {
			out = append(out, p)
		}
	}
	return out
}

// offsets returns the signed distance of each parallel copy from the
// nominal path for a stroke of width t.
func offsets(t int) []float64 {
	if t < 1 {
		t = 1
	}
	out := make([]float64, t)
	for i := range out {
		out[i] = float64(i) - float64(t-1)/2
	}
	return out
}

// StrokeLine rasterizes a line of the given thickness as parallel copies
// displaced along the unit perpendicular. Each copy is stippled on its own.
func StrokeLine(alg Algorithm, a, b geom.Point, thickness int, pattern Stipple) []geom.Pixel {
	length := a.Distance(b)
	if thickness <= 1 || length == 0 {
		return Stippled(Line(alg, a, b), 1, pattern)
	}

	nx, ny := -(b.Y-a.Y)/length, (b.X-a.X)/length
	var out []geom.Pixel
	for _, off := range offsets(thickness) {
		d := geom.Pt(nx*off, ny*off)
		out = append(out, Stippled(Line(alg, a.Add(d), b.Add(d)), 1, pattern)...)
	}
	return out
}

// StrokeCircle rasterizes concentric circles around r. Copies whose radius
// falls below one are skipped.
func StrokeCircle(c geom.Point, r, thickness int, pattern Stipple) []geom.Pixel {
	if thickness <= 1 {
		return Stippled(MidpointCircle(c, r), CircleSymmetry, pattern)
	}
	var out []geom.Pixel
	for _, off := range offsets(thickness) {
		rr := int(math.Round(float64(r) + off))
		if rr < 1 {
			continue
		}
		out = append(out, Stippled(MidpointCircle(c, rr), CircleSymmetry, pattern)...)
	}
	if out == nil {
		return Stippled(MidpointCircle(c, r), CircleSymmetry, pattern)
	}
	return out
}

// StrokeEllipse rasterizes concentric ellipses around rx, ry.
func StrokeEllipse(c geom.Point, rx, ry, thickness int, pattern Stipple) []geom.Pixel {
	if thickness <= 1 {
		return Stippled(MidpointEllipse(c, rx, ry), EllipseSymmetry, pattern)
	}
	var out []geom.Pixel
	for _, off := range offsets(thickness) {
		rrx := int(math.Round(float64(rx) + off))
		rry := int(math.Round(float64(ry) + off))
		if rrx < 1 || rry < 1 {
			continue
		}
		out = append(out, Stippled(MidpointEllipse(c, rrx, rry), EllipseSymmetry, pattern)...)
	}
	if out == nil {
		return Stippled(MidpointEllipse(c, rx, ry), EllipseSymmetry, pattern)
	}
	return out
}
