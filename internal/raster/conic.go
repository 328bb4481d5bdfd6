package raster

import "github.com/inamate/pixeldraft/internal/geom"

// Number of mirrored points emitted per iteration. Stipple steps advance
// once per group.
const (
	CircleSymmetry  = 8
	EllipseSymmetry = 4
)

// MidpointCircle computes one octant with the midpoint decision variable
// and mirrors it eight ways. A radius of zero or less yields the centre.
func MidpointCircle(c geom.Point, r int) []geom.Pixel {
	cp := c.Round()
	if r <= 0 {
		return []geom.Pixel{cp}
	}

	pts := make([]geom.Pixel, 0, CircleSymmetry*(r+1))
	x, y := 0, r
	p := 1 - r
	for x <= y {
		pts = append(pts,
			geom.Pixel{X: cp.X + x, Y: cp.Y + y},
			geom.Pixel{X: cp.X - x, Y: cp.Y + y},
			geom.Pixel{X: cp.X + x, Y: cp.Y - y},
			geom.Pixel{X: cp.X - x, Y: cp.Y - y},
			geom.Pixel{X: cp.X + y, Y: cp.Y + x},
			geom.Pixel{X: cp.X - y, Y: cp.Y + x},
			geom.Pixel{X: cp.X + y, Y: cp.Y - x},
			geom.Pixel{X: cp.X - y, Y: cp.Y - x},
		)
		if p < 0 {
			p += 2*x + 3
		} else {
			p += 2*(x-y) + 5
			y--
		}
		x++
	}
	return pts
}

// MidpointEllipse runs the two-region midpoint recurrence for an
// axis-aligned ellipse and mirrors each point into the four quadrants.
// A non-positive radius collapses the ellipse onto the other axis.
func MidpointEllipse(c geom.Point, rx, ry int) []geom.Pixel {
	cp := c.Round()
	pts := make([]geom.Pixel, 0, EllipseSymmetry*(rx+ry+2))
	emit := func(x, y int) {
		pts = append(pts,
			geom.Pixel{X: cp.X + x, Y: cp.Y + y},
			geom.Pixel{X: cp.X - x, Y: cp.Y + y},
			geom.Pixel{X: cp.X + x, Y: cp.Y - y},
			geom.Pixel{X: cp.X - x, Y: cp.Y - y},
		)
	}

	switch {
	case rx <= 0 && ry <= 0:
		emit(0, 0)
		return pts
	case ry <= 0:
		for x := 0; x <= rx; x++ {
			emit(x, 0)
		}
		return pts
	case rx <= 0:
		for y := 0; y <= ry; y++ {
			emit(0, y)
		}
		return pts
	}

	rx2 := float64(rx) * float64(rx)
	ry2 := float64(ry) * float64(ry)
	x, y := 0, ry

	// Region 1: slope magnitude below one.
	p1 := ry2 - rx2*float64(ry) + 0.25*rx2
	for ry2*float64(x+1) < rx2*(float64(y)-0.5) {
		emit(x, y)
		x++
		if p1 < 0 {
			p1 += 2*ry2*float64(x) + ry2
		} else {
			y--
			p1 += 2*ry2*float64(x) - 2*rx2*float64(y) + ry2
		}
	}

	// Region 2: step y until the curve meets the major axis.
	fx, fy := float64(x)+0.5, float64(y-1)
	p2 := ry2*fx*fx + rx2*fy*fy - rx2*ry2
	for y >= 0 {
		emit(x, y)
		y--
		if p2 > 0 {
			p2 += rx2 - 2*rx2*float64(y)
		} else {
			x++
			p2 += 2*ry2*float64(x) - 2*rx2*float64(y) + rx2
		}
	}
	return pts
}
