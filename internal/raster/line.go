// Package raster scan-converts lines and conics into discrete pixels in the
// logical frame. Inputs are assumed to be validated; nothing here fails.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/inamate/pixeldraft/internal/geom"
)

// ErrUnknownAlgorithm is returned when parsing an unrecognised algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown line algorithm")

// Algorithm selects the line scan-conversion routine.
type Algorithm int

const (
	AlgorithmBresenham Algorithm = iota
	AlgorithmDDA
	AlgorithmSymmetricDDA
)

// DefaultAlgorithm is used when a line carries no explicit choice.
const DefaultAlgorithm = AlgorithmBresenham

var algorithmNames = map[Algorithm]string{
	AlgorithmBresenham:    "bresenham",
	AlgorithmDDA:          "dda",
	AlgorithmSymmetricDDA: "symmetric_dda",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm maps a persisted name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	for alg, n := range algorithmNames {
		if n == name {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("parse algorithm %q: %w", name, ErrUnknownAlgorithm)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if _, ok := algorithmNames[a]; !ok {
		return nil, fmt.Errorf("marshal algorithm %d: %w", int(a), ErrUnknownAlgorithm)
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// Line dispatches to the routine named by alg.
func Line(alg Algorithm, a, b geom.Point) []geom.Pixel {
	switch alg {
	case AlgorithmDDA:
		return DDA(a, b)
	case AlgorithmSymmetricDDA:
		return SymmetricDDA(a, b)
	default:
		return Bresenham(a, b)
	}
}

// DDA steps along the dominant axis one pixel at a time and rounds the
// interpolated minor coordinate.
func DDA(a, b geom.Point) []geom.Pixel {
	p0, p1 := a.Round(), b.Round()
	steps := span(p0, p1)
	if steps == 0 {
		return []geom.Pixel{p0}
	}
	pts := make([]geom.Pixel, 0, steps+1)
	for i := 0; i <= steps; i++ {
		pts = append(pts, interpolate(p0, p1, i, steps))
	}
	return pts
}

// Bresenham uses an integer error accumulator and handles every octant by
// swapping the axis roles when the line is steep.
func Bresenham(a, b geom.Point) []geom.Pixel {
	p0, p1 := a.Round(), b.Round()
	dx, dy := abs(p1.X-p0.X), abs(p1.Y-p0.Y)
	sx, sy := sign(p1.X-p0.X), sign(p1.Y-p0.Y)

	steep := dy > dx
	if steep {
		dx, dy = dy, dx
	}

	pts := make([]geom.Pixel, 0, dx+1)
	x, y := p0.X, p0.Y
	p := 2*dy - dx
	for i := 0; i <= dx; i++ {
		pts = append(pts, geom.Pixel{X: x, Y: y})
		if p >= 0 {
			if steep {
				x += sx
			} else {
				y += sy
			}
			p -= 2 * dx
		}
		p += 2 * dy
		if steep {
			y += sy
		} else {
			x += sx
		}
	}
	return pts
}

// SymmetricDDA walks from both endpoints toward the midpoint. The stream
// from b is reversed before it is appended, so the output runs a to b.
// Every sample is rounded from the same absolute position regardless of
// which end produced it, so swapping a and b yields the same pixel set.
func SymmetricDDA(a, b geom.Point) []geom.Pixel {
	p0, p1 := a.Round(), b.Round()
	steps := span(p0, p1)
	if steps == 0 {
		return []geom.Pixel{p0}
	}

	half := steps / 2
	forward := make([]geom.Pixel, 0, steps+1)
	for i := 0; i <= half; i++ {
		forward = append(forward, interpolate(p0, p1, i, steps))
	}
	backward := make([]geom.Pixel, 0, steps-half)
	for j := 0; j < steps-half; j++ {
		backward = append(backward, interpolate(p1, p0, j, steps))
	}
	for i := len(backward) - 1; i >= 0; i-- {
		forward = append(forward, backward[i])
	}
	return forward
}

func span(p0, p1 geom.Pixel) int {
	return max(abs(p1.X-p0.X), abs(p1.Y-p0.Y))
}

// interpolate returns sample i of steps on the segment from p0 toward p1.
func interpolate(p0, p1 geom.Pixel, i, steps int) geom.Pixel {
	return geom.Pixel{
		X: roundDiv(p0.X*steps+i*(p1.X-p0.X), steps),
		Y: roundDiv(p0.Y*steps+i*(p1.Y-p0.Y), steps),
	}
}

func roundDiv(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
