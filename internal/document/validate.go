package document

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrInvalidStyle     = errors.New("invalid style")
	ErrInvalidTransform = errors.New("invalid transform")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrMalformedScene   = errors.New("malformed scene")
)

func invalidGeometry(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
}

// ValidateParams rejects missing geometry and non-finite parameters. It is
// the only geometry check applied on load: baked shapes may legitimately be
// degenerate after a zero scale.
func ValidateParams(g Geometry) error {
	if g == nil {
		return invalidGeometry("missing geometry")
	}
	for _, v := range g.Params() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidGeometry("%s has non-finite parameter", g.Kind())
		}
	}
	return nil
}

// ValidateGeometry is the creation rule: finite parameters, positive radii
// and a non-zero-length line.
func ValidateGeometry(g Geometry) error {
	if err := ValidateParams(g); err != nil {
		return err
	}
	switch g := g.(type) {
	case Line:
		if g.X1 == g.X2 && g.Y1 == g.Y2 {
			return invalidGeometry("line endpoints coincide at (%g, %g)", g.X1, g.Y1)
		}
	case Circle:
		if g.R <= 0 {
			return invalidGeometry("circle radius %g must be positive", g.R)
		}
	case Ellipse:
		if g.RX <= 0 || g.RY <= 0 {
			return invalidGeometry("ellipse radii %g, %g must be positive", g.RX, g.RY)
		}
	}
	return nil
}

// ValidateStyle checks thickness and colour range.
func ValidateStyle(s Style) error {
	if s.Thickness < 1 {
		return fmt.Errorf("%w: thickness %d below 1", ErrInvalidStyle, s.Thickness)
	}
	for _, c := range s.Color {
		if math.IsNaN(c) || c < 0 || c > 1 {
			return fmt.Errorf("%w: colour component %g outside [0, 1]", ErrInvalidStyle, c)
		}
	}
	return nil
}

// ValidateTransform rejects non-finite arguments. Degenerate but finite
// transforms such as a zero scale are allowed.
func ValidateTransform(t Transform) error {
	if t == nil {
		return fmt.Errorf("%w: missing transform", ErrInvalidTransform)
	}
	for _, v := range t.Args() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s has non-finite argument", ErrInvalidTransform, t.Op())
		}
	}
	if r, ok := t.(Reflect); ok {
		if _, err := ParseAxis(string(r.Axis)); err != nil {
			return err
		}
	}
	return nil
}
