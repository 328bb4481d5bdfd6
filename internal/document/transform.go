package document

import (
	"fmt"

	"github.com/inamate/pixeldraft/internal/geom"
)

// Transform is one entry in a shape's pending transform list.
type Transform interface {
	Op() string
	Args() []float64
	isTransform()
}

type Translate struct {
	DX, DY float64
}

type Rotate struct {
	Degrees float64
}

type Scale struct {
	SX, SY float64
}

type Axis string

const (
	AxisX      Axis = "x"
	AxisY      Axis = "y"
	AxisOrigin Axis = "origin"
)

// Reflect mirrors across an axis through the shape's own centre.
type Reflect struct {
	Axis Axis
}

// ReflectLine mirrors across the infinite line through two absolute points.
type ReflectLine struct {
	P1, P2 geom.Point
}

const (
	OpTranslate     = "translate"
	OpRotate        = "rotate"
	OpScale         = "scale"
	OpReflectX      = "reflect_x"
	OpReflectY      = "reflect_y"
	OpReflectOrigin = "reflect_origin"
	OpReflectLine   = "reflect_line"
)

func (Translate) Op() string   { return OpTranslate }
func (Rotate) Op() string      { return OpRotate }
func (Scale) Op() string       { return OpScale }
func (ReflectLine) Op() string { return OpReflectLine }

func (t Reflect) Op() string {
	switch t.Axis {
	case AxisY:
		return OpReflectY
	case AxisOrigin:
		return OpReflectOrigin
	}
	return OpReflectX
}

func (t Translate) Args() []float64 { return []float64{t.DX, t.DY} }
func (t Rotate) Args() []float64    { return []float64{t.Degrees} }
func (t Scale) Args() []float64     { return []float64{t.SX, t.SY} }
func (Reflect) Args() []float64     { return []float64{} }
func (t ReflectLine) Args() []float64 {
	return []float64{t.P1.X, t.P1.Y, t.P2.X, t.P2.Y}
}

func (Translate) isTransform()   {}
func (Rotate) isTransform()      {}
func (Scale) isTransform()       {}
func (Reflect) isTransform()     {}
func (ReflectLine) isTransform() {}

// TransformFromOp rebuilds a transform from its persisted op name and
// argument list.
func TransformFromOp(op string, args []float64) (Transform, error) {
	arity := map[string]int{
		OpTranslate: 2, OpRotate: 1, OpScale: 2,
		OpReflectX: 0, OpReflectY: 0, OpReflectOrigin: 0,
		OpReflectLine: 4,
	}
	want, ok := arity[op]
	if !ok {
		return nil, fmt.Errorf("transform op %q: %w", op, ErrInvalidTransform)
	}
	if len(args) != want {
		return nil, fmt.Errorf("transform %s needs %d args, got %d: %w", op, want, len(args), ErrInvalidTransform)
	}

	var t Transform
	switch op {
	case OpTranslate:
		t = Translate{DX: args[0], DY: args[1]}
	case OpRotate:
		t = Rotate{Degrees: args[0]}
	case OpScale:
		t = Scale{SX: args[0], SY: args[1]}
	case OpReflectX:
		t = Reflect{Axis: AxisX}
	case OpReflectY:
		t = Reflect{Axis: AxisY}
	case OpReflectOrigin:
		t = Reflect{Axis: AxisOrigin}
	case OpReflectLine:
		t = ReflectLine{P1: geom.Pt(args[0], args[1]), P2: geom.Pt(args[2], args[3])}
	}
	if err := ValidateTransform(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseAxis maps an axis name to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(s); a {
	case AxisX, AxisY, AxisOrigin:
		return a, nil
	}
	return "", fmt.Errorf("reflect axis %q: %w", s, ErrInvalidTransform)
}
