package transform

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestMatrixMultiplyOrder(t *testing.T) {
	// Translate after scale: (1,1) -> (2,2) -> (12,2)
	m := Translate(10, 0).Multiply(Scale(2, 2))
	if got := m.Apply(geom.Pt(1, 1)); got != geom.Pt(12, 2) {
		t.Errorf("Apply = %v, want (12,2)", got)
	}
	if !m.Multiply(m.Invert()).IsIdentity() {
		t.Error("m * m^-1 is not identity")
	}
}

func TestReflectAcross(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 geom.Point
		in     geom.Point
		want   geom.Point
	}{
		{"diagonal", geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(3, 1), geom.Pt(1, 3)},
		{"vertical line", geom.Pt(2, 0), geom.Pt(2, 5), geom.Pt(5, 7), geom.Pt(-1, 7)},
		{"horizontal line", geom.Pt(0, -1), geom.Pt(4, -1), geom.Pt(3, 2), geom.Pt(3, -4)},
		{"degenerate line", geom.Pt(1, 1), geom.Pt(1, 1), geom.Pt(3, 4), geom.Pt(3, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReflectAcross(tt.p1, tt.p2).Apply(tt.in)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEffectiveLine(t *testing.T) {
	base := document.Line{X1: 0, Y1: 0, X2: 10, Y2: 0}
	tests := []struct {
		name       string
		transforms []document.Transform
		want       document.Geometry
	}{
		{"no transforms", nil, base},
		{"translate", []document.Transform{document.Translate{DX: 5, DY: -2}}, document.Line{X1: 5, Y1: -2, X2: 15, Y2: -2}},
		{"rotate about midpoint", []document.Transform{document.Rotate{Degrees: 90}}, document.Line{X1: 5, Y1: -5, X2: 5, Y2: 5}},
		{"scale about midpoint", []document.Transform{document.Scale{SX: 2, SY: 3}}, document.Line{X1: -5, Y1: 0, X2: 15, Y2: 0}},
		{"reflect y through centre", []document.Transform{document.Reflect{Axis: document.AxisY}}, document.Line{X1: 10, Y1: 0, X2: 0, Y2: 0}},
		{"zero scale collapses", []document.Transform{document.Scale{SX: 0, SY: 0}}, document.Line{X1: 5, Y1: 0, X2: 5, Y2: 0}},
		{
			"order matters: translate then rotate",
			[]document.Transform{document.Translate{DX: 10, DY: 0}, document.Rotate{Degrees: 90}},
			document.Line{X1: 15, Y1: -5, X2: 15, Y2: 5},
		},
		{
			"reflect across world line",
			[]document.Transform{document.ReflectLine{P1: geom.Pt(0, 0), P2: geom.Pt(0, 1)}},
			document.Line{X1: 0, Y1: 0, X2: -10, Y2: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Effective(document.Shape{Geometry: base, Transforms: tt.transforms})
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEffectiveCircle(t *testing.T) {
	base := document.Circle{CX: 10, CY: 10, R: 4}
	tests := []struct {
		name string
		t    document.Transform
		want document.Geometry
	}{
		{"uniform scale", document.Scale{SX: 2, SY: 2}, document.Circle{CX: 10, CY: 10, R: 8}},
		{"non-uniform scale averages", document.Scale{SX: 1, SY: 3}, document.Circle{CX: 10, CY: 10, R: 8}},
		{"negative scale uses magnitude", document.Scale{SX: -2, SY: -2}, document.Circle{CX: 10, CY: 10, R: 8}},
		{"rotate about own centre", document.Rotate{Degrees: 33}, base},
		{"reflect origin about own centre", document.Reflect{Axis: document.AxisOrigin}, base},
		{"reflect across y axis", document.ReflectLine{P1: geom.Pt(0, -1), P2: geom.Pt(0, 1)}, document.Circle{CX: -10, CY: 10, R: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(base, tt.t)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEffectiveEllipse(t *testing.T) {
	base := document.Ellipse{CX: 0, CY: 0, RX: 8, RY: 3}
	tests := []struct {
		name string
		t    document.Transform
		want document.Geometry
	}{
		{"quarter turn swaps radii", document.Rotate{Degrees: 90}, document.Ellipse{RX: 3, RY: 8}},
		{"half turn keeps radii", document.Rotate{Degrees: 180}, document.Ellipse{RX: 8, RY: 3}},
		{"scale per axis", document.Scale{SX: 0.5, SY: 2}, document.Ellipse{RX: 4, RY: 6}},
		{"translate", document.Translate{DX: 1, DY: 2}, document.Ellipse{CX: 1, CY: 2, RX: 8, RY: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(base, tt.t)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFullTurnRestoresBase(t *testing.T) {
	for _, g := range []document.Geometry{
		document.Line{X1: -7, Y1: 2, X2: 31, Y2: 18},
		document.Circle{CX: 5, CY: -9, R: 12},
		document.Ellipse{CX: 3, CY: 4, RX: 8, RY: 3},
	} {
		t.Run(string(g.Kind()), func(t *testing.T) {
			s := document.Shape{Geometry: g, Transforms: []document.Transform{document.Rotate{Degrees: 360}}}
			baked := Bake(s)
			if len(baked.Transforms) != 0 {
				t.Errorf("transforms left after bake: %v", baked.Transforms)
			}
			if diff := cmp.Diff(g.Params(), baked.Geometry.Params(), approx); diff != "" {
				t.Errorf("base_params after Rotate(360) (-before +after):\n%s", diff)
			}
		})
	}
}

func TestBakeIdempotent(t *testing.T) {
	s := document.Shape{
		ID:       3,
		Geometry: document.Line{X1: 0, Y1: 0, X2: 20, Y2: 0},
		Style:    document.DefaultStyle(),
		Transforms: []document.Transform{
			document.Rotate{Degrees: 30},
			document.Translate{DX: 4, DY: 4},
			document.Scale{SX: 1.5, SY: 0.5},
		},
	}
	once := Bake(s)
	if len(once.Transforms) != 0 {
		t.Fatalf("bake left %d transforms", len(once.Transforms))
	}
	if diff := cmp.Diff(Effective(s), once.Geometry, approx); diff != "" {
		t.Errorf("bake changed effective geometry (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(once, Bake(once), approx); diff != "" {
		t.Errorf("second bake not a no-op (-once +twice):\n%s", diff)
	}
	if len(s.Transforms) != 3 {
		t.Error("bake mutated its input")
	}
}

func TestBounds(t *testing.T) {
	got := Bounds(document.Ellipse{CX: 1, CY: -1, RX: 4, RY: 2})
	want := geom.Rect{X: -3, Y: -3, Width: 8, Height: 4}
	if got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
	if c := Bounds(document.Line{X1: 4, Y1: 0, X2: -2, Y2: 6}).Center(); c != Center(document.Line{X1: 4, Y1: 0, X2: -2, Y2: 6}) {
		t.Errorf("line bounds centre %v differs from midpoint", c)
	}
	if r := math.Abs(Bounds(document.Circle{R: 5}).Width - 10); r != 0 {
		t.Errorf("circle bounds width off by %v", r)
	}
}
