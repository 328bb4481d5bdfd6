package document

import (
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/raster"
)

// NewSampleScene returns a small scene with one shape of each kind, used
// to seed an empty canvas on first run.
func NewSampleScene() []Shape {
	return []Shape{
		{
			ID:        0,
			Geometry:  NewLine(geom.Pt(-300, -200), geom.Pt(-100, 120)),
			Style:     Style{Color: Red, Thickness: 1, Stroke: Solid{}},
			Algorithm: raster.AlgorithmBresenham,
		},
		{
			ID:        1,
			Geometry:  NewLine(geom.Pt(-300, 200), geom.Pt(-40, 200)),
			Style:     Style{Color: Black, Thickness: 1, Stroke: Dotted{}},
			Algorithm: raster.AlgorithmDDA,
		},
		{
			ID:       2,
			Geometry: Circle{CX: 100, CY: 60, R: 80},
			Style:    Style{Color: Blue, Thickness: 3, Stroke: Solid{}},
			Transforms: []Transform{
				Translate{DX: 40, DY: -20},
			},
		},
		{
			ID:       3,
			Geometry: Ellipse{CX: 260, CY: -160, RX: 120, RY: 60},
			Style:    Style{Color: Orange, Thickness: 1, Stroke: UserMask{Mask: 0xF0F0}},
			Transforms: []Transform{
				Rotate{Degrees: 90},
			},
		},
	}
}
