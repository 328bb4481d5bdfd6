package engine

import (
	"math"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/transform"
)

// BuildSceneGraph evaluates every shape's effective geometry and
// rasterizes it with the shape's style.
func BuildSceneGraph(shapes []document.Shape) *SceneGraph {
	sg := NewSceneGraph()
	for _, s := range shapes {
		node := buildNode(s)
		sg.Nodes = append(sg.Nodes, node)
		sg.NodesById[s.ID] = node
	}
	sg.Dirty = false
	return sg
}

func buildNode(s document.Shape) *SceneNode {
	g := transform.Effective(s)
	return &SceneNode{
		ID:        s.ID,
		Kind:      s.Kind(),
		Effective: g,
		Pixels:    Rasterize(g, s.Style, s.Algorithm),
		Color:     s.Style.Color,
		Thickness: s.Style.Thickness,
		Bounds:    transform.Bounds(g).Expand(float64(s.Style.Thickness-1) / 2),
	}
}

// Rasterize scan-converts a geometry with the given style. Lines use alg;
// circles and ellipses always use the midpoint routines.
func Rasterize(g document.Geometry, style document.Style, alg raster.Algorithm) []geom.Pixel {
	thickness := max(style.Thickness, 1)
	stroke := style.StrokeOrSolid()
	switch g := g.(type) {
	case document.Line:
		return raster.StrokeLine(alg, g.P1(), g.P2(), thickness, stroke)
	case document.Circle:
		return raster.StrokeCircle(g.Center(), radius(g.R), thickness, stroke)
	case document.Ellipse:
		return raster.StrokeEllipse(g.Center(), radius(g.RX), radius(g.RY), thickness, stroke)
	}
	return nil
}

func radius(r float64) int {
	return int(math.Round(math.Abs(r)))
}
