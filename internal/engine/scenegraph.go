package engine

import (
	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
)

// SceneGraph is the evaluated, render-ready state of the scene.
// It is retained between renders and rebuilt only when the scene changes.
type SceneGraph struct {
	Nodes     []*SceneNode
	NodesById map[int]*SceneNode
	Dirty     bool // needs re-evaluation
}

// SceneNode is a resolved shape ready for rendering: transforms are folded
// and the outline is already scan-converted.
type SceneNode struct {
	ID   int
	Kind document.Kind

	Effective document.Geometry
	Pixels    []geom.Pixel // logical frame

	Color     document.Color
	Thickness int

	// Hit testing and selection outline
	Bounds geom.Rect
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesById: make(map[int]*SceneNode),
		Dirty:     true,
	}
}

// Bounds returns the combined bounds of the given nodes.
func (sg *SceneGraph) Bounds(ids ...int) geom.Rect {
	var result geom.Rect
	first := true
	for _, id := range ids {
		node, ok := sg.NodesById[id]
		if !ok {
			continue
		}
		if first {
			result = node.Bounds
			first = false
		} else {
			result = result.Union(node.Bounds)
		}
	}
	return result
}
