package engine

import (
	"encoding/json"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
)

const (
	OpGrid   = "grid"
	OpAxes   = "axes"
	OpPoints = "points"
	OpGuide  = "guide"
	OpBounds = "bounds"
)

// DrawCommand represents a single drawing operation for the frontend to
// execute. Coordinates are in device space and already clipped to the canvas.
type DrawCommand struct {
	Op       string   `json:"op"`                 // "grid", "axes", "points", "guide", "bounds"
	ObjectID *int     `json:"objectId,omitempty"` // For hit correlation
	Color    string   `json:"color,omitempty"`
	Points   [][2]int `json:"points,omitempty"`
	Step     float64  `json:"step,omitempty"` // grid spacing
	Rect     *Rect    `json:"rect,omitempty"`
	Selected bool     `json:"selected,omitempty"`
}

// Rect is a device-space rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	gridColor  = document.Color{0.7, 0.7, 0.7}
	axisColor  = document.Color{0.4, 0.4, 0.4}
	guideColor = document.Color{0.8, 0.2, 0.8}
)

// RenderOptions is everything besides the scene graph that affects output.
type RenderOptions struct {
	Mapper   geom.Mapper
	ShowGrid bool
	Selected *int
	Pending  []geom.Point // clicks of an unfinished gesture
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph, opts RenderOptions) []DrawCommand {
	var commands []DrawCommand
	if opts.ShowGrid {
		commands = append(commands,
			DrawCommand{Op: OpGrid, Color: gridColor.Hex(), Step: opts.Mapper.GridStep},
		)
	}
	commands = append(commands, DrawCommand{Op: OpAxes, Color: axisColor.Hex()})

	if sg != nil {
		for _, node := range sg.Nodes {
			id := node.ID
			cmd := DrawCommand{
				Op:       OpPoints,
				ObjectID: &id,
				Color:    node.Color.Hex(),
				Points:   toScreen(opts.Mapper, node.Pixels),
			}
			if opts.Selected != nil && node.ID == *opts.Selected {
				cmd.Color = document.Highlight.Hex()
				cmd.Selected = true
			}
			commands = append(commands, cmd)
		}
		if opts.Selected != nil {
			if node, ok := sg.NodesById[*opts.Selected]; ok {
				r := screenRect(opts.Mapper, node.Bounds)
				commands = append(commands, DrawCommand{Op: OpBounds, Color: document.Highlight.Hex(), Rect: &r})
			}
		}
	}

	if len(opts.Pending) > 0 {
		guide := DrawCommand{Op: OpGuide, Color: guideColor.Hex()}
		for _, p := range opts.Pending {
			s := opts.Mapper.LogicalToScreen(p).Round()
			guide.Points = append(guide.Points, [2]int{s.X, s.Y})
		}
		commands = append(commands, guide)
	}
	return commands
}

func toScreen(m geom.Mapper, pixels []geom.Pixel) [][2]int {
	out := make([][2]int, 0, len(pixels))
	for _, px := range pixels {
		if x, y, ok := m.PixelToScreen(px); ok {
			out = append(out, [2]int{x, y})
		}
	}
	return out
}

// screenRect maps a logical rect to device space, where Y grows downward.
func screenRect(m geom.Mapper, r geom.Rect) Rect {
	tl := m.LogicalToScreen(geom.Pt(r.X, r.Y+r.Height))
	return Rect{X: tl.X, Y: tl.Y, Width: r.Width, Height: r.Height}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
