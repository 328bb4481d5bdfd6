package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/gesture"
	"github.com/inamate/pixeldraft/internal/hittest"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/scene"
	"github.com/inamate/pixeldraft/internal/transform"
)

var (
	ErrNoSelection = errors.New("no shape selected")
	ErrOffCanvas   = errors.New("click outside the canvas")
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Status is the operator-facing message line.
type Status struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Brush holds the attributes given to newly drawn shapes.
type Brush struct {
	Style     document.Style
	Algorithm raster.Algorithm
}

func DefaultBrush() Brush {
	return Brush{Style: document.DefaultStyle(), Algorithm: raster.DefaultAlgorithm}
}

type Options struct {
	Width     int
	Height    int
	GridStep  float64
	Tolerance hittest.Tolerance
}

// ClickResult describes what a click did. Changed is set when the scene
// was modified and should be persisted.
type ClickResult struct {
	Changed  bool            `json:"changed"`
	State    gesture.State   `json:"state"`
	Shape    *document.Shape `json:"-"`
	Selected *int            `json:"selected,omitempty"`
}

// Engine is the editor core. It owns the scene, the input state machine
// and the view state, and is driven by discrete commands. It is not safe
// for concurrent use.
type Engine struct {
	store   *scene.Store
	machine *gesture.Machine
	mapper  geom.Mapper
	tol     hittest.Tolerance

	brush     Brush
	selection *int
	showGrid  bool
	status    Status

	// Retained scene graph
	sceneGraph *SceneGraph
	dirty      bool
}

// NewEngine creates a new engine instance with an empty scene.
func NewEngine(opts Options) *Engine {
	return &Engine{
		store:      scene.NewStore(),
		machine:    gesture.NewMachine(),
		mapper:     geom.NewMapper(opts.Width, opts.Height, opts.GridStep),
		tol:        opts.Tolerance,
		brush:      DefaultBrush(),
		showGrid:   true,
		status:     Status{Level: LevelInfo, Message: "Ready."},
		sceneGraph: NewSceneGraph(),
		dirty:      true,
	}
}

// --- Commands ---

// Load replaces the scene. Warnings from decoding are logged and surfaced
// on the status line; they never abort the load.
func (e *Engine) Load(shapes []document.Shape, warnings []error) {
	e.store.Replace(shapes)
	e.machine.Cancel()
	e.selection = nil
	e.dirty = true
	for _, w := range warnings {
		slog.Warn("skipped scene record", "error", w)
	}
	msg := fmt.Sprintf("Loaded %d shapes.", len(shapes))
	if len(warnings) > 0 {
		e.setStatus(LevelError, fmt.Sprintf("%s Skipped %d malformed records.", msg, len(warnings)))
		return
	}
	e.setStatus(LevelInfo, msg)
}

// LoadSample loads the built-in sample scene.
func (e *Engine) LoadSample() {
	e.Load(document.NewSampleScene(), nil)
}

// SetTool starts a gesture. Transform tools need a selection.
func (e *Engine) SetTool(name string) error {
	tool, err := gesture.ParseTool(name)
	if err != nil {
		return e.fail(err)
	}
	if tool.NeedsSelection() && e.selection == nil {
		e.machine.Cancel()
		return e.fail(fmt.Errorf("%s: %w", tool, ErrNoSelection))
	}
	if err := e.machine.Begin(tool); err != nil {
		return e.fail(err)
	}
	e.dirty = true
	e.setStatus(LevelInfo, prompt(e.machine.State()))
	return nil
}

// Cancel abandons any partial gesture.
func (e *Engine) Cancel() {
	e.machine.Cancel()
	e.setStatus(LevelInfo, "Cancelled.")
}

// Click feeds a raw device click through the snap pipeline. Clicks off the
// canvas are rejected and leave any partial gesture as it was.
func (e *Engine) Click(screen geom.Point) (ClickResult, error) {
	if !e.mapper.ContainsScreen(screen) {
		return ClickResult{State: e.machine.State()}, e.fail(fmt.Errorf("%w: (%g, %g)", ErrOffCanvas, screen.X, screen.Y))
	}
	return e.click(e.mapper.Click(screen))
}

// ClickLogical snaps a logical point to the grid and feeds it to the
// gesture machine.
func (e *Engine) ClickLogical(p geom.Point) (ClickResult, error) {
	return e.click(e.mapper.Snap(p))
}

// click applies whatever the gesture produces for an already snapped point.
func (e *Engine) click(p geom.Point) (ClickResult, error) {
	tool := e.machine.Tool()
	res, err := e.machine.Click(p)
	if err != nil {
		return ClickResult{State: e.machine.State()}, e.fail(err)
	}

	out := ClickResult{State: e.machine.State()}
	switch res.Kind {
	case gesture.Pending:
		e.dirty = true
		e.setStatus(LevelInfo, fmt.Sprintf("(%g, %g). %s", p.X, p.Y, prompt(e.machine.State())))

	case gesture.ShapeDone:
		s, err := e.CreateShape(res.Geometry, e.brush.Style, e.brush.Algorithm)
		if err != nil {
			return out, err
		}
		out.Changed = true
		out.Shape = &s

	case gesture.SelectDone:
		if id, d, ok := e.HitTest(p); ok {
			e.selection = &id
			out.Selected = &id
			e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d selected (distance %.2f).", id, d))
		} else {
			e.selection = nil
			e.setStatus(LevelError, "No shape selected.")
		}
		e.dirty = true

	case gesture.TransformDone:
		if e.selection == nil {
			return out, e.fail(fmt.Errorf("%s: %w", tool, ErrNoSelection))
		}
		s, err := e.ApplyTransform(*e.selection, res.Transform)
		if err != nil {
			return out, err
		}
		e.selection = nil
		out.Changed = true
		out.Shape = &s
	}
	return out, nil
}

// SetBrush validates and stores the attributes for new shapes.
func (e *Engine) SetBrush(b Brush) error {
	if b.Style.Stroke == nil {
		b.Style.Stroke = document.Solid{}
	}
	if err := document.ValidateStyle(b.Style); err != nil {
		return e.fail(err)
	}
	e.brush = b
	e.setStatus(LevelInfo, fmt.Sprintf("Brush: %s %s, thickness %d, %s.",
		b.Style.Color.Hex(), b.Style.StrokeOrSolid().Pattern(), b.Style.Thickness, b.Algorithm))
	return nil
}

// CreateShape adds a shape directly, bypassing the gesture machine.
func (e *Engine) CreateShape(g document.Geometry, style document.Style, alg raster.Algorithm) (document.Shape, error) {
	s, err := e.store.Create(g, style, alg)
	if err != nil {
		return document.Shape{}, e.fail(err)
	}
	e.dirty = true
	slog.Info("shape created", "id", s.ID, "kind", s.Kind())
	e.setStatus(LevelSuccess, fmt.Sprintf("%s %d drawn.", s.Kind(), s.ID))
	return s, nil
}

// Delete removes a shape and clears the selection if it pointed there.
func (e *Engine) Delete(id int) error {
	if err := e.store.Delete(id); err != nil {
		return e.fail(err)
	}
	if e.selection != nil && *e.selection == id {
		e.selection = nil
	}
	e.dirty = true
	slog.Info("shape deleted", "id", id)
	e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d deleted.", id))
	return nil
}

// DeleteSelected removes the selected shape.
func (e *Engine) DeleteSelected() (int, error) {
	if e.selection == nil {
		return 0, e.fail(ErrNoSelection)
	}
	id := *e.selection
	return id, e.Delete(id)
}

// ApplyTransform appends a transform to a shape's pending list.
func (e *Engine) ApplyTransform(id int, t document.Transform) (document.Shape, error) {
	s, err := e.store.AppendTransform(id, t)
	if err != nil {
		return document.Shape{}, e.fail(err)
	}
	e.dirty = true
	slog.Info("transform applied", "id", id, "op", t.Op(), "args", t.Args())
	e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d: %s %v.", id, t.Op(), t.Args()))
	return s, nil
}

// ApplyToSelection appends a transform to the selected shape.
func (e *Engine) ApplyToSelection(t document.Transform) (document.Shape, error) {
	if e.selection == nil {
		return document.Shape{}, e.fail(ErrNoSelection)
	}
	return e.ApplyTransform(*e.selection, t)
}

// Bake folds a shape's pending transforms into its base geometry.
func (e *Engine) Bake(id int) (document.Shape, error) {
	s, err := e.store.Bake(id)
	if err != nil {
		return document.Shape{}, e.fail(err)
	}
	e.dirty = true
	e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d baked.", id))
	return s, nil
}

// Edit bakes a shape and changes its style.
func (e *Engine) Edit(id int, edit scene.StyleEdit) (document.Shape, error) {
	s, err := e.store.Edit(id, edit)
	if err != nil {
		return document.Shape{}, e.fail(err)
	}
	e.dirty = true
	slog.Info("shape edited", "id", id)
	e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d updated.", id))
	return s, nil
}

// Select sets the selection to an existing shape.
func (e *Engine) Select(id int) error {
	if _, err := e.store.Get(id); err != nil {
		return e.fail(err)
	}
	e.selection = &id
	e.dirty = true
	e.setStatus(LevelSuccess, fmt.Sprintf("Shape %d selected.", id))
	return nil
}

// ClearSelection deselects.
func (e *Engine) ClearSelection() {
	e.selection = nil
	e.dirty = true
}

// HitTest finds the shape under a logical point.
func (e *Engine) HitTest(p geom.Point) (int, float64, bool) {
	return hittest.Pick(p, e.store.Shapes(), e.tol)
}

// ToggleGrid flips grid visibility and returns the new value.
func (e *Engine) ToggleGrid() bool {
	e.showGrid = !e.showGrid
	e.setStatus(LevelInfo, fmt.Sprintf("Grid visible: %v.", e.showGrid))
	return e.showGrid
}

// --- Queries ---

func (e *Engine) Shapes() []document.Shape {
	return e.store.Shapes()
}

func (e *Engine) Shape(id int) (document.Shape, error) {
	return e.store.Get(id)
}

// Effective returns the transformed geometry of a shape.
func (e *Engine) Effective(id int) (document.Geometry, error) {
	s, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	return transform.Effective(s), nil
}

// Pixels returns the logical raster of a shape.
func (e *Engine) Pixels(id int) ([]geom.Pixel, error) {
	if _, err := e.store.Get(id); err != nil {
		return nil, err
	}
	return e.graph().NodesById[id].Pixels, nil
}

// Selection returns the selected shape id.
func (e *Engine) Selection() (int, bool) {
	if e.selection == nil {
		return 0, false
	}
	return *e.selection, true
}

// SelectionBounds returns the logical bounds of the selection, or an empty
// rect when nothing is selected.
func (e *Engine) SelectionBounds() geom.Rect {
	if e.selection == nil {
		return geom.Rect{}
	}
	return e.graph().Bounds(*e.selection)
}

// ShapeBounds returns the logical bounds of a shape's outline.
func (e *Engine) ShapeBounds(id int) geom.Rect {
	return e.graph().Bounds(id)
}

// Render returns the draw commands for the current view.
func (e *Engine) Render() []DrawCommand {
	return CompileDrawCommands(e.graph(), RenderOptions{
		Mapper:   e.mapper,
		ShowGrid: e.showGrid,
		Selected: e.selection,
		Pending:  e.machine.Pending(),
	})
}

// RenderJSON is Render serialized for the browser bridge.
func (e *Engine) RenderJSON() string {
	result, err := DrawCommandsToJSON(e.Render())
	if err != nil {
		slog.Error("marshal draw commands", "error", err)
	}
	return result
}

func (e *Engine) Status() Status { return e.status }

func (e *Engine) State() gesture.State { return e.machine.State() }

// Tool returns the tool of the gesture in progress.
func (e *Engine) Tool() gesture.Tool { return e.machine.Tool() }

func (e *Engine) Mapper() geom.Mapper { return e.mapper }

func (e *Engine) GridVisible() bool { return e.showGrid }

func (e *Engine) Brush() Brush { return e.brush }

func (e *Engine) Len() int { return e.store.Len() }

// graph rebuilds the scene graph if the scene changed since the last call.
func (e *Engine) graph() *SceneGraph {
	if e.dirty || e.sceneGraph == nil {
		e.sceneGraph = BuildSceneGraph(e.store.Shapes())
		e.dirty = false
	}
	return e.sceneGraph
}

func (e *Engine) setStatus(level Level, msg string) {
	e.status = Status{Level: level, Message: msg}
}

// fail records err on the status line and returns it.
func (e *Engine) fail(err error) error {
	slog.Warn("command failed", "error", err)
	e.setStatus(LevelError, err.Error())
	return err
}

func prompt(s gesture.State) string {
	switch s {
	case gesture.AwaitingLineP1:
		return "Click the first endpoint."
	case gesture.AwaitingLineP2:
		return "Click the second endpoint."
	case gesture.AwaitingCircleCenter, gesture.AwaitingEllipseCenter:
		return "Click the centre."
	case gesture.AwaitingCircleRadius:
		return "Click a point on the circle."
	case gesture.AwaitingEllipseRX:
		return "Click to set the X radius."
	case gesture.AwaitingEllipseRY:
		return "Click to set the Y radius."
	case gesture.AwaitingSelection:
		return "Click near a shape to select it."
	case gesture.AwaitingTranslateFrom:
		return "Click the translation start point."
	case gesture.AwaitingTranslateTo:
		return "Click the destination."
	case gesture.AwaitingReflectP1:
		return "Click the first point of the reflection line."
	case gesture.AwaitingReflectP2:
		return "Click the second point of the reflection line."
	}
	return "Ready."
}
