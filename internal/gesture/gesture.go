// Package gesture turns sequences of snapped logical clicks into completed
// shapes, transforms and selections.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/geom"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrIdle        = errors.New("no tool active")
)

type Tool string

const (
	ToolLine        Tool = "line"
	ToolCircle      Tool = "circle"
	ToolEllipse     Tool = "ellipse"
	ToolSelect      Tool = "select"
	ToolTranslate   Tool = "translate"
	ToolReflectLine Tool = "reflect_line"
)

// NeedsSelection reports whether the tool edits the selected shape.
func (t Tool) NeedsSelection() bool {
	return t == ToolTranslate || t == ToolReflectLine
}

type State int

const (
	Idle State = iota
	AwaitingLineP1
	AwaitingLineP2
	AwaitingCircleCenter
	AwaitingCircleRadius
	AwaitingEllipseCenter
	AwaitingEllipseRX
	AwaitingEllipseRY
	AwaitingSelection
	AwaitingTranslateFrom
	AwaitingTranslateTo
	AwaitingReflectP1
	AwaitingReflectP2
)

var stateNames = [...]string{
	Idle:                  "idle",
	AwaitingLineP1:        "awaiting_line_p1",
	AwaitingLineP2:        "awaiting_line_p2",
	AwaitingCircleCenter:  "awaiting_circle_center",
	AwaitingCircleRadius:  "awaiting_circle_radius",
	AwaitingEllipseCenter: "awaiting_ellipse_center",
	AwaitingEllipseRX:     "awaiting_ellipse_rx",
	AwaitingEllipseRY:     "awaiting_ellipse_ry",
	AwaitingSelection:     "awaiting_selection",
	AwaitingTranslateFrom: "awaiting_translate_from",
	AwaitingTranslateTo:   "awaiting_translate_to",
	AwaitingReflectP1:     "awaiting_reflect_p1",
	AwaitingReflectP2:     "awaiting_reflect_p2",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var firstState = map[Tool]State{
	ToolLine:        AwaitingLineP1,
	ToolCircle:      AwaitingCircleCenter,
	ToolEllipse:     AwaitingEllipseCenter,
	ToolSelect:      AwaitingSelection,
	ToolTranslate:   AwaitingTranslateFrom,
	ToolReflectLine: AwaitingReflectP1,
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	t := Tool(s)
	if _, ok := firstState[t]; !ok {
		return "", fmt.Errorf("tool %q: %w", s, ErrUnknownTool)
	}
	return t, nil
}

type ResultKind int

const (
	// Pending means the click was recorded and more are needed.
	Pending ResultKind = iota
	ShapeDone
	TransformDone
	SelectDone
)

// Result is the outcome of a click.
type Result struct {
	Kind      ResultKind
	Geometry  document.Geometry
	Transform document.Transform
	Point     geom.Point
}

// Machine is the multi-click input state machine. Partial gestures live
// only here; nothing reaches the scene until a gesture completes.
type Machine struct {
	state  State
	tool   Tool
	points []geom.Point
}

func NewMachine() *Machine {
	return &Machine{}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Tool() Tool { return m.tool }

// Pending returns the clicks collected for the current gesture.
func (m *Machine) Pending() []geom.Point {
	return append([]geom.Point(nil), m.points...)
}

// Begin enters the first state of tool, discarding any partial gesture.
func (m *Machine) Begin(tool Tool) error {
	first, ok := firstState[tool]
	if !ok {
		return fmt.Errorf("begin %q: %w", tool, ErrUnknownTool)
	}
	m.reset()
	m.tool = tool
	m.state = first
	return nil
}

// Cancel abandons the current gesture.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.tool = ""
	m.points = nil
}

// Click advances the machine with a snapped logical point. A completed
// gesture returns the machine to Idle. Invalid geometry also resets it and
// reports ErrInvalidGeometry.
func (m *Machine) Click(p geom.Point) (Result, error) {
	switch m.state {
	case Idle:
		return Result{}, ErrIdle

	case AwaitingLineP1:
		return m.advance(p, AwaitingLineP2)
	case AwaitingLineP2:
		return m.finishShape(document.NewLine(m.points[0], p))

	case AwaitingCircleCenter:
		return m.advance(p, AwaitingCircleRadius)
	case AwaitingCircleRadius:
		c := m.points[0]
		r := math.Round(c.Distance(p))
		return m.finishShape(document.Circle{CX: c.X, CY: c.Y, R: r})

	case AwaitingEllipseCenter:
		return m.advance(p, AwaitingEllipseRX)
	case AwaitingEllipseRX:
		return m.advance(p, AwaitingEllipseRY)
	case AwaitingEllipseRY:
		c, rxPoint := m.points[0], m.points[1]
		return m.finishShape(document.Ellipse{
			CX: c.X,
			CY: c.Y,
			RX: math.Abs(rxPoint.X - c.X),
			RY: math.Abs(p.Y - c.Y),
		})

	case AwaitingSelection:
		m.reset()
		return Result{Kind: SelectDone, Point: p}, nil

	case AwaitingTranslateFrom:
		return m.advance(p, AwaitingTranslateTo)
	case AwaitingTranslateTo:
		from := m.points[0]
		m.reset()
		return Result{Kind: TransformDone, Transform: document.Translate{DX: p.X - from.X, DY: p.Y - from.Y}}, nil

	case AwaitingReflectP1:
		return m.advance(p, AwaitingReflectP2)
	case AwaitingReflectP2:
		p1 := m.points[0]
		m.reset()
		if p1 == p {
			return Result{}, fmt.Errorf("reflection line: %w: both points at (%g, %g)", document.ErrInvalidTransform, p.X, p.Y)
		}
		return Result{Kind: TransformDone, Transform: document.ReflectLine{P1: p1, P2: p}}, nil
	}
	return Result{}, fmt.Errorf("click in %s: %w", m.state, ErrIdle)
}

func (m *Machine) advance(p geom.Point, next State) (Result, error) {
	m.points = append(m.points, p)
	m.state = next
	return Result{Kind: Pending}, nil
}

func (m *Machine) finishShape(g document.Geometry) (Result, error) {
	m.reset()
	if err := document.ValidateGeometry(g); err != nil {
		return Result{}, err
	}
	return Result{Kind: ShapeDone, Geometry: g}, nil
}
