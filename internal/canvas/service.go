// Package canvas serves the editor engine over HTTP and keeps the scene
// file, the snapshot history and live viewers in step with it.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inamate/pixeldraft/internal/collab"
	"github.com/inamate/pixeldraft/internal/db"
	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/engine"
	"github.com/inamate/pixeldraft/internal/export"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/gesture"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/scene"
)

var ErrPersist = errors.New("persist scene")

// Snapshots is the optional versioned history.
type Snapshots interface {
	Save(ctx context.Context, doc []byte, shapes int) (db.Snapshot, error)
	Latest(ctx context.Context) (db.Snapshot, error)
	List(ctx context.Context, limit int) ([]db.Snapshot, error)
}

// Publisher fans changes out to live viewers.
type Publisher interface {
	Publish(op collab.Operation, userID string, seq int64, result json.RawMessage)
	SyncAll()
}

type Options struct {
	Engine engine.Options
}

// Service owns the engine and serializes every access to it. After each
// change the scene is written to the file store, snapshotted when a
// snapshot store is configured, and published to viewers.
type Service struct {
	mu        sync.Mutex
	engine    *engine.Engine
	files     *scene.FileStore
	snapshots Snapshots
	hub       Publisher
	seq       int64
}

func NewService(files *scene.FileStore, snapshots Snapshots, opts Options) *Service {
	return &Service{
		engine:    engine.NewEngine(opts.Engine),
		files:     files,
		snapshots: snapshots,
	}
}

// SetPublisher attaches the viewer hub. The hub needs the service to
// exist first, so this is not a constructor argument.
func (s *Service) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = p
}

// Open loads the scene file. When it does not exist the latest snapshot is
// used, then the sample scene if seed is set.
func (s *Service) Open(ctx context.Context, seed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files.Exists() {
		shapes, warnings, err := s.files.Load()
		if err != nil {
			return fmt.Errorf("open scene: %w", err)
		}
		s.engine.Load(shapes, warnings)
		slog.Info("scene loaded", "path", s.files.Path, "shapes", len(shapes), "skipped", len(warnings))
		return nil
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Latest(ctx)
		switch {
		case err == nil:
			shapes, warnings, err := document.DecodeScene(snap.Document)
			if err != nil {
				return fmt.Errorf("open snapshot %s: %w", snap.ID, err)
			}
			s.engine.Load(shapes, warnings)
			slog.Info("scene restored from snapshot", "snapshot", snap.ID, "version", snap.Version)
			return s.persistLocked(ctx)
		case !errors.Is(err, db.ErrNoSnapshot):
			return fmt.Errorf("open snapshot: %w", err)
		}
	}

	if seed {
		s.engine.LoadSample()
		slog.Info("seeded sample scene", "shapes", s.engine.Len())
		return s.persistLocked(ctx)
	}
	return nil
}

// Save writes the current scene without recording a change.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// --- collab.Scene ---

func (s *Service) Sync() (json.RawMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := document.EncodeScene(s.engine.Shapes())
	return data, s.seq, err
}

// Apply performs an operation and persists the result. It does not
// publish; the caller decides who hears about it.
func (s *Service) Apply(op collab.Operation) (int64, json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(context.Background(), op)
}

func (s *Service) applyLocked(ctx context.Context, op collab.Operation) (int64, json.RawMessage, error) {
	result, err := s.execLocked(op)
	if err != nil {
		return 0, nil, err
	}
	seq, err := s.changedLocked(ctx)
	return seq, result, err
}

func (s *Service) execLocked(op collab.Operation) (json.RawMessage, error) {
	needID := func() (int, error) {
		if op.ShapeID == nil {
			return 0, fmt.Errorf("%s: %w: missing shapeId", op.Type, ErrBadRequest)
		}
		return *op.ShapeID, nil
	}

	switch op.Type {
	case collab.OpShapeCreate:
		brush := s.engine.Brush()
		shape, err := decodeShape(op.Shape, brush.Style, brush.Algorithm)
		if err != nil {
			return nil, err
		}
		created, err := s.engine.CreateShape(shape.Geometry, shape.Style, shape.Algorithm)
		if err != nil {
			return nil, err
		}
		for _, t := range shape.Transforms {
			if created, err = s.engine.ApplyTransform(created.ID, t); err != nil {
				return nil, err
			}
		}
		return shapeRecord(created), nil

	case collab.OpShapeDelete:
		id, err := needID()
		if err != nil {
			return nil, err
		}
		return nil, s.engine.Delete(id)

	case collab.OpShapeTransform:
		id, err := needID()
		if err != nil {
			return nil, err
		}
		t, err := decodeTransform(op.Transform)
		if err != nil {
			return nil, err
		}
		shape, err := s.engine.ApplyTransform(id, t)
		if err != nil {
			return nil, err
		}
		return shapeRecord(shape), nil

	case collab.OpShapeBake:
		id, err := needID()
		if err != nil {
			return nil, err
		}
		shape, err := s.engine.Bake(id)
		if err != nil {
			return nil, err
		}
		return shapeRecord(shape), nil

	case collab.OpShapeStyle:
		id, err := needID()
		if err != nil {
			return nil, err
		}
		edit, err := decodeStyle(op.Style)
		if err != nil {
			return nil, err
		}
		shape, err := s.engine.Edit(id, edit)
		if err != nil {
			return nil, err
		}
		return shapeRecord(shape), nil

	case collab.OpSceneReplace:
		shapes, warnings, err := document.DecodeScene(op.Scene)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		s.engine.Load(shapes, warnings)
		return json.Marshal(ReplaceResult{Loaded: len(shapes), Skipped: errorStrings(warnings)})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op.Type)
}

// changedLocked records a scene change: bumps the sequence and persists.
func (s *Service) changedLocked(ctx context.Context) (int64, error) {
	s.seq++
	return s.seq, s.persistLocked(ctx)
}

func (s *Service) persistLocked(ctx context.Context) error {
	shapes := s.engine.Shapes()
	if err := s.files.Save(shapes); err != nil {
		slog.Error("save scene file", "error", err, "path", s.files.Path)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if s.snapshots == nil {
		return nil
	}
	doc, err := document.EncodeScene(shapes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	// The file is the source of truth; a failed snapshot is only logged.
	if snap, err := s.snapshots.Save(ctx, doc, len(shapes)); err != nil {
		slog.Error("save snapshot", "error", err)
	} else {
		slog.Debug("snapshot saved", "snapshot", snap.ID, "version", snap.Version)
	}
	return nil
}

// Submit applies an operation from the HTTP API and publishes it.
func (s *Service) Submit(ctx context.Context, op collab.Operation, userID string) (json.RawMessage, error) {
	s.mu.Lock()
	seq, result, err := s.applyLocked(ctx, op)
	hub := s.hub
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if hub != nil {
		hub.Publish(op, userID, seq, result)
		if op.Type == collab.OpSceneReplace {
			hub.SyncAll()
		}
	}
	return result, nil
}

type ReplaceResult struct {
	Loaded  int      `json:"loaded"`
	Skipped []string `json:"skipped,omitempty"`
}

// LoadSample replaces the scene with the sample scene.
func (s *Service) LoadSample(ctx context.Context, userID string) (ReplaceResult, error) {
	doc, err := document.EncodeScene(document.NewSampleScene())
	if err != nil {
		return ReplaceResult{}, err
	}
	data, err := s.Submit(ctx, collab.Operation{Type: collab.OpSceneReplace, Scene: doc}, userID)
	if err != nil {
		return ReplaceResult{}, err
	}
	var res ReplaceResult
	err = json.Unmarshal(data, &res)
	return res, err
}

// --- Gestures ---

// ClickResponse reports a click and, when it completed a shape or a
// transform, the affected record.
type ClickResponse struct {
	engine.ClickResult
	Shape  json.RawMessage `json:"shape,omitempty"`
	Status engine.Status   `json:"status"`
}

// Click feeds a click to the gesture machine. Screen points go through the
// device mapping; logical points skip it. Both are snapped.
func (s *Service) Click(ctx context.Context, p geom.Point, logical bool, userID string) (ClickResponse, error) {
	s.mu.Lock()
	tool := s.engine.Tool()
	var res engine.ClickResult
	var err error
	if logical {
		res, err = s.engine.ClickLogical(p)
	} else {
		res, err = s.engine.Click(p)
	}
	out := ClickResponse{ClickResult: res, Status: s.engine.Status()}
	if err != nil {
		s.mu.Unlock()
		return out, err
	}

	var op collab.Operation
	var seq int64
	if res.Changed && res.Shape != nil {
		out.Shape = shapeRecord(*res.Shape)
		op = gestureOp(tool, *res.Shape)
		seq, err = s.changedLocked(ctx)
	}
	hub := s.hub
	s.mu.Unlock()

	if err != nil {
		return out, err
	}
	if hub != nil && op.Type != "" {
		hub.Publish(op, userID, seq, out.Shape)
	}
	return out, nil
}

// gestureOp describes a completed gesture as the equivalent operation.
func gestureOp(tool gesture.Tool, shape document.Shape) collab.Operation {
	id := shape.ID
	switch tool {
	case gesture.ToolTranslate, gesture.ToolReflectLine:
		last := shape.Transforms[len(shape.Transforms)-1]
		t, _ := json.Marshal(document.TransformRecord{Op: last.Op(), Args: last.Args()})
		return collab.Operation{Type: collab.OpShapeTransform, ShapeID: &id, Transform: t}
	}
	return collab.Operation{Type: collab.OpShapeCreate, ShapeID: &id, Shape: shapeRecord(shape)}
}

func (s *Service) SetTool(name string) (gesture.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.engine.SetTool(name)
	return s.engine.State(), err
}

func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Cancel()
}

func (s *Service) SetBrush(req BrushRequest) (engine.Brush, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.engine.Brush()
	edit, err := req.StylePatch.Edit()
	if err != nil {
		return b, err
	}
	b.Style = edit.Apply(b.Style)
	if req.Algorithm != nil {
		if b.Algorithm, err = raster.ParseAlgorithm(*req.Algorithm); err != nil {
			return s.engine.Brush(), err
		}
	}
	if err := s.engine.SetBrush(b); err != nil {
		return s.engine.Brush(), err
	}
	return b, nil
}

func (s *Service) ToggleGrid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ToggleGrid()
}

func (s *Service) Select(id *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.engine.ClearSelection()
		return nil
	}
	return s.engine.Select(*id)
}

// --- Queries ---

// HitResult is the answer to a hit-test query.
type HitResult struct {
	Hit      bool    `json:"hit"`
	ID       *int    `json:"id,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

func (s *Service) HitTest(p geom.Point) HitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, d, ok := s.engine.HitTest(p)
	if !ok {
		return HitResult{}
	}
	return HitResult{Hit: true, ID: &id, Distance: d}
}

// SceneJSON returns the scene in its persisted form.
func (s *Service) SceneJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.EncodeScene(s.engine.Shapes())
}

// ShapeDetail is a shape with its evaluated geometry.
type ShapeDetail struct {
	Record    document.Record `json:"shape"`
	Effective EffectiveShape  `json:"effective"`
	Bounds    geom.Rect       `json:"bounds"`
}

type EffectiveShape struct {
	Kind   document.Kind `json:"kind"`
	Params []float64     `json:"params"`
}

func (s *Service) Shape(id int) (ShapeDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shape, err := s.engine.Shape(id)
	if err != nil {
		return ShapeDetail{}, err
	}
	g, err := s.engine.Effective(id)
	if err != nil {
		return ShapeDetail{}, err
	}
	return ShapeDetail{
		Record:    document.ToRecord(shape),
		Effective: EffectiveShape{Kind: g.Kind(), Params: g.Params()},
		Bounds:    s.engine.ShapeBounds(id),
	}, nil
}

func (s *Service) Pixels(id int) ([]geom.Pixel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Pixels(id)
}

// Frame implements export.Source.
func (s *Service) Frame() export.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.engine.Mapper()
	return export.Frame{Commands: s.engine.Render(), Width: m.Width, Height: m.Height}
}

// View is everything a client needs to paint the canvas.
type View struct {
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Commands []engine.DrawCommand `json:"commands"`
}

func (s *Service) View() View {
	f := s.Frame()
	return View{Width: f.Width, Height: f.Height, Commands: f.Commands}
}

// StatusReport is the operator status line plus editor state.
type StatusReport struct {
	Status    engine.Status `json:"status"`
	State     gesture.State `json:"state"`
	Selection *int          `json:"selection,omitempty"`
	Grid      bool          `json:"grid"`
	Shapes    int           `json:"shapes"`
	Seq       int64         `json:"seq"`
	Brush     BrushReport   `json:"brush"`
}

type BrushReport struct {
	Style     *document.StyleRecord `json:"style"`
	Algorithm string                `json:"algorithm"`
}

func (s *Service) Status() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := StatusReport{
		Status: s.engine.Status(),
		State:  s.engine.State(),
		Grid:   s.engine.GridVisible(),
		Shapes: s.engine.Len(),
		Seq:    s.seq,
		Brush:  brushReport(s.engine.Brush()),
	}
	if id, ok := s.engine.Selection(); ok {
		r.Selection = &id
	}
	return r
}

func brushReport(b engine.Brush) BrushReport {
	return BrushReport{Style: document.StyleToRecord(b.Style), Algorithm: b.Algorithm.String()}
}

// Snapshots lists the history, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]db.Snapshot, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	return s.snapshots.List(ctx, limit)
}

func errorStrings(errs []error) []string {
	var out []string
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
