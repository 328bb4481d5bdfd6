package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/inamate/pixeldraft/internal/collab"
	"github.com/inamate/pixeldraft/internal/db"
	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/engine"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/hittest"
	"github.com/inamate/pixeldraft/internal/scene"
)

type fakeSnapshots struct {
	saved  [][]byte
	latest *db.Snapshot
}

func (f *fakeSnapshots) Save(_ context.Context, doc []byte, shapes int) (db.Snapshot, error) {
	f.saved = append(f.saved, doc)
	return db.Snapshot{ID: "snap_test", Version: int32(len(f.saved)), Shapes: int32(shapes)}, nil
}

func (f *fakeSnapshots) Latest(context.Context) (db.Snapshot, error) {
	if f.latest == nil {
		return db.Snapshot{}, db.ErrNoSnapshot
	}
	return *f.latest, nil
}

func (f *fakeSnapshots) List(context.Context, int) ([]db.Snapshot, error) {
	return []db.Snapshot{{ID: "snap_test", Version: int32(len(f.saved))}}, nil
}

type published struct {
	op  collab.Operation
	seq int64
}

type fakeHub struct {
	ops   []published
	syncs int
}

func (f *fakeHub) Publish(op collab.Operation, _ string, seq int64, _ json.RawMessage) {
	f.ops = append(f.ops, published{op, seq})
}

func (f *fakeHub) SyncAll() { f.syncs++ }

func testOptions() Options {
	return Options{Engine: engine.Options{Width: 1000, Height: 700, GridStep: 20, Tolerance: hittest.DefaultTolerance()}}
}

func newTestService(t *testing.T) (*Service, *scene.FileStore, *fakeHub) {
	t.Helper()
	files := scene.NewFileStore(filepath.Join(t.TempDir(), "scene.json"))
	svc := NewService(files, nil, testOptions())
	hub := &fakeHub{}
	svc.SetPublisher(hub)
	return svc, files, hub
}

func TestOpenSeedsSample(t *testing.T) {
	svc, files, _ := newTestService(t)
	if err := svc.Open(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	shapes, warnings, err := files.Load()
	if err != nil || len(warnings) != 0 {
		t.Fatalf("Load: %v %v", warnings, err)
	}
	if len(shapes) != len(document.NewSampleScene()) {
		t.Errorf("seeded %d shapes", len(shapes))
	}

	// A second service reads the file instead of seeding again.
	again := NewService(files, nil, testOptions())
	if err := again.Open(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if again.Status().Shapes != len(shapes) {
		t.Errorf("reopened with %d shapes", again.Status().Shapes)
	}
}

func TestOpenRestoresSnapshot(t *testing.T) {
	doc, _ := document.EncodeScene([]document.Shape{{
		ID: 5, Geometry: document.Circle{R: 10}, Style: document.DefaultStyle(),
	}})
	snaps := &fakeSnapshots{latest: &db.Snapshot{ID: "snap_x", Version: 3, Document: doc}}
	files := scene.NewFileStore(filepath.Join(t.TempDir(), "scene.json"))
	svc := NewService(files, snaps, testOptions())

	if err := svc.Open(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Shape(5); err != nil {
		t.Errorf("snapshot shape missing: %v", err)
	}
	if !files.Exists() {
		t.Error("restored scene not written to file")
	}
}

func TestSubmitPersistsAndPublishes(t *testing.T) {
	svc, files, hub := newTestService(t)
	snaps := &fakeSnapshots{}
	svc.snapshots = snaps
	ctx := context.Background()

	shape := json.RawMessage(`{"kind":"line","base_params":[0,0,40,20],"algorithm":"dda"}`)
	res, err := svc.Submit(ctx, collab.Operation{Type: collab.OpShapeCreate, Shape: shape}, "ada")
	if err != nil {
		t.Fatal(err)
	}
	var rec document.Record
	json.Unmarshal(res, &rec)
	if rec.ID == nil || *rec.ID != 0 || *rec.Algorithm != "dda" {
		t.Errorf("created record = %s", res)
	}

	id := 0
	tr := json.RawMessage(`{"op":"translate","args":[10,0]}`)
	if _, err := svc.Submit(ctx, collab.Operation{Type: collab.OpShapeTransform, ShapeID: &id, Transform: tr}, "ada"); err != nil {
		t.Fatal(err)
	}

	saved, _, _ := files.Load()
	if len(saved) != 1 || len(saved[0].Transforms) != 1 {
		t.Errorf("file not updated: %+v", saved)
	}
	if len(snaps.saved) != 2 {
		t.Errorf("snapshots = %d", len(snaps.saved))
	}

	var seqs []int64
	for _, p := range hub.ops {
		seqs = append(seqs, p.seq)
	}
	if diff := cmp.Diff([]int64{1, 2}, seqs); diff != "" {
		t.Errorf("published seqs (-want +got):\n%s", diff)
	}
}

func TestSubmitErrors(t *testing.T) {
	svc, _, hub := newTestService(t)
	ctx := context.Background()
	id := 9

	tests := []struct {
		name string
		op   collab.Operation
		want error
	}{
		{"unknown op", collab.Operation{Type: "shape.explode"}, ErrUnknownOp},
		{"missing id", collab.Operation{Type: collab.OpShapeBake}, ErrBadRequest},
		{"unknown shape", collab.Operation{Type: collab.OpShapeBake, ShapeID: &id}, scene.ErrNotFound},
		{"bad geometry", collab.Operation{Type: collab.OpShapeCreate, Shape: json.RawMessage(`{"kind":"circle","base_params":[0,0,0]}`)}, document.ErrInvalidGeometry},
		{"bad transform", collab.Operation{Type: collab.OpShapeTransform, ShapeID: &id, Transform: json.RawMessage(`{"op":"shear","args":[1]}`)}, document.ErrInvalidTransform},
		{"not an array", collab.Operation{Type: collab.OpSceneReplace, Scene: json.RawMessage(`{}`)}, document.ErrMalformedScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tt.op, "ada"); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(hub.ops) != 0 {
		t.Errorf("failed ops were published: %+v", hub.ops)
	}
}

func TestStyleEditAndReplace(t *testing.T) {
	svc, _, hub := newTestService(t)
	ctx := context.Background()
	svc.Submit(ctx, collab.Operation{Type: collab.OpShapeCreate, Shape: json.RawMessage(`{"kind":"circle","base_params":[0,0,30]}`)}, "ada")

	id := 0
	style := json.RawMessage(`{"pattern":"mask","mask":"0xAAAA","thickness":3}`)
	res, err := svc.Submit(ctx, collab.Operation{Type: collab.OpShapeStyle, ShapeID: &id, Style: style}, "ada")
	if err != nil {
		t.Fatal(err)
	}
	var rec document.Record
	json.Unmarshal(res, &rec)
	if rec.Style.Pattern != "mask" || *rec.Style.Mask != "AAAA" || rec.Style.Thickness != 3 {
		t.Errorf("style = %+v", rec.Style)
	}

	out, err := svc.LoadSample(ctx, "ada")
	if err != nil {
		t.Fatal(err)
	}
	if out.Loaded != 4 || hub.syncs != 1 {
		t.Errorf("replace = %+v, syncs = %d", out, hub.syncs)
	}
}

func TestClickPublishesGesture(t *testing.T) {
	svc, files, hub := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetTool("circle"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Click(ctx, geom.Pt(0, 0), true, "ada"); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Click(ctx, geom.Pt(41, 0), true, "ada")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Shape == nil {
		t.Fatalf("click = %+v", res)
	}
	if len(hub.ops) != 1 || hub.ops[0].op.Type != collab.OpShapeCreate {
		t.Fatalf("published = %+v", hub.ops)
	}
	saved, _, _ := files.Load()
	if len(saved) != 1 || saved[0].Geometry != (document.Circle{R: 40}) {
		t.Errorf("saved = %+v", saved)
	}

	// Select then translate publishes a transform.
	svc.SetTool("select")
	svc.Click(ctx, geom.Pt(40, 0), true, "ada")
	svc.SetTool("translate")
	svc.Click(ctx, geom.Pt(0, 0), true, "ada")
	if _, err := svc.Click(ctx, geom.Pt(20, 0), true, "ada"); err != nil {
		t.Fatal(err)
	}
	last := hub.ops[len(hub.ops)-1].op
	if last.Type != collab.OpShapeTransform || string(last.Transform) != `{"op":"translate","args":[20,0]}` {
		t.Errorf("last op = %+v (%s)", last, last.Transform)
	}
}

func TestSetBrush(t *testing.T) {
	svc, _, _ := newTestService(t)
	alg := "symmetric_dda"
	pattern := "dotted"
	b, err := svc.SetBrush(BrushRequest{StylePatch: StylePatch{Color: []float64{1, 0, 0}, Pattern: &pattern}, Algorithm: &alg})
	if err != nil {
		t.Fatal(err)
	}
	if b.Style.Color != document.Red || b.Style.Stroke != (document.Dotted{}) || b.Algorithm.String() != alg {
		t.Errorf("brush = %+v", b)
	}

	bad := "zigzag"
	if _, err := svc.SetBrush(BrushRequest{Algorithm: &bad}); err == nil {
		t.Error("unknown algorithm accepted")
	}
	if got := svc.Status().Brush.Algorithm; got != alg {
		t.Errorf("failed update changed brush: %s", got)
	}
}
