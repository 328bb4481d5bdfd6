package canvas

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/scene"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrUnknownOp  = errors.New("unknown operation")
)

// StylePatch is the wire form of a partial style change. Absent fields
// are kept.
type StylePatch struct {
	Color     []float64 `json:"color,omitempty"`
	Pattern   *string   `json:"pattern,omitempty"`
	Thickness *int      `json:"thickness,omitempty"`
	Mask      *string   `json:"mask,omitempty"`
}

// Edit converts the patch into a store edit.
func (p StylePatch) Edit() (scene.StyleEdit, error) {
	var edit scene.StyleEdit
	if p.Color != nil {
		if len(p.Color) != 3 {
			return edit, fmt.Errorf("style patch: %w: colour needs 3 components", document.ErrInvalidStyle)
		}
		c := document.Color{p.Color[0], p.Color[1], p.Color[2]}
		edit.Color = &c
	}
	if p.Thickness != nil {
		t := *p.Thickness
		edit.Thickness = &t
	}
	switch {
	case p.Pattern != nil:
		stroke, thick, err := document.ParseStroke(*p.Pattern, p.Mask)
		if err != nil {
			return edit, err
		}
		edit.Stroke = stroke
		if thick && (edit.Thickness == nil || *edit.Thickness < 2) {
			t := 2
			edit.Thickness = &t
		}
	case p.Mask != nil:
		m, err := document.ParseMask(*p.Mask)
		if err != nil {
			return edit, err
		}
		edit.Mask = &m
	}
	return edit, nil
}

// BrushRequest is the wire form of the drawing brush.
type BrushRequest struct {
	StylePatch
	Algorithm *string `json:"algorithm,omitempty"`
}

// decodeShape reads a scene record without an id. A missing style or
// algorithm falls back to the brush.
func decodeShape(data json.RawMessage, brush document.Style, alg raster.Algorithm) (document.Shape, error) {
	var rec document.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return document.Shape{}, fmt.Errorf("decode shape: %w: %w", ErrBadRequest, err)
	}
	placeholder := 0
	rec.ID = &placeholder
	if rec.Style == nil {
		rec.Style = document.StyleToRecord(brush)
	}
	if rec.Algorithm == nil {
		name := alg.String()
		rec.Algorithm = &name
	}
	s, err := document.FromRecord(rec)
	if err != nil {
		return document.Shape{}, fmt.Errorf("decode shape: %w", err)
	}
	return s, nil
}

func decodeTransform(data json.RawMessage) (document.Transform, error) {
	var rec document.TransformRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode transform: %w: %w", ErrBadRequest, err)
	}
	return document.TransformFromOp(rec.Op, rec.Args)
}

func decodeStyle(data json.RawMessage) (scene.StyleEdit, error) {
	var p StylePatch
	if err := json.Unmarshal(data, &p); err != nil {
		return scene.StyleEdit{}, fmt.Errorf("decode style: %w: %w", ErrBadRequest, err)
	}
	return p.Edit()
}

func shapeRecord(s document.Shape) json.RawMessage {
	data, _ := json.Marshal(document.ToRecord(s))
	return data
}
