package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/inamate/pixeldraft/internal/raster"
)

// Record is the persisted form of one shape.
type Record struct {
	ID         *int              `json:"id"`
	Kind       *string           `json:"kind"`
	BaseParams []float64         `json:"base_params"`
	Algorithm  *string           `json:"algorithm"`
	Style      *StyleRecord      `json:"style"`
	Transforms []TransformRecord `json:"transforms"`
}

type StyleRecord struct {
	Color     []float64 `json:"color"`
	Pattern   string    `json:"pattern"`
	Thickness int       `json:"thickness"`
	Mask      *string   `json:"mask"`
}

type TransformRecord struct {
	Op   string    `json:"op"`
	Args []float64 `json:"args"`
}

// ToRecord converts a shape into its persisted form. Lines always carry an
// algorithm; circles and ellipses persist null.
func ToRecord(s Shape) Record {
	id := s.ID
	kind := string(s.Kind())
	rec := Record{
		ID:         &id,
		Kind:       &kind,
		BaseParams: s.Geometry.Params(),
		Style:      StyleToRecord(s.Style),
		Transforms: make([]TransformRecord, 0, len(s.Transforms)),
	}
	if s.Kind() == KindLine {
		alg := s.Algorithm.String()
		rec.Algorithm = &alg
	}
	for _, t := range s.Transforms {
		rec.Transforms = append(rec.Transforms, TransformRecord{Op: t.Op(), Args: t.Args()})
	}
	return rec
}

// StyleToRecord converts a style to its persisted form.
func StyleToRecord(s Style) *StyleRecord {
	stroke := s.StrokeOrSolid()
	out := &StyleRecord{
		Color:     []float64{s.Color[0], s.Color[1], s.Color[2]},
		Pattern:   stroke.Pattern(),
		Thickness: s.Thickness,
	}
	if m, ok := stroke.(UserMask); ok {
		hex := FormatMask(m.Mask)
		out.Mask = &hex
	}
	return out
}

// FromRecord validates a record and converts it back into a shape. Only
// arity and finiteness of base_params are checked; degenerate geometry is
// accepted.
func FromRecord(rec Record) (Shape, error) {
	if rec.ID == nil {
		return Shape{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if rec.Kind == nil {
		return Shape{}, fmt.Errorf("%w: shape %d: missing kind", ErrMalformedRecord, *rec.ID)
	}
	kind, ok := ParseKind(*rec.Kind)
	if !ok {
		return Shape{}, fmt.Errorf("%w: shape %d: unknown kind %q", ErrMalformedRecord, *rec.ID, *rec.Kind)
	}
	if rec.BaseParams == nil {
		return Shape{}, fmt.Errorf("%w: shape %d: missing base_params", ErrMalformedRecord, *rec.ID)
	}
	if rec.Style == nil {
		return Shape{}, fmt.Errorf("%w: shape %d: missing style", ErrMalformedRecord, *rec.ID)
	}

	g, err := GeometryFromParams(kind, rec.BaseParams)
	if err == nil {
		err = ValidateParams(g)
	}
	if err != nil {
		return Shape{}, fmt.Errorf("%w: shape %d: %w", ErrMalformedRecord, *rec.ID, err)
	}

	alg := raster.DefaultAlgorithm
	if kind == KindLine && rec.Algorithm != nil {
		if alg, err = raster.ParseAlgorithm(*rec.Algorithm); err != nil {
			return Shape{}, fmt.Errorf("%w: shape %d: %w", ErrMalformedRecord, *rec.ID, err)
		}
	}

	style, err := styleFromRecord(*rec.Style)
	if err != nil {
		return Shape{}, fmt.Errorf("%w: shape %d: %w", ErrMalformedRecord, *rec.ID, err)
	}

	transforms := make([]Transform, 0, len(rec.Transforms))
	for i, tr := range rec.Transforms {
		t, err := TransformFromOp(tr.Op, tr.Args)
		if err != nil {
			return Shape{}, fmt.Errorf("%w: shape %d: transform %d: %w", ErrMalformedRecord, *rec.ID, i, err)
		}
		transforms = append(transforms, t)
	}

	return Shape{
		ID:         *rec.ID,
		Geometry:   g,
		Style:      style,
		Algorithm:  alg,
		Transforms: transforms,
	}, nil
}

func styleFromRecord(r StyleRecord) (Style, error) {
	if len(r.Color) != 3 {
		return Style{}, fmt.Errorf("%w: colour needs 3 components, got %d", ErrInvalidStyle, len(r.Color))
	}
	stroke, thick, err := ParseStroke(r.Pattern, r.Mask)
	if err != nil {
		return Style{}, err
	}
	s := Style{
		Color:     Color{r.Color[0], r.Color[1], r.Color[2]},
		Thickness: r.Thickness,
		Stroke:    stroke,
	}
	if thick && s.Thickness < 2 {
		s.Thickness = 2
	}
	if err := ValidateStyle(s); err != nil {
		return Style{}, err
	}
	return s, nil
}

// EncodeScene writes shapes as an indented JSON array of records.
func EncodeScene(shapes []Shape) ([]byte, error) {
	records := make([]Record, 0, len(shapes))
	for _, s := range shapes {
		records = append(records, ToRecord(s))
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return data, nil
}

// DecodeScene parses a persisted scene. Malformed records, including
// duplicate ids, are skipped and reported as warnings; only a document that
// is not a JSON array fails outright.
func DecodeScene(data []byte) ([]Shape, []error, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode scene: %w: %w", ErrMalformedScene, err)
	}

	var (
		shapes   = make([]Shape, 0, len(raw))
		warnings []error
		seen     = make(map[int]bool, len(raw))
	)
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			warnings = append(warnings, fmt.Errorf("record %d: %w: %w", i, ErrMalformedRecord, err))
			continue
		}
		s, err := FromRecord(rec)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if seen[s.ID] {
			warnings = append(warnings, fmt.Errorf("record %d: %w: duplicate id %d", i, ErrMalformedRecord, s.ID))
			continue
		}
		seen[s.ID] = true
		shapes = append(shapes, s)
	}
	return shapes, warnings, nil
}
