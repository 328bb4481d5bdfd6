// Package scene owns the ordered shape collection and its on-disk copy.
package scene

import (
	"errors"
	"fmt"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/transform"
)

var ErrNotFound = errors.New("shape not found")

// Store is the in-memory scene. It is not safe for concurrent use; callers
// serialize access.
type Store struct {
	shapes []document.Shape
	nextID int
}

func NewStore() *Store {
	return &Store{}
}

// Create validates and appends a new shape. Nothing is stored on failure.
func (s *Store) Create(g document.Geometry, style document.Style, alg raster.Algorithm) (document.Shape, error) {
	if err := document.ValidateGeometry(g); err != nil {
		return document.Shape{}, fmt.Errorf("create shape: %w", err)
	}
	if style.Stroke == nil {
		style.Stroke = document.Solid{}
	}
	if err := document.ValidateStyle(style); err != nil {
		return document.Shape{}, fmt.Errorf("create shape: %w", err)
	}
	if g.Kind() != document.KindLine {
		alg = raster.DefaultAlgorithm
	}

	shape := document.Shape{
		ID:         s.nextID,
		Geometry:   g,
		Style:      style,
		Algorithm:  alg,
		Transforms: []document.Transform{},
	}
	s.nextID++
	s.shapes = append(s.shapes, shape)
	return shape.Clone(), nil
}

// Get returns a copy of the shape with the given id.
func (s *Store) Get(id int) (document.Shape, error) {
	i, err := s.index(id)
	if err != nil {
		return document.Shape{}, err
	}
	return s.shapes[i].Clone(), nil
}

// Delete removes a shape. Its id is never handed out again.
func (s *Store) Delete(id int) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
	return nil
}

// AppendTransform adds t to the end of the shape's pending list.
func (s *Store) AppendTransform(id int, t document.Transform) (document.Shape, error) {
	if err := document.ValidateTransform(t); err != nil {
		return document.Shape{}, fmt.Errorf("append transform: %w", err)
	}
	i, err := s.index(id)
	if err != nil {
		return document.Shape{}, err
	}
	s.shapes[i].Transforms = append(s.shapes[i].Transforms, t)
	return s.shapes[i].Clone(), nil
}

// Bake folds the shape's pending transforms into its base geometry.
func (s *Store) Bake(id int) (document.Shape, error) {
	i, err := s.index(id)
	if err != nil {
		return document.Shape{}, err
	}
	s.shapes[i] = transform.Bake(s.shapes[i])
	return s.shapes[i].Clone(), nil
}

// StyleEdit lists the style attributes to change. Nil fields are kept.
// Setting Mask switches the stroke to a user mask.
type StyleEdit struct {
	Color     *document.Color
	Stroke    document.Stroke
	Thickness *int
	Mask      *uint16
}

// Apply returns style with the edit applied.
func (e StyleEdit) Apply(style document.Style) document.Style {
	if e.Color != nil {
		style.Color = *e.Color
	}
	if e.Stroke != nil {
		style.Stroke = e.Stroke
	}
	if e.Thickness != nil {
		style.Thickness = *e.Thickness
	}
	if e.Mask != nil {
		style.Stroke = document.UserMask{Mask: *e.Mask}
	}
	return style
}

// Edit bakes any pending transforms and then applies the style change. An
// invalid edit leaves the shape untouched.
func (s *Store) Edit(id int, edit StyleEdit) (document.Shape, error) {
	i, err := s.index(id)
	if err != nil {
		return document.Shape{}, err
	}
	style := edit.Apply(s.shapes[i].Style)
	if err := document.ValidateStyle(style); err != nil {
		return document.Shape{}, fmt.Errorf("edit shape %d: %w", id, err)
	}
	baked := transform.Bake(s.shapes[i])
	baked.Style = style
	s.shapes[i] = baked
	return baked.Clone(), nil
}

// Shapes returns a snapshot of the scene in creation order.
func (s *Store) Shapes() []document.Shape {
	out := make([]document.Shape, len(s.shapes))
	for i, sh := range s.shapes {
		out[i] = sh.Clone()
	}
	return out
}

func (s *Store) Len() int {
	return len(s.shapes)
}

// NextID is the id the next created shape will receive.
func (s *Store) NextID() int {
	return s.nextID
}

// Replace swaps in a loaded scene. The id counter continues past the
// largest loaded id.
func (s *Store) Replace(shapes []document.Shape) {
	s.shapes = make([]document.Shape, 0, len(shapes))
	next := 0
	for _, sh := range shapes {
		s.shapes = append(s.shapes, sh.Clone())
		next = max(next, sh.ID+1)
	}
	s.nextID = max(s.nextID, next)
}

func (s *Store) index(id int) (int, error) {
	for i := range s.shapes {
		if s.shapes[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("shape %d: %w", id, ErrNotFound)
}
