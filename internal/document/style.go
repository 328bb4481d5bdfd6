package document

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is an RGB triple with components in [0, 1].
type Color [3]float64

var (
	Black  = Color{0, 0, 0}
	White  = Color{1, 1, 1}
	Red    = Color{1, 0, 0}
	Green  = Color{0, 1, 0}
	Blue   = Color{0, 0, 1}
	Yellow = Color{1, 1, 0}
	Orange = Color{1, 0.5, 0}

	// Highlight is drawn over the selected shape.
	Highlight = Color{1, 0.8, 0.2}
)

// NamedColors is the palette offered to operators.
var NamedColors = map[string]Color{
	"black":  Black,
	"white":  White,
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"yellow": Yellow,
	"orange": Orange,
}

// RGBA converts the colour to an opaque image colour.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 0xff}
}

// Hex formats the colour as #rrggbb.
func (c Color) Hex() string {
	rgba := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Stroke is the dash pattern of a shape outline. The user mask exists only
// on the UserMask variant.
type Stroke interface {
	Pattern() string
	Visible(step int) bool
	isStroke()
}

type Solid struct{}

type Dotted struct{}

// UserMask draws the group at step i when bit i%16 of Mask is set.
type UserMask struct {
	Mask uint16
}

const (
	PatternSolid  = "solid"
	PatternDotted = "dotted"
	PatternMask   = "mask"

	// patternThick is accepted on load; it is Solid with a wider stroke.
	patternThick = "thick"
)

func (Solid) Pattern() string    { return PatternSolid }
func (Dotted) Pattern() string   { return PatternDotted }
func (UserMask) Pattern() string { return PatternMask }

func (Solid) Visible(int) bool { return true }

func (Dotted) Visible(step int) bool { return step%4 < 2 }

func (m UserMask) Visible(step int) bool { return m.Mask>>(step%16)&1 == 1 }

func (Solid) isStroke()    {}
func (Dotted) isStroke()   {}
func (UserMask) isStroke() {}

// FormatMask renders a mask as four upper-case hex digits.
func FormatMask(m uint16) string {
	return fmt.Sprintf("%04X", m)
}

// ParseMask accepts up to four hex digits with an optional 0x prefix.
func ParseMask(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("parse mask: %w: empty", ErrInvalidStyle)
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parse mask %q: %w", s, ErrInvalidStyle)
	}
	return uint16(v), nil
}

// ParseStroke builds a stroke from its persisted pattern name and optional
// mask. It also reports whether the pattern was the legacy thick style.
func ParseStroke(pattern string, mask *string) (Stroke, bool, error) {
	switch strings.ToLower(pattern) {
	case PatternSolid:
		return Solid{}, false, nil
	case patternThick:
		return Solid{}, true, nil
	case PatternDotted:
		return Dotted{}, false, nil
	case PatternMask, "user_mask", "usermask":
		if mask == nil {
			return nil, false, fmt.Errorf("parse stroke: %w: mask pattern without mask", ErrInvalidStyle)
		}
		m, err := ParseMask(*mask)
		if err != nil {
			return nil, false, err
		}
		return UserMask{Mask: m}, false, nil
	}
	return nil, false, fmt.Errorf("parse stroke %q: %w", pattern, ErrInvalidStyle)
}

// Style is the visual attributes of a shape.
type Style struct {
	Color     Color
	Thickness int
	Stroke    Stroke
}

// DefaultStyle is a one pixel solid blue stroke.
func DefaultStyle() Style {
	return Style{Color: Blue, Thickness: 1, Stroke: Solid{}}
}

// StrokeOrSolid returns the style's stroke, treating nil as solid.
func (s Style) StrokeOrSolid() Stroke {
	if s.Stroke == nil {
		return Solid{}
	}
	return s.Stroke
}
