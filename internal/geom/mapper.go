package geom

import "math"

// Mapper converts between the logical frame (origin at the canvas centre,
// Y up) and the device frame (origin top-left, Y down). It is a value type
// with no hidden state; resizing the canvas means building a new Mapper.
type Mapper struct {
	Width    int
	Height   int
	GridStep float64
}

// NewMapper returns a mapper for a canvas of the given size.
func NewMapper(width, height int, gridStep float64) Mapper {
	return Mapper{Width: width, Height: height, GridStep: gridStep}
}

// Mid returns the device coordinates of the logical origin.
func (m Mapper) Mid() (int, int) {
	return m.Width / 2, m.Height / 2
}

// LogicalToScreen maps a logical point to device coordinates.
func (m Mapper) LogicalToScreen(p Point) Point {
	mx, my := m.Mid()
	return Point{X: p.X + float64(mx), Y: float64(my) - p.Y}
}

// ScreenToLogical maps a device point to logical coordinates.
func (m Mapper) ScreenToLogical(p Point) Point {
	mx, my := m.Mid()
	return Point{X: p.X - float64(mx), Y: float64(my) - p.Y}
}

// Snap rounds each axis independently to the nearest multiple of the grid
// step. A non-positive step disables snapping.
func (m Mapper) Snap(p Point) Point {
	return SnapToGrid(p, m.GridStep)
}

// Click converts a raw device click to the snapped logical point every
// other component expects.
func (m Mapper) Click(screen Point) Point {
	return m.Snap(m.ScreenToLogical(screen))
}

// PixelToScreen converts a logical raster pixel to device coordinates and
// reports whether it lands on the canvas.
func (m Mapper) PixelToScreen(px Pixel) (int, int, bool) {
	mx, my := m.Mid()
	sx, sy := px.X+mx, my-px.Y
	return sx, sy, sx >= 0 && sx < m.Width && sy >= 0 && sy < m.Height
}

// ContainsScreen reports whether a device point lies inside the canvas.
func (m Mapper) ContainsScreen(p Point) bool {
	return p.X >= 0 && p.X < float64(m.Width) && p.Y >= 0 && p.Y < float64(m.Height)
}

// SnapToGrid rounds p to the nearest lattice point of the given step.
func SnapToGrid(p Point, step float64) Point {
	if step <= 0 {
		return p
	}
	return Point{
		X: noNegZero(math.Round(p.X/step) * step),
		Y: noNegZero(math.Round(p.Y/step) * step),
	}
}

// noNegZero keeps -0 out of persisted coordinates.
func noNegZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
