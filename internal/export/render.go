// Package export turns draw command buffers into raster images.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/inamate/pixeldraft/internal/engine"
)

// Frame is a rendered view of the canvas, in device space.
type Frame struct {
	Commands []engine.DrawCommand
	Width    int
	Height   int
}

type Options struct {
	Background color.Color
	Labels     bool // draw shape ids next to each outline
	Scale      int  // integer upscale factor, nearest neighbour
}

func DefaultOptions() Options {
	return Options{Background: color.White, Scale: 1}
}

const guideMarker = 2 // half-size of a pending click marker

// Render paints a frame onto a new RGBA image. Commands are painted in
// order, so later ones cover earlier ones.
func Render(f Frame, opts Options) *image.RGBA {
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	midX, midY := f.Width/2, f.Height/2
	for _, cmd := range f.Commands {
		c := parseHex(cmd.Color)
		switch cmd.Op {
		case engine.OpGrid:
			drawGrid(img, midX, midY, cmd.Step, c)
		case engine.OpAxes:
			hline(img, 0, f.Width-1, midY, c)
			vline(img, midX, 0, f.Height-1, c)
		case engine.OpPoints:
			for _, p := range cmd.Points {
				img.Set(p[0], p[1], c)
			}
			if opts.Labels && cmd.ObjectID != nil && len(cmd.Points) > 0 {
				p := cmd.Points[0]
				label(img, p[0]+4, p[1]-4, strconv.Itoa(*cmd.ObjectID), c)
			}
		case engine.OpBounds:
			if r := cmd.Rect; r != nil {
				x0, y0 := int(r.X), int(r.Y)
				x1, y1 := int(r.X+r.Width), int(r.Y+r.Height)
				hline(img, x0, x1, y0, c)
				hline(img, x0, x1, y1, c)
				vline(img, x0, y0, y1, c)
				vline(img, x1, y0, y1, c)
			}
		case engine.OpGuide:
			for _, p := range cmd.Points {
				for dy := -guideMarker; dy <= guideMarker; dy++ {
					hline(img, p[0]-guideMarker, p[0]+guideMarker, p[1]+dy, c)
				}
			}
		}
	}

	if opts.Scale > 1 {
		return upscale(img, opts.Scale)
	}
	return img
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawGrid(img *image.RGBA, midX, midY int, step float64, c color.Color) {
	if step < 2 {
		return
	}
	b := img.Bounds()
	for k := 0.0; ; k++ {
		off := int(k * step)
		if midX-off < b.Min.X && midX+off >= b.Max.X && midY-off < b.Min.Y && midY+off >= b.Max.Y {
			break
		}
		vline(img, midX+off, b.Min.Y, b.Max.Y-1, c)
		vline(img, midX-off, b.Min.Y, b.Max.Y-1, c)
		hline(img, b.Min.X, b.Max.X-1, midY+off, c)
		hline(img, b.Min.X, b.Max.X-1, midY-off, c)
	}
}

// hline and vline clip through RGBA.Set, which ignores out-of-bounds points.
func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func label(img *image.RGBA, x, y int, text string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func upscale(src *image.RGBA, factor int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// parseHex reads "#rrggbb"; anything else paints black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
