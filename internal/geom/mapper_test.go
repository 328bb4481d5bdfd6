package geom

import (
	"math"
	"testing"
)

func TestMapperRoundTrip(t *testing.T) {
	m := NewMapper(1000, 700, 20)
	for sx := 0; sx < m.Width; sx += 37 {
		for sy := 0; sy < m.Height; sy += 29 {
			p := m.ScreenToLogical(Pt(float64(sx), float64(sy)))
			back := m.LogicalToScreen(p)
			if math.Abs(back.X-float64(sx)) > 1 || math.Abs(back.Y-float64(sy)) > 1 {
				t.Fatalf("round trip (%d,%d) -> %v -> %v", sx, sy, p, back)
			}
			again := m.ScreenToLogical(m.LogicalToScreen(p))
			if math.Abs(again.X-p.X) > 1 || math.Abs(again.Y-p.Y) > 1 {
				t.Fatalf("logical round trip %v -> %v", p, again)
			}
		}
	}
}

func TestMapperOrientation(t *testing.T) {
	m := NewMapper(800, 600, 0)
	tests := []struct {
		name    string
		logical Point
		screen  Point
	}{
		{"origin is canvas centre", Pt(0, 0), Pt(400, 300)},
		{"y up in logical frame", Pt(0, 100), Pt(400, 200)},
		{"x right in both frames", Pt(50, 0), Pt(450, 300)},
		{"top-left corner", Pt(-400, 300), Pt(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.LogicalToScreen(tt.logical); got != tt.screen {
				t.Errorf("LogicalToScreen(%v) = %v, want %v", tt.logical, got, tt.screen)
			}
			if got := m.ScreenToLogical(tt.screen); got != tt.logical {
				t.Errorf("ScreenToLogical(%v) = %v, want %v", tt.screen, got, tt.logical)
			}
		})
	}
}

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		name string
		in   Point
		step float64
		want Point
	}{
		{"already on lattice", Pt(40, -60), 20, Pt(40, -60)},
		{"rounds down", Pt(49, 9), 20, Pt(40, 0)},
		{"rounds up", Pt(51, 11), 20, Pt(60, 20)},
		{"negative axis", Pt(-29, -31), 20, Pt(-20, -40)},
		{"axes independent", Pt(9, 31), 20, Pt(0, 40)},
		{"disabled", Pt(3.5, 7.25), 0, Pt(3.5, 7.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapToGrid(tt.in, tt.step); got != tt.want {
				t.Errorf("SnapToGrid(%v, %v) = %v, want %v", tt.in, tt.step, got, tt.want)
			}
		})
	}
}

func TestClickLandsOnLattice(t *testing.T) {
	m := NewMapper(1000, 700, 20)
	for _, sp := range []Point{Pt(0, 0), Pt(13, 698), Pt(517, 351), Pt(999, 1)} {
		p := m.Click(sp)
		if math.Mod(p.X, 20) != 0 || math.Mod(p.Y, 20) != 0 {
			t.Errorf("Click(%v) = %v, not on the 20px lattice", sp, p)
		}
	}
}

func TestPixelToScreenClips(t *testing.T) {
	m := NewMapper(100, 80, 10)
	if x, y, ok := m.PixelToScreen(Pixel{0, 0}); !ok || x != 50 || y != 40 {
		t.Errorf("PixelToScreen(origin) = %d,%d,%v", x, y, ok)
	}
	if _, _, ok := m.PixelToScreen(Pixel{50, 0}); ok {
		t.Error("pixel at right edge should be clipped")
	}
	if _, _, ok := m.PixelToScreen(Pixel{-50, 40}); !ok {
		t.Error("top-left pixel should be inside")
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: -5, Width: 10, Height: 10}
	got := a.Union(b)
	want := Rect{X: 0, Y: -5, Width: 15, Height: 15}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
	if got := (Rect{}).Union(a); got != a {
		t.Errorf("empty union = %+v, want %+v", got, a)
	}
	if !got.Contains(got.Center()) {
		t.Error("rect should contain its centre")
	}
}
