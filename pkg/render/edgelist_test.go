package render

import (
	"math"
	"testing"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

func tri(x0, y0, z0, x1, y1, z1, x2, y2, z2 float64) scene.Polygon {
	return scene.NewPolygon(
		math3d.V3(x0, y0, z0),
		math3d.V3(x1, y1, z1),
		math3d.V3(x2, y2, z2),
		scene.ColorWhite,
	)
}

func TestEdgeListCoverage(t *testing.T) {
	p := tri(0, 0, 0, 10, 0, 0, 5, 10, 0)
	el := NewEdgeList(p)

	if el.StartY != 0 || el.EndY != 10 {
		t.Fatalf("rows = [%d, %d), want [0, 10)", el.StartY, el.EndY)
	}
	if el.Rows() != 10 {
		t.Errorf("Rows() = %d, want 10", el.Rows())
	}

	fb := NewFramebuffer(20, 20, scene.ColorBlack)
	got := fb.Composite(el, scene.ColorWhite)

	const area = 50.0
	if math.Abs(float64(got)-area) > area*0.05 {
		t.Errorf("composited %d pixels, want %v ±5%%", got, area)
	}

	// The count must match what is actually in the buffer.
	white := 0
	for _, c := range fb.Pixels {
		if c == scene.ColorWhite {
			white++
		}
	}
	if white != got {
		t.Errorf("buffer holds %d white pixels, Composite reported %d", white, got)
	}
}

func TestEdgeListLeftRight(t *testing.T) {
	p := tri(0, 0, 1, 10, 0, 3, 5, 10, 2)

	for _, poly := range []scene.Polygon{p, p.Reversed()} {
		el := NewEdgeList(poly)
		for y := el.StartY; y < el.EndY; y++ {
			s, ok := el.Row(y)
			if !ok {
				t.Fatalf("row %d missing", y)
			}
			if s.XLeft > s.XRight {
				t.Errorf("row %d: XLeft %v > XRight %v", y, s.XLeft, s.XRight)
			}
		}
	}

	// Row 4 is sampled at y = 4.5.
	s, _ := NewEdgeList(p).Row(4)
	if math.Abs(s.XLeft-2.25) > 1e-12 || math.Abs(s.XRight-7.75) > 1e-12 {
		t.Errorf("row 4 span = [%v, %v], want [2.25, 7.75]", s.XLeft, s.XRight)
	}
	// Left edge runs z 1 -> 2, right edge z 3 -> 2, both at 45% of the way.
	if math.Abs(s.ZLeft-1.45) > 1e-12 || math.Abs(s.ZRight-2.55) > 1e-12 {
		t.Errorf("row 4 depth = [%v, %v], want [1.45, 2.55]", s.ZLeft, s.ZRight)
	}
}

func TestEdgeListRowOutOfRange(t *testing.T) {
	el := NewEdgeList(tri(0, 2, 0, 4, 2, 0, 2, 6, 0))
	for _, y := range []int{-1, 0, 1, 6, 100} {
		if _, ok := el.Row(y); ok {
			t.Errorf("Row(%d) reported a span outside [%d, %d)", y, el.StartY, el.EndY)
		}
	}
}

func TestEdgeListDegenerate(t *testing.T) {
	tests := []struct {
		name string
		p    scene.Polygon
	}{
		{"horizontal line", tri(0, 5, 0, 3, 5, 0, 9, 5, 0)},
		{"collinear diagonal", tri(0, 0, 0, 5, 5, 0, 10, 10, 0)},
		{"single point", tri(3, 3, 0, 3, 3, 0, 3, 3, 0)},
		{"sub-pixel sliver", tri(1.1, 1.1, 0, 1.2, 1.1, 0, 1.15, 1.3, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(16, 16, scene.ColorBlack)
			if n := fb.Composite(NewEdgeList(tc.p), scene.ColorWhite); n != 0 {
				t.Errorf("degenerate polygon wrote %d pixels", n)
			}
		})
	}
}

func TestEdgeListWithin(t *testing.T) {
	t.Run("above buffer", func(t *testing.T) {
		el := NewEdgeListWithin(tri(0, -50, 0, 10, -50, 0, 5, -10, 0), 32)
		if !el.Empty() {
			t.Errorf("rows = [%d, %d), want empty", el.StartY, el.EndY)
		}
	})

	t.Run("below buffer", func(t *testing.T) {
		el := NewEdgeListWithin(tri(0, 40, 0, 10, 40, 0, 5, 90, 0), 32)
		if !el.Empty() {
			t.Errorf("rows = [%d, %d), want empty", el.StartY, el.EndY)
		}
	})

	t.Run("huge polygon", func(t *testing.T) {
		el := NewEdgeListWithin(tri(-1e6, -1e6, 0, 1e6, -1e6, 0, 0, 1e6, 0), 8)
		if el.StartY != 0 || el.EndY != 8 {
			t.Fatalf("rows = [%d, %d), want [0, 8)", el.StartY, el.EndY)
		}
		fb := NewFramebuffer(8, 8, scene.ColorBlack)
		if n := fb.Composite(el, scene.ColorWhite); n != 64 {
			t.Errorf("composited %d pixels, want 64", n)
		}
	})

	t.Run("matches unclipped", func(t *testing.T) {
		p := tri(-3.2, -4.7, 0, 12.9, 3.3, 1, 2.5, 14.1, 2)
		full := NewEdgeList(p)
		clipped := NewEdgeListWithin(p, 10)
		for y := 0; y < 10; y++ {
			a, okA := full.Row(y)
			b, okB := clipped.Row(y)
			if okA != okB || a != b {
				t.Errorf("row %d: clipped %+v (%v), unclipped %+v (%v)", y, b, okB, a, okA)
			}
		}
	})
}

func BenchmarkNewEdgeList(b *testing.B) {
	p := tri(3.5, 2.25, 0, 310.75, 40.5, 4, 120.1, 230.9, 9)
	for b.Loop() {
		_ = NewEdgeListWithin(p, 240)
	}
}

func TestEdgeListHugeExtent(t *testing.T) {
	el := NewEdgeList(tri(0, 0, 0, 0, 1e12, 0, 1e12, 0, 0))
	if el.StartY != 0 || el.EndY != MaxScanline {
		t.Fatalf("rows [%d, %d), want [0, %d)", el.StartY, el.EndY, MaxScanline)
	}
	s, ok := el.Row(100)
	if !ok {
		t.Fatal("row 100 missing")
	}
	if s.XLeft != 0 || s.XRight < 1e11 {
		t.Errorf("row 100 span [%v, %v]", s.XLeft, s.XRight)
	}

	el = NewEdgeList(tri(0, -1e300, 0, 0, 1e300, 0, 5, 0, 0))
	if el.StartY != -MaxScanline || el.EndY != MaxScanline {
		t.Errorf("rows [%d, %d), want [%d, %d)", el.StartY, el.EndY, -MaxScanline, MaxScanline)
	}
}
