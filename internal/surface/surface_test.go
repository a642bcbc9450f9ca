package surface

import (
	"image"
	"image/color"
	"testing"
)

var red = color.NRGBA{R: 255, A: 255}

func alphaAt(img *image.RGBA, x, y int) uint8 {
	return img.RGBAAt(x, y).A
}

func TestCircleCoversCentreOnly(t *testing.T) {
	s := NewSoftware(20, 20)
	s.Add(Primitive{Shape: Circle{Center: Pt(10, 10), Radius: 3}, Fill: red, Op: OpOver})
	img := s.Image()
	if alphaAt(img, 10, 10) != 255 {
		t.Errorf("centre alpha = %d", alphaAt(img, 10, 10))
	}
	if alphaAt(img, 2, 2) != 0 {
		t.Errorf("far pixel alpha = %d", alphaAt(img, 2, 2))
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 20, 20) {
		t.Errorf("bounds = %v", got)
	}
}

func TestXorOfHalfAlphaStampsStaysSet(t *testing.T) {
	s := NewSoftware(10, 10)
	half := WithAlpha(red, 0.5)
	sq := Square{Center: Pt(5, 5), Side: 4}
	s.Add(Primitive{Shape: sq, Fill: half, Op: OpXor})
	s.Add(Primitive{Shape: sq, Fill: half, Op: OpXor})
	img := s.Image()
	if a := alphaAt(img, 5, 5); a == 0 || a == 255 {
		t.Errorf("overlapped alpha = %d, want partial coverage", a)
	}
}

func TestDestinationOutClears(t *testing.T) {
	s := NewSoftware(10, 10)
	s.Add(Primitive{Shape: Square{Center: Pt(5, 5), Side: 6}, Fill: WithAlpha(red, 0.5), Op: OpXor})
	s.Add(Primitive{Shape: Square{Center: Pt(5, 5), Side: 2}, Fill: color.White, Op: OpDestinationOut})
	img := s.Image()
	if alphaAt(img, 5, 5) != 0 {
		t.Errorf("erased pixel alpha = %d", alphaAt(img, 5, 5))
	}
	if alphaAt(img, 3, 3) == 0 {
		t.Errorf("untouched pixel should stay set")
	}
}

func TestRasterizeSubRect(t *testing.T) {
	s := NewSoftware(10, 10)
	s.Add(Primitive{Shape: Square{Center: Pt(5, 5), Side: 2}, Fill: red, Op: OpOver})
	r := image.Rect(4, 4, 6, 6)
	img := s.Rasterize(r)
	if img.Bounds() != r {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for _, c := range Covered(img) {
		if !c {
			t.Fatalf("expected every pixel of the square to be covered")
		}
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := NewSoftware(5, 5)
	h := s.Add(Primitive{Shape: Circle{Center: Pt(2, 2), Radius: 1}, Fill: red})
	s.Add(Primitive{Shape: Circle{Center: Pt(2, 2), Radius: 1}, Fill: red})
	if !s.Remove(h) || s.Remove(h) {
		t.Fatalf("Remove should succeed exactly once")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Clear left %d primitives", s.Len())
	}
}

func TestBitmapUsesOwnColours(t *testing.T) {
	bm := image.NewRGBA(image.Rect(2, 2, 4, 4))
	bm.SetRGBA(3, 3, color.RGBA{G: 255, A: 255})
	s := NewSoftware(6, 6)
	s.Add(Primitive{Shape: Bitmap{Image: bm}, Fill: red, Op: OpOver})
	img := s.Image()
	if got := img.RGBAAt(3, 3); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("bitmap pixel = %v", got)
	}
	if alphaAt(img, 2, 2) != 0 {
		t.Errorf("transparent bitmap pixel should stay empty")
	}
}

func TestSegmentCaps(t *testing.T) {
	seg := Segment{From: Pt(2, 5), To: Pt(8, 5), Width: 2, Cap: CapRound}
	s := NewSoftware(12, 12)
	s.Add(Primitive{Shape: seg, Fill: red})
	img := s.Image()
	if alphaAt(img, 5, 5) != 255 {
		t.Errorf("segment body not covered")
	}
	if alphaAt(img, 5, 9) != 0 {
		t.Errorf("pixel beyond stroke width covered")
	}
	if b := (Segment{From: Pt(0, 0), To: Pt(4, 0), Width: 2, Cap: CapSquare}).Bounds(); !image.Pt(-1, 0).In(b) {
		t.Errorf("square cap bounds %v should extend past the start", b)
	}
}
