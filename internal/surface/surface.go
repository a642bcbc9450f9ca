// Package surface holds the drawing canvas a mask session paints on.
//
// A surface is an ordered stack of primitives. Each primitive is a shape
// filled with a colour and composited onto everything below it with one of
// a few Porter-Duff operators. Rasterizing a rectangle of the surface
// replays the stack into a premultiplied RGBA buffer.
package surface

import (
	"image"
	"image/color"
	"image/draw"
)

// Op is the compositing operator used to place a primitive.
type Op int

const (
	// OpOver is source-over.
	OpOver Op = iota
	// OpXor keeps source where the destination is empty and destination
	// where the source is empty.
	OpXor
	// OpDestinationOut removes destination coverage under the source.
	OpDestinationOut
)

func (o Op) String() string {
	switch o {
	case OpOver:
		return "source-over"
	case OpXor:
		return "xor"
	case OpDestinationOut:
		return "destination-out"
	}
	return "unknown"
}

// Primitive is one shape on the surface.
type Primitive struct {
	Shape Shape
	Fill  color.Color
	Op    Op
}

// Bounds returns the integer-covering bounds of the primitive.
func (p Primitive) Bounds() image.Rectangle { return p.Shape.Bounds() }

// Handle identifies a primitive added to a surface. The zero Handle never
// refers to a primitive.
type Handle int

// Surface is the drawing capability a session needs.
type Surface interface {
	Add(p Primitive) Handle
	Remove(h Handle) bool
	Clear()
	Resize(width, height int)
	Bounds() image.Rectangle
	// Rasterize composites every primitive inside r and returns a buffer
	// whose bounds equal r.
	Rasterize(r image.Rectangle) *image.RGBA
	// Image rasterizes the whole surface.
	Image() *image.RGBA
}

type entry struct {
	h Handle
	p Primitive
}

// Software is a CPU surface built on golang.org/x/image/vector.
type Software struct {
	width, height int
	entries       []entry
	next          Handle
}

var _ Surface = (*Software)(nil)

// NewSoftware returns an empty surface of the given size.
func NewSoftware(width, height int) *Software {
	return &Software{width: width, height: height}
}

func (s *Software) Add(p Primitive) Handle {
	s.next++
	s.entries = append(s.entries, entry{h: s.next, p: p})
	return s.next
}

func (s *Software) Remove(h Handle) bool {
	for i, e := range s.entries {
		if e.h == h {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Software) Clear() { s.entries = nil }

func (s *Software) Resize(width, height int) {
	s.width, s.height = width, height
}

func (s *Software) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// Len reports how many primitives are on the surface.
func (s *Software) Len() int { return len(s.entries) }

// Primitives returns a copy of the primitive stack, bottom first.
func (s *Software) Primitives() []Primitive {
	out := make([]Primitive, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.p
	}
	return out
}

func (s *Software) Image() *image.RGBA {
	return s.Rasterize(s.Bounds())
}

func (s *Software) Rasterize(r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(r)
	if r.Empty() {
		return dst
	}
	for _, e := range s.entries {
		area := e.p.Bounds().Intersect(r)
		if area.Empty() {
			continue
		}
		layer := s.layer(e.p, area)
		composite(dst, layer, area, e.p.Op)
	}
	return dst
}

// layer renders p alone into a premultiplied buffer covering area.
func (s *Software) layer(p Primitive, area image.Rectangle) *image.RGBA {
	out := image.NewRGBA(area)
	if bm, ok := p.Shape.(Bitmap); ok {
		draw.Draw(out, area, bm.Image, area.Min, draw.Src)
		return out
	}
	cv := newCoverage(area)
	p.Shape.cover(cv)
	fill := p.Fill
	if fill == nil {
		fill = color.Black
	}
	draw.DrawMask(out, area, image.NewUniform(fill), image.Point{}, cv.mask, area.Min, draw.Src)
	return out
}

// composite blends src onto dst inside area. Both buffers hold
// premultiplied colour.
func composite(dst, src *image.RGBA, area image.Rectangle, op Op) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			so := src.PixOffset(x, y)
			do := dst.PixOffset(x, y)
			sp := src.Pix[so : so+4 : so+4]
			dp := dst.Pix[do : do+4 : do+4]
			sa, da := uint32(sp[3]), uint32(dp[3])
			if sa == 0 {
				continue
			}
			for i := 0; i < 4; i++ {
				sc, dc := uint32(sp[i]), uint32(dp[i])
				var v uint32
				switch op {
				case OpOver:
					v = sc + mul(dc, 255-sa)
				case OpXor:
					v = mul(sc, 255-da) + mul(dc, 255-sa)
				case OpDestinationOut:
					v = mul(dc, 255-sa)
				}
				if v > 255 {
					v = 255
				}
				dp[i] = uint8(v)
			}
		}
	}
}

// mul returns a*b/255 rounded.
func mul(a, b uint32) uint32 {
	t := a*b + 128
	return (t + t>>8) >> 8
}

// Covered reports which pixels of img have non-zero alpha, in row-major
// order over its bounds.
func Covered(img *image.RGBA) []bool {
	b := img.Bounds()
	out := make([]bool, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			out = append(out, img.Pix[row+4*x+3] > 0)
		}
	}
	return out
}
