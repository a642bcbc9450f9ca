package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Shape is a geometric primitive that can be filled on a surface.
type Shape interface {
	// Bounds returns the integer-covering rectangle of the shape.
	Bounds() image.Rectangle
	cover(c *coverage)
}

// coverage accumulates the anti-aliased area of one or more closed paths
// into an alpha mask. Each fill call is rasterized on
// its own, so overlapping parts of a compound shape union instead of
// cancelling by winding.
type coverage struct {
	z    *vector.Rasterizer
	mask *image.Alpha
}

func newCoverage(r image.Rectangle) *coverage {
	return &coverage{
		z:    vector.NewRasterizer(r.Dx(), r.Dy()),
		mask: image.NewAlpha(r),
	}
}

func (c *coverage) fill(build func(z *vector.Rasterizer, dx, dy float32)) {
	b := c.mask.Bounds()
	if b.Empty() {
		return
	}
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	build(c.z, float32(b.Min.X), float32(b.Min.Y))
	c.z.Draw(c.mask, b, image.Opaque, image.Point{})
}

// Point is a sub-pixel position on a surface.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func coverRect(minX, minY, maxX, maxY float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

// Circle is a filled disc.
type Circle struct {
	Center Point
	Radius float64
}

func (c Circle) Bounds() image.Rectangle {
	return coverRect(c.Center.X-c.Radius, c.Center.Y-c.Radius, c.Center.X+c.Radius, c.Center.Y+c.Radius)
}

func (c Circle) cover(cv *coverage) {
	if c.Radius <= 0 {
		return
	}
	cv.fill(func(z *vector.Rasterizer, dx, dy float32) {
		x := float32(c.Center.X) - dx
		y := float32(c.Center.Y) - dy
		r := float32(c.Radius)
		k := float32(kappa) * r
		z.MoveTo(x+r, y)
		z.CubeTo(x+r, y+k, x+k, y+r, x, y+r)
		z.CubeTo(x-k, y+r, x-r, y+k, x-r, y)
		z.CubeTo(x-r, y-k, x-k, y-r, x, y-r)
		z.CubeTo(x+k, y-r, x+r, y-k, x+r, y)
		z.ClosePath()
	})
}

// Square is an axis-aligned filled square centred on Center.
type Square struct {
	Center Point
	Side   float64
}

func (s Square) Bounds() image.Rectangle {
	h := s.Side / 2
	return coverRect(s.Center.X-h, s.Center.Y-h, s.Center.X+h, s.Center.Y+h)
}

func (s Square) cover(cv *coverage) {
	if s.Side <= 0 {
		return
	}
	h := s.Side / 2
	Polygon{Vertices: []Point{
		Pt(s.Center.X-h, s.Center.Y-h),
		Pt(s.Center.X+h, s.Center.Y-h),
		Pt(s.Center.X+h, s.Center.Y+h),
		Pt(s.Center.X-h, s.Center.Y+h),
	}}.cover(cv)
}

// Cap selects how the ends of a Segment are drawn.
type Cap int

const (
	CapButt Cap = iota
	CapRound
	CapSquare
)

// Segment is a straight stroke of the given width between two points.
type Segment struct {
	From, To Point
	Width    float64
	Cap      Cap
}

func (s Segment) Bounds() image.Rectangle {
	h := s.Width / 2
	if s.Cap == CapSquare {
		h *= math.Sqrt2
	}
	return coverRect(
		math.Min(s.From.X, s.To.X)-h, math.Min(s.From.Y, s.To.Y)-h,
		math.Max(s.From.X, s.To.X)+h, math.Max(s.From.Y, s.To.Y)+h,
	)
}

func (s Segment) cover(cv *coverage) {
	if s.Width <= 0 {
		return
	}
	h := s.Width / 2
	l := s.From.Dist(s.To)
	if l == 0 {
		switch s.Cap {
		case CapRound:
			Circle{Center: s.From, Radius: h}.cover(cv)
		case CapSquare:
			Square{Center: s.From, Side: s.Width}.cover(cv)
		}
		return
	}
	ux, uy := (s.To.X-s.From.X)/l, (s.To.Y-s.From.Y)/l
	nx, ny := -uy*h, ux*h
	a, b := s.From, s.To
	if s.Cap == CapSquare {
		a = Pt(a.X-ux*h, a.Y-uy*h)
		b = Pt(b.X+ux*h, b.Y+uy*h)
	}
	Polygon{Vertices: []Point{
		Pt(a.X+nx, a.Y+ny),
		Pt(b.X+nx, b.Y+ny),
		Pt(b.X-nx, b.Y-ny),
		Pt(a.X-nx, a.Y-ny),
	}}.cover(cv)
	if s.Cap == CapRound {
		Circle{Center: s.From, Radius: h}.cover(cv)
		Circle{Center: s.To, Radius: h}.cover(cv)
	}
}

// Polygon is a closed filled polygon. Fewer than three vertices cover no
// area.
type Polygon struct {
	Vertices []Point
}

func (p Polygon) Bounds() image.Rectangle {
	if len(p.Vertices) == 0 {
		return image.Rectangle{}
	}
	minX, minY := p.Vertices[0].X, p.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range p.Vertices[1:] {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
	}
	return coverRect(minX, minY, maxX, maxY)
}

func (p Polygon) cover(cv *coverage) {
	if len(p.Vertices) < 3 {
		return
	}
	cv.fill(func(z *vector.Rasterizer, dx, dy float32) {
		z.MoveTo(float32(p.Vertices[0].X)-dx, float32(p.Vertices[0].Y)-dy)
		for _, v := range p.Vertices[1:] {
			z.LineTo(float32(v.X)-dx, float32(v.Y)-dy)
		}
		z.ClosePath()
	})
}

// Outline is an open or closed polyline stroked with Width.
type Outline struct {
	Vertices []Point
	Width    float64
	Closed   bool
}

func (o Outline) segments() []Segment {
	var out []Segment
	n := len(o.Vertices)
	for i := 0; i+1 < n; i++ {
		out = append(out, Segment{From: o.Vertices[i], To: o.Vertices[i+1], Width: o.Width, Cap: CapRound})
	}
	if o.Closed && n > 2 {
		out = append(out, Segment{From: o.Vertices[n-1], To: o.Vertices[0], Width: o.Width, Cap: CapRound})
	}
	return out
}

func (o Outline) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, s := range o.segments() {
		r = r.Union(s.Bounds())
	}
	return r
}

func (o Outline) cover(cv *coverage) {
	for _, s := range o.segments() {
		s.cover(cv)
	}
}

// Bitmap places a raster layer on the surface. Its own colours are used
// instead of the primitive fill, and its bounds position it.
type Bitmap struct {
	Image image.Image
}

func (b Bitmap) Bounds() image.Rectangle { return b.Image.Bounds() }

func (b Bitmap) cover(*coverage) {}

// WithAlpha returns c with its alpha replaced by a in [0,1].
func WithAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
	return n
}
