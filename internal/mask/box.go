package mask

import (
	"fmt"
	"image"
	"math"
)

// MaxCoord is the largest coordinate a box edge may take.
const MaxCoord = math.MaxInt32 - 1

// Box is a bounding box in image pixel coordinates. All four edges are
// inclusive, so a single pixel at (x, y) is Box{x, y, x, y}.
type Box struct {
	Left, Top, Right, Bottom int
}

// BoxFromRect converts a half-open image.Rectangle into an inclusive Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{Left: r.Min.X, Top: r.Min.Y, Right: r.Max.X - 1, Bottom: r.Max.Y - 1}
}

// Rect returns the half-open rectangle covered by the box.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right+1, b.Bottom+1)
}

// Width returns the number of pixel columns in the box.
func (b Box) Width() int { return b.Right - b.Left + 1 }

// Height returns the number of pixel rows in the box.
func (b Box) Height() int { return b.Bottom - b.Top + 1 }

// Area returns the number of pixels covered by the box, or 0 for an
// invalid box.
func (b Box) Area() int {
	if !b.Valid() {
		return 0
	}
	return b.Width() * b.Height()
}

// Valid reports whether the box has coordinates in [0, MaxCoord], is not
// inverted and holds a pixel count that fits in an int.
func (b Box) Valid() bool {
	if b.Left < 0 || b.Top < 0 || b.Right > MaxCoord || b.Bottom > MaxCoord {
		return false
	}
	if b.Right < b.Left || b.Bottom < b.Top {
		return false
	}
	return b.Width() <= math.MaxInt/b.Height()
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d %d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}

// ClipBox clamps b to an image of the given size. The result may be
// invalid when b lies entirely outside the image.
func ClipBox(b Box, width, height int) Box {
	if b.Left < 0 {
		b.Left = 0
	}
	if b.Top < 0 {
		b.Top = 0
	}
	if b.Right > width-1 {
		b.Right = width - 1
	}
	if b.Bottom > height-1 {
		b.Bottom = height - 1
	}
	return b
}

// Union returns the smallest box containing both a and b.
func Union(a, b Box) Box {
	return Box{
		Left:   min(a.Left, b.Left),
		Top:    min(a.Top, b.Top),
		Right:  max(a.Right, b.Right),
		Bottom: max(a.Bottom, b.Bottom),
	}
}

// TightBox returns the smallest box holding every pixel of img with
// non-zero alpha. ok is false when no pixel is set.
func TightBox(img image.Image) (b Box, ok bool) {
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			p := Box{Left: x, Top: y, Right: x, Bottom: y}
			if !ok {
				b, ok = p, true
				continue
			}
			b = Union(b, p)
		}
	}
	return b, ok
}
