// Package mask converts binary pixel masks to and from the run-length
// encoding used to persist them.
//
// The wire form of a mask is a flat integer slice:
//
//	[run0, run1, ..., runN, left, top, right, bottom]
//
// Runs alternate between unset and set pixels in row-major order over the
// inclusive box, always starting with an unset run that may be empty.
package mask

import (
	"fmt"
	"image"
	"image/color"
)

// MalformedEncodingError reports a mask encoding, or encoder input, that
// violates the codec's invariants.
type MalformedEncodingError struct {
	Reason string
}

func (e *MalformedEncodingError) Error() string {
	return "malformed mask encoding: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedEncodingError{Reason: fmt.Sprintf(format, args...)}
}

// Encoding is a run-length encoded mask anchored to a bounding box.
type Encoding struct {
	Runs []int
	Box  Box
}

// Points returns the flat wire form of the encoding.
func (e Encoding) Points() []int {
	out := make([]int, 0, len(e.Runs)+4)
	out = append(out, e.Runs...)
	return append(out, e.Box.Left, e.Box.Top, e.Box.Right, e.Box.Bottom)
}

// Sum returns the total number of pixels described by the runs. It is only
// meaningful for an encoding that passed Validate.
func (e Encoding) Sum() int {
	total := 0
	for _, r := range e.Runs {
		total += r
	}
	return total
}

// Set returns the number of set pixels.
func (e Encoding) Set() int {
	n := 0
	for i := 1; i < len(e.Runs); i += 2 {
		n += e.Runs[i]
	}
	return n
}

// Validate checks the encoding against its box.
func (e Encoding) Validate() error {
	if !e.Box.Valid() {
		return malformed("invalid bounding box %v", e.Box)
	}
	area := e.Box.Area()
	total := 0
	for i, r := range e.Runs {
		if r < 0 {
			return malformed("negative run %d at index %d", r, i)
		}
		if r > area-total {
			return malformed("run lengths exceed the %d pixels of box %v at index %d", area, e.Box, i)
		}
		total += r
	}
	if total != area {
		return malformed("run lengths sum to %d, box %v holds %d pixels", total, e.Box, area)
	}
	return nil
}

// Parse converts the flat wire form into an Encoding and validates it.
func Parse(points []int) (Encoding, error) {
	if len(points) < 4 {
		return Encoding{}, malformed("need 4 trailing box coordinates, got %d values", len(points))
	}
	n := len(points) - 4
	enc := Encoding{
		Runs: append([]int(nil), points[:n]...),
		Box:  Box{Left: points[n], Top: points[n+1], Right: points[n+2], Bottom: points[n+3]},
	}
	if err := enc.Validate(); err != nil {
		return Encoding{}, err
	}
	return enc, nil
}

// Encode run-length encodes samples, one per pixel of box in row-major
// order. The first run always counts unset pixels, so a leading set pixel
// produces an explicit zero-length run.
func Encode(samples []bool, box Box) (Encoding, error) {
	if !box.Valid() {
		return Encoding{}, malformed("invalid bounding box %v", box)
	}
	if len(samples) != box.Area() {
		return Encoding{}, malformed("%d samples for box %v of %d pixels", len(samples), box, box.Area())
	}
	runs := make([]int, 0, 8)
	current := false
	length := 0
	for _, s := range samples {
		if s != current {
			runs = append(runs, length)
			current = s
			length = 0
		}
		length++
	}
	runs = append(runs, length)
	return Encoding{Runs: runs, Box: box}, nil
}

// EncodeImage encodes the pixels of img inside box, treating any non-zero
// alpha as set. Pixels of the box outside img count as unset.
func EncodeImage(img image.Image, box Box) (Encoding, error) {
	if !box.Valid() {
		return Encoding{}, malformed("invalid bounding box %v", box)
	}
	samples := make([]bool, 0, box.Area())
	b := img.Bounds()
	switch src := img.(type) {
	case *image.RGBA:
		for y := box.Top; y <= box.Bottom; y++ {
			for x := box.Left; x <= box.Right; x++ {
				set := false
				if image.Pt(x, y).In(b) {
					set = src.Pix[src.PixOffset(x, y)+3] > 0
				}
				samples = append(samples, set)
			}
		}
	case *image.Alpha:
		for y := box.Top; y <= box.Bottom; y++ {
			for x := box.Left; x <= box.Right; x++ {
				set := false
				if image.Pt(x, y).In(b) {
					set = src.Pix[src.PixOffset(x, y)] > 0
				}
				samples = append(samples, set)
			}
		}
	default:
		for y := box.Top; y <= box.Bottom; y++ {
			for x := box.Left; x <= box.Right; x++ {
				set := false
				if image.Pt(x, y).In(b) {
					_, _, _, a := img.At(x, y).RGBA()
					set = a > 0
				}
				samples = append(samples, set)
			}
		}
	}
	return Encode(samples, box)
}

// Bits expands the encoding into one flag per pixel of its box.
func Bits(enc Encoding) ([]bool, error) {
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	out := make([]bool, 0, enc.Box.Area())
	set := false
	for _, r := range enc.Runs {
		for i := 0; i < r; i++ {
			out = append(out, set)
		}
		set = !set
	}
	return out, nil
}

// Decode reconstructs an RGBA raster from enc. The returned image's bounds
// equal the box rectangle so it can be drawn at (Left, Top) directly. Set
// pixels take col; a fully transparent col is treated as opaque and a nil
// col as white.
func Decode(enc Encoding, col color.Color) (*image.RGBA, error) {
	bits, err := Bits(enc)
	if err != nil {
		return nil, err
	}
	if col == nil {
		col = color.White
	}
	c := color.NRGBAModel.Convert(col).(color.NRGBA)
	if c.A == 0 {
		c.A = 255
	}
	fill := color.RGBAModel.Convert(c).(color.RGBA)
	img := image.NewRGBA(enc.Box.Rect())
	w := enc.Box.Width()
	for i, set := range bits {
		if !set {
			continue
		}
		x := enc.Box.Left + i%w
		y := enc.Box.Top + i/w
		off := img.PixOffset(x, y)
		img.Pix[off+0] = fill.R
		img.Pix[off+1] = fill.G
		img.Pix[off+2] = fill.B
		img.Pix[off+3] = fill.A
	}
	return img, nil
}
