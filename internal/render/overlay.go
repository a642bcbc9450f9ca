// Package render composites decoded masks over a source image for previews.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/example/maskpaint/internal/mask"
)

// Layer is one mask drawn in a single colour.
type Layer struct {
	Encoding mask.Encoding
	Color    color.Color
}

// OverlayOptions configures how mask layers are drawn.
type OverlayOptions struct {
	// Opacity of the mask fill, clamped to [0,1].
	Opacity float64
	// Feather softens the fill edge with a box blur of this radius.
	Feather int
	// Outline draws the mask border opaque in the layer colour.
	Outline bool
}

// DefaultOverlayOptions returns the settings used by the UI and the CLI.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{Opacity: 0.5, Outline: true}
}

// Composite copies base and draws every layer over it. The result has the
// bounds of base rebased to the origin.
func Composite(base image.Image, layers []Layer, opts OverlayOptions) (*image.RGBA, error) {
	b := base.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)
	for _, l := range layers {
		if err := Overlay(dst, l, opts); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Overlay draws one layer onto dst in place. Parts of the mask box outside
// dst are skipped.
func Overlay(dst draw.Image, l Layer, opts OverlayOptions) error {
	bits, err := mask.Bits(l.Encoding)
	if err != nil {
		return err
	}
	r := l.Encoding.Box.Rect()
	opacity := opts.Opacity
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	col := l.Color
	if col == nil {
		col = color.White
	}
	alpha := coverage(bits, r, opts.Feather)
	if a := uint8(opacity*255 + 0.5); a > 0 {
		scaleAlpha(alpha, a)
		draw.DrawMask(dst, alpha.Bounds(), image.NewUniform(col), image.Point{}, alpha, alpha.Bounds().Min, draw.Over)
	}
	if opts.Outline {
		edge := border(bits, r)
		draw.DrawMask(dst, edge.Bounds(), image.NewUniform(opaque(col)), image.Point{}, edge, edge.Bounds().Min, draw.Over)
	}
	return nil
}

// coverage returns the mask as an alpha image positioned at the box,
// padded by the feather radius.
func coverage(bits []bool, r image.Rectangle, feather int) *image.Alpha {
	if feather < 0 {
		feather = 0
	}
	out := image.NewAlpha(r.Inset(-feather))
	w := r.Dx()
	for i, set := range bits {
		if set {
			out.SetAlpha(r.Min.X+i%w, r.Min.Y+i/w, color.Alpha{A: 0xff})
		}
	}
	if feather > 0 {
		blurAlpha(out, feather)
	}
	return out
}

// border marks set pixels with at least one unset 4-neighbour.
func border(bits []bool, r image.Rectangle) *image.Alpha {
	w, h := r.Dx(), r.Dy()
	at := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return bits[y*w+x]
	}
	out := image.NewAlpha(r)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !at(x, y) {
				continue
			}
			if !at(x-1, y) || !at(x+1, y) || !at(x, y-1) || !at(x, y+1) {
				out.SetAlpha(r.Min.X+x, r.Min.Y+y, color.Alpha{A: 0xff})
			}
		}
	}
	return out
}

func scaleAlpha(a *image.Alpha, by uint8) {
	for i, v := range a.Pix {
		a.Pix[i] = uint8((uint32(v)*uint32(by) + 127) / 255)
	}
}

func opaque(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}

// blurAlpha applies a separable box blur of the given radius in place.
func blurAlpha(img *image.Alpha, radius int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	tmp := make([]uint8, len(img.Pix))

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(row[x])
		}
		for x := 0; x < w; x++ {
			x0, x1 := max(x-radius, 0), min(x+radius, w-1)
			tmp[y*img.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp[y*img.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0, y1 := max(y-radius, 0), min(y+radius, h-1)
			img.Pix[y*img.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
}
