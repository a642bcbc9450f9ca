package appstate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/maskpaint/internal/theme"
)

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

// LabelButton is a toolbar or shortcut entry with a text label.
type LabelButton struct {
	label    string
	rect     image.Rectangle
	theme    *theme.Theme
	onSelect func()
}

func (lb *LabelButton) Draw(dst *image.RGBA, state ButtonState) {
	t := lb.theme
	if t == nil {
		t = theme.Default()
	}
	c := t.ButtonBackground
	switch state {
	case StateHover:
		c = blend(t.ButtonBackground, t.ButtonActive)
	case StatePressed:
		c = t.ButtonActive
	}
	draw.Draw(dst, lb.rect, &image.Uniform{c}, image.Point{}, draw.Src)
	drawRect(dst, lb.rect, t.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(lb.rect.Min.X+4, lb.rect.Min.Y+16)}
	d.DrawString(lb.label)
}

func (lb *LabelButton) Rect() image.Rectangle { return lb.rect }

func (lb *LabelButton) SetRect(r image.Rectangle) { lb.rect = r }

func (lb *LabelButton) Activate() {
	if lb.onSelect != nil {
		lb.onSelect()
	}
}

// SwatchButton selects a brush colour.
type SwatchButton struct {
	name     string
	col      color.RGBA
	rect     image.Rectangle
	onSelect func(name string)
}

func (sb *SwatchButton) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, sb.rect, &image.Uniform{sb.col}, image.Point{}, draw.Src)
	switch state {
	case StateHover:
		draw.Draw(dst, sb.rect, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
	case StatePressed:
		drawRect(dst, sb.rect, color.Black, 2)
	}
}

func (sb *SwatchButton) Rect() image.Rectangle { return sb.rect }

func (sb *SwatchButton) SetRect(r image.Rectangle) { sb.rect = r }

func (sb *SwatchButton) Activate() {
	if sb.onSelect != nil {
		sb.onSelect(sb.name)
	}
}

// hitTest returns the index of the button containing p, or -1.
func hitTest(buttons []Button, p image.Point) int {
	for i, b := range buttons {
		if p.In(b.Rect()) {
			return i
		}
	}
	return -1
}

func blend(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(a.R) + uint16(b.R)) / 2),
		G: uint8((uint16(a.G) + uint16(b.G)) / 2),
		B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		A: uint8((uint16(a.A) + uint16(b.A)) / 2),
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}
