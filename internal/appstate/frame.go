package appstate

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/maskpaint/internal/theme"
)

const (
	headerHeight = 24
	bottomHeight = 24
	buttonHeight = 24
	swatchSize   = 16
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var toolbarWidth = 64

// layout splits the window into header, toolbar, canvas and bottom bar.
type layout struct {
	width, height int
}

func (l layout) canvas() image.Rectangle {
	return image.Rect(toolbarWidth, headerHeight, l.width, l.height-bottomHeight)
}

func fitZoom(img image.Rectangle, canvas image.Rectangle) float64 {
	if img.Dx() == 0 || img.Dy() == 0 || canvas.Empty() {
		return 1
	}
	zx := float64(canvas.Dx()) / float64(img.Dx())
	zy := float64(canvas.Dy()) / float64(img.Dy())
	return min(zx, zy, 1)
}

// imageRect is where an image of the given size is drawn, centred in the
// canvas.
func imageRect(img image.Rectangle, canvas image.Rectangle, zoom float64) image.Rectangle {
	w := int(float64(img.Dx()) * zoom)
	h := int(float64(img.Dy()) * zoom)
	x := canvas.Min.X + (canvas.Dx()-w)/2
	y := canvas.Min.Y + (canvas.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			c := light
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 == 1 {
				c = dark
			}
			r := image.Rect(x, y, x+size, y+size).Intersect(rect)
			draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
		}
	}
}

type paintState struct {
	layout
	theme        *theme.Theme
	backdrop     *image.RGBA
	overlay      *image.RGBA
	zoom         float64
	toolButtons  []Button
	activeTool   int
	swatches     []Button
	activeSwatch int
	shortcuts    []Button
	hover        hoverState
	status       string
	message      string
	messageUntil time.Time
}

type hoverState struct {
	tool, swatch, shortcut int
}

func noHover() hoverState { return hoverState{-1, -1, -1} }

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()
	t := st.theme

	draw.Draw(dst, dst.Bounds(), &image.Uniform{t.Background}, image.Point{}, draw.Src)
	canvas := st.canvas()
	r := imageRect(st.backdrop.Bounds(), canvas, st.zoom)
	drawCheckerboard(dst, r.Intersect(canvas), 8, t.CheckerLight, t.CheckerDark)
	if ctx.Err() != nil {
		return
	}
	xdraw.NearestNeighbor.Scale(dst, r, st.backdrop, st.backdrop.Bounds(), draw.Over, nil)
	if st.overlay != nil {
		xdraw.NearestNeighbor.Scale(dst, r, st.overlay, st.overlay.Bounds(), draw.Over, nil)
	}
	if ctx.Err() != nil {
		return
	}

	drawHeader(dst, st)
	drawToolbar(dst, st)
	drawBottom(dst, st)
	if ctx.Err() != nil {
		return
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.message, t)
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawHeader(dst *image.RGBA, st paintState) {
	t := st.theme
	draw.Draw(dst, image.Rect(0, 0, st.width, headerHeight), &image.Uniform{t.ToolbarBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.Foreground), Face: basicfont.Face7x13, Dot: fixed.P(4, 16)}
	d.DrawString("maskpaint")
	d.Dot = fixed.P(toolbarWidth+4, 16)
	d.DrawString(st.status)
}

func drawToolbar(dst *image.RGBA, st paintState) {
	t := st.theme
	draw.Draw(dst, image.Rect(0, headerHeight, toolbarWidth, st.height-bottomHeight), &image.Uniform{t.ToolbarBackground}, image.Point{}, draw.Src)
	for i, b := range st.toolButtons {
		state := StateDefault
		if i == st.activeTool {
			state = StatePressed
		} else if i == st.hover.tool {
			state = StateHover
		}
		b.Draw(dst, state)
	}
	for i, b := range st.swatches {
		state := StateDefault
		if i == st.activeSwatch {
			state = StatePressed
		} else if i == st.hover.swatch {
			state = StateHover
		}
		b.Draw(dst, state)
	}
}

func drawBottom(dst *image.RGBA, st paintState) {
	draw.Draw(dst, image.Rect(0, st.height-bottomHeight, st.width, st.height), &image.Uniform{st.theme.ToolbarBackground}, image.Point{}, draw.Src)
	for i, b := range st.shortcuts {
		state := StateDefault
		if i == st.hover.shortcut {
			state = StateHover
		}
		b.Draw(dst, state)
	}
}

func drawMessage(dst *image.RGBA, msg string, t *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.Foreground), Face: basicfont.Face7x13}
	wmsg := d.MeasureString(msg).Ceil()
	b := dst.Bounds()
	px := (b.Dx() - wmsg) / 2
	py := b.Dy() / 2
	rect := image.Rect(px-8, py-20, px+wmsg+8, py+10)
	draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
	drawRect(dst, rect, t.ButtonBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// placeButtons stacks tool buttons and swatches down the toolbar and lays
// shortcuts along the bottom bar.
func placeButtons(l layout, tools, swatches, shortcuts []Button) {
	y := headerHeight
	for _, b := range tools {
		b.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
		y += buttonHeight
	}
	y += 4
	perRow := max(1, (toolbarWidth-4)/(swatchSize+2))
	for i, b := range swatches {
		x := 4 + (i%perRow)*(swatchSize+2)
		sy := y + (i/perRow)*(swatchSize+2)
		b.SetRect(image.Rect(x, sy, x+swatchSize, sy+swatchSize))
	}
	meas := &font.Drawer{Face: basicfont.Face7x13}
	x := 4
	for _, b := range shortcuts {
		lbl := ""
		if lb, ok := unwrap(b).(*LabelButton); ok {
			lbl = lb.label
		}
		w := meas.MeasureString(lbl).Ceil() + 8
		b.SetRect(image.Rect(x, l.height-bottomHeight+2, x+w, l.height-2))
		x += w + 4
	}
}

func unwrap(b Button) Button {
	if cb, ok := b.(*CacheButton); ok {
		return cb.Button
	}
	return b
}
