// Package appstate is the annotate window: a shiny UI that feeds mouse and
// keyboard input into a mask session.
package appstate

import (
	"context"
	"image"
	"image/color"
	"log"
	"sync"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/notify"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/surface"
	"github.com/example/maskpaint/internal/theme"
)

// swatchNames are the brush colours offered in the toolbar.
var swatchNames = []string{"red", "lime", "blue", "yellow", "cyan", "magenta", "orange", "white"}

// AppState holds application configuration for the UI.
type AppState struct {
	Image    *image.RGBA
	Output   string
	Brush    session.BrushTool
	Theme    *theme.Theme
	Edit     *session.ObjectState
	States   []*session.ObjectState
	Opacity  float64
	Continue bool

	notifier *notify.Notifier
	onResult func(Result)
	onClose  func()

	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithImage sets the image the mask is drawn over.
func WithImage(img *image.RGBA) Option { return func(a *AppState) { a.Image = img } }

// WithOutput sets the file the finished masks are saved to.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithBrush sets the tool selected when the window opens.
func WithBrush(b session.BrushTool) Option { return func(a *AppState) { a.Brush = b } }

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithEdit opens the window editing an existing mask.
func WithEdit(state *session.ObjectState) Option { return func(a *AppState) { a.Edit = state } }

// WithStates shows other masks faintly behind the session.
func WithStates(states []*session.ObjectState) Option {
	return func(a *AppState) { a.States = states }
}

// WithOpacity sets the polygon preview opacity.
func WithOpacity(op float64) Option { return func(a *AppState) { a.Opacity = op } }

// WithContinue restarts a draw session after each finished mask.
func WithContinue(cont bool) Option { return func(a *AppState) { a.Continue = cont } }

// WithNotifier sends desktop notifications for finished masks.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithOnResult registers a callback for every finished mask.
func WithOnResult(fn func(Result)) Option { return func(a *AppState) { a.onResult = fn } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		Brush:   session.BrushTool{Type: string(session.ToolBrush), Form: string(session.FormCircle), Size: 10, Color: "red"},
		Opacity: session.DefaultCreationOpacity,
	}
	for _, o := range opts {
		o(a)
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// KeyShortcut is a key binding. Rune bindings match case-insensitively.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

func shortcutFor(e key.Event) []KeyShortcut {
	mods := e.Modifiers & (key.ModControl | key.ModAlt | key.ModMeta)
	out := []KeyShortcut{{Code: e.Code, Modifiers: mods}}
	if e.Rune > 0 {
		out = append([]KeyShortcut{{Rune: unicode.ToLower(e.Rune), Modifiers: mods}}, out...)
	}
	return out
}

// toImage maps a window position into image coordinates.
func toImage(x, y float32, r image.Rectangle, zoom float64) surface.Point {
	return surface.Point{
		X: (float64(x) - float64(r.Min.X)) / zoom,
		Y: (float64(y) - float64(r.Min.Y)) / zoom,
	}
}

// backdrop composites the other states, and the masks finished in this
// window, over the image.
func (a *AppState) backdrop(results []Result) *image.RGBA {
	layers := make([]render.Layer, 0, len(a.States)+len(results))
	overlay := a.Theme.StateOverlay
	for _, st := range a.States {
		if st == nil || (a.Edit != nil && st.ID == a.Edit.ID) {
			continue
		}
		p, err := stateLayer(st, overlay)
		if err != nil {
			log.Printf("state %s: %v", st.ID, err)
			continue
		}
		layers = append(layers, p)
	}
	for _, r := range results {
		enc, err := r.Encoding()
		if err != nil {
			continue
		}
		layers = append(layers, render.Layer{Encoding: enc, Color: overlay})
	}
	opts := render.DefaultOverlayOptions()
	opts.Opacity = float64(overlay.A) / 255
	img, err := render.Composite(a.Image, layers, opts)
	if err != nil {
		log.Printf("backdrop: %v", err)
		return a.Image
	}
	return img
}

func stateLayer(st *session.ObjectState, fallback color.RGBA) (render.Layer, error) {
	enc, err := mask.Parse(st.Points)
	if err != nil {
		return render.Layer{}, err
	}
	var col color.Color = fallback
	if c, err := session.ParseColor(st.Color); err == nil {
		col = c
	}
	return render.Layer{Encoding: enc, Color: col}, nil
}

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	rgba := a.Image
	t := a.Theme

	d := &font.Drawer{Face: basicfont.Face7x13}
	labels := []string{"maskpaint", "B:Brush", "E:Eraser", "P:Poly+", "N:Poly-", "F:Form", "]:Size+", "[:Size-"}
	for _, lbl := range labels {
		if w := d.MeasureString(lbl).Ceil() + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}

	l := layout{width: rgba.Bounds().Dx() + toolbarWidth, height: rgba.Bounds().Dy() + headerHeight + bottomHeight}
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: l.width, Height: l.height, Title: "maskpaint"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer a.notifyClose()

	ctrl := newController(rgba.Bounds(), a.Brush)
	ctrl.output = a.Output
	ctrl.cont = a.Continue
	ctrl.target = a.Edit
	ctrl.notifier = a.notifier
	backdrop := a.backdrop(nil)
	ctrl.onResult = func(r Result) {
		backdrop = a.backdrop(ctrl.results)
		if a.onResult != nil {
			a.onResult(r)
		}
	}
	opacity := a.Opacity
	ctrl.h.Configure(session.Configuration{CreationOpacity: &opacity})
	ctrl.h.SetupStates(a.States)

	zoom := fitZoom(rgba.Bounds(), l.canvas())
	transform := func() {
		ctrl.h.Transform(session.Geometry{
			Image: session.ImageSize{Width: rgba.Bounds().Dx(), Height: rgba.Bounds().Dy()},
			Scale: zoom,
		})
	}
	transform()
	if err := ctrl.start(); err != nil {
		log.Printf("start session: %v", err)
	}

	actions := map[string]func(){}
	keys := map[KeyShortcut]string{}
	register := func(name string, fn func(), bindings ...KeyShortcut) {
		actions[name] = fn
		for _, b := range bindings {
			keys[b] = name
		}
	}
	logErr := func(what string, err error) {
		if err != nil {
			log.Printf("%s: %v", what, err)
		}
	}
	tools := []struct {
		label string
		tool  session.ToolType
		key   rune
	}{
		{"B:Brush", session.ToolBrush, 'b'},
		{"E:Eraser", session.ToolEraser, 'e'},
		{"P:Poly+", session.ToolPolygonPlus, 'p'},
		{"N:Poly-", session.ToolPolygonMinus, 'n'},
	}
	var toolButtons []Button
	for _, tl := range tools {
		tl := tl
		fn := func() { logErr("select tool", ctrl.selectTool(tl.tool)) }
		register(string(tl.tool), fn, KeyShortcut{Rune: tl.key})
		toolButtons = append(toolButtons, &CacheButton{Button: &LabelButton{label: tl.label, theme: t, onSelect: fn}})
	}
	register("form", func() { logErr("form", ctrl.toggleForm()) }, KeyShortcut{Rune: 'f'})
	register("grow", func() { logErr("size", ctrl.resize(2)) }, KeyShortcut{Rune: ']'})
	register("shrink", func() { logErr("size", ctrl.resize(-2)) }, KeyShortcut{Rune: '['})
	for _, extra := range []struct{ label, action string }{{"F:Form", "form"}, {"]:Size+", "grow"}, {"[:Size-", "shrink"}} {
		fn := actions[extra.action]
		toolButtons = append(toolButtons, &CacheButton{Button: &LabelButton{label: extra.label, theme: t, onSelect: fn}})
	}

	var swatches []Button
	for _, name := range swatchNames {
		c := colornames.Map[name]
		swatches = append(swatches, &SwatchButton{name: name, col: c, onSelect: func(n string) {
			logErr("color", ctrl.setColor(n))
		}})
	}

	quit := false
	register("done", func() { ctrl.finish() }, KeyShortcut{Code: key.CodeReturnEnter})
	register("cancel", func() { ctrl.cancel() }, KeyShortcut{Code: key.CodeEscape})
	register("continue", func() {
		ctrl.cont = !ctrl.cont
		logErr("continue", ctrl.reselect())
	}, KeyShortcut{Rune: 'c'})
	register("new", func() { logErr("start", ctrl.start()) }, KeyShortcut{Rune: 'd'})
	register("copy", func() { logErr("copy", ctrl.copyLast()) }, KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	register("save", func() { logErr("save", ctrl.saveResults()) }, KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	register("quit", func() { quit = true }, KeyShortcut{Rune: 'q'})
	var shortcuts []Button
	for _, sc := range []struct{ label, action string }{
		{"Enter:done", "done"}, {"Esc:cancel", "cancel"}, {"D:draw", "new"}, {"C:continue", "continue"},
		{"^C:copy", "copy"}, {"^S:save", "save"}, {"Q:quit", "quit"},
	} {
		shortcuts = append(shortcuts, &LabelButton{label: sc.label, theme: t, onSelect: actions[sc.action]})
	}
	placeButtons(l, toolButtons, swatches, shortcuts)

	activeTool := func() int {
		tl, ok := ctrl.h.Tool()
		if !ok {
			return -1
		}
		for i, x := range tools {
			if x.tool == tl.Type {
				return i
			}
		}
		return -1
	}
	activeSwatch := func() int {
		for i, n := range swatchNames {
			if n == ctrl.brush.Color {
				return i
			}
		}
		return -1
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	hover := noHover()
	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			l = layout{width: e.WidthPx, height: e.HeightPx}
			zoom = fitZoom(rgba.Bounds(), l.canvas())
			transform()
			placeButtons(l, toolButtons, swatches, shortcuts)
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{
				layout:       l,
				theme:        t,
				backdrop:     backdrop,
				overlay:      ctrl.h.Surface().Image(),
				zoom:         zoom,
				toolButtons:  toolButtons,
				activeTool:   activeTool(),
				swatches:     swatches,
				activeSwatch: activeSwatch(),
				shortcuts:    shortcuts,
				hover:        hover,
				status:       ctrl.status(),
				message:      ctrl.message,
				messageUntil: ctrl.messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			for _, sc := range shortcutFor(e) {
				if name, ok := keys[sc]; ok {
					actions[name]()
					break
				}
			}
			if quit {
				return
			}
			w.Send(paint.Event{})
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			hover = hoverState{tool: hitTest(toolButtons, p), swatch: hitTest(swatches, p), shortcut: hitTest(shortcuts, p)}
			if !p.In(l.canvas()) {
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					for _, group := range [][]Button{toolButtons, swatches, shortcuts} {
						if i := hitTest(group, p); i >= 0 {
							group[i].Activate()
						}
					}
					if quit {
						return
					}
				}
				w.Send(paint.Event{})
				continue
			}
			ip := toImage(e.X, e.Y, imageRect(rgba.Bounds(), l.canvas(), zoom), zoom)
			switch e.Direction {
			case mouse.DirPress:
				switch e.Button {
				case mouse.ButtonLeft:
					ctrl.press(ip, session.ButtonPrimary)
				case mouse.ButtonRight:
					ctrl.press(ip, session.ButtonSecondary)
				}
			case mouse.DirRelease:
				ctrl.release()
			case mouse.DirNone:
				ctrl.move(ip)
			}
			w.Send(paint.Event{})
		}
	}
}
