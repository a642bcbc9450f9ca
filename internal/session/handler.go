// Package session runs the mask drawing and editing state machine.
//
// A Handler owns one drawing surface. At most one session, draw or edit,
// is open at a time; the open session is a single *active value and nil
// means idle. Pointer input adds primitives to the surface and finishing a
// session rasterizes them into a run-length encoded mask.
//
// A Handler is not safe for concurrent use. It is driven by one event loop.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/surface"
)

const (
	// BaseStrokeWidth is the polygon draft outline width at scale 1.
	BaseStrokeWidth = 1.25
	// DefaultCreationOpacity is the draft preview opacity until configured.
	DefaultCreationOpacity = 0.5
	// paintAlpha is the alpha of every painted primitive. Two overlapping
	// xor stamps at this alpha still leave coverage behind.
	paintAlpha = 0.5
)

type stroke struct {
	handle surface.Handle
	prim   surface.Primitive
	role   Role
}

type polygonDraft struct {
	points []surface.Point
	tool   Tool
	fill   surface.Handle
	line   surface.Handle
}

type active struct {
	kind    Kind
	mode    Mode
	started time.Time

	// request snapshots, replaced whole on every reselect
	draw DrawSpec
	edit EditSpec

	tool    *Tool
	toolErr error

	strokes []stroke
	draft   *polygonDraft

	down bool
	prev *surface.Point

	target  *ObjectState
	baseBox mask.Box
}

// Handler is the mask session state machine.
type Handler struct {
	surface surface.Surface
	logger  *slog.Logger
	now     func() time.Time

	onDrawDone     DrawDoneFunc
	onContinueDraw ContinueDrawFunc
	onEditStart    EditStartFunc
	onEditDone     EditDoneFunc
	dispatch       DispatchFunc

	opacity  float64
	geometry Geometry
	states   []*ObjectState

	cur *active
}

// Option configures a Handler.
type Option func(*Handler)

func WithDrawDone(f DrawDoneFunc) Option         { return func(h *Handler) { h.onDrawDone = f } }
func WithContinueDraw(f ContinueDrawFunc) Option { return func(h *Handler) { h.onContinueDraw = f } }
func WithEditStart(f EditStartFunc) Option       { return func(h *Handler) { h.onEditStart = f } }
func WithEditDone(f EditDoneFunc) Option         { return func(h *Handler) { h.onEditDone = f } }
func WithDispatch(f DispatchFunc) Option         { return func(h *Handler) { h.dispatch = f } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock replaces time.Now for elapsed time measurement.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// New returns an idle handler drawing on s. The image size defaults to the
// surface bounds until Transform is called.
func New(s surface.Surface, opts ...Option) *Handler {
	b := s.Bounds()
	h := &Handler{
		surface:  s,
		logger:   slog.Default(),
		now:      time.Now,
		opacity:  DefaultCreationOpacity,
		geometry: Geometry{Image: ImageSize{Width: b.Dx(), Height: b.Dy()}, Scale: 1},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Draw starts, reconfigures or finishes a draw session.
//
// An enabled spec for a mask opens a session when idle, or reselects the
// tool of the open draw session. A disabled spec finishes the open draw
// session and reports its result, restarting with the same spec when
// spec.Continue is set. An invalid brush still opens the session but is
// returned as *InvalidBrushConfigurationError.
func (h *Handler) Draw(spec DrawSpec) error {
	if !spec.Enabled {
		if h.cur != nil && h.cur.kind == KindDraw {
			h.finishDraw(spec.Continue)
		}
		return nil
	}
	if spec.ShapeType != ShapeMask {
		h.logger.Debug("ignoring draw request", "shapeType", spec.ShapeType)
		return nil
	}
	if h.cur != nil && h.cur.kind != KindDraw {
		return ErrSessionBusy
	}
	if h.cur == nil {
		h.begin(KindDraw)
		h.emit(Event{Name: EventDrawStart, Kind: KindDraw})
	}
	h.cur.draw = spec.clone()
	return h.selectTool(spec.BrushTool)
}

// Edit starts, reconfigures or finishes an edit session.
//
// Starting decodes the state's points and places them on the surface as the
// base layer; a malformed encoding is returned and no session opens.
// Finishing re-encodes the base together with every edit.
func (h *Handler) Edit(spec EditSpec) error {
	if !spec.Enabled {
		if h.cur != nil && h.cur.kind == KindEdit {
			h.finishEdit()
		}
		return nil
	}
	if h.cur != nil && h.cur.kind != KindEdit {
		return ErrSessionBusy
	}
	if h.cur != nil {
		h.cur.edit.BrushTool = spec.BrushTool
		return h.selectTool(spec.BrushTool)
	}
	if spec.State == nil || spec.State.ShapeType != ShapeMask {
		h.logger.Debug("ignoring edit request without a mask state")
		return nil
	}
	enc, err := mask.Parse(spec.State.Points)
	if err != nil {
		return fmt.Errorf("edit %s: %w", spec.State.ID, err)
	}
	col := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if spec.State.Color != "" {
		if c, err := ParseColor(spec.State.Color); err == nil {
			col = c
		} else {
			h.logger.Warn("state color", "id", spec.State.ID, "error", err)
		}
	}
	base, err := mask.Decode(enc, col)
	if err != nil {
		return fmt.Errorf("edit %s: %w", spec.State.ID, err)
	}
	a := h.begin(KindEdit)
	a.edit = spec
	a.target = spec.State
	a.baseBox = enc.Box
	h.surface.Add(surface.Primitive{Shape: surface.Bitmap{Image: base}, Op: surface.OpOver})
	if h.onEditStart != nil {
		h.onEditStart(spec.State)
	}
	h.emit(Event{Name: EventEditStart, Kind: KindEdit, StateID: spec.State.ID})
	return h.selectTool(spec.BrushTool)
}

// Cancel abandons the open session without a result. It does nothing when
// idle.
func (h *Handler) Cancel() {
	a := h.cur
	if a == nil {
		return
	}
	h.release()
	switch a.kind {
	case KindDraw:
		if h.onDrawDone != nil {
			h.onDrawDone(nil, 0, false, nil)
		}
	case KindEdit:
		if h.onEditDone != nil {
			h.onEditDone(nil, nil)
		}
	}
	ev := Event{Name: EventCancel, Kind: a.kind}
	if a.target != nil {
		ev.StateID = a.target.ID
	}
	h.emit(ev)
}

// Configure applies c. CreationOpacity is clamped to [0,1] and only affects
// the polygon draft preview.
func (h *Handler) Configure(c Configuration) {
	if c.CreationOpacity == nil {
		return
	}
	op := *c.CreationOpacity
	if math.IsNaN(op) {
		return
	}
	h.opacity = math.Max(0, math.Min(1, op))
	h.refreshDraft()
}

// Transform resizes the surface to the image and rescales the draft
// outline for the viewport scale.
func (h *Handler) Transform(g Geometry) {
	if g.Scale <= 0 {
		g.Scale = 1
	}
	h.geometry = g
	h.surface.Resize(g.Image.Width, g.Image.Height)
	h.refreshDraft()
}

// SetupStates records the host's annotations.
func (h *Handler) SetupStates(states []*ObjectState) {
	h.states = append([]*ObjectState(nil), states...)
}

// States returns the annotations passed to SetupStates.
func (h *Handler) States() []*ObjectState {
	return append([]*ObjectState(nil), h.states...)
}

// Enabled reports whether a session is open.
func (h *Handler) Enabled() bool { return h.cur != nil }

// Kind returns the kind of the open session.
func (h *Handler) Kind() Kind {
	if h.cur == nil {
		return KindNone
	}
	return h.cur.kind
}

// Mode returns the pointer mode of the open session.
func (h *Handler) Mode() Mode {
	if h.cur == nil {
		return ModeIdle
	}
	return h.cur.mode
}

// Tool returns the selected tool, if it is valid.
func (h *Handler) Tool() (Tool, bool) {
	if h.cur == nil || h.cur.tool == nil {
		return Tool{}, false
	}
	return *h.cur.tool, true
}

// ToolError returns why the last tool selection was rejected.
func (h *Handler) ToolError() error {
	if h.cur == nil {
		return nil
	}
	return h.cur.toolErr
}

// Draft returns the in-progress polygon including its sliding point.
func (h *Handler) Draft() []surface.Point {
	if h.cur == nil || h.cur.draft == nil {
		return nil
	}
	return append([]surface.Point(nil), h.cur.draft.points...)
}

// Primitives reports how many primitives the open session accumulated,
// not counting an edit base layer or the draft preview.
func (h *Handler) Primitives() int {
	if h.cur == nil {
		return 0
	}
	return len(h.cur.strokes)
}

// Opacity returns the configured creation opacity.
func (h *Handler) Opacity() float64 { return h.opacity }

// Geometry returns the last applied viewport.
func (h *Handler) Geometry() Geometry { return h.geometry }

// Surface returns the drawing surface.
func (h *Handler) Surface() surface.Surface { return h.surface }

func (h *Handler) begin(kind Kind) *active {
	h.surface.Clear()
	h.cur = &active{kind: kind, mode: ModeAwaitingTool, started: h.now()}
	return h.cur
}

func (h *Handler) release() {
	h.surface.Clear()
	h.cur = nil
}

func (h *Handler) emit(ev Event) {
	if h.dispatch != nil {
		h.dispatch(ev)
	}
}

// selectTool applies a tool selection to the open session. Leaving
// polygon mode commits the draft.
func (h *Handler) selectTool(bt *BrushTool) error {
	a := h.cur
	var next *Tool
	var err error
	if bt != nil {
		t, rerr := bt.Resolve()
		if rerr != nil {
			err = rerr
		} else {
			next = &t
		}
	}
	if a.draft != nil && (next == nil || next.mode() != ModePolygon) {
		h.commitDraft()
	}
	a.tool = next
	a.toolErr = err
	a.prev = nil
	a.mode = ModeAwaitingTool
	if next != nil {
		a.mode = next.mode()
	}
	if a.draft != nil && next != nil {
		a.draft.tool = *next
		h.refreshDraft()
	}
	if err != nil {
		h.logger.Warn("brush tool rejected, strokes ignored", "error", err)
	}
	return err
}

func (h *Handler) imageSize() (int, int) {
	if h.geometry.Image.Width > 0 && h.geometry.Image.Height > 0 {
		return h.geometry.Image.Width, h.geometry.Image.Height
	}
	b := h.surface.Bounds()
	return b.Dx(), b.Dy()
}

// encode rasterizes the open session inside the union of its primitive
// bounds, clipped to the image.
func (h *Handler) encode() (mask.Encoding, error) {
	a := h.cur
	var box mask.Box
	have := false
	add := func(r image.Rectangle) {
		if r.Empty() {
			return
		}
		b := mask.BoxFromRect(r)
		if !have {
			box, have = b, true
			return
		}
		box = mask.Union(box, b)
	}
	if a.kind == KindEdit {
		add(a.baseBox.Rect())
	}
	for _, s := range a.strokes {
		add(s.prim.Bounds())
	}
	if !have {
		return mask.Encoding{}, ErrEmptyAccumulation
	}
	w, ht := h.imageSize()
	box = mask.ClipBox(box, w, ht)
	if !box.Valid() {
		return mask.Encoding{}, ErrEmptyAccumulation
	}
	img := h.surface.Rasterize(box.Rect())
	return mask.Encode(surface.Covered(img), box)
}

func (h *Handler) finishDraw(cont bool) {
	a := h.cur
	prev := a.draw.clone()
	h.discardDraft()
	enc, err := h.encode()
	elapsed := h.now().Sub(a.started)
	h.release()

	var res *DrawResult
	switch {
	case err == nil && enc.Set() == 0:
		h.logger.Debug("draw finished with every pixel erased")
	case err == nil:
		res = &DrawResult{ShapeType: ShapeMask, Points: enc.Points()}
	case errors.Is(err, ErrEmptyAccumulation):
		h.logger.Debug("draw finished empty")
	default:
		h.logger.Error("encode mask", "error", err)
	}
	if h.onDrawDone != nil {
		if res != nil {
			h.onDrawDone(res, elapsed, cont, &prev)
		} else {
			h.onDrawDone(nil, 0, false, nil)
		}
	}
	h.emit(Event{Name: EventDrawDone, Kind: KindDraw, Duration: elapsed, Empty: res == nil})

	if !cont {
		return
	}
	h.begin(KindDraw)
	h.cur.draw = prev.clone()
	_ = h.selectTool(prev.BrushTool)
	h.emit(Event{Name: EventDrawStart, Kind: KindDraw})
	if h.onContinueDraw != nil {
		h.onContinueDraw(prev)
	}
}

func (h *Handler) finishEdit() {
	a := h.cur
	h.discardDraft()
	enc, err := h.encode()
	elapsed := h.now().Sub(a.started)
	target := a.target
	h.release()

	if err != nil {
		if !errors.Is(err, ErrEmptyAccumulation) {
			h.logger.Error("encode edited mask", "id", target.ID, "error", err)
		}
		if h.onEditDone != nil {
			h.onEditDone(nil, nil)
		}
		h.emit(Event{Name: EventEditDone, Kind: KindEdit, StateID: target.ID, Duration: elapsed, Empty: true})
		return
	}
	if h.onEditDone != nil {
		h.onEditDone(target, enc.Points())
	}
	h.emit(Event{Name: EventEditDone, Kind: KindEdit, StateID: target.ID, Duration: elapsed})
}
