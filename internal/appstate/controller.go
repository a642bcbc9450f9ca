package appstate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"strings"
	"time"

	"github.com/example/maskpaint/internal/clipboard"
	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/notify"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/surface"
)

const (
	doubleClickInterval = 400 * time.Millisecond
	doubleClickSlop     = 4
	minBrushSize        = 1
	maxBrushSize        = 200
	messageDuration     = 2 * time.Second
)

// Result is a mask finished in the window.
type Result struct {
	StateID  string
	Points   []int
	Elapsed  time.Duration
	Finished time.Time
}

// Encoding parses the result points. Results come from the encoder, so an
// error means the points were altered afterwards.
func (r Result) Encoding() (mask.Encoding, error) {
	return mask.Parse(r.Points)
}

type clickTracker struct {
	at  time.Time
	pos surface.Point
	n   int
}

// press records a primary press and reports whether it completes a
// double-click.
func (c *clickTracker) press(p surface.Point, now time.Time) bool {
	if c.n > 0 && now.Sub(c.at) <= doubleClickInterval && p.Dist(c.pos) <= doubleClickSlop {
		c.n = 0
		return true
	}
	c.at, c.pos, c.n = now, p, 1
	return false
}

// controller turns window input into session.Handler calls.
type controller struct {
	h        *session.Handler
	brush    session.BrushTool
	target   *session.ObjectState
	cont     bool
	clicks   clickTracker
	results  []Result
	notifier *notify.Notifier
	now      func() time.Time
	output   string

	copyPoints func(mask.Encoding) error
	onResult   func(Result)

	message      string
	messageUntil time.Time
}

func newController(img image.Rectangle, brush session.BrushTool, opts ...session.Option) *controller {
	c := &controller{brush: brush, now: time.Now, copyPoints: clipboard.WritePoints}
	opts = append(opts,
		session.WithDrawDone(c.drawDone),
		session.WithEditDone(c.editDone),
		session.WithDispatch(func(ev session.Event) {
			log.Printf("%s kind=%s state=%s duration=%s empty=%v", ev.Name, ev.Kind, ev.StateID, ev.Duration, ev.Empty)
		}),
	)
	c.h = session.New(surface.NewSoftware(img.Dx(), img.Dy()), opts...)
	return c
}

// start opens an edit session for the target state, or a draw session.
func (c *controller) start() error {
	bt := c.brush
	if c.target != nil {
		return c.h.Edit(session.EditSpec{Enabled: true, State: c.target, BrushTool: &bt})
	}
	return c.h.Draw(session.DrawSpec{Enabled: true, ShapeType: session.ShapeMask, Continue: c.cont, BrushTool: &bt})
}

// selectTool applies a tool type, opening a session when idle.
func (c *controller) selectTool(t session.ToolType) error {
	c.brush.Type = string(t)
	return c.reselect()
}

func (c *controller) toggleForm() error {
	if strings.EqualFold(c.brush.Form, string(session.FormSquare)) {
		c.brush.Form = string(session.FormCircle)
	} else {
		c.brush.Form = string(session.FormSquare)
	}
	return c.reselect()
}

func (c *controller) resize(delta int) error {
	c.brush.Size = max(minBrushSize, min(maxBrushSize, c.brush.Size+delta))
	return c.reselect()
}

func (c *controller) setColor(col string) error {
	c.brush.Color = col
	return c.reselect()
}

func (c *controller) reselect() error {
	if !c.h.Enabled() {
		return c.start()
	}
	bt := c.brush
	switch c.h.Kind() {
	case session.KindEdit:
		return c.h.Edit(session.EditSpec{Enabled: true, BrushTool: &bt})
	default:
		return c.h.Draw(session.DrawSpec{Enabled: true, ShapeType: session.ShapeMask, Continue: c.cont, BrushTool: &bt})
	}
}

// finish completes the open session. Edits become draws afterwards so the
// window keeps working on new masks.
func (c *controller) finish() {
	switch c.h.Kind() {
	case session.KindDraw:
		_ = c.h.Draw(session.DrawSpec{Enabled: false, Continue: c.cont})
	case session.KindEdit:
		_ = c.h.Edit(session.EditSpec{Enabled: false})
		c.target = nil
	}
}

func (c *controller) cancel() {
	c.h.Cancel()
	c.target = nil
}

func (c *controller) press(p surface.Point, b session.Button) {
	c.h.PointerDown(p, b)
	if b == session.ButtonPrimary && c.clicks.press(p, c.now()) {
		c.h.DoubleClick(p)
	}
}

func (c *controller) move(p surface.Point) { c.h.PointerMove(p) }

func (c *controller) release() { c.h.PointerUp() }

func (c *controller) drawDone(res *session.DrawResult, elapsed time.Duration, _ bool, _ *session.DrawSpec) {
	if res == nil {
		c.flash("nothing drawn")
		return
	}
	c.record(Result{Points: res.Points, Elapsed: elapsed})
	c.notifier.Draw(fmt.Sprintf("mask %s", boxOf(res.Points)), preview(res.Points, c.brush.Color))
}

func (c *controller) editDone(state *session.ObjectState, points []int) {
	if state == nil {
		c.flash("edit discarded")
		return
	}
	c.record(Result{StateID: state.ID, Points: points})
	c.notifier.Edit(state.ID, preview(points, state.Color))
}

func (c *controller) record(r Result) {
	r.Finished = c.now()
	c.results = append(c.results, r)
	c.flash(fmt.Sprintf("mask %s done", boxOf(r.Points)))
	if c.onResult != nil {
		c.onResult(r)
	}
}

func (c *controller) last() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	return c.results[len(c.results)-1], true
}

// copyLast puts the points of the newest result on the clipboard.
func (c *controller) copyLast() error {
	r, ok := c.last()
	if !ok {
		return errors.New("no mask to copy")
	}
	enc, err := r.Encoding()
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := c.copyPoints(enc); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	c.flash("points copied to clipboard")
	c.notifier.Copy("mask points")
	return nil
}

// saveResults writes one line of points per result to the output file.
func (c *controller) saveResults() error {
	if c.output == "" {
		return errors.New("no output file")
	}
	if len(c.results) == 0 {
		return errors.New("no mask to save")
	}
	var b strings.Builder
	for _, r := range c.results {
		b.WriteString(mask.FormatPoints(r.Points))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(c.output, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	c.flash(fmt.Sprintf("saved %s", c.output))
	c.notifier.Save(c.output)
	return nil
}

func (c *controller) flash(msg string) {
	c.message = msg
	c.messageUntil = c.now().Add(messageDuration)
	log.Print(msg)
}

// status is the text of the bottom bar.
func (c *controller) status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s", c.h.Kind(), c.h.Mode())
	if t, ok := c.h.Tool(); ok {
		fmt.Fprintf(&b, " | %s %s %.0fpx", t.Type, t.Form, t.Size)
	} else if err := c.h.ToolError(); err != nil {
		fmt.Fprintf(&b, " | %v", err)
	}
	if c.cont {
		b.WriteString(" | continue")
	}
	fmt.Fprintf(&b, " | masks: %d", len(c.results))
	return b.String()
}

// preview renders points for a notification icon. It returns nil when the
// points do not parse.
func preview(points []int, colorName string) image.Image {
	enc, err := mask.Parse(points)
	if err != nil {
		return nil
	}
	col, err := session.ParseColor(colorName)
	if err != nil {
		col = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	img, err := mask.Decode(enc, col)
	if err != nil {
		return nil
	}
	return img
}

func boxOf(points []int) string {
	if len(points) < 4 {
		return "?"
	}
	n := len(points)
	return fmt.Sprintf("%d,%d-%d,%d", points[n-4], points[n-3], points[n-2], points[n-1])
}
