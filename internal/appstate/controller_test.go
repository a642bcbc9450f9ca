package appstate

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/surface"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestController(t *testing.T, brush session.BrushTool) (*controller, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newController(image.Rect(0, 0, 20, 20), brush, session.WithClock(clock.now))
	c.now = clock.now
	c.copyPoints = func(mask.Encoding) error { return errors.New("no clipboard in tests") }
	return c, clock
}

func TestClickTrackerDoubleClick(t *testing.T) {
	var ct clickTracker
	at := time.Unix(0, 0)
	p := surface.Point{X: 5, Y: 5}
	if ct.press(p, at) {
		t.Fatalf("first press is not a double-click")
	}
	if !ct.press(surface.Point{X: 6, Y: 5}, at.Add(200*time.Millisecond)) {
		t.Fatalf("second close press should be a double-click")
	}
	if ct.press(p, at.Add(300*time.Millisecond)) {
		t.Fatalf("third press starts a new sequence")
	}
	if ct.press(p, at.Add(time.Second)) {
		t.Fatalf("slow press is not a double-click")
	}
	if ct.press(surface.Point{X: 50, Y: 50}, at.Add(time.Second+100*time.Millisecond)) {
		t.Fatalf("distant press is not a double-click")
	}
}

func TestControllerBrushStroke(t *testing.T) {
	c, clock := newTestController(t, session.BrushTool{Type: "brush", Size: 4, Color: "red"})
	if err := c.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.press(surface.Point{X: 5, Y: 5}, session.ButtonPrimary)
	c.move(surface.Point{X: 6, Y: 5})
	c.release()
	clock.advance(time.Second)
	c.finish()

	r, ok := c.last()
	if !ok {
		t.Fatalf("expected a result")
	}
	enc, err := r.Encoding()
	if err != nil {
		t.Fatalf("Encoding: %v", err)
	}
	if enc.Sum() != enc.Box.Area() {
		t.Errorf("run sum %d != area %d", enc.Sum(), enc.Box.Area())
	}
	if r.Elapsed != time.Second {
		t.Errorf("elapsed = %v", r.Elapsed)
	}
	if c.h.Enabled() {
		t.Errorf("session should be closed without continue")
	}
}

func TestControllerPolygonDoubleClick(t *testing.T) {
	c, clock := newTestController(t, session.BrushTool{Type: "polygon-plus", Color: "blue"})
	if err := c.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, p := range []surface.Point{{X: 2, Y: 2}, {X: 10, Y: 2}, {X: 10, Y: 10}} {
		c.press(p, session.ButtonPrimary)
		c.release()
		clock.advance(time.Second)
	}
	c.press(surface.Point{X: 2, Y: 10}, session.ButtonPrimary)
	c.release()
	clock.advance(100 * time.Millisecond)
	c.press(surface.Point{X: 2, Y: 10}, session.ButtonPrimary)
	c.release()
	if d := c.h.Draft(); d != nil {
		t.Fatalf("double-click should commit the draft, got %v", d)
	}
	if c.h.Primitives() != 1 {
		t.Fatalf("primitives = %d, want 1", c.h.Primitives())
	}
	c.finish()
	r, ok := c.last()
	if !ok {
		t.Fatalf("expected a result")
	}
	enc, _ := r.Encoding()
	if want := (mask.Box{Left: 2, Top: 2, Right: 9, Bottom: 9}); enc.Box != want {
		t.Errorf("box = %v, want %v", enc.Box, want)
	}
}

func TestControllerContinueAndCancel(t *testing.T) {
	c, _ := newTestController(t, session.BrushTool{Type: "brush", Size: 2})
	c.cont = true
	if err := c.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.press(surface.Point{X: 3, Y: 3}, session.ButtonPrimary)
	c.move(surface.Point{X: 4, Y: 3})
	c.release()
	c.finish()
	if !c.h.Enabled() || c.h.Kind() != session.KindDraw {
		t.Fatalf("continue should reopen the draw session")
	}
	c.cancel()
	if c.h.Enabled() {
		t.Fatalf("cancel should close the session")
	}
	if len(c.results) != 1 {
		t.Fatalf("results = %d, want 1", len(c.results))
	}
	if c.message != "nothing drawn" {
		t.Errorf("message = %q", c.message)
	}
}

func TestControllerEditFinishes(t *testing.T) {
	c, _ := newTestController(t, session.BrushTool{Type: "eraser", Size: 2})
	c.target = &session.ObjectState{ID: "m1", ShapeType: session.ShapeMask, Points: []int{1, 2, 1, 4, 3, 5, 4}, Color: "#00ff00"}
	if err := c.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.h.Kind() != session.KindEdit {
		t.Fatalf("kind = %v", c.h.Kind())
	}
	if err := c.selectTool(session.ToolBrush); err != nil {
		t.Fatalf("selectTool: %v", err)
	}
	c.finish()
	r, ok := c.last()
	if !ok || r.StateID != "m1" {
		t.Fatalf("edit result = %+v, %v", r, ok)
	}
	if c.target != nil {
		t.Errorf("target should be cleared after finishing")
	}
}

func TestControllerBrushAdjustments(t *testing.T) {
	c, _ := newTestController(t, session.BrushTool{Type: "brush", Size: 3})
	if err := c.resize(-10); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if c.brush.Size != minBrushSize {
		t.Errorf("size = %d, want %d", c.brush.Size, minBrushSize)
	}
	if err := c.toggleForm(); err != nil {
		t.Fatalf("toggleForm: %v", err)
	}
	tl, ok := c.h.Tool()
	if !ok || tl.Form != session.FormSquare {
		t.Errorf("tool = %+v", tl)
	}
	if err := c.setColor("not-a-colour"); err == nil {
		t.Errorf("invalid colour should be rejected")
	}
	if !strings.Contains(c.status(), "invalid brush color") {
		t.Errorf("status = %q", c.status())
	}
}

func TestControllerCopyAndSave(t *testing.T) {
	c, _ := newTestController(t, session.BrushTool{Type: "brush", Size: 2})
	if err := c.copyLast(); err == nil {
		t.Errorf("copy without results should fail")
	}
	c.results = []Result{{Points: []int{1, 2, 1, 4, 3, 5, 4}}, {Points: []int{0, 1, 0, 0, 0, 0}}}
	var copied string
	c.copyPoints = func(enc mask.Encoding) error { copied = mask.FormatPoints(enc.Points()); return nil }
	if err := c.copyLast(); err != nil {
		t.Fatalf("copyLast: %v", err)
	}
	if copied != "0,1,0,0,0,0" {
		t.Errorf("copied %q", copied)
	}

	if err := c.saveResults(); err == nil {
		t.Errorf("save without output should fail")
	}
	c.output = filepath.Join(t.TempDir(), "masks.txt")
	if err := c.saveResults(); err != nil {
		t.Fatalf("saveResults: %v", err)
	}
	data, err := os.ReadFile(c.output)
	if err != nil {
		t.Fatal(err)
	}
	if want := "1,2,1,4,3,5,4\n0,1,0,0,0,0\n"; string(data) != want {
		t.Errorf("saved %q, want %q", data, want)
	}
}

func TestToImage(t *testing.T) {
	r := image.Rect(100, 50, 300, 250)
	p := toImage(150, 70, r, 0.5)
	if p.X != 100 || p.Y != 40 {
		t.Errorf("toImage = %+v", p)
	}
}

func TestShortcutForIgnoresShift(t *testing.T) {
	got := shortcutFor(key.Event{Rune: 'C', Code: key.CodeC, Modifiers: key.ModShift | key.ModControl})
	if len(got) != 2 || got[0] != (KeyShortcut{Rune: 'c', Modifiers: key.ModControl}) {
		t.Errorf("shortcutFor = %+v", got)
	}
}

func TestFitZoom(t *testing.T) {
	canvas := image.Rect(0, 0, 100, 50)
	if z := fitZoom(image.Rect(0, 0, 200, 50), canvas); z != 0.5 {
		t.Errorf("zoom = %v, want 0.5", z)
	}
	if z := fitZoom(image.Rect(0, 0, 10, 10), canvas); z != 1 {
		t.Errorf("small images are not enlarged, zoom = %v", z)
	}
}
