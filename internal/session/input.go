package session

import (
	"image/color"

	"github.com/example/maskpaint/internal/surface"
)

// PointerDown handles a press. In polygon mode a primary press places a
// vertex and a secondary press removes the last one.
func (h *Handler) PointerDown(p surface.Point, b Button) {
	a := h.cur
	if a == nil {
		return
	}
	a.down = true
	if a.mode == ModePolygon {
		h.polygonClick(p, b)
	}
}

// PointerMove stamps the brush while the pointer is down, or drags the
// sliding point of the polygon draft.
func (h *Handler) PointerMove(p surface.Point) {
	a := h.cur
	if a == nil {
		return
	}
	switch a.mode {
	case ModePolygon:
		if a.draft != nil {
			a.draft.points[len(a.draft.points)-1] = p
			h.refreshDraft()
		}
	case ModeBrush:
		if a.down && a.tool != nil {
			h.stamp(p)
		}
	}
}

// PointerUp ends a brush stroke.
func (h *Handler) PointerUp() {
	if a := h.cur; a != nil {
		a.down = false
		a.prev = nil
	}
}

// DoubleClick closes the polygon draft. The session stays in polygon mode
// so the next press starts another polygon.
func (h *Handler) DoubleClick(surface.Point) {
	a := h.cur
	if a == nil || a.mode != ModePolygon || a.draft == nil {
		return
	}
	h.commitDraft()
}

func ink(t Tool) (color.Color, surface.Op, Role) {
	if t.Erases() {
		return color.White, surface.OpDestinationOut, RoleErase
	}
	return surface.WithAlpha(t.Color, paintAlpha), surface.OpXor, RolePaint
}

func (h *Handler) addStroke(p surface.Primitive, role Role) {
	a := h.cur
	a.strokes = append(a.strokes, stroke{handle: h.surface.Add(p), prim: p, role: role})
}

func (h *Handler) stamp(p surface.Point) {
	a := h.cur
	t := *a.tool
	fill, op, role := ink(t)
	var shape surface.Shape = surface.Circle{Center: p, Radius: t.Size / 2}
	capStyle := surface.CapRound
	if t.Form == FormSquare {
		shape = surface.Square{Center: p, Side: t.Size}
		capStyle = surface.CapSquare
	}
	h.addStroke(surface.Primitive{Shape: shape, Fill: fill, Op: op}, role)
	if a.prev != nil && a.prev.Dist(p) > t.Size/2 {
		seg := surface.Segment{From: *a.prev, To: p, Width: t.Size, Cap: capStyle}
		h.addStroke(surface.Primitive{Shape: seg, Fill: fill, Op: op}, role)
	}
	last := p
	a.prev = &last
}

func (h *Handler) polygonClick(p surface.Point, b Button) {
	a := h.cur
	if b == ButtonSecondary {
		d := a.draft
		if d == nil {
			return
		}
		n := len(d.points)
		if n > 2 {
			d.points = append(d.points[:n-2], d.points[n-1])
			h.refreshDraft()
			return
		}
		h.discardDraft()
		return
	}
	if a.tool == nil {
		return
	}
	if a.draft == nil {
		a.draft = &polygonDraft{points: []surface.Point{p, p}, tool: *a.tool}
	} else {
		n := len(a.draft.points)
		a.draft.points[n-1] = p
		a.draft.points = append(a.draft.points, p)
	}
	h.refreshDraft()
}

// polygonVertices drops the sliding point and repeated vertices.
func polygonVertices(points []surface.Point) []surface.Point {
	if len(points) < 2 {
		return nil
	}
	fixed := points[:len(points)-1]
	out := make([]surface.Point, 0, len(fixed))
	for _, p := range fixed {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func (h *Handler) commitDraft() {
	a := h.cur
	if a == nil || a.draft == nil {
		return
	}
	d := a.draft
	h.discardDraft()
	verts := polygonVertices(d.points)
	if len(verts) < 3 {
		h.logger.Debug("polygon discarded", "vertices", len(verts))
		return
	}
	fill, op, role := ink(d.tool)
	h.addStroke(surface.Primitive{Shape: surface.Polygon{Vertices: verts}, Fill: fill, Op: op}, role)
}

func (h *Handler) discardDraft() {
	a := h.cur
	if a == nil || a.draft == nil {
		return
	}
	h.removePreview(a.draft)
	a.draft = nil
}

func (h *Handler) removePreview(d *polygonDraft) {
	if d.fill != 0 {
		h.surface.Remove(d.fill)
		d.fill = 0
	}
	if d.line != 0 {
		h.surface.Remove(d.line)
		d.line = 0
	}
}

// refreshDraft redraws the draft preview on top of the surface.
func (h *Handler) refreshDraft() {
	a := h.cur
	if a == nil || a.draft == nil {
		return
	}
	d := a.draft
	h.removePreview(d)
	col := color.Color(d.tool.Color)
	if d.tool.Erases() {
		col = color.White
	}
	pts := append([]surface.Point(nil), d.points...)
	d.fill = h.surface.Add(surface.Primitive{
		Shape: surface.Polygon{Vertices: pts},
		Fill:  surface.WithAlpha(col, h.opacity),
		Op:    surface.OpOver,
	})
	d.line = h.surface.Add(surface.Primitive{
		Shape: surface.Outline{Vertices: pts, Width: BaseStrokeWidth / h.geometry.Scale, Closed: true},
		Fill:  surface.WithAlpha(color.Black, h.opacity),
		Op:    surface.OpOver,
	})
}
