package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/surface"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 1 << 20
	sendBuffer = 256
)

// Client is one websocket connection. It owns a session handler that only
// the read pump touches.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	ID        string
	logger    *slog.Logger
	h         *session.Handler
	maxPixels int
}

// NewClient creates a client whose session draws on an image of the given
// size. The size can be changed later with a transform message.
func NewClient(conn *websocket.Conn, id string, width, height int, opacity float64, logger *slog.Logger) *Client {
	c := &Client{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		ID:        id,
		logger:    logger.With("client", id),
		maxPixels: DefaultMaxPixels,
	}
	c.h = session.New(surface.NewSoftware(width, height),
		session.WithLogger(c.logger),
		session.WithDrawDone(c.drawDone),
		session.WithContinueDraw(func(spec session.DrawSpec) { c.Send(TypeDrawContinue, 0, spec) }),
		session.WithEditStart(func(state *session.ObjectState) { c.Send(TypeEditStart, 0, state) }),
		session.WithEditDone(func(state *session.ObjectState, points []int) {
			c.Send(TypeEditDone, 0, EditDonePayload{State: state, Points: points})
		}),
		session.WithDispatch(func(ev session.Event) { c.Send(TypeEvent, 0, ev) }),
	)
	c.h.Configure(session.Configuration{CreationOpacity: &opacity})
	c.h.Transform(session.Geometry{Image: session.ImageSize{Width: width, Height: height}, Scale: 1})
	return c
}

func (c *Client) drawDone(res *session.DrawResult, elapsed time.Duration, cont bool, prev *session.DrawSpec) {
	p := DrawDonePayload{Result: res, ElapsedMS: elapsed.Milliseconds(), Continue: cont, Previous: prev}
	if res != nil {
		if enc, err := mask.Parse(res.Points); err == nil {
			b := enc.Box
			p.Box = &BoxPayload{Left: b.Left, Top: b.Top, Right: b.Right, Bottom: b.Bottom}
		}
	}
	c.Send(TypeDrawDone, 0, p)
}

// ReadPump decodes messages and applies them to the session until the
// connection closes. An open session is cancelled on exit.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.h.Cancel()
		c.closeSend()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			c.logger.Debug("read error", "error", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid message", "error", err)
			c.sendError("", 0, "bad_message", err)
			continue
		}
		if err := c.handleMessage(&msg); err != nil {
			c.sendError(msg.Type, msg.Seq, errorCode(err), err)
		}
	}
}

// WritePump drains the send buffer and keeps the connection alive.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Send queues a message. It never blocks; messages are dropped when the
// buffer is full.
func (c *Client) Send(typ string, seq int64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("marshal payload", "type", typ, "error", err)
		return
	}
	data, err := json.Marshal(Message{Type: typ, Seq: seq, Payload: raw})
	if err != nil {
		c.logger.Error("marshal message", "type", typ, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client send buffer full, dropping message", "type", typ)
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) sendError(req string, seq int64, code string, err error) {
	c.Send(TypeError, 0, ErrorPayload{Request: req, Seq: seq, Code: code, Message: err.Error()})
}

type badPayloadError struct {
	typ string
	err error
}

func (e *badPayloadError) Error() string { return fmt.Sprintf("%s payload: %v", e.typ, e.err) }

func (e *badPayloadError) Unwrap() error { return e.err }

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return &badPayloadError{typ: msg.Type, err: err}
	}
	return nil
}

var (
	errUnknownType = errors.New("unknown message type")
	errTooLarge    = errors.New("image exceeds the pixel limit")
)

// checkEdit rejects an edit whose mask box would decode to more pixels than
// the client may allocate.
func (c *Client) checkEdit(spec session.EditSpec) error {
	if !spec.Enabled || spec.State == nil || spec.State.ShapeType != session.ShapeMask {
		return nil
	}
	enc, err := mask.Parse(spec.State.Points)
	if err != nil {
		return fmt.Errorf("edit %s: %w", spec.State.ID, err)
	}
	if area := enc.Box.Area(); area > c.maxPixels {
		return &mask.MalformedEncodingError{
			Reason: fmt.Sprintf("box %v holds %d pixels, limit is %d", enc.Box, area, c.maxPixels),
		}
	}
	return nil
}

func (c *Client) handleMessage(msg *Message) error {
	switch msg.Type {
	case TypeConfigure:
		var cfg session.Configuration
		if err := decode(msg, &cfg); err != nil {
			return err
		}
		c.h.Configure(cfg)
	case TypeDraw:
		var spec session.DrawSpec
		if err := decode(msg, &spec); err != nil {
			return err
		}
		return c.h.Draw(spec)
	case TypeEdit:
		var spec session.EditSpec
		if err := decode(msg, &spec); err != nil {
			return err
		}
		if err := c.checkEdit(spec); err != nil {
			return err
		}
		return c.h.Edit(spec)
	case TypeTransform:
		var g session.Geometry
		if err := decode(msg, &g); err != nil {
			return err
		}
		if !fits(g.Image.Width, g.Image.Height, c.maxPixels) {
			return &badPayloadError{typ: msg.Type, err: errTooLarge}
		}
		c.h.Transform(g)
	case TypeStates:
		var p StatesPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		c.h.SetupStates(p.States)
	case TypePointerDown, TypePointerMove, TypeDoubleClick:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		pt := surface.Point{X: p.X, Y: p.Y}
		switch msg.Type {
		case TypePointerDown:
			c.h.PointerDown(pt, p.button())
		case TypePointerMove:
			c.h.PointerMove(pt)
		default:
			c.h.DoubleClick(pt)
		}
	case TypePointerUp:
		c.h.PointerUp()
	case TypeCancel:
		c.h.Cancel()
	default:
		return fmt.Errorf("%w %q", errUnknownType, msg.Type)
	}
	return nil
}

func errorCode(err error) string {
	var brush *session.InvalidBrushConfigurationError
	var malformed *mask.MalformedEncodingError
	var payload *badPayloadError
	switch {
	case errors.Is(err, session.ErrSessionBusy):
		return "session_busy"
	case errors.As(err, &brush):
		return "invalid_brush"
	case errors.As(err, &malformed):
		return "malformed_encoding"
	case errors.As(err, &payload):
		return "bad_payload"
	case errors.Is(err, errUnknownType):
		return "unknown_type"
	}
	return "internal"
}
