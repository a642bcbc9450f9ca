package server

import (
	"encoding/json"

	"github.com/example/maskpaint/internal/session"
)

// Message is the websocket envelope.
type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Inbound
	TypeConfigure   = "configure"
	TypeDraw        = "draw"
	TypeEdit        = "edit"
	TypeTransform   = "transform"
	TypeStates      = "states"
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeDoubleClick = "pointer.dblclick"
	TypeCancel      = "cancel"

	// Outbound
	TypeWelcome      = "welcome"
	TypeDrawDone     = "draw.done"
	TypeDrawContinue = "draw.continue"
	TypeEditStart    = "edit.start"
	TypeEditDone     = "edit.done"
	TypeEvent        = "event"
	TypeError        = "error"
)

// WelcomePayload is sent once after the connection is accepted.
type WelcomePayload struct {
	ClientID string            `json:"clientId"`
	Image    session.ImageSize `json:"image"`
}

// PointerPayload carries a pointer position in image coordinates.
type PointerPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button,omitempty"`
}

func (p PointerPayload) button() session.Button {
	if p.Button == "secondary" {
		return session.ButtonSecondary
	}
	return session.ButtonPrimary
}

// StatesPayload replaces the annotations known to the session.
type StatesPayload struct {
	States []*session.ObjectState `json:"states"`
}

// DrawDonePayload reports a finished draw. Result is null when the session
// was cancelled or nothing was drawn.
type DrawDonePayload struct {
	Result    *session.DrawResult `json:"result"`
	ElapsedMS int64               `json:"elapsedMs"`
	Continue  bool                `json:"continue"`
	Previous  *session.DrawSpec   `json:"previous,omitempty"`
	Box       *BoxPayload         `json:"box,omitempty"`
}

// EditDonePayload reports a finished edit. Both fields are null when the
// edit was cancelled.
type EditDonePayload struct {
	State  *session.ObjectState `json:"state"`
	Points []int                `json:"points"`
}

// BoxPayload is a mask bounding box with inclusive coordinates.
type BoxPayload struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// ErrorPayload reports a rejected request.
type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
