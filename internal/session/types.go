package session

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"
)

// ShapeMask is the only shape type the handler draws.
const ShapeMask = "mask"

var (
	// ErrSessionBusy is returned when a draw is requested during an edit
	// or the other way round.
	ErrSessionBusy = errors.New("session: another session is active")
	// ErrEmptyAccumulation is the outcome of finalizing a draw with
	// nothing painted. It is reported to callbacks as a nil result.
	ErrEmptyAccumulation = errors.New("session: nothing drawn")
)

// InvalidBrushConfigurationError describes a brush tool the handler cannot
// use. Strokes are ignored while such a tool is selected.
type InvalidBrushConfigurationError struct {
	Field string
	Value string
}

func (e *InvalidBrushConfigurationError) Error() string {
	return fmt.Sprintf("invalid brush %s %q", e.Field, e.Value)
}

// Kind tells a draw session from an edit session.
type Kind int

const (
	KindNone Kind = iota
	KindDraw
	KindEdit
)

func (k Kind) String() string {
	switch k {
	case KindDraw:
		return "draw"
	case KindEdit:
		return "edit"
	}
	return "idle"
}

// Mode is what pointer input currently does inside a session.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAwaitingTool
	ModeBrush
	ModePolygon
)

func (m Mode) String() string {
	switch m {
	case ModeAwaitingTool:
		return "awaiting-tool"
	case ModeBrush:
		return "brush"
	case ModePolygon:
		return "polygon"
	}
	return "idle"
}

// Role is how an accumulated primitive affects the mask.
type Role int

const (
	RolePaint Role = iota
	RoleErase
)

// ToolType names a brush tool.
type ToolType string

const (
	ToolBrush        ToolType = "brush"
	ToolEraser       ToolType = "eraser"
	ToolPolygonPlus  ToolType = "polygon-plus"
	ToolPolygonMinus ToolType = "polygon-minus"
)

// Form is the stamp shape of a brush.
type Form string

const (
	FormCircle Form = "circle"
	FormSquare Form = "square"
)

// BrushTool is the wire form of a tool selection.
type BrushTool struct {
	Type  string `json:"type"`
	Form  string `json:"form,omitempty"`
	Size  int    `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Tool is a validated BrushTool.
type Tool struct {
	Type  ToolType
	Form  Form
	Size  float64
	Color color.NRGBA
}

// Resolve validates b. An empty colour means white and an empty form means
// circle. Brushes and erasers need a positive size.
func (b BrushTool) Resolve() (Tool, error) {
	t := Tool{Type: ToolType(strings.ToLower(strings.TrimSpace(b.Type)))}
	switch t.Type {
	case ToolBrush, ToolEraser, ToolPolygonPlus, ToolPolygonMinus:
	default:
		return Tool{}, &InvalidBrushConfigurationError{Field: "type", Value: b.Type}
	}
	switch f := Form(strings.ToLower(strings.TrimSpace(b.Form))); f {
	case "", FormCircle:
		t.Form = FormCircle
	case FormSquare:
		t.Form = FormSquare
	default:
		return Tool{}, &InvalidBrushConfigurationError{Field: "form", Value: b.Form}
	}
	if t.Type == ToolBrush || t.Type == ToolEraser {
		if b.Size <= 0 {
			return Tool{}, &InvalidBrushConfigurationError{Field: "size", Value: fmt.Sprint(b.Size)}
		}
	}
	t.Size = float64(b.Size)
	c := b.Color
	if c == "" {
		c = "white"
	}
	col, err := ParseColor(c)
	if err != nil {
		return Tool{}, &InvalidBrushConfigurationError{Field: "color", Value: b.Color}
	}
	t.Color = col
	return t, nil
}

// Erases reports whether primitives made with t remove mask pixels.
func (t Tool) Erases() bool {
	return t.Type == ToolEraser || t.Type == ToolPolygonMinus
}

func (t Tool) mode() Mode {
	switch t.Type {
	case ToolPolygonPlus, ToolPolygonMinus:
		return ModePolygon
	}
	return ModeBrush
}

// ObjectState is the host's reference to an annotation. The handler reads
// it and never modifies it.
type ObjectState struct {
	ID        string `json:"id"`
	ShapeType string `json:"shapeType"`
	Points    []int  `json:"points"`
	Color     string `json:"color"`
}

// DrawSpec requests the start, reconfiguration or end of a draw session.
type DrawSpec struct {
	Enabled   bool       `json:"enabled"`
	ShapeType string     `json:"shapeType"`
	Continue  bool       `json:"continue,omitempty"`
	BrushTool *BrushTool `json:"brushTool,omitempty"`
}

func (s DrawSpec) clone() DrawSpec {
	if s.BrushTool != nil {
		bt := *s.BrushTool
		s.BrushTool = &bt
	}
	return s
}

// EditSpec requests the start, reconfiguration or end of an edit session.
type EditSpec struct {
	Enabled   bool         `json:"enabled"`
	State     *ObjectState `json:"state,omitempty"`
	BrushTool *BrushTool   `json:"brushTool,omitempty"`
}

// DrawResult is a finished mask.
type DrawResult struct {
	ShapeType string `json:"shapeType"`
	Points    []int  `json:"points"`
}

// Configuration adjusts handler defaults. Nil fields are left unchanged.
type Configuration struct {
	CreationOpacity *float64 `json:"creationOpacity,omitempty"`
}

// ImageSize is the pixel size of the annotated image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry is the viewport the host displays the image in.
type Geometry struct {
	Image ImageSize `json:"image"`
	Scale float64   `json:"scale"`
	Angle float64   `json:"angle"`
	Top   float64   `json:"top"`
	Left  float64   `json:"left"`
}

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Event names dispatched to the host.
const (
	EventDrawStart = "mask.draw.start"
	EventDrawDone  = "mask.draw.done"
	EventEditStart = "mask.edit.start"
	EventEditDone  = "mask.edit.done"
	EventCancel    = "mask.cancel"
)

// Event is a lifecycle signal for host bookkeeping.
type Event struct {
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	StateID  string        `json:"stateId,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Empty    bool          `json:"empty,omitempty"`
}

type (
	// DrawDoneFunc receives a finished draw. res is nil when the session
	// was cancelled or nothing was drawn.
	DrawDoneFunc func(res *DrawResult, elapsed time.Duration, cont bool, prev *DrawSpec)
	// ContinueDrawFunc receives the spec a continued draw restarted with.
	ContinueDrawFunc func(spec DrawSpec)
	// EditStartFunc is called once an edit session has its base layer.
	EditStartFunc func(state *ObjectState)
	// EditDoneFunc receives the edited state and its new points. Both are
	// nil when the edit was cancelled.
	EditDoneFunc func(state *ObjectState, points []int)
	// DispatchFunc receives lifecycle events.
	DispatchFunc func(Event)
)
