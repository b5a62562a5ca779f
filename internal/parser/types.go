package parser

import (
	"github.com/framereview/annotations/internal/transform"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// Event names accepted on the ingress stream.
const (
	EventPaintStart          = "PaintStart"
	EventPaintPoint          = "PaintPoint"
	EventPaintEnd            = "PaintEnd"
	EventPaintUndo           = "PaintUndo"
	EventPaintRedo           = "PaintRedo"
	EventPaintClear          = "PaintClear"
	EventCaptionStartEdit    = "CaptionStartEdit"
	EventCaptionMove         = "CaptionMove"
	EventCaptionEndMove      = "CaptionEndMove"
	EventCaptionProperty     = "CaptionProperty"
	EventCaptionTextEntry    = "CaptionTextEntry"
	EventCaptionEndEdit      = "CaptionEndEdit"
	EventCaptionKeyPress     = "CaptionKeyPress"
	EventCaptionInteract     = "CaptionInteract"
	EventCaptionPointerHover = "CaptionPointerHover"
	EventToolChanged         = "ToolChanged"
	EventHideDrawings        = "HideDrawings"
	EventShowDrawings        = "ShowDrawings"
	EventSetDisplayMode      = "SetDisplayMode"
	EventImagesOnScreen      = "ImagesOnScreen"
)

// Event is one decoded ingress line; Payload is parsed per event name.
type Event struct {
	Name    string
	UserID  uuid.UUID
	Payload []byte
}

// PointerSample is a normalized (0..1) pointer position with pressure.
type PointerSample struct {
	Pos      geom.XY
	Pressure float64
}

// Paint holds the style fields sent with PaintStart.
type Paint struct {
	Size               float64
	RGBA               [4]float64
	Softness           float64
	SizeSensitivity    float64
	OpacitySensitivity float64
}

// PaintStart begins a gesture with the given tool.
type PaintStart struct {
	Viewport string
	ItemType string
	Points   []PointerSample
	Paint    Paint
}

// PaintPoint extends the gesture in progress.
type PaintPoint struct {
	Viewport string
	Points   []PointerSample
}

// ViewportCommand carries only the viewport an event applies to (PaintEnd,
// undo, redo, clear and the caption end events).
type ViewportCommand struct {
	Viewport string
}

// CaptionPointer is a pointer position used by caption interaction, hover
// and drag events.
type CaptionPointer struct {
	Viewport string
	Pointer  geom.XY
	PixScale float64
}

// CaptionProperty changes style fields of the live caption. Nil fields are
// left unchanged.
type CaptionProperty struct {
	Viewport          string
	FontName          *string
	FontSize          *float64
	Colour            *[3]float64
	Opacity           *float64
	WrapWidth         *float64
	Justification     *int
	BackgroundColour  *[3]float64
	BackgroundOpacity *float64
}

// CaptionText is typed input for the live caption.
type CaptionText struct {
	Viewport string
	Text     string
}

// CaptionKey is a key code for the live caption.
type CaptionKey struct {
	Viewport string
	Key      int
}

// ToolChanged selects the active tool.
type ToolChanged struct {
	Tool string
}

// DisplayMode selects when drawings are shown.
type DisplayMode struct {
	Mode string
}

// Image is one image on screen with its layout transform and aspect ratio
// (width over height).
type Image struct {
	FrameKey string
	Layout   transform.Mat4
	Aspect   float64
}

// ImagesOnScreen describes what a viewport currently displays.
type ImagesOnScreen struct {
	Viewport          string
	ViewportTransform transform.Mat4
	Images            []Image
	// DrawOrder lists indices into Images from front to back.
	DrawOrder []int
	HeroIndex int
	Playing   bool
}
