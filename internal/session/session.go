// Package session holds the ephemeral per-user edit state: which tool is in
// use, the stroke or caption being built, drag anchors and caption handle
// hover state.
package session

import (
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/parser"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// Tool is the kind of item a gesture produces.
type Tool int

const (
	ToolNone Tool = iota
	ToolDraw
	ToolBrush
	ToolErase
	ToolSquare
	ToolCircle
	ToolArrow
	ToolLine
	ToolLaser
	ToolText
	ToolColourPicker
)

var toolNames = map[string]Tool{
	"Draw":          ToolDraw,
	"Brush":         ToolBrush,
	"Erase":         ToolErase,
	"Square":        ToolSquare,
	"Circle":        ToolCircle,
	"Arrow":         ToolArrow,
	"Line":          ToolLine,
	"Laser":         ToolLaser,
	"Text":          ToolText,
	"Colour Picker": ToolColourPicker,
}

// ParseTool maps the front end's tool names onto Tool.
func ParseTool(name string) (Tool, bool) {
	t, ok := toolNames[name]
	return t, ok
}

func (t Tool) String() string {
	for name, v := range toolNames {
		if v == t {
			return name
		}
	}
	return "None"
}

// Outline reports whether the tool draws a stroke regenerated from the drag
// anchor rather than accumulating points.
func (t Tool) Outline() bool {
	switch t {
	case ToolSquare, ToolCircle, ToolArrow, ToolLine:
		return true
	}
	return false
}

// HandleState is what the pointer is over relative to the live caption.
type HandleState int

const (
	NotHovered HandleState = iota
	InCaptionArea
	OnMoveHandle
	OnResizeHandle
	OnDeleteHandle
)

// State is the coarse edit state derived from a LiveEdit.
type State int

const (
	Idle State = iota
	Drawing
	CaptionIdle
	CaptionDraggingMove
	CaptionDraggingResize
	CaptionTextEntry
	ColourPicking
)

func (s State) String() string {
	switch s {
	case Drawing:
		return "Drawing"
	case CaptionIdle:
		return "CaptionEditing.Idle"
	case CaptionDraggingMove:
		return "CaptionEditing.DraggingMove"
	case CaptionDraggingResize:
		return "CaptionEditing.DraggingResize"
	case CaptionTextEntry:
		return "CaptionEditing.TextEntry"
	case ColourPicking:
		return "ColourPicking"
	}
	return "Idle"
}

type drag int

const (
	dragNone drag = iota
	dragMove
	dragResize
)

// LiveEdit is one user's in-progress work. At most one stroke and one
// caption are live at a time.
type LiveEdit struct {
	UserID   uuid.UUID
	Viewport string

	// Tool is the tool selected with ToolChanged; Gesture is the tool of the
	// stroke being drawn now, ToolNone between gestures.
	Tool    Tool
	Gesture Tool

	// Image is the frame being annotated. HasImage is false until a
	// gesture lands somewhere.
	Image    parser.Image
	HasImage bool
	// BookmarkID is the bookmark edits are committed to. uuid.Nil means a
	// bookmark will be created on first commit.
	BookmarkID uuid.UUID

	Stroke  *canvas.Stroke
	Caption *canvas.Caption
	Laser   []canvas.Stroke

	// StartPoint anchors outline strokes and drags. For a resize drag only
	// X is used and holds the wrap width at drag start.
	StartPoint geom.XY
	DragStart  geom.XY

	Hover HandleState
	// SkipCaption is the committed caption duplicated into Caption; it is
	// hidden from render output while the live copy is shown.
	SkipCaption uuid.UUID

	// TextEntered is set once the live caption has received keystrokes.
	TextEntered bool
	// CommitPending is set while a debounced commit is scheduled.
	CommitPending bool

	drag drag
}

// New returns an idle session for user.
func New(user uuid.UUID) *LiveEdit {
	return &LiveEdit{UserID: user}
}

// State summarises what the user is doing.
func (l *LiveEdit) State() State {
	switch {
	case l.Tool == ToolColourPicker:
		return ColourPicking
	case l.Gesture != ToolNone:
		return Drawing
	case l.Caption != nil && l.drag == dragMove:
		return CaptionDraggingMove
	case l.Caption != nil && l.drag == dragResize:
		return CaptionDraggingResize
	case l.Caption != nil && l.TextEntered:
		return CaptionTextEntry
	case l.Caption != nil:
		return CaptionIdle
	}
	return Idle
}

// FrameKey of the targeted image, empty when nothing is targeted.
func (l *LiveEdit) FrameKey() string {
	if !l.HasImage {
		return ""
	}
	return l.Image.FrameKey
}

// Target points the session at img and forgets the bookmark resolved for the
// previous target.
func (l *LiveEdit) Target(img parser.Image) {
	l.Image = img
	l.HasImage = true
	l.BookmarkID = uuid.Nil
}

// StartStroke makes s the live stroke for a gesture with tool t. It returns
// the stroke it replaced, if any, so the caller can commit it first.
func (l *LiveEdit) StartStroke(t Tool, s canvas.Stroke, anchor geom.XY) *canvas.Stroke {
	prev := l.Stroke
	l.Stroke = &s
	l.Gesture = t
	l.StartPoint = anchor
	return prev
}

// StartLaser begins a new laser stroke. Laser strokes are never committed.
func (l *LiveEdit) StartLaser(s canvas.Stroke) {
	l.Laser = append(l.Laser, s)
	l.Gesture = ToolLaser
}

// AddPoints extends the live gesture. Outline tools rebuild their stroke
// from the anchor to the first point.
func (l *LiveEdit) AddPoints(points []canvas.Point) {
	if len(points) == 0 {
		return
	}
	switch {
	case l.Gesture == ToolLaser:
		if n := len(l.Laser); n > 0 {
			l.Laser[n-1].AddPoints(points)
		}
	case l.Stroke == nil:
	case l.Gesture == ToolSquare:
		l.Stroke.MakeSquare(l.StartPoint, points[0].Pos)
	case l.Gesture == ToolCircle:
		l.Stroke.MakeCircle(l.StartPoint, points[0].Pos.Sub(l.StartPoint).Length())
	case l.Gesture == ToolArrow:
		l.Stroke.MakeArrow(l.StartPoint, points[0].Pos)
	case l.Gesture == ToolLine:
		l.Stroke.MakeLine(l.StartPoint, points[0].Pos)
	default:
		l.Stroke.AddPoints(points)
	}
}

// TakeStroke ends the gesture and hands back the live stroke.
func (l *LiveEdit) TakeStroke() *canvas.Stroke {
	s := l.Stroke
	l.Stroke = nil
	l.Gesture = ToolNone
	return s
}

// SetCaption makes c the live caption. skip is the committed caption it
// duplicates, or uuid.Nil for a new caption.
func (l *LiveEdit) SetCaption(c canvas.Caption, skip uuid.UUID) {
	l.Caption = &c
	l.SkipCaption = skip
	l.TextEntered = false
	l.drag = dragNone
}

// DropCaption forgets the live caption and any caption hover state.
func (l *LiveEdit) DropCaption() {
	l.Caption = nil
	l.SkipCaption = uuid.Nil
	l.TextEntered = false
	l.CommitPending = false
	l.drag = dragNone
	l.Hover = NotHovered
}

// BeginDrag starts moving or resizing the live caption according to the
// current hover state. It reports whether a drag began.
func (l *LiveEdit) BeginDrag(pointer geom.XY) bool {
	if l.Caption == nil {
		return false
	}
	switch l.Hover {
	case OnMoveHandle:
		l.drag = dragMove
		l.DragStart = pointer
		l.StartPoint = l.Caption.Position
		return true
	case OnResizeHandle:
		l.drag = dragResize
		l.DragStart = pointer
		l.StartPoint = geom.XY{X: l.Caption.WrapWidth}
		return true
	}
	return false
}

// Drag updates the live caption for a pointer at pointer. Resizing never
// shrinks the wrap width below minWrap.
func (l *LiveEdit) Drag(pointer geom.XY, minWrap float64) bool {
	if l.Caption == nil {
		return false
	}
	switch l.drag {
	case dragMove:
		l.Caption.SetPosition(geom.XY{
			X: l.StartPoint.X + pointer.X - l.DragStart.X,
			Y: l.StartPoint.Y + pointer.Y - l.DragStart.Y,
		})
		return true
	case dragResize:
		w := l.StartPoint.X + pointer.X - l.DragStart.X
		if w < minWrap {
			w = minWrap
		}
		l.Caption.SetWrapWidth(w)
		return true
	}
	return false
}

// EndDrag finishes a drag and reports whether one was in progress.
func (l *LiveEdit) EndDrag() bool {
	was := l.drag != dragNone
	l.drag = dragNone
	return was
}

// Dragging reports whether a caption drag is in progress.
func (l *LiveEdit) Dragging() bool {
	return l.drag != dragNone
}

// HoverState classifies p against caption c. Handles are squares of side
// handle in image units: move sits outside the top-left corner, resize
// outside the bottom-right and delete outside the top-right.
func HoverState(c canvas.Caption, p geom.XY, handle float64) HandleState {
	box := c.BoundingBox()
	in := func(minX, minY float64) bool {
		return p.X >= minX && p.X <= minX+handle && p.Y >= minY && p.Y <= minY+handle
	}
	switch {
	case in(box.Min.X-handle, box.Max.Y):
		return OnMoveHandle
	case in(box.Max.X, box.Min.Y-handle):
		return OnResizeHandle
	case in(box.Max.X, box.Max.Y):
		return OnDeleteHandle
	case box.Contains(p):
		return InCaptionArea
	}
	return NotHovered
}
