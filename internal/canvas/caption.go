package canvas

import (
	"unicode/utf8"

	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// Box is an axis aligned image space rectangle.
type Box = textmetrics.Box

// Justification of caption lines.
type Justification = textmetrics.Justification

// Key codes understood by Caption.MoveCursor. The values match the key
// codes sent by the viewer front end.
const (
	KeyLeft  = 16777234
	KeyUp    = 16777235
	KeyRight = 16777236
	KeyDown  = 16777237
	KeyHome  = 16777232
	KeyEnd   = 16777233
)

const (
	charBackspace = 8
	charDelete    = 127
)

// Caption is an editable block of wrapped text. Mutating methods keep the
// memoized layout current; the layout is rebuilt only when the content hash
// changes.
type Caption struct {
	ID                uuid.UUID
	Text              string
	Position          geom.XY
	WrapWidth         float64
	FontSize          float64
	FontName          string
	Colour            Colour
	Opacity           float64
	Justification     Justification
	BackgroundColour  Colour
	BackgroundOpacity float64

	cursor     int
	layoutHash uint64
	layout     textmetrics.Layout
}

// NewCaption returns an empty caption with its top-left corner at pos.
func NewCaption(pos geom.XY, wrapWidth, fontSize float64, colour Colour, opacity float64,
	just Justification, fontName string, bgColour Colour, bgOpacity float64) Caption {
	c := Caption{
		ID:                uuid.New(),
		Position:          pos,
		WrapWidth:         wrapWidth,
		FontSize:          fontSize,
		FontName:          fontName,
		Colour:            colour,
		Opacity:           opacity,
		Justification:     just,
		BackgroundColour:  bgColour,
		BackgroundOpacity: bgOpacity,
	}
	c.relayout()
	return c
}

func (c Caption) Kind() Kind { return KindCaption }

func (c Caption) clone() Item { return c }

// Hash covers every field that affects what the caption looks like.
func (c Caption) Hash() uint64 {
	h := newContentHasher()
	h.str(c.Text)
	h.xy(c.Position)
	h.float(c.WrapWidth)
	h.float(c.FontSize)
	h.str(c.FontName)
	h.uint(uint64(c.Justification))
	h.colour(c.Colour)
	h.float(c.Opacity)
	h.colour(c.BackgroundColour)
	h.float(c.BackgroundOpacity)
	return h.sum()
}

// Equal is content hash equality.
func (c Caption) Equal(o Caption) bool {
	return c.Hash() == o.Hash()
}

func (c *Caption) relayout() {
	hash := c.Hash()
	if hash == c.layoutHash && len(c.layout.Lines) > 0 {
		return
	}
	c.layoutHash = hash
	c.layout = textmetrics.Lookup(c.FontName).Layout(
		[]rune(c.Text), c.Position, c.WrapWidth, c.FontSize, c.Justification)
}

// Relayout refreshes the memoized layout after fields were assigned directly.
func (c *Caption) Relayout() {
	c.relayout()
}

// BoundingBox is the area the caption occupies.
func (c Caption) BoundingBox() Box {
	return c.layout.Bounds
}

// Glyphs are the render boxes of the visible characters.
func (c Caption) Glyphs() []textmetrics.Glyph {
	return c.layout.Glyphs
}

// Cursor is the rune offset of the text cursor.
func (c Caption) Cursor() int {
	return c.cursor
}

// CursorScreenPosition returns the top and bottom of the cursor line.
func (c Caption) CursorScreenPosition() (top, bottom geom.XY) {
	return c.layout.CursorAt(c.cursor)
}

// SetCursorFromPosition moves the cursor to the boundary closest to p.
func (c *Caption) SetCursorFromPosition(p geom.XY) {
	c.cursor = c.layout.IndexAt(p)
}

// SetCursor places the cursor at a rune offset, clamped to the text.
func (c *Caption) SetCursor(idx int) {
	n := utf8.RuneCountInString(c.Text)
	switch {
	case idx < 0:
		idx = 0
	case idx > n:
		idx = n
	}
	c.cursor = idx
}

// MoveCursor handles a navigation key. Unknown keys are ignored.
func (c *Caption) MoveCursor(key int) {
	switch key {
	case KeyLeft:
		c.SetCursor(c.cursor - 1)
	case KeyRight:
		c.SetCursor(c.cursor + 1)
	case KeyHome:
		c.cursor = 0
	case KeyEnd:
		c.cursor = utf8.RuneCountInString(c.Text)
	case KeyUp:
		c.cursor = c.layout.LineAbove(c.cursor)
	case KeyDown:
		c.cursor = c.layout.LineBelow(c.cursor)
	}
}

// ModifyText applies typed input at the cursor. Backspace (8) removes the
// rune before the cursor, delete (127) the rune after it; printable runes
// and line breaks are inserted. Other control characters are ignored.
func (c *Caption) ModifyText(input string) {
	text := []rune(c.Text)
	if c.cursor > len(text) {
		c.cursor = len(text)
	}
	for _, r := range input {
		switch {
		case r == charBackspace:
			if c.cursor > 0 {
				text = append(text[:c.cursor-1], text[c.cursor:]...)
				c.cursor--
			}
		case r == charDelete:
			if c.cursor < len(text) {
				text = append(text[:c.cursor], text[c.cursor+1:]...)
			}
		case r >= 32 || r == '\r' || r == '\n':
			text = append(text[:c.cursor], append([]rune{r}, text[c.cursor:]...)...)
			c.cursor++
		}
	}
	c.Text = string(text)
	c.relayout()
}

// SetPosition moves the caption's top-left corner.
func (c *Caption) SetPosition(p geom.XY) {
	c.Position = p
	c.relayout()
}

// SetWrapWidth changes the wrap width.
func (c *Caption) SetWrapWidth(w float64) {
	c.WrapWidth = w
	c.relayout()
}

// SetFontSize changes the font size.
func (c *Caption) SetFontSize(size float64) {
	c.FontSize = size
	c.relayout()
}

// SetFontName switches the text metrics used for layout.
func (c *Caption) SetFontName(name string) {
	c.FontName = name
	c.relayout()
}

// SetJustification changes line alignment.
func (c *Caption) SetJustification(j Justification) {
	c.Justification = j
	c.relayout()
}

// SetColour changes the text colour.
func (c *Caption) SetColour(col Colour) {
	c.Colour = col
	c.relayout()
}

// SetOpacity changes the text opacity.
func (c *Caption) SetOpacity(o float64) {
	c.Opacity = o
	c.relayout()
}

// SetBackgroundColour changes the background colour.
func (c *Caption) SetBackgroundColour(col Colour) {
	c.BackgroundColour = col
	c.relayout()
}

// SetBackgroundOpacity changes the background opacity.
func (c *Caption) SetBackgroundOpacity(o float64) {
	c.BackgroundOpacity = o
	c.relayout()
}
