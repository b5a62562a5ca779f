package coordinator

import (
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/framereview/annotations/internal/undo"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

func colourOf(c [3]float64) canvas.Colour {
	return canvas.Colour{R: c[0], G: c[1], B: c[2]}
}

// pressLiveCaption handles a press while a caption is live: inside its box
// the cursor moves, on a handle a drag starts or the caption is deleted.
// It reports whether the press was consumed.
func (c *Coordinator) pressLiveCaption(l *session.LiveEdit, pointer geom.XY) bool {
	if l.Caption == nil {
		return false
	}
	pos := c.imagePoint(l, pointer)
	switch {
	case l.Hover == session.OnDeleteHandle:
		c.removeLiveCaption(l)
		return true
	case l.BeginDrag(pos):
		return true
	case l.Caption.BoundingBox().Contains(pos):
		l.Caption.SetCursorFromPosition(pos)
		c.startBlink()
		return true
	}
	return false
}

// editCommittedCaption starts editing a copy of the committed caption under
// pointer. It reports false when there is none.
func (c *Coordinator) editCommittedCaption(l *session.LiveEdit, pointer geom.XY) bool {
	pos := c.imagePoint(l, pointer)
	bookmark, capt, ok := c.captionUnderPointer(l.FrameKey(), pos, l.SkipCaption)
	if !ok {
		return false
	}
	c.clearLiveCaption(l)
	capt.SetCursorFromPosition(pos)
	l.SetCaption(capt, capt.ID)
	l.BookmarkID = bookmark
	c.setEdited(bookmark)
	c.startBlink()
	return true
}

func (c *Coordinator) captionStartEdit(user uuid.UUID, p parser.CaptionPointer) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	if c.pressLiveCaption(l, p.Pointer) {
		return nil
	}
	if !c.pickImage(l, p.Pointer) {
		return nil
	}
	c.editCommittedCaption(l, p.Pointer)
	return nil
}

func (c *Coordinator) captionInteract(user uuid.UUID, p parser.CaptionPointer) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	if c.pressLiveCaption(l, p.Pointer) {
		return nil
	}
	if !c.pickImage(l, p.Pointer) {
		return nil
	}
	if c.editCommittedCaption(l, p.Pointer) {
		return nil
	}

	// nothing hit: commit what was being typed and start a new caption
	c.clearLiveCaption(l)
	pos := c.imagePoint(l, p.Pointer)
	d := c.captions
	capt := canvas.NewCaption(pos, d.WrapWidth, d.FontSize, colourOf(d.Colour), d.Opacity,
		textmetrics.JustifyLeft, d.FontName, colourOf(d.BackgroundColour), d.BackgroundOpacity)
	capt.SetCursorFromPosition(pos)
	l.SetCaption(capt, uuid.Nil)
	c.startBlink()
	return nil
}

func (c *Coordinator) captionMove(user uuid.UUID, p parser.CaptionPointer) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.Caption == nil {
		return nil
	}
	l.Drag(c.imagePoint(l, p.Pointer), c.cfg.CaptionMinWrapWidth)
	return nil
}

func (c *Coordinator) captionEndMove(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.EndDrag() {
		c.pushCaption(l)
	}
	return nil
}

func (c *Coordinator) captionProperty(user uuid.UUID, p parser.CaptionProperty) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.Caption == nil {
		return nil
	}

	capt := l.Caption
	if p.FontName != nil {
		capt.SetFontName(*p.FontName)
	}
	if p.FontSize != nil {
		capt.SetFontSize(*p.FontSize)
	}
	if p.Colour != nil {
		capt.SetColour(colourOf(*p.Colour))
	}
	if p.Opacity != nil {
		capt.SetOpacity(*p.Opacity)
	}
	if p.WrapWidth != nil {
		capt.SetWrapWidth(max(*p.WrapWidth, c.cfg.CaptionMinWrapWidth))
	}
	if p.Justification != nil {
		capt.SetJustification(textmetrics.Justification(*p.Justification))
	}
	if p.BackgroundColour != nil {
		capt.SetBackgroundColour(colourOf(*p.BackgroundColour))
	}
	if p.BackgroundOpacity != nil {
		capt.SetBackgroundOpacity(*p.BackgroundOpacity)
	}
	c.scheduleCommit(l)
	return nil
}

// Typed text and cursor keys only reach the caption from the viewport the
// user is editing in.
func sameViewport(l *session.LiveEdit, viewport string) bool {
	return viewport == "" || viewport == l.Viewport
}

func (c *Coordinator) captionTextEntry(user uuid.UUID, p parser.CaptionText) error {
	l := c.session(user)
	if l.Caption == nil {
		return nil
	}
	if sameViewport(l, p.Viewport) {
		l.Caption.ModifyText(p.Text)
		l.TextEntered = true
		c.cursorVisible = true
	}
	c.scheduleCommit(l)
	return nil
}

func (c *Coordinator) captionKeyPress(user uuid.UUID, p parser.CaptionKey) error {
	l := c.session(user)
	if l.Caption == nil || !sameViewport(l, p.Viewport) {
		return nil
	}
	l.Caption.MoveCursor(p.Key)
	c.cursorVisible = true
	return nil
}

func (c *Coordinator) captionEndEdit(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	c.clearLiveCaption(l)
	return nil
}

func (c *Coordinator) captionPointerHover(user uuid.UUID, p parser.CaptionPointer) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	l.Hover = session.NotHovered
	delete(c.hovered, user)

	if l.Caption != nil {
		handle := c.cfg.HandleSize * p.PixScale
		l.Hover = session.HoverState(*l.Caption, c.imagePoint(l, p.Pointer), handle)
	}
	if l.Hover != session.NotHovered {
		return nil
	}

	s, ok := c.screens[l.Viewport]
	if !ok {
		return nil
	}
	img, hit := imageUnderPointer(s, p.Pointer)
	if !hit {
		return nil
	}
	pos, _ := pointerToImage(s, img, p.Pointer)
	if _, capt, found := c.captionUnderPointer(img.FrameKey, pos, l.SkipCaption); found {
		l.Hover = session.InCaptionArea
		c.hovered[user] = hoveredCaption{frameKey: img.FrameKey, box: capt.BoundingBox()}
	}
	return nil
}

// captionUnderPointer finds a committed caption on frameKey containing pos,
// ignoring skip.
func (c *Coordinator) captionUnderPointer(frameKey string, pos geom.XY, skip uuid.UUID) (uuid.UUID, canvas.Caption, bool) {
	if frameKey == "" {
		return uuid.Nil, canvas.Caption{}, false
	}
	bms, err := c.store.BookmarksOnFrame(frameKey)
	if err != nil {
		c.logger.Warn("Failed to list bookmarks", "frame", frameKey, "error", err)
		return uuid.Nil, canvas.Caption{}, false
	}
	for _, b := range bms {
		if b.Annotation == nil {
			continue
		}
		for _, it := range b.Annotation.Canvas.Items() {
			capt, ok := it.(canvas.Caption)
			if !ok || capt.ID == skip {
				continue
			}
			if capt.BoundingBox().Contains(pos) {
				return b.ID, capt, true
			}
		}
	}
	return uuid.Nil, canvas.Caption{}, false
}

// pushCaption commits the live caption. Captions without text are never
// committed.
func (c *Coordinator) pushCaption(l *session.LiveEdit) {
	l.CommitPending = false
	if l.Caption == nil || l.Caption.Text == "" {
		return
	}
	if c.captionUnchanged(l) {
		return
	}
	if c.commit(l, undo.NewModifyOrAddCaption(*l.Caption)) {
		l.SkipCaption = l.Caption.ID
	}
}

func (c *Coordinator) captionUnchanged(l *session.LiveEdit) bool {
	if l.SkipCaption != l.Caption.ID || l.BookmarkID == uuid.Nil {
		return false
	}
	b, err := c.store.Bookmark(l.BookmarkID)
	if err != nil || b.Annotation == nil {
		return false
	}
	_, committed, ok := b.Annotation.Canvas.FindCaption(l.Caption.ID)
	return ok && committed.Equal(*l.Caption)
}

// clearLiveCaption commits the live caption, if any, and stops editing it.
func (c *Coordinator) clearLiveCaption(l *session.LiveEdit) {
	c.pushCaption(l)
	l.DropCaption()
	delete(c.hovered, l.UserID)
}

// removeLiveCaption deletes the live caption. When it was already committed
// the deletion is an undoable step.
func (c *Coordinator) removeLiveCaption(l *session.LiveEdit) {
	if l.SkipCaption != uuid.Nil && l.BookmarkID != uuid.Nil {
		c.commit(l, undo.NewDeleteCaption(l.SkipCaption))
	}
	l.DropCaption()
	delete(c.hovered, l.UserID)
}

// scheduleCommit arms the debounced commit for l. Further edits before it
// fires are folded into the same commit.
func (c *Coordinator) scheduleCommit(l *session.LiveEdit) {
	if l.CommitPending {
		return
	}
	l.CommitPending = true
	user := l.UserID
	c.after(c.cfg.Debounce, func() { c.flushPending(user) })
}

func (c *Coordinator) flushPending(user uuid.UUID) {
	l, ok := c.sessions[user]
	if !ok || !l.CommitPending {
		return
	}
	c.pushCaption(l)
}

func (c *Coordinator) startBlink() {
	c.cursorVisible = true
	if c.blinking {
		return
	}
	c.blinking = true
	c.after(c.cfg.BlinkInterval, c.blinkTick)
}

func (c *Coordinator) blinkTick() {
	editing := false
	for _, l := range c.sessions {
		if l.Caption != nil {
			editing = true
			break
		}
	}
	if !editing {
		c.blinking = false
		c.cursorVisible = true
		return
	}
	c.cursorVisible = !c.cursorVisible
	c.after(c.cfg.BlinkInterval, c.blinkTick)
}
