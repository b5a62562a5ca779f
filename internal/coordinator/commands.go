package coordinator

import (
	"context"
	"fmt"

	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/undo"
	"github.com/google/uuid"
)

func (c *Coordinator) undo(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.Caption != nil {
		c.clearLiveCaption(l)
	}

	id := c.history.BookmarkForNextUndo(user)
	ok := id != uuid.Nil && c.step(l, id, c.history.FrameForNextUndo(user), c.history.Undo)
	c.undos.Add(context.Background(), 1, outcome(ok))
	return nil
}

func (c *Coordinator) redo(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	id := c.history.BookmarkForNextRedo(user)
	ok := id != uuid.Nil && c.step(l, id, c.history.FrameForNextRedo(user), c.history.Redo)
	c.redos.Add(context.Background(), 1, outcome(ok))
	return nil
}

// step runs one undo or redo against a working copy of bookmark id. The
// bookmark's frame, or the frame the step recorded when the bookmark no
// longer exists, must be on screen.
func (c *Coordinator) step(l *session.LiveEdit, id uuid.UUID, frame string, run func(uuid.UUID, *undo.Target) bool) bool {
	var t undo.Target
	if b, err := c.store.Bookmark(id); err == nil {
		t.Annotation = b.Annotation.Clone()
		frame = b.FrameKey
	}
	if frame == "" || !c.frameOnScreen(frame) {
		c.logger.Debug("Bookmark for undo/redo is not on screen", "bookmark", id, "frame", frame, "user", l.UserID)
		return false
	}

	if !run(l.UserID, &t) {
		return false
	}

	b, err := c.store.Bookmark(id)
	if err != nil {
		// the step removed the bookmark
		c.publishAnnotation(id, frame, nil)
		if l.BookmarkID == id {
			l.BookmarkID = uuid.Nil
		}
		if c.edited == id {
			c.setEdited(uuid.Nil)
		}
		return true
	}
	c.saveAnnotation(id, b.FrameKey, t.Annotation)
	c.setEdited(id)
	return true
}

func (c *Coordinator) clear(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.Caption != nil {
		c.clearLiveCaption(l)
	}

	if l.BookmarkID == uuid.Nil || !l.HasImage {
		// not annotating anything: clear the hero image's annotation
		s, ok := c.screens[l.Viewport]
		if !ok || s.HeroIndex < 0 || s.HeroIndex >= len(s.Images) {
			return nil
		}
		hero := s.Images[s.HeroIndex]
		id, a := c.resolveBookmark(hero.FrameKey)
		if a == nil {
			return nil
		}
		l.Target(hero)
		l.BookmarkID = id
	}

	id := l.BookmarkID
	b, err := c.store.Bookmark(id)
	if err != nil {
		l.BookmarkID = uuid.Nil
		return nil
	}
	if b.Annotation == nil || !c.frameOnScreen(b.FrameKey) {
		return nil
	}

	t := undo.Target{Annotation: b.Annotation.Clone()}
	a := &undo.ClearAnnotation{
		FrameKey:      b.FrameKey,
		BookmarkID:    id,
		Bookmarks:     c.bookmarks,
		RemoveIfEmpty: b.Empty(),
	}
	if !c.history.Apply(user, id, &t, a, false) {
		c.logger.Warn("Failed to clear annotation", "bookmark", id, "user", user)
		return nil
	}

	if a.RemoveIfEmpty {
		c.publishAnnotation(id, b.FrameKey, nil)
		l.BookmarkID = uuid.Nil
		if c.edited == id {
			c.setEdited(uuid.Nil)
		}
		return nil
	}
	c.saveAnnotation(id, b.FrameKey, t.Annotation)
	return nil
}

func (c *Coordinator) toolChanged(user uuid.UUID, p parser.ToolChanged) error {
	l := c.session(user)
	tool, ok := session.ParseTool(p.Tool)
	if !ok {
		c.logger.Debug("Unknown tool, no tool selected", "tool", p.Tool, "user", user)
		tool = session.ToolNone
	}
	c.clearLiveCaption(l)
	l.Tool = tool
	return nil
}

func (c *Coordinator) setHidden(hidden bool) {
	c.hidden = hidden
}

func (c *Coordinator) setDisplayMode(p parser.DisplayMode) error {
	switch p.Mode {
	case DisplayAlways:
		c.showWhilePlaying = true
	case DisplayOnlyWhenPaused:
		c.showWhilePlaying = false
	default:
		return fmt.Errorf("unknown display mode %q", p.Mode)
	}
	for vp, s := range c.screens {
		c.viewportHidden[vp] = s.Playing && !c.showWhilePlaying
	}
	return nil
}
