package coordinator

import (
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/render"
	"github.com/framereview/annotations/internal/session"
	"github.com/google/uuid"
)

// RenderData collects what the renderer draws over frameKey in viewport. It
// returns nil while drawings are hidden.
func (c *Coordinator) RenderData(viewport, frameKey string) *render.ImageRenderData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.hidden || c.viewportHidden[viewport] {
		return nil
	}

	d := render.NewImageRenderData(frameKey)

	bms, err := c.store.BookmarksOnFrame(frameKey)
	if err != nil {
		c.logger.Warn("Failed to list bookmarks for render", "frame", frameKey, "error", err)
	}
	for _, b := range bms {
		if b.Annotation == nil || b.Annotation.Canvas.Len() == 0 {
			continue
		}
		d.Committed = append(d.Committed, render.BookmarkItems{
			BookmarkID: b.ID,
			Items:      b.Annotation.Canvas.Items(),
		})
	}

	for _, l := range c.sessions {
		if l.FrameKey() != frameKey {
			continue
		}
		if l.Stroke != nil && len(l.Stroke.Points) > 0 {
			switch {
			case l.Stroke.Type != canvas.Erase:
				d.Strokes = append(d.Strokes, l.Stroke.Clone())
			case l.BookmarkID != uuid.Nil:
				d.AddEraseStroke(l.BookmarkID, l.Stroke.Clone())
			}
		}
		if l.Caption != nil {
			lc := render.LiveCaption{Caption: *l.Caption, Handle: session.NotHovered, CursorVisible: c.cursorVisible}
			if l.Viewport == viewport {
				lc.Handle = l.Hover
			}
			d.Captions = append(d.Captions, lc)
			if l.SkipCaption != uuid.Nil {
				d.SkipCaptions[l.SkipCaption] = struct{}{}
			}
		}
	}

	for user, h := range c.hovered {
		l, ok := c.sessions[user]
		if !ok || h.frameKey != frameKey || l.Viewport != viewport || l.Caption != nil {
			continue
		}
		d.HoveredCaptionBoxes = append(d.HoveredCaptionBoxes, h.box)
	}
	return d
}

// LaserRenderData returns the laser strokes of every user drawing over
// viewport.
func (c *Coordinator) LaserRenderData(viewport string) *render.LaserRenderData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d := &render.LaserRenderData{Viewport: viewport}
	if c.hidden {
		return d
	}
	for _, l := range c.sessions {
		if l.Viewport != viewport {
			continue
		}
		for _, s := range l.Laser {
			d.Strokes = append(d.Strokes, s.Clone())
		}
	}
	return d
}
