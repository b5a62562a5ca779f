package coordinator

import (
	"context"

	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/transform"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// ImagesGoingOnScreen records what a viewport now displays. Live edits on
// frames that are no longer shown are discarded.
func (c *Coordinator) ImagesGoingOnScreen(s parser.ImagesOnScreen) {
	c.Post(func() { c.imagesGoingOnScreen(s) })
}

func (c *Coordinator) imagesGoingOnScreen(s parser.ImagesOnScreen) {
	c.screens[s.Viewport] = s
	c.viewportHidden[s.Viewport] = s.Playing && !c.showWhilePlaying

	evicted := false
	for _, l := range c.sessions {
		if l.Viewport != s.Viewport || !l.HasImage || l.Gesture == session.ToolLaser {
			continue
		}
		if img, ok := findImage(s, l.Image.FrameKey); ok {
			// same frame, possibly a new layout
			l.Image = img
			continue
		}
		c.evict(l)
		evicted = true
	}

	if evicted && c.edited != uuid.Nil && !c.bookmarkOnScreen(c.edited) {
		c.setEdited(uuid.Nil)
	}
}

// evict drops a live edit without committing it.
func (c *Coordinator) evict(l *session.LiveEdit) {
	frame := l.FrameKey()
	hadStroke := l.TakeStroke() != nil
	l.DropCaption()
	l.HasImage = false
	l.BookmarkID = uuid.Nil
	delete(c.hovered, l.UserID)
	if hadStroke {
		c.publishLiveStroke(l, frame, nil)
	}
	c.evictions.Add(context.Background(), 1)
	c.logger.Debug("Discarded live edit, frame left the screen", "user", l.UserID, "frame", frame)
}

func (c *Coordinator) bookmarkOnScreen(id uuid.UUID) bool {
	b, err := c.store.Bookmark(id)
	if err != nil {
		return false
	}
	return c.frameOnScreen(b.FrameKey)
}

func findImage(s parser.ImagesOnScreen, frameKey string) (parser.Image, bool) {
	for _, img := range s.Images {
		if img.FrameKey == frameKey {
			return img, true
		}
	}
	return parser.Image{}, false
}

func pointerToImage(s parser.ImagesOnScreen, img parser.Image, pointer geom.XY) (geom.XY, bool) {
	return transform.PointerToImage(pointer, s.ViewportTransform, img.Layout, img.Aspect)
}

// imageUnderPointer hit-tests the images front to back.
func imageUnderPointer(s parser.ImagesOnScreen, pointer geom.XY) (parser.Image, bool) {
	for _, idx := range s.DrawOrder {
		if idx < 0 || idx >= len(s.Images) {
			continue
		}
		img := s.Images[idx]
		if _, hit := pointerToImage(s, img, pointer); hit {
			return img, true
		}
	}
	return parser.Image{}, false
}

// pickImage points the live edit at the image under pointer. With no hit
// the current target is kept while it is still shown, otherwise the hero
// image is used. It reports false when the viewport shows nothing.
func (c *Coordinator) pickImage(l *session.LiveEdit, pointer geom.XY) bool {
	s, ok := c.screens[l.Viewport]
	if !ok {
		return false
	}

	img, hit := imageUnderPointer(s, pointer)
	if !hit {
		if cur, still := findImage(s, l.FrameKey()); still {
			img = cur
		} else if s.HeroIndex >= 0 && s.HeroIndex < len(s.Images) {
			img = s.Images[s.HeroIndex]
		} else {
			return false
		}
	}

	// a live caption is committed to the bookmark it was targeting
	if l.Caption != nil || (l.HasImage && img.FrameKey != l.Image.FrameKey) {
		c.clearLiveCaption(l)
	}
	l.Target(img)

	id, _ := c.resolveBookmark(img.FrameKey)
	l.BookmarkID = id
	if id == uuid.Nil {
		// collaborators learn the id the bookmark will get
		c.setEdited(c.nextBookmark)
	} else {
		c.setEdited(id)
	}
	return true
}

func (c *Coordinator) viewportTransform(l *session.LiveEdit) transform.Mat4 {
	if s, ok := c.screens[l.Viewport]; ok {
		return s.ViewportTransform
	}
	return transform.Identity()
}

// imagePoint maps a pointer into the space of the targeted image.
func (c *Coordinator) imagePoint(l *session.LiveEdit, pointer geom.XY) geom.XY {
	p, _ := transform.PointerToImage(pointer, c.viewportTransform(l), l.Image.Layout, l.Image.Aspect)
	return p
}

// viewportPoint maps a pointer into viewport space.
func (c *Coordinator) viewportPoint(l *session.LiveEdit, pointer geom.XY) geom.XY {
	p, _ := transform.PointerToViewport(pointer, c.viewportTransform(l))
	return p
}
