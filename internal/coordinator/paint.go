package coordinator

import (
	"encoding/json"
	"fmt"

	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/undo"
	"github.com/framereview/annotations/pkg/streaming"
	"github.com/google/uuid"
)

func (c *Coordinator) paintStart(user uuid.UUID, p parser.PaintStart) error {
	l := c.session(user)
	setViewport(l, p.Viewport)
	if l.State() == session.ColourPicking {
		return nil
	}

	tool, ok := session.ParseTool(p.ItemType)
	if !ok || tool == session.ToolText || tool == session.ToolColourPicker {
		return fmt.Errorf("%w: %q", ErrUnsupportedTool, p.ItemType)
	}

	// a gesture that never saw PaintEnd is committed before the next starts
	if prev := l.TakeStroke(); prev != nil {
		c.commitStroke(l, *prev)
	}
	if l.Gesture == session.ToolLaser {
		l.Gesture = session.ToolNone
	}

	colour := canvas.Colour{R: p.Paint.RGBA[0], G: p.Paint.RGBA[1], B: p.Paint.RGBA[2]}
	opacity := p.Paint.RGBA[3]
	size := p.Paint.Size

	if tool == session.ToolLaser {
		l.StartLaser(canvas.NewBrush(colour, size, 0, opacity, 0, 1))
		l.AddPoints(c.viewportPoints(l, p.Points))
		c.startFade()
		c.publishLaser(l)
		return nil
	}

	if !c.pickImage(l, p.Points[0].Pos) {
		// nothing to draw on; the rest of the gesture is ignored
		return nil
	}

	var s canvas.Stroke
	switch tool {
	case session.ToolErase:
		s = canvas.NewErase(size)
	case session.ToolBrush:
		s = canvas.NewBrush(colour, size, p.Paint.Softness, opacity,
			p.Paint.SizeSensitivity, p.Paint.OpacitySensitivity)
	default:
		s = canvas.NewPen(colour, size, 0, opacity)
	}

	l.StartStroke(tool, s, c.imagePoint(l, p.Points[0].Pos))
	l.AddPoints(c.imagePoints(l, p.Points))
	c.publishLiveStroke(l, l.FrameKey(), l.Stroke)
	return nil
}

func (c *Coordinator) paintPoint(user uuid.UUID, p parser.PaintPoint) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	switch {
	case l.Gesture == session.ToolLaser:
		l.AddPoints(c.viewportPoints(l, p.Points))
		c.publishLaser(l)
	case l.Stroke != nil:
		l.AddPoints(c.imagePoints(l, p.Points))
		c.publishLiveStroke(l, l.FrameKey(), l.Stroke)
	}
	return nil
}

func (c *Coordinator) paintEnd(user uuid.UUID, p parser.ViewportCommand) error {
	l := c.session(user)
	setViewport(l, p.Viewport)

	if l.Gesture == session.ToolLaser {
		l.Gesture = session.ToolNone
		return nil
	}
	s := l.TakeStroke()
	if s == nil {
		return nil
	}
	frame := l.FrameKey()
	c.commitStroke(l, *s)
	c.publishLiveStroke(l, frame, nil)
	return nil
}

func (c *Coordinator) commitStroke(l *session.LiveEdit, s canvas.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	c.commit(l, undo.NewAddStroke(s))
}

func (c *Coordinator) imagePoints(l *session.LiveEdit, samples []parser.PointerSample) []canvas.Point {
	out := make([]canvas.Point, 0, len(samples))
	for _, s := range samples {
		out = append(out, canvas.Point{Pos: c.imagePoint(l, s.Pos), Pressure: s.Pressure})
	}
	return out
}

func (c *Coordinator) viewportPoints(l *session.LiveEdit, samples []parser.PointerSample) []canvas.Point {
	out := make([]canvas.Point, 0, len(samples))
	for _, s := range samples {
		out = append(out, canvas.Point{Pos: c.viewportPoint(l, s.Pos), Pressure: s.Pressure})
	}
	return out
}

// publishLiveStroke shares the in-progress stroke of l. A nil stroke means
// the gesture ended.
func (c *Coordinator) publishLiveStroke(l *session.LiveEdit, frame string, s *canvas.Stroke) {
	var raw json.RawMessage
	if s != nil {
		data, err := canvas.MarshalItem(*s)
		if err != nil {
			c.logger.Error("Failed to encode live stroke", "user", l.UserID, "error", err)
			return
		}
		raw = data
	}
	payload := streaming.LiveStrokePayload{
		UserID:   l.UserID.String(),
		FrameKey: frame,
		Stroke:   raw,
	}
	if l.BookmarkID != uuid.Nil {
		payload.BookmarkID = l.BookmarkID.String()
	}
	c.pub.Publish(streaming.TypeLiveStroke, payload)
}

func (c *Coordinator) publishLaser(l *session.LiveEdit) {
	strokes := make([]json.RawMessage, 0, len(l.Laser))
	for _, s := range l.Laser {
		data, err := canvas.MarshalItem(s)
		if err != nil {
			c.logger.Error("Failed to encode laser stroke", "user", l.UserID, "error", err)
			continue
		}
		strokes = append(strokes, data)
	}
	c.pub.Publish(streaming.TypeLaserStrokes, streaming.LaserStrokesPayload{
		UserID:   l.UserID.String(),
		Viewport: l.Viewport,
		Strokes:  strokes,
	})
}

// startFade arms the laser fade loop unless it is already running.
func (c *Coordinator) startFade() {
	if c.fading {
		return
	}
	c.fading = true
	c.after(c.cfg.FadeInterval, c.fadeTick)
}

// fadeTick fades every laser stroke one step. Invisible strokes are dropped
// unless their owner is still drawing with the laser. The loop re-arms
// itself until no laser stroke is left.
func (c *Coordinator) fadeTick() {
	remaining := 0
	for _, l := range c.sessions {
		if len(l.Laser) == 0 {
			continue
		}
		drawing := l.Gesture == session.ToolLaser
		kept := l.Laser[:0]
		for i := range l.Laser {
			gone := l.Laser[i].Fade(c.cfg.LaserFadeStep)
			if gone && !drawing {
				continue
			}
			kept = append(kept, l.Laser[i])
		}
		l.Laser = kept
		remaining += len(kept)
		c.publishLaser(l)
	}

	if remaining == 0 {
		c.fading = false
		return
	}
	c.after(c.cfg.FadeInterval, c.fadeTick)
}
