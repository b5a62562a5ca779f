package coordinator

import (
	"github.com/framereview/annotations/internal/dispatcher"
	"github.com/framereview/annotations/internal/parser"
	"github.com/google/uuid"
)

// RegisterHandlers registers every interaction event with the dispatcher.
// Payloads are parsed on the dispatching goroutine so a malformed event is
// reported to the caller; the work itself runs on the event loop.
func (c *Coordinator) RegisterHandlers(d *dispatcher.Dispatcher, p *parser.Parser) {
	// Drawing
	d.Register(parser.EventPaintStart, queued(c, p.ParsePaintStart, c.paintStart), dispatcher.Logged())
	d.Register(parser.EventPaintPoint, queued(c, p.ParsePaintPoint, c.paintPoint))
	d.Register(parser.EventPaintEnd, queued(c, named(parser.EventPaintEnd, p.ParseViewportCommand), c.paintEnd), dispatcher.Logged())

	// History
	d.Register(parser.EventPaintUndo, queued(c, named(parser.EventPaintUndo, p.ParseViewportCommand), c.undo), dispatcher.Logged())
	d.Register(parser.EventPaintRedo, queued(c, named(parser.EventPaintRedo, p.ParseViewportCommand), c.redo), dispatcher.Logged())
	d.Register(parser.EventPaintClear, queued(c, named(parser.EventPaintClear, p.ParseViewportCommand), c.clear), dispatcher.Logged())

	// Captions
	d.Register(parser.EventCaptionStartEdit, queued(c, named(parser.EventCaptionStartEdit, p.ParseCaptionPointer), c.captionStartEdit), dispatcher.Logged())
	d.Register(parser.EventCaptionInteract, queued(c, named(parser.EventCaptionInteract, p.ParseCaptionPointer), c.captionInteract), dispatcher.Logged())
	d.Register(parser.EventCaptionMove, queued(c, named(parser.EventCaptionMove, p.ParseCaptionPointer), c.captionMove))
	d.Register(parser.EventCaptionPointerHover, queued(c, named(parser.EventCaptionPointerHover, p.ParseCaptionPointer), c.captionPointerHover))
	d.Register(parser.EventCaptionEndMove, queued(c, named(parser.EventCaptionEndMove, p.ParseViewportCommand), c.captionEndMove), dispatcher.Logged())
	d.Register(parser.EventCaptionEndEdit, queued(c, named(parser.EventCaptionEndEdit, p.ParseViewportCommand), c.captionEndEdit), dispatcher.Logged())
	d.Register(parser.EventCaptionProperty, queued(c, p.ParseCaptionProperty, c.captionProperty), dispatcher.Logged())
	d.Register(parser.EventCaptionTextEntry, queued(c, p.ParseCaptionText, c.captionTextEntry))
	d.Register(parser.EventCaptionKeyPress, queued(c, p.ParseCaptionKey, c.captionKeyPress))

	// Viewer state
	d.Register(parser.EventToolChanged, queued(c, p.ParseToolChanged, c.toolChanged), dispatcher.Logged())
	d.Register(parser.EventSetDisplayMode, queued(c, p.ParseDisplayMode, func(_ uuid.UUID, m parser.DisplayMode) error {
		return c.setDisplayMode(m)
	}), dispatcher.Logged())
	d.Register(parser.EventHideDrawings, func(parser.Event) error {
		c.Post(func() { c.setHidden(true) })
		return nil
	}, dispatcher.Logged())
	d.Register(parser.EventShowDrawings, func(parser.Event) error {
		c.Post(func() { c.setHidden(false) })
		return nil
	}, dispatcher.Logged())
	d.Register(parser.EventImagesOnScreen, queued(c, p.ParseImagesOnScreen, func(_ uuid.UUID, s parser.ImagesOnScreen) error {
		c.imagesGoingOnScreen(s)
		return nil
	}), dispatcher.Logged())
}

// named adapts a parser that reports errors against an event name.
func named[T any](name string, parse func(string, []byte) (T, error)) func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		return parse(name, data)
	}
}

// queued builds a handler that parses the payload and queues apply onto the
// event loop. Errors from apply are logged there; the event is dropped.
func queued[T any](c *Coordinator, parse func([]byte) (T, error), apply func(uuid.UUID, T) error) dispatcher.HandlerFunc {
	return func(e parser.Event) error {
		v, err := parse(e.Payload)
		if err != nil {
			return err
		}
		user, name := e.UserID, e.Name
		c.Post(func() {
			if err := apply(user, v); err != nil {
				c.logger.Warn("Event dropped", "event", name, "user", user, "error", err)
			}
		})
		return nil
	}
}
