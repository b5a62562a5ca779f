package coordinator

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/framereview/annotations/internal/dispatcher"
	"github.com/framereview/annotations/internal/parser"
	"github.com/google/uuid"
)

func newDispatcher(t *testing.T, c *Coordinator) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(slog.Default())
	if err != nil {
		t.Fatalf("dispatcher.New: %v", err)
	}
	c.RegisterHandlers(d, parser.NewParser(slog.Default()))
	return d
}

func TestRegisterHandlers_AllEvents(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h.c)

	for _, name := range []string{
		parser.EventPaintStart, parser.EventPaintPoint, parser.EventPaintEnd,
		parser.EventPaintUndo, parser.EventPaintRedo, parser.EventPaintClear,
		parser.EventCaptionStartEdit, parser.EventCaptionMove, parser.EventCaptionEndMove,
		parser.EventCaptionProperty, parser.EventCaptionTextEntry, parser.EventCaptionEndEdit,
		parser.EventCaptionKeyPress, parser.EventCaptionInteract, parser.EventCaptionPointerHover,
		parser.EventToolChanged, parser.EventHideDrawings, parser.EventShowDrawings,
		parser.EventSetDisplayMode, parser.EventImagesOnScreen,
	} {
		if !d.HasHandler(name) {
			t.Errorf("no handler registered for %s", name)
		}
	}
}

func TestRegisterHandlers_ReplayedGesture(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h.c)
	user := uuid.New()

	lines := []string{
		`{"event":"ImagesOnScreen","user_id":"%s","payload":{"viewport":"main","images":[{"frame_key":"shots/plate.1001.exr","aspect":1.7777777777777777}],"hero_index":0}}`,
		`{"event":"PaintStart","user_id":"%s","payload":{"viewport":"main","item_type":"Draw","point":{"x":0.5,"y":0.5,"pressure":1},"paint":{"size":0.01,"rgba":[1,0,0,1]}}}`,
		`{"event":"PaintPoint","user_id":"%s","payload":{"viewport":"main","points":[{"x":0.6,"y":0.5},{"x":0.6,"y":0.4}]}}`,
		`{"event":"PaintEnd","user_id":"%s","payload":{"viewport":"main"}}`,
	}
	for _, l := range lines {
		e, err := parser.ParseEvent([]byte(fmt.Sprintf(l, user)))
		if err != nil {
			t.Fatalf("ParseEvent: %v", err)
		}
		if err := d.Dispatch(e); err != nil {
			t.Fatalf("Dispatch %s: %v", e.Name, err)
		}
	}
	h.c.Drain()

	bms, err := h.store.Bookmarks()
	if err != nil {
		t.Fatal(err)
	}
	if len(bms) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bms))
	}
	if n := bms[0].Annotation.Canvas.Len(); n != 1 {
		t.Errorf("expected 1 committed stroke, got %d", n)
	}
	if !h.c.CanUndo(user) {
		t.Error("expected the gesture to be undoable")
	}

	undo, err := parser.ParseEvent([]byte(fmt.Sprintf(`{"event":"PaintUndo","user_id":"%s","payload":{"viewport":"main"}}`, user)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Dispatch(undo); err != nil {
		t.Fatal(err)
	}
	h.c.Drain()

	if bms, _ := h.store.Bookmarks(); len(bms) != 0 {
		t.Errorf("expected undo to remove the bookmark, %d left", len(bms))
	}
}

func TestRegisterHandlers_MalformedPayloadIsRejected(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h.c)

	e := parser.Event{Name: parser.EventPaintStart, UserID: uuid.New(), Payload: []byte(`{"viewport":"main"}`)}
	if err := d.Dispatch(e); err == nil {
		t.Error("expected PaintStart without item_type to be rejected")
	}
	if n := h.c.inbox.Len(); n != 0 {
		t.Errorf("nothing should be queued for a rejected event, got %d", n)
	}
}

func TestRegisterHandlers_ApplyErrorIsLoggedNotReturned(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h.c)

	e := parser.Event{
		Name:    parser.EventPaintStart,
		UserID:  uuid.New(),
		Payload: []byte(`{"viewport":"main","item_type":"Spray","point":{"x":0.5,"y":0.5}}`),
	}
	if err := d.Dispatch(e); err != nil {
		t.Fatalf("parse succeeded, dispatch should not fail: %v", err)
	}
	h.c.Drain()
	if bms, _ := h.store.Bookmarks(); len(bms) != 0 {
		t.Errorf("unsupported tool must not create bookmarks, got %d", len(bms))
	}
}
