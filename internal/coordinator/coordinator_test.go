package coordinator

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/broadcast"
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/config"
	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/storage"
	"github.com/framereview/annotations/internal/storage/memory"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/framereview/annotations/internal/transform"
	"github.com/framereview/annotations/pkg/streaming"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testViewport = "main"
	testFrame    = "shots/plate.1001.exr"
	otherFrame   = "shots/plate.1002.exr"
)

type fakeTimer struct{}

func (fakeTimer) Stop() bool { return false }

// fakeScheduler holds callbacks until fire is called.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	return fakeTimer{}
}

func (s *fakeScheduler) fire() {
	s.mu.Lock()
	due := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type harness struct {
	c     *Coordinator
	store *memory.Backend
	rec   *broadcast.Recorder
	sched *fakeScheduler
	user  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New(config.MemoryConfig{})
	require.NoError(t, store.Init())
	rec := broadcast.NewRecorder(nil)
	sched := &fakeScheduler{}

	c, err := New(Dependencies{
		Store:     store,
		Publisher: rec,
		Scheduler: sched,
		Config:    config.CoordinatorConfig{HideWhenPlaying: true},
	})
	require.NoError(t, err)
	c.imagesGoingOnScreen(screen(false, testFrame))

	return &harness{c: c, store: store, rec: rec, sched: sched, user: uuid.New()}
}

// screen shows frames stacked on top of each other with identity
// transforms, first frame in front. The image centre is pointer (0.5, 0.5).
func screen(playing bool, frames ...string) parser.ImagesOnScreen {
	s := parser.ImagesOnScreen{
		Viewport:          testViewport,
		ViewportTransform: transform.Identity(),
		Playing:           playing,
	}
	for i, f := range frames {
		s.Images = append(s.Images, parser.Image{FrameKey: f, Layout: transform.Identity(), Aspect: 16.0 / 9.0})
		s.DrawOrder = append(s.DrawOrder, i)
	}
	return s
}

func samples(pts ...geom.XY) []parser.PointerSample {
	out := make([]parser.PointerSample, len(pts))
	for i, p := range pts {
		out[i] = parser.PointerSample{Pos: p, Pressure: 1}
	}
	return out
}

func (h *harness) start(t *testing.T, user uuid.UUID, tool string, p geom.XY) {
	t.Helper()
	require.NoError(t, h.c.paintStart(user, parser.PaintStart{
		Viewport: testViewport,
		ItemType: tool,
		Points:   samples(p),
		Paint:    parser.Paint{Size: 0.01, RGBA: [4]float64{1, 0, 0, 1}},
	}))
}

func (h *harness) points(t *testing.T, user uuid.UUID, pts ...geom.XY) {
	t.Helper()
	require.NoError(t, h.c.paintPoint(user, parser.PaintPoint{Viewport: testViewport, Points: samples(pts...)}))
}

func (h *harness) end(t *testing.T, user uuid.UUID) {
	t.Helper()
	require.NoError(t, h.c.paintEnd(user, parser.ViewportCommand{Viewport: testViewport}))
}

// draw runs a whole gesture for the harness user.
func (h *harness) draw(t *testing.T, tool string, pts ...geom.XY) {
	t.Helper()
	h.start(t, h.user, tool, pts[0])
	if len(pts) > 1 {
		h.points(t, h.user, pts[1:]...)
	}
	h.end(t, h.user)
}

func (h *harness) bookmarks(t *testing.T) []storage.Bookmark {
	t.Helper()
	bms, err := h.store.Bookmarks()
	require.NoError(t, err)
	return bms
}

func (h *harness) interact(t *testing.T, user uuid.UUID, p geom.XY) {
	t.Helper()
	require.NoError(t, h.c.captionInteract(user, parser.CaptionPointer{Viewport: testViewport, Pointer: p, PixScale: 0.001}))
}

func (h *harness) typeText(t *testing.T, user uuid.UUID, text string) {
	t.Helper()
	require.NoError(t, h.c.captionTextEntry(user, parser.CaptionText{Viewport: testViewport, Text: text}))
}

func (h *harness) endEdit(t *testing.T, user uuid.UUID) {
	t.Helper()
	require.NoError(t, h.c.captionEndEdit(user, parser.ViewportCommand{Viewport: testViewport}))
}

var (
	centre = geom.XY{X: 0.5, Y: 0.5}
	right  = geom.XY{X: 0.6, Y: 0.5}
	upper  = geom.XY{X: 0.6, Y: 0.4}
	// inside a caption created at centre: image (0.25, -0.026)
	inCaption = geom.XY{X: 0.625, Y: 0.513}
)

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestPaint_StrokeCreatesBookmarkAndUndoRemovesIt(t *testing.T) {
	h := newHarness(t)

	h.draw(t, "Draw", centre, right, upper)

	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, testFrame, bms[0].FrameKey)
	assert.Equal(t, "plate", bms[0].Name)
	require.NotNil(t, bms[0].Annotation)
	items := bms[0].Annotation.Canvas.Items()
	require.Len(t, items, 1)
	s, ok := items[0].(canvas.Stroke)
	require.True(t, ok)
	assert.Len(t, s.Points, 3)
	assert.InDelta(t, 0.2, s.Points[1].Pos.X, 1e-9)
	assert.Equal(t, bms[0].ID, h.c.EditedBookmark())

	require.True(t, h.c.CanUndo(h.user))
	require.NoError(t, h.c.undo(h.user, parser.ViewportCommand{Viewport: testViewport}))
	assert.Empty(t, h.bookmarks(t))
	assert.Equal(t, uuid.Nil, h.c.EditedBookmark())

	require.True(t, h.c.CanRedo(h.user))
	require.NoError(t, h.c.redo(h.user, parser.ViewportCommand{Viewport: testViewport}))
	bms = h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, 1, bms[0].Annotation.Canvas.Len())
}

func TestPaint_UndoRedoAreInverse(t *testing.T) {
	h := newHarness(t)
	cmd := parser.ViewportCommand{Viewport: testViewport}

	h.draw(t, "Draw", centre, right)
	h.draw(t, "Draw", upper, right)
	before := h.bookmarks(t)[0].Annotation.Canvas.Clone()

	require.NoError(t, h.c.undo(h.user, cmd))
	assert.Equal(t, 1, h.bookmarks(t)[0].Annotation.Canvas.Len())
	require.NoError(t, h.c.redo(h.user, cmd))
	assert.True(t, before.ContentEqual(h.bookmarks(t)[0].Annotation.Canvas))
}

func TestPaint_UndoIsPerUser(t *testing.T) {
	h := newHarness(t)
	other := uuid.New()

	h.draw(t, "Draw", centre, right)
	assert.False(t, h.c.CanUndo(other))
	require.NoError(t, h.c.undo(other, parser.ViewportCommand{Viewport: testViewport}))
	assert.Equal(t, 1, h.bookmarks(t)[0].Annotation.Canvas.Len())
}

func TestPaint_UndoKeepsOtherUsersStrokes(t *testing.T) {
	h := newHarness(t)
	cmd := parser.ViewportCommand{Viewport: testViewport}
	other := uuid.New()

	h.draw(t, "Draw", centre, right)
	h.start(t, other, "Draw", upper)
	h.points(t, other, right)
	h.end(t, other)
	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	id := bms[0].ID
	require.Equal(t, 2, bms[0].Annotation.Canvas.Len())

	require.NoError(t, h.c.undo(h.user, cmd))
	bms = h.bookmarks(t)
	require.Len(t, bms, 1, "the other user's stroke keeps the bookmark")
	assert.Equal(t, id, bms[0].ID)
	items := bms[0].Annotation.Canvas.Items()
	require.Len(t, items, 1)
	assert.InDelta(t, 0.2, items[0].(canvas.Stroke).Points[0].Pos.X, 1e-9)

	require.NoError(t, h.c.redo(h.user, cmd))
	bms = h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, 2, bms[0].Annotation.Canvas.Len())

	require.NoError(t, h.c.undo(other, cmd))
	require.NoError(t, h.c.undo(h.user, cmd))
	assert.Empty(t, h.bookmarks(t))
}

func TestPaint_RedoNeedsFrameOnScreen(t *testing.T) {
	h := newHarness(t)
	cmd := parser.ViewportCommand{Viewport: testViewport}

	h.draw(t, "Draw", centre, right)
	require.NoError(t, h.c.undo(h.user, cmd))
	require.Empty(t, h.bookmarks(t))

	h.c.imagesGoingOnScreen(screen(false, otherFrame))
	require.NoError(t, h.c.redo(h.user, cmd))
	assert.Empty(t, h.bookmarks(t))
	assert.True(t, h.c.CanRedo(h.user))

	h.c.imagesGoingOnScreen(screen(false, testFrame))
	require.NoError(t, h.c.redo(h.user, cmd))
	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, testFrame, bms[0].FrameKey)
}

func TestPaint_UnsupportedTool(t *testing.T) {
	h := newHarness(t)
	err := h.c.paintStart(h.user, parser.PaintStart{Viewport: testViewport, ItemType: "Spray", Points: samples(centre)})
	assert.ErrorIs(t, err, ErrUnsupportedTool)
	err = h.c.paintStart(h.user, parser.PaintStart{Viewport: testViewport, ItemType: "Text", Points: samples(centre)})
	assert.ErrorIs(t, err, ErrUnsupportedTool)
}

func TestPaint_AtMostOneLiveStroke(t *testing.T) {
	h := newHarness(t)

	h.start(t, h.user, "Draw", centre)
	h.points(t, h.user, right)
	// a second start without an end commits the first stroke
	h.start(t, h.user, "Draw", upper)

	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, 1, bms[0].Annotation.Canvas.Len())

	d := h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Len(t, d.Strokes, 1)
	assert.Equal(t, session.Drawing, h.c.SessionState(h.user))
}

func TestPaint_EraseOverlayKeyedByBookmark(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)
	id := h.bookmarks(t)[0].ID

	h.start(t, h.user, "Erase", centre)
	h.points(t, h.user, right)

	d := h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Empty(t, d.Strokes)
	assert.Len(t, d.LiveEraseStrokes(id), 1)

	h.end(t, h.user)

	d = h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Empty(t, d.EraseStrokes)
	items := h.bookmarks(t)[0].Annotation.Canvas.Items()
	require.Len(t, items, 2)
	assert.Equal(t, canvas.Erase, items[1].(canvas.Stroke).Type)
}

func TestPaint_LiveStrokeBroadcast(t *testing.T) {
	h := newHarness(t)
	h.rec.Drain()

	h.start(t, h.user, "Draw", centre)
	h.end(t, h.user)

	live := broadcast.OfType(h.rec.Drain(), streaming.TypeLiveStroke)
	require.Len(t, live, 2)

	var first, last streaming.LiveStrokePayload
	require.NoError(t, json.Unmarshal(live[0].Payload, &first))
	require.NoError(t, json.Unmarshal(live[1].Payload, &last))
	assert.Equal(t, testFrame, first.FrameKey)
	assert.Equal(t, h.user.String(), first.UserID)
	assert.NotEqual(t, "null", string(first.Stroke))
	assert.True(t, len(last.Stroke) == 0 || string(last.Stroke) == "null")
}

func TestImagesGoingOnScreen_EvictsLiveEdits(t *testing.T) {
	h := newHarness(t)

	h.start(t, h.user, "Draw", centre)
	h.points(t, h.user, right)
	assert.NotEqual(t, uuid.Nil, h.c.EditedBookmark())

	h.c.imagesGoingOnScreen(screen(false, otherFrame))

	assert.Empty(t, h.bookmarks(t))
	assert.Equal(t, uuid.Nil, h.c.EditedBookmark())
	assert.Equal(t, session.Idle, h.c.SessionState(h.user))

	// the rest of the gesture has nothing to land on
	h.points(t, h.user, upper)
	h.end(t, h.user)
	assert.Empty(t, h.bookmarks(t))
}

func TestImagesGoingOnScreen_KeepsEditsOnShownFrame(t *testing.T) {
	h := newHarness(t)

	h.start(t, h.user, "Draw", centre)
	h.c.imagesGoingOnScreen(screen(false, testFrame, otherFrame))
	h.end(t, h.user)

	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, testFrame, bms[0].FrameKey)
}

func TestRenderData_HiddenWhilePlaying(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)

	h.c.imagesGoingOnScreen(screen(true, testFrame))
	assert.Nil(t, h.c.RenderData(testViewport, testFrame))

	require.NoError(t, h.c.setDisplayMode(parser.DisplayMode{Mode: DisplayAlways}))
	d := h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Len(t, d.VisibleItems(), 1)

	assert.Error(t, h.c.setDisplayMode(parser.DisplayMode{Mode: "Sometimes"}))
}

func TestRenderData_HideAndShowDrawings(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)

	h.c.setHidden(true)
	assert.Nil(t, h.c.RenderData(testViewport, testFrame))
	h.c.setHidden(false)
	assert.NotNil(t, h.c.RenderData(testViewport, testFrame))
}

func TestLaser_FadesOutAndIsNeverCommitted(t *testing.T) {
	h := newHarness(t)

	h.start(t, h.user, "Laser", centre)
	h.points(t, h.user, right)
	require.Len(t, h.c.LaserRenderData(testViewport).Strokes, 1)
	h.end(t, h.user)

	for i := 0; i < 200 && len(h.c.LaserRenderData(testViewport).Strokes) > 0; i++ {
		h.sched.fire()
		h.c.Drain()
	}
	assert.Empty(t, h.c.LaserRenderData(testViewport).Strokes)
	assert.False(t, h.c.fading)
	assert.Empty(t, h.bookmarks(t))
}

func TestLaser_NotErasedWhileDrawing(t *testing.T) {
	h := newHarness(t)

	h.start(t, h.user, "Laser", centre)
	for i := 0; i < 150; i++ {
		h.sched.fire()
		h.c.Drain()
	}
	assert.Len(t, h.c.LaserRenderData(testViewport).Strokes, 1)
}

func TestClear_RemovesEmptyBookmarkAndUndoRestoresIt(t *testing.T) {
	h := newHarness(t)
	cmd := parser.ViewportCommand{Viewport: testViewport}

	h.draw(t, "Draw", centre, right)
	h.draw(t, "Draw", upper, right)
	id := h.bookmarks(t)[0].ID

	require.NoError(t, h.c.clear(h.user, cmd))
	assert.Empty(t, h.bookmarks(t))

	require.NoError(t, h.c.undo(h.user, cmd))
	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	assert.Equal(t, id, bms[0].ID)
	assert.Equal(t, 2, bms[0].Annotation.Canvas.Len())
}

func TestClear_KeepsBookmarkWithNote(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	require.NoError(t, h.store.CreateBookmark(storage.Bookmark{ID: id, FrameKey: testFrame, Note: "fix the matte"}))

	h.draw(t, "Draw", centre, right)
	bm, err := h.store.Bookmark(id)
	require.NoError(t, err)
	require.Equal(t, 1, bm.Annotation.Canvas.Len())

	require.NoError(t, h.c.clear(h.user, parser.ViewportCommand{Viewport: testViewport}))
	bm, err = h.store.Bookmark(id)
	require.NoError(t, err)
	assert.Equal(t, 0, bm.Annotation.Canvas.Len())
}

func TestClear_UndoRestoresUnderLaterStrokes(t *testing.T) {
	h := newHarness(t)
	cmd := parser.ViewportCommand{Viewport: testViewport}
	id := uuid.New()
	require.NoError(t, h.store.CreateBookmark(storage.Bookmark{ID: id, FrameKey: testFrame, Note: "fix the matte"}))
	other := uuid.New()

	h.draw(t, "Draw", centre, right)
	require.NoError(t, h.c.clear(h.user, cmd))
	h.start(t, other, "Draw", upper)
	h.points(t, other, right)
	h.end(t, other)

	require.NoError(t, h.c.undo(h.user, cmd))
	bm, err := h.store.Bookmark(id)
	require.NoError(t, err)
	items := bm.Annotation.Canvas.Items()
	require.Len(t, items, 2)
	assert.InDelta(t, 0.0, items[0].(canvas.Stroke).Points[0].Pos.X, 1e-9)
	assert.InDelta(t, 0.2, items[1].(canvas.Stroke).Points[0].Pos.X, 1e-9)
}

func TestClear_FallsBackToHeroImage(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)

	other := uuid.New()
	require.NoError(t, h.c.clear(other, parser.ViewportCommand{Viewport: testViewport}))
	assert.Empty(t, h.bookmarks(t))
	assert.True(t, h.c.CanUndo(other))
}

func TestToolChanged_UnknownSelectsNone(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.c.toolChanged(h.user, parser.ToolChanged{Tool: "Colour Picker"}))
	assert.Equal(t, session.ColourPicking, h.c.SessionState(h.user))

	require.NoError(t, h.c.toolChanged(h.user, parser.ToolChanged{Tool: "Spray"}))
	assert.Equal(t, session.Idle, h.c.SessionState(h.user))
}

func TestCaption_EmptyCaptionIsDiscarded(t *testing.T) {
	h := newHarness(t)

	h.interact(t, h.user, centre)
	assert.Equal(t, session.CaptionIdle, h.c.SessionState(h.user))
	h.endEdit(t, h.user)

	assert.Empty(t, h.bookmarks(t))
	assert.Equal(t, session.Idle, h.c.SessionState(h.user))
}

func TestCaption_DebouncedCommitsCoalesce(t *testing.T) {
	h := newHarness(t)

	h.interact(t, h.user, centre)
	h.typeText(t, h.user, "h")
	h.typeText(t, h.user, "i")
	h.typeText(t, h.user, "!")
	assert.Empty(t, h.bookmarks(t))

	h.sched.fire()
	h.c.Drain()

	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	items := bms[0].Annotation.Canvas.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "hi!", items[0].(canvas.Caption).Text)
	assert.Equal(t, 1, h.c.history.Len(h.user))

	h.typeText(t, h.user, "?")
	h.sched.fire()
	h.c.Drain()
	assert.Equal(t, 2, h.c.history.Len(h.user))

	// nothing changed since the last commit
	h.endEdit(t, h.user)
	assert.Equal(t, 2, h.c.history.Len(h.user))
	assert.Equal(t, "hi!?", h.bookmarks(t)[0].Annotation.Canvas.Items()[0].(canvas.Caption).Text)
}

func TestCaption_EditingHidesCommittedCopy(t *testing.T) {
	h := newHarness(t)

	h.interact(t, h.user, centre)
	h.typeText(t, h.user, "hello")
	h.endEdit(t, h.user)
	bms := h.bookmarks(t)
	require.Len(t, bms, 1)
	committed := bms[0].Annotation.Canvas.Items()[0].(canvas.Caption)

	require.NoError(t, h.c.captionStartEdit(h.user, parser.CaptionPointer{Viewport: testViewport, Pointer: inCaption, PixScale: 0.001}))
	assert.Equal(t, session.CaptionIdle, h.c.SessionState(h.user))

	d := h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	require.Len(t, d.Captions, 1)
	assert.Equal(t, committed.ID, d.Captions[0].Caption.ID)
	assert.True(t, d.SkipCaption(committed.ID))
	assert.Empty(t, d.VisibleItems())

	h.endEdit(t, h.user)
	d = h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Len(t, d.VisibleItems(), 1)
}

func TestCaption_EditCommitsToOwningBookmark(t *testing.T) {
	h := newHarness(t)

	// the first bookmark on the frame is annotated, the caption lives in
	// the second
	first, second := uuid.New(), uuid.New()
	require.NoError(t, h.store.CreateBookmark(storage.Bookmark{ID: first, FrameKey: testFrame}))
	require.NoError(t, h.store.CreateBookmark(storage.Bookmark{ID: second, FrameKey: testFrame}))
	stroked := annotation.New()
	stroked.Canvas.AppendItem(canvas.NewPen(canvas.Red, 0.01, 0, 1))
	require.NoError(t, h.store.UpdateAnnotation(first, stroked))

	d := h.c.captions
	capt := canvas.NewCaption(geom.XY{}, d.WrapWidth, d.FontSize, colourOf(d.Colour), d.Opacity,
		textmetrics.JustifyLeft, d.FontName, colourOf(d.BackgroundColour), d.BackgroundOpacity)
	capt.ModifyText("hello")
	captioned := annotation.New()
	captioned.Canvas.AppendItem(capt)
	require.NoError(t, h.store.UpdateAnnotation(second, captioned))

	require.NoError(t, h.c.captionStartEdit(h.user, parser.CaptionPointer{Viewport: testViewport, Pointer: inCaption, PixScale: 0.001}))
	require.Equal(t, session.CaptionIdle, h.c.SessionState(h.user))
	h.typeText(t, h.user, "!")
	h.interact(t, h.user, geom.XY{X: 0.3, Y: 0.45})

	bm, err := h.store.Bookmark(second)
	require.NoError(t, err)
	_, edited, ok := bm.Annotation.Canvas.FindCaption(capt.ID)
	require.True(t, ok)
	assert.Len(t, edited.Text, 6)
	assert.Contains(t, edited.Text, "!")

	bm, err = h.store.Bookmark(first)
	require.NoError(t, err)
	_, _, ok = bm.Annotation.Canvas.FindCaption(capt.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, bm.Annotation.Canvas.Len())
}

func TestCaption_TextFromOtherViewportIgnored(t *testing.T) {
	h := newHarness(t)

	h.interact(t, h.user, centre)
	require.NoError(t, h.c.captionTextEntry(h.user, parser.CaptionText{Viewport: "secondary", Text: "x"}))
	h.endEdit(t, h.user)
	assert.Empty(t, h.bookmarks(t))
}

func TestCaption_HoverOverCommittedCaption(t *testing.T) {
	h := newHarness(t)

	h.interact(t, h.user, centre)
	h.typeText(t, h.user, "hello")
	h.endEdit(t, h.user)

	other := uuid.New()
	require.NoError(t, h.c.captionPointerHover(other, parser.CaptionPointer{Viewport: testViewport, Pointer: inCaption, PixScale: 0.001}))

	d := h.c.RenderData(testViewport, testFrame)
	require.NotNil(t, d)
	assert.Len(t, d.HoveredCaptionBoxes, 1)
}

func TestLogAttrs(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)

	attrs := h.c.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "editors", attrs[0].Key)
	assert.Equal(t, int64(1), attrs[0].Value.Int64())
	assert.Equal(t, "edited_bookmark", attrs[1].Key)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.draw(t, "Draw", centre, right)

	other := uuid.New()
	h.start(t, other, "Draw", centre)

	st := h.c.Status()
	assert.Equal(t, 2, st.Editors)
	assert.Equal(t, 1, st.Drawing)
	assert.Equal(t, 1, st.Bookmarks)
	assert.Equal(t, 0, st.Queued)
	assert.NotEmpty(t, st.EditedBookmark)
}
