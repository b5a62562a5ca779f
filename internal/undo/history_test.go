package undo

import (
	"errors"
	"testing"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookmarks struct {
	live    map[uuid.UUID]string
	failNew bool
}

func newFakeBookmarks() *fakeBookmarks {
	return &fakeBookmarks{live: map[uuid.UUID]string{}}
}

func (f *fakeBookmarks) CreateBookmark(frameKey string, id uuid.UUID) error {
	if f.failNew {
		return errors.New("store unavailable")
	}
	f.live[id] = frameKey
	return nil
}

func (f *fakeBookmarks) RemoveBookmark(id uuid.UUID) error {
	if _, ok := f.live[id]; !ok {
		return errors.New("not found")
	}
	delete(f.live, id)
	return nil
}

func stroke(x float64) canvas.Stroke {
	s := canvas.NewPen(canvas.Red, 0.01, 0, 1)
	s.AddPoint(geom.XY{X: x, Y: 0}, 1)
	s.AddPoint(geom.XY{X: x, Y: 0.1}, 1)
	return s
}

func caption(text string) canvas.Caption {
	c := canvas.NewCaption(geom.XY{}, 0.5, 50, canvas.Red, 1, textmetrics.JustifyLeft, "", canvas.Black, 0.5)
	c.ModifyText(text)
	return c
}

func TestHistory_UndoRedoInverse(t *testing.T) {
	h := NewHistory()
	user, bm := uuid.New(), uuid.New()
	target := &Target{Annotation: annotation.New()}

	require.True(t, h.Apply(user, bm, target, NewAddStroke(stroke(0)), false))
	require.True(t, h.Apply(user, bm, target, NewAddStroke(stroke(1)), false))
	assert.Equal(t, 2, target.Annotation.Canvas.Len())

	require.True(t, h.Undo(user, target))
	afterUndo := target.Annotation.Canvas.Clone()
	require.True(t, h.Redo(user, target))
	assert.Equal(t, 2, target.Annotation.Canvas.Len())
	require.True(t, h.Undo(user, target))
	assert.True(t, afterUndo.ContentEqual(target.Annotation.Canvas))
}

func TestHistory_EmptyIsNoop(t *testing.T) {
	h := NewHistory()
	user := uuid.New()
	target := &Target{Annotation: annotation.New()}

	assert.False(t, h.Undo(user, target))
	assert.False(t, h.Redo(user, target))
	assert.Equal(t, uuid.Nil, h.BookmarkForNextUndo(user))
	assert.Equal(t, uuid.Nil, h.BookmarkForNextRedo(user))
}

func TestHistory_AddDropsRedo(t *testing.T) {
	h := NewHistory()
	user, bm := uuid.New(), uuid.New()
	target := &Target{Annotation: annotation.New()}

	h.Apply(user, bm, target, NewAddStroke(stroke(0)), false)
	h.Apply(user, bm, target, NewAddStroke(stroke(1)), false)
	h.Undo(user, target)
	assert.True(t, h.CanRedo(user))

	h.Apply(user, bm, target, NewAddStroke(stroke(2)), false)
	assert.False(t, h.CanRedo(user))
	assert.Equal(t, 2, h.Len(user))
}

func TestHistory_PerUser(t *testing.T) {
	h := NewHistory()
	alice, bob, bm := uuid.New(), uuid.New(), uuid.New()
	target := &Target{Annotation: annotation.New()}

	h.Apply(alice, bm, target, NewAddStroke(stroke(0)), false)
	h.Apply(bob, bm, target, NewAddStroke(stroke(1)), false)

	require.True(t, h.Undo(alice, target))
	require.Equal(t, 1, target.Annotation.Canvas.Len())
	item, _ := target.Annotation.Canvas.At(0)
	assert.True(t, canvas.ItemsEqual(stroke(1), item), "bob's stroke survives alice's undo")
	assert.False(t, h.CanUndo(alice))
	assert.True(t, h.CanUndo(bob))
}

func TestHistory_ConcatIsOneStep(t *testing.T) {
	h := NewHistory()
	books := newFakeBookmarks()
	user, bm := uuid.New(), uuid.New()
	target := &Target{}

	require.True(t, h.Apply(user, bm, target, &CreateBookmark{FrameKey: "f1", BookmarkID: bm, Bookmarks: books}, false))
	require.NotNil(t, target.Annotation)
	require.True(t, h.Apply(user, bm, target, NewAddStroke(stroke(0)), true))
	assert.Equal(t, 1, h.Len(user))
	assert.Contains(t, books.live, bm)

	require.True(t, h.Undo(user, target))
	assert.NotContains(t, books.live, bm)
	assert.Equal(t, 0, target.Annotation.Canvas.Len())

	// the bookmark is gone, so redo starts from no annotation
	redoTarget := &Target{}
	require.True(t, h.Redo(user, redoTarget))
	assert.Contains(t, books.live, bm)
	require.NotNil(t, redoTarget.Annotation)
	assert.Equal(t, 1, redoTarget.Annotation.Canvas.Len())
}

func TestHistory_UnresolvedTargetRestoresPosition(t *testing.T) {
	h := NewHistory()
	user, bm := uuid.New(), uuid.New()
	target := &Target{Annotation: annotation.New()}
	h.Apply(user, bm, target, NewAddStroke(stroke(0)), false)

	assert.False(t, h.Undo(user, &Target{}))
	assert.True(t, h.CanUndo(user), "position unchanged")
	assert.Equal(t, bm, h.BookmarkForNextUndo(user))

	require.True(t, h.Undo(user, target))
	assert.Equal(t, bm, h.BookmarkForNextRedo(user))
	assert.False(t, h.Redo(user, &Target{}))
	assert.True(t, h.CanRedo(user))
}

func TestHistory_ConcatWithoutStepAdds(t *testing.T) {
	h := NewHistory()
	user, bm := uuid.New(), uuid.New()
	target := &Target{Annotation: annotation.New()}

	h.Apply(user, bm, target, NewAddStroke(stroke(0)), true)
	assert.Equal(t, 1, h.Len(user))
}

func TestAddStroke_UndoFindsMovedStroke(t *testing.T) {
	target := &Target{Annotation: annotation.New()}
	a := NewAddStroke(stroke(0))
	require.True(t, a.Redo(target))
	target.Annotation.Canvas.InsertItem(0, stroke(5))

	require.True(t, a.Undo(target))
	require.Equal(t, 1, target.Annotation.Canvas.Len())
	assert.False(t, a.Undo(target), "already removed")
}

func TestModifyOrAddCaption(t *testing.T) {
	target := &Target{Annotation: annotation.New()}
	c := caption("first")

	add := NewModifyOrAddCaption(c)
	require.True(t, add.Redo(target))

	edited := c
	edited.ModifyText(" edit")
	modify := NewModifyOrAddCaption(edited)
	require.True(t, modify.Redo(target))
	require.Equal(t, 1, target.Annotation.Canvas.Len())
	_, got, _ := target.Annotation.Canvas.FindCaption(c.ID)
	assert.Equal(t, "first edit", got.Text)

	require.True(t, modify.Undo(target))
	_, got, _ = target.Annotation.Canvas.FindCaption(c.ID)
	assert.Equal(t, "first", got.Text)

	require.True(t, add.Undo(target))
	assert.Equal(t, 0, target.Annotation.Canvas.Len())
}

func TestDeleteCaption_RestoresPosition(t *testing.T) {
	target := &Target{Annotation: annotation.New()}
	c := caption("middle")
	target.Annotation.Canvas.AppendItem(stroke(0))
	target.Annotation.Canvas.AppendItem(c)
	target.Annotation.Canvas.AppendItem(stroke(1))

	del := NewDeleteCaption(c.ID)
	require.True(t, del.Redo(target))
	assert.Equal(t, 2, target.Annotation.Canvas.Len())

	require.True(t, del.Undo(target))
	pos, _, ok := target.Annotation.Canvas.FindCaption(c.ID)
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	assert.False(t, NewDeleteCaption(uuid.New()).Redo(target))
}

func TestClearAnnotation(t *testing.T) {
	books := newFakeBookmarks()
	bm := uuid.New()
	books.live[bm] = "f1"
	target := &Target{Annotation: annotation.New()}
	target.Annotation.Canvas.AppendItem(stroke(0))
	target.Annotation.Canvas.AppendItem(caption("x"))

	clear := &ClearAnnotation{FrameKey: "f1", BookmarkID: bm, Bookmarks: books, RemoveIfEmpty: true}
	require.True(t, clear.Redo(target))
	assert.Equal(t, 0, target.Annotation.Canvas.Len())
	assert.NotContains(t, books.live, bm)

	restored := &Target{}
	require.True(t, clear.Undo(restored))
	assert.Contains(t, books.live, bm)
	assert.Equal(t, 2, restored.Annotation.Canvas.Len())

	assert.False(t, (&ClearAnnotation{}).Redo(&Target{}))
}

func TestCreateBookmark_StoreFailure(t *testing.T) {
	books := newFakeBookmarks()
	books.failNew = true
	target := &Target{}
	a := &CreateBookmark{FrameKey: "f", BookmarkID: uuid.New(), Bookmarks: books}
	assert.False(t, a.Redo(target))
	assert.Nil(t, target.Annotation)
}

func TestCreateBookmark_UndoKeepsBookmarkWithOtherItems(t *testing.T) {
	h := NewHistory()
	books := newFakeBookmarks()
	alice, bob, bm := uuid.New(), uuid.New(), uuid.New()
	target := &Target{}

	require.True(t, h.Apply(alice, bm, target, &CreateBookmark{FrameKey: "f1", BookmarkID: bm, Bookmarks: books}, false))
	require.True(t, h.Apply(alice, bm, target, NewAddStroke(stroke(0)), true))
	require.True(t, h.Apply(bob, bm, target, NewAddStroke(stroke(1)), false))

	require.True(t, h.Undo(alice, target))
	assert.Contains(t, books.live, bm)
	require.Equal(t, 1, target.Annotation.Canvas.Len())
	item, _ := target.Annotation.Canvas.At(0)
	assert.True(t, canvas.ItemsEqual(stroke(1), item))

	// the bookmark was kept, so redo only puts the stroke back
	require.True(t, h.Redo(alice, target))
	assert.Equal(t, 2, target.Annotation.Canvas.Len())
	assert.Len(t, books.live, 1)
}

func TestHistory_FrameForNextStep(t *testing.T) {
	h := NewHistory()
	books := newFakeBookmarks()
	user, bm := uuid.New(), uuid.New()
	target := &Target{}

	assert.Empty(t, h.FrameForNextUndo(user))
	require.True(t, h.Apply(user, bm, target, &CreateBookmark{FrameKey: "f1", BookmarkID: bm, Bookmarks: books}, false))
	require.True(t, h.Apply(user, bm, target, NewAddStroke(stroke(0)), true))
	require.True(t, h.Apply(user, bm, target, NewAddStroke(stroke(1)), false))

	assert.Empty(t, h.FrameForNextUndo(user), "plain edits carry no frame")
	require.True(t, h.Undo(user, target))
	assert.Equal(t, "f1", h.FrameForNextUndo(user))
	require.True(t, h.Undo(user, target))
	assert.Equal(t, "f1", h.FrameForNextRedo(user))
}

func TestHistory_FailedApplyIsNotRecorded(t *testing.T) {
	h := NewHistory()
	books := newFakeBookmarks()
	books.failNew = true
	user, bm := uuid.New(), uuid.New()

	assert.False(t, h.Apply(user, bm, &Target{}, &CreateBookmark{FrameKey: "f", BookmarkID: bm, Bookmarks: books}, false))
	assert.Equal(t, 0, h.Len(user))
	assert.False(t, h.CanUndo(user))
}

func TestClearAnnotation_UndoRestoresUnderLaterItems(t *testing.T) {
	target := &Target{Annotation: annotation.New()}
	target.Annotation.Canvas.AppendItem(stroke(0))
	target.Annotation.Canvas.AppendItem(stroke(1))

	clear := &ClearAnnotation{FrameKey: "f1", BookmarkID: uuid.New()}
	require.True(t, clear.Redo(target))
	target.Annotation.Canvas.AppendItem(stroke(2))

	require.True(t, clear.Undo(target))
	items := target.Annotation.Canvas.Items()
	require.Len(t, items, 3)
	for i, want := range []canvas.Stroke{stroke(0), stroke(1), stroke(2)} {
		assert.True(t, canvas.ItemsEqual(want, items[i]), "item %d", i)
	}
}

func TestClearAnnotation_RemoveFailureLeavesAnnotation(t *testing.T) {
	books := newFakeBookmarks()
	target := &Target{Annotation: annotation.New()}
	target.Annotation.Canvas.AppendItem(stroke(0))

	clear := &ClearAnnotation{FrameKey: "f1", BookmarkID: uuid.New(), Bookmarks: books, RemoveIfEmpty: true}
	assert.False(t, clear.Redo(target))
	assert.Equal(t, 1, target.Annotation.Canvas.Len())
}
