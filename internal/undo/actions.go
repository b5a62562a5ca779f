package undo

import (
	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/canvas"
	"github.com/google/uuid"
)

// Bookmarks is the part of the bookmark store that bookmark lifecycle
// actions drive.
type Bookmarks interface {
	CreateBookmark(frameKey string, id uuid.UUID) error
	RemoveBookmark(id uuid.UUID) error
}

// AddStroke appends a stroke. Undo removes the most recent stroke that is
// structurally equal to it, wherever it has moved to.
type AddStroke struct {
	Stroke canvas.Stroke
}

// NewAddStroke copies s so later edits to the caller's stroke do not leak in.
func NewAddStroke(s canvas.Stroke) *AddStroke {
	return &AddStroke{Stroke: s.Clone()}
}

func (a *AddStroke) NeedsAnnotation(bool) bool { return true }

func (a *AddStroke) Redo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	t.Annotation.Canvas.AppendItem(a.Stroke)
	return true
}

func (a *AddStroke) Undo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	pos := t.Annotation.Canvas.FindStroke(a.Stroke)
	if pos < 0 {
		return false
	}
	return t.Annotation.Canvas.RemoveItem(pos)
}

// ModifyOrAddCaption replaces the caption with the same id, or appends it
// when there is none.
type ModifyOrAddCaption struct {
	Caption canvas.Caption

	original    canvas.Caption
	hadOriginal bool
}

func NewModifyOrAddCaption(c canvas.Caption) *ModifyOrAddCaption {
	return &ModifyOrAddCaption{Caption: c}
}

func (a *ModifyOrAddCaption) NeedsAnnotation(bool) bool { return true }

func (a *ModifyOrAddCaption) Redo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	cv := t.Annotation.Canvas
	if pos, found, ok := cv.FindCaption(a.Caption.ID); ok {
		a.original = found
		a.hadOriginal = true
		return cv.OverwriteItem(pos, a.Caption)
	}
	a.hadOriginal = false
	cv.AppendItem(a.Caption)
	return true
}

func (a *ModifyOrAddCaption) Undo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	cv := t.Annotation.Canvas
	pos, _, ok := cv.FindCaption(a.Caption.ID)
	if !ok {
		return false
	}
	if a.hadOriginal {
		return cv.OverwriteItem(pos, a.original)
	}
	return cv.RemoveItem(pos)
}

// DeleteCaption removes a caption, remembering where it was so undo can put
// it back in the same paint position.
type DeleteCaption struct {
	CaptionID uuid.UUID

	caption canvas.Caption
	index   int
}

func NewDeleteCaption(id uuid.UUID) *DeleteCaption {
	return &DeleteCaption{CaptionID: id}
}

func (a *DeleteCaption) NeedsAnnotation(bool) bool { return true }

func (a *DeleteCaption) Redo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	cv := t.Annotation.Canvas
	pos, found, ok := cv.FindCaption(a.CaptionID)
	if !ok {
		return false
	}
	a.caption = found
	a.index = pos
	return cv.RemoveItem(pos)
}

func (a *DeleteCaption) Undo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	cv := t.Annotation.Canvas
	if a.index > cv.Len() {
		cv.AppendItem(a.caption)
		return true
	}
	return cv.InsertItem(a.index, a.caption)
}

// CreateBookmark brings a bookmark into existence on a frame and gives the
// rest of its chain a fresh annotation to work on. Undo removes the bookmark
// unless other users have drawn on it since, in which case it stays with
// their items.
type CreateBookmark struct {
	FrameKey   string
	BookmarkID uuid.UUID
	Bookmarks  Bookmarks
}

func (a *CreateBookmark) Frame() string { return a.FrameKey }

func (a *CreateBookmark) NeedsAnnotation(bool) bool { return false }

func (a *CreateBookmark) CreatesAnnotation(redo bool) bool { return redo }

func (a *CreateBookmark) Redo(t *Target) bool {
	if t.Annotation != nil {
		// kept by an earlier undo
		return true
	}
	if err := a.Bookmarks.CreateBookmark(a.FrameKey, a.BookmarkID); err != nil {
		return false
	}
	t.Annotation = annotation.New()
	return true
}

func (a *CreateBookmark) Undo(t *Target) bool {
	if t.Annotation != nil && !t.Annotation.Canvas.Empty() {
		return true
	}
	return a.Bookmarks.RemoveBookmark(a.BookmarkID) == nil
}

// ClearAnnotation empties an annotation. When the owning bookmark carries
// nothing but the annotation it is removed too, and undo recreates it.
type ClearAnnotation struct {
	FrameKey      string
	BookmarkID    uuid.UUID
	Bookmarks     Bookmarks
	RemoveIfEmpty bool

	saved []canvas.Item
}

func (a *ClearAnnotation) Frame() string { return a.FrameKey }

func (a *ClearAnnotation) NeedsAnnotation(redo bool) bool { return redo }

func (a *ClearAnnotation) CreatesAnnotation(redo bool) bool { return !redo }

// Redo fails without touching the annotation when the bookmark cannot be
// removed.
func (a *ClearAnnotation) Redo(t *Target) bool {
	if t.Annotation == nil {
		return false
	}
	if a.RemoveIfEmpty {
		if err := a.Bookmarks.RemoveBookmark(a.BookmarkID); err != nil {
			return false
		}
	}
	a.saved = t.Annotation.Canvas.Items()
	t.Annotation.Canvas.Clear(false)
	return true
}

// Undo puts the cleared items back underneath anything drawn since.
func (a *ClearAnnotation) Undo(t *Target) bool {
	if t.Annotation == nil {
		if a.RemoveIfEmpty {
			if err := a.Bookmarks.CreateBookmark(a.FrameKey, a.BookmarkID); err != nil {
				return false
			}
		}
		t.Annotation = annotation.New()
	}
	t.Annotation.Canvas.PrependItems(a.saved)
	return true
}
