package coordinator

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/storage"
	"github.com/framereview/annotations/internal/undo"
	"github.com/framereview/annotations/pkg/streaming"
	"github.com/google/uuid"
)

// bookmarkStore lets bookmark lifecycle actions create and remove bookmarks.
type bookmarkStore struct {
	backend storage.Backend
}

func (b bookmarkStore) CreateBookmark(frameKey string, id uuid.UUID) error {
	return b.backend.CreateBookmark(storage.Bookmark{
		ID:       id,
		FrameKey: frameKey,
		Name:     noteName(frameKey),
	})
}

func (b bookmarkStore) RemoveBookmark(id uuid.UUID) error {
	return b.backend.RemoveBookmark(id)
}

// noteName names a bookmark after the frame's file stem, cut at the first
// dot so "plate.1001.exr" becomes "plate".
func noteName(frameKey string) string {
	name, _, _ := strings.Cut(path.Base(frameKey), ".")
	return name
}

// resolveBookmark picks the bookmark edits on frameKey go to: the first
// that already has an annotation, otherwise the first bookmark unless it
// belongs to grading. uuid.Nil means a bookmark must be created.
func (c *Coordinator) resolveBookmark(frameKey string) (uuid.UUID, *annotation.Annotation) {
	bms, err := c.store.BookmarksOnFrame(frameKey)
	if err != nil {
		c.logger.Warn("Failed to list bookmarks", "frame", frameKey, "error", err)
		return uuid.Nil, nil
	}
	for _, b := range bms {
		if b.Annotation != nil {
			return b.ID, b.Annotation
		}
	}
	if len(bms) > 0 && bms[0].UserType != storage.UserTypeGrading {
		return bms[0].ID, nil
	}
	return uuid.Nil, nil
}

// workingCopy returns a mutable copy of the annotation on bookmark id. ok is
// false when the bookmark does not exist.
func (c *Coordinator) workingCopy(id uuid.UUID) (a *annotation.Annotation, ok bool) {
	b, err := c.store.Bookmark(id)
	if err != nil {
		return nil, false
	}
	return b.Annotation.Clone(), true
}

// commit records a as the user's next undo step against the bookmark the
// live edit targets, creating the bookmark first when there is none. The
// creation and the edit form one step.
func (c *Coordinator) commit(l *session.LiveEdit, a undo.Action) bool {
	if !l.HasImage {
		return false
	}
	frame := l.Image.FrameKey

	var t undo.Target
	id := l.BookmarkID
	if id != uuid.Nil {
		work, ok := c.workingCopy(id)
		if !ok {
			c.logger.Warn("Edited bookmark disappeared, creating a new one", "bookmark", id)
			id = uuid.Nil
		} else {
			t.Annotation = work
		}
	}

	concat := false
	if id == uuid.Nil {
		id = c.nextBookmark
		c.nextBookmark = uuid.New()
		create := &undo.CreateBookmark{FrameKey: frame, BookmarkID: id, Bookmarks: c.bookmarks}
		if !c.history.Apply(l.UserID, id, &t, create, false) {
			c.logger.Error("Failed to create bookmark", "frame", frame, "bookmark", id)
			return false
		}
		l.BookmarkID = id
		concat = true
	}
	if t.Annotation == nil {
		t.Annotation = annotation.New()
	}

	if !c.history.Apply(l.UserID, id, &t, a, concat) {
		c.logger.Warn("Edit did not apply", "bookmark", id, "user", l.UserID)
		return false
	}
	c.saveAnnotation(id, frame, t.Annotation)
	c.countCommit()
	return true
}

func (c *Coordinator) saveAnnotation(id uuid.UUID, frameKey string, a *annotation.Annotation) {
	if err := c.store.UpdateAnnotation(id, a); err != nil {
		c.logger.Warn("Failed to store annotation", "bookmark", id, "error", err)
		return
	}
	c.publishAnnotation(id, frameKey, a)
}

// publishAnnotation broadcasts the committed state of a bookmark. A nil
// annotation tells collaborators the bookmark is gone.
func (c *Coordinator) publishAnnotation(id uuid.UUID, frameKey string, a *annotation.Annotation) {
	var raw json.RawMessage
	if a != nil {
		data, err := annotation.Serialize(a)
		if err != nil {
			c.logger.Error("Failed to serialize annotation", "bookmark", id, "error", err)
			return
		}
		raw = data
	}
	c.pub.Publish(streaming.TypeAnnotationUpdated, streaming.AnnotationUpdatedPayload{
		BookmarkID: id.String(),
		FrameKey:   frameKey,
		Annotation: raw,
	})
}

// setEdited announces the bookmark whose annotation is being edited.
func (c *Coordinator) setEdited(id uuid.UUID) {
	if id == c.edited {
		return
	}
	c.edited = id
	var p *string
	if id != uuid.Nil {
		s := id.String()
		p = &s
		c.editedID.Store(s)
	} else {
		c.editedID.Store("")
	}
	c.pub.Publish(streaming.TypeAnnotationEdited, streaming.AnnotationEditedPayload{BookmarkID: p})
}

// frameOnScreen reports whether any viewport currently shows frameKey.
func (c *Coordinator) frameOnScreen(frameKey string) bool {
	for _, s := range c.screens {
		for _, img := range s.Images {
			if img.FrameKey == frameKey {
				return true
			}
		}
	}
	return false
}
