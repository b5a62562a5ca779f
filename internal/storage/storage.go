// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/google/uuid"
)

// ErrBookmarkNotFound is returned for operations on an unknown bookmark id.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// UserTypeGrading marks bookmarks owned by the grading tools. Annotations are
// never attached to them implicitly.
const UserTypeGrading = "Grading"

// Bookmark is a frame-addressed record that owns zero or one annotation.
type Bookmark struct {
	ID         uuid.UUID
	FrameKey   string
	Name       string
	Note       string
	UserType   string
	Annotation *annotation.Annotation
}

// Empty reports whether the bookmark carries nothing besides its annotation.
func (b Bookmark) Empty() bool {
	return b.Note == ""
}

// Backend is the interface all bookmark stores must satisfy.
//
// Stored annotations are treated as immutable snapshots: callers mutate a
// clone and hand it back through UpdateAnnotation.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Bookmark lifecycle
	CreateBookmark(b Bookmark) error
	RemoveBookmark(id uuid.UUID) error

	// Lookup
	Bookmark(id uuid.UUID) (Bookmark, error)
	BookmarksOnFrame(frameKey string) ([]Bookmark, error)
	Bookmarks() ([]Bookmark, error)

	// UpdateAnnotation replaces the annotation carried by bookmark id.
	UpdateAnnotation(id uuid.UUID, a *annotation.Annotation) error
}

// Flusher is an optional interface for stores that write behind and can be
// asked to persist everything queued so far.
type Flusher interface {
	Flush() error
}
