// Package convert maps between GORM rows and storage bookmarks.
package convert

import (
	"fmt"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/model"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BookmarkToRow converts a storage bookmark to its GORM row. A bookmark
// without an annotation stores a NULL document.
func BookmarkToRow(b storage.Bookmark) (model.Bookmark, error) {
	row := model.Bookmark{
		ID:       b.ID.String(),
		FrameKey: b.FrameKey,
		Name:     b.Name,
		Note:     b.Note,
		UserType: b.UserType,
	}
	if b.Annotation != nil {
		data, err := annotation.Serialize(b.Annotation)
		if err != nil {
			return model.Bookmark{}, fmt.Errorf("serialize annotation of %s: %w", b.ID, err)
		}
		row.Annotation = datatypes.JSON(data)
	}
	return row, nil
}

// RowToBookmark converts a GORM row back to a storage bookmark.
func RowToBookmark(row model.Bookmark) (storage.Bookmark, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return storage.Bookmark{}, fmt.Errorf("bookmark id %q: %w", row.ID, err)
	}
	b := storage.Bookmark{
		ID:       id,
		FrameKey: row.FrameKey,
		Name:     row.Name,
		Note:     row.Note,
		UserType: row.UserType,
	}
	if len(row.Annotation) > 0 && string(row.Annotation) != "null" {
		a, err := annotation.Deserialize(row.Annotation)
		if err != nil {
			return storage.Bookmark{}, fmt.Errorf("annotation of %s: %w", row.ID, err)
		}
		b.Annotation = a
	}
	return b, nil
}
