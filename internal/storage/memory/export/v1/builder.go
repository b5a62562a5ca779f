package v1

import (
	"fmt"
	"time"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/storage"
)

// Build converts bookmarks to the v1 export format. Frames appear in the
// order their first bookmark was created; bookmarks keep their given order.
func Build(bookmarks []storage.Bookmark, now time.Time) (Export, error) {
	export := Export{
		FormatVersion: FormatVersion,
		ExportedAt:    now.UTC(),
		Frames:        make([]Frame, 0),
	}

	frameIdx := make(map[string]int)
	for _, b := range bookmarks {
		entry := Bookmark{
			ID:       b.ID.String(),
			Name:     b.Name,
			Note:     b.Note,
			UserType: b.UserType,
		}
		if b.Annotation != nil {
			data, err := annotation.Serialize(b.Annotation)
			if err != nil {
				return Export{}, fmt.Errorf("bookmark %s: %w", b.ID, err)
			}
			entry.Annotation = data
		}

		i, ok := frameIdx[b.FrameKey]
		if !ok {
			i = len(export.Frames)
			frameIdx[b.FrameKey] = i
			export.Frames = append(export.Frames, Frame{FrameKey: b.FrameKey})
		}
		export.Frames[i].Bookmarks = append(export.Frames[i].Bookmarks, entry)
	}
	return export, nil
}
