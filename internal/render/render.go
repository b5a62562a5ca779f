// Package render holds the data handed to the external renderer for each
// displayed image: committed annotations, live edits of other users and the
// caption overlays the viewer draws on top.
package render

import (
	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/google/uuid"
)

// BookmarkItems is the committed content of one bookmark's annotation.
type BookmarkItems struct {
	BookmarkID uuid.UUID
	Items      []canvas.Item
}

// LiveCaption is a caption being edited, with the handle the editing user
// is hovering and whether the text cursor is currently shown.
type LiveCaption struct {
	Caption       canvas.Caption
	Handle        session.HandleState
	CursorVisible bool
}

// ImageRenderData is everything drawn over one image.
type ImageRenderData struct {
	FrameKey string

	Committed []BookmarkItems

	// Strokes are live, not yet committed strokes. Erase strokes are not in
	// here; they go to EraseStrokes under the bookmark they will erase from.
	Strokes  []canvas.Stroke
	Captions []LiveCaption

	EraseStrokes map[uuid.UUID][]canvas.Stroke

	HoveredCaptionBoxes []textmetrics.Box

	// SkipCaptions are committed captions hidden while a live copy is
	// being edited.
	SkipCaptions map[uuid.UUID]struct{}
}

// NewImageRenderData returns empty render data for frameKey.
func NewImageRenderData(frameKey string) *ImageRenderData {
	return &ImageRenderData{
		FrameKey:     frameKey,
		EraseStrokes: make(map[uuid.UUID][]canvas.Stroke),
		SkipCaptions: make(map[uuid.UUID]struct{}),
	}
}

// AddEraseStroke records a live erase stroke against bookmark.
func (d *ImageRenderData) AddEraseStroke(bookmark uuid.UUID, s canvas.Stroke) {
	d.EraseStrokes[bookmark] = append(d.EraseStrokes[bookmark], s)
}

// LiveEraseStrokes returns the live erase strokes that will apply to
// bookmark once committed.
func (d *ImageRenderData) LiveEraseStrokes(bookmark uuid.UUID) []canvas.Stroke {
	return d.EraseStrokes[bookmark]
}

// SkipCaption reports whether the committed caption id must not be drawn.
func (d *ImageRenderData) SkipCaption(id uuid.UUID) bool {
	_, ok := d.SkipCaptions[id]
	return ok
}

// Empty reports whether nothing at all needs drawing.
func (d *ImageRenderData) Empty() bool {
	return len(d.Committed) == 0 && len(d.Strokes) == 0 && len(d.Captions) == 0 &&
		len(d.EraseStrokes) == 0 && len(d.HoveredCaptionBoxes) == 0
}

// VisibleItems returns the committed items of every bookmark in order,
// leaving out skipped captions.
func (d *ImageRenderData) VisibleItems() []canvas.Item {
	var out []canvas.Item
	for _, b := range d.Committed {
		for _, it := range b.Items {
			if c, ok := it.(canvas.Caption); ok && d.SkipCaption(c.ID) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}

// LaserRenderData holds the laser strokes drawn over a viewport. Laser
// points are in viewport space, not image space.
type LaserRenderData struct {
	Viewport string
	Strokes  []canvas.Stroke
}
