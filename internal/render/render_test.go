package render

import (
	"testing"

	"github.com/framereview/annotations/internal/canvas"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRenderData_Empty(t *testing.T) {
	d := NewImageRenderData("shot/0001")
	assert.True(t, d.Empty())
	assert.Equal(t, "shot/0001", d.FrameKey)

	d.AddEraseStroke(uuid.New(), canvas.NewErase(0.01))
	assert.False(t, d.Empty())
}

func TestImageRenderData_EraseStrokesKeyedByBookmark(t *testing.T) {
	d := NewImageRenderData("f")
	a, b := uuid.New(), uuid.New()

	d.AddEraseStroke(a, canvas.NewErase(0.01))
	d.AddEraseStroke(a, canvas.NewErase(0.02))

	assert.Len(t, d.LiveEraseStrokes(a), 2)
	assert.Empty(t, d.LiveEraseStrokes(b))
}

func TestImageRenderData_VisibleItemsSkipsDuplicatedCaptions(t *testing.T) {
	d := NewImageRenderData("f")

	shown := canvas.NewCaption(geom.XY{}, 0.5, 50, canvas.White, 1, textmetrics.JustifyLeft, "", canvas.Black, 0)
	hidden := canvas.NewCaption(geom.XY{}, 0.5, 50, canvas.White, 1, textmetrics.JustifyLeft, "", canvas.Black, 0)
	stroke := canvas.NewPen(canvas.Red, 0.002, 0, 1)

	d.Committed = []BookmarkItems{{
		BookmarkID: uuid.New(),
		Items:      []canvas.Item{stroke, hidden, shown},
	}}
	d.SkipCaptions[hidden.ID] = struct{}{}

	assert.True(t, d.SkipCaption(hidden.ID))
	assert.False(t, d.SkipCaption(shown.ID))

	items := d.VisibleItems()
	require.Len(t, items, 2)
	assert.Equal(t, canvas.KindStroke, items[0].Kind())
	assert.Equal(t, shown.ID, items[1].(canvas.Caption).ID)
}
