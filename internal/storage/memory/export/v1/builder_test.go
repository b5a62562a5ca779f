package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/framereview/annotations/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_GroupsByFrame(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	bookmarks := []storage.Bookmark{
		{ID: a, FrameKey: "shot#2", Name: "a"},
		{ID: b, FrameKey: "shot#1", Note: "fix", Annotation: annotation.New()},
		{ID: c, FrameKey: "shot#2", Name: "c"},
	}

	export, err := Build(bookmarks, now)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, export.FormatVersion)
	assert.Equal(t, now, export.ExportedAt)
	require.Len(t, export.Frames, 2)
	assert.Equal(t, "shot#2", export.Frames[0].FrameKey)
	require.Len(t, export.Frames[0].Bookmarks, 2)
	assert.Equal(t, a.String(), export.Frames[0].Bookmarks[0].ID)
	assert.Equal(t, c.String(), export.Frames[0].Bookmarks[1].ID)
	assert.Nil(t, export.Frames[0].Bookmarks[0].Annotation)

	withAnno := export.Frames[1].Bookmarks[0]
	require.NotEmpty(t, withAnno.Annotation)
	decoded, err := annotation.Deserialize(withAnno.Annotation)
	require.NoError(t, err)
	assert.True(t, decoded.Canvas.Empty())
}

func TestBuild_Empty(t *testing.T) {
	export, err := Build(nil, time.Now())
	require.NoError(t, err)

	data, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"frames":[]`)
}
