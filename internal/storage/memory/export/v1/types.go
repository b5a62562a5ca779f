// Package v1 contains the v1 export format for bookmark data.
package v1

import (
	"encoding/json"
	"time"
)

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int       `json:"formatVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	Frames        []Frame   `json:"frames"`
}

// Frame groups the bookmarks placed on one frame.
type Frame struct {
	FrameKey  string     `json:"frameKey"`
	Bookmarks []Bookmark `json:"bookmarks"`
}

// Bookmark is one exported bookmark. Annotation holds the versioned
// annotation document, or is absent when the bookmark has none.
type Bookmark struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Note       string          `json:"note,omitempty"`
	UserType   string          `json:"userType,omitempty"`
	Annotation json.RawMessage `json:"annotation,omitempty"`
}
