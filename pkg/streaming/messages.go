// Package streaming defines the messages broadcast to collaborators while
// annotations are edited.
package streaming

import (
	"encoding/json"
	"fmt"
)

// Message type constants matching the streaming protocol.
const (
	TypeLiveStroke        = "live_stroke"
	TypeLaserStrokes      = "laser_strokes"
	TypeAnnotationEdited  = "annotation_edited"
	TypeAnnotationUpdated = "annotation_updated"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LiveStrokePayload carries the in-progress stroke of one user. Stroke is
// null once the user's live stroke is committed or discarded.
type LiveStrokePayload struct {
	UserID     string          `json:"user_id"`
	FrameKey   string          `json:"frame_key"`
	BookmarkID string          `json:"bookmark_id,omitempty"`
	Stroke     json.RawMessage `json:"stroke"`
}

// LaserStrokesPayload carries every visible laser stroke of one user. Laser
// points are in viewport space.
type LaserStrokesPayload struct {
	UserID   string            `json:"user_id"`
	Viewport string            `json:"viewport"`
	Strokes  []json.RawMessage `json:"strokes"`
}

// AnnotationEditedPayload names the bookmark whose annotation is being
// edited. BookmarkID is null when editing stopped.
type AnnotationEditedPayload struct {
	BookmarkID *string `json:"bookmark_id"`
}

// AnnotationUpdatedPayload carries a committed annotation document.
type AnnotationUpdatedPayload struct {
	BookmarkID string          `json:"bookmark_id"`
	FrameKey   string          `json:"frame_key"`
	Annotation json.RawMessage `json:"annotation"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
