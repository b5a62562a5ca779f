package coordinator

import (
	"time"

	"github.com/framereview/annotations/internal/session"
	"github.com/google/uuid"
)

// Status is a point-in-time summary of the coordinator, written out by the
// status monitor.
type Status struct {
	Time           time.Time `json:"time"`
	Editors        int       `json:"editors"`
	Drawing        int       `json:"drawing"`
	CaptionEditing int       `json:"captionEditing"`
	LaserStrokes   int       `json:"laserStrokes"`
	Queued         int       `json:"queued"`
	QueueHighWater int       `json:"queueHighWater,omitempty"`
	Bookmarks      int       `json:"bookmarks"`
	EditedBookmark string    `json:"editedBookmark,omitempty"`
	Hidden         bool      `json:"hidden"`
}

// Status summarises the live sessions. Safe to call from any goroutine.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	st := Status{
		Time:    time.Now(),
		Editors: len(c.sessions),
		Queued:  c.inbox.Len(),
		Hidden:  c.hidden,
	}
	if hw, ok := c.inbox.(interface{ HighWater() int }); ok {
		// debug builds only
		st.QueueHighWater = hw.HighWater()
	}
	for _, l := range c.sessions {
		switch l.State() {
		case session.Drawing:
			st.Drawing++
		case session.CaptionIdle, session.CaptionDraggingMove, session.CaptionDraggingResize, session.CaptionTextEntry:
			st.CaptionEditing++
		}
		st.LaserStrokes += len(l.Laser)
	}
	if c.edited != uuid.Nil {
		st.EditedBookmark = c.edited.String()
	}
	c.mu.RUnlock()

	if bms, err := c.store.Bookmarks(); err == nil {
		st.Bookmarks = len(bms)
	} else {
		c.logger.Warn("Failed to count bookmarks", "error", err)
	}
	return st
}
