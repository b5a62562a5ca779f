// Package broadcast fans collaboration messages out to whoever is listening.
package broadcast

import (
	"encoding/json"
	"log/slog"

	"github.com/framereview/annotations/internal/queue"
	"github.com/framereview/annotations/pkg/streaming"
)

// Publisher accepts collaboration messages. Publish must not block the
// caller on network I/O.
type Publisher interface {
	Publish(msgType string, payload any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(string, any) {}

// Multi publishes to every wrapped publisher in turn.
type Multi []Publisher

func (m Multi) Publish(msgType string, payload any) {
	for _, p := range m {
		p.Publish(msgType, payload)
	}
}

// Recorder keeps published messages in memory as envelopes.
type Recorder struct {
	msgs   *queue.Queue[streaming.Envelope]
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{msgs: queue.New[streaming.Envelope](), logger: logger}
}

func (r *Recorder) Publish(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to encode broadcast payload", "type", msgType, "error", err)
		return
	}
	r.msgs.Push(streaming.Envelope{Type: msgType, Payload: raw})
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	return r.msgs.Len()
}

// Drain returns all recorded messages and forgets them.
func (r *Recorder) Drain() []streaming.Envelope {
	return r.msgs.GetAndEmpty()
}

// OfType filters envelopes by message type.
func OfType(envs []streaming.Envelope, msgType string) []streaming.Envelope {
	var out []streaming.Envelope
	for _, e := range envs {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}
