package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/framereview/annotations/internal/parser"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnknownEvent is returned by Dispatch for events with no handler.
var ErrUnknownEvent = errors.New("unknown event")

// HandlerFunc processes one ingress event.
type HandlerFunc func(parser.Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers by event name.
//
// Handlers run on the caller's goroutine. Ordering across users and event
// names is the caller's to keep; the coordinator posts everything onto its
// own single queue.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error
	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events handed to a handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped as unknown or malformed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given event name with optional configuration.
func (d *Dispatcher) Register(name string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	d.handlers[name] = handler
}

// Dispatch routes an event to its registered handler. A handler error means
// the event was dropped; it is counted and returned.
func (d *Dispatcher) Dispatch(e parser.Event) error {
	attrs := metric.WithAttributes(attribute.String("event", e.Name))

	h, ok := d.handlers[e.Name]
	if !ok {
		d.dropped.Add(context.Background(), 1, attrs)
		return fmt.Errorf("%w: %s", ErrUnknownEvent, e.Name)
	}

	if err := h(e); err != nil {
		d.dropped.Add(context.Background(), 1, attrs)
		return err
	}
	d.processed.Add(context.Background(), 1, attrs)
	return nil
}

// HasHandler returns true if a handler is registered for the event name.
func (d *Dispatcher) HasHandler(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e parser.Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "event", name, "user", e.UserID.String(), "payload", len(e.Payload))

		err := h(e)

		if err != nil {
			d.logger.Warn("event dropped", "event", name, "user", e.UserID.String(), "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "event", name, "duration", time.Since(start))
		}

		return err
	}
}
