// Package coordinator turns interaction events from any number of users into
// committed annotation edits.
//
// All state is owned by one event loop. Handlers registered on the dispatcher
// parse their payload on the caller's goroutine and post a closure onto the
// loop; timers (caption commit debounce, cursor blink, laser fade) post onto
// the same loop, so per-user event order is arrival order and no handler
// ever runs concurrently with another. Render queries take a read lock and
// may be called from any goroutine.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framereview/annotations/internal/broadcast"
	"github.com/framereview/annotations/internal/channel"
	"github.com/framereview/annotations/internal/config"
	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/session"
	"github.com/framereview/annotations/internal/storage"
	"github.com/framereview/annotations/internal/textmetrics"
	"github.com/framereview/annotations/internal/undo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnsupportedTool is returned for a PaintStart whose item type cannot be
// drawn.
var ErrUnsupportedTool = errors.New("unsupported tool")

// Display modes accepted by SetDisplayMode.
const (
	DisplayAlways         = "Always"
	DisplayOnlyWhenPaused = "Only When Paused"
)

const (
	defaultInboxSize       = 4096
	defaultHandleSize      = 50
	defaultMinWrapWidth    = 0.05
	defaultLaserFadeStep   = 0.01
	defaultDebounce        = 500 * time.Millisecond
	defaultBlinkInterval   = 300 * time.Millisecond
	defaultFadeInterval    = 16 * time.Millisecond
	defaultCaptionFontSize = 50
	defaultCaptionWrap     = 0.5
)

// Dependencies holds everything the coordinator talks to.
type Dependencies struct {
	Store     storage.Backend
	Publisher broadcast.Publisher
	Scheduler Scheduler
	Logger    *slog.Logger
	Config    config.CoordinatorConfig
	Captions  config.CaptionDefaults
	// InboxSize bounds the event loop queue. Posting blocks when it is full.
	InboxSize int
}

// hoveredCaption is the committed caption a user's pointer rests on.
type hoveredCaption struct {
	frameKey string
	box      textmetrics.Box
}

// Coordinator owns every user's live edit and the undo history.
type Coordinator struct {
	store     storage.Backend
	bookmarks bookmarkStore
	pub       broadcast.Publisher
	sched     Scheduler
	logger    *slog.Logger
	cfg       config.CoordinatorConfig
	captions  config.CaptionDefaults
	history   *undo.History
	inbox     channel.Channel[func()]
	stopped   atomic.Bool

	// everything below is guarded by mu; the loop holds it for writing
	// while a posted function runs
	mu               sync.RWMutex
	sessions         map[uuid.UUID]*session.LiveEdit
	screens          map[string]parser.ImagesOnScreen
	viewportHidden   map[string]bool
	hovered          map[uuid.UUID]hoveredCaption
	hidden           bool
	showWhilePlaying bool
	edited           uuid.UUID
	nextBookmark     uuid.UUID
	fading           bool
	blinking         bool
	cursorVisible    bool

	// read by the logging context provider without taking mu
	activeUsers atomic.Int64
	editedID    atomic.Value

	commits   metric.Int64Counter
	undos     metric.Int64Counter
	redos     metric.Int64Counter
	evictions metric.Int64Counter
}

// New creates a coordinator. It does not process anything until Run.
func New(deps Dependencies) (*Coordinator, error) {
	if deps.Store == nil {
		return nil, errors.New("coordinator needs a bookmark store")
	}
	if deps.Publisher == nil {
		deps.Publisher = broadcast.Nop{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = Clock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.InboxSize <= 0 {
		deps.InboxSize = defaultInboxSize
	}

	c := &Coordinator{
		store:            deps.Store,
		bookmarks:        bookmarkStore{backend: deps.Store},
		pub:              deps.Publisher,
		sched:            deps.Scheduler,
		logger:           deps.Logger,
		cfg:              withConfigDefaults(deps.Config),
		captions:         withCaptionDefaults(deps.Captions),
		history:          undo.NewHistory(),
		inbox:            channel.New[func()](deps.InboxSize),
		sessions:         make(map[uuid.UUID]*session.LiveEdit),
		screens:          make(map[string]parser.ImagesOnScreen),
		viewportHidden:   make(map[string]bool),
		hovered:          make(map[uuid.UUID]hoveredCaption),
		showWhilePlaying: !deps.Config.HideWhenPlaying,
		nextBookmark:     uuid.New(),
		cursorVisible:    true,
	}
	c.editedID.Store("")

	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c, nil
}

func withConfigDefaults(cfg config.CoordinatorConfig) config.CoordinatorConfig {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.BlinkInterval <= 0 {
		cfg.BlinkInterval = defaultBlinkInterval
	}
	if cfg.FadeInterval <= 0 {
		cfg.FadeInterval = defaultFadeInterval
	}
	if cfg.LaserFadeStep <= 0 {
		cfg.LaserFadeStep = defaultLaserFadeStep
	}
	if cfg.HandleSize <= 0 {
		cfg.HandleSize = defaultHandleSize
	}
	if cfg.CaptionMinWrapWidth <= 0 {
		cfg.CaptionMinWrapWidth = defaultMinWrapWidth
	}
	return cfg
}

func withCaptionDefaults(d config.CaptionDefaults) config.CaptionDefaults {
	if d.FontSize <= 0 {
		d.FontSize = defaultCaptionFontSize
	}
	if d.WrapWidth <= 0 {
		d.WrapWidth = defaultCaptionWrap
	}
	if d.Opacity <= 0 {
		d.Opacity = 1
	}
	return d
}

// Run processes posted work until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.stopped.Store(true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn, ok := <-c.inbox.Receive():
			if !ok {
				return nil
			}
			c.exec(fn)
		}
	}
}

func (c *Coordinator) exec(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Post queues fn to run on the event loop.
func (c *Coordinator) Post(fn func()) {
	c.inbox.Send(fn)
}

// Sync waits until everything posted before the call has run.
func (c *Coordinator) Sync(ctx context.Context) error {
	done := make(chan struct{})
	c.Post(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event loop: %w", ctx.Err())
	}
}

// Drain runs everything already queued on the calling goroutine. It must not
// be used while Run is active.
func (c *Coordinator) Drain() {
	for {
		select {
		case fn, ok := <-c.inbox.Receive():
			if !ok {
				return
			}
			c.exec(fn)
		default:
			return
		}
	}
}

// after schedules fn onto the event loop once d has passed.
func (c *Coordinator) after(d time.Duration, fn func()) {
	c.sched.AfterFunc(d, func() {
		if c.stopped.Load() {
			return
		}
		c.Post(fn)
	})
}

func (c *Coordinator) session(user uuid.UUID) *session.LiveEdit {
	l, ok := c.sessions[user]
	if !ok {
		l = session.New(user)
		c.sessions[user] = l
		c.activeUsers.Store(int64(len(c.sessions)))
		c.logger.Debug("New editing session", "user", user)
	}
	return l
}

func setViewport(l *session.LiveEdit, viewport string) {
	if viewport != "" {
		l.Viewport = viewport
	}
}

// LogAttrs describes the coordinator for log records. It is safe to call
// from any goroutine, including while the loop holds its lock.
func (c *Coordinator) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.Int64("editors", c.activeUsers.Load())}
	if id, _ := c.editedID.Load().(string); id != "" {
		attrs = append(attrs, slog.String("edited_bookmark", id))
	}
	return attrs
}

// EditedBookmark is the bookmark last announced as being edited, or
// uuid.Nil.
func (c *Coordinator) EditedBookmark() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.edited
}

// SessionState reports what user is currently doing.
func (c *Coordinator) SessionState(user uuid.UUID) session.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l, ok := c.sessions[user]; ok {
		return l.State()
	}
	return session.Idle
}

// CanUndo reports whether user has anything to undo.
func (c *Coordinator) CanUndo(user uuid.UUID) bool {
	return c.history.CanUndo(user)
}

// CanRedo reports whether user has anything to redo.
func (c *Coordinator) CanRedo(user uuid.UUID) bool {
	return c.history.CanRedo(user)
}
