// Package undo keeps an independent undo/redo history per user.
//
// Each history entry is a chain of actions that the user sees as one step,
// tagged with the bookmark whose annotation the step modified. The caller
// resolves that bookmark to a working copy of its annotation and hands it to
// Undo or Redo through a Target.
package undo

import (
	"sync"

	"github.com/framereview/annotations/internal/annotation"
	"github.com/google/uuid"
)

// Target is the annotation an action runs against. Actions that bring an
// annotation into existence replace Annotation.
type Target struct {
	Annotation *annotation.Annotation
}

// Action is one reversible change to an annotation.
type Action interface {
	Redo(t *Target) bool
	Undo(t *Target) bool
	// NeedsAnnotation reports whether running in the given direction
	// requires the target to hold an annotation.
	NeedsAnnotation(redo bool) bool
}

// framer is implemented by actions that know the frame their bookmark sits
// on, which is all there is to go on once the bookmark is gone.
type framer interface {
	Frame() string
}

// creator is implemented by actions that can supply the annotation for the
// rest of their chain.
type creator interface {
	CreatesAnnotation(redo bool) bool
}

type step struct {
	action Action
	next   *step
}

type entry struct {
	head     *step
	bookmark uuid.UUID
}

func (e *entry) frame() string {
	for s := e.head; s != nil; s = s.next {
		if f, ok := s.action.(framer); ok {
			return f.Frame()
		}
	}
	return ""
}

func (e *entry) actions() []Action {
	var out []Action
	for s := e.head; s != nil; s = s.next {
		out = append(out, s.action)
	}
	return out
}

// userHistory is a list of entries plus the count of entries currently
// applied. The next undo is entries[pos-1], the next redo entries[pos].
type userHistory struct {
	entries []*entry
	pos     int
}

// History holds the per-user histories.
type History struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userHistory
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{users: make(map[uuid.UUID]*userHistory)}
}

func (h *History) user(id uuid.UUID) *userHistory {
	u, ok := h.users[id]
	if !ok {
		u = &userHistory{}
		h.users[id] = u
	}
	return u
}

// Add records a as a new step for user, dropping anything that was undone
// and not redone.
func (h *History) Add(user, bookmark uuid.UUID, a Action) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(user, bookmark, a)
}

func (h *History) addLocked(user, bookmark uuid.UUID, a Action) {
	u := h.user(user)
	for i := u.pos; i < len(u.entries); i++ {
		u.entries[i] = nil
	}
	u.entries = append(u.entries[:u.pos], &entry{head: &step{action: a}, bookmark: bookmark})
	u.pos = len(u.entries)
}

// Concat chains a onto the most recent step so both replay together. With
// no step to attach to it is added as a step of its own.
func (h *History) Concat(user, bookmark uuid.UUID, a Action) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos == 0 {
		h.addLocked(user, bookmark, a)
		return
	}
	s := u.entries[u.pos-1].head
	for s.next != nil {
		s = s.next
	}
	s.next = &step{action: a}
}

// Apply runs a forwards against t and, when it succeeds, records it as a
// new step or chained onto the last one when concat is set.
func (h *History) Apply(user, bookmark uuid.UUID, t *Target, a Action, concat bool) bool {
	if !a.Redo(t) {
		return false
	}
	if concat {
		h.Concat(user, bookmark, a)
	} else {
		h.Add(user, bookmark, a)
	}
	return true
}

// ready checks that every action in run order will have the annotation it
// needs, so a step that cannot complete is refused before anything runs.
func ready(actions []Action, t *Target, redo bool) bool {
	has := t.Annotation != nil
	for _, a := range actions {
		if a.NeedsAnnotation(redo) && !has {
			return false
		}
		if c, ok := a.(creator); ok && c.CreatesAnnotation(redo) {
			has = true
		}
	}
	return true
}

// Undo reverses user's most recent applied step. The chain runs newest
// action first. When the step cannot run, or no action in it succeeds, the
// history position is left unchanged and false is returned.
func (h *History) Undo(user uuid.UUID, t *Target) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos == 0 {
		return false
	}
	e := u.entries[u.pos-1]
	chain := e.actions()
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if !ready(chain, t, false) {
		return false
	}
	ok := false
	for _, a := range chain {
		if a.Undo(t) {
			ok = true
		}
	}
	if ok {
		u.pos--
	}
	return ok
}

// Redo reapplies user's most recently undone step.
func (h *History) Redo(user uuid.UUID, t *Target) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos >= len(u.entries) {
		return false
	}
	e := u.entries[u.pos]
	chain := e.actions()
	if !ready(chain, t, true) {
		return false
	}
	ok := false
	for _, a := range chain {
		if a.Redo(t) {
			ok = true
		}
	}
	if ok {
		u.pos++
	}
	return ok
}

// BookmarkForNextUndo is the bookmark the next Undo for user will modify,
// or uuid.Nil when there is nothing to undo.
func (h *History) BookmarkForNextUndo(user uuid.UUID) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos == 0 {
		return uuid.Nil
	}
	return u.entries[u.pos-1].bookmark
}

// BookmarkForNextRedo is the bookmark the next Redo for user will modify.
func (h *History) BookmarkForNextRedo(user uuid.UUID) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos >= len(u.entries) {
		return uuid.Nil
	}
	return u.entries[u.pos].bookmark
}

// FrameForNextUndo is the frame recorded by the next undo step's bookmark
// actions, or "" when the step carries none.
func (h *History) FrameForNextUndo(user uuid.UUID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos == 0 {
		return ""
	}
	return u.entries[u.pos-1].frame()
}

// FrameForNextRedo is FrameForNextUndo for the next redo step.
func (h *History) FrameForNextRedo(user uuid.UUID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	if u.pos >= len(u.entries) {
		return ""
	}
	return u.entries[u.pos].frame()
}

// CanUndo reports whether user has a step to undo.
func (h *History) CanUndo(user uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user(user).pos > 0
}

// CanRedo reports whether user has a step to redo.
func (h *History) CanRedo(user uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	u := h.user(user)
	return u.pos < len(u.entries)
}

// Len is the number of steps recorded for user, applied or not.
func (h *History) Len(user uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.user(user).entries)
}
