package canvas

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// Canvas is an ordered document of items. Item order is paint order.
//
// Structural mutations take the exclusive lock. Readers that iterate for
// rendering hold the shared lock for the whole iteration, either through
// Range or a ReadLock/ReadUnlock bracket around ItemsLocked.
type Canvas struct {
	mu sync.RWMutex

	id      uuid.UUID
	items   []Item
	current Item

	undoStack []history
	redoStack []history

	nextShapeID uint32
	changes     uint64
	hash        uint64
	lastChange  time.Time

	rejected []error
}

// New returns an empty canvas with a fresh id.
func New() *Canvas {
	c := &Canvas{id: uuid.New()}
	c.changed()
	return c
}

// ID is the canvas' owning uuid.
func (c *Canvas) ID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// changed bumps the change hash. Callers hold the exclusive lock.
func (c *Canvas) changed() {
	c.changes++
	var buf [24]byte
	copy(buf[:16], c.id[:])
	for i := 0; i < 8; i++ {
		buf[16+i] = byte(c.changes >> (8 * i))
	}
	c.hash = xxhash.Sum64(buf[:])
	c.lastChange = time.Now()
}

// Hash changes on every mutation. Compare against a previously seen value to
// detect that the canvas needs redrawing.
func (c *Canvas) Hash() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hash
}

// LastChange is the time of the most recent mutation.
func (c *Canvas) LastChange() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastChange
}

// ReadLock takes the shared lock. Pair with ReadUnlock.
func (c *Canvas) ReadLock() { c.mu.RLock() }

// ReadUnlock releases the shared lock.
func (c *Canvas) ReadUnlock() { c.mu.RUnlock() }

// ItemsLocked returns the live item slice. The caller must hold ReadLock and
// must not retain or modify the slice after ReadUnlock.
func (c *Canvas) ItemsLocked() []Item {
	return c.items
}

// Range calls fn for each committed item in paint order while holding the
// shared lock. Iteration stops when fn returns false.
func (c *Canvas) Range(fn func(i int, item Item) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, it := range c.items {
		if !fn(i, it) {
			return
		}
	}
}

// Items returns deep copies of the committed items.
func (c *Canvas) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// Len is the number of committed items. The current item is not counted.
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Empty reports whether there are no committed items.
func (c *Canvas) Empty() bool {
	return c.Len() == 0
}

// At returns a copy of the item at position i.
func (c *Canvas) At(i int) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i].clone(), true
}

// AppendItem adds item on top of the paint order.
func (c *Canvas) AppendItem(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item.clone())
	c.changed()
}

// OverwriteItem replaces the item at pos. Out of range positions are ignored.
func (c *Canvas) OverwriteItem(pos int, item Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.items) {
		return false
	}
	c.items[pos] = item.clone()
	c.changed()
	return true
}

// RemoveItem deletes the item at pos. Out of range positions are ignored.
func (c *Canvas) RemoveItem(pos int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.items) {
		return false
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	c.changed()
	return true
}

// InsertItem places item before position pos. pos may equal Len, which
// appends. Other out of range positions are ignored.
func (c *Canvas) InsertItem(pos int, item Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos > len(c.items) {
		return false
	}
	c.items = append(c.items, nil)
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = item.clone()
	c.changed()
	return true
}

// PrependItems places copies of items underneath the existing ones,
// keeping their relative order.
func (c *Canvas) PrependItems(items []Item) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, 0, len(items)+len(c.items))
	for _, it := range items {
		out = append(out, it.clone())
	}
	c.items = append(out, c.items...)
	c.changed()
}

// Clear removes every committed item and any item under construction. With
// keepHistory the removal is pushed as one undoable step, otherwise the undo
// and redo stacks are wiped as well.
func (c *Canvas) Clear(keepHistory bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if keepHistory {
		c.push(&clearItems{items: c.items})
	} else {
		c.undoStack = nil
		c.redoStack = nil
	}
	c.items = nil
	c.changed()
}

// FullClear resets the canvas to empty, dropping history.
func (c *Canvas) FullClear() {
	c.Clear(false)
}

// Undo reverses the most recent committed step. It reports false when there
// is nothing to undo.
func (c *Canvas) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.undoStack)
	if n == 0 {
		return false
	}
	h := c.undoStack[n-1]
	c.undoStack = c.undoStack[:n-1]
	h.undo(c)
	c.redoStack = append(c.redoStack, h)
	c.changed()
	return true
}

// Redo reapplies the most recently undone step.
func (c *Canvas) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.redoStack)
	if n == 0 {
		return false
	}
	h := c.redoStack[n-1]
	c.redoStack = c.redoStack[:n-1]
	h.redo(c)
	c.undoStack = append(c.undoStack, h)
	c.changed()
	return true
}

// CanUndo reports whether Undo would do anything.
func (c *Canvas) CanUndo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.undoStack) > 0
}

// CanRedo reports whether Redo would do anything.
func (c *Canvas) CanRedo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.redoStack) > 0
}

// push records a new step and invalidates redo history. Callers hold the
// exclusive lock.
func (c *Canvas) push(h history) {
	c.undoStack = append(c.undoStack, h)
	c.redoStack = nil
}

// HasCurrentItem reports whether an item is under construction.
func (c *Canvas) HasCurrentItem() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// CurrentItem returns a copy of the item under construction.
func (c *Canvas) CurrentItem() (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, false
	}
	return c.current.clone(), true
}

// endDrawLocked commits the current item. Callers hold the exclusive lock.
func (c *Canvas) endDrawLocked() {
	if c.current == nil {
		return
	}
	item := c.current
	c.current = nil
	c.items = append(c.items, item)
	c.push(&addItem{item: item.clone()})
	c.changed()
}

// EndDraw commits the item under construction as one undoable step.
func (c *Canvas) EndDraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endDrawLocked()
}

func (c *Canvas) start(item Item) {
	c.endDrawLocked()
	c.current = item
	c.changed()
}

// StartStroke begins drawing s, committing any item already in progress.
func (c *Canvas) StartStroke(s Stroke) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start(s.Clone())
}

// UpdateStroke appends a point to the stroke under construction.
func (c *Canvas) UpdateStroke(pos geom.XY, pressure float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.current.(Stroke)
	if !ok {
		return false
	}
	s.AddPoint(pos, pressure)
	c.current = s
	c.changed()
	return true
}

// StartCaption begins editing caption, committing any item already in progress.
func (c *Canvas) StartCaption(caption Caption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start(caption)
}

// UpdateCaption replaces the caption under construction.
func (c *Canvas) UpdateCaption(caption Caption) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.current.(Caption); !ok {
		return false
	}
	c.current = caption
	c.changed()
	return true
}

func (c *Canvas) startShape(s Item) uint32 {
	c.nextShapeID++
	id := c.nextShapeID
	switch v := s.(type) {
	case Quad:
		v.ID = id
		s = v
	case Polygon:
		v.ID = id
		s = v.clone()
	case Ellipse:
		v.ID = id
		s = v
	}
	c.start(s)
	return id
}

// StartQuad begins a quad and returns its id.
func (c *Canvas) StartQuad(q Quad) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startShape(q)
}

// StartPolygon begins a polygon and returns its id.
func (c *Canvas) StartPolygon(p Polygon) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startShape(p)
}

// StartEllipse begins an ellipse and returns its id.
func (c *Canvas) StartEllipse(e Ellipse) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startShape(e)
}

// replaceShape finds the shape with id among the current item and the
// committed items and swaps in the result of fn. Callers hold the exclusive
// lock.
func (c *Canvas) replaceShape(id uint32, fn func(Item) (Item, bool)) bool {
	if s, ok := c.current.(shape); ok && s.shapeID() == id {
		if next, ok := fn(s); ok {
			c.current = next
			c.changed()
			return true
		}
		return false
	}
	for i := len(c.items) - 1; i >= 0; i-- {
		if s, ok := c.items[i].(shape); ok && s.shapeID() == id {
			if next, ok := fn(s); ok {
				c.items[i] = next
				c.changed()
				return true
			}
			return false
		}
	}
	return false
}

// UpdateQuad moves the corners of quad id.
func (c *Canvas) UpdateQuad(id uint32, bl, tl, tr, br geom.XY) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceShape(id, func(it Item) (Item, bool) {
		q, ok := it.(Quad)
		if !ok {
			return nil, false
		}
		q.BL, q.TL, q.TR, q.BR = bl, tl, tr, br
		return q, true
	})
}

// UpdatePolygon replaces the vertices of polygon id.
func (c *Canvas) UpdatePolygon(id uint32, points []geom.XY) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceShape(id, func(it Item) (Item, bool) {
		p, ok := it.(Polygon)
		if !ok {
			return nil, false
		}
		p.Points = append([]geom.XY(nil), points...)
		return p, true
	})
}

// UpdateEllipse changes the geometry of ellipse id.
func (c *Canvas) UpdateEllipse(id uint32, center, radius geom.XY, angle float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceShape(id, func(it Item) (Item, bool) {
		e, ok := it.(Ellipse)
		if !ok {
			return nil, false
		}
		e.Center, e.Radius, e.Angle = center, radius, angle
		return e, true
	})
}

// RemoveShape deletes shape id whether it is in progress or committed.
func (c *Canvas) RemoveShape(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.current.(shape); ok && s.shapeID() == id {
		c.current = nil
		c.changed()
		return true
	}
	for i, it := range c.items {
		if s, ok := it.(shape); ok && s.shapeID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.changed()
			return true
		}
	}
	return false
}

// FadeAllStrokes lowers the opacity of every stroke by step and drops
// strokes that reach zero. The removal is not undoable. It reports whether
// any strokes remain.
func (c *Canvas) FadeAllStrokes(step float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	remaining := false
	for _, it := range c.items {
		if s, ok := it.(Stroke); ok {
			s.Opacity -= step
			if s.Opacity <= 0 {
				continue
			}
			remaining = true
			it = s
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
	c.changed()
	return remaining
}

// Clone copies the committed items and id. History and the item under
// construction are not copied.
func (c *Canvas) Clone() *Canvas {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := &Canvas{
		id:          c.id,
		items:       make([]Item, len(c.items)),
		nextShapeID: c.nextShapeID,
	}
	for i, it := range c.items {
		out.items[i] = it.clone()
	}
	out.changed()
	return out
}

// ContentEqual compares committed items in order.
func (c *Canvas) ContentEqual(o *Canvas) bool {
	a := c.Items()
	b := o.Items()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ItemsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Rejected lists the items that could not be decoded by the last
// UnmarshalJSON call.
func (c *Canvas) Rejected() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]error(nil), c.rejected...)
}

// FindStroke returns the position of the last stroke structurally equal to s.
func (c *Canvas) FindStroke(s Stroke) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.items) - 1; i >= 0; i-- {
		if v, ok := c.items[i].(Stroke); ok && v.Equal(s) {
			return i
		}
	}
	return -1
}

// FindCaption returns the position and value of the caption with id.
func (c *Canvas) FindCaption(id uuid.UUID) (int, Caption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, it := range c.items {
		if v, ok := it.(Caption); ok && v.ID == id {
			return i, v, true
		}
	}
	return -1, Caption{}, false
}
