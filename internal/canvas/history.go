package canvas

// history is one step on a canvas' own undo stack. Implementations run
// with the exclusive lock held and touch fields directly.
type history interface {
	redo(c *Canvas)
	undo(c *Canvas)
}

type addItem struct {
	item Item
}

func (h *addItem) redo(c *Canvas) {
	c.items = append(c.items, h.item.clone())
}

func (h *addItem) undo(c *Canvas) {
	for i := len(c.items) - 1; i >= 0; i-- {
		if ItemsEqual(c.items[i], h.item) {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

type clearItems struct {
	items []Item
}

func (h *clearItems) redo(c *Canvas) {
	h.items = c.items
	c.items = nil
}

// undo puts the cleared items back underneath anything added since.
func (h *clearItems) undo(c *Canvas) {
	c.items = append(append([]Item(nil), h.items...), c.items...)
	h.items = nil
}
