// Package textmetrics lays out caption text in image space.
//
// Glyph shaping is not done here: a Metrics implementation only has to report
// advance widths for runes, and the package turns those into wrapped lines,
// glyph boxes and cursor positions.
package textmetrics

import (
	"math"
	"sync"

	"github.com/peterstace/simplefeatures/geom"
)

// Justification controls horizontal placement of wrapped lines.
type Justification int

const (
	JustifyLeft Justification = iota
	JustifyCentre
	JustifyRight
)

// DefaultFont is the name the built-in face is registered under.
const DefaultFont = "basic"

// ReferenceWidth is the pixel width of an image spanning two image units.
// Font sizes are expressed in pixels at this width.
const ReferenceWidth = 1920.0

// LineHeight converts a font size to a line height in image units.
func LineHeight(fontSize float64) float64 {
	return fontSize * 2.0 / ReferenceWidth
}

// Box is an axis aligned rectangle in image space. Image space has y
// pointing up, so a caption's top edge is Max.Y.
type Box struct {
	Min geom.XY
	Max geom.XY
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Box) Contains(p geom.XY) bool {
	if b.Empty() {
		return false
	}
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Metrics is the text measuring collaborator used by captions.
type Metrics interface {
	// Layout wraps text at wrapWidth starting from the top-left corner pos.
	Layout(text []rune, pos geom.XY, wrapWidth, fontSize float64, just Justification) Layout
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Metrics{}
)

// Register makes m available under name, replacing any previous entry.
func Register(name string, m Metrics) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = m
}

// Lookup returns the metrics registered for name, falling back to the
// default face for unknown or empty names.
func Lookup(name string) Metrics {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if m, ok := registry[name]; ok {
		return m
	}
	return registry[DefaultFont]
}

// Line is one wrapped line. Offsets holds the x position of every cursor
// boundary on the line relative to Origin.X, so len(Offsets) == End-Start+1.
type Line struct {
	Start   int
	End     int
	Origin  geom.XY
	Offsets []float64
}

// Glyph is the box a visible rune occupies.
type Glyph struct {
	Rune rune
	Box  Box
}

// Layout is the result of wrapping a caption.
type Layout struct {
	Lines      []Line
	LineHeight float64
	Bounds     Box
	Glyphs     []Glyph
}

func (l Layout) lineOf(idx int) int {
	k := 0
	for i, line := range l.Lines {
		if line.Start <= idx {
			k = i
		}
	}
	return k
}

func (l Layout) xAt(k, idx int) float64 {
	line := l.Lines[k]
	if idx > line.End {
		idx = line.End
	}
	if idx < line.Start {
		idx = line.Start
	}
	return line.Origin.X + line.Offsets[idx-line.Start]
}

// CursorAt returns the top and bottom of the text cursor drawn before rune idx.
func (l Layout) CursorAt(idx int) (top, bottom geom.XY) {
	if len(l.Lines) == 0 {
		return geom.XY{}, geom.XY{}
	}
	k := l.lineOf(idx)
	x := l.xAt(k, idx)
	y := l.Lines[k].Origin.Y
	return geom.XY{X: x, Y: y}, geom.XY{X: x, Y: y - l.LineHeight*0.8}
}

// IndexAt returns the cursor boundary closest to p.
func (l Layout) IndexAt(p geom.XY) int {
	if len(l.Lines) == 0 {
		return 0
	}
	top := l.Lines[0].Origin.Y
	k := 0
	if l.LineHeight > 0 {
		k = int(math.Floor((top - p.Y) / l.LineHeight))
	}
	if k < 0 {
		k = 0
	}
	if k >= len(l.Lines) {
		k = len(l.Lines) - 1
	}
	return l.nearestOnLine(k, p.X)
}

func (l Layout) nearestOnLine(k int, x float64) int {
	line := l.Lines[k]
	best := line.Start
	bestDist := math.Inf(1)
	for i, off := range line.Offsets {
		d := math.Abs(line.Origin.X + off - x)
		if d < bestDist {
			bestDist = d
			best = line.Start + i
		}
	}
	return best
}

// LineAbove moves idx to the closest boundary on the previous wrapped line.
// An index on the first line is returned unchanged.
func (l Layout) LineAbove(idx int) int {
	if len(l.Lines) == 0 {
		return idx
	}
	k := l.lineOf(idx)
	if k == 0 {
		return idx
	}
	return l.nearestOnLine(k-1, l.xAt(k, idx))
}

// LineBelow moves idx to the closest boundary on the next wrapped line.
// An index on the last line is returned unchanged.
func (l Layout) LineBelow(idx int) int {
	if len(l.Lines) == 0 {
		return idx
	}
	k := l.lineOf(idx)
	if k >= len(l.Lines)-1 {
		return idx
	}
	return l.nearestOnLine(k+1, l.xAt(k, idx))
}
