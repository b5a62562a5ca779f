// Package canvas is the annotation document model: strokes, captions and
// filled shapes held in paint order by a Canvas.
package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// Kind tags the concrete type held by an Item.
type Kind int

const (
	KindStroke Kind = iota
	KindCaption
	KindQuad
	KindPolygon
	KindEllipse
)

var kindNames = [...]string{
	KindStroke:  "stroke",
	KindCaption: "caption",
	KindQuad:    "quad",
	KindPolygon: "polygon",
	KindEllipse: "ellipse",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func kindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Item is one drawable element of a Canvas. The set of implementations is
// closed: Stroke, Caption, Quad, Polygon and Ellipse.
type Item interface {
	Kind() Kind
	clone() Item
}

// Colour is a linear RGB triplet.
type Colour struct {
	R, G, B float64
}

var (
	White = Colour{1, 1, 1}
	Black = Colour{0, 0, 0}
	Red   = Colour{1, 0, 0}
)

func (c Colour) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{c.R, c.G, c.B})
}

func (c *Colour) UnmarshalJSON(data []byte) error {
	var v [3]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("colour: %w", err)
	}
	*c = Colour{v[0], v[1], v[2]}
	return nil
}

// vec2 is the JSON form of an image space point.
type vec2 [2]float64

func toVec2(p geom.XY) vec2 { return vec2{p.X, p.Y} }

func (v vec2) xy() geom.XY { return geom.XY{X: v[0], Y: v[1]} }

// ItemsEqual compares two items by content. Strokes compare structurally,
// captions by content hash and shapes by geometry and style.
func ItemsEqual(a, b Item) bool {
	switch av := a.(type) {
	case Stroke:
		bv, ok := b.(Stroke)
		return ok && av.Equal(bv)
	case Caption:
		bv, ok := b.(Caption)
		return ok && av.Equal(bv)
	case Quad:
		bv, ok := b.(Quad)
		return ok && av.equal(bv)
	case Polygon:
		bv, ok := b.(Polygon)
		return ok && av.equal(bv)
	case Ellipse:
		bv, ok := b.(Ellipse)
		return ok && av.equal(bv)
	default:
		return false
	}
}
