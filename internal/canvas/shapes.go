package canvas

import (
	"github.com/peterstace/simplefeatures/geom"
)

// Quad is a filled quadrilateral.
type Quad struct {
	ID       uint32
	BL       geom.XY
	TL       geom.XY
	TR       geom.XY
	BR       geom.XY
	Colour   Colour
	Softness float64
	Opacity  float64
	Invert   bool
}

func (q Quad) Kind() Kind { return KindQuad }
func (q Quad) clone() Item { return q }
func (q Quad) shapeID() uint32 { return q.ID }

func (q Quad) equal(o Quad) bool {
	q.ID, o.ID = 0, 0
	return q == o
}

// Polygon is a filled closed polygon.
type Polygon struct {
	ID       uint32
	Points   []geom.XY
	Colour   Colour
	Softness float64
	Opacity  float64
	Invert   bool
}

func (p Polygon) Kind() Kind { return KindPolygon }
func (p Polygon) shapeID() uint32 { return p.ID }

func (p Polygon) clone() Item {
	c := p
	if p.Points != nil {
		c.Points = append([]geom.XY(nil), p.Points...)
	}
	return c
}

func (p Polygon) equal(o Polygon) bool {
	if p.Colour != o.Colour || p.Softness != o.Softness || p.Opacity != o.Opacity ||
		p.Invert != o.Invert || len(p.Points) != len(o.Points) {
		return false
	}
	for i := range p.Points {
		if p.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}

// Ellipse is a filled, optionally rotated ellipse. Angle is in degrees.
type Ellipse struct {
	ID       uint32
	Center   geom.XY
	Radius   geom.XY
	Angle    float64
	Colour   Colour
	Softness float64
	Opacity  float64
	Invert   bool
}

func (e Ellipse) Kind() Kind { return KindEllipse }
func (e Ellipse) clone() Item { return e }
func (e Ellipse) shapeID() uint32 { return e.ID }

func (e Ellipse) equal(o Ellipse) bool {
	e.ID, o.ID = 0, 0
	return e == o
}

type shape interface {
	Item
	shapeID() uint32
}
