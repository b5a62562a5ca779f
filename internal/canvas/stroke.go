package canvas

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// StrokeType selects how a stroke is drawn.
type StrokeType int

const (
	Pen StrokeType = iota
	Brush
	Erase
)

func (t StrokeType) String() string {
	switch t {
	case Pen:
		return "pen"
	case Brush:
		return "brush"
	case Erase:
		return "erase"
	default:
		return fmt.Sprintf("stroke_type(%d)", int(t))
	}
}

func parseStrokeType(s string) (StrokeType, error) {
	switch s {
	case "pen":
		return Pen, nil
	case "brush":
		return Brush, nil
	case "erase":
		return Erase, nil
	default:
		return 0, fmt.Errorf("unknown stroke type %q", s)
	}
}

// circleSegments is the number of segments used by MakeCircle.
const circleSegments = 48

// Point is a stroke sample in image space.
type Point struct {
	Pos      geom.XY
	Pressure float64
}

// Stroke is a pressure sensitive polyline.
type Stroke struct {
	ID                 uuid.UUID
	Type               StrokeType
	Colour             Colour
	Thickness          float64
	Softness           float64
	Opacity            float64
	SizeSensitivity    float64
	OpacitySensitivity float64
	Points             []Point
}

// NewPen returns a hard edged stroke with no pressure response.
func NewPen(colour Colour, thickness, softness, opacity float64) Stroke {
	return Stroke{
		ID:        uuid.New(),
		Type:      Pen,
		Colour:    colour,
		Thickness: thickness,
		Softness:  softness,
		Opacity:   opacity,
	}
}

// NewBrush returns a stroke whose size and opacity follow pen pressure.
func NewBrush(colour Colour, thickness, softness, opacity, sizeSensitivity, opacitySensitivity float64) Stroke {
	return Stroke{
		ID:                 uuid.New(),
		Type:               Brush,
		Colour:             colour,
		Thickness:          thickness,
		Softness:           softness,
		Opacity:            opacity,
		SizeSensitivity:    sizeSensitivity,
		OpacitySensitivity: opacitySensitivity,
	}
}

// NewErase returns an erase stroke of the given thickness.
func NewErase(thickness float64) Stroke {
	return Stroke{
		ID:                 uuid.New(),
		Type:               Erase,
		Colour:             White,
		Thickness:          thickness,
		Opacity:            1,
		SizeSensitivity:    1,
		OpacitySensitivity: 1,
	}
}

func (s Stroke) Kind() Kind { return KindStroke }

func (s Stroke) clone() Item { return s.Clone() }

// Clone returns a copy that shares no memory with s.
func (s Stroke) Clone() Stroke {
	c := s
	if s.Points != nil {
		c.Points = make([]Point, len(s.Points))
		copy(c.Points, s.Points)
	}
	return c
}

// AddPoint appends a sample unless it repeats the last one exactly.
func (s *Stroke) AddPoint(pos geom.XY, pressure float64) {
	if n := len(s.Points); n > 0 && s.Points[n-1].Pos == pos && s.Points[n-1].Pressure == pressure {
		return
	}
	s.Points = append(s.Points, Point{Pos: pos, Pressure: pressure})
}

// AddPoints appends samples with the same deduplication as AddPoint.
func (s *Stroke) AddPoints(points []Point) {
	for _, p := range points {
		s.AddPoint(p.Pos, p.Pressure)
	}
}

// MakeSquare replaces the points with the outline of the rectangle spanned by
// two opposite corners.
func (s *Stroke) MakeSquare(corner1, corner2 geom.XY) {
	s.Points = []Point{
		{Pos: corner1, Pressure: 1},
		{Pos: geom.XY{X: corner2.X, Y: corner1.Y}, Pressure: 1},
		{Pos: corner2, Pressure: 1},
		{Pos: geom.XY{X: corner1.X, Y: corner2.Y}, Pressure: 1},
		{Pos: corner1, Pressure: 1},
	}
}

// MakeCircle replaces the points with a closed circle outline.
func (s *Stroke) MakeCircle(origin geom.XY, radius float64) {
	s.Points = make([]Point, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		a := float64(i) * 2 * math.Pi / circleSegments
		s.Points = append(s.Points, Point{
			Pos:      geom.XY{X: origin.X + math.Cos(a)*radius, Y: origin.Y + math.Sin(a)*radius},
			Pressure: 1,
		})
	}
}

// MakeArrow replaces the points with a line from start to end with an arrow
// head at end. The head scales with the stroke thickness.
func (s *Stroke) MakeArrow(start, end geom.XY) {
	headLen := math.Max(s.Thickness*4, 0.01)
	var v geom.XY
	if start == end {
		v = geom.XY{X: 1, Y: 0}.Scale(s.Thickness * 4)
	} else {
		d := start.Sub(end)
		v = d.Scale(headLen / d.Length())
	}
	t := geom.XY{X: v.Y, Y: -v.X}

	s.Points = []Point{
		{Pos: start, Pressure: 1},
		{Pos: end, Pressure: 1},
		{Pos: end.Add(v).Add(t), Pressure: 1},
		{Pos: end, Pressure: 1},
		{Pos: end.Add(v).Sub(t), Pressure: 1},
	}
}

// MakeLine replaces the points with a straight segment.
func (s *Stroke) MakeLine(start, end geom.XY) {
	s.Points = []Point{
		{Pos: start, Pressure: 1},
		{Pos: end, Pressure: 1},
	}
}

// Fade lowers every point's pressure by step and reports whether the
// stroke has become invisible.
func (s *Stroke) Fade(step float64) bool {
	visible := false
	for i := range s.Points {
		s.Points[i].Pressure = math.Max(0, s.Points[i].Pressure-step)
		if s.Points[i].Pressure > 0 {
			visible = true
		}
	}
	return !visible
}

// Hash covers type, style and every point.
func (s Stroke) Hash() uint64 {
	h := newContentHasher()
	h.uint(uint64(s.Type))
	h.colour(s.Colour)
	h.float(s.Thickness)
	h.float(s.Softness)
	h.float(s.Opacity)
	h.float(s.SizeSensitivity)
	h.float(s.OpacitySensitivity)
	h.uint(uint64(len(s.Points)))
	for _, p := range s.Points {
		h.xy(p.Pos)
		h.float(p.Pressure)
	}
	return h.sum()
}

// Equal compares type, style and points. The id is not part of equality.
func (s Stroke) Equal(o Stroke) bool {
	if s.Type != o.Type || s.Colour != o.Colour || s.Thickness != o.Thickness ||
		s.Softness != o.Softness || s.Opacity != o.Opacity ||
		s.SizeSensitivity != o.SizeSensitivity || s.OpacitySensitivity != o.OpacitySensitivity ||
		len(s.Points) != len(o.Points) {
		return false
	}
	for i := range s.Points {
		if s.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}
