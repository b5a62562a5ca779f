package canvas

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrUnsupportedVersion is returned for items written with a schema this
// build does not know.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

const (
	strokeSchemaLegacy  = 1
	strokeSchemaCurrent = 2

	captionSchemaLegacy  = 1
	captionSchemaCurrent = 2
)

type document struct {
	UUID       *uuid.UUID        `json:"uuid,omitempty"`
	PenStrokes []json.RawMessage `json:"pen_strokes"`
	Captions   []json.RawMessage `json:"captions"`
	Quads      []json.RawMessage `json:"quads"`
	Polygons   []json.RawMessage `json:"polygons"`
	Ellipses   []json.RawMessage `json:"ellipses"`
	Order      []string          `json:"order,omitempty"`
}

type strokeV2 struct {
	Schema             int       `json:"schema"`
	ID                 uuid.UUID `json:"id"`
	Type               string    `json:"type"`
	Colour             Colour    `json:"colour"`
	Thickness          float64   `json:"thickness"`
	Softness           float64   `json:"softness"`
	Opacity            float64   `json:"opacity"`
	SizeSensitivity    float64   `json:"size_sensitivity"`
	OpacitySensitivity float64   `json:"opacity_sensitivity"`
	Points             []float64 `json:"points"`
}

// strokeLegacy is the older underscore-named layout. Points are flat x,y
// pairs when the sensitivities are absent and x,y,pressure triples otherwise.
type strokeLegacy struct {
	Opacity            float64   `json:"_opacity"`
	Thickness          float64   `json:"_thickness"`
	Softness           float64   `json:"_softness"`
	IsErase            bool      `json:"is_erase_stroke"`
	SizeSensitivity    *float64  `json:"_size_sensitivity"`
	OpacitySensitivity *float64  `json:"_opacity_sensitivity"`
	Points             []float64 `json:"_points"`
	R                  float64   `json:"r"`
	G                  float64   `json:"g"`
	B                  float64   `json:"b"`
}

type captionDoc struct {
	Schema            int           `json:"schema,omitempty"`
	ID                *uuid.UUID    `json:"id,omitempty"`
	Text              string        `json:"text"`
	Position          vec2          `json:"position"`
	WrapWidth         float64       `json:"wrap_width"`
	FontSize          float64       `json:"font_size"`
	FontName          string        `json:"font_name"`
	Colour            Colour        `json:"colour"`
	Opacity           float64       `json:"opacity"`
	Justification     Justification `json:"justification"`
	BackgroundColour  Colour        `json:"background_colour"`
	BackgroundOpacity float64       `json:"background_opacity"`
}

type quadDoc struct {
	BL       vec2    `json:"bl"`
	TL       vec2    `json:"tl"`
	TR       vec2    `json:"tr"`
	BR       vec2    `json:"br"`
	Colour   Colour  `json:"colour"`
	Softness float64 `json:"softness"`
	Opacity  float64 `json:"opacity"`
	Invert   bool    `json:"invert"`
}

type polygonDoc struct {
	Points   []vec2  `json:"points"`
	Colour   Colour  `json:"colour"`
	Softness float64 `json:"softness"`
	Opacity  float64 `json:"opacity"`
	Invert   bool    `json:"invert"`
}

type ellipseDoc struct {
	Center   vec2    `json:"center"`
	Radius   vec2    `json:"radius"`
	Angle    float64 `json:"angle"`
	Colour   Colour  `json:"colour"`
	Softness float64 `json:"softness"`
	Opacity  float64 `json:"opacity"`
	Invert   bool    `json:"invert"`
}

// MarshalJSON writes committed items grouped by kind with an order list that
// records paint order across kinds.
func (c *Canvas) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id := c.id
	doc := document{
		UUID:       &id,
		PenStrokes: []json.RawMessage{},
		Captions:   []json.RawMessage{},
		Quads:      []json.RawMessage{},
		Polygons:   []json.RawMessage{},
		Ellipses:   []json.RawMessage{},
		Order:      make([]string, 0, len(c.items)),
	}

	for _, it := range c.items {
		raw, err := encodeItem(it)
		if err != nil {
			return nil, err
		}
		switch it.Kind() {
		case KindStroke:
			doc.PenStrokes = append(doc.PenStrokes, raw)
		case KindCaption:
			doc.Captions = append(doc.Captions, raw)
		case KindQuad:
			doc.Quads = append(doc.Quads, raw)
		case KindPolygon:
			doc.Polygons = append(doc.Polygons, raw)
		case KindEllipse:
			doc.Ellipses = append(doc.Ellipses, raw)
		}
		doc.Order = append(doc.Order, it.Kind().String())
	}

	return json.Marshal(doc)
}

// MarshalItem encodes a single item with its current schema, as it appears
// inside a canvas document.
func MarshalItem(it Item) (json.RawMessage, error) {
	return encodeItem(it)
}

// UnmarshalStroke decodes one stroke written by MarshalItem or by an older
// stroke schema.
func UnmarshalStroke(raw json.RawMessage) (Stroke, error) {
	it, err := decodeStroke(raw)
	if err != nil {
		return Stroke{}, err
	}
	return it.(Stroke), nil
}

func encodeItem(it Item) (json.RawMessage, error) {
	var v any
	switch item := it.(type) {
	case Stroke:
		flat := make([]float64, 0, len(item.Points)*3)
		for _, p := range item.Points {
			flat = append(flat, p.Pos.X, p.Pos.Y, p.Pressure)
		}
		v = strokeV2{
			Schema:             strokeSchemaCurrent,
			ID:                 item.ID,
			Type:               item.Type.String(),
			Colour:             item.Colour,
			Thickness:          item.Thickness,
			Softness:           item.Softness,
			Opacity:            item.Opacity,
			SizeSensitivity:    item.SizeSensitivity,
			OpacitySensitivity: item.OpacitySensitivity,
			Points:             flat,
		}
	case Caption:
		id := item.ID
		v = captionDoc{
			Schema:            captionSchemaCurrent,
			ID:                &id,
			Text:              item.Text,
			Position:          toVec2(item.Position),
			WrapWidth:         item.WrapWidth,
			FontSize:          item.FontSize,
			FontName:          item.FontName,
			Colour:            item.Colour,
			Opacity:           item.Opacity,
			Justification:     item.Justification,
			BackgroundColour:  item.BackgroundColour,
			BackgroundOpacity: item.BackgroundOpacity,
		}
	case Quad:
		v = quadDoc{
			BL: toVec2(item.BL), TL: toVec2(item.TL), TR: toVec2(item.TR), BR: toVec2(item.BR),
			Colour: item.Colour, Softness: item.Softness, Opacity: item.Opacity, Invert: item.Invert,
		}
	case Polygon:
		pts := make([]vec2, len(item.Points))
		for i, p := range item.Points {
			pts[i] = toVec2(p)
		}
		v = polygonDoc{
			Points: pts, Colour: item.Colour, Softness: item.Softness, Opacity: item.Opacity, Invert: item.Invert,
		}
	case Ellipse:
		v = ellipseDoc{
			Center: toVec2(item.Center), Radius: toVec2(item.Radius), Angle: item.Angle,
			Colour: item.Colour, Softness: item.Softness, Opacity: item.Opacity, Invert: item.Invert,
		}
	default:
		return nil, fmt.Errorf("encode item: unknown item type %T", it)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", it.Kind(), err)
	}
	return raw, nil
}

// UnmarshalJSON replaces the canvas content. Items that fail to decode are
// skipped and reported through Rejected; the rest of the document loads.
// History is cleared.
func (c *Canvas) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error parsing canvas: %w", err)
	}

	var rejected []error
	decodeAll := func(raws []json.RawMessage, kind Kind, fn func(json.RawMessage) (Item, error)) []Item {
		out := make([]Item, len(raws))
		for i, raw := range raws {
			it, err := fn(raw)
			if err != nil {
				rejected = append(rejected, fmt.Errorf("%s %d: %w", kind, i, err))
				continue
			}
			out[i] = it
		}
		return out
	}

	groups := map[Kind][]Item{
		KindStroke:  decodeAll(doc.PenStrokes, KindStroke, decodeStroke),
		KindCaption: decodeAll(doc.Captions, KindCaption, decodeCaption),
		KindQuad:    decodeAll(doc.Quads, KindQuad, decodeQuad),
		KindPolygon: decodeAll(doc.Polygons, KindPolygon, decodePolygon),
		KindEllipse: decodeAll(doc.Ellipses, KindEllipse, decodeEllipse),
	}

	ordered, ok := interleave(groups, doc.Order)
	if !ok {
		ordered = nil
		for _, k := range []Kind{KindStroke, KindCaption, KindQuad, KindPolygon, KindEllipse} {
			ordered = append(ordered, groups[k]...)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if doc.UUID != nil {
		c.id = *doc.UUID
	} else if c.id == uuid.Nil {
		c.id = uuid.New()
	}
	c.items = c.items[:0]
	c.current = nil
	c.undoStack = nil
	c.redoStack = nil
	for _, it := range ordered {
		if it == nil {
			continue
		}
		if s, isShape := it.(shape); isShape {
			c.nextShapeID++
			it = withShapeID(s, c.nextShapeID)
		}
		c.items = append(c.items, it)
	}
	c.rejected = rejected
	c.changed()
	return nil
}

// interleave rebuilds paint order from the order list. It fails when the
// list does not account for every item exactly.
func interleave(groups map[Kind][]Item, order []string) ([]Item, bool) {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if len(order) == 0 || len(order) != total {
		return nil, false
	}
	next := map[Kind]int{}
	out := make([]Item, 0, total)
	for _, name := range order {
		k, ok := kindFromString(name)
		if !ok || next[k] >= len(groups[k]) {
			return nil, false
		}
		out = append(out, groups[k][next[k]])
		next[k]++
	}
	return out, true
}

func withShapeID(s shape, id uint32) Item {
	switch v := s.(type) {
	case Quad:
		v.ID = id
		return v
	case Polygon:
		v.ID = id
		return v
	case Ellipse:
		v.ID = id
		return v
	}
	return s
}

type schemaProbe struct {
	Schema    *int             `json:"schema"`
	Thickness *json.RawMessage `json:"thickness"`
	Legacy    *json.RawMessage `json:"_thickness"`
}

// decodeStroke dispatches on the declared schema. Unversioned records are
// sniffed: underscore field names mean the legacy layout, plain names the
// current one.
func decodeStroke(raw json.RawMessage) (Item, error) {
	var probe schemaProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	schema := 0
	switch {
	case probe.Schema != nil:
		schema = *probe.Schema
	case probe.Legacy != nil:
		schema = strokeSchemaLegacy
	case probe.Thickness != nil:
		schema = strokeSchemaCurrent
	default:
		return nil, errors.New("stroke has no recognisable fields")
	}

	switch schema {
	case strokeSchemaCurrent:
		return decodeStrokeV2(raw)
	case strokeSchemaLegacy:
		return decodeStrokeLegacy(raw)
	default:
		return nil, fmt.Errorf("stroke schema %d: %w", schema, ErrUnsupportedVersion)
	}
}

func decodeStrokeV2(raw json.RawMessage) (Item, error) {
	var d strokeV2
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	t := Pen
	if d.Type != "" {
		var err error
		if t, err = parseStrokeType(d.Type); err != nil {
			return nil, err
		}
	}
	if len(d.Points)%3 != 0 {
		return nil, fmt.Errorf("stroke points length %d is not a multiple of 3", len(d.Points))
	}
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	s := Stroke{
		ID:                 id,
		Type:               t,
		Colour:             d.Colour,
		Thickness:          d.Thickness,
		Softness:           d.Softness,
		Opacity:            d.Opacity,
		SizeSensitivity:    d.SizeSensitivity,
		OpacitySensitivity: d.OpacitySensitivity,
		Points:             make([]Point, 0, len(d.Points)/3),
	}
	for i := 0; i < len(d.Points); i += 3 {
		s.Points = append(s.Points, Point{
			Pos:      geom.XY{X: d.Points[i], Y: d.Points[i+1]},
			Pressure: d.Points[i+2],
		})
	}
	return s, nil
}

func decodeStrokeLegacy(raw json.RawMessage) (Item, error) {
	var d strokeLegacy
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}

	s := Stroke{
		ID:        uuid.New(),
		Type:      Pen,
		Colour:    Colour{d.R, d.G, d.B},
		Thickness: d.Thickness,
		Softness:  d.Softness,
		Opacity:   d.Opacity,
	}
	withPressure := d.SizeSensitivity != nil || d.OpacitySensitivity != nil
	if d.SizeSensitivity != nil {
		s.SizeSensitivity = *d.SizeSensitivity
	}
	if d.OpacitySensitivity != nil {
		s.OpacitySensitivity = *d.OpacitySensitivity
	}
	switch {
	case d.IsErase:
		s.Type = Erase
		s.Colour = White
	case s.SizeSensitivity != 0 || s.OpacitySensitivity != 0:
		s.Type = Brush
	}

	stride := 2
	if withPressure {
		stride = 3
	}
	if len(d.Points)%stride != 0 {
		return nil, fmt.Errorf("legacy stroke points length %d is not a multiple of %d", len(d.Points), stride)
	}
	for i := 0; i < len(d.Points); i += stride {
		p := Point{Pos: geom.XY{X: d.Points[i], Y: d.Points[i+1]}, Pressure: 1}
		if stride == 3 {
			p.Pressure = d.Points[i+2]
		}
		s.Points = append(s.Points, p)
	}
	return s, nil
}

func decodeCaption(raw json.RawMessage) (Item, error) {
	var d captionDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	switch d.Schema {
	case 0, captionSchemaLegacy, captionSchemaCurrent:
	default:
		return nil, fmt.Errorf("caption schema %d: %w", d.Schema, ErrUnsupportedVersion)
	}
	if d.Text == "" {
		return nil, errors.New("caption has no text")
	}

	c := Caption{
		ID:                uuid.New(),
		Text:              d.Text,
		Position:          d.Position.xy(),
		WrapWidth:         d.WrapWidth,
		FontSize:          d.FontSize,
		FontName:          d.FontName,
		Colour:            d.Colour,
		Opacity:           d.Opacity,
		Justification:     d.Justification,
		BackgroundColour:  d.BackgroundColour,
		BackgroundOpacity: d.BackgroundOpacity,
	}
	if d.ID != nil && *d.ID != uuid.Nil {
		c.ID = *d.ID
	}
	c.relayout()
	return c, nil
}

func decodeQuad(raw json.RawMessage) (Item, error) {
	var d quadDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return Quad{
		BL: d.BL.xy(), TL: d.TL.xy(), TR: d.TR.xy(), BR: d.BR.xy(),
		Colour: d.Colour, Softness: d.Softness, Opacity: d.Opacity, Invert: d.Invert,
	}, nil
}

func decodePolygon(raw json.RawMessage) (Item, error) {
	var d polygonDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	pts := make([]geom.XY, len(d.Points))
	for i, p := range d.Points {
		pts[i] = p.xy()
	}
	return Polygon{
		Points: pts, Colour: d.Colour, Softness: d.Softness, Opacity: d.Opacity, Invert: d.Invert,
	}, nil
}

func decodeEllipse(raw json.RawMessage) (Item, error) {
	var d ellipseDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return Ellipse{
		Center: d.Center.xy(), Radius: d.Radius.xy(), Angle: d.Angle,
		Colour: d.Colour, Softness: d.Softness, Opacity: d.Opacity, Invert: d.Invert,
	}, nil
}
