package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/framereview/annotations/internal/transform"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrMissingField is returned when a required payload field is absent.
var ErrMissingField = errors.New("missing field")

// wire shapes of the ingress JSON

type eventLine struct {
	Event   string          `json:"event"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

type pointWire struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Pressure *float64 `json:"pressure"`
}

type paintWire struct {
	Size               *float64  `json:"size"`
	RGBA               []float64 `json:"rgba"`
	Softness           float64   `json:"softness"`
	SizeSensitivity    float64   `json:"size_sensitivity"`
	OpacitySensitivity float64   `json:"opacity_sensitivity"`
}

type paintWireEvent struct {
	Viewport string      `json:"viewport"`
	ItemType string      `json:"item_type"`
	Point    *pointWire  `json:"point"`
	Points   []pointWire `json:"points"`
	Paint    *paintWire  `json:"paint"`
}

type captionPointerWire struct {
	Viewport         string    `json:"viewport"`
	PointerPosition  []float64 `json:"pointer_position"`
	ViewportPixScale *float64  `json:"viewport_pix_scale"`
}

type captionPropertyWire struct {
	Viewport          string    `json:"viewport"`
	FontName          *string   `json:"font_name"`
	FontSize          *float64  `json:"font_size"`
	Colour            []float64 `json:"colour"`
	Opacity           *float64  `json:"opacity"`
	WrapWidth         *float64  `json:"wrap_width"`
	Justification     *int      `json:"justification"`
	BackgroundColour  []float64 `json:"background_colour"`
	BackgroundOpacity *float64  `json:"background_opacity"`
}

type imageWire struct {
	FrameKey        string    `json:"frame_key"`
	LayoutTransform []float64 `json:"layout_transform"`
	Aspect          float64   `json:"aspect"`
}

type imagesWire struct {
	Viewport          string      `json:"viewport"`
	ViewportTransform []float64   `json:"viewport_transform"`
	Images            []imageWire `json:"images"`
	DrawOrder         []int       `json:"draw_order"`
	HeroIndex         int         `json:"hero_index"`
	Playing           bool        `json:"playing"`
}

// Parser turns raw event payloads into typed structs. Required fields that
// are missing fail the parse; optional ones fall back to defaults with a
// debug log.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseEvent decodes one NDJSON ingress line.
func ParseEvent(line []byte) (Event, error) {
	var raw eventLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return Event{}, fmt.Errorf("error parsing event: %w", err)
	}
	if raw.Event == "" {
		return Event{}, fmt.Errorf("error parsing event: %w: event", ErrMissingField)
	}
	if raw.UserID == "" {
		return Event{}, fmt.Errorf("error parsing %s: %w: user_id", raw.Event, ErrMissingField)
	}
	userID, err := uuid.Parse(raw.UserID)
	if err != nil {
		return Event{}, fmt.Errorf("error parsing %s user_id: %w", raw.Event, err)
	}
	payload := []byte(raw.Payload)
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(payload, []byte("null")) {
		payload = []byte("{}")
	}
	return Event{Name: raw.Event, UserID: userID, Payload: payload}, nil
}

func decode(name string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error parsing %s: %w", name, err)
	}
	return nil
}

func (p *Parser) samples(name string, single *pointWire, many []pointWire) ([]PointerSample, error) {
	if single != nil {
		many = append([]pointWire{*single}, many...)
	}
	if len(many) == 0 {
		return nil, fmt.Errorf("error parsing %s: %w: point", name, ErrMissingField)
	}
	out := make([]PointerSample, 0, len(many))
	for i, pw := range many {
		if pw.X == nil || pw.Y == nil {
			return nil, fmt.Errorf("error parsing %s point %d: %w: x/y", name, i, ErrMissingField)
		}
		pressure := 1.0
		if pw.Pressure != nil {
			pressure = *pw.Pressure
		} else {
			p.logger.Debug("Point without pressure, using 1", "event", name)
		}
		out = append(out, PointerSample{Pos: geom.XY{X: *pw.X, Y: *pw.Y}, Pressure: pressure})
	}
	return out, nil
}

// ParsePaintStart parses a PaintStart payload. item_type and at least one
// point are required; paint fields default to an opaque white 0.002 pen.
func (p *Parser) ParsePaintStart(data []byte) (PaintStart, error) {
	var w paintWireEvent
	if err := decode(EventPaintStart, data, &w); err != nil {
		return PaintStart{}, err
	}
	if w.ItemType == "" {
		return PaintStart{}, fmt.Errorf("error parsing %s: %w: item_type", EventPaintStart, ErrMissingField)
	}
	pts, err := p.samples(EventPaintStart, w.Point, w.Points)
	if err != nil {
		return PaintStart{}, err
	}

	paint := Paint{Size: 0.002, RGBA: [4]float64{1, 1, 1, 1}}
	if w.Paint != nil {
		if w.Paint.Size != nil {
			paint.Size = *w.Paint.Size
		}
		switch len(w.Paint.RGBA) {
		case 0:
		case 3, 4:
			copy(paint.RGBA[:], w.Paint.RGBA)
		default:
			return PaintStart{}, fmt.Errorf("error parsing %s rgba: want 3 or 4 components, got %d", EventPaintStart, len(w.Paint.RGBA))
		}
		paint.Softness = w.Paint.Softness
		paint.SizeSensitivity = w.Paint.SizeSensitivity
		paint.OpacitySensitivity = w.Paint.OpacitySensitivity
	} else {
		p.logger.Debug("PaintStart without paint, using defaults")
	}

	return PaintStart{Viewport: w.Viewport, ItemType: w.ItemType, Points: pts, Paint: paint}, nil
}

// ParsePaintPoint parses a PaintPoint payload.
func (p *Parser) ParsePaintPoint(data []byte) (PaintPoint, error) {
	var w paintWireEvent
	if err := decode(EventPaintPoint, data, &w); err != nil {
		return PaintPoint{}, err
	}
	pts, err := p.samples(EventPaintPoint, w.Point, w.Points)
	if err != nil {
		return PaintPoint{}, err
	}
	return PaintPoint{Viewport: w.Viewport, Points: pts}, nil
}

// ParseViewportCommand parses payloads that only name a viewport.
func (p *Parser) ParseViewportCommand(name string, data []byte) (ViewportCommand, error) {
	var w struct {
		Viewport string `json:"viewport"`
	}
	if err := decode(name, data, &w); err != nil {
		return ViewportCommand{}, err
	}
	return ViewportCommand{Viewport: w.Viewport}, nil
}

// ParseCaptionPointer parses CaptionInteract, CaptionStartEdit,
// CaptionPointerHover and CaptionMove payloads.
func (p *Parser) ParseCaptionPointer(name string, data []byte) (CaptionPointer, error) {
	var w captionPointerWire
	if err := decode(name, data, &w); err != nil {
		return CaptionPointer{}, err
	}
	if len(w.PointerPosition) != 2 {
		return CaptionPointer{}, fmt.Errorf("error parsing %s: %w: pointer_position", name, ErrMissingField)
	}
	scale := 1.0
	if w.ViewportPixScale != nil && *w.ViewportPixScale > 0 {
		scale = *w.ViewportPixScale
	}
	return CaptionPointer{
		Viewport: w.Viewport,
		Pointer:  geom.XY{X: w.PointerPosition[0], Y: w.PointerPosition[1]},
		PixScale: scale,
	}, nil
}

func triple(name, field string, v []float64) (*[3]float64, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) < 3 {
		return nil, fmt.Errorf("error parsing %s %s: want 3 components, got %d", name, field, len(v))
	}
	return &[3]float64{v[0], v[1], v[2]}, nil
}

// ParseCaptionProperty parses a CaptionProperty payload.
func (p *Parser) ParseCaptionProperty(data []byte) (CaptionProperty, error) {
	var w captionPropertyWire
	if err := decode(EventCaptionProperty, data, &w); err != nil {
		return CaptionProperty{}, err
	}
	colour, err := triple(EventCaptionProperty, "colour", w.Colour)
	if err != nil {
		return CaptionProperty{}, err
	}
	bg, err := triple(EventCaptionProperty, "background_colour", w.BackgroundColour)
	if err != nil {
		return CaptionProperty{}, err
	}
	return CaptionProperty{
		Viewport:          w.Viewport,
		FontName:          w.FontName,
		FontSize:          w.FontSize,
		Colour:            colour,
		Opacity:           w.Opacity,
		WrapWidth:         w.WrapWidth,
		Justification:     w.Justification,
		BackgroundColour:  bg,
		BackgroundOpacity: w.BackgroundOpacity,
	}, nil
}

// ParseCaptionText parses a CaptionTextEntry payload.
func (p *Parser) ParseCaptionText(data []byte) (CaptionText, error) {
	var w struct {
		Viewport string  `json:"viewport"`
		Text     *string `json:"text"`
	}
	if err := decode(EventCaptionTextEntry, data, &w); err != nil {
		return CaptionText{}, err
	}
	if w.Text == nil {
		return CaptionText{}, fmt.Errorf("error parsing %s: %w: text", EventCaptionTextEntry, ErrMissingField)
	}
	return CaptionText{Viewport: w.Viewport, Text: *w.Text}, nil
}

// ParseCaptionKey parses a CaptionKeyPress payload.
func (p *Parser) ParseCaptionKey(data []byte) (CaptionKey, error) {
	var w struct {
		Viewport string `json:"viewport"`
		Key      *int   `json:"key"`
	}
	if err := decode(EventCaptionKeyPress, data, &w); err != nil {
		return CaptionKey{}, err
	}
	if w.Key == nil {
		return CaptionKey{}, fmt.Errorf("error parsing %s: %w: key", EventCaptionKeyPress, ErrMissingField)
	}
	return CaptionKey{Viewport: w.Viewport, Key: *w.Key}, nil
}

// ParseToolChanged parses a ToolChanged payload.
func (p *Parser) ParseToolChanged(data []byte) (ToolChanged, error) {
	var w struct {
		Tool string `json:"tool"`
	}
	if err := decode(EventToolChanged, data, &w); err != nil {
		return ToolChanged{}, err
	}
	if w.Tool == "" {
		return ToolChanged{}, fmt.Errorf("error parsing %s: %w: tool", EventToolChanged, ErrMissingField)
	}
	return ToolChanged{Tool: w.Tool}, nil
}

// ParseDisplayMode parses a SetDisplayMode payload.
func (p *Parser) ParseDisplayMode(data []byte) (DisplayMode, error) {
	var w struct {
		Mode string `json:"display_mode"`
	}
	if err := decode(EventSetDisplayMode, data, &w); err != nil {
		return DisplayMode{}, err
	}
	if w.Mode == "" {
		return DisplayMode{}, fmt.Errorf("error parsing %s: %w: display_mode", EventSetDisplayMode, ErrMissingField)
	}
	return DisplayMode{Mode: w.Mode}, nil
}

func mat4(name, field string, v []float64) (transform.Mat4, error) {
	if len(v) == 0 {
		return transform.Identity(), nil
	}
	if len(v) != 16 {
		return transform.Mat4{}, fmt.Errorf("error parsing %s %s: want 16 elements, got %d", name, field, len(v))
	}
	var m transform.Mat4
	copy(m[:], v)
	return m, nil
}

// ParseImagesOnScreen parses an ImagesOnScreen payload. Missing transforms
// are identity; a missing draw order means the listed order.
func (p *Parser) ParseImagesOnScreen(data []byte) (ImagesOnScreen, error) {
	var w imagesWire
	if err := decode(EventImagesOnScreen, data, &w); err != nil {
		return ImagesOnScreen{}, err
	}
	vt, err := mat4(EventImagesOnScreen, "viewport_transform", w.ViewportTransform)
	if err != nil {
		return ImagesOnScreen{}, err
	}

	out := ImagesOnScreen{
		Viewport:          w.Viewport,
		ViewportTransform: vt,
		Images:            make([]Image, 0, len(w.Images)),
		HeroIndex:         w.HeroIndex,
		Playing:           w.Playing,
	}
	for i, iw := range w.Images {
		if iw.FrameKey == "" {
			return ImagesOnScreen{}, fmt.Errorf("error parsing %s image %d: %w: frame_key", EventImagesOnScreen, i, ErrMissingField)
		}
		layout, err := mat4(EventImagesOnScreen, "layout_transform", iw.LayoutTransform)
		if err != nil {
			return ImagesOnScreen{}, err
		}
		aspect := iw.Aspect
		if aspect <= 0 {
			p.logger.Debug("Image without aspect, using 16:9", "frame", iw.FrameKey)
			aspect = 16.0 / 9.0
		}
		out.Images = append(out.Images, Image{FrameKey: iw.FrameKey, Layout: layout, Aspect: aspect})
	}

	if len(w.DrawOrder) == 0 {
		out.DrawOrder = make([]int, len(out.Images))
		for i := range out.DrawOrder {
			out.DrawOrder[i] = i
		}
	} else {
		for _, idx := range w.DrawOrder {
			if idx < 0 || idx >= len(out.Images) {
				return ImagesOnScreen{}, fmt.Errorf("error parsing %s draw_order: index %d out of range", EventImagesOnScreen, idx)
			}
		}
		out.DrawOrder = w.DrawOrder
	}
	if out.HeroIndex < 0 || out.HeroIndex >= len(out.Images) {
		out.HeroIndex = 0
	}
	return out, nil
}
