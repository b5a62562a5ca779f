package textmetrics

import (
	"github.com/peterstace/simplefeatures/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func init() {
	Register(DefaultFont, NewFace(basicfont.Face7x13))
}

// Face measures text with a golang.org/x/image font face, scaling its pixel
// metrics to image units.
type Face struct {
	face   font.Face
	height float64
}

// NewFace wraps f.
func NewFace(f font.Face) *Face {
	h := fixedToFloat(f.Metrics().Height)
	if h <= 0 {
		h = 1
	}
	return &Face{face: f, height: h}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func (f *Face) advance(r rune, scale float64) float64 {
	if r == '\n' || r == '\r' {
		return 0
	}
	adv, ok := f.face.GlyphAdvance(r)
	if !ok {
		adv, _ = f.face.GlyphAdvance('?')
	}
	return fixedToFloat(adv) * scale
}

// Measure returns the unwrapped width of s in image units.
func (f *Face) Measure(s string, fontSize float64) float64 {
	scale := LineHeight(fontSize) / f.height
	return fixedToFloat(font.MeasureString(f.face, s)) * scale
}

type span struct {
	start, end int
}

// Layout implements Metrics.
func (f *Face) Layout(text []rune, pos geom.XY, wrapWidth, fontSize float64, just Justification) Layout {
	lh := LineHeight(fontSize)
	scale := lh / f.height

	widths := make([]float64, len(text))
	for i, r := range text {
		widths[i] = f.advance(r, scale)
	}

	var spans []span
	start := 0
	x := 0.0
	lastSpace := -1
	for i := 0; i < len(text); {
		r := text[i]
		if r == '\n' || r == '\r' {
			spans = append(spans, span{start, i})
			start = i + 1
			x = 0
			lastSpace = -1
			i++
			continue
		}
		if x+widths[i] > wrapWidth && i > start {
			if lastSpace >= start {
				spans = append(spans, span{start, lastSpace + 1})
				start = lastSpace + 1
			} else {
				spans = append(spans, span{start, i})
				start = i
			}
			x = 0
			for _, w := range widths[start:i] {
				x += w
			}
			lastSpace = -1
			continue
		}
		if r == ' ' {
			lastSpace = i
		}
		x += widths[i]
		i++
	}
	spans = append(spans, span{start, len(text)})

	out := Layout{
		LineHeight: lh,
		Bounds: Box{
			Min: geom.XY{X: pos.X, Y: pos.Y - float64(len(spans))*lh},
			Max: geom.XY{X: pos.X + wrapWidth, Y: pos.Y},
		},
	}

	for k, s := range spans {
		offsets := make([]float64, s.end-s.start+1)
		for i := s.start; i < s.end; i++ {
			offsets[i-s.start+1] = offsets[i-s.start] + widths[i]
		}
		lineWidth := offsets[len(offsets)-1]

		shift := 0.0
		switch just {
		case JustifyCentre:
			shift = (wrapWidth - lineWidth) / 2
		case JustifyRight:
			shift = wrapWidth - lineWidth
		}

		origin := geom.XY{X: pos.X + shift, Y: pos.Y - float64(k)*lh}
		out.Lines = append(out.Lines, Line{
			Start:   s.start,
			End:     s.end,
			Origin:  origin,
			Offsets: offsets,
		})

		for i := s.start; i < s.end; i++ {
			if text[i] == ' ' {
				continue
			}
			out.Glyphs = append(out.Glyphs, Glyph{
				Rune: text[i],
				Box: Box{
					Min: geom.XY{X: origin.X + offsets[i-s.start], Y: origin.Y - lh},
					Max: geom.XY{X: origin.X + offsets[i-s.start+1], Y: origin.Y},
				},
			})
		}
	}

	return out
}
