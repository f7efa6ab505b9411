package text

import "fmt"

// GlyphID is a glyph index within a font.
type GlyphID uint16

// Face is a FontSource at a fixed size. Faces are cheap and immutable.
type Face struct {
	source *FontSource
	size   float64
}

// Source returns the font the face was created from.
func (f *Face) Source() *FontSource { return f.source }

// Size returns the face size in pixels per em.
func (f *Face) Size() float64 { return f.size }

// String returns "name@size".
func (f *Face) String() string { return fmt.Sprintf("%s@%g", f.source.name, f.size) }

// Metrics holds vertical face metrics in pixels. Descent is positive.
type Metrics struct {
	Ascent    float64
	Descent   float64
	LineGap   float64
	XHeight   float64
	CapHeight float64
}

// LineHeight returns ascent + descent + line gap.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Metrics returns the face's vertical metrics.
func (f *Face) Metrics() Metrics {
	m, err := f.source.metrics(f.size)
	if err != nil {
		return Metrics{}
	}
	return Metrics{
		Ascent:    fromFixed(m.Ascent),
		Descent:   fromFixed(m.Descent),
		LineGap:   fromFixed(m.Height - m.Ascent - m.Descent),
		XHeight:   fromFixed(m.XHeight),
		CapHeight: fromFixed(m.CapHeight),
	}
}
