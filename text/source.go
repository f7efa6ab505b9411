package text

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontSource is a parsed font file. One FontSource backs any number of
// faces at different sizes.
//
// FontSource is safe for concurrent use.
type FontSource struct {
	data []byte
	font *opentype.Font

	name   string
	family string

	// sfnt.Buffer is not safe for concurrent use.
	buffers sync.Pool
}

// NewFontSource parses TTF or OTF data.
// The data slice is copied and can be reused after this call.
func NewFontSource(data []byte) (*FontSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font: %w", err)
	}

	s := &FontSource{
		data: append([]byte(nil), data...),
		font: f,
	}
	s.buffers.New = func() any { return new(sfnt.Buffer) }

	s.family, _ = f.Name(nil, sfnt.NameIDFamily)
	s.name, _ = f.Name(nil, sfnt.NameIDFull)
	if s.name == "" {
		s.name = s.family
	}
	return s, nil
}

// Name returns the full font name, e.g. "Go Regular".
func (s *FontSource) Name() string { return s.name }

// Family returns the font family name, e.g. "Go".
// It is empty if the font carries no family name.
func (s *FontSource) Family() string { return s.family }

// Data returns the raw font data. The caller must not modify it.
func (s *FontSource) Data() []byte { return s.data }

// UnitsPerEm returns the font's design units per em.
func (s *FontSource) UnitsPerEm() int { return int(s.font.UnitsPerEm()) }

// NumGlyphs returns the number of glyphs in the font.
func (s *FontSource) NumGlyphs() int { return s.font.NumGlyphs() }

// Face returns a face of this font at size pixels per em.
func (s *FontSource) Face(size float64) (*Face, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	return &Face{source: s, size: size}, nil
}

func (s *FontSource) metrics(size float64) (font.Metrics, error) {
	buf := s.buffers.Get().(*sfnt.Buffer)
	defer s.buffers.Put(buf)
	return s.font.Metrics(buf, toFixed(size), font.HintingNone)
}

func (s *FontSource) loadGlyph(gid GlyphID, size float64) (sfnt.Segments, fixed.Int26_6, error) {
	buf := s.buffers.Get().(*sfnt.Buffer)
	defer s.buffers.Put(buf)

	segs, err := s.font.LoadGlyph(buf, sfnt.GlyphIndex(gid), toFixed(size), nil)
	if err != nil {
		return nil, 0, err
	}
	// LoadGlyph reuses buf for the returned segments.
	segs = append(sfnt.Segments(nil), segs...)
	adv, err := s.font.GlyphAdvance(buf, sfnt.GlyphIndex(gid), toFixed(size), font.HintingNone)
	if err != nil {
		return nil, 0, err
	}
	return segs, adv, nil
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
