package text

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// Direction is the writing direction of a run.
type Direction uint8

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

func (d Direction) String() string {
	if d == DirectionRTL {
		return "RTL"
	}
	return "LTR"
}

// ShapedGlyph is a glyph positioned relative to the start of the shaped
// text on the baseline, in pixels.
type ShapedGlyph struct {
	GID GlyphID
	// Cluster is the rune index in the source text the glyph came from.
	Cluster  int
	X, Y     float64
	XAdvance float64
}

// Run is a maximal substring with one bidi direction, in rune indices
// [Start, End).
type Run struct {
	Start, End int
	Direction  Direction
}

// GoTextShaper shapes text with HarfBuzz via go-text/typesetting.
//
// GoTextShaper is safe for concurrent use. Parsed go-text fonts are cached
// per FontSource; HarfbuzzShaper instances are pooled since they are not.
type GoTextShaper struct {
	shapers sync.Pool

	mu    sync.RWMutex
	fonts map[*FontSource]*font.Font
}

// NewGoTextShaper creates a shaper.
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		shapers: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		fonts:   make(map[*FontSource]*font.Font),
	}
}

// Shape converts s into positioned glyphs for face. Bidi runs are shaped
// separately and concatenated in visual order. It returns nil for empty
// text or a font go-text cannot parse.
func (sh *GoTextShaper) Shape(s string, face *Face) []ShapedGlyph {
	if s == "" || face == nil {
		return nil
	}
	f, err := sh.font(face.source)
	if err != nil {
		return nil
	}

	runes := []rune(s)
	// font.Face is not safe for concurrent use; one per call.
	gf := font.NewFace(f)
	hb := sh.shapers.Get().(*shaping.HarfbuzzShaper)
	defer sh.shapers.Put(hb)

	var out []ShapedGlyph
	var pen float64
	for _, run := range Runs(s) {
		dir := di.DirectionLTR
		if run.Direction == DirectionRTL {
			dir = di.DirectionRTL
		}
		res := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  run.Start,
			RunEnd:    run.End,
			Direction: dir,
			Face:      gf,
			Size:      toFixed(face.size),
			Script:    detectScript(runes[run.Start:run.End]),
			Language:  language.NewLanguage("en"),
		})
		for _, g := range res.Glyphs {
			adv := fromFixed(g.Advance)
			out = append(out, ShapedGlyph{
				GID:      GlyphID(g.GlyphID), //nolint:gosec // glyph indices fit in uint16
				Cluster:  g.TextIndex(),
				X:        pen + fromFixed(g.XOffset),
				Y:        -fromFixed(g.YOffset),
				XAdvance: adv,
			})
			pen += adv
		}
	}
	return out
}

func (sh *GoTextShaper) font(src *FontSource) (*font.Font, error) {
	sh.mu.RLock()
	f, ok := sh.fonts[src]
	sh.mu.RUnlock()
	if ok {
		return f, nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if f, ok := sh.fonts[src]; ok {
		return f, nil
	}
	face, err := font.ParseTTF(bytes.NewReader(src.data))
	if err != nil {
		return nil, err
	}
	sh.fonts[src] = face.Font
	return face.Font, nil
}

// Forget drops the cached parse of src.
func (sh *GoTextShaper) Forget(src *FontSource) {
	sh.mu.Lock()
	delete(sh.fonts, src)
	sh.mu.Unlock()
}

// Runs splits s into bidi runs in visual order. Text without any
// right-to-left content is a single LTR run.
func Runs(s string) []Run {
	n := len([]rune(s))
	if n == 0 {
		return nil
	}
	single := []Run{{Start: 0, End: n, Direction: DirectionLTR}}

	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return single
	}
	ord, err := p.Order()
	if err != nil || ord.NumRuns() == 0 {
		return single
	}

	runs := make([]Run, 0, ord.NumRuns())
	for i := range ord.NumRuns() {
		r := ord.Run(i)
		start, end := r.Pos() // rune indices, end inclusive
		d := DirectionLTR
		if r.Direction() == bidi.RightToLeft {
			d = DirectionRTL
		}
		runs = append(runs, Run{Start: start, End: end + 1, Direction: d})
	}
	return runs
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
