// Package text is the font and shaping service used to resolve remote font
// resources and to turn text items into positioned glyphs.
//
// A FontSource is a parsed font file; a Face is a FontSource at one size.
// Registry keeps the fonts registered so far and hands out sized faces by
// family name. Re-registering a family replaces the font and its faces.
//
// Shaping goes through GoTextShaper (HarfBuzz via go-text/typesetting).
// Mixed-direction text is split into bidi runs with x/text and the runs are
// laid out in visual order.
package text
