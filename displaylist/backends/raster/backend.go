// Package raster renders display lists to an RGBA image on the CPU.
//
// Rectangles and border edges are composited with image/draw; glyphs are
// filled from their vector outlines with golang.org/x/image/vector and
// clipped to the text item's box.
//
// Importing the package registers the "raster" backend:
//
//	import _ "github.com/gogpu/ggremote/displaylist/backends/raster"
//
//	b, _ := displaylist.NewBackend("raster")
//	_ = dl.Playback(b)
//	_ = b.(*raster.Backend).SavePNG("frame.png")
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/vector"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/displaylist"
	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

// Name is the registry name of the backend.
const Name = "raster"

func init() {
	displaylist.Register(Name, func() displaylist.Backend {
		return NewBackend()
	})
}

var (
	_ displaylist.Backend       = (*Backend)(nil)
	_ displaylist.WriterBackend = (*Backend)(nil)
	_ displaylist.ImageBackend  = (*Backend)(nil)
)

type glyphKey struct {
	face *text.Face
	gid  text.GlyphID
}

// Backend is a CPU rasterizer. The zero value is not usable; use
// NewBackend. A Backend is not safe for concurrent use.
type Backend struct {
	// Background fills each frame at Begin.
	Background color.Color

	img  *image.RGBA
	last *image.RGBA
	z    vector.Rasterizer

	families map[string]*text.FontSource
	faces    map[uint64]*text.Face
	outlines map[glyphKey]*text.GlyphOutline
}

// NewBackend creates a raster backend with a white background.
func NewBackend() *Backend {
	return &Backend{
		Background: color.White,
		families:   make(map[string]*text.FontSource),
		faces:      make(map[uint64]*text.Face),
		outlines:   make(map[glyphKey]*text.GlyphOutline),
	}
}

// AddResources records fonts and faces. A face whose family was never
// added reports ggremote.ErrMissingFont; the rest of u is still applied.
func (b *Backend) AddResources(u displaylist.ResourceUpdates) error {
	for _, f := range u.AddFonts {
		if old, ok := b.families[f.Family]; ok && old != f.Source {
			b.dropOutlines(old)
		}
		b.families[f.Family] = f.Source
	}
	var err error
	for _, fi := range u.AddFontInstances {
		if _, ok := b.families[fi.Family]; !ok {
			err = fmt.Errorf("raster: instance %d: %w: family %q", fi.InstanceKey, ggremote.ErrMissingFont, fi.Family)
			continue
		}
		b.faces[fi.InstanceKey] = fi.Face
	}
	return err
}

func (b *Backend) dropOutlines(src *text.FontSource) {
	for k := range b.outlines {
		if k.face.Source() == src {
			delete(b.outlines, k)
		}
	}
}

// Families returns the number of font families the backend knows.
func (b *Backend) Families() int { return len(b.families) }

// Begin starts a width x height frame cleared to the background.
func (b *Backend) Begin(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("raster: invalid frame size %dx%d", width, height)
	}
	if b.img == nil || b.img.Bounds().Dx() != width || b.img.Bounds().Dy() != height {
		b.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	bg := b.Background
	if bg == nil {
		bg = color.Transparent
	}
	draw.Draw(b.img, b.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return nil
}

// End finishes the frame; Image and WriteTo return it from now on.
func (b *Backend) End() error {
	if b.img == nil {
		return fmt.Errorf("raster: End without Begin")
	}
	b.last = b.img
	b.img = nil
	return nil
}

// Width returns the width of the frame in progress or the last frame.
func (b *Backend) Width() int { return b.current().Bounds().Dx() }

// Height returns the height of the frame in progress or the last frame.
func (b *Backend) Height() int { return b.current().Bounds().Dy() }

func (b *Backend) current() *image.RGBA {
	if b.img != nil {
		return b.img
	}
	if b.last != nil {
		return b.last
	}
	return &image.RGBA{}
}

// FillRect composites the rectangle over the frame.
func (b *Backend) FillRect(c displaylist.RectCommand) {
	b.fill(pixelRect(c.Rect), c.Color)
}

// DrawBorder fills each edge as a band inside the border box. Every style
// other than none is drawn solid.
func (b *Backend) DrawBorder(c displaylist.BorderCommand) {
	r := pixelRect(c.Rect)
	for _, side := range scene.Sides {
		w := int(c.Widths[side] + 0.5)
		if w <= 0 || c.Styles[side] == scene.BorderNone {
			continue
		}
		var band image.Rectangle
		switch side {
		case scene.SideTop:
			band = image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w)
		case scene.SideRight:
			band = image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y)
		case scene.SideBottom:
			band = image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y)
		case scene.SideLeft:
			band = image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y)
		}
		b.fill(band.Intersect(r), c.Colors[side])
	}
}

// DrawText fills the glyph outlines, clipped to the text box.
func (b *Backend) DrawText(c displaylist.TextCommand) {
	if b.img == nil || c.Face == nil || len(c.Glyphs) == 0 {
		return
	}
	clip := pixelRect(c.Rect).Intersect(b.img.Bounds())
	if clip.Empty() {
		return
	}

	b.z.Reset(clip.Dx(), clip.Dy())
	ox := c.Origin[0] - float32(clip.Min.X)
	oy := c.Origin[1] - float32(clip.Min.Y)
	drawn := false
	for _, g := range c.Glyphs {
		o := b.outline(c.Face, g.GID)
		if o == nil || len(o.Segments) == 0 {
			continue
		}
		b.addOutline(o, ox+float32(g.X), oy+float32(g.Y))
		drawn = true
	}
	if !drawn {
		return
	}
	b.z.Draw(b.img, clip, image.NewUniform(c.Color), image.Point{})
}

func (b *Backend) outline(face *text.Face, gid text.GlyphID) *text.GlyphOutline {
	k := glyphKey{face, gid}
	if o, ok := b.outlines[k]; ok {
		return o
	}
	o, err := face.Outline(gid)
	if err != nil {
		ggremote.Logger().Debug("raster: glyph outline", "face", face.String(), "gid", gid, "err", err)
		o = nil
	}
	b.outlines[k] = o
	return o
}

func (b *Backend) addOutline(o *text.GlyphOutline, dx, dy float32) {
	open := false
	for _, s := range o.Segments {
		p := s.Points
		switch s.Op {
		case text.OutlineOpMoveTo:
			if open {
				b.z.ClosePath()
			}
			b.z.MoveTo(dx+p[0].X, dy+p[0].Y)
			open = true
		case text.OutlineOpLineTo:
			b.z.LineTo(dx+p[0].X, dy+p[0].Y)
		case text.OutlineOpQuadTo:
			b.z.QuadTo(dx+p[0].X, dy+p[0].Y, dx+p[1].X, dy+p[1].Y)
		case text.OutlineOpCubicTo:
			b.z.CubeTo(dx+p[0].X, dy+p[0].Y, dx+p[1].X, dy+p[1].Y, dx+p[2].X, dy+p[2].Y)
		}
	}
	if open {
		b.z.ClosePath()
	}
}

func (b *Backend) fill(r image.Rectangle, c scene.Color) {
	if b.img == nil || c.A == 0 {
		return
	}
	r = r.Intersect(b.img.Bounds())
	if r.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xff {
		op = draw.Src
	}
	draw.Draw(b.img, r, image.NewUniform(c), image.Point{}, op)
}

func pixelRect(r displaylist.Rect) image.Rectangle {
	x0, y0 := int(r.X), int(r.Y)
	return image.Rect(x0, y0, x0+int(r.Width), y0+int(r.Height))
}

// Image returns the last finished frame, or nil.
func (b *Backend) Image() image.Image {
	if b.last == nil {
		return nil
	}
	return b.last
}

// WriteTo encodes the last finished frame as PNG.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	if b.last == nil {
		return 0, fmt.Errorf("raster: no finished frame")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.last); err != nil {
		return 0, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.WriteTo(w)
}

// SavePNG writes the last finished frame to path as PNG.
func (b *Backend) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	if _, err := b.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
