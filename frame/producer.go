// Package frame turns scene snapshots into display lists.
//
// A Producer owns the translation tables that map remote font keys to
// family names and remote instance keys to sizes. Pending resources are
// resolved in arrival order by TakeResourceUpdates; Build then walks the
// display items in index order and emits one primitive per item.
//
// Failures are local to the resource or item that caused them: the rest of
// the batch or frame proceeds and the errors are returned joined.
package frame

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/displaylist"
	"github.com/gogpu/ggremote/internal/cache"
	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

// slowFrame is the build duration above which a frame is logged at debug
// level.
const slowFrame = 5 * time.Millisecond

// DefaultShapeCacheSize is the number of shaped strings kept by default.
const DefaultShapeCacheSize = 1024

// FontService registers fonts and shapes text. *text.Registry implements it.
type FontService interface {
	AddFont(name string, data []byte) (family string, err error)
	Font(family string) (*text.FontSource, bool)
	FontWithSize(family string, size float64) (*text.Face, error)
	Shape(face *text.Face, s string) []text.ShapedGlyph
}

var _ FontService = (*text.Registry)(nil)

// Option configures a Producer.
type Option func(*Producer)

// WithShapeCacheSize sets how many shaped strings are cached.
// Zero disables the cache.
func WithShapeCacheSize(n int) Option {
	return func(p *Producer) { p.cacheSize = n }
}

type shapeKey struct {
	face *text.Face
	text string
}

// Producer resolves resources and builds display lists.
//
// Producer is safe for concurrent use, but frames are meant to be produced
// by a single render loop.
type Producer struct {
	fonts     FontService
	cacheSize int
	shapes    *cache.Cache[shapeKey, []text.ShapedGlyph]

	mu       sync.Mutex
	families map[uint64]string
	sizes    map[uint64]float64

	frames uint64
}

// New creates a Producer resolving fonts with fonts.
func New(fonts FontService, opts ...Option) *Producer {
	p := &Producer{
		fonts:     fonts,
		cacheSize: DefaultShapeCacheSize,
		families:  make(map[uint64]string),
		sizes:     make(map[uint64]float64),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheSize > 0 {
		p.shapes = cache.New[shapeKey, []text.ShapedGlyph](p.cacheSize)
	}
	return p
}

// FontName is the name a remote font key is registered under with the
// font service.
func FontName(key uint64) string { return strconv.FormatUint(key, 10) }

// TakeResourceUpdates resolves pending resources in order and returns the
// resulting updates for the rendering backend.
//
// A font instance resolves only if its font was resolved earlier in this
// batch or in a previous one; nothing is reordered. Unresolvable entries
// are skipped and reported in the joined error.
func (p *Producer) TakeResourceUpdates(pending []scene.Resource) (displaylist.ResourceUpdates, error) {
	var u displaylist.ResourceUpdates
	var errs []error

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, r := range pending {
		if err := p.resolve(r, &u); err != nil {
			errs = append(errs, fmt.Errorf("resource %d (key %d): %w", i, r.ResourceKey(), err))
		}
	}
	if len(errs) > 0 {
		ggremote.Logger().Warn("frame: unresolved resources", "count", len(errs), "of", len(pending))
	}
	return u, errors.Join(errs...)
}

// resolve handles one resource. Caller must hold p.mu.
func (p *Producer) resolve(r scene.Resource, u *displaylist.ResourceUpdates) error {
	switch r := r.(type) {
	case scene.FontResource:
		family, err := p.fonts.AddFont(FontName(r.Key), r.Data)
		if err != nil {
			return err
		}
		src, _ := p.fonts.Font(family)
		p.families[r.Key] = family
		p.forgetFamily(family)
		u.AddFonts = append(u.AddFonts, displaylist.AddFont{Key: r.Key, Family: family, Source: src})
		ggremote.Logger().Debug("frame: font resolved", "key", r.Key, "family", family)

	case scene.FontInstanceResource:
		family, ok := p.families[r.Key]
		if !ok {
			return fmt.Errorf("%w: instance %d of unknown font %d", ggremote.ErrMissingFont, r.InstanceKey, r.Key)
		}
		size := float64(r.Size)
		face, err := p.fonts.FontWithSize(family, size)
		if err != nil {
			return err
		}
		p.sizes[r.InstanceKey] = size
		u.AddFontInstances = append(u.AddFontInstances, displaylist.AddFontInstance{
			InstanceKey: r.InstanceKey,
			Family:      family,
			Size:        size,
			Face:        face,
		})

	case scene.ImageResource:
		return fmt.Errorf("%w: image %d", ggremote.ErrUnsupportedResource, r.Key)

	default:
		return fmt.Errorf("%w: %T", ggremote.ErrUnsupportedResource, r)
	}
	return nil
}

// forgetFamily drops cached shapes of a family whose font was replaced.
// Caller must hold p.mu.
func (p *Producer) forgetFamily(family string) {
	if p.shapes == nil {
		return
	}
	p.shapes.DeleteFunc(func(k shapeKey) bool { return k.face.Source().Family() == family })
}

// Build produces the display list for items, in index order.
//
// An item that cannot be rendered is omitted and reported as an
// *ggremote.ItemError in the joined error; the list is always returned.
func (p *Producer) Build(items []scene.Item, pipeline displaylist.PipelineID, size displaylist.LayoutSize) (*displaylist.DisplayList, error) {
	start := time.Now()
	b := displaylist.NewBuilder(pipeline, size)
	var errs []error

	for i, it := range items {
		if err := p.push(b, it); err != nil {
			errs = append(errs, &ggremote.ItemError{Index: i, Err: err})
		}
	}
	dl := b.Finish()

	p.mu.Lock()
	p.frames++
	p.mu.Unlock()

	elapsed := time.Since(start)
	if elapsed > slowFrame {
		ggremote.Logger().Debug("frame: slow build", "elapsed", elapsed, "items", len(items))
	}
	if len(errs) > 0 {
		ggremote.Logger().Warn("frame: items omitted", "count", len(errs), "of", len(items))
	}
	return dl, errors.Join(errs...)
}

func (p *Producer) push(b *displaylist.Builder, it scene.Item) error {
	switch it := it.(type) {
	case *scene.RectItem:
		b.PushRect(displaylist.RectFrom(it.Rect), it.Color)
	case *scene.BorderItem:
		var widths [4]float32
		for i, w := range it.Widths {
			widths[i] = float32(w)
		}
		b.PushBorder(displaylist.RectFrom(it.Rect), widths, it.Colors, it.Styles)
	case *scene.TextItem:
		face, err := p.face(it.FontKey, it.FontInstanceKey)
		if err != nil {
			return err
		}
		b.PushText(displaylist.RectFrom(it.Rect), it.Color, face, p.shape(face, it.Text))
	case *scene.ImageItem:
		return fmt.Errorf("%w: image item %d", ggremote.ErrUnsupportedResource, it.Key)
	default:
		return fmt.Errorf("%w: %T", ggremote.ErrItemKind, it)
	}
	return nil
}

// face resolves a text item's keys through the translation tables.
func (p *Producer) face(fontKey, instanceKey uint64) (*text.Face, error) {
	p.mu.Lock()
	family, okFamily := p.families[fontKey]
	size, okSize := p.sizes[instanceKey]
	p.mu.Unlock()

	if !okFamily {
		return nil, fmt.Errorf("%w: font key %d", ggremote.ErrMissingFont, fontKey)
	}
	if !okSize {
		return nil, fmt.Errorf("%w: font instance key %d", ggremote.ErrMissingFont, instanceKey)
	}
	return p.fonts.FontWithSize(family, size)
}

func (p *Producer) shape(face *text.Face, s string) []text.ShapedGlyph {
	if p.shapes == nil {
		return p.fonts.Shape(face, s)
	}
	return p.shapes.GetOrCreate(shapeKey{face, s}, func() []text.ShapedGlyph {
		return p.fonts.Shape(face, s)
	})
}

// Families returns a copy of the font key to family table.
func (p *Producer) Families() map[uint64]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.families)
}

// Sizes returns a copy of the instance key to size table.
func (p *Producer) Sizes() map[uint64]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.sizes)
}

// Stats is a snapshot of producer counters.
type Stats struct {
	Frames    uint64
	Families  int
	Instances int
	Shapes    cache.Stats
}

// Stats returns a snapshot of producer counters.
func (p *Producer) Stats() Stats {
	p.mu.Lock()
	s := Stats{Frames: p.frames, Families: len(p.families), Instances: len(p.sizes)}
	p.mu.Unlock()
	if p.shapes != nil {
		s.Shapes = p.shapes.Stats()
	}
	return s
}
