package text

import (
	"fmt"
	"sync"

	"github.com/gogpu/ggremote"
)

type faceKey struct {
	family string
	size   float64
}

// Registry is the font service: fonts are registered under a caller
// chosen name and looked up by family.
//
// When two registered fonts share a family name the later one wins.
// Registry is safe for concurrent use.
type Registry struct {
	shaper *GoTextShaper

	mu       sync.Mutex
	byFamily map[string]*FontSource
	faces    map[faceKey]*Face
}

// NewRegistry creates an empty registry that shapes with shaper.
// A nil shaper means a new GoTextShaper.
func NewRegistry(shaper *GoTextShaper) *Registry {
	if shaper == nil {
		shaper = NewGoTextShaper()
	}
	return &Registry{
		shaper:   shaper,
		byFamily: make(map[string]*FontSource),
		faces:    make(map[faceKey]*Face),
	}
}

// AddFont parses data and registers it. It returns the family name later
// lookups must use. A font without a family name is registered as its own
// family called name.
func (r *Registry) AddFont(name string, data []byte) (string, error) {
	src, err := NewFontSource(data)
	if err != nil {
		return "", fmt.Errorf("text: add font %q: %w", name, err)
	}
	family := src.Family()
	if family == "" {
		family = name
		src.family = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byFamily[family]; ok && old != src {
		// Faces of the replaced font are stale.
		for k := range r.faces {
			if k.family == family {
				delete(r.faces, k)
			}
		}
		r.shaper.Forget(old)
		ggremote.Logger().Debug("text: family replaced", "family", family, "name", name)
	}
	r.byFamily[family] = src
	return family, nil
}

// Font returns the font currently registered for family.
func (r *Registry) Font(family string) (*FontSource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.byFamily[family]
	return src, ok
}

// FontWithSize returns the face of family at size, creating it on first
// use. An unknown family reports ggremote.ErrMissingFont.
func (r *Registry) FontWithSize(family string, size float64) (*Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := faceKey{family, size}
	if f, ok := r.faces[k]; ok {
		return f, nil
	}
	src, ok := r.byFamily[family]
	if !ok {
		return nil, fmt.Errorf("%w: family %q", ggremote.ErrMissingFont, family)
	}
	f, err := src.Face(size)
	if err != nil {
		return nil, err
	}
	r.faces[k] = f
	return f, nil
}

// Shape shapes s with face.
func (r *Registry) Shape(face *Face, s string) []ShapedGlyph {
	return r.shaper.Shape(s, face)
}

// Families returns the number of registered families.
func (r *Registry) Families() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byFamily)
}
