package displaylist

import "github.com/gogpu/ggremote/text"

// AddFont makes a font family available to a backend.
type AddFont struct {
	// Key is the remote key the font was registered under.
	Key    uint64
	Family string
	Source *text.FontSource
}

// AddFontInstance makes a sized face available to a backend.
type AddFontInstance struct {
	// InstanceKey is the remote key of the instance.
	InstanceKey uint64
	Family      string
	Size        float64
	Face        *text.Face
}

// ResourceUpdates is the batch of resource changes produced alongside a
// frame.
type ResourceUpdates struct {
	AddFonts         []AddFont
	AddFontInstances []AddFontInstance
}

// Empty reports whether u carries no updates.
func (u *ResourceUpdates) Empty() bool {
	return len(u.AddFonts) == 0 && len(u.AddFontInstances) == 0
}

// Len returns the total number of updates.
func (u *ResourceUpdates) Len() int {
	return len(u.AddFonts) + len(u.AddFontInstances)
}

// Merge appends other's updates after u's.
func (u *ResourceUpdates) Merge(other ResourceUpdates) {
	u.AddFonts = append(u.AddFonts, other.AddFonts...)
	u.AddFontInstances = append(u.AddFontInstances, other.AddFontInstances...)
}
