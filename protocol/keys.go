package protocol

// Top-level message fields, in the order they are applied.
const (
	FieldClear     = "clear"
	FieldPosition  = "position"
	FieldSize      = "size"
	FieldResources = "resources"
	FieldRender    = "render"
)

// Resource diff marker keys.
const (
	AddFontKey         = "AddFont"
	AddFontInstanceKey = "AddFontInstance"
	AddImageResKey     = "AddImage"
)

// Render diff marker keys.
const (
	UpdateSelfKey = "UpdateSelf"
	AddRectKey    = "AddRect"
	AddBorderKey  = "AddBorder"
	AddTextKey    = "AddText"
	AddImageKey   = "AddImage"
)

// Change descriptor keys used inside UpdateSelf.
const (
	TextUpdateKey              = "Text"
	TextUpdateChangeContentKey = "Content"

	BoundsUpdateKey             = "Bounds"
	BoundsUpdateChangeXKey      = "X"
	BoundsUpdateChangeYKey      = "Y"
	BoundsUpdateChangeWidthKey  = "Width"
	BoundsUpdateChangeHeightKey = "Height"
)

// Source text fragment tags.
const (
	FragmentOwned  = "Owned"
	FragmentStatic = "Static"
)
