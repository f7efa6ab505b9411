package scene

// ItemKind identifies the variant of a display item.
type ItemKind uint8

const (
	KindRect ItemKind = iota
	KindBorder
	KindText
	KindImage
)

func (k ItemKind) String() string {
	switch k {
	case KindRect:
		return "Rect"
	case KindBorder:
		return "Border"
	case KindText:
		return "Text"
	case KindImage:
		return "Image"
	default:
		return unknownStr
	}
}

// Item is a display item of the mirrored scene.
//
// The set of implementations is closed: *RectItem, *BorderItem, *TextItem
// and *ImageItem. Consumers switch on the concrete type.
type Item interface {
	// Kind returns the item variant.
	Kind() ItemKind

	// Bounds returns the item geometry for in-place updates,
	// or nil if the item has none.
	Bounds() *Rect

	// Clone returns a deep copy that shares no mutable state with the item.
	Clone() Item

	item()
}

// RectItem is a filled rectangle.
type RectItem struct {
	Rect  Rect
	Color Color
}

func (*RectItem) Kind() ItemKind   { return KindRect }
func (it *RectItem) Bounds() *Rect { return &it.Rect }
func (it *RectItem) Clone() Item   { c := *it; return &c }
func (*RectItem) item()            {}

// BorderItem is a four-edge border. Colors, Styles and Widths are indexed
// by Side: top, right, bottom, left.
type BorderItem struct {
	Rect   Rect
	Colors [4]Color
	Styles [4]BorderStyle
	Widths [4]uint32
}

func (*BorderItem) Kind() ItemKind   { return KindBorder }
func (it *BorderItem) Bounds() *Rect { return &it.Rect }
func (it *BorderItem) Clone() Item   { c := *it; return &c }
func (*BorderItem) item()            {}

// TextItem is a run of text drawn with a remote font instance.
// FontKey and FontInstanceKey must be resolved by the time a frame is built.
type TextItem struct {
	Rect            Rect
	Color           Color
	Text            string
	FontKey         uint64
	FontInstanceKey uint64
}

func (*TextItem) Kind() ItemKind   { return KindText }
func (it *TextItem) Bounds() *Rect { return &it.Rect }
func (it *TextItem) Clone() Item   { c := *it; return &c }
func (*TextItem) item()            {}

// ImageItem is a placeholder for image display items. Images are not
// decoded or drawn; reaching one while building a frame is reported as
// an unsupported resource.
type ImageItem struct {
	Key uint64
}

func (*ImageItem) Kind() ItemKind { return KindImage }
func (*ImageItem) Bounds() *Rect  { return nil }
func (it *ImageItem) Clone() Item { c := *it; return &c }
func (*ImageItem) item()          {}

// Resource is a remote resource waiting to be resolved by the frame producer.
//
// The set of implementations is closed: FontResource, FontInstanceResource
// and ImageResource.
type Resource interface {
	// ResourceKey returns the remote key the resource is registered under.
	ResourceKey() uint64

	resource()
}

// FontResource carries the decoded bytes of a remote font file.
type FontResource struct {
	Key  uint64
	Data []byte
}

func (r FontResource) ResourceKey() uint64 { return r.Key }
func (FontResource) resource()             {}

// FontInstanceResource requests a sized instance of a previously added font.
type FontInstanceResource struct {
	Key         uint64
	InstanceKey uint64
	Size        uint32
}

func (r FontInstanceResource) ResourceKey() uint64 { return r.InstanceKey }
func (FontInstanceResource) resource()             {}

// ImageResource is a placeholder for remote images.
type ImageResource struct {
	Key uint64
}

func (r ImageResource) ResourceKey() uint64 { return r.Key }
func (ImageResource) resource()             {}
