package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/ggremote/scene"
)

// RenderDiff is one entry of a render batch.
//
// The set of implementations is closed: UpdateSelf, AddRect, AddBorder,
// AddText and AddImage.
type RenderDiff interface {
	// DiffKind returns the marker key of the entry.
	DiffKind() string

	renderDiff()
}

// UpdateSelf applies partial changes to the display item at Index.
type UpdateSelf struct {
	Index   int
	Changes []Change
}

// AddRect appends a filled rectangle.
type AddRect struct {
	Rect  scene.Rect
	Color scene.Color
}

// AddBorder appends a four-edge border. Colors are ordered top, right,
// bottom, left. Edge styles and widths are not carried on the wire yet.
type AddBorder struct {
	Rect   scene.Rect
	Colors [4]scene.Color
}

// AddText appends a text run. Text is the concatenation of the source
// fragments; the font keys come from the first shaped-text descriptor.
type AddText struct {
	Rect            scene.Rect
	Color           scene.Color
	Text            string
	FontKey         uint64
	FontInstanceKey uint64
}

// AddImage appends an image placeholder.
type AddImage struct {
	Key uint64
}

func (UpdateSelf) DiffKind() string { return UpdateSelfKey }
func (AddRect) DiffKind() string    { return AddRectKey }
func (AddBorder) DiffKind() string  { return AddBorderKey }
func (AddText) DiffKind() string    { return AddTextKey }
func (AddImage) DiffKind() string   { return AddImageKey }

func (UpdateSelf) renderDiff() {}
func (AddRect) renderDiff()    {}
func (AddBorder) renderDiff()  {}
func (AddText) renderDiff()    {}
func (AddImage) renderDiff()   {}

// Change is one partial update inside UpdateSelf.
//
// The set of implementations is closed: TextContent, BoundsChange and
// UnknownChange.
type Change interface {
	change()
}

// TextContent replaces the text of a text item.
type TextContent struct {
	Text string
}

// BoundsField names the scalar a BoundsChange replaces.
type BoundsField uint8

const (
	BoundsLeft BoundsField = iota
	BoundsTop
	BoundsWidth
	BoundsHeight
)

func (f BoundsField) String() string {
	switch f {
	case BoundsLeft:
		return "Left"
	case BoundsTop:
		return "Top"
	case BoundsWidth:
		return "Width"
	case BoundsHeight:
		return "Height"
	default:
		return "Unknown"
	}
}

// BoundsChange replaces one scalar of an item's geometry.
type BoundsChange struct {
	Field BoundsField
	Value uint32
}

// Apply writes the change into r.
func (c BoundsChange) Apply(r *scene.Rect) {
	switch c.Field {
	case BoundsLeft:
		r.Left = c.Value
	case BoundsTop:
		r.Top = c.Value
	case BoundsWidth:
		r.Width = c.Value
	case BoundsHeight:
		r.Height = c.Value
	}
}

// UnknownChange is a change descriptor this version does not understand.
// It is kept so callers can log it; applying it is a no-op.
type UnknownChange struct {
	Raw json.RawMessage
}

func (TextContent) change()   {}
func (BoundsChange) change()  {}
func (UnknownChange) change() {}

var renderKeys = []string{UpdateSelfKey, AddRectKey, AddBorderKey, AddTextKey, AddImageKey}

// DecodeRender classifies a render batch.
//
// On failure it returns the entries decoded before the bad one together
// with a *ggremote.DiffError; if the batch is not an array it returns no
// entries and an error wrapping ggremote.ErrMalformedMessage.
func DecodeRender(raw json.RawMessage) ([]RenderDiff, error) {
	list, err := splitBatch(FieldRender, raw)
	if err != nil {
		return nil, err
	}

	out := make([]RenderDiff, 0, len(list))
	for i, item := range list {
		e, err := classify(FieldRender, i, item, renderKeys)
		if err != nil {
			return out, err
		}
		d, err := decodeRenderEntry(e)
		if err != nil {
			return out, malformed(FieldRender, i, e.key, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeRenderEntry(e entry) (RenderDiff, error) {
	switch e.key {
	case UpdateSelfKey:
		return decodeUpdateSelf(e.body)

	case AddRectKey:
		var w struct {
			wireGeometry
			Display *struct {
				Color *wireColor `json:"color"`
			} `json:"display"`
		}
		if err := strictUnmarshal(e.body, &w); err != nil {
			return nil, err
		}
		r, err := w.rect()
		if err != nil {
			return nil, err
		}
		if w.Display == nil || w.Display.Color == nil {
			return nil, errors.New("display.color is required")
		}
		return AddRect{Rect: r, Color: w.Display.Color.color()}, nil

	case AddBorderKey:
		var w struct {
			wireGeometry
			Display *struct {
				Colors []wireColor `json:"colors"`
			} `json:"display"`
		}
		if err := strictUnmarshal(e.body, &w); err != nil {
			return nil, err
		}
		r, err := w.rect()
		if err != nil {
			return nil, err
		}
		if w.Display == nil || len(w.Display.Colors) < 4 {
			return nil, errors.New("display.colors needs 4 entries")
		}
		b := AddBorder{Rect: r}
		for i := range b.Colors {
			b.Colors[i] = w.Display.Colors[i].color()
		}
		return b, nil

	case AddTextKey:
		var w struct {
			wireGeometry
			Display *struct {
				Color      *wireColor                   `json:"color"`
				SourceText []map[string]json.RawMessage `json:"source_text"`
				ShapedText []struct {
					FontKey         *uint64 `json:"font_key"`
					FontInstanceKey *uint64 `json:"font_instance_key"`
				} `json:"shaped_text"`
			} `json:"display"`
		}
		if err := strictUnmarshal(e.body, &w); err != nil {
			return nil, err
		}
		r, err := w.rect()
		if err != nil {
			return nil, err
		}
		d := w.Display
		if d == nil || d.Color == nil {
			return nil, errors.New("display.color is required")
		}
		if len(d.ShapedText) == 0 || d.ShapedText[0].FontKey == nil || d.ShapedText[0].FontInstanceKey == nil {
			return nil, errors.New("display.shaped_text[0] needs font_key and font_instance_key")
		}
		return AddText{
			Rect:            r,
			Color:           d.Color.color(),
			Text:            joinFragments(d.SourceText),
			FontKey:         *d.ShapedText[0].FontKey,
			FontInstanceKey: *d.ShapedText[0].FontInstanceKey,
		}, nil

	case AddImageKey:
		var w struct {
			Key uint64 `json:"key"`
		}
		_ = json.Unmarshal(e.body, &w)
		return AddImage{Key: w.Key}, nil
	}
	return nil, errors.New("unreachable render kind " + e.key)
}

// joinFragments concatenates Owned and Static fragments in order.
// Fragments with neither tag, or with a non-string value, are skipped.
func joinFragments(fragments []map[string]json.RawMessage) string {
	var sb strings.Builder
	for _, f := range fragments {
		raw, ok := f[FragmentOwned]
		if !ok {
			raw, ok = f[FragmentStatic]
		}
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func decodeUpdateSelf(body json.RawMessage) (RenderDiff, error) {
	var pair []json.RawMessage
	if err := strictUnmarshal(body, &pair); err != nil {
		return nil, err
	}
	if len(pair) < 2 {
		return nil, errors.New("want [index, changes]")
	}
	var index uint32
	if err := strictUnmarshal(pair[0], &index); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	var rawChanges []json.RawMessage
	if err := strictUnmarshal(pair[1], &rawChanges); err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}

	u := UpdateSelf{Index: int(index), Changes: make([]Change, 0, len(rawChanges))}
	for _, rc := range rawChanges {
		c, err := decodeChange(rc)
		if err != nil {
			return nil, err
		}
		u.Changes = append(u.Changes, c)
	}
	return u, nil
}

var boundsFields = []struct {
	key   string
	field BoundsField
}{
	{BoundsUpdateChangeXKey, BoundsLeft},
	{BoundsUpdateChangeYKey, BoundsTop},
	{BoundsUpdateChangeWidthKey, BoundsWidth},
	{BoundsUpdateChangeHeightKey, BoundsHeight},
}

// decodeChange classifies one change descriptor. Shapes it does not
// recognize become UnknownChange; a recognized shape with a bad value is
// an error.
func decodeChange(raw json.RawMessage) (Change, error) {
	var outer map[string]json.RawMessage
	if json.Unmarshal(raw, &outer) != nil {
		return UnknownChange{Raw: raw}, nil
	}

	if specific := subObject(outer, TextUpdateKey); specific != nil {
		if content, ok := specific[TextUpdateChangeContentKey]; ok {
			var s string
			if err := strictUnmarshal(content, &s); err != nil {
				return nil, fmt.Errorf("text content: %w", err)
			}
			return TextContent{Text: s}, nil
		}
	}
	if specific := subObject(outer, BoundsUpdateKey); specific != nil {
		for _, bf := range boundsFields {
			v, ok := specific[bf.key]
			if !ok {
				continue
			}
			var n uint32
			if err := strictUnmarshal(v, &n); err != nil {
				return nil, fmt.Errorf("bounds %s: %w", strings.ToLower(bf.field.String()), err)
			}
			return BoundsChange{Field: bf.field, Value: n}, nil
		}
	}
	return UnknownChange{Raw: raw}, nil
}

// subObject returns the object stored under key, or nil if there is none.
func subObject(m map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	var inner map[string]json.RawMessage
	if json.Unmarshal(raw, &inner) != nil {
		return nil
	}
	return inner
}

// wireGeometry is the bounds object shared by every Add* entry.
type wireGeometry struct {
	Bounds *struct {
		Position *struct {
			Left *uint32 `json:"left"`
			Top  *uint32 `json:"top"`
		} `json:"position"`
		Size *struct {
			Width  *uint32 `json:"width"`
			Height *uint32 `json:"height"`
		} `json:"size"`
	} `json:"bounds"`
}

func (g *wireGeometry) rect() (scene.Rect, error) {
	b := g.Bounds
	if b == nil || b.Position == nil || b.Size == nil {
		return scene.Rect{}, errors.New("bounds.position and bounds.size are required")
	}
	p, s := b.Position, b.Size
	if slices.Contains([]*uint32{p.Left, p.Top, s.Width, s.Height}, nil) {
		return scene.Rect{}, errors.New("bounds needs left, top, width and height")
	}
	return scene.NewRect(*p.Left, *p.Top, *s.Width, *s.Height), nil
}

type wireColor struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
	Alpha uint8 `json:"alpha"`
}

func (c wireColor) color() scene.Color {
	return scene.Color{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}
}
