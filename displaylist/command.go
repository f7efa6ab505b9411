package displaylist

import (
	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

// PipelineID identifies the surface a display list is built for.
type PipelineID uint32

// LayoutSize is the size of the layout viewport in pixels.
type LayoutSize struct {
	Width, Height float32
}

// Rect is an axis-aligned box in layout pixels.
type Rect struct {
	X, Y, Width, Height float32
}

// RectFrom converts a scene rectangle.
func RectFrom(r scene.Rect) Rect {
	return Rect{X: float32(r.Left), Y: float32(r.Top), Width: float32(r.Width), Height: float32(r.Height)}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdRect CommandType = iota
	CmdBorder
	CmdText
)

var commandTypeNames = [...]string{
	CmdRect:   "Rect",
	CmdBorder: "Border",
	CmdText:   "Text",
}

func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is one primitive of a display list.
type Command interface {
	Type() CommandType
}

// RectCommand fills Rect with Color.
type RectCommand struct {
	Rect  Rect
	Color scene.Color
}

// Type implements Command.
func (RectCommand) Type() CommandType { return CmdRect }

// BorderCommand strokes the four edges of Rect inward.
// Arrays are ordered top, right, bottom, left.
type BorderCommand struct {
	Rect   Rect
	Widths [4]float32
	Colors [4]scene.Color
	Styles [4]scene.BorderStyle
}

// Type implements Command.
func (BorderCommand) Type() CommandType { return CmdBorder }

// TextCommand draws shaped glyphs. Glyph positions are relative to Origin,
// which lies on the baseline. Rect is the layout box and clips the glyphs.
type TextCommand struct {
	Rect   Rect
	Origin [2]float32
	Color  scene.Color
	Face   *text.Face
	Glyphs []text.ShapedGlyph
}

// Type implements Command.
func (TextCommand) Type() CommandType { return CmdText }
