package scene

import "fmt"

// Rect is an axis-aligned box in unsigned pixel units, as computed by the
// remote layout. Left/Top is the position, Width/Height the size.
type Rect struct {
	Left, Top     uint32
	Width, Height uint32
}

// NewRect creates a Rect from position and size.
func NewRect(left, top, width, height uint32) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() uint32 { return r.Left + r.Width }

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() uint32 { return r.Top + r.Height }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool { return r.Width == 0 || r.Height == 0 }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.Left, r.Top, r.Width, r.Height)
}

// Color is a non-premultiplied 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A)
	a |= a << 8
	r = uint32(c.R) * a / 0xff
	g = uint32(c.G) * a / 0xff
	b = uint32(c.B) * a / 0xff
	return r, g, b, a
}

// Point is a window position in screen pixels. Coordinates may be negative.
type Point struct {
	X, Y int32
}

// Size is a window or surface size in pixels.
type Size struct {
	Width, Height uint32
}

// Side identifies one edge of a border. The order matches the order of the
// per-edge arrays in BorderItem.
type Side uint8

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// Sides lists the border edges in array order.
var Sides = [4]Side{SideTop, SideRight, SideBottom, SideLeft}

func (s Side) String() string {
	switch s {
	case SideTop:
		return "Top"
	case SideRight:
		return "Right"
	case SideBottom:
		return "Bottom"
	case SideLeft:
		return "Left"
	default:
		return unknownStr
	}
}

// BorderStyle is the line style of one border edge.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderSolid
	BorderDashed
	BorderDotted
	BorderDouble
)

func (s BorderStyle) String() string {
	switch s {
	case BorderNone:
		return "None"
	case BorderSolid:
		return "Solid"
	case BorderDashed:
		return "Dashed"
	case BorderDotted:
		return "Dotted"
	case BorderDouble:
		return "Double"
	default:
		return unknownStr
	}
}

const unknownStr = "Unknown"
