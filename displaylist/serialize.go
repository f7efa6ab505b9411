package displaylist

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/ggremote/scene"
)

// Serialized form, little endian:
//
//	header:  "GGDL" version:u8 pipeline:u32 width:f32 height:f32 count:u32
//	rect:    0 rect color
//	border:  1 rect widths[4]:f32 colors[4] styles[4]:u8
//	text:    2 rect origin:f32,f32 color family:str size:f32 n:u32 (gid:u16 x:f32 y:f32)*n
//
// rect is four f32, color four u8, str a u16 length then bytes.
const (
	magic         = "GGDL"
	formatVersion = 1
)

var le = binary.LittleEndian

// Serialize encodes the display list into its wire form.
func (dl *DisplayList) Serialize() []byte {
	buf := make([]byte, 0, 21+len(dl.commands)*24)
	buf = append(buf, magic...)
	buf = append(buf, formatVersion)
	buf = le.AppendUint32(buf, uint32(dl.pipeline))
	buf = appendF32(buf, dl.size.Width)
	buf = appendF32(buf, dl.size.Height)
	buf = le.AppendUint32(buf, uint32(len(dl.commands))) //nolint:gosec // command counts fit in uint32

	for _, cmd := range dl.commands {
		buf = append(buf, byte(cmd.Type()))
		switch c := cmd.(type) {
		case RectCommand:
			buf = appendRect(buf, c.Rect)
			buf = appendColor(buf, c.Color)
		case BorderCommand:
			buf = appendRect(buf, c.Rect)
			for _, w := range c.Widths {
				buf = appendF32(buf, w)
			}
			for _, col := range c.Colors {
				buf = appendColor(buf, col)
			}
			for _, s := range c.Styles {
				buf = append(buf, byte(s))
			}
		case TextCommand:
			buf = appendRect(buf, c.Rect)
			buf = appendF32(buf, c.Origin[0])
			buf = appendF32(buf, c.Origin[1])
			buf = appendColor(buf, c.Color)
			var family string
			var size float64
			if c.Face != nil {
				family, size = c.Face.Source().Family(), c.Face.Size()
			}
			buf = appendString(buf, family)
			buf = appendF32(buf, float32(size))
			buf = le.AppendUint32(buf, uint32(len(c.Glyphs))) //nolint:gosec // glyph counts fit in uint32
			for _, g := range c.Glyphs {
				buf = le.AppendUint16(buf, uint16(g.GID))
				buf = appendF32(buf, float32(g.X))
				buf = appendF32(buf, float32(g.Y))
			}
		}
	}
	return buf
}

func appendF32(buf []byte, v float32) []byte {
	return le.AppendUint32(buf, math.Float32bits(v))
}

func appendRect(buf []byte, r Rect) []byte {
	buf = appendF32(buf, r.X)
	buf = appendF32(buf, r.Y)
	buf = appendF32(buf, r.Width)
	return appendF32(buf, r.Height)
}

func appendColor(buf []byte, c scene.Color) []byte {
	return append(buf, c.R, c.G, c.B, c.A)
}

func appendString(buf []byte, s string) []byte {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	buf = le.AppendUint16(buf, uint16(len(s))) //nolint:gosec // truncated above
	return append(buf, s...)
}
