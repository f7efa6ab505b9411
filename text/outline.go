package text

import (
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// OutlinePoint is a point of a glyph outline in pixels, relative to the
// glyph origin on the baseline. Y grows downward.
type OutlinePoint struct {
	X, Y float32
}

// OutlineOp is the type of path operation.
type OutlineOp uint8

const (
	OutlineOpMoveTo OutlineOp = iota
	OutlineOpLineTo
	OutlineOpQuadTo
	OutlineOpCubicTo
)

func (op OutlineOp) String() string {
	switch op {
	case OutlineOpMoveTo:
		return "MoveTo"
	case OutlineOpLineTo:
		return "LineTo"
	case OutlineOpQuadTo:
		return "QuadTo"
	case OutlineOpCubicTo:
		return "CubicTo"
	default:
		return "Unknown"
	}
}

// OutlineSegment is one path operation.
//   - MoveTo, LineTo: Points[0] is the target
//   - QuadTo: Points[0] is the control, Points[1] the target
//   - CubicTo: Points[0] and Points[1] are controls, Points[2] the target
type OutlineSegment struct {
	Op     OutlineOp
	Points [3]OutlinePoint
}

// Rect is an axis-aligned box in pixels.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// GlyphOutline is the vector outline of one glyph at a face size.
type GlyphOutline struct {
	GID      GlyphID
	Segments []OutlineSegment
	Bounds   Rect
	Advance  float64
}

// Outline loads the outline of gid scaled to the face size.
// Glyphs without contours, such as a space, have no segments.
func (f *Face) Outline(gid GlyphID) (*GlyphOutline, error) {
	segs, adv, err := f.source.loadGlyph(gid, f.size)
	if err != nil {
		return nil, err
	}

	o := &GlyphOutline{
		GID:      gid,
		Segments: make([]OutlineSegment, 0, len(segs)),
		Advance:  fromFixed(adv),
	}
	b := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}

	for _, seg := range segs {
		var out OutlineSegment
		n := 1
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			out.Op = OutlineOpMoveTo
		case sfnt.SegmentOpLineTo:
			out.Op = OutlineOpLineTo
		case sfnt.SegmentOpQuadTo:
			out.Op, n = OutlineOpQuadTo, 2
		case sfnt.SegmentOpCubeTo:
			out.Op, n = OutlineOpCubicTo, 3
		}
		for i := range n {
			p := toPoint(seg.Args[i])
			out.Points[i] = p
			b.MinX = math.Min(b.MinX, float64(p.X))
			b.MinY = math.Min(b.MinY, float64(p.Y))
			b.MaxX = math.Max(b.MaxX, float64(p.X))
			b.MaxY = math.Max(b.MaxY, float64(p.Y))
		}
		o.Segments = append(o.Segments, out)
	}
	if len(o.Segments) > 0 {
		o.Bounds = b
	}
	return o, nil
}

func toPoint(p fixed.Point26_6) OutlinePoint {
	return OutlinePoint{X: float32(p.X) / 64, Y: float32(p.Y) / 64}
}
