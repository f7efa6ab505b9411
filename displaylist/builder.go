package displaylist

import (
	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

// Builder accumulates the commands of one display list.
// A Builder is not safe for concurrent use.
type Builder struct {
	pipeline PipelineID
	size     LayoutSize
	commands []Command
}

// NewBuilder creates a builder for pipeline at size.
func NewBuilder(pipeline PipelineID, size LayoutSize) *Builder {
	return &Builder{
		pipeline: pipeline,
		size:     size,
		commands: make([]Command, 0, 64),
	}
}

// Len returns the number of commands pushed so far.
func (b *Builder) Len() int { return len(b.commands) }

// PushRect pushes a filled rectangle.
func (b *Builder) PushRect(r Rect, c scene.Color) {
	b.commands = append(b.commands, RectCommand{Rect: r, Color: c})
}

// PushBorder pushes a four-edge border.
func (b *Builder) PushBorder(r Rect, widths [4]float32, colors [4]scene.Color, styles [4]scene.BorderStyle) {
	b.commands = append(b.commands, BorderCommand{Rect: r, Widths: widths, Colors: colors, Styles: styles})
}

// PushText pushes shaped glyphs drawn with face. The baseline is placed
// one ascent below the top of r.
func (b *Builder) PushText(r Rect, c scene.Color, face *text.Face, glyphs []text.ShapedGlyph) {
	origin := [2]float32{r.X, r.Y + float32(face.Metrics().Ascent)}
	b.commands = append(b.commands, TextCommand{
		Rect:   r,
		Origin: origin,
		Color:  c,
		Face:   face,
		Glyphs: glyphs,
	})
}

// Finish returns the built display list. The builder must not be used
// afterwards.
func (b *Builder) Finish() *DisplayList {
	dl := &DisplayList{pipeline: b.pipeline, size: b.size, commands: b.commands}
	b.commands = nil
	return dl
}

// DisplayList is an immutable built display list.
type DisplayList struct {
	pipeline PipelineID
	size     LayoutSize
	commands []Command
}

// Pipeline returns the pipeline the list was built for.
func (dl *DisplayList) Pipeline() PipelineID { return dl.pipeline }

// Size returns the layout size.
func (dl *DisplayList) Size() LayoutSize { return dl.size }

// Commands returns the commands in paint order.
func (dl *DisplayList) Commands() []Command { return dl.commands }

// Len returns the number of commands.
func (dl *DisplayList) Len() int { return len(dl.commands) }

// Playback replays the list to backend, between Begin and End.
func (dl *DisplayList) Playback(backend Backend) error {
	if err := backend.Begin(int(dl.size.Width), int(dl.size.Height)); err != nil {
		return err
	}
	for _, cmd := range dl.commands {
		switch c := cmd.(type) {
		case RectCommand:
			backend.FillRect(c)
		case BorderCommand:
			backend.DrawBorder(c)
		case TextCommand:
			backend.DrawText(c)
		}
	}
	return backend.End()
}
