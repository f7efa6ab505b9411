package displaylist

import (
	"image"
	"io"
)

// Backend consumes display lists.
//
// Playback calls Begin, then one drawing method per command in paint
// order, then End. Resource updates are delivered with AddResources before
// a list that refers to them is replayed.
//
// Backends register themselves in init with Register.
type Backend interface {
	// AddResources makes fonts and faces available to later lists.
	AddResources(u ResourceUpdates) error

	// Begin starts a frame of the given size in pixels.
	Begin(width, height int) error

	// End finishes the frame.
	End() error

	FillRect(c RectCommand)
	DrawBorder(c BorderCommand)
	DrawText(c TextCommand)
}

// WriterBackend is a Backend that can write its last frame.
type WriterBackend interface {
	Backend

	// WriteTo writes the last finished frame.
	WriteTo(w io.Writer) (int64, error)
}

// ImageBackend is a Backend that renders to pixels.
type ImageBackend interface {
	Backend

	// Image returns the last finished frame, or nil before the first End.
	Image() image.Image
}
