package ggremote

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every ggremote package.
// Use errors.Is to classify an error returned by any operation.
var (
	// ErrMalformedMessage is returned when a message or one of its fields
	// cannot be decoded. The offending message (or entry) is dropped.
	ErrMalformedMessage = errors.New("ggremote: malformed message")

	// ErrUnknownDiffKind is returned when a resources or render entry
	// matches none of the recognized shapes. The rest of its batch is skipped.
	ErrUnknownDiffKind = errors.New("ggremote: unknown diff kind")

	// ErrIndexOutOfRange is returned when an UpdateSelf entry addresses an
	// index past the end of a non-empty scene.
	ErrIndexOutOfRange = errors.New("ggremote: display item index out of range")

	// ErrItemKind is returned when a change descriptor targets an item of
	// the wrong kind (for example a text change on a rectangle).
	ErrItemKind = errors.New("ggremote: change does not apply to item kind")

	// ErrMissingFont is returned when a text item or font instance refers to
	// a font key with no resolved translation.
	ErrMissingFont = errors.New("ggremote: missing font")

	// ErrUnsupportedResource is returned when an image resource or image
	// display item is reached. Images are not implemented.
	ErrUnsupportedResource = errors.New("ggremote: unsupported resource")
)

// DiffError reports a failure at one entry of a resources or render batch.
type DiffError struct {
	// Batch is the message field the entry belongs to ("resources" or "render").
	Batch string
	// Index is the position of the entry inside its batch.
	Index int
	// Kind is the marker key of the entry, if one was found.
	Kind string
	// Err is the underlying sentinel, possibly wrapped.
	Err error
}

func (e *DiffError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s[%d]: %v", e.Batch, e.Index, e.Err)
	}
	return fmt.Sprintf("%s[%d] %s: %v", e.Batch, e.Index, e.Kind, e.Err)
}

func (e *DiffError) Unwrap() error { return e.Err }

// ItemError reports a display item that could not be emitted into a frame.
// The remaining items of the frame are unaffected.
type ItemError struct {
	// Index is the positional index of the display item.
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("display item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
