package ggremote

import (
	"errors"
	"fmt"
	"testing"
)

func TestDiffError(t *testing.T) {
	err := &DiffError{Batch: "render", Index: 3, Kind: "AddCircle", Err: ErrUnknownDiffKind}

	if !errors.Is(err, ErrUnknownDiffKind) {
		t.Error("errors.Is(DiffError, ErrUnknownDiffKind) = false")
	}
	want := "render[3] AddCircle: ggremote: unknown diff kind"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("apply: %w", err)
	var de *DiffError
	if !errors.As(wrapped, &de) || de.Index != 3 {
		t.Errorf("errors.As failed or wrong index: %+v", de)
	}
}

func TestDiffErrorWithoutKind(t *testing.T) {
	err := &DiffError{Batch: "resources", Index: 0, Err: ErrMalformedMessage}
	want := "resources[0]: ggremote: malformed message"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestItemError(t *testing.T) {
	err := &ItemError{Index: 7, Err: fmt.Errorf("font key 9: %w", ErrMissingFont)}
	if !errors.Is(err, ErrMissingFont) {
		t.Error("errors.Is(ItemError, ErrMissingFont) = false")
	}
	if errors.Is(err, ErrUnsupportedResource) {
		t.Error("ItemError matched an unrelated sentinel")
	}
}
