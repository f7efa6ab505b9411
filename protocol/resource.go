package protocol

import (
	"encoding/json"
	"errors"
)

// ResourceDiff is one entry of a resources batch.
//
// The set of implementations is closed: AddFont, AddFontInstance and
// AddImage.
type ResourceDiff interface {
	// DiffKind returns the marker key of the entry.
	DiffKind() string

	resourceDiff()
}

// AddFont registers a font file. DataURI holds the encoded font payload.
type AddFont struct {
	Key     uint64
	DataURI string
}

func (AddFont) DiffKind() string { return AddFontKey }
func (AddFont) resourceDiff()    {}

// AddFontInstance registers a sized instance of the font with the same Key.
type AddFontInstance struct {
	Key         uint64
	InstanceKey uint64
	Size        uint32
}

func (AddFontInstance) DiffKind() string { return AddFontInstanceKey }
func (AddFontInstance) resourceDiff()    {}

// AddImageResource registers an image. Images are accepted on the wire but
// not implemented; resolving one reports an unsupported resource.
type AddImageResource struct {
	Key uint64
}

func (AddImageResource) DiffKind() string { return AddImageResKey }
func (AddImageResource) resourceDiff()    {}

var resourceKeys = []string{AddFontKey, AddFontInstanceKey, AddImageResKey}

// DecodeResources classifies a resources batch.
//
// On failure it returns the entries decoded before the bad one together
// with a *ggremote.DiffError; if the batch is not an array it returns no
// entries and an error wrapping ggremote.ErrMalformedMessage.
func DecodeResources(raw json.RawMessage) ([]ResourceDiff, error) {
	list, err := splitBatch(FieldResources, raw)
	if err != nil {
		return nil, err
	}

	out := make([]ResourceDiff, 0, len(list))
	for i, item := range list {
		e, err := classify(FieldResources, i, item, resourceKeys)
		if err != nil {
			return out, err
		}
		d, err := decodeResource(e)
		if err != nil {
			return out, malformed(FieldResources, i, e.key, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeResource(e entry) (ResourceDiff, error) {
	switch e.key {
	case AddFontKey:
		var w struct {
			Key     *uint64 `json:"key"`
			DataURI *string `json:"data_uri"`
		}
		if err := strictUnmarshal(e.body, &w); err != nil {
			return nil, err
		}
		if w.Key == nil || w.DataURI == nil {
			return nil, errors.New("key and data_uri are required")
		}
		return AddFont{Key: *w.Key, DataURI: *w.DataURI}, nil

	case AddFontInstanceKey:
		var w struct {
			Key         *uint64 `json:"key"`
			InstanceKey *uint64 `json:"instance_key"`
			Size        *uint32 `json:"size"`
		}
		if err := strictUnmarshal(e.body, &w); err != nil {
			return nil, err
		}
		if w.Key == nil || w.InstanceKey == nil || w.Size == nil {
			return nil, errors.New("key, instance_key and size are required")
		}
		return AddFontInstance{Key: *w.Key, InstanceKey: *w.InstanceKey, Size: *w.Size}, nil

	case AddImageResKey:
		var w struct {
			Key uint64 `json:"key"`
		}
		// Image payloads are not modeled; only the key is kept.
		_ = json.Unmarshal(e.body, &w)
		return AddImageResource{Key: w.Key}, nil
	}
	return nil, errors.New("unreachable resource kind " + e.key)
}
