package protocol

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/gogpu/ggremote"
)

// entry is one element of a resources or render array, split into its
// marker key and the value under it.
type entry struct {
	key  string
	body json.RawMessage
}

// splitBatch decodes a batch array into its entries. It fails only if
// the batch itself is not an array.
func splitBatch(batch string, raw json.RawMessage) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := strictUnmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ggremote.ErrMalformedMessage, batch, err)
	}
	return list, nil
}

// classify finds the marker key of an entry among known keys.
// An entry that is not an object is malformed; an object without any
// known key is an unknown diff kind.
func classify(batch string, index int, raw json.RawMessage, known []string) (entry, error) {
	var fields map[string]json.RawMessage
	if err := strictUnmarshal(raw, &fields); err != nil {
		return entry{}, &ggremote.DiffError{Batch: batch, Index: index, Err: fmt.Errorf("%w: %v", ggremote.ErrMalformedMessage, err)}
	}
	for _, k := range known {
		if body, ok := fields[k]; ok {
			return entry{key: k, body: body}, nil
		}
	}

	kind := ""
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		kind = keys[0]
	}
	return entry{}, &ggremote.DiffError{Batch: batch, Index: index, Kind: kind, Err: ggremote.ErrUnknownDiffKind}
}

// malformed wraps a field decoding failure of a classified entry.
func malformed(batch string, index int, kind string, err error) error {
	return &ggremote.DiffError{
		Batch: batch,
		Index: index,
		Kind:  kind,
		Err:   fmt.Errorf("%w: %v", ggremote.ErrMalformedMessage, err),
	}
}
