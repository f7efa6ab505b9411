// Package diff applies decoded peer messages to a scene.Store.
//
// Each logical operation (a clear, a position or size update, a resources
// batch, a render batch) runs in exactly one store critical section, so a
// concurrently produced frame sees it either not at all or completely.
// Errors are local to the operation that produced them.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vincent-petithory/dataurl"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/protocol"
	"github.com/gogpu/ggremote/scene"
)

// slowApply is the apply duration above which a message is logged at
// debug level.
const slowApply = time.Millisecond

// Applier mutates a scene.Store from peer messages.
//
// Applier is safe for concurrent use. Messages from several peers are
// applied to the same store; the last write wins.
type Applier struct {
	store *scene.Store

	messages  atomic.Uint64
	malformed atomic.Uint64
	batches   atomic.Uint64
	stale     atomic.Uint64
	rejected  atomic.Uint64
}

// New creates an Applier writing to store.
func New(store *scene.Store) *Applier {
	return &Applier{store: store}
}

// Store returns the store the applier writes to.
func (a *Applier) Store() *scene.Store { return a.store }

// ApplyBytes decodes one wire message and applies it.
// A message that fails top-level decoding mutates nothing.
func (a *Applier) ApplyBytes(data []byte) error {
	start := time.Now()

	msg, err := protocol.Decode(data)
	if err != nil {
		a.malformed.Add(1)
		ggremote.Logger().Warn("diff: dropping malformed message", "err", err, "bytes", len(data))
		return err
	}
	err = a.Apply(msg)

	if elapsed := time.Since(start); elapsed > slowApply {
		ggremote.Logger().Debug("diff: slow message", "elapsed", elapsed, "bytes", len(data))
	}
	return err
}

// Apply applies the fields of msg in priority order: clear, position,
// size, resources, render. Fields are independent: a failure in one does
// not prevent the others. The returned error joins every field's error.
func (a *Applier) Apply(msg protocol.Message) error {
	a.messages.Add(1)

	var errs []error
	if msg.Clear {
		a.Clear()
	}
	if msg.Position != nil {
		errs = append(errs, a.Position(msg.Position))
	}
	if msg.Size != nil {
		errs = append(errs, a.Size(msg.Size))
	}
	if msg.Resources != nil {
		errs = append(errs, a.Resources(msg.Resources))
	}
	if msg.Render != nil {
		errs = append(errs, a.Render(msg.Render))
	}
	return errors.Join(errs...)
}

// Clear empties the scene and the pending resources.
// The listener also calls it when a peer disconnects.
func (a *Applier) Clear() {
	a.store.Clear()
	ggremote.Logger().Debug("diff: scene cleared")
}

// Position records a pending window position.
func (a *Applier) Position(raw json.RawMessage) error {
	p, err := protocol.DecodePosition(raw)
	if err != nil {
		ggremote.Logger().Warn("diff: bad position", "err", err)
		return err
	}
	a.store.SetWindowPosition(p)
	return nil
}

// Size records a pending window size.
func (a *Applier) Size(raw json.RawMessage) error {
	s, err := protocol.DecodeSize(raw)
	if err != nil {
		ggremote.Logger().Warn("diff: bad size", "err", err)
		return err
	}
	a.store.SetWindowSize(s)
	return nil
}

// Resources queues a resources batch for resolution at frame time.
// Entries before a bad entry are queued; the rest of the batch is skipped.
func (a *Applier) Resources(raw json.RawMessage) error {
	a.batches.Add(1)

	diffs, decodeErr := protocol.DecodeResources(raw)
	resources := make([]scene.Resource, 0, len(diffs))
	var convErr error
	for i, d := range diffs {
		r, err := toResource(d)
		if err != nil {
			convErr = &ggremote.DiffError{Batch: protocol.FieldResources, Index: i, Kind: d.DiffKind(), Err: err}
			break
		}
		resources = append(resources, r)
	}

	_ = a.store.Update(func(tx *scene.Tx) error {
		for _, r := range resources {
			tx.Enqueue(r)
		}
		return nil
	})

	err := decodeErr
	if convErr != nil {
		err = convErr
	}
	if err != nil {
		a.reject(protocol.FieldResources, err, len(resources))
	}
	return err
}

// toResource converts a wire resource into a pending scene resource.
func toResource(d protocol.ResourceDiff) (scene.Resource, error) {
	switch d := d.(type) {
	case protocol.AddFont:
		u, err := dataurl.DecodeString(d.DataURI)
		if err != nil {
			return nil, fmt.Errorf("%w: data_uri: %v", ggremote.ErrMalformedMessage, err)
		}
		return scene.FontResource{Key: d.Key, Data: u.Data}, nil
	case protocol.AddFontInstance:
		return scene.FontInstanceResource{Key: d.Key, InstanceKey: d.InstanceKey, Size: d.Size}, nil
	case protocol.AddImageResource:
		return scene.ImageResource{Key: d.Key}, nil
	}
	return nil, fmt.Errorf("%w: %T", ggremote.ErrUnknownDiffKind, d)
}

// Render applies a render batch.
//
// The whole batch is one critical section and sets the redraw flag at
// most once. An UpdateSelf that arrives while the scene is empty means
// this mirror missed the adds it refers to; the batch is dropped without
// error, even if that UpdateSelf does not decode. A bad entry stops the
// batch; entries before it stay applied.
func (a *Applier) Render(raw json.RawMessage) error {
	a.batches.Add(1)

	diffs, decodeErr := protocol.DecodeRender(raw)

	stale := false
	applyErr := a.store.Update(func(tx *scene.Tx) error {
		for i, d := range diffs {
			if _, ok := d.(protocol.UpdateSelf); ok && tx.Len() == 0 {
				// Nothing was appended before i, so nothing was mutated.
				stale = true
				tx.Discard()
				return nil
			}
			if err := applyRender(tx, d); err != nil {
				return &ggremote.DiffError{Batch: protocol.FieldRender, Index: i, Kind: d.DiffKind(), Err: err}
			}
			tx.MarkDirty()
		}
		if tx.Len() == 0 && failedUpdateSelf(decodeErr) {
			// The undecodable entry is an UpdateSelf and nothing was appended.
			stale = true
			tx.Discard()
		}
		return nil
	})

	if stale {
		a.stale.Add(1)
		ggremote.Logger().Debug("diff: dropping stale render batch", "entries", len(diffs))
		return nil
	}

	err := applyErr
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		a.reject(protocol.FieldRender, err, len(diffs))
	}
	return err
}

// applyRender applies one render entry inside a store transaction.
func applyRender(tx *scene.Tx, d protocol.RenderDiff) error {
	switch d := d.(type) {
	case protocol.UpdateSelf:
		it, err := tx.At(d.Index)
		if err != nil {
			return err
		}
		// An UpdateSelf applies fully or not at all.
		for _, c := range d.Changes {
			if err := checkChange(it, c); err != nil {
				return err
			}
		}
		for _, c := range d.Changes {
			applyChange(it, c)
		}
	case protocol.AddRect:
		tx.Append(&scene.RectItem{Rect: d.Rect, Color: d.Color})
	case protocol.AddBorder:
		tx.Append(newBorder(d))
	case protocol.AddText:
		tx.Append(&scene.TextItem{
			Rect:            d.Rect,
			Color:           d.Color,
			Text:            d.Text,
			FontKey:         d.FontKey,
			FontInstanceKey: d.FontInstanceKey,
		})
	case protocol.AddImage:
		tx.Append(&scene.ImageItem{Key: d.Key})
	default:
		return fmt.Errorf("%w: %T", ggremote.ErrUnknownDiffKind, d)
	}
	return nil
}

// checkChange reports whether c can be applied to it.
func checkChange(it scene.Item, c protocol.Change) error {
	switch c.(type) {
	case protocol.TextContent:
		if _, ok := it.(*scene.TextItem); !ok {
			return fmt.Errorf("%w: text change on %v", ggremote.ErrItemKind, it.Kind())
		}
	case protocol.BoundsChange:
		if it.Bounds() == nil {
			return fmt.Errorf("%w: bounds change on %v", ggremote.ErrItemKind, it.Kind())
		}
	}
	return nil
}

// applyChange writes one partial update into a live item. c must have
// passed checkChange.
func applyChange(it scene.Item, c protocol.Change) {
	switch c := c.(type) {
	case protocol.TextContent:
		it.(*scene.TextItem).Text = c.Text
	case protocol.BoundsChange:
		c.Apply(it.Bounds())
	case protocol.UnknownChange:
		ggremote.Logger().Debug("diff: ignoring unknown change", "raw", string(c.Raw))
	}
}

// failedUpdateSelf reports whether err stopped a render batch at an
// UpdateSelf entry.
func failedUpdateSelf(err error) bool {
	var de *ggremote.DiffError
	return errors.As(err, &de) && de.Kind == protocol.UpdateSelfKey
}

// newBorder builds a border item. Edge styles and widths are not sent by
// the peer yet, so every edge is solid and one pixel wide.
func newBorder(d protocol.AddBorder) *scene.BorderItem {
	b := &scene.BorderItem{Rect: d.Rect, Colors: d.Colors}
	for i := range b.Styles {
		b.Styles[i] = scene.BorderSolid
		b.Widths[i] = 1
	}
	return b
}

func (a *Applier) reject(batch string, err error, applied int) {
	a.rejected.Add(1)
	ggremote.Logger().Warn("diff: batch rejected",
		slog.String("batch", batch),
		slog.Int("applied", applied),
		slog.Any("err", err))
}

// Stats is a snapshot of applier counters.
type Stats struct {
	Messages  uint64
	Malformed uint64
	Batches   uint64
	Stale     uint64
	Rejected  uint64
}

// Stats returns a snapshot of applier counters.
func (a *Applier) Stats() Stats {
	return Stats{
		Messages:  a.messages.Load(),
		Malformed: a.malformed.Load(),
		Batches:   a.batches.Load(),
		Stale:     a.stale.Load(),
		Rejected:  a.rejected.Load(),
	}
}
