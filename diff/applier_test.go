package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/protocol"
	"github.com/gogpu/ggremote/scene"
)

func rect(x, y, w, h int) string {
	return fmt.Sprintf(`{"AddRect": {
		"bounds": {"position": {"left": %d, "top": %d}, "size": {"width": %d, "height": %d}},
		"display": {"color": {"red": 10, "green": 20, "blue": 30, "alpha": 255}}}}`, x, y, w, h)
}

func text(s string) string {
	return fmt.Sprintf(`{"AddText": {
		"bounds": {"position": {"left": 0, "top": 0}, "size": {"width": 100, "height": 20}},
		"display": {"color": {"red": 0, "green": 0, "blue": 0, "alpha": 255},
			"source_text": [{"Owned": %q}],
			"shaped_text": [{"font_key": 1, "font_instance_key": 2}]}}}`, s)
}

const border = `{"AddBorder": {
	"bounds": {"position": {"left": 0, "top": 0}, "size": {"width": 10, "height": 10}},
	"display": {"colors": [{"red": 1}, {"red": 2}, {"red": 3}, {"red": 4}]}}}`

const image = `{"AddImage": {"key": 9}}`

func update(index int, changes ...string) string {
	return fmt.Sprintf(`{"UpdateSelf": [%d, [%s]]}`, index, strings.Join(changes, ","))
}

func batch(entries ...string) json.RawMessage {
	return json.RawMessage("[" + strings.Join(entries, ",") + "]")
}

func newApplier() (*Applier, *scene.Store) {
	s := scene.NewStore()
	return New(s), s
}

func TestRenderAppendsEveryAdd(t *testing.T) {
	a, s := newApplier()

	if err := a.Render(batch(rect(0, 0, 1, 1), border, text("a"), image, rect(1, 1, 2, 2))); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := s.Len(); got != 5 {
		t.Fatalf("Len = %d, want 5", got)
	}
	kinds := []scene.ItemKind{scene.KindRect, scene.KindBorder, scene.KindText, scene.KindImage, scene.KindRect}
	for i, it := range s.Items() {
		if it.Kind() != kinds[i] {
			t.Errorf("item %d kind = %v, want %v", i, it.Kind(), kinds[i])
		}
	}
	if !s.TakeRedraw() {
		t.Error("render batch did not mark the scene dirty")
	}
}

func TestRenderIdenticalAddsAppendTwice(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(rect(0, 0, 5, 5), rect(0, 0, 5, 5))); err != nil {
		t.Fatal(err)
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestClearMarksDirty(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	s.TakeRedraw()

	if err := a.ApplyBytes([]byte(`{"clear": null}`)); err != nil {
		t.Fatalf("ApplyBytes: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after clear", s.Len())
	}
	if !s.TakeRedraw() {
		t.Error("clear did not mark the scene dirty")
	}
}

func TestClearRunsBeforeRender(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(rect(0, 0, 1, 1), rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	msg := fmt.Sprintf(`{"render": %s, "clear": true}`, batch(rect(3, 3, 3, 3)))
	if err := a.ApplyBytes([]byte(msg)); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || *items[0].Bounds() != scene.NewRect(3, 3, 3, 3) {
		t.Fatalf("items = %v, want the single rect added after clear", items)
	}
}

func TestFieldsAreIsolated(t *testing.T) {
	a, s := newApplier()

	msg := fmt.Sprintf(`{"position": [1], "size": [320, 200], "render": %s}`, batch(rect(0, 0, 1, 1)))
	err := a.ApplyBytes([]byte(msg))
	if !errors.Is(err, ggremote.ErrMalformedMessage) {
		t.Fatalf("error = %v, want ErrMalformedMessage", err)
	}
	if _, ok := s.TakeWindowPosition(); ok {
		t.Error("bad position was recorded")
	}
	if sz, ok := s.TakeWindowSize(); !ok || sz != (scene.Size{Width: 320, Height: 200}) {
		t.Errorf("size = %v, %v", sz, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestMalformedMessageMutatesNothing(t *testing.T) {
	a, s := newApplier()
	v := s.Version()

	for _, in := range []string{`{`, `[]`, `null`, `"render"`} {
		if err := a.ApplyBytes([]byte(in)); !errors.Is(err, ggremote.ErrMalformedMessage) {
			t.Errorf("ApplyBytes(%q) = %v, want ErrMalformedMessage", in, err)
		}
	}
	if s.Version() != v || s.TakeRedraw() {
		t.Error("malformed message mutated the store")
	}
	if got := a.Stats().Malformed; got != 4 {
		t.Errorf("Malformed = %d, want 4", got)
	}
}

func TestStaleUpdateIsDropped(t *testing.T) {
	a, s := newApplier()
	v := s.Version()

	err := a.Render(batch(update(0, `{"Bounds": {"X": 4}}`), rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if s.TakeRedraw() {
		t.Error("stale batch marked the scene dirty")
	}
	if s.Version() != v {
		t.Error("stale batch bumped the version")
	}
	if got := a.Stats().Stale; got != 1 {
		t.Errorf("Stale = %d, want 1", got)
	}
}

func TestUpdateSelf(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(rect(0, 0, 10, 10), text("before"))); err != nil {
		t.Fatal(err)
	}
	s.TakeRedraw()

	err := a.Render(batch(
		update(0, `{"Bounds": {"X": 5}}`, `{"Bounds": {"Height": 50}}`),
		update(1, `{"Text": {"Content": "after"}}`, `{"Style": {}}`),
	))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	items := s.Items()
	if got, want := *items[0].Bounds(), scene.NewRect(5, 0, 10, 50); got != want {
		t.Errorf("rect bounds = %v, want %v", got, want)
	}
	if got := items[1].(*scene.TextItem).Text; got != "after" {
		t.Errorf("text = %q, want after", got)
	}
	if !s.TakeRedraw() {
		t.Error("update did not mark the scene dirty")
	}
}

func TestUpdateSelfIsIdempotent(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(text("x"))); err != nil {
		t.Fatal(err)
	}
	up := batch(update(0, `{"Bounds": {"Y": 7}}`, `{"Text": {"Content": "y"}}`))
	if err := a.Render(up); err != nil {
		t.Fatal(err)
	}
	first := s.Items()[0].(*scene.TextItem)
	if err := a.Render(up); err != nil {
		t.Fatal(err)
	}
	second := s.Items()[0].(*scene.TextItem)
	if *first != *second {
		t.Errorf("second apply changed the item: %+v != %+v", first, second)
	}
}

func TestUpdateSelfAppliesWholly(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(rect(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
	s.TakeRedraw()
	v := s.Version()

	err := a.Render(batch(update(0, `{"Bounds": {"X": 10}}`, `{"Text": {"Content": "x"}}`)))
	if !errors.Is(err, ggremote.ErrItemKind) {
		t.Fatalf("Render = %v, want ErrItemKind", err)
	}
	if got := s.Items()[0].Bounds().Left; got != 0 {
		t.Errorf("left = %d, want 0 (failed update must not write)", got)
	}
	if s.Version() != v || s.TakeRedraw() {
		t.Error("failed update changed the scene state")
	}
}

func TestStaleUndecodableUpdateIsDropped(t *testing.T) {
	tests := []struct {
		name  string
		batch json.RawMessage
	}{
		{"first", batch(update(0, `{"Bounds": {"X": -5}}`), rect(0, 0, 1, 1))},
		{"after stale prefix", batch(update(0, `{"Bounds": {"X": 1}}`), update(0, `{"Bounds": {"X": -5}}`))},
		{"bad pair", batch(`{"UpdateSelf": [0]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, s := newApplier()
			if err := a.Render(tt.batch); err != nil {
				t.Fatalf("Render = %v, want nil", err)
			}
			if s.Len() != 0 || s.TakeRedraw() {
				t.Error("stale batch mutated the scene")
			}
			st := a.Stats()
			if st.Stale != 1 || st.Rejected != 0 {
				t.Errorf("Stale = %d, Rejected = %d, want 1, 0", st.Stale, st.Rejected)
			}
		})
	}

	// With items present the same entry is a real error.
	a, _ := newApplier()
	err := a.Render(batch(rect(0, 0, 1, 1), update(0, `{"Bounds": {"X": -5}}`)))
	if !errors.Is(err, ggremote.ErrMalformedMessage) {
		t.Errorf("Render = %v, want ErrMalformedMessage", err)
	}
	if got := a.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    error
		index   int
		items   int
	}{
		{"index out of range", []string{rect(0, 0, 1, 1), update(3, `{"Bounds": {"X": 1}}`), rect(0, 0, 1, 1)}, ggremote.ErrIndexOutOfRange, 1, 1},
		{"text change on rect", []string{rect(0, 0, 1, 1), update(0, `{"Text": {"Content": "x"}}`)}, ggremote.ErrItemKind, 1, 1},
		{"bounds change on image", []string{image, update(0, `{"Bounds": {"Width": 1}}`)}, ggremote.ErrItemKind, 1, 1},
		{"unknown kind", []string{rect(0, 0, 1, 1), `{"AddCircle": {}}`, rect(0, 0, 1, 1)}, ggremote.ErrUnknownDiffKind, 1, 1},
		{"malformed entry", []string{rect(0, 0, 1, 1), rect(0, 0, 1, 1), `{"AddRect": {}}`}, ggremote.ErrMalformedMessage, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, s := newApplier()
			err := a.Render(batch(tt.entries...))
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var de *ggremote.DiffError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not a DiffError", err)
			}
			if de.Batch != protocol.FieldRender || de.Index != tt.index {
				t.Errorf("DiffError = %s[%d], want render[%d]", de.Batch, de.Index, tt.index)
			}
			if got := s.Len(); got != tt.items {
				t.Errorf("Len = %d, want %d", got, tt.items)
			}
			if !s.TakeRedraw() {
				t.Error("applied prefix did not mark the scene dirty")
			}
			if a.Stats().Rejected != 1 {
				t.Errorf("Rejected = %d, want 1", a.Stats().Rejected)
			}
		})
	}
}

func TestBorderPlaceholders(t *testing.T) {
	a, s := newApplier()
	if err := a.Render(batch(border)); err != nil {
		t.Fatal(err)
	}
	b := s.Items()[0].(*scene.BorderItem)
	for i, side := range scene.Sides {
		if b.Styles[side] != scene.BorderSolid || b.Widths[side] != 1 {
			t.Errorf("side %v: style %v width %d", side, b.Styles[side], b.Widths[side])
		}
		if b.Colors[side].R != uint8(i+1) {
			t.Errorf("side %v: color %v", side, b.Colors[side])
		}
	}
}

func TestResources(t *testing.T) {
	a, s := newApplier()
	err := a.Resources(batch(
		`{"AddFont": {"key": 1, "data_uri": "data:font/ttf;base64,AAEAAA=="}}`,
		`{"AddFontInstance": {"key": 1, "instance_key": 2, "size": 14}}`,
	))
	if err != nil {
		t.Fatalf("Resources: %v", err)
	}
	if s.TakeRedraw() {
		t.Error("resources batch marked the scene dirty")
	}
	snap := s.Drain()
	if len(snap.Resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(snap.Resources))
	}
	f, ok := snap.Resources[0].(scene.FontResource)
	if !ok || f.Key != 1 || string(f.Data) != "\x00\x01\x00\x00" {
		t.Errorf("resource 0 = %#v", snap.Resources[0])
	}
	if fi := snap.Resources[1]; fi != (scene.FontInstanceResource{Key: 1, InstanceKey: 2, Size: 14}) {
		t.Errorf("resource 1 = %#v", fi)
	}
}

func TestResourcesBadDataURI(t *testing.T) {
	a, s := newApplier()
	err := a.Resources(batch(
		`{"AddFontInstance": {"key": 1, "instance_key": 2, "size": 14}}`,
		`{"AddFont": {"key": 1, "data_uri": "not a data uri"}}`,
		`{"AddFontInstance": {"key": 1, "instance_key": 3, "size": 16}}`,
	))
	var de *ggremote.DiffError
	if !errors.As(err, &de) || de.Index != 1 || de.Kind != protocol.AddFontKey {
		t.Fatalf("error = %v, want DiffError at resources[1]", err)
	}
	if !errors.Is(err, ggremote.ErrMalformedMessage) {
		t.Errorf("error = %v, want ErrMalformedMessage", err)
	}
	if got := s.PendingResources(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}
}

func TestConcurrentBatchesStayWhole(t *testing.T) {
	a, s := newApplier()
	entries := make([]string, 8)
	for i := range entries {
		entries[i] = rect(i, i, 1, 1)
	}
	b := batch(entries...)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				if err := a.Render(b); err != nil {
					t.Error(err)
					return
				}
				if n := s.Len(); n%8 != 0 {
					t.Errorf("observed partial batch: %d items", n)
					return
				}
			}
		}()
	}
	wg.Wait()
	if got := s.Len(); got != 8*8*20 {
		t.Errorf("Len = %d, want %d", got, 8*8*20)
	}
}
