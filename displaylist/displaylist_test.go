package displaylist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

// mockBackend records what it is asked to draw.
type mockBackend struct {
	beginCalls    int
	endCalls      int
	width, height int
	calls         []CommandType
	resources     int
	beginErr      error
}

func (b *mockBackend) AddResources(u ResourceUpdates) error {
	b.resources += u.Len()
	return nil
}

func (b *mockBackend) Begin(width, height int) error {
	b.beginCalls++
	b.width, b.height = width, height
	return b.beginErr
}

func (b *mockBackend) End() error {
	b.endCalls++
	return nil
}

func (b *mockBackend) FillRect(RectCommand)     { b.calls = append(b.calls, CmdRect) }
func (b *mockBackend) DrawBorder(BorderCommand) { b.calls = append(b.calls, CmdBorder) }
func (b *mockBackend) DrawText(TextCommand)     { b.calls = append(b.calls, CmdText) }

func testFace(t *testing.T) *text.Face {
	t.Helper()
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	face, err := src.Face(16)
	if err != nil {
		t.Fatal(err)
	}
	return face
}

func buildSample(t *testing.T) *DisplayList {
	t.Helper()
	face := testFace(t)
	b := NewBuilder(3, LayoutSize{Width: 200, Height: 100})
	b.PushRect(Rect{X: 1, Y: 2, Width: 3, Height: 4}, scene.Color{R: 255, A: 255})
	b.PushBorder(Rect{Width: 10, Height: 10},
		[4]float32{1, 1, 1, 1},
		[4]scene.Color{{A: 255}, {A: 255}, {A: 255}, {A: 255}},
		[4]scene.BorderStyle{scene.BorderSolid, scene.BorderSolid, scene.BorderSolid, scene.BorderSolid})
	b.PushText(Rect{X: 10, Y: 20, Width: 100, Height: 20}, scene.Color{A: 255}, face,
		text.NewGoTextShaper().Shape("hi", face))
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	return b.Finish()
}

func TestBuilder(t *testing.T) {
	dl := buildSample(t)
	if dl.Pipeline() != 3 || dl.Size() != (LayoutSize{200, 100}) {
		t.Errorf("pipeline %d size %v", dl.Pipeline(), dl.Size())
	}
	want := []CommandType{CmdRect, CmdBorder, CmdText}
	for i, c := range dl.Commands() {
		if c.Type() != want[i] {
			t.Errorf("command %d = %v, want %v", i, c.Type(), want[i])
		}
	}

	tc := dl.Commands()[2].(TextCommand)
	if tc.Origin[0] != 10 || tc.Origin[1] <= 20 || tc.Origin[1] >= 40 {
		t.Errorf("text origin = %v, want a baseline inside the box", tc.Origin)
	}
	if len(tc.Glyphs) != 2 {
		t.Errorf("text glyphs = %d, want 2", len(tc.Glyphs))
	}
}

func TestPlayback(t *testing.T) {
	dl := buildSample(t)
	mb := &mockBackend{}
	if err := dl.Playback(mb); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if mb.beginCalls != 1 || mb.endCalls != 1 {
		t.Errorf("Begin/End calls = %d/%d", mb.beginCalls, mb.endCalls)
	}
	if mb.width != 200 || mb.height != 100 {
		t.Errorf("Begin size = %dx%d", mb.width, mb.height)
	}
	if len(mb.calls) != 3 || mb.calls[0] != CmdRect || mb.calls[2] != CmdText {
		t.Errorf("calls = %v", mb.calls)
	}
}

func TestPlaybackBeginError(t *testing.T) {
	boom := errors.New("boom")
	mb := &mockBackend{beginErr: boom}
	if err := buildSample(t).Playback(mb); !errors.Is(err, boom) {
		t.Fatalf("Playback = %v, want boom", err)
	}
	if len(mb.calls) != 0 || mb.endCalls != 0 {
		t.Error("backend drawn after Begin failed")
	}
}

func TestEmptyList(t *testing.T) {
	dl := NewBuilder(0, LayoutSize{Width: 8, Height: 8}).Finish()
	if dl.Len() != 0 {
		t.Errorf("Len = %d", dl.Len())
	}
	if err := dl.Playback(&mockBackend{}); err != nil {
		t.Error(err)
	}
}

func TestSerialize(t *testing.T) {
	dl := buildSample(t)
	data := dl.Serialize()

	if !bytes.HasPrefix(data, []byte("GGDL")) || data[4] != formatVersion {
		t.Fatalf("bad header % x", data[:5])
	}
	if got := binary.LittleEndian.Uint32(data[5:]); got != 3 {
		t.Errorf("pipeline = %d, want 3", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[9:])); got != 200 {
		t.Errorf("width = %v, want 200", got)
	}
	if got := binary.LittleEndian.Uint32(data[17:]); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	if data[21] != byte(CmdRect) {
		t.Errorf("first command tag = %d", data[21])
	}
	// rect: tag + 16 + 4 bytes
	if data[21+21] != byte(CmdBorder) {
		t.Errorf("second command tag = %d", data[42])
	}
	if !bytes.Contains(data, []byte("Go")) {
		t.Error("text family not serialized")
	}
	if !bytes.Equal(data, dl.Serialize()) {
		t.Error("Serialize is not deterministic")
	}
}

func TestResourceUpdates(t *testing.T) {
	var u ResourceUpdates
	if !u.Empty() {
		t.Error("zero value not empty")
	}
	u.Merge(ResourceUpdates{AddFonts: []AddFont{{Key: 1, Family: "Go"}}})
	u.Merge(ResourceUpdates{AddFontInstances: []AddFontInstance{{InstanceKey: 2, Family: "Go", Size: 12}}})
	if u.Empty() || u.Len() != 2 {
		t.Errorf("after merge: empty=%v len=%d", u.Empty(), u.Len())
	}
}

func resetRegistry() {
	engines.Lock()
	defer engines.Unlock()
	engines.byName = make(map[string]BackendFactory)
}

func TestRegistry(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	Register("mock", func() Backend { return &mockBackend{} })
	if !IsRegistered("mock") {
		t.Fatal("mock not registered")
	}
	b, err := NewBackend("mock")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*mockBackend); !ok {
		t.Errorf("NewBackend returned %T", b)
	}
	_, err = NewBackend("missing")
	if !errors.Is(err, ErrUnknownBackend) || !strings.Contains(err.Error(), "have mock") {
		t.Errorf("NewBackend(missing) = %v, want ErrUnknownBackend listing mock", err)
	}

	Register("another", func() Backend { return &mockBackend{} })
	if got := Backends(); len(got) != 2 || got[0] != "another" || got[1] != "mock" {
		t.Errorf("Backends = %v", got)
	}

	Unregister("mock")
	Unregister("another")
	if IsRegistered("mock") {
		t.Error("mock still registered")
	}
	if _, err := NewBackend("mock"); !errors.Is(err, ErrUnknownBackend) || !strings.Contains(err.Error(), "none registered") {
		t.Errorf("NewBackend on empty registry = %v", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}
	mustPanic("empty name", func() { Register("", func() Backend { return &mockBackend{} }) })
	mustPanic("nil factory", func() { Register("x", nil) })
	Register("x", func() Backend { return &mockBackend{} })
	mustPanic("duplicate", func() { Register("x", func() Backend { return &mockBackend{} }) })
}
