// Package host is the contract between the scene mirror and a rendering
// engine's render loop.
//
// A Runtime answers the per-tick questions a render loop asks: is there a
// pending window position or size, does the scene need a redraw, which
// resources must be uploaded, and what is the display list. Runner is a
// headless render loop driving a Runtime on a ticker and presenting frames
// to a Sink.
package host

import (
	"errors"
	"sync"

	"github.com/gogpu/ggremote/displaylist"
	"github.com/gogpu/ggremote/frame"
	"github.com/gogpu/ggremote/scene"
)

// Runtime binds a scene store to a font service.
//
// Runtime is safe for concurrent use, but its methods are meant to be
// called from one render loop.
type Runtime struct {
	store    *scene.Store
	producer *frame.Producer

	mu sync.Mutex
	// carry holds updates resolved while generating a display list; they
	// are returned by the next TakeResourceUpdates.
	carry displaylist.ResourceUpdates
}

// NewRuntime creates a runtime reading from store and resolving fonts
// through fonts.
func NewRuntime(store *scene.Store, fonts frame.FontService, opts ...frame.Option) *Runtime {
	return &Runtime{
		store:    store,
		producer: frame.New(fonts, opts...),
	}
}

// Store returns the scene store.
func (rt *Runtime) Store() *scene.Store { return rt.store }

// Producer returns the frame producer.
func (rt *Runtime) Producer() *frame.Producer { return rt.producer }

// ShouldSetWindowPosition consumes the pending window position.
func (rt *Runtime) ShouldSetWindowPosition() (scene.Point, bool) {
	return rt.store.TakeWindowPosition()
}

// ShouldSetWindowSize consumes the pending window size.
func (rt *Runtime) ShouldSetWindowSize() (scene.Size, bool) {
	return rt.store.TakeWindowSize()
}

// ShouldRedraw consumes the redraw flag.
func (rt *Runtime) ShouldRedraw() bool {
	return rt.store.TakeRedraw()
}

// HandleEvent is called with windowing-system events. The mirror reacts to
// none of them and always reports the event unhandled.
func (rt *Runtime) HandleEvent(any) bool { return false }

// TakeResourceUpdates drains the pending resources, resolves them and
// returns the updates the rendering engine must apply before the next
// display list.
func (rt *Runtime) TakeResourceUpdates() (displaylist.ResourceUpdates, error) {
	u, err := rt.producer.TakeResourceUpdates(rt.store.TakeResources())

	rt.mu.Lock()
	if !rt.carry.Empty() {
		rt.carry.Merge(u)
		u, rt.carry = rt.carry, displaylist.ResourceUpdates{}
	}
	rt.mu.Unlock()
	return u, err
}

// GenerateDisplayList builds the display list of the current scene.
//
// Resources and items are taken in one atomic snapshot, so resources that
// arrived together with the items are resolved first; their updates are
// kept for the next TakeResourceUpdates. Items that cannot be rendered are
// left out and reported in the returned error.
func (rt *Runtime) GenerateDisplayList(pipeline displaylist.PipelineID, size displaylist.LayoutSize) (*displaylist.DisplayList, error) {
	snap := rt.store.Drain()

	var resErr error
	if len(snap.Resources) > 0 {
		var u displaylist.ResourceUpdates
		u, resErr = rt.producer.TakeResourceUpdates(snap.Resources)
		rt.mu.Lock()
		rt.carry.Merge(u)
		rt.mu.Unlock()
	}

	dl, err := rt.producer.Build(snap.Items, pipeline, size)
	return dl, errors.Join(resErr, err)
}
