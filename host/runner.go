package host

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/displaylist"
	"github.com/gogpu/ggremote/scene"
)

// DefaultInterval is the render loop period when none is configured.
const DefaultInterval = 16 * time.Millisecond

// Runner is a headless render loop. On every tick it applies pending
// window overrides and resolves pending resources. When the scene changed
// it produces a frame; otherwise new resource updates alone go to the sink.
//
// Errors never stop the loop; they are logged.
type Runner struct {
	rt       *Runtime
	sink     Sink
	interval time.Duration
	pipeline displaylist.PipelineID

	size     atomic.Pointer[displaylist.LayoutSize]
	position atomic.Pointer[scene.Point]

	frames atomic.Uint64
	failed atomic.Uint64
}

// NewRunner creates a loop presenting rt's frames to sink at the initial
// surface size. A non-positive interval means DefaultInterval.
func NewRunner(rt *Runtime, sink Sink, pipeline displaylist.PipelineID, size scene.Size, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Runner{rt: rt, sink: sink, interval: interval, pipeline: pipeline}
	r.size.Store(&displaylist.LayoutSize{Width: float32(size.Width), Height: float32(size.Height)})
	r.position.Store(&scene.Point{})
	return r
}

// Run ticks until ctx is canceled. It renders once immediately.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ggremote.Logger().Info("host: render loop started", "interval", r.interval, "pipeline", r.pipeline)
	r.Tick()
	for {
		select {
		case <-ctx.Done():
			ggremote.Logger().Info("host: render loop stopped", "frames", r.frames.Load())
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick runs one iteration of the loop and reports whether a frame was
// presented.
func (r *Runner) Tick() bool {
	log := ggremote.Logger()

	if p, ok := r.rt.ShouldSetWindowPosition(); ok {
		r.position.Store(&p)
		log.Debug("host: window position", "x", p.X, "y", p.Y)
	}
	if s, ok := r.rt.ShouldSetWindowSize(); ok {
		r.size.Store(&displaylist.LayoutSize{Width: float32(s.Width), Height: float32(s.Height)})
		log.Info("host: window resized", "width", s.Width, "height", s.Height)
	}

	u, resErr := r.rt.TakeResourceUpdates()
	if !r.rt.ShouldRedraw() {
		r.flushResources(u, resErr)
		return false
	}

	dl, buildErr := r.rt.GenerateDisplayList(r.pipeline, *r.size.Load())
	// Resources resolved while building.
	late, lateErr := r.rt.TakeResourceUpdates()
	u.Merge(late)
	if err := errors.Join(resErr, buildErr, lateErr); err != nil {
		r.failed.Add(1)
		log.Warn("host: frame produced with errors", "err", err)
	}

	if err := r.sink.Present(u, dl); err != nil {
		r.failed.Add(1)
		log.Error("host: present failed", "err", err)
		return false
	}
	n := r.frames.Add(1)
	log.Debug("host: frame presented", slog.Uint64("frame", n), slog.Int("commands", dl.Len()))
	return true
}

// flushResources hands resource updates to the sink on a tick without a
// frame.
func (r *Runner) flushResources(u displaylist.ResourceUpdates, err error) {
	log := ggremote.Logger()
	if err != nil {
		r.failed.Add(1)
		log.Warn("host: resources resolved with errors", "err", err)
	}
	if u.Empty() {
		return
	}
	if err := r.sink.Present(u, nil); err != nil {
		r.failed.Add(1)
		log.Error("host: present resources failed", "err", err)
		return
	}
	log.Debug("host: resources presented", slog.Int("updates", u.Len()))
}

// Size returns the current surface size.
func (r *Runner) Size() displaylist.LayoutSize { return *r.size.Load() }

// Position returns the last window position requested by the peer.
func (r *Runner) Position() scene.Point { return *r.position.Load() }

// Frames returns the number of frames presented.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// Errors returns the number of ticks that reported errors.
func (r *Runner) Errors() uint64 { return r.failed.Load() }
