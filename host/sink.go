package host

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggremote/displaylist"
)

// Sink receives produced frames.
type Sink interface {
	// Present applies u and then shows dl. dl is nil when only resources
	// changed since the last call.
	Present(u displaylist.ResourceUpdates, dl *displaylist.DisplayList) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(u displaylist.ResourceUpdates, dl *displaylist.DisplayList) error

// Present implements Sink.
func (f SinkFunc) Present(u displaylist.ResourceUpdates, dl *displaylist.DisplayList) error {
	return f(u, dl)
}

// BackendSink replays frames to a display-list backend.
type BackendSink struct {
	Backend displaylist.Backend
	// Output, if set, is a PNG path each frame is written to. The backend
	// must then have a SavePNG(path string) error method.
	Output string
}

type pngSaver interface {
	SavePNG(path string) error
}

// Present implements Sink. Resource errors do not stop the frame.
func (s *BackendSink) Present(u displaylist.ResourceUpdates, dl *displaylist.DisplayList) error {
	var resErr error
	if !u.Empty() {
		resErr = s.Backend.AddResources(u)
	}
	if dl == nil {
		return resErr
	}
	if err := dl.Playback(s.Backend); err != nil {
		return errors.Join(resErr, fmt.Errorf("host: playback: %w", err))
	}
	if s.Output != "" {
		saver, ok := s.Backend.(pngSaver)
		if !ok {
			return errors.Join(resErr, fmt.Errorf("host: backend %T cannot write %s", s.Backend, s.Output))
		}
		if err := saver.SavePNG(s.Output); err != nil {
			return errors.Join(resErr, err)
		}
	}
	return resErr
}
