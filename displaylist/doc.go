// Package displaylist is the display-list builder frames are produced
// into.
//
// A Builder is bound to a pipeline and a layout size. Primitives (filled
// rectangles, four-edge borders, shaped text) are pushed as typed command
// structs, in paint order. Finish returns an immutable DisplayList that can
// be serialized or replayed to any Backend.
//
// Backends register themselves by name, database/sql style:
//
//	import _ "github.com/gogpu/ggremote/displaylist/backends/raster"
//
//	b, err := displaylist.NewBackend("raster")
//	err = dl.Playback(b)
//
// Font resources travel separately from display lists as ResourceUpdates,
// which a backend must receive before it replays a list that uses them.
package displaylist
