// Package ggremote mirrors a remotely controlled scene and turns it into
// display lists for the gg rendering stack.
//
// # Overview
//
// A remote peer has already laid out a document and streams its visual
// content (rectangles, borders, text, fonts) as incremental JSON diffs over
// a websocket. ggremote keeps a consistent mirror of that scene and lets an
// independent render loop sample it at any time.
//
// # Architecture
//
// The repository is organized leaf-first:
//   - protocol: wire marker keys and decoding into closed tagged unions
//   - scene: display items, pending resources, window overrides, dirty flag
//   - diff: applies decoded batches to the scene, one critical section each
//   - listener: websocket server feeding the diff applier
//   - text: font sources, sized faces and HarfBuzz shaping
//   - displaylist: display-list commands, builder and backends
//   - frame: resolves pending fonts and emits display lists
//   - host: the per-tick runtime contract and the render loop
//
// Data flows listener → diff → scene, and the render loop polls
// scene → frame → displaylist backend.
//
// # Errors
//
// Every recoverable condition is reported through the sentinels in this
// package ([ErrMalformedMessage], [ErrUnknownDiffKind], [ErrMissingFont],
// [ErrUnsupportedResource], ...). Nothing a peer sends can stop the
// listener or the render loop.
//
// # Logging
//
// ggremote is silent by default. Call [SetLogger] to enable logging.
package ggremote

// Version information
const (
	// Version is the current version of the module.
	Version = "0.1.0"
)
