// Package protocol decodes the messages a remote document peer sends.
//
// A message is a JSON object with optional fields clear, position, size,
// resources and render. The resources and render arrays hold entries
// tagged by a single marker key; Decode keeps each field raw and the
// DecodeResources / DecodeRender functions classify entries into the
// closed sets ResourceDiff, RenderDiff and Change.
//
// Decoding never panics. A bad entry stops decoding at that entry: the
// entries before it are returned together with a *ggremote.DiffError
// wrapping ggremote.ErrUnknownDiffKind or ggremote.ErrMalformedMessage.
package protocol
