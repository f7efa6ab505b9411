package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/scene"
)

// Message is one decoded peer message. Every field is optional; the raw
// fields are classified later so that a bad render batch does not stop a
// valid resources batch in the same message.
type Message struct {
	// Clear is true if the message carried a clear field (its value is ignored).
	Clear bool

	Position  json.RawMessage
	Size      json.RawMessage
	Resources json.RawMessage
	Render    json.RawMessage
}

// Empty reports whether the message carried none of the recognized fields.
func (m *Message) Empty() bool {
	return !m.Clear && m.Position == nil && m.Size == nil && m.Resources == nil && m.Render == nil
}

// Decode decodes the top level of a message.
// It returns an error wrapping ggremote.ErrMalformedMessage if data is not
// a JSON object. Unrecognized fields are ignored.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ggremote.ErrMalformedMessage, err)
	}
	if fields == nil {
		// literal null
		return Message{}, fmt.Errorf("%w: message is null", ggremote.ErrMalformedMessage)
	}

	var m Message
	_, m.Clear = fields[FieldClear]
	m.Position = fields[FieldPosition]
	m.Size = fields[FieldSize]
	m.Resources = fields[FieldResources]
	m.Render = fields[FieldRender]
	return m, nil
}

// DecodePosition decodes a position field: [x, y].
func DecodePosition(raw json.RawMessage) (scene.Point, error) {
	var v []int64
	if err := strictUnmarshal(raw, &v); err != nil || len(v) < 2 {
		return scene.Point{}, fieldError(FieldPosition, raw, err)
	}
	if v[0] < math.MinInt32 || v[0] > math.MaxInt32 || v[1] < math.MinInt32 || v[1] > math.MaxInt32 {
		return scene.Point{}, fmt.Errorf("%w: position %v out of range", ggremote.ErrMalformedMessage, v[:2])
	}
	return scene.Point{X: int32(v[0]), Y: int32(v[1])}, nil
}

// DecodeSize decodes a size field: [width, height].
func DecodeSize(raw json.RawMessage) (scene.Size, error) {
	var v []uint32
	if err := strictUnmarshal(raw, &v); err != nil || len(v) < 2 {
		return scene.Size{}, fieldError(FieldSize, raw, err)
	}
	return scene.Size{Width: v[0], Height: v[1]}, nil
}

// strictUnmarshal rejects JSON null, which encoding/json would otherwise
// accept as "leave the destination unchanged".
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errNull
	}
	return json.Unmarshal(raw, v)
}

var errNull = errors.New("null value")

func fieldError(field string, raw json.RawMessage, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s %s: too few elements", ggremote.ErrMalformedMessage, field, truncate(raw))
	}
	return fmt.Errorf("%w: %s: %v", ggremote.ErrMalformedMessage, field, err)
}

// truncate shortens raw JSON for error messages.
func truncate(raw json.RawMessage) string {
	const limit = 32
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
