package headless

import (
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

type CommandKind int

const (
	COMMAND_CLEAR CommandKind = iota
	COMMAND_SET_MODE
	COMMAND_BIND_BUFFER
	COMMAND_UNBIND_BUFFER
	COMMAND_SET_TRANSFORM
	COMMAND_BIND_SKIN
	COMMAND_DRAW
	COMMAND_DRAW_INDEXED
)

func (k CommandKind) String() string {
	switch k {
	case COMMAND_CLEAR:
		return "clear"
	case COMMAND_SET_MODE:
		return "set_mode"
	case COMMAND_BIND_BUFFER:
		return "bind_buffer"
	case COMMAND_UNBIND_BUFFER:
		return "unbind_buffer"
	case COMMAND_SET_TRANSFORM:
		return "set_transform"
	case COMMAND_BIND_SKIN:
		return "bind_skin"
	case COMMAND_DRAW:
		return "draw"
	case COMMAND_DRAW_INDEXED:
		return "draw_indexed"
	}
	return "unknown"
}

// Command is one recorded backend call. Only the fields relevant to Kind are set.
type Command struct {
	Kind      CommandKind
	Frame     uint64
	Topology  metadata.PrimitiveType
	First     uint32
	Count     uint32
	Skin      metadata.SkinID
	Transform math.Mat4
	Buffer    metadata.RenderBufferType
	Mode      metadata.RenderMode
}

func (c Command) IsDraw() bool {
	return c.Kind == COMMAND_DRAW || c.Kind == COMMAND_DRAW_INDEXED
}
