package metadata

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
}

/** @brief The projection a pass draws with. */
type RenderMode int

const (
	/** @brief Perspective 3D drawing, the default. */
	RENDER_MODE_3D RenderMode = iota
	/** @brief Screen-space drawing, used by sprite renderers. */
	RENDER_MODE_2D
)

func (m RenderMode) String() string {
	if m == RENDER_MODE_2D {
		return "2D"
	}
	return "3D"
}

type RenderBufferType int

const (
	/** @brief Buffer is use is unknown. Default, but usually invalid. */
	RENDERBUFFER_TYPE_UNKNOWN RenderBufferType = iota
	/** @brief Buffer is used for vertex data. */
	RENDERBUFFER_TYPE_VERTEX
	/** @brief Buffer is used for index data. */
	RENDERBUFFER_TYPE_INDEX
)

func (t RenderBufferType) String() string {
	switch t {
	case RENDERBUFFER_TYPE_VERTEX:
		return "vertex"
	case RENDERBUFFER_TYPE_INDEX:
		return "index"
	}
	return "unknown"
}

type RenderBuffer struct {
	/** @brief The type of buffer, which typically determines its use. */
	RenderBufferType RenderBufferType
	/** @brief The total size of the buffer in bytes. */
	TotalSize uint64
	/** @brief Contains internal data for the renderer-API-specific buffer. */
	InternalData interface{}
}

/** @brief A contiguous region of a packed buffer, in bytes. */
type Range struct {
	/** @brief The offset of the first byte. */
	Start uint32
	/** @brief The number of bytes. */
	Length uint32
}

// End returns the offset one past the last byte of the range.
func (r Range) End() uint32 {
	return r.Start + r.Length
}

/**
 * @brief Where the data of one top-level renderable and its whole subtree
 * landed during a compile. Only valid for the compile that produced it.
 */
type RangeRecord struct {
	/** @brief The registry id of the top-level renderable. */
	ID uint32
	/** @brief The region of the vertex buffer. */
	Vertex Range
	/** @brief The region of the index buffer, empty for unindexed layouts. */
	Index Range
}
