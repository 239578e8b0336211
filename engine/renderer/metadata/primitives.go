package metadata

// PrimitiveType is the topology a leaf's vertices are assembled with.
type PrimitiveType uint8

const (
	PRIMITIVE_TYPE_POINT PrimitiveType = iota
	PRIMITIVE_TYPE_LINE
	PRIMITIVE_TYPE_LINE_STRIP
	PRIMITIVE_TYPE_LINE_LOOP
	PRIMITIVE_TYPE_TRIANGLE
	PRIMITIVE_TYPE_TRIANGLE_STRIP
	PRIMITIVE_TYPE_TRIANGLE_FAN
	PRIMITIVE_TYPE_QUAD
	PRIMITIVE_TYPE_QUAD_STRIP
	PRIMITIVE_TYPE_POLYGON
)

var primitiveTypeNames = [...]string{
	"point",
	"line",
	"line_strip",
	"line_loop",
	"triangle",
	"triangle_strip",
	"triangle_fan",
	"quad",
	"quad_strip",
	"polygon",
}

func (p PrimitiveType) String() string {
	if int(p) < len(primitiveTypeNames) {
		return primitiveTypeNames[p]
	}
	return "unknown"
}

// ParsePrimitiveType is the inverse of String, used by scene files.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	for i, n := range primitiveTypeNames {
		if n == name {
			return PrimitiveType(i), true
		}
	}
	return 0, false
}

/** @brief A point primitive, indexing one vertex. */
type Point struct {
	A uint32
}

/** @brief A line primitive, indexing two vertices. */
type Line struct {
	A, B uint32
}

/** @brief A triangle face, indexing three vertices of the owning object. */
type Triangle struct {
	A, B, C uint32
}

/** @brief A quad primitive, indexing four vertices. */
type Quad struct {
	A, B, C, D uint32
}

// TriangleIndexSize is the number of bytes one face occupies in an index buffer.
const TriangleIndexSize uint32 = 3 * 4
