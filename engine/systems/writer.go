package systems

import (
	"encoding/binary"
	gomath "math"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
)

// bufferWriter appends little-endian values to a mapped buffer view and
// refuses to write past its end.
type bufferWriter struct {
	data   []byte
	offset uint32
}

func newBufferWriter(data []byte) *bufferWriter {
	return &bufferWriter{data: data}
}

func (w *bufferWriter) Offset() uint32 {
	return w.offset
}

func (w *bufferWriter) reserve(n uint32) ([]byte, error) {
	if uint64(w.offset)+uint64(n) > uint64(len(w.data)) {
		return nil, core.ErrBufferOverflow
	}
	b := w.data[w.offset : w.offset+n]
	w.offset += n
	return b, nil
}

func (w *bufferWriter) PutUint32(v uint32) error {
	b, err := w.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (w *bufferWriter) PutFloat32(v float32) error {
	return w.PutUint32(gomath.Float32bits(v))
}

func (w *bufferWriter) PutFloat32s(values ...float32) error {
	b, err := w.reserve(uint32(len(values)) * 4)
	if err != nil {
		return err
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], gomath.Float32bits(v))
	}
	return nil
}

func (w *bufferWriter) PutVec2(v math.Vec2) error {
	return w.PutFloat32s(v.X, v.Y)
}

func (w *bufferWriter) PutVec3(v math.Vec3) error {
	return w.PutFloat32s(v.X, v.Y, v.Z)
}

// vertexWriters are the views a layout appends one node's data to.
// index is nil for unindexed layouts.
type vertexWriters struct {
	vertex *bufferWriter
	index  *bufferWriter
}
