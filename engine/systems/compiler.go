package systems

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// nodeSpan is what Compile recorded for one node of the flattened tree.
// first and count are in elements (vertices, or indices for indexed
// layouts) and only meaningful for leaves.
type nodeSpan struct {
	first    uint32
	count    uint32
	leaf     bool
	subtree  int
	children int
}

// compilation is the result of one successful Compile. Its records and
// spans are only valid while the registry generation matches.
type compilation struct {
	generation uint64
	vertexSize uint32
	indexSize  uint32
	records    []metadata.RangeRecord
	nodes      []nodeSpan
	roots      []int
}

// packedBuffers are the GPU buffers a renderer compiles into.
type packedBuffers struct {
	vertex *metadata.RenderBuffer
	index  *metadata.RenderBuffer
}

func (b *packedBuffers) ensure(backend renderer.RendererBackend, indexed bool) error {
	var err error
	if b.vertex == nil {
		if b.vertex, err = backend.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_VERTEX, 0); err != nil {
			return fmt.Errorf("failed to create vertex buffer: %w", err)
		}
	}
	if indexed && b.index == nil {
		if b.index, err = backend.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_INDEX, 0); err != nil {
			return fmt.Errorf("failed to create index buffer: %w", err)
		}
	}
	return nil
}

func (b *packedBuffers) destroy(backend renderer.RendererBackend) {
	if b.vertex != nil {
		backend.RenderBufferDestroy(b.vertex)
		b.vertex = nil
	}
	if b.index != nil {
		backend.RenderBufferDestroy(b.index)
		b.index = nil
	}
}

func (b *packedBuffers) size() uint64 {
	var total uint64
	if b.vertex != nil {
		total += b.vertex.TotalSize
	}
	if b.index != nil {
		total += b.index.TotalSize
	}
	return total
}

// compileVisitor packs each node and records its span.
type compileVisitor struct {
	layout Layout
	w      *vertexWriters
	nodes  []nodeSpan
	open   []int
}

func (v *compileVisitor) enter(obj metadata.Renderable, depth int) (bool, error) {
	index := len(v.nodes)
	stride := v.layout.Stride()
	vertexStart := v.w.vertex.Offset()
	var indexStart uint32
	if v.w.index != nil {
		indexStart = v.w.index.Offset()
	}

	leaf, err := v.layout.Append(obj, v.w, vertexStart/stride)
	if errors.Is(err, core.ErrBufferOverflow) {
		// Only an object reporting less than it writes can run off the end.
		return false, fmt.Errorf("node %d (%T) reported %d bytes: %w: %w", index, obj, obj.MemorySize(), core.ErrCostMismatch, err)
	}
	if err != nil {
		return false, fmt.Errorf("node %d (%T): %w", index, obj, err)
	}
	written := v.w.vertex.Offset() - vertexStart
	if written != obj.MemorySize() {
		return false, fmt.Errorf("node %d (%T) reported %d bytes but wrote %d: %w", index, obj, obj.MemorySize(), written, core.ErrCostMismatch)
	}
	span := nodeSpan{leaf: leaf, children: presentChildren(obj)}
	if v.w.index != nil {
		indices := (v.w.index.Offset() - indexStart) / 4
		if expected := v.layout.IndexCount(obj); indices != expected {
			return false, fmt.Errorf("node %d (%T) has %d indices but wrote %d: %w", index, obj, expected, indices, core.ErrCostMismatch)
		}
		span.first, span.count = indexStart/4, indices
	} else {
		span.first, span.count = vertexStart/stride, written/stride
	}
	v.nodes = append(v.nodes, span)
	v.open = append(v.open, index)
	return true, nil
}

func (v *compileVisitor) leave(obj metadata.Renderable, depth int) error {
	index := v.open[len(v.open)-1]
	v.open = v.open[:len(v.open)-1]
	v.nodes[index].subtree = len(v.nodes) - index
	return nil
}

// compile packs every registered tree into buffers. On error the buffers
// must be considered garbage and the previous compilation invalid.
func compile(registry *Registry, layout Layout, backend renderer.RendererBackend, buffers *packedBuffers) (*compilation, error) {
	// Groups may have changed since Add validated them.
	for _, entry := range registry.entries {
		if err := metadata.Validate(entry.object); err != nil {
			return nil, fmt.Errorf("renderable #%d: %w", entry.id, err)
		}
	}

	sizes := &sizeVisitor{layout: layout}
	for _, entry := range registry.entries {
		if err := traverse(entry.object, sizes, 0); err != nil {
			return nil, err
		}
	}
	if sizes.vertexSize > gomath.MaxUint32 || sizes.indexSize > gomath.MaxUint32 {
		return nil, fmt.Errorf("packed size of %d bytes does not fit a buffer: %w", sizes.vertexSize+sizes.indexSize, core.ErrBufferOverflow)
	}

	if err := buffers.ensure(backend, layout.Indexed()); err != nil {
		return nil, err
	}
	if err := backend.RenderBufferResize(buffers.vertex, sizes.vertexSize); err != nil {
		return nil, fmt.Errorf("failed to resize vertex buffer to %d bytes: %w", sizes.vertexSize, err)
	}
	if layout.Indexed() {
		if err := backend.RenderBufferResize(buffers.index, sizes.indexSize); err != nil {
			return nil, fmt.Errorf("failed to resize index buffer to %d bytes: %w", sizes.indexSize, err)
		}
	}

	result := &compilation{
		generation: registry.generation,
		vertexSize: uint32(sizes.vertexSize),
		indexSize:  uint32(sizes.indexSize),
	}
	if sizes.vertexSize == 0 {
		return result, nil
	}

	w, err := mapBuffers(backend, buffers, sizes.vertexSize, sizes.indexSize)
	if err != nil {
		return nil, err
	}

	packer := &compileVisitor{layout: layout, w: w}
	var packErr error
	for _, entry := range registry.entries {
		root := len(packer.nodes)
		vertexStart := w.vertex.Offset()
		var indexStart uint32
		if w.index != nil {
			indexStart = w.index.Offset()
		}
		if packErr = traverse(entry.object, packer, 0); packErr != nil {
			packErr = fmt.Errorf("renderable #%d: %w", entry.id, packErr)
			break
		}
		record := metadata.RangeRecord{
			ID:     entry.id,
			Vertex: metadata.Range{Start: vertexStart, Length: w.vertex.Offset() - vertexStart},
		}
		if w.index != nil {
			record.Index = metadata.Range{Start: indexStart, Length: w.index.Offset() - indexStart}
		}
		result.records = append(result.records, record)
		result.roots = append(result.roots, root)
	}
	if packErr == nil && (uint64(w.vertex.Offset()) != sizes.vertexSize || (w.index != nil && uint64(w.index.Offset()) != sizes.indexSize)) {
		packErr = fmt.Errorf("packed data does not fill the buffers: %w", core.ErrCostMismatch)
	}

	// The views are released on every path; a failed commit wins over a
	// packing error since the buffers can no longer be trusted at all.
	if err := unmapBuffers(backend, buffers, sizes.vertexSize, sizes.indexSize); err != nil {
		return nil, err
	}
	if packErr != nil {
		return nil, packErr
	}
	result.nodes = packer.nodes
	return result, nil
}

func mapBuffers(backend renderer.RendererBackend, buffers *packedBuffers, vertexSize, indexSize uint64) (*vertexWriters, error) {
	vertexData, err := backend.RenderBufferMapMemory(buffers.vertex, 0, vertexSize)
	if err != nil {
		return nil, fmt.Errorf("failed to map vertex buffer: %w", err)
	}
	w := &vertexWriters{vertex: newBufferWriter(vertexData)}
	if buffers.index == nil {
		return w, nil
	}
	indexData, err := backend.RenderBufferMapMemory(buffers.index, 0, indexSize)
	if err != nil {
		_ = backend.RenderBufferUnmapMemory(buffers.vertex, 0, vertexSize)
		return nil, fmt.Errorf("failed to map index buffer: %w", err)
	}
	w.index = newBufferWriter(indexData)
	return w, nil
}

func unmapBuffers(backend renderer.RendererBackend, buffers *packedBuffers, vertexSize, indexSize uint64) error {
	vertexErr := backend.RenderBufferUnmapMemory(buffers.vertex, 0, vertexSize)
	var indexErr error
	if buffers.index != nil {
		indexErr = backend.RenderBufferUnmapMemory(buffers.index, 0, indexSize)
	}
	if vertexErr != nil {
		return fmt.Errorf("vertex buffer commit failed: %w", asCorruption(vertexErr))
	}
	if indexErr != nil {
		return fmt.Errorf("index buffer commit failed: %w", asCorruption(indexErr))
	}
	return nil
}

func asCorruption(err error) error {
	if errors.Is(err, core.ErrBufferCorrupted) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrBufferCorrupted, err)
}
