package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// DrawStats summarizes one Draw of one renderer.
type DrawStats struct {
	DrawCalls uint32
	SkinBinds uint32
	// SkinSkips counts binds avoided because the skin was already bound.
	SkinSkips uint32
	Failures  uint32
}

func (s *DrawStats) add(other DrawStats) {
	s.DrawCalls += other.DrawCalls
	s.SkinBinds += other.SkinBinds
	s.SkinSkips += other.SkinSkips
	s.Failures += other.Failures
}

// drawVisitor replays a compilation. cursor walks the recorded spans in the
// same order traverse visits the nodes.
type drawVisitor struct {
	pass   *renderer.Pass
	layout Layout
	comp   *compilation
	logger *core.Logger

	top    int
	id     uint32
	cursor int
	pushed []bool
	stats  DrawStats
}

func (v *drawVisitor) enter(obj metadata.Renderable, depth int) (bool, error) {
	if v.cursor >= len(v.comp.nodes) {
		v.fail(obj, fmt.Errorf("no recorded span left: %w", core.ErrStaleRanges))
		v.pushed = append(v.pushed, false)
		return false, nil
	}
	span := v.comp.nodes[v.cursor]

	pushed := false
	if t, ok := metadata.AsTransform(obj); ok {
		// The stack grows even if the backend rejects the matrix, so the
		// matching pop in leave stays balanced.
		err := v.pass.PushTransform(t.Matrix())
		pushed = true
		if err != nil {
			v.pushed = append(v.pushed, pushed)
			v.skip(obj, span, fmt.Errorf("failed to apply transform: %w", err))
			return false, nil
		}
	}
	v.pushed = append(v.pushed, pushed)

	if err := v.drawNode(obj, span); err != nil {
		v.skip(obj, span, err)
		return false, nil
	}
	v.cursor++
	return true, nil
}

func (v *drawVisitor) leave(obj metadata.Renderable, depth int) error {
	pushed := v.pushed[len(v.pushed)-1]
	v.pushed = v.pushed[:len(v.pushed)-1]
	if pushed {
		if err := v.pass.PopTransform(); err != nil {
			v.logger.Error("Failed to pop transform.", "renderable", v.id, "err", err)
		}
	}
	return nil
}

func (v *drawVisitor) drawNode(obj metadata.Renderable, span nodeSpan) error {
	if children := presentChildren(obj); children != span.children {
		return fmt.Errorf("group had %d children at compile time, now %d: %w", span.children, children, core.ErrStaleRanges)
	}

	// NoSkin keeps whatever the pass has bound
	if s, ok := metadata.AsSkinned(obj); ok && s.SkinID() != metadata.NoSkin {
		bound, err := v.pass.BindSkin(s.SkinID())
		if err != nil {
			return fmt.Errorf("failed to bind skin '%s': %w", s.SkinID(), err)
		}
		if bound {
			v.stats.SkinBinds++
		} else {
			v.stats.SkinSkips++
		}
	}

	if span.leaf && span.count > 0 {
		if err := v.layout.Issue(v.pass.Backend(), obj, span.first, span.count); err != nil {
			return fmt.Errorf("failed to draw %d elements at %d: %w", span.count, span.first, err)
		}
		v.stats.DrawCalls++
	}
	return nil
}

// skip logs a per-object failure and moves the cursor past the node's
// whole recorded subtree.
func (v *drawVisitor) skip(obj metadata.Renderable, span nodeSpan, err error) {
	v.fail(obj, err)
	v.cursor += span.subtree
}

func (v *drawVisitor) fail(obj metadata.Renderable, err error) {
	v.stats.Failures++
	v.logger.Error("Renderable skipped this frame.",
		"position", v.top, "renderable", v.id, "node", v.cursor, "type", fmt.Sprintf("%T", obj), "err", err)
}

// draw issues the draw commands of a compilation. Only a failure to bind
// the packed buffers is returned; everything else is handled per object.
func draw(pass *renderer.Pass, registry *Registry, comp *compilation, layout Layout, buffers *packedBuffers, logger *core.Logger) (DrawStats, error) {
	if comp.vertexSize == 0 {
		return DrawStats{}, nil
	}
	backend := pass.Backend()
	if err := backend.RenderBufferBind(buffers.vertex, 0); err != nil {
		return DrawStats{}, fmt.Errorf("failed to bind vertex buffer: %w", asCorruption(err))
	}
	defer func() {
		if err := backend.RenderBufferUnbind(buffers.vertex); err != nil {
			logger.Warn("Failed to unbind vertex buffer.", "err", err)
		}
	}()
	if layout.Indexed() {
		if err := backend.RenderBufferBind(buffers.index, 0); err != nil {
			return DrawStats{}, fmt.Errorf("failed to bind index buffer: %w", asCorruption(err))
		}
		defer func() {
			if err := backend.RenderBufferUnbind(buffers.index); err != nil {
				logger.Warn("Failed to unbind index buffer.", "err", err)
			}
		}()
	}

	depth := pass.Depth()
	v := &drawVisitor{pass: pass, layout: layout, comp: comp, logger: logger}
	for i, entry := range registry.entries {
		v.top, v.id = i, entry.id
		v.cursor = comp.roots[i]
		if err := traverse(entry.object, v, 0); err != nil {
			// visitors never fail the walk; keep going regardless
			logger.Error("Draw traversal aborted.", "position", i, "renderable", entry.id, "err", err)
		}
	}
	if pass.Depth() != depth {
		return v.stats, errors.New("transform stack not balanced after draw")
	}
	return v.stats, nil
}
