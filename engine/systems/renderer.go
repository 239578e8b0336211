package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// RendererStats reports the state of a BatchRenderer for diagnostics.
type RendererStats struct {
	Renderables int
	Compiles    uint64
	Draws       uint64
	VertexBytes uint32
	IndexBytes  uint32
	Corrupted   bool
	LastDraw    DrawStats
}

/**
 * @brief A BatchRenderer packs every renderable registered with it into one
 * vertex buffer (plus one index buffer for indexed layouts) and draws them
 * from there. Compile must be called after any Add, Remove or geometry
 * change and before the next Draw.
 */
type BatchRenderer struct {
	id       uuid.UUID
	name     string
	layout   Layout
	device   *renderer.RenderDevice
	registry *Registry
	buffers  packedBuffers

	compiled  *compilation
	invalid   bool
	corrupted bool
	destroyed bool

	stats  RendererStats
	logger *core.Logger
}

// NewVBORenderer creates a renderer for unindexed lit 3D geometry.
func NewVBORenderer(name string, device *renderer.RenderDevice) *BatchRenderer {
	return NewBatchRenderer(name, LitLayout{}, device)
}

// NewIndexedVBORenderer creates a renderer for indexed lit 3D geometry.
func NewIndexedVBORenderer(name string, device *renderer.RenderDevice) *BatchRenderer {
	return NewBatchRenderer(name, IndexedLitLayout{}, device)
}

// NewSpriteRenderer creates a renderer for 2D sprites.
func NewSpriteRenderer(name string, device *renderer.RenderDevice) *BatchRenderer {
	return NewBatchRenderer(name, SpriteLayout{}, device)
}

func NewBatchRenderer(name string, layout Layout, device *renderer.RenderDevice) *BatchRenderer {
	id := uuid.New()
	logger := core.NewLogger("renderer", "name", name, "layout", layout.Name(), "instance", id.String()[:8])
	r := &BatchRenderer{
		id:       id,
		name:     name,
		layout:   layout,
		device:   device,
		registry: NewRegistry(logger),
		logger:   logger,
	}
	r.logger.Debug("Renderer created.")
	return r
}

func (r *BatchRenderer) ID() uuid.UUID {
	return r.id
}

func (r *BatchRenderer) Name() string {
	return r.name
}

func (r *BatchRenderer) Layout() Layout {
	return r.layout
}

func (r *BatchRenderer) Len() int {
	return r.registry.Len()
}

// Add registers a top-level renderable. When owns is true the renderer
// releases it on Remove or Destroy.
func (r *BatchRenderer) Add(object metadata.Renderable, owns bool) (uint32, error) {
	if r.destroyed {
		return 0, core.ErrRendererDestroyed
	}
	return r.registry.Add(object, owns)
}

// Remove unregisters a renderable. Unknown ids are logged and ignored.
func (r *BatchRenderer) Remove(id uint32) bool {
	if r.destroyed {
		return false
	}
	return r.registry.Remove(id)
}

func (r *BatchRenderer) Get(id uint32) (metadata.Renderable, bool) {
	return r.registry.Get(id)
}

// Invalidate marks the packed data as outdated, e.g. after a renderable
// changed its geometry.
func (r *BatchRenderer) Invalidate() {
	r.invalid = true
}

// Dirty reports whether Compile must run before the next Draw.
func (r *BatchRenderer) Dirty() bool {
	return r.compiled == nil || r.invalid || r.compiled.generation != r.registry.Generation()
}

/**
 * @brief Compiles every registered renderable into the packed buffers.
 * Any error leaves the renderer without a valid compilation; an error
 * wrapping core.ErrBufferCorrupted additionally marks the buffers as
 * corrupted until the next successful Compile.
 */
func (r *BatchRenderer) Compile() error {
	if r.destroyed {
		return core.ErrRendererDestroyed
	}
	r.compiled = nil
	comp, err := compile(r.registry, r.layout, r.device.Backend(), &r.buffers)
	if err != nil {
		if errors.Is(err, core.ErrBufferCorrupted) {
			r.corrupted = true
		}
		r.logger.Error("Compile failed.", "err", err)
		return fmt.Errorf("renderer '%s' compile: %w", r.name, err)
	}
	r.compiled = comp
	r.invalid = false
	r.corrupted = false
	r.stats.Compiles++
	r.logger.Debug("Renderer successfully updated.", "renderables", r.registry.Len(),
		"vertex_bytes", comp.vertexSize, "index_bytes", comp.indexSize)
	return nil
}

/**
 * @brief Draws everything packed by the last Compile into pass. Objects
 * failing to draw are logged and skipped; an error is only returned when
 * nothing could be drawn at all.
 */
func (r *BatchRenderer) Draw(pass *renderer.Pass) (DrawStats, error) {
	if r.destroyed {
		return DrawStats{}, core.ErrRendererDestroyed
	}
	if pass == nil || !pass.Active() {
		return DrawStats{}, core.ErrPassNotStarted
	}
	if r.corrupted {
		return DrawStats{}, fmt.Errorf("renderer '%s' needs a compile: %w", r.name, core.ErrBufferCorrupted)
	}
	if r.compiled == nil {
		return DrawStats{}, fmt.Errorf("renderer '%s': %w", r.name, core.ErrNotCompiled)
	}
	if r.Dirty() {
		return DrawStats{}, fmt.Errorf("renderer '%s' changed since its last compile: %w", r.name, core.ErrStaleRanges)
	}
	if pass.Mode() != r.layout.Mode() {
		if err := pass.SetMode(r.layout.Mode()); err != nil {
			return DrawStats{}, fmt.Errorf("renderer '%s' failed to switch to %s mode: %w", r.name, r.layout.Mode(), err)
		}
	}

	stats, err := draw(pass, r.registry, r.compiled, r.layout, &r.buffers, r.logger)
	r.stats.LastDraw = stats
	if err != nil {
		if errors.Is(err, core.ErrBufferCorrupted) {
			r.corrupted = true
			r.compiled = nil
		}
		r.logger.Error("Draw failed.", "err", err)
		return stats, fmt.Errorf("renderer '%s' draw: %w", r.name, err)
	}
	r.stats.Draws++
	r.logger.Debugf("Renderer draws objects stored: %d draw calls, %d skin binds, %d failures.",
		stats.DrawCalls, stats.SkinBinds, stats.Failures)
	return stats, nil
}

// MemoryFootprint returns the bytes currently allocated for packed data.
func (r *BatchRenderer) MemoryFootprint() uint64 {
	return r.buffers.size()
}

// Ranges returns the range records of the last compile, one per top-level
// renderable in registration order, or nil when not compiled.
func (r *BatchRenderer) Ranges() []metadata.RangeRecord {
	if r.compiled == nil {
		return nil
	}
	return slices.Clone(r.compiled.records)
}

func (r *BatchRenderer) Stats() RendererStats {
	s := r.stats
	s.Renderables = r.registry.Len()
	s.Corrupted = r.corrupted
	if r.compiled != nil {
		s.VertexBytes = r.compiled.vertexSize
		s.IndexBytes = r.compiled.indexSize
	}
	return s
}

// Destroy releases the packed buffers and every owned renderable. It is
// safe to call more than once and to defer.
func (r *BatchRenderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.compiled = nil
	r.buffers.destroy(r.device.Backend())
	r.registry.Destroy()
	r.logger.Debug("Renderer destroyed.")
}
