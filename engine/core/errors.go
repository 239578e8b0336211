package core

import (
	"errors"
)

var (
	ErrUnknown = errors.New("unknown")

	// registration
	ErrNilRenderable       = errors.New("renderable is nil")
	ErrConflictingGeometry = errors.New("renderable exposes both geometry and indexed geometry")
	ErrTreeTooDeep         = errors.New("renderable tree is too deep, probably a group cycle")

	// compile
	ErrCostMismatch    = errors.New("reported memory size does not match the data written")
	ErrBufferOverflow  = errors.New("write past the end of the packed buffer")
	ErrBufferCorrupted = errors.New("packed buffer data got corrupted")
	ErrInvalidFace     = errors.New("face references a vertex the object does not have")

	// draw
	ErrNotCompiled          = errors.New("renderer has no valid compilation")
	ErrStaleRanges          = errors.New("range records do not match the renderables anymore")
	ErrUnknownSkin          = errors.New("unknown skin")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive type")
	ErrTransformUnderflow   = errors.New("transform stack underflow")

	// lifecycle
	ErrRendererDestroyed = errors.New("renderer already destroyed")
	ErrPassNotStarted    = errors.New("render pass has not been started")
	ErrPassInProgress    = errors.New("render pass has already started")
	ErrInvalidBuffer     = errors.New("invalid render buffer")

	// assets
	ErrInvalidScene  = errors.New("invalid scene description")
	ErrInvalidConfig = errors.New("invalid configuration")
)
