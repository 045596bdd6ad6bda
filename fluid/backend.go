package fluid

import "github.com/pthm-cable/cardfx/source"

// Size describes the simulation grid and the output canvas, both in pixels.
type Size struct {
	SimW, SimH       int
	CanvasW, CanvasH int
}

// Splat is one localized force-and-dye injection. X and Y are normalized
// grid coordinates with Y pointing up.
type Splat struct {
	X, Y   float32
	VX, VY float32
	Dye    float32
	Radius float32
	Aspect float32
}

// CompositeParams controls the final video distortion pass.
type CompositeParams struct {
	ViewAspect  float32
	MediaAspect float32
	Power       float32
}

// Backend executes the individual solver passes. The Engine decides the
// order; a Backend only performs the pass it is asked for. Every pass that
// writes a double-buffered field swaps it before returning.
type Backend interface {
	// Resize (re)allocates all fields, clearing their contents.
	Resize(size Size) error
	// UploadFrame replaces the video texture. Errors are treated as
	// transient by the engine.
	UploadFrame(frame source.Frame) error
	Splat(s Splat)
	Divergence()
	PressureIteration()
	GradientSubtract()
	AdvectVelocity(dt, dissipation float32)
	AdvectDye(dt, dissipation float32)
	Composite(p CompositeParams)
	// Release frees every resource. It must be safe to call more than once.
	Release()
}
