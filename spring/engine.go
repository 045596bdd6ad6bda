package spring

import (
	"errors"
	"log/slog"
	"math"

	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
)

// Phase names reported to a PhaseObserver, in execution order.
const (
	PhaseCouple    = "spring_couple"
	PhasePointer   = "spring_pointer"
	PhaseWobble    = "spring_wobble"
	PhaseIntegrate = "spring_integrate"
	PhaseRender    = "spring_render"
)

// Phases lists the spring phases in execution order.
var Phases = []string{PhaseCouple, PhasePointer, PhaseWobble, PhaseIntegrate, PhaseRender}

// Viewport is the host surface the mesh is drawn into.
type Viewport interface {
	// Size returns the viewport size in CSS pixels.
	Size() (w, h float32)
}

// PhaseObserver receives the name of each phase as it begins.
type PhaseObserver interface {
	StartPhase(phase string)
}

// MeshRenderer draws a mesh. Build is called once with the rest layout,
// Draw once per step with the current node positions and cover scale.
type MeshRenderer interface {
	Build(m *Mesh, opts Options) error
	Draw(m *Mesh, sx, sy float64) error
	// Release frees every resource. It must be safe to call more than once.
	Release()
}

// Engine runs the spring warp for one card. It is single-threaded.
type Engine struct {
	opts     Options
	mesh     *Mesh
	renderer MeshRenderer
	src      source.FrameSource
	vp       Viewport
	obs      PhaseObserver

	sx, sy  float64
	elapsed float64
	frames  uint64

	hasPointer   bool
	curX, curY   float64
	prevX, prevY float64
	disposed     bool
}

// New builds the mesh, hands it to the renderer and computes the cover
// scale. On failure the renderer is released before returning. A
// *lifecycle.CapabilityError from the renderer is returned unchanged.
func New(opts Options, src source.FrameSource, vp Viewport, renderer MeshRenderer) (*Engine, error) {
	if renderer == nil {
		return nil, &lifecycle.InitializationFailure{Stage: "renderer", Err: errors.New("nil renderer")}
	}
	if err := opts.Validate(); err != nil {
		renderer.Release()
		return nil, &lifecycle.InitializationFailure{Stage: "options", Err: err}
	}
	e := &Engine{
		opts:     opts,
		mesh:     BuildMesh(opts),
		renderer: renderer,
		src:      src,
		vp:       vp,
		sx:       1,
		sy:       1,
	}
	if err := renderer.Build(e.mesh, opts); err != nil {
		renderer.Release()
		var capErr *lifecycle.CapabilityError
		if errors.As(err, &capErr) {
			return nil, err
		}
		return nil, &lifecycle.InitializationFailure{Stage: "mesh", Err: err}
	}
	e.Resize()
	return e, nil
}

// SetObserver installs a phase observer. Nil disables reporting.
func (e *Engine) SetObserver(obs PhaseObserver) { e.obs = obs }

// Mesh returns the simulated mesh.
func (e *Engine) Mesh() *Mesh { return e.mesh }

// Options returns the engine's tunables.
func (e *Engine) Options() Options { return e.opts }

// Scale returns the current cover scale.
func (e *Engine) Scale() (sx, sy float64) { return e.sx, e.sy }

// Frames returns the number of completed steps.
func (e *Engine) Frames() uint64 { return e.frames }

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool { return e.disposed }

// Resize recomputes the cover scale from the viewport and video aspects.
// The mesh is never re-tessellated.
func (e *Engine) Resize() error {
	if e.disposed {
		return nil
	}
	w, h := e.vp.Size()
	container := float64(max(1, w)) / float64(max(1, h))
	e.sx, e.sy = CoverScale(container, e.videoAspect())
	return nil
}

// SetPointer records a pointer sample in plane-local coordinates. The
// first sample after construction or PointerLeave only sets the origin.
func (e *Engine) SetPointer(x, y float64) {
	if e.disposed {
		return
	}
	if !e.hasPointer {
		e.hasPointer = true
		e.prevX, e.prevY = x, y
	}
	e.curX, e.curY = x, y
}

// PointerNDC records a pointer sample given in viewport NDC (y up, -1..1).
// It reports false when the point falls off the plane.
func (e *Engine) PointerNDC(nx, ny float64) bool {
	x := nx * e.opts.PlaneW / 2 / e.sx
	y := ny * e.opts.PlaneH / 2 / e.sy
	if math.Abs(x) > e.opts.PlaneW/2 || math.Abs(y) > e.opts.PlaneH/2 {
		return false
	}
	e.SetPointer(x, y)
	return true
}

// PointerLeave forgets the pointer so the next sample does not produce a
// jump.
func (e *Engine) PointerLeave() {
	e.hasPointer = false
}

// Step advances the simulation by one frame and draws it. dt is the
// elapsed wall time in seconds and only drives the idle wobble.
func (e *Engine) Step(dt float64) error {
	if e.disposed {
		return nil
	}
	e.elapsed += dt

	e.phase(PhaseCouple)
	e.mesh.Couple(e.opts.AdjacentK)

	e.phase(PhasePointer)
	if d, ok := e.drag(); ok {
		e.mesh.Pull(d, e.opts)
	}

	e.phase(PhaseWobble)
	e.mesh.Wobble(e.elapsed, e.opts.AutoWobble)

	e.phase(PhaseIntegrate)
	e.mesh.Integrate(e.opts.Elasticity, e.opts.Damping, e.opts.MaxStep)

	e.phase(PhaseRender)
	if err := e.renderer.Draw(e.mesh, e.sx, e.sy); err != nil {
		return err
	}
	e.frames++
	return nil
}

// Dispose releases the renderer. It is safe to call repeatedly.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.renderer.Release()
	slog.Debug("spring engine disposed", "variant", e.opts.Variant, "frames", e.frames)
}

// drag consumes the pointer motion since the last step.
func (e *Engine) drag() (Drag, bool) {
	if !e.hasPointer {
		return Drag{}, false
	}
	dx, dy := e.curX-e.prevX, e.curY-e.prevY
	e.prevX, e.prevY = e.curX, e.curY

	r := e.opts.MouseRadius
	if e.opts.Variant == VariantEdge {
		// Threshold in NDC units, before the cover scale is undone.
		ndx := dx * e.sx * 2 / e.opts.PlaneW
		ndy := dy * e.sy * 2 / e.opts.PlaneH
		if math.Abs(ndx)+math.Abs(ndy) < edgeMinDelta {
			return Drag{}, false
		}
	} else {
		if dx == 0 && dy == 0 {
			return Drag{}, false
		}
		r *= math.Max(e.sx, e.sy)
	}
	return Drag{X: e.curX, Y: e.curY, DX: dx, DY: dy, Radius: r}, true
}

func (e *Engine) videoAspect() float64 {
	if e.src != nil {
		if w, h := e.src.Size(); w > 0 && h > 0 {
			return float64(w) / float64(h)
		}
	}
	if e.opts.VideoAspect > 0 {
		return e.opts.VideoAspect
	}
	return DefaultVideoAspect
}

func (e *Engine) phase(name string) {
	if e.obs != nil {
		e.obs.StartPhase(name)
	}
}

// NullRenderer discards draws. Headless runs use it to drive the
// simulation without a GPU.
type NullRenderer struct {
	Draws    int
	Released bool
}

func (r *NullRenderer) Build(*Mesh, Options) error { return nil }

func (r *NullRenderer) Draw(*Mesh, float64, float64) error {
	r.Draws++
	return nil
}

func (r *NullRenderer) Release() { r.Released = true }
