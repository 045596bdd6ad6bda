package fluid

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
)

// Phase names reported to a PhaseObserver, in execution order.
const (
	PhaseIngest     = "fluid_ingest"
	PhaseInject     = "fluid_inject"
	PhaseDivergence = "fluid_divergence"
	PhasePressure   = "fluid_pressure"
	PhaseGradient   = "fluid_gradient"
	PhaseAdvect     = "fluid_advect"
	PhaseComposite  = "fluid_composite"
)

// Phases lists the fluid phases in execution order.
var Phases = []string{
	PhaseIngest, PhaseInject, PhaseDivergence, PhasePressure,
	PhaseGradient, PhaseAdvect, PhaseComposite,
}

// Viewport is the host surface an engine renders into.
type Viewport interface {
	// Size returns the viewport size in CSS pixels.
	Size() (w, h float32)
	PixelRatio() float32
}

// PhaseObserver receives the name of each pass as it begins.
type PhaseObserver interface {
	StartPhase(phase string)
}

// Engine runs the fluid distortion for one card. It owns its backend
// exclusively and is single-threaded: all methods must be called from the
// frame loop.
type Engine struct {
	opts    Options
	seed    uint32
	backend Backend
	src     source.FrameSource
	vp      Viewport
	obs     PhaseObserver

	size   Size
	cw, ch float32

	auto    *AutoInjector
	pointer *PointerInjector

	mediaAspect float32
	frames      uint64
	skipped     uint64
	lastSkip    error
	disposed    bool
}

// New builds an engine, allocates the backend's fields and injects the
// warm-start burst. On failure the backend is released before returning.
// A *lifecycle.CapabilityError from the backend is returned unchanged; any
// other failure is wrapped in *lifecycle.InitializationFailure.
func New(opts Options, src source.FrameSource, vp Viewport, backend Backend) (*Engine, error) {
	if backend == nil {
		return nil, &lifecycle.InitializationFailure{Stage: "backend", Err: errors.New("nil backend")}
	}
	if err := opts.Validate(); err != nil {
		backend.Release()
		return nil, &lifecycle.InitializationFailure{Stage: "options", Err: err}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	e := &Engine{
		opts:        opts,
		seed:        seed,
		backend:     backend,
		src:         src,
		vp:          vp,
		pointer:     NewPointerInjector(opts),
		mediaAspect: DefaultMediaAspect,
	}
	if opts.Mode == ModeAuto {
		e.auto = NewAutoInjector(opts, seed)
	}
	e.refreshMediaAspect()

	if err := e.resize(true); err != nil {
		backend.Release()
		var capErr *lifecycle.CapabilityError
		if errors.As(err, &capErr) {
			return nil, err
		}
		return nil, &lifecycle.InitializationFailure{Stage: "allocate", Err: err}
	}

	if e.auto != nil && opts.WarmStartSplats > 0 {
		for _, s := range e.auto.Warm(e.aspect()) {
			backend.Splat(s)
		}
	}
	return e, nil
}

// SetObserver installs a phase observer. Nil disables reporting.
func (e *Engine) SetObserver(obs PhaseObserver) { e.obs = obs }

// Seed returns the effective motion seed.
func (e *Engine) Seed() uint32 { return e.seed }

// Options returns the engine's tunables.
func (e *Engine) Options() Options { return e.opts }

// Size returns the current grid and canvas sizes.
func (e *Engine) Size() Size { return e.size }

// Frames returns the number of completed steps.
func (e *Engine) Frames() uint64 { return e.frames }

// SkippedUploads returns how many frame uploads failed and were skipped.
func (e *Engine) SkippedUploads() uint64 { return e.skipped }

// LastSkip returns the most recent upload failure as a
// *lifecycle.TransientFrameError, or nil.
func (e *Engine) LastSkip() error { return e.lastSkip }

// Auto returns the auto policy, or nil when the engine is not in auto mode.
func (e *Engine) Auto() *AutoInjector { return e.auto }

// Backend returns the engine's backend.
func (e *Engine) Backend() Backend { return e.backend }

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool { return e.disposed }

// Step advances one frame: ingest, inject, divergence, pressure,
// gradient subtraction, advection and composite, in that order. The solver
// always advances by Options.TimeStep; dt is ignored. After Dispose it is
// a no-op.
func (e *Engine) Step(dt float64) error {
	if e.disposed {
		return nil
	}

	e.phase(PhaseIngest)
	e.ingest()

	e.phase(PhaseInject)
	e.inject()

	e.phase(PhaseDivergence)
	e.backend.Divergence()

	e.phase(PhasePressure)
	for i := 0; i < e.opts.PressureIterations; i++ {
		e.backend.PressureIteration()
	}

	e.phase(PhaseGradient)
	e.backend.GradientSubtract()

	e.phase(PhaseAdvect)
	step := e.opts.TimeStep
	e.backend.AdvectVelocity(step, e.opts.VelocityDissipation)
	e.backend.AdvectDye(step*e.dyeTimeScale(), e.opts.DyeDissipation)

	e.phase(PhaseComposite)
	e.backend.Composite(CompositeParams{
		ViewAspect:  e.aspect(),
		MediaAspect: e.mediaAspect,
		Power:       e.opts.DistortionPower,
	})

	e.frames++
	return nil
}

// Resize re-derives the grid and canvas from the viewport. It reallocates
// only when the sizes changed.
func (e *Engine) Resize() error {
	if e.disposed {
		return nil
	}
	return e.resize(false)
}

// PointerEnter, PointerMove and PointerLeave feed the pointer policy with
// viewport-local pixel coordinates. They are ignored in other modes.
func (e *Engine) PointerEnter(x, y float32) {
	if e.opts.Mode == ModePointer && !e.disposed {
		e.pointer.Move(x, y, true)
	}
}

// PointerMove records a pointer sample.
func (e *Engine) PointerMove(x, y float32) {
	if e.opts.Mode == ModePointer && !e.disposed {
		e.pointer.Move(x, y, false)
	}
}

// PointerLeave stops pointer injection.
func (e *Engine) PointerLeave() {
	if e.opts.Mode == ModePointer && !e.disposed {
		e.pointer.Leave()
	}
}

// Dispose releases the backend. It is safe to call repeatedly.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.backend.Release()
	slog.Debug("fluid engine disposed", "seed", e.seed, "frames", e.frames)
}

func (e *Engine) phase(name string) {
	if e.obs != nil {
		e.obs.StartPhase(name)
	}
}

func (e *Engine) ingest() {
	if e.src == nil || !e.src.Ready() {
		return
	}
	frame, err := e.src.Frame()
	if err == nil {
		err = e.backend.UploadFrame(frame)
	}
	if err != nil {
		e.skipped++
		e.lastSkip = &lifecycle.TransientFrameError{Err: err}
		return
	}
	e.refreshMediaAspect()
}

func (e *Engine) inject() {
	switch e.opts.Mode {
	case ModeAuto:
		for _, s := range e.auto.Next(e.aspect()) {
			e.backend.Splat(s)
		}
	case ModePointer:
		if s, ok := e.pointer.Next(e.cw, e.ch); ok {
			e.backend.Splat(s)
		}
	}
}

func (e *Engine) resize(force bool) error {
	w, h := e.vp.Size()
	cw, ch := max(1, w), max(1, h)
	size := ComputeSize(cw, ch, e.vp.PixelRatio(), e.opts)
	e.cw, e.ch = cw, ch
	if !force && size == e.size {
		return nil
	}
	if err := e.backend.Resize(size); err != nil {
		return err
	}
	e.size = size
	e.pointer.Resize(cw, ch)
	return nil
}

func (e *Engine) refreshMediaAspect() {
	if e.opts.MediaAspect > 0 {
		e.mediaAspect = e.opts.MediaAspect
		return
	}
	if e.src == nil {
		return
	}
	if w, h := e.src.Size(); w > 0 && h > 0 {
		e.mediaAspect = float32(w) / float32(h)
	}
}

func (e *Engine) aspect() float32 {
	return e.cw / e.ch
}

func (e *Engine) dyeTimeScale() float32 {
	if e.opts.DyeTimeScale <= 0 {
		return 8
	}
	return e.opts.DyeTimeScale
}
