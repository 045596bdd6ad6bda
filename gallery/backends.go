package gallery

import (
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

// Backends creates the per-card GPU or CPU resources an engine draws with.
// Ownership passes to the engine, which releases them on Dispose.
type Backends interface {
	FluidBackend() (fluid.Backend, error)
	SpringRenderer(src source.FrameSource, vp *viewport.Viewport) (spring.MeshRenderer, error)
}

// HeadlessBackends runs the fluid solver on the CPU and discards spring
// draws. Workers > 1 splits each solver pass across that many goroutines.
type HeadlessBackends struct {
	Workers int
}

func (b HeadlessBackends) FluidBackend() (fluid.Backend, error) {
	s := fluid.NewSolver()
	s.SetWorkers(b.Workers)
	return s, nil
}

func (HeadlessBackends) SpringRenderer(source.FrameSource, *viewport.Viewport) (spring.MeshRenderer, error) {
	return &spring.NullRenderer{}, nil
}
