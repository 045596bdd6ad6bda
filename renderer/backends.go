package renderer

import (
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

// GPUBackends builds raylib-backed effect resources. It must be used from
// the thread that owns the window.
type GPUBackends struct {
	MaxDPR float32
}

// FluidBackend returns a FluidGPU, or a capability error when float render
// targets are unavailable.
func (b GPUBackends) FluidBackend() (fluid.Backend, error) {
	g, err := NewFluidGPU()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// SpringRenderer returns a SpringMesh drawing at the viewport's backing
// size.
func (b GPUBackends) SpringRenderer(src source.FrameSource, vp *viewport.Viewport) (spring.MeshRenderer, error) {
	return NewSpringMesh(src, vp, b.MaxDPR), nil
}
