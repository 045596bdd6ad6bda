package fluid

import (
	"errors"
	"image"
	"image/color"

	"github.com/pthm-cable/cardfx/source"
)

// Solver is the CPU Backend. It mirrors the GPU shaders pass for pass and is
// used for headless runs, offline rendering and tests.
type Solver struct {
	size Size

	velocity   *DoubleField // 2 channels
	dye        *DoubleField // 1 channel
	pressure   *DoubleField // 1 channel
	divergence *Field       // 1 channel

	video  source.Frame
	canvas *image.RGBA

	// Splats records every injection since the last Resize, oldest first.
	Splats []Splat

	pool     *rowPool
	released bool
}

// NewSolver creates an unallocated CPU backend. Resize must be called first.
func NewSolver() *Solver {
	return &Solver{}
}

// SetWorkers splits every pass across n worker goroutines; n <= 1 runs
// serially. Results are identical either way. Call it from the goroutine
// that steps the solver.
func (s *Solver) SetWorkers(n int) {
	s.pool.stop()
	s.pool = nil
	if n > 1 {
		s.pool = newRowPool(n)
	}
}

// Resize implements Backend.
func (s *Solver) Resize(size Size) error {
	if size.SimW < 1 || size.SimH < 1 || size.CanvasW < 1 || size.CanvasH < 1 {
		return errors.New("fluid: grid and canvas sizes must be positive")
	}
	s.size = size
	s.velocity = NewDoubleField(size.SimW, size.SimH, 2)
	s.dye = NewDoubleField(size.SimW, size.SimH, 1)
	s.pressure = NewDoubleField(size.SimW, size.SimH, 1)
	s.divergence = NewField(size.SimW, size.SimH, 1)
	s.canvas = image.NewRGBA(image.Rect(0, 0, size.CanvasW, size.CanvasH))
	s.Splats = s.Splats[:0]
	s.released = false
	return nil
}

// UploadFrame implements Backend.
func (s *Solver) UploadFrame(frame source.Frame) error {
	if frame.W <= 0 || frame.H <= 0 || len(frame.Pix) < frame.W*frame.H {
		return errors.New("fluid: malformed frame")
	}
	if cap(s.video.Pix) < len(frame.Pix) {
		s.video.Pix = make([]color.RGBA, len(frame.Pix))
	}
	s.video.Pix = s.video.Pix[:len(frame.Pix)]
	copy(s.video.Pix, frame.Pix)
	s.video.W, s.video.H, s.video.Seq = frame.W, frame.H, frame.Seq
	return nil
}

// Splat implements Backend.
func (s *Solver) Splat(sp Splat) {
	vdst, vsrc := s.velocity.Write(), s.velocity.Read()
	vv := []float32{sp.VX, sp.VY}
	s.pool.run(vsrc.H, func(j0, j1 int) {
		splatRows(vdst, vsrc, sp.X, sp.Y, sp.Aspect, sp.Radius, vv, j0, j1)
	})
	s.velocity.Swap()
	ddst, dsrc := s.dye.Write(), s.dye.Read()
	dv := []float32{sp.Dye}
	s.pool.run(dsrc.H, func(j0, j1 int) {
		splatRows(ddst, dsrc, sp.X, sp.Y, sp.Aspect, sp.Radius, dv, j0, j1)
	})
	s.dye.Swap()
	s.Splats = append(s.Splats, sp)
}

// Divergence implements Backend.
func (s *Solver) Divergence() {
	vel := s.velocity.Read()
	s.pool.run(vel.H, func(j0, j1 int) { divergenceRows(s.divergence, vel, j0, j1) })
}

// PressureIteration implements Backend.
func (s *Solver) PressureIteration() {
	dst, src := s.pressure.Write(), s.pressure.Read()
	s.pool.run(src.H, func(j0, j1 int) { pressureRows(dst, src, s.divergence, j0, j1) })
	s.pressure.Swap()
}

// GradientSubtract implements Backend.
func (s *Solver) GradientSubtract() {
	dst, vel, p := s.velocity.Write(), s.velocity.Read(), s.pressure.Read()
	s.pool.run(vel.H, func(j0, j1 int) { gradientSubtractRows(dst, vel, p, j0, j1) })
	s.velocity.Swap()
}

// AdvectVelocity implements Backend.
func (s *Solver) AdvectVelocity(dt, dissipation float32) {
	dst, vel := s.velocity.Write(), s.velocity.Read()
	s.pool.run(dst.H, func(j0, j1 int) { advectRows(dst, vel, vel, dt, dissipation, j0, j1) })
	s.velocity.Swap()
}

// AdvectDye implements Backend.
func (s *Solver) AdvectDye(dt, dissipation float32) {
	dst, src, vel := s.dye.Write(), s.dye.Read(), s.velocity.Read()
	s.pool.run(dst.H, func(j0, j1 int) { advectRows(dst, src, vel, dt, dissipation, j0, j1) })
	s.dye.Swap()
}

// Composite implements Backend.
func (s *Solver) Composite(p CompositeParams) {
	vel, dye := s.velocity.Read(), s.dye.Read()
	s.pool.run(s.canvas.Bounds().Dy(), func(y0, y1 int) {
		compositeRows(s.canvas, vel, dye, s.video, p, y0, y1)
	})
}

// Release implements Backend.
func (s *Solver) Release() {
	if s.released {
		return
	}
	s.released = true
	s.pool.stop()
	s.velocity, s.dye, s.pressure, s.divergence = nil, nil, nil, nil
	s.canvas = nil
	s.video = source.Frame{}
}

// Canvas returns the last composited image.
func (s *Solver) Canvas() *image.RGBA { return s.canvas }

// Velocity returns the authoritative velocity field.
func (s *Solver) Velocity() *Field { return s.velocity.Read() }

// Dye returns the authoritative dye field.
func (s *Solver) Dye() *Field { return s.dye.Read() }

// Pressure returns the authoritative pressure field.
func (s *Solver) Pressure() *Field { return s.pressure.Read() }

// DivergenceField returns the divergence computed by the last Divergence pass.
func (s *Solver) DivergenceField() *Field { return s.divergence }

// Size returns the allocated sizes.
func (s *Solver) Size() Size { return s.size }
