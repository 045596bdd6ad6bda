package fluid

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

func vec(f *Field) blas32.Vector {
	return blas32.Vector{N: len(f.Data), Inc: 1, Data: f.Data}
}

// DyeEnergy returns the L2 norm of the dye field.
func (s *Solver) DyeEnergy() float32 {
	return blas32.Nrm2(vec(s.Dye()))
}

// DyeMax returns the largest absolute dye value.
func (s *Solver) DyeMax() float32 {
	d := s.Dye()
	if len(d.Data) == 0 {
		return 0
	}
	return float32(math.Abs(float64(d.Data[blas32.Iamax(vec(d))])))
}

// VelocityEnergy returns the L2 norm of the velocity field.
func (s *Solver) VelocityEnergy() float32 {
	return blas32.Nrm2(vec(s.Velocity()))
}

// MaxAbsDivergence recomputes the divergence of the current velocity and
// returns its largest magnitude. It does not disturb the solver state.
func (s *Solver) MaxAbsDivergence() float32 {
	vel := s.Velocity()
	div := NewField(vel.W, vel.H, 1)
	divergencePass(div, vel)
	return float32(math.Abs(float64(div.Data[blas32.Iamax(vec(div))])))
}

// IsZero reports whether every velocity and dye value is exactly zero.
func (s *Solver) IsZero() bool {
	return blas32.Asum(vec(s.Velocity())) == 0 && blas32.Asum(vec(s.Dye())) == 0
}
