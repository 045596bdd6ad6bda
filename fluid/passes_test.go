package fluid

import (
	"math"
	"testing"
)

func TestSplatPeakAndFalloff(t *testing.T) {
	src := NewField(9, 9, 1)
	dst := NewField(9, 9, 1)
	splatPass(dst, src, 0.5, 0.5, 1, 0.01, []float32{10})

	center := dst.At(4, 4, 0)
	if math.Abs(float64(center-6)) > 1e-4 {
		t.Errorf("expected peak 0.6*10 at center, got %f", center)
	}
	if edge := dst.At(0, 0, 0); edge >= center || edge < 0 {
		t.Errorf("expected falloff toward corner, got %f vs %f", edge, center)
	}
	// Symmetric around the center.
	if math.Abs(float64(dst.At(3, 4, 0)-dst.At(5, 4, 0))) > 1e-6 {
		t.Error("expected horizontal symmetry")
	}
}

func TestSplatAddsToSource(t *testing.T) {
	src := NewField(3, 3, 2)
	for i := range src.Data {
		src.Data[i] = 1
	}
	dst := NewField(3, 3, 2)
	splatPass(dst, src, 0.5, 0.5, 1, 1e-9, []float32{0, 0})
	for i, x := range dst.Data {
		if x != 1 {
			t.Fatalf("value %d: expected source preserved, got %f", i, x)
		}
	}
}

func TestDivergenceOfUniformFlowIsZero(t *testing.T) {
	vel := NewField(6, 5, 2)
	for i := 0; i < len(vel.Data); i += 2 {
		vel.Data[i] = 3
		vel.Data[i+1] = -2
	}
	div := NewField(6, 5, 1)
	divergencePass(div, vel)
	for i, d := range div.Data {
		if d != 0 {
			t.Fatalf("cell %d: expected zero divergence, got %f", i, d)
		}
	}
}

func TestPressureProjectionReducesDivergence(t *testing.T) {
	s := NewSolver()
	if err := s.Resize(Size{SimW: 16, SimH: 16, CanvasW: 4, CanvasH: 4}); err != nil {
		t.Fatal(err)
	}
	s.Splat(Splat{X: 0.5, Y: 0.5, VX: 40, VY: 10, Radius: 0.02, Aspect: 1})
	before := s.MaxAbsDivergence()

	s.Divergence()
	for i := 0; i < 80; i++ {
		s.PressureIteration()
	}
	s.GradientSubtract()
	after := s.MaxAbsDivergence()

	if before <= 0 {
		t.Fatalf("expected a divergent splat, got %f", before)
	}
	if after >= before {
		t.Errorf("expected projection to reduce divergence, before %f after %f", before, after)
	}
}

func TestAdvectWithZeroVelocityOnlyDissipates(t *testing.T) {
	src := NewField(5, 4, 1)
	for i := range src.Data {
		src.Data[i] = float32(i)
	}
	vel := NewField(5, 4, 2)
	dst := NewField(5, 4, 1)
	advectPass(dst, src, vel, 1.0/60, 0.5)
	for i := range dst.Data {
		want := 0.5 * src.Data[i]
		if math.Abs(float64(dst.Data[i]-want)) > 1e-3 {
			t.Errorf("cell %d: expected %f, got %f", i, want, dst.Data[i])
		}
	}
}

func TestAdvectTransportsAlongFlow(t *testing.T) {
	src := NewField(8, 1, 1)
	src.Set(2, 0, 0, 1)
	vel := NewField(8, 1, 2)
	for i := 0; i < len(vel.Data); i += 2 {
		vel.Data[i] = 1 // one cell per unit dt
	}
	dst := NewField(8, 1, 1)
	advectPass(dst, src, vel, 1, 1)
	if got := dst.At(3, 0, 0); math.Abs(float64(got-1)) > 1e-4 {
		t.Errorf("expected value moved to cell 3, got %f", got)
	}
	if got := dst.At(2, 0, 0); math.Abs(float64(got)) > 1e-4 {
		t.Errorf("expected cell 2 emptied, got %f", got)
	}
}

func TestSolverFieldChannels(t *testing.T) {
	s := NewSolver()
	defer s.Release()
	if err := s.Resize(Size{SimW: 8, SimH: 6, CanvasW: 4, CanvasH: 4}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	tests := []struct {
		name string
		f    *Field
		want int
	}{
		{"velocity", s.Velocity(), 2},
		{"dye", s.Dye(), 1},
		{"pressure", s.Pressure(), 1},
		{"divergence", s.DivergenceField(), 1},
	}
	for _, tt := range tests {
		if tt.f.C != tt.want {
			t.Errorf("%s: expected %d channels, got %d", tt.name, tt.want, tt.f.C)
		}
		if tt.f.W != 8 || tt.f.H != 6 {
			t.Errorf("%s: expected 8x6, got %dx%d", tt.name, tt.f.W, tt.f.H)
		}
	}
}
