package fluid

import (
	"errors"
	"image/color"
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
)

type fakeViewport struct {
	w, h, dpr float32
}

func (v *fakeViewport) Size() (float32, float32) { return v.w, v.h }
func (v *fakeViewport) PixelRatio() float32      { return v.dpr }

type fakeSource struct {
	source.Notifier
	w, h  int
	err   error
	calls int
}

func newFakeSource(w, h int) *fakeSource {
	s := &fakeSource{w: w, h: h}
	s.Set(true)
	return s
}

func (s *fakeSource) ID() string       { return "fake" }
func (s *fakeSource) Size() (int, int) { return s.w, s.h }
func (s *fakeSource) Advance(float64)  {}
func (s *fakeSource) Frame() (source.Frame, error) {
	s.calls++
	if s.err != nil {
		return source.Frame{}, s.err
	}
	pix := make([]color.RGBA, s.w*s.h)
	for i := range pix {
		pix[i] = color.RGBA{R: 200, G: 100, B: 50, A: 255}
	}
	return source.Frame{W: s.w, H: s.h, Pix: pix}, nil
}

// recordingBackend logs every call by name.
type recordingBackend struct {
	calls     []string
	resizeErr error
	released  int
	sizes     []Size
	dyeDT     float32
	composite CompositeParams
}

func (b *recordingBackend) Resize(s Size) error {
	b.calls = append(b.calls, "resize")
	b.sizes = append(b.sizes, s)
	return b.resizeErr
}
func (b *recordingBackend) UploadFrame(source.Frame) error {
	b.calls = append(b.calls, "upload")
	return nil
}
func (b *recordingBackend) Splat(Splat)        { b.calls = append(b.calls, "splat") }
func (b *recordingBackend) Divergence()        { b.calls = append(b.calls, "divergence") }
func (b *recordingBackend) PressureIteration() { b.calls = append(b.calls, "pressure") }
func (b *recordingBackend) GradientSubtract()  { b.calls = append(b.calls, "gradient") }
func (b *recordingBackend) AdvectVelocity(_, _ float32) {
	b.calls = append(b.calls, "advect_velocity")
}
func (b *recordingBackend) AdvectDye(dt, _ float32) {
	b.calls = append(b.calls, "advect_dye")
	b.dyeDT = dt
}
func (b *recordingBackend) Composite(p CompositeParams) {
	b.calls = append(b.calls, "composite")
	b.composite = p
}
func (b *recordingBackend) Release() { b.released++ }

type phaseRecorder struct{ phases []string }

func (p *phaseRecorder) StartPhase(name string) { p.phases = append(p.phases, name) }

func smallOptions(mode Mode) Options {
	o := DefaultOptions()
	o.Mode = mode
	o.MinSimRes = 16
	o.PressureIterations = 8
	return o
}

func smallViewport() *fakeViewport {
	return &fakeViewport{w: 12, h: 16, dpr: 1}
}

func TestEngineIdleStaysAtRest(t *testing.T) {
	opts := smallOptions(ModeNone)
	opts.WarmStartSplats = 0
	solver := NewSolver()
	e, err := New(opts, newFakeSource(6, 8), smallViewport(), solver)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		if err := e.Step(1.0 / 60); err != nil {
			t.Fatal(err)
		}
	}
	if !solver.IsZero() {
		t.Errorf("expected fields to stay zero, dye energy %f velocity energy %f",
			solver.DyeEnergy(), solver.VelocityEnergy())
	}
	// The undistorted video shows through in the interior.
	c := solver.Canvas().RGBAAt(6, 8)
	if c.R != 200 || c.G != 100 || c.B != 50 || c.A != 255 {
		t.Errorf("expected undistorted video pixel, got %v", c)
	}
}

func TestEngineWarmStartClustersAroundFocal(t *testing.T) {
	opts := smallOptions(ModeAuto)
	opts.Seed = 42
	solver := NewSolver()
	e, err := New(opts, newFakeSource(6, 8), smallViewport(), solver)
	if err != nil {
		t.Fatal(err)
	}
	if len(solver.Splats) != 18 {
		t.Fatalf("expected 18 warm splats, got %d", len(solver.Splats))
	}
	cx, cy := e.Auto().Focal(e.Auto().Phase())
	jitter := e.Auto().WarmJitter() + 1e-6
	for i, s := range solver.Splats {
		if s.Dye <= 0 {
			t.Errorf("splat %d: expected positive dye, got %f", i, s.Dye)
		}
		if math.Abs(float64(s.X)-cx) > jitter || math.Abs(float64(s.Y)-cy) > jitter {
			t.Errorf("splat %d at (%f,%f) is not within %f of focal (%f,%f)", i, s.X, s.Y, jitter, cx, cy)
		}
	}
	if solver.DyeMax() <= 0 {
		t.Error("expected dye deposited before the first frame")
	}
}

func TestEngineDyeDissipatesWithoutInjection(t *testing.T) {
	opts := smallOptions(ModeNone)
	opts.WarmStartSplats = 0
	solver := NewSolver()
	e, err := New(opts, nil, smallViewport(), solver)
	if err != nil {
		t.Fatal(err)
	}
	solver.Splat(Splat{X: 0.4, Y: 0.6, VX: 20, VY: -5, Dye: 0.02, Radius: 0.002, Aspect: 0.75})

	prev := solver.DyeMax()
	for i := 0; i < 20; i++ {
		if err := e.Step(1.0 / 60); err != nil {
			t.Fatal(err)
		}
		cur := solver.DyeMax()
		if cur > prev+1e-7 {
			t.Fatalf("step %d: dye max grew from %g to %g", i, prev, cur)
		}
		prev = cur
	}
}

func TestEngineDyeDecaysGeometricallyAtRest(t *testing.T) {
	opts := smallOptions(ModeNone)
	opts.WarmStartSplats = 0
	solver := NewSolver()
	e, err := New(opts, nil, smallViewport(), solver)
	if err != nil {
		t.Fatal(err)
	}
	solver.Dye().Set(5, 5, 0, 1)
	if err := e.Step(1.0 / 60); err != nil {
		t.Fatal(err)
	}
	if got := solver.Dye().At(5, 5, 0); math.Abs(float64(got-opts.DyeDissipation)) > 1e-4 {
		t.Errorf("expected %f after one step, got %f", opts.DyeDissipation, got)
	}
}

func TestEngineDeterministicPerSeed(t *testing.T) {
	run := func(seed uint32) *Solver {
		opts := smallOptions(ModeAuto)
		opts.Seed = seed
		s := NewSolver()
		e, err := New(opts, newFakeSource(6, 8), smallViewport(), s)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 5; i++ {
			e.Step(1.0 / 60)
		}
		return s
	}
	a, b, c := run(7), run(7), run(8)
	if !slices.Equal(a.Splats, b.Splats) {
		t.Error("expected identical splats for equal seeds")
	}
	if !slices.Equal(a.Dye().Data, b.Dye().Data) {
		t.Error("expected identical dye for equal seeds")
	}
	if slices.Equal(a.Splats, c.Splats) {
		t.Error("expected different seeds to diverge")
	}
}

func TestEngineStepOrder(t *testing.T) {
	opts := smallOptions(ModeAuto)
	opts.WarmStartSplats = 0
	opts.SplatsPerFrame = 2
	opts.PressureIterations = 3
	b := &recordingBackend{}
	e, err := New(opts, newFakeSource(4, 4), smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	rec := &phaseRecorder{}
	e.SetObserver(rec)
	b.calls = nil

	if err := e.Step(0.5); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"upload", "splat", "splat", "divergence",
		"pressure", "pressure", "pressure", "gradient",
		"advect_velocity", "advect_dye", "composite",
	}
	if !slices.Equal(b.calls, want) {
		t.Errorf("expected %v, got %v", want, b.calls)
	}
	if !slices.Equal(rec.phases, Phases) {
		t.Errorf("expected phases %v, got %v", Phases, rec.phases)
	}
	if math.Abs(float64(b.dyeDT-opts.TimeStep*8)) > 1e-6 {
		t.Errorf("expected dye dt %f regardless of frame dt, got %f", opts.TimeStep*8, b.dyeDT)
	}
	if e.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", e.Frames())
	}
}

func TestEngineSkipsUploadWhenNotReady(t *testing.T) {
	src := newFakeSource(4, 4)
	src.Set(false)
	b := &recordingBackend{}
	opts := smallOptions(ModeNone)
	e, err := New(opts, src, smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	e.Step(1.0 / 60)
	if slices.Contains(b.calls, "upload") {
		t.Error("expected no upload while the source is not ready")
	}
	if src.calls != 0 {
		t.Errorf("expected no frame reads, got %d", src.calls)
	}
}

func TestEngineUploadFailureIsTransient(t *testing.T) {
	src := newFakeSource(4, 4)
	src.err = errors.New("decoder busy")
	b := &recordingBackend{}
	e, err := New(smallOptions(ModeNone), src, smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Step(1.0 / 60); err != nil {
		t.Fatalf("expected step to continue, got %v", err)
	}
	if e.SkippedUploads() != 1 {
		t.Errorf("expected 1 skipped upload, got %d", e.SkippedUploads())
	}
	if lifecycle.Classify(e.LastSkip()) != lifecycle.ClassTransient {
		t.Errorf("expected transient skip, got %v", e.LastSkip())
	}
	if !slices.Contains(b.calls, "composite") {
		t.Error("expected the frame to complete")
	}
}

func TestEngineMediaAspectFromSource(t *testing.T) {
	b := &recordingBackend{}
	e, err := New(smallOptions(ModeNone), newFakeSource(640, 360), smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	e.Step(1.0 / 60)
	if math.Abs(float64(b.composite.MediaAspect-640.0/360.0)) > 1e-5 {
		t.Errorf("expected media aspect 16:9, got %f", b.composite.MediaAspect)
	}
	if math.Abs(float64(b.composite.ViewAspect-0.75)) > 1e-5 {
		t.Errorf("expected view aspect 0.75, got %f", b.composite.ViewAspect)
	}

	b2 := &recordingBackend{}
	e2, _ := New(smallOptions(ModeNone), nil, smallViewport(), b2)
	e2.Step(1.0 / 60)
	if b2.composite.MediaAspect != DefaultMediaAspect {
		t.Errorf("expected default media aspect, got %f", b2.composite.MediaAspect)
	}
}

func TestEngineResizeOnlyOnChange(t *testing.T) {
	vp := smallViewport()
	b := &recordingBackend{}
	e, err := New(smallOptions(ModeNone), nil, vp, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.sizes) != 1 {
		t.Fatalf("expected initial allocation, got %d", len(b.sizes))
	}
	e.Resize()
	e.Resize()
	if len(b.sizes) != 1 {
		t.Errorf("expected no reallocation for an unchanged viewport, got %d", len(b.sizes))
	}
	vp.w = 24
	e.Resize()
	if len(b.sizes) != 2 {
		t.Fatalf("expected reallocation after a size change, got %d", len(b.sizes))
	}
	if b.sizes[1].CanvasW != 24 {
		t.Errorf("expected canvas width 24, got %d", b.sizes[1].CanvasW)
	}
}

func TestEngineDisposeIdempotent(t *testing.T) {
	b := &recordingBackend{}
	e, err := New(smallOptions(ModeAuto), nil, smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	e.Dispose()
	e.Dispose()
	if b.released != 1 {
		t.Errorf("expected 1 release, got %d", b.released)
	}
	b.calls = nil
	if err := e.Step(1.0 / 60); err != nil {
		t.Fatal(err)
	}
	e.Resize()
	if len(b.calls) != 0 {
		t.Errorf("expected no backend calls after dispose, got %v", b.calls)
	}
	if !e.Disposed() {
		t.Error("expected disposed")
	}
}

func TestNewReleasesBackendOnFailure(t *testing.T) {
	t.Run("allocation", func(t *testing.T) {
		b := &recordingBackend{resizeErr: errors.New("out of memory")}
		_, err := New(smallOptions(ModeAuto), nil, smallViewport(), b)
		var initErr *lifecycle.InitializationFailure
		if !errors.As(err, &initErr) || initErr.Stage != "allocate" {
			t.Fatalf("expected allocate failure, got %v", err)
		}
		if b.released != 1 {
			t.Errorf("expected backend released, got %d", b.released)
		}
	})

	t.Run("capability", func(t *testing.T) {
		capErr := &lifecycle.CapabilityError{Feature: "float render targets"}
		b := &recordingBackend{resizeErr: capErr}
		_, err := New(smallOptions(ModeAuto), nil, smallViewport(), b)
		if err != capErr {
			t.Fatalf("expected capability error unchanged, got %v", err)
		}
		if lifecycle.Classify(err) != lifecycle.ClassCapability {
			t.Errorf("expected capability class, got %v", lifecycle.Classify(err))
		}
		if b.released != 1 {
			t.Errorf("expected backend released, got %d", b.released)
		}
	})

	t.Run("options", func(t *testing.T) {
		opts := smallOptions(ModeAuto)
		opts.Mode = "swirl"
		b := &recordingBackend{}
		_, err := New(opts, nil, smallViewport(), b)
		var initErr *lifecycle.InitializationFailure
		if !errors.As(err, &initErr) || initErr.Stage != "options" {
			t.Fatalf("expected options failure, got %v", err)
		}
		if b.released != 1 {
			t.Errorf("expected backend released, got %d", b.released)
		}
	})
}

func TestEnginePointerModeOnly(t *testing.T) {
	b := &recordingBackend{}
	opts := smallOptions(ModePointer)
	e, err := New(opts, nil, smallViewport(), b)
	if err != nil {
		t.Fatal(err)
	}
	b.calls = nil
	e.Step(1.0 / 60)
	if slices.Contains(b.calls, "splat") {
		t.Error("expected no splat without pointer motion")
	}

	e.PointerMove(3, 4)
	b.calls = nil
	e.Step(1.0 / 60)
	if n := countCalls(b.calls, "splat"); n != 1 {
		t.Errorf("expected one pointer splat, got %d", n)
	}

	auto := &recordingBackend{}
	ae, _ := New(smallOptions(ModeNone), nil, smallViewport(), auto)
	ae.PointerMove(3, 4)
	auto.calls = nil
	ae.Step(1.0 / 60)
	if slices.Contains(auto.calls, "splat") {
		t.Error("expected pointer input ignored outside pointer mode")
	}
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
