package spring

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeViewport struct{ w, h float32 }

func (v *fakeViewport) Size() (float32, float32) { return v.w, v.h }

type sizedSource struct {
	source.Notifier
	w, h int
}

func (s *sizedSource) ID() string                   { return "sized" }
func (s *sizedSource) Size() (int, int)             { return s.w, s.h }
func (s *sizedSource) Frame() (source.Frame, error) { return source.Frame{}, nil }
func (s *sizedSource) Advance(float64)              {}

type failingRenderer struct {
	NullRenderer
	err error
}

func (r *failingRenderer) Build(*Mesh, Options) error { return r.err }

type phaseRecorder struct{ phases []string }

func (p *phaseRecorder) StartPhase(name string) { p.phases = append(p.phases, name) }

func tinyWhole() Options {
	o := WholeOptions()
	o.SegX, o.SegY = 2, 2
	o.PlaneW, o.PlaneH = 2, 2
	return o
}

func TestBuildMeshLayout(t *testing.T) {
	o := tinyWhole()
	m := BuildMesh(o)
	if m.Cols != 3 || m.Rows != 3 || len(m.Nodes) != 9 {
		t.Fatalf("expected 3x3 mesh, got %dx%d with %d nodes", m.Cols, m.Rows, len(m.Nodes))
	}

	top := m.Nodes[m.Index(0, 0)]
	if top.Rest.X != -1 || top.Rest.Y != 1 {
		t.Errorf("expected top-left at (-1, 1), got (%f, %f)", top.Rest.X, top.Rest.Y)
	}
	if !top.Pinned {
		t.Error("expected corner pinned in the whole variant")
	}
	center := m.Nodes[m.Index(1, 1)]
	if center.Pinned {
		t.Error("expected center unpinned")
	}
	if math.Abs(center.Rest.Z+o.ZBulge) > 1e-12 {
		t.Errorf("expected center bulged to %f, got %f", -o.ZBulge, center.Rest.Z)
	}
	if top.Rest.Z != 0 {
		t.Errorf("expected no bulge at the corner, got %f", top.Rest.Z)
	}

	if got := m.Topology[m.Index(0, 0)]; got != (Neighbors{-1, 1, -1, 3}) {
		t.Errorf("unexpected corner neighbors %v", got)
	}
	if got := m.Topology[m.Index(1, 1)]; got != (Neighbors{3, 5, 1, 7}) {
		t.Errorf("unexpected center neighbors %v", got)
	}
}

func TestBuildMeshEdgeVariantIsFlatAndFree(t *testing.T) {
	m := BuildMesh(EdgeOptions())
	for _, n := range m.Nodes {
		if n.Pinned {
			t.Fatal("expected no pinned nodes in the edge variant")
		}
		if n.Rest.Z != 0 {
			t.Fatal("expected a flat edge mesh")
		}
	}
}

func TestNodeSeed(t *testing.T) {
	tests := []struct{ i, j, want int }{
		{0, 0, 0},
		{1, 0, 821},
		{0, 1, 917},
		{3, 5, (3*92821 + 5*68917) % 1000},
	}
	for _, tt := range tests {
		if got := NodeSeed(tt.i, tt.j); got != tt.want {
			t.Errorf("NodeSeed(%d,%d): expected %d, got %d", tt.i, tt.j, tt.want, got)
		}
	}
}

func TestPinnedNodesNeverMove(t *testing.T) {
	o := tinyWhole()
	m := BuildMesh(o)
	for step := 0; step < 50; step++ {
		for idx := range m.Nodes {
			m.Nodes[idx].Force = r3.Vec{X: 3, Y: -2, Z: 1}
		}
		m.Couple(o.AdjacentK)
		m.Pull(Drag{X: -1, Y: 1, DX: 0.5, DY: 0.5, Radius: 5}, o)
		m.Wobble(float64(step), 0.5)
		m.Integrate(o.Elasticity, o.Damping, 0)

		for _, n := range m.Nodes {
			if !n.Pinned {
				continue
			}
			if n.Pos != n.Rest || n.Vel != (r3.Vec{}) {
				t.Fatalf("step %d: pinned node (%d,%d) moved to %v vel %v", step, n.I, n.J, n.Pos, n.Vel)
			}
		}
	}
}

func TestZeroInputStaysAtRest(t *testing.T) {
	for _, o := range []Options{WholeOptions(), EdgeOptions()} {
		o.AutoWobble = 0
		o.SegX, o.SegY = 8, 8
		r := &NullRenderer{}
		e, err := New(o, nil, &fakeViewport{300, 400}, r)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 500; i++ {
			if err := e.Step(1.0 / 60); err != nil {
				t.Fatal(err)
			}
		}
		if d := e.Mesh().MaxDisplacement(); d > 1e-6 {
			t.Errorf("%s: expected no drift, got %g", o.Variant, d)
		}
		if r.Draws != 500 {
			t.Errorf("%s: expected 500 draws, got %d", o.Variant, r.Draws)
		}
	}
}

func TestEdgeWeight(t *testing.T) {
	band := EdgeOptions().EdgeBand
	if w := EdgeWeight(0.5, 0.5, band); w != 0 {
		t.Errorf("expected 0 at center, got %f", w)
	}
	for _, uv := range [][2]float64{{0, 0.5}, {1, 0.5}, {0.5, 0}, {0.5, 1}, {0, 0}} {
		if w := EdgeWeight(uv[0], uv[1], band); w != 1 {
			t.Errorf("expected 1 on boundary %v, got %f", uv, w)
		}
	}
	if w := EdgeWeight(band/2, 0.5, band); math.Abs(w-0.5) > 1e-12 {
		t.Errorf("expected 0.5 halfway into the band, got %f", w)
	}
	if w := EdgeWeight(band*2, 0.5, band); w != 0 {
		t.Errorf("expected 0 beyond the band, got %f", w)
	}
}

func TestEdgeVariantCenterIgnoresPointer(t *testing.T) {
	o := EdgeOptions()
	o.SegX, o.SegY = 4, 4
	m := BuildMesh(o)
	center := m.Index(2, 2)
	border := m.Index(0, 2)
	m.Pull(Drag{X: 0, Y: 0, DX: 0.1, Radius: 10}, o)
	if f := m.Nodes[center].Force; f != (r3.Vec{}) {
		t.Errorf("expected no force at the center, got %v", f)
	}
	if f := m.Nodes[border].Force; f.X <= 0 {
		t.Errorf("expected positive force on the border, got %v", f)
	}
}

func TestPointerDragOnThreeByThree(t *testing.T) {
	o := tinyWhole()
	m := BuildMesh(o)
	center := m.Index(1, 1)
	cx, cy := m.Nodes[center].Pos.X, m.Nodes[center].Pos.Y

	m.Pull(Drag{X: cx, Y: cy, DX: 1, DY: 0, Radius: 0.5}, o)
	m.Integrate(o.Elasticity, o.Damping, o.MaxStep)

	if vx := m.Nodes[center].Vel.X; vx <= 0 {
		t.Errorf("expected positive center x-velocity, got %f", vx)
	}
	if m.Nodes[center].Vel.Z >= 0 {
		t.Errorf("expected the whole variant to push the center into the screen, got %f", m.Nodes[center].Vel.Z)
	}
	for _, idx := range []int{m.Index(0, 0), m.Index(2, 0), m.Index(0, 2), m.Index(2, 2)} {
		n := m.Nodes[idx]
		if n.Pos != n.Rest || n.Vel != (r3.Vec{}) {
			t.Errorf("corner (%d,%d) moved: pos %v vel %v", n.I, n.J, n.Pos, n.Vel)
		}
	}
	// Edge midpoints sit outside the radius.
	if v := m.Nodes[m.Index(1, 0)].Vel; v != (r3.Vec{}) {
		t.Errorf("expected node outside the radius untouched, got %v", v)
	}
}

func TestCouplingSpreadsVelocity(t *testing.T) {
	o := tinyWhole()
	m := BuildMesh(o)
	m.Nodes[m.Index(1, 1)].Vel = r3.Vec{X: 1}
	m.Couple(0.1)
	if f := m.Nodes[m.Index(1, 0)].Force.X; math.Abs(f-0.1) > 1e-12 {
		t.Errorf("expected neighbor force 0.1, got %f", f)
	}
	if f := m.Nodes[m.Index(0, 0)].Force.X; f != 0 {
		t.Errorf("expected diagonal node untouched, got %f", f)
	}
}

func TestIntegrateClampsStep(t *testing.T) {
	o := EdgeOptions()
	o.SegX, o.SegY = 2, 2
	m := BuildMesh(o)
	m.Nodes[4].Force = r3.Vec{X: 10, Y: -10}
	m.Integrate(o.Elasticity, o.Damping, o.MaxStep)
	v := m.Nodes[4].Vel
	if v.X != o.MaxStep || v.Y != -o.MaxStep {
		t.Errorf("expected velocity clamped to ±%f, got %v", o.MaxStep, v)
	}
}

func TestCoverScale(t *testing.T) {
	tests := []struct {
		name             string
		container, video float64
		wantX, wantY     float64
	}{
		{"square viewport, wide video", 1, 16.0 / 9.0, 16.0 / 9.0, 1},
		{"portrait card, wide video", 0.75, 16.0 / 9.0, (16.0 / 9.0) / 0.75, 1},
		{"wide viewport, portrait video", 2, 0.75, 1, 2 / 0.75},
		{"matching aspect", 1.5, 1.5, 1, 1},
		{"degenerate input", 0, 1, 1, 1},
	}
	for _, tt := range tests {
		sx, sy := CoverScale(tt.container, tt.video)
		if math.Abs(sx-tt.wantX) > 1e-9 || math.Abs(sy-tt.wantY) > 1e-9 {
			t.Errorf("%s: expected (%f,%f), got (%f,%f)", tt.name, tt.wantX, tt.wantY, sx, sy)
		}
		if sx < 1 || sy < 1 {
			t.Errorf("%s: scale below 1: (%f,%f)", tt.name, sx, sy)
		}
		// The displayed texture keeps the video's aspect.
		if tt.container > 0 && math.Abs(tt.container*sx/sy-tt.video) > 1e-9 {
			t.Errorf("%s: displayed aspect %f, expected %f", tt.name, tt.container*sx/sy, tt.video)
		}
	}
}

func TestEngineResizeUsesSourceAspect(t *testing.T) {
	vp := &fakeViewport{400, 400}
	src := &sizedSource{w: 1920, h: 1080}
	e, err := New(WholeOptions(), src, vp, &NullRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	sx, sy := e.Scale()
	if math.Abs(sx-16.0/9.0) > 1e-9 || sy != 1 {
		t.Errorf("expected (16/9, 1), got (%f, %f)", sx, sy)
	}
	nodes := len(e.Mesh().Nodes)

	vp.w = 1600
	e.Resize()
	sx, sy = e.Scale()
	if sx != 1 || math.Abs(sy-4/(16.0/9.0)) > 1e-9 {
		t.Errorf("expected (1, 2.25), got (%f, %f)", sx, sy)
	}
	if len(e.Mesh().Nodes) != nodes {
		t.Error("resize must not re-tessellate")
	}

	e2, _ := New(WholeOptions(), nil, &fakeViewport{400, 400}, &NullRenderer{})
	if sx, _ := e2.Scale(); math.Abs(sx-DefaultVideoAspect) > 1e-9 {
		t.Errorf("expected default 16:9 fallback, got %f", sx)
	}
}

func TestEnginePointerDeltaConsumedOnce(t *testing.T) {
	o := tinyWhole()
	o.AutoWobble = 0
	e, err := New(o, nil, &fakeViewport{100, 100}, &NullRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	e.SetPointer(-0.1, 0)
	e.Step(1.0 / 60)
	if e.Mesh().Energy() != 0 {
		t.Fatal("expected the first sample to only set the origin")
	}

	e.SetPointer(0.1, 0)
	d, ok := e.drag()
	if !ok || math.Abs(d.DX-0.2) > 1e-12 {
		t.Fatalf("expected a 0.2 drag, got %+v (ok=%v)", d, ok)
	}
	if _, ok := e.drag(); ok {
		t.Error("expected the delta to be consumed")
	}
}

func TestEnginePointerNDC(t *testing.T) {
	o := EdgeOptions()
	e, err := New(o, &sizedSource{w: 16, h: 9}, &fakeViewport{100, 100}, &NullRenderer{})
	if err != nil {
		t.Fatal(err)
	}
	if !e.PointerNDC(1, 1) {
		t.Fatal("expected the viewport corner to land on the plane")
	}
	sx, sy := e.Scale()
	if math.Abs(e.curX-1/sx) > 1e-12 || math.Abs(e.curY-1/sy) > 1e-12 {
		t.Errorf("expected (%f,%f), got (%f,%f)", 1/sx, 1/sy, e.curX, e.curY)
	}
}

func TestEngineLeaveResetsOrigin(t *testing.T) {
	e, _ := New(tinyWhole(), nil, &fakeViewport{100, 100}, &NullRenderer{})
	e.SetPointer(0, 0)
	e.drag()
	e.PointerLeave()
	e.SetPointer(0.9, 0.9)
	if _, ok := e.drag(); ok {
		t.Error("expected no jump after leave")
	}
}

func TestEnginePhasesAndDispose(t *testing.T) {
	r := &NullRenderer{}
	e, err := New(tinyWhole(), nil, &fakeViewport{100, 100}, r)
	if err != nil {
		t.Fatal(err)
	}
	rec := &phaseRecorder{}
	e.SetObserver(rec)
	e.Step(1.0 / 60)
	if !slices.Equal(rec.phases, Phases) {
		t.Errorf("expected phases %v, got %v", Phases, rec.phases)
	}

	e.Dispose()
	e.Dispose()
	if !r.Released || !e.Disposed() {
		t.Error("expected renderer released")
	}
	e.Step(1.0 / 60)
	if r.Draws != 1 {
		t.Errorf("expected no draws after dispose, got %d", r.Draws)
	}
}

func TestNewFailureReleasesRenderer(t *testing.T) {
	r := &failingRenderer{err: errors.New("upload failed")}
	_, err := New(tinyWhole(), nil, &fakeViewport{1, 1}, r)
	var initErr *lifecycle.InitializationFailure
	if !errors.As(err, &initErr) || initErr.Stage != "mesh" {
		t.Fatalf("expected mesh failure, got %v", err)
	}
	if !r.Released {
		t.Error("expected renderer released")
	}

	capErr := &lifecycle.CapabilityError{Feature: "vertex buffers"}
	r = &failingRenderer{err: capErr}
	if _, err := New(tinyWhole(), nil, &fakeViewport{1, 1}, r); err != capErr {
		t.Errorf("expected capability error unchanged, got %v", err)
	}

	bad := tinyWhole()
	bad.Damping = 1.2
	r = &failingRenderer{}
	if _, err := New(bad, nil, &fakeViewport{1, 1}, r); !errors.As(err, &initErr) || initErr.Stage != "options" {
		t.Errorf("expected options failure, got %v", err)
	}
	if !r.Released {
		t.Error("expected renderer released on invalid options")
	}
}

func TestModelScaleFillsTarget(t *testing.T) {
	for _, opts := range []Options{WholeOptions(), EdgeOptions()} {
		aspect := 0.75
		x, y := opts.ModelScale(1, 1, aspect)

		// The plane's right and top edges must land on the visible bounds.
		hh := opts.ViewHalfHeight()
		right := opts.PlaneW / 2 * x
		top := opts.PlaneH / 2 * y
		if math.Abs(right-hh*aspect) > 1e-9 || math.Abs(top-hh) > 1e-9 {
			t.Errorf("%s: expected edges at (%v, %v), got (%v, %v)", opts.Variant, hh*aspect, hh, right, top)
		}

		x2, y2 := opts.ModelScale(2, 1.5, aspect)
		if math.Abs(x2-2*x) > 1e-9 || math.Abs(y2-1.5*y) > 1e-9 {
			t.Errorf("%s: expected cover scale to multiply through, got (%v, %v)", opts.Variant, x2, y2)
		}
	}

	edge := EdgeOptions()
	if _, y := edge.ModelScale(1, 1, 1); math.Abs(y-1) > 1e-9 {
		t.Errorf("expected orthographic y scale 1, got %v", y)
	}
	whole := WholeOptions()
	if hh := whole.ViewHalfHeight(); math.Abs(hh-0.9112698372208091) > 1e-9 {
		t.Errorf("expected perspective half height ~0.9113, got %v", hh)
	}
}
