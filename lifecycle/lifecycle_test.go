package lifecycle

import (
	"errors"
	"fmt"
	"testing"
)

type fakeInstance struct {
	disposed int
}

func (f *fakeInstance) Step(float64) error { return nil }
func (f *fakeInstance) Resize() error      { return nil }
func (f *fakeInstance) Dispose()           { f.disposed++ }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"transient", &TransientFrameError{Err: errors.New("upload")}, ClassTransient},
		{"wrapped transient", fmt.Errorf("frame 3: %w", &TransientFrameError{Err: errors.New("x")}), ClassTransient},
		{"capability", &CapabilityError{Feature: "float render targets"}, ClassCapability},
		{"capability in init", &InitializationFailure{Stage: "allocate", Err: &CapabilityError{Feature: "fbo"}}, ClassCapability},
		{"init", &InitializationFailure{Stage: "options", Err: errors.New("bad")}, ClassFatal},
		{"plain", errors.New("boom"), ClassFatal},
	}
	for _, tc := range tests {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGateWaitsForBothSignals(t *testing.T) {
	var trs []Transition
	g := NewGate(func(tr Transition) { trs = append(trs, tr) })
	if g.State() != Idle {
		t.Fatalf("expected idle, got %v", g.State())
	}

	g.SetSource("a.mp4|a.jpg")
	if g.State() != WaitingForVisible {
		t.Fatalf("expected waiting_for_visible, got %v", g.State())
	}

	// Readiness arriving first is remembered.
	g.SetFrameReady(true)
	if g.State() != WaitingForVisible {
		t.Fatalf("expected still waiting_for_visible, got %v", g.State())
	}
	if err := g.Start(func() (Instance, error) { return &fakeInstance{}, nil }); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady before visibility, got %v", err)
	}

	g.SetVisible(true)
	if g.State() != Ready {
		t.Fatalf("expected ready, got %v", g.State())
	}

	inst := &fakeInstance{}
	if err := g.Start(func() (Instance, error) { return inst, nil }); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if g.State() != Running || g.Instance() != inst {
		t.Fatalf("expected running with instance, got %v", g.State())
	}
	if len(trs) != 3 {
		t.Errorf("expected 3 transitions, got %d", len(trs))
	}
}

func TestGateVisibilityLatches(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("s")
	g.SetVisible(true)
	g.SetVisible(false)
	if !g.Visible() {
		t.Error("expected visibility to latch")
	}
	if g.State() != WaitingForFrame {
		t.Errorf("expected waiting_for_frame, got %v", g.State())
	}
}

func TestGateReadinessLossDisposes(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("s")
	g.SetVisible(true)
	g.SetFrameReady(true)
	inst := &fakeInstance{}
	_ = g.Start(func() (Instance, error) { return inst, nil })

	g.SetFrameReady(false)
	if inst.disposed != 1 {
		t.Errorf("expected instance disposed once, got %d", inst.disposed)
	}
	if g.State() != WaitingForFrame || g.Instance() != nil {
		t.Errorf("expected waiting_for_frame without instance, got %v", g.State())
	}

	g.SetFrameReady(true)
	if g.State() != Ready {
		t.Errorf("expected ready again, got %v", g.State())
	}
}

func TestGateSourceChangeBuildsFreshInstance(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("a")
	g.SetVisible(true)
	g.SetFrameReady(true)
	first := &fakeInstance{}
	_ = g.Start(func() (Instance, error) { return first, nil })

	g.SetSource("a")
	if first.disposed != 0 {
		t.Error("expected same source to be a no-op")
	}

	g.SetSource("b")
	if first.disposed != 1 {
		t.Errorf("expected old instance disposed, got %d", first.disposed)
	}
	if g.State() != WaitingForFrame {
		t.Errorf("expected waiting_for_frame after source change, got %v", g.State())
	}
	if g.FrameReady() {
		t.Error("expected readiness reset on source change")
	}
}

func TestGateCapabilityNeverRetries(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("s")
	g.SetVisible(true)
	g.SetFrameReady(true)

	calls := 0
	factory := func() (Instance, error) {
		calls++
		return nil, &CapabilityError{Feature: "float render targets"}
	}
	if err := g.Start(factory); err == nil {
		t.Fatal("expected start error")
	}
	if g.State() != Failed {
		t.Fatalf("expected failed, got %v", g.State())
	}

	g.SetFrameReady(false)
	g.SetFrameReady(true)
	if g.State() != Failed {
		t.Errorf("expected capability failure to stick, got %v", g.State())
	}
	if err := g.Start(factory); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected factory called once, got %d", calls)
	}
}

func TestGateInitFailureRetriesOnReadinessEdge(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("s")
	g.SetVisible(true)
	g.SetFrameReady(true)

	_ = g.Start(func() (Instance, error) {
		return nil, &InitializationFailure{Stage: "compile", Err: errors.New("bad shader")}
	})
	if g.State() != Failed {
		t.Fatalf("expected failed, got %v", g.State())
	}
	// Stays failed while the signals are unchanged.
	if err := g.Start(func() (Instance, error) { return &fakeInstance{}, nil }); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected no automatic retry, got %v", err)
	}

	g.SetFrameReady(false)
	g.SetFrameReady(true)
	if g.State() != Ready {
		t.Errorf("expected ready after readiness edge, got %v", g.State())
	}
}

func TestGateDisposeIdempotent(t *testing.T) {
	g := NewGate(nil)
	g.SetSource("s")
	g.SetVisible(true)
	g.SetFrameReady(true)
	inst := &fakeInstance{}
	_ = g.Start(func() (Instance, error) { return inst, nil })

	g.Dispose()
	g.Dispose()
	if inst.disposed != 1 {
		t.Errorf("expected one dispose, got %d", inst.disposed)
	}
	g.SetSource("other")
	if g.State() != Disposed {
		t.Errorf("expected disposed to be terminal, got %v", g.State())
	}
}

func TestGuardSwallowsTransient(t *testing.T) {
	fatalCalls := 0
	g := NewGuard("test", func(error) { fatalCalls++ })

	for i := 0; i < 3; i++ {
		if err := g.Run(func() error { return &TransientFrameError{Err: errors.New("upload")} }); err != nil {
			t.Fatalf("expected transient error swallowed, got %v", err)
		}
	}
	if g.Transient() != 3 {
		t.Errorf("expected 3 transient errors, got %d", g.Transient())
	}
	if g.Halted() || fatalCalls != 0 {
		t.Error("expected guard to keep running")
	}
}

func TestGuardHaltsOnceOnFatal(t *testing.T) {
	fatalCalls := 0
	g := NewGuard("test", func(error) { fatalCalls++ })

	if err := g.Run(func() error { return errors.New("boom") }); err == nil {
		t.Fatal("expected fatal error on halting call")
	}
	ran := false
	if err := g.Run(func() error { ran = true; return nil }); err != nil {
		t.Errorf("expected nil after halt, got %v", err)
	}
	if ran {
		t.Error("expected halted guard to skip fn")
	}
	if fatalCalls != 1 {
		t.Errorf("expected fatal handler once, got %d", fatalCalls)
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	var got error
	g := NewGuard("test", func(err error) { got = err })

	err := g.Run(func() error { panic("index out of range") })
	if err == nil {
		t.Fatal("expected panic converted to error")
	}
	var p *PanicError
	if !errors.As(got, &p) {
		t.Fatalf("expected *PanicError, got %T", got)
	}
	if len(p.Stack) == 0 {
		t.Error("expected stack captured")
	}
}

func TestGuardSurvivesPanickingHandler(t *testing.T) {
	g := NewGuard("test", func(error) { panic("handler") })
	if err := g.Run(func() error { return errors.New("boom") }); err == nil {
		t.Error("expected fatal error")
	}
}
