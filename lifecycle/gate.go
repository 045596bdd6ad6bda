package lifecycle

import (
	"errors"
	"log/slog"
)

// State is a gate state.
type State int

const (
	Idle State = iota
	WaitingForVisible
	WaitingForFrame
	Ready
	Running
	Disposed
	Failed
)

var stateNames = [...]string{
	Idle:              "idle",
	WaitingForVisible: "waiting_for_visible",
	WaitingForFrame:   "waiting_for_frame",
	Ready:             "ready",
	Running:           "running",
	Disposed:          "disposed",
	Failed:            "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Instance is a running effect owned by a gate.
type Instance interface {
	Step(dt float64) error
	Resize() error
	Dispose()
}

// Factory constructs an instance. It is only called from Ready.
type Factory func() (Instance, error)

// Transition describes one state change.
type Transition struct {
	From, To State
	Source   string
	Err      error
}

// ErrNotReady is returned by Start outside the Ready state.
var ErrNotReady = errors.New("lifecycle: gate is not ready")

// Gate joins the visibility and frame-readiness signals for one viewport
// and owns at most one instance at a time. Visibility latches: once the
// viewport has been seen, later invisibility is ignored. Losing frame
// readiness disposes the instance, as does a source change; a fresh
// instance is built once both signals hold again.
type Gate struct {
	state    State
	source   string
	visible  bool
	ready    bool
	inst     Instance
	err      error
	noRetry  bool
	listener func(Transition)
}

// NewGate creates an idle gate. listener may be nil.
func NewGate(listener func(Transition)) *Gate {
	return &Gate{listener: listener}
}

// State returns the current state.
func (g *Gate) State() State { return g.state }

// Source returns the current source identity.
func (g *Gate) Source() string { return g.source }

// Instance returns the running instance, or nil.
func (g *Gate) Instance() Instance { return g.inst }

// Err returns the error that moved the gate to Failed.
func (g *Gate) Err() error { return g.err }

// Visible reports whether the viewport has been seen.
func (g *Gate) Visible() bool { return g.visible }

// FrameReady reports the last readiness signal.
func (g *Gate) FrameReady() bool { return g.ready }

// SetSource binds a new source. Any instance is disposed first and
// readiness resets until the new source reports data.
func (g *Gate) SetSource(id string) {
	if g.state == Disposed {
		return
	}
	if g.state != Idle && id == g.source {
		return
	}
	g.release()
	g.source = id
	g.ready = false
	g.err = nil
	g.noRetry = false
	g.settle(nil)
}

// SetVisible records the visibility signal.
func (g *Gate) SetVisible(v bool) {
	if !v || g.visible || g.state == Disposed {
		return
	}
	g.visible = true
	if g.state == WaitingForVisible {
		g.settle(nil)
	}
}

// SetFrameReady records the readiness signal.
func (g *Gate) SetFrameReady(r bool) {
	if g.state == Disposed || g.ready == r {
		return
	}
	g.ready = r
	switch g.state {
	case Running:
		if !r {
			g.release()
			g.settle(nil)
		}
	case Failed:
		// A readiness edge is the host's chance to retry, except for
		// capability failures.
		if !r && !g.noRetry {
			g.err = nil
			g.settle(nil)
		}
	case WaitingForFrame, Ready:
		g.settle(nil)
	}
}

// Start builds the instance. It must only be called in Ready; on failure
// the gate moves to Failed and the error is returned.
func (g *Gate) Start(f Factory) error {
	if g.state != Ready {
		return ErrNotReady
	}
	inst, err := f()
	if err != nil {
		g.fail(err)
		return err
	}
	if inst == nil {
		err = &InitializationFailure{Stage: "factory", Err: errors.New("nil instance")}
		g.fail(err)
		return err
	}
	g.inst = inst
	g.to(Running, nil)
	return nil
}

// Fail halts a running instance after a fatal frame error.
func (g *Gate) Fail(err error) {
	if g.state == Disposed || g.state == Failed {
		return
	}
	g.release()
	g.fail(err)
}

// Dispose releases everything. The gate is terminal afterwards. It is safe
// to call repeatedly.
func (g *Gate) Dispose() {
	if g.state == Disposed {
		return
	}
	g.release()
	g.to(Disposed, nil)
}

func (g *Gate) fail(err error) {
	g.err = err
	if Classify(err) == ClassCapability {
		g.noRetry = true
	}
	g.to(Failed, err)
}

// settle moves to the waiting or ready state implied by the signals.
func (g *Gate) settle(err error) {
	switch {
	case g.source == "":
		g.to(Idle, err)
	case !g.visible:
		g.to(WaitingForVisible, err)
	case !g.ready:
		g.to(WaitingForFrame, err)
	default:
		g.to(Ready, err)
	}
}

func (g *Gate) release() {
	if g.inst == nil {
		return
	}
	g.inst.Dispose()
	g.inst = nil
}

func (g *Gate) to(s State, err error) {
	if s == g.state && err == nil {
		return
	}
	tr := Transition{From: g.state, To: s, Source: g.source, Err: err}
	g.state = s
	if err != nil {
		slog.Warn("effect lifecycle", "from", tr.From.String(), "to", tr.To.String(), "source", tr.Source, "error", err)
	} else {
		slog.Debug("effect lifecycle", "from", tr.From.String(), "to", tr.To.String(), "source", tr.Source)
	}
	if g.listener != nil {
		g.listener(tr)
	}
}
