package gallery

import (
	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

// Card identifies a card and what it plays.
type Card struct {
	Index     int
	Name      string
	Effect    config.EffectKind
	VideoSrc  string
	PosterSrc string
	Seed      uint32 // 0 = derived from VideoSrc and PosterSrc
}

// Rect holds a card's page rectangle and the screen viewport its engine
// renders into. View is shared with the engine and updated in place.
type Rect struct {
	Page viewport.Rect
	View *viewport.Viewport
}

// Visibility is the latched intersection signal.
type Visibility struct {
	Visible bool // within the screen plus margin this frame
	Seen    bool // has ever been visible
}

// Readiness tracks a card's frame source.
type Readiness struct {
	Source source.FrameSource
	Ready  bool
	Poster source.Frame
	Err    error // source could not be opened
	cancel func()
}

// Effect holds the lifecycle gate and whatever engine it is running.
type Effect struct {
	Gate    *lifecycle.Gate
	Guard   *lifecycle.Guard
	Fluid   *fluid.Engine
	Spring  *spring.Engine
	Mesh    spring.MeshRenderer
	FailMsg string // last fatal error, for the developer overlay

	Tracker viewport.PointerTracker
	Hovered bool
	skipped uint64 // transient skips already reported
}

// Live reports whether the gate has a running instance.
func (e *Effect) Live() bool {
	return e.Gate != nil && e.Gate.State() == lifecycle.Running
}

// clear forgets the engine references after the gate released them.
func (e *Effect) clear() {
	e.Guard = nil
	e.Fluid = nil
	e.Spring = nil
	e.Mesh = nil
	e.skipped = 0
}

// Fade is the poster to live crossfade.
type Fade struct {
	Alpha float64
	Vel   float64
}
