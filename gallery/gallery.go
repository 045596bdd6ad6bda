// Package gallery hosts a scrolling grid of effect cards as an ark ECS
// world. Each frame runs layout, visibility, readiness, lifecycle, input,
// step and fade systems in that order; drawing is delegated to a Painter.
package gallery

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/harmonica"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/telemetry"
	"github.com/pthm-cable/cardfx/viewport"
)

// Options configures a gallery run.
type Options struct {
	Backends       Backends // nil = HeadlessBackends
	Painter        Painter  // nil = no drawing
	PixelRatio     float32
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string

	// OnEvent, if set, receives every lifecycle event as it happens.
	OnEvent func(telemetry.LifecycleEvent)
}

// Input is one frame of host input in screen pixels.
type Input struct {
	MouseX, MouseY float32
	HasMouse       bool // false when the pointer is outside the window
	Wheel          float32
}

// readyEdge is a readiness change delivered by a source subscription.
type readyEdge struct {
	entity ecs.Entity
	ready  bool
}

// Gallery holds the card world and its telemetry.
type Gallery struct {
	cfg   *config.Config
	world *ecs.World

	cardMapper *ecs.Map6[Card, Rect, Visibility, Readiness, Effect, Fade]
	cardFilter *ecs.Filter6[Card, Rect, Visibility, Readiness, Effect, Fade]
	effMap     *ecs.Map1[Effect]

	backends Backends
	painter  Painter
	scroller *viewport.Scroller
	dpr      float32

	screenW, screenH float32
	contentH         float32
	edges            []readyEdge
	fade             harmonica.Spring

	// Telemetry
	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	events        []telemetry.LifecycleEvent
	onEvent       func(telemetry.LifecycleEvent)
	logStats      bool

	tick    int32
	elapsed float64
	closed  bool
}

// New builds a gallery with one entity per configured card.
func New(cfg *config.Config, opts Options) (*Gallery, error) {
	world := ecs.NewWorld()
	g := &Gallery{
		cfg:        cfg,
		world:      world,
		cardMapper: ecs.NewMap6[Card, Rect, Visibility, Readiness, Effect, Fade](world),
		cardFilter: ecs.NewFilter6[Card, Rect, Visibility, Readiness, Effect, Fade](world),
		effMap:     ecs.NewMap1[Effect](world),
		backends:   opts.Backends,
		painter:    opts.Painter,
		dpr:        opts.PixelRatio,
		screenW:    cfg.Derived.ScreenW32,
		screenH:    cfg.Derived.ScreenH32,
		fade:       harmonica.NewSpring(cfg.Derived.DT, cfg.Fade.AngularFrequency, cfg.Fade.Damping),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		onEvent:    opts.OnEvent,
		logStats:   opts.LogStats,
	}
	if g.backends == nil {
		g.backends = HeadlessBackends{}
	}
	if g.dpr <= 0 {
		g.dpr = float32(cfg.Screen.PixelRatio)
	}
	if g.dpr <= 0 {
		g.dpr = 1
	}

	windowSec := opts.StatsWindowSec
	if windowSec <= 0 {
		windowSec = cfg.Telemetry.StatsInterval
	}
	g.collector = telemetry.NewCollector(windowSec, float32(cfg.Derived.DT))

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	g.scroller = viewport.NewScroller(g.screenW, g.screenH, 0)
	for i, cc := range cfg.Gallery.Cards {
		g.spawnCard(i, cc)
	}
	g.layout(true)
	return g, nil
}

// spawnCard creates a card entity and opens its sources.
func (g *Gallery) spawnCard(i int, cc config.CardConfig) {
	card := Card{
		Index:     i,
		Name:      cc.Name,
		Effect:    cc.Effect,
		VideoSrc:  cc.Video,
		PosterSrc: cc.Poster,
		Seed:      cc.Seed,
	}
	rect := Rect{View: viewport.New(viewport.Rect{}, g.dpr)}
	vis := Visibility{}
	ready := Readiness{}
	eff := Effect{}
	fade := Fade{}
	e := g.cardMapper.NewEntity(&card, &rect, &vis, &ready, &eff, &fade)

	// Components are looked up again after creation: the gate listener and
	// the source subscription refer to the entity, not to component memory.
	_, _, _, r, ef, _ := g.cardMapper.Get(e)
	ef.Gate = lifecycle.NewGate(g.transitionListener(e, card.Name))
	g.openSources(e, card, r)
	if r.Source != nil {
		ef.Gate.SetSource(r.Source.ID())
	} else if r.Err != nil {
		ef.FailMsg = failMessage(r.Err)
	}
}

// Update runs one frame of every system except drawing. Without a painter
// it also closes the frame.
func (g *Gallery) Update(dt float64, in Input) {
	if g.closed {
		return
	}
	g.perf.StartTick()
	g.elapsed += dt

	g.perf.StartPhase(telemetry.PhaseLayout)
	g.layout(false)

	g.perf.StartPhase(telemetry.PhaseVisibility)
	g.updateVisibility()

	g.perf.StartPhase(telemetry.PhaseReadiness)
	g.updateReadiness(dt)

	g.perf.StartPhase(telemetry.PhaseLifecycle)
	g.updateLifecycle()

	g.perf.StartPhase(telemetry.PhaseInput)
	g.updateInput(in)

	// Engines report their own phases.
	g.updateEffects(dt)

	g.perf.StartPhase(telemetry.PhaseFade)
	g.updateFade()

	if g.painter == nil {
		g.endFrame()
	}
}

// Draw paints the frame and closes it. It is a no-op without a painter.
func (g *Gallery) Draw() {
	if g.closed || g.painter == nil {
		return
	}
	g.perf.StartPhase(telemetry.PhaseDraw)
	g.draw()
	g.endFrame()
}

func (g *Gallery) endFrame() {
	g.perf.EndTick()
	g.perf.RecordFrame()
	g.tick++
	g.flushEvents()
	g.flushTelemetry()
}

// Resize updates the screen size. Cards are laid out again on the next
// Update.
func (g *Gallery) Resize(w, h float32) {
	g.screenW, g.screenH = w, h
}

// Tick returns the number of completed frames.
func (g *Gallery) Tick() int32 { return g.tick }

// Scroll returns the scroll offset in pixels.
func (g *Gallery) Scroll() float32 { return g.scroller.Offset }

// Perf returns the frame timing collector.
func (g *Gallery) Perf() *telemetry.PerfCollector { return g.perf }

// Counts returns a census of card states.
func (g *Gallery) Counts() telemetry.CardCounts {
	var c telemetry.CardCounts
	query := g.cardFilter.Query()
	for query.Next() {
		_, _, vis, _, eff, _ := query.Get()
		c.Cards++
		if vis.Visible {
			c.Visible++
		}
		switch eff.Gate.State() {
		case lifecycle.Running:
			c.Running++
		case lifecycle.Failed:
			c.Failed++
		}
	}
	return c
}

// Unload disposes every engine, cancels source subscriptions and closes
// the output files. It is safe to call more than once.
func (g *Gallery) Unload() {
	if g.closed {
		return
	}
	query := g.cardFilter.Query()
	for query.Next() {
		_, _, _, ready, eff, _ := query.Get()
		eff.Gate.Dispose()
		eff.clear()
		if ready.cancel != nil {
			ready.cancel()
			ready.cancel = nil
		}
	}
	g.flushEvents()
	g.closed = true
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// flushTelemetry writes window stats once the stats window has elapsed.
func (g *Gallery) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}
	stats := g.collector.Flush(g.tick, g.Counts(), g.perf.FrameTimesMS())
	perfStats := g.perf.Stats()

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

func (g *Gallery) flushEvents() {
	if len(g.events) == 0 {
		return
	}
	if err := g.outputManager.WriteEvents(g.events); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	g.events = g.events[:0]
}
