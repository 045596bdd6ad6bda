package gallery

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/motion"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/telemetry"
)

// playback is the instance of a plain video card: the source plays and the
// painter shows it, with nothing to simulate.
type playback struct{}

func (playback) Step(float64) error { return nil }
func (playback) Resize() error      { return nil }
func (playback) Dispose()           {}

// updateReadiness advances playback and applies the readiness edges the
// sources delivered.
func (g *Gallery) updateReadiness(dt float64) {
	query := g.cardFilter.Query()
	for query.Next() {
		_, _, _, ready, _, _ := query.Get()
		if ready.Source != nil {
			ready.Source.Advance(dt)
		}
	}

	for _, edge := range g.edges {
		if !g.world.Alive(edge.entity) {
			continue
		}
		_, _, _, ready, eff, _ := g.cardMapper.Get(edge.entity)
		ready.Ready = edge.ready
		if edge.ready {
			capturePoster(ready)
		}
		eff.Gate.SetFrameReady(edge.ready)
	}
	g.edges = g.edges[:0]
}

// updateLifecycle starts engines for gates that became ready and drops
// references to engines the gate released.
func (g *Gallery) updateLifecycle() {
	query := g.cardFilter.Query()
	for query.Next() {
		card, rect, _, ready, eff, _ := query.Get()
		if eff.Gate.Instance() == nil && (eff.Guard != nil || eff.Mesh != nil) {
			eff.clear()
		}
		if eff.Gate.State() != lifecycle.Ready {
			continue
		}
		err := eff.Gate.Start(func() (lifecycle.Instance, error) {
			return g.buildEffect(card, rect, ready, eff)
		})
		if err != nil {
			eff.clear()
			continue
		}
		eff.FailMsg = ""
		eff.Guard = lifecycle.NewGuard(card.Name, nil)
	}
}

// buildEffect constructs the engine a card's effect kind names. The motion
// seed is derived from the card's sources unless configured.
func (g *Gallery) buildEffect(card *Card, rect *Rect, ready *Readiness, eff *Effect) (lifecycle.Instance, error) {
	seed := card.Seed
	if seed == 0 {
		seed = motion.SeedFor(card.VideoSrc, card.PosterSrc)
	}

	switch card.Effect {
	case config.EffectFluid:
		opts := g.cfg.FluidOptions(g.cfg.Gallery.Cards[card.Index])
		if opts.Seed == 0 {
			opts.Seed = seed
		}
		backend, err := g.backends.FluidBackend()
		if err != nil {
			return nil, err
		}
		engine, err := fluid.New(opts, ready.Source, rect.View, backend)
		if err != nil {
			return nil, err
		}
		engine.SetObserver(g.perf)
		eff.Fluid = engine
		return engine, nil

	case config.EffectStretch, config.EffectEdge:
		opts, err := springOptions(g.cfg, card.Effect)
		if err != nil {
			return nil, err
		}
		r, err := g.backends.SpringRenderer(ready.Source, rect.View)
		if err != nil {
			return nil, err
		}
		engine, err := spring.New(opts, ready.Source, rect.View, r)
		if err != nil {
			return nil, err
		}
		engine.SetObserver(g.perf)
		eff.Spring = engine
		eff.Mesh = r
		return engine, nil

	case config.EffectVideo:
		return playback{}, nil
	}
	return nil, &lifecycle.InitializationFailure{Stage: "effect", Err: fmt.Errorf("unknown effect %q", card.Effect)}
}

// transitionListener records gate transitions as telemetry events.
// springOptions looks up the tunables for a spring effect kind.
func springOptions(cfg *config.Config, kind config.EffectKind) (spring.Options, error) {
	opts, ok := cfg.SpringOptions(kind)
	if !ok {
		return spring.Options{}, &lifecycle.InitializationFailure{
			Stage: "options",
			Err:   fmt.Errorf("no spring options for effect %q", kind),
		}
	}
	return opts, nil
}

func (g *Gallery) transitionListener(e ecs.Entity, name string) func(lifecycle.Transition) {
	return func(tr lifecycle.Transition) {
		g.collector.RecordTransition(tr)
		g.recordEvent(telemetry.NewLifecycleEvent(g.tick, name, tr))
		if tr.To == lifecycle.Failed && tr.Err != nil && g.world.Alive(e) {
			eff := g.effMap.Get(e)
			eff.FailMsg = failMessage(tr.Err)
		}
	}
}

func (g *Gallery) recordEvent(ev telemetry.LifecycleEvent) {
	g.events = append(g.events, ev)
	if g.onEvent != nil {
		g.onEvent(ev)
	}
}

// failMessage renders an error for the developer overlay.
func failMessage(err error) string {
	var capErr *lifecycle.CapabilityError
	if errors.As(err, &capErr) {
		return "unsupported: " + capErr.Error()
	}
	return err.Error()
}
