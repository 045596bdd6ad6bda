package gallery

import "math"

// updateEffects steps every running engine behind its guard. A fatal
// error fails the gate, which disposes the engine; the card falls back to
// its poster.
func (g *Gallery) updateEffects(dt float64) {
	query := g.cardFilter.Query()
	for query.Next() {
		_, _, _, _, eff, _ := query.Get()
		if !eff.Live() || eff.Guard == nil {
			continue
		}
		inst := eff.Gate.Instance()
		fatal := eff.Guard.Run(func() error { return inst.Step(dt) })
		g.reportSkips(eff)
		if fatal != nil {
			eff.Gate.Fail(fatal)
			eff.clear()
		}
	}
}

// reportSkips forwards newly swallowed transient errors to the stats
// collector.
func (g *Gallery) reportSkips(eff *Effect) {
	total := eff.Guard.Transient()
	if eff.Fluid != nil {
		total += eff.Fluid.SkippedUploads()
	}
	if s, ok := eff.Mesh.(interface{ Skipped() uint64 }); ok {
		total += s.Skipped()
	}
	if total > eff.skipped {
		g.collector.RecordTransient(int(total - eff.skipped))
		eff.skipped = total
	}
}

// updateFade moves each card's live layer toward full opacity once its
// engine has produced a frame, and back to the poster otherwise.
func (g *Gallery) updateFade() {
	query := g.cardFilter.Query()
	for query.Next() {
		_, _, _, _, eff, fade := query.Get()
		target := 0.0
		if liveFrame(eff) {
			target = 1
		}
		fade.Alpha, fade.Vel = g.fade.Update(fade.Alpha, fade.Vel, target)
		if math.Abs(fade.Alpha-target) < 1e-3 && math.Abs(fade.Vel) < 1e-3 {
			fade.Alpha, fade.Vel = target, 0
		}
	}
}

// liveFrame reports whether the card has something live to show.
func liveFrame(eff *Effect) bool {
	if !eff.Live() {
		return false
	}
	switch {
	case eff.Fluid != nil:
		return eff.Fluid.Frames() > 0
	case eff.Spring != nil:
		return eff.Spring.Frames() > 0
	}
	return true
}
