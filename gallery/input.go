package gallery

import (
	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/viewport"
)

// updateInput scrolls the page and routes the pointer to the card under
// it. Every other card sees a leave.
func (g *Gallery) updateInput(in Input) {
	if in.Wheel != 0 {
		g.scroller.ScrollBy(-in.Wheel * float32(g.cfg.Gallery.ScrollSpeed))
	}

	query := g.cardFilter.Query()
	for query.Next() {
		card, rect, _, _, eff, _ := query.Get()
		var ev viewport.PointerEvent
		if in.HasMouse {
			ev = eff.Tracker.Update(g.scroller.PageToScreen(rect.Page), in.MouseX, in.MouseY)
		} else {
			ev = eff.Tracker.Reset()
		}
		eff.Hovered = eff.Tracker.Inside()
		if !eff.Live() || ev == viewport.PointerNone {
			continue
		}
		routePointer(card.Effect, eff, rect.View, ev, in.MouseX, in.MouseY)
	}
}

// routePointer forwards a pointer event to the card's engine in the
// coordinates it expects.
func routePointer(kind config.EffectKind, eff *Effect, vp *viewport.Viewport, ev viewport.PointerEvent, x, y float32) {
	switch kind {
	case config.EffectFluid:
		if eff.Fluid == nil {
			return
		}
		lx, ly := vp.Local(x, y)
		switch ev {
		case viewport.PointerEnter:
			eff.Fluid.PointerEnter(lx, ly)
		case viewport.PointerMove:
			eff.Fluid.PointerMove(lx, ly)
		case viewport.PointerLeave:
			eff.Fluid.PointerLeave()
		}

	case config.EffectStretch, config.EffectEdge:
		if eff.Spring == nil {
			return
		}
		if ev == viewport.PointerLeave {
			eff.Spring.PointerLeave()
			return
		}
		nx, ny := vp.ScreenToNDC(x, y)
		if !eff.Spring.PointerNDC(float64(nx), float64(ny)) {
			eff.Spring.PointerLeave()
		}
	}
}
